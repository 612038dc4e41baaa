// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/netsec-ops/smcctl/pkg/smc/client"
	"github.com/netsec-ops/smcctl/pkg/smc/engine"
	"github.com/netsec-ops/smcctl/pkg/smc/task"
)

func newTabWriter(output io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(output, 0, 0, 3, ' ', 0)
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}

	return s
}

// RenderEngine writes a summary of a loaded engine and its members.
func RenderEngine(e *engine.Engine, output io.Writer) error {
	w := newTabWriter(output)

	mode := "single"
	if e.ClusterMode() {
		mode = "cluster"
	}

	fmt.Fprintf(w, "NAME\t%s\n", e.Name())
	fmt.Fprintf(w, "HREF\t%s\n", e.Href())
	fmt.Fprintf(w, "MODE\t%s\n", mode)
	fmt.Fprintf(w, "VERSION\t%s\n", orNone(e.Version()))
	fmt.Fprintf(w, "LOG SERVER\t%s\n", orNone(e.LogServerRef()))

	dns := make([]string, 0, len(e.DNS()))
	for _, entry := range e.DNS() {
		dns = append(dns, entry.Value)
	}

	fmt.Fprintf(w, "DNS\t%s\n", orNone(strings.Join(dns, ", ")))

	label := "MEMBERS"

	for _, m := range e.Members().All() {
		fmt.Fprintf(w, "%s\t%s (%s, node %d)\n", label, m.Name, m.Type, m.NodeID)
		label = ""
	}

	return w.Flush()
}

// RenderStatuses writes one row per member status.
func RenderStatuses(statuses []engine.NodeStatus, output io.Writer) error {
	w := newTabWriter(output)

	fmt.Fprintln(w, "MEMBER\tSTATUS\tSTATE\tCONFIGURATION\tPOLICY\tVERSION")

	for _, s := range statuses {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Member, statusColor(s.Status), orNone(s.State), orNone(s.ConfigurationStatus), orNone(s.InstalledPolicy), orNone(s.Version))
	}

	return w.Flush()
}

func statusColor(status string) string {
	switch strings.ToLower(status) {
	case "online", "locked online":
		return color.GreenString(status)
	case "offline", "locked offline", "no policy installed", "":
		return color.YellowString(orNone(status))
	default:
		return status
	}
}

// RenderRefs writes element references as a NAME/TYPE/HREF table.
func RenderRefs(refs []client.ElementRef, output io.Writer) error {
	w := newTabWriter(output)

	fmt.Fprintln(w, "NAME\tTYPE\tHREF")

	for _, ref := range refs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", ref.Name, orNone(ref.Type), ref.Href)
	}

	return w.Flush()
}

// RenderTaskEvents prints task progress as it arrives and returns the result href.
//
// When the follower was started without waiting only the follower href is printed.
func RenderTaskEvents(ctx context.Context, f *task.Follower, output io.Writer) (string, error) {
	var result string

	for ev := range f.Events(ctx) {
		switch ev := ev.(type) {
		case task.EventProgress:
			fmt.Fprintf(output, "%s %s\n", color.CyanString("==>"), ev.Message)
		case task.EventFollower:
			fmt.Fprintf(output, "task submitted, follow it at %s\n", ev.Href)

			return ev.Href, nil
		case task.EventDone:
			result = ev.Href
		case task.EventFailed:
			var failed *task.TaskFailedError

			if errors.As(ev.Err, &failed) {
				fmt.Fprintf(output, "%s %s\n", color.RedString("task failed:"), orNone(failed.Message))
			}

			return "", ev.Err
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	return result, nil
}
