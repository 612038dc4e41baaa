// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cli_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netsec-ops/smcctl/internal/smctest"
	"github.com/netsec-ops/smcctl/pkg/cli"
	"github.com/netsec-ops/smcctl/pkg/smc/client"
	"github.com/netsec-ops/smcctl/pkg/smc/engine"
	"github.com/netsec-ops/smcctl/pkg/smc/task"
)

func init() {
	color.NoColor = true
}

func TestRenderRefs(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, cli.RenderRefs([]client.ElementRef{
		{Name: "Interface 0", Type: "physical_interface", Href: "/fw/physical_interface/0"},
		{Name: "lo", Href: "/fw/loopback/1"},
	}, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"NAME", "TYPE", "HREF"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"Interface", "0", "physical_interface", "/fw/physical_interface/0"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"lo", "<none>", "/fw/loopback/1"}, strings.Fields(lines[2]))
}

func TestRenderStatuses(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, cli.RenderStatuses([]engine.NodeStatus{
		{Member: "node1", Status: "Online", State: "READY", ConfigurationStatus: "Installed", InstalledPolicy: "Standard", Version: "6.5.1"},
		{Member: "node2"},
	}, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"node1", "Online", "READY", "Installed", "Standard", "6.5.1"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"node2", "<none>", "<none>", "<none>", "<none>", "<none>"}, strings.Fields(lines[2]))
}

func TestRenderEngine(t *testing.T) {
	srv := smctest.New()
	srv.AddElement(client.ElementRef{Name: "cl1", Href: "/elements/fw_cluster/2"})
	srv.SetResource("/elements/fw_cluster/2", map[string]any{
		"name":                  "cl1",
		"cluster_mode":          "standby",
		"engine_version":        "6.5.1",
		"domain_server_address": []map[string]any{{"rank": 0, "value": "8.8.8.8"}},
		"nodes": []map[string]any{
			{"firewall_node": map[string]any{"name": "node1", "nodeid": 1}},
			{"firewall_node": map[string]any{"name": "node2", "nodeid": 2}},
		},
	}, "")

	e := engine.New(srv)
	require.NoError(t, e.Load(t.Context(), "cl1"))

	var buf bytes.Buffer

	require.NoError(t, cli.RenderEngine(e, &buf))

	out := buf.String()
	assert.Contains(t, out, "MODE         cluster")
	assert.Contains(t, out, "LOG SERVER   <none>")
	assert.Contains(t, out, "DNS          8.8.8.8")
	assert.Contains(t, out, "MEMBERS      node1 (firewall_node, node 1)")
	assert.Contains(t, out, "             node2 (firewall_node, node 2)")
}

func TestRenderTaskEvents(t *testing.T) {
	srv := smctest.New()
	srv.SetSequence("/task/1", "",
		map[string]any{"in_progress": true, "last_message": "<b>Uploading</b>"},
		map[string]any{"in_progress": true, "last_message": "Uploading"},
		map[string]any{"in_progress": false, "success": true, "last_message": "Done", "link": []map[string]string{{"rel": "result", "href": "/result/1"}}},
	)

	var buf bytes.Buffer

	result, err := cli.RenderTaskEvents(t.Context(), task.Follow(srv, "/task/1", task.WithInterval(time.Millisecond)), &buf)
	require.NoError(t, err)
	assert.Equal(t, "/result/1", result)
	assert.Equal(t, "==> Uploading\n==> Done\n", buf.String())

	buf.Reset()

	srv.SetResource("/task/2", map[string]any{"in_progress": false, "success": false, "last_message": "Policy failed"}, "")

	_, err = cli.RenderTaskEvents(t.Context(), task.Follow(srv, "/task/2", task.WithInterval(time.Millisecond)), &buf)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "task failed: Policy failed")

	buf.Reset()

	href, err := cli.RenderTaskEvents(t.Context(), task.Follow(srv, "/task/3", task.WithoutWait()), &buf)
	require.NoError(t, err)
	assert.Equal(t, "/task/3", href)
	assert.Equal(t, "task submitted, follow it at /task/3\n", buf.String())
}
