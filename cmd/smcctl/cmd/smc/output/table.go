// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Table outputs items in Table view.
type Table struct {
	w tabwriter.Writer
}

// NewTable initializes table output.
func NewTable(w io.Writer) *Table {
	output := &Table{}
	output.w.Init(w, 0, 0, 3, ' ', 0)

	return output
}

// WriteHeader implements output.Writer interface.
func (table *Table) WriteHeader(columns ...string) error {
	_, err := fmt.Fprintln(&table.w, strings.Join(columns, "\t"))

	return err
}

// WriteItem implements output.Writer interface.
func (table *Table) WriteItem(_ any, cells ...string) error {
	_, err := fmt.Fprintln(&table.w, strings.Join(cells, "\t"))

	return err
}

// Flush implements output.Writer interface.
func (table *Table) Flush() error {
	return table.w.Flush()
}
