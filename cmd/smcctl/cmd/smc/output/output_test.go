// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package output_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netsec-ops/smcctl/cmd/smcctl/cmd/smc/output"
)

type status struct {
	Member string          `json:"member"`
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
}

var items = []status{
	{Member: "node1", Status: "Online", Data: json.RawMessage(`{"cpu":[1,2]}`)},
	{Member: "node2", Status: "Standby"},
}

func render(t *testing.T, format string) string {
	t.Helper()

	var buf bytes.Buffer

	w, err := output.NewWriter(format, &buf)
	require.NoError(t, err)

	require.NoError(t, w.WriteHeader("MEMBER", "STATUS"))

	for _, item := range items {
		require.NoError(t, w.WriteItem(item, item.Member, item.Status))
	}

	require.NoError(t, w.Flush())

	return buf.String()
}

func TestTable(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "MEMBER   STATUS\nnode1    Online\nnode2    Standby\n", render(t, "table"))
}

func TestJSON(t *testing.T) {
	t.Parallel()

	dec := json.NewDecoder(bytes.NewBufferString(render(t, "json")))

	var first, second map[string]any

	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))

	assert.Equal(t, "node1", first["member"])
	assert.Equal(t, map[string]any{"cpu": []any{1.0, 2.0}}, first["data"])
	assert.Equal(t, "Standby", second["status"])
}

func TestYAML(t *testing.T) {
	t.Parallel()

	docs := strings.Split(render(t, "yaml"), "---\n")
	require.Len(t, docs, 2)

	assert.YAMLEq(t, "member: node1\nstatus: Online\ndata:\n  cpu: [1, 2]\n", docs[0])
	assert.YAMLEq(t, "member: node2\nstatus: Standby\n", docs[1])
}

func TestJSONPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Online\nStandby\n", render(t, "jsonpath={.status}"))
	assert.Equal(t, "[\n    1,\n    2\n]\n", render(t, "jsonpath={.data.cpu}"))
}

func TestNewWriterErrors(t *testing.T) {
	t.Parallel()

	_, err := output.NewWriter("xml", nil)
	require.Error(t, err)

	_, err = output.NewWriter("jsonpath={.status", nil)
	require.Error(t, err)
}
