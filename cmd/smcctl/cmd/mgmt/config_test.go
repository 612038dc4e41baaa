// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package mgmt

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netsec-ops/smcctl/cmd/smcctl/cmd/smc"
	clientconfig "github.com/netsec-ops/smcctl/pkg/smc/client/config"
)

func TestConfigCommands(t *testing.T) {
	color.NoColor = true

	path := filepath.Join(t.TempDir(), "config")
	smc.GlobalArgs.SMCConfig = path

	t.Cleanup(func() { smc.GlobalArgs.SMCConfig = "" })

	configAddCmdFlags.Endpoint = "https://smc.example.com:8082"
	configAddCmdFlags.APIKey = "secret"

	require.NoError(t, configAddCmd.RunE(configAddCmd, []string{"lab"}))
	require.NoError(t, configAddCmd.RunE(configAddCmd, []string{"prod"}))

	cfg, err := clientconfig.Open(path)
	require.NoError(t, err)
	assert.Equal(t, "lab", cfg.Context)
	assert.Equal(t, []string{"lab", "prod"}, cfg.ContextNames())

	require.NoError(t, configContextCmd.RunE(configContextCmd, []string{"prod"}))
	require.Error(t, configContextCmd.RunE(configContextCmd, []string{"staging"}))

	cfg, err = clientconfig.Open(path)
	require.NoError(t, err)

	var buf bytes.Buffer

	require.NoError(t, renderContexts(cfg, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"lab", "https://smc.example.com:8082", "<default>"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"*", "prod", "https://smc.example.com:8082", "<default>"}, strings.Fields(lines[2]))

	require.NoError(t, configRemoveCmd.RunE(configRemoveCmd, []string{"prod"}))

	cfg, err = clientconfig.Open(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Context)
	assert.Equal(t, []string{"lab"}, cfg.ContextNames())
}

func TestConfigMerge(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "config")
	smc.GlobalArgs.SMCConfig = path

	t.Cleanup(func() { smc.GlobalArgs.SMCConfig = "" })

	require.NoError(t, (&clientconfig.Config{
		Context:  "lab",
		Contexts: map[string]*clientconfig.Context{"lab": {Endpoint: "https://a:8082", APIKey: "a"}},
	}).Save(path))

	other := filepath.Join(dir, "other")

	require.NoError(t, (&clientconfig.Config{
		Context:  "lab",
		Contexts: map[string]*clientconfig.Context{"lab": {Endpoint: "https://b:8082", APIKey: "b"}},
	}).Save(other))

	require.NoError(t, configMergeCmd.RunE(configMergeCmd, []string{other}))

	cfg, err := clientconfig.Open(path)
	require.NoError(t, err)
	assert.Equal(t, "lab-1", cfg.Context)
	assert.Equal(t, "https://b:8082", cfg.Contexts["lab-1"].Endpoint)
	assert.Equal(t, "https://a:8082", cfg.Contexts["lab"].Endpoint)
}
