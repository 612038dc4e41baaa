// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netsec-ops/smcctl/pkg/smc/client/config"
)

func TestConfigMerge(t *testing.T) {
	context1 := &config.Context{Endpoint: "https://smc1:8082"}
	context2 := &config.Context{Endpoint: "https://smc2:8082"}

	for _, tt := range []struct {
		name          string
		config        *config.Config
		configToMerge *config.Config

		expectedContext  string
		expectedContexts map[string]*config.Context
		expectedRenames  []config.Rename
	}{
		{
			name:   "IntoEmpty",
			config: &config.Config{},
			configToMerge: &config.Config{
				Context: "foo",
				Contexts: map[string]*config.Context{
					"foo": context1,
				},
			},

			expectedContext: "foo",
			expectedContexts: map[string]*config.Context{
				"foo": context1,
			},
			expectedRenames: []config.Rename{},
		},
		{
			name: "NoConflict",
			config: &config.Config{
				Context: "bar",
				Contexts: map[string]*config.Context{
					"bar": context2,
				},
			},
			configToMerge: &config.Config{
				Contexts: map[string]*config.Context{
					"foo": context1,
				},
			},

			expectedContext: "bar",
			expectedContexts: map[string]*config.Context{
				"foo": context1,
				"bar": context2,
			},
			expectedRenames: []config.Rename{},
		},
		{
			name: "WithRename",
			config: &config.Config{
				Context: "bar",
				Contexts: map[string]*config.Context{
					"bar": context2,
				},
			},
			configToMerge: &config.Config{
				Context: "bar",
				Contexts: map[string]*config.Context{
					"bar": context1,
				},
			},

			expectedContext: "bar-1",
			expectedContexts: map[string]*config.Context{
				"bar-1": context1,
				"bar":   context2,
			},
			expectedRenames: []config.Rename{{From: "bar", To: "bar-1"}},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			renames := tt.config.Merge(tt.configToMerge)

			assert.Equal(t, tt.expectedContext, tt.config.Context)
			assert.Equal(t, tt.expectedContexts, tt.config.Contexts)
			assert.Equal(t, tt.expectedRenames, renames)
		})
	}
}

func TestConfigRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config")

	cfg, err := config.Open(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Contexts)

	cfg.Context = "lab"
	cfg.Contexts["lab"] = &config.Context{
		Endpoint: "https://smc.lab:8082",
		APIKey:   "secret",
		Timeout:  30 * time.Second,
	}

	require.NoError(t, cfg.Save(path))

	reopened, err := config.Open(path)
	require.NoError(t, err)

	current, err := reopened.CurrentContext("")
	require.NoError(t, err)
	assert.Equal(t, "https://smc.lab:8082", current.Endpoint)
	assert.Equal(t, config.DefaultAPIVersion, current.Version())
	assert.Equal(t, 30*time.Second, current.Timeout)
}

func TestCurrentContext(t *testing.T) {
	t.Parallel()

	cfg, err := config.FromString(`
context: a
contexts:
  a:
    endpoint: https://a:8082
    apiKey: k
    apiVersion: "7.0"
  b:
    endpoint: https://b:8082
    apiKey: k
`)
	require.NoError(t, err)

	current, err := cfg.CurrentContext("")
	require.NoError(t, err)
	assert.Equal(t, "7.0", current.Version())

	current, err = cfg.CurrentContext("b")
	require.NoError(t, err)
	assert.Equal(t, "https://b:8082", current.Endpoint)

	_, err = cfg.CurrentContext("c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[a b]")

	_, err = (&config.Config{}).CurrentContext("")
	require.Error(t, err)
}

func TestContextValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, (&config.Context{Endpoint: "https://smc:8082", APIKey: "k"}).Validate())

	err := (&config.Context{Endpoint: "smc", Timeout: -time.Second}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an absolute URL")
	assert.Contains(t, err.Error(), "apiKey is not set")
	assert.Contains(t, err.Error(), "negative")
}

func TestGetDefaultPaths(t *testing.T) {
	t.Setenv(config.EnvVar, "/custom/smc.yaml")

	paths, err := config.GetDefaultPaths()
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, "/custom/smc.yaml", paths[0].Path)
	assert.Equal(t, config.Filename, filepath.Base(paths[1].Path))
}
