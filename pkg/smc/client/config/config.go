// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package config holds the smcctl client configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/siderolabs/gen/maps"
	yaml "gopkg.in/yaml.v3"
)

// DefaultAPIVersion is used when a context does not pin an API version.
const DefaultAPIVersion = "6.5"

// Config represents the configuration file.
type Config struct {
	Context  string              `yaml:"context"`
	Contexts map[string]*Context `yaml:"contexts"`
}

// Context represents the set of credentials required to talk to a management server.
type Context struct {
	Endpoint   string        `yaml:"endpoint"`
	APIVersion string        `yaml:"apiVersion,omitempty"`
	APIKey     string        `yaml:"apiKey"`
	Domain     string        `yaml:"domain,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
	CACert     string        `yaml:"caCert,omitempty"`
	Insecure   bool          `yaml:"insecure,omitempty"`
}

// Version returns the configured API version or the default one.
func (c *Context) Version() string {
	if c.APIVersion == "" {
		return DefaultAPIVersion
	}

	return c.APIVersion
}

// Validate checks that the context can be used to build a client.
func (c *Context) Validate() error {
	var result *multierror.Error

	if c.Endpoint == "" {
		result = multierror.Append(result, errors.New("endpoint is not set"))
	} else if u, err := url.Parse(c.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		result = multierror.Append(result, fmt.Errorf("endpoint %q is not an absolute URL", c.Endpoint))
	}

	if c.APIKey == "" {
		result = multierror.Append(result, errors.New("apiKey is not set"))
	}

	if c.Timeout < 0 {
		result = multierror.Append(result, fmt.Errorf("timeout %s is negative", c.Timeout))
	}

	return result.ErrorOrNil()
}

// Open reads the config and initializes a Config struct.
func Open(p string) (c *Config, err error) {
	if err = ensure(p); err != nil {
		return nil, err
	}

	var f *os.File

	f, err = os.Open(p)
	if err != nil {
		return
	}

	defer f.Close() //nolint:errcheck

	return ReadFrom(f)
}

// FromString returns a config from a string.
func FromString(p string) (c *Config, err error) {
	return ReadFrom(bytes.NewReader([]byte(p)))
}

// FromBytes returns a config from []byte.
func FromBytes(b []byte) (c *Config, err error) {
	return ReadFrom(bytes.NewReader(b))
}

// ReadFrom reads a config from io.Reader.
func ReadFrom(r io.Reader) (c *Config, err error) {
	c = &Config{}

	if err = yaml.NewDecoder(r).Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	if c.Contexts == nil {
		c.Contexts = map[string]*Context{}
	}

	return c, nil
}

// Save writes the config to disk.
func (c *Config) Save(p string) error {
	configBytes, err := c.Bytes()
	if err != nil {
		return err
	}

	if err = os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return err
	}

	return os.WriteFile(p, configBytes, 0o600)
}

// Bytes gets yaml encoded config data.
func (c *Config) Bytes() ([]byte, error) {
	return yaml.Marshal(c)
}

// CurrentContext returns the named context, or the default one if name is empty.
func (c *Config) CurrentContext(name string) (*Context, error) {
	if name == "" {
		name = c.Context
	}

	if name == "" {
		return nil, errors.New("no context is selected")
	}

	ctx, ok := c.Contexts[name]
	if !ok {
		return nil, fmt.Errorf("context %q is not defined in the config, known contexts: %v", name, c.ContextNames())
	}

	return ctx, nil
}

// ContextNames returns the sorted list of defined contexts.
func (c *Config) ContextNames() []string {
	names := maps.Keys(c.Contexts)
	slices.Sort(names)

	return names
}

// Rename describes context rename during merge.
type Rename struct {
	From string
	To   string
}

// String converts to "from" -> "to".
func (r *Rename) String() string {
	return fmt.Sprintf("%q -> %q", r.From, r.To)
}

// Merge in additional contexts from another Config.
//
// Current context is overridden from passed in config.
func (c *Config) Merge(cfg *Config) []Rename {
	if c.Contexts == nil {
		c.Contexts = map[string]*Context{}
	}

	mappedContexts := map[string]string{}
	renames := []Rename{}

	for _, name := range cfg.ContextNames() {
		mergedName := name

		if _, exists := c.Contexts[mergedName]; exists {
			for i := 1; ; i++ {
				mergedName = fmt.Sprintf("%s-%d", name, i)

				if _, exists := c.Contexts[mergedName]; !exists {
					break
				}
			}
		}

		mappedContexts[name] = mergedName

		if name != mergedName {
			renames = append(renames, Rename{name, mergedName})
		}

		c.Contexts[mergedName] = cfg.Contexts[name]
	}

	if cfg.Context != "" {
		c.Context = mappedContexts[cfg.Context]
	}

	return renames
}

func ensure(filename string) error {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		config := &Config{
			Context:  "",
			Contexts: map[string]*Context{},
		}

		return config.Save(filename)
	}

	return nil
}
