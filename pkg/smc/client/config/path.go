// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package config

import (
	"errors"
	"os"
	"path/filepath"
)

const (
	// EnvVar overrides the config file location.
	EnvVar = "SMCCONFIG"
	// Dir is the per-user configuration directory name.
	Dir = ".smc"
	// Filename is the config file name inside Dir.
	Filename = "config"
)

// Path represents a path to a configuration file.
type Path struct {
	// Path is the filesystem path of the config.
	Path string
	// WriteAllowed is true if the path is allowed to be written.
	WriteAllowed bool
}

// GetSMCDirectory returns path to the per-user directory (~/.smc).
func GetSMCDirectory() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, Dir), nil
}

// GetDefaultPaths returns the list of config file paths in order of priority.
func GetDefaultPaths() ([]Path, error) {
	dir, err := GetSMCDirectory()
	if err != nil {
		return nil, err
	}

	result := make([]Path, 0, 2)

	if path, ok := os.LookupEnv(EnvVar); ok {
		result = append(result, Path{
			Path:         path,
			WriteAllowed: true,
		})
	}

	result = append(result, Path{
		Path:         filepath.Join(dir, Filename),
		WriteAllowed: true,
	})

	return result, nil
}

// FirstValidPath returns the first default path that exists.
// If none exists, the first writable one is created and returned.
func FirstValidPath() (Path, error) {
	paths, err := GetDefaultPaths()
	if err != nil {
		return Path{}, err
	}

	var firstWriteAllowed Path

	for _, path := range paths {
		if _, err = os.Stat(path.Path); err == nil {
			return path, nil
		}

		if firstWriteAllowed.Path == "" && path.WriteAllowed {
			firstWriteAllowed = path
		}
	}

	if firstWriteAllowed.Path == "" {
		return Path{}, errors.New("no valid config paths found")
	}

	if err = ensure(firstWriteAllowed.Path); err != nil {
		return Path{}, err
	}

	return firstWriteAllowed, nil
}

// OpenDefault opens the config at path, or at the first valid default path if path is empty.
func OpenDefault(path string) (*Config, error) {
	if path == "" {
		p, err := FirstValidPath()
		if err != nil {
			return nil, err
		}

		path = p.Path
	}

	return Open(path)
}
