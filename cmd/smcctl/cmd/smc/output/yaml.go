// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package output

import (
	"encoding/json"
	"fmt"
	"io"

	yaml "gopkg.in/yaml.v3"
)

// YAML outputs items as a stream of YAML documents.
type YAML struct {
	w     io.Writer
	count int
}

// NewYAML initializes YAML output.
func NewYAML(w io.Writer) *YAML {
	return &YAML{w: w}
}

// WriteHeader implements output.Writer interface.
func (y *YAML) WriteHeader(...string) error {
	return nil
}

// WriteItem implements output.Writer interface.
//
// Items go through their JSON form first so raw server documents render as mappings.
func (y *YAML) WriteItem(item any, _ ...string) error {
	data, err := toGeneric(item)
	if err != nil {
		return err
	}

	if y.count > 0 {
		if _, err = fmt.Fprintln(y.w, "---"); err != nil {
			return err
		}
	}

	y.count++

	enc := yaml.NewEncoder(y.w)
	enc.SetIndent(2)

	if err = enc.Encode(data); err != nil {
		return err
	}

	return enc.Close()
}

// Flush implements output.Writer interface.
func (y *YAML) Flush() error {
	return nil
}

func toGeneric(item any) (any, error) {
	raw, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}

	var data any

	if err = json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}

	return data, nil
}
