// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package output

import (
	"encoding/json"
	"io"
)

// JSON outputs items in JSON format, one document per item.
type JSON struct {
	enc *json.Encoder
}

// NewJSON initializes JSON output.
func NewJSON(w io.Writer) *JSON {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")

	return &JSON{enc: enc}
}

// WriteHeader implements output.Writer interface.
func (j *JSON) WriteHeader(...string) error {
	return nil
}

// WriteItem implements output.Writer interface.
func (j *JSON) WriteItem(item any, _ ...string) error {
	return j.enc.Encode(item)
}

// Flush implements output.Writer interface.
func (j *JSON) Flush() error {
	return nil
}
