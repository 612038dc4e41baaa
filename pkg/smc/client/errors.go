// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-successful response from the management server.
//
//	var apiErr *client.APIError
//	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusPreconditionFailed { ... }
type APIError struct {
	Method     string   `json:"-"`
	Href       string   `json:"-"`
	StatusCode int      `json:"-"`
	Message    string   `json:"message"`
	Details    []string `json:"details"`
}

func (e *APIError) Error() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s %s: %d %s", e.Method, e.Href, e.StatusCode, http.StatusText(e.StatusCode))

	if e.Message != "" {
		fmt.Fprintf(&sb, ": %s", e.Message)
	}

	if len(e.Details) > 0 {
		fmt.Fprintf(&sb, " (%s)", strings.Join(e.Details, "; "))
	}

	return sb.String()
}

func hasStatus(err error, codes ...int) bool {
	var apiErr *APIError

	if !errors.As(err, &apiErr) {
		return false
	}

	for _, code := range codes {
		if apiErr.StatusCode == code {
			return true
		}
	}

	return false
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsConflict reports whether err was caused by a stale concurrency tag.
func IsConflict(err error) bool {
	return hasStatus(err, http.StatusConflict, http.StatusPreconditionFailed)
}
