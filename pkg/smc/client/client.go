// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package client provides access to the management center REST API.
//
// ResourceClient is the transport contract consumed by the engine model and
// the task driver: everything is addressed by an opaque locator (href)
// obtained from a link list. Client is the HTTP implementation.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/netsec-ops/smcctl/pkg/smc/link"
)

// ResourceClient is the set of operations the engine model issues against
// the management server.
type ResourceClient interface {
	// Fetch returns the resource at href along with its concurrency tag.
	Fetch(ctx context.Context, href string) (*Element, error)
	// FetchRaw returns the undecoded resource body at href.
	FetchRaw(ctx context.Context, href string) ([]byte, error)
	// Create submits payload with a POST.
	Create(ctx context.Context, href string, payload any, params url.Values) (*Result, error)
	// Update submits payload with a PUT guarded by etag.
	Update(ctx context.Context, href string, payload any, params url.Values, etag string) (*Result, error)
	// Delete removes the resource at href.
	Delete(ctx context.Context, href string) (*Result, error)
	// Download streams the resource at href into the file dest.
	Download(ctx context.Context, href string, params url.Values, dest string) error
}

// Searcher looks up top level entry points and elements by name.
type Searcher interface {
	// EntryPoint returns the href of the named API entry point.
	EntryPoint(ctx context.Context, rel string) (string, error)
	// Search returns elements matching name exactly, optionally restricted to filterContext.
	Search(ctx context.Context, name, filterContext string) ([]ElementRef, error)
}

// Interface combines ResourceClient and Searcher.
type Interface interface {
	ResourceClient
	Searcher
}

// ElementRef is a search result entry.
type ElementRef struct {
	Href string `json:"href" yaml:"href"`
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// Element is a fetched resource.
type Element struct {
	Href string
	ETag string
	Data []byte
}

// Decode unmarshals the resource body into v.
func (e *Element) Decode(v any) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("error decoding %q: %w", e.Href, err)
	}

	return nil
}

// Links decodes the embedded link list of the resource.
func (e *Element) Links() ([]link.Link, error) {
	var doc struct {
		Link []link.Link `json:"link"`
	}

	if err := e.Decode(&doc); err != nil {
		return nil, err
	}

	return doc.Link, nil
}

// Result is the outcome of a mutating request.
type Result struct {
	StatusCode int
	// Href is the Location of the created or modified resource, if any.
	Href string
	ETag string
	Body []byte
}

// Decode unmarshals the response body into v.
//
// An empty body leaves v untouched.
func (r *Result) Decode(v any) error {
	if r == nil || len(r.Body) == 0 {
		return nil
	}

	return json.Unmarshal(r.Body, v)
}
