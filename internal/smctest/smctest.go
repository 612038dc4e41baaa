// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package smctest provides an in-memory management server for tests.
package smctest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync"

	"github.com/netsec-ops/smcctl/pkg/smc/client"
)

// Request is a recorded call.
type Request struct {
	Method  string
	Href    string
	Payload any
	Params  url.Values
	ETag    string
}

// Decode converts the recorded payload into v through JSON.
func (r Request) Decode(v any) error {
	data, err := json.Marshal(r.Payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, v)
}

// Handler answers a Create or Update call.
type Handler func(payload any, params url.Values) (*client.Result, error)

type resource struct {
	bodies [][]byte
	etag   string
}

// Server implements client.Interface in memory.
type Server struct {
	mu sync.Mutex

	resources   map[string]*resource
	handlers    map[string]Handler
	downloads   map[string][]byte
	entryPoints map[string]string
	elements    []client.ElementRef
	requests    []Request
}

var _ client.Interface = (*Server)(nil)

// New returns an empty Server.
func New() *Server {
	return &Server{
		resources:   map[string]*resource{},
		handlers:    map[string]Handler{},
		downloads:   map[string][]byte{},
		entryPoints: map[string]string{},
	}
}

// SetResource stores body as JSON at href.
func (s *Server) SetResource(href string, body any, etag string) {
	s.SetSequence(href, etag, body)
}

// SetSequence makes successive fetches of href return bodies in order, repeating the last one.
func (s *Server) SetSequence(href, etag string, bodies ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := &resource{etag: etag}

	for _, body := range bodies {
		r.bodies = append(r.bodies, mustJSON(body))
	}

	s.resources[href] = r
}

// Handle registers the handler answering Create and Update calls on method and href.
func (s *Server) Handle(method, href string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handlers[method+" "+href] = h
}

// SetDownload stores the bytes served by Download at href.
func (s *Server) SetDownload(href string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.downloads[href] = data
}

// SetEntryPoint registers an API entry point.
func (s *Server) SetEntryPoint(rel, href string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entryPoints[rel] = href
}

// AddElement makes ref searchable by name.
func (s *Server) AddElement(ref client.ElementRef) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.elements = append(s.elements, ref)
}

// Requests returns the recorded calls, optionally filtered by method.
func (s *Server) Requests(method string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []Request

	for _, r := range s.requests {
		if method == "" || r.Method == method {
			result = append(result, r)
		}
	}

	return result
}

// Fetch implements client.ResourceClient.
func (s *Server) Fetch(_ context.Context, href string) (*client.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, Request{Method: http.MethodGet, Href: href})

	r, ok := s.resources[href]
	if !ok || len(r.bodies) == 0 {
		return nil, notFound(http.MethodGet, href)
	}

	data := r.bodies[0]

	if len(r.bodies) > 1 {
		r.bodies = r.bodies[1:]
	}

	return &client.Element{Href: href, ETag: r.etag, Data: data}, nil
}

// FetchRaw implements client.ResourceClient.
func (s *Server) FetchRaw(ctx context.Context, href string) ([]byte, error) {
	element, err := s.Fetch(ctx, href)
	if err != nil {
		return nil, err
	}

	return element.Data, nil
}

// Create implements client.ResourceClient.
func (s *Server) Create(_ context.Context, href string, payload any, params url.Values) (*client.Result, error) {
	return s.mutate(Request{Method: http.MethodPost, Href: href, Payload: payload, Params: params}, http.StatusCreated)
}

// Update implements client.ResourceClient.
func (s *Server) Update(_ context.Context, href string, payload any, params url.Values, etag string) (*client.Result, error) {
	return s.mutate(Request{Method: http.MethodPut, Href: href, Payload: payload, Params: params, ETag: etag}, http.StatusOK)
}

// Delete implements client.ResourceClient.
func (s *Server) Delete(_ context.Context, href string) (*client.Result, error) {
	return s.mutate(Request{Method: http.MethodDelete, Href: href}, http.StatusNoContent)
}

func (s *Server) mutate(req Request, status int) (*client.Result, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	h := s.handlers[req.Method+" "+req.Href]
	s.mu.Unlock()

	if h == nil {
		return &client.Result{StatusCode: status, Href: req.Href}, nil
	}

	return h(req.Payload, req.Params)
}

// Download implements client.ResourceClient.
func (s *Server) Download(_ context.Context, href string, params url.Values, dest string) error {
	s.mu.Lock()
	s.requests = append(s.requests, Request{Method: http.MethodGet, Href: href, Params: params})
	data, ok := s.downloads[href]
	s.mu.Unlock()

	if !ok {
		return notFound(http.MethodGet, href)
	}

	return os.WriteFile(dest, data, 0o644)
}

// EntryPoint implements client.Searcher.
func (s *Server) EntryPoint(_ context.Context, rel string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	href, ok := s.entryPoints[rel]
	if !ok {
		return "", fmt.Errorf("%w: %q", client.ErrUnknownEntryPoint, rel)
	}

	return href, nil
}

// Search implements client.Searcher.
func (s *Server) Search(_ context.Context, name, _ string) ([]client.ElementRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []client.ElementRef

	for _, ref := range s.elements {
		if ref.Name == name {
			result = append(result, ref)
		}
	}

	return result, nil
}

// JSON returns a Result carrying body.
func JSON(body any) *client.Result {
	return &client.Result{StatusCode: http.StatusOK, Body: mustJSON(body)}
}

// Follower answers a task submission with the follower href.
func Follower(href string) Handler {
	return func(any, url.Values) (*client.Result, error) {
		return JSON(map[string]string{"follower": href}), nil
	}
}

// Created answers a Create with a Location.
func Created(location string) Handler {
	return func(any, url.Values) (*client.Result, error) {
		return &client.Result{StatusCode: http.StatusCreated, Href: location}, nil
	}
}

// Fail answers with err.
func Fail(err error) Handler {
	return func(any, url.Values) (*client.Result, error) {
		return nil, err
	}
}

func notFound(method, href string) error {
	return &client.APIError{Method: method, Href: href, StatusCode: http.StatusNotFound}
}

func mustJSON(v any) []byte {
	if raw, ok := v.(string); ok {
		return []byte(raw)
	}

	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}

	return data
}
