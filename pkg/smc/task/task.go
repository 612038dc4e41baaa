// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package task drives long running server side operations to completion.
//
// A task is started with a POST which answers with a follower locator.
// The follower is polled on a fixed interval: changed status messages are
// produced as progress events and a successful follower yields the locator
// of its "result" relation.
package task

import (
	"context"
	"net/url"

	"github.com/netsec-ops/smcctl/pkg/smc/client"
	"github.com/netsec-ops/smcctl/pkg/smc/link"
)

// Client is the subset of client.ResourceClient used to run tasks.
type Client interface {
	Fetch(ctx context.Context, href string) (*client.Element, error)
	Create(ctx context.Context, href string, payload any, params url.Values) (*client.Result, error)
}

// Status is the follower resource.
type Status struct {
	InProgress  bool        `json:"in_progress"`
	Success     bool        `json:"success"`
	LastMessage string      `json:"last_message"`
	Links       []link.Link `json:"link"`
}

// Result returns the locator of the result relation.
func (s *Status) Result() (string, bool) {
	return link.NewIndex(s.Links).Resolve("result")
}

// Failed reports whether the task finished without success.
func (s *Status) Failed() bool {
	return !s.InProgress && !s.Success
}

// Submit starts a task by posting payload to href.
//
// The returned Follower has not polled yet.
func Submit(ctx context.Context, c Client, href string, payload any, params url.Values, opts ...Option) (*Follower, error) {
	result, err := c.Create(ctx, href, payload, params)
	if err != nil {
		return nil, &SubmissionError{Href: href, Err: err}
	}

	var response struct {
		Follower string `json:"follower"`
	}

	if err = result.Decode(&response); err != nil {
		return nil, &SubmissionError{Href: href, Err: err}
	}

	if response.Follower == "" {
		return nil, &SubmissionError{Href: href, Err: ErrNoFollower}
	}

	return Follow(c, response.Follower, opts...), nil
}

// Follow attaches to an already submitted task.
func Follow(c Client, href string, opts ...Option) *Follower {
	options := buildOptions(opts)

	return &Follower{
		client:  c,
		href:    href,
		options: options,
		logger:  options.Logger,
	}
}
