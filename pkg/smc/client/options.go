// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package client

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/netsec-ops/smcctl/pkg/smc/client/config"
)

// Options contains the set of client configuration options.
type Options struct {
	config        *config.Config
	configContext *config.Context

	contextOverride    string
	contextOverrideSet bool

	endpointOverride string
	httpClient       *http.Client
	timeout          time.Duration
	logger           *zap.Logger
	headers          http.Header
	limiter          *rate.Limiter
}

// OptionFunc sets an option for the creation of the Client.
type OptionFunc func(*Options) error

// WithConfig configures the Client with the configuration provided.
// Additionally use WithContextName to override the default context in the Config.
func WithConfig(cfg *config.Config) OptionFunc {
	return func(o *Options) error {
		o.config = cfg

		return nil
	}
}

// WithContextName overrides the default context inside a provided client Config.
func WithContextName(name string) OptionFunc {
	return func(o *Options) error {
		o.contextOverride = name
		o.contextOverrideSet = true

		return nil
	}
}

// WithConfigContext configures the Client with the configuration context provided.
func WithConfigContext(cfg *config.Context) OptionFunc {
	return func(o *Options) error {
		o.configContext = cfg

		return nil
	}
}

// WithEndpoint overrides the endpoint of the selected context.
func WithEndpoint(endpoint string) OptionFunc {
	return func(o *Options) error {
		o.endpointOverride = endpoint

		return nil
	}
}

// WithHTTPClient replaces the default pooled HTTP client.
func WithHTTPClient(c *http.Client) OptionFunc {
	return func(o *Options) error {
		o.httpClient = c

		return nil
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) OptionFunc {
	return func(o *Options) error {
		o.timeout = d

		return nil
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) OptionFunc {
	return func(o *Options) error {
		o.logger = logger

		return nil
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) OptionFunc {
	return func(o *Options) error {
		if o.headers == nil {
			o.headers = http.Header{}
		}

		o.headers.Add(key, value)

		return nil
	}
}

// WithRateLimit caps the request rate sent to the management server.
//
// Requests wait for a token and fail when the context ends first.
func WithRateLimit(limit rate.Limit, burst int) OptionFunc {
	return func(o *Options) error {
		if limit <= 0 || burst <= 0 {
			return fmt.Errorf("invalid rate limit %v with burst %d", limit, burst)
		}

		o.limiter = rate.NewLimiter(limit, burst)

		return nil
	}
}
