// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"

	"github.com/netsec-ops/smcctl/pkg/smc/client/config"
	"github.com/netsec-ops/smcctl/pkg/smc/link"
)

// ErrUnknownEntryPoint is returned when the server does not advertise the requested entry point.
var ErrUnknownEntryPoint = errors.New("unknown entry point")

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Client is the HTTP implementation of Interface.
type Client struct {
	options *Options

	endpoint *url.URL
	version  string
	apiKey   string
	domain   string

	http   *http.Client
	logger *zap.Logger

	mu          sync.Mutex
	entryPoints *link.Index
}

var _ Interface = (*Client)(nil)

// New returns a new Client.
//
// New does not contact the server, call Login before issuing requests that need a session.
func New(opts ...OptionFunc) (*Client, error) {
	c := &Client{options: &Options{}}

	for _, opt := range opts {
		if err := opt(c.options); err != nil {
			return nil, err
		}
	}

	cfgContext, err := c.resolveConfigContext()
	if err != nil {
		return nil, err
	}

	if err = cfgContext.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client configuration: %w", err)
	}

	if c.endpoint, err = url.Parse(strings.TrimRight(cfgContext.Endpoint, "/")); err != nil {
		return nil, err
	}

	c.version = cfgContext.Version()
	c.apiKey = cfgContext.APIKey
	c.domain = cfgContext.Domain

	c.logger = c.options.logger
	if c.logger == nil {
		c.logger = zap.NewNop()
	}

	if c.http, err = c.buildHTTPClient(cfgContext); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Client) resolveConfigContext() (*config.Context, error) {
	var cfgContext *config.Context

	switch {
	case c.options.configContext != nil:
		cfgContext = c.options.configContext
	case c.options.config != nil:
		contextName := c.options.config.Context
		if c.options.contextOverrideSet {
			contextName = c.options.contextOverride
		}

		var err error

		if cfgContext, err = c.options.config.CurrentContext(contextName); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("failed to determine endpoint: no config or config context provided")
	}

	if c.options.endpointOverride != "" {
		overridden := *cfgContext
		overridden.Endpoint = c.options.endpointOverride
		cfgContext = &overridden
	}

	return cfgContext, nil
}

func (c *Client) buildHTTPClient(cfgContext *config.Context) (*http.Client, error) {
	httpClient := c.options.httpClient

	if httpClient == nil {
		transport := cleanhttp.DefaultPooledTransport()

		if cfgContext.Insecure || cfgContext.CACert != "" {
			tlsConfig := &tls.Config{
				InsecureSkipVerify: cfgContext.Insecure, //nolint:gosec
			}

			if cfgContext.CACert != "" {
				pem, err := os.ReadFile(cfgContext.CACert)
				if err != nil {
					return nil, fmt.Errorf("error reading CA certificate: %w", err)
				}

				tlsConfig.RootCAs = x509.NewCertPool()

				if !tlsConfig.RootCAs.AppendCertsFromPEM(pem) {
					return nil, fmt.Errorf("no certificates found in %q", cfgContext.CACert)
				}
			}

			transport.TLSClientConfig = tlsConfig
		}

		httpClient = &http.Client{Transport: transport}
	}

	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}

		httpClient.Jar = jar
	}

	if c.options.timeout > 0 {
		httpClient.Timeout = c.options.timeout
	} else if cfgContext.Timeout > 0 {
		httpClient.Timeout = cfgContext.Timeout
	}

	return httpClient, nil
}

// BaseURL returns the versioned API root.
func (c *Client) BaseURL() string {
	return c.endpoint.String() + "/" + c.version
}

// Login opens a session with the configured API key.
func (c *Client) Login(ctx context.Context) error {
	href, err := c.EntryPoint(ctx, "login")
	if err != nil {
		href = c.BaseURL() + "/login"
	}

	payload := map[string]string{"authenticationkey": c.apiKey}
	if c.domain != "" {
		payload["domain"] = c.domain
	}

	resp, err := c.do(ctx, http.MethodPost, href, nil, payload, nil)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	return resp.Body.Close()
}

// Logout closes the session.
func (c *Client) Logout(ctx context.Context) error {
	href, err := c.EntryPoint(ctx, "logout")
	if err != nil {
		href = c.BaseURL() + "/logout"
	}

	resp, err := c.do(ctx, http.MethodPut, href, nil, nil, nil)
	if err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	return resp.Body.Close()
}

// EntryPoints returns the entry point index, loading it on first use.
func (c *Client) EntryPoints(ctx context.Context) (*link.Index, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entryPoints != nil {
		return c.entryPoints, nil
	}

	resp, err := c.do(ctx, http.MethodGet, c.BaseURL()+"/api", nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("error loading entry points: %w", err)
	}

	defer resp.Body.Close() //nolint:errcheck

	var doc struct {
		EntryPoint []link.Link `json:"entry_point"`
	}

	if err = json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("error decoding entry points: %w", err)
	}

	c.entryPoints = link.NewIndex(doc.EntryPoint)

	c.logger.Debug("loaded entry points", zap.Int("count", c.entryPoints.Len()))

	return c.entryPoints, nil
}

// EntryPoint implements Searcher.
func (c *Client) EntryPoint(ctx context.Context, rel string) (string, error) {
	index, err := c.EntryPoints(ctx)
	if err != nil {
		return "", err
	}

	href, ok := index.Resolve(rel)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEntryPoint, rel)
	}

	return href, nil
}

// Search implements Searcher.
func (c *Client) Search(ctx context.Context, name, filterContext string) ([]ElementRef, error) {
	href, err := c.EntryPoint(ctx, "elements")
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"filter":      {name},
		"exact_match": {"true"},
	}

	if filterContext != "" {
		params.Set("filter_context", filterContext)
	}

	raw, err := c.FetchRaw(ctx, withQuery(href, params))
	if err != nil {
		return nil, err
	}

	var doc struct {
		Result []ElementRef `json:"result"`
	}

	if err = json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("error decoding search result: %w", err)
	}

	matches := make([]ElementRef, 0, len(doc.Result))

	for _, ref := range doc.Result {
		if ref.Name == name {
			matches = append(matches, ref)
		}
	}

	return matches, nil
}

// Fetch implements ResourceClient.
func (c *Client) Fetch(ctx context.Context, href string) (*Element, error) {
	resp, err := c.do(ctx, http.MethodGet, href, nil, nil, nil)
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Element{
		Href: href,
		ETag: resp.Header.Get("ETag"),
		Data: data,
	}, nil
}

// FetchRaw implements ResourceClient.
func (c *Client) FetchRaw(ctx context.Context, href string) ([]byte, error) {
	element, err := c.Fetch(ctx, href)
	if err != nil {
		return nil, err
	}

	return element.Data, nil
}

// Create implements ResourceClient.
func (c *Client) Create(ctx context.Context, href string, payload any, params url.Values) (*Result, error) {
	return c.mutate(ctx, http.MethodPost, href, payload, params, nil)
}

// Update implements ResourceClient.
func (c *Client) Update(ctx context.Context, href string, payload any, params url.Values, etag string) (*Result, error) {
	var headers http.Header

	if etag != "" {
		headers = http.Header{"Etag": {etag}}
	}

	return c.mutate(ctx, http.MethodPut, href, payload, params, headers)
}

// Delete implements ResourceClient.
func (c *Client) Delete(ctx context.Context, href string) (*Result, error) {
	return c.mutate(ctx, http.MethodDelete, href, nil, nil, nil)
}

// Download implements ResourceClient.
func (c *Client) Download(ctx context.Context, href string, params url.Values, dest string) (err error) {
	resp, err := c.do(ctx, http.MethodGet, href, params, nil, http.Header{"Accept": {"application/octet-stream"}})
	if err != nil {
		return err
	}

	defer resp.Body.Close() //nolint:errcheck

	f, err := os.Create(dest)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}

		if err != nil {
			os.Remove(dest) //nolint:errcheck
		}
	}()

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		return fmt.Errorf("error downloading %q: %w", href, err)
	}

	c.logger.Info("download complete", zap.String("file", dest), zap.String("size", humanize.Bytes(uint64(n))))

	return nil
}

func (c *Client) mutate(ctx context.Context, method, href string, payload any, params url.Values, headers http.Header) (*Result, error) {
	resp, err := c.do(ctx, method, href, params, payload, headers)
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Result{
		StatusCode: resp.StatusCode,
		Href:       resp.Header.Get("Location"),
		ETag:       resp.Header.Get("ETag"),
		Body:       body,
	}, nil
}

func (c *Client) resolve(href string) (*url.URL, error) {
	u, err := url.Parse(href)
	if err != nil {
		return nil, fmt.Errorf("invalid href %q: %w", href, err)
	}

	return c.endpoint.ResolveReference(u), nil
}

func (c *Client) do(ctx context.Context, method, href string, params url.Values, payload any, headers http.Header) (*http.Response, error) {
	if c.options.limiter != nil {
		if err := c.options.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	u, err := c.resolve(withQuery(href, params))
	if err != nil {
		return nil, err
	}

	var body io.Reader

	if payload != nil {
		encoded, marshalErr := json.Marshal(payload)
		if marshalErr != nil {
			return nil, fmt.Errorf("error encoding request: %w", marshalErr)
		}

		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range c.options.headers {
		req.Header[k] = v
	}

	for k, v := range headers {
		req.Header[k] = v
	}

	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	logger := c.logger.With(zap.String("method", method), zap.String("url", u.String()), zap.String("request_id", requestID))
	logger.Debug("request")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	logger.Debug("response", zap.Int("status", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close() //nolint:errcheck

		return nil, decodeAPIError(method, href, resp)
	}

	return resp, nil
}

func decodeAPIError(method, href string, resp *http.Response) error {
	apiErr := &APIError{
		Method:     method,
		Href:       href,
		StatusCode: resp.StatusCode,
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil && len(data) > 0 {
		if json.Unmarshal(data, apiErr) != nil {
			apiErr.Message = strings.TrimSpace(string(data))
		}
	}

	return apiErr
}

func withQuery(href string, params url.Values) string {
	if len(params) == 0 {
		return href
	}

	sep := "?"
	if strings.Contains(href, "?") {
		sep = "&"
	}

	return href + sep + params.Encode()
}
