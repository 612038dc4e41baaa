// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package engine models firewall and IPS engines managed by the server.
//
// An Engine is loaded by name. Loading caches the engine level link list and
// one link list per member; every operation resolves its relation in one of
// those indices and issues a single request, or starts a task.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/siderolabs/gen/maps"
	"go.uber.org/zap"

	"github.com/netsec-ops/smcctl/pkg/smc/client"
	"github.com/netsec-ops/smcctl/pkg/smc/link"
	"github.com/netsec-ops/smcctl/pkg/smc/task"
)

// FilterContext restricts the element search to engines.
const FilterContext = "engine_clusters"

// DNSEntry is a ranked DNS server.
type DNSEntry struct {
	Rank  int    `json:"rank" yaml:"rank"`
	Value string `json:"value" yaml:"value"`
}

// Engine is a loaded engine.
type Engine struct {
	client      client.Interface
	logger      *zap.Logger
	taskOptions []task.Option

	mu    sync.RWMutex
	state *state
}

type state struct {
	name         string
	href         string
	etag         string
	clusterMode  bool
	version      string
	logServerRef string
	dns          []DNSEntry
	links        *link.Index
	members      *MemberSet
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTaskOptions sets the defaults for tasks started by the engine.
func WithTaskOptions(opts ...task.Option) Option {
	return func(e *Engine) {
		e.taskOptions = append(e.taskOptions, opts...)
	}
}

// New returns an unloaded Engine.
func New(c client.Interface, opts ...Option) *Engine {
	e := &Engine{
		client: c,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Load fetches the engine by name and replaces any previously loaded state.
func (e *Engine) Load(ctx context.Context, name string) error {
	refs, err := e.client.Search(ctx, name, FilterContext)
	if err != nil {
		return fmt.Errorf("error looking up engine %q: %w", name, err)
	}

	if len(refs) == 0 {
		return fmt.Errorf("engine %q: %w", name, ErrNotFound)
	}

	element, err := e.client.Fetch(ctx, refs[0].Href)
	if err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("engine %q: %w", name, ErrNotFound)
		}

		return fmt.Errorf("error loading engine %q: %w", name, err)
	}

	s, err := decodeState(element)
	if err != nil {
		return fmt.Errorf("error loading engine %q: %w", name, err)
	}

	if s.name == "" {
		s.name = name
	}

	e.mu.Lock()
	e.state = s
	e.mu.Unlock()

	e.logger.Debug("engine loaded",
		zap.String("engine", s.name),
		zap.Bool("cluster", s.clusterMode),
		zap.Strings("members", s.members.Names()),
		zap.Int("links", s.links.Len()),
	)

	return nil
}

// Reload loads the engine again under its current name.
func (e *Engine) Reload(ctx context.Context) error {
	s, err := e.snapshot()
	if err != nil {
		return err
	}

	return e.Load(ctx, s.name)
}

func (e *Engine) snapshot() (*state, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.state == nil {
		return nil, ErrNotLoaded
	}

	return e.state, nil
}

// Loaded reports whether Load succeeded at least once.
func (e *Engine) Loaded() bool {
	_, err := e.snapshot()

	return err == nil
}

func (e *Engine) get() *state {
	s, err := e.snapshot()
	if err != nil {
		return &state{}
	}

	return s
}

// Name returns the engine name.
func (e *Engine) Name() string { return e.get().name }

// Href returns the engine locator.
func (e *Engine) Href() string { return e.get().href }

// ETag returns the concurrency tag captured at load time.
func (e *Engine) ETag() string { return e.get().etag }

// ClusterMode reports whether the engine is clustered.
func (e *Engine) ClusterMode() bool { return e.get().clusterMode }

// Version returns the engine software version.
func (e *Engine) Version() string { return e.get().version }

// LogServerRef returns the log server locator.
func (e *Engine) LogServerRef() string { return e.get().logServerRef }

// DNS returns the DNS servers ordered by rank.
func (e *Engine) DNS() []DNSEntry { return slices.Clone(e.get().dns) }

// Links returns the engine level link index.
func (e *Engine) Links() *link.Index { return e.get().links }

// Members returns the member set.
func (e *Engine) Members() *MemberSet { return e.get().members }

// Client returns the client used by the engine.
func (e *Engine) Client() client.Interface { return e.client }

func (e *Engine) tasks(opts []task.Option) []task.Option {
	return slices.Concat([]task.Option{task.WithLogger(e.logger)}, e.taskOptions, opts)
}

type document struct {
	Name                string                    `json:"name"`
	Link                []link.Link               `json:"link"`
	DomainServerAddress []DNSEntry                `json:"domain_server_address"`
	EngineVersion       string                    `json:"engine_version"`
	LogServerRef        string                    `json:"log_server_ref"`
	ClusterMode         clusterMode               `json:"cluster_mode"`
	Nodes               []map[string]nodeDocument `json:"nodes"`
}

type nodeDocument struct {
	Name   string      `json:"name"`
	NodeID int         `json:"nodeid"`
	Link   []link.Link `json:"link"`
}

// clusterMode accepts both a boolean and the server's mode names ("balancing", "standby").
type clusterMode bool

func (m *clusterMode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*m = false
	case len(data) > 0 && data[0] == '"':
		var s string

		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		*m = clusterMode(s != "" && s != "false")
	default:
		var b bool

		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("invalid cluster_mode %s: %w", data, err)
		}

		*m = clusterMode(b)
	}

	return nil
}

func decodeState(element *client.Element) (*state, error) {
	var doc document

	if err := element.Decode(&doc); err != nil {
		return nil, err
	}

	links := link.NewIndex(doc.Link)

	href, ok := links.Resolve("self")
	if !ok {
		href = element.Href
	}

	var members []*Member

	for _, entry := range doc.Nodes {
		types := maps.Keys(entry)
		slices.Sort(types)

		for _, nodeType := range types {
			node := entry[nodeType]

			members = append(members, &Member{
				Name:   node.Name,
				Type:   nodeType,
				NodeID: node.NodeID,
				Links:  link.NewIndex(node.Link),
			})
		}
	}

	dns := slices.Clone(doc.DomainServerAddress)
	slices.SortStableFunc(dns, func(a, b DNSEntry) int { return a.Rank - b.Rank })

	return &state{
		name:         doc.Name,
		href:         href,
		etag:         element.ETag,
		clusterMode:  bool(doc.ClusterMode),
		version:      doc.EngineVersion,
		logServerRef: doc.LogServerRef,
		dns:          dns,
		links:        links,
		members:      newMemberSet(members),
	}, nil
}
