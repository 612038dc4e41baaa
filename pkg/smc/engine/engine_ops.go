// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/netsec-ops/smcctl/pkg/smc/client"
	"github.com/netsec-ops/smcctl/pkg/smc/task"
)

// InterfaceCategory selects an interface listing relation.
type InterfaceCategory string

// Interface categories.
const (
	InterfacesAll             InterfaceCategory = "interfaces"
	InterfacesPhysical        InterfaceCategory = "physical_interface"
	InterfacesTunnel          InterfaceCategory = "tunnel_interface"
	InterfacesModem           InterfaceCategory = "modem_interface"
	InterfacesADSL            InterfaceCategory = "adsl_interface"
	InterfacesWireless        InterfaceCategory = "wireless_interface"
	InterfacesSwitchPhysical  InterfaceCategory = "switch_physical_interface"
	InterfacesVirtualPhysical InterfaceCategory = "virtual_physical_interface"
)

// InterfaceCategories lists every InterfaceCategory.
var InterfaceCategories = []InterfaceCategory{
	InterfacesAll,
	InterfacesPhysical,
	InterfacesTunnel,
	InterfacesModem,
	InterfacesADSL,
	InterfacesWireless,
	InterfacesSwitchPhysical,
	InterfacesVirtualPhysical,
}

// Refresh reinstalls the current policy.
func (e *Engine) Refresh(ctx context.Context, opts ...task.Option) (*task.Follower, error) {
	s, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	href, err := s.resolveEngine("refresh")
	if err != nil {
		return nil, err
	}

	return task.Submit(ctx, e.client, href, nil, nil, e.tasks(opts)...)
}

// Upload installs policy on the engine.
//
// With an empty policy the policy currently installed on the first member is uploaded again.
func (e *Engine) Upload(ctx context.Context, policy string, opts ...task.Option) (*task.Follower, error) {
	s, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	href, err := s.resolveEngine("upload")
	if err != nil {
		return nil, err
	}

	if policy == "" {
		if policy, err = e.installedPolicy(ctx, s); err != nil {
			return nil, err
		}

		e.logger.Info("uploading installed policy", zap.String("engine", s.name), zap.String("policy", policy))
	}

	return task.Submit(ctx, e.client, href, nil, url.Values{"filter": {policy}}, e.tasks(opts)...)
}

func (e *Engine) installedPolicy(ctx context.Context, s *state) (string, error) {
	var member string

	if names := s.members.Names(); len(names) > 0 {
		member = names[0]
	}

	statuses, err := e.status(ctx, s, member)
	if err != nil {
		return "", fmt.Errorf("error reading installed policy: %w", err)
	}

	if len(statuses) == 0 || statuses[0].InstalledPolicy == "" {
		return "", fmt.Errorf("engine %q: %w", s.name, ErrNoInstalledPolicy)
	}

	return statuses[0].InstalledPolicy, nil
}

// Export exports the engine and downloads the archive to filename.
func (e *Engine) Export(ctx context.Context, filename string, opts ...task.Option) error {
	s, err := e.snapshot()
	if err != nil {
		return err
	}

	return e.runAndDownload(ctx, s, "export", url.Values{"filter": {s.name}}, filename, opts)
}

// GenerateSnapshot generates a policy snapshot and downloads it to filename.
func (e *Engine) GenerateSnapshot(ctx context.Context, filename string, opts ...task.Option) error {
	s, err := e.snapshot()
	if err != nil {
		return err
	}

	return e.runAndDownload(ctx, s, "generate_snapshot", nil, filename, opts)
}

func (e *Engine) runAndDownload(ctx context.Context, s *state, op string, params url.Values, filename string, opts []task.Option) error {
	href, err := s.resolveEngine(op)
	if err != nil {
		return err
	}

	follower, err := task.Submit(ctx, e.client, href, nil, params, append(e.tasks(opts), task.WithWait(true))...)
	if err != nil {
		return err
	}

	result, err := follower.Wait(ctx)
	if err != nil {
		return err
	}

	if result == "" {
		return fmt.Errorf("%s of engine %q finished without a result", op, s.name)
	}

	return e.client.Download(ctx, result, nil, filename)
}

// AddRoute adds a static route, network 0.0.0.0/0 sets the default gateway.
func (e *Engine) AddRoute(ctx context.Context, gateway, network string) (*client.Result, error) {
	return e.engineCreate(ctx, "add_route", nil, url.Values{"gateway": {gateway}, "network": {network}})
}

// BlacklistEndpoint is one side of a blacklist entry.
type BlacklistEndpoint struct {
	Name        string `json:"name"`
	AddressMode string `json:"address_mode"`
	IPNetwork   string `json:"ip_network"`
}

// BlacklistEntry is the blacklist request body.
type BlacklistEntry struct {
	Name      string            `json:"name"`
	Duration  int               `json:"duration"`
	EndPoint1 BlacklistEndpoint `json:"end_point1"`
	EndPoint2 BlacklistEndpoint `json:"end_point2"`
}

// DefaultBlacklistDuration is used when BlacklistAdd is given no duration.
const DefaultBlacklistDuration = time.Hour

// NewBlacklistEntry blocks src towards dst, dst 0.0.0.0/32 means any destination.
func NewBlacklistEntry(src, dst string, duration time.Duration) BlacklistEntry {
	if duration <= 0 {
		duration = DefaultBlacklistDuration
	}

	return BlacklistEntry{
		Duration:  int(duration / time.Second),
		EndPoint1: BlacklistEndpoint{AddressMode: "address", IPNetwork: src},
		EndPoint2: BlacklistEndpoint{AddressMode: "address", IPNetwork: dst},
	}
}

// BlacklistAdd adds a blacklist entry. A rule with the "Apply Blacklist" action must exist for it to take effect.
func (e *Engine) BlacklistAdd(ctx context.Context, src, dst string, duration time.Duration) (*client.Result, error) {
	return e.engineCreate(ctx, "blacklist", NewBlacklistEntry(src, dst, duration), nil)
}

// BlacklistFlush removes every blacklist entry.
func (e *Engine) BlacklistFlush(ctx context.Context) (*client.Result, error) {
	s, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	href, err := s.resolveEngine("flush_blacklist")
	if err != nil {
		return nil, err
	}

	return e.client.Delete(ctx, href)
}

// Nodes lists the member elements.
func (e *Engine) Nodes(ctx context.Context) ([]client.ElementRef, error) {
	return e.fetchRefs(ctx, "nodes")
}

// Interfaces lists interfaces of one category.
func (e *Engine) Interfaces(ctx context.Context, category InterfaceCategory) ([]client.ElementRef, error) {
	return e.fetchRefs(ctx, string(category))
}

// AliasResolving returns the alias values resolved for this engine.
func (e *Engine) AliasResolving(ctx context.Context) (json.RawMessage, error) {
	return e.fetchDocument(ctx, "alias_resolving")
}

// RoutingMonitoring returns the live routing table.
func (e *Engine) RoutingMonitoring(ctx context.Context) (json.RawMessage, error) {
	return e.fetchDocument(ctx, "routing_monitoring")
}

// Routing returns the routing configuration.
func (e *Engine) Routing(ctx context.Context) (json.RawMessage, error) {
	return e.fetchDocument(ctx, "routing")
}

// Antispoofing returns the antispoofing configuration.
func (e *Engine) Antispoofing(ctx context.Context) (json.RawMessage, error) {
	return e.fetchDocument(ctx, "antispoofing")
}

// InternalGateway lists the engine VPN gateways.
func (e *Engine) InternalGateway(ctx context.Context) ([]client.ElementRef, error) {
	return e.fetchRefs(ctx, "internal_gateway")
}

// Snapshots lists the policy snapshots of the engine.
func (e *Engine) Snapshots(ctx context.Context) ([]client.ElementRef, error) {
	return e.fetchRefs(ctx, "snapshots")
}

// VirtualResources lists the virtual resources of a master engine.
func (e *Engine) VirtualResources(ctx context.Context) ([]client.ElementRef, error) {
	return e.fetchRefs(ctx, "virtual_resources")
}

// VirtualResource describes a virtual resource of a master engine.
type VirtualResource struct {
	Name            string
	VFWID           int
	Domain          string
	ShowMasterNIC   bool
	ConnectionLimit int
}

// DefaultDomain is the administrative domain used when none is given.
const DefaultDomain = "Shared Domain"

// VirtualResourceAdd creates a virtual resource and returns its locator.
func (e *Engine) VirtualResourceAdd(ctx context.Context, vr VirtualResource) (string, error) {
	domain := vr.Domain
	if domain == "" {
		domain = DefaultDomain
	}

	domainHref, err := lookup(ctx, e.client, domain, "admin_domain")
	if err != nil {
		return "", err
	}

	result, err := e.engineCreate(ctx, "virtual_resources", map[string]any{
		"name":                 vr.Name,
		"vfw_id":               vr.VFWID,
		"allocated_domain_ref": domainHref,
		"show_master_nic":      vr.ShowMasterNIC,
		"connection_limit":     vr.ConnectionLimit,
	}, nil)
	if err != nil {
		return "", err
	}

	return result.Href, nil
}

func (e *Engine) engineCreate(ctx context.Context, op string, payload any, params url.Values) (*client.Result, error) {
	s, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	href, err := s.resolveEngine(op)
	if err != nil {
		return nil, err
	}

	return e.client.Create(ctx, href, payload, params)
}

func (e *Engine) fetchDocument(ctx context.Context, op string) (json.RawMessage, error) {
	s, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	href, err := s.resolveEngine(op)
	if err != nil {
		return nil, err
	}

	return e.client.FetchRaw(ctx, href)
}

func (e *Engine) fetchRefs(ctx context.Context, op string) ([]client.ElementRef, error) {
	data, err := e.fetchDocument(ctx, op)
	if err != nil {
		return nil, err
	}

	return decodeRefs(data)
}

// decodeRefs accepts both a bare list and a {"result": [...]} envelope.
func decodeRefs(data []byte) ([]client.ElementRef, error) {
	var refs []client.ElementRef

	if err := json.Unmarshal(data, &refs); err == nil {
		return refs, nil
	}

	var envelope struct {
		Result []client.ElementRef `json:"result"`
	}

	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("error decoding element list: %w", err)
	}

	return envelope.Result, nil
}

// lookup returns the locator of the element named name in filterContext.
func lookup(ctx context.Context, c client.Searcher, name, filterContext string) (string, error) {
	refs, err := c.Search(ctx, name, filterContext)
	if err != nil {
		return "", err
	}

	if len(refs) == 0 {
		return "", fmt.Errorf("%s %q: %w", filterContext, name, ErrNotFound)
	}

	return refs[0].Href, nil
}

// LogicalInterfaceHref returns the locator of a logical interface by name.
func LogicalInterfaceHref(ctx context.Context, c client.Searcher, name string) (string, error) {
	return lookup(ctx, c, name, "logical_interface")
}

// FirstLogServer returns the locator of the first log server known to the server.
func FirstLogServer(ctx context.Context, c client.Interface) (string, error) {
	href, err := c.EntryPoint(ctx, "log_server")
	if err != nil {
		return "", err
	}

	data, err := c.FetchRaw(ctx, href)
	if err != nil {
		return "", err
	}

	refs, err := decodeRefs(data)
	if err != nil {
		return "", err
	}

	if len(refs) == 0 {
		return "", fmt.Errorf("log server: %w", ErrNotFound)
	}

	return refs[0].Href, nil
}

func physicalInterfaceName(interfaceID string) string {
	return "Interface " + interfaceID
}

// IsCapabilityUnavailable reports whether err means the engine lacks the requested operation.
func IsCapabilityUnavailable(err error) bool {
	return errors.Is(err, ErrCapabilityUnavailable)
}

func optionalParams(kv ...string) url.Values {
	params := url.Values{}

	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			params.Set(kv[i], kv[i+1])
		}
	}

	if len(params) == 0 {
		return nil
	}

	return params
}

func boolParam(b bool) string {
	return strconv.FormatBool(b)
}
