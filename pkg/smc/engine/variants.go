// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/netsec-ops/smcctl/pkg/smc/client"
	"github.com/netsec-ops/smcctl/pkg/smc/iface"
	"github.com/netsec-ops/smcctl/pkg/smc/task"
)

// Creation entry points.
const (
	EntryPointLayer3Firewall = "single_fw"
	EntryPointLayer2Firewall = "single_layer2"
	EntryPointIPS            = "single_ips"
	EntryPointVirtualEngine  = "virtual_fw"
)

// Appliance is the operation set shared by every engine variant.
type Appliance interface {
	Load(ctx context.Context, name string) error
	Reload(ctx context.Context) error
	Name() string
	NodeType() string
	ClusterMode() bool
	Members() *MemberSet

	Refresh(ctx context.Context, opts ...task.Option) (*task.Follower, error)
	Upload(ctx context.Context, policy string, opts ...task.Option) (*task.Follower, error)
	Status(ctx context.Context, member string) ([]NodeStatus, error)
	GoOnline(ctx context.Context, member, comment string) (*client.Result, error)
	GoOffline(ctx context.Context, member, comment string) (*client.Result, error)
	Reboot(ctx context.Context, member, comment string) (*client.Result, error)
}

var (
	_ Appliance = (*Layer3Firewall)(nil)
	_ Appliance = (*Layer2Firewall)(nil)
	_ Appliance = (*IPS)(nil)
	_ Appliance = (*Layer3VirtualEngine)(nil)
)

// Spec holds the settings common to every single engine.
type Spec struct {
	Name        string
	MgmtAddress string
	MgmtNetwork string
	// MgmtInterface defaults to "0".
	MgmtInterface string
	// LogServerRef defaults to the first log server on Create.
	LogServerRef string
	DNS          []string
}

// InlineSpec adds the inline pair of layer 2 firewalls and IPS engines.
type InlineSpec struct {
	Spec

	// InlineInterface defaults to "1-2".
	InlineInterface string
	// LogicalInterface is the name of the logical interface, "default_eth" by default.
	LogicalInterface string
}

// Defaults for Spec and InlineSpec.
const (
	DefaultMgmtInterface    = "0"
	DefaultInlineInterface  = "1-2"
	DefaultLogicalInterface = "default_eth"
)

func (s Spec) mgmtInterface() string {
	if s.MgmtInterface == "" {
		return DefaultMgmtInterface
	}

	return s.MgmtInterface
}

func (s InlineSpec) withDefaults() InlineSpec {
	if s.InlineInterface == "" {
		s.InlineInterface = DefaultInlineInterface
	}

	if s.LogicalInterface == "" {
		s.LogicalInterface = DefaultLogicalInterface
	}

	return s
}

func (s *Spec) resolveLogServer(ctx context.Context, c client.Interface) error {
	if s.LogServerRef != "" {
		return nil
	}

	href, err := FirstLogServer(ctx, c)
	if err != nil {
		return fmt.Errorf("error resolving log server: %w", err)
	}

	s.LogServerRef = href

	return nil
}

// Layer3Firewall is a single layer 3 firewall.
type Layer3Firewall struct {
	*Engine
}

// NewLayer3Firewall returns an unloaded layer 3 firewall.
func NewLayer3Firewall(c client.Interface, opts ...Option) *Layer3Firewall {
	return &Layer3Firewall{Engine: New(c, opts...)}
}

// NodeType implements Appliance.
func (*Layer3Firewall) NodeType() string { return NodeTypeFirewall }

// BuildLayer3Firewall returns the draft of a layer 3 firewall with a single node management interface.
func BuildLayer3Firewall(spec Spec) *Draft {
	return NewDraft(EntryPointLayer3Firewall, NodeTypeFirewall, spec.Name, spec.LogServerRef, spec.DNS).
		AddPhysicalInterface(iface.SingleNodeManagement(spec.mgmtInterface(), spec.MgmtAddress, spec.MgmtNetwork))
}

// CreateLayer3Firewall creates a layer 3 firewall and loads it.
func CreateLayer3Firewall(ctx context.Context, c client.Interface, spec Spec, opts ...Option) (*Layer3Firewall, error) {
	if err := spec.resolveLogServer(ctx, c); err != nil {
		return nil, err
	}

	e, err := BuildLayer3Firewall(spec).Submit(ctx, c, opts...)
	if err != nil {
		return nil, err
	}

	return &Layer3Firewall{Engine: e}, nil
}

// Layer2Firewall is a single layer 2 firewall.
type Layer2Firewall struct {
	*Engine
}

// NewLayer2Firewall returns an unloaded layer 2 firewall.
func NewLayer2Firewall(c client.Interface, opts ...Option) *Layer2Firewall {
	return &Layer2Firewall{Engine: New(c, opts...)}
}

// NodeType implements Appliance.
func (*Layer2Firewall) NodeType() string { return NodeTypeLayer2Firewall }

// BuildLayer2Firewall returns the draft of a layer 2 firewall bound to the logical interface at logicalInterfaceRef.
func BuildLayer2Firewall(spec InlineSpec, logicalInterfaceRef string) (*Draft, error) {
	return buildInline(EntryPointLayer2Firewall, NodeTypeLayer2Firewall, spec, logicalInterfaceRef)
}

// CreateLayer2Firewall creates a layer 2 firewall and loads it.
func CreateLayer2Firewall(ctx context.Context, c client.Interface, spec InlineSpec, opts ...Option) (*Layer2Firewall, error) {
	e, err := createInline(ctx, c, BuildLayer2Firewall, spec, opts)
	if err != nil {
		return nil, err
	}

	return &Layer2Firewall{Engine: e}, nil
}

// IPS is a single intrusion prevention engine.
type IPS struct {
	*Engine
}

// NewIPS returns an unloaded IPS engine.
func NewIPS(c client.Interface, opts ...Option) *IPS {
	return &IPS{Engine: New(c, opts...)}
}

// NodeType implements Appliance.
func (*IPS) NodeType() string { return NodeTypeIPS }

// BuildIPS returns the draft of an IPS engine bound to the logical interface at logicalInterfaceRef.
func BuildIPS(spec InlineSpec, logicalInterfaceRef string) (*Draft, error) {
	return buildInline(EntryPointIPS, NodeTypeIPS, spec, logicalInterfaceRef)
}

// CreateIPS creates an IPS engine and loads it.
func CreateIPS(ctx context.Context, c client.Interface, spec InlineSpec, opts ...Option) (*IPS, error) {
	e, err := createInline(ctx, c, BuildIPS, spec, opts)
	if err != nil {
		return nil, err
	}

	return &IPS{Engine: e}, nil
}

// VirtualSpec describes a layer 3 virtual engine hosted by a master engine.
type VirtualSpec struct {
	Name string
	// MasterEngine is the name of the engine owning VirtualResource.
	MasterEngine    string
	VirtualResource string
	DNS             []string
	Interfaces      []VirtualInterface
	// OutgoingInterface defaults to "0".
	OutgoingInterface string
}

// VirtualInterface is one addressed interface of a virtual engine.
//
// Interface ids are numbered from 0 inside the virtual engine.
type VirtualInterface struct {
	InterfaceID string
	Address     string
	Network     string
	ZoneRef     string
}

// Layer3VirtualEngine is a layer 3 firewall running on a virtual resource of a master engine.
type Layer3VirtualEngine struct {
	*Engine
}

// NewLayer3VirtualEngine returns an unloaded virtual engine.
func NewLayer3VirtualEngine(c client.Interface, opts ...Option) *Layer3VirtualEngine {
	return &Layer3VirtualEngine{Engine: New(c, opts...)}
}

// NodeType implements Appliance.
func (*Layer3VirtualEngine) NodeType() string { return NodeTypeVirtualFirewall }

// BuildLayer3VirtualEngine returns the draft of a virtual engine bound to the virtual resource at virtualResourceRef.
func BuildLayer3VirtualEngine(spec VirtualSpec, virtualResourceRef string) *Draft {
	outgoing := spec.OutgoingInterface
	if outgoing == "" {
		outgoing = DefaultMgmtInterface
	}

	draft := NewDraft(EntryPointVirtualEngine, NodeTypeVirtualFirewall, spec.Name, "", spec.DNS)
	draft.VirtualResource = optionalRef(virtualResourceRef)

	for _, vi := range spec.Interfaces {
		draft.AddVirtualPhysicalInterface(iface.VirtualSingleNode(vi.InterfaceID, vi.Address, vi.Network, vi.ZoneRef, vi.InterfaceID == outgoing))
	}

	return draft
}

// CreateLayer3VirtualEngine creates a virtual engine on a virtual resource of the master engine and loads it.
func CreateLayer3VirtualEngine(ctx context.Context, c client.Interface, spec VirtualSpec, opts ...Option) (*Layer3VirtualEngine, error) {
	if spec.Name == "" {
		return nil, errors.New("engine name is required")
	}

	master := New(c, opts...)

	if err := master.Load(ctx, spec.MasterEngine); err != nil {
		return nil, fmt.Errorf("error loading master engine: %w", err)
	}

	resources, err := master.VirtualResources(ctx)
	if err != nil {
		return nil, err
	}

	idx := slices.IndexFunc(resources, func(ref client.ElementRef) bool { return ref.Name == spec.VirtualResource })
	if idx < 0 {
		return nil, fmt.Errorf("virtual resource %q on engine %q: %w", spec.VirtualResource, spec.MasterEngine, ErrNotFound)
	}

	e, err := BuildLayer3VirtualEngine(spec, resources[idx].Href).Submit(ctx, c, opts...)
	if err != nil {
		return nil, err
	}

	return &Layer3VirtualEngine{Engine: e}, nil
}

func buildInline(entryPoint, nodeType string, spec InlineSpec, logicalInterfaceRef string) (*Draft, error) {
	spec = spec.withDefaults()

	inline, err := iface.InlinePair(spec.InlineInterface, logicalInterfaceRef)
	if err != nil {
		return nil, err
	}

	return NewDraft(entryPoint, nodeType, spec.Name, spec.LogServerRef, spec.DNS).
		AddPhysicalInterface(iface.NodeDedicatedManagement(spec.mgmtInterface(), spec.MgmtAddress, spec.MgmtNetwork)).
		AddPhysicalInterface(inline), nil
}

func createInline(ctx context.Context, c client.Interface, build func(InlineSpec, string) (*Draft, error), spec InlineSpec, opts []Option) (*Engine, error) {
	spec = spec.withDefaults()

	if err := spec.resolveLogServer(ctx, c); err != nil {
		return nil, err
	}

	logicalHref, err := LogicalInterfaceHref(ctx, c, spec.LogicalInterface)
	if err != nil {
		return nil, err
	}

	draft, err := build(spec, logicalHref)
	if err != nil {
		return nil, err
	}

	return draft.Submit(ctx, c, opts...)
}

// ForNodeType returns the unloaded variant matching a member type tag.
func ForNodeType(nodeType string, c client.Interface, opts ...Option) (Appliance, error) {
	switch nodeType {
	case NodeTypeFirewall:
		return NewLayer3Firewall(c, opts...), nil
	case NodeTypeLayer2Firewall:
		return NewLayer2Firewall(c, opts...), nil
	case NodeTypeIPS:
		return NewIPS(c, opts...), nil
	case NodeTypeVirtualFirewall:
		return NewLayer3VirtualEngine(c, opts...), nil
	default:
		return nil, fmt.Errorf("unsupported engine type %q", nodeType)
	}
}
