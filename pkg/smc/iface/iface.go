// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package iface builds physical interface payloads for engines.
//
// A physical interface carries one or more addressed sub-interfaces:
// single node interfaces on layer 3 firewalls, node dedicated interfaces on
// layer 2 firewalls and IPS engines, inline pairs and capture interfaces.
package iface

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/siderolabs/go-pointer"
)

// ErrInvalidInlinePair is returned for inline interface ids not in the "<first>-<second>" form.
var ErrInvalidInlinePair = errors.New("inline interface must be two interface ids separated by '-'")

// Physical is a physical interface definition.
type Physical struct {
	InterfaceID    string  `json:"interface_id"`
	Interfaces     []Sub   `json:"interfaces"`
	VLANInterfaces []VLAN  `json:"vlanInterfaces"`
	ZoneRef        *string `json:"zone_ref"`
}

// Wrapped is the form embedded in the engine creation payload.
//
// Exactly one of Physical and Virtual is set.
type Wrapped struct {
	Physical *Physical `json:"physical_interface,omitempty"`
	Virtual  *Physical `json:"virtual_physical_interface,omitempty"`
}

// Sub holds exactly one sub-interface, keyed by its type in JSON.
type Sub struct {
	SingleNode *SingleNode `json:"single_node_interface,omitempty"`
	Node       *Node       `json:"node_interface,omitempty"`
	Inline     *Inline     `json:"inline_interface,omitempty"`
	Capture    *Capture    `json:"capture_interface,omitempty"`
}

// SingleNode is a routed interface of a single layer 3 firewall.
type SingleNode struct {
	Address           string `json:"address"`
	NetworkValue      string `json:"network_value"`
	NICID             string `json:"nicid"`
	NodeID            int    `json:"nodeid"`
	AuthRequest       bool   `json:"auth_request"`
	AuthRequestSource bool   `json:"auth_request_source"`
	PrimaryHeartbeat  bool   `json:"primary_heartbeat"`
	BackupHeartbeat   bool   `json:"backup_heartbeat"`
	BackupMgt         bool   `json:"backup_mgt"`
	Dynamic           bool   `json:"dynamic"`
	Outgoing          bool   `json:"outgoing"`
	PrimaryMgt        bool   `json:"primary_mgt"`
}

// Node is a node dedicated interface.
type Node struct {
	Address         string `json:"address"`
	NetworkValue    string `json:"network_value"`
	NICID           string `json:"nicid"`
	NodeID          int    `json:"nodeid"`
	AuthRequest     bool   `json:"auth_request"`
	BackupHeartbeat bool   `json:"backup_heartbeat"`
	Outgoing        bool   `json:"outgoing"`
	PrimaryMgt      bool   `json:"primary_mgt"`
}

// Inline is a pair of interfaces forwarding traffic at layer 2.
type Inline struct {
	NICID                   string  `json:"nicid"`
	LogicalInterfaceRef     string  `json:"logical_interface_ref"`
	FailureMode             string  `json:"failure_mode"`
	InspectUnspecifiedVLANs bool    `json:"inspect_unspecified_vlans"`
	ZoneRef                 *string `json:"zone_ref"`
}

// Capture is a span port interface.
type Capture struct {
	NICID                   string `json:"nicid"`
	LogicalInterfaceRef     string `json:"logical_interface_ref"`
	InspectUnspecifiedVLANs bool   `json:"inspect_unspecified_vlans"`
}

// VLAN is a tagged sub-interface of a physical interface.
type VLAN struct {
	InterfaceID         string  `json:"interface_id"`
	VirtualMapping      *int    `json:"virtual_mapping"`
	VirtualResourceName *string `json:"virtual_resource_name"`
	ZoneRef             *string `json:"zone_ref"`
	Interfaces          []Sub   `json:"interfaces"`
}

// New returns an empty physical interface.
func New(interfaceID string) *Physical {
	return &Physical{
		InterfaceID:    interfaceID,
		Interfaces:     []Sub{},
		VLANInterfaces: []VLAN{},
	}
}

// Wrap returns the engine creation form of p.
func (p *Physical) Wrap() Wrapped {
	return Wrapped{Physical: p}
}

// WrapVirtual returns the virtual engine creation form of p.
func (p *Physical) WrapVirtual() Wrapped {
	return Wrapped{Virtual: p}
}

// WithZone sets the zone of the physical interface.
func (p *Physical) WithZone(zoneRef string) *Physical {
	p.ZoneRef = optional(zoneRef)

	return p
}

// AddSingleNodeInterface adds a layer 3 address, mgmt enables management and outgoing traffic on it.
func (p *Physical) AddSingleNodeInterface(address, network string, mgmt bool) *Physical {
	p.Interfaces = append(p.Interfaces, Sub{SingleNode: newSingleNode(address, network, p.InterfaceID, mgmt)})

	return p
}

// AddNodeInterface adds a node dedicated address for node nodeID.
func (p *Physical) AddNodeInterface(address, network string, nodeID int, mgmt bool) *Physical {
	p.Interfaces = append(p.Interfaces, Sub{Node: &Node{
		Address:      address,
		NetworkValue: network,
		NICID:        p.InterfaceID,
		NodeID:       nodeID,
		Outgoing:     mgmt,
		PrimaryMgt:   mgmt,
	}})

	return p
}

// AddInlineInterface turns p into an inline pair.
//
// The interface id of p must be "<first>-<second>"; the physical interface
// keeps the first id. zoneRef applies to the second interface of the pair.
func (p *Physical) AddInlineInterface(logicalInterfaceRef, zoneRef string) (*Physical, error) {
	first, _, err := ParseInlinePair(p.InterfaceID)
	if err != nil {
		return nil, err
	}

	p.Interfaces = append(p.Interfaces, Sub{Inline: newInline(p.InterfaceID, logicalInterfaceRef, zoneRef)})
	p.InterfaceID = first

	return p, nil
}

// AddCaptureInterface adds a capture interface bound to a logical interface.
func (p *Physical) AddCaptureInterface(logicalInterfaceRef string) *Physical {
	p.Interfaces = append(p.Interfaces, Sub{Capture: &Capture{
		NICID:                   p.InterfaceID,
		LogicalInterfaceRef:     logicalInterfaceRef,
		InspectUnspecifiedVLANs: true,
	}})

	return p
}

// AddVLAN adds an unaddressed VLAN.
//
// virtualMapping and virtualResource are only used on master engines, pass nil and "" otherwise.
func (p *Physical) AddVLAN(vlanID int, virtualMapping *int, virtualResource, zoneRef string) *Physical {
	p.VLANInterfaces = append(p.VLANInterfaces, NewVLAN(p.InterfaceID, vlanID, virtualMapping, virtualResource, zoneRef))

	return p
}

// AddSingleNodeInterfaceToVLAN adds a VLAN carrying a layer 3 address.
func (p *Physical) AddSingleNodeInterfaceToVLAN(address, network string, vlanID int, zoneRef string) *Physical {
	vlan := NewVLAN(p.InterfaceID, vlanID, nil, "", zoneRef)
	vlan.Interfaces = append(vlan.Interfaces, Sub{SingleNode: newSingleNode(address, network, vlan.InterfaceID, false)})

	p.VLANInterfaces = append(p.VLANInterfaces, vlan)

	return p
}

// NewVLAN returns the VLAN definition "<interfaceID>.<vlanID>".
func NewVLAN(interfaceID string, vlanID int, virtualMapping *int, virtualResource, zoneRef string) VLAN {
	return VLAN{
		InterfaceID:         VLANInterfaceID(interfaceID, vlanID),
		VirtualMapping:      virtualMapping,
		VirtualResourceName: optional(virtualResource),
		ZoneRef:             optional(zoneRef),
		Interfaces:          []Sub{},
	}
}

// VLANInterfaceID returns the id of a VLAN on an interface.
func VLANInterfaceID(interfaceID string, vlanID int) string {
	return interfaceID + "." + strconv.Itoa(vlanID)
}

// ParseInlinePair splits "<first>-<second>".
func ParseInlinePair(pair string) (string, string, error) {
	first, second, ok := strings.Cut(pair, "-")
	if !ok || first == "" || second == "" || strings.Contains(second, "-") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidInlinePair, pair)
	}

	return first, second, nil
}

// SingleNodeManagement returns the management interface of a layer 3 firewall.
func SingleNodeManagement(interfaceID, address, network string) *Physical {
	return New(interfaceID).AddSingleNodeInterface(address, network, true)
}

// NodeDedicatedManagement returns the management interface of a layer 2 firewall or IPS.
func NodeDedicatedManagement(interfaceID, address, network string) *Physical {
	return New(interfaceID).AddNodeInterface(address, network, 1, true)
}

// InlinePair returns an inline interface for pair bound to a logical interface.
func InlinePair(pair, logicalInterfaceRef string) (*Physical, error) {
	return New(pair).AddInlineInterface(logicalInterfaceRef, "")
}

// VirtualSingleNode returns a virtual engine interface with one layer 3 address.
//
// The outgoing interface is also the source of authentication requests.
func VirtualSingleNode(interfaceID, address, network, zoneRef string, outgoing bool) *Physical {
	sub := newSingleNode(address, network, interfaceID, false)
	sub.AuthRequest = outgoing
	sub.Outgoing = outgoing

	p := New(interfaceID).WithZone(zoneRef)
	p.Interfaces = append(p.Interfaces, Sub{SingleNode: sub})

	return p
}

// CaptureInterface returns a capture interface bound to a logical interface.
func CaptureInterface(interfaceID, logicalInterfaceRef string) *Physical {
	return New(interfaceID).AddCaptureInterface(logicalInterfaceRef)
}

func newSingleNode(address, network, nicID string, mgmt bool) *SingleNode {
	return &SingleNode{
		Address:      address,
		NetworkValue: network,
		NICID:        nicID,
		NodeID:       1,
		AuthRequest:  mgmt,
		Outgoing:     mgmt,
		PrimaryMgt:   mgmt,
	}
}

func newInline(nicID, logicalInterfaceRef, zoneRef string) *Inline {
	return &Inline{
		NICID:                   nicID,
		LogicalInterfaceRef:     logicalInterfaceRef,
		FailureMode:             "normal",
		InspectUnspecifiedVLANs: true,
		ZoneRef:                 optional(zoneRef),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}

	return pointer.To(s)
}
