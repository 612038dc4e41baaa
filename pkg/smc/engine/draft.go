// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/siderolabs/go-pointer"

	"github.com/netsec-ops/smcctl/pkg/smc/client"
	"github.com/netsec-ops/smcctl/pkg/smc/iface"
)

// Draft is an engine definition not yet submitted to the server.
//
// Drafts are independent values, building one never touches another.
type Draft struct {
	EntryPoint          string                 `json:"-"`
	Name                string                 `json:"name"`
	Nodes               []map[string]DraftNode `json:"nodes"`
	DomainServerAddress []DNSEntry             `json:"domain_server_address"`
	LogServerRef        *string                `json:"log_server_ref"`
	PhysicalInterfaces  []iface.Wrapped        `json:"physicalInterfaces"`
	VirtualResource     *string                `json:"virtual_resource,omitempty"`
}

// DraftNode is the member skeleton of a draft.
type DraftNode struct {
	Name                           string `json:"name"`
	NodeID                         int    `json:"nodeid"`
	ActivateTest                   bool   `json:"activate_test"`
	Disabled                       bool   `json:"disabled"`
	LoopbackNodeDedicatedInterface []any  `json:"loopback_node_dedicated_interface"`
}

// NewDraft returns a single member skeleton.
//
// The member is named "<name> node 1"; dns entries are ranked in the given order.
func NewDraft(entryPoint, nodeType, name, logServerRef string, dns []string) *Draft {
	servers := make([]DNSEntry, 0, len(dns))

	for rank, value := range dns {
		servers = append(servers, DNSEntry{Rank: rank, Value: value})
	}

	return &Draft{
		EntryPoint: entryPoint,
		Name:       name,
		Nodes: []map[string]DraftNode{
			{
				nodeType: {
					Name:                           name + " node 1",
					NodeID:                         1,
					ActivateTest:                   true,
					LoopbackNodeDedicatedInterface: []any{},
				},
			},
		},
		DomainServerAddress: servers,
		LogServerRef:        optionalRef(logServerRef),
		PhysicalInterfaces:  []iface.Wrapped{},
	}
}

// AddPhysicalInterface appends an interface definition.
func (d *Draft) AddPhysicalInterface(p *iface.Physical) *Draft {
	d.PhysicalInterfaces = append(d.PhysicalInterfaces, p.Wrap())

	return d
}

// AddVirtualPhysicalInterface appends an interface definition of a virtual engine.
func (d *Draft) AddVirtualPhysicalInterface(p *iface.Physical) *Draft {
	d.PhysicalInterfaces = append(d.PhysicalInterfaces, p.WrapVirtual())

	return d
}

// Submit creates the engine on the server and returns it loaded.
func (d *Draft) Submit(ctx context.Context, c client.Interface, opts ...Option) (*Engine, error) {
	if d.Name == "" {
		return nil, errors.New("engine name is required")
	}

	href, err := c.EntryPoint(ctx, d.EntryPoint)
	if err != nil {
		return nil, err
	}

	result, err := c.Create(ctx, href, d, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating engine %q: %w", d.Name, err)
	}

	if result.Href == "" {
		return nil, fmt.Errorf("error creating engine %q: server returned no location", d.Name)
	}

	e := New(c, opts...)

	if err = e.Load(ctx, d.Name); err != nil {
		return nil, err
	}

	return e, nil
}

func optionalRef(href string) *string {
	if href == "" {
		return nil
	}

	return pointer.To(href)
}
