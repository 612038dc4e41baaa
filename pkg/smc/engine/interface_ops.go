// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/netsec-ops/smcctl/pkg/smc/client"
	"github.com/netsec-ops/smcctl/pkg/smc/iface"
)

// AddLayer3Interface adds a routed physical interface, mgmt makes it the management interface.
func (e *Engine) AddLayer3Interface(ctx context.Context, interfaceID, address, network string, mgmt bool) (*client.Result, error) {
	return e.addPhysicalInterface(ctx, iface.New(interfaceID).AddSingleNodeInterface(address, network, mgmt))
}

// AddInlineInterface adds an inline pair ("1-2") bound to the named logical interface.
func (e *Engine) AddInlineInterface(ctx context.Context, pair, logicalInterface string) (*client.Result, error) {
	logicalHref, err := LogicalInterfaceHref(ctx, e.client, logicalInterface)
	if err != nil {
		return nil, err
	}

	p, err := iface.InlinePair(pair, logicalHref)
	if err != nil {
		return nil, err
	}

	return e.addPhysicalInterface(ctx, p)
}

// AddCaptureInterface adds a capture interface bound to the named logical interface.
func (e *Engine) AddCaptureInterface(ctx context.Context, interfaceID, logicalInterface string) (*client.Result, error) {
	logicalHref, err := LogicalInterfaceHref(ctx, e.client, logicalInterface)
	if err != nil {
		return nil, err
	}

	return e.addPhysicalInterface(ctx, iface.CaptureInterface(interfaceID, logicalHref))
}

func (e *Engine) addPhysicalInterface(ctx context.Context, p *iface.Physical) (*client.Result, error) {
	return e.engineCreate(ctx, string(InterfacesPhysical), p, nil)
}

// DeletePhysicalInterface deletes an interface by its display name, e.g. "Interface 3".
func (e *Engine) DeletePhysicalInterface(ctx context.Context, name string) (*client.Result, error) {
	ref, err := e.findInterface(ctx, InterfacesAll, name)
	if err != nil {
		return nil, err
	}

	return e.client.Delete(ctx, ref.Href)
}

// AddVLANToPhysicalInterface adds a VLAN to an existing physical interface.
//
// virtualMapping and virtualResource are only used on master engines.
func (e *Engine) AddVLANToPhysicalInterface(ctx context.Context, interfaceID string, vlanID int, virtualMapping *int, virtualResource string) (*client.Result, error) {
	ref, err := e.findInterface(ctx, InterfacesPhysical, physicalInterfaceName(interfaceID))
	if err != nil {
		return nil, err
	}

	element, err := e.client.Fetch(ctx, ref.Href)
	if err != nil {
		return nil, err
	}

	var doc map[string]json.RawMessage

	if err = element.Decode(&doc); err != nil {
		return nil, err
	}

	var vlans []json.RawMessage

	if raw, ok := doc["vlanInterfaces"]; ok && string(raw) != "null" {
		if err = json.Unmarshal(raw, &vlans); err != nil {
			return nil, fmt.Errorf("error decoding VLANs of %q: %w", ref.Name, err)
		}
	}

	vlan, err := json.Marshal(iface.NewVLAN(interfaceID, vlanID, virtualMapping, virtualResource, ""))
	if err != nil {
		return nil, err
	}

	if doc["vlanInterfaces"], err = json.Marshal(append(vlans, vlan)); err != nil {
		return nil, err
	}

	return e.client.Update(ctx, ref.Href, doc, nil, element.ETag)
}

func (e *Engine) findInterface(ctx context.Context, category InterfaceCategory, name string) (client.ElementRef, error) {
	refs, err := e.Interfaces(ctx, category)
	if err != nil {
		return client.ElementRef{}, err
	}

	for _, ref := range refs {
		if ref.Name == name {
			return ref, nil
		}
	}

	return client.ElementRef{}, fmt.Errorf("interface %q of engine %q: %w", name, e.Name(), ErrNotFound)
}
