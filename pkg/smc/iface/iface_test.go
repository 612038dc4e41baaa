// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package iface_test

import (
	"encoding/json"
	"testing"

	"github.com/siderolabs/go-pointer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netsec-ops/smcctl/pkg/smc/iface"
)

func TestSingleNodeManagement(t *testing.T) {
	t.Parallel()

	p := iface.SingleNodeManagement("0", "10.0.0.1", "10.0.0.0/24")

	require.Len(t, p.Interfaces, 1)

	sn := p.Interfaces[0].SingleNode
	require.NotNil(t, sn)
	assert.Equal(t, "0", sn.NICID)
	assert.True(t, sn.PrimaryMgt)
	assert.True(t, sn.Outgoing)
	assert.True(t, sn.AuthRequest)
	assert.Equal(t, 1, sn.NodeID)

	data, err := json.Marshal(p.Wrap())
	require.NoError(t, err)

	var doc map[string]map[string]any

	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "0", doc["physical_interface"]["interface_id"])
	assert.Equal(t, []any{}, doc["physical_interface"]["vlanInterfaces"])
	assert.Nil(t, doc["physical_interface"]["zone_ref"])

	subs := doc["physical_interface"]["interfaces"].([]any)
	require.Len(t, subs, 1)
	assert.Contains(t, subs[0], "single_node_interface")
	assert.NotContains(t, subs[0], "node_interface")
}

func TestNodeDedicatedManagement(t *testing.T) {
	t.Parallel()

	p := iface.NodeDedicatedManagement("0", "10.0.0.2", "10.0.0.0/24")

	require.Len(t, p.Interfaces, 1)

	node := p.Interfaces[0].Node
	require.NotNil(t, node)
	assert.True(t, node.PrimaryMgt)
	assert.True(t, node.Outgoing)
	assert.False(t, node.AuthRequest)
}

func TestInlinePair(t *testing.T) {
	t.Parallel()

	p, err := iface.InlinePair("3-4", "/elements/logical_interface/7")
	require.NoError(t, err)

	assert.Equal(t, "3", p.InterfaceID)
	require.Len(t, p.Interfaces, 1)

	inline := p.Interfaces[0].Inline
	require.NotNil(t, inline)
	assert.Equal(t, "3-4", inline.NICID)
	assert.Equal(t, "/elements/logical_interface/7", inline.LogicalInterfaceRef)
	assert.Equal(t, "normal", inline.FailureMode)
	assert.True(t, inline.InspectUnspecifiedVLANs)

	for _, pair := range []string{"3", "-4", "3-", "1-2-3", ""} {
		_, err = iface.InlinePair(pair, "x")
		require.ErrorIs(t, err, iface.ErrInvalidInlinePair, pair)
	}
}

func TestVLANs(t *testing.T) {
	t.Parallel()

	p := iface.New("2").
		WithZone("/elements/zone/1").
		AddVLAN(10, pointer.To(1), "ve-1", "").
		AddSingleNodeInterfaceToVLAN("192.168.20.1", "192.168.20.0/24", 20, "/elements/zone/2")

	assert.Equal(t, pointer.To("/elements/zone/1"), p.ZoneRef)
	require.Len(t, p.VLANInterfaces, 2)

	assert.Equal(t, "2.10", p.VLANInterfaces[0].InterfaceID)
	assert.Equal(t, pointer.To(1), p.VLANInterfaces[0].VirtualMapping)
	assert.Equal(t, pointer.To("ve-1"), p.VLANInterfaces[0].VirtualResourceName)
	assert.Nil(t, p.VLANInterfaces[0].ZoneRef)

	vlan := p.VLANInterfaces[1]
	assert.Equal(t, "2.20", vlan.InterfaceID)
	require.Len(t, vlan.Interfaces, 1)
	assert.Equal(t, "2.20", vlan.Interfaces[0].SingleNode.NICID)
	assert.False(t, vlan.Interfaces[0].SingleNode.PrimaryMgt)
}

func TestCaptureInterface(t *testing.T) {
	t.Parallel()

	p := iface.CaptureInterface("5", "/elements/logical_interface/1")

	require.Len(t, p.Interfaces, 1)
	assert.Equal(t, &iface.Capture{NICID: "5", LogicalInterfaceRef: "/elements/logical_interface/1", InspectUnspecifiedVLANs: true}, p.Interfaces[0].Capture)
}

func TestVirtualSingleNode(t *testing.T) {
	t.Parallel()

	outgoing := iface.VirtualSingleNode("0", "172.16.0.1", "172.16.0.0/24", "/elements/zone/1", true)

	require.Len(t, outgoing.Interfaces, 1)

	sn := outgoing.Interfaces[0].SingleNode
	require.NotNil(t, sn)
	assert.True(t, sn.AuthRequest)
	assert.True(t, sn.Outgoing)
	assert.False(t, sn.PrimaryMgt)
	assert.Equal(t, pointer.To("/elements/zone/1"), outgoing.ZoneRef)

	other := iface.VirtualSingleNode("1", "172.16.1.1", "172.16.1.0/24", "", false)
	assert.False(t, other.Interfaces[0].SingleNode.AuthRequest)
	assert.Nil(t, other.ZoneRef)

	data, err := json.Marshal(outgoing.WrapVirtual())
	require.NoError(t, err)

	var doc map[string]map[string]any

	require.NoError(t, json.Unmarshal(data, &doc))
	assert.NotContains(t, doc, "physical_interface")
	assert.Equal(t, "0", doc["virtual_physical_interface"]["interface_id"])
}
