// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package engine

import (
	"github.com/siderolabs/gen/xslices"

	"github.com/netsec-ops/smcctl/pkg/smc/link"
)

// Member type tags.
const (
	NodeTypeFirewall        = "firewall_node"
	NodeTypeLayer2Firewall  = "fwlayer2_node"
	NodeTypeIPS             = "ips_node"
	NodeTypeVirtualFirewall = "virtual_fw_node"
)

// Member is one node of an engine.
type Member struct {
	Name   string
	Type   string
	NodeID int
	Links  *link.Index
}

// MemberSet is the ordered set of members of a loaded engine, unique by name.
type MemberSet struct {
	members []*Member
	byName  map[string]*Member
}

func newMemberSet(members []*Member) *MemberSet {
	s := &MemberSet{byName: make(map[string]*Member, len(members))}

	for _, m := range members {
		if _, dup := s.byName[m.Name]; dup {
			continue
		}

		s.members = append(s.members, m)
		s.byName[m.Name] = m
	}

	return s
}

// Get returns the member by name.
func (s *MemberSet) Get(name string) (*Member, bool) {
	if s == nil {
		return nil, false
	}

	m, ok := s.byName[name]

	return m, ok
}

// All returns members in load order.
func (s *MemberSet) All() []*Member {
	if s == nil {
		return nil
	}

	return append([]*Member(nil), s.members...)
}

// Names returns member names in load order.
func (s *MemberSet) Names() []string {
	return xslices.Map(s.All(), func(m *Member) string { return m.Name })
}

// Len returns the number of members.
func (s *MemberSet) Len() int {
	if s == nil {
		return 0
	}

	return len(s.members)
}
