// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package engine

// target is a resolved member scoped locator.
type target struct {
	Member string
	Href   string
}

// resolveEngine looks op up in the engine level index.
func (s *state) resolveEngine(op string) (string, error) {
	href, ok := s.links.Resolve(op)
	if !ok {
		return "", capabilityUnavailable(op, s.name, "")
	}

	return href, nil
}

// addressedMembers returns the member indices an operation may resolve in.
//
// A single engine ignores member and scans every member. A clustered engine
// requires a known member and never falls back.
func (s *state) addressedMembers(member string) ([]*Member, error) {
	if !s.clusterMode {
		return s.members.All(), nil
	}

	m, ok := s.members.Get(member)
	if member == "" || !ok {
		return nil, &ClusterAddressingError{
			Engine: s.name,
			Member: member,
			Known:  s.members.Names(),
		}
	}

	return []*Member{m}, nil
}

// resolveMember returns the first locator of op in the addressed members.
func (s *state) resolveMember(op, member string) (target, error) {
	members, err := s.addressedMembers(member)
	if err != nil {
		return target{}, err
	}

	for _, m := range members {
		if href, ok := m.Links.Resolve(op); ok {
			return target{Member: m.Name, Href: href}, nil
		}
	}

	return target{}, s.memberCapabilityUnavailable(op, member)
}

// resolveMemberAll returns every locator of op in the addressed members.
func (s *state) resolveMemberAll(op, member string) ([]target, error) {
	members, err := s.addressedMembers(member)
	if err != nil {
		return nil, err
	}

	var targets []target

	for _, m := range members {
		for _, href := range m.Links.ResolveAll(op) {
			targets = append(targets, target{Member: m.Name, Href: href})
		}
	}

	if len(targets) == 0 {
		return nil, s.memberCapabilityUnavailable(op, member)
	}

	return targets, nil
}

func (s *state) memberCapabilityUnavailable(op, member string) error {
	if !s.clusterMode {
		member = ""
	}

	return capabilityUnavailable(op, s.name, member)
}
