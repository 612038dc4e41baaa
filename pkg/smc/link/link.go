// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package link implements the relation index built from the link list every
// management server resource embeds.
package link

import "slices"

// Link is a single entry of a resource link list.
type Link struct {
	Rel    string `json:"rel" yaml:"rel"`
	Href   string `json:"href" yaml:"href"`
	Method string `json:"method,omitempty" yaml:"method,omitempty"`
}

// Index maps relation names to resource locators.
//
// Index is immutable once built: a reload produces a new Index instead of
// patching the existing one. Duplicate relations are kept, lookups return
// the first occurrence in list order.
//
// A nil *Index is valid and resolves nothing.
type Index struct {
	links []Link
}

// NewIndex builds an Index from the link list.
func NewIndex(links []Link) *Index {
	return &Index{
		links: slices.Clone(links),
	}
}

// Resolve returns the locator of the first link with the given relation.
func (idx *Index) Resolve(rel string) (string, bool) {
	if idx == nil {
		return "", false
	}

	for _, l := range idx.links {
		if l.Rel == rel {
			return l.Href, true
		}
	}

	return "", false
}

// ResolveAll returns locators of every link with the given relation, in list order.
func (idx *Index) ResolveAll(rel string) []string {
	if idx == nil {
		return nil
	}

	var hrefs []string

	for _, l := range idx.links {
		if l.Rel == rel {
			hrefs = append(hrefs, l.Href)
		}
	}

	return hrefs
}

// Relations returns distinct relation names in first-seen order.
func (idx *Index) Relations() []string {
	if idx == nil {
		return nil
	}

	seen := make(map[string]struct{}, len(idx.links))
	rels := make([]string, 0, len(idx.links))

	for _, l := range idx.links {
		if _, ok := seen[l.Rel]; ok {
			continue
		}

		seen[l.Rel] = struct{}{}
		rels = append(rels, l.Rel)
	}

	return rels
}

// Links returns a copy of the underlying link list.
func (idx *Index) Links() []Link {
	if idx == nil {
		return nil
	}

	return slices.Clone(idx.links)
}

// Len returns the number of links, duplicates included.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}

	return len(idx.links)
}
