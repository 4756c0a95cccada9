// Copyright 2026 CUE Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package spec implements the composed-spec collaborator: the authored
// scene description at a single (layer stack, path) site, merged across the
// stack's layers by ordinary list-editing strength rules. This is the
// boundary the Arc Scanner and Arc Evaluators read from (spec.md §4.1, §4.4)
// — the indexing core never parses layer content itself (spec.md §1).
package spec

import (
	"github.com/expenses/primidx/internal/core/layerstack"
	"github.com/expenses/primidx/internal/core/mapfunc"
	"github.com/expenses/primidx/internal/core/path"
)

// Permission mirrors spec.md §3's node permission flag.
type Permission int

const (
	Public Permission = iota
	Private
)

// ArcTarget is one authored reference or payload entry.
type ArcTarget struct {
	// AssetPath is empty for an internal (same-layer-stack) arc.
	AssetPath string
	// PrimPath is empty to mean "use the target layer's default prim".
	PrimPath path.Path
	// LayerOffset is the arc's authored time offset. A PrimPath that
	// contains a variant selection is rejected when the arc is evaluated
	// (spec.md §4.4 step 1).
	LayerOffset mapfunc.Offset
	// FileFormatArgFields names the fields consulted to compose dynamic
	// file-format arguments (payload only, spec.md §4.4 step 3).
	FileFormatArgFields []string
}

// VariantSetSpec is one authored variant set: its name and the ordered list
// of option names it offers.
type VariantSetSpec struct {
	Name    string
	Options []string
}

// PrimSpecData is the content a single layer authors at a single path.
type PrimSpecData struct {
	HasSpec     bool
	Permission  Permission
	HasSymmetry bool

	References  []ArcTarget
	Payloads    []ArcTarget
	Inherits    []path.Path
	Specializes []path.Path

	VariantSets []VariantSetSpec
	// VariantSelections is this layer's authored selection per variant set
	// name at this exact path.
	VariantSelections map[string]string

	// SessionLayer marks this layer as weaker than the root layer of its
	// stack (spec.md §4.5 fallback policy clause (c)).
	SessionLayer bool
}

// ComposedSpec is the result of merging every layer's PrimSpecData at one
// site, strongest-to-weakest, following ordinary list-editing semantics:
// scalar facts (permission, symmetry) take the strongest layer that states
// them; lists concatenate in strength order with per-target de-duplication.
type ComposedSpec struct {
	HasSpecs    bool
	Permission  Permission
	HasSymmetry bool

	References  []ArcTarget
	Payloads    []ArcTarget
	Inherits    []path.Path
	Specializes []path.Path

	VariantSets []VariantSetSpec

	// variantSelections and variantSelectionSession hold the strongest
	// layer's authored selection per variant set and whether that layer is
	// a session layer; VariantSelection reads them.
	variantSelections       map[string]string
	variantSelectionSession map[string]bool
}

// VariantSelection returns the strongest authored selection for vset at
// this site, and whether it was authored in a session-strength layer
// (spec.md §4.5 fallback policy clause (c)).
func (c ComposedSpec) VariantSelection(vset string) (sel string, isSession bool, ok bool) {
	sel, ok = c.variantSelections[vset]
	return sel, c.variantSelectionSession[vset], ok
}

// Store holds the authored PrimSpecData for every (layer, path) pair the
// test fixtures or CLI loader populated. It stands in for the real
// scene-description storage that layer I/O owns (spec.md §1).
type Store struct {
	data map[layerstack.ID]map[string]*PrimSpecData
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{data: map[layerstack.ID]map[string]*PrimSpecData{}}
}

// Put records the spec data authored by layer at p.
func (s *Store) Put(layer layerstack.ID, p path.Path, d *PrimSpecData) {
	m := s.data[layer]
	if m == nil {
		m = map[string]*PrimSpecData{}
		s.data[layer] = m
	}
	m[p.String()] = d
}

// Get returns the spec data authored by layer at p, if any.
func (s *Store) Get(layer layerstack.ID, p path.Path) (*PrimSpecData, bool) {
	m := s.data[layer]
	if m == nil {
		return nil, false
	}
	d, ok := m[p.String()]
	return d, ok
}

// HasAnySpecUnder reports whether the given layer authors a spec at or
// below p, used by the reference evaluator's UnresolvedPrimPath check
// (spec.md §4.4 step 7).
func (s *Store) HasAnySpecUnder(layer layerstack.ID, p path.Path) bool {
	m := s.data[layer]
	for key, d := range m {
		if !d.HasSpec {
			continue
		}
		q, err := path.Parse(key)
		if err != nil {
			continue
		}
		if q.HasPrefix(p) {
			return true
		}
	}
	return false
}

// ComposeAtSite merges every layer of ls's spec data at p, strongest layer
// first, implementing the list-editing semantics described on ComposedSpec.
func ComposeAtSite(store *Store, ls *layerstack.LayerStack, p path.Path) ComposedSpec {
	var out ComposedSpec
	out.variantSelections = map[string]string{}
	out.variantSelectionSession = map[string]bool{}

	seenRef := map[string]bool{}
	seenPayload := map[string]bool{}
	seenInherit := map[string]bool{}
	seenSpecialize := map[string]bool{}
	seenVariantSet := map[string]bool{}

	permissionSet := false
	symmetrySet := false

	for _, layer := range ls.Layers() {
		d, ok := store.Get(layer.ID, p)
		if !ok {
			continue
		}
		if d.HasSpec {
			out.HasSpecs = true
		}
		if !permissionSet {
			out.Permission = d.Permission
			permissionSet = true
		}
		if !symmetrySet && d.HasSymmetry {
			out.HasSymmetry = true
			symmetrySet = true
		}
		for _, r := range d.References {
			key := r.AssetPath + "|" + r.PrimPath.String()
			if seenRef[key] {
				continue
			}
			seenRef[key] = true
			out.References = append(out.References, r)
		}
		for _, pl := range d.Payloads {
			key := pl.AssetPath + "|" + pl.PrimPath.String()
			if seenPayload[key] {
				continue
			}
			seenPayload[key] = true
			out.Payloads = append(out.Payloads, pl)
		}
		for _, ih := range d.Inherits {
			if seenInherit[ih.String()] {
				continue
			}
			seenInherit[ih.String()] = true
			out.Inherits = append(out.Inherits, ih)
		}
		for _, sp := range d.Specializes {
			if seenSpecialize[sp.String()] {
				continue
			}
			seenSpecialize[sp.String()] = true
			out.Specializes = append(out.Specializes, sp)
		}
		for _, vs := range d.VariantSets {
			if seenVariantSet[vs.Name] {
				continue
			}
			seenVariantSet[vs.Name] = true
			out.VariantSets = append(out.VariantSets, vs)
		}
		for name, sel := range d.VariantSelections {
			if _, already := out.variantSelections[name]; !already {
				out.variantSelections[name] = sel
				out.variantSelectionSession[name] = d.SessionLayer
			}
		}
	}
	return out
}
