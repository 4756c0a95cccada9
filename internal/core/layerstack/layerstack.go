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

// Package layerstack implements the LayerStack collaborator (spec.md §1,
// §3): an opaque handle onto an ordered sequence of layers, the layer
// stack's composed relocation map, and its composed expression variables.
// Layer I/O and file-format plugins are out of scope for the indexing core
// (spec.md §1); this package owns only the precomputed facts the builder
// reads off a stack, not how they were computed.
package layerstack

import "github.com/expenses/primidx/internal/core/path"

// ID identifies a single layer within a stack.
type ID string

// Layer is the minimal fact set the builder needs about one layer: its
// identity, its default-prim fallback for unresolved reference/payload
// targets (spec.md §4.4 step 4), whether the cache has muted it (§4.4 step
// 3), and its time-sampling rate for layer-offset scaling (§4.4 step 3).
type Layer struct {
	ID          ID
	DefaultPrim string
	Muted       bool
	TCPS        float64 // time codes per second; 0 means "unspecified".
}

// Relocation is one authored namespace relocation, source (where opinions
// are written) to target (where they are meant to be read).
type Relocation struct {
	Source path.Path
	Target path.Path
}

// RelocatesTable is the composed relocation map exposed by a LayerStack. A
// real implementation distinguishes a "fully composed" view from an
// "incremental" view that excludes relocations already applied by an
// enclosing ancestor recursion; modeling that distinction precisely
// requires the ancestor-recursion bookkeeping that lives in the real
// LayerStack (out of scope here, spec.md §1). We keep a single table and
// let callers that care about ancestry (the builder already threads
// ancestor_recursion_depth through its call frames, spec.md §4.5) filter by
// comparing against the frame they're in; none of spec.md's seed scenarios
// (§8) need more than single-level relocation, so this simplification is
// recorded as an explicit decision rather than a silent gap.
type RelocatesTable struct {
	sourceToTarget map[string]path.Path
	targetToSource map[string]path.Path
	sources        []path.Path
}

// NewRelocatesTable builds a table from an authored list of relocations.
func NewRelocatesTable(rels []Relocation) RelocatesTable {
	t := RelocatesTable{
		sourceToTarget: make(map[string]path.Path, len(rels)),
		targetToSource: make(map[string]path.Path, len(rels)),
	}
	for _, r := range rels {
		t.sourceToTarget[r.Source.String()] = r.Target
		t.targetToSource[r.Target.String()] = r.Source
		t.sources = append(t.sources, r.Source)
	}
	return t
}

// TargetToSource looks up the relocation source for a relocation target
// path.
func (t RelocatesTable) TargetToSource(target path.Path) (path.Path, bool) {
	p, ok := t.targetToSource[target.String()]
	return p, ok
}

// SourceToTarget looks up the relocation target for a relocation source
// path.
func (t RelocatesTable) SourceToTarget(source path.Path) (path.Path, bool) {
	p, ok := t.sourceToTarget[source.String()]
	return p, ok
}

// IsUnderAnySource reports whether p is at or below any authored relocation
// source, used by the Arc Adder's "salted earth" rule (spec.md §4.3 step 3).
func (t RelocatesTable) IsUnderAnySource(p path.Path) bool {
	for _, s := range t.sources {
		if p.HasPrefix(s) {
			return true
		}
	}
	return false
}

// ChildSources returns every relocation source whose immediate namespace
// parent is exactly parent, used by EvalNodeRelocations (spec.md §4.4) to
// find which of a node's namespace children have been relocated away.
func (t RelocatesTable) ChildSources(parent path.Path) []path.Path {
	var out []path.Path
	for _, s := range t.sources {
		if pp, ok := s.ParentPath(); ok && pp.Equal(parent) {
			out = append(out, s)
		}
	}
	return out
}

// SourceAtDifferentTarget reports whether p is itself a relocation source
// whose target differs from via, used by EvalNodeRelocations's post-insert
// rescan (spec.md §4.4: "elide them").
func (t RelocatesTable) SourceAtDifferentTarget(p, via path.Path) (path.Path, bool) {
	target, ok := t.sourceToTarget[p.String()]
	if !ok || target.Equal(via) {
		return path.Path{}, false
	}
	return target, true
}

// LayerStack is the opaque handle the builder treats as a collaborator. It
// is safe to share a *LayerStack between concurrently running builders
// (spec.md §5): once constructed, a LayerStack is never mutated.
type LayerStack struct {
	id        string
	layers    []Layer
	relocates RelocatesTable
	exprVars  map[string]string

	// exprVarSource is the stack whose expression-variable *authoring*
	// source this stack should report, used by spec.md §4.4 step 3 to
	// maximize sharing between a referencing stack and the referenced
	// stack it spawns. A stack whose variables are sparse inherits the
	// referencing stack's own source rather than becoming a new source.
	exprVarSource *LayerStack
}

// New constructs a LayerStack. layers must be ordered strongest (session)
// first to weakest (root) last.
func New(id string, layers []Layer, relocates RelocatesTable, exprVars map[string]string) *LayerStack {
	return &LayerStack{id: id, layers: layers, relocates: relocates, exprVars: exprVars}
}

// Identifier returns the stack's opaque identity, used for cache-key
// equivalence (spec.md §6) and cross-frame site comparisons (spec.md §3
// invariant 3).
func (ls *LayerStack) Identifier() string { return ls.id }

// Equal reports whether ls and other are the same layer stack.
func (ls *LayerStack) Equal(other *LayerStack) bool {
	if ls == nil || other == nil {
		return ls == other
	}
	return ls.id == other.id
}

// Layers returns the ordered layer list, strongest first.
func (ls *LayerStack) Layers() []Layer { return ls.layers }

// Relocates returns the stack's composed relocation table.
func (ls *LayerStack) Relocates() RelocatesTable { return ls.relocates }

// ExpressionVariables returns the stack's composed expression variables.
func (ls *LayerStack) ExpressionVariables() map[string]string { return ls.exprVars }

// WithExpressionVariableSource returns a copy of ls that reports source as
// its expression-variable override source (spec.md §4.4 step 3).
func (ls *LayerStack) WithExpressionVariableSource(source *LayerStack) *LayerStack {
	cp := *ls
	cp.exprVarSource = source
	return &cp
}

// ExpressionVariableSource returns the stack whose authoring should be
// credited for ls's expression variables: itself, unless it was derived
// from a referencing stack via WithExpressionVariableSource.
func (ls *LayerStack) ExpressionVariableSource() *LayerStack {
	if ls.exprVarSource != nil {
		return ls.exprVarSource
	}
	return ls
}

// DefaultPrim returns the default-prim name declared by the strongest layer
// that declares one, per spec.md §4.4 step 4.
func (ls *LayerStack) DefaultPrim() (string, bool) {
	for _, l := range ls.layers {
		if l.DefaultPrim != "" {
			return l.DefaultPrim, true
		}
	}
	return "", false
}

// IsMuted reports whether the named layer is muted in this stack's cache
// (spec.md §4.4 step 3).
func (ls *LayerStack) IsMuted(id ID) bool {
	for _, l := range ls.layers {
		if l.ID == id && l.Muted {
			return true
		}
	}
	return false
}

// TCPS returns the stack's effective time-codes-per-second: the strongest
// layer's, or 0 if none declare one.
func (ls *LayerStack) TCPS() float64 {
	for _, l := range ls.layers {
		if l.TCPS != 0 {
			return l.TCPS
		}
	}
	return 0
}
