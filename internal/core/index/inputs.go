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

// Package index implements the index builder (spec.md §4.2-§4.6): the
// priority-driven task scheduler that drives the Node Graph mutation state
// machine, together with its Inputs/Outputs configuration surface and error
// taxonomy wiring (spec.md §6, §7). This is the heart of the module; every
// other package under internal/core is a collaborator it reads from.
package index

import (
	"sync"

	"github.com/expenses/primidx/internal/core/graph"
	"github.com/expenses/primidx/internal/core/layerstack"
	"github.com/expenses/primidx/internal/core/path"
	"github.com/expenses/primidx/internal/core/spec"
	"github.com/expenses/primidx/internal/errs"
)

// AssetResolver resolves an authored asset path to an already-opened layer
// stack (spec.md §4.4 step 3 "Open the layer ... compute the referenced
// layer stack"). *spec.World satisfies this interface directly.
type AssetResolver interface {
	Resolve(assetPath string) (*layerstack.LayerStack, bool)
}

// PrimStackEntry is one (node, layer) pair in a flattened prim stack
// (spec.md §3 PrimIndex).
type PrimStackEntry struct {
	NodeIndex  int
	LayerIndex int
}

// PrimIndex is the result of one build: a graph, an optional flattened prim
// stack, and the errors discovered while walking the finished graph
// (spec.md §3 PrimIndex, §7).
type PrimIndex struct {
	Graph       *graph.Graph
	PrimStack   []PrimStackEntry
	LocalErrors []*errs.Error
}

// Cache is the ancestral-index memoization collaborator (spec.md §6
// `cache`). *pcache.Cache satisfies this interface.
type Cache interface {
	GetPrimIndex(ls *layerstack.LayerStack, p path.Path, inputs Inputs) (*PrimIndex, bool)
}

// PayloadState records which payload gate fired for the build (spec.md
// §4.4 "Payload gating").
type PayloadState int

const (
	NoPayload PayloadState = iota
	IncludedByIncludeSet
	ExcludedByIncludeSet
	IncludedByPredicate
	ExcludedByPredicate
)

func (s PayloadState) String() string {
	switch s {
	case NoPayload:
		return "NoPayload"
	case IncludedByIncludeSet:
		return "IncludedByIncludeSet"
	case ExcludedByIncludeSet:
		return "ExcludedByIncludeSet"
	case IncludedByPredicate:
		return "IncludedByPredicate"
	case ExcludedByPredicate:
		return "ExcludedByPredicate"
	default:
		return "Unknown"
	}
}

// DynamicFileFormatDependency records, per payload arc that consulted
// dynamic file-format arguments, which fields it read (spec.md §6 output;
// SPEC_FULL.md §C.1, grounded on original_source's
// DynamicFileFormatDependencyData).
type DynamicFileFormatDependency struct {
	FileFormatTarget string
	ContextData      any
	FieldNames       []string
	AttributeNames   []string
}

// ExpressionVariablesDependency records a layer stack whose expression
// variables were consulted while resolving an arc (spec.md §6 output).
type ExpressionVariablesDependency struct {
	LayerStack    *layerstack.LayerStack
	VariableNames []string
}

// CulledDependency records one culled node's identity, retained so
// downstream change processing can still invalidate against it (spec.md §6
// output).
type CulledDependency struct {
	Site    graph.Site
	ArcType graph.ArcType
}

// Inputs is the builder's configuration object (spec.md §6).
type Inputs struct {
	VariantFallbacks        map[string][]string
	IncludedPayloads        map[string]bool
	IncludePayloadPredicate func(path.Path) bool
	IncludedPayloadsMutex   *sync.RWMutex

	Cull bool
	USD  bool

	FileFormatTarget    string
	PathResolverContext any

	Cache       Cache
	ParentIndex *PrimIndex

	// Store and Resolver are this implementation's concrete stand-in for
	// the layer-I/O collaborators spec.md §1 places out of scope.
	Store    *spec.Store
	Resolver AssetResolver

	// NewDefaultStandinBehavior is the "single boolean environment knob"
	// of spec.md §6 that the variant fallback policy consults (spec.md
	// §4.5).
	NewDefaultStandinBehavior bool

	Logger Logger
}

// isPayloadIncluded applies the (c) predicate / (b) include-set gating of
// spec.md §4.4 "Payload gating", taking the optional reader lock around
// the set per spec.md §5.
func (in Inputs) isPayloadIncluded(p path.Path) (bool, PayloadState) {
	if in.IncludePayloadPredicate != nil {
		if in.IncludePayloadPredicate(p) {
			return true, IncludedByPredicate
		}
		return false, ExcludedByPredicate
	}
	if in.IncludedPayloads == nil {
		return false, NoPayload
	}
	if in.IncludedPayloadsMutex != nil {
		in.IncludedPayloadsMutex.RLock()
		defer in.IncludedPayloadsMutex.RUnlock()
	}
	if in.IncludedPayloads[p.String()] {
		return true, IncludedByIncludeSet
	}
	return false, ExcludedByIncludeSet
}

// EquivalentForCache reports whether in and other would produce the same
// ancestral index, per spec.md §6: "Equivalence for cache reuse considers
// variant_fallbacks, included_payloads, cull only."
func (in Inputs) EquivalentForCache(other Inputs) bool {
	if in.Cull != other.Cull {
		return false
	}
	if len(in.IncludedPayloads) != len(other.IncludedPayloads) {
		return false
	}
	for k := range in.IncludedPayloads {
		if !other.IncludedPayloads[k] {
			return false
		}
	}
	if len(in.VariantFallbacks) != len(other.VariantFallbacks) {
		return false
	}
	for k, v := range in.VariantFallbacks {
		ov, ok := other.VariantFallbacks[k]
		if !ok || len(v) != len(ov) {
			return false
		}
		for i := range v {
			if v[i] != ov[i] {
				return false
			}
		}
	}
	return true
}

// Outputs is the result of BuildPrimIndex (spec.md §6).
type Outputs struct {
	PrimIndex                       *PrimIndex
	AllErrors                       []*errs.Error
	PayloadState                    PayloadState
	DynamicFileFormatDependencies   []DynamicFileFormatDependency
	ExpressionVariablesDependencies []ExpressionVariablesDependency
	CulledDependencies              []CulledDependency
}
