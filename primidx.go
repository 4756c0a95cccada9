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

// Package primidx is the public facade over the prim-indexing core: a
// single entry point, ComputePrimIndex, wrapping internal/core/index's
// builder with the collaborator types callers actually construct (an asset
// resolver, a spec store, an optional cache) instead of the internal
// package's own types directly.
package primidx

import (
	"github.com/expenses/primidx/internal/core/graph"
	"github.com/expenses/primidx/internal/core/index"
	"github.com/expenses/primidx/internal/core/layerstack"
	"github.com/expenses/primidx/internal/core/path"
	"github.com/expenses/primidx/internal/core/pcache"
	"github.com/expenses/primidx/internal/core/spec"
	"github.com/expenses/primidx/internal/errs"
)

// Re-exported collaborator and result types, so callers outside this module
// never need to import internal/core packages directly.
type (
	LayerStack = layerstack.LayerStack
	Layer      = layerstack.Layer
	Relocation = layerstack.Relocation
	Store      = spec.Store
	PrimSpec   = spec.PrimSpecData
	ArcTarget  = spec.ArcTarget
	VariantSet = spec.VariantSetSpec
	Path       = path.Path

	Graph   = graph.Graph
	Node    = graph.Node
	ArcType = graph.ArcType

	Cache = pcache.Cache
	Error = errs.Error
)

// Arc type constants re-exported for callers inspecting a built graph.
const (
	RootArc       = graph.Root
	ReferenceArc  = graph.Reference
	PayloadArc    = graph.Payload
	InheritArc    = graph.Inherit
	SpecializeArc = graph.Specialize
	VariantArc    = graph.Variant
	RelocateArc   = graph.Relocate
)

// NewCache returns a fresh, empty ancestral-index memoization cache suitable
// for passing as Options.Cache across repeated ComputePrimIndex calls
// sharing the same layer stacks. ComputePrimIndex reads ancestral indexes
// from the cache but does not add the indexes it computes; entries are
// added with the cache's Put method.
func NewCache() *Cache { return pcache.New() }

// Options mirrors the builder's Inputs (spec.md §6) with the concrete
// collaborator types this module provides.
type Options struct {
	Store    *Store
	Resolver index.AssetResolver

	VariantFallbacks map[string][]string
	IncludedPayloads map[string]bool

	Cull bool
	USD  bool

	FileFormatTarget          string
	PathResolverContext       any
	NewDefaultStandinBehavior bool

	Cache *Cache
}

// Result is the outcome of ComputePrimIndex (spec.md §6 Outputs).
type Result struct {
	Graph       *Graph
	LocalErrors []*Error
	AllErrors   []*Error
}

// ComputePrimIndex builds the prim index for p within ls, per spec.md §4.6.
func ComputePrimIndex(ls *LayerStack, p Path, opts Options) Result {
	in := index.Inputs{
		Store:                     opts.Store,
		Resolver:                  opts.Resolver,
		VariantFallbacks:          opts.VariantFallbacks,
		IncludedPayloads:          opts.IncludedPayloads,
		Cull:                      opts.Cull,
		USD:                       opts.USD,
		FileFormatTarget:          opts.FileFormatTarget,
		PathResolverContext:       opts.PathResolverContext,
		NewDefaultStandinBehavior: opts.NewDefaultStandinBehavior,
	}
	if opts.Cache != nil {
		in.Cache = opts.Cache
	}

	out := index.BuildPrimIndex(ls, p, in)
	res := Result{AllErrors: out.AllErrors}
	if out.PrimIndex != nil {
		res.Graph = out.PrimIndex.Graph
		res.LocalErrors = out.PrimIndex.LocalErrors
	}
	return res
}

// ParsePath parses an absolute scene path, per internal/core/path's syntax.
func ParsePath(s string) (Path, error) { return path.Parse(s) }
