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

package index

import (
	"github.com/expenses/primidx/internal/core/graph"
	"github.com/expenses/primidx/internal/core/mapfunc"
	"github.com/expenses/primidx/internal/errs"
)

// evalNodeRelocations implements spec.md §4.4's direct relocation
// evaluator: for each relocation whose source is an immediate namespace
// child of n, insert a placeholder Relocate node at the source path so the
// source's historical opinions remain reachable for dependency tracking
// even though child-name composition (post-processing) presents them under
// the relocation's target name.
func (b *Builder) evalNodeRelocations(n *graph.Node) {
	if n.Site.LayerStack == nil {
		return
	}
	sources := n.Site.LayerStack.Relocates().ChildSources(n.Site.Path)
	for _, src := range sources {
		for _, c := range n.Children {
			if c.ArcType != graph.Variant && c.Site.Path.Equal(src) {
				inertSubtree(c)
			}
		}

		relocNode, err := b.AddArc(AddArcParams{
			Type:                     graph.Relocate,
			Parent:                   n,
			Site:                     graph.Site{LayerStack: n.Site.LayerStack, Path: src},
			MapToParent:              mapfunc.Identity,
			DirectContributesSpecs:   false,
			IncludeAncestralOpinions: false,
		})
		if err != nil || relocNode == nil {
			continue
		}

		if hasSpecsAt(b.inputs.Store, relocNode.Site) {
			b.errors.Add(errs.OpinionAtRelocation(b.errSite(b.rootSite), src))
		}

		if target, ok := n.Site.LayerStack.Relocates().SourceToTarget(src); ok {
			if _, elsewhere := n.Site.LayerStack.Relocates().SourceAtDifferentTarget(src, target); elsewhere {
				inertSubtree(relocNode)
			}
		}
	}
}

// evalImpliedRelocations implements spec.md §4.4's implied relocation
// propagation: translate a Relocate node's path through its parent's
// map_to_parent and, if the grandparent doesn't already have a matching
// Relocate child, insert one there too.
func (b *Builder) evalImpliedRelocations(n *graph.Node) {
	parent := n.Parent
	if parent == nil || parent.Parent == nil {
		return
	}
	grandparent := parent.Parent

	translated, ok := parent.MapToParent.MapSourceToTarget(n.Site.Path)
	if !ok || translated.IsRoot() {
		return
	}

	for _, c := range grandparent.Children {
		if c.ArcType == graph.Relocate && c.Site.Path.Equal(translated) {
			return
		}
	}

	b.AddArc(AddArcParams{
		Type:                     graph.Relocate,
		Parent:                   grandparent,
		Site:                     graph.Site{LayerStack: grandparent.Site.LayerStack, Path: translated},
		MapToParent:              mapfunc.Identity,
		DirectContributesSpecs:   false,
		IncludeAncestralOpinions: false,
	})
}
