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
	"github.com/expenses/primidx/internal/core/path"
	"github.com/expenses/primidx/internal/core/spec"
	"github.com/expenses/primidx/internal/errs"
)

// AddArcParams carries the data the Arc Adder (spec.md §4.3) needs to
// insert one child arc.
type AddArcParams struct {
	Type        graph.ArcType
	Parent      *graph.Node
	Origin      *graph.Node // nil, or Parent itself, for a direct arc.
	Site        graph.Site
	MapToParent *mapfunc.Expression
	SiblingNum  int

	DirectContributesSpecs   bool
	IncludeAncestralOpinions bool
	SkipDuplicateNodes       bool
	SkipTasksForExpressedArcs bool
}

// AddArc is the central primitive of spec.md §4.3: validate, insert, and
// schedule follow-up work for one new arc.
func (b *Builder) AddArc(p AddArcParams) (*graph.Node, error) {
	// Step 1: cycle check (skipped for Variant and Relocate arcs and for
	// implied class-based arcs rooted below a Relocate placeholder).
	if p.Type != graph.Variant && p.Type != graph.Relocate {
		implied := p.Origin != nil && p.Origin != p.Parent
		skip := p.Type.IsClassBased() && implied && nearestNonClassAncestorIsRelocate(p.Parent)
		if !skip {
			if chain := b.checkCycle(p.Parent, p.Site); chain != nil {
				b.errors.Add(errs.Cycle(b.errSite(b.rootSite), toErrSites(chain)))
				return nil, errCycle
			}
		}
	}

	// Step 2: duplicate suppression.
	if p.SkipDuplicateNodes {
		if b.existsInChain(p.Parent, p.Site) {
			return nil, errDuplicate
		}
	}

	// Step 3: salted-earth rule.
	directContributes := p.DirectContributesSpecs
	if directContributes && p.IncludeAncestralOpinions && p.Site.LayerStack != nil &&
		p.Site.LayerStack.Relocates().IsUnderAnySource(p.Site.Path) {
		directContributes = false
	}

	// Step 4: insertion. Variant selections are path components but not an
	// additional level of namespace, so they're excluded from the depth
	// the capacity check measures against (spec.md §4.1 Arc, "namespace_depth").
	namespaceDepth := p.Parent.Site.Path.NonVariantElementCount()
	arc := graph.Arc{
		Type:           p.Type,
		MapToParent:    p.MapToParent,
		Origin:         p.Origin,
		SiblingNum:     p.SiblingNum,
		NamespaceDepth: namespaceDepth,
	}
	var node *graph.Node
	var err error
	if !p.IncludeAncestralOpinions {
		node, err = p.Parent.Graph.InsertChild(p.Parent, arc, p.Site)
	} else {
		sub := b.buildSubgraphForSite(p.Site, p.Parent, p.Type)
		node, err = p.Parent.Graph.GraftSubgraph(p.Parent, arc, p.Site, sub.Graph)
	}
	if err != nil {
		b.errors.Add(errs.Capacity(capacityErrorKind(err), b.errSite(b.rootSite)))
		return nil, err
	}
	node.DirectContributesSpecs = directContributes

	// Step 5: per-node initialization.
	if node.Site.LayerStack != nil && b.inputs.Store != nil {
		cs := spec.ComposeAtSite(b.inputs.Store, node.Site.LayerStack, node.Site.Path)
		if !p.IncludeAncestralOpinions {
			node.HasSpecs = cs.HasSpecs
		}
		if directContributes {
			node.Permission = cs.Permission
			node.HasSymmetry = cs.HasSymmetry
		}
	}

	// Step 6: culling update.
	if b.inputs.Cull {
		node.Culled = cullable(node)
		if !node.Culled {
			for a := node.Parent; a != nil && a.Culled; a = a.Parent {
				a.Culled = false
			}
		}
	}

	// Step 7: task enqueue.
	skipExpressed := p.SkipTasksForExpressedArcs || p.IncludeAncestralOpinions
	b.addTasksForNode(node, skipExpressed)

	// Step 8: permission denial.
	if node.Permission == spec.Private {
		b.errors.Add(errs.PermissionDeniedAtArc(b.errSite(b.rootSite), b.errSite(node.Site), b.errSite(p.Parent.Site), b.errSite(node.Site)))
		inertSubtree(node)
	}

	// Step 9: unresolved default target.
	if node.Site.Path.IsAbsoluteRootPath() {
		inertSubtree(node)
	}

	return node, nil
}

func inertSubtree(n *graph.Node) {
	n.WalkStrongToWeak(func(cur *graph.Node) bool {
		cur.Inert = true
		return true
	})
}

func capacityErrorKind(err error) errs.Kind {
	switch err {
	case graph.ErrArcCapacityExceeded:
		return errs.ArcCapacityExceeded
	case graph.ErrArcNamespaceDepthCapacityExceeded:
		return errs.ArcNamespaceDepthCapacityExceeded
	default:
		return errs.IndexCapacityExceeded
	}
}

func (b *Builder) errSite(s graph.Site) errs.Site {
	id := ""
	if s.LayerStack != nil {
		id = s.LayerStack.Identifier()
	}
	return errs.Site{LayerStack: id, Path: s.Path}
}

func toErrSites(sites []graph.Site) []errs.Site {
	out := make([]errs.Site, len(sites))
	for i, s := range sites {
		id := ""
		if s.LayerStack != nil {
			id = s.LayerStack.Identifier()
		}
		out[i] = errs.Site{LayerStack: id, Path: s.Path}
	}
	return out
}

var errCycle = arcError("cycle")
var errDuplicate = arcError("duplicate node suppressed")

type arcError string

func (e arcError) Error() string { return string(e) }

// buildSubgraphForSite implements the "recursively build a subgraph for
// site itself" clause of spec.md §4.3 step 4, with
// evaluate_implied_specializes=false and evaluate_variants=false, sharing a
// new stack frame that points back to this call.
func (b *Builder) buildSubgraphForSite(site graph.Site, parent *graph.Node, arcType graph.ArcType) *PrimIndex {
	savedQueue, savedEIS, savedEV := b.queue, b.evaluateImpliedSpecializes, b.evaluateVariants
	b.queue = NewQueue()
	b.evaluateImpliedSpecializes = false
	b.evaluateVariants = false

	idx := b.build(site.LayerStack, site.Path, &Frame{
		RequestedSite: site,
		ParentNode:    parent,
		ArcToParent:   arcType,
		Previous:      b.frame,
	})

	b.queue, b.evaluateImpliedSpecializes, b.evaluateVariants = savedQueue, savedEIS, savedEV
	return idx
}

// nearestNonClassAncestorIsRelocate walks up through contiguous class-based
// arcs and reports whether the first non-class ancestor found is a
// Relocate placeholder node (spec.md §4.3 step 1).
func nearestNonClassAncestorIsRelocate(n *graph.Node) bool {
	cur := n
	for cur != nil && cur.ArcType.IsClassBased() {
		cur = cur.Parent
	}
	return cur != nil && cur.ArcType == graph.Relocate
}

// checkCycle implements spec.md §4.3 step 1 and §9's cross-frame cycle
// check, returning a root-to-leaf site chain on failure or nil otherwise.
func (b *Builder) checkCycle(parent *graph.Node, site graph.Site) []graph.Site {
	var reverse []graph.Site
	for n := parent; n != nil; n = n.Parent {
		reverse = append(reverse, n.Site)
		if sitesCollide(n.Site, site) {
			return buildChain(reverse, site)
		}
	}
	cur := site
	for f := b.frame; f != nil; f = f.Previous {
		if f.ParentNode == nil {
			cur = f.RequestedSite
			continue
		}
		translated := cur
		if q, ok := path.ReplacePrefix(cur.Path, f.RequestedSite.Path, f.ParentNode.Site.Path); ok {
			translated.Path = q
			translated.LayerStack = f.ParentNode.Site.LayerStack
		}
		for n := f.ParentNode; n != nil; n = n.Parent {
			reverse = append(reverse, n.Site)
			if sitesCollide(n.Site, translated) {
				return buildChain(reverse, site)
			}
		}
		cur = translated
	}
	return nil
}

func sitesCollide(a, b graph.Site) bool {
	return a.LayerStack.Equal(b.LayerStack) && path.EitherIsPrefixOfOther(a.Path, b.Path)
}

func buildChain(reverse []graph.Site, leaf graph.Site) []graph.Site {
	out := make([]graph.Site, len(reverse)+1)
	for i, s := range reverse {
		out[len(reverse)-i-1] = s
	}
	out[len(reverse)] = leaf
	return out
}

// existsInChain implements spec.md §4.3 step 2's duplicate suppression,
// checked against the current graph's parent chain and (per spec.md §9)
// the previous cross-frame stack.
func (b *Builder) existsInChain(parent *graph.Node, site graph.Site) bool {
	for n := parent; n != nil; n = n.Parent {
		if n.Site.Equal(site) {
			return true
		}
	}
	for f := b.frame; f != nil; f = f.Previous {
		for _, s := range f.ancestorSites() {
			if s.Equal(site) {
				return true
			}
		}
	}
	return false
}
