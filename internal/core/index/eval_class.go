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

func (b *Builder) evalNodeInherits(n *graph.Node) { b.evalClassArcs(n, graph.Inherit) }

func (b *Builder) evalNodeSpecializes(n *graph.Node) { b.evalClassArcs(n, graph.Specialize) }

// evalClassArcs implements spec.md §4.4's direct class-based arc evaluator,
// shared between Inherits and Specializes: both list-edit a set of target
// class paths and both insert children through the same Class-Arc Adder
// (addClassBasedArc), differing only in arc type and in how the implied
// propagation pass treats them afterward.
func (b *Builder) evalClassArcs(n *graph.Node, arcType graph.ArcType) {
	if b.inputs.Store == nil || n.Site.LayerStack == nil {
		return
	}
	cs := spec.ComposeAtSite(b.inputs.Store, n.Site.LayerStack, n.Site.Path)
	targets := cs.Inherits
	if arcType == graph.Specialize {
		targets = cs.Specializes
	}

	root := b.errSite(b.rootSite)
	for i, classPath := range targets {
		if !classPath.IsPrimPath() || classPath.ContainsPrimVariantSelection() {
			b.errors.Add(errs.InvalidTargetPrimPath(root, arcType.String(), classPath, "class target must be an absolute prim path"))
			continue
		}

		// The mapping for a class arc maps the class to the instance; every
		// other path maps to itself (spec.md §4.4).
		mapExpr := mapfunc.New(classPath, n.Site.Path, mapfunc.IdentityOffset).AddRootIdentity()

		b.addClassBasedArc(arcType, n, n, mapExpr, i, graph.Site{})
	}
}

// impliedClassMap builds the effective map function for an implied class
// arc (spec.md §4.4, _GetImpliedClass): classArc is the original class
// arc's own map_to_parent, transfer is the function that carries the arc's
// instance namespace to the destination namespace it's being propagated
// into. A constant-identity transfer carries the class arc across
// unchanged; otherwise the class arc is conjugated by the transfer so it
// keeps mapping the same underlying class site, now expressed in the
// destination's namespace.
func impliedClassMap(transfer, classArc *mapfunc.Expression) *mapfunc.Expression {
	if transfer.IsConstantIdentity() {
		return classArc
	}
	return transfer.Compose(classArc.Compose(transfer.Inverse())).AddRootIdentity()
}

// evalImpliedClasses implements spec.md §4.4's implied class propagation
// entry point: every class-based child of n is mirrored onto n's parent, so
// an instance of a class that itself inherits or specializes something
// automatically picks up that something too.
func (b *Builder) evalImpliedClasses(n *graph.Node) {
	if n.IsRoot() {
		return
	}
	// Inherits beneath a propagated specializes node are propagated from
	// that arc's origin instead, by the implied-specializes pass, to keep a
	// consistent strength ordering (spec.md §4.4 Implied Specializes).
	if isPropagatedSpecializesNode(n) {
		return
	}
	if !hasClassBasedChild(n) {
		return
	}

	// The map to n's own parent may have a restricted domain (e.g. a
	// reference only maps its referenced root prim); add a root identity so
	// root classes still transfer across it (spec.md §4.4).
	transferFunc := n.MapToParent.AddRootIdentity()
	b.evalImpliedClassTree(n.Parent, n, transferFunc, true)
}

// evalImpliedClassTree propagates the entire class-arc subtree rooted at
// srcNode onto destNode (spec.md §4.4's recursion step,
// _EvalImpliedClassTree): every class-based child of srcNode is mirrored
// under destNode through transferFunc, then the same is done recursively
// for that child's own class-based children, so a multi-level inherit or
// specialize chain propagates as a whole.
//
// srcNodeIsStartOfTree is true only for the initial call from
// evalImpliedClasses; it guards against re-propagating the very arc that
// continues an ancestral class chain (destNode --inherit--> srcNode
// --inherit--> srcChild: srcChild must not also become an implied arc
// directly under destNode).
func (b *Builder) evalImpliedClassTree(destNode, srcNode *graph.Node, transferFunc *mapfunc.Expression, srcNodeIsStartOfTree bool) {
	// Classes never propagate onto a Relocate placeholder: it exists only
	// so propagation can continue once the relocation source tree is
	// grafted in. Redirect to the placeholder's own parent instead, folding
	// the placeholder's map into the transfer function, and separately
	// re-queue EvalImpliedClasses on the placeholder itself so any class
	// hierarchy that begins directly under it still gets propagated.
	if destNode.ArcType == graph.Relocate {
		newTransferFunc := destNode.MapToParent.AddRootIdentity().Compose(transferFunc)
		b.evalImpliedClassTree(destNode.Parent, srcNode, newTransferFunc, srcNodeIsStartOfTree)
		b.queue.Push(&Task{Kind: EvalImpliedClasses, Node: destNode})
		return
	}

	for _, srcChild := range append([]*graph.Node(nil), srcNode.Children...) {
		if !srcChild.ArcType.IsClassBased() {
			continue
		}

		// destNode --> srcNode --> srcChild, where srcNode is itself a
		// class arc continuing an ancestral chain: srcChild is part of that
		// chain, not a true namespace child of srcNode, and gets handled
		// when the ancestral chain's own class tree is evaluated.
		if srcNodeIsStartOfTree && srcNode.ArcType.IsClassBased() &&
			srcNode.DepthBelowIntroduction == srcChild.DepthBelowIntroduction {
			continue
		}

		destClassFunc := impliedClassMap(transferFunc, srcChild.MapToParent)

		var destChild *graph.Node
		for _, c := range destNode.Children {
			if c.Origin == srcChild && c.MapToParent.Equal(destClassFunc) {
				destChild = c
				break
			}
		}

		if destChild == nil {
			destChild = b.addClassBasedArc(srcChild.ArcType, destNode, srcChild, destClassFunc,
				srcChild.SiblingNumAtOrigin, srcChild.Site)
		}

		if destChild != nil && hasClassBasedChild(srcChild) {
			// Walk up from srcChild, across transferFunc, and back down
			// through destClassFunc's inverse to get the transfer function
			// for srcChild's own class-based children.
			childTransferFunc := destClassFunc.Inverse().Compose(transferFunc.Compose(srcChild.MapToParent))
			b.evalImpliedClassTree(destChild, srcChild, childTransferFunc, false)
		}
	}
}

// addClassBasedArc implements spec.md §4.3's Class-Arc Adder
// (_AddClassBasedArc): map parent's own path back across inheritMap to find
// the site it should inherit from, skip silently if no such site exists,
// reuse a matching existing child, and otherwise derive
// direct_contributes_specs / skip_duplicate_nodes / include_ancestral_opinions
// from whether the inherited path is actually distinct from parent's own
// and from whatever site the caller wants treated as redundant.
func (b *Builder) addClassBasedArc(arcType graph.ArcType, parent, origin *graph.Node, inheritMap *mapfunc.Expression, arcNum int, ignoreIfSameAsSite graph.Site) *graph.Node {
	inheritPath, ok := determineInheritPath(parent.Site.Path, inheritMap)
	if !ok {
		// parent's site is outside inheritMap's codomain: there's no
		// meaningful site for parent to inherit along this arc from here.
		return nil
	}
	inheritSite := graph.Site{LayerStack: parent.Site.LayerStack, Path: inheritPath}

	if existing := findMatchingClassChild(parent, inheritSite, arcType, inheritMap, origin.DepthBelowIntroduction); existing != nil {
		return existing
	}

	// The arc may map the path unchanged, e.g. an implied inherit
	// transferred across a relocation placeholder whose map degenerates to
	// identity at the relocation source. We still add the node, to keep
	// propagating the class further up the graph, but suppress its
	// opinions since they'd be redundant.
	shouldContributeSpecs := !inheritPath.Equal(parent.Site.Path) && !inheritSite.Equal(ignoreIfSameAsSite)
	skipDuplicateNodes := shouldContributeSpecs
	// Only subroot classes need to compute ancestral opinions.
	includeAncestralOpinions := shouldContributeSpecs && !inheritPath.IsRootPrimPath()

	node, err := b.AddArc(AddArcParams{
		Type:                     arcType,
		Parent:                   parent,
		Origin:                   origin,
		Site:                     inheritSite,
		MapToParent:              inheritMap,
		SiblingNum:               arcNum,
		DirectContributesSpecs:   shouldContributeSpecs,
		IncludeAncestralOpinions: includeAncestralOpinions,
		SkipDuplicateNodes:       skipDuplicateNodes,
	})
	if err != nil {
		return nil
	}
	return node
}

// findMatchingClassChild looks for an already-existing child of parent
// representing the same class arc, so repeated propagation (or an implied
// inherit that was also broken down explicitly) doesn't duplicate it.
// Comparing by site is enough except under a Relocate placeholder, where
// sites are not necessarily meaningful (spec.md §4.3, XXX:RelocatesSourceNodes)
// and arc type + evaluated map + origin depth is used instead.
func findMatchingClassChild(parent *graph.Node, site graph.Site, arcType graph.ArcType, mapToParent *mapfunc.Expression, originDepthBelowIntroduction int) *graph.Node {
	for _, child := range parent.Children {
		if parent.ArcType == graph.Relocate {
			if child.ArcType == arcType && child.MapToParent.Equal(mapToParent) &&
				child.Origin.DepthBelowIntroduction == originDepthBelowIntroduction {
				return child
			}
			continue
		}
		if child.Site.Equal(site) {
			return child
		}
	}
	return nil
}

// determineInheritPath maps parentPath back across inheritMap to find the
// site parent should inherit from (spec.md §4.3, _DetermineInheritPath).
// Variant selections are path components but never part of composed
// namespace and must never reach a map expression, so they're stripped
// before mapping and reattached at the same relative position afterward.
func determineInheritPath(parentPath path.Path, inheritMap *mapfunc.Expression) (path.Path, bool) {
	if !parentPath.ContainsPrimVariantSelection() {
		return inheritMap.MapTargetToSource(parentPath)
	}

	varPath := parentPath
	for !varPath.IsPrimVariantSelectionPath() {
		p, ok := varPath.ParentPath()
		if !ok {
			break
		}
		varPath = p
	}

	stripped, ok := inheritMap.MapTargetToSource(parentPath.StripAllVariantSelections())
	if !ok {
		return path.Path{}, false
	}
	return path.ReplacePrefix(stripped, varPath.StripAllVariantSelections(), varPath)
}
