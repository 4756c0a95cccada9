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

import "github.com/expenses/primidx/internal/core/graph"

// evalImpliedSpecializes implements spec.md §4.4's "Implied Specializes"
// state machine. Specializes opinions must end up weaker than every other
// arc, so the builder propagates an entire specializes subtree up to the
// graph's root (placing it last in strong-to-weak order); if anything is
// later discovered beneath a node that was propagated this way, that
// addition is relocated back down to the node's pre-propagation origin so
// the ordinary implied-class/etc. passes see it in its natural position,
// then queued to propagate up again.
func (b *Builder) evalImpliedSpecializes(n *graph.Node) {
	if n.IsRoot() {
		return
	}
	if isPropagatedSpecializesNode(n) {
		b.findArcsToPropagateToOrigin(n)
		return
	}
	b.findSpecializesToPropagateToRoot(n)
}

// isPropagatedSpecializesNode reports whether n is a specialize arc that
// already sits directly under the graph root at its origin's own site —
// the signature of a node this pass has already propagated.
func isPropagatedSpecializesNode(n *graph.Node) bool {
	return n.ArcType == graph.Specialize && n.Parent != nil && n.Parent.IsRoot() && n.Site.Equal(n.Origin.Site)
}

// findSpecializesToPropagateToRoot implements the "starting-node for
// implied specializes" rule: the most ancestral contiguous specialize-arc
// ancestor of n, or none. That whole subtree moves to the root as a unit.
func (b *Builder) findSpecializesToPropagateToRoot(n *graph.Node) {
	cur := n
	for cur.ArcType == graph.Specialize && cur.Parent != nil && cur.Parent.ArcType == graph.Specialize {
		cur = cur.Parent
	}
	if cur.ArcType != graph.Specialize {
		return
	}
	b.propagateNodeToParent(cur, n.Graph.Root(), true)
}

// findArcsToPropagateToOrigin relocates every child discovered beneath a
// propagated specializes node back down to that node's origin, then
// schedules each relocated node to propagate up again once whatever
// evaluator runs at its natural position has finished with it.
func (b *Builder) findArcsToPropagateToOrigin(n *graph.Node) {
	if n.Origin == nil || n.Origin == n {
		return
	}
	for _, c := range append([]*graph.Node(nil), n.Children...) {
		moved := b.propagateNodeToParent(c, n.Origin, false)
		if moved != nil {
			b.queue.Push(&Task{Kind: EvalImpliedSpecializes, Node: moved})
		}
	}
}

// propagateNodeToParent is the shared primitive of spec.md §4.4: move
// source (and everything beneath it) so it appears as a child of
// targetParent instead, reusing an existing matching child if one is
// already there, and leaving source itself inert once its subtree has
// moved.
func (b *Builder) propagateNodeToParent(source, targetParent *graph.Node, toRoot bool) *graph.Node {
	if source.Parent == targetParent {
		return source
	}
	for _, c := range targetParent.Children {
		if c.Site.Equal(source.Site) && c.ArcType == source.ArcType {
			return c
		}
	}

	origin := source
	if !toRoot && !source.ArcType.IsClassBased() {
		origin = targetParent
	}

	newNode, err := b.AddArc(AddArcParams{
		Type:                      source.ArcType,
		Parent:                    targetParent,
		Origin:                    origin,
		Site:                      source.Site,
		MapToParent:               source.MapToParent,
		SiblingNum:                source.SiblingNumAtOrigin,
		DirectContributesSpecs:    source.DirectContributesSpecs,
		SkipTasksForExpressedArcs: !toRoot,
	})
	if err != nil || newNode == nil {
		return nil
	}

	newNode.Inert = source.Inert
	newNode.HasSymmetry = source.HasSymmetry
	newNode.Permission = source.Permission
	newNode.Restricted = source.Restricted

	newNode.Children = append(newNode.Children, source.Children...)
	for _, c := range source.Children {
		c.Parent = newNode
	}
	source.Children = nil
	source.Inert = true

	return newNode
}
