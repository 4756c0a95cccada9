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
	"github.com/expenses/primidx/internal/core/layerstack"
	"github.com/expenses/primidx/internal/core/path"
	"github.com/expenses/primidx/internal/core/spec"
	"github.com/expenses/primidx/internal/errs"
)

// Builder drives a single prim-index build (spec.md §4.6). It is
// single-threaded and synchronous per spec.md §5: one Builder serves one
// BuildPrimIndex call and every recursive sub-build it spawns.
type Builder struct {
	inputs Inputs
	queue  *Queue
	errors errs.List

	dynamicFFDeps []DynamicFileFormatDependency
	exprVarDeps   []ExpressionVariablesDependency
	culledDeps    []CulledDependency

	frame *Frame

	evaluateImpliedSpecializes bool
	evaluateVariants           bool

	rootSite graph.Site
	outputs  *Outputs
}

// BuildPrimIndex is the module's core entry point (spec.md §4.6, §6). It
// builds a complete prim index for p within ls.
func BuildPrimIndex(ls *layerstack.LayerStack, p path.Path, in Inputs) Outputs {
	b := &Builder{
		inputs:                     in,
		queue:                      NewQueue(),
		evaluateImpliedSpecializes: true,
		evaluateVariants:           true,
		rootSite:                   graph.Site{LayerStack: ls, Path: p},
	}
	out := &Outputs{}
	b.outputs = out

	idx := b.build(ls, p, nil)
	out.PrimIndex = idx

	b.enforcePermissions(idx.Graph)
	idx.Graph.SetInstanceable(false)
	_ = idx.Graph.Finalize()
	b.rescanPrimSpecs(idx.Graph)
	idx.LocalErrors = b.errors.Errors()

	out.AllErrors = b.errors.Errors()
	out.DynamicFileFormatDependencies = b.dynamicFFDeps
	out.ExpressionVariablesDependencies = b.exprVarDeps
	out.CulledDependencies = b.culledDeps
	return *out
}

// build implements the driver steps of spec.md §4.6 for one frame. f is
// nil at the outermost call.
func (b *Builder) build(ls *layerstack.LayerStack, p path.Path, f *Frame) *PrimIndex {
	prevFrame := b.frame
	b.frame = f
	defer func() { b.frame = prevFrame }()

	site := graph.Site{LayerStack: ls, Path: p}

	// Step 1-3: root, or variant-selection path, gets a fresh single-node
	// graph with no ancestral recursion.
	if p.IsRoot() || p.IsPrimVariantSelectionPath() {
		g := graph.New(site, graph.DefaultLimits())
		idx := &PrimIndex{Graph: g}
		b.seedAndDrain(g.Root())
		return idx
	}

	parentPath, _ := p.ParentPath()
	g, ancestorInstanceable := b.buildAncestralGraph(ls, parentPath)

	// Step 5: ancestor instanceable -> mark nodes that cannot contribute
	// child opinions inert. A node contributes to a child's opinions only
	// if it directly contributes specs; everything else under an
	// instanceable ancestor is irrelevant to the child's own index.
	if ancestorInstanceable {
		for _, n := range g.Nodes() {
			if !n.DirectContributesSpecs {
				n.Inert = true
			}
		}
	}

	// Step 6: append the namespace-child name to every site.
	childName := p.String()
	if idx := lastElemName(p); idx != "" {
		childName = idx
	}
	g.AppendNamespaceChild(childName)

	// Step 7: reset has_payloads/payload_state; they belong to the prim
	// itself.
	g.SetHasPayloads(false)

	// Step 8: re-derive per-node state for the new depth.
	for _, n := range g.Nodes() {
		ap, _ := ScanNode(b.inputs.Store, n.Site)
		_ = ap
		n.HasSpecs = hasSpecsAt(b.inputs.Store, n.Site)
		if !n.IsRoot() {
			n.IsDueToAncestor = true
		}
	}
	root := g.Root()
	root.Site = site

	// Step 9: culling pass.
	if b.inputs.Cull {
		for _, n := range g.Nodes() {
			n.Culled = cullable(n)
		}
	}

	// Step 10: if the root shouldn't contribute specs (e.g. it sits under
	// a relocation source), force it inert.
	if ls != nil && ls.Relocates().IsUnderAnySource(p) {
		root.Inert = true
		root.DirectContributesSpecs = false
	}

	idx := &PrimIndex{Graph: g}
	b.seedAndDrain(root)
	return idx
}

func lastElemName(p path.Path) string {
	s := p.String()
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return s[i+1:]
		}
	}
	return s
}

// buildAncestralGraph implements driver step 4: fetch the parent's cached
// index and clone it, or recursively build it.
func (b *Builder) buildAncestralGraph(ls *layerstack.LayerStack, parentPath path.Path) (*graph.Graph, bool) {
	if b.frame == nil && b.evaluateImpliedSpecializes && b.inputs.Cache != nil {
		if cached, ok := b.inputs.Cache.GetPrimIndex(ls, parentPath, b.inputs); ok {
			return cached.Graph.Clone(), cached.Graph.IsInstanceable()
		}
	}
	savedQueue, savedEIS, savedEV := b.queue, b.evaluateImpliedSpecializes, b.evaluateVariants
	b.queue = NewQueue()
	b.evaluateImpliedSpecializes = true
	b.evaluateVariants = true

	idx := b.build(ls, parentPath, &Frame{
		RequestedSite: graph.Site{LayerStack: ls, Path: parentPath},
		Previous:      b.frame,
	})

	b.queue, b.evaluateImpliedSpecializes, b.evaluateVariants = savedQueue, savedEIS, savedEV
	return idx.Graph, idx.Graph.IsInstanceable()
}

func hasSpecsAt(store *spec.Store, site graph.Site) bool {
	if store == nil || site.LayerStack == nil {
		return false
	}
	return spec.ComposeAtSite(store, site.LayerStack, site.Path).HasSpecs
}

func cullable(n *graph.Node) bool {
	if n.HasSpecs {
		return false
	}
	for _, c := range n.Children {
		if !cullable(c) {
			return false
		}
	}
	return true
}

// seedAndDrain implements driver steps 11-12: seed the queue from root and
// drain it to completion.
func (b *Builder) seedAndDrain(root *graph.Node) {
	b.addTasksForNode(root, false)
	b.drain()
}

func (b *Builder) drain() {
	for {
		t := b.queue.Pop()
		if t == nil {
			return
		}
		b.runTask(t)
	}
}

func (b *Builder) runTask(t *Task) {
	switch t.Kind {
	case EvalNodeRelocations:
		b.evalNodeRelocations(t.Node)
	case EvalImpliedRelocations:
		b.evalImpliedRelocations(t.Node)
	case EvalNodeReferences:
		b.evalNodeReferences(t.Node)
	case EvalNodePayload:
		b.evalNodePayload(t.Node)
	case EvalNodeInherits:
		b.evalNodeInherits(t.Node)
	case EvalImpliedClasses:
		b.evalImpliedClasses(t.Node)
	case EvalNodeSpecializes:
		b.evalNodeSpecializes(t.Node)
	case EvalImpliedSpecializes:
		b.evalImpliedSpecializes(t.Node)
	case EvalNodeVariantSets:
		b.evalNodeVariantSets(t.Node)
	case EvalNodeVariantAuthored:
		b.evalNodeVariantAuthored(t.Node, t.VariantSetName, t.VariantNum)
	case EvalNodeVariantFallback:
		b.evalNodeVariantFallback(t.Node, t.VariantSetName, t.VariantNum)
	case EvalNodeVariantNoneFound:
		// Terminal marker; nothing further to do.
	}
}

// addTasksForNode walks n's subtree in insertion order, scans each node's
// spec once, and enqueues the tasks the Arc Scanner's findings call for
// (spec.md §4.3 "Task enqueue for a node"). skipExpressed is true when the
// subtree was already produced by a nested recursive build (spec.md §4.3
// step 7), so direct arc-kind tasks (references, payloads, inherits,
// specializes, variant sets, relocations) are not re-queued for already
// expressed nodes — only the "implied" propagation tasks are, since those
// depend on the new parent this subtree was just grafted under.
func (b *Builder) addTasksForNode(n *graph.Node, skipExpressed bool) {
	n.WalkStrongToWeak(func(cur *graph.Node) bool {
		if cur.Inert {
			return true
		}
		if !skipExpressed && cur.DirectContributesSpecs {
			present, _ := ScanNode(b.inputs.Store, cur.Site)
			if present.Relocations && !b.inputs.USD {
				b.queue.Push(&Task{Kind: EvalNodeRelocations, Node: cur})
			}
			if present.References {
				b.queue.Push(&Task{Kind: EvalNodeReferences, Node: cur})
			}
			if present.Payloads {
				b.queue.Push(&Task{Kind: EvalNodePayload, Node: cur})
			}
			if present.Inherits {
				b.queue.Push(&Task{Kind: EvalNodeInherits, Node: cur})
			}
			if present.Specializes {
				b.queue.Push(&Task{Kind: EvalNodeSpecializes, Node: cur})
			}
			if present.VariantSets && b.evaluateVariants {
				b.queue.Push(&Task{Kind: EvalNodeVariantSets, Node: cur})
			}
		}

		if cur.ArcType.IsClassBased() {
			start := startingNodeForImpliedClasses(cur)
			b.queue.Push(&Task{Kind: EvalImpliedClasses, Node: start})
		} else if hasClassBasedChild(cur) {
			b.queue.Push(&Task{Kind: EvalImpliedClasses, Node: cur})
		}

		if b.evaluateImpliedSpecializes {
			if cur.ArcType == graph.Specialize || hasSpecializeChild(cur) {
				b.queue.Push(&Task{Kind: EvalImpliedSpecializes, Node: cur})
			}
		}

		if cur.ArcType == graph.Relocate {
			b.queue.Push(&Task{Kind: EvalImpliedRelocations, Node: cur})
		}
		return true
	})
}

func hasClassBasedChild(n *graph.Node) bool {
	for _, c := range n.Children {
		if c.ArcType.IsClassBased() {
			return true
		}
	}
	return false
}

func hasSpecializeChild(n *graph.Node) bool {
	for _, c := range n.Children {
		if c.ArcType == graph.Specialize {
			return true
		}
	}
	return false
}

// startingNodeForImpliedClasses implements spec.md §4.3's "Starting-node
// for implied classes": given the newly added class-based node n, the
// immediate instance is n's parent; if that instance is itself class-based
// (an ancestral-class situation — nested inherits), keep climbing so an
// entire class chain propagates as a unit.
func startingNodeForImpliedClasses(n *graph.Node) *graph.Node {
	instance := n.Parent
	for instance != nil && instance.Parent != nil && instance.ArcType.IsClassBased() {
		instance = instance.Parent
	}
	return instance
}
