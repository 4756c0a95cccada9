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
	"github.com/expenses/primidx/internal/core/spec"
)

// evalNodeVariantSets implements spec.md §4.4's Variants section: enumerate
// the composed variant-set names for the node and queue one
// EvalNodeVariantAuthored task per set, preserving set order.
func (b *Builder) evalNodeVariantSets(n *graph.Node) {
	if b.inputs.Store == nil || n.Site.LayerStack == nil {
		return
	}
	cs := spec.ComposeAtSite(b.inputs.Store, n.Site.LayerStack, n.Site.Path)
	for i, vs := range cs.VariantSets {
		b.queue.Push(&Task{Kind: EvalNodeVariantAuthored, Node: n, VariantSetName: vs.Name, VariantNum: i})
	}
}

func (b *Builder) evalNodeVariantAuthored(n *graph.Node, vsetName string, vsetNum int) {
	b.evalVariant(n, vsetName, vsetNum, true)
}

func (b *Builder) evalNodeVariantFallback(n *graph.Node, vsetName string, vsetNum int) {
	b.evalVariant(n, vsetName, vsetNum, false)
}

// evalVariant implements EvalNodeVariantAuthored/EvalNodeVariantFallback
// (spec.md §4.4): find the strongest authored selection (skipped when
// considerAuthored is false), weigh it against the builder's fallback
// candidate per the fallback policy (spec.md §4.5), and either insert a
// Variant arc or queue a terminal marker.
func (b *Builder) evalVariant(n *graph.Node, vsetName string, vsetNum int, considerAuthored bool) {
	if b.inputs.Store == nil || n.Site.LayerStack == nil {
		return
	}
	cs := spec.ComposeAtSite(b.inputs.Store, n.Site.LayerStack, n.Site.Path)

	var options []string
	for _, vs := range cs.VariantSets {
		if vs.Name == vsetName {
			options = vs.Options
			break
		}
	}

	fallback := firstAllowed(b.inputs.VariantFallbacks[vsetName], options)

	var authoredSel string
	var authoredNode *graph.Node
	var isSession bool
	if considerAuthored {
		authoredSel, authoredNode, isSession = b.findVariantSelection(n, vsetName)
	}

	selection := authoredSel
	if fallbackBeatsAuthored(vsetName, authoredSel, authoredNode, isSession, fallback, b.inputs.NewDefaultStandinBehavior) {
		selection = fallback
	}

	if selection == "" {
		b.queue.Push(&Task{Kind: EvalNodeVariantNoneFound, Node: n, VariantSetName: vsetName, VariantNum: vsetNum})
		return
	}

	newPath := n.Site.Path.AppendVariantSelection(vsetName, selection)
	node, err := b.AddArc(AddArcParams{
		Type:                     graph.Variant,
		Parent:                   n,
		Site:                     graph.Site{LayerStack: n.Site.LayerStack, Path: newPath},
		MapToParent:              mapfunc.Identity,
		SiblingNum:               vsetNum,
		DirectContributesSpecs:   true,
		IncludeAncestralOpinions: false,
	})
	if err != nil || node == nil {
		return
	}
	b.queue.RetryVariantTasks()
}

// firstAllowed returns the first of preferred that appears in options, or
// "" if none do or preferred is empty.
func firstAllowed(preferred, options []string) string {
	for _, p := range preferred {
		for _, o := range options {
			if o == p {
				return p
			}
		}
	}
	return ""
}

// fallbackBeatsAuthored implements the fallback policy of spec.md §4.5.
func fallbackBeatsAuthored(vsetName, authoredSel string, authoredNode *graph.Node, isSession bool, fallback string, newDefaultStandin bool) bool {
	if fallback == "" {
		return false
	}
	if authoredSel == "" {
		return true
	}
	if vsetName != "standin" {
		return false
	}
	if newDefaultStandin {
		return false
	}
	// (a): the authored node is itself a Variant arc for this same set —
	// that selection was already a deliberate decision, so it stands.
	if authoredNode != nil && authoredNode.ArcType == graph.Variant {
		if sel, ok := authoredNode.Site.Path.GetVariantSelection(vsetName); ok && sel == authoredSel {
			return false
		}
	}
	// (b) and (c) both favor the fallback explicitly; the "finally" clause
	// covers every other non-root authored selection the same way, so past
	// the (a) exception this branch always favors the fallback.
	return true
}
