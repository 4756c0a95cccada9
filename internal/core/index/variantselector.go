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
	"github.com/expenses/primidx/internal/core/path"
	"github.com/expenses/primidx/internal/core/spec"
)

// findVariantSelection implements spec.md §4.5's Variant Selector: find the
// strongest authored selection for (n, vsetName), searching n's own graph
// first and then, if nothing is found there, each enclosing stack frame in
// turn. A full prior-selection cache keyed by depth_below_introduction is
// not implemented (see DESIGN.md); this walks the combined strong-to-weak
// order directly every time, which is correct but does repeat work a real
// implementation would memoize.
func (b *Builder) findVariantSelection(n *graph.Node, vsetName string) (sel string, node *graph.Node, isSession bool) {
	if sel, node, isSession, ok := searchVariantSelection(b.inputs.Store, n.Graph.Root(), n.Site.Path, vsetName); ok {
		return sel, node, isSession
	}

	target := n.Site.Path
	for f := b.frame; f != nil; f = f.Previous {
		if f.ParentNode == nil {
			break
		}
		translated, ok := path.ReplacePrefix(target, f.RequestedSite.Path, f.ParentNode.Site.Path)
		if !ok {
			break
		}
		if sel, node, isSession, found := searchVariantSelection(b.inputs.Store, f.ParentNode.Graph.Root(), translated, vsetName); found {
			return sel, node, isSession
		}
		target = translated
	}
	return "", nil, false
}

// searchVariantSelection walks root's subtree strong-to-weak and returns the
// first node whose site is target and whose composed spec authors a
// selection for vsetName.
func searchVariantSelection(store *spec.Store, root *graph.Node, target path.Path, vsetName string) (sel string, node *graph.Node, isSession bool, ok bool) {
	if store == nil {
		return "", nil, false, false
	}
	root.WalkStrongToWeak(func(cur *graph.Node) bool {
		if cur.Inert || cur.Site.LayerStack == nil || !cur.Site.Path.Equal(target) {
			return true
		}
		cs := spec.ComposeAtSite(store, cur.Site.LayerStack, cur.Site.Path)
		if s, isSess, present := cs.VariantSelection(vsetName); present && s != "" {
			sel, node, isSession, ok = s, cur, isSess, true
			return false
		}
		return true
	})
	return
}
