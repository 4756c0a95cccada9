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
	"github.com/expenses/primidx/internal/core/mapfunc"
	"github.com/expenses/primidx/internal/core/path"
	"github.com/expenses/primidx/internal/core/spec"
	"github.com/expenses/primidx/internal/errs"
)

func (b *Builder) evalNodeReferences(n *graph.Node) {
	if b.inputs.Store == nil || n.Site.LayerStack == nil {
		return
	}
	cs := spec.ComposeAtSite(b.inputs.Store, n.Site.LayerStack, n.Site.Path)
	for i, t := range cs.References {
		b.evalOneReferenceOrPayload(n, t, i, graph.Reference, false)
	}
}

func (b *Builder) evalNodePayload(n *graph.Node) {
	if !b.payloadGateOpen(n) {
		return
	}
	if b.inputs.Store == nil || n.Site.LayerStack == nil {
		return
	}
	cs := spec.ComposeAtSite(b.inputs.Store, n.Site.LayerStack, n.Site.Path)
	for i, t := range cs.Payloads {
		b.evalOneReferenceOrPayload(n, t, i, graph.Payload, true)
	}
}

// payloadGateOpen implements spec.md §4.4's "Payload gating": a payload
// loads if it is ancestral for a sub-root reference/payload currently
// being built, or the root path is in the included-payloads set/predicate.
func (b *Builder) payloadGateOpen(n *graph.Node) bool {
	for f := b.frame; f != nil; f = f.Previous {
		if (f.ArcToParent == graph.Reference || f.ArcToParent == graph.Payload) &&
			!f.RequestedSite.Path.Equal(b.rootSite.Path) {
			return true
		}
	}
	included, state := b.inputs.isPayloadIncluded(b.rootSite.Path)
	b.outputs.PayloadState = state
	return included
}

// evalOneReferenceOrPayload implements the unified reference/payload
// evaluator of spec.md §4.4.
func (b *Builder) evalOneReferenceOrPayload(n *graph.Node, t spec.ArcTarget, sibling int, arcType graph.ArcType, isPayload bool) {
	root := b.errSite(b.rootSite)

	// Step 1: validate target path.
	if !t.PrimPath.IsRoot() && (!t.PrimPath.IsPrimPath() || t.PrimPath.ContainsPrimVariantSelection()) {
		b.errors.Add(errs.InvalidTargetPrimPath(root, arcType.String(), t.PrimPath, "target prim path is not an absolute prim path"))
		return
	}

	// Step 2: validate layer offset.
	offset := t.LayerOffset
	if !offset.IsValid() {
		b.errors.Add(errs.InvalidOffset(root, arcType.String()))
		offset = mapfunc.IdentityOffset
	}

	// Step 3: resolve asset path.
	targetLS := n.Site.LayerStack
	internal := t.AssetPath == ""
	if !internal {
		if targetLS.IsMuted(layerstack.ID(t.AssetPath)) {
			b.errors.Add(errs.Muted(root, t.AssetPath, t.AssetPath))
			return
		}
		resolved, ok := b.resolveAsset(t.AssetPath)
		if !ok {
			b.errors.Add(errs.InvalidAsset(root, t.AssetPath, t.AssetPath, t.AssetPath))
			return
		}
		targetLS = resolved.WithExpressionVariableSource(n.Site.LayerStack.ExpressionVariableSource())
		if isPayload && len(t.FileFormatArgFields) > 0 {
			b.dynamicFFDeps = append(b.dynamicFFDeps, DynamicFileFormatDependency{
				FileFormatTarget: b.inputs.FileFormatTarget,
				FieldNames:       t.FileFormatArgFields,
			})
		}
		offset = mapfunc.ScaleBySamplesPerSecond(offset, n.Site.LayerStack.TCPS(), targetLS.TCPS())
	}

	// Step 4: determine prim path.
	primPath := t.PrimPath
	if primPath.IsRoot() {
		if name, ok := targetLS.DefaultPrim(); ok {
			primPath = path.Root.AppendChild(name)
		} else {
			b.errors.Add(errs.Unresolved(root, arcType.String(), sourceLayerName(targetLS)))
			primPath = path.Root
		}
	}

	// Step 5: construct the map expression.
	mapExpr := mapfunc.New(primPath, n.Site.Path, offset)
	if internal {
		mapExpr = mapExpr.AddRootIdentity()
	}

	// Step 6: call the Arc Adder.
	isRootPrimPath := primPath.IsRootPrimPath()
	newNode, _ := b.AddArc(AddArcParams{
		Type:                     arcType,
		Parent:                   n,
		Site:                     graph.Site{LayerStack: targetLS, Path: primPath},
		MapToParent:              mapExpr,
		SiblingNum:               sibling,
		DirectContributesSpecs:   true,
		IncludeAncestralOpinions: !isRootPrimPath,
		SkipDuplicateNodes:       true,
	})
	if newNode == nil {
		return
	}

	// Step 7: unresolved-prim-path rescan.
	if b.inputs.Store != nil && targetLS != nil {
		found := false
		for _, l := range targetLS.Layers() {
			if b.inputs.Store.HasAnySpecUnder(l.ID, primPath) {
				found = true
				break
			}
		}
		if !found {
			b.errors.Add(errs.Unresolved(root, arcType.String(), sourceLayerName(targetLS)))
		}
	}
}

func sourceLayerName(ls *layerstack.LayerStack) string {
	if ls == nil {
		return ""
	}
	return ls.Identifier()
}

func (b *Builder) resolveAsset(assetPath string) (*layerstack.LayerStack, bool) {
	if b.inputs.Resolver == nil {
		return nil, false
	}
	return b.inputs.Resolver.Resolve(assetPath)
}
