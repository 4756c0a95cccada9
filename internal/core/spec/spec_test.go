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

package spec_test

import (
	"testing"

	"github.com/expenses/primidx/internal/core/layerstack"
	"github.com/expenses/primidx/internal/core/path"
	"github.com/expenses/primidx/internal/core/spec"
)

func newTestStack(t *testing.T, layerIDsStrongToWeak ...string) *layerstack.LayerStack {
	t.Helper()
	var layers []layerstack.Layer
	for _, id := range layerIDsStrongToWeak {
		layers = append(layers, layerstack.Layer{ID: layerstack.ID(id)})
	}
	return layerstack.New("test", layers, layerstack.NewRelocatesTable(nil), nil)
}

const worldYAML = `
stacks:
  root:
    layers:
      - id: root.layer
        defaultPrim: A
        prims:
          /A:
            references:
              - assetPath: m.layer
                primPath: /M
  m:
    layers:
      - id: m.layer
        prims:
          /M:
            hasSpec: true
          /M/C:
            hasSpec: true
            permission: private
`

func TestLoadWorldAndCompose(t *testing.T) {
	w, err := spec.LoadWorld([]byte(worldYAML))
	if err != nil {
		t.Fatal(err)
	}
	root, ok := w.Stack("root")
	if !ok {
		t.Fatal("missing root stack")
	}
	cs := spec.ComposeAtSite(w.Store, root, path.MustParse("/A"))
	if len(cs.References) != 1 {
		t.Fatalf("got %d references, want 1", len(cs.References))
	}
	if cs.References[0].AssetPath != "m.layer" {
		t.Errorf("AssetPath = %q, want m.layer", cs.References[0].AssetPath)
	}

	m, ok := w.Stack("m")
	if !ok {
		t.Fatal("missing m stack")
	}
	child := spec.ComposeAtSite(w.Store, m, path.MustParse("/M/C"))
	if child.Permission != spec.Private {
		t.Errorf("Permission = %v, want Private", child.Permission)
	}
	if !child.HasSpecs {
		t.Errorf("expected /M/C to have specs")
	}
}

func TestComposeMergesAcrossLayersStrongestWins(t *testing.T) {
	store := spec.NewStore()
	store.Put("strong", path.MustParse("/A"), &spec.PrimSpecData{
		HasSpec:           true,
		VariantSelections: map[string]string{"shading": "red"},
	})
	store.Put("weak", path.MustParse("/A"), &spec.PrimSpecData{
		HasSpec:           true,
		VariantSelections: map[string]string{"shading": "blue", "material": "wood"},
	})
	ls := newTestStack(t, "strong", "weak")
	cs := spec.ComposeAtSite(store, ls, path.MustParse("/A"))
	if sel, _, ok := cs.VariantSelection("shading"); !ok || sel != "red" {
		t.Errorf("VariantSelection(shading) = (%q, %v), want (red, true)", sel, ok)
	}
	if sel, _, ok := cs.VariantSelection("material"); !ok || sel != "wood" {
		t.Errorf("VariantSelection(material) = (%q, %v), want (wood, true)", sel, ok)
	}
}
