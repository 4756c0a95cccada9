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

package index_test

import (
	"testing"

	"github.com/expenses/primidx/internal/core/graph"
	"github.com/expenses/primidx/internal/core/index"
	"github.com/expenses/primidx/internal/errs"
	"github.com/expenses/primidx/internal/graphtest"
)

// S1: a simple cross-stack reference pulls in the target's subtree.
func TestSimpleReference(t *testing.T) {
	w := graphtest.LoadWorld(t, `
stacks:
  root:
    layers:
      - id: base
        prims:
          /A:
            references:
              - assetPath: m
                primPath: /M
  m:
    layers:
      - id: base
        prims:
          /M: {}
          /M/C:
            hasSpec: true
`)

	out := graphtest.Build(t, w, "root", "/A", index.Inputs{})
	if len(out.AllErrors) != 0 {
		t.Fatalf("unexpected errors: %v", out.AllErrors)
	}

	root := out.PrimIndex.Graph.Root()
	if len(root.Children) != 1 {
		t.Fatalf("want 1 child of root, got %d", len(root.Children))
	}
	ref := root.Children[0]
	if ref.ArcType != graph.Reference {
		t.Fatalf("want Reference arc, got %s", ref.ArcType)
	}
	if ref.Site.LayerStack.Identifier() == "" || ref.Site.Path.String() != "/M" {
		t.Fatalf("want reference site /M, got %s", ref.Site.Path)
	}
}

// S2: a reference cycle is detected and reported without inserting the
// second traversal of the cycle.
func TestArcCycle(t *testing.T) {
	w := graphtest.LoadWorld(t, `
stacks:
  root:
    layers:
      - id: base
        prims:
          /A:
            references:
              - primPath: /B
          /B:
            references:
              - primPath: /A
`)

	out := graphtest.Build(t, w, "root", "/A", index.Inputs{})

	var found *errs.Error
	for _, e := range out.AllErrors {
		if e.Kind == errs.ArcCycle {
			found = e
		}
	}
	if found == nil {
		t.Fatalf("want an ArcCycle error, got %v", out.AllErrors)
	}

	root := out.PrimIndex.Graph.Root()
	if len(root.Children) != 1 {
		t.Fatalf("want exactly one reference child of /A, got %d", len(root.Children))
	}
	b := root.Children[0]
	if len(b.Children) != 0 {
		t.Fatalf("want the cyclic reference back to /A not inserted, got %d children under /B", len(b.Children))
	}
}

// S3: with no authored variant selection, the configured fallback wins.
func TestVariantFallback(t *testing.T) {
	w := graphtest.LoadWorld(t, `
stacks:
  root:
    layers:
      - id: base
        prims:
          /Model:
            variantSets:
              - name: shading
                options: [red, blue]
`)

	out := graphtest.Build(t, w, "root", "/Model", index.Inputs{
		VariantFallbacks: map[string][]string{"shading": {"blue"}},
	})
	if len(out.AllErrors) != 0 {
		t.Fatalf("unexpected errors: %v", out.AllErrors)
	}

	root := out.PrimIndex.Graph.Root()
	var variants []*graph.Node
	for _, c := range root.Children {
		if c.ArcType == graph.Variant {
			variants = append(variants, c)
		}
	}
	if len(variants) != 1 {
		t.Fatalf("want exactly one Variant child, got %d", len(variants))
	}
	if got := variants[0].Site.Path.String(); got != `/Model{shading=blue}` {
		t.Fatalf("want /Model{shading=blue}, got %s", got)
	}
}

// S5: a relocation source that is a namespace child of the built prim
// surfaces as a non-contributing Relocate child.
func TestRelocation(t *testing.T) {
	w := graphtest.LoadWorld(t, `
stacks:
  root:
    layers:
      - id: base
        prims:
          /A: {}
    relocations:
      - source: /A/B
        target: /A/C
`)

	out := graphtest.Build(t, w, "root", "/A", index.Inputs{})
	if len(out.AllErrors) != 0 {
		t.Fatalf("unexpected errors: %v", out.AllErrors)
	}

	root := out.PrimIndex.Graph.Root()
	var relocate *graph.Node
	for _, c := range root.Children {
		if c.ArcType == graph.Relocate {
			relocate = c
		}
	}
	if relocate == nil {
		t.Fatalf("want a Relocate child of /A, got children: %v", graphtest.ArcTypesStrongToWeak(out.PrimIndex.Graph))
	}
	if relocate.Site.Path.String() != "/A/B" {
		t.Fatalf("want relocate child at /A/B, got %s", relocate.Site.Path)
	}
	if relocate.DirectContributesSpecs {
		t.Fatalf("want direct_contributes_specs=false on the relocate placeholder")
	}
}

// S6: referencing a private prim inerts the reference subtree and files a
// permission-denied error naming the private site.
func TestPermissionDenial(t *testing.T) {
	w := graphtest.LoadWorld(t, `
stacks:
  root:
    layers:
      - id: base
        prims:
          /Pub:
            references:
              - primPath: /Priv
          /Priv:
            permission: private
            hasSpec: true
`)

	out := graphtest.Build(t, w, "root", "/Pub", index.Inputs{})

	var found *errs.Error
	for _, e := range out.AllErrors {
		if e.Kind == errs.ArcPermissionDenied {
			found = e
		}
	}
	if found == nil {
		t.Fatalf("want an ArcPermissionDenied error, got %v", out.AllErrors)
	}
	if found.PrivateSite.Path.String() != "/Priv" {
		t.Fatalf("want the private site /Priv named in the error, got %s", found.PrivateSite.Path)
	}

	root := out.PrimIndex.Graph.Root()
	if len(root.Children) != 1 {
		t.Fatalf("want 1 child of /Pub, got %d", len(root.Children))
	}
	if !root.Children[0].Inert {
		t.Fatalf("want the reference subtree inert")
	}
}
