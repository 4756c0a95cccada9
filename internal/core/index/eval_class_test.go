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
	"github.com/expenses/primidx/internal/graphtest"
)

// S4: an instance of a class that itself inherits something picks up an
// implied Inherit arc for that something too.
func TestImpliedClassPropagation(t *testing.T) {
	w := graphtest.LoadWorld(t, `
stacks:
  root:
    layers:
      - id: base
        prims:
          /M:
            inherits: ["/M/C"]
          /M/C:
            hasSpec: true
          /R:
            references:
              - primPath: /M
`)

	out := graphtest.Build(t, w, "root", "/R", index.Inputs{})
	if len(out.AllErrors) != 0 {
		t.Fatalf("unexpected errors: %v", out.AllErrors)
	}

	root := out.PrimIndex.Graph.Root()
	var referenceNode *graph.Node
	for _, c := range root.Children {
		if c.ArcType == graph.Reference {
			referenceNode = c
		}
	}
	if referenceNode == nil {
		t.Fatalf("want a Reference child of /R, got %v",
			graphtest.ArcTypesStrongToWeak(out.PrimIndex.Graph))
	}

	var inherit *graph.Node
	for _, c := range referenceNode.Children {
		if c.ArcType == graph.Inherit {
			inherit = c
		}
	}
	if inherit == nil {
		t.Fatalf("want a direct Inherit child of the /M reference node, got %v",
			graphtest.ArcTypesStrongToWeak(out.PrimIndex.Graph))
	}
	if inherit.Site.Path.String() != "/M/C" {
		t.Fatalf("want the inherit's own site /M/C, got %s", inherit.Site.Path)
	}

	var impliedInherit *graph.Node
	for _, c := range root.Children {
		if c.ArcType == graph.Inherit {
			impliedInherit = c
		}
	}
	if impliedInherit == nil {
		t.Fatalf("want an implied Inherit child of /R itself, got %v",
			graphtest.ArcTypesStrongToWeak(out.PrimIndex.Graph))
	}
	if impliedInherit.Origin != inherit {
		t.Fatalf("want the implied inherit's origin to be the original /M inherit node")
	}
}

// S4b: a chain of subroot classes (M inherits C, and C itself inherits D)
// propagates as a whole, not just its first link.
func TestImpliedClassPropagationRecursive(t *testing.T) {
	w := graphtest.LoadWorld(t, `
stacks:
  root:
    layers:
      - id: base
        prims:
          /M:
            inherits: ["/M/C"]
          /M/C:
            inherits: ["/M/D"]
          /M/D:
            hasSpec: true
          /R:
            references:
              - primPath: /M
`)

	out := graphtest.Build(t, w, "root", "/R", index.Inputs{})
	if len(out.AllErrors) != 0 {
		t.Fatalf("unexpected errors: %v", out.AllErrors)
	}

	root := out.PrimIndex.Graph.Root()
	var referenceNode *graph.Node
	for _, c := range root.Children {
		if c.ArcType == graph.Reference {
			referenceNode = c
		}
	}
	if referenceNode == nil {
		t.Fatalf("want a Reference child of /R, got %v",
			graphtest.ArcTypesStrongToWeak(out.PrimIndex.Graph))
	}

	var inheritC *graph.Node
	for _, c := range referenceNode.Children {
		if c.ArcType == graph.Inherit {
			inheritC = c
		}
	}
	if inheritC == nil {
		t.Fatalf("want a direct Inherit child of the /M reference node, got %v",
			graphtest.ArcTypesStrongToWeak(out.PrimIndex.Graph))
	}
	var inheritD *graph.Node
	for _, c := range inheritC.Children {
		if c.ArcType == graph.Inherit {
			inheritD = c
		}
	}
	if inheritD == nil {
		t.Fatalf("want a direct Inherit child of the grafted /M/C node, got %v",
			graphtest.ArcTypesStrongToWeak(out.PrimIndex.Graph))
	}

	var impliedC *graph.Node
	for _, c := range root.Children {
		if c.ArcType == graph.Inherit {
			impliedC = c
		}
	}
	if impliedC == nil {
		t.Fatalf("want an implied Inherit child of /R for the first link in the chain, got %v",
			graphtest.ArcTypesStrongToWeak(out.PrimIndex.Graph))
	}
	if impliedC.Origin != inheritC {
		t.Fatalf("want the first implied inherit's origin to be the direct /M/C inherit node")
	}

	var impliedD *graph.Node
	for _, c := range impliedC.Children {
		if c.ArcType == graph.Inherit {
			impliedD = c
		}
	}
	if impliedD == nil {
		t.Fatalf("want the second link of the chain propagated underneath the first implied inherit, got %v",
			graphtest.ArcTypesStrongToWeak(out.PrimIndex.Graph))
	}
	if impliedD.Origin != inheritD {
		t.Fatalf("want the second implied inherit's origin to be the direct /M/D inherit node")
	}
}
