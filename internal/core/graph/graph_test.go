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

package graph_test

import (
	"testing"

	"github.com/expenses/primidx/internal/core/graph"
	"github.com/expenses/primidx/internal/core/mapfunc"
	"github.com/expenses/primidx/internal/core/path"
)

func rootSite(p string) graph.Site {
	return graph.Site{Path: path.MustParse(p)}
}

func TestInsertChildSetsOriginAndParent(t *testing.T) {
	g := graph.New(rootSite("/A"), graph.DefaultLimits())
	root := g.Root()

	child, err := g.InsertChild(root, graph.Arc{
		Type:        graph.Reference,
		MapToParent: mapfunc.New(path.Root, path.MustParse("/A"), mapfunc.IdentityOffset),
	}, rootSite("/M"))
	if err != nil {
		t.Fatal(err)
	}
	if child.Parent != root {
		t.Errorf("Parent = %v, want root", child.Parent)
	}
	if child.Origin != child {
		t.Errorf("Origin = %v, want self (direct arc)", child.Origin)
	}
	if g.NumNodes() != 2 {
		t.Errorf("NumNodes() = %d, want 2", g.NumNodes())
	}
	if root.Children[0] != child {
		t.Errorf("root.Children[0] != child")
	}
}

func TestInsertChildWithImpliedOrigin(t *testing.T) {
	g := graph.New(rootSite("/A"), graph.DefaultLimits())
	root := g.Root()
	direct, err := g.InsertChild(root, graph.Arc{Type: graph.Inherit, MapToParent: mapfunc.Identity}, rootSite("/Class"))
	if err != nil {
		t.Fatal(err)
	}
	implied, err := g.InsertChild(direct, graph.Arc{Type: graph.Inherit, MapToParent: mapfunc.Identity, Origin: direct}, rootSite("/Class/Child"))
	if err != nil {
		t.Fatal(err)
	}
	if implied.Origin != direct {
		t.Errorf("Origin = %v, want direct", implied.Origin)
	}
}

func TestInsertChildCapacityExceeded(t *testing.T) {
	limits := graph.DefaultLimits()
	limits.MaxNodes = 2
	g := graph.New(rootSite("/A"), limits)
	root := g.Root()
	if _, err := g.InsertChild(root, graph.Arc{Type: graph.Reference, MapToParent: mapfunc.Identity}, rootSite("/M")); err != nil {
		t.Fatal(err)
	}
	if _, err := g.InsertChild(root, graph.Arc{Type: graph.Reference, MapToParent: mapfunc.Identity}, rootSite("/N")); err != graph.ErrIndexCapacityExceeded {
		t.Errorf("err = %v, want ErrIndexCapacityExceeded", err)
	}
}

func TestInsertChildArcCapacityExceeded(t *testing.T) {
	limits := graph.DefaultLimits()
	limits.MaxArcsPerNode = 1
	g := graph.New(rootSite("/A"), limits)
	root := g.Root()
	if _, err := g.InsertChild(root, graph.Arc{Type: graph.Reference, MapToParent: mapfunc.Identity}, rootSite("/M")); err != nil {
		t.Fatal(err)
	}
	if _, err := g.InsertChild(root, graph.Arc{Type: graph.Reference, MapToParent: mapfunc.Identity}, rootSite("/N")); err != graph.ErrArcCapacityExceeded {
		t.Errorf("err = %v, want ErrArcCapacityExceeded", err)
	}
}

func TestStrongToWeakOrderIsDepthFirstInsertionOrder(t *testing.T) {
	g := graph.New(rootSite("/A"), graph.DefaultLimits())
	root := g.Root()
	c1, _ := g.InsertChild(root, graph.Arc{Type: graph.Reference, MapToParent: mapfunc.Identity}, rootSite("/M"))
	_, _ = g.InsertChild(c1, graph.Arc{Type: graph.Inherit, MapToParent: mapfunc.Identity}, rootSite("/M/Class"))
	_, _ = g.InsertChild(root, graph.Arc{Type: graph.Payload, MapToParent: mapfunc.Identity}, rootSite("/P"))

	order := g.StrongToWeak()
	if len(order) != 4 {
		t.Fatalf("len(order) = %d, want 4", len(order))
	}
	want := []string{"/A", "/M", "/M/Class", "/P"}
	for i, n := range order {
		if got := n.Site.Path.String(); got != want[i] {
			t.Errorf("order[%d] = %s, want %s", i, got, want[i])
		}
	}
}

func TestGraftSubgraphRewiresArcMetadataAndPreservesChildren(t *testing.T) {
	sub := graph.New(rootSite("/M"), graph.DefaultLimits())
	subRoot := sub.Root()
	_, _ = sub.InsertChild(subRoot, graph.Arc{Type: graph.Inherit, MapToParent: mapfunc.Identity}, rootSite("/M/Class"))

	g := graph.New(rootSite("/A"), graph.DefaultLimits())
	root := g.Root()

	top, err := g.GraftSubgraph(root, graph.Arc{
		Type:        graph.Reference,
		MapToParent: mapfunc.New(path.Root, path.MustParse("/A"), mapfunc.IdentityOffset),
	}, rootSite("/M"), sub)
	if err != nil {
		t.Fatal(err)
	}
	if top.ArcType != graph.Reference {
		t.Errorf("top.ArcType = %v, want Reference", top.ArcType)
	}
	if top.Parent != root {
		t.Errorf("top.Parent != root")
	}
	if top.Origin != top {
		t.Errorf("top.Origin != top (direct arc)")
	}
	if len(top.Children) != 1 {
		t.Fatalf("len(top.Children) = %d, want 1", len(top.Children))
	}
	if top.Children[0].Parent != top {
		t.Errorf("grafted child's parent not remapped to top")
	}
	if got := top.Children[0].Site.Path.String(); got != "/M/Class" {
		t.Errorf("grafted child site = %s, want /M/Class", got)
	}
	if g.NumNodes() != 3 {
		t.Errorf("NumNodes() = %d, want 3", g.NumNodes())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g := graph.New(rootSite("/A"), graph.DefaultLimits())
	root := g.Root()
	_, _ = g.InsertChild(root, graph.Arc{Type: graph.Reference, MapToParent: mapfunc.Identity}, rootSite("/M"))

	cp := g.Clone()
	cp.Root().Children[0].Culled = true
	if g.Root().Children[0].Culled {
		t.Errorf("mutating clone affected original")
	}
	if cp.NumNodes() != g.NumNodes() {
		t.Errorf("clone has different node count")
	}
}

func TestAppendNamespaceChildRewritesEverySite(t *testing.T) {
	g := graph.New(rootSite("/A"), graph.DefaultLimits())
	root := g.Root()
	_, _ = g.InsertChild(root, graph.Arc{Type: graph.Reference, MapToParent: mapfunc.Identity}, rootSite("/M"))

	g.AppendNamespaceChild("B")
	if got := g.Root().Site.Path.String(); got != "/A/B" {
		t.Errorf("root site = %s, want /A/B", got)
	}
	if got := g.Root().Children[0].Site.Path.String(); got != "/M/B" {
		t.Errorf("child site = %s, want /M/B", got)
	}
}

func TestFinalizeComputesHasPayloads(t *testing.T) {
	g := graph.New(rootSite("/A"), graph.DefaultLimits())
	root := g.Root()
	_, _ = g.InsertChild(root, graph.Arc{Type: graph.Payload, MapToParent: mapfunc.Identity}, rootSite("/P"))
	if err := g.Finalize(); err != nil {
		t.Fatal(err)
	}
	if !g.HasPayloads() {
		t.Errorf("HasPayloads() = false, want true")
	}
	if err := g.Finalize(); err != graph.ErrAlreadyFinalized {
		t.Errorf("second Finalize err = %v, want ErrAlreadyFinalized", err)
	}
}
