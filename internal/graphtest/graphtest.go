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

// Package graphtest is test-only scaffolding for the prim index builder's
// tests: load a small YAML world fixture, build a prim index
// against it, and assert over the resulting graph shape. Factoring this out
// keeps the seed-scenario tests (spec.md §8) terse instead of
// each repeating the same fixture-parsing and tree-walking boilerplate.
package graphtest

import (
	"testing"

	"github.com/expenses/primidx/internal/core/graph"
	"github.com/expenses/primidx/internal/core/index"
	"github.com/expenses/primidx/internal/core/path"
	"github.com/expenses/primidx/internal/core/spec"
)

// LoadWorld parses a YAML world fixture, failing the test on error.
func LoadWorld(t *testing.T, yamlSrc string) *spec.World {
	t.Helper()
	w, err := spec.LoadWorld([]byte(yamlSrc))
	if err != nil {
		t.Fatalf("graphtest: loading world: %v", err)
	}
	return w
}

// Build resolves stackName and primPath within w and runs BuildPrimIndex
// against it, failing the test if the stack is missing.
func Build(t *testing.T, w *spec.World, stackName, primPath string, in index.Inputs) index.Outputs {
	t.Helper()
	ls, ok := w.Stack(stackName)
	if !ok {
		t.Fatalf("graphtest: no stack named %q", stackName)
	}
	if in.Store == nil {
		in.Store = w.Store
	}
	if in.Resolver == nil {
		in.Resolver = w
	}
	return index.BuildPrimIndex(ls, path.MustParse(primPath), in)
}

// ChildAt returns n's first child whose site path equals p exactly
// (variant selections included), failing the test if none matches.
func ChildAt(t *testing.T, n *graph.Node, p string) *graph.Node {
	t.Helper()
	target := path.MustParse(p)
	for _, c := range n.Children {
		if c.Site.Path.Equal(target) {
			return c
		}
	}
	t.Fatalf("graphtest: no child of %s at %s (children: %s)", n.Site.Path, p, childSites(n))
	return nil
}

func childSites(n *graph.Node) string {
	s := ""
	for i, c := range n.Children {
		if i > 0 {
			s += ", "
		}
		s += c.Site.Path.String()
	}
	return s
}

// StrongToWeakSites returns every non-inert node's site path in
// strong-to-weak order, a convenient shape to assert against in tests.
func StrongToWeakSites(g *graph.Graph) []string {
	var out []string
	for _, n := range g.StrongToWeak() {
		if n.Inert {
			continue
		}
		out = append(out, n.Site.Path.String())
	}
	return out
}

// ArcTypesStrongToWeak returns the arc type of every non-inert node in
// strong-to-weak order, parallel to StrongToWeakSites.
func ArcTypesStrongToWeak(g *graph.Graph) []graph.ArcType {
	var out []graph.ArcType
	for _, n := range g.StrongToWeak() {
		if n.Inert {
			continue
		}
		out = append(out, n.ArcType)
	}
	return out
}
