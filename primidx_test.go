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

package primidx_test

import (
	"testing"

	"github.com/expenses/primidx"
	"github.com/expenses/primidx/internal/core/spec"
)

func TestComputePrimIndexSimpleReference(t *testing.T) {
	w, err := spec.LoadWorld([]byte(`
stacks:
  root:
    layers:
      - id: base
        prims:
          /A:
            references:
              - primPath: /M
          /M:
            hasSpec: true
`))
	if err != nil {
		t.Fatalf("loading world: %v", err)
	}
	ls, ok := w.Stack("root")
	if !ok {
		t.Fatalf("no root stack")
	}
	p, err := primidx.ParsePath("/A")
	if err != nil {
		t.Fatalf("parsing path: %v", err)
	}

	res := primidx.ComputePrimIndex(ls, p, primidx.Options{Store: w.Store, Resolver: w})
	if len(res.AllErrors) != 0 {
		t.Fatalf("unexpected errors: %v", res.AllErrors)
	}
	if res.Graph == nil {
		t.Fatalf("want a non-nil graph")
	}
	if len(res.Graph.Root().Children) != 1 {
		t.Fatalf("want 1 child, got %d", len(res.Graph.Root().Children))
	}
	if got := res.Graph.Root().Children[0].ArcType; got != primidx.ReferenceArc {
		t.Fatalf("want a Reference arc, got %s", got)
	}
}

func TestParsePathRejectsMalformed(t *testing.T) {
	if _, err := primidx.ParsePath("not-a-path"); err == nil {
		t.Fatalf("want an error for a malformed path")
	}
}

func TestNewCacheIsNonNil(t *testing.T) {
	c := primidx.NewCache()
	if c == nil {
		t.Fatalf("want a non-nil cache")
	}
}
