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

package pcache_test

import (
	"testing"

	"github.com/expenses/primidx/internal/core/index"
	"github.com/expenses/primidx/internal/core/layerstack"
	"github.com/expenses/primidx/internal/core/path"
	"github.com/expenses/primidx/internal/core/pcache"
)

func TestCacheMissThenHit(t *testing.T) {
	c := pcache.New()
	ls := layerstack.New("s", nil, layerstack.NewRelocatesTable(nil), nil)
	p := path.MustParse("/A")
	in := index.Inputs{Cull: true}

	if _, ok := c.GetPrimIndex(ls, p, in); ok {
		t.Fatalf("want a miss on an empty cache")
	}

	idx := &index.PrimIndex{}
	c.Put(ls, p, in, idx)

	got, ok := c.GetPrimIndex(ls, p, in)
	if !ok || got != idx {
		t.Fatalf("want the put entry back, got %v, %v", got, ok)
	}
}

func TestCacheDistinguishesInputs(t *testing.T) {
	c := pcache.New()
	ls := layerstack.New("s", nil, layerstack.NewRelocatesTable(nil), nil)
	p := path.MustParse("/A")

	idxA := &index.PrimIndex{}
	idxB := &index.PrimIndex{}
	c.Put(ls, p, index.Inputs{Cull: false}, idxA)
	c.Put(ls, p, index.Inputs{Cull: true}, idxB)

	got, ok := c.GetPrimIndex(ls, p, index.Inputs{Cull: true})
	if !ok || got != idxB {
		t.Fatalf("want the Cull:true entry, got %v, %v", got, ok)
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := pcache.New()
	ls := layerstack.New("s", nil, layerstack.NewRelocatesTable(nil), nil)
	p := path.MustParse("/A")
	in := index.Inputs{}

	c.Put(ls, p, in, &index.PrimIndex{})
	c.Invalidate(ls, p)

	if _, ok := c.GetPrimIndex(ls, p, in); ok {
		t.Fatalf("want a miss after invalidation")
	}
}
