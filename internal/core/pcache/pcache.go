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

// Package pcache implements the ancestral prim-index memoization cache
// (spec.md §5, §6 "cache", "parent_index"): a concurrency-safe store the
// builder consults before recursively building a parent path's index from
// scratch. Grounded on the reader-writer-lock-guarded map pattern spec.md §5
// calls out for the included-payloads set, applied here to the cache itself
// since spec.md §5 says the same thing about it: "may be invoked
// concurrently from multiple builders."
package pcache

import (
	"sync"

	"github.com/expenses/primidx/internal/core/layerstack"
	"github.com/expenses/primidx/internal/core/path"
	"github.com/expenses/primidx/internal/core/index"
)

type entry struct {
	inputs index.Inputs
	idx    *index.PrimIndex
}

// Cache is a concurrency-safe memoization table keyed by (layer stack
// identity, path), holding one entry per distinct Inputs equivalence class
// seen for that key (spec.md §6: "Equivalence for cache reuse considers
// variant_fallbacks, included_payloads, cull only").
type Cache struct {
	mu      sync.RWMutex
	entries map[string][]entry
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{entries: map[string][]entry{}}
}

func key(ls *layerstack.LayerStack, p path.Path) string {
	id := ""
	if ls != nil {
		id = ls.Identifier()
	}
	return id + "|" + p.String()
}

// GetPrimIndex implements index.Cache.
func (c *Cache) GetPrimIndex(ls *layerstack.LayerStack, p path.Path, inputs index.Inputs) (*index.PrimIndex, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries[key(ls, p)] {
		if e.inputs.EquivalentForCache(inputs) {
			return e.idx, true
		}
	}
	return nil, false
}

// Put records idx as the cached result for (ls, p, inputs), replacing any
// existing equivalence-class entry for the same key.
func (c *Cache) Put(ls *layerstack.LayerStack, p path.Path, inputs index.Inputs, idx *index.PrimIndex) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key(ls, p)
	existing := c.entries[k]
	for i, e := range existing {
		if e.inputs.EquivalentForCache(inputs) {
			existing[i] = entry{inputs, idx}
			return
		}
	}
	c.entries[k] = append(existing, entry{inputs, idx})
}

// Invalidate drops every cached entry for (ls, p), used when a caller knows
// the underlying layer content at that site changed.
func (c *Cache) Invalidate(ls *layerstack.LayerStack, p path.Path) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key(ls, p))
}
