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
	"github.com/expenses/primidx/internal/core/spec"
)

// ArcsPresent is the result of the preflight field scan: which arc kinds a
// node's composed spec has fields for (spec.md §4.2 Arc Scanner).
type ArcsPresent struct {
	References  bool
	Payloads    bool
	Inherits    bool
	Specializes bool
	VariantSets bool
	Relocations bool
}

// ScanNode composes site's spec once and reports which arc kinds it
// authors, so the task enqueue step (spec.md §4.3 "Task enqueue for a
// node") doesn't need to re-derive the composed spec per arc kind.
func ScanNode(store *spec.Store, site graph.Site) (ArcsPresent, spec.ComposedSpec) {
	var out ArcsPresent
	var cs spec.ComposedSpec
	if store != nil && site.LayerStack != nil {
		cs = spec.ComposeAtSite(store, site.LayerStack, site.Path)
		out.References = len(cs.References) > 0
		out.Payloads = len(cs.Payloads) > 0
		out.Inherits = len(cs.Inherits) > 0
		out.Specializes = len(cs.Specializes) > 0
		out.VariantSets = len(cs.VariantSets) > 0
	}
	if site.LayerStack != nil {
		if len(site.LayerStack.Relocates().ChildSources(site.Path)) > 0 {
			out.Relocations = true
		}
	}
	return out, cs
}
