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

import "github.com/expenses/primidx/internal/core/graph"

// Frame is one ephemeral cross-frame stack entry, pushed while the builder
// recursively builds a subgraph for an ancestral or reference/payload site
// (spec.md §9 "Cross-frame graph traversal"). It lets cycle checks and
// duplicate-node checks see through parent graphs that are still under
// construction in an enclosing call.
type Frame struct {
	RequestedSite graph.Site
	ParentNode    *graph.Node
	ArcToParent   graph.ArcType
	Previous      *Frame

	SkipDuplicateNodes bool
}

// ancestorSites walks f's ParentNode chain, yielding sites outward from
// ParentNode to its graph's root, used by the duplicate-node check that
// needs to see through an enclosing frame boundary.
func (f *Frame) ancestorSites() []graph.Site {
	var out []graph.Site
	for n := f.ParentNode; n != nil; n = n.Parent {
		out = append(out, n.Site)
	}
	return out
}
