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
	"github.com/expenses/primidx/internal/errs"
)

// enforcePermissions implements spec.md §4's invariant 6 and §4.6 step 13:
// walking strong-to-weak, the first Private node encountered becomes the
// permission gate; every weaker node that directly contributes specs gets
// marked restricted and files a PrimPermissionDenied error.
func (b *Builder) enforcePermissions(g *graph.Graph) {
	var gate *graph.Node
	g.Root().WalkStrongToWeak(func(n *graph.Node) bool {
		if n.Inert {
			return true
		}
		if gate == nil {
			if n.Permission == spec.Private {
				gate = n
			}
			return true
		}
		if n.DirectContributesSpecs && n.HasSpecs {
			n.Restricted = true
			b.errors.Add(errs.PrimPermissionDenied(b.errSite(b.rootSite), b.errSite(n.Site), b.errSite(gate.Site)))
		}
		return true
	})
}

// rescanPrimSpecs implements spec.md §4.6 step 13's final "rescan for prim
// specs": recompute has_specs for every node against the finished graph so
// nodes whose contributions were later culled, inerted, or restricted are
// not counted.
func (b *Builder) rescanPrimSpecs(g *graph.Graph) {
	for _, n := range g.Nodes() {
		if n.Inert || n.Culled || n.Restricted || !n.DirectContributesSpecs {
			n.HasSpecs = false
			continue
		}
		n.HasSpecs = hasSpecsAt(b.inputs.Store, n.Site)
	}
}
