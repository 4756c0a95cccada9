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

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/expenses/primidx"
)

// writeTree prints g as an indented strong-to-weak listing: one line per
// node, arc type and any of inert/culled/restricted/has-specs annotated.
func writeTree(w io.Writer, g *primidx.Graph) {
	if g == nil {
		return
	}
	var depth func(n *primidx.Node) int
	depth = func(n *primidx.Node) int {
		d := 0
		for p := n.Parent; p != nil; p = p.Parent {
			d++
		}
		return d
	}
	g.Root().WalkStrongToWeak(func(n *primidx.Node) bool {
		fmt.Fprintf(w, "%s%s %s%s\n",
			strings.Repeat("  ", depth(n)),
			n.Site.String(), arcLabel(n.ArcType), flagLabel(n))
		return true
	})
}

func arcLabel(t primidx.ArcType) string {
	if t == primidx.RootArc {
		return ""
	}
	return "[" + t.String() + "]"
}

func flagLabel(n *primidx.Node) string {
	var flags []string
	if n.Inert {
		flags = append(flags, "inert")
	}
	if n.Culled {
		flags = append(flags, "culled")
	}
	if n.Restricted {
		flags = append(flags, "restricted")
	}
	if n.HasSpecs {
		flags = append(flags, "has-specs")
	}
	if len(flags) == 0 {
		return ""
	}
	return " (" + strings.Join(flags, ",") + ")"
}

// writeDot prints g as a Graphviz dot digraph, one edge per arc labelled
// with its arc type.
func writeDot(w io.Writer, g *primidx.Graph) {
	fmt.Fprintln(w, "digraph primidx {")
	if g != nil {
		g.Root().WalkStrongToWeak(func(n *primidx.Node) bool {
			fmt.Fprintf(w, "  %q [label=%q];\n", nodeID(n), n.Site.String())
			if n.Parent != nil {
				fmt.Fprintf(w, "  %q -> %q [label=%q];\n", nodeID(n.Parent), nodeID(n), n.ArcType.String())
			}
			return true
		})
	}
	fmt.Fprintln(w, "}")
}

func nodeID(n *primidx.Node) string {
	return fmt.Sprintf("n%d", n.Index)
}
