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

// Package graph implements the Node Graph component (spec.md §4.1): the
// arena-backed DAG of composition-arc contributions that the index builder
// mutates while it drains its task queue. Nodes are owned by a single
// append-only arena per graph; a grafted subgraph is merged by appending its
// nodes and rewiring parent/origin pointers (spec.md §9 "Node ownership").
package graph

import (
	"errors"

	"github.com/expenses/primidx/internal/core/layerstack"
	"github.com/expenses/primidx/internal/core/mapfunc"
	"github.com/expenses/primidx/internal/core/path"
	"github.com/expenses/primidx/internal/core/spec"
)

// ArcType is the kind of composition arc that introduced a node (spec.md §3).
type ArcType int

const (
	Root ArcType = iota
	Reference
	Payload
	Inherit
	Specialize
	Variant
	Relocate
)

func (t ArcType) String() string {
	switch t {
	case Root:
		return "Root"
	case Reference:
		return "Reference"
	case Payload:
		return "Payload"
	case Inherit:
		return "Inherit"
	case Specialize:
		return "Specialize"
	case Variant:
		return "Variant"
	case Relocate:
		return "Relocate"
	default:
		return "Unknown"
	}
}

// IsClassBased reports whether t is Inherit or Specialize, the two arc
// kinds that implied-class propagation (spec.md §4.3, §4.4) treats alike.
func (t ArcType) IsClassBased() bool { return t == Inherit || t == Specialize }

// Site is a (layer stack, path) pair, the composition address a node
// represents (spec.md §3).
type Site struct {
	LayerStack *layerstack.LayerStack
	Path       path.Path
}

func (s Site) Equal(o Site) bool {
	return s.LayerStack.Equal(o.LayerStack) && s.Path.Equal(o.Path)
}

func (s Site) String() string {
	id := ""
	if s.LayerStack != nil {
		id = s.LayerStack.Identifier()
	}
	if id == "" {
		return s.Path.String()
	}
	return s.Path.String() + "@" + id
}

// Node is a vertex of the prim index (spec.md §3).
type Node struct {
	Index int // arena assignment order; defines the "<" relation of spec.md §3.
	Graph *Graph

	ArcType     ArcType
	Site        Site
	Parent      *Node // nil only for the root node.
	Origin      *Node // the node itself for the root and for arcs added without an origin; the parent for direct class-based arcs; the propagated node for implied arcs.
	MapToParent *mapfunc.Expression

	SiblingNumAtOrigin     int
	NamespaceDepth         int
	DepthBelowIntroduction int

	Children []*Node

	Inert           bool
	Culled          bool
	HasSpecs        bool
	HasSymmetry     bool
	Restricted      bool
	Permission      spec.Permission
	IsDueToAncestor bool

	// DirectContributesSpecs records whether this node was inserted with
	// direct_contributes_specs=true (spec.md §4.3), independent of whether
	// it HasSpecs; used by the salted-earth rule and by culling.
	DirectContributesSpecs bool
}

// IsRoot reports whether n is its graph's root node.
func (n *Node) IsRoot() bool { return n.Parent == nil }

// Ancestors yields n's parent chain, starting with n's parent, ending at
// (and including) the root.
func (n *Node) Ancestors() []*Node {
	var out []*Node
	for p := n.Parent; p != nil; p = p.Parent {
		out = append(out, p)
	}
	return out
}

// WalkStrongToWeak visits n and its subtree in strong-to-weak order: a
// preorder depth-first traversal with children visited in insertion order
// (spec.md §3 Graph: "supports strong-to-weak traversal (depth-first,
// children in insertion order)"). visit returning false stops the walk
// early and WalkStrongToWeak returns false.
func (n *Node) WalkStrongToWeak(visit func(*Node) bool) bool {
	if !visit(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.WalkStrongToWeak(visit) {
			return false
		}
	}
	return true
}

// Graph capacity limits (spec.md §4.1).
type Limits struct {
	MaxNodes          int
	MaxArcsPerNode     int
	MaxNamespaceDepth int
}

// DefaultLimits returns generous limits suitable for tests and the demo
// CLI; production embedders should size these to their own budget.
func DefaultLimits() Limits {
	return Limits{MaxNodes: 1 << 16, MaxArcsPerNode: 1 << 12, MaxNamespaceDepth: 1 << 12}
}

// Sentinel errors returned by InsertChild/GraftSubgraph, one per spec.md
// §4.1 capacity error.
var (
	ErrIndexCapacityExceeded          = errors.New("graph: index capacity exceeded")
	ErrArcCapacityExceeded            = errors.New("graph: arc capacity exceeded")
	ErrArcNamespaceDepthCapacityExceeded = errors.New("graph: arc namespace depth capacity exceeded")
	ErrAlreadyFinalized               = errors.New("graph: graph is already finalized")
)

// Graph owns a single append-only arena of nodes (spec.md §3 Graph,
// PrimIndex).
type Graph struct {
	nodes      []*Node
	limits     Limits
	finalized  bool

	hasPayloads    bool
	isInstanceable bool
}

// New creates a single-node graph whose root sits at rootSite.
func New(rootSite Site, limits Limits) *Graph {
	g := &Graph{limits: limits}
	root := &Node{
		Index:                  0,
		Graph:                  g,
		ArcType:                Root,
		Site:                   rootSite,
		MapToParent:            mapfunc.Identity,
		DirectContributesSpecs: true,
	}
	root.Origin = root
	g.nodes = append(g.nodes, root)
	return g
}

// Root returns the graph's root node.
func (g *Graph) Root() *Node { return g.nodes[0] }

// NumNodes reports how many nodes the graph's arena holds.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// Node returns the node at arena index idx.
func (g *Graph) Node(idx int) *Node { return g.nodes[idx] }

// Nodes returns every node in assignment order. Callers must not mutate the
// returned slice.
func (g *Graph) Nodes() []*Node { return g.nodes }

// HasPayloads reports whether any reachable node was introduced by a
// Payload arc (spec.md §3 invariant 4). Valid after Finalize, but also
// maintained incrementally so callers mid-build can query it.
func (g *Graph) HasPayloads() bool { return g.hasPayloads }

// SetHasPayloads overrides the has_payloads flag; used by the builder
// driver when resetting ancestor-inherited state for a freshly appended
// namespace child (spec.md §4.6 step 7: "these belong to the prim itself,
// not ancestors").
func (g *Graph) SetHasPayloads(v bool) { g.hasPayloads = v }

// IsInstanceable reports the graph's instanceable flag.
func (g *Graph) IsInstanceable() bool { return g.isInstanceable }

// SetInstanceable sets the graph's instanceable flag.
func (g *Graph) SetInstanceable(v bool) { g.isInstanceable = v }

func (g *Graph) checkCapacity(parent *Node, namespaceDepth int) error {
	if len(g.nodes) >= g.limits.MaxNodes {
		return ErrIndexCapacityExceeded
	}
	if len(parent.Children) >= g.limits.MaxArcsPerNode {
		return ErrArcCapacityExceeded
	}
	if namespaceDepth > g.limits.MaxNamespaceDepth {
		return ErrArcNamespaceDepthCapacityExceeded
	}
	return nil
}

// Arc carries the data needed to insert one child node (spec.md §3 Arc).
type Arc struct {
	Type        ArcType
	MapToParent *mapfunc.Expression
	// Origin is nil for a direct arc (origin becomes the new node itself)
	// or a node already present in the destination graph for an implied
	// arc (spec.md §3: "origin may equal parent ... or an earlier node").
	Origin                 *Node
	NamespaceDepth         int
	SiblingNum             int
	DepthBelowIntroduction int
}

// InsertChild inserts a single new child node under parent (spec.md §4.1).
func (g *Graph) InsertChild(parent *Node, arc Arc, site Site) (*Node, error) {
	if g.finalized {
		return nil, ErrAlreadyFinalized
	}
	if err := g.checkCapacity(parent, arc.NamespaceDepth); err != nil {
		return nil, err
	}
	n := &Node{
		Index:                  len(g.nodes),
		Graph:                  g,
		ArcType:                arc.Type,
		Site:                   site,
		Parent:                 parent,
		MapToParent:            arc.MapToParent,
		SiblingNumAtOrigin:     arc.SiblingNum,
		NamespaceDepth:         arc.NamespaceDepth,
		DepthBelowIntroduction: arc.DepthBelowIntroduction,
	}
	if arc.Origin != nil {
		n.Origin = arc.Origin
	} else {
		n.Origin = n
	}
	g.nodes = append(g.nodes, n)
	parent.Children = append(parent.Children, n)
	if arc.Type == Payload {
		g.hasPayloads = true
	}
	return n, nil
}

// GraftSubgraph appends every node of sub into g (renumbering arena
// indices) and attaches sub's former root as a new child of parent,
// carrying the given arc's metadata instead of sub root's own (which was
// just ArcType Root from the nested recursive build). This implements
// spec.md §4.3 step 4 ("recursively build a subgraph ... then graft that
// subgraph as a child") and §4.1's "insert an entire subgraph as a child".
func (g *Graph) GraftSubgraph(parent *Node, arc Arc, site Site, sub *Graph) (*Node, error) {
	if g.finalized {
		return nil, ErrAlreadyFinalized
	}
	if err := g.checkCapacity(parent, arc.NamespaceDepth); err != nil {
		return nil, err
	}
	if len(g.nodes)+len(sub.nodes) > g.limits.MaxNodes {
		return nil, ErrIndexCapacityExceeded
	}

	old2new := make(map[*Node]*Node, len(sub.nodes))
	offset := len(g.nodes)

	for i, old := range sub.nodes {
		cp := &Node{
			Index:                  offset + i,
			Graph:                  g,
			ArcType:                old.ArcType,
			Site:                   old.Site,
			SiblingNumAtOrigin:     old.SiblingNumAtOrigin,
			NamespaceDepth:         old.NamespaceDepth,
			DepthBelowIntroduction: old.DepthBelowIntroduction,
			MapToParent:            old.MapToParent,
			Inert:                  old.Inert,
			Culled:                 old.Culled,
			HasSpecs:               old.HasSpecs,
			HasSymmetry:            old.HasSymmetry,
			Restricted:             old.Restricted,
			Permission:             old.Permission,
			IsDueToAncestor:        old.IsDueToAncestor,
			DirectContributesSpecs: old.DirectContributesSpecs,
		}
		old2new[old] = cp
	}
	for _, old := range sub.nodes {
		cp := old2new[old]
		if old.Parent != nil {
			cp.Parent = old2new[old.Parent]
		}
		cp.Origin = old2new[old.Origin]
		for _, oc := range old.Children {
			cp.Children = append(cp.Children, old2new[oc])
		}
	}

	top := old2new[sub.nodes[0]]
	top.Parent = parent
	top.ArcType = arc.Type
	top.MapToParent = arc.MapToParent
	top.Site = site
	top.SiblingNumAtOrigin = arc.SiblingNum
	top.NamespaceDepth = arc.NamespaceDepth
	top.DepthBelowIntroduction = arc.DepthBelowIntroduction
	if arc.Origin != nil {
		top.Origin = arc.Origin
	} else {
		top.Origin = top
	}

	for _, old := range sub.nodes {
		g.nodes = append(g.nodes, old2new[old])
	}
	parent.Children = append(parent.Children, top)
	if sub.hasPayloads {
		g.hasPayloads = true
	}
	return top, nil
}

// FindNode looks up a node by site within the graph, returning the first
// match in assignment order.
func (g *Graph) FindNode(site Site) (*Node, bool) {
	for _, n := range g.nodes {
		if n.Site.Equal(site) {
			return n, true
		}
	}
	return nil, false
}

// NodesOfArcType returns every node of the given arc type, in assignment
// order.
func (g *Graph) NodesOfArcType(t ArcType) []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if n.ArcType == t {
			out = append(out, n)
		}
	}
	return out
}

// StrongToWeak returns every node of the graph in strong-to-weak order.
func (g *Graph) StrongToWeak() []*Node {
	var out []*Node
	g.Root().WalkStrongToWeak(func(n *Node) bool {
		out = append(out, n)
		return true
	})
	return out
}

// Clone returns an independent deep copy of g, used by the builder driver
// when cloning a cached ancestral index (spec.md §4.6 step 4) and by the
// copy-on-write merge described in spec.md §3's Lifecycle.
func (g *Graph) Clone() *Graph {
	cp := &Graph{limits: g.limits, hasPayloads: g.hasPayloads, isInstanceable: g.isInstanceable}
	old2new := make(map[*Node]*Node, len(g.nodes))
	for _, old := range g.nodes {
		n := &Node{
			Index:                  old.Index,
			Graph:                  cp,
			ArcType:                old.ArcType,
			Site:                   old.Site,
			MapToParent:            old.MapToParent,
			SiblingNumAtOrigin:     old.SiblingNumAtOrigin,
			NamespaceDepth:         old.NamespaceDepth,
			DepthBelowIntroduction: old.DepthBelowIntroduction,
			Inert:                  old.Inert,
			Culled:                 old.Culled,
			HasSpecs:               old.HasSpecs,
			HasSymmetry:            old.HasSymmetry,
			Restricted:             old.Restricted,
			Permission:             old.Permission,
			IsDueToAncestor:        old.IsDueToAncestor,
			DirectContributesSpecs: old.DirectContributesSpecs,
		}
		old2new[old] = n
	}
	for _, old := range g.nodes {
		n := old2new[old]
		if old.Parent != nil {
			n.Parent = old2new[old.Parent]
		}
		n.Origin = old2new[old.Origin]
		for _, oc := range old.Children {
			n.Children = append(n.Children, old2new[oc])
		}
		cp.nodes = append(cp.nodes, n)
	}
	return cp
}

// AppendNamespaceChild rewrites every node's site to name its namespace
// child, used right after Clone when the builder driver turns a parent's
// cached prim index into the starting point for the child's (spec.md §4.6
// step 6). Every node also moves one level further below the introduction
// of whatever arc produced it, since the whole graph now represents
// opinions one namespace level deeper than where each arc was added.
func (g *Graph) AppendNamespaceChild(name string) {
	for _, n := range g.nodes {
		n.Site.Path = n.Site.Path.AppendChild(name)
		n.DepthBelowIntroduction++
	}
}

// Finalize freezes the graph and recomputes whether it holds a payload arc;
// no compaction is done. It is only valid to call once (spec.md §3
// Lifecycle, §4.1).
func (g *Graph) Finalize() error {
	if g.finalized {
		return ErrAlreadyFinalized
	}
	g.finalized = true
	g.hasPayloads = false
	for _, n := range g.nodes {
		if n.ArcType == Payload {
			g.hasPayloads = true
			break
		}
	}
	return nil
}

// IsFinalized reports whether Finalize has run.
func (g *Graph) IsFinalized() bool { return g.finalized }
