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

// Package mapfunc implements the map expression collaborator (spec.md §1,
// §9 "Map expressions"): a lazily-composed, immutable function from paths in
// one namespace to paths in another, carrying an accompanying layer time
// offset. It is modeled as an expression tree — compose and inverse build a
// new node wrapping their operands rather than eagerly flattening — with
// memoized evaluation of the properties the index builder actually queries
// (constant-identity, composed time offset).
package mapfunc

import (
	"fmt"
	"math"
	"sync"

	"github.com/expenses/primidx/internal/core/path"
)

// Offset is an affine time reparameterization: Apply(t) = Scale*t + Shift.
type Offset struct {
	Scale float64
	Shift float64
}

// IdentityOffset is the no-op time offset.
var IdentityOffset = Offset{Scale: 1}

// IsIdentity reports whether o leaves time unchanged.
func (o Offset) IsIdentity() bool { return o.Scale == 1 && o.Shift == 0 }

// IsValid reports whether o is finite and invertible, per spec.md §4.4's
// reference-offset validation step.
func (o Offset) IsValid() bool {
	return !math.IsNaN(o.Scale) && !math.IsInf(o.Scale, 0) &&
		!math.IsNaN(o.Shift) && !math.IsInf(o.Shift, 0) &&
		o.Scale != 0
}

// Inverse returns the offset that undoes o.
func (o Offset) Inverse() Offset {
	return Offset{Scale: 1 / o.Scale, Shift: -o.Shift / o.Scale}
}

// Compose returns the offset equivalent to applying inner then o: the result
// of o.Compose(inner).Apply(t) == o.Apply(inner.Apply(t)).
func (o Offset) Compose(inner Offset) Offset {
	return Offset{Scale: o.Scale * inner.Scale, Shift: o.Scale*inner.Shift + o.Shift}
}

// Apply applies the time reparameterization to t.
func (o Offset) Apply(t float64) float64 { return o.Scale*t + o.Shift }

// ScaleBySamplesPerSecond rescales o by the ratio of the source layer's time
// codes per second to the destination's, per spec.md §4.4 step 3.
func ScaleBySamplesPerSecond(o Offset, sourceTCPS, destTCPS float64) Offset {
	if sourceTCPS == 0 || destTCPS == 0 {
		return o
	}
	ratio := sourceTCPS / destTCPS
	return Offset{Scale: o.Scale * ratio, Shift: o.Shift}
}

type opKind uint8

const (
	opIdentity opKind = iota
	opLeaf
	opCompose
	opInverse
	opWithRootIdentity
)

// Expression is an immutable node in a map-expression tree. The zero value
// is not valid; use Identity, New, Compose, Inverse, and AddRootIdentity.
type Expression struct {
	op     opKind
	a, b   *Expression // b unused except for opCompose
	source path.Path
	target path.Path
	offset Offset

	once        sync.Once
	constIdent  bool
	flatOffset  Offset
}

// Identity is the map expression that leaves every path and every time
// value unchanged.
var Identity = &Expression{op: opIdentity}

// New returns the leaf map expression translating the subtree rooted at
// source to the subtree rooted at target, with the given time offset.
func New(source, target path.Path, offset Offset) *Expression {
	return &Expression{op: opLeaf, source: source, target: target, offset: offset}
}

// Compose returns the expression equivalent to applying inner and then f:
// f.Compose(inner).MapSourceToTarget(p) == f.MapSourceToTarget(inner.MapSourceToTarget(p)).
func (f *Expression) Compose(inner *Expression) *Expression {
	if f.op == opIdentity {
		return inner
	}
	if inner.op == opIdentity {
		return f
	}
	return &Expression{op: opCompose, a: f, b: inner}
}

// Inverse returns the expression mapping in the opposite direction.
func (f *Expression) Inverse() *Expression {
	if f.op == opInverse {
		return f.a
	}
	if f.op == opIdentity {
		return f
	}
	return &Expression{op: opInverse, a: f}
}

// AddRootIdentity returns f augmented so that the absolute root path maps to
// itself in addition to whatever f already maps, used by internal
// references and class arcs (spec.md §4.4 step 5, §4.4 class-based arcs).
func (f *Expression) AddRootIdentity() *Expression {
	if f.op == opIdentity || f.op == opWithRootIdentity {
		return f
	}
	return &Expression{op: opWithRootIdentity, a: f}
}

// IsConstantIdentity reports whether f maps every path to itself and leaves
// time unchanged, memoized per node since the tree is immutable.
func (f *Expression) IsConstantIdentity() bool {
	f.once.Do(f.evaluate)
	return f.constIdent
}

// TimeOffset returns the composed time offset carried by f.
func (f *Expression) TimeOffset() Offset {
	f.once.Do(f.evaluate)
	return f.flatOffset
}

func (f *Expression) evaluate() {
	switch f.op {
	case opIdentity:
		f.constIdent = true
		f.flatOffset = IdentityOffset
	case opLeaf:
		f.constIdent = f.source.Equal(f.target) && f.offset.IsIdentity()
		f.flatOffset = f.offset
	case opWithRootIdentity:
		f.constIdent = f.a.IsConstantIdentity()
		f.flatOffset = f.a.TimeOffset()
	case opInverse:
		f.constIdent = f.a.IsConstantIdentity()
		f.flatOffset = f.a.TimeOffset().Inverse()
	case opCompose:
		f.constIdent = f.a.IsConstantIdentity() && f.b.IsConstantIdentity()
		f.flatOffset = f.a.TimeOffset().Compose(f.b.TimeOffset())
	}
}

// MapSourceToTarget maps p from the source namespace to the target
// namespace. ok is false if p is not in f's domain.
func (f *Expression) MapSourceToTarget(p path.Path) (path.Path, bool) {
	switch f.op {
	case opIdentity:
		return p, true
	case opLeaf:
		return path.ReplacePrefix(p, f.source, f.target)
	case opWithRootIdentity:
		if q, ok := f.a.MapSourceToTarget(p); ok {
			return q, true
		}
		if p.IsRoot() {
			return path.Root, true
		}
		return path.Path{}, false
	case opInverse:
		return f.a.MapTargetToSource(p)
	case opCompose:
		q, ok := f.b.MapSourceToTarget(p)
		if !ok {
			return path.Path{}, false
		}
		return f.a.MapSourceToTarget(q)
	}
	return path.Path{}, false
}

// MapTargetToSource is the inverse direction of MapSourceToTarget.
func (f *Expression) MapTargetToSource(p path.Path) (path.Path, bool) {
	switch f.op {
	case opIdentity:
		return p, true
	case opLeaf:
		return path.ReplacePrefix(p, f.target, f.source)
	case opWithRootIdentity:
		if q, ok := f.a.MapTargetToSource(p); ok {
			return q, true
		}
		if p.IsRoot() {
			return path.Root, true
		}
		return path.Path{}, false
	case opInverse:
		return f.a.MapSourceToTarget(p)
	case opCompose:
		q, ok := f.a.MapTargetToSource(p)
		if !ok {
			return path.Path{}, false
		}
		return f.b.MapTargetToSource(q)
	}
	return path.Path{}, false
}

// Equal reports whether f and g represent the same mapping. Expressions are
// immutable trees built fresh by compose/inverse, so equality is structural
// rather than pointer identity; this is what lets the implied-class
// propagation (spec.md §4.4) recognize "the parent already has a child
// whose map_to_parent evaluates equal" without needing a canonical form.
func (f *Expression) Equal(g *Expression) bool {
	if f == g {
		return true
	}
	if f.op != g.op {
		return false
	}
	switch f.op {
	case opIdentity:
		return true
	case opLeaf:
		return f.source.Equal(g.source) && f.target.Equal(g.target) && f.offset == g.offset
	case opWithRootIdentity, opInverse:
		return f.a.Equal(g.a)
	case opCompose:
		return f.a.Equal(g.a) && f.b.Equal(g.b)
	}
	return false
}

// String renders a debug form of the expression tree, e.g. for logging.
func (f *Expression) String() string {
	switch f.op {
	case opIdentity:
		return "identity"
	case opLeaf:
		return fmt.Sprintf("[%s->%s]", f.source, f.target)
	case opWithRootIdentity:
		return fmt.Sprintf("rootIdentity(%s)", f.a)
	case opInverse:
		return fmt.Sprintf("inverse(%s)", f.a)
	case opCompose:
		return fmt.Sprintf("(%s ∘ %s)", f.a, f.b)
	}
	return "invalid"
}
