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

// Package path implements the namespace path algebra that the prim indexing
// core treats as an external collaborator (spec.md §1, §6). It is a minimal,
// concrete stand-in for the real path library: absolute prim paths, variant
// selections embedded in the path, prefix/ancestor operations, and the
// prefix-replacement used to translate a path across a recursive build-frame
// boundary (spec.md §9).
package path

import (
	"fmt"
	"strings"
)

// elemKind distinguishes a plain namespace child from a variant selection
// appended to the path of the prim that owns the variant set.
type elemKind uint8

const (
	elemPrim elemKind = iota
	elemVariant
)

type elem struct {
	kind elemKind

	// valid when kind == elemPrim.
	name string

	// valid when kind == elemVariant.
	vset string
	vsel string
}

func (e elem) String() string {
	if e.kind == elemVariant {
		return fmt.Sprintf("{%s=%s}", e.vset, e.vsel)
	}
	return e.name
}

// Path is an absolute path below the pseudo-root. The zero value is the
// absolute root path, "/".
type Path struct {
	elems []elem
}

// Root is the absolute root path.
var Root = Path{}

// IsRoot reports whether p is the absolute root path.
func (p Path) IsRoot() bool { return len(p.elems) == 0 }

// IsAbsoluteRootPath is an alias for IsRoot, named to match spec.md's
// "absolute root path" terminology used for unresolved default targets.
func (p Path) IsAbsoluteRootPath() bool { return p.IsRoot() }

// AppendChild returns the path of the namespace child named name.
func (p Path) AppendChild(name string) Path {
	out := make([]elem, len(p.elems), len(p.elems)+1)
	copy(out, p.elems)
	out = append(out, elem{kind: elemPrim, name: name})
	return Path{elems: out}
}

// AppendVariantSelection returns the path with a variant selection for vset
// appended. It is legal to append a variant selection to a path that already
// ends in a variant selection (nested variant sets).
func (p Path) AppendVariantSelection(vset, vsel string) Path {
	out := make([]elem, len(p.elems), len(p.elems)+1)
	copy(out, p.elems)
	out = append(out, elem{kind: elemVariant, vset: vset, vsel: vsel})
	return Path{elems: out}
}

// IsPrimPath reports whether p names a prim with no trailing variant
// selection (root counts as a prim path).
func (p Path) IsPrimPath() bool {
	if len(p.elems) == 0 {
		return true
	}
	return p.elems[len(p.elems)-1].kind == elemPrim
}

// IsRootPrimPath reports whether p names a prim with exactly one namespace
// element below the absolute root, e.g. "/Foo" but not "/Foo/Bar" (spec.md
// §4.3 Class-Arc Adder: "include_ancestral_opinions := ... AND
// !is_root_prim_path").
func (p Path) IsRootPrimPath() bool {
	return p.NonVariantElementCount() == 1
}

// IsPrimVariantSelectionPath reports whether p's final element is a variant
// selection.
func (p Path) IsPrimVariantSelectionPath() bool {
	if len(p.elems) == 0 {
		return false
	}
	return p.elems[len(p.elems)-1].kind == elemVariant
}

// ContainsPrimVariantSelection reports whether any element of p, not only
// the last, is a variant selection.
func (p Path) ContainsPrimVariantSelection() bool {
	for _, e := range p.elems {
		if e.kind == elemVariant {
			return true
		}
	}
	return false
}

// ParentPath returns the path of p's namespace parent. It returns (Root,
// false) if p is already the root.
func (p Path) ParentPath() (Path, bool) {
	if len(p.elems) == 0 {
		return Root, false
	}
	return Path{elems: p.elems[:len(p.elems)-1]}, true
}

// StripAllVariantSelections removes every variant-selection element,
// leaving only the plain namespace path. Used to preserve embedded variant
// selections across a map-function application that only understands plain
// prim paths (spec.md §4.3 Class-Arc Adder).
func (p Path) StripAllVariantSelections() Path {
	out := make([]elem, 0, len(p.elems))
	for _, e := range p.elems {
		if e.kind == elemPrim {
			out = append(out, e)
		}
	}
	return Path{elems: out}
}

// NonVariantElementCount returns the number of plain namespace-child
// elements in p, ignoring variant-selection elements: those are stored as
// path components but don't represent an additional level of namespace
// (spec.md §4.1 Arc, capacity errors).
func (p Path) NonVariantElementCount() int {
	n := 0
	for _, e := range p.elems {
		if e.kind == elemPrim {
			n++
		}
	}
	return n
}

// VariantSelections returns the ordered list of (set, selection) pairs
// embedded in p.
func (p Path) VariantSelections() []struct{ Set, Selection string } {
	var out []struct{ Set, Selection string }
	for _, e := range p.elems {
		if e.kind == elemVariant {
			out = append(out, struct{ Set, Selection string }{e.vset, e.vsel})
		}
	}
	return out
}

// GetVariantSelection returns the most recently appended selection for vset,
// if any.
func (p Path) GetVariantSelection(vset string) (string, bool) {
	for i := len(p.elems) - 1; i >= 0; i-- {
		if e := p.elems[i]; e.kind == elemVariant && e.vset == vset {
			return e.vsel, true
		}
	}
	return "", false
}

// Equal reports whether p and q name the same path.
func (p Path) Equal(q Path) bool {
	if len(p.elems) != len(q.elems) {
		return false
	}
	for i := range p.elems {
		if p.elems[i] != q.elems[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is an ancestor of, or equal to, p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix.elems) > len(p.elems) {
		return false
	}
	for i, e := range prefix.elems {
		if p.elems[i] != e {
			return false
		}
	}
	return true
}

// IsAncestorOf reports whether p is a proper namespace ancestor of q.
func (p Path) IsAncestorOf(q Path) bool {
	return len(p.elems) < len(q.elems) && q.HasPrefix(p)
}

// EitherIsPrefixOfOther reports whether a is a prefix of b or b is a prefix
// of a, ignoring variant-selection elements (spec.md §3 invariant 3 exempts
// variants from the namespace-cycle check).
func EitherIsPrefixOfOther(a, b Path) bool {
	a, b = a.StripAllVariantSelections(), b.StripAllVariantSelections()
	return a.HasPrefix(b) || b.HasPrefix(a)
}

// ReplacePrefix rewrites p by replacing a leading oldPrefix with newPrefix.
// It is used to translate a site's path across a recursive build-frame
// boundary (spec.md §9: "rewrite the site's path by prefix-replacement").
// It reports false if p does not have oldPrefix as a prefix.
func ReplacePrefix(p, oldPrefix, newPrefix Path) (Path, bool) {
	if !p.HasPrefix(oldPrefix) {
		return Path{}, false
	}
	suffix := p.elems[len(oldPrefix.elems):]
	out := make([]elem, 0, len(newPrefix.elems)+len(suffix))
	out = append(out, newPrefix.elems...)
	out = append(out, suffix...)
	return Path{elems: out}, true
}

// String renders p using "/" namespace separators and "{set=sel}" variant
// selection syntax, e.g. "/Model{shading=blue}/Geom".
func (p Path) String() string {
	if len(p.elems) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, e := range p.elems {
		if e.kind == elemPrim {
			b.WriteByte('/')
			b.WriteString(e.name)
		} else {
			b.WriteString(e.String())
		}
	}
	return b.String()
}

// Parse parses the "/A/B{set=sel}/C" syntax used by test fixtures and the
// demo CLI's layer-stack files. It is not part of the collaborator boundary
// contract; it exists only so tests and cmd/primidx don't need to build
// Path values element by element.
func Parse(s string) (Path, error) {
	if s == "" || s == "/" {
		return Root, nil
	}
	if s[0] != '/' {
		return Path{}, fmt.Errorf("path: %q is not absolute", s)
	}
	p := Root
	for _, tok := range strings.Split(s[1:], "/") {
		if tok == "" {
			return Path{}, fmt.Errorf("path: %q has an empty component", s)
		}
		name, sels, err := splitVariants(tok)
		if err != nil {
			return Path{}, fmt.Errorf("path: %q: %w", s, err)
		}
		if name != "" {
			p = p.AppendChild(name)
		}
		for _, sel := range sels {
			p = p.AppendVariantSelection(sel[0], sel[1])
		}
	}
	return p, nil
}

// splitVariants splits "Name{set1=sel1}{set2=sel2}" into the plain name and
// an ordered list of (set, sel) pairs.
func splitVariants(tok string) (string, [][2]string, error) {
	i := strings.IndexByte(tok, '{')
	if i < 0 {
		return tok, nil, nil
	}
	name, rest := tok[:i], tok[i:]
	var sels [][2]string
	for len(rest) > 0 {
		if rest[0] != '{' {
			return "", nil, fmt.Errorf("malformed variant selection near %q", rest)
		}
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			return "", nil, fmt.Errorf("unterminated variant selection in %q", tok)
		}
		body := rest[1:end]
		eq := strings.IndexByte(body, '=')
		if eq < 0 {
			return "", nil, fmt.Errorf("malformed variant selection %q", body)
		}
		sels = append(sels, [2]string{body[:eq], body[eq+1:]})
		rest = rest[end+1:]
	}
	return name, sels, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// literal fixtures only.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}
