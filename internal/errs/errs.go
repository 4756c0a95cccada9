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

// Package errs implements the prim-index error taxonomy (spec.md §6, §7):
// a closed set of error shapes, each carrying a root site plus kind-specific
// fields, collected into a list rather than raised as control flow. This
// mirrors cue/errors.List in the teacher repo — errors are values appended
// to an accumulator so a caller always gets a complete result plus a
// complete diagnostic list, never a partial build aborted by the first
// problem (spec.md §7: "No error terminates the build").
package errs

import (
	"fmt"
	"strings"

	"github.com/expenses/primidx/internal/core/path"
)

// Site names the (layer stack, path) pair an error is anchored to. The
// layer stack is carried as its opaque Identifier rather than a pointer so
// errors remain comparable and printable without pulling in layerstack.
type Site struct {
	LayerStack string
	Path       path.Path
}

func (s Site) String() string {
	if s.LayerStack == "" {
		return s.Path.String()
	}
	return fmt.Sprintf("%s@%s", s.Path, s.LayerStack)
}

// Kind identifies one error shape from spec.md §6's taxonomy.
type Kind int

const (
	ArcCycle Kind = iota
	ArcPermissionDenied
	InvalidPrimPath
	InvalidAssetPath
	InvalidReferenceOffset
	MutedAssetPath
	UnresolvedPrimPath
	OpinionAtRelocationSource
	PrimPermissionDeniedKind
	IndexCapacityExceeded
	ArcCapacityExceeded
	ArcNamespaceDepthCapacityExceeded
)

func (k Kind) String() string {
	switch k {
	case ArcCycle:
		return "ArcCycle"
	case ArcPermissionDenied:
		return "ArcPermissionDenied"
	case InvalidPrimPath:
		return "InvalidPrimPath"
	case InvalidAssetPath:
		return "InvalidAssetPath"
	case InvalidReferenceOffset:
		return "InvalidReferenceOffset"
	case MutedAssetPath:
		return "MutedAssetPath"
	case UnresolvedPrimPath:
		return "UnresolvedPrimPath"
	case OpinionAtRelocationSource:
		return "OpinionAtRelocationSource"
	case PrimPermissionDeniedKind:
		return "PrimPermissionDenied"
	case IndexCapacityExceeded:
		return "IndexCapacityExceeded"
	case ArcCapacityExceeded:
		return "ArcCapacityExceeded"
	case ArcNamespaceDepthCapacityExceeded:
		return "ArcNamespaceDepthCapacityExceeded"
	default:
		return "UnknownError"
	}
}

// Error is one diagnostic. Only the fields relevant to Kind are populated;
// see the Newf-style constructors below for which fields each kind sets.
type Error struct {
	Kind Kind
	Root Site

	// ArcCycle
	CycleChain []Site

	// ArcPermissionDenied / PrimPermissionDenied
	Site        Site
	ParentSite  Site
	PrivateSite Site

	// InvalidAssetPath / InvalidPrimPath / InvalidReferenceOffset /
	// MutedAssetPath / UnresolvedPrimPath
	Layer             string
	AssetPath         string
	ResolvedAssetPath string
	TargetPath        path.Path
	ArcType           string
	SourceLayer       string

	// OpinionAtRelocationSource
	RelocationSource path.Path

	msg string
}

func (e *Error) Error() string {
	if e.msg != "" {
		return fmt.Sprintf("%s: %s (at %s)", e.Kind, e.msg, e.Root)
	}
	return fmt.Sprintf("%s (at %s)", e.Kind, e.Root)
}

// RootSite satisfies the implicit "carries a root site" contract all errors in
// this package share, per spec.md §7.
func (e *Error) RootSite() Site { return e.Root }

// Cycle builds an ArcCycle error. chain runs root-to-leaf, per spec.md §8
// S2's expected shape.
func Cycle(root Site, chain []Site) *Error {
	return &Error{Kind: ArcCycle, Root: root, CycleChain: chain, msg: cycleMsg(chain)}
}

func cycleMsg(chain []Site) string {
	parts := make([]string, len(chain))
	for i, s := range chain {
		parts[i] = s.Path.String()
	}
	return "cycle: " + strings.Join(parts, " -> ")
}

// PermissionDeniedAtArc builds an ArcPermissionDenied error for a private
// arc target discovered while adding an arc (spec.md §4.3 step 8).
func PermissionDeniedAtArc(root, site, parentSite, privateSite Site) *Error {
	return &Error{
		Kind: ArcPermissionDenied, Root: root,
		Site: site, ParentSite: parentSite, PrivateSite: privateSite,
		msg: fmt.Sprintf("%s is private", privateSite),
	}
}

// PrimPermissionDenied builds the post-pass error filed against the
// strongest spec contributed below a private gate (spec.md §7).
func PrimPermissionDenied(root, site, privateSite Site) *Error {
	return &Error{
		Kind: PrimPermissionDeniedKind, Root: root,
		Site: site, PrivateSite: privateSite,
		msg: fmt.Sprintf("%s is blocked by private node %s", site, privateSite),
	}
}

// InvalidTargetPrimPath builds an InvalidPrimPath error for an authored
// reference/payload/inherit/specialize target that fails validation
// (spec.md §4.4 step 1, and class-based arc validation).
func InvalidTargetPrimPath(root Site, arcType string, target path.Path, reason string) *Error {
	return &Error{
		Kind: InvalidPrimPath, Root: root, ArcType: arcType, TargetPath: target,
		msg: reason,
	}
}

// InvalidOffset builds an InvalidReferenceOffset error (spec.md §4.4 step 2).
func InvalidOffset(root Site, arcType string) *Error {
	return &Error{Kind: InvalidReferenceOffset, Root: root, ArcType: arcType,
		msg: "layer offset is not finite and invertible"}
}

// Muted builds a MutedAssetPath error (spec.md §4.4 step 3).
func Muted(root Site, layer, assetPath string) *Error {
	return &Error{Kind: MutedAssetPath, Root: root, Layer: layer, AssetPath: assetPath,
		msg: fmt.Sprintf("asset %q is muted", assetPath)}
}

// InvalidAsset builds an InvalidAssetPath error (spec.md §4.4 step 3).
func InvalidAsset(root Site, layer, assetPath, resolved string) *Error {
	return &Error{Kind: InvalidAssetPath, Root: root, Layer: layer,
		AssetPath: assetPath, ResolvedAssetPath: resolved,
		msg: fmt.Sprintf("could not open asset %q", assetPath)}
}

// Unresolved builds an UnresolvedPrimPath error (spec.md §4.4 steps 4, 7).
func Unresolved(root Site, arcType, sourceLayer string) *Error {
	return &Error{Kind: UnresolvedPrimPath, Root: root, ArcType: arcType, SourceLayer: sourceLayer,
		msg: "no prim path could be resolved"}
}

// OpinionAtRelocation builds an OpinionAtRelocationSource error (spec.md
// §4.4, relocations: "any non-empty site emits OpinionAtRelocationSource").
func OpinionAtRelocation(root Site, source path.Path) *Error {
	return &Error{Kind: OpinionAtRelocationSource, Root: root, RelocationSource: source,
		msg: fmt.Sprintf("opinions authored at relocation source %s", source)}
}

// Capacity builds one of the three capacity-exceeded errors.
func Capacity(kind Kind, root Site) *Error {
	return &Error{Kind: kind, Root: root, msg: "capacity exceeded"}
}

// List accumulates errors in discovery order (spec.md §6 "all_errors, in
// discovery order"), deduplicating the three capacity kinds so each is
// reported at most once per build (spec.md §7).
type List struct {
	errs        []*Error
	capacitySeen map[Kind]bool
}

func (l *List) Add(e *Error) {
	switch e.Kind {
	case IndexCapacityExceeded, ArcCapacityExceeded, ArcNamespaceDepthCapacityExceeded:
		if l.capacitySeen == nil {
			l.capacitySeen = map[Kind]bool{}
		}
		if l.capacitySeen[e.Kind] {
			return
		}
		l.capacitySeen[e.Kind] = true
	}
	l.errs = append(l.errs, e)
}

// Errors returns the accumulated errors in discovery order.
func (l *List) Errors() []*Error { return l.errs }

// Len reports the number of accumulated errors.
func (l *List) Len() int { return len(l.errs) }
