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

package mapfunc_test

import (
	"testing"

	"github.com/expenses/primidx/internal/core/mapfunc"
	"github.com/expenses/primidx/internal/core/path"
)

func TestIdentity(t *testing.T) {
	if !mapfunc.Identity.IsConstantIdentity() {
		t.Fatal("Identity should be constant identity")
	}
	p := path.MustParse("/A/B")
	got, ok := mapfunc.Identity.MapSourceToTarget(p)
	if !ok || !got.Equal(p) {
		t.Errorf("MapSourceToTarget(%v) = (%v, %v), want (%v, true)", p, got, ok, p)
	}
}

func TestLeafMapping(t *testing.T) {
	f := mapfunc.New(path.MustParse("/M"), path.MustParse("/R"), mapfunc.IdentityOffset)
	got, ok := f.MapSourceToTarget(path.MustParse("/M/C"))
	if !ok || got.String() != "/R/C" {
		t.Fatalf("MapSourceToTarget = (%v, %v), want (/R/C, true)", got, ok)
	}
	back, ok := f.MapTargetToSource(got)
	if !ok || !back.Equal(path.MustParse("/M/C")) {
		t.Fatalf("MapTargetToSource = (%v, %v), want (/M/C, true)", back, ok)
	}
	if _, ok := f.MapSourceToTarget(path.MustParse("/Other")); ok {
		t.Errorf("expected /Other to be outside the domain of %v", f)
	}
}

func TestInverse(t *testing.T) {
	f := mapfunc.New(path.MustParse("/M"), path.MustParse("/R"), mapfunc.IdentityOffset)
	inv := f.Inverse()
	got, ok := inv.MapSourceToTarget(path.MustParse("/R/C"))
	if !ok || got.String() != "/M/C" {
		t.Fatalf("inverse MapSourceToTarget = (%v, %v), want (/M/C, true)", got, ok)
	}
}

func TestComposeOrder(t *testing.T) {
	// outer maps /R -> /Q, inner maps /M -> /R. Composing outer∘inner should
	// map /M/x -> /Q/x by first applying inner then outer.
	inner := mapfunc.New(path.MustParse("/M"), path.MustParse("/R"), mapfunc.IdentityOffset)
	outer := mapfunc.New(path.MustParse("/R"), path.MustParse("/Q"), mapfunc.IdentityOffset)
	composed := outer.Compose(inner)
	got, ok := composed.MapSourceToTarget(path.MustParse("/M/x"))
	if !ok || got.String() != "/Q/x" {
		t.Fatalf("composed.MapSourceToTarget = (%v, %v), want (/Q/x, true)", got, ok)
	}
}

func TestAddRootIdentity(t *testing.T) {
	f := mapfunc.New(path.MustParse("/M"), path.MustParse("/R"), mapfunc.IdentityOffset).AddRootIdentity()
	got, ok := f.MapSourceToTarget(path.Root)
	if !ok || !got.IsRoot() {
		t.Fatalf("expected root to map to root, got (%v, %v)", got, ok)
	}
	got, ok = f.MapSourceToTarget(path.MustParse("/M/C"))
	if !ok || got.String() != "/R/C" {
		t.Fatalf("expected /M/C to map to /R/C, got (%v, %v)", got, ok)
	}
}

func TestEqual(t *testing.T) {
	a := mapfunc.New(path.MustParse("/M"), path.MustParse("/R"), mapfunc.IdentityOffset)
	b := mapfunc.New(path.MustParse("/M"), path.MustParse("/R"), mapfunc.IdentityOffset)
	c := mapfunc.New(path.MustParse("/M"), path.MustParse("/Q"), mapfunc.IdentityOffset)
	if !a.Equal(b) {
		t.Errorf("expected structurally identical leaves to be Equal")
	}
	if a.Equal(c) {
		t.Errorf("expected different targets to not be Equal")
	}
}

func TestOffsetComposeAndInverse(t *testing.T) {
	o := mapfunc.Offset{Scale: 2, Shift: 1}
	inv := o.Inverse()
	if got := inv.Apply(o.Apply(5)); got != 5 {
		t.Errorf("Inverse().Apply(Apply(5)) = %v, want 5", got)
	}
	if !mapfunc.IdentityOffset.IsValid() {
		t.Errorf("identity offset should be valid")
	}
	bad := mapfunc.Offset{Scale: 0, Shift: 0}
	if bad.IsValid() {
		t.Errorf("zero-scale offset should be invalid")
	}
}
