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

package path_test

import (
	"testing"

	"github.com/expenses/primidx/internal/core/path"
)

func TestParseAndString(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"/", "/"},
		{"/A", "/A"},
		{"/A/B/C", "/A/B/C"},
		{"/Model{shading=blue}", "/Model{shading=blue}"},
		{"/Model{shading=blue}/Geom", "/Model{shading=blue}/Geom"},
		{"/Model{shading=blue}{material=wood}", "/Model{shading=blue}{material=wood}"},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			p, err := path.Parse(tc.in)
			if err != nil {
				t.Fatal(err)
			}
			if got := p.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"A/B", "/A//B", "/A{set}", "/A{set=sel"} {
		if _, err := path.Parse(in); err == nil {
			t.Errorf("Parse(%q): want error, got nil", in)
		}
	}
}

func TestHasPrefix(t *testing.T) {
	a := path.MustParse("/A/B")
	testCases := []struct {
		prefix string
		want   bool
	}{
		{"/", true},
		{"/A", true},
		{"/A/B", true},
		{"/A/B/C", false},
		{"/X", false},
	}
	for _, tc := range testCases {
		if got := a.HasPrefix(path.MustParse(tc.prefix)); got != tc.want {
			t.Errorf("HasPrefix(%q) = %v, want %v", tc.prefix, got, tc.want)
		}
	}
}

func TestEitherIsPrefixOfOtherExemptsVariants(t *testing.T) {
	a := path.MustParse("/A{set=x}")
	b := path.MustParse("/A/B")
	if !path.EitherIsPrefixOfOther(path.MustParse("/A"), b) {
		t.Errorf("expected /A to be a prefix of /A/B")
	}
	// A variant selection on /A does not change the underlying namespace
	// prefix relationship with /A/B once stripped.
	if !path.EitherIsPrefixOfOther(a, b) {
		t.Errorf("expected variant-stripped /A to remain a prefix of /A/B")
	}
}

func TestReplacePrefix(t *testing.T) {
	p := path.MustParse("/A/B/C")
	got, ok := path.ReplacePrefix(p, path.MustParse("/A"), path.MustParse("/X/Y"))
	if !ok {
		t.Fatal("ReplacePrefix reported no match")
	}
	if want := "/X/Y/B/C"; got.String() != want {
		t.Errorf("ReplacePrefix = %q, want %q", got.String(), want)
	}
	if _, ok := path.ReplacePrefix(p, path.MustParse("/Z"), path.Root); ok {
		t.Errorf("expected no match for unrelated prefix")
	}
}

func TestVariantSelectionRoundTrip(t *testing.T) {
	p := path.Root.AppendChild("Model").AppendVariantSelection("shading", "blue")
	if !p.IsPrimVariantSelectionPath() {
		t.Errorf("expected variant selection path")
	}
	if p.IsPrimPath() {
		t.Errorf("did not expect a plain prim path")
	}
	sel, ok := p.GetVariantSelection("shading")
	if !ok || sel != "blue" {
		t.Errorf("GetVariantSelection = (%q, %v), want (blue, true)", sel, ok)
	}
	stripped := p.StripAllVariantSelections()
	if want := "/Model"; stripped.String() != want {
		t.Errorf("StripAllVariantSelections = %q, want %q", stripped.String(), want)
	}
}

func TestParentPath(t *testing.T) {
	p := path.MustParse("/A/B")
	parent, ok := p.ParentPath()
	if !ok || parent.String() != "/A" {
		t.Errorf("ParentPath = (%q, %v), want (/A, true)", parent.String(), ok)
	}
	root, ok := path.Root.ParentPath()
	if ok {
		t.Errorf("ParentPath of root should report false, got %q", root.String())
	}
}
