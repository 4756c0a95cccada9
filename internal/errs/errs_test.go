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

package errs_test

import (
	"testing"

	"github.com/expenses/primidx/internal/core/path"
	"github.com/expenses/primidx/internal/errs"
)

func TestListDedupesCapacityErrors(t *testing.T) {
	var l errs.List
	root := errs.Site{Path: path.MustParse("/A")}
	l.Add(errs.Capacity(errs.IndexCapacityExceeded, root))
	l.Add(errs.Capacity(errs.IndexCapacityExceeded, root))
	l.Add(errs.Capacity(errs.ArcCapacityExceeded, root))
	if got := l.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
}

func TestListKeepsNonCapacityDuplicates(t *testing.T) {
	var l errs.List
	root := errs.Site{Path: path.MustParse("/A")}
	l.Add(errs.Unresolved(root, "reference", "layer.l"))
	l.Add(errs.Unresolved(root, "reference", "layer.l"))
	if got := l.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2 (non-capacity errors are not deduplicated)", got)
	}
}

func TestCycleMessageOrder(t *testing.T) {
	root := errs.Site{Path: path.MustParse("/A")}
	chain := []errs.Site{
		{Path: path.MustParse("/A")},
		{Path: path.MustParse("/B")},
		{Path: path.MustParse("/A")},
	}
	e := errs.Cycle(root, chain)
	if e.Kind != errs.ArcCycle {
		t.Errorf("Kind = %v, want ArcCycle", e.Kind)
	}
	if len(e.CycleChain) != 3 {
		t.Errorf("CycleChain length = %d, want 3", len(e.CycleChain))
	}
}
