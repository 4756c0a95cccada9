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
	"container/heap"

	"github.com/expenses/primidx/internal/core/graph"
)

// TaskKind is one eval-task variant (spec.md §4.2), declared in priority
// order strongest-first: lower kindRank pops before higher.
type TaskKind int

const (
	EvalNodeRelocations TaskKind = iota
	EvalImpliedRelocations
	EvalNodeReferences
	EvalNodePayload
	EvalNodeInherits
	EvalImpliedClasses
	EvalNodeSpecializes
	EvalImpliedSpecializes
	EvalNodeVariantSets
	EvalNodeVariantAuthored
	EvalNodeVariantFallback
	EvalNodeVariantNoneFound
)

func (k TaskKind) String() string {
	names := [...]string{
		"EvalNodeRelocations", "EvalImpliedRelocations", "EvalNodeReferences",
		"EvalNodePayload", "EvalNodeInherits", "EvalImpliedClasses",
		"EvalNodeSpecializes", "EvalImpliedSpecializes", "EvalNodeVariantSets",
		"EvalNodeVariantAuthored", "EvalNodeVariantFallback", "EvalNodeVariantNoneFound",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// dedupes reports whether tasks of this kind are deduplicated on insertion
// (spec.md §4.2: "Tasks of kinds EvalImpliedClasses and EvalImpliedSpecializes
// must be deduplicated on insertion").
func (k TaskKind) dedupes() bool {
	return k == EvalImpliedClasses || k == EvalImpliedSpecializes
}

// Task is one unit of work the builder drains from the queue.
type Task struct {
	Kind           TaskKind
	Node           *graph.Node
	VariantSetName string
	VariantNum     int

	index int // heap bookkeeping, maintained by container/heap.
}

type dedupKey struct {
	kind TaskKind
	node *graph.Node
}

// Queue is the max-heap task scheduler of spec.md §4.2.
type Queue struct {
	h     taskHeap
	dedup map[dedupKey]bool
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{dedup: map[dedupKey]bool{}}
}

// Push enqueues t, silently dropping it if its kind dedupes and an
// equivalent task is already queued.
func (q *Queue) Push(t *Task) {
	if t.Kind.dedupes() {
		k := dedupKey{t.Kind, t.Node}
		if q.dedup[k] {
			return
		}
		q.dedup[k] = true
	}
	heap.Push(&q.h, t)
}

// Pop removes and returns the highest-priority task, or nil if the queue is
// empty.
func (q *Queue) Pop() *Task {
	if q.h.Len() == 0 {
		return nil
	}
	t := heap.Pop(&q.h).(*Task)
	if t.Kind.dedupes() {
		delete(q.dedup, dedupKey{t.Kind, t.Node})
	}
	return t
}

// Len reports the number of queued tasks.
func (q *Queue) Len() int { return q.h.Len() }

// RetryVariantTasks mutates every queued EvalNodeVariantFallback and
// EvalNodeVariantNoneFound task into EvalNodeVariantAuthored in place and
// re-establishes the heap property (spec.md §4.2).
func (q *Queue) RetryVariantTasks() {
	changed := false
	for _, t := range q.h {
		if t.Kind == EvalNodeVariantFallback || t.Kind == EvalNodeVariantNoneFound {
			t.Kind = EvalNodeVariantAuthored
			changed = true
		}
	}
	if changed {
		heap.Init(&q.h)
	}
}

func kindRank(k TaskKind) int { return int(k) }

type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if ra, rb := kindRank(a.Kind), kindRank(b.Kind); ra != rb {
		return ra < rb
	}
	switch a.Kind {
	case EvalNodePayload, EvalNodeVariantAuthored, EvalNodeVariantFallback:
		// Node strength, stronger first. Arena index is used as an
		// approximation of strength order: the builder
		// inserts siblings in strength order at each step, so comparing
		// insertion index agrees with true strong-to-weak rank for every
		// pair of tasks actually compared here.
		if a.Node.Index != b.Node.Index {
			return a.Node.Index < b.Node.Index
		}
		return a.VariantNum < b.VariantNum
	case EvalImpliedClasses:
		// Descendant nodes before ancestor nodes: higher arena index pops
		// first (spec.md §4.2, §9 "Implied-class ancestor ordering").
		return a.Node.Index > b.Node.Index
	default:
		return a.Node.Index < b.Node.Index
	}
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*Task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
