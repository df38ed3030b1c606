// Package planner implements the dynamic-programming join planner: triple
// graph construction and text-context splitting, seed scan generation,
// bottom-up DP enumeration, plan merging with sort-merge joins, filter
// pushing, and the order-by/distinct capper.
//
// Operators are a tagged sum type (an interface with an unexported marker
// method per variant) whose instances live in a per-query Arena and
// reference each other by index rather than by pointer, so that plans are
// cheap to clone and cyclic references are impossible by construction.
package planner

import (
	"github.com/brightlinq/qplan/internal/ids"
	"github.com/brightlinq/qplan/internal/scan"
)

// ScanVariant re-exports scan.Variant so callers within this package can
// write the shorter, spec-matching name.
type ScanVariant = scan.Variant

const (
	POSBoundO = scan.POSBoundO
	PSOBoundS = scan.PSOBoundS
	PSOFreeS  = scan.PSOFreeS
	POSFreeO  = scan.POSFreeO
)

// Unsorted marks a plan's sortedBy column as "no single column holds a
// sort guarantee" (spec's sortedBy == MAX).
const Unsorted = -1

// OperatorNode is the sum type of execution-tree operators. Variants
// implement it with an unexported marker method; consumers dispatch on a
// node fetched with Arena.Get via a type switch, matching the teacher's
// optimizer.QueryPlan pattern.
type OperatorNode interface {
	op()
}

// Scan is a leaf index scan. BoundTerm holds the single bound position's
// term id (predicate is always bound; Subject/Object bound is implied by
// Variant). Width is 1 for the *_BOUND_* variants and 2 for the *_FREE_*
// variants.
type Scan struct {
	Variant   ScanVariant
	Pred      ids.Id
	BoundTerm ids.Id // meaningful only for *_BOUND_* variants
	Width     int
	Size      int64
}

func (Scan) op() {}

// Sort wraps Child with a single-column sort on Col.
type Sort struct {
	Child int
	Col   int
}

func (Sort) op() {}

// Join is a sort-merge join of two children, each already sorted on its
// join column (LeftCol / RightCol respectively).
type Join struct {
	Left, Right       int
	LeftCol, RightCol int
}

func (Join) op() {}

// Filter applies a binary comparison between two of Child's columns.
type Filter struct {
	Child    int
	LhsCol   int
	RhsCol   int
	Op       CompareOp
}

func (Filter) op() {}

// CompareOp mirrors query.CompareOp; redeclared here so the planner
// package has no import-cycle dependency surprises and can be read
// standalone against the spec's operator definitions.
type CompareOp int

const (
	OpEQ CompareOp = iota
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE
)

// OrderKey is one (column, descending) pair of a multi-key OrderBy.
type OrderKey struct {
	Col        int
	Descending bool
}

// OrderBy sorts Child by a sequence of (column, descending) keys. Its
// sortedBy is always Unsorted: ordering by more than one column, or
// descending, is not representable by the single-column sort marker.
type OrderBy struct {
	Child int
	Keys  []OrderKey
}

func (OrderBy) op() {}

// Distinct projects Child down to Cols and removes duplicate rows.
type Distinct struct {
	Child int
	Cols  []int
}

func (Distinct) op() {}

// Arena owns every operator node created while planning one query. Plans
// reference nodes by index so cloning a SubtreePlan is O(1) and no node
// is ever mutated after it is appended.
type Arena struct {
	nodes []OperatorNode
}

// NewArena returns an empty arena.
func NewArena() *Arena { return &Arena{} }

// Add appends a node and returns its index.
func (a *Arena) Add(n OperatorNode) int {
	a.nodes = append(a.nodes, n)
	return len(a.nodes) - 1
}

// Get returns the node at index i.
func (a *Arena) Get(i int) OperatorNode { return a.nodes[i] }

// Len returns the number of nodes currently in the arena.
func (a *Arena) Len() int { return len(a.nodes) }

// SubtreePlan is the immutable execution-plan record of §3: a root node
// in a shared Arena, the triple-node ids it covers, the filter ids
// already applied, a variable→column map, the sorted column (or
// Unsorted), the context variables reachable from the root, and a
// size/cost estimate pair.
type SubtreePlan struct {
	Arena    *Arena
	Root     int
	Nodes    []int // sorted, ascending, triple-node ids covered
	Filters  map[int]bool
	VarCol   map[string]int
	SortedBy int
	CtxVars  map[string]bool
	Width    int
	Size     int64
	Cost     float64
}

// CoversNode reports whether n is in the plan's covered node set.
func (p *SubtreePlan) CoversNode(n int) bool {
	for _, id := range p.Nodes {
		if id == n {
			return true
		}
	}
	return false
}

// cloneFilters returns a shallow copy of the applied-filter set so that
// wrapping a plan never mutates the plan it was built from.
func cloneFilters(in map[int]bool) map[int]bool {
	out := make(map[int]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneVarCol(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// mergeNodeIds returns the ascending-sorted disjoint union of a and b. It
// is the caller's responsibility to ensure a and b are already disjoint
// (Connected/Disjointness checks in the merger).
func mergeNodeIds(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
