package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/brightlinq/qplan/internal/qerrors"
)

// disjoint reports whether two ascending-sorted node-id slices share no
// element.
func disjoint(a, b []int) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			return false
		}
	}
	return true
}

// connected reports whether some node covered by a has a triple-graph
// adjacency edge to a node covered by b. Callers must already know a and
// b are disjoint.
func connected(tg *TripleGraph, a, b *SubtreePlan) bool {
	bSet := make(map[int]bool, len(b.Nodes))
	for _, n := range b.Nodes {
		bSet[n] = true
	}
	for _, n := range a.Nodes {
		for _, adj := range tg.Nodes[n] {
			if bSet[adj] {
				return true
			}
		}
	}
	return false
}

// getJoinColumns intersects a's and b's variable→column maps. Exactly
// one shared variable is supported; zero or two-or-more is rejected by
// the caller as NOT_YET_IMPLEMENTED (multi-column / disconnected joins).
func getJoinColumns(a, b *SubtreePlan) (colA, colB int, shared int) {
	for v, ca := range a.VarCol {
		if cb, ok := b.VarCol[v]; ok {
			shared++
			colA, colB = ca, cb
		}
	}
	return colA, colB, shared
}

func cloneBoolSet(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// presort returns p, unchanged, if already sorted on col; otherwise
// returns a new plan wrapping p in a Sort on col. Invariant (i): a join
// must never consume a child not sorted on its join column.
func presort(arena *Arena, p *SubtreePlan, col int) *SubtreePlan {
	if p.SortedBy == col {
		return p
	}
	root := arena.Add(Sort{Child: p.Root, Col: col})
	return &SubtreePlan{
		Arena:    arena,
		Root:     root,
		Nodes:    p.Nodes,
		Filters:  p.Filters,
		VarCol:   cloneVarCol(p.VarCol),
		SortedBy: col,
		CtxVars:  p.CtxVars,
		Width:    p.Width,
		Size:     p.Size,
		Cost:     sortCost(p.Size, p.Cost),
	}
}

// mergeOne implements the Plan Merger (§4.D) for a single candidate pair.
// Returns (nil, nil) when the pair is skipped (not disjoint, or not
// connected); a non-nil error for a join shape this engine does not
// support (zero or multiple join columns).
func mergeOne(arena *Arena, tg *TripleGraph, a, b *SubtreePlan) (*SubtreePlan, error) {
	if !disjoint(a.Nodes, b.Nodes) {
		return nil, nil
	}
	if !connected(tg, a, b) {
		return nil, nil
	}
	colA, colB, shared := getJoinColumns(a, b)
	if shared != 1 {
		return nil, qerrors.NotYetImpl("join between node sets %v and %v needs exactly 1 shared variable, found %d", a.Nodes, b.Nodes, shared)
	}

	left := presort(arena, a, colA)
	right := presort(arena, b, colB)

	joinRoot := arena.Add(Join{Left: left.Root, Right: right.Root, LeftCol: colA, RightCol: colB})

	// Output columns = left's columns in order, then right's columns
	// with the join column removed, re-indexed contiguously (§9's
	// explicit resolution of the source's ambiguous shift).
	varCol := cloneVarCol(left.VarCol)
	rightVarByCol := make([]string, right.Width)
	for v, c := range right.VarCol {
		rightVarByCol[c] = v
	}
	next := left.Width
	for c := 0; c < right.Width; c++ {
		if c == colB {
			continue
		}
		varCol[rightVarByCol[c]] = next
		next++
	}

	size, cost := joinCost(left.Size, right.Size, left.Cost, right.Cost)

	// applied(merge(a,b)) = applied(a) ∪ applied(b): the corrected
	// contract from §9, replacing the source's left-only copy.
	filters := cloneFilters(a.Filters)
	for id := range b.Filters {
		filters[id] = true
	}
	ctxVars := cloneBoolSet(a.CtxVars)
	for v := range b.CtxVars {
		ctxVars[v] = true
	}

	plan := &SubtreePlan{
		Arena: arena,
		Root:  joinRoot,
		Nodes: mergeNodeIds(a.Nodes, b.Nodes),
		Filters: filters,
		VarCol:   varCol,
		SortedBy: colA, // join output order equals the left input's order on the join column (§5)
		CtxVars:  ctxVars,
		Width:    left.Width + right.Width - 1,
		Size:     size,
		Cost:     cost,
	}
	return plan, nil
}

// pruningKey is the equivalence class used to keep a single best plan
// per (sortVar, coveredNodes) pair.
func pruningKey(p *SubtreePlan) string {
	sortVar := ""
	for v, c := range p.VarCol {
		if c == p.SortedBy {
			sortVar = v
			break
		}
	}
	nodes := make([]int, len(p.Nodes))
	copy(nodes, p.Nodes)
	sort.Ints(nodes)
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return sortVar + " " + strings.Join(parts, ",")
}

// prune keeps only the lowest-cost candidate for each pruning key.
func prune(candidates []*SubtreePlan) []*SubtreePlan {
	best := make(map[string]*SubtreePlan)
	order := make([]string, 0, len(candidates))
	for _, c := range candidates {
		key := pruningKey(c)
		if cur, ok := best[key]; !ok {
			best[key] = c
			order = append(order, key)
		} else if c.Cost < cur.Cost {
			best[key] = c
		}
	}
	out := make([]*SubtreePlan, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	return out
}

// Merge builds every valid join of a plan from rowA with a plan from
// rowB, prunes the result by equivalence key, and returns the surviving
// candidates (component D, driven by component C per DP layer).
func Merge(arena *Arena, tg *TripleGraph, rowA, rowB []*SubtreePlan) ([]*SubtreePlan, error) {
	var candidates []*SubtreePlan
	for _, a := range rowA {
		for _, b := range rowB {
			m, err := mergeOne(arena, tg, a, b)
			if err != nil {
				return nil, err
			}
			if m != nil {
				candidates = append(candidates, m)
			}
		}
	}
	return prune(candidates), nil
}
