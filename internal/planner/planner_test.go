package planner

import (
	"testing"

	"github.com/brightlinq/qplan/internal/ids"
	"github.com/brightlinq/qplan/internal/query"
)

type fakeIndex struct{ sizes map[ScanVariant]int64 }

func (f fakeIndex) EstimateScanSize(v ScanVariant, pred ids.Id) int64 {
	if sz, ok := f.sizes[v]; ok {
		return sz
	}
	return 100
}

type fakeResolver struct {
	next ids.Id
	m    map[string]ids.Id
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{m: make(map[string]ids.Id)}
}

func (r *fakeResolver) Resolve(term string) (ids.Id, error) {
	if id, ok := r.m[term]; ok {
		return id, nil
	}
	r.next++
	r.m[term] = r.next
	return r.next, nil
}

// S1: SELECT ?x WHERE {?x :myrel ?y} -> one node, two variables, two
// seeds (PSO_FREE_S, POS_FREE_O), each sorted on its column 0.
func TestS1_TwoVariableSeeds(t *testing.T) {
	q := &query.ParsedQuery{
		Select: []query.SelectExpr{{Variable: "?x"}},
		Where:  []query.TriplePattern{{Subject: "?x", Predicate: ":myrel", Object: "?y"}},
	}
	plan, err := CreateExecutionTree(q, fakeIndex{}, newFakeResolver())
	if err != nil {
		t.Fatalf("CreateExecutionTree: %v", err)
	}
	if len(plan.Nodes) != 1 {
		t.Fatalf("plan covers %d nodes, want 1", len(plan.Nodes))
	}
	if plan.SortedBy != 0 {
		t.Fatalf("SortedBy = %d, want 0 (both seed variants sort on column 0)", plan.SortedBy)
	}
}

// S2-shaped: a two-hop path (?x :p ?y . ?y :p ?z) with a filter whose
// operands are covered only once both triples have been merged; the
// filter must apply exactly once, at that merged row.
func TestS2_FilterAppliedOnceAtMergedRow(t *testing.T) {
	q := &query.ParsedQuery{
		Where: []query.TriplePattern{
			{Subject: "?x", Predicate: ":p", Object: "?y"},
			{Subject: "?y", Predicate: ":p", Object: "?z"},
		},
		Filters: []query.Filter{{Lhs: "?x", Op: query.NE, Rhs: "?z"}},
	}
	arena := NewArena()
	tg := BuildTripleGraph(q.Where)
	idx := fakeIndex{}
	terms := newFakeResolver()

	seedRow, err := BuildSeedRow(arena, []int{0, 1}, tg, idx, terms, q.Filters)
	if err != nil {
		t.Fatalf("BuildSeedRow: %v", err)
	}
	for _, p := range seedRow {
		if len(p.Filters) != 0 {
			t.Fatalf("filter should not be applicable in row 0 (?x and ?z are never both covered by a single triple's seed), got %v", p.Filters)
		}
	}

	dp, err := FillDPTable(arena, tg, seedRow, 2, q.Filters)
	if err != nil {
		t.Fatalf("FillDPTable: %v", err)
	}
	final := dp[len(dp)-1]
	if len(final) == 0 {
		t.Fatalf("final row empty")
	}
	for _, p := range final {
		if !p.Filters[0] {
			t.Fatalf("filter 0 should be applied in the merged row, plan.Filters = %v", p.Filters)
		}
	}
}

// S3: LIMIT is an evaluator concern; the planner's final row for a
// single-triple query is row 0, unchanged by limit/offset.
func TestS3_LimitDoesNotAffectPlanShape(t *testing.T) {
	withLimit := &query.ParsedQuery{
		Where:    []query.TriplePattern{{Subject: "?x", Predicate: ":myrel", Object: "?y"}},
		HasLimit: true,
		Limit:    10,
	}
	withoutLimit := &query.ParsedQuery{
		Where: []query.TriplePattern{{Subject: "?x", Predicate: ":myrel", Object: "?y"}},
	}
	p1, err := CreateExecutionTree(withLimit, fakeIndex{}, newFakeResolver())
	if err != nil {
		t.Fatalf("with limit: %v", err)
	}
	p2, err := CreateExecutionTree(withoutLimit, fakeIndex{}, newFakeResolver())
	if err != nil {
		t.Fatalf("without limit: %v", err)
	}
	if p1.Width != p2.Width || p1.SortedBy != p2.SortedBy {
		t.Fatalf("limit must not change plan shape: %+v vs %+v", p1, p2)
	}
}

// S4: ORDER BY ?y with POS_FREE_O already sorted on ?y should not wrap
// in an extra Sort; DISTINCT must wrap the final plan in a Distinct node.
func TestS4_OrderByAndDistinct(t *testing.T) {
	q := &query.ParsedQuery{
		Select:   []query.SelectExpr{{Variable: "?x"}, {Variable: "?y"}},
		Distinct: true,
		Where:    []query.TriplePattern{{Subject: "?x", Predicate: ":myrel", Object: "?y"}},
		OrderBy:  []query.OrderKey{{Variable: "?y"}},
		HasLimit: true, Limit: 10,
		HasOffset: true, Offset: 15,
	}
	plan, err := CreateExecutionTree(q, fakeIndex{}, newFakeResolver())
	if err != nil {
		t.Fatalf("CreateExecutionTree: %v", err)
	}
	if _, ok := plan.Arena.Get(plan.Root).(Distinct); !ok {
		t.Fatalf("expected a Distinct root, got %T", plan.Arena.Get(plan.Root))
	}
}

// Invariant 1: every Join node's children are sorted on their join
// column.
func TestInvariant_JoinChildrenPreSorted(t *testing.T) {
	q := &query.ParsedQuery{
		Where: []query.TriplePattern{
			{Subject: "?x", Predicate: "<is-a>", Object: "<Actor>"},
			{Subject: "?y", Predicate: "<is-a>", Object: "<Actor>"},
			{Subject: "?x", Predicate: "<knows>", Object: "?y"},
		},
	}
	plan, err := CreateExecutionTree(q, fakeIndex{}, newFakeResolver())
	if err != nil {
		t.Fatalf("CreateExecutionTree: %v", err)
	}
	var walk func(idx int)
	walk = func(idx int) {
		switch n := plan.Arena.Get(idx).(type) {
		case Join:
			leftSorted := sortedByOf(plan.Arena, n.Left)
			rightSorted := sortedByOf(plan.Arena, n.Right)
			if leftSorted != n.LeftCol {
				t.Fatalf("left child sortedBy=%d, want join col %d", leftSorted, n.LeftCol)
			}
			if rightSorted != n.RightCol {
				t.Fatalf("right child sortedBy=%d, want join col %d", rightSorted, n.RightCol)
			}
			walk(n.Left)
			walk(n.Right)
		case Sort:
			walk(n.Child)
		case Filter:
			walk(n.Child)
		case OrderBy:
			walk(n.Child)
		case Distinct:
			walk(n.Child)
		}
	}
	walk(plan.Root)
}

// sortedByOf returns the column a node is sorted on, for invariant
// checking independent of the SubtreePlan that produced it.
func sortedByOf(arena *Arena, idx int) int {
	switch n := arena.Get(idx).(type) {
	case Scan:
		if n.Variant == PSOFreeS || n.Variant == PSOBoundS {
			return 0
		}
		return 0 // all current scan variants sort on column 0
	case Sort:
		return n.Col
	case Join:
		return n.LeftCol
	case Filter:
		return sortedByOf(arena, n.Child)
	default:
		return Unsorted
	}
}

// Invariant 4: pruning keeps at most one plan per (sortVar, coveredNodes)
// key.
func TestInvariant_PruningIsUnique(t *testing.T) {
	q := &query.ParsedQuery{
		Where: []query.TriplePattern{
			{Subject: "?x", Predicate: ":p1", Object: "?y"},
			{Subject: "?y", Predicate: ":p2", Object: "?z"},
		},
	}
	arena := NewArena()
	tg := BuildTripleGraph(q.Where)
	seedRow, err := BuildSeedRow(arena, []int{0, 1}, tg, fakeIndex{}, newFakeResolver(), nil)
	if err != nil {
		t.Fatalf("BuildSeedRow: %v", err)
	}
	dp, err := FillDPTable(arena, tg, seedRow, 2, nil)
	if err != nil {
		t.Fatalf("FillDPTable: %v", err)
	}
	seen := make(map[string]bool)
	for _, p := range dp[len(dp)-1] {
		key := pruningKey(p)
		if seen[key] {
			t.Fatalf("duplicate pruning key %q in final row", key)
		}
		seen[key] = true
	}
}
