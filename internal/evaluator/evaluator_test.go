package evaluator

import (
	"path/filepath"
	"testing"

	"github.com/brightlinq/qplan/internal/ids"
	"github.com/brightlinq/qplan/internal/index"
	"github.com/brightlinq/qplan/internal/planner"
	"github.com/brightlinq/qplan/internal/scan"
)

func openTestIndex(t *testing.T) *index.Index {
	t.Helper()
	ix, err := index.Open(filepath.Join(t.TempDir(), "idx"))
	if err != nil {
		t.Fatalf("index.Open: %v", err)
	}
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

func TestEvalScan_PSOFreeS(t *testing.T) {
	ix := openTestIndex(t)
	const pred ids.Id = 7
	if err := ix.PutTriple(1, pred, 10, 1); err != nil {
		t.Fatalf("PutTriple: %v", err)
	}
	if err := ix.PutTriple(2, pred, 20, 1); err != nil {
		t.Fatalf("PutTriple: %v", err)
	}

	arena := planner.NewArena()
	root := arena.Add(planner.Scan{Variant: scan.PSOFreeS, Pred: pred, Width: 2})

	ev := New(ix)
	tbl, err := ev.Eval(arena, root)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tbl.Len())
	}
	if got := tbl.Row(0); got[0] != 1 || got[1] != 10 {
		t.Fatalf("row 0 = %v, want [1 10]", got)
	}
	if got := tbl.Row(1); got[0] != 2 || got[1] != 20 {
		t.Fatalf("row 1 = %v, want [2 20]", got)
	}
	if !tbl.IsSorted() {
		t.Fatalf("expected sorted output")
	}
}

func TestEvalJoin_SortMerge(t *testing.T) {
	ix := openTestIndex(t)
	const p1, p2 ids.Id = 7, 8
	// ?x p1 ?y
	if err := ix.PutTriple(1, p1, 100, 1); err != nil {
		t.Fatalf("PutTriple: %v", err)
	}
	if err := ix.PutTriple(2, p1, 200, 1); err != nil {
		t.Fatalf("PutTriple: %v", err)
	}
	// ?y p2 ?z, sorted on object but scanned with subject bound to ?y via POS_BOUND_O equivalent:
	// use PSO_FREE_S so output is (subject=y, object=z)
	if err := ix.PutTriple(100, p2, 9, 1); err != nil {
		t.Fatalf("PutTriple: %v", err)
	}
	if err := ix.PutTriple(200, p2, 9, 1); err != nil {
		t.Fatalf("PutTriple: %v", err)
	}

	arena := planner.NewArena()
	left := arena.Add(planner.Scan{Variant: scan.PSOFreeS, Pred: p1, Width: 2})  // (x,y) sorted by x
	leftSorted := arena.Add(planner.Sort{Child: left, Col: 1})                  // sort by y
	right := arena.Add(planner.Scan{Variant: scan.PSOFreeS, Pred: p2, Width: 2}) // (y,z) sorted by y
	join := arena.Add(planner.Join{Left: leftSorted, Right: right, LeftCol: 1, RightCol: 0})

	ev := New(ix)
	tbl, err := ev.Eval(arena, join)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tbl.Len())
	}
	// output columns: x, y, z
	row0 := tbl.Row(0)
	if row0[0] != 1 || row0[1] != 100 || row0[2] != 9 {
		t.Fatalf("row 0 = %v, want [1 100 9]", row0)
	}
}

func TestEvalFilterAndDistinct(t *testing.T) {
	ix := openTestIndex(t)
	const pred ids.Id = 7
	if err := ix.PutTriple(1, pred, 10, 1); err != nil {
		t.Fatalf("PutTriple: %v", err)
	}
	if err := ix.PutTriple(1, pred, 20, 1); err != nil {
		t.Fatalf("PutTriple: %v", err)
	}

	arena := planner.NewArena()
	scanNode := arena.Add(planner.Scan{Variant: scan.PSOFreeS, Pred: pred, Width: 2})
	filterNode := arena.Add(planner.Filter{Child: scanNode, LhsCol: 1, RhsCol: 0, Op: planner.OpGT})
	distinctNode := arena.Add(planner.Distinct{Child: filterNode, Cols: []int{0}})

	ev := New(ix)
	tbl, err := ev.Eval(arena, distinctNode)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if tbl.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (both rows' subject is 1, collapsed by distinct)", tbl.Len())
	}
	if tbl.Row(0)[0] != 1 {
		t.Fatalf("row 0 = %v, want [1]", tbl.Row(0))
	}
}
