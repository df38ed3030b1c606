// Package evaluator implements the bottom-up tree-walking executor
// (§4.L): given a planner.Arena and a root node index, it materializes a
// resulttable.ResultTable by recursively evaluating each operator's
// children first, exactly like the teacher's Volcano-style
// createIterator type switch in internal/sparql/executor/executor.go —
// generalized from pull-based binding iterators to eagerly materialized
// row tables, since this engine's sort-merge joins need their inputs
// fully sorted and randomly addressable rather than a one-pass stream.
package evaluator

import (
	"sort"

	"github.com/brightlinq/qplan/internal/ids"
	"github.com/brightlinq/qplan/internal/index"
	"github.com/brightlinq/qplan/internal/planner"
	"github.com/brightlinq/qplan/internal/qerrors"
	"github.com/brightlinq/qplan/internal/resulttable"
	"github.com/brightlinq/qplan/internal/scan"
)

// Evaluator walks an execution tree and reads scans from idx.
type Evaluator struct {
	idx *index.Index
}

// New returns an Evaluator reading scans from idx.
func New(idx *index.Index) *Evaluator {
	return &Evaluator{idx: idx}
}

// Eval materializes the subtree rooted at root within arena.
func (e *Evaluator) Eval(arena *planner.Arena, root int) (*resulttable.ResultTable, error) {
	n := arena.Get(root)
	trace(3, "eval node %d: %T", root, n)
	switch n := n.(type) {
	case planner.Scan:
		return e.evalScan(n)
	case planner.Sort:
		return e.evalSort(arena, n)
	case planner.Join:
		return e.evalJoin(arena, n)
	case planner.Filter:
		return e.evalFilter(arena, n)
	case planner.OrderBy:
		return e.evalOrderBy(arena, n)
	case planner.Distinct:
		return e.evalDistinct(arena, n)
	default:
		return nil, qerrors.Internalf("unsupported operator node %T", n)
	}
}

func (e *Evaluator) evalScan(n planner.Scan) (*resulttable.ResultTable, error) {
	switch n.Variant {
	case scan.POSBoundO:
		subjects, err := e.idx.ScanPOSBoundO(n.Pred, n.BoundTerm)
		if err != nil {
			return nil, err
		}
		tbl := resulttable.New(1)
		for _, s := range subjects {
			tbl.AppendRow([]ids.Id{s})
		}
		tbl.SortedBy = 0
		return tbl, nil
	case scan.PSOBoundS:
		objects, err := e.idx.ScanPSOBoundS(n.Pred, n.BoundTerm)
		if err != nil {
			return nil, err
		}
		tbl := resulttable.New(1)
		for _, o := range objects {
			tbl.AppendRow([]ids.Id{o})
		}
		tbl.SortedBy = 0
		return tbl, nil
	case scan.PSOFreeS:
		subjects, objects, err := e.idx.ScanPSOFreeS(n.Pred)
		if err != nil {
			return nil, err
		}
		tbl := resulttable.New(2)
		for i := range subjects {
			tbl.AppendRow([]ids.Id{subjects[i], objects[i]})
		}
		tbl.SortedBy = 0
		return tbl, nil
	case scan.POSFreeO:
		objects, subjects, err := e.idx.ScanPOSFreeO(n.Pred)
		if err != nil {
			return nil, err
		}
		tbl := resulttable.New(2)
		for i := range objects {
			tbl.AppendRow([]ids.Id{objects[i], subjects[i]})
		}
		tbl.SortedBy = 0
		return tbl, nil
	default:
		return nil, qerrors.Internalf("unknown scan variant %v", n.Variant)
	}
}

func (e *Evaluator) evalSort(arena *planner.Arena, n planner.Sort) (*resulttable.ResultTable, error) {
	child, err := e.Eval(arena, n.Child)
	if err != nil {
		return nil, err
	}
	rows := child.Rows()
	sort.SliceStable(rows, func(i, j int) bool { return rows[i][n.Col] < rows[j][n.Col] })
	return tableFromRows(rows, child.NofColumns, n.Col), nil
}

func (e *Evaluator) evalJoin(arena *planner.Arena, n planner.Join) (*resulttable.ResultTable, error) {
	left, err := e.Eval(arena, n.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.Eval(arena, n.Right)
	if err != nil {
		return nil, err
	}

	leftRows := left.Rows()
	rightRows := right.Rows()
	outWidth := left.NofColumns + right.NofColumns - 1
	out := resulttable.New(outWidth)

	// Sort-merge join: both inputs are sorted ascending on their join
	// column by construction (the planner never emits a Join whose
	// children aren't pre-sorted).
	i, j := 0, 0
	for i < len(leftRows) && j < len(rightRows) {
		lv, rv := leftRows[i][n.LeftCol], rightRows[j][n.RightCol]
		switch {
		case lv < rv:
			i++
		case lv > rv:
			j++
		default:
			// Scan the full run of equal keys on both sides (classic
			// sort-merge join with duplicate keys).
			iEnd := i
			for iEnd < len(leftRows) && leftRows[iEnd][n.LeftCol] == lv {
				iEnd++
			}
			jEnd := j
			for jEnd < len(rightRows) && rightRows[jEnd][n.RightCol] == rv {
				jEnd++
			}
			for a := i; a < iEnd; a++ {
				for b := j; b < jEnd; b++ {
					out.AppendRow(joinRow(leftRows[a], rightRows[b], n.RightCol))
				}
			}
			i, j = iEnd, jEnd
		}
	}
	out.SortedBy = n.LeftCol
	trace(2, "join: %d left rows x %d right rows -> %d rows", len(leftRows), len(rightRows), out.Len())
	return out, nil
}

func joinRow(left, right []ids.Id, rightJoinCol int) []ids.Id {
	row := make([]ids.Id, 0, len(left)+len(right)-1)
	row = append(row, left...)
	for c, v := range right {
		if c == rightJoinCol {
			continue
		}
		row = append(row, v)
	}
	return row
}

func (e *Evaluator) evalFilter(arena *planner.Arena, n planner.Filter) (*resulttable.ResultTable, error) {
	child, err := e.Eval(arena, n.Child)
	if err != nil {
		return nil, err
	}
	out := resulttable.New(child.NofColumns)
	for i := 0; i < child.Len(); i++ {
		row := child.Row(i)
		if compareOK(row[n.LhsCol], row[n.RhsCol], n.Op) {
			out.AppendRow(row)
		}
	}
	out.SortedBy = child.SortedBy
	return out, nil
}

func compareOK(a, b ids.Id, op planner.CompareOp) bool {
	switch op {
	case planner.OpEQ:
		return a == b
	case planner.OpNE:
		return a != b
	case planner.OpLT:
		return a < b
	case planner.OpLE:
		return a <= b
	case planner.OpGT:
		return a > b
	case planner.OpGE:
		return a >= b
	default:
		return false
	}
}

func (e *Evaluator) evalOrderBy(arena *planner.Arena, n planner.OrderBy) (*resulttable.ResultTable, error) {
	child, err := e.Eval(arena, n.Child)
	if err != nil {
		return nil, err
	}
	rows := child.Rows()
	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range n.Keys {
			a, b := rows[i][k.Col], rows[j][k.Col]
			if a == b {
				continue
			}
			if k.Descending {
				return a > b
			}
			return a < b
		}
		return false
	})
	// resulttable's unsorted marker is "SortedBy == NofColumns", distinct
	// from planner.Unsorted's sentinel (-1) used in the plan shape itself.
	return tableFromRows(rows, child.NofColumns, child.NofColumns), nil
}

func (e *Evaluator) evalDistinct(arena *planner.Arena, n planner.Distinct) (*resulttable.ResultTable, error) {
	child, err := e.Eval(arena, n.Child)
	if err != nil {
		return nil, err
	}
	out := resulttable.New(len(n.Cols))
	seen := make(map[string]bool)
	for i := 0; i < child.Len(); i++ {
		row := child.Row(i)
		projected := make([]ids.Id, len(n.Cols))
		for k, c := range n.Cols {
			projected[k] = row[c]
		}
		key := rowKey(projected)
		if seen[key] {
			continue
		}
		seen[key] = true
		out.AppendRow(projected)
	}
	return out, nil
}

func rowKey(row []ids.Id) string {
	b := make([]byte, 0, len(row)*9)
	for _, v := range row {
		for s := 56; s >= 0; s -= 8 {
			b = append(b, byte(v>>uint(s)))
		}
		b = append(b, ';')
	}
	return string(b)
}

func tableFromRows(rows [][]ids.Id, nofColumns, sortedBy int) *resulttable.ResultTable {
	tbl := resulttable.New(nofColumns)
	for _, r := range rows {
		tbl.AppendRow(r)
	}
	tbl.SortedBy = sortedBy
	return tbl
}
