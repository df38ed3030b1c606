// Package resulttable implements the typed fixed-width row containers
// (widths 1..5) plus a variable-width fallback that the evaluator fills
// while walking an execution plan (§4.H). Modelled after the teacher
// corpus's typed-cell Table (bql/table/table.go): a single exported type
// whose internal storage specialises for locality but whose export is
// uniform regardless of which storage is active.
package resulttable

import "github.com/brightlinq/qplan/internal/ids"

// Status is the table's completion state.
type Status int

const (
	Finished Status = iota
	Other
)

// maxFixedWidth is the largest row width given a specialised fixed-width
// slice; wider rows fall back to the variable-width storage.
const maxFixedWidth = 5

// ResultTable carries a status, a column count, a sorted-column marker
// (>= NofColumns means "unsorted"), and row storage that is either one
// of five fixed-width typed vectors or a variable-width fallback.
type ResultTable struct {
	Status     Status
	NofColumns int
	SortedBy   int

	rows1 [][1]ids.Id
	rows2 [][2]ids.Id
	rows3 [][3]ids.Id
	rows4 [][4]ids.Id
	rows5 [][5]ids.Id
	varRows [][]ids.Id
}

// New returns an empty table for nofColumns columns, unsorted.
func New(nofColumns int) *ResultTable {
	return &ResultTable{NofColumns: nofColumns, SortedBy: nofColumns}
}

// AppendRow appends one row; len(row) must equal NofColumns.
func (t *ResultTable) AppendRow(row []ids.Id) {
	switch {
	case t.NofColumns == 1:
		t.rows1 = append(t.rows1, [1]ids.Id{row[0]})
	case t.NofColumns == 2:
		t.rows2 = append(t.rows2, [2]ids.Id{row[0], row[1]})
	case t.NofColumns == 3:
		t.rows3 = append(t.rows3, [3]ids.Id{row[0], row[1], row[2]})
	case t.NofColumns == 4:
		t.rows4 = append(t.rows4, [4]ids.Id{row[0], row[1], row[2], row[3]})
	case t.NofColumns == 5:
		t.rows5 = append(t.rows5, [5]ids.Id{row[0], row[1], row[2], row[3], row[4]})
	default:
		cp := make([]ids.Id, len(row))
		copy(cp, row)
		t.varRows = append(t.varRows, cp)
	}
}

// Len returns the number of rows in the table.
func (t *ResultTable) Len() int {
	switch {
	case t.NofColumns == 1:
		return len(t.rows1)
	case t.NofColumns == 2:
		return len(t.rows2)
	case t.NofColumns == 3:
		return len(t.rows3)
	case t.NofColumns == 4:
		return len(t.rows4)
	case t.NofColumns == 5:
		return len(t.rows5)
	default:
		return len(t.varRows)
	}
}

// Row returns row i as a plain slice regardless of the underlying
// storage (§4.H: "the variable-width export is well-defined regardless
// of the underlying storage").
func (t *ResultTable) Row(i int) []ids.Id {
	switch {
	case t.NofColumns == 1:
		r := t.rows1[i]
		return r[:]
	case t.NofColumns == 2:
		r := t.rows2[i]
		return r[:]
	case t.NofColumns == 3:
		r := t.rows3[i]
		return r[:]
	case t.NofColumns == 4:
		r := t.rows4[i]
		return r[:]
	case t.NofColumns == 5:
		r := t.rows5[i]
		return r[:]
	default:
		return t.varRows[i]
	}
}

// IsSorted reports whether the table carries a sort guarantee (a single
// column the rows are known to be ordered by).
func (t *ResultTable) IsSorted() bool {
	return t.SortedBy < t.NofColumns
}

// Rows materialises the whole table as a slice of slices, for callers
// (the evaluator's sort, join and order-by steps) that want uniform
// access without per-row dispatch.
func (t *ResultTable) Rows() [][]ids.Id {
	n := t.Len()
	out := make([][]ids.Id, n)
	for i := 0; i < n; i++ {
		out[i] = t.Row(i)
	}
	return out
}
