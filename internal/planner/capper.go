package planner

import "github.com/brightlinq/qplan/internal/query"

// BuildOrderByRow implements the order-by half of §4.F: for each plan in
// the previous row, keep it unchanged if already sorted correctly on a
// single ascending key, wrap in a Sort for a single ascending key that
// isn't, or wrap in a full OrderBy otherwise (multi-key or any
// descending key, since those aren't representable by the single-column
// sort marker).
func BuildOrderByRow(arena *Arena, row []*SubtreePlan, orderBy []query.OrderKey) []*SubtreePlan {
	if len(orderBy) == 0 {
		return row
	}
	out := make([]*SubtreePlan, len(row))
	single := len(orderBy) == 1 && !orderBy[0].Descending

	for i, p := range row {
		if single {
			col, ok := p.VarCol[orderBy[0].Variable]
			if ok && p.SortedBy == col {
				out[i] = p
				continue
			}
			if ok {
				out[i] = presort(arena, p, col)
				continue
			}
		}
		keys := make([]OrderKey, 0, len(orderBy))
		for _, k := range orderBy {
			col, ok := p.VarCol[k.Variable]
			if !ok {
				continue
			}
			keys = append(keys, OrderKey{Col: col, Descending: k.Descending})
		}
		root := arena.Add(OrderBy{Child: p.Root, Keys: keys})
		out[i] = &SubtreePlan{
			Arena:    arena,
			Root:     root,
			Nodes:    p.Nodes,
			Filters:  p.Filters,
			VarCol:   cloneVarCol(p.VarCol),
			SortedBy: Unsorted,
			CtxVars:  p.CtxVars,
			Width:    p.Width,
			Size:     p.Size,
			Cost:     orderByCost(p.Size, p.Cost),
		}
	}
	return out
}

// ApplyDistinct projects p down to the columns of selectVars (dropping
// any that aren't present in p's variable map) and wraps it in a
// Distinct operator. Applied once, after final plan selection.
func ApplyDistinct(arena *Arena, p *SubtreePlan, selectVars []string) *SubtreePlan {
	var cols []int
	varCol := make(map[string]int)
	sortedBy := Unsorted
	for _, v := range selectVars {
		if c, ok := p.VarCol[v]; ok {
			varCol[v] = len(cols)
			if c == p.SortedBy {
				sortedBy = len(cols)
			}
			cols = append(cols, c)
		}
	}
	root := arena.Add(Distinct{Child: p.Root, Cols: cols})
	return &SubtreePlan{
		Arena:    arena,
		Root:     root,
		Nodes:    p.Nodes,
		Filters:  p.Filters,
		VarCol:   varCol,
		SortedBy: sortedBy,
		CtxVars:  p.CtxVars,
		Width:    len(cols),
		Size:     p.Size,
		Cost:     filterCost(p.Size, p.Cost),
	}
}
