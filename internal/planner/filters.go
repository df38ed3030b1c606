package planner

import "github.com/brightlinq/qplan/internal/query"

func toOp(op query.CompareOp) CompareOp {
	switch op {
	case query.EQ:
		return OpEQ
	case query.NE:
		return OpNE
	case query.LT:
		return OpLT
	case query.LE:
		return OpLE
	case query.GT:
		return OpGT
	case query.GE:
		return OpGE
	default:
		return OpEQ
	}
}

// applyFiltersIfPossible wraps each plan in row with a Filter operator
// for every filter not yet in the plan's applied set whose lhs and rhs
// are both covered by the plan's variable map (§4.E). The sort column
// and variable map are preserved by a Filter wrap; each filter id is
// applied at most once per plan (invariant iii).
func applyFiltersIfPossible(arena *Arena, row []*SubtreePlan, filters []query.Filter) []*SubtreePlan {
	out := make([]*SubtreePlan, len(row))
	for i, p := range row {
		cur := p
		for idx, f := range filters {
			if cur.Filters[idx] {
				continue
			}
			lhsCol, lhsOK := cur.VarCol[f.Lhs]
			rhsCol, rhsOK := cur.VarCol[f.Rhs]
			if !lhsOK || !rhsOK {
				continue
			}
			root := arena.Add(Filter{Child: cur.Root, LhsCol: lhsCol, RhsCol: rhsCol, Op: toOp(f.Op)})
			applied := cloneFilters(cur.Filters)
			applied[idx] = true
			cur = &SubtreePlan{
				Arena:    arena,
				Root:     root,
				Nodes:    cur.Nodes,
				Filters:  applied,
				VarCol:   cur.VarCol,
				SortedBy: cur.SortedBy,
				CtxVars:  cur.CtxVars,
				Width:    cur.Width,
				Size:     cur.Size,
				Cost:     filterCost(cur.Size, cur.Cost),
			}
		}
		out[i] = cur
	}
	return out
}
