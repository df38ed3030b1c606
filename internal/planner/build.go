package planner

import "github.com/brightlinq/qplan/internal/query"

// CreateExecutionTree is the planner's single entry point: build the
// triple graph, split at text-context variables, seed row 0, fill the DP
// table, optionally cap with order-by, then pick the cheapest plan in
// the final row and wrap it in Distinct if requested. Mirrors the
// original createExecutionTree's shape (§4, data flow in §2).
func CreateExecutionTree(q *query.ParsedQuery, idx SizeEstimator, terms TermResolver) (*SubtreePlan, error) {
	arena := NewArena()
	tg := BuildTripleGraph(q.Where)
	trace(2, "built triple graph: %d nodes", len(q.Where))

	split, err := tg.SplitAtText(q.Filters)
	if err != nil {
		return nil, err
	}
	trace(2, "split at text: %d plain nodes", len(split.Nodes))

	seedRow, err := BuildSeedRow(arena, split.Nodes, tg, idx, terms, split.Filters)
	if err != nil {
		return nil, err
	}

	dp, err := FillDPTable(arena, tg, seedRow, len(split.Nodes), split.Filters)
	if err != nil {
		return nil, err
	}
	trace(1, "DP table filled: %d rows", len(dp))

	finalRow := dp[len(dp)-1]
	if len(q.OrderBy) > 0 {
		finalRow = BuildOrderByRow(arena, finalRow, q.OrderBy)
	}

	best := Cheapest(finalRow)
	trace(1, "cheapest plan: cost=%.1f width=%d", best.Cost, best.Width)

	if q.Distinct {
		var vars []string
		for _, s := range q.Select {
			if s.Variable != "" {
				vars = append(vars, s.Variable)
			}
		}
		best = ApplyDistinct(arena, best, vars)
	}

	return best, nil
}
