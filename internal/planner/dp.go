package planner

import (
	"github.com/brightlinq/qplan/internal/qerrors"
	"github.com/brightlinq/qplan/internal/query"
)

// BuildSeedRow builds DP row 0: every candidate scan seed across every
// triple node (§4.B), then applies every filter whose operands are
// already covered by a single-node seed (§4.E).
func BuildSeedRow(arena *Arena, nodes []int, tg *TripleGraph, idx SizeEstimator, terms TermResolver, filters []query.Filter) ([]*SubtreePlan, error) {
	var row []*SubtreePlan
	for _, n := range nodes {
		seeds, err := SeedsForNode(arena, n, tg.Items[n].Triple, idx, terms)
		if err != nil {
			return nil, err
		}
		row = append(row, seeds...)
	}
	if len(row) == 0 {
		return nil, qerrors.Internalf("seed row is empty")
	}
	return applyFiltersIfPossible(arena, row, filters), nil
}

// FillDPTable runs the bottom-up DP enumeration of §4.C: dp[0] is the
// seed row; for k = 2..n, every (i, k-i) split is merged and pruned,
// then the filter pusher runs over the new row. dp[n-1] (the final
// computed row) is returned alongside every intermediate row, since the
// capper (§4.F) needs the last row to build an additional order-by row.
func FillDPTable(arena *Arena, tg *TripleGraph, seedRow []*SubtreePlan, nNodes int, filters []query.Filter) ([][]*SubtreePlan, error) {
	dp := make([][]*SubtreePlan, nNodes)
	dp[0] = seedRow

	for k := 2; k <= nNodes; k++ {
		var candidates []*SubtreePlan
		for i := 1; i <= k/2; i++ {
			rowA := dp[i-1]
			rowB := dp[k-i-1]
			merged, err := Merge(arena, tg, rowA, rowB)
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, merged...)
		}
		candidates = prune(candidates)
		dp[k-1] = applyFiltersIfPossible(arena, candidates, filters)
		if len(dp[k-1]) == 0 {
			return nil, qerrors.Internalf("DP row for k=%d is empty", k)
		}
	}
	return dp, nil
}

// Cheapest returns the plan with the smallest cost estimate in row, with
// ties broken by index (§4.C).
func Cheapest(row []*SubtreePlan) *SubtreePlan {
	if len(row) == 0 {
		return nil
	}
	best := row[0]
	for _, p := range row[1:] {
		if p.Cost < best.Cost {
			best = p
		}
	}
	return best
}
