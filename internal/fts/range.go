package fts

import "github.com/brightlinq/qplan/internal/ids"

// FilterByRange retains postings whose word id falls inclusively within
// r, preserving input order.
func FilterByRange(cids, wids []ids.Id, scores []ids.Score, r ids.IdRange) (outCids, outWids []ids.Id, outScores []ids.Score) {
	outCids = make([]ids.Id, 0, len(cids))
	outWids = make([]ids.Id, 0, len(cids))
	outScores = make([]ids.Score, 0, len(cids))
	for i, w := range wids {
		if r.Contains(w) {
			outCids = append(outCids, cids[i])
			outWids = append(outWids, w)
			outScores = append(outScores, scores[i])
		}
	}
	return outCids, outWids, outScores
}

// TopKByScores returns the context ids of the k highest-scoring
// postings, descending by score; k is clamped to len(scores). Ties are
// broken by the lower original index, matching a stable partial sort.
func TopKByScores(cids []ids.Id, scores []ids.Score, k int) []ids.Id {
	n := len(scores)
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	// Partial selection sort for the top k: fine for the small k this
	// engine expects (§4.G "partial-sort").
	for i := 0; i < k; i++ {
		best := i
		for j := i + 1; j < n; j++ {
			sj, sb := scores[order[j]], scores[order[best]]
			if sj > sb || (sj == sb && order[j] < order[best]) {
				best = j
			}
		}
		order[i], order[best] = order[best], order[i]
	}
	out := make([]ids.Id, k)
	for i := 0; i < k; i++ {
		out[i] = cids[order[i]]
	}
	return out
}
