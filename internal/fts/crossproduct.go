package fts

import "github.com/brightlinq/qplan/internal/ids"

// Row5 is one row of the 5-column cross-product output:
// (eid, score, cid, e1, e2).
type Row5 struct {
	Eid   ids.Id
	Score ids.Score
	Cid   ids.Id
	E1    ids.Id
	E2    ids.Id
}

// AppendCrossProduct5 collects the distinct entity ids in the context
// window [from, toExclusive) that belong to subRes1 and to subRes2, then
// emits, for every posting in the window, the Cartesian product of the
// two collected entity lists as (eid, score, cid, e1, e2) rows.
func AppendCrossProduct5(cids, eids []ids.Id, scores []ids.Score, from, toExclusive int, subRes1, subRes2 map[ids.Id]bool) []Row5 {
	var set1, set2 []ids.Id
	seen1 := make(map[ids.Id]bool)
	seen2 := make(map[ids.Id]bool)
	for i := from; i < toExclusive; i++ {
		e := eids[i]
		if subRes1[e] && !seen1[e] {
			seen1[e] = true
			set1 = append(set1, e)
		}
		if subRes2[e] && !seen2[e] {
			seen2[e] = true
			set2 = append(set2, e)
		}
	}
	var out []Row5
	for i := from; i < toExclusive; i++ {
		for _, e1 := range set1 {
			for _, e2 := range set2 {
				out = append(out, Row5{Eid: eids[i], Score: scores[i], Cid: cids[i], E1: e1, E2: e2})
			}
		}
	}
	return out
}

// AppendCrossProductVar is the variable-width generalisation of
// AppendCrossProduct5: subResMaps[j] maps an entity id to the sequence
// of row-suffixes it may contribute. For every posting in the window it
// emits the product of all subResMatches[j] choices, selecting each
// output row's per-dimension suffix by treating the row index as a
// mixed-radix number whose digits are the per-dimension choice indices.
func AppendCrossProductVar(cids, eids []ids.Id, scores []ids.Score, from, toExclusive int, subResMaps []map[ids.Id][][]ids.Id) [][]ids.Id {
	// For each dimension, collect the distinct matching row-suffix lists
	// present in the window, in first-seen order.
	dims := make([][][]ids.Id, len(subResMaps))
	for d, m := range subResMaps {
		seen := make(map[ids.Id]bool)
		for i := from; i < toExclusive; i++ {
			e := eids[i]
			if suffixes, ok := m[e]; ok && !seen[e] {
				seen[e] = true
				dims[d] = append(dims[d], suffixes...)
			}
		}
	}

	total := 1
	for _, d := range dims {
		if len(d) == 0 {
			return nil
		}
		total *= len(d)
	}

	var out [][]ids.Id
	for i := from; i < toExclusive; i++ {
		for n := 0; n < total; n++ {
			row := []ids.Id{eids[i], ids.Id(scores[i]), cids[i]}
			index := n
			for d := 0; d < len(dims); d++ {
				choice := index % len(dims[d])
				index /= len(dims[d])
				row = append(row, dims[d][choice]...)
			}
			out = append(out, row)
		}
	}
	return out
}
