package fts

import (
	"sort"

	"github.com/brightlinq/qplan/internal/ids"
)

// scoredCid pairs a context id with the score it was seen at, used while
// maintaining the per-entity top-k ordered set.
type scoredCid struct {
	score ids.Score
	cid   ids.Id
}

// AggScoresAndTakeTopKContexts aggregates (cid, eid, score) postings
// into one row per entity: its occurrence count and the context(s)
// holding its k highest scores. k == 1 takes the documented fast path;
// k > 1 maintains a capped ordered set per entity. Output order is
// unspecified (sorted by entity id here only for determinism).
func AggScoresAndTakeTopKContexts(cids, eids []ids.Id, scores []ids.Score, k int) []AggRow {
	if k <= 0 {
		k = 1
	}
	if k == 1 {
		return aggTopOne(cids, eids, scores)
	}
	return aggTopK(cids, eids, scores, k)
}

func aggTopOne(cids, eids []ids.Id, scores []ids.Score) []AggRow {
	type acc struct {
		count         uint64
		bestCid       ids.Id
		bestScore     ids.Score
		bestScoreSeen bool
	}
	byEid := make(map[ids.Id]*acc)
	for i, eid := range eids {
		a, ok := byEid[eid]
		if !ok {
			a = &acc{}
			byEid[eid] = a
		}
		a.count++
		if !a.bestScoreSeen || scores[i] > a.bestScore {
			a.bestScore = scores[i]
			a.bestCid = cids[i]
			a.bestScoreSeen = true
		}
	}
	out := make([]AggRow, 0, len(byEid))
	for eid, a := range byEid {
		out = append(out, AggRow{Eid: eid, Count: a.count, Cid: a.bestCid})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Eid < out[j].Eid })
	return out
}

// entityAcc accumulates one entity's occurrence count and its capped,
// score-descending set of (score, cid) pairs.
type entityAcc struct {
	count uint64
	set   []scoredCid // kept sorted descending by score, size <= k
}

func aggTopK(cids, eids []ids.Id, scores []ids.Score, k int) []AggRow {
	byEid := make(map[ids.Id]*entityAcc)
	for i, eid := range eids {
		a, ok := byEid[eid]
		if !ok {
			a = &entityAcc{}
			byEid[eid] = a
		}
		a.count++
		insertCapped(a, scoredCid{score: scores[i], cid: cids[i]}, k)
	}

	var eidOrder []ids.Id
	for eid := range byEid {
		eidOrder = append(eidOrder, eid)
	}
	sort.Slice(eidOrder, func(i, j int) bool { return eidOrder[i] < eidOrder[j] })

	var out []AggRow
	for _, eid := range eidOrder {
		a := byEid[eid]
		for _, sc := range a.set {
			out = append(out, AggRow{Eid: eid, Count: a.count, Cid: sc.cid})
		}
	}
	return out
}

func insertCapped(a *entityAcc, sc scoredCid, k int) {
	if len(a.set) < k {
		a.set = append(a.set, sc)
		sort.Slice(a.set, func(i, j int) bool { return a.set[i].score > a.set[j].score })
		return
	}
	min := a.set[len(a.set)-1]
	if sc.score > min.score {
		a.set[len(a.set)-1] = sc
		sort.Slice(a.set, func(i, j int) bool { return a.set[i].score > a.set[j].score })
	}
}

// AggregateWideRows caps each group of wide sub-result rows (shaped
// [eid, count, cid, extra0, extra1, ...]) to at most k rows, patching the
// retained rows' count column (index 1) to the full group size. Rows are
// grouped by (eid, extras...); grouping and intra-group order are
// established by a stable sort on (eid, extras..., cid).
func AggregateWideRows(rows [][]ids.Id, k int) [][]ids.Id {
	if len(rows) == 0 {
		return nil
	}
	width := len(rows[0])
	sorted := make([][]ids.Id, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		for c := 3; c < width; c++ {
			if a[c] != b[c] {
				return a[c] < b[c]
			}
		}
		return a[2] < b[2]
	})

	sameGroup := func(a, b []ids.Id) bool {
		if a[0] != b[0] {
			return false
		}
		for c := 3; c < width; c++ {
			if a[c] != b[c] {
				return false
			}
		}
		return true
	}

	var out [][]ids.Id
	i := 0
	for i < len(sorted) {
		j := i + 1
		for j < len(sorted) && sameGroup(sorted[i], sorted[j]) {
			j++
		}
		groupSize := uint64(j - i)
		limit := j
		if i+k < j {
			limit = i + k
		}
		for r := i; r < limit; r++ {
			row := append([]ids.Id(nil), sorted[r]...)
			row[1] = ids.Id(groupSize)
			out = append(out, row)
		}
		i = j
	}
	return out
}
