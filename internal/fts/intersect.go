package fts

import "github.com/brightlinq/qplan/internal/ids"

// IntersectTwoPostingLists is the word-word 2-way intersection: a
// standard sorted merge that emits one row per shared context id, with
// scores summed from both sides.
func IntersectTwoPostingLists(cidsA []ids.Id, scoresA []ids.Score, cidsB []ids.Id, scoresB []ids.Score) (outCids []ids.Id, outScores []ids.Score) {
	i, j := 0, 0
	for i < len(cidsA) && j < len(cidsB) {
		switch {
		case cidsA[i] < cidsB[j]:
			i++
		case cidsA[i] > cidsB[j]:
			j++
		default:
			outCids = append(outCids, cidsA[i])
			outScores = append(outScores, scoresA[i]+scoresB[j])
			i++
			j++
		}
	}
	return outCids, outScores
}

// IntersectEntityPostings intersects a word-side (cid, score) list with
// an entity-side (cid, eid, score) list. On a matching context, every
// entity posting for that context is emitted (several entities can
// share a context); the output score is the entity side's own score.
func IntersectEntityPostings(wordCids []ids.Id, wordScores []ids.Score, entCids, entEids []ids.Id, entScores []ids.Score) (outCids, outEids []ids.Id, outScores []ids.Score) {
	i, j := 0, 0
	for i < len(wordCids) && j < len(entCids) {
		switch {
		case wordCids[i] < entCids[j]:
			i++
		case wordCids[i] > entCids[j]:
			j++
		default:
			cid := wordCids[i]
			for j < len(entCids) && entCids[j] == cid {
				outCids = append(outCids, cid)
				outEids = append(outEids, entEids[j])
				outScores = append(outScores, entScores[j])
				j++
			}
			i++
		}
	}
	return outCids, outEids, outScores
}

// IntersectKWay intersects k sorted posting lists, returning the
// contexts present in every list with summed scores. When entityMode is
// set, the last list carries entity ids and one output row is emitted
// per matching entity posting in that list rather than a single row per
// context. Reduces to IntersectTwoPostingLists's contract when k == 2
// and entityMode is false (testable property 10).
func IntersectKWay(lists []PostingList, entityMode bool) (outCids, outEids []ids.Id, outScores []ids.Score) {
	k := len(lists)
	if k == 0 {
		return nil, nil, nil
	}
	idx := make([]int, k)

	for {
		var cur ids.Id
		exhausted := false
		for i := 0; i < k; i++ {
			if idx[i] >= len(lists[i].Cids) {
				exhausted = true
				break
			}
		}
		if exhausted {
			break
		}
		cur = lists[0].Cids[idx[0]]
		for i := 1; i < k; i++ {
			if lists[i].Cids[idx[i]] > cur {
				cur = lists[i].Cids[idx[i]]
			}
		}

		allEqual := true
		for i := 0; i < k; i++ {
			for idx[i] < len(lists[i].Cids) && lists[i].Cids[idx[i]] < cur {
				idx[i]++
			}
			if idx[i] >= len(lists[i].Cids) {
				exhausted = true
				break
			}
			if lists[i].Cids[idx[i]] != cur {
				allEqual = false
			}
		}
		if exhausted {
			break
		}
		if !allEqual {
			continue
		}

		last := k - 1
		var sumOthers ids.Score
		for i := 0; i < last; i++ {
			sumOthers += lists[i].Scores[idx[i]]
		}

		if entityMode {
			j := idx[last]
			for j < len(lists[last].Cids) && lists[last].Cids[j] == cur {
				outCids = append(outCids, cur)
				outEids = append(outEids, lists[last].Eids[j])
				outScores = append(outScores, sumOthers+lists[last].Scores[j])
				j++
			}
			idx[last] = j
		} else {
			outCids = append(outCids, cur)
			outScores = append(outScores, sumOthers+lists[last].Scores[idx[last]])
			idx[last]++
		}
		for i := 0; i < last; i++ {
			idx[i]++
		}
	}
	return outCids, outEids, outScores
}
