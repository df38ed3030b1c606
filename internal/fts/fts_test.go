package fts

import (
	"reflect"
	"sort"
	"testing"

	"github.com/brightlinq/qplan/internal/ids"
)

// S5: A = [10,20,30] scores [1,1,1]; B = [20,40] scores [2,2] -> cids=[20], scores=[3].
func TestIntersectTwoPostingLists_S5(t *testing.T) {
	cids, scores := IntersectTwoPostingLists(
		[]ids.Id{10, 20, 30}, []ids.Score{1, 1, 1},
		[]ids.Id{20, 40}, []ids.Score{2, 2},
	)
	if !reflect.DeepEqual(cids, []ids.Id{20}) {
		t.Fatalf("cids = %v, want [20]", cids)
	}
	if !reflect.DeepEqual(scores, []ids.Score{3}) {
		t.Fatalf("scores = %v, want [3]", scores)
	}
}

// Property 9: intersect(A,B) == intersect(B,A) as multisets of (cid,score).
func TestIntersectTwoPostingLists_Commutative(t *testing.T) {
	a := []ids.Id{1, 2, 5, 9}
	as := []ids.Score{1, 2, 3, 4}
	b := []ids.Id{2, 5, 6}
	bs := []ids.Score{10, 20, 30}

	c1, s1 := IntersectTwoPostingLists(a, as, b, bs)
	c2, s2 := IntersectTwoPostingLists(b, bs, a, as)

	if !reflect.DeepEqual(c1, c2) || !reflect.DeepEqual(s1, s2) {
		t.Fatalf("intersect(A,B)=(%v,%v) != intersect(B,A)=(%v,%v)", c1, s1, c2, s2)
	}
}

// Property 10: k-way intersect with k=2 matches the 2-way primitive.
func TestIntersectKWay_ReducesToTwoWay(t *testing.T) {
	a := []ids.Id{1, 2, 5, 9}
	as := []ids.Score{1, 2, 3, 4}
	b := []ids.Id{2, 5, 6}
	bs := []ids.Score{10, 20, 30}

	wantCids, wantScores := IntersectTwoPostingLists(a, as, b, bs)
	gotCids, _, gotScores := IntersectKWay([]PostingList{
		{Cids: a, Scores: as},
		{Cids: b, Scores: bs},
	}, false)

	if !reflect.DeepEqual(gotCids, wantCids) {
		t.Fatalf("k-way cids = %v, want %v", gotCids, wantCids)
	}
	if !reflect.DeepEqual(gotScores, wantScores) {
		t.Fatalf("k-way scores = %v, want %v", gotScores, wantScores)
	}
}

func TestIntersectKWay_ThreeLists(t *testing.T) {
	l1 := PostingList{Cids: []ids.Id{1, 2, 3, 4}, Scores: []ids.Score{1, 1, 1, 1}}
	l2 := PostingList{Cids: []ids.Id{2, 3, 5}, Scores: []ids.Score{2, 2, 2}}
	l3 := PostingList{Cids: []ids.Id{2, 3, 3, 9}, Scores: []ids.Score{3, 3, 3, 3}}

	cids, _, scores := IntersectKWay([]PostingList{l1, l2, l3}, false)
	if !reflect.DeepEqual(cids, []ids.Id{2, 3}) {
		t.Fatalf("cids = %v, want [2 3]", cids)
	}
	if !reflect.DeepEqual(scores, []ids.Score{6, 6}) {
		t.Fatalf("scores = %v, want [6 6]", scores)
	}
}

// S6: k=1 aggregation; (c1,e1,5), (c2,e1,7), (c3,e2,3) -> {(e1,2,c2),(e2,1,c3)}.
func TestAggScoresAndTakeTopKContexts_S6(t *testing.T) {
	cids := []ids.Id{1, 2, 3}
	eids := []ids.Id{100, 100, 200}
	scores := []ids.Score{5, 7, 3}

	rows := AggScoresAndTakeTopKContexts(cids, eids, scores, 1)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Eid < rows[j].Eid })

	want := []AggRow{{Eid: 100, Count: 2, Cid: 2}, {Eid: 200, Count: 1, Cid: 3}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %+v, want %+v", rows, want)
	}
}

// Property 11: top-k aggregation never drops a context whose score is
// strictly greater than one it kept, and keeps min(k, occurrences) rows.
func TestAggScoresAndTakeTopKContexts_TopKLaw(t *testing.T) {
	cids := []ids.Id{1, 2, 3, 4, 5}
	eids := []ids.Id{1, 1, 1, 1, 1}
	scores := []ids.Score{5, 1, 9, 3, 7}

	rows := AggScoresAndTakeTopKContexts(cids, eids, scores, 3)
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	kept := make(map[ids.Id]ids.Score)
	scoreByCid := map[ids.Id]ids.Score{1: 5, 2: 1, 3: 9, 4: 3, 5: 7}
	for _, r := range rows {
		kept[r.Cid] = scoreByCid[r.Cid]
		if r.Count != 5 {
			t.Fatalf("count = %d, want 5", r.Count)
		}
	}
	minKept := ids.Score(^uint32(0))
	for _, s := range kept {
		if s < minKept {
			minKept = s
		}
	}
	for cid, s := range scoreByCid {
		if _, isKept := kept[cid]; !isKept && s > minKept {
			t.Fatalf("context %d scored %d > min kept %d but was excluded", cid, s, minKept)
		}
	}
}

func TestFilterByRange(t *testing.T) {
	cids := []ids.Id{1, 2, 3, 4}
	wids := []ids.Id{10, 20, 30, 40}
	scores := []ids.Score{1, 2, 3, 4}

	c, w, s := FilterByRange(cids, wids, scores, ids.IdRange{First: 15, Last: 35})
	if !reflect.DeepEqual(c, []ids.Id{2, 3}) || !reflect.DeepEqual(w, []ids.Id{20, 30}) || !reflect.DeepEqual(s, []ids.Score{2, 3}) {
		t.Fatalf("got (%v,%v,%v)", c, w, s)
	}
}

func TestTopKByScores(t *testing.T) {
	cids := []ids.Id{1, 2, 3, 4}
	scores := []ids.Score{10, 40, 30, 20}
	got := TopKByScores(cids, scores, 2)
	if !reflect.DeepEqual(got, []ids.Id{2, 3}) {
		t.Fatalf("got %v, want [2 3]", got)
	}
}

func TestIntersectEntityPostings(t *testing.T) {
	wordCids := []ids.Id{2, 5}
	wordScores := []ids.Score{1, 1}
	entCids := []ids.Id{1, 2, 2, 5}
	entEids := []ids.Id{100, 200, 201, 300}
	entScores := []ids.Score{9, 2, 3, 4}

	cids, eids, scores := IntersectEntityPostings(wordCids, wordScores, entCids, entEids, entScores)
	wantCids := []ids.Id{2, 2, 5}
	wantEids := []ids.Id{200, 201, 300}
	wantScores := []ids.Score{2, 3, 4}
	if !reflect.DeepEqual(cids, wantCids) || !reflect.DeepEqual(eids, wantEids) || !reflect.DeepEqual(scores, wantScores) {
		t.Fatalf("got (%v,%v,%v)", cids, eids, scores)
	}
}

func TestAppendCrossProduct5(t *testing.T) {
	cids := []ids.Id{1, 1, 2}
	eids := []ids.Id{10, 20, 10}
	scores := []ids.Score{1, 2, 3}
	sub1 := map[ids.Id]bool{10: true}
	sub2 := map[ids.Id]bool{20: true}

	rows := AppendCrossProduct5(cids, eids, scores, 0, 3, sub1, sub2)
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3 (one per posting x 1x1 product)", len(rows))
	}
	for _, r := range rows {
		if r.E1 != 10 || r.E2 != 20 {
			t.Fatalf("row %+v has wrong entity pairing", r)
		}
	}
}
