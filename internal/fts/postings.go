// Package fts implements the full-text-search set algorithms (§4.G): the
// set-algebraic primitives over sorted posting lists that intersect
// word/entity postings, aggregate per-entity top-k contexts, and
// materialise cross-products of text-joined sub-results.
//
// Every posting list here is assumed sorted ascending by context id, per
// the index's on-disk layout; callers never see the sentinel padding an
// implementation may use internally (§5 "Resource scoping").
package fts

import "github.com/brightlinq/qplan/internal/ids"

// WordPosting is one (context, word, score) triple from a word's
// posting list.
type WordPosting struct {
	Cid   ids.Id
	Wid   ids.Id
	Score ids.Score
}

// EntityPosting is one (context, entity, score) triple from an entity's
// posting list.
type EntityPosting struct {
	Cid   ids.Id
	Eid   ids.Id
	Score ids.Score
}

// PostingList is one input to the k-way intersection: parallel context
// ids and scores, with entity ids present only when this list is the
// designated entity-mode list (conventionally the last one).
type PostingList struct {
	Cids   []ids.Id
	Eids   []ids.Id // len 0 unless this list carries entity ids
	Scores []ids.Score
}

// AggRow is one (entity, occurrence count, chosen context) output row of
// the top-k-per-entity aggregation.
type AggRow struct {
	Eid   ids.Id
	Count uint64
	Cid   ids.Id
}
