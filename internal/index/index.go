package index

import (
	"encoding/binary"
	"fmt"

	"github.com/brightlinq/qplan/internal/ids"
	"github.com/brightlinq/qplan/internal/qerrors"
	"github.com/brightlinq/qplan/internal/scan"
)

// Index is the read path over the on-disk Index Store: it answers the
// planner's scan-size estimates (implementing planner.SizeEstimator,
// via internal/scan so there is no import back to internal/planner) and
// the evaluator's scan/posting-list reads.
type Index struct {
	storage Storage
}

// Open opens (or creates) a badger-backed Index Store at path.
func Open(path string) (*Index, error) {
	s, err := NewBadgerStorage(path)
	if err != nil {
		return nil, err
	}
	return &Index{storage: s}, nil
}

func (ix *Index) Close() error { return ix.storage.Close() }

// Storage returns the underlying Index Store, so a Dict (internal/dict)
// can share the same badger handle rather than opening a second one.
func (ix *Index) Storage() Storage { return ix.storage }

func encodeID(id ids.Id) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

func decodeID(b []byte) ids.Id {
	return ids.Id(binary.BigEndian.Uint64(b))
}

func encodeScore(s ids.Score) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(s))
	return b
}

func decodeScore(b []byte) ids.Score {
	return ids.Score(binary.BigEndian.Uint32(b))
}

// EstimateScanSize implements planner.SizeEstimator by counting the keys
// under the scan's predicate prefix. The bound term of the two BOUND
// variants is not part of that prefix, so for them the count is the
// number of triples with the predicate, an upper bound on the scan's
// rows; for the two FREE variants it is exact. A full prefix count is
// acceptable here since the planner only ever calls this once per seed,
// not per candidate row.
func (ix *Index) EstimateScanSize(variant scan.Variant, pred ids.Id) int64 {
	table, prefix := ix.scanTableAndPrefix(variant, pred, 0, false)
	n, err := ix.countPrefix(table, prefix)
	if err != nil {
		return 0
	}
	return n
}

func (ix *Index) scanTableAndPrefix(variant scan.Variant, pred, bound ids.Id, withBound bool) (Table, []byte) {
	switch variant {
	case scan.POSBoundO:
		prefix := append(encodeID(pred), encodeID(bound)...)
		if !withBound {
			prefix = encodeID(pred)
		}
		return TablePOS, prefix
	case scan.PSOBoundS:
		prefix := append(encodeID(pred), encodeID(bound)...)
		if !withBound {
			prefix = encodeID(pred)
		}
		return TablePSO, prefix
	case scan.PSOFreeS:
		return TablePSO, encodeID(pred)
	case scan.POSFreeO:
		return TablePOS, encodeID(pred)
	default:
		return TablePSO, encodeID(pred)
	}
}

func (ix *Index) countPrefix(table Table, prefix []byte) (int64, error) {
	txn, err := ix.storage.Begin(false)
	if err != nil {
		return 0, err
	}
	defer func() { _ = txn.Rollback() }()

	it, err := txn.Scan(table, prefix, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = it.Close() }()

	var n int64
	for it.Next() {
		n++
	}
	return n, nil
}

// ScanPOSBoundO returns the subjects of every (subject, pred, obj)
// triple, sorted ascending. Used by the POS_BOUND_O scan variant.
func (ix *Index) ScanPOSBoundO(pred, obj ids.Id) ([]ids.Id, error) {
	table, prefix := ix.scanTableAndPrefix(scan.POSBoundO, pred, obj, true)
	var out []ids.Id
	err := ix.eachKey(table, prefix, func(rest []byte) {
		out = append(out, decodeID(rest[:8]))
	})
	return out, err
}

// ScanPSOBoundS returns the objects of every (subj, pred, object)
// triple, sorted ascending. Used by the PSO_BOUND_S scan variant.
func (ix *Index) ScanPSOBoundS(pred, subj ids.Id) ([]ids.Id, error) {
	table, prefix := ix.scanTableAndPrefix(scan.PSOBoundS, pred, subj, true)
	var out []ids.Id
	err := ix.eachKey(table, prefix, func(rest []byte) {
		out = append(out, decodeID(rest[:8]))
	})
	return out, err
}

// ScanPSOFreeS returns (subject, object) column pairs sorted by subject
// then object. Used by the PSO_FREE_S scan variant.
func (ix *Index) ScanPSOFreeS(pred ids.Id) (subjects, objects []ids.Id, err error) {
	table, prefix := ix.scanTableAndPrefix(scan.PSOFreeS, pred, 0, false)
	err = ix.eachKey(table, prefix, func(rest []byte) {
		subjects = append(subjects, decodeID(rest[0:8]))
		objects = append(objects, decodeID(rest[8:16]))
	})
	return subjects, objects, err
}

// ScanPOSFreeO returns (object, subject) column pairs sorted by object
// then subject. Used by the POS_FREE_O scan variant.
func (ix *Index) ScanPOSFreeO(pred ids.Id) (objects, subjects []ids.Id, err error) {
	table, prefix := ix.scanTableAndPrefix(scan.POSFreeO, pred, 0, false)
	err = ix.eachKey(table, prefix, func(rest []byte) {
		objects = append(objects, decodeID(rest[0:8]))
		subjects = append(subjects, decodeID(rest[8:16]))
	})
	return objects, subjects, err
}

func (ix *Index) eachKey(table Table, prefix []byte, fn func(rest []byte)) error {
	txn, err := ix.storage.Begin(false)
	if err != nil {
		return err
	}
	defer func() { _ = txn.Rollback() }()

	it, err := txn.Scan(table, prefix, nil)
	if err != nil {
		return err
	}
	defer func() { _ = it.Close() }()

	for it.Next() {
		key := it.Key()
		if len(key) < len(prefix) {
			continue
		}
		fn(key[len(prefix):])
	}
	return nil
}

// WordPostings returns the (cid, score) posting list for word, sorted by
// cid ascending. Feeds FTS Core's word-side intersections.
func (ix *Index) WordPostings(word ids.Id) (cids []ids.Id, scores []ids.Score, err error) {
	txn, txErr := ix.storage.Begin(false)
	if txErr != nil {
		return nil, nil, txErr
	}
	defer func() { _ = txn.Rollback() }()

	it, scanErr := txn.Scan(TableWordPostings, encodeID(word), nil)
	if scanErr != nil {
		return nil, nil, scanErr
	}
	defer func() { _ = it.Close() }()

	for it.Next() {
		key := it.Key()
		if len(key) < 16 {
			continue
		}
		val, vErr := it.Value()
		if vErr != nil {
			return nil, nil, vErr
		}
		cids = append(cids, decodeID(key[8:16]))
		scores = append(scores, decodeScore(val))
	}
	return cids, scores, nil
}

// EntityPostings returns the (cid, eid, score) posting list for word,
// sorted by cid ascending. Feeds FTS Core's entity-side intersections.
func (ix *Index) EntityPostings(word ids.Id) (cids, eids []ids.Id, scores []ids.Score, err error) {
	txn, txErr := ix.storage.Begin(false)
	if txErr != nil {
		return nil, nil, nil, txErr
	}
	defer func() { _ = txn.Rollback() }()

	it, scanErr := txn.Scan(TableEntityPostings, encodeID(word), nil)
	if scanErr != nil {
		return nil, nil, nil, scanErr
	}
	defer func() { _ = it.Close() }()

	for it.Next() {
		key := it.Key()
		if len(key) < 24 {
			continue
		}
		val, vErr := it.Value()
		if vErr != nil {
			return nil, nil, nil, vErr
		}
		cids = append(cids, decodeID(key[8:16]))
		eids = append(eids, decodeID(key[16:24]))
		scores = append(scores, decodeScore(val))
	}
	return cids, eids, scores, nil
}

// PutTriple writes one (subject, predicate, object) posting with score
// into both permutation tables. Used by the Index Builder CLI (§4.N).
func (ix *Index) PutTriple(subj, pred, obj ids.Id, score ids.Score) error {
	txn, err := ix.storage.Begin(true)
	if err != nil {
		return err
	}
	psoKey := append(append(encodeID(pred), encodeID(subj)...), encodeID(obj)...)
	posKey := append(append(encodeID(pred), encodeID(obj)...), encodeID(subj)...)
	scoreBytes := encodeScore(score)
	if err := txn.Set(TablePSO, psoKey, scoreBytes); err != nil {
		_ = txn.Rollback()
		return qerrors.Wrap(qerrors.Internal, err, "writing PSO entry")
	}
	if err := txn.Set(TablePOS, posKey, scoreBytes); err != nil {
		_ = txn.Rollback()
		return qerrors.Wrap(qerrors.Internal, err, "writing POS entry")
	}
	return txn.Commit()
}

// PutWordPosting records one (word, cid) -> score entry.
func (ix *Index) PutWordPosting(word, cid ids.Id, score ids.Score) error {
	txn, err := ix.storage.Begin(true)
	if err != nil {
		return err
	}
	key := append(encodeID(word), encodeID(cid)...)
	if err := txn.Set(TableWordPostings, key, encodeScore(score)); err != nil {
		_ = txn.Rollback()
		return fmt.Errorf("writing word posting: %w", err)
	}
	return txn.Commit()
}

// PutEntityPosting records one (word, cid, eid) -> score entry.
func (ix *Index) PutEntityPosting(word, cid, eid ids.Id, score ids.Score) error {
	txn, err := ix.storage.Begin(true)
	if err != nil {
		return err
	}
	key := append(append(encodeID(word), encodeID(cid)...), encodeID(eid)...)
	if err := txn.Set(TableEntityPostings, key, encodeScore(score)); err != nil {
		_ = txn.Rollback()
		return fmt.Errorf("writing entity posting: %w", err)
	}
	return txn.Commit()
}
