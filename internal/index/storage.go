// Package index implements the on-disk Index Store (§4.I): a badger/v4
// key space holding the two permutation tables the scan variants read
// from (PSO and POS — SPO is never scanned directly by this engine, so
// it is not kept), the word/entity posting tables FTS Core reads from,
// and the term dictionary's reverse (id -> string) lookup table.
//
// Grounded on the teacher's pkg/store/storage.go (Storage/Transaction/
// Iterator interfaces, Table byte-enum, PrefixKey helper) and
// internal/storage/badger.go (the badger/v4-backed implementation),
// trimmed from 11 quad/graph permutation tables down to the 2 plain
// triple permutations this engine's scan variants need, plus 2 new
// posting tables FTS Core requires.
package index

import "errors"

var (
	ErrNotFound      = errors.New("key not found")
	ErrTransactionRO = errors.New("transaction is read-only")
)

// Storage is the key-value store the Index Store is built on.
type Storage interface {
	Begin(writable bool) (Transaction, error)
	Close() error
	Sync() error
}

// Transaction gives snapshot-isolated read/write access to one table at a
// time; table namespacing is handled by PrefixKey.
type Transaction interface {
	Get(table Table, key []byte) ([]byte, error)
	Set(table Table, key, value []byte) error
	Delete(table Table, key []byte) error
	// Scan iterates the keys of table that begin with start (every key of
	// the table when start == nil), stopping before end when end != nil.
	// A non-nil start is a prefix filter, not the low end of a range.
	Scan(table Table, start, end []byte) (Iterator, error)
	Commit() error
	Rollback() error
}

// Iterator walks a table's key range in ascending key order.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() ([]byte, error)
	Close() error
}

// Table names one of the Index Store's logical column families.
type Table byte

const (
	// TablePSO holds (predicate, subject, object) -> score keys, read by
	// the PSOBoundS and PSOFreeS scan variants.
	TablePSO Table = iota
	// TablePOS holds (predicate, object, subject) -> score keys, read by
	// the POSBoundO and POSFreeO scan variants.
	TablePOS
	// TableWordPostings holds (word, cid) -> score keys: the word/context
	// posting list FTS Core's word-side intersections read.
	TableWordPostings
	// TableEntityPostings holds (word, cid, eid) -> score keys: the
	// entity posting list FTS Core's entity-side intersections read.
	TableEntityPostings
	// TableID2Str holds id -> original string, the term dictionary's
	// reverse lookup.
	TableID2Str

	TableCount
)

func (t Table) String() string {
	switch t {
	case TablePSO:
		return "pso"
	case TablePOS:
		return "pos"
	case TableWordPostings:
		return "word_postings"
	case TableEntityPostings:
		return "entity_postings"
	case TableID2Str:
		return "id2str"
	default:
		return "unknown"
	}
}

// TablePrefix returns the single-byte namespace prefix for table.
func TablePrefix(table Table) []byte {
	return []byte{byte(table)}
}

// PrefixKey prepends table's namespace byte to key.
func PrefixKey(table Table, key []byte) []byte {
	prefix := TablePrefix(table)
	out := make([]byte, len(prefix)+len(key))
	copy(out, prefix)
	copy(out[len(prefix):], key)
	return out
}
