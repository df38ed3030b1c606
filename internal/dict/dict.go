// Package dict implements the Term Dictionary (§4.J): a two-way
// string<->Id encoding used by the query parser's bound terms and the
// index builder's ingested rows.
//
// Grounded on internal/encoding/{encoder,decoder}.go's xxh3-based
// hashing (github.com/zeebo/xxh3, contributed to the pack by the
// teacher itself), trimmed from RDF-term-typed encoding (named
// nodes/literals/blank nodes/datatypes) to plain string encoding, since
// this engine's restricted query language has no term-type distinctions
// beyond "variable" / "bound string" / "text word" (internal/query
// already makes that distinction lexically, via leading "?"/"<...>").
package dict

import (
	"github.com/zeebo/xxh3"

	"github.com/brightlinq/qplan/internal/ids"
	"github.com/brightlinq/qplan/internal/index"
	"github.com/brightlinq/qplan/internal/qerrors"
)

// Dict resolves bound term strings to dictionary Ids by hashing them
// with xxh3's 64-bit variant (deterministic, so Resolve never needs a
// forward lookup table) and records id -> original string in the Index
// Store's reverse table so results can be rendered back to callers.
type Dict struct {
	storage index.Storage
}

// New wraps storage's reverse-lookup table with dictionary semantics.
func New(storage index.Storage) *Dict {
	return &Dict{storage: storage}
}

// Resolve hashes term into its dictionary Id and records the reverse
// mapping id -> term, so String can later recover it. Implements
// planner.TermResolver.
func (d *Dict) Resolve(term string) (ids.Id, error) {
	id := ids.Id(xxh3.Hash([]byte(term)))
	if id >= ids.Max2Id {
		return 0, qerrors.Internalf("term %q hashes to a reserved sentinel id", term)
	}

	txn, err := d.storage.Begin(true)
	if err != nil {
		return 0, err
	}
	key := idKey(id)
	if _, getErr := txn.Get(index.TableID2Str, key); getErr == index.ErrNotFound {
		if setErr := txn.Set(index.TableID2Str, key, []byte(term)); setErr != nil {
			_ = txn.Rollback()
			return 0, setErr
		}
	}
	if err := txn.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// String recovers the original string a dictionary Id was assigned to,
// if it has been through Resolve at least once (on this store).
func (d *Dict) String(id ids.Id) (string, error) {
	txn, err := d.storage.Begin(false)
	if err != nil {
		return "", err
	}
	defer func() { _ = txn.Rollback() }()

	val, err := txn.Get(index.TableID2Str, idKey(id))
	if err != nil {
		return "", err
	}
	return string(val), nil
}

func idKey(id ids.Id) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[7-i] = byte(id >> (8 * i))
	}
	return b
}
