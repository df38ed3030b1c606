// Command qindexbuild streams a TSV corpus of (subject, predicate,
// object, score) rows into an Index Store (§4.N). Adapted from
// cmd/trigo/main.go's flagless os.Args dispatch into a flag.String-based
// CLI, per SPEC_FULL.md §4.N's --index-basename/--tsv-file contract.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/brightlinq/qplan/internal/dict"
	"github.com/brightlinq/qplan/internal/ids"
	"github.com/brightlinq/qplan/internal/index"
)

func main() {
	indexBasename := flag.String("index-basename", "", "directory to create/open the Index Store in (required)")
	tsvFile := flag.String("tsv-file", "", "TSV file of subject\\tpredicate\\tobject\\tscore rows (required)")
	flag.Parse()

	if *indexBasename == "" || *tsvFile == "" {
		fmt.Fprintln(os.Stderr, "usage: qindexbuild --index-basename <dir> --tsv-file <path>")
		os.Exit(1)
	}

	idx, err := index.Open(*indexBasename)
	if err != nil {
		log.Fatalf("opening index store at %s: %v", *indexBasename, err)
	}
	defer func() { _ = idx.Close() }()

	d := dict.New(idx.Storage())

	f, err := os.Open(*tsvFile)
	if err != nil {
		log.Fatalf("opening %s: %v", *tsvFile, err)
	}
	defer func() { _ = f.Close() }()

	n, err := loadTriples(idx, d, f)
	if err != nil {
		log.Fatalf("loading %s: %v", *tsvFile, err)
	}
	log.Printf("loaded %d triples into %s", n, *indexBasename)
}

// loadTriples streams (subject, predicate, object, score) rows from r,
// resolving each term through d and writing the resulting triple into
// idx. Returns the number of rows loaded.
func loadTriples(idx *index.Index, d *dict.Dict, r *os.File) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	n := 0
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) != 4 {
			return n, fmt.Errorf("line %d: expected 4 tab-separated columns, got %d", n+1, len(cols))
		}

		subj, err := d.Resolve(cols[0])
		if err != nil {
			return n, fmt.Errorf("line %d: resolving subject: %w", n+1, err)
		}
		pred, err := d.Resolve(cols[1])
		if err != nil {
			return n, fmt.Errorf("line %d: resolving predicate: %w", n+1, err)
		}
		obj, err := d.Resolve(cols[2])
		if err != nil {
			return n, fmt.Errorf("line %d: resolving object: %w", n+1, err)
		}
		scoreVal, err := strconv.ParseUint(cols[3], 10, 32)
		if err != nil {
			return n, fmt.Errorf("line %d: parsing score: %w", n+1, err)
		}

		if err := idx.PutTriple(subj, pred, obj, ids.Score(scoreVal)); err != nil {
			return n, fmt.Errorf("line %d: writing triple: %w", n+1, err)
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, err
	}
	return n, nil
}
