package index

import (
	"path/filepath"
	"testing"

	"github.com/brightlinq/qplan/internal/ids"
	"github.com/brightlinq/qplan/internal/scan"
)

func openTest(t *testing.T) *Index {
	t.Helper()
	ix, err := Open(filepath.Join(t.TempDir(), "idx"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

func TestPutTripleAndScanVariants(t *testing.T) {
	ix := openTest(t)
	const pred ids.Id = 42

	if err := ix.PutTriple(1, pred, 100, 5); err != nil {
		t.Fatalf("PutTriple: %v", err)
	}
	if err := ix.PutTriple(2, pred, 100, 7); err != nil {
		t.Fatalf("PutTriple: %v", err)
	}
	if err := ix.PutTriple(2, pred, 200, 9); err != nil {
		t.Fatalf("PutTriple: %v", err)
	}

	subjects, err := ix.ScanPOSBoundO(pred, 100)
	if err != nil {
		t.Fatalf("ScanPOSBoundO: %v", err)
	}
	if len(subjects) != 2 || subjects[0] != 1 || subjects[1] != 2 {
		t.Fatalf("ScanPOSBoundO(pred, 100) = %v, want [1 2]", subjects)
	}

	objects, err := ix.ScanPSOBoundS(pred, 2)
	if err != nil {
		t.Fatalf("ScanPSOBoundS: %v", err)
	}
	if len(objects) != 2 || objects[0] != 100 || objects[1] != 200 {
		t.Fatalf("ScanPSOBoundS(pred, 2) = %v, want [100 200]", objects)
	}

	ss, os, err := ix.ScanPSOFreeS(pred)
	if err != nil {
		t.Fatalf("ScanPSOFreeS: %v", err)
	}
	if len(ss) != 3 || ss[0] != 1 || ss[1] != 2 || ss[2] != 2 {
		t.Fatalf("ScanPSOFreeS subjects = %v, want [1 2 2]", ss)
	}
	if len(os) != 3 || os[0] != 100 {
		t.Fatalf("ScanPSOFreeS objects = %v", os)
	}

	oo, sos, err := ix.ScanPOSFreeO(pred)
	if err != nil {
		t.Fatalf("ScanPOSFreeO: %v", err)
	}
	if len(oo) != 3 || oo[0] != 100 || oo[2] != 200 {
		t.Fatalf("ScanPOSFreeO objects = %v, want sorted [100 100 200]", oo)
	}
	_ = sos

	size := ix.EstimateScanSize(scan.PSOFreeS, pred)
	if size != 3 {
		t.Fatalf("EstimateScanSize = %d, want 3", size)
	}
}

func TestPostings(t *testing.T) {
	ix := openTest(t)
	const word ids.Id = 55

	if err := ix.PutWordPosting(word, 1, 3); err != nil {
		t.Fatalf("PutWordPosting: %v", err)
	}
	if err := ix.PutWordPosting(word, 2, 6); err != nil {
		t.Fatalf("PutWordPosting: %v", err)
	}
	if err := ix.PutEntityPosting(word, 1, 9, 2); err != nil {
		t.Fatalf("PutEntityPosting: %v", err)
	}

	cids, scores, err := ix.WordPostings(word)
	if err != nil {
		t.Fatalf("WordPostings: %v", err)
	}
	if len(cids) != 2 || cids[0] != 1 || cids[1] != 2 {
		t.Fatalf("WordPostings cids = %v, want [1 2]", cids)
	}
	if scores[0] != 3 || scores[1] != 6 {
		t.Fatalf("WordPostings scores = %v, want [3 6]", scores)
	}

	ecids, eids, escores, err := ix.EntityPostings(word)
	if err != nil {
		t.Fatalf("EntityPostings: %v", err)
	}
	if len(ecids) != 1 || ecids[0] != 1 || eids[0] != 9 || escores[0] != 2 {
		t.Fatalf("EntityPostings = cids:%v eids:%v scores:%v, want [1] [9] [2]", ecids, eids, escores)
	}
}

func TestStorageSharedByDict(t *testing.T) {
	ix := openTest(t)
	if ix.Storage() == nil {
		t.Fatalf("Storage() returned nil")
	}
}
