package server

import (
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/brightlinq/qplan/internal/dict"
	"github.com/brightlinq/qplan/internal/ids"
	"github.com/brightlinq/qplan/internal/index"
)

func TestRenderRows_LimitOffsetClamping(t *testing.T) {
	ix, err := index.Open(filepath.Join(t.TempDir(), "idx"))
	if err != nil {
		t.Fatalf("index.Open: %v", err)
	}
	t.Cleanup(func() { _ = ix.Close() })
	d := dict.New(ix.Storage())

	a, _ := d.Resolve("a")
	b, _ := d.Resolve("b")
	c, _ := d.Resolve("c")
	rows := [][]ids.Id{{a}, {b}, {c}}

	out := renderRows(d, rows, 2, 1)
	if len(out) != 2 || out[0][0] != "b" || out[1][0] != "c" {
		t.Fatalf("renderRows(limit=2,offset=1) = %v, want [[b] [c]]", out)
	}

	// offset past the end clamps to an empty slice rather than panicking.
	out = renderRows(d, rows, 5, 10)
	if len(out) != 0 {
		t.Fatalf("renderRows(offset past end) = %v, want []", out)
	}

	// limit larger than the remaining rows clamps to what's available.
	out = renderRows(d, rows, 100, 1)
	if len(out) != 2 {
		t.Fatalf("renderRows(limit > remaining) = %v, want 2 rows", out)
	}
}

func TestHandleQuery_EndToEnd(t *testing.T) {
	ix, err := index.Open(filepath.Join(t.TempDir(), "idx"))
	if err != nil {
		t.Fatalf("index.Open: %v", err)
	}
	t.Cleanup(func() { _ = ix.Close() })
	d := dict.New(ix.Storage())

	subj, _ := d.Resolve("<http://example.org/alice>")
	pred, _ := d.Resolve("<http://example.org/knows>")
	obj, _ := d.Resolve("<http://example.org/bob>")
	if err := ix.PutTriple(subj, pred, obj, 1); err != nil {
		t.Fatalf("PutTriple: %v", err)
	}

	srv := New(ix, d, "")

	q := `SELECT ?s WHERE { ?s <http://example.org/knows> <http://example.org/bob> }`
	req := httptest.NewRequest("GET", "/query?query="+url.QueryEscape(q), nil)
	rec := httptest.NewRecorder()

	srv.handleQuery(rec, req)

	var resp okResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v (body=%s)", err, rec.Body.String())
	}
	if resp.Status != "OK" {
		t.Fatalf("status = %q, want OK (body=%s)", resp.Status, rec.Body.String())
	}
	if resp.ResultSize != 1 {
		t.Fatalf("resultsize = %d, want 1", resp.ResultSize)
	}
	if len(resp.Res) != 1 || len(resp.Res[0]) != 1 || resp.Res[0][0] != "<http://example.org/alice>" {
		t.Fatalf("res = %v, want [[<http://example.org/alice>]]", resp.Res)
	}
}

func TestHandleQuery_MissingQueryParamIsBadRequest(t *testing.T) {
	ix, err := index.Open(filepath.Join(t.TempDir(), "idx"))
	if err != nil {
		t.Fatalf("index.Open: %v", err)
	}
	t.Cleanup(func() { _ = ix.Close() })
	d := dict.New(ix.Storage())
	srv := New(ix, d, "")

	req := httptest.NewRequest("GET", "/query", nil)
	rec := httptest.NewRecorder()
	srv.handleQuery(rec, req)

	var resp errResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v (body=%s)", err, rec.Body.String())
	}
	if resp.Status != "ERROR" || resp.Exception == "" {
		t.Fatalf("resp = %+v, want ERROR status with a non-empty exception", resp)
	}
}
