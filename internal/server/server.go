// Package server implements the Server (§4.M): a thin HTTP/JSON wrapper
// over the planner and evaluator matching the §6 response shape.
//
// Grounded on internal/server/server.go's net/http handler structure
// (CORS headers, GET query-parameter / POST body extraction, one
// http.ServeMux), trimmed from full SPARQL 1.1 Protocol content
// negotiation down to a single JSON response shape, and on
// original_source's Server.cpp composeResponseJson, whose
// query/status/resultsize/res/time.total/time.computeResult field names
// this handler reproduces directly (rendered via encoding/json rather
// than hand-written JSON, per SPEC_FULL.md's note that this trivial
// concern reuses a library rather than reimplementing JSON escaping).
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/brightlinq/qplan/internal/dict"
	"github.com/brightlinq/qplan/internal/evaluator"
	"github.com/brightlinq/qplan/internal/ids"
	"github.com/brightlinq/qplan/internal/index"
	"github.com/brightlinq/qplan/internal/parser"
	"github.com/brightlinq/qplan/internal/planner"
	"github.com/brightlinq/qplan/internal/qerrors"
	"github.com/brightlinq/qplan/internal/query"
)

// Server serves query requests against a read-only Index Store.
type Server struct {
	idx  *index.Index
	dict *dict.Dict
	eval *evaluator.Evaluator
	addr string
}

// New returns a Server reading from idx and resolving terms via d.
func New(idx *index.Index, d *dict.Dict, addr string) *Server {
	return &Server{idx: idx, dict: d, eval: evaluator.New(idx), addr: addr}
}

// Start starts the HTTP server, blocking until it exits.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/query", s.handleQuery)

	httpServer := &http.Server{
		Addr:         s.addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("listening for queries at http://%s/query", s.addr)
	return httpServer.ListenAndServe()
}

// timeInfo mirrors the §6 "time" sub-object: total wall time and the
// time spent computing the result (materializing the execution tree),
// both in milliseconds, formatted the way original_source's
// composeResponseJson does ("<float>ms").
type timeInfo struct {
	Total         string `json:"total"`
	ComputeResult string `json:"computeResult"`
}

type okResponse struct {
	Query      string     `json:"query"`
	Status     string     `json:"status"`
	ResultSize int        `json:"resultsize"`
	Res        [][]string `json:"res"`
	Time       timeInfo   `json:"time"`
}

type errResponse struct {
	Query      string   `json:"query"`
	Status     string   `json:"status"`
	ResultSize int      `json:"resultsize"`
	Exception  string   `json:"exception"`
	Time       timeInfo `json:"time"`
}

func msString(d time.Duration) string {
	return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000.0)
}

// handleQuery parses, plans, evaluates, and renders one query.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	start := time.Now()

	queryString := r.URL.Query().Get("query")
	if queryString == "" {
		s.writeError(w, start, start, "", qerrors.BadRequestf("missing \"query\" parameter"))
		return
	}
	if len(r.URL.Query()["query"]) > 1 {
		s.writeError(w, start, start, "", qerrors.BadRequestf("duplicate \"query\" parameter"))
		return
	}

	q, err := parser.Parse(queryString)
	if err != nil {
		s.writeError(w, start, start, queryString, err)
		return
	}

	computeStart := time.Now()
	res, limit, offset, err := s.run(&q)
	computeEnd := time.Now()
	if err != nil {
		s.writeError(w, start, computeEnd, queryString, err)
		return
	}

	rows := renderRows(s.dict, res, limit, offset)

	resp := okResponse{
		Query:      queryString,
		Status:     "OK",
		ResultSize: len(rows),
		Res:        rows,
		Time: timeInfo{
			Total:         msString(time.Since(start)),
			ComputeResult: msString(computeEnd.Sub(computeStart)),
		},
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// run plans and evaluates q, returning the projected result columns (one
// per plain-variable q.Select item; raw expressions such as SCORE(...)
// are skipped) plus the effective limit/offset.
func (s *Server) run(q *query.ParsedQuery) (rows [][]ids.Id, limit, offset int, err error) {
	best, err := planner.CreateExecutionTree(q, s.idx, s.dict)
	if err != nil {
		return nil, 0, 0, err
	}

	tbl, err := s.eval.Eval(best.Arena, best.Root)
	if err != nil {
		return nil, 0, 0, err
	}

	cols := make([]int, 0, len(q.Select))
	for _, sel := range q.Select {
		if sel.Variable == "" {
			continue // raw SCORE(...)-style expressions are not projected
		}
		c, ok := best.VarCol[sel.Variable]
		if !ok {
			return nil, 0, 0, qerrors.Internalf("select variable %q not bound by plan", sel.Variable)
		}
		cols = append(cols, c)
	}

	out := make([][]ids.Id, tbl.Len())
	for i := 0; i < tbl.Len(); i++ {
		row := tbl.Row(i)
		projected := make([]ids.Id, len(cols))
		for k, c := range cols {
			projected[k] = row[c]
		}
		out[i] = projected
	}

	limit = len(out)
	if q.HasLimit {
		limit = q.Limit
	}
	offset = 0
	if q.HasOffset {
		offset = q.Offset
	}
	return out, limit, offset, nil
}

// renderRows slices [offset, offset+limit) out of rows and resolves each
// id back to its original string via d.
func renderRows(d *dict.Dict, rows [][]ids.Id, limit, offset int) [][]string {
	if offset > len(rows) {
		offset = len(rows)
	}
	end := offset + limit
	if end > len(rows) || limit < 0 {
		end = len(rows)
	}
	out := make([][]string, 0, end-offset)
	for _, row := range rows[offset:end] {
		rendered := make([]string, len(row))
		for i, id := range row {
			str, err := d.String(id)
			if err != nil {
				rendered[i] = fmt.Sprintf("_id:%d", id)
				continue
			}
			rendered[i] = str
		}
		out = append(out, rendered)
	}
	return out
}

func (s *Server) writeError(w http.ResponseWriter, start, end time.Time, queryString string, err error) {
	resp := errResponse{
		Query:      queryString,
		Status:     "ERROR",
		ResultSize: 0,
		Exception:  err.Error(),
		Time: timeInfo{
			Total:         msString(end.Sub(start)),
			ComputeResult: msString(end.Sub(start)),
		},
	}
	_ = json.NewEncoder(w).Encode(resp)
}
