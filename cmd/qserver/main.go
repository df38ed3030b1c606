// Command qserver starts the HTTP query endpoint (§4.M) over an
// existing Index Store. Adapted from cmd/trigo/main.go's "serve"
// subcommand, trimmed to the one thing it does (no "demo"/"query"
// in-process subcommands, since the Server now owns query handling).
package main

import (
	"flag"
	"log"
	"os"

	"github.com/brightlinq/qplan/internal/dict"
	"github.com/brightlinq/qplan/internal/evaluator"
	"github.com/brightlinq/qplan/internal/index"
	"github.com/brightlinq/qplan/internal/planner"
	"github.com/brightlinq/qplan/internal/server"
	"github.com/brightlinq/qplan/internal/tracer"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "address to listen on")
	indexPath := flag.String("index-path", "./qplan_data", "path to the Index Store directory")
	verbosity := flag.Int("verbosity", 0, "trace verbosity (1-3); 0 disables planner/evaluator tracing")
	flag.Parse()

	if *verbosity > 0 {
		tracer.SetVerbosity(*verbosity)
		planner.TraceWriter = os.Stderr
		evaluator.TraceWriter = os.Stderr
	}

	idx, err := index.Open(*indexPath)
	if err != nil {
		log.Fatalf("opening index store at %s: %v", *indexPath, err)
	}
	defer func() { _ = idx.Close() }()

	d := dict.New(idx.Storage())
	srv := server.New(idx, d, *addr)

	log.Printf("index store: %s", *indexPath)
	if err := srv.Start(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
