package planner

import (
	"fmt"
	"io"

	"github.com/brightlinq/qplan/internal/tracer"
)

// TraceWriter receives the planner's trace events if non-nil. nil (the
// default) makes tracing a no-op, matching badwolf's tracer.V(n).Trace
// convention of gating on both verbosity and a possibly-nil writer.
var TraceWriter io.Writer

func trace(v int, format string, args ...any) {
	tracer.V(v).Trace(TraceWriter, func() *tracer.Arguments {
		return &tracer.Arguments{Msgs: []string{fmt.Sprintf(format, args...)}}
	})
}
