package evaluator

import (
	"fmt"
	"io"

	"github.com/brightlinq/qplan/internal/tracer"
)

// TraceWriter receives the evaluator's trace events if non-nil, mirroring
// planner.TraceWriter: nil keeps tracing a no-op.
var TraceWriter io.Writer

func trace(v int, format string, args ...any) {
	tracer.V(v).Trace(TraceWriter, func() *tracer.Arguments {
		return &tracer.Arguments{Msgs: []string{fmt.Sprintf(format, args...)}}
	})
}
