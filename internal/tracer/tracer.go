// Package tracer implements lazy, verbosity-gated execution tracing for
// the planner and evaluator. Message construction is deferred to a
// closure so that tracing has near-zero cost when verbosity is low.
package tracer

import (
	"io"
	"time"
)

// Arguments encapsulates the trace lines produced by a single event.
type Arguments struct {
	Msgs []string
}

type event struct {
	w    io.Writer
	t    time.Time
	args func() *Arguments
}

// MessageTracer carries the verbosity of one tracing call site.
type MessageTracer struct {
	verbosity int
}

var verbosity int
var events chan *event

func init() {
	verbosity = 1
	events = make(chan *event, 4096)

	go func() {
		for e := range events {
			for _, msg := range e.args().Msgs {
				_, _ = e.w.Write([]byte("["))
				_, _ = e.w.Write([]byte(e.t.Format(time.RFC3339Nano)))
				_, _ = e.w.Write([]byte("] "))
				_, _ = e.w.Write([]byte(msg))
				_, _ = e.w.Write([]byte("\n"))
			}
		}
	}()
}

// SetVerbosity sets the global verbosity (clamped to [1,3]) and returns
// the value actually set.
func SetVerbosity(v int) int {
	if v < 1 {
		v = 1
	} else if v > 3 {
		v = 3
	}
	verbosity = v
	return verbosity
}

// V returns a MessageTracer gated at the given verbosity (clamped [1,3]).
// 1 is always traced; 3 only under maximum global verbosity.
func V(v int) MessageTracer {
	if v < 1 {
		v = 1
	} else if v > 3 {
		v = 3
	}
	return MessageTracer{v}
}

func (t MessageTracer) isTraceable() bool {
	return t.verbosity <= verbosity
}

// Trace enqueues a lazily-built trace message if w is non-nil and the
// current global verbosity admits this call site.
func (t MessageTracer) Trace(w io.Writer, args func() *Arguments) {
	if w == nil || !t.isTraceable() {
		return
	}
	events <- &event{w, time.Now(), args}
}
