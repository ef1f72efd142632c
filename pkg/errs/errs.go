package errs

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

const (
	traceSkip     = 3
	trackPrealloc = 50
)

type sFrame struct {
	filename string
	method   string
	line     int
}

type stack []sFrame

func (s stack) String() string {
	var b strings.Builder
	for _, f := range s {
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", f.method, f.filename, f.line)
	}
	return b.String()
}

type errorWithTrace struct {
	error

	trace stack
}

func (e *errorWithTrace) Unwrap() error { return e.error }

// NewStack attaches the caller's stack to err. Errors that already carry a
// trace are returned as is, so wrapping at every layer is safe.
func NewStack(err error) error {
	if err == nil {
		return nil
	}

	var errWT *errorWithTrace

	// Add trace only once
	if errors.As(err, &errWT) {
		return err
	}

	return &errorWithTrace{
		error: err,
		trace: stackTrace(traceSkip),
	}
}

// Stack returns the captured trace of err, or "" when it has none.
func Stack(err error) string {
	var errWT *errorWithTrace
	if errors.As(err, &errWT) {
		return errWT.trace.String()
	}
	return ""
}

func stackTrace(skip int) stack {
	pc := make([]uintptr, trackPrealloc)
	n := runtime.Callers(skip, pc)
	pc = pc[:n]

	frames := runtime.CallersFrames(pc)
	stack := make(stack, 0, n)

	for {
		frame, more := frames.Next()

		stack = append(stack, sFrame{filename: frame.File, method: frame.Function, line: frame.Line})

		if !more {
			break
		}
	}

	return stack
}
