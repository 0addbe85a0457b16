package benchmark

import (
	"errors"
	"fmt"

	"github.com/fxnlabs/cascaded-bench/internal/cascaded"
	"github.com/fxnlabs/cascaded-bench/internal/gpu"
)

// IOError reports that the dataset could not be read.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to load dataset %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// InsufficientResourceError reports that the device cannot hold the data.
// It is raised by the capacity pre-check and by failed device allocations.
type InsufficientResourceError struct {
	What     string
	Required int64
	Free     int64
	Err      error
}

func (e *InsufficientResourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("insufficient device memory for %s (%d B): %v", e.What, e.Required, e.Err)
	}
	return fmt.Sprintf("insufficient device memory for %s: need %s, %s free",
		e.What, gpu.FormatBytes(e.Required), gpu.FormatBytes(e.Free))
}

func (e *InsufficientResourceError) Unwrap() error { return e.Err }

// EngineError reports a non-success status from a compression engine call.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s not successful: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// Status returns the engine status code behind the failure.
func (e *EngineError) Status() cascaded.Status {
	return cascaded.StatusOf(e.Err)
}

// CorruptionError reports that the round trip did not reproduce the input.
type CorruptionError struct {
	// Index is the first mismatching element, or -1 for a size mismatch.
	Index         int
	Expected      int64
	Actual        int64
	ExpectedBytes int64
	ActualBytes   int64
}

func (e *CorruptionError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("decompressed result incorrect size: got %d B, want %d B", e.ActualBytes, e.ExpectedBytes)
	}
	return fmt.Sprintf("failed to verify decompressed data at element %d: got %d, want %d", e.Index, e.Actual, e.Expected)
}

// UsageError reports missing or invalid command line arguments.
type UsageError struct {
	Msg string
	Err error
}

func (e *UsageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *UsageError) Unwrap() error { return e.Err }

// Outcome classifies err for logs and metrics.
func Outcome(err error) string {
	var (
		ioErr      *IOError
		resErr     *InsufficientResourceError
		engineErr  *EngineError
		corruptErr *CorruptionError
		usageErr   *UsageError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &usageErr):
		return "usage_error"
	case errors.As(err, &ioErr):
		return "io_error"
	case errors.As(err, &resErr):
		return "insufficient_resource"
	case errors.As(err, &engineErr):
		return "engine_error"
	case errors.As(err, &corruptErr):
		return "corruption"
	default:
		return "error"
	}
}

// engineError tags err with the engine operation that failed. Errors the
// engine raised itself keep their own operation name.
func engineError(op string, err error) error {
	var e *cascaded.Error
	if errors.As(err, &e) {
		op = e.Op
	}
	return &EngineError{Op: op, Err: err}
}
