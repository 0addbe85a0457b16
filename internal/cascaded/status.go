package cascaded

import (
	"errors"
	"fmt"
)

// Status mirrors the status codes reported by the compression engine.
type Status int

const (
	StatusSuccess Status = iota
	StatusInvalidValue
	StatusNotSupported
	StatusCannotDecompress
	StatusCUDAError
	StatusInternal
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusInvalidValue:
		return "invalid value"
	case StatusNotSupported:
		return "not supported"
	case StatusCannotDecompress:
		return "cannot decompress"
	case StatusCUDAError:
		return "cuda error"
	case StatusInternal:
		return "internal error"
	default:
		return fmt.Sprintf("status %d", int(s))
	}
}

// Error is a non-success status returned by an engine operation.
type Error struct {
	Op     string
	Status Status
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Status, e.Detail)
}

func newError(op string, status Status, format string, args ...interface{}) error {
	return &Error{Op: op, Status: status, Detail: fmt.Sprintf(format, args...)}
}

// StatusOf extracts the engine status from err.
func StatusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return engineErr.Status
	}
	return StatusInternal
}

// Engine operation names, used in errors and logs
const (
	OpCompressGetTempSize       = "CompressGetTempSize"
	OpCompressGetOutputSize     = "CompressGetOutputSize"
	OpCompressAsync             = "CompressAsync"
	OpDecompressGetMetadata     = "DecompressGetMetadata"
	OpDecompressGetTempSize     = "DecompressGetTempSize"
	OpDecompressGetOutputSize   = "DecompressGetOutputSize"
	OpDecompressAsync           = "DecompressAsync"
	OpDecompressDestroyMetadata = "DecompressDestroyMetadata"
)
