package benchmark

import (
	"errors"
	"fmt"

	"github.com/fxnlabs/cascaded-bench/internal/cascaded"
	"github.com/fxnlabs/cascaded-bench/internal/gpu"
	"go.uber.org/zap"
)

// ExecContext is the device, engine and stream one run executes on.
type ExecContext struct {
	Backend gpu.GPUBackend
	Engine  cascaded.Engine
	Stream  gpu.Stream
	Logger  *zap.Logger
}

func (x *ExecContext) malloc(what string, size int64) (gpu.Buffer, error) {
	buf, err := x.Backend.Malloc(size)
	if err != nil {
		if errors.Is(err, gpu.ErrOutOfMemory) {
			return nil, &InsufficientResourceError{What: what, Required: size, Err: err}
		}
		return nil, fmt.Errorf("failed to allocate %s: %w", what, err)
	}
	x.Logger.Debug("allocated device buffer", zap.String("buffer", what), zap.Int64("bytes", size))
	return buf, nil
}

// free releases buffers, logging failures since there is nothing a caller
// can do about them.
func (x *ExecContext) free(bufs ...gpu.Buffer) {
	for _, buf := range bufs {
		if buf == nil {
			continue
		}
		if err := x.Backend.Free(buf); err != nil {
			x.Logger.Warn("failed to free device buffer", zap.Int64("bytes", buf.Size()), zap.Error(err))
		}
	}
}
