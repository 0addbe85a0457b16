//go:build !cuda
// +build !cuda

package cascaded

import (
	"fmt"

	"github.com/fxnlabs/cascaded-bench/internal/gpu"
	"go.uber.org/zap"
)

// newNvcompEngine is unavailable when the cuda build tag is not present
func newNvcompEngine(logger *zap.Logger) (Engine, error) {
	return nil, fmt.Errorf("nvcomp engine: %w", gpu.ErrBackendUnavailable)
}
