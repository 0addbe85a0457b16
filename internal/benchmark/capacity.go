package benchmark

import (
	"fmt"

	"github.com/fxnlabs/cascaded-bench/internal/gpu"
)

// CheckCapacity fails when the device reports less free memory than required.
// It only screens out datasets that cannot possibly fit; later allocations
// may still fail.
func CheckCapacity(backend gpu.GPUBackend, required int64) error {
	free, _, err := backend.MemGetInfo()
	if err != nil {
		return fmt.Errorf("failed to query device memory: %w", err)
	}
	if free < required {
		return &InsufficientResourceError{What: "dataset", Required: required, Free: free}
	}
	return nil
}
