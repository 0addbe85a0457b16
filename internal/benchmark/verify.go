package benchmark

import (
	"bytes"
	"fmt"

	"github.com/fxnlabs/cascaded-bench/internal/dataset"
	"github.com/fxnlabs/cascaded-bench/internal/gpu"
)

// Verify compares the decompressed buffer against ds and releases out.
func Verify(x *ExecContext, ds *dataset.Dataset, out gpu.Buffer, outBytes int64) error {
	defer x.free(out)

	if outBytes != ds.ByteSize() {
		return &CorruptionError{Index: -1, ExpectedBytes: ds.ByteSize(), ActualBytes: outBytes}
	}

	result := make([]byte, outBytes)
	if err := x.Backend.CopyDeviceToHost(result, out); err != nil {
		return fmt.Errorf("failed to copy decompressed data to host: %w", err)
	}
	if bytes.Equal(result, ds.Bytes()) {
		return nil
	}

	got, err := dataset.New(result, ds.Type())
	if err != nil {
		return err
	}
	for i := 0; i < ds.Len(); i++ {
		if want, have := ds.Element(i), got.Element(i); want != have {
			return &CorruptionError{
				Index:         i,
				Expected:      want,
				Actual:        have,
				ExpectedBytes: ds.ByteSize(),
				ActualBytes:   outBytes,
			}
		}
	}
	return nil
}
