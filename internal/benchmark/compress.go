package benchmark

import (
	"fmt"
	"time"

	"github.com/fxnlabs/cascaded-bench/internal/cascaded"
	"github.com/fxnlabs/cascaded-bench/internal/dataset"
	"github.com/fxnlabs/cascaded-bench/internal/gpu"
	"go.uber.org/zap"
)

// CompressedBlob is a device buffer holding Bytes of compressed data. The
// buffer may be larger than Bytes.
type CompressedBlob struct {
	Buffer gpu.Buffer
	Bytes  int64
}

// CompressResult is the outcome of one compression pass.
type CompressResult struct {
	Blob        CompressedBlob
	TempBytes   int64
	OutputBytes int64
	Measurement Measurement
}

// Compress uploads ds and compresses it with opts. The input buffer and temp
// space are released before returning; the blob buffer belongs to the caller
// on success and is released on failure.
func Compress(x *ExecContext, ds *dataset.Dataset, opts cascaded.FormatOptions) (*CompressResult, error) {
	inBytes := ds.ByteSize()
	typ := ds.Type()

	in, err := x.malloc("compression input", inBytes)
	if err != nil {
		return nil, err
	}
	defer x.free(in)
	if err := x.Backend.CopyHostToDevice(in, ds.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to copy dataset to device: %w", err)
	}

	tempBytes, err := x.Engine.CompressGetTempSize(in, inBytes, typ, opts)
	if err != nil {
		return nil, engineError(cascaded.OpCompressGetTempSize, err)
	}
	temp, err := x.malloc("compression temp space", tempBytes)
	if err != nil {
		return nil, err
	}
	defer x.free(temp)

	bound, err := x.Engine.CompressGetOutputSize(in, inBytes, typ, opts, temp, tempBytes)
	if err != nil {
		return nil, engineError(cascaded.OpCompressGetOutputSize, err)
	}
	out, err := x.malloc("compression output", bound)
	if err != nil {
		return nil, err
	}
	handedOff := false
	defer func() {
		if !handedOff {
			x.free(out)
		}
	}()

	outBytes := bound
	start := time.Now()
	if err := x.Engine.CompressAsync(in, inBytes, typ, opts, temp, tempBytes, out, &outBytes, x.Stream); err != nil {
		return nil, engineError(cascaded.OpCompressAsync, err)
	}
	if err := x.Stream.Synchronize(); err != nil {
		return nil, engineError(cascaded.OpCompressAsync, err)
	}
	end := time.Now()

	if outBytes <= 0 || outBytes > bound {
		return nil, engineError(cascaded.OpCompressAsync,
			fmt.Errorf("compressed size %d outside the negotiated bound %d", outBytes, bound))
	}

	res := &CompressResult{
		Blob:        CompressedBlob{Buffer: out, Bytes: outBytes},
		TempBytes:   tempBytes,
		OutputBytes: bound,
		Measurement: Measurement{Start: start, End: end, Bytes: inBytes},
	}
	x.Logger.Debug("compression finished",
		zap.Int64("in_bytes", inBytes),
		zap.Int64("temp_bytes", tempBytes),
		zap.Int64("bound_bytes", bound),
		zap.Int64("out_bytes", outBytes),
		zap.Duration("elapsed", res.Measurement.Elapsed()))

	handedOff = true
	return res, nil
}
