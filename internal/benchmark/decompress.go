package benchmark

import (
	"time"

	"github.com/fxnlabs/cascaded-bench/internal/cascaded"
	"github.com/fxnlabs/cascaded-bench/internal/gpu"
	"go.uber.org/zap"
)

// DecompressResult is the outcome of one decompression pass. Output belongs
// to the caller.
type DecompressResult struct {
	Output      gpu.Buffer
	OutputBytes int64
	TempBytes   int64
	Measurement Measurement
}

// Decompress takes ownership of blob and decompresses it into a new buffer
// of exactly the size the blob's metadata reports. The blob, its metadata and
// the temp space are released before returning.
func Decompress(x *ExecContext, blob CompressedBlob) (*DecompressResult, error) {
	defer x.free(blob.Buffer)

	meta, err := x.Engine.DecompressGetMetadata(blob.Buffer, blob.Bytes, x.Stream)
	if err != nil {
		return nil, engineError(cascaded.OpDecompressGetMetadata, err)
	}
	defer x.Engine.DecompressDestroyMetadata(meta)

	tempBytes, err := x.Engine.DecompressGetTempSize(meta)
	if err != nil {
		return nil, engineError(cascaded.OpDecompressGetTempSize, err)
	}
	temp, err := x.malloc("decompression temp space", tempBytes)
	if err != nil {
		return nil, err
	}
	defer x.free(temp)

	outBytes, err := x.Engine.DecompressGetOutputSize(meta)
	if err != nil {
		return nil, engineError(cascaded.OpDecompressGetOutputSize, err)
	}
	out, err := x.malloc("decompression output", outBytes)
	if err != nil {
		return nil, err
	}
	handedOff := false
	defer func() {
		if !handedOff {
			x.free(out)
		}
	}()

	start := time.Now()
	if err := x.Engine.DecompressAsync(blob.Buffer, blob.Bytes, temp, tempBytes, meta, out, outBytes, x.Stream); err != nil {
		return nil, engineError(cascaded.OpDecompressAsync, err)
	}
	if err := x.Stream.Synchronize(); err != nil {
		return nil, engineError(cascaded.OpDecompressAsync, err)
	}
	end := time.Now()

	res := &DecompressResult{
		Output:      out,
		OutputBytes: outBytes,
		TempBytes:   tempBytes,
		Measurement: Measurement{Start: start, End: end, Bytes: outBytes},
	}
	x.Logger.Debug("decompression finished",
		zap.Int64("in_bytes", blob.Bytes),
		zap.Int64("temp_bytes", tempBytes),
		zap.Int64("out_bytes", outBytes),
		zap.Duration("elapsed", res.Measurement.Elapsed()))

	handedOff = true
	return res, nil
}
