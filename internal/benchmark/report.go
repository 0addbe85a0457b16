package benchmark

import (
	"bytes"
	"fmt"
	"io"
)

// Report holds the sizes and timings of one verified run.
type Report struct {
	UncompressedBytes int64
	CompressedBytes   int64

	CompressTempBytes   int64
	CompressOutputBytes int64
	Compression         Measurement

	DecompressTempBytes   int64
	DecompressOutputBytes int64
	Decompression         Measurement
}

// Ratio is uncompressed size over compressed size.
func (r *Report) Ratio() float64 {
	if r.CompressedBytes == 0 {
		return 0
	}
	return float64(r.UncompressedBytes) / float64(r.CompressedBytes)
}

// CompressionMemory is the device memory held while compressing.
func (r *Report) CompressionMemory() int64 {
	return r.UncompressedBytes + r.CompressOutputBytes + r.CompressTempBytes
}

// DecompressionMemory is the device memory held while decompressing.
func (r *Report) DecompressionMemory() int64 {
	return r.DecompressOutputBytes + r.CompressedBytes + r.DecompressTempBytes
}

// Emit writes the report. verbose adds the per-stage memory breakdown.
func (r *Report) Emit(w io.Writer, verbose bool) error {
	var b bytes.Buffer
	fmt.Fprintln(&b, "----------")
	fmt.Fprintf(&b, "uncompressed (B): %d\n", r.UncompressedBytes)
	if verbose {
		fmt.Fprintf(&b, "compression memory (input+output+temp) (B): %d\n", r.CompressionMemory())
		fmt.Fprintf(&b, "compression temp space (B): %d\n", r.CompressTempBytes)
		fmt.Fprintf(&b, "compression output space (B): %d\n", r.CompressOutputBytes)
	}
	fmt.Fprintf(&b, "comp_size: %d, compressed ratio: %.2f\n", r.CompressedBytes, r.Ratio())
	fmt.Fprintf(&b, "compression throughput (GB/s): %.2f\n", r.Compression.Throughput())
	if verbose {
		fmt.Fprintf(&b, "decompression memory (input+output+temp) (B): %d\n", r.DecompressionMemory())
		fmt.Fprintf(&b, "decompression temp space (B): %d\n", r.DecompressTempBytes)
		fmt.Fprintf(&b, "decompression output space (B): %d\n", r.DecompressOutputBytes)
	}
	fmt.Fprintf(&b, "decompression throughput (GB/s): %.2f\n", r.Decompression.Throughput())

	_, err := w.Write(b.Bytes())
	return err
}
