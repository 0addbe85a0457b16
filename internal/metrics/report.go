package metrics

import (
	"github.com/fxnlabs/cascaded-bench/internal/benchmark"
	"github.com/prometheus/client_golang/prometheus"
)

// ObserveReport records the sizes and timings of a verified run.
func ObserveReport(r *benchmark.Report) {
	UncompressedBytes.Set(float64(r.UncompressedBytes))
	CompressedBytes.Set(float64(r.CompressedBytes))
	CompressionRatio.Set(r.Ratio())

	ThroughputGBps.WithLabelValues("compress").Set(r.Compression.Throughput())
	ThroughputGBps.WithLabelValues("decompress").Set(r.Decompression.Throughput())
	DurationSeconds.WithLabelValues("compress").Set(r.Compression.Elapsed().Seconds())
	DurationSeconds.WithLabelValues("decompress").Set(r.Decompression.Elapsed().Seconds())

	DeviceMemoryBytes.WithLabelValues("compress", "total").Set(float64(r.CompressionMemory()))
	DeviceMemoryBytes.WithLabelValues("compress", "temp").Set(float64(r.CompressTempBytes))
	DeviceMemoryBytes.WithLabelValues("compress", "output").Set(float64(r.CompressOutputBytes))
	DeviceMemoryBytes.WithLabelValues("decompress", "total").Set(float64(r.DecompressionMemory()))
	DeviceMemoryBytes.WithLabelValues("decompress", "temp").Set(float64(r.DecompressTempBytes))
	DeviceMemoryBytes.WithLabelValues("decompress", "output").Set(float64(r.DecompressOutputBytes))
}

// ObserveOutcome counts a finished run.
func ObserveOutcome(err error, backend string) {
	Runs.WithLabelValues(benchmark.Outcome(err), backend).Inc()
}

// WriteTextfile atomically writes every collector in Registry to path in the
// node exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
