package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the benchmark collectors only, so exported textfiles do not
// carry Go runtime metrics.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	UncompressedBytes = factory.NewGauge(prometheus.GaugeOpts{
		Name: "cascaded_bench_uncompressed_bytes",
		Help: "Size of the benchmarked dataset in bytes",
	})

	CompressedBytes = factory.NewGauge(prometheus.GaugeOpts{
		Name: "cascaded_bench_compressed_bytes",
		Help: "Size of the compressed blob in bytes",
	})

	CompressionRatio = factory.NewGauge(prometheus.GaugeOpts{
		Name: "cascaded_bench_compression_ratio",
		Help: "Uncompressed size divided by compressed size",
	})

	ThroughputGBps = factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cascaded_bench_throughput_gbps",
		Help: "Throughput of the last run in GB/s",
	}, []string{"direction"})

	DurationSeconds = factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cascaded_bench_duration_seconds",
		Help: "Duration of the timed window of the last run",
	}, []string{"direction"})

	DeviceMemoryBytes = factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cascaded_bench_device_memory_bytes",
		Help: "Device memory requested by each stage",
	}, []string{"stage", "kind"})

	Runs = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "cascaded_bench_runs_total",
		Help: "Benchmark runs by outcome and backend",
	}, []string{"outcome", "backend"})
)
