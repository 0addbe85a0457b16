// Package benchmark runs one compress, decompress and verify cycle of a
// cascaded engine over a dataset and reports sizes and throughput.
package benchmark

import (
	"fmt"

	"github.com/fxnlabs/cascaded-bench/internal/cascaded"
	"github.com/fxnlabs/cascaded-bench/internal/dataset"
	"github.com/fxnlabs/cascaded-bench/internal/gpu"
	"go.uber.org/zap"
)

// Options selects the input and pipeline shape of a run.
type Options struct {
	Filename string
	Type     cascaded.Type
	// Elements truncates the dataset; zero loads the whole file.
	Elements int64
	Format   cascaded.FormatOptions
	Sort     bool
}

// Driver sequences the benchmark stages on one backend and engine.
type Driver struct {
	backend gpu.GPUBackend
	engine  cascaded.Engine
	logger  *zap.Logger
}

// NewDriver creates a driver. The backend must already be initialized.
func NewDriver(backend gpu.GPUBackend, engine cascaded.Engine, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{backend: backend, engine: engine, logger: logger}
}

// Run executes one benchmark. The report is returned only when the
// decompressed data matched the input.
func (d *Driver) Run(opts Options) (*Report, error) {
	log := d.logger.With(zap.String("file", opts.Filename), zap.Stringer("type", opts.Type))

	ds, err := dataset.Load(opts.Filename, opts.Type, opts.Elements)
	if err != nil {
		return nil, &IOError{Path: opts.Filename, Err: err}
	}
	log.Info("loaded dataset", zap.Int("elements", ds.Len()), zap.Int64("bytes", ds.ByteSize()))
	if ce := log.Check(zap.DebugLevel, "dataset profile"); ce != nil {
		ce.Write(zap.Object("profile", ds.Profile()))
	}

	if err := CheckCapacity(d.backend, ds.ByteSize()); err != nil {
		return nil, err
	}

	if opts.Sort {
		ds.Sort()
	}

	stream, err := d.backend.CreateStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}
	defer func() {
		if err := stream.Destroy(); err != nil {
			log.Warn("failed to destroy stream", zap.Error(err))
		}
	}()

	x := &ExecContext{
		Backend: d.backend,
		Engine:  d.engine,
		Stream:  stream,
		Logger:  log,
	}

	log.Info("compressing", zap.Stringer("format", opts.Format))
	comp, err := Compress(x, ds, opts.Format)
	if err != nil {
		return nil, err
	}

	dec, err := Decompress(x, comp.Blob)
	if err != nil {
		return nil, err
	}

	if err := Verify(x, ds, dec.Output, dec.OutputBytes); err != nil {
		return nil, err
	}

	report := &Report{
		UncompressedBytes:     ds.ByteSize(),
		CompressedBytes:       comp.Blob.Bytes,
		CompressTempBytes:     comp.TempBytes,
		CompressOutputBytes:   comp.OutputBytes,
		Compression:           comp.Measurement,
		DecompressTempBytes:   dec.TempBytes,
		DecompressOutputBytes: dec.OutputBytes,
		Decompression:         dec.Measurement,
	}
	log.Info("benchmark verified",
		zap.Int64("compressed_bytes", report.CompressedBytes),
		zap.Float64("ratio", report.Ratio()),
		zap.Float64("compression_gbs", report.Compression.Throughput()),
		zap.Float64("decompression_gbs", report.Decompression.Throughput()))
	return report, nil
}
