//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/binary"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/fxnlabs/cascaded-bench/internal/benchmark"
	"github.com/fxnlabs/cascaded-bench/internal/cascaded"
	"github.com/fxnlabs/cascaded-bench/internal/config"
	"github.com/fxnlabs/cascaded-bench/internal/gpu"
	"github.com/fxnlabs/cascaded-bench/internal/logger"
	"github.com/fxnlabs/cascaded-bench/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func newPipeline(t *testing.T, cfg *config.Config) (*benchmark.Driver, *gpu.Manager) {
	var driver *benchmark.Driver
	var manager *gpu.Manager

	app := fxtest.New(t,
		fx.Provide(
			func() *config.Config { return cfg },
			func(cfg *config.Config) (*zap.Logger, error) {
				return logger.New(cfg.Logger.Verbosity)
			},
			func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gpu.Manager, error) {
				m, err := gpu.NewManager(log.Named("gpu"), gpu.Options{
					Backend:     cfg.Device.Backend,
					MemoryLimit: cfg.Device.MemoryLimit,
				})
				if err != nil {
					return nil, err
				}
				lc.Append(fx.Hook{OnStop: func(context.Context) error { return m.Cleanup() }})
				return m, nil
			},
			func(m *gpu.Manager, cfg *config.Config, log *zap.Logger) (cascaded.Engine, error) {
				return cascaded.NewEngine(m.GetBackend(), log.Named("engine"), cascaded.HostOptions{
					ChunkElements: cfg.Engine.ChunkElements,
					Workers:       cfg.Engine.Workers,
				})
			},
			func(m *gpu.Manager, engine cascaded.Engine, log *zap.Logger) *benchmark.Driver {
				return benchmark.NewDriver(m.GetBackend(), engine, log.Named("driver"))
			},
		),
		fx.Populate(&driver, &manager),
	)

	app.RequireStart()
	t.Cleanup(app.RequireStop)
	return driver, manager
}

func writeDataset(t *testing.T, elements int, w int, seed int64) string {
	rng := rand.New(rand.NewSource(seed))
	data := make([]byte, elements*w)
	v := uint64(0)
	for i := 0; i < elements; i++ {
		if rng.Intn(8) == 0 {
			v += uint64(rng.Intn(1000))
		}
		switch w {
		case 1:
			data[i] = byte(v)
		case 2:
			binary.LittleEndian.PutUint16(data[2*i:], uint16(v))
		case 4:
			binary.LittleEndian.PutUint32(data[4*i:], uint32(v))
		default:
			binary.LittleEndian.PutUint64(data[8*i:], v)
		}
	}
	path := filepath.Join(t.TempDir(), "dataset.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestPipeline_EndToEnd(t *testing.T) {
	cfg := config.Default()
	cfg.Device.Backend = gpu.BackendCPU
	cfg.Engine.ChunkElements = 1 << 12
	driver, manager := newPipeline(t, cfg)
	backend := manager.GetBackend().(*gpu.CPUBackend)

	formats := []cascaded.FormatOptions{
		cascaded.DefaultFormatOptions(),
		{NumRLEs: 2, NumDeltas: 1, UseBitPacking: true},
		{NumDeltas: 2, UseBitPacking: true},
	}
	for _, typ := range []cascaded.Type{cascaded.TypeChar, cascaded.TypeShort, cascaded.TypeInt, cascaded.TypeLongLong} {
		path := writeDataset(t, 100_000, typ.Size(), int64(typ))
		for _, format := range formats {
			t.Run(typ.String()+"/"+format.String(), func(t *testing.T) {
				report, err := driver.Run(benchmark.Options{
					Filename: path,
					Type:     typ,
					Format:   format,
				})
				require.NoError(t, err)
				assert.Equal(t, int64(100_000*typ.Size()), report.UncompressedBytes)
				assert.LessOrEqual(t, report.CompressedBytes, report.CompressOutputBytes)
				assert.Zero(t, backend.LiveBuffers())

				metrics.ObserveReport(report)
				assert.Equal(t, report.Ratio(), testutil.ToFloat64(metrics.CompressionRatio))

				var out bytes.Buffer
				require.NoError(t, report.Emit(&out, true))
				assert.Contains(t, out.String(), "comp_size: ")
			})
		}
	}
}

func TestPipeline_CapacityGuard(t *testing.T) {
	cfg := config.Default()
	cfg.Device.Backend = gpu.BackendCPU
	cfg.Device.MemoryLimit = 1024
	driver, manager := newPipeline(t, cfg)

	path := writeDataset(t, 1024, 4, 1)
	_, err := driver.Run(benchmark.Options{
		Filename: path,
		Type:     cascaded.TypeInt,
		Format:   cascaded.DefaultFormatOptions(),
	})
	assert.Equal(t, "insufficient_resource", benchmark.Outcome(err))
	assert.Zero(t, manager.GetBackend().(*gpu.CPUBackend).Peak())
}
