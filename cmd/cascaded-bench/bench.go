package main

import (
	"errors"
	"fmt"

	"github.com/common-nighthawk/go-figure"
	"github.com/fxnlabs/cascaded-bench/internal/benchmark"
	"github.com/fxnlabs/cascaded-bench/internal/cascaded"
	"github.com/fxnlabs/cascaded-bench/internal/gpu"
	"github.com/fxnlabs/cascaded-bench/internal/metrics"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func benchOptions(c *cli.Context) (benchmark.Options, error) {
	filename := c.String("filename")
	if filename == "" {
		return benchmark.Options{}, usageError(c, "missing required -f/--filename", nil)
	}
	typ, err := cascaded.ParseType(c.String("type"))
	if err != nil {
		return benchmark.Options{}, usageError(c, "invalid -t/--type", err)
	}
	size := c.Int64("size")
	if size < 0 {
		return benchmark.Options{}, usageError(c, fmt.Sprintf("invalid -z/--size %d", size), nil)
	}

	return benchmark.Options{
		Filename: filename,
		Type:     typ,
		Elements: size,
		Format: cascaded.FormatOptions{
			NumRLEs:       c.Int("rles"),
			NumDeltas:     c.Int("deltas"),
			UseBitPacking: c.Int("bitpack") != 0,
		},
		Sort: c.Bool("sort"),
	}, nil
}

func benchAction(st *appState) cli.ActionFunc {
	return func(c *cli.Context) error {
		opts, err := benchOptions(c)
		if err != nil {
			return err
		}
		cfg := st.cfg
		log := st.logger

		manager, err := gpu.NewManager(log.Named("gpu"), gpu.Options{
			Backend:     cfg.Device.Backend,
			Ordinal:     c.Int("gpu"),
			MemoryLimit: cfg.Device.MemoryLimit,
		})
		if err != nil {
			if errors.Is(err, gpu.ErrInvalidDevice) {
				return usageError(c, fmt.Sprintf("invalid -g/--gpu %d", c.Int("gpu")), err)
			}
			return fmt.Errorf("failed to open device: %w", err)
		}
		defer func() {
			if err := manager.Cleanup(); err != nil {
				log.Warn("failed to release device", zap.Error(err))
			}
		}()

		info := manager.GetDeviceInfo()
		log.Info("device selected",
			zap.String("backend", manager.GetBackendType()),
			zap.String("device", info.Name),
			zap.Int("ordinal", info.Ordinal),
			zap.String("total_memory", gpu.FormatBytes(info.TotalMemory)))

		if c.Bool("banner") {
			fmt.Fprintln(st.stdout, figure.NewFigure("cascaded", "", true).String())
			fmt.Fprintf(st.stdout, "Device: %s (%s)\n", info.Name, manager.GetBackendType())
		}

		backend := manager.GetBackend()
		engine, err := cascaded.NewEngine(backend, log.Named("engine"), cascaded.HostOptions{
			ChunkElements: cfg.Engine.ChunkElements,
			Workers:       cfg.Engine.Workers,
		})
		if err != nil {
			return err
		}

		driver := benchmark.NewDriver(backend, engine, log.Named("driver"))
		report, err := driver.Run(opts)
		metrics.ObserveOutcome(err, manager.GetBackendType())
		if err == nil {
			metrics.ObserveReport(report)
			err = report.Emit(st.stdout, c.Bool("memory"))
		}

		if path := cfg.Metrics.Textfile; path != "" {
			if werr := metrics.WriteTextfile(path); werr != nil {
				log.Warn("failed to write metrics textfile", zap.String("path", path), zap.Error(werr))
			}
		}
		return err
	}
}
