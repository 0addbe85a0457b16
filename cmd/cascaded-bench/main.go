package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fxnlabs/cascaded-bench/internal/benchmark"
	"github.com/fxnlabs/cascaded-bench/internal/config"
	"github.com/fxnlabs/cascaded-bench/internal/logger"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// appState is filled in by the Before hook and shared by every command.
type appState struct {
	stdout io.Writer
	stderr io.Writer

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	st := &appState{stdout: stdout, stderr: stderr}
	app := newApp(st)

	err := app.Run(args)
	if st.logger != nil {
		_ = st.logger.Sync()
	}
	if err == nil {
		return 0
	}

	if st.logger != nil {
		st.logger.Error("benchmark failed", zap.String("outcome", benchmark.Outcome(err)), zap.Error(err))
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

func newApp(st *appState) *cli.App {
	return &cli.App{
		Name:      "cascaded-bench",
		Usage:     "Benchmark cascaded compression and decompression of a binary dataset",
		UsageText: "cascaded-bench -f FILE [-r RLES] [-d DELTAS] [-b BITPACK] [-t TYPE] [-z SIZE] [-g GPU] [-s] [-m]",
		Writer:    st.stdout,
		ErrWriter: st.stderr,
		Flags:     benchFlags(),
		Before: func(c *cli.Context) error {
			var err error
			st.cfg, err = loadConfig(c)
			if err != nil {
				return err
			}
			zapLogger, err := logger.New(st.cfg.Logger.Verbosity)
			if err != nil {
				return &benchmark.UsageError{Msg: "invalid verbosity", Err: err}
			}
			st.logger = zapLogger.Named("cli")
			return nil
		},
		Action: benchAction(st),
		Commands: []*cli.Command{
			configCommand(st),
		},
		OnUsageError: func(c *cli.Context, err error, isSubcommand bool) error {
			_ = cli.ShowAppHelp(c)
			return &benchmark.UsageError{Msg: "invalid arguments", Err: err}
		},
		// errors are reported once, by run
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

// loadConfig reads --config when given and applies flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	}
	if c.IsSet("verbosity") {
		cfg.Logger.Verbosity = c.String("verbosity")
	}
	if c.IsSet("backend") {
		cfg.Device.Backend = c.String("backend")
	}
	if c.IsSet("metrics-file") {
		cfg.Metrics.Textfile = c.String("metrics-file")
	}
	return cfg, nil
}

func usageError(c *cli.Context, msg string, err error) error {
	_ = cli.ShowAppHelp(c)
	if err == nil {
		return &benchmark.UsageError{Msg: msg}
	}
	return &benchmark.UsageError{Msg: msg, Err: err}
}
