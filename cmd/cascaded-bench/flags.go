package main

import (
	"github.com/urfave/cli/v2"
)

func benchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "filename",
			Aliases: []string{"f", "file"},
			Usage:   "Binary dataset filename (required)",
		},
		&cli.IntFlag{
			Name:    "rles",
			Aliases: []string{"r"},
			Value:   1,
			Usage:   "Number of RLEs",
		},
		&cli.IntFlag{
			Name:    "deltas",
			Aliases: []string{"d"},
			Value:   0,
			Usage:   "Number of deltas",
		},
		&cli.IntFlag{
			Name:    "bitpack",
			Aliases: []string{"b"},
			Value:   0,
			Usage:   "Bit-packing enabled when non-zero",
		},
		&cli.StringFlag{
			Name:    "type",
			Aliases: []string{"t"},
			Value:   "int",
			Usage:   "Datatype (int8, short, int or long)",
		},
		&cli.Int64Flag{
			Name:    "size",
			Aliases: []string{"z"},
			Value:   0,
			Usage:   "Elements to compress (0 is the entire file)",
		},
		&cli.IntFlag{
			Name:    "gpu",
			Aliases: []string{"g"},
			Value:   0,
			Usage:   "Device number",
		},
		&cli.BoolFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "Sort the dataset before compression",
		},
		&cli.BoolFlag{
			Name:    "memory",
			Aliases: []string{"m"},
			Usage:   "Output device memory allocation sizes",
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Path to a YAML config file",
			EnvVars: []string{"CASCADED_BENCH_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "verbosity",
			Usage: "Log level (debug, info, warn, error)",
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: "Device backend (auto, cpu or cuda)",
		},
		&cli.StringFlag{
			Name:  "metrics-file",
			Usage: "Write prometheus metrics to this textfile after the run",
		},
		&cli.BoolFlag{
			Name:  "banner",
			Usage: "Print a banner and the selected device before the report",
		},
	}
}
