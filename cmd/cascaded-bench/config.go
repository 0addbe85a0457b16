package main

import (
	"github.com/fxnlabs/cascaded-bench/fixtures"
	"github.com/urfave/cli/v2"
)

func configCommand(st *appState) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the default configuration file",
		Action: func(c *cli.Context) error {
			_, err := st.stdout.Write(fixtures.ConfigTemplate)
			return err
		},
	}
}
