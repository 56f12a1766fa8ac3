package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "printshop",
		Usage: "print shop back office: jobs, invoices, quotations and the customer portal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "path to the YAML config file",
				EnvVars: []string{"PRINTSHOP_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env",
				Value: ".env",
				Usage: "optional dotenv file loaded before the environment",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			seedCommand(),
			sweepCommand(),
			invoicePDFCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "printshop:", err)
		os.Exit(1)
	}
}
