package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Eyevinn/renditionsync/internal"
	"github.com/urfave/cli/v3"
)

const (
	appName = "rsplay"
)

func newApp(r *runner) *cli.Command {
	return &cli.Command{
		Name:    appName,
		Usage:   "Exercise alternate-rendition switching on a media manifest",
		Version: internal.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to TOML configuration file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format (text, json)",
			},
		},
		Before:   r.setup,
		Commands: r.register(),
	}
}

func main() {
	app := newApp(&runner{})
	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
