package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func (r *runner) register() []*cli.Command {
	return []*cli.Command{
		simulateCommand(r),
		probeCommand(r),
		resyncCommand(r),
		versionCommand(r),
	}
}

// simulateCommand replays toggle steps against a simulated element
func simulateCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:      "simulate",
		Usage:     "Play a manifest on a simulated element and apply rendition steps",
		ArgsUsage: "<manifest.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "item",
				Usage: "Name of the item to start with (default first item)",
			},
			&cli.DurationFlag{
				Name:  "at",
				Usage: "Playback position when the first step runs",
			},
			&cli.StringSliceFlag{
				Name:    "step",
				Aliases: []string{"s"},
				Usage: "Step to apply, in order: enable:<family>[:<lang>], disable:<family>, " +
					"toggle:<family>, lang:<family>:<lang>, advance:<duration>, next",
			},
			&cli.DurationFlag{
				Name:  "settle",
				Usage: "Maximum time to wait for each step to settle",
				Value: 30 * time.Second,
			},
		},
		Action: r.Simulate,
	}
}

// probeCommand validates the alternate resources of a manifest
func probeCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     "Check that described and sign-language resources of a manifest exist",
		ArgsUsage: "<manifest.json>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output JSON",
			},
		},
		Action: r.Probe,
	}
}

// resyncCommand maps a time between two caption files
func resyncCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:      "resync",
		Usage:     "Map a playback time from one caption file onto another",
		ArgsUsage: "<source captions> <target captions>",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:     "at",
				Usage:    "Playback position in the source rendition",
				Required: true,
			},
		},
		Action: r.Resync,
	}
}

func versionCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Print version",
		Action: r.Version,
	}
}
