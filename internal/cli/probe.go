package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/CDTO-DENKART/app-visualizer/internal/probe"
)

type probeResult struct {
	URL       string `json:"url" yaml:"url"`
	Available *bool  `json:"available" yaml:"available"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

func probeCmd() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     "Check whether a URL answers",
		ArgsUsage: "<url>",
		Flags: []cli.Flag{
			formatFlag(),
			insecureFlag(),
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "probe timeout",
				Value: probe.DefaultTimeout,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("expected exactly one url, got %d arguments", cmd.NArg())
			}
			format, err := parseFormat(cmd.String("format"))
			if err != nil {
				return err
			}

			url := cmd.Args().First()
			res := probe.NewHTTPProber(cmd.Bool("insecure")).Probe(ctx, url, cmd.Duration("timeout"))
			if err := encode(cmd.Root().Writer, format, probeResult{URL: url, Available: res.Available, Error: res.Error}); err != nil {
				return err
			}

			if res.Available != nil && !*res.Available {
				return fmt.Errorf("%s is unreachable: %s", url, res.Error)
			}
			return nil
		},
	}
}
