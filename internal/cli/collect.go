package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/CDTO-DENKART/app-visualizer/internal/domain"
	"github.com/CDTO-DENKART/app-visualizer/internal/domains"
	"github.com/CDTO-DENKART/app-visualizer/internal/inventory"
	"github.com/CDTO-DENKART/app-visualizer/internal/probe"
	"github.com/CDTO-DENKART/app-visualizer/internal/rules"
)

func collectCmd() *cli.Command {
	return &cli.Command{
		Name:  "collect",
		Usage: "Run one collection pass and print the snapshot",
		Description: `Queries docker, lxc and the host listening sockets, enriches every
record with its domains and reachability and prints the snapshot.

  appvisctl collect --format yaml
  appvisctl collect --backend lxd --no-probe -o snapshot.json`,
		Flags: []cli.Flag{
			formatFlag(),
			outputFlag(),
			domainsFlag(),
			insecureFlag(),
			&cli.StringFlag{
				Name:    "rules",
				Usage:   "rule tables yaml (built-in when empty)",
				Sources: cli.EnvVars("APPVIS_RULES_FILE"),
			},
			&cli.StringFlag{
				Name:    "host-address",
				Usage:   "pin the host address instead of detecting it",
				Sources: cli.EnvVars("APPVIS_HOST_ADDRESS"),
			},
			&cli.StringSliceFlag{
				Name:  "backend",
				Usage: "restrict collection to docker, lxd or host (repeatable)",
			},
			&cli.DurationFlag{
				Name:    "command-timeout",
				Usage:   "timeout of each external command",
				Value:   5 * time.Second,
				Sources: cli.EnvVars("APPVIS_COMMAND_TIMEOUT"),
			},
			&cli.DurationFlag{
				Name:    "probe-timeout",
				Usage:   "timeout of each reachability probe",
				Value:   probe.DefaultTimeout,
				Sources: cli.EnvVars("APPVIS_PROBE_TIMEOUT"),
			},
			&cli.IntFlag{
				Name:    "probe-workers",
				Usage:   "concurrent reachability probes",
				Value:   8,
				Sources: cli.EnvVars("APPVIS_PROBE_WORKERS"),
			},
			&cli.BoolFlag{
				Name:  "no-probe",
				Usage: "skip reachability probes",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := parseFormat(cmd.String("format"))
			if err != nil {
				return err
			}

			log := newLogger(cmd.Root())

			ruleSet, err := rules.Load(cmd.String("rules"))
			if err != nil {
				return fmt.Errorf("failed to load rules: %w", err)
			}
			dir, err := domains.Load(cmd.String("domains"))
			if err != nil {
				return fmt.Errorf("failed to load domains: %w", err)
			}

			backends, err := parseBackends(cmd.StringSlice("backend"))
			if err != nil {
				return err
			}

			var prober probe.Prober
			if !cmd.Bool("no-probe") {
				prober = probe.NewHTTPProber(cmd.Bool("insecure"))
			}

			inv := inventory.Setup{
				Runner:         newRunner(log),
				Rules:          ruleSet,
				Domains:        dir,
				Prober:         prober,
				Backends:       backends,
				HostAddress:    cmd.String("host-address"),
				CommandTimeout: cmd.Duration("command-timeout"),
				ProbeTimeout:   cmd.Duration("probe-timeout"),
				ProbeWorkers:   int(cmd.Int("probe-workers")),
				Log:            log,
			}.Build()

			snap, err := inv.Collect(ctx)
			if err != nil {
				return fmt.Errorf("collection failed: %w", err)
			}
			return write(cmd.Root().Writer, cmd.String("output"), format, snap)
		},
	}
}

func parseBackends(names []string) ([]domain.SourceType, error) {
	if len(names) == 0 {
		return nil, nil
	}
	enabled := make(map[domain.SourceType]bool, len(names))
	for _, n := range names {
		src := domain.SourceType(n)
		known := false
		for _, s := range domain.Sources {
			if s == src {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unknown backend %q (want docker, lxd or host)", n)
		}
		enabled[src] = true
	}

	out := make([]domain.SourceType, 0, len(enabled))
	for _, s := range domain.Sources {
		if enabled[s] {
			out = append(out, s)
		}
	}
	return out, nil
}
