// Package cli implements appvisctl, the one-shot companion of the appvis
// server: collect a snapshot, print the domain directory or probe a URL
// without running the HTTP service.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/CDTO-DENKART/app-visualizer/internal/logger"
	"github.com/CDTO-DENKART/app-visualizer/internal/runner"
	"github.com/CDTO-DENKART/app-visualizer/internal/version"
)

const name = "appvisctl"

// newRunner is replaced in tests.
var newRunner = func(log logger.Logger) runner.Runner { return runner.NewShell(log) }

// Flags are built per command: urfave flags keep parsed state.
func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "output format: json or yaml",
		Value:   string(FormatJSON),
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "write to this file instead of stdout",
	}
}

func domainsFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "domains",
		Usage:   "domain directory yaml (built-in when empty)",
		Sources: cli.EnvVars("APPVIS_DOMAINS_FILE"),
	}
}

func insecureFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "insecure",
		Usage:   "accept self-signed certificates when probing",
		Value:   true,
		Sources: cli.EnvVars("APPVIS_PROBE_INSECURE_TLS"),
	}
}

// Command builds the root command.
func Command(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:                  name,
		Usage:                 "Inspect the applications running on this host",
		Version:               version.Version,
		EnableShellCompletion: true,
		Writer:                out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn or error (logs go to stderr)",
				Value:   "warn",
				Sources: cli.EnvVars("APPVIS_LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			collectCmd(),
			domainsCmd(),
			probeCmd(),
		},
	}
}

// Execute runs appvisctl with the process arguments.
func Execute(ctx context.Context) error {
	return Command(os.Stdout).Run(ctx, os.Args)
}

func newLogger(cmd *cli.Command) logger.Logger {
	return logger.New(cmd.String("log-level"), false)
}
