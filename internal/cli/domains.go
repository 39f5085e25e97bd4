package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/CDTO-DENKART/app-visualizer/internal/domain"
	"github.com/CDTO-DENKART/app-visualizer/internal/domains"
)

type domainList struct {
	Active  []domain.DomainBinding `json:"active" yaml:"active"`
	Planned []domain.DomainBinding `json:"planned" yaml:"planned"`
}

func domainsCmd() *cli.Command {
	return &cli.Command{
		Name:  "domains",
		Usage: "Print the domain directory",
		Flags: []cli.Flag{
			formatFlag(),
			outputFlag(),
			domainsFlag(),
			&cli.StringFlag{
				Name:  "status",
				Usage: "active, planned or all",
				Value: "all",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := parseFormat(cmd.String("format"))
			if err != nil {
				return err
			}
			dir, err := domains.Load(cmd.String("domains"))
			if err != nil {
				return fmt.Errorf("failed to load domains: %w", err)
			}

			list := domainList{
				Active:  []domain.DomainBinding{},
				Planned: []domain.DomainBinding{},
			}
			switch status := cmd.String("status"); status {
			case "all":
				list.Active = dir.List(domain.BindingActive)
				list.Planned = dir.List(domain.BindingPlanned)
			case string(domain.BindingActive):
				list.Active = dir.List(domain.BindingActive)
			case string(domain.BindingPlanned):
				list.Planned = dir.List(domain.BindingPlanned)
			default:
				return fmt.Errorf("unknown status %q (want active, planned or all)", status)
			}

			return write(cmd.Root().Writer, cmd.String("output"), format, list)
		},
	}
}
