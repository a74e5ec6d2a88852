package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cotandem/kai/internal/config"
	"github.com/cotandem/kai/internal/container"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the managed services",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	rt, err := newDockerRuntime(ctx)
	if err != nil {
		return err
	}

	names := []string{
		config.ContainerBackend,
		config.ContainerCodeServer,
		config.ContainerFrontend,
	}

	controller := container.NewController(rt, cfg.Network)
	states, err := controller.Status(ctx, names)
	if err != nil {
		return err
	}

	for _, name := range names {
		ct := states[name]
		switch {
		case ct == nil:
			color.Red("  %-18s absent", name)
		case ct.State == "running":
			color.Green("  %-18s %s (%s)", name, ct.Status, ct.Image)
		default:
			color.Yellow("  %-18s %s (%s)", name, ct.Status, ct.Image)
		}
	}

	return nil
}
