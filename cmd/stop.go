package cmd

import (
	"context"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cotandem/kai/internal/config"
	"github.com/cotandem/kai/internal/container"
	"github.com/cotandem/kai/pkg/runtime"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the platform services",
	Long: `Stop and remove the managed service containers. Services that are
not running are skipped; stopping an already stopped platform is a no-op.`,
	RunE: runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	rt, err := newDockerRuntime(ctx)
	if err != nil {
		return err
	}

	stopped, err := stopPlatform(ctx, rt, cfg)
	if err != nil {
		return err
	}

	if stopped == 0 {
		color.Yellow("No managed services were running")
	} else {
		color.Green("Stopped %d service(s)", stopped)
	}
	return nil
}

// stopPlatform stops the services in reverse start order so the frontend
// goes away before the backend it talks to.
func stopPlatform(ctx context.Context, rt runtime.Runtime, cfg *config.Config) (int, error) {
	controller := container.NewController(rt, cfg.Network)
	return controller.StopServices(ctx, []string{
		config.ContainerFrontend,
		config.ContainerCodeServer,
		config.ContainerBackend,
	})
}
