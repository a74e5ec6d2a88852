package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cotandem/kai/internal/config"
	"github.com/cotandem/kai/internal/image"
)

var (
	updateNoStop  bool
	updateNoStart bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Pull the latest platform images and restart",
	Long: `Stop the running services, pull the latest backend, frontend and
sandbox images from the configured registry, and start the services again.
Use --no-stop / --no-start to pull only.`,
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().StringP("user", "u", "", "registry namespace to pull platform images from")
	updateCmd.Flags().BoolVar(&updateNoStop, "no-stop", false, "do not stop running services before pulling")
	updateCmd.Flags().BoolVar(&updateNoStart, "no-start", false, "do not start services after pulling")

	_ = viper.BindPFlag("user", updateCmd.Flags().Lookup("user"))
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.User == "" {
		return fmt.Errorf("a registry namespace is required to pull platform images, pass --user or set user in the config")
	}

	rt, err := newDockerRuntime(ctx)
	if err != nil {
		return err
	}

	if !updateNoStop {
		if _, err := stopPlatform(ctx, rt, cfg); err != nil {
			return err
		}
	}

	resolver := image.NewResolver(rt, cfg.Registry, cfg.User, promptCredentials, os.Stdout)
	for _, repo := range []string{config.ImageBackend, config.ImageFrontend, config.ImageSandbox} {
		local, err := resolver.Pull(ctx, repo)
		if err != nil {
			return err
		}
		color.Green("Updated %s", local)
	}

	if updateNoStart {
		return nil
	}

	return startPlatform(ctx, rt, cfg)
}
