package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cotandem/kai/internal/command"
	"github.com/cotandem/kai/internal/config"
	"github.com/cotandem/kai/internal/env"
	"github.com/cotandem/kai/internal/image"
	"github.com/cotandem/kai/internal/provision"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Set up the Kai platform",
	Long: `Check prerequisites, clone the Kai repository, provision the Docker
network and data directories, write the backend env file and acquire the
platform images.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
	setupCmd.Flags().StringP("kai-dir", "d", "", "directory for the Kai repository checkout")
	setupCmd.Flags().StringP("base-dir", "b", "", "base directory for sandbox project data")
	setupCmd.Flags().StringP("repo", "r", "", "Kai repository URL")
	setupCmd.Flags().StringP("user", "u", "", "registry namespace to pull platform images from")

	_ = viper.BindPFlag("kai_dir", setupCmd.Flags().Lookup("kai-dir"))
	_ = viper.BindPFlag("base_dir", setupCmd.Flags().Lookup("base-dir"))
	_ = viper.BindPFlag("repo", setupCmd.Flags().Lookup("repo"))
	_ = viper.BindPFlag("user", setupCmd.Flags().Lookup("user"))
}

func runSetup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	color.Blue("Checking prerequisites...")
	if err := command.RequireTools("git", "pnpm"); err != nil {
		return err
	}

	rt, err := newDockerRuntime(ctx)
	if err != nil {
		return err
	}

	if version, err := rt.Version(ctx); err == nil {
		log.Info().Str("version", version).Msg("Docker daemon connected")
	}

	if err := cloneRepo(ctx, cfg); err != nil {
		return err
	}

	color.Blue("Provisioning network and directories...")
	if err := provision.EnsureDirectories(cfg.DataDirs()); err != nil {
		return err
	}
	if err := provision.EnsureNetwork(ctx, rt, cfg.Network); err != nil {
		return err
	}

	if err := env.WriteBackend(cfg.EnvFilePath(), env.Backend{
		Port:          cfg.BackendPort,
		DockerNetwork: cfg.Network,
		ImageName:     config.ImageSandbox + ":latest",
		KaiBaseRoot:   cfg.BaseDir,
	}); err != nil {
		return err
	}

	color.Blue("Acquiring platform images...")
	resolver := image.NewResolver(rt, cfg.Registry, cfg.User, promptCredentials, os.Stdout)
	required := []string{
		config.ImageBackend,
		config.ImageFrontend,
		config.ImageSandbox,
		config.ImageCodeServer,
	}
	if _, err := resolver.ResolveAll(ctx, required); err != nil {
		return err
	}

	color.Green("Setup complete. Run \"kai start\" to launch the platform.")
	return nil
}

// cloneRepo clones the Kai repository unless the checkout already exists.
func cloneRepo(ctx context.Context, cfg *config.Config) error {
	if _, err := os.Stat(cfg.KaiDir); err == nil {
		log.Info().Str("dir", cfg.KaiDir).Msg("Repository checkout already exists, skipping clone")
		return nil
	}

	color.Blue("Cloning %s into %s...", cfg.Repo, cfg.KaiDir)

	runner := command.NewRunner()
	result, err := runner.Run(ctx, "git", "clone", cfg.Repo, cfg.KaiDir)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("git clone failed: %s", result.Stderr)
	}

	return nil
}
