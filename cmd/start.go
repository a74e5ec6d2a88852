package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cotandem/kai/internal/config"
	"github.com/cotandem/kai/internal/container"
	"github.com/cotandem/kai/internal/env"
	"github.com/cotandem/kai/internal/health"
	"github.com/cotandem/kai/internal/image"
	"github.com/cotandem/kai/internal/provision"
	"github.com/cotandem/kai/pkg/runtime"
)

const (
	backendHealthInterval = 2 * time.Second
	backendHealthCeiling  = 120 * time.Second
	frontendHealthCeiling = 60 * time.Second
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the platform services",
	Long: `Start the backend, code-server and frontend services, replacing any
previous instances. Requires the platform images to be present; run
"kai setup" or "kai update" first to acquire them.`,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
	startCmd.Flags().StringP("base-dir", "b", "", "base directory for sandbox project data")
	startCmd.Flags().StringP("password", "p", "", "code-server password")

	_ = viper.BindPFlag("base_dir", startCmd.Flags().Lookup("base-dir"))
	_ = viper.BindPFlag("password", startCmd.Flags().Lookup("password"))
}

func runStart(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	rt, err := newDockerRuntime(ctx)
	if err != nil {
		return err
	}

	return startPlatform(ctx, rt, cfg)
}

// startPlatform brings all services to the running state: image presence
// check, idempotent provisioning, stop-remove-recreate per service, then
// bounded readiness waits.
func startPlatform(ctx context.Context, rt runtime.Runtime, cfg *config.Config) error {
	services, err := resolveServiceImages(ctx, rt, cfg)
	if err != nil {
		return err
	}

	// The env file is pass-through state written at setup; a network
	// chosen there wins over the compiled-in default.
	if vars, err := env.ReadBackend(cfg.EnvFilePath()); err != nil {
		log.Warn().Err(err).Msg("Failed to read backend env file")
	} else if network := vars["DOCKER_NETWORK"]; network != "" && network != cfg.Network {
		log.Info().Str("network", network).Msg("Using network from backend env file")
		cfg.Network = network
		services, err = resolveServiceImages(ctx, rt, cfg)
		if err != nil {
			return err
		}
	}

	if err := provision.EnsureDirectories(cfg.DataDirs()); err != nil {
		return err
	}
	if err := provision.EnsureNetwork(ctx, rt, cfg.Network); err != nil {
		return err
	}

	controller := container.NewController(rt, cfg.Network)
	if err := controller.StartServices(ctx, services); err != nil {
		return err
	}

	waitForReadiness(ctx, cfg)

	color.Green("Kai is up:")
	color.Green("  frontend    http://localhost:%d", cfg.FrontendPort)
	color.Green("  backend     http://localhost:%d", cfg.BackendPort)
	color.Green("  code-server http://localhost:%d", cfg.CodeServerPort)
	return nil
}

// resolveServiceImages returns the service specs with every image verified
// present locally. Start never pulls; missing images mean the user skipped
// setup/update, and no container is created.
func resolveServiceImages(ctx context.Context, rt runtime.Runtime, cfg *config.Config) ([]config.Service, error) {
	services := cfg.Services()
	var missing []string

	for i, svc := range services {
		exists, err := rt.ImageExists(ctx, svc.Image)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		// The code-server service can run on the public default image when
		// the custom one was never built or pulled.
		if svc.Name == config.ContainerCodeServer {
			fallbackExists, err := rt.ImageExists(ctx, config.PublicCodeServerImage)
			if err != nil {
				return nil, err
			}
			if fallbackExists {
				log.Warn().Str("fallback", config.PublicCodeServerImage).Msg("Custom code-server image absent, using public image")
				services[i].Image = config.PublicCodeServerImage
				continue
			}
		}

		missing = append(missing, svc.Image)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s (run \"kai setup\" or \"kai update\" first)",
			image.ErrImageUnavailable, strings.Join(missing, ", "))
	}

	return services, nil
}

// waitForReadiness polls the health endpoints. Timeouts are warnings: a
// slow service is not a failed start.
func waitForReadiness(ctx context.Context, cfg *config.Config) {
	prober := health.NewProber()

	backendWaiter := health.Waiter{Interval: backendHealthInterval, Ceiling: backendHealthCeiling}
	backendURL := fmt.Sprintf("http://localhost:%d/health", cfg.BackendPort)
	if result := backendWaiter.WaitForURL(ctx, prober, config.ContainerBackend, backendURL); result.TimedOut {
		color.Yellow("Backend did not become ready within %s, it may still be starting", backendHealthCeiling)
	}

	frontendWaiter := health.Waiter{Interval: backendHealthInterval, Ceiling: frontendHealthCeiling}
	frontendURL := fmt.Sprintf("http://localhost:%d/", cfg.FrontendPort)
	if result := frontendWaiter.WaitForURL(ctx, prober, config.ContainerFrontend, frontendURL); result.TimedOut {
		color.Yellow("Frontend did not become ready within %s, it may still be starting", frontendHealthCeiling)
	}
}
