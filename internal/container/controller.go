package container

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/cotandem/kai/internal/config"
	"github.com/cotandem/kai/pkg/runtime"
)

// Controller brings the managed services to their desired state. Starting
// is a stop-remove-recreate policy: the new container always reflects the
// latest service spec and image, at the cost of brief downtime.
type Controller struct {
	runtime runtime.Runtime
	network string
}

// NewController creates a new lifecycle controller
func NewController(rt runtime.Runtime, network string) *Controller {
	return &Controller{
		runtime: rt,
		network: network,
	}
}

// StartService replaces any previous instance of the service and starts a
// fresh container from its spec.
func (c *Controller) StartService(ctx context.Context, svc config.Service) (*runtime.Container, error) {
	// Remove any existing container with this name, running or stopped.
	// An interrupted earlier run may have left it in either state.
	if _, err := c.removeExisting(ctx, svc.Name); err != nil {
		return nil, err
	}

	cfg := &runtime.ContainerConfig{
		Image:      svc.Image,
		Name:       svc.Name,
		Env:        svc.Env,
		Ports:      svc.Ports,
		Volumes:    svc.Volumes,
		Privileged: svc.Privileged,
		Network:    c.network,
		Restart:    "unless-stopped",
		Labels: map[string]string{
			"kai.managed": "true",
			"kai.service": svc.Name,
		},
	}

	created, err := c.runtime.CreateContainer(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create container for %s: %w", svc.Name, err)
	}

	if err := c.runtime.StartContainer(ctx, created.ID); err != nil {
		// Clean up the created container
		if rmErr := c.runtime.RemoveContainer(ctx, created.ID, true); rmErr != nil {
			log.Warn().Err(rmErr).Str("container", created.ID).Msg("Failed to remove container after failed start")
		}
		return nil, fmt.Errorf("failed to start container for %s: %w", svc.Name, err)
	}

	started, err := c.runtime.InspectContainer(ctx, created.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect started container: %w", err)
	}

	log.Info().
		Str("service", svc.Name).
		Str("image", svc.Image).
		Str("container", started.ID).
		Msg("Service started")

	return started, nil
}

// StartServices starts the services in order, failing fast on the first
// error. Services must be passed in dependency-free start order.
func (c *Controller) StartServices(ctx context.Context, services []config.Service) error {
	for _, svc := range services {
		if _, err := c.StartService(ctx, svc); err != nil {
			return err
		}
	}
	return nil
}

// StopService stops and removes the named service's container. An absent
// container is not an error; the returned bool reports whether any action
// was taken.
func (c *Controller) StopService(ctx context.Context, name string) (bool, error) {
	existing, err := c.findByName(ctx, name)
	if err != nil {
		return false, err
	}
	if existing == nil {
		log.Debug().Str("service", name).Msg("Service already stopped")
		return false, nil
	}

	if existing.State == "running" {
		if err := c.runtime.StopContainer(ctx, existing.ID); err != nil {
			return false, fmt.Errorf("failed to stop %s: %w", name, err)
		}
	}

	if err := c.runtime.RemoveContainer(ctx, existing.ID, true); err != nil {
		return false, fmt.Errorf("failed to remove %s: %w", name, err)
	}

	log.Info().Str("service", name).Str("container", existing.ID).Msg("Service stopped")
	return true, nil
}

// StopServices stops the named services. Per-service failures are isolated
// so one stuck container does not leave the rest running; the aggregate
// outcome and the number of actions taken are reported together.
func (c *Controller) StopServices(ctx context.Context, names []string) (int, error) {
	stopped := 0
	var errs []error

	for _, name := range names {
		acted, err := c.StopService(ctx, name)
		if err != nil {
			log.Error().Err(err).Str("service", name).Msg("Failed to stop service")
			errs = append(errs, err)
			continue
		}
		if acted {
			stopped++
		}
	}

	if len(errs) > 0 {
		return stopped, fmt.Errorf("failed to stop %d of %d services: %v", len(errs), len(names), errs)
	}

	return stopped, nil
}

// Status returns the container for each named service, nil when absent.
func (c *Controller) Status(ctx context.Context, names []string) (map[string]*runtime.Container, error) {
	containers, err := c.runtime.ListContainers(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	byName := make(map[string]*runtime.Container, len(containers))
	for _, ct := range containers {
		byName[ct.Name] = ct
	}

	result := make(map[string]*runtime.Container, len(names))
	for _, name := range names {
		result[name] = byName[name]
	}

	return result, nil
}

// removeExisting stops and removes any container with the given name.
// Returns whether a container was found.
func (c *Controller) removeExisting(ctx context.Context, name string) (bool, error) {
	existing, err := c.findByName(ctx, name)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}

	log.Info().
		Str("service", name).
		Str("container", existing.ID).
		Str("state", existing.State).
		Msg("Replacing existing container")

	if existing.State == "running" {
		if err := c.runtime.StopContainer(ctx, existing.ID); err != nil {
			log.Warn().Err(err).Str("container", existing.ID).Msg("Failed to stop existing container, forcing removal")
		}
	}

	if err := c.runtime.RemoveContainer(ctx, existing.ID, true); err != nil {
		return true, fmt.Errorf("failed to remove existing container %s: %w", existing.ID, err)
	}

	return true, nil
}

func (c *Controller) findByName(ctx context.Context, name string) (*runtime.Container, error) {
	containers, err := c.runtime.ListContainers(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	for _, ct := range containers {
		if ct.Name == name {
			return ct, nil
		}
	}

	return nil, nil
}
