package container

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/go-connections/nat"
	"github.com/rs/zerolog/log"

	"github.com/cotandem/kai/pkg/runtime"
)

// DockerRuntime implements the Runtime interface using the Docker Engine API
type DockerRuntime struct {
	client *client.Client
}

// NewDockerRuntime creates a new Docker runtime instance
func NewDockerRuntime() (*DockerRuntime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	return &DockerRuntime{
		client: cli,
	}, nil
}

// CreateContainer creates a new container
func (d *DockerRuntime) CreateContainer(ctx context.Context, config *runtime.ContainerConfig) (*runtime.Container, error) {
	exposedPorts := make(nat.PortSet)
	portBindings := make(nat.PortMap)

	for _, p := range config.Ports {
		containerPort := nat.Port(fmt.Sprintf("%d/tcp", p.ContainerPort))
		exposedPorts[containerPort] = struct{}{}
		portBindings[containerPort] = []nat.PortBinding{
			{
				HostIP:   "0.0.0.0",
				HostPort: fmt.Sprintf("%d", p.HostPort),
			},
		}
	}

	var binds []string
	for _, v := range config.Volumes {
		binds = append(binds, fmt.Sprintf("%s:%s", v.HostPath, v.ContainerPath))
	}

	containerConfig := &container.Config{
		Image:        config.Image,
		Env:          config.Env,
		ExposedPorts: exposedPorts,
		Labels:       config.Labels,
	}

	hostConfig := &container.HostConfig{
		PortBindings: portBindings,
		Binds:        binds,
		Privileged:   config.Privileged,
	}
	if config.Restart != "" {
		hostConfig.RestartPolicy = container.RestartPolicy{
			Name: container.RestartPolicyMode(config.Restart),
		}
	}

	var networkConfig *network.NetworkingConfig
	if config.Network != "" {
		networkConfig = &network.NetworkingConfig{
			EndpointsConfig: map[string]*network.EndpointSettings{
				config.Network: {},
			},
		}
	}

	resp, err := d.client.ContainerCreate(ctx, containerConfig, hostConfig, networkConfig, nil, config.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	log.Info().Str("id", resp.ID).Str("name", config.Name).Str("image", config.Image).Msg("Container created")

	return d.InspectContainer(ctx, resp.ID)
}

// StartContainer starts a container
func (d *DockerRuntime) StartContainer(ctx context.Context, containerID string) error {
	err := d.client.ContainerStart(ctx, containerID, container.StartOptions{})
	if err != nil {
		return fmt.Errorf("failed to start container %s: %w", containerID, err)
	}

	log.Info().Str("id", containerID).Msg("Container started")
	return nil
}

// StopContainer stops a container
func (d *DockerRuntime) StopContainer(ctx context.Context, containerID string) error {
	timeout := 30 // 30 seconds timeout
	err := d.client.ContainerStop(ctx, containerID, container.StopOptions{Timeout: &timeout})
	if err != nil {
		return fmt.Errorf("failed to stop container %s: %w", containerID, err)
	}

	log.Info().Str("id", containerID).Msg("Container stopped")
	return nil
}

// RemoveContainer removes a container
func (d *DockerRuntime) RemoveContainer(ctx context.Context, containerID string, force bool) error {
	err := d.client.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: force})
	if err != nil {
		return fmt.Errorf("failed to remove container %s: %w", containerID, err)
	}

	log.Info().Str("id", containerID).Bool("force", force).Msg("Container removed")
	return nil
}

// ListContainers lists containers
func (d *DockerRuntime) ListContainers(ctx context.Context, all bool) ([]*runtime.Container, error) {
	containers, err := d.client.ContainerList(ctx, container.ListOptions{All: all})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	var result []*runtime.Container
	for _, c := range containers {
		// Get the primary name (remove leading slash)
		name := ""
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}

		result = append(result, &runtime.Container{
			ID:     c.ID,
			Image:  c.Image,
			Name:   name,
			State:  c.State,
			Status: c.Status,
			Labels: c.Labels,
		})
	}

	return result, nil
}

// InspectContainer inspects a container
func (d *DockerRuntime) InspectContainer(ctx context.Context, containerID string) (*runtime.Container, error) {
	resp, err := d.client.ContainerInspect(ctx, containerID)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect container %s: %w", containerID, err)
	}

	return &runtime.Container{
		ID:     resp.ID,
		Image:  resp.Config.Image,
		Name:   strings.TrimPrefix(resp.Name, "/"),
		State:  resp.State.Status,
		Status: resp.State.Status,
		Labels: resp.Config.Labels,
	}, nil
}

// IsContainerRunning checks if a container is running
func (d *DockerRuntime) IsContainerRunning(ctx context.Context, containerID string) (bool, error) {
	c, err := d.InspectContainer(ctx, containerID)
	if err != nil {
		return false, err
	}
	return c.State == "running", nil
}

// PullImage pulls an image
func (d *DockerRuntime) PullImage(ctx context.Context, imageRef string, progress io.Writer) error {
	log.Info().Str("image", imageRef).Msg("Pulling image")

	reader, err := d.client.ImagePull(ctx, imageRef, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", imageRef, err)
	}
	defer reader.Close()

	if err := drainProgress(reader, progress); err != nil {
		return fmt.Errorf("failed to read pull response for image %s: %w", imageRef, err)
	}

	log.Info().Str("image", imageRef).Msg("Image pulled successfully")
	return nil
}

// PullImageWithAuth pulls an image using registry credentials
func (d *DockerRuntime) PullImageWithAuth(ctx context.Context, imageRef, username, password string, progress io.Writer) error {
	auth, err := encodeAuth(username, password)
	if err != nil {
		return err
	}

	log.Info().Str("image", imageRef).Str("username", username).Msg("Pulling image with authentication")

	reader, err := d.client.ImagePull(ctx, imageRef, image.PullOptions{RegistryAuth: auth})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", imageRef, err)
	}
	defer reader.Close()

	if err := drainProgress(reader, progress); err != nil {
		return fmt.Errorf("failed to read pull response for image %s: %w", imageRef, err)
	}

	log.Info().Str("image", imageRef).Msg("Image pulled successfully")
	return nil
}

// PushImage pushes an image to a registry
func (d *DockerRuntime) PushImage(ctx context.Context, imageRef, username, password string, progress io.Writer) error {
	auth, err := encodeAuth(username, password)
	if err != nil {
		return err
	}

	log.Info().Str("image", imageRef).Msg("Pushing image")

	reader, err := d.client.ImagePush(ctx, imageRef, image.PushOptions{RegistryAuth: auth})
	if err != nil {
		return fmt.Errorf("failed to push image %s: %w", imageRef, err)
	}
	defer reader.Close()

	if err := drainProgress(reader, progress); err != nil {
		return fmt.Errorf("failed to read push response for image %s: %w", imageRef, err)
	}

	log.Info().Str("image", imageRef).Msg("Image pushed successfully")
	return nil
}

// BuildImage builds an image from a local build context
func (d *DockerRuntime) BuildImage(ctx context.Context, opts *runtime.BuildOptions) error {
	buildCtx, err := archive.TarWithOptions(opts.ContextDir, &archive.TarOptions{})
	if err != nil {
		return fmt.Errorf("failed to tar build context %s: %w", opts.ContextDir, err)
	}
	defer buildCtx.Close()

	dockerfile := opts.Dockerfile
	if dockerfile == "" {
		dockerfile = "Dockerfile"
	}

	log.Info().Str("tag", opts.Tag).Str("context", opts.ContextDir).Bool("no_cache", opts.NoCache).Msg("Building image")

	resp, err := d.client.ImageBuild(ctx, buildCtx, types.ImageBuildOptions{
		Tags:       []string{opts.Tag},
		Dockerfile: dockerfile,
		Labels:     opts.Labels,
		NoCache:    opts.NoCache,
		Remove:     true,
	})
	if err != nil {
		return fmt.Errorf("failed to build image %s: %w", opts.Tag, err)
	}
	defer resp.Body.Close()

	if err := drainProgress(resp.Body, opts.Output); err != nil {
		return fmt.Errorf("image build failed for %s: %w", opts.Tag, err)
	}

	log.Info().Str("tag", opts.Tag).Msg("Image built successfully")
	return nil
}

// TagImage tags an image under a new reference
func (d *DockerRuntime) TagImage(ctx context.Context, sourceRef, targetRef string) error {
	if err := d.client.ImageTag(ctx, sourceRef, targetRef); err != nil {
		return fmt.Errorf("failed to tag image %s as %s: %w", sourceRef, targetRef, err)
	}

	log.Info().Str("source", sourceRef).Str("target", targetRef).Msg("Image tagged")
	return nil
}

// RemoveImage removes an image
func (d *DockerRuntime) RemoveImage(ctx context.Context, imageRef string, force bool) error {
	_, err := d.client.ImageRemove(ctx, imageRef, image.RemoveOptions{Force: force})
	if err != nil {
		return fmt.Errorf("failed to remove image %s: %w", imageRef, err)
	}

	log.Info().Str("image", imageRef).Bool("force", force).Msg("Image removed")
	return nil
}

// ListImages lists local image tags
func (d *DockerRuntime) ListImages(ctx context.Context) ([]string, error) {
	images, err := d.client.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	var result []string
	for _, img := range images {
		for _, tag := range img.RepoTags {
			if tag != "<none>:<none>" {
				result = append(result, tag)
			}
		}
	}

	return result, nil
}

// ListDanglingImages lists untagged images
func (d *DockerRuntime) ListDanglingImages(ctx context.Context) ([]*runtime.ImageSummary, error) {
	f := filters.NewArgs(filters.Arg("dangling", "true"))
	images, err := d.client.ImageList(ctx, image.ListOptions{Filters: f})
	if err != nil {
		return nil, fmt.Errorf("failed to list dangling images: %w", err)
	}

	var result []*runtime.ImageSummary
	for _, img := range images {
		result = append(result, &runtime.ImageSummary{
			ID:          img.ID,
			RepoTags:    img.RepoTags,
			RepoDigests: img.RepoDigests,
			Labels:      img.Labels,
			Dangling:    true,
		})
	}

	return result, nil
}

// ImageExists checks whether an image reference is present locally
func (d *DockerRuntime) ImageExists(ctx context.Context, imageRef string) (bool, error) {
	images, err := d.ListImages(ctx)
	if err != nil {
		return false, err
	}

	want := NormalizeImageRef(imageRef)
	for _, tag := range images {
		if NormalizeImageRef(tag) == want {
			return true, nil
		}
	}

	return false, nil
}

// NetworkExists checks if a network with the given name exists
func (d *DockerRuntime) NetworkExists(ctx context.Context, name string) (bool, error) {
	networks, err := d.client.NetworkList(ctx, network.ListOptions{})
	if err != nil {
		return false, fmt.Errorf("failed to list networks: %w", err)
	}

	for _, n := range networks {
		if n.Name == name {
			return true, nil
		}
	}

	return false, nil
}

// CreateNetwork creates a bridge network
func (d *DockerRuntime) CreateNetwork(ctx context.Context, name string, labels map[string]string) error {
	_, err := d.client.NetworkCreate(ctx, name, network.CreateOptions{
		Driver: "bridge",
		Labels: labels,
	})
	if err != nil {
		return fmt.Errorf("failed to create network %s: %w", name, err)
	}

	log.Info().Str("network", name).Msg("Network created")
	return nil
}

// Ping checks if Docker is responsive
func (d *DockerRuntime) Ping(ctx context.Context) error {
	_, err := d.client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("Docker ping failed: %w", err)
	}
	return nil
}

// Version returns Docker version
func (d *DockerRuntime) Version(ctx context.Context) (string, error) {
	version, err := d.client.ServerVersion(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get Docker version: %w", err)
	}
	return version.Version, nil
}

// drainProgress consumes a Docker API JSON stream. The stream must be read
// to completion for the operation to finish; build and push errors arrive
// as in-stream error messages rather than HTTP errors.
func drainProgress(reader io.Reader, out io.Writer) error {
	if out == nil {
		return jsonmessage.DisplayJSONMessagesStream(reader, io.Discard, 0, false, nil)
	}
	return jsonmessage.DisplayJSONMessagesStream(reader, out, 0, false, nil)
}

// encodeAuth encodes registry credentials for the Docker API
func encodeAuth(username, password string) (string, error) {
	authConfig := registry.AuthConfig{
		Username: username,
		Password: password,
	}

	buf, err := json.Marshal(authConfig)
	if err != nil {
		return "", fmt.Errorf("failed to encode registry credentials: %w", err)
	}

	return base64.URLEncoding.EncodeToString(buf), nil
}
