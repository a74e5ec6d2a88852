package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/cotandem/kai/pkg/runtime"
)

// Image repositories managed by the platform.
const (
	ImageBackend    = "cotandem-backend"
	ImageFrontend   = "cotandem-frontend"
	ImageSandbox    = "cotandem-sandbox"
	ImageCodeServer = "cotandem-code-server"

	// PublicCodeServerImage is the fallback when no custom code-server
	// image is available. It lacks the Docker CLI tooling baked into the
	// custom image, so sandbox management from the editor is degraded.
	PublicCodeServerImage = "codercom/code-server:latest"
)

// Managed container names.
const (
	ContainerBackend    = "kai-backend"
	ContainerFrontend   = "kai-frontend"
	ContainerCodeServer = "kai-code-server"
)

// DefaultRegistry is the default registry for the image manager. Images
// published for the platform itself live under the configured registry
// (ghcr.io by default, see defaults in Load).
const DefaultRegistry = "docker.io"

// EnvFileRelPath is the backend env file location relative to the base dir.
const EnvFileRelPath = ".kai/backend.env"

// Config holds one invocation's settings, built once in Load and passed
// into every component.
type Config struct {
	KaiDir   string `mapstructure:"kai_dir"`  // checkout of the Kai repository (build contexts)
	BaseDir  string `mapstructure:"base_dir"` // KAI_BASE_ROOT, holds project data and editor state
	Repo     string `mapstructure:"repo"`
	User     string `mapstructure:"user"`     // registry namespace for platform images
	Registry string `mapstructure:"registry"` // registry the platform images are published to
	Network  string `mapstructure:"network"`

	BackendPort    int `mapstructure:"backend_port"`
	FrontendPort   int `mapstructure:"frontend_port"`
	CodeServerPort int `mapstructure:"code_server_port"`

	Password   string `mapstructure:"password"`     // code-server password
	APIBaseURL string `mapstructure:"api_base_url"` // empty = proxy mode
}

// Service describes one managed service: fixed name, image, port and volume
// mappings. Immutable for the duration of an invocation apart from the
// image reference, which the resolver may substitute.
type Service struct {
	Name       string
	Image      string
	Ports      []runtime.PortBinding
	Env        []string
	Volumes    []runtime.VolumeMount
	Privileged bool
}

func Load() (*Config, error) {
	viper.SetDefault("kai_dir", "./kai")
	viper.SetDefault("base_dir", defaultBaseDir())
	viper.SetDefault("repo", "https://github.com/cotandem/kai.git")
	viper.SetDefault("registry", "ghcr.io")
	viper.SetDefault("network", "kai-network")
	viper.SetDefault("backend_port", 9900)
	viper.SetDefault("frontend_port", 9901)
	viper.SetDefault("code_server_port", 8443)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfg.Network == "" {
		return nil, fmt.Errorf("network must not be empty")
	}
	if cfg.BackendPort <= 0 || cfg.FrontendPort <= 0 || cfg.CodeServerPort <= 0 {
		return nil, fmt.Errorf("ports must be positive")
	}
	if strings.Contains(cfg.Registry, "://") || strings.Contains(cfg.Registry, "/") {
		return nil, fmt.Errorf("registry should be just the domain name (e.g. 'ghcr.io')")
	}

	return &cfg, nil
}

// Services returns the managed services in their fixed start order:
// backend, code-server, frontend. The backend and code-server run
// privileged with the host Docker socket mounted so they can launch and
// manage sibling sandbox containers.
func (c *Config) Services() []Service {
	dockerSock := runtime.VolumeMount{
		HostPath:      "/var/run/docker.sock",
		ContainerPath: "/var/run/docker.sock",
	}

	backend := Service{
		Name:  ContainerBackend,
		Image: ImageBackend + ":latest",
		Ports: []runtime.PortBinding{
			{HostPort: c.BackendPort, ContainerPort: c.BackendPort},
		},
		Env: []string{
			fmt.Sprintf("PORT=%d", c.BackendPort),
			fmt.Sprintf("DOCKER_NETWORK=%s", c.Network),
			fmt.Sprintf("IMAGE_NAME=%s:latest", ImageSandbox),
			fmt.Sprintf("KAI_BASE_ROOT=%s", c.BaseDir),
		},
		Volumes: []runtime.VolumeMount{
			dockerSock,
			{HostPath: c.BaseDir, ContainerPath: c.BaseDir},
		},
		Privileged: true,
	}

	codeServer := Service{
		Name:  ContainerCodeServer,
		Image: ImageCodeServer + ":latest",
		Ports: []runtime.PortBinding{
			{HostPort: c.CodeServerPort, ContainerPort: 8080},
		},
		Env: []string{
			fmt.Sprintf("PASSWORD=%s", c.Password),
		},
		Volumes: []runtime.VolumeMount{
			dockerSock,
			{HostPath: filepath.Join(c.BaseDir, ".kai", "code-server", "config"), ContainerPath: "/home/coder/.config"},
			{HostPath: filepath.Join(c.BaseDir, ".kai", "code-server", "local"), ContainerPath: "/home/coder/.local"},
			{HostPath: c.BaseDir, ContainerPath: "/home/coder/project"},
		},
		Privileged: true,
	}

	frontend := Service{
		Name:  ContainerFrontend,
		Image: ImageFrontend + ":latest",
		Ports: []runtime.PortBinding{
			{HostPort: c.FrontendPort, ContainerPort: c.FrontendPort},
		},
		Env: []string{
			fmt.Sprintf("PORT=%d", c.FrontendPort),
			fmt.Sprintf("API_BASE_URL=%s", c.APIBaseURL),
		},
	}

	return []Service{backend, codeServer, frontend}
}

// DataDirs returns the host directories the provisioner must ensure exist.
func (c *Config) DataDirs() []string {
	return []string{
		c.BaseDir,
		filepath.Join(c.BaseDir, ".kai", "code-server", "config"),
		filepath.Join(c.BaseDir, ".kai", "code-server", "local"),
	}
}

// EnvFilePath returns the persisted backend env file location.
func (c *Config) EnvFilePath() string {
	return filepath.Join(c.BaseDir, EnvFileRelPath)
}

// defaultBaseDir returns a platform-appropriate default base directory
func defaultBaseDir() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, "kai")
	}
	log.Debug().Msg("Failed to get user home directory, falling back to ./kai-data")
	return "./kai-data"
}
