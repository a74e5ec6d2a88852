package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cotandem/kai/internal/config"
	"github.com/cotandem/kai/internal/image"
	"github.com/cotandem/kai/internal/registry"
	"github.com/cotandem/kai/pkg/runtime"
)

var (
	imageName     string
	imageTag      string
	imageRegistry string
	imageUsername string
	imageNoCache  bool
	cleanSupersed bool
)

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Manage platform images",
	Long: `Build, publish and clean the platform images. All subcommands
operate on a single image selected with --name and --tag.`,
}

func init() {
	rootCmd.AddCommand(imageCmd)

	imageCmd.PersistentFlags().StringVarP(&imageName, "name", "n", "", "image repository name (e.g. cotandem-backend)")
	imageCmd.PersistentFlags().StringVarP(&imageTag, "tag", "t", "latest", "image tag")
	imageCmd.PersistentFlags().StringVar(&imageRegistry, "registry", config.DefaultRegistry, "registry host (e.g. docker.io, ghcr.io)")
	imageCmd.PersistentFlags().StringVarP(&imageUsername, "username", "u", "", "registry namespace / username")

	imageBuildCmd.Flags().BoolVar(&imageNoCache, "no-cache", false, "build without using the layer cache")
	imageCleanCmd.Flags().BoolVar(&cleanSupersed, "superseded", false, "also remove tagged versions other than latest")

	imageCmd.AddCommand(imageBuildCmd)
	imageCmd.AddCommand(imagePushCmd)
	imageCmd.AddCommand(imagePullCmd)
	imageCmd.AddCommand(imageTagCmd)
	imageCmd.AddCommand(imageListTagsCmd)
	imageCmd.AddCommand(imageCleanCmd)
}

// imageRef assembles the reference from the persistent flags. Every
// subcommand except clean needs a name.
func imageRef() (image.Reference, error) {
	if imageName == "" {
		return image.Reference{}, fmt.Errorf("an image name is required, pass --name")
	}
	return image.Reference{
		Registry:   imageRegistry,
		Namespace:  imageUsername,
		Repository: imageName,
		Tag:        imageTag,
	}, nil
}

func newManager(rt runtime.Runtime) *registry.Manager {
	return registry.NewManager(rt, registry.NewClient(imageRegistry), os.Stdout)
}

// buildContextDir maps an image name to its build context under the Kai
// checkout. The docker/ tree is keyed by the short service name.
func buildContextDir(cfg *config.Config, name string) string {
	short := strings.TrimPrefix(name, "cotandem-")
	return filepath.Join(cfg.KaiDir, "docker", short)
}

var imageBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build an image from its context in the Kai checkout",
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := imageRef()
		if err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		rt, err := newDockerRuntime(cmd.Context())
		if err != nil {
			return err
		}

		contextDir := buildContextDir(cfg, ref.Repository)
		if _, err := os.Stat(contextDir); err != nil {
			return fmt.Errorf("build context %s not found, run \"kai setup\" to clone the repository: %w", contextDir, err)
		}

		if err := newManager(rt).Build(cmd.Context(), contextDir, ref, imageNoCache); err != nil {
			return err
		}
		color.Green("Built %s", ref.LocalName())
		return nil
	},
}

var imagePushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push an image to the registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := imageRef()
		if err != nil {
			return err
		}

		rt, err := newDockerRuntime(cmd.Context())
		if err != nil {
			return err
		}

		username, password, err := promptCredentials(ref.Registry)
		if err != nil {
			return err
		}

		if err := newManager(rt).Push(cmd.Context(), ref, username, password); err != nil {
			return err
		}
		color.Green("Pushed %s", ref.String())
		return nil
	},
}

var imagePullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull an image and re-tag it locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := imageRef()
		if err != nil {
			return err
		}

		rt, err := newDockerRuntime(cmd.Context())
		if err != nil {
			return err
		}

		if err := newManager(rt).Pull(cmd.Context(), ref); err != nil {
			return err
		}
		color.Green("Pulled %s as %s", ref.String(), ref.LocalName())
		return nil
	},
}

var imageTagCmd = &cobra.Command{
	Use:   "tag NEW_TAG",
	Short: "Re-tag a local image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := imageRef()
		if err != nil {
			return err
		}

		rt, err := newDockerRuntime(cmd.Context())
		if err != nil {
			return err
		}

		newTag := args[0]
		if err := newManager(rt).Tag(cmd.Context(), ref, newTag); err != nil {
			return err
		}
		color.Green("Tagged %s as %s:%s", ref.LocalName(), ref.Repository, newTag)
		return nil
	},
}

var imageListTagsCmd = &cobra.Command{
	Use:   "list-tags",
	Short: "List the tags published for an image",
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := imageRef()
		if err != nil {
			return err
		}

		rt, err := newDockerRuntime(cmd.Context())
		if err != nil {
			return err
		}

		mgr := newManager(rt)
		tags, err := mgr.ListTags(cmd.Context(), ref)
		if errors.Is(err, registry.ErrTagListingUnsupported) {
			color.Yellow("Tag listing is not supported for %s", imageRegistry)
			color.Yellow("Browse the tags at %s", mgr.WebURL(ref))
			return nil
		}
		if err != nil {
			return err
		}

		for _, tag := range tags {
			fmt.Println(tag)
		}
		return nil
	},
}

var imageCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove dangling images of an image repository",
	Long: `Remove dangling images left behind by rebuilds of --name. With
--superseded, additionally remove its tagged versions other than latest
after an interactive confirmation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if imageName == "" {
			return fmt.Errorf("an image name is required, pass --name")
		}

		rt, err := newDockerRuntime(cmd.Context())
		if err != nil {
			return err
		}

		mgr := newManager(rt)
		removed, err := mgr.Clean(cmd.Context(), imageName)
		if err != nil {
			return err
		}
		color.Green("Removed %d dangling image(s)", removed)

		if !cleanSupersed {
			return nil
		}
		if !confirm(fmt.Sprintf("Remove all %s tags other than latest?", imageName)) {
			color.Yellow("Skipped superseded image removal")
			return nil
		}

		superseded, err := mgr.CleanSuperseded(cmd.Context(), imageName)
		if err != nil {
			return err
		}
		color.Green("Removed %d superseded image(s)", superseded)
		return nil
	},
}
