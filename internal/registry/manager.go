package registry

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/cotandem/kai/internal/image"
	"github.com/cotandem/kai/pkg/runtime"
)

// Manager exposes the image lifecycle operations: build, push, pull, tag,
// list-tags and clean, parameterized by one image reference.
type Manager struct {
	runtime  runtime.Runtime
	client   Client
	progress io.Writer
}

// NewManager creates a tag manager using the given registry client.
func NewManager(rt runtime.Runtime, client Client, progress io.Writer) *Manager {
	return &Manager{
		runtime:  rt,
		client:   client,
		progress: progress,
	}
}

// RepositoryLabel records which repository an image was built for. Rebuilds
// untag the previous image, so the label is the only attribution left once
// it goes dangling; Clean scopes removal by it.
const RepositoryLabel = "kai.repository"

// Build builds the image from the given context directory under the bare
// local name.
func (m *Manager) Build(ctx context.Context, contextDir string, ref image.Reference, noCache bool) error {
	return m.runtime.BuildImage(ctx, &runtime.BuildOptions{
		ContextDir: contextDir,
		Tag:        ref.LocalName(),
		Labels:     map[string]string{RepositoryLabel: ref.Repository},
		NoCache:    noCache,
		Output:     m.progress,
	})
}

// Push tags the local image under the fully qualified reference and pushes
// it. Non-default registries require a namespace.
func (m *Manager) Push(ctx context.Context, ref image.Reference, username, password string) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	qualified := ref.String()
	if qualified != ref.LocalName() {
		if err := m.runtime.TagImage(ctx, ref.LocalName(), qualified); err != nil {
			return err
		}
	}

	return m.runtime.PushImage(ctx, qualified, username, password, m.progress)
}

// Pull fetches the fully qualified reference and re-tags it under the bare
// local name the lifecycle controller expects.
func (m *Manager) Pull(ctx context.Context, ref image.Reference) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	qualified := ref.String()
	if err := m.runtime.PullImage(ctx, qualified, m.progress); err != nil {
		return err
	}

	if qualified != ref.LocalName() {
		return m.runtime.TagImage(ctx, qualified, ref.LocalName())
	}
	return nil
}

// Tag re-tags the local image under another tag.
func (m *Manager) Tag(ctx context.Context, ref image.Reference, newTag string) error {
	target := image.Reference{Repository: ref.Repository, Tag: newTag}
	return m.runtime.TagImage(ctx, ref.LocalName(), target.LocalName())
}

// ListTags lists the published tags for the reference via the registry
// client. Registries without a public tag API report
// ErrTagListingUnsupported.
func (m *Manager) ListTags(ctx context.Context, ref image.Reference) ([]string, error) {
	return m.client.ListTags(ctx, ref)
}

// Clean removes dangling images left behind by rebuilds of the given
// repository. Dangling images of other repositories, and ones that cannot
// be attributed at all, are left alone. Returns the number of images
// removed.
func (m *Manager) Clean(ctx context.Context, repository string) (int, error) {
	dangling, err := m.runtime.ListDanglingImages(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, img := range dangling {
		if !matchesRepository(img, repository) {
			continue
		}
		if err := m.runtime.RemoveImage(ctx, img.ID, false); err != nil {
			log.Warn().Err(err).Str("image", img.ID).Msg("Failed to remove dangling image")
			continue
		}
		removed++
	}

	return removed, nil
}

// matchesRepository attributes a dangling image to a repository: locally
// built images carry the repository label, superseded pulls keep their
// repo digests.
func matchesRepository(img *runtime.ImageSummary, repository string) bool {
	if img.Labels[RepositoryLabel] == repository {
		return true
	}

	refs := make([]string, 0, len(img.RepoTags)+len(img.RepoDigests))
	refs = append(refs, img.RepoTags...)
	refs = append(refs, img.RepoDigests...)
	for _, ref := range refs {
		name := ref
		if cut, _, found := strings.Cut(name, "@"); found {
			name = cut
		} else if i := strings.LastIndex(name, ":"); i > strings.LastIndex(name, "/") {
			name = name[:i]
		}
		if name == repository || strings.HasSuffix(name, "/"+repository) {
			return true
		}
	}

	return false
}

// CleanSuperseded removes tagged versions of the repository other than
// "latest". Destructive and non-default: callers must have confirmed with
// the user before calling.
func (m *Manager) CleanSuperseded(ctx context.Context, repository string) (int, error) {
	tags, err := m.runtime.ListImages(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, tag := range tags {
		name, version, found := strings.Cut(tag, ":")
		if !found || name != repository || version == "latest" {
			continue
		}
		if err := m.runtime.RemoveImage(ctx, tag, false); err != nil {
			log.Warn().Err(err).Str("image", tag).Msg("Failed to remove superseded image")
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Info().Int("removed", removed).Str("repository", repository).Msg("Superseded images removed")
	}

	return removed, nil
}

// WebURL points a human at the registry UI for the reference.
func (m *Manager) WebURL(ref image.Reference) string {
	return m.client.WebURL(ref)
}
