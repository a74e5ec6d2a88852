package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/cotandem/kai/internal/image"
)

// DefaultHubURL is Docker Hub's public API endpoint.
const DefaultHubURL = "https://hub.docker.com"

const tagPageSize = 100

// DockerHubClient lists tags through Docker Hub's public repository API.
// No authentication: only public repositories are listable.
type DockerHubClient struct {
	BaseURL string
	client  *http.Client
}

// NewDockerHubClient creates a client against the public Docker Hub API.
func NewDockerHubClient() *DockerHubClient {
	return &DockerHubClient{
		BaseURL: DefaultHubURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// tagListPage is one page of Docker Hub's tag listing response.
type tagListPage struct {
	Next    string `json:"next"`
	Results []struct {
		Name string `json:"name"`
	} `json:"results"`
}

// ListTags fetches all tag pages and returns them semver-descending where
// parseable, with non-semver tags sorted lexicographically after.
func (c *DockerHubClient) ListTags(ctx context.Context, ref image.Reference) ([]string, error) {
	namespace := ref.Namespace
	if namespace == "" {
		namespace = "library"
	}

	url := fmt.Sprintf("%s/v2/repositories/%s/%s/tags?page_size=%d", c.BaseURL, namespace, ref.Repository, tagPageSize)

	var tags []string
	for url != "" {
		page, err := c.fetchPage(ctx, url)
		if err != nil {
			return nil, err
		}
		for _, result := range page.Results {
			tags = append(tags, result.Name)
		}
		url = page.Next
	}

	sortTags(tags)
	return tags, nil
}

// WebURL points at the repository's Docker Hub page.
func (c *DockerHubClient) WebURL(ref image.Reference) string {
	if ref.Namespace == "" {
		return fmt.Sprintf("https://hub.docker.com/_/%s", ref.Repository)
	}
	return fmt.Sprintf("https://hub.docker.com/r/%s/%s", ref.Namespace, ref.Repository)
}

func (c *DockerHubClient) fetchPage(ctx context.Context, url string) (*tagListPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create tag list request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query tag list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tag list request failed with status %d", resp.StatusCode)
	}

	var page tagListPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode tag list response: %w", err)
	}

	return &page, nil
}

// sortTags orders semver tags newest-first, then the rest alphabetically.
func sortTags(tags []string) {
	versions := make(map[string]*semver.Version, len(tags))
	for _, tag := range tags {
		if v, err := semver.NewVersion(tag); err == nil {
			versions[tag] = v
		}
	}

	sort.SliceStable(tags, func(i, j int) bool {
		vi, iOK := versions[tags[i]]
		vj, jOK := versions[tags[j]]
		switch {
		case iOK && jOK:
			return vi.GreaterThan(vj)
		case iOK:
			return true
		case jOK:
			return false
		default:
			return tags[i] < tags[j]
		}
	})
}
