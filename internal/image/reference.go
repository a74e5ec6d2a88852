// Package image resolves the platform's container images: reference
// rendering across registry naming schemes, and the acquisition policy
// (local, registry pull, public fallback).
package image

import (
	"errors"
	"fmt"
)

// DefaultRegistry is the registry assumed when none is configured.
const DefaultRegistry = "docker.io"

// ErrNamespaceRequired indicates a reference cannot be rendered because the
// registry requires a user/organization segment.
var ErrNamespaceRequired = errors.New("registry namespace required")

// Reference identifies an image across the two registry naming schemes:
// Docker Hub, where the registry segment is implied, and other registries,
// which require an explicit namespace.
type Reference struct {
	Registry   string // default docker.io
	Namespace  string // registry user or organization
	Repository string
	Tag        string // default latest
}

// Validate reports whether the reference can be rendered. Non-default
// registries require a namespace for push and pull.
func (r Reference) Validate() error {
	if r.Repository == "" {
		return fmt.Errorf("repository must not be empty")
	}
	if r.registry() != DefaultRegistry && r.Namespace == "" {
		return fmt.Errorf("registry %s: %w", r.registry(), ErrNamespaceRequired)
	}
	return nil
}

// String renders the fully qualified reference:
//
//	docker.io, no namespace  -> repository:tag
//	docker.io with namespace -> namespace/repository:tag
//	other registries         -> registry/namespace/repository:tag
func (r Reference) String() string {
	if r.registry() == DefaultRegistry {
		if r.Namespace == "" {
			return fmt.Sprintf("%s:%s", r.Repository, r.tag())
		}
		return fmt.Sprintf("%s/%s:%s", r.Namespace, r.Repository, r.tag())
	}
	return fmt.Sprintf("%s/%s/%s:%s", r.registry(), r.Namespace, r.Repository, r.tag())
}

// LocalName is the bare name the lifecycle controller expects: pulled
// images are re-tagged under it so service specs stay decoupled from
// registry naming.
func (r Reference) LocalName() string {
	return fmt.Sprintf("%s:%s", r.Repository, r.tag())
}

func (r Reference) registry() string {
	if r.Registry == "" {
		return DefaultRegistry
	}
	return r.Registry
}

func (r Reference) tag() string {
	if r.Tag == "" {
		return "latest"
	}
	return r.Tag
}
