package container

import "strings"

// NormalizeImageRef normalizes image references for comparison
func NormalizeImageRef(imageRef string) string {
	// Split image and tag
	parts := strings.Split(imageRef, ":")
	image := parts[0]
	tag := "latest"
	if len(parts) > 1 {
		tag = parts[1]
	}

	// Normalize Docker Hub references
	if !strings.Contains(image, "/") {
		// Official library image (e.g. "nginx" -> "docker.io/library/nginx")
		image = "docker.io/library/" + image
	} else if strings.Count(image, "/") == 1 && !strings.Contains(strings.Split(image, "/")[0], ".") {
		// User repository (e.g. "user/repo" -> "docker.io/user/repo")
		image = "docker.io/" + image
	}

	return image + ":" + tag
}
