package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeImageRef(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"nginx", "docker.io/library/nginx:latest"},
		{"nginx:1.25", "docker.io/library/nginx:1.25"},
		{"codercom/code-server:latest", "docker.io/codercom/code-server:latest"},
		{"ghcr.io/alice/cotandem-backend:latest", "ghcr.io/alice/cotandem-backend:latest"},
		{"docker.io/library/nginx:latest", "docker.io/library/nginx:latest"},
		{"localhost.localdomain/repo:v1", "localhost.localdomain/repo:v1"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeImageRef(tt.in))
		})
	}
}
