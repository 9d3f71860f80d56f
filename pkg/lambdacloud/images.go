package lambdacloud

import (
	"context"
	"net/http"
)

// ImageArchitecture is the CPU architecture an image targets
type ImageArchitecture string

const (
	ArchitectureX86_64 ImageArchitecture = "x86_64"
	ArchitectureARM64  ImageArchitecture = "arm64"
)

// Image is a machine image instances can boot from
type Image struct {
	ID           string            `json:"id"`
	CreatedTime  string            `json:"created_time"`
	UpdatedTime  string            `json:"updated_time"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Family       string            `json:"family"`
	Version      string            `json:"version"`
	Architecture ImageArchitecture `json:"architecture"`
	Region       Region            `json:"region"`
}

// ListImages lists the available machine images
func (c *Client) ListImages(ctx context.Context) ([]Image, error) {
	return do[[]Image](ctx, c, http.MethodGet, "/api/v1/images", nil)
}
