package lambdacloud

import (
	"context"
	"net/http"
	"net/url"
)

// Filesystem is a persistent network filesystem
type Filesystem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MountPoint string `json:"mount_point"`
	Created    string `json:"created"`
	CreatedBy  User   `json:"created_by"`
	IsInUse    bool   `json:"is_in_use"`
	Region     Region `json:"region"`
	BytesUsed  *int64 `json:"bytes_used,omitempty"`
}

// FilesystemCreateRequest is the body of a create filesystem call
type FilesystemCreateRequest struct {
	Name   string     `json:"name"`
	Region RegionCode `json:"region"`
}

// FilesystemDeleteResponse lists the identifiers that were deleted
type FilesystemDeleteResponse struct {
	DeletedIDs []string `json:"deleted_ids"`
}

// ListFilesystems lists the account's filesystems
func (c *Client) ListFilesystems(ctx context.Context) ([]Filesystem, error) {
	// The list endpoint is /file-systems while create and delete use /filesystems.
	return do[[]Filesystem](ctx, c, http.MethodGet, "/api/v1/file-systems", nil)
}

// CreateFilesystem creates a filesystem in a region
func (c *Client) CreateFilesystem(ctx context.Context, req FilesystemCreateRequest) (*Filesystem, error) {
	fs, err := do[Filesystem](ctx, c, http.MethodPost, "/api/v1/filesystems", req)
	if err != nil {
		return nil, err
	}
	return &fs, nil
}

// DeleteFilesystem deletes a filesystem
func (c *Client) DeleteFilesystem(ctx context.Context, id string) (*FilesystemDeleteResponse, error) {
	resp, err := do[FilesystemDeleteResponse](ctx, c, http.MethodDelete, "/api/v1/filesystems/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
