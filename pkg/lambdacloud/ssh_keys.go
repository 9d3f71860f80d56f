package lambdacloud

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// SSHKey is a public key registered with the account
type SSHKey struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PublicKey string `json:"public_key"`
}

// GeneratedSSHKey is returned when the API generated the key pair.
// The private key is only ever returned once.
type GeneratedSSHKey struct {
	SSHKey
	PrivateKey string `json:"private_key"`
}

// AddedSSHKey is the result of AddSSHKey: either an SSHKey, when a public key
// was uploaded, or a GeneratedSSHKey, when the API generated the pair.
type AddedSSHKey interface {
	Key() SSHKey
	isAddedSSHKey()
}

// Key returns the registered key
func (k SSHKey) Key() SSHKey { return k }

// Key returns the registered key without the private half
func (k GeneratedSSHKey) Key() SSHKey { return k.SSHKey }

func (SSHKey) isAddedSSHKey()          {}
func (GeneratedSSHKey) isAddedSSHKey() {}

// AddSSHKeyRequest registers a key. Leave PublicKey empty to have the API generate a pair.
type AddSSHKeyRequest struct {
	Name      string `json:"name"`
	PublicKey string `json:"public_key,omitempty"`
}

// addedSSHKeyPayload tells a generated key apart from an uploaded one by the
// presence of private_key in the payload, not by its value.
type addedSSHKeyPayload struct {
	SSHKey
	PrivateKey *string `json:"private_key"`
}

func (p addedSSHKeyPayload) result() AddedSSHKey {
	if p.PrivateKey == nil {
		return p.SSHKey
	}
	return GeneratedSSHKey{SSHKey: p.SSHKey, PrivateKey: *p.PrivateKey}
}

// ListSSHKeys lists the account's SSH keys
func (c *Client) ListSSHKeys(ctx context.Context) ([]SSHKey, error) {
	return do[[]SSHKey](ctx, c, http.MethodGet, "/api/v1/ssh-keys", nil)
}

// AddSSHKey registers an SSH key or generates a new pair
func (c *Client) AddSSHKey(ctx context.Context, req AddSSHKeyRequest) (AddedSSHKey, error) {
	payload, err := do[addedSSHKeyPayload](ctx, c, http.MethodPost, "/api/v1/ssh-keys", req)
	if err != nil {
		return nil, err
	}
	return payload.result(), nil
}

// DeleteSSHKey deletes an SSH key
func (c *Client) DeleteSSHKey(ctx context.Context, id string) error {
	_, err := do[json.RawMessage](ctx, c, http.MethodDelete, "/api/v1/ssh-keys/"+url.PathEscape(id), nil)
	return err
}
