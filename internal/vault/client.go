// Package vault is an optional credential source: environments may reference
// a Vault KV path instead of embedding a password in their secret file.
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"

	vault "github.com/hashicorp/vault/api"
)

// ErrClientInit indicates failure to initialize the Vault API client.
var ErrClientInit = errors.New("vault client initialization failed")

// Client wraps the Vault API client.
type Client struct {
	api *vault.Client
}

// NewClient creates a Vault client for the given address. The token comes
// from VAULT_TOKEN, matching the vault CLI convention.
func NewClient(address string) (*Client, error) {
	apiCfg := vault.DefaultConfig()
	if address != "" {
		apiCfg.Address = address
	}

	api, err := vault.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClientInit, err)
	}
	if token := os.Getenv("VAULT_TOKEN"); token != "" {
		api.SetToken(token)
	}
	return &Client{api: api}, nil
}

// Password reads the "password" field at the given KV path. Both KV v1 and
// the v2 nested "data" layout are handled.
func (c *Client) Password(ctx context.Context, path string) (string, error) {
	secret, err := c.api.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return "", fmt.Errorf("vault read %q: %w", path, err)
	}
	if secret == nil {
		return "", fmt.Errorf("no data found at vault path %q", path)
	}

	data := secret.Data
	if nested, ok := data["data"].(map[string]any); ok {
		data = nested
	}
	password, ok := data["password"].(string)
	if !ok || password == "" {
		return "", fmt.Errorf("no password field at vault path %q", path)
	}
	return password, nil
}
