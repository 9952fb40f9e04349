package vault

import (
	"fmt"
	"strings"

	"github.com/hashicorp/vault/api"
)

// Client is a read-only view of a Vault KV store used to overlay global
// configuration values.
type Client struct {
	client *api.Client
}

// NewClient creates a Vault client for address and token and checks that the
// server answers health requests.
func NewClient(address, token string) (*Client, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}

	client.SetToken(token)

	if _, err = client.Sys().Health(); err != nil {
		return nil, fmt.Errorf("failed to connect to Vault at %s: %w", address, err)
	}

	return &Client{client: client}, nil
}

// GetSecrets reads the key/value pairs stored at path. KV v2 is tried first,
// then a plain KV v1 read.
func (c *Client) GetSecrets(path string) (map[string]interface{}, error) {
	mountPath, secretPath := splitMount(path)

	if data, err := c.readKVv2(mountPath, secretPath); err == nil {
		return data, nil
	}
	return c.readKVv1(path)
}

func (c *Client) readKVv1(path string) (map[string]interface{}, error) {
	secret, err := c.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from path %s: %w", path, err)
	}
	if secret == nil {
		return nil, fmt.Errorf("no secret found at path %s", path)
	}
	return secret.Data, nil
}

func (c *Client) readKVv2(mountPath, secretPath string) (map[string]interface{}, error) {
	fullPath := fmt.Sprintf("%s/data/%s", mountPath, secretPath)

	secret, err := c.client.Logical().Read(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from KV v2 path %s: %w", fullPath, err)
	}
	if secret == nil {
		return nil, fmt.Errorf("no secret found at KV v2 path %s", fullPath)
	}

	// KV v2 wraps the payload in a "data" field
	if data, ok := secret.Data["data"].(map[string]interface{}); ok {
		return data, nil
	}
	return nil, fmt.Errorf("invalid KV v2 secret format at path %s", fullPath)
}

// splitMount splits "mount/rest/of/path" into mount and remainder.
func splitMount(path string) (string, string) {
	parts := strings.SplitN(strings.Trim(path, "/"), "/", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
