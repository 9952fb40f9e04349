package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// TokenSource defines where to resolve the Vault token from
type TokenSource string

const (
	TokenSourceAuto   TokenSource = "auto"
	TokenSourceEnv    TokenSource = "env"
	TokenSourceFile   TokenSource = "file"
	TokenSourceLookup TokenSource = "lookup"
)

// ResolveToken resolves a Vault token using the given source strategy.
// For Auto, the order is: explicit/env -> file -> lookup.
func ResolveToken(ctx context.Context, explicitToken string, source TokenSource, tokenFilePath string) (string, error) {
	if source == "" {
		source = TokenSourceAuto
	}

	switch source {
	case TokenSourceEnv:
		return tokenFromEnv(explicitToken)

	case TokenSourceFile:
		return tokenFromFile(tokenFilePath)

	case TokenSourceLookup:
		return lookupTokenViaCLI(ctx)

	case TokenSourceAuto:
		if token, err := tokenFromEnv(explicitToken); err == nil {
			return token, nil
		}
		if token, err := tokenFromFile(tokenFilePath); err == nil && token != "" {
			return token, nil
		}
		if token, err := lookupTokenViaCLI(ctx); err == nil && token != "" {
			return token, nil
		}
		return "", fmt.Errorf("unable to resolve Vault token (tried env, file, lookup)")
	}

	return "", fmt.Errorf("unknown token source: %s", source)
}

func tokenFromEnv(explicitToken string) (string, error) {
	if explicitToken != "" {
		return explicitToken, nil
	}
	if t := os.Getenv("VAULT_TOKEN"); t != "" {
		return t, nil
	}
	return "", fmt.Errorf("no token found in environment")
}

func tokenFromFile(path string) (string, error) {
	home, _ := os.UserHomeDir()
	switch {
	case path == "" && home != "":
		path = filepath.Join(home, ".vault-token")
	case strings.HasPrefix(path, "~") && home != "":
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read token file %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// lookupTokenViaCLI runs `vault token lookup -format=json` and extracts .data.id.
func lookupTokenViaCLI(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "vault", "token", "lookup", "-format=json")
	cmd.Env = os.Environ()
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to execute 'vault token lookup': %w", err)
	}

	var payload struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return "", fmt.Errorf("failed to parse lookup output: %w", err)
	}
	if id, ok := payload.Data["id"].(string); ok && id != "" {
		return id, nil
	}
	return "", fmt.Errorf("could not extract token id from lookup output")
}
