package vaultlayer

import (
	"context"
	"fmt"
	"strings"
	"time"

	glzcms "github.com/go-go-golems/glazed/pkg/cmds"
	glzlayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/summarypages-submit/pkg/settings"
	"github.com/go-go-golems/summarypages-submit/pkg/vault"
)

const VaultLayerSlug = "vault"

type VaultSettings struct {
	VaultAddr        string `glazed.parameter:"vault-addr"`
	VaultToken       string `glazed.parameter:"vault-token"`
	VaultTokenSource string `glazed.parameter:"vault-token-source"`
	VaultTokenFile   string `glazed.parameter:"vault-token-file"`
	VaultPath        string `glazed.parameter:"vault-path"`
}

// NewVaultLayer defines the parameters for overlaying global configuration
// values stored in Vault.
func NewVaultLayer() (glzlayers.ParameterLayer, error) {
	return glzlayers.NewParameterLayer(
		VaultLayerSlug,
		"Vault configuration overlay",
		glzlayers.WithParameterDefinitions(
			parameters.NewParameterDefinition(
				"vault-path",
				parameters.ParameterTypeString,
				parameters.WithHelp("KV path holding section.option overrides (disabled when empty)"),
				parameters.WithDefault(""),
			),
			parameters.NewParameterDefinition(
				"vault-addr",
				parameters.ParameterTypeString,
				parameters.WithHelp("Vault server address"),
				parameters.WithDefault("http://127.0.0.1:8200"),
			),
			parameters.NewParameterDefinition(
				"vault-token",
				parameters.ParameterTypeString,
				parameters.WithHelp("Vault token (optional)"),
				parameters.WithDefault(""),
			),
			parameters.NewParameterDefinition(
				"vault-token-source",
				parameters.ParameterTypeChoice,
				parameters.WithHelp("Token source: auto|env|file|lookup"),
				parameters.WithDefault("auto"),
				parameters.WithChoices("auto", "env", "file", "lookup"),
			),
			parameters.NewParameterDefinition(
				"vault-token-file",
				parameters.ParameterTypeString,
				parameters.WithHelp("Path to token file (default ~/.vault-token)"),
				parameters.WithDefault(""),
			),
		),
	)
}

// AddVaultLayerToCommand attaches the layer to a Glazed command description.
func AddVaultLayerToCommand(c glzcms.Command) (glzcms.Command, error) {
	l, err := NewVaultLayer()
	if err != nil {
		return nil, err
	}
	c.Description().Layers.Set(VaultLayerSlug, l)
	return c, nil
}

// GetVaultSettings returns parsed vault settings from the ParsedLayers.
func GetVaultSettings(parsed *glzlayers.ParsedLayers) (*VaultSettings, error) {
	var s VaultSettings
	if err := parsed.InitializeStruct(VaultLayerSlug, &s); err != nil {
		return nil, fmt.Errorf("failed to parse vault settings: %w", err)
	}
	return &s, nil
}

// ApplyOverlay reads vs.VaultPath and overlays its keys onto cfg. It does
// nothing when no path is configured.
func ApplyOverlay(ctx context.Context, vs *VaultSettings, cfg *settings.Config) error {
	path := strings.TrimSpace(vs.VaultPath)
	if path == "" {
		return nil
	}

	ctx2, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	token, err := vault.ResolveToken(ctx2, vs.VaultToken, vault.TokenSource(vs.VaultTokenSource), vs.VaultTokenFile)
	if err != nil {
		return fmt.Errorf("failed to resolve Vault token: %w", err)
	}
	client, err := vault.NewClient(vs.VaultAddr, token)
	if err != nil {
		return fmt.Errorf("failed to create Vault client: %w", err)
	}

	secrets, err := client.GetSecrets(path)
	if err != nil {
		return fmt.Errorf("failed to retrieve configuration overlay from %s: %w", path, err)
	}
	n := cfg.Overlay(secrets)
	log.Debug().Str("path", path).Int("options", n).Msg("applied vault configuration overlay")
	return nil
}
