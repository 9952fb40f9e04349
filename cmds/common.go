package cmds

import (
	"context"
	"fmt"

	gcmds "github.com/go-go-golems/glazed/pkg/cmds"
	glayers "github.com/go-go-golems/glazed/pkg/cmds/layers"

	"github.com/go-go-golems/summarypages-submit/pkg/asimovlayer"
	"github.com/go-go-golems/summarypages-submit/pkg/condor"
	"github.com/go-go-golems/summarypages-submit/pkg/ledger"
	"github.com/go-go-golems/summarypages-submit/pkg/pesummary"
	"github.com/go-go-golems/summarypages-submit/pkg/repository"
	"github.com/go-go-golems/summarypages-submit/pkg/settings"
	"github.com/go-go-golems/summarypages-submit/pkg/vaultlayer"
)

func addProductionLayers(cd gcmds.Command) error {
	if _, err := asimovlayer.AddAsimovLayerToCommand(cd); err != nil {
		return err
	}
	if _, err := vaultlayer.AddVaultLayerToCommand(cd); err != nil {
		return err
	}
	return nil
}

// loadPipeline resolves the ledger, global configuration and collaborators
// named by the parsed layers into a ready pipeline.
func loadPipeline(ctx context.Context, parsed *glayers.ParsedLayers) (*pesummary.Pipeline, error) {
	as, err := asimovlayer.GetAsimovSettings(parsed)
	if err != nil {
		return nil, err
	}
	vs, err := vaultlayer.GetVaultSettings(parsed)
	if err != nil {
		return nil, err
	}

	cfg, err := settings.Load(as.Config)
	if err != nil {
		return nil, err
	}
	if err := vaultlayer.ApplyOverlay(ctx, vs, cfg); err != nil {
		return nil, err
	}

	ev, err := ledger.Load(as.Ledger)
	if err != nil {
		return nil, err
	}
	prod, err := ev.Production(as.Production)
	if err != nil {
		return nil, err
	}

	p, err := pesummary.New(prod, pesummary.Options{
		Category:   as.Category,
		Config:     cfg,
		Repository: repository.New(ev.Repository),
		Assets:     ledger.LedgerAssets{},
		Gateway:    condor.NewCLIGateway(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up %s for %s/%s: %w", pesummary.Name, ev.Name, prod.Name, err)
	}
	return p, nil
}
