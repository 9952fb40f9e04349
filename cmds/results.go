package cmds

import (
	"context"
	"sort"

	glzcli "github.com/go-go-golems/glazed/pkg/cli"
	gcmds "github.com/go-go-golems/glazed/pkg/cmds"
	glayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"
)

type ResultsCommand struct{ *gcmds.CommandDescription }

func NewResultsCommand() (*ResultsCommand, error) {
	glazedLayers, err := settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, err
	}
	commandLayer, err := glzcli.NewCommandSettingsLayer()
	if err != nil {
		return nil, err
	}
	cd := gcmds.NewCommandDescription(
		"results",
		gcmds.WithShort("List the files the summary pages job produces"),
		gcmds.WithLayersList(glazedLayers, commandLayer),
	)
	if err := addProductionLayers(cd); err != nil {
		return nil, err
	}
	return &ResultsCommand{cd}, nil
}

func (c *ResultsCommand) RunIntoGlazeProcessor(ctx context.Context, parsed *glayers.ParsedLayers, gp middlewares.Processor) error {
	p, err := loadPipeline(ctx, parsed)
	if err != nil {
		return err
	}
	results, err := p.Results()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		row := types.NewRow(
			types.MRP("result", name),
			types.MRP("path", results[name]),
		)
		if err := gp.AddRow(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

var _ gcmds.GlazeCommand = &ResultsCommand{}
