package cmds

import (
	"context"
	"sort"

	glzcli "github.com/go-go-golems/glazed/pkg/cli"
	gcmds "github.com/go-go-golems/glazed/pkg/cmds"
	glayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"
)

type DescribeCommand struct{ *gcmds.CommandDescription }

type DescribeSettings struct {
	Arguments bool `glazed.parameter:"arguments"`
}

func NewDescribeCommand() (*DescribeCommand, error) {
	glazedLayers, err := settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, err
	}
	commandLayer, err := glzcli.NewCommandSettingsLayer()
	if err != nil {
		return nil, err
	}
	cd := gcmds.NewCommandDescription(
		"describe",
		gcmds.WithShort("Show the HTCondor submit description without writing or submitting anything"),
		gcmds.WithFlags(
			parameters.NewParameterDefinition("arguments", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("Emit one row per command-line token instead of the submit description")),
		),
		gcmds.WithLayersList(glazedLayers, commandLayer),
	)
	if err := addProductionLayers(cd); err != nil {
		return nil, err
	}
	return &DescribeCommand{cd}, nil
}

func (c *DescribeCommand) RunIntoGlazeProcessor(ctx context.Context, parsed *glayers.ParsedLayers, gp middlewares.Processor) error {
	s := &DescribeSettings{}
	if err := parsed.InitializeStruct(glayers.DefaultSlug, s); err != nil {
		return err
	}
	p, err := loadPipeline(ctx, parsed)
	if err != nil {
		return err
	}

	if s.Arguments {
		args, err := p.Arguments()
		if err != nil {
			return err
		}
		for i, a := range args {
			row := types.NewRow(
				types.MRP("position", i),
				types.MRP("token", a),
			)
			if err := gp.AddRow(ctx, row); err != nil {
				return err
			}
		}
		return nil
	}

	_, desc, err := p.Describe()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(desc))
	for k := range desc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		row := types.NewRow(
			types.MRP("attribute", k),
			types.MRP("value", desc[k]),
		)
		if err := gp.AddRow(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

var _ gcmds.GlazeCommand = &DescribeCommand{}
