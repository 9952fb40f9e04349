package cmds

import (
	"context"
	"fmt"

	glzcli "github.com/go-go-golems/glazed/pkg/cli"
	gcmds "github.com/go-go-golems/glazed/pkg/cmds"
	glayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"

	"github.com/go-go-golems/summarypages-submit/pkg/output"
)

type SubmitCommand struct{ *gcmds.CommandDescription }

type SubmitSettings struct {
	DryRun  bool `glazed.parameter:"dry-run"`
	NoColor bool `glazed.parameter:"no-color"`
}

func NewSubmitCommand() (*SubmitCommand, error) {
	layer, err := glzcli.NewCommandSettingsLayer()
	if err != nil {
		return nil, err
	}

	cd := gcmds.NewCommandDescription(
		"submit",
		gcmds.WithShort("Write pesummary.sh and submit the summary pages job to HTCondor"),
		gcmds.WithFlags(
			parameters.NewParameterDefinition("dry-run", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("Print the command and submit description instead of submitting")),
			parameters.NewParameterDefinition("no-color", parameters.ParameterTypeBool, parameters.WithDefault(false), parameters.WithHelp("Disable colored dry-run output")),
		),
		gcmds.WithLayersList(layer),
	)
	if err := addProductionLayers(cd); err != nil {
		return nil, err
	}
	return &SubmitCommand{cd}, nil
}

func (c *SubmitCommand) Run(ctx context.Context, parsed *glayers.ParsedLayers) error {
	s := &SubmitSettings{}
	if err := parsed.InitializeStruct(glayers.DefaultSlug, s); err != nil {
		return err
	}
	output.InitConsole(s.NoColor)

	p, err := loadPipeline(ctx, parsed)
	if err != nil {
		return err
	}
	clusterID, err := p.SubmitDAG(ctx, s.DryRun)
	if err != nil {
		return err
	}
	if !s.DryRun {
		fmt.Println(output.Notef("Submitted cluster %d", clusterID))
	}
	return nil
}

var _ gcmds.BareCommand = &SubmitCommand{}
