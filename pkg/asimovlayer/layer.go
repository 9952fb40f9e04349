// Package asimovlayer defines the glazed parameters shared by every command
// that works on a production: where the ledger and the global configuration
// live, and which production to act on.
package asimovlayer

import (
	"fmt"

	glzcms "github.com/go-go-golems/glazed/pkg/cmds"
	glzlayers "github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
)

const AsimovLayerSlug = "asimov"

type AsimovSettings struct {
	Config     string `glazed.parameter:"asimov-config"`
	Ledger     string `glazed.parameter:"ledger"`
	Production string `glazed.parameter:"production"`
	Category   string `glazed.parameter:"category"`
}

func NewAsimovLayer() (glzlayers.ParameterLayer, error) {
	return glzlayers.NewParameterLayer(
		AsimovLayerSlug,
		"Production selection and global configuration",
		glzlayers.WithParameterDefinitions(
			parameters.NewParameterDefinition(
				"ledger",
				parameters.ParameterTypeString,
				parameters.WithRequired(true),
				parameters.WithHelp("Event ledger YAML file"),
			),
			parameters.NewParameterDefinition(
				"production",
				parameters.ParameterTypeString,
				parameters.WithRequired(true),
				parameters.WithShortFlag("p"),
				parameters.WithHelp("Production name within the event"),
			),
			parameters.NewParameterDefinition(
				"category",
				parameters.ParameterTypeString,
				parameters.WithDefault(""),
				parameters.WithHelp("Settings category (defaults to the production's category)"),
			),
			parameters.NewParameterDefinition(
				"asimov-config",
				parameters.ParameterTypeString,
				parameters.WithDefault(""),
				parameters.WithHelp("Global configuration file (yaml|toml|json); empty uses the application config"),
			),
		),
	)
}

// AddAsimovLayerToCommand attaches the layer to a Glazed command description.
func AddAsimovLayerToCommand(c glzcms.Command) (glzcms.Command, error) {
	l, err := NewAsimovLayer()
	if err != nil {
		return nil, err
	}
	c.Description().Layers.Set(AsimovLayerSlug, l)
	return c, nil
}

func GetAsimovSettings(parsed *glzlayers.ParsedLayers) (*AsimovSettings, error) {
	var s AsimovSettings
	if err := parsed.InitializeStruct(AsimovLayerSlug, &s); err != nil {
		return nil, fmt.Errorf("failed to parse asimov settings: %w", err)
	}
	return &s, nil
}
