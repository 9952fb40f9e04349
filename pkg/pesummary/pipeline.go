// Package pesummary builds the summarypages command line and HTCondor
// submission for a production and hands it to a scheduler.
package pesummary

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-go-golems/summarypages-submit/pkg/condor"
	"github.com/go-go-golems/summarypages-submit/pkg/ledger"
	"github.com/go-go-golems/summarypages-submit/pkg/repository"
	"github.com/go-go-golems/summarypages-submit/pkg/settings"
)

const (
	// Name is the pipeline name; its lowercase form names the meta section,
	// the web directory and the job files.
	Name = "PESummary"

	executableName = "summarypages"
	requestMemory  = "8192MB"
	requestDisk    = "8192MB"
	batchPrefix    = "Summary Pages"
)

// Options carries the collaborators of a Pipeline.
type Options struct {
	// Category overrides the production's category when non-empty.
	Category   string
	Config     settings.Getter
	Repository repository.Lookup
	Assets     ledger.AssetProvider
	Gateway    condor.Gateway
	// Stdout receives dry-run output; defaults to os.Stdout.
	Stdout io.Writer
}

// Pipeline is the PESummary post-processing step for one production.
type Pipeline struct {
	production *ledger.Production
	category   string
	meta       ledger.Meta

	config     settings.Getter
	repository repository.Lookup
	assets     ledger.AssetProvider
	gateway    condor.Gateway
	stdout     io.Writer
}

// New returns the pipeline for production. The production must carry a
// postprocessing.pesummary section.
func New(production *ledger.Production, opts Options) (*Pipeline, error) {
	if production == nil || production.Event == nil {
		return nil, fmt.Errorf("production with an owning event is required")
	}
	if opts.Config == nil {
		return nil, fmt.Errorf("global configuration is required")
	}
	meta, err := production.Meta.Section("postprocessing", toolName())
	if err != nil {
		return nil, fmt.Errorf("production %s: %w", production.Name, err)
	}

	p := &Pipeline{
		production: production,
		category:   production.Category,
		meta:       meta,
		config:     opts.Config,
		repository: opts.Repository,
		assets:     opts.Assets,
		gateway:    opts.Gateway,
		stdout:     opts.Stdout,
	}
	if opts.Category != "" {
		p.category = opts.Category
	}
	if p.assets == nil {
		p.assets = ledger.LedgerAssets{}
	}
	if p.stdout == nil {
		p.stdout = os.Stdout
	}
	return p, nil
}

func toolName() string {
	return strings.ToLower(Name)
}

// Category is the settings category used for the --config lookup.
func (p *Pipeline) Category() string {
	return p.category
}

// Executable resolves summarypages inside the configured environment.
func (p *Pipeline) Executable() (string, error) {
	env, err := p.config.Get("pipelines", "environment")
	if err != nil {
		return "", err
	}
	return filepath.Join(env, "bin", executableName), nil
}

// webDir is <project root>/<webroot>/<event>/<production>/pesummary.
func (p *Pipeline) webDir() (string, error) {
	root, err := p.config.Get("project", "root")
	if err != nil {
		return "", err
	}
	webroot, err := p.config.Get("general", "webroot")
	if err != nil {
		return "", err
	}
	return filepath.Join(root, webroot, p.production.Event.Name, p.production.Name, toolName()), nil
}

// Results returns the files this step produces, keyed by description.
func (p *Pipeline) Results() (map[string]string, error) {
	dir, err := p.webDir()
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"metafile": filepath.Join(dir, "samples", "posterior_samples.h5"),
	}, nil
}

func (p *Pipeline) workFile(ext string) string {
	return filepath.Join(p.production.Event.WorkDir, toolName()+ext)
}

// Description builds the HTCondor submit description for args.
func (p *Pipeline) Description(executable string, args []string) (condor.Description, error) {
	cpus, err := p.meta.Require(p.section(), "multiprocess")
	if err != nil {
		return nil, err
	}

	ev := p.production.Event
	desc := condor.Description{
		"executable":            executable,
		"arguments":             strings.Join(args, " "),
		"output":                p.workFile(".out"),
		"error":                 p.workFile(".err"),
		"log":                   p.workFile(".log"),
		"request_cpus":          ledger.FormatScalar(cpus),
		"request_memory":        requestMemory,
		"request_disk":          requestDisk,
		"getenv":                "true",
		"batch_name":            fmt.Sprintf("%s/%s/%s", batchPrefix, ev.Name, p.production.Name),
		"should_transfer_files": "YES",
	}

	if p.meta.Has("accounting group") {
		user, err := p.config.Get("condor", "user")
		if err != nil {
			return nil, err
		}
		desc["accounting_group"] = ledger.FormatScalar(p.meta["accounting group"])
		desc["accounting_group_user"] = user
	}
	return desc, nil
}

func (p *Pipeline) section() string {
	return "postprocessing." + toolName()
}
