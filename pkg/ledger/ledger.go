package ledger

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultCategory is used for productions that do not name one.
const DefaultCategory = "C01_offline"

// Event is the observation under analysis and the productions run on it.
type Event struct {
	Name        string
	WorkDir     string
	Repository  string
	Productions []*Production
}

// Production is one configured analysis run within an event.
type Production struct {
	Name     string
	Category string
	Meta     Meta
	Assets   Assets
	Event    *Event
}

// Assets are the outputs of the upstream analysis stage.
type Assets struct {
	Samples     string            `yaml:"samples"`
	PSDs        map[string]string `yaml:"psds"`
	Calibration map[string]string `yaml:"calibration"`
}

// AssetProvider returns the upstream assets for a production.
type AssetProvider interface {
	PreviousAssets(p *Production) (Assets, error)
}

// LedgerAssets serves the assets recorded in the ledger file.
type LedgerAssets struct{}

func (LedgerAssets) PreviousAssets(p *Production) (Assets, error) {
	return p.Assets, nil
}

type eventFile struct {
	Name        string                   `yaml:"name"`
	WorkDir     string                   `yaml:"working directory"`
	Repository  string                   `yaml:"repository"`
	Defaults    map[string]interface{}   `yaml:"defaults"`
	Productions []map[string]interface{} `yaml:"productions"`
}

// reserved production keys that are not part of the production meta
var reserved = map[string]struct{}{"name": {}, "category": {}, "assets": {}}

// Load reads an event ledger from a YAML file.
func Load(filename string) (*Event, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger file: %w", err)
	}
	ev, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ledger %s: %w", filename, err)
	}
	return ev, nil
}

// Parse decodes an event ledger document.
func Parse(data []byte) (*Event, error) {
	var f eventFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML ledger: %w", err)
	}
	if f.Name == "" {
		return nil, fmt.Errorf("ledger has no event name")
	}

	ev := &Event{Name: f.Name, WorkDir: f.WorkDir, Repository: f.Repository}
	defaults := Meta(f.Defaults)
	for i, raw := range f.Productions {
		p, err := parseProduction(raw, defaults)
		if err != nil {
			return nil, fmt.Errorf("production %d: %w", i+1, err)
		}
		p.Event = ev
		ev.Productions = append(ev.Productions, p)
	}
	return ev, nil
}

func parseProduction(raw map[string]interface{}, defaults Meta) (*Production, error) {
	name, _ := raw["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("missing production name")
	}
	category, _ := raw["category"].(string)
	if category == "" {
		category = DefaultCategory
	}

	own := Meta{}
	for k, v := range raw {
		if _, ok := reserved[k]; ok {
			continue
		}
		own[k] = v
	}

	var assets Assets
	if a, ok := raw["assets"]; ok && a != nil {
		// round-trip through YAML to reuse the struct tags
		b, err := yaml.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to encode assets: %w", name, err)
		}
		if err := yaml.Unmarshal(b, &assets); err != nil {
			return nil, fmt.Errorf("%s: invalid assets: %w", name, err)
		}
	}

	return &Production{
		Name:     name,
		Category: category,
		Meta:     Merge(defaults, own),
		Assets:   assets,
	}, nil
}

// Production returns the production called name.
func (e *Event) Production(name string) (*Production, error) {
	for _, p := range e.Productions {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("event %s has no production %q (have %v)", e.Name, name, e.productionNames())
}

func (e *Event) productionNames() []string {
	names := make([]string, 0, len(e.Productions))
	for _, p := range e.Productions {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}
