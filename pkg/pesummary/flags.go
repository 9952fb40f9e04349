package pesummary

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-go-golems/summarypages-submit/pkg/ledger"
)

// ErrNoSettingsFile is returned when the repository holds no settings file
// for the production.
var ErrNoSettingsFile = errors.New("no settings file found")

// flagRule emits command-line tokens when its setting applies. Rules run in
// slice order, which fixes the order of flags on the command line.
type flagRule struct {
	name string
	// applies == nil means the rule always fires
	applies func(b *argBuilder) bool
	emit    func(b *argBuilder) ([]string, error)
}

// argBuilder holds per-invocation state shared by the rules.
type argBuilder struct {
	*Pipeline
	assets ledger.Assets
}

func metaHas(key string) func(*argBuilder) bool {
	return func(b *argBuilder) bool { return b.meta.Has(key) }
}

var flagPolicy = []flagRule{
	{name: "webdir", emit: func(b *argBuilder) ([]string, error) {
		dir, err := b.webDir()
		if err != nil {
			return nil, err
		}
		return []string{"--webdir", dir}, nil
	}},
	{name: "labels", emit: func(b *argBuilder) ([]string, error) {
		return []string{"--labels", b.production.Name}, nil
	}},
	{name: "gw", emit: func(*argBuilder) ([]string, error) {
		return []string{"--gw"}, nil
	}},
	{name: "approximant", emit: func(b *argBuilder) ([]string, error) {
		approximant, err := b.approximant()
		if err != nil {
			return nil, err
		}
		return []string{"--approximant", approximant}, nil
	}},
	{name: "frequencies", emit: func(b *argBuilder) ([]string, error) {
		fLow, err := b.minimumFrequency()
		if err != nil {
			return nil, err
		}
		waveform, err := b.production.Meta.Section("waveform")
		if err != nil {
			return nil, err
		}
		fRef, err := waveform.Require("waveform", "reference frequency")
		if err != nil {
			return nil, err
		}
		return []string{"--f_low", fLow, "--f_ref", ledger.FormatScalar(fRef)}, nil
	}},
	{name: "cosmology", applies: metaHas("cosmology"), emit: func(b *argBuilder) ([]string, error) {
		return []string{"--cosmology", ledger.FormatScalar(b.meta["cosmology"])}, nil
	}},
	// the setting is "redshift", the summarypages flag is --redshift_method
	{name: "redshift", applies: metaHas("redshift"), emit: func(b *argBuilder) ([]string, error) {
		return []string{"--redshift_method", ledger.FormatScalar(b.meta["redshift"])}, nil
	}},
	{name: "skymap samples", applies: metaHas("skymap samples"), emit: func(b *argBuilder) ([]string, error) {
		return []string{"--nsamples_for_skymap", ledger.FormatScalar(b.meta["skymap samples"])}, nil
	}},
	{name: "evolve spins", applies: metaHas("evolve spins"), emit: func(b *argBuilder) ([]string, error) {
		var out []string
		directions := b.meta["evolve spins"]
		if ledger.Contains(directions, "forwards") {
			// summarypages spells this flag "fowards"
			out = append(out, "--evolve_spins_fowards", "True")
		}
		if ledger.Contains(directions, "backwards") {
			out = append(out, "--evolve_spins_backwards", "precession_averaged")
		}
		return out, nil
	}},
	{name: "nrsur fits", emit: func(b *argBuilder) ([]string, error) {
		approximant, err := b.approximant()
		if err != nil {
			return nil, err
		}
		if strings.Contains(strings.ToLower(approximant), "nrsur") {
			return []string{"--NRSur_fits"}, nil
		}
		return nil, nil
	}},
	{name: "multiprocess", applies: metaHas("multiprocess"), emit: func(b *argBuilder) ([]string, error) {
		return []string{"--multi_process", ledger.FormatScalar(b.meta["multiprocess"])}, nil
	}},
	// presence is keyed on "regenerate", the list comes from "regenerate posteriors"
	{name: "regenerate", applies: metaHas("regenerate"), emit: func(b *argBuilder) ([]string, error) {
		posteriors, err := b.meta.Require(b.section(), "regenerate posteriors")
		if err != nil {
			return nil, err
		}
		return []string{"--regenerate", strings.Join(ledger.StringList(posteriors), " ")}, nil
	}},
	{name: "calculate", applies: metaHas("calculate"), emit: func(b *argBuilder) ([]string, error) {
		if ledger.Contains(b.meta["calculate"], "precessing snr") {
			return []string{"--calculate_precessing_snr"}, nil
		}
		return nil, nil
	}},
	{name: "config", emit: func(b *argBuilder) ([]string, error) {
		path, err := b.settingsFile()
		if err != nil {
			return nil, err
		}
		return []string{"--config", path}, nil
	}},
	{name: "samples", emit: func(b *argBuilder) ([]string, error) {
		return []string{"--samples", b.assets.Samples}, nil
	}},
	{name: "psds", applies: func(b *argBuilder) bool { return len(b.assets.PSDs) > 0 }, emit: func(b *argBuilder) ([]string, error) {
		return detectorFiles("--psds", b.assets.PSDs)
	}},
	{name: "calibration", applies: func(b *argBuilder) bool { return len(b.assets.Calibration) > 0 }, emit: func(b *argBuilder) ([]string, error) {
		return detectorFiles("--calibration", b.assets.Calibration)
	}},
}

// Arguments builds the summarypages argument vector. It has no side effects.
func (p *Pipeline) Arguments() ([]string, error) {
	assets, err := p.assets.PreviousAssets(p.production)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch upstream assets for %s: %w", p.production.Name, err)
	}
	b := &argBuilder{Pipeline: p, assets: assets}

	var args []string
	for _, rule := range flagPolicy {
		if rule.applies != nil && !rule.applies(b) {
			continue
		}
		tokens, err := rule.emit(b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rule.name, err)
		}
		args = append(args, tokens...)
	}
	return args, nil
}

func (p *Pipeline) approximant() (string, error) {
	waveform, err := p.production.Meta.Section("waveform")
	if err != nil {
		return "", err
	}
	v, err := waveform.Require("waveform", "approximant")
	if err != nil {
		return "", err
	}
	return ledger.FormatScalar(v), nil
}

// minimumFrequency is the numeric minimum over all detectors, rendered as
// the winning value was written.
func (p *Pipeline) minimumFrequency() (string, error) {
	freqs, err := p.production.Meta.Section("quality", "minimum frequency")
	if err != nil {
		return "", err
	}
	if len(freqs) == 0 {
		return "", &ledger.MissingSettingError{Section: "quality.minimum frequency", Key: "<detector>"}
	}

	ifos := make([]string, 0, len(freqs))
	for ifo := range freqs {
		ifos = append(ifos, ifo)
	}
	sort.Strings(ifos)

	best := math.Inf(1)
	var bestRaw interface{}
	for _, ifo := range ifos {
		f, err := ledger.ToFloat(freqs[ifo])
		if err != nil {
			return "", fmt.Errorf("minimum frequency for %s: %w", ifo, err)
		}
		if f < best {
			best, bestRaw = f, freqs[ifo]
		}
	}
	return ledger.FormatScalar(bestRaw), nil
}

// settingsFile is <repository>/<category>/<first settings file>, absolute.
func (p *Pipeline) settingsFile() (string, error) {
	if p.repository == nil {
		return "", fmt.Errorf("no repository configured for event %s", p.production.Event.Name)
	}
	files, err := p.repository.FindProds(p.production.Name, p.category)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%s in category %s: %w", p.production.Name, p.category, ErrNoSettingsFile)
	}
	return filepath.Abs(filepath.Join(p.repository.Dir(), p.category, files[0]))
}

// detectorFiles renders flag followed by <ifo>:<absolute path> tokens,
// detectors in sorted order.
func detectorFiles(flag string, files map[string]string) ([]string, error) {
	ifos := make([]string, 0, len(files))
	for ifo := range files {
		ifos = append(ifos, ifo)
	}
	sort.Strings(ifos)

	out := []string{flag}
	for _, ifo := range ifos {
		abs, err := filepath.Abs(files[ifo])
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s file for %s: %w", flag, ifo, err)
		}
		out = append(out, ifo+":"+abs)
	}
	return out, nil
}
