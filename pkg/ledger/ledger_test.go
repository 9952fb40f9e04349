package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ledgerYAML = `
name: GW150914
working directory: /working/GW150914
repository: /repo/GW150914
defaults:
  quality:
    minimum frequency:
      H1: 20
      L1: 20
  postprocessing:
    pesummary:
      multiprocess: 4
      accounting group: ligo.dev.o4.cbc.pe.lalinference
productions:
  - name: Prod0
    category: C01_offline
    waveform:
      approximant: IMRPhenomXPHM
      reference frequency: 20
    quality:
      minimum frequency:
        L1: 16
    postprocessing:
      pesummary:
        multiprocess: 8
        cosmology: Planck15_lal
    assets:
      samples: /path/to/posterior_samples.hdf5
      psds:
        H1: /path/H1.psd
  - name: Prod1
`

func TestParseLedger(t *testing.T) {
	ev, err := Parse([]byte(ledgerYAML))
	require.NoError(t, err)
	assert.Equal(t, "GW150914", ev.Name)
	assert.Equal(t, "/working/GW150914", ev.WorkDir)
	assert.Equal(t, "/repo/GW150914", ev.Repository)
	require.Len(t, ev.Productions, 2)

	p, err := ev.Production("Prod0")
	require.NoError(t, err)
	assert.Same(t, ev, p.Event)
	assert.Equal(t, "C01_offline", p.Category)
	assert.False(t, p.Meta.Has("assets"))
	assert.False(t, p.Meta.Has("name"))

	freqs, err := p.Meta.Section("quality", "minimum frequency")
	require.NoError(t, err)
	assert.Equal(t, 20, freqs["H1"])
	assert.Equal(t, 16, freqs["L1"])

	pes, err := p.Meta.Section("postprocessing", "pesummary")
	require.NoError(t, err)
	assert.Equal(t, 8, pes["multiprocess"])
	assert.Equal(t, "Planck15_lal", pes["cosmology"])
	assert.Equal(t, "ligo.dev.o4.cbc.pe.lalinference", pes["accounting group"])

	assert.Equal(t, "/path/to/posterior_samples.hdf5", p.Assets.Samples)
	assert.Equal(t, map[string]string{"H1": "/path/H1.psd"}, p.Assets.PSDs)
	assert.Empty(t, p.Assets.Calibration)

	p1, err := ev.Production("Prod1")
	require.NoError(t, err)
	assert.Equal(t, DefaultCategory, p1.Category)
	pes1, err := p1.Meta.Section("postprocessing", "pesummary")
	require.NoError(t, err)
	assert.Equal(t, 4, pes1["multiprocess"])
}

func TestProductionNotFound(t *testing.T) {
	ev, err := Parse([]byte(ledgerYAML))
	require.NoError(t, err)
	_, err = ev.Production("Prod9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Prod9")
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("productions: []\n"))
	require.Error(t, err)

	_, err = Parse([]byte("name: GW1\nproductions:\n  - category: C01\n"))
	require.Error(t, err)

	_, err = Parse([]byte("name: [unterminated\n"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "GW150914.yaml")
	require.NoError(t, os.WriteFile(path, []byte(ledgerYAML), 0644))

	ev, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, ev.Productions, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLedgerAssets(t *testing.T) {
	p := &Production{Assets: Assets{Samples: "s.h5"}}
	a, err := LedgerAssets{}.PreviousAssets(p)
	require.NoError(t, err)
	assert.Equal(t, "s.h5", a.Samples)
}

func TestSectionMissing(t *testing.T) {
	m := Meta{"postprocessing": map[string]interface{}{}}
	_, err := m.Section("postprocessing", "pesummary")
	require.Error(t, err)

	var mse *MissingSettingError
	require.True(t, errors.As(err, &mse))
	assert.Equal(t, "postprocessing", mse.Section)
	assert.Equal(t, "pesummary", mse.Key)
	assert.True(t, errors.Is(err, ErrMissingSetting))
}

func TestSectionNotMapping(t *testing.T) {
	m := Meta{"waveform": "IMRPhenomXPHM"}
	_, err := m.Section("waveform")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMissingSetting))
}

func TestMerge(t *testing.T) {
	base := Meta{
		"a": 1,
		"nested": map[string]interface{}{"x": 1, "y": 2},
		"list":   []interface{}{"a"},
	}
	override := Meta{
		"nested": map[string]interface{}{"y": 3},
		"list":   []interface{}{"b"},
		"b":      2,
	}
	got := Merge(base, override)
	assert.Equal(t, 1, got["a"])
	assert.Equal(t, 2, got["b"])
	assert.Equal(t, []interface{}{"b"}, got["list"])
	nested, err := got.Section("nested")
	require.NoError(t, err)
	assert.Equal(t, 1, nested["x"])
	assert.Equal(t, 3, nested["y"])

	// inputs untouched
	assert.Equal(t, 2, base["nested"].(map[string]interface{})["y"])
}

func TestMergeNullOverrideKeepsDefaults(t *testing.T) {
	base := Meta{
		"postprocessing": map[string]interface{}{
			"pesummary": map[string]interface{}{"multiprocess": 4},
		},
	}
	got := Merge(base, Meta{"postprocessing": nil, "extra": nil})

	pes, err := got.Section("postprocessing", "pesummary")
	require.NoError(t, err)
	assert.Equal(t, 4, pes["multiprocess"])
	assert.True(t, got.Has("extra"))
	assert.Nil(t, got["extra"])
}

func TestFormatScalar(t *testing.T) {
	assert.Equal(t, "16", FormatScalar(16))
	assert.Equal(t, "16.5", FormatScalar(16.5))
	assert.Equal(t, "20.0", FormatScalar(20.0))
	assert.Equal(t, "0.5", FormatScalar(float32(0.5)))
	assert.Equal(t, `["a","b"]`, FormatScalar([]interface{}{"a", "b"}))
	assert.Equal(t, "exact", FormatScalar("exact"))
	assert.Equal(t, "True", FormatScalar(true))
	assert.Equal(t, "", FormatScalar(nil))
}

func TestToFloat(t *testing.T) {
	f, err := ToFloat(16)
	require.NoError(t, err)
	assert.Equal(t, 16.0, f)

	f, err = ToFloat("32.5")
	require.NoError(t, err)
	assert.Equal(t, 32.5, f)

	_, err = ToFloat("high")
	require.Error(t, err)

	f, err = ToFloat(" 20 ")
	require.NoError(t, err)
	assert.Equal(t, 20.0, f)

	_, err = ToFloat([]interface{}{1})
	require.Error(t, err)

	_, err = ToFloat(true)
	require.Error(t, err)
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("forwards backwards", "backwards"))
	assert.False(t, Contains("forwards", "backwards"))
	assert.True(t, Contains([]interface{}{"precessing snr"}, "precessing snr"))
	assert.False(t, Contains([]interface{}{"something_else"}, "precessing snr"))
	assert.False(t, Contains(nil, "x"))
}

func TestStringList(t *testing.T) {
	assert.Equal(t, []string{"redshift", "mass_1_source"}, StringList([]interface{}{"redshift", "mass_1_source"}))
	assert.Equal(t, []string{"redshift"}, StringList("redshift"))
	assert.Nil(t, StringList(nil))
}
