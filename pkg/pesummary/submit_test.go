package pesummary

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/summarypages-submit/pkg/ledger"
	"github.com/go-go-golems/summarypages-submit/pkg/output"
	"github.com/go-go-golems/summarypages-submit/pkg/settings"
)

func init() {
	output.InitConsole(true)
}

func readScript(t *testing.T, f *fixture) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(f.production.Event.WorkDir, "pesummary.sh"))
	require.NoError(t, err)
	return string(b)
}

func TestDryRunReturnsZeroWithoutGateway(t *testing.T) {
	f := newFixture(t)
	id, err := f.pipeline(t).SubmitDAG(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 0, id)
	assert.Zero(t, f.gateway.calls())
	assert.Empty(t, f.gateway.named.queued)
	assert.Empty(t, f.gateway.local.queued)
}

func TestDryRunWritesScript(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t)
	_, err := p.SubmitDAG(context.Background(), true)
	require.NoError(t, err)

	args, err := p.Arguments()
	require.NoError(t, err)
	script := readScript(t, f)
	assert.Equal(t, "/opt/conda/envs/test/bin/summarypages "+strings.Join(args, " "), script)
	assert.NotContains(t, script, "\n")
}

func TestDryRunPrintsCommandAndDescription(t *testing.T) {
	f := newFixture(t)
	_, err := f.pipeline(t).SubmitDAG(context.Background(), true)
	require.NoError(t, err)

	out := f.stdout.String()
	assert.Contains(t, out, "PESUMMARY COMMAND\n-----------------\n--webdir ")
	assert.Contains(t, out, "SUBMIT DESCRIPTION\n------------------\n")
	assert.Contains(t, out, "batch_name: Summary Pages/GW150914/Prod0")
	assert.Contains(t, out, "request_cpus: \"4\"")
}

func TestMissingMultiprocessFailsBothModes(t *testing.T) {
	for _, dryRun := range []bool{true, false} {
		f := newFixture(t).unset("multiprocess")
		_, err := f.pipeline(t).SubmitDAG(context.Background(), dryRun)
		require.ErrorIs(t, err, ledger.ErrMissingSetting, "dryRun=%v", dryRun)
		assert.Zero(t, f.gateway.calls(), "scheduler must not be contacted (dryRun=%v)", dryRun)
	}
}

func TestDryRunPrintsCommandBeforeDescriptionError(t *testing.T) {
	f := newFixture(t).unset("multiprocess")
	_, err := f.pipeline(t).SubmitDAG(context.Background(), true)
	require.Error(t, err)
	assert.Contains(t, f.stdout.String(), "PESUMMARY COMMAND")
	assert.NotContains(t, f.stdout.String(), "SUBMIT DESCRIPTION")
}

func TestLiveSubmitUsesNamedSchedd(t *testing.T) {
	f := newFixture(t)
	id, err := f.pipeline(t).SubmitDAG(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	assert.Equal(t, []string{"test-scheduler.ligo.org"}, f.gateway.located)
	assert.Zero(t, f.gateway.defaults)
	require.Len(t, f.gateway.named.queued, 1)
	desc := f.gateway.named.queued[0]
	assert.Equal(t, "/opt/conda/envs/test/bin/summarypages", desc["executable"])
	assert.Equal(t, "4", desc["request_cpus"])
	assert.Equal(t, "testuser", desc["accounting_group_user"])
	assert.Contains(t, desc["batch_name"], "GW150914")
	assert.Contains(t, desc["batch_name"], "Prod0")
	assert.Empty(t, f.stdout.String())
}

func TestLiveSubmitFallsBackToDefaultSchedd(t *testing.T) {
	f := newFixture(t)
	f.gateway.locateErr = errors.New("collector unreachable")

	id, err := f.pipeline(t).SubmitDAG(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 7, id)
	assert.Equal(t, 1, f.gateway.defaults)
	assert.Len(t, f.gateway.local.queued, 1)
	assert.Empty(t, f.gateway.named.queued)
	assert.Equal(t,
		"Warning: configured schedd test-scheduler.ligo.org unavailable, using "+f.gateway.local.name+"\n",
		f.stdout.String())
}

func TestLiveSubmitFallsBackWhenSchedulerUnset(t *testing.T) {
	f := newFixture(t)
	f.config = settings.FromMap(map[string]map[string]interface{}{
		"pipelines": {"environment": "/opt/conda/envs/test"},
		"project":   {"root": "/project"},
		"general":   {"webroot": "public_html"},
		"condor":    {"user": "testuser"},
	})

	id, err := f.pipeline(t).SubmitDAG(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 7, id)
	assert.Empty(t, f.gateway.located)
	assert.Equal(t, 1, f.gateway.defaults)
	assert.Empty(t, f.stdout.String())
}

func TestLiveSubmitQueueErrorPropagates(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("permission denied")
	f.gateway.named.err = boom

	_, err := f.pipeline(t).SubmitDAG(context.Background(), false)
	require.ErrorIs(t, err, boom)
	assert.Zero(t, f.gateway.defaults, "queue failures are not retried on another schedd")
}

func TestLiveSubmitWithoutGateway(t *testing.T) {
	f := newFixture(t)
	p, err := New(f.production, Options{Config: f.config, Repository: f.repo})
	require.NoError(t, err)
	_, err = p.SubmitDAG(context.Background(), false)
	require.Error(t, err)
}

func TestSubmitFailsBeforeWritingWhenArgumentsFail(t *testing.T) {
	f := newFixture(t)
	f.repo.files = nil
	_, err := f.pipeline(t).SubmitDAG(context.Background(), true)
	require.ErrorIs(t, err, ErrNoSettingsFile)
	_, statErr := os.Stat(filepath.Join(f.production.Event.WorkDir, "pesummary.sh"))
	assert.True(t, os.IsNotExist(statErr))
}
