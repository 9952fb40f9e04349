package condor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Runner executes an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec, inheriting the environment.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = os.Environ()
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return out, fmt.Errorf("%s failed: %w: %s", name, err, msg)
		}
		return out, fmt.Errorf("%s failed: %w", name, err)
	}
	return out, nil
}

// CLIGateway talks to HTCondor through its command line tools.
type CLIGateway struct {
	Runner Runner
	// SubmitDir receives the temporary submit files.
	SubmitDir string
}

// NewCLIGateway returns a gateway using ExecRunner and the system temp dir.
func NewCLIGateway() *CLIGateway {
	return &CLIGateway{Runner: ExecRunner{}, SubmitDir: os.TempDir()}
}

func (g *CLIGateway) Locate(ctx context.Context, name string) (Schedd, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("empty schedd name: %w", ErrScheddNotFound)
	}
	out, err := g.Runner.Run(ctx, "condor_status", "-schedd", name, "-af", "Name")
	if err != nil {
		return nil, fmt.Errorf("failed to query collector for %s: %w", name, err)
	}
	for _, advertised := range strings.Fields(string(out)) {
		if strings.EqualFold(advertised, name) {
			return &cliSchedd{gateway: g, name: advertised}, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", name, ErrScheddNotFound)
}

func (g *CLIGateway) Default(ctx context.Context) (Schedd, error) {
	return &cliSchedd{gateway: g}, nil
}

type cliSchedd struct {
	gateway *CLIGateway
	name    string
}

func (s *cliSchedd) Name() string {
	if s.name == "" {
		return "local"
	}
	return s.name
}

func (s *cliSchedd) nameArgs() []string {
	if s.name == "" {
		return nil
	}
	return []string{"-name", s.name}
}

func (s *cliSchedd) Transaction(ctx context.Context, fn func(Transaction) error) error {
	txn := &cliTransaction{schedd: s}
	if err := fn(txn); err != nil {
		for _, id := range txn.clusters {
			args := append(s.nameArgs(), strconv.Itoa(id))
			if _, rmErr := s.gateway.Runner.Run(ctx, "condor_rm", args...); rmErr != nil {
				log.Warn().Err(rmErr).Int("cluster_id", id).Str("schedd", s.Name()).Msg("failed to roll back queued cluster")
				continue
			}
			log.Debug().Int("cluster_id", id).Str("schedd", s.Name()).Msg("rolled back queued cluster")
		}
		return err
	}
	return nil
}

type cliTransaction struct {
	schedd   *cliSchedd
	clusters []int
}

func (t *cliTransaction) Queue(ctx context.Context, desc Description) (int, error) {
	g := t.schedd.gateway
	dir := g.SubmitDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("submit-%s.sub", uuid.NewString()))
	if err := os.WriteFile(path, []byte(desc.Render()), 0644); err != nil {
		return 0, fmt.Errorf("failed to write submit file %s: %w", path, err)
	}
	defer func() { _ = os.Remove(path) }()

	args := append([]string{"-terse"}, t.schedd.nameArgs()...)
	args = append(args, path)
	out, err := g.Runner.Run(ctx, "condor_submit", args...)
	if err != nil {
		return 0, err
	}
	id, err := parseClusterID(out)
	if err != nil {
		return 0, err
	}
	t.clusters = append(t.clusters, id)
	log.Debug().Int("cluster_id", id).Str("schedd", t.schedd.Name()).Msg("queued cluster")
	return id, nil
}

// parseClusterID reads the cluster id from `condor_submit -terse` output,
// which has the form "123.0 - 123.0".
func parseClusterID(out []byte) (int, error) {
	fields := strings.Fields(string(out))
	if len(fields) == 0 {
		return 0, errors.New("condor_submit produced no output")
	}
	cluster, _, _ := strings.Cut(fields[0], ".")
	id, err := strconv.Atoi(cluster)
	if err != nil {
		return 0, fmt.Errorf("unexpected condor_submit output %q: %w", strings.TrimSpace(string(out)), err)
	}
	return id, nil
}

var _ Gateway = &CLIGateway{}
