package pesummary

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/go-go-golems/summarypages-submit/pkg/condor"
	"github.com/go-go-golems/summarypages-submit/pkg/output"
)

// Describe returns the argument vector and submit description without
// writing any file or contacting the scheduler.
func (p *Pipeline) Describe() ([]string, condor.Description, error) {
	args, err := p.Arguments()
	if err != nil {
		return nil, nil, err
	}
	exe, err := p.Executable()
	if err != nil {
		return nil, nil, err
	}
	desc, err := p.Description(exe, args)
	if err != nil {
		return args, nil, err
	}
	return args, desc, nil
}

// SubmitDAG writes pesummary.sh into the event working directory and submits
// the job. A dry run prints the command and description instead and returns
// cluster id 0.
func (p *Pipeline) SubmitDAG(ctx context.Context, dryRun bool) (int, error) {
	args, err := p.Arguments()
	if err != nil {
		return 0, err
	}
	exe, err := p.Executable()
	if err != nil {
		return 0, err
	}

	command := exe + " " + strings.Join(args, " ")
	script := p.workFile(".sh")
	if err := output.WriteFile(script, []byte(command), 0644); err != nil {
		return 0, err
	}

	logger := log.With().
		Str("event", p.production.Event.Name).
		Str("production", p.production.Name).
		Logger()
	logger.Info().Str("script", script).Msgf("PE summary command: %s", command)

	if dryRun {
		fmt.Fprint(p.stdout, output.Heading("PESUMMARY COMMAND"))
		fmt.Fprintln(p.stdout, strings.Join(args, " "))
	}

	desc, err := p.Description(exe, args)
	if err != nil {
		return 0, err
	}

	if dryRun {
		b, err := yaml.Marshal(map[string]string(desc))
		if err != nil {
			return 0, fmt.Errorf("failed to render submit description: %w", err)
		}
		fmt.Fprint(p.stdout, output.Heading("SUBMIT DESCRIPTION"))
		fmt.Fprint(p.stdout, string(b))
		return 0, nil
	}

	clusterID, err := p.submit(ctx, desc)
	if err != nil {
		return 0, err
	}
	logger.Info().Int("cluster_id", clusterID).Msg("submitted summary pages job")
	return clusterID, nil
}

func (p *Pipeline) submit(ctx context.Context, desc condor.Description) (int, error) {
	if p.gateway == nil {
		return 0, fmt.Errorf("no scheduler gateway configured")
	}
	schedd, err := p.schedd(ctx)
	if err != nil {
		return 0, err
	}

	var clusterID int
	err = schedd.Transaction(ctx, func(txn condor.Transaction) error {
		id, err := txn.Queue(ctx, desc)
		if err != nil {
			return err
		}
		clusterID = id
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to submit to %s: %w", schedd.Name(), err)
	}
	return clusterID, nil
}

// schedd uses the configured scheduler when it can be located and otherwise
// whichever schedd is local. Any failure on the named path falls back; a
// configured scheduler that cannot be located is also reported on stdout.
func (p *Pipeline) schedd(ctx context.Context) (condor.Schedd, error) {
	name, err := p.config.Get("condor", "scheduler")
	if err != nil {
		log.Debug().Err(err).Msg("no schedd configured, using default")
		return p.gateway.Default(ctx)
	}
	s, err := p.gateway.Locate(ctx, name)
	if err == nil {
		return s, nil
	}

	log.Debug().Err(err).Str("schedd", name).Msg("configured schedd unavailable, using default")
	s, derr := p.gateway.Default(ctx)
	if derr != nil {
		return nil, derr
	}
	fmt.Fprintln(p.stdout, output.Warnf("configured schedd %s unavailable, using %s", name, s.Name()))
	return s, nil
}
