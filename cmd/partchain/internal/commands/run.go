package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/partchain/internal/contract"
	"github.com/wolfeidau/partchain/internal/fault"
	"github.com/wolfeidau/partchain/internal/logger"
	"github.com/wolfeidau/partchain/internal/store"
	"gopkg.in/yaml.v3"
)

type RunCmd struct {
	File string `arg:"" type:"existingfile" help:"scenario file"`

	Tracing     bool    `help:"enable tracing" default:"false" env:"PARTCHAIN_TRACING"`
	SampleRatio float64 `help:"fraction of root traces sampled" default:"1" env:"PARTCHAIN_TRACE_SAMPLE_RATIO"`

	Ledger LedgerFlags `embed:""`
}

// Scenario is a scripted sequence of calls with their expected outcomes.
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step is one call. Expect defaults to OK.
type Step struct {
	Caller    string     `yaml:"caller"`
	Fn        string     `yaml:"fn"`
	Args      any        `yaml:"args,omitempty"`
	Transient any        `yaml:"transient,omitempty"`
	Expect    fault.Kind `yaml:"expect,omitempty"`
	Events    []string   `yaml:"events,omitempty"`
}

func (c *RunCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	stop := startTelemetry(ctx, log, c.Tracing, "partchain-run", globals.Version, c.SampleRatio)
	defer stop()

	sc, err := loadScenario(c.File)
	if err != nil {
		return err
	}

	ledger, closeLedger, err := c.Ledger.open(ctx, log)
	if err != nil {
		return err
	}
	defer closeLedger()

	return runScenario(ctx, log, contract.NewRouter(log), ledger, sc, time.Now)
}

func loadScenario(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(b, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario %s: %w", path, err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}

	return &sc, nil
}

func runScenario(ctx context.Context, log zerolog.Logger, router *contract.Router, ledger store.Transactor, sc *Scenario, now func() time.Time) error {
	log.Info().Str("scenario", sc.Name).Int("steps", len(sc.Steps)).Msg("Running scenario")

	for i, step := range sc.Steps {
		tx := store.Tx{
			ID:        uuid.NewString(),
			Caller:    step.Caller,
			Timestamp: now().UTC(),
		}

		args, err := encodeStep(step.Args)
		if err != nil {
			return fmt.Errorf("step %d: invalid args: %w", i+1, err)
		}
		if step.Transient != nil {
			payload, err := encodeStep(step.Transient)
			if err != nil {
				return fmt.Errorf("step %d: invalid transient payload: %w", i+1, err)
			}
			tx.Transient = map[string][]byte{contract.TransientKey: payload}
		}

		resp, events := router.Invoke(ctx, ledger, tx, step.Fn, args)

		expect := step.Expect
		if expect == "" {
			expect = fault.KindOK
		}
		if resp.Kind != expect {
			return fmt.Errorf("step %d (%s as %s): expected %s, got %s: %s", i+1, step.Fn, step.Caller, expect, resp.Kind, resp.Error)
		}

		names := make([]string, 0, len(events))
		for _, e := range events {
			names = append(names, e.Name)
		}
		if step.Events != nil && !slices.Equal(step.Events, names) {
			return fmt.Errorf("step %d (%s as %s): expected events %v, got %v", i+1, step.Fn, step.Caller, step.Events, names)
		}

		log.Info().
			Int("step", i+1).
			Str("fn", step.Fn).
			Str("caller", step.Caller).
			Str("kind", string(resp.Kind)).
			Strs("events", names).
			Msg("Step passed")
	}

	return nil
}

func encodeStep(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
