// Package agent runs the scan loop: ask the controller for authorization,
// walk the scan root, report censored findings in one batch, signal
// completion, sleep, repeat. Every failure below the process level is
// logged and the loop carries on.
package agent

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/redactyl/dlpagent/internal/audit"
	"github.com/redactyl/dlpagent/internal/config"
	"github.com/redactyl/dlpagent/internal/engine"
	"github.com/redactyl/dlpagent/internal/logging"
	"github.com/redactyl/dlpagent/internal/types"
)

// Gateway is the subset of the controller client the agent needs.
// *gateway.Client satisfies it.
type Gateway interface {
	ShouldRun(ctx context.Context) (bool, error)
	SendData(ctx context.Context, report types.Report) error
	SignalComplete(ctx context.Context) error
}

type scanFunc func(ctx context.Context, cfg engine.Config, ex engine.Extractor) (engine.Result, error)

// Agent is the scan orchestrator. Create it with New.
type Agent struct {
	cfg       config.Config
	engineCfg engine.Config
	gw        Gateway
	ex        engine.Extractor
	log       zerolog.Logger
	audit     *audit.Log
	version   string
	host      string

	state   atomic.Int32
	scan    scanFunc
	observe func(State)
	newID   func() string
}

// Option configures an Agent.
type Option func(*Agent)

// WithAudit records every authorized cycle to l.
func WithAudit(l *audit.Log) Option {
	return func(a *Agent) { a.audit = l }
}

// WithVersion sets the version stamped on reports.
func WithVersion(v string) Option {
	return func(a *Agent) { a.version = v }
}

// WithHost overrides the host name stamped on reports.
func WithHost(h string) Option {
	return func(a *Agent) { a.host = h }
}

// New returns an Agent for an immutable configuration.
func New(cfg config.Config, gw Gateway, ex engine.Extractor, logger zerolog.Logger, opts ...Option) *Agent {
	log := logging.Component(logger, "agent")
	a := &Agent{
		cfg:       cfg,
		engineCfg: engine.FromConfig(cfg, logger),
		gw:        gw,
		ex:        ex,
		log:       log,
		version:   "dev",
		scan:      engine.ScanTree,
		newID:     uuid.NewString,
	}
	if h, err := os.Hostname(); err == nil {
		a.host = h
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// State returns the current state.
func (a *Agent) State() State { return State(a.state.Load()) }

func (a *Agent) setState(s State) {
	a.state.Store(int32(s))
	a.log.Trace().Stringer("state", s).Msg("State changed")
	if a.observe != nil {
		a.observe(s)
	}
}

// RunCycle performs one poll, walk and report pass. It always leaves the
// agent in Sleeping. A returned error is a cycle-level failure; per-file
// failures are logged by the walk and never surface here.
func (a *Agent) RunCycle(ctx context.Context) (err error) {
	defer a.setState(Sleeping)

	id := a.newID()
	log := a.log.With().Str("cycle_id", id).Logger()
	start := time.Now()

	a.setState(Authorizing)
	ok, err := a.gw.ShouldRun(ctx)
	if err != nil {
		return fmt.Errorf("authorize: %w", err)
	}
	if !ok {
		log.Debug().Msg("Scan not authorized")
		return nil
	}

	sum := audit.Summary{CycleID: id, Root: a.cfg.ScanPath, Authorized: true}
	defer func() {
		sum.Duration = time.Since(start)
		sum.Err = err
		a.record(log, sum)
	}()

	a.setState(Walking)
	log.Info().Str("root", a.cfg.ScanPath).Msg("Scan started")
	res, err := a.scan(ctx, a.engineCfg, a.ex)
	sum.FilesScanned = res.FilesScanned
	sum.FileErrors = len(res.FileErrors)
	if err != nil {
		return fmt.Errorf("walk: %w", err)
	}
	sum.Findings = res.Findings

	a.setState(ReportingResults)
	if len(res.Findings) > 0 {
		report := types.Report{
			Tool:     "dlpagent",
			Version:  a.version,
			Schema:   types.SchemaVersion,
			CycleID:  id,
			Host:     a.host,
			Root:     a.cfg.ScanPath,
			Findings: res.Findings,
		}
		if err := a.gw.SendData(ctx, report); err != nil {
			return fmt.Errorf("send data: %w", err)
		}
		sum.Reported = true
	}
	if err := a.gw.SignalComplete(ctx); err != nil {
		return fmt.Errorf("signal completion: %w", err)
	}
	log.Info().
		Int("files", res.FilesScanned).
		Int("findings", len(res.Findings)).
		Int("file_errors", len(res.FileErrors)).
		Dur("duration", time.Since(start)).
		Msg("Scan completed")
	return nil
}

func (a *Agent) record(log zerolog.Logger, s audit.Summary) {
	if a.audit == nil {
		return
	}
	if err := a.audit.Append(audit.NewCycleRecord(s)); err != nil {
		log.Warn().Err(err).Str("path", a.audit.Path()).Msg("Failed to write audit record")
	}
}

// Run repeats RunCycle until ctx is done, sleeping for the polling interval
// between cycles. Cycle errors are logged and never end the loop. Run
// returns ctx.Err().
func (a *Agent) Run(ctx context.Context) error {
	a.log.Info().
		Str("root", a.cfg.ScanPath).
		Dur("interval", a.cfg.PollingInterval).
		Int("rules", len(a.cfg.Rules)).
		Msg("Agent started")

	for {
		a.setState(Idle)
		if err := a.RunCycle(ctx); err != nil && ctx.Err() == nil {
			a.log.Error().Err(err).Msg("Scan cycle failed")
		}

		select {
		case <-ctx.Done():
			a.log.Info().Msg("Agent stopped")
			return ctx.Err()
		case <-time.After(a.cfg.PollingInterval):
		}
	}
}
