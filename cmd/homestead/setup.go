package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/homestead/internal/config"
	"github.com/cory-johannsen/homestead/internal/homestead"
	"github.com/cory-johannsen/homestead/internal/journal"
	"github.com/cory-johannsen/homestead/internal/scenario"
	"github.com/cory-johannsen/homestead/internal/scripting"
	"github.com/cory-johannsen/homestead/internal/sim"
	"github.com/cory-johannsen/homestead/internal/storage/csvtrace"
	"github.com/cory-johannsen/homestead/internal/storage/postgres"
	"github.com/cory-johannsen/homestead/internal/storage/sqlite"
)

// backend is an opened journal store.
type backend struct {
	recorder journal.Recorder
	reader   journal.Reader
	pool     *postgres.Pool
	close    func() error
}

func openJournal(ctx context.Context, cfg config.Config) (*backend, error) {
	switch cfg.Journal.Driver {
	case config.JournalPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		repo := pool.Events()
		return &backend{recorder: repo, reader: repo, pool: pool, close: func() error { pool.Close(); return nil }}, nil
	case config.JournalSQLite:
		j, err := sqlite.Open(cfg.Journal.Path)
		if err != nil {
			return nil, err
		}
		return &backend{recorder: j, reader: j, close: j.Close}, nil
	case config.JournalCSV:
		tr, err := csvtrace.Open(cfg.Journal.Path)
		if err != nil {
			return nil, err
		}
		return &backend{recorder: tr, reader: tr, close: tr.Close}, nil
	default:
		return &backend{recorder: journal.Nop{}, close: func() error { return nil }}, nil
	}
}

// tally counts journal events by kind for run summaries.
type tally map[journal.Kind]int

func (t tally) Record(_ context.Context, e journal.Event) error {
	t[e.Kind]++
	return nil
}

// session is a loaded scenario with its agents wired to scripts and the journal.
type session struct {
	scenario *scenario.Scenario
	sim      *sim.Simulation
	agents   []*homestead.Agent
	scripts  *scripting.Manager
	journal  *backend
	tally    tally
	logger   *zap.Logger
}

func (a *app) build(ctx context.Context) (*session, error) {
	start := time.Now()
	sc, err := scenario.LoadFromFile(a.cfg.Simulation.Scenario)
	if err != nil {
		return nil, err
	}

	s := &session{
		scenario: sc,
		sim:      sim.New(a.cfg.Simulation.TickInterval, a.logger),
		scripts:  scripting.NewManager(a.logger),
		tally:    make(tally),
		logger:   a.logger,
	}
	scripted, err := s.loadScripts(a.cfg.Simulation.ScriptInstructionLimit)
	if err != nil {
		s.scripts.Close()
		return nil, err
	}

	s.journal, err = openJournal(ctx, a.cfg)
	if err != nil {
		s.scripts.Close()
		return nil, err
	}

	recorder := journal.Multi{s.journal.recorder, s.tally}
	for _, sa := range sc.Agents {
		cfg := sa.Config
		if cfg.MaxNodes == 0 {
			cfg.MaxNodes = a.cfg.Planner.MaxNodes
		}
		opts := []homestead.AgentOption{
			homestead.WithLogger(a.logger),
			homestead.WithRecorder(recorder),
		}
		if scripted {
			opts = append(opts, homestead.WithScripts(s.scripts))
		}
		agent, err := homestead.NewAgent(cfg, sc.World, opts...)
		if err == nil {
			err = s.sim.AddAgent(agent)
		}
		if err != nil {
			s.Close()
			return nil, err
		}
		s.agents = append(s.agents, agent)
	}

	a.logger.Info("scenario loaded",
		zap.String("scenario", sc.Name),
		zap.Int("agents", len(s.agents)),
		zap.Int("sources", len(sc.World.Sources())),
		zap.Int("containers", len(sc.World.Containers())),
		zap.Bool("scripted", scripted),
		zap.String("journal", a.cfg.Journal.Driver),
		zap.Duration("elapsed", time.Since(start)),
	)
	return s, nil
}

func (s *session) loadScripts(limit int) (bool, error) {
	scripted := false
	if s.scenario.ScriptDir != "" {
		if err := s.scripts.LoadGlobal(s.scenario.ScriptDir, limit); err != nil {
			return false, err
		}
		scripted = true
	}
	for _, sa := range s.scenario.Agents {
		if sa.ScriptDir == "" {
			continue
		}
		if err := s.scripts.LoadScope(sa.Config.Name, sa.ScriptDir, limit); err != nil {
			return false, err
		}
		scripted = true
	}
	return scripted, nil
}

func (s *session) agent(name string) (*homestead.Agent, error) {
	for _, a := range s.agents {
		if a.Name() == name {
			return a, nil
		}
	}
	return nil, fmt.Errorf("no agent %q in scenario %q", name, s.scenario.Name)
}

// Close releases the scripts and the journal.
func (s *session) Close() {
	s.scripts.Close()
	if s.journal != nil {
		if err := s.journal.close(); err != nil {
			s.logger.Warn("closing journal", zap.Error(err))
		}
	}
}
