// Package csvtrace appends journal events to a CSV file for offline analysis.
package csvtrace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/cory-johannsen/homestead/internal/journal"
)

// actionSep joins plan action names inside one CSV cell.
const actionSep = ";"

type row struct {
	ID      string  `csv:"id"`
	Agent   string  `csv:"agent"`
	Tick    int64   `csv:"tick"`
	Kind    string  `csv:"kind"`
	Goal    string  `csv:"goal"`
	PlanID  string  `csv:"plan_id"`
	Actions string  `csv:"actions"`
	Cost    float64 `csv:"cost"`
	At      string  `csv:"recorded_at"`
}

func toRow(e journal.Event) *row {
	return &row{
		ID:      e.ID,
		Agent:   e.Agent,
		Tick:    e.Tick,
		Kind:    string(e.Kind),
		Goal:    e.Goal,
		PlanID:  e.PlanID,
		Actions: strings.Join(e.Actions, actionSep),
		Cost:    e.Cost,
		At:      e.At.UTC().Format(time.RFC3339Nano),
	}
}

func (r *row) event() (journal.Event, error) {
	at, err := time.Parse(time.RFC3339Nano, r.At)
	if err != nil {
		return journal.Event{}, fmt.Errorf("parsing recorded_at %q: %w", r.At, err)
	}
	e := journal.Event{
		ID:     r.ID,
		Agent:  r.Agent,
		Tick:   r.Tick,
		Kind:   journal.Kind(r.Kind),
		Goal:   r.Goal,
		PlanID: r.PlanID,
		Cost:   r.Cost,
		At:     at,
	}
	if r.Actions != "" {
		e.Actions = strings.Split(r.Actions, actionSep)
	}
	return e, nil
}

// Trace is a journal.Recorder and journal.Reader over one CSV file. It is safe
// for concurrent use.
type Trace struct {
	mu            sync.Mutex
	path          string
	file          *os.File
	headerWritten bool
}

// Open opens path for appending, creating it and its directory if needed. An
// existing non-empty file is assumed to already carry the header.
//
// Precondition: path must be non-empty.
// Postcondition: Returns an open Trace or a non-nil error.
func Open(path string) (*Trace, error) {
	if path == "" {
		return nil, errors.New("csvtrace.Open: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return &Trace{path: path, file: f, headerWritten: info.Size() > 0}, nil
}

// Record implements journal.Recorder.
func (t *Trace) Record(_ context.Context, e journal.Event) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("recording event: %w", err)
	}
	records := []*row{toRow(e)}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return errors.New("csvtrace: trace is closed")
	}
	if !t.headerWritten {
		if err := gocsv.Marshal(records, t.file); err != nil {
			return fmt.Errorf("writing trace: %w", err)
		}
		t.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, t.file); err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}
	return nil
}

// ListByAgent implements journal.Reader by re-reading the file.
func (t *Trace) ListByAgent(_ context.Context, agent string) ([]journal.Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return ReadFile(t.path, agent)
}

// ReadFile reads every event for agent from a trace file, ordered by tick with
// file order breaking ties.
func ReadFile(path, agent string) ([]journal.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		return nil, nil
	}

	var rows []*row
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	var out []journal.Event
	for _, r := range rows {
		if r.Agent != agent {
			continue
		}
		e, err := r.event()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Tick < out[j].Tick })
	return out, nil
}

// Close closes the underlying file.
func (t *Trace) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	return err
}
