package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/homestead/internal/journal"
)

// ErrDuplicateEvent is returned when an event ID has already been recorded.
var ErrDuplicateEvent = errors.New("event already recorded")

// EventRepository persists journal events in the plan_events table.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository creates an EventRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool with migrations applied.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Record implements journal.Recorder.
//
// Postcondition: Returns ErrDuplicateEvent when e.ID already exists.
func (r *EventRepository) Record(ctx context.Context, e journal.Event) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("recording event: %w", err)
	}
	actions := e.Actions
	if actions == nil {
		actions = []string{}
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO plan_events (id, agent, tick, kind, goal, plan_id, actions, cost, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.Agent, e.Tick, string(e.Kind), e.Goal, e.PlanID, actions, e.Cost, e.At,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateEvent
		}
		return fmt.Errorf("inserting plan event: %w", err)
	}
	return nil
}

// ListByAgent implements journal.Reader.
//
// Postcondition: Returns events ordered by tick then recorded_at (may be empty) or a non-nil error.
func (r *EventRepository) ListByAgent(ctx context.Context, agent string) ([]journal.Event, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, agent, tick, kind, goal, plan_id, actions, cost, recorded_at
		FROM plan_events WHERE agent = $1 ORDER BY tick ASC, recorded_at ASC`,
		agent,
	)
	if err != nil {
		return nil, fmt.Errorf("listing plan events: %w", err)
	}
	defer rows.Close()

	var out []journal.Event
	for rows.Next() {
		var (
			e    journal.Event
			kind string
		)
		if err := rows.Scan(&e.ID, &e.Agent, &e.Tick, &kind, &e.Goal, &e.PlanID, &e.Actions, &e.Cost, &e.At); err != nil {
			return nil, fmt.Errorf("scanning plan event: %w", err)
		}
		e.Kind = journal.Kind(kind)
		e.At = e.At.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plan events: %w", err)
	}
	return out, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
