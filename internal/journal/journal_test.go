package journal_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/homestead/internal/journal"
)

type failing struct{ err error }

func (f failing) Record(context.Context, journal.Event) error { return f.err }

func TestNewEvent_FillsIDAndTime(t *testing.T) {
	e := journal.NewEvent("settler", 7, journal.PlanAdopted, "satisfy_hunger")
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.At.IsZero())
	assert.NoError(t, e.Validate())
}

func TestEvent_Validate(t *testing.T) {
	e := journal.NewEvent("", 1, journal.PlanAdopted, "g")
	assert.Error(t, e.Validate())

	e = journal.NewEvent("a", 1, journal.Kind("exploded"), "g")
	assert.Error(t, e.Validate())
}

func TestMulti_CallsEveryRecorderAndJoinsErrors(t *testing.T) {
	first, second := &journal.Memory{}, &journal.Memory{}
	boom := errors.New("boom")
	m := journal.Multi{first, failing{boom}, second}

	err := m.Record(context.Background(), journal.NewEvent("a", 1, journal.GoalChanged, "g"))
	require.ErrorIs(t, err, boom)
	assert.Len(t, first.Events(), 1)
	assert.Len(t, second.Events(), 1)
}

func TestNop(t *testing.T) {
	assert.NoError(t, journal.Nop{}.Record(context.Background(), journal.Event{}))
}

func TestMemory_RejectsInvalidEvents(t *testing.T) {
	m := &journal.Memory{}
	assert.Error(t, m.Record(context.Background(), journal.Event{}))
	assert.Empty(t, m.Events())
}

func TestProperty_Memory_PreservesOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		kinds := rapid.SliceOf(rapid.SampledFrom(journal.Kinds)).Draw(rt, "kinds")
		m := &journal.Memory{}
		for i, k := range kinds {
			if err := m.Record(context.Background(), journal.NewEvent("a", int64(i), k, "g")); err != nil {
				rt.Fatalf("Record: %v", err)
			}
		}
		got := m.Kinds()
		if len(got) != len(kinds) {
			rt.Fatalf("expected %d events, got %d", len(kinds), len(got))
		}
		for i := range kinds {
			if got[i] != kinds[i] {
				rt.Fatalf("event %d: expected %s, got %s", i, kinds[i], got[i])
			}
		}
	})
}

func TestMemory_ListByAgent(t *testing.T) {
	ctx := context.Background()
	m := &journal.Memory{}
	require.NoError(t, m.Record(ctx, journal.NewEvent("ada", 1, journal.GoalChanged, "restock_food")))
	require.NoError(t, m.Record(ctx, journal.NewEvent("bram", 1, journal.GoalChanged, "restock_wood")))
	require.NoError(t, m.Record(ctx, journal.NewEvent("ada", 2, journal.PlanAdopted, "restock_food")))

	got, err := m.ListByAgent(ctx, "ada")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, journal.GoalChanged, got[0].Kind)
	assert.Equal(t, journal.PlanAdopted, got[1].Kind)

	none, err := m.ListByAgent(ctx, "cora")
	require.NoError(t, err)
	assert.Empty(t, none)
}
