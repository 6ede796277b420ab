package homestead_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/cory-johannsen/homestead/internal/homestead"
	"github.com/cory-johannsen/homestead/internal/journal"
	"github.com/cory-johannsen/homestead/internal/world"
)

func testConfig() homestead.Config {
	return homestead.Config{
		Name:             "settler",
		Speed:            5,
		ArrivalTolerance: 0.1,
		CarryCapacity:    map[world.Kind]float64{world.Food: 5, world.Water: 5, world.Wood: 5},
		Needs: homestead.NeedsConfig{
			Food:            1,
			Water:           1,
			HungerThreshold: 0.5,
			ThirstThreshold: 0.5,
			RestorePerUnit:  0.2,
		},
		RestockThreshold:   0.25,
		ExpansionThreshold: 0.95,
		MinContainerAmount: 10,
		Priorities: map[string]int{
			homestead.GoalRestockFood:    30,
			homestead.GoalRestockWater:   30,
			homestead.GoalRestockWood:    20,
			homestead.GoalUpgradeStorage: 20,
		},
	}
}

func mustWorld(t *testing.T, sources []*world.Source, containers []*world.Container) *world.World {
	t.Helper()
	w, err := world.New(sources, containers)
	require.NoError(t, err)
	return w
}

func orchard() *world.Source {
	return &world.Source{ID: "orchard", Kind: world.Food, Pos: r3.Vec{X: 10}, Infinite: true}
}

func pantry(stored float64) *world.Container {
	return &world.Container{ID: "pantry", Kind: world.Food, Pos: r3.Vec{X: -2}, Stored: stored, Capacity: 20, ExpandStep: 10}
}

func newAgent(t *testing.T, cfg homestead.Config, w *world.World, opts ...homestead.AgentOption) (*homestead.Agent, *journal.Memory) {
	t.Helper()
	mem := &journal.Memory{}
	opts = append([]homestead.AgentOption{
		homestead.WithLogger(zaptest.NewLogger(t)),
		homestead.WithRecorder(mem),
	}, opts...)
	a, err := homestead.NewAgent(cfg, w, opts...)
	require.NoError(t, err)
	return a, mem
}

func runTicks(a *homestead.Agent, n int) {
	for i := 0; i < n; i++ {
		a.Tick(context.Background())
	}
}

func previewFor(t *testing.T, a *homestead.Agent, goal string) homestead.Preview {
	t.Helper()
	for _, p := range a.Preview() {
		if p.Goal == goal {
			return p
		}
	}
	t.Fatalf("no preview for %s", goal)
	return homestead.Preview{}
}

type fixedScript map[string]int

func (f fixedScript) Priority(_, goal string, _ map[string]float64) (int, bool) {
	p, ok := f[goal]
	return p, ok
}
