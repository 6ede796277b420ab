package goap_test

import (
	"reflect"
	"testing"

	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/homestead/internal/goap"
)

func mustPlanner(t *testing.T, actions []goap.Action, opts ...goap.PlannerOption) *goap.Planner {
	t.Helper()
	p, err := goap.NewPlanner(actions, opts...)
	if err != nil {
		t.Fatalf("NewPlanner: %v", err)
	}
	return p
}

func TestNewPlanner_RejectsDuplicateNames(t *testing.T) {
	_, err := goap.NewPlanner([]goap.Action{&stubAction{name: "a"}, &stubAction{name: "a"}})
	if err == nil {
		t.Fatal("expected duplicate name error")
	}
}

func TestNewPlanner_RejectsEmptyName(t *testing.T) {
	if _, err := goap.NewPlanner([]goap.Action{&stubAction{}}); err == nil {
		t.Fatal("expected empty name error")
	}
}

func TestPlanner_BuildPlan_GatherThenConsume(t *testing.T) {
	gather, consume := eatingDomain()
	p := mustPlanner(t, []goap.Action{gather, consume}, goap.WithPlannerLogger(zaptest.NewLogger(t)))
	goal := &stubGoal{name: "satisfy_hunger", desired: goap.ConsumedFood}

	plan := p.BuildPlan(goap.NewWorldState(), goal)
	if plan == nil {
		t.Fatal("expected a plan")
	}
	if got := plan.Names(); !reflect.DeepEqual(got, []string{"gather_or_withdraw", "consume"}) {
		t.Fatalf("unexpected sequence %v", got)
	}
	if plan.Cost != gather.cost+consume.cost {
		t.Fatalf("expected cost %v, got %v", gather.cost+consume.cost, plan.Cost)
	}
	if !plan.Desired.Achieves(goap.NewWorldState(goap.ConsumedFood)) {
		t.Fatalf("terminal state %v does not achieve consumed_food", plan.Desired)
	}
	if plan.Goal != goal {
		t.Fatal("plan must reference its goal")
	}
}

func TestPlanner_BuildPlan_DoesNotMutateCurrent(t *testing.T) {
	gather, consume := eatingDomain()
	p := mustPlanner(t, []goap.Action{gather, consume})
	current := goap.NewWorldState(goap.IsHungry)
	p.BuildPlan(current, &stubGoal{name: "g", desired: goap.ConsumedFood})
	if current.Flags() != goap.IsHungry || current.Dirty() {
		t.Fatalf("current state changed to %v (dirty=%v)", current, current.Dirty())
	}
}

func TestPlanner_BuildPlan_NilWhenAlreadyEqual(t *testing.T) {
	gather, consume := eatingDomain()
	p := mustPlanner(t, []goap.Action{gather, consume})
	goal := &stubGoal{name: "g", desired: goap.ConsumedFood}

	if plan := p.BuildPlan(goap.NewWorldState(goap.ConsumedFood), goal); plan != nil {
		t.Fatalf("expected nil plan, got %v", plan)
	}
	if gather.calculated != 0 || consume.calculated != 0 {
		t.Fatal("search must not run when the state already equals the target")
	}
	if s := p.LastSearch(); s.Generated != 0 || s.Expanded != 0 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestPlanner_BuildPlan_NilWithoutTerminalAction(t *testing.T) {
	gather, consume := eatingDomain()
	p := mustPlanner(t, []goap.Action{gather, consume})
	goal := &stubGoal{name: "upgrade", desired: goap.ExpandedStorage}

	if plan := p.BuildPlan(goap.NewWorldState(), goal); plan != nil {
		t.Fatalf("expected nil plan, got %v", plan)
	}
	if gather.calculated != 0 || consume.calculated != 0 {
		t.Fatal("open set must not be seeded without a terminal action")
	}
	if s := p.LastSearch(); s.Seeded != 0 {
		t.Fatalf("expected no seeded nodes, got %+v", s)
	}
}

func TestPlanner_BuildPlan_PrefersCheaperChain(t *testing.T) {
	tgtNear, tgtFar := &point{}, &point{}
	withdraw := &stubAction{name: "withdraw", cost: 20, achieve: goap.HoldingFood, effect: setting("withdraw", goap.HoldingFood, tgtFar)}
	gather := &stubAction{name: "gather", cost: 8, achieve: goap.HoldingFood, effect: setting("gather", goap.HoldingFood, tgtNear)}
	_, consume := eatingDomain()
	p := mustPlanner(t, []goap.Action{withdraw, gather, consume})

	plan := p.BuildPlan(goap.NewWorldState(), &stubGoal{name: "g", desired: goap.ConsumedFood})
	if plan == nil {
		t.Fatal("expected a plan")
	}
	if got := plan.Names(); !reflect.DeepEqual(got, []string{"gather", "consume"}) {
		t.Fatalf("expected the cheaper gather chain, got %v", got)
	}
	if plan.Desired.TargetForAction("gather") != tgtNear {
		t.Fatal("terminal state must carry the gather target")
	}
}

func TestPlanner_BuildPlan_TieBreaksOnRegistrationOrder(t *testing.T) {
	first := &stubAction{name: "first", cost: 10, achieve: goap.HoldingFood, effect: setting("first", goap.HoldingFood, nil)}
	second := &stubAction{name: "second", cost: 10, achieve: goap.HoldingFood, effect: setting("second", goap.HoldingFood, nil)}
	p := mustPlanner(t, []goap.Action{first, second})

	plan := p.BuildPlan(goap.NewWorldState(), &stubGoal{name: "g", desired: goap.HoldingFood})
	if plan == nil || plan.Names()[0] != "first" {
		t.Fatalf("expected first-registered action to win the tie, got %v", plan)
	}
}

func TestPlanner_BuildPlan_SkipsNoOpApplications(t *testing.T) {
	inert := &stubAction{name: "inert", cost: 0}
	gather, consume := eatingDomain()
	p := mustPlanner(t, []goap.Action{inert, gather, consume})

	plan := p.BuildPlan(goap.NewWorldState(), &stubGoal{name: "g", desired: goap.ConsumedFood})
	if plan == nil {
		t.Fatal("expected a plan")
	}
	for _, name := range plan.Names() {
		if name == "inert" {
			t.Fatal("a no-op action must never be enqueued")
		}
	}
	// Only gather seeds: inert is not dirty and consume cannot run yet.
	if s := p.LastSearch(); s.Seeded != 1 {
		t.Fatalf("expected 1 seeded node, got %+v", s)
	}
}

func TestPlanner_BuildPlan_PrunesUnresolvedTargets(t *testing.T) {
	gather := &stubAction{
		name:    "gather",
		cost:    1,
		achieve: goap.HoldingFood,
		effect:  func(current, target *goap.WorldState) *goap.WorldState { return nil },
	}
	_, consume := eatingDomain()
	p := mustPlanner(t, []goap.Action{gather, consume})

	if plan := p.BuildPlan(goap.NewWorldState(), &stubGoal{name: "g", desired: goap.ConsumedFood}); plan != nil {
		t.Fatalf("expected nil plan, got %v", plan)
	}
}

func TestPlanner_BuildPlan_NodeCapStopsCycles(t *testing.T) {
	// ping and pong toggle a flag forever; nothing reaches the target.
	ping := &stubAction{name: "ping", cost: 1, effect: func(current, _ *goap.WorldState) *goap.WorldState {
		next := current.Clone()
		next.SetFlag(goap.HoldingWood)
		next.ClearFlag(goap.HoldingWater)
		return next
	}}
	pong := &stubAction{name: "pong", cost: 1, effect: func(current, _ *goap.WorldState) *goap.WorldState {
		next := current.Clone()
		next.SetFlag(goap.HoldingWater)
		next.ClearFlag(goap.HoldingWood)
		return next
	}}
	terminal := &stubAction{
		name:    "never",
		achieve: goap.ExpandedStorage,
		canRun:  func(*goap.WorldState) bool { return false },
	}
	p := mustPlanner(t, []goap.Action{ping, pong, terminal}, goap.WithMaxNodes(64))

	if plan := p.BuildPlan(goap.NewWorldState(), &stubGoal{name: "g", desired: goap.ExpandedStorage}); plan != nil {
		t.Fatalf("expected nil plan, got %v", plan)
	}
	if s := p.LastSearch(); !s.Truncated {
		t.Fatalf("expected truncated search, got %+v", s)
	}
}

func TestPlanner_BuildPlan_SkipsImmediateParentAction(t *testing.T) {
	// step sets a different flag each time it is applied; without the guard it
	// would chain onto itself and win on cost.
	step := &stubAction{name: "step", cost: 1, achieve: goap.HoldingWater, effect: func(current, _ *goap.WorldState) *goap.WorldState {
		next := current.Clone()
		if current.Has(goap.HoldingFood) {
			next.SetFlag(goap.HoldingWater)
		} else {
			next.SetFlag(goap.HoldingFood)
		}
		return next
	}}
	bridge := &stubAction{name: "bridge", cost: 50, effect: setting("bridge", goap.HoldingWood, nil)}
	p := mustPlanner(t, []goap.Action{step, bridge})

	plan := p.BuildPlan(goap.NewWorldState(), &stubGoal{name: "g", desired: goap.HoldingWater})
	if plan == nil {
		t.Fatal("expected a plan")
	}
	names := plan.Names()
	for i := 1; i < len(names); i++ {
		if names[i] == names[i-1] {
			t.Fatalf("action repeated back to back: %v", names)
		}
	}
}

func TestProperty_Planner_Deterministic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		gatherCost := rapid.Float64Range(0, 50).Draw(rt, "gather_cost")
		withdrawCost := rapid.Float64Range(0, 50).Draw(rt, "withdraw_cost")
		start := drawFlags(rt, "start") &^ (goap.HoldingFood | goap.HoldingWater | goap.ConsumedFood | goap.ConsumedWater)
		desired := rapid.SampledFrom([]goap.Flag{goap.ConsumedFood, goap.ConsumedWater}).Draw(rt, "desired")

		build := func() *goap.Plan {
			gather := &stubAction{name: "gather", cost: gatherCost, achieve: goap.HoldingFood | goap.HoldingWater,
				effect: func(current, target *goap.WorldState) *goap.WorldState {
					next := current.Clone()
					if target.Has(goap.ConsumedWater) {
						next.SetFlag(goap.HoldingWater)
					} else {
						next.SetFlag(goap.HoldingFood)
					}
					return next
				}}
			withdraw := &stubAction{name: "withdraw", cost: withdrawCost, achieve: goap.HoldingFood | goap.HoldingWater, effect: gather.effect}
			_, consume := eatingDomain()
			p, err := goap.NewPlanner([]goap.Action{gather, withdraw, consume})
			if err != nil {
				rt.Fatalf("NewPlanner: %v", err)
			}
			return p.BuildPlan(goap.NewWorldState(start), &stubGoal{name: "g", desired: desired})
		}

		a, b := build(), build()
		if (a == nil) != (b == nil) {
			rt.Fatalf("plans differ in existence: %v vs %v", a, b)
		}
		if a == nil {
			return
		}
		if !reflect.DeepEqual(a.Names(), b.Names()) || a.Cost != b.Cost {
			rt.Fatalf("plans differ: %v vs %v", a, b)
		}
	})
}

func TestProperty_Planner_NeverEnqueuesNoOps(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		start := drawFlags(rt, "start")
		effectFlag := rapid.SampledFrom(goap.AllFlags()).Draw(rt, "effect")
		a := &stubAction{name: "maybe_noop", cost: 1, achieve: goap.FlagNone, effect: setting("maybe_noop", effectFlag, nil)}
		terminal := &stubAction{name: "terminal", achieve: goap.ExpandedStorage, canRun: func(*goap.WorldState) bool { return false }}
		p, err := goap.NewPlanner([]goap.Action{a, terminal})
		if err != nil {
			rt.Fatalf("NewPlanner: %v", err)
		}
		p.BuildPlan(goap.NewWorldState(start), &stubGoal{name: "g", desired: goap.ExpandedStorage})
		noop := start&effectFlag == effectFlag
		if noop && p.LastSearch().Generated != 0 {
			rt.Fatalf("no-op application was enqueued: %+v", p.LastSearch())
		}
	})
}
