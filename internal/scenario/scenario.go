// Package scenario loads a homestead scenario: the world and the agents that
// live in it, read from one YAML file.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/homestead/internal/homestead"
	"github.com/cory-johannsen/homestead/internal/world"
)

// Agent is one agent definition: its homestead configuration plus the
// directory of Lua priority scripts scoped to it, if any.
type Agent struct {
	Config    homestead.Config
	ScriptDir string
}

// Scenario is a parsed and validated scenario file.
//
// Invariant: agent names are unique.
type Scenario struct {
	Name   string
	World  *world.World
	Agents []Agent
	// ScriptDir holds Lua scripts shared by every agent. Empty means none.
	ScriptDir string
}

type yamlFile struct {
	Name      string      `yaml:"name"`
	ScriptDir string      `yaml:"script_dir"`
	Agents    []yamlAgent `yaml:"agents"`
}

type yamlCost struct {
	Base        float64 `yaml:"base"`
	PerDistance float64 `yaml:"per_distance"`
}

type yamlNeeds struct {
	Food            *float64 `yaml:"food"`
	Water           *float64 `yaml:"water"`
	HungerThreshold float64  `yaml:"hunger_threshold"`
	ThirstThreshold float64  `yaml:"thirst_threshold"`
	RestorePerUnit  float64  `yaml:"restore_per_unit"`
}

type yamlAgent struct {
	Name               string              `yaml:"name"`
	Position           world.YAMLVec       `yaml:"position"`
	Speed              float64             `yaml:"speed"`
	ArrivalTolerance   *float64            `yaml:"arrival_tolerance"`
	Carry              map[string]float64  `yaml:"carry"`
	Needs              yamlNeeds           `yaml:"needs"`
	RestockThreshold   float64             `yaml:"restock_threshold"`
	ExpansionThreshold float64             `yaml:"expansion_threshold"`
	MinContainerAmount float64             `yaml:"min_container_amount"`
	Costs              map[string]yamlCost `yaml:"costs"`
	Priorities         map[string]int      `yaml:"priorities"`
	MaxNodes           int                 `yaml:"max_nodes"`
	ScriptDir          string              `yaml:"script_dir"`
}

// LoadFromFile reads a scenario file. Relative script directories are resolved
// against the file's directory.
//
// Precondition: path must point to a readable YAML file.
// Postcondition: Returns a validated Scenario or a non-nil error.
func LoadFromFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario.LoadFromFile: reading %s: %w", path, err)
	}
	s, err := LoadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("scenario.LoadFromFile: %s: %w", path, err)
	}
	base := filepath.Dir(path)
	s.ScriptDir = resolve(base, s.ScriptDir)
	for i := range s.Agents {
		s.Agents[i].ScriptDir = resolve(base, s.Agents[i].ScriptDir)
	}
	return s, nil
}

func resolve(base, dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}

// LoadFromBytes parses and validates scenario YAML.
//
// Postcondition: Returns a validated Scenario or a non-nil error.
func LoadFromBytes(data []byte) (*Scenario, error) {
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing scenario YAML: %w", err)
	}
	w, err := world.LoadFromBytes(data)
	if err != nil {
		return nil, err
	}
	if len(f.Agents) == 0 {
		return nil, errors.New("scenario must define at least one agent")
	}

	s := &Scenario{Name: f.Name, World: w, ScriptDir: f.ScriptDir}
	seen := make(map[string]struct{}, len(f.Agents))
	var errs []error
	for _, ya := range f.Agents {
		if _, dup := seen[ya.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate agent name %q", ya.Name))
			continue
		}
		seen[ya.Name] = struct{}{}

		cfg, err := ya.config()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := cfg.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		s.Agents = append(s.Agents, Agent{Config: cfg, ScriptDir: ya.ScriptDir})
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("validating agents: %w", err)
	}
	return s, nil
}

func (ya yamlAgent) config() (homestead.Config, error) {
	cfg := homestead.Config{
		Name:               ya.Name,
		Position:           ya.Position.Vec(),
		Speed:              ya.Speed,
		ArrivalTolerance:   homestead.DefaultArrivalTolerance,
		CarryCapacity:      make(map[world.Kind]float64, len(ya.Carry)),
		RestockThreshold:   ya.RestockThreshold,
		ExpansionThreshold: ya.ExpansionThreshold,
		MinContainerAmount: ya.MinContainerAmount,
		Priorities:         ya.Priorities,
		MaxNodes:           ya.MaxNodes,
		Needs: homestead.NeedsConfig{
			Food:            1,
			Water:           1,
			HungerThreshold: ya.Needs.HungerThreshold,
			ThirstThreshold: ya.Needs.ThirstThreshold,
			RestorePerUnit:  ya.Needs.RestorePerUnit,
		},
	}
	if ya.ArrivalTolerance != nil {
		cfg.ArrivalTolerance = *ya.ArrivalTolerance
	}
	if ya.Needs.Food != nil {
		cfg.Needs.Food = *ya.Needs.Food
	}
	if ya.Needs.Water != nil {
		cfg.Needs.Water = *ya.Needs.Water
	}
	for k, v := range ya.Carry {
		kind := world.Kind(k)
		if !kind.Valid() {
			return homestead.Config{}, fmt.Errorf("agent %q: unknown carry kind %q", ya.Name, k)
		}
		cfg.CarryCapacity[kind] = v
	}
	if len(ya.Costs) > 0 {
		cfg.Costs = make(map[string]homestead.ActionCost, len(ya.Costs))
		for k, c := range ya.Costs {
			cfg.Costs[k] = homestead.ActionCost{Base: c.Base, PerDistance: c.PerDistance}
		}
	}
	return cfg, nil
}
