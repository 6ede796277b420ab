package world

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// yamlWorldFile is the top-level YAML structure; other top-level keys are ignored
// so a scenario file can carry the world alongside its agents.
type yamlWorldFile struct {
	World yamlWorld `yaml:"world"`
}

type yamlWorld struct {
	Sources    []yamlSource    `yaml:"sources"`
	Containers []yamlContainer `yaml:"containers"`
}

// YAMLVec is a position in YAML form.
type YAMLVec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Vec converts v to an r3.Vec.
func (v YAMLVec) Vec() r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

type yamlSource struct {
	ID       string  `yaml:"id"`
	Kind     string  `yaml:"kind"`
	Position YAMLVec `yaml:"position"`
	Amount   float64 `yaml:"amount"`
	Infinite bool    `yaml:"infinite"`
}

type yamlContainer struct {
	ID         string  `yaml:"id"`
	Kind       string  `yaml:"kind"`
	Position   YAMLVec `yaml:"position"`
	Stored     float64 `yaml:"stored"`
	Capacity   float64 `yaml:"capacity"`
	ExpandStep float64 `yaml:"expand_step"`
}

// LoadFromFile reads and validates the world section of a YAML file.
//
// Precondition: path must point to a readable YAML file.
// Postcondition: Returns a validated World or a non-nil error.
func LoadFromFile(path string) (*World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading world file %s: %w", path, err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses and validates the world section of YAML bytes.
//
// Postcondition: Returns a validated World or a non-nil error.
func LoadFromBytes(data []byte) (*World, error) {
	var file yamlWorldFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing world YAML: %w", err)
	}

	sources := make([]*Source, 0, len(file.World.Sources))
	for _, ys := range file.World.Sources {
		sources = append(sources, &Source{
			ID:       ys.ID,
			Kind:     Kind(ys.Kind),
			Pos:      ys.Position.Vec(),
			Amount:   ys.Amount,
			Infinite: ys.Infinite,
		})
	}
	containers := make([]*Container, 0, len(file.World.Containers))
	for _, yc := range file.World.Containers {
		containers = append(containers, &Container{
			ID:         yc.ID,
			Kind:       Kind(yc.Kind),
			Pos:        yc.Position.Vec(),
			Stored:     yc.Stored,
			Capacity:   yc.Capacity,
			ExpandStep: yc.ExpandStep,
		})
	}

	w, err := New(sources, containers)
	if err != nil {
		return nil, fmt.Errorf("validating world: %w", err)
	}
	return w, nil
}
