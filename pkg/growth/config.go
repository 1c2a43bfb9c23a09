package growth

import (
	"fmt"
	"math"
)

// DefaultSplitRatio is the fraction of the collision distance above which
// an edge is split.
const DefaultSplitRatio = 0.99

// Config holds the simulation parameters. It is read at the start of each
// step; change it between steps with System.SetConfig.
type Config struct {
	Grow                       bool    `yaml:"grow" json:"grow"`
	MaxVertexCount             int     `yaml:"max_vertex_count" json:"maxVertexCount"`
	CollisionDistance          float64 `yaml:"collision_distance" json:"collisionDistance"`
	CollisionWeight            float64 `yaml:"collision_weight" json:"collisionWeight"`
	EdgeLengthConstraintWeight float64 `yaml:"edge_length_constraint_weight" json:"edgeLengthConstraintWeight"`
	BendingResistanceWeight    float64 `yaml:"bending_resistance_weight" json:"bendingResistanceWeight"`
	UseRTree                   bool    `yaml:"use_rtree" json:"useRTree"`

	// ApplyEdgeLengthConstraint runs the edge-length pass before positions
	// are reconciled. When false the pass runs after reconciliation and
	// its contributions are discarded by the next step's reset.
	ApplyEdgeLengthConstraint bool `yaml:"apply_edge_length_constraint" json:"applyEdgeLengthConstraint"`

	// SplitRatio scales CollisionDistance to give the split threshold.
	// Zero means DefaultSplitRatio.
	SplitRatio float64 `yaml:"split_ratio" json:"splitRatio"`
}

// Default returns a Config with growth enabled and unit weights.
func Default() Config {
	return Config{
		Grow:                       true,
		MaxVertexCount:             2000,
		CollisionDistance:          1.0,
		CollisionWeight:            1.0,
		EdgeLengthConstraintWeight: 1.0,
		BendingResistanceWeight:    0.5,
		UseRTree:                   true,
		SplitRatio:                 DefaultSplitRatio,
	}
}

// SplitThreshold returns the edge length above which an edge is split.
func (c Config) SplitThreshold() float64 {
	r := c.SplitRatio
	if r == 0 {
		r = DefaultSplitRatio
	}
	return r * c.CollisionDistance
}

// Validate returns an error wrapping ErrInvalidConfig for the first bad field.
func (c Config) Validate() error {
	bad := func(field string, v any) error {
		return fmt.Errorf("%w: %s = %v", ErrInvalidConfig, field, v)
	}
	if c.MaxVertexCount < 0 {
		return bad("max_vertex_count", c.MaxVertexCount)
	}
	if !(c.CollisionDistance > 0) || math.IsInf(c.CollisionDistance, 0) {
		return bad("collision_distance", c.CollisionDistance)
	}
	weights := []struct {
		name string
		v    float64
	}{
		{"collision_weight", c.CollisionWeight},
		{"edge_length_constraint_weight", c.EdgeLengthConstraintWeight},
		{"bending_resistance_weight", c.BendingResistanceWeight},
	}
	for _, w := range weights {
		if !(w.v >= 0) || math.IsInf(w.v, 0) {
			return bad(w.name, w.v)
		}
	}
	if c.SplitRatio < 0 || math.IsNaN(c.SplitRatio) || math.IsInf(c.SplitRatio, 0) {
		return bad("split_ratio", c.SplitRatio)
	}
	return nil
}
