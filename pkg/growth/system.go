// Package growth implements differential mesh growth. Each step may split
// long edges, then accumulates collision, bending and edge-length
// corrections per vertex and moves every vertex by the weighted average of
// its corrections.
package growth

import (
	"context"
	"fmt"

	"github.com/chazu/sprout/pkg/export"
	"github.com/chazu/sprout/pkg/halfedge"
	"github.com/chazu/sprout/pkg/kernel"
	"github.com/chazu/sprout/pkg/spatial"
	"go.uber.org/zap"
)

// StepStats summarises one call to Step.
type StepStats struct {
	Iteration        int
	Splits           int
	CollisionPairs   int
	BendingEdges     int
	ConstrainedEdges int
	Moved            int
	Vertices         int
	Faces            int
}

// System owns a mesh and advances it one step at a time. It is not safe
// for concurrent use; callers must serialise Step.
type System struct {
	mesh      *halfedge.Mesh
	cfg       Config
	acc       Accumulators
	iteration int
	log       *zap.Logger
}

// Option configures a System.
type Option func(*System)

// WithLogger sets the logger used for per-step debug output.
func WithLogger(l *zap.Logger) Option {
	return func(s *System) {
		if l != nil {
			s.log = l
		}
	}
}

// New returns a System that takes ownership of m and mutates it in place.
func New(m *halfedge.Mesh, cfg Config, opts ...Option) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if m == nil || m.VertexCount() == 0 {
		return nil, fmt.Errorf("%w: no vertices", ErrInvalidSeed)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	if err := m.CheckGeometry(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	s := &System{mesh: m, cfg: cfg, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.Grow && m.VertexCount() >= cfg.MaxVertexCount {
		s.log.Warn("seed already at the vertex limit; no edge will split",
			zap.Int("vertices", m.VertexCount()),
			zap.Int("max_vertex_count", cfg.MaxVertexCount),
		)
	}
	return s, nil
}

// Mesh returns the live mesh. It changes on every Step.
func (s *System) Mesh() *halfedge.Mesh { return s.mesh }

// Config returns the current configuration.
func (s *System) Config() Config { return s.cfg }

// SetConfig replaces the configuration used by subsequent steps.
func (s *System) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cfg = cfg
	return nil
}

// Iteration returns the number of completed steps.
func (s *System) Iteration() int { return s.iteration }

// Export returns the current geometry as a renderable triangle mesh.
func (s *System) Export(name string) *kernel.Mesh {
	return export.ToKernelMesh(s.mesh, name)
}

// Step runs one iteration: split long edges when growing, reset the
// accumulators, accumulate collision and bending corrections, move the
// vertices, then run the edge-length pass. With ApplyEdgeLengthConstraint
// the edge-length pass runs before the move instead.
func (s *System) Step() StepStats {
	cfg := s.cfg
	m := s.mesh
	var st StepStats

	if cfg.Grow {
		st.Splits = len(SplitLongEdges(m, cfg))
	}

	s.acc.Reset(m.VertexCount())

	finder, weight := spatial.Finder(spatial.BruteForce{}), 1.0
	if cfg.UseRTree {
		finder, weight = spatial.NewRTree(), cfg.CollisionWeight
	}
	positions := m.Positions()
	pairs := finder.Pairs(positions, cfg.CollisionDistance)
	st.CollisionPairs = Collide(&s.acc, positions, pairs, cfg.CollisionDistance, weight)

	st.BendingEdges = ResistBending(&s.acc, m, cfg.BendingResistanceWeight)

	if cfg.ApplyEdgeLengthConstraint {
		st.ConstrainedEdges = ConstrainEdgeLengths(&s.acc, m, cfg.CollisionDistance, cfg.EdgeLengthConstraintWeight)
		st.Moved = s.acc.Reconcile(m)
	} else {
		st.Moved = s.acc.Reconcile(m)
		st.ConstrainedEdges = ConstrainEdgeLengths(&s.acc, m, cfg.CollisionDistance, cfg.EdgeLengthConstraintWeight)
	}

	s.iteration++
	st.Iteration = s.iteration
	st.Vertices = m.VertexCount()
	st.Faces = m.FaceCount()

	s.log.Debug("growth step",
		zap.Int("iteration", st.Iteration),
		zap.String("strategy", finder.Name()),
		zap.Int("splits", st.Splits),
		zap.Int("collision_pairs", st.CollisionPairs),
		zap.Int("bending_edges", st.BendingEdges),
		zap.Int("constrained_edges", st.ConstrainedEdges),
		zap.Int("moved", st.Moved),
		zap.Int("vertices", st.Vertices),
	)
	return st
}

// Run calls Step up to n times. ctx is checked between steps only; a step
// always runs to completion. If fn is non-nil it sees each step's stats and
// can stop the run early by returning false. Run returns the number of
// steps taken.
func (s *System) Run(ctx context.Context, n int, fn func(StepStats) bool) (int, error) {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		st := s.Step()
		if fn != nil && !fn(st) {
			return i + 1, nil
		}
	}
	return n, nil
}
