package growth

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/chazu/sprout/pkg/halfedge"
	"github.com/chazu/sprout/pkg/seed"
	"github.com/chazu/sprout/pkg/spatial"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func unitConfig() Config {
	return Config{
		Grow:                       false,
		MaxVertexCount:             1000,
		CollisionDistance:          1,
		CollisionWeight:            1,
		EdgeLengthConstraintWeight: 1,
		BendingResistanceWeight:    1,
		UseRTree:                   false,
	}
}

func points(t *testing.T, pts ...v3.Vec) *halfedge.Mesh {
	t.Helper()
	m, err := halfedge.New(pts, nil)
	if err != nil {
		t.Fatalf("halfedge.New failed: %v", err)
	}
	return m
}

func quad(t *testing.T, side float64) *halfedge.Mesh {
	t.Helper()
	m, err := seed.Quad(side)
	if err != nil {
		t.Fatalf("seed.Quad failed: %v", err)
	}
	return m
}

func expectPanic(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic with %v", target)
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, target) {
			t.Fatalf("panic = %v, want %v", r, target)
		}
	}()
	fn()
}

func TestAccumulatorsReset(t *testing.T) {
	var acc Accumulators
	acc.Reset(3)
	acc.Add(1, v3.Vec{X: 2}, 0.5)
	acc.Add(1, v3.Vec{X: 4}, 1.5)
	if got := acc.Weight(1); got != 2 {
		t.Errorf("weight = %v, want 2", got)
	}
	if got := acc.WeightedMove(1); got != (v3.Vec{X: 7}) {
		t.Errorf("weighted move = %v, want {7 0 0}", got)
	}
	d, ok := acc.Displacement(1)
	if !ok || d != (v3.Vec{X: 3.5}) {
		t.Errorf("displacement = %v %v, want {3.5 0 0} true", d, ok)
	}

	acc.Reset(3)
	for i := 0; i < acc.Len(); i++ {
		if acc.Weight(i) != 0 || acc.WeightedMove(i) != (v3.Vec{}) {
			t.Errorf("vertex %d not cleared by Reset", i)
		}
	}
	acc.Reset(5)
	if acc.Len() != 5 {
		t.Errorf("Len = %d after growing reset, want 5", acc.Len())
	}
}

func TestReconcileSkipsZeroWeight(t *testing.T) {
	m := points(t, v3.Vec{}, v3.Vec{X: 3})
	var acc Accumulators
	acc.Reset(2)
	acc.Add(1, v3.Vec{Y: 1}, 0)
	acc.Add(0, v3.Vec{Z: 2}, 4)
	if moved := acc.Reconcile(m); moved != 1 {
		t.Errorf("moved = %d, want 1", moved)
	}
	if got := m.Position(0); got != (v3.Vec{Z: 2}) {
		t.Errorf("vertex 0 at %v, want {0 0 2}", got)
	}
	if got := m.Position(1); got != (v3.Vec{X: 3}) {
		t.Errorf("zero-weight vertex moved to %v", got)
	}
}

func TestReconcileRejectsNonFinite(t *testing.T) {
	m := points(t, v3.Vec{})
	var acc Accumulators
	acc.Reset(1)
	acc.Add(0, v3.Vec{X: math.Inf(1)}, 1)
	expectPanic(t, ErrNonFinite, func() { acc.Reconcile(m) })
}

func TestCollideIsSymmetric(t *testing.T) {
	pos := []v3.Vec{{}, {X: 0.3, Y: 0.1}, {X: -0.2, Z: 0.4}}
	pairs := spatial.BruteForce{}.Pairs(pos, 1)
	if len(pairs) != 3 {
		t.Fatalf("expected 3 pairs, got %d", len(pairs))
	}
	for _, p := range pairs {
		var acc Accumulators
		acc.Reset(len(pos))
		Collide(&acc, pos, []spatial.Pair{p}, 1, 2)
		sum := acc.WeightedMove(p.I).Add(acc.WeightedMove(p.J))
		if sum.Length() > 1e-15 {
			t.Errorf("pair %v: moves do not cancel, sum %v", p, sum)
		}
		if acc.Weight(p.I) != 2 || acc.Weight(p.J) != 2 {
			t.Errorf("pair %v: weights %v %v, want 2", p, acc.Weight(p.I), acc.Weight(p.J))
		}
	}
}

func TestCollideStrategiesAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 2; n <= 50; n++ {
		pos := make([]v3.Vec, n)
		for i := range pos {
			pos[i] = v3.Vec{X: rng.Float64() * 3, Y: rng.Float64() * 3, Z: rng.Float64() * 3}
		}
		var brute, tree Accumulators
		brute.Reset(n)
		tree.Reset(n)
		Collide(&brute, pos, spatial.BruteForce{}.Pairs(pos, 1), 1, 1)
		Collide(&tree, pos, spatial.NewRTree().Pairs(pos, 1), 1, 1)
		for i := 0; i < n; i++ {
			if brute.WeightedMove(i) != tree.WeightedMove(i) || brute.Weight(i) != tree.Weight(i) {
				t.Fatalf("n=%d vertex %d: brute %v/%v, rtree %v/%v", n, i,
					brute.WeightedMove(i), brute.Weight(i), tree.WeightedMove(i), tree.Weight(i))
			}
		}
	}
}

func TestConstrainEdgeLengths(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		want     int
	}{
		{"all edges shorter", 1.5, 0},
		{"sides at the limit", 1, 1},
		{"all edges longer", 0.5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := quad(t, 1)
			var acc Accumulators
			acc.Reset(m.VertexCount())
			if got := ConstrainEdgeLengths(&acc, m, tt.distance, 1); got != tt.want {
				t.Errorf("constrained %d edges, want %d", got, tt.want)
			}
			if tt.want == 0 {
				for i := 0; i < acc.Len(); i++ {
					if acc.Weight(i) != 0 {
						t.Errorf("vertex %d has weight %v", i, acc.Weight(i))
					}
				}
			}
		})
	}
}

func TestConstrainEdgeLengthsPullsTogether(t *testing.T) {
	m, err := halfedge.New([]v3.Vec{{}, {X: 3}, {X: 1.5, Y: 3}}, [][]int{{0, 1, 2}})
	if err != nil {
		t.Fatal(err)
	}
	var acc Accumulators
	acc.Reset(3)
	ConstrainEdgeLengths(&acc, m, 1, 1)
	// Edge 0-1 has length 3: each end moves 1 towards the other.
	move := halfCorrection(m.Position(0), m.Position(1), 1)
	if move != (v3.Vec{X: 1}) {
		t.Errorf("half correction = %v, want {1 0 0}", move)
	}
	if acc.Weight(0) != 2 || acc.Weight(1) != 2 || acc.Weight(2) != 2 {
		t.Errorf("weights = %v %v %v, want 2 each", acc.Weight(0), acc.Weight(1), acc.Weight(2))
	}

	// The slanted edges have length l; each end moves k*(other-self).
	l := math.Sqrt(1.5*1.5 + 3*3)
	k := 0.5 * (l - 1) / l
	want := []v3.Vec{
		{X: 1 + 1.5*k, Y: 3 * k},
		{X: -1 - 1.5*k, Y: 3 * k},
		{Y: -6 * k},
	}
	for i, w := range want {
		got := acc.WeightedMove(i)
		if got.Sub(w).Length() > 1e-12 {
			t.Errorf("vertex %d moved %v, want %v", i, got, w)
		}
	}
}

func TestResistBendingSkipsBoundary(t *testing.T) {
	m, err := halfedge.New([]v3.Vec{{}, {X: 1}, {Y: 1}}, [][]int{{0, 1, 2}})
	if err != nil {
		t.Fatal(err)
	}
	var acc Accumulators
	acc.Reset(3)
	if got := ResistBending(&acc, m, 1); got != 0 {
		t.Errorf("bending edges = %d, want 0", got)
	}
	for i := 0; i < 3; i++ {
		if acc.Weight(i) != 0 {
			t.Errorf("vertex %d has weight %v", i, acc.Weight(i))
		}
	}
}

func TestResistBendingSkipsPolygons(t *testing.T) {
	// Two quads folded along the 1-4 edge, then a triangle fan on one side.
	pts := []v3.Vec{
		{}, {X: 1}, {X: 2, Z: 1},
		{Y: 1}, {X: 1, Y: 1}, {X: 2, Y: 1, Z: 1},
	}
	tests := []struct {
		name  string
		faces [][]int
		want  int
	}{
		{"quad-quad", [][]int{{0, 1, 4, 3}, {1, 2, 5, 4}}, 0},
		{"quad-triangle", [][]int{{0, 1, 4, 3}, {1, 2, 5}, {1, 5, 4}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := halfedge.New(pts, tt.faces)
			if err != nil {
				t.Fatal(err)
			}
			var acc Accumulators
			acc.Reset(m.VertexCount())
			if got := ResistBending(&acc, m, 1); got != tt.want {
				t.Errorf("bending edges = %d, want %d", got, tt.want)
			}
			for _, v := range []int{0, 3} {
				if acc.Weight(v) != 0 {
					t.Errorf("quad-only vertex %d has weight %v", v, acc.Weight(v))
				}
			}
		})
	}
}

func TestResistBendingFlattensFold(t *testing.T) {
	// Two triangles folded along the 0-2 diagonal: vertex 3 is lifted.
	m, err := halfedge.New([]v3.Vec{
		{}, {X: 1}, {X: 1, Y: 1}, {Y: 1, Z: 1},
	}, [][]int{{0, 1, 2}, {0, 2, 3}})
	if err != nil {
		t.Fatal(err)
	}
	var acc Accumulators
	acc.Reset(4)
	if got := ResistBending(&acc, m, 1); got != 1 {
		t.Fatalf("bending edges = %d, want 1", got)
	}
	before := distanceToPlane(m)
	acc.Reconcile(m)
	after := distanceToPlane(m)
	if !(after < before) {
		t.Errorf("fold did not flatten: %v -> %v", before, after)
	}
}

// distanceToPlane measures how far vertex 3 lies from the plane of
// triangle 0-1-2.
func distanceToPlane(m *halfedge.Mesh) float64 {
	a, b, c, d := m.Position(0), m.Position(1), m.Position(2), m.Position(3)
	n := b.Sub(a).Cross(c.Sub(a)).Normalize()
	return math.Abs(d.Sub(a).Dot(n))
}

func TestPlanarQuadIsStable(t *testing.T) {
	m := quad(t, 1.5)
	before := m.Positions()
	s, err := New(m, unitConfig())
	if err != nil {
		t.Fatal(err)
	}
	st := s.Step()
	if st.CollisionPairs != 0 {
		t.Errorf("collision pairs = %d, want 0", st.CollisionPairs)
	}
	if st.BendingEdges != 1 {
		t.Errorf("bending edges = %d, want 1", st.BendingEdges)
	}
	for i, p := range m.Positions() {
		if p != before[i] {
			t.Errorf("vertex %d moved from %v to %v", i, before[i], p)
		}
	}
}

func TestApplyEdgeLengthConstraint(t *testing.T) {
	cfg := unitConfig()
	cfg.ApplyEdgeLengthConstraint = true
	m := quad(t, 1.5)
	s, err := New(m, cfg)
	if err != nil {
		t.Fatal(err)
	}
	st := s.Step()
	if st.ConstrainedEdges != 5 {
		t.Errorf("constrained edges = %d, want 5", st.ConstrainedEdges)
	}
	if got := m.EdgeLength(0); !(got < 1.5) {
		t.Errorf("edge 0 length %v, want shorter than 1.5", got)
	}
}

func TestTwoPointsSeparate(t *testing.T) {
	for _, useRTree := range []bool{false, true} {
		cfg := unitConfig()
		cfg.UseRTree = useRTree
		cfg.CollisionWeight = 3
		m := points(t, v3.Vec{}, v3.Vec{X: 0.5})
		s, err := New(m, cfg)
		if err != nil {
			t.Fatal(err)
		}
		st := s.Step()
		if st.CollisionPairs != 1 || st.Moved != 2 {
			t.Errorf("rtree=%v: pairs=%d moved=%d, want 1 and 2", useRTree, st.CollisionPairs, st.Moved)
		}
		if got := m.Position(0); got != (v3.Vec{X: -0.25}) {
			t.Errorf("rtree=%v: vertex 0 at %v, want {-0.25 0 0}", useRTree, got)
		}
		if got := m.Position(1); got != (v3.Vec{X: 0.75}) {
			t.Errorf("rtree=%v: vertex 1 at %v, want {0.75 0 0}", useRTree, got)
		}
	}
}

func TestZeroCollisionWeightFreezesRTreePairs(t *testing.T) {
	cfg := unitConfig()
	cfg.UseRTree = true
	cfg.CollisionWeight = 0
	m := points(t, v3.Vec{}, v3.Vec{X: 0.5})
	s, err := New(m, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if st := s.Step(); st.Moved != 0 {
		t.Errorf("moved = %d, want 0", st.Moved)
	}
}

func TestCoincidentPointsPanic(t *testing.T) {
	m := points(t, v3.Vec{X: 1}, v3.Vec{X: 1})
	s, err := New(m, unitConfig())
	if err != nil {
		t.Fatal(err)
	}
	expectPanic(t, ErrCoincident, func() { s.Step() })
}

func TestSplitLongEdges(t *testing.T) {
	m := quad(t, 1.5)
	cfg := unitConfig()
	splits := SplitLongEdges(m, cfg)
	if len(splits) != 5 {
		t.Fatalf("splits = %d, want 5", len(splits))
	}
	if m.VertexCount() != 9 {
		t.Errorf("vertices = %d, want 9", m.VertexCount())
	}
	if err := m.Validate(); err != nil {
		t.Fatal(err)
	}
	for f := 0; f < m.FaceCount(); f++ {
		if n := len(m.FaceVertices(f)); n != 3 {
			t.Errorf("face %d has %d vertices", f, n)
		}
	}
	// Grid numbers corners row by row.
	orig := []v3.Vec{{}, {X: 1.5}, {Y: 1.5}, {X: 1.5, Y: 1.5}}
	for _, sp := range splits {
		want := orig[sp.A].Add(orig[sp.B]).MulScalar(0.5)
		if sp.Midpoint != want || m.Position(sp.Vertex) != want {
			t.Errorf("split of %d-%d placed at %v, want %v", sp.A, sp.B, m.Position(sp.Vertex), want)
		}
	}
}

func TestSplitRespectsVertexBound(t *testing.T) {
	m := quad(t, 1.5)
	cfg := unitConfig()
	cfg.MaxVertexCount = 6
	if got := len(SplitLongEdges(m, cfg)); got != 2 {
		t.Errorf("splits = %d, want 2", got)
	}
	if m.VertexCount() != 6 {
		t.Errorf("vertices = %d, want 6", m.VertexCount())
	}

	cfg.MaxVertexCount = 4
	if got := len(SplitLongEdges(quad(t, 1.5), cfg)); got != 0 {
		t.Errorf("splits at the bound = %d, want 0", got)
	}
}

func TestGrowthKeepsMeshValid(t *testing.T) {
	m, err := seed.Icosphere(2, 1)
	if err != nil {
		t.Fatal(err)
	}
	cfg := Default()
	cfg.MaxVertexCount = 300
	s, err := New(m, cfg)
	if err != nil {
		t.Fatal(err)
	}
	steps, err := s.Run(context.Background(), 20, nil)
	if err != nil || steps != 20 {
		t.Fatalf("Run = %d, %v", steps, err)
	}
	if m.VertexCount() > cfg.MaxVertexCount {
		t.Errorf("vertices = %d, above bound %d", m.VertexCount(), cfg.MaxVertexCount)
	}
	if m.VertexCount() <= 42 {
		t.Errorf("mesh did not grow: %d vertices", m.VertexCount())
	}
	if err := m.Validate(); err != nil {
		t.Fatal(err)
	}
	if err := m.CheckGeometry(); err != nil {
		t.Fatal(err)
	}
	if s.Iteration() != 20 {
		t.Errorf("iteration = %d, want 20", s.Iteration())
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative max vertices", func(c *Config) { c.MaxVertexCount = -1 }},
		{"zero collision distance", func(c *Config) { c.CollisionDistance = 0 }},
		{"NaN collision distance", func(c *Config) { c.CollisionDistance = math.NaN() }},
		{"negative collision weight", func(c *Config) { c.CollisionWeight = -1 }},
		{"infinite bending weight", func(c *Config) { c.BendingResistanceWeight = math.Inf(1) }},
		{"NaN edge weight", func(c *Config) { c.EdgeLengthConstraintWeight = math.NaN() }},
		{"negative split ratio", func(c *Config) { c.SplitRatio = -0.5 }},
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(&c)
			if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestSplitThreshold(t *testing.T) {
	c := Default()
	c.CollisionDistance = 2
	if got := c.SplitThreshold(); got != 1.98 {
		t.Errorf("threshold = %v, want 1.98", got)
	}
	c.SplitRatio = 0
	if got := c.SplitThreshold(); got != 1.98 {
		t.Errorf("threshold with zero ratio = %v, want 1.98", got)
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	if _, err := New(nil, Default()); !errors.Is(err, ErrInvalidSeed) {
		t.Errorf("nil mesh: error = %v, want ErrInvalidSeed", err)
	}
	empty, _ := halfedge.New(nil, nil)
	if _, err := New(empty, Default()); !errors.Is(err, ErrInvalidSeed) {
		t.Errorf("empty mesh: error = %v, want ErrInvalidSeed", err)
	}
	bad := points(t, v3.Vec{X: math.NaN()})
	if _, err := New(bad, Default()); !errors.Is(err, ErrInvalidSeed) {
		t.Errorf("NaN vertex: error = %v, want ErrInvalidSeed", err)
	}
	cfg := Default()
	cfg.CollisionDistance = -1
	if _, err := New(quad(t, 1), cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("bad config: error = %v, want ErrInvalidConfig", err)
	}
}

func TestSetConfig(t *testing.T) {
	s, err := New(quad(t, 1), Default())
	if err != nil {
		t.Fatal(err)
	}
	bad := Default()
	bad.CollisionWeight = -2
	if err := s.SetConfig(bad); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
	good := Default()
	good.Grow = false
	if err := s.SetConfig(good); err != nil {
		t.Fatal(err)
	}
	if s.Config().Grow {
		t.Error("SetConfig did not take effect")
	}
}

func TestRunStopsEarly(t *testing.T) {
	s, err := New(quad(t, 1.5), unitConfig())
	if err != nil {
		t.Fatal(err)
	}
	steps, err := s.Run(context.Background(), 10, func(st StepStats) bool {
		return st.Iteration < 3
	})
	if err != nil || steps != 3 {
		t.Errorf("Run = %d, %v, want 3, nil", steps, err)
	}
}

func TestRunHonoursCancel(t *testing.T) {
	s, err := New(quad(t, 1.5), unitConfig())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	steps, err := s.Run(ctx, 10, func(st StepStats) bool {
		if st.Iteration == 2 {
			cancel()
		}
		return true
	})
	if !errors.Is(err, context.Canceled) || steps != 2 {
		t.Errorf("Run = %d, %v, want 2, context.Canceled", steps, err)
	}
}

func TestExport(t *testing.T) {
	s, err := New(quad(t, 1), Default())
	if err != nil {
		t.Fatal(err)
	}
	km := s.Export("frame")
	if km.Name != "frame" || km.TriangleCount() != 2 {
		t.Errorf("export name=%q triangles=%d", km.Name, km.TriangleCount())
	}
}

func TestNewWarnsWhenSeedFillsBudget(t *testing.T) {
	tests := []struct {
		name     string
		max      int
		grow     bool
		warnings int
	}{
		{"room to grow", 100, true, 0},
		{"at the limit", 42, true, 1},
		{"not growing", 10, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := seed.Icosphere(2, 1)
			if err != nil {
				t.Fatal(err)
			}
			cfg := Default()
			cfg.MaxVertexCount = tt.max
			cfg.Grow = tt.grow

			core, logs := observer.New(zapcore.WarnLevel)
			if _, err := New(m, cfg, WithLogger(zap.New(core))); err != nil {
				t.Fatal(err)
			}
			if got := logs.FilterMessageSnippet("vertex limit").Len(); got != tt.warnings {
				t.Errorf("warnings = %d, want %d", got, tt.warnings)
			}
		})
	}
}
