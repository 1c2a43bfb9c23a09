package growth

import (
	"fmt"
	"math"

	"github.com/chazu/sprout/pkg/halfedge"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Accumulators holds per-vertex running sums of weighted moves and weights.
// The buffers are reused across steps and cleared by Reset.
type Accumulators struct {
	moves   []v3.Vec
	weights []float64
}

// Reset sizes the accumulators to n vertices and zeroes them.
func (a *Accumulators) Reset(n int) {
	if cap(a.moves) < n {
		a.moves = make([]v3.Vec, n)
		a.weights = make([]float64, n)
		return
	}
	a.moves = a.moves[:n]
	a.weights = a.weights[:n]
	for i := range a.moves {
		a.moves[i] = v3.Vec{}
		a.weights[i] = 0
	}
}

// Len returns the number of vertices tracked.
func (a *Accumulators) Len() int { return len(a.moves) }

// Add records a proposed move for vertex i with the given weight.
func (a *Accumulators) Add(i int, move v3.Vec, weight float64) {
	a.moves[i] = a.moves[i].Add(move.MulScalar(weight))
	a.weights[i] += weight
}

// WeightedMove returns the sum of weight*move for vertex i.
func (a *Accumulators) WeightedMove(i int) v3.Vec { return a.moves[i] }

// Weight returns the sum of weights for vertex i.
func (a *Accumulators) Weight(i int) float64 { return a.weights[i] }

// Displacement returns the weighted-average move of vertex i and whether
// any weight was accumulated.
func (a *Accumulators) Displacement(i int) (v3.Vec, bool) {
	if a.weights[i] == 0 {
		return v3.Vec{}, false
	}
	return a.moves[i].DivScalar(a.weights[i]), true
}

// Reconcile moves every vertex with nonzero weight by its weighted-average
// displacement and returns how many vertices moved. It panics with
// ErrNonFinite rather than write a NaN or Inf position.
func (a *Accumulators) Reconcile(m *halfedge.Mesh) int {
	n := m.VertexCount()
	if len(a.moves) < n {
		n = len(a.moves)
	}
	moved := 0
	for i := 0; i < n; i++ {
		d, ok := a.Displacement(i)
		if !ok {
			continue
		}
		p := m.Position(i).Add(d)
		if !isFinite(p) {
			panic(fmt.Errorf("%w: vertex %d -> %v", ErrNonFinite, i, p))
		}
		m.SetPosition(i, p)
		moved++
	}
	return moved
}

func isFinite(p v3.Vec) bool {
	for _, x := range []float64{p.X, p.Y, p.Z} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
