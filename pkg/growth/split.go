package growth

import (
	"fmt"

	"github.com/chazu/sprout/pkg/halfedge"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Split records one edge split.
type Split struct {
	Halfedge int    // half-edge that was split
	A, B     int    // endpoints before the split
	Vertex   int    // inserted vertex
	Midpoint v3.Vec // position given to Vertex
}

// SplitLongEdges splits every edge longer than cfg.SplitThreshold() while
// the vertex count is below cfg.MaxVertexCount. Only edges that existed
// when the scan started are visited.
func SplitLongEdges(m *halfedge.Mesh, cfg Config) []Split {
	var out []Split
	count := m.HalfedgeCount()
	threshold := cfg.SplitThreshold()
	for h := 0; h < count; h += 2 {
		if m.VertexCount() >= cfg.MaxVertexCount {
			break
		}
		if m.EdgeLength(h) > threshold {
			out = append(out, splitEdge(m, h))
		}
	}
	return out
}

// splitEdge inserts the exact midpoint of h and re-triangulates each face
// on either side of it. Adapter errors here mean the scan produced a bad
// index, so they panic.
func splitEdge(m *halfedge.Mesh, h int) Split {
	a, b := m.StartVertex(h), m.EndVertex(h)
	mid := m.Position(a).Add(m.Position(b)).MulScalar(0.5)

	n, err := m.SplitEdge(h)
	if err != nil {
		panic(fmt.Errorf("growth: split edge %d: %w", h, err))
	}
	v := m.VertexCount() - 1
	m.SetPosition(v, mid)

	if !m.IsBoundary(h) {
		if _, err := m.SplitFace(n, m.Prev(h)); err != nil {
			panic(fmt.Errorf("growth: split face of %d: %w", h, err))
		}
	}
	t := m.Twin(h)
	if !m.IsBoundary(t) {
		if _, err := m.SplitFace(t, m.Next(m.Next(t))); err != nil {
			panic(fmt.Errorf("growth: split face of %d: %w", t, err))
		}
	}
	return Split{Halfedge: h, A: a, B: b, Vertex: v, Midpoint: mid}
}
