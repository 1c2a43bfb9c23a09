package halfedge

import (
	"fmt"
	"math"
)

// Validate checks the structural invariants of the mesh and returns the
// first violation found.
func (m *Mesh) Validate() error {
	if len(m.halfedges)%2 != 0 {
		return fmt.Errorf("odd half-edge count %d: %w", len(m.halfedges), ErrInconsistent)
	}
	for h, he := range m.halfedges {
		if he.Start < 0 || he.Start >= len(m.vertices) {
			return fmt.Errorf("half-edge %d start %d: %w", h, he.Start, ErrVertexIndex)
		}
		if !m.validHalfedge(he.Next) || !m.validHalfedge(he.Prev) {
			return fmt.Errorf("half-edge %d links out of range: %w", h, ErrInconsistent)
		}
		if m.halfedges[he.Next].Prev != h {
			return fmt.Errorf("half-edge %d: prev(next) != self: %w", h, ErrInconsistent)
		}
		if m.halfedges[he.Next].Face != he.Face {
			return fmt.Errorf("half-edge %d: next lies on another face: %w", h, ErrInconsistent)
		}
		if m.halfedges[he.Next].Start != m.EndVertex(h) {
			return fmt.Errorf("half-edge %d: next does not start at end vertex: %w", h, ErrInconsistent)
		}
		if he.Start == m.EndVertex(h) {
			return fmt.Errorf("half-edge %d is a loop: %w", h, ErrInconsistent)
		}
		if he.Face != NoFace && (he.Face < 0 || he.Face >= len(m.faces)) {
			return fmt.Errorf("half-edge %d face %d: %w", h, he.Face, ErrInconsistent)
		}
	}
	for f, face := range m.faces {
		if !m.validHalfedge(face.Halfedge) || m.halfedges[face.Halfedge].Face != f {
			return fmt.Errorf("face %d does not own its half-edge: %w", f, ErrInconsistent)
		}
		if n := len(m.FaceVertices(f)); n < 3 {
			return fmt.Errorf("face %d has %d sides: %w", f, n, ErrInconsistent)
		}
	}
	for v, vert := range m.vertices {
		if vert.Halfedge == NoHalfedge {
			continue
		}
		if !m.validHalfedge(vert.Halfedge) || m.halfedges[vert.Halfedge].Start != v {
			return fmt.Errorf("vertex %d outgoing half-edge does not start there: %w", v, ErrInconsistent)
		}
	}
	return nil
}

// CheckGeometry reports non-finite coordinates and zero-length edges.
func (m *Mesh) CheckGeometry() error {
	for v, vert := range m.vertices {
		p := vert.Pos
		if !finite(p.X) || !finite(p.Y) || !finite(p.Z) {
			return fmt.Errorf("vertex %d has non-finite position %v", v, p)
		}
	}
	for h := 0; h < len(m.halfedges); h += 2 {
		if m.EdgeLength(h) == 0 {
			return fmt.Errorf("edge %d (%d-%d) has zero length", h, m.StartVertex(h), m.EndVertex(h))
		}
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
