package halfedge

import (
	"errors"
	"fmt"
)

var (
	ErrBoundaryHalfedge  = errors.New("halfedge: half-edge has no face")
	ErrNotSameFace       = errors.New("halfedge: half-edges belong to different faces")
	ErrAdjacentHalfedges = errors.New("halfedge: half-edges are adjacent")
)

// SplitEdge inserts a new vertex at the midpoint of the edge of h. The new
// vertex is appended, so its index is VertexCount()-1 after the call.
//
// Afterwards h runs from its old start to the new vertex, the returned
// half-edge runs from the new vertex to the old end on h's face, and
// Twin(h) starts at the new vertex. Faces keep their indices and each
// gains one side.
func (m *Mesh) SplitEdge(h int) (int, error) {
	if !m.validHalfedge(h) {
		return 0, fmt.Errorf("split edge %d: %w", h, ErrHalfedgeIndex)
	}
	t := h ^ 1
	a := m.halfedges[h].Start
	b := m.halfedges[t].Start

	v := len(m.vertices)
	mid := m.vertices[a].Pos.Add(m.vertices[b].Pos).MulScalar(0.5)
	m.vertices = append(m.vertices, Vertex{Pos: mid, Halfedge: NoHalfedge})

	hNext := m.halfedges[h].Next
	tPrev := m.halfedges[t].Prev

	n := len(m.halfedges)
	m.halfedges = append(m.halfedges,
		Halfedge{Start: v, Next: hNext, Prev: h, Face: m.halfedges[h].Face},
		Halfedge{Start: b, Next: t, Prev: tPrev, Face: m.halfedges[t].Face},
	)

	m.halfedges[hNext].Prev = n
	m.halfedges[h].Next = n
	m.halfedges[tPrev].Next = n + 1
	m.halfedges[t].Prev = n + 1
	m.halfedges[t].Start = v

	if m.halfedges[t].Face == NoFace {
		m.vertices[v].Halfedge = t
	} else {
		m.vertices[v].Halfedge = n
	}
	if m.vertices[b].Halfedge == t {
		m.vertices[b].Halfedge = n + 1
	}
	return n, nil
}

// SplitFace divides the face shared by half-edges a and b with a new edge
// between their start vertices. The loop beginning at a keeps the original
// face; the loop beginning at b becomes a new face. It returns the new
// half-edge that runs from start(a) to start(b).
func (m *Mesh) SplitFace(a, b int) (int, error) {
	if !m.validHalfedge(a) || !m.validHalfedge(b) {
		return 0, fmt.Errorf("split face %d/%d: %w", a, b, ErrHalfedgeIndex)
	}
	f := m.halfedges[a].Face
	if f == NoFace {
		return 0, fmt.Errorf("split face %d/%d: %w", a, b, ErrBoundaryHalfedge)
	}
	if m.halfedges[b].Face != f {
		return 0, fmt.Errorf("split face %d/%d: %w", a, b, ErrNotSameFace)
	}
	if a == b || m.halfedges[a].Next == b || m.halfedges[b].Next == a {
		return 0, fmt.Errorf("split face %d/%d: %w", a, b, ErrAdjacentHalfedges)
	}

	u := m.halfedges[a].Start
	w := m.halfedges[b].Start
	aPrev := m.halfedges[a].Prev
	bPrev := m.halfedges[b].Prev

	g := len(m.faces)
	n := len(m.halfedges)
	m.halfedges = append(m.halfedges,
		Halfedge{Start: u, Next: b, Prev: aPrev, Face: g},
		Halfedge{Start: w, Next: a, Prev: bPrev, Face: f},
	)
	m.halfedges[aPrev].Next = n
	m.halfedges[b].Prev = n
	m.halfedges[bPrev].Next = n + 1
	m.halfedges[a].Prev = n + 1

	m.faces[f].Halfedge = a
	m.faces = append(m.faces, Face{Halfedge: b})
	h := b
	for i := 0; i <= len(m.halfedges); i++ {
		m.halfedges[h].Face = g
		h = m.halfedges[h].Next
		if h == b {
			return n, nil
		}
	}
	panic(fmt.Sprintf("halfedge: split face %d loop does not close", f))
}
