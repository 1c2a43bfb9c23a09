package halfedge

import (
	"errors"
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// NoFace marks a half-edge on the mesh boundary.
const NoFace = -1

// NoHalfedge marks a vertex with no outgoing half-edge (an isolated vertex).
const NoHalfedge = -1

var (
	ErrFaceTooSmall   = errors.New("halfedge: face has fewer than 3 vertices")
	ErrVertexIndex    = errors.New("halfedge: vertex index out of range")
	ErrDegenerateFace = errors.New("halfedge: face repeats a vertex")
	ErrNonManifold    = errors.New("halfedge: non-manifold configuration")
	ErrHalfedgeIndex  = errors.New("halfedge: half-edge index out of range")
	ErrInconsistent   = errors.New("halfedge: inconsistent connectivity")
)

// Vertex is a mesh vertex. Halfedge is one outgoing half-edge, preferring
// a boundary one when the vertex lies on the boundary.
type Vertex struct {
	Pos      v3.Vec
	Halfedge int
}

// Halfedge is one directed side of an undirected edge.
type Halfedge struct {
	Start int // start vertex
	Next  int // next half-edge around the face (or boundary loop)
	Prev  int // previous half-edge around the face (or boundary loop)
	Face  int // adjacent face, NoFace on the boundary
}

// Face is a polygon bounded by a closed loop of half-edges.
type Face struct {
	Halfedge int
}

// Mesh is an arena-style half-edge mesh.
type Mesh struct {
	vertices  []Vertex
	halfedges []Halfedge
	faces     []Face
}

// New builds a mesh from vertex positions and an indexed face list. Each
// face is a polygon of at least three distinct vertices; all faces must be
// oriented consistently. Vertices referenced by no face are kept as
// isolated vertices.
func New(positions []v3.Vec, faces [][]int) (*Mesh, error) {
	m := &Mesh{
		vertices:  make([]Vertex, len(positions)),
		halfedges: make([]Halfedge, 0, 6*len(positions)),
		faces:     make([]Face, 0, len(faces)),
	}
	for i, p := range positions {
		m.vertices[i] = Vertex{Pos: p, Halfedge: NoHalfedge}
	}

	directed := make(map[[2]int]int)
	edge := func(a, b int) int {
		if h, ok := directed[[2]int{a, b}]; ok {
			return h
		}
		h := m.addPair(a, b)
		directed[[2]int{a, b}] = h
		directed[[2]int{b, a}] = h + 1
		return h
	}

	for fi, face := range faces {
		if len(face) < 3 {
			return nil, fmt.Errorf("face %d: %w", fi, ErrFaceTooSmall)
		}
		seen := make(map[int]bool, len(face))
		for _, v := range face {
			if v < 0 || v >= len(positions) {
				return nil, fmt.Errorf("face %d: vertex %d: %w", fi, v, ErrVertexIndex)
			}
			if seen[v] {
				return nil, fmt.Errorf("face %d: vertex %d: %w", fi, v, ErrDegenerateFace)
			}
			seen[v] = true
		}

		f := len(m.faces)
		loop := make([]int, len(face))
		for k, a := range face {
			b := face[(k+1)%len(face)]
			h := edge(a, b)
			if m.halfedges[h].Face != NoFace {
				return nil, fmt.Errorf("face %d: edge %d->%d used twice: %w", fi, a, b, ErrNonManifold)
			}
			m.halfedges[h].Face = f
			loop[k] = h
		}
		for k, h := range loop {
			n := loop[(k+1)%len(loop)]
			m.halfedges[h].Next = n
			m.halfedges[n].Prev = h
			m.vertices[m.halfedges[h].Start].Halfedge = h
		}
		m.faces = append(m.faces, Face{Halfedge: loop[0]})
	}

	// Link boundary half-edges into loops. A boundary half-edge a->b
	// continues with the boundary half-edge leaving b.
	boundaryOut := make(map[int]int)
	for h := range m.halfedges {
		if m.halfedges[h].Face != NoFace {
			continue
		}
		v := m.halfedges[h].Start
		if _, dup := boundaryOut[v]; dup {
			return nil, fmt.Errorf("vertex %d has two boundary fans: %w", v, ErrNonManifold)
		}
		boundaryOut[v] = h
	}
	for v, h := range boundaryOut {
		end := m.EndVertex(h)
		n, ok := boundaryOut[end]
		if !ok {
			return nil, fmt.Errorf("boundary open at vertex %d: %w", end, ErrNonManifold)
		}
		m.halfedges[h].Next = n
		m.halfedges[n].Prev = h
		m.vertices[v].Halfedge = h
	}

	return m, nil
}

// addPair appends a twin pair a->b, b->a with no faces and returns the
// index of a->b. Next/Prev are left self-referencing until linked.
func (m *Mesh) addPair(a, b int) int {
	h := len(m.halfedges)
	m.halfedges = append(m.halfedges,
		Halfedge{Start: a, Next: h, Prev: h, Face: NoFace},
		Halfedge{Start: b, Next: h + 1, Prev: h + 1, Face: NoFace},
	)
	return h
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		vertices:  append([]Vertex(nil), m.vertices...),
		halfedges: append([]Halfedge(nil), m.halfedges...),
		faces:     append([]Face(nil), m.faces...),
	}
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.vertices) }

// HalfedgeCount returns the number of half-edges. It is always even.
func (m *Mesh) HalfedgeCount() int { return len(m.halfedges) }

// EdgeCount returns the number of undirected edges.
func (m *Mesh) EdgeCount() int { return len(m.halfedges) / 2 }

// FaceCount returns the number of faces.
func (m *Mesh) FaceCount() int { return len(m.faces) }

// Position returns the position of vertex v.
func (m *Mesh) Position(v int) v3.Vec { return m.vertices[v].Pos }

// SetPosition moves vertex v.
func (m *Mesh) SetPosition(v int, p v3.Vec) { m.vertices[v].Pos = p }

// Positions returns a copy of all vertex positions.
func (m *Mesh) Positions() []v3.Vec {
	out := make([]v3.Vec, len(m.vertices))
	for i := range m.vertices {
		out[i] = m.vertices[i].Pos
	}
	return out
}

// VertexHalfedge returns an outgoing half-edge of v, or NoHalfedge.
func (m *Mesh) VertexHalfedge(v int) int { return m.vertices[v].Halfedge }

func (m *Mesh) StartVertex(h int) int { return m.halfedges[h].Start }
func (m *Mesh) EndVertex(h int) int   { return m.halfedges[h^1].Start }
func (m *Mesh) Twin(h int) int        { return h ^ 1 }
func (m *Mesh) Next(h int) int        { return m.halfedges[h].Next }
func (m *Mesh) Prev(h int) int        { return m.halfedges[h].Prev }
func (m *Mesh) Face(h int) int        { return m.halfedges[h].Face }

// IsBoundary reports whether h has no adjacent face.
func (m *Mesh) IsBoundary(h int) bool { return m.halfedges[h].Face == NoFace }

// EdgeVector returns end - start of h.
func (m *Mesh) EdgeVector(h int) v3.Vec {
	return m.Position(m.EndVertex(h)).Sub(m.Position(m.StartVertex(h)))
}

// EdgeLength returns the length of the edge h belongs to.
func (m *Mesh) EdgeLength(h int) float64 {
	return m.EdgeVector(h).Length()
}

// FaceHalfedge returns one half-edge of face f.
func (m *Mesh) FaceHalfedge(f int) int { return m.faces[f].Halfedge }

// FaceVertices returns the vertices of face f in loop order.
func (m *Mesh) FaceVertices(f int) []int {
	start := m.faces[f].Halfedge
	var out []int
	h := start
	for i := 0; i <= len(m.halfedges); i++ {
		out = append(out, m.halfedges[h].Start)
		h = m.halfedges[h].Next
		if h == start {
			return out
		}
	}
	panic(fmt.Sprintf("halfedge: face %d loop does not close", f))
}

// VertexNeighbors returns the vertices adjacent to v by walking its
// outgoing half-edges.
func (m *Mesh) VertexNeighbors(v int) []int {
	start := m.vertices[v].Halfedge
	if start == NoHalfedge {
		return nil
	}
	var out []int
	h := start
	for i := 0; i <= len(m.halfedges); i++ {
		out = append(out, m.EndVertex(h))
		h = m.halfedges[h^1].Next
		if h == start {
			return out
		}
	}
	panic(fmt.Sprintf("halfedge: vertex %d fan does not close", v))
}

func (m *Mesh) validHalfedge(h int) bool {
	return h >= 0 && h < len(m.halfedges)
}
