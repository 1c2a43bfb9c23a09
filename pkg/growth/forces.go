package growth

import (
	"fmt"

	"github.com/chazu/sprout/pkg/halfedge"
	"github.com/chazu/sprout/pkg/spatial"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// halfCorrection returns the move applied to the first point of a pair so
// that, with the opposite move on the second, their separation becomes
// target: d * 0.5 * (L - target) / L where d = b - a.
func halfCorrection(a, b v3.Vec, target float64) v3.Vec {
	d := b.Sub(a)
	l := d.Length()
	if l == 0 {
		panic(fmt.Errorf("%w at %v", ErrCoincident, a))
	}
	return d.MulScalar(0.5 * (l - target) / l)
}

// Collide pushes every pair apart to the collision distance. Each pair adds
// the half-correction to I and its negation to J, both with weight.
// It returns the number of pairs processed.
func Collide(acc *Accumulators, positions []v3.Vec, pairs []spatial.Pair, distance, weight float64) int {
	for _, p := range pairs {
		move := halfCorrection(positions[p.I], positions[p.J], distance)
		acc.Add(p.I, move, weight)
		acc.Add(p.J, move.MulScalar(-1), weight)
	}
	return len(pairs)
}

// ConstrainEdgeLengths pulls the endpoints of every edge longer than
// distance towards each other. Edges at or below distance are skipped.
// It returns the number of edges that contributed.
func ConstrainEdgeLengths(acc *Accumulators, m *halfedge.Mesh, distance, weight float64) int {
	n := 0
	for h := 0; h < m.HalfedgeCount(); h += 2 {
		i, j := m.StartVertex(h), m.StartVertex(h+1)
		pi, pj := m.Position(i), m.Position(j)
		if pj.Sub(pi).Length() <= distance {
			continue
		}
		move := halfCorrection(pi, pj, distance)
		acc.Add(i, move, weight)
		acc.Add(j, move.MulScalar(-1), weight)
		n++
	}
	return n
}

// ResistBending flattens each interior edge's two adjacent faces towards
// their common best-fit plane. For edge I-J with opposite vertices P and Q
// the plane passes through the centroid of the four points with normal
// (J-I)x(P-I) + (Q-I)x(J-I). Only edges between two triangles take part:
// boundary edges, edges next to a polygon and edges whose normal sum
// vanishes are skipped. It returns the number of edges that contributed.
func ResistBending(acc *Accumulators, m *halfedge.Mesh, weight float64) int {
	n := 0
	for h := 0; h < m.HalfedgeCount(); h += 2 {
		t := h + 1
		if m.IsBoundary(h) || m.IsBoundary(t) {
			continue
		}
		if !inTriangle(m, h) || !inTriangle(m, t) {
			continue
		}
		idx := [4]int{
			m.StartVertex(h),
			m.StartVertex(t),
			m.StartVertex(m.Prev(h)),
			m.StartVertex(m.Prev(t)),
		}
		var pts [4]v3.Vec
		for k, v := range idx {
			pts[k] = m.Position(v)
		}
		vi, vj, vp, vq := pts[0], pts[1], pts[2], pts[3]

		normal := vj.Sub(vi).Cross(vp.Sub(vi)).Add(vq.Sub(vi).Cross(vj.Sub(vi)))
		nn := normal.Dot(normal)
		if nn == 0 {
			continue
		}
		origin := vi.Add(vj).Add(vp).Add(vq).MulScalar(0.25)

		for k, v := range idx {
			offset := pts[k].Sub(origin).Dot(normal) / nn
			acc.Add(v, normal.MulScalar(-offset), weight)
		}
		n++
	}
	return n
}

func inTriangle(m *halfedge.Mesh, h int) bool {
	return m.Next(m.Next(m.Next(h))) == h
}
