// Package seed builds the starting surfaces that growth is run on: analytic
// primitives, and solids from a geometry kernel welded into an indexed mesh.
package seed

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/sprout/pkg/halfedge"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

var ErrBadParameter = errors.New("seed: bad parameter")

// Quad returns a square of the given side in the XY plane as two triangles
// sharing the 0-3 diagonal. Corners are numbered row by row, so 2 is at
// (0, size) and 3 at (size, size).
func Quad(size float64) (*halfedge.Mesh, error) {
	return Grid(1, 1, size)
}

// Grid returns an nx by ny grid of cells in the XY plane, each cell split
// into two triangles.
func Grid(nx, ny int, spacing float64) (*halfedge.Mesh, error) {
	if nx < 1 || ny < 1 {
		return nil, fmt.Errorf("%w: grid %dx%d", ErrBadParameter, nx, ny)
	}
	if !(spacing > 0) {
		return nil, fmt.Errorf("%w: spacing %v", ErrBadParameter, spacing)
	}
	pts := make([]v3.Vec, 0, (nx+1)*(ny+1))
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			pts = append(pts, v3.Vec{X: float64(i) * spacing, Y: float64(j) * spacing})
		}
	}
	idx := func(i, j int) int { return j*(nx+1) + i }
	faces := make([][]int, 0, 2*nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			a, b, c, d := idx(i, j), idx(i+1, j), idx(i+1, j+1), idx(i, j+1)
			faces = append(faces, []int{a, b, c}, []int{a, c, d})
		}
	}
	return halfedge.New(pts, faces)
}

// Disc returns a flat triangle fan of the given radius in the XY plane.
func Disc(radius float64, segments int) (*halfedge.Mesh, error) {
	if segments < 3 {
		return nil, fmt.Errorf("%w: %d segments", ErrBadParameter, segments)
	}
	if !(radius > 0) {
		return nil, fmt.Errorf("%w: radius %v", ErrBadParameter, radius)
	}
	pts := make([]v3.Vec, 0, segments+1)
	pts = append(pts, v3.Vec{})
	for k := 0; k < segments; k++ {
		a := 2 * math.Pi * float64(k) / float64(segments)
		pts = append(pts, v3.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a)})
	}
	faces := make([][]int, 0, segments)
	for k := 0; k < segments; k++ {
		faces = append(faces, []int{0, k + 1, (k+1)%segments + 1})
	}
	return halfedge.New(pts, faces)
}

// Icosphere returns a closed sphere made by subdividing an icosahedron.
// It has 10*4^n+2 vertices and 20*4^n faces for n subdivisions.
func Icosphere(radius float64, subdivisions int) (*halfedge.Mesh, error) {
	if subdivisions < 0 || subdivisions > 7 {
		return nil, fmt.Errorf("%w: %d subdivisions", ErrBadParameter, subdivisions)
	}
	if !(radius > 0) {
		return nil, fmt.Errorf("%w: radius %v", ErrBadParameter, radius)
	}

	t := (1 + math.Sqrt(5)) / 2
	pts := []v3.Vec{
		{X: -1, Y: t}, {X: 1, Y: t}, {X: -1, Y: -t}, {X: 1, Y: -t},
		{Y: -1, Z: t}, {Y: 1, Z: t}, {Y: -1, Z: -t}, {Y: 1, Z: -t},
		{X: t, Z: -1}, {X: t, Z: 1}, {X: -t, Z: -1}, {X: -t, Z: 1},
	}
	for i := range pts {
		pts[i] = pts[i].Normalize()
	}
	faces := [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}

	for s := 0; s < subdivisions; s++ {
		mids := make(map[[2]int]int)
		mid := func(a, b int) int {
			key := [2]int{a, b}
			if a > b {
				key = [2]int{b, a}
			}
			if v, ok := mids[key]; ok {
				return v
			}
			pts = append(pts, pts[a].Add(pts[b]).Normalize())
			mids[key] = len(pts) - 1
			return len(pts) - 1
		}
		next := make([][3]int, 0, 4*len(faces))
		for _, f := range faces {
			ab, bc, ca := mid(f[0], f[1]), mid(f[1], f[2]), mid(f[2], f[0])
			next = append(next,
				[3]int{f[0], ab, ca},
				[3]int{f[1], bc, ab},
				[3]int{f[2], ca, bc},
				[3]int{ab, bc, ca},
			)
		}
		faces = next
	}

	for i := range pts {
		pts[i] = pts[i].MulScalar(radius)
	}
	list := make([][]int, len(faces))
	for i, f := range faces {
		list[i] = []int{f[0], f[1], f[2]}
	}
	return halfedge.New(pts, list)
}
