package seed

import (
	"fmt"
	"math"
	"sort"

	"github.com/chazu/sprout/pkg/halfedge"
	"github.com/chazu/sprout/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultWeldTolerance is the grid size used to merge vertices of a
// triangle soup.
const DefaultWeldTolerance = 1e-4

// FromKernelMesh merges coincident vertices of a triangle soup and builds a
// half-edge mesh from it. Triangles that collapse after welding, and
// repeats of a triangle already seen, are dropped. Vertices left unused are
// removed.
func FromKernelMesh(km *kernel.Mesh, tolerance float64) (*halfedge.Mesh, error) {
	if km == nil || km.TriangleCount() == 0 {
		return nil, fmt.Errorf("%w: empty triangle mesh", ErrBadParameter)
	}
	if tolerance <= 0 {
		tolerance = DefaultWeldTolerance
	}

	welded := make(map[[3]int64]int)
	var pts []v3.Vec
	remap := make([]int, km.VertexCount())
	for i := range remap {
		p := km.Vertex(i)
		key := [3]int64{
			int64(math.Round(p[0] / tolerance)),
			int64(math.Round(p[1] / tolerance)),
			int64(math.Round(p[2] / tolerance)),
		}
		idx, ok := welded[key]
		if !ok {
			idx = len(pts)
			pts = append(pts, v3.Vec{X: p[0], Y: p[1], Z: p[2]})
			welded[key] = idx
		}
		remap[i] = idx
	}

	seen := make(map[[3]int]bool)
	used := make([]bool, len(pts))
	var faces [][]int
	for t := 0; t < km.TriangleCount(); t++ {
		tri := km.Triangle(t)
		a, b, c := remap[tri[0]], remap[tri[1]], remap[tri[2]]
		if a == b || b == c || c == a {
			continue
		}
		key := []int{a, b, c}
		sort.Ints(key)
		k := [3]int{key[0], key[1], key[2]}
		if seen[k] {
			continue
		}
		seen[k] = true
		used[a], used[b], used[c] = true, true, true
		faces = append(faces, []int{a, b, c})
	}
	if len(faces) == 0 {
		return nil, fmt.Errorf("%w: every triangle collapsed while welding", ErrBadParameter)
	}

	compact := make([]int, len(pts))
	var kept []v3.Vec
	for i, p := range pts {
		if used[i] {
			compact[i] = len(kept)
			kept = append(kept, p)
		}
	}
	for _, f := range faces {
		for k := range f {
			f[k] = compact[f[k]]
		}
	}
	return halfedge.New(kept, faces)
}

// FromSolid tessellates s with k and welds the result.
func FromSolid(k kernel.Kernel, s kernel.Solid, tolerance float64) (*halfedge.Mesh, error) {
	km, err := k.ToMesh(s)
	if err != nil {
		return nil, fmt.Errorf("seed: tessellate: %w", err)
	}
	return FromKernelMesh(km, tolerance)
}
