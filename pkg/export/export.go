// Package export converts a half-edge mesh into the flat kernel.Mesh form
// and writes it out as STL, OBJ or JSON. Export never mutates the mesh.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/chazu/sprout/pkg/halfedge"
	"github.com/chazu/sprout/pkg/kernel"
	"github.com/chazu/sprout/pkg/kernel/sdfx"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ToKernelMesh fan-triangulates every face and shares vertices between
// triangles. Vertex normals are the normalised sum of the unnormalised
// normals of the surrounding triangles, so larger triangles count more.
// Isolated vertices are kept with a zero normal.
func ToKernelMesh(m *halfedge.Mesh, name string) *kernel.Mesh {
	n := m.VertexCount()
	out := &kernel.Mesh{
		Vertices: make([]float32, 0, 3*n),
		Normals:  make([]float32, 0, 3*n),
		Indices:  make([]uint32, 0, 3*m.FaceCount()),
		Name:     name,
	}

	sums := make([]v3.Vec, n)
	for f := 0; f < m.FaceCount(); f++ {
		verts := m.FaceVertices(f)
		for k := 1; k+1 < len(verts); k++ {
			a, b, c := verts[0], verts[k], verts[k+1]
			out.Indices = append(out.Indices, uint32(a), uint32(b), uint32(c))

			pa := m.Position(a)
			fn := m.Position(b).Sub(pa).Cross(m.Position(c).Sub(pa))
			sums[a] = sums[a].Add(fn)
			sums[b] = sums[b].Add(fn)
			sums[c] = sums[c].Add(fn)
		}
	}

	for v := 0; v < n; v++ {
		p := m.Position(v)
		out.Vertices = append(out.Vertices, float32(p.X), float32(p.Y), float32(p.Z))

		nv := sums[v]
		if l := nv.Length(); l > 0 {
			nv = nv.DivScalar(l)
		}
		out.Normals = append(out.Normals, float32(nv.X), float32(nv.Y), float32(nv.Z))
	}
	return out
}

// WriteSTL writes m to path as binary STL.
func WriteSTL(path string, m *halfedge.Mesh) error {
	km := ToKernelMesh(m, "")
	if km.TriangleCount() == 0 {
		return fmt.Errorf("export: write stl %s: mesh has no faces", path)
	}
	return sdfx.SaveSTL(path, km)
}

// WriteOBJ writes m as Wavefront OBJ, keeping polygon faces as they are.
func WriteOBJ(w io.Writer, m *halfedge.Mesh) error {
	bw := bufio.NewWriter(w)
	for v := 0; v < m.VertexCount(); v++ {
		p := m.Position(v)
		fmt.Fprintf(bw, "v %g %g %g\n", p.X, p.Y, p.Z)
	}
	for f := 0; f < m.FaceCount(); f++ {
		bw.WriteString("f")
		for _, v := range m.FaceVertices(f) {
			fmt.Fprintf(bw, " %d", v+1)
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// WriteJSON writes km in the JSON form consumed by mesh viewers.
func WriteJSON(w io.Writer, km *kernel.Mesh) error {
	return json.NewEncoder(w).Encode(km)
}

// Formats lists the formats accepted by WriteFile.
var Formats = []string{"stl", "obj", "json"}

// WriteFile writes m to path in the given format, one of Formats.
func WriteFile(path, format string, m *halfedge.Mesh) error {
	switch format {
	case "stl":
		return WriteSTL(path, m)
	case "obj", "json":
	default:
		return fmt.Errorf("export: unknown format %q", format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	switch format {
	case "obj":
		err = WriteOBJ(f, m)
	case "json":
		err = WriteJSON(f, ToKernelMesh(m, path))
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}
