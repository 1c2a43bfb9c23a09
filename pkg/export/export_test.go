package export_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/sprout/pkg/export"
	"github.com/chazu/sprout/pkg/halfedge"
	"github.com/chazu/sprout/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// makeQuad returns a unit square in the XY plane split into two triangles,
// plus one isolated vertex.
func makeQuad(t *testing.T) *halfedge.Mesh {
	t.Helper()
	m, err := halfedge.New([]v3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 1, Y: 1, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 5, Y: 5, Z: 5},
	}, [][]int{{0, 1, 2}, {0, 2, 3}})
	if err != nil {
		t.Fatalf("halfedge.New failed: %v", err)
	}
	return m
}

func TestToKernelMesh(t *testing.T) {
	km := export.ToKernelMesh(makeQuad(t), "quad")

	if km.Name != "quad" {
		t.Errorf("expected Name %q, got %q", "quad", km.Name)
	}
	if km.VertexCount() != 5 {
		t.Errorf("expected 5 vertices, got %d", km.VertexCount())
	}
	if km.TriangleCount() != 2 {
		t.Errorf("expected 2 triangles, got %d", km.TriangleCount())
	}
	if len(km.Normals) != len(km.Vertices) {
		t.Fatalf("normals length %d != vertices length %d", len(km.Normals), len(km.Vertices))
	}
	for v := 0; v < 4; v++ {
		n := km.Normals[3*v : 3*v+3]
		if n[0] != 0 || n[1] != 0 || n[2] != 1 {
			t.Errorf("vertex %d normal = %v, want [0 0 1]", v, n)
		}
	}
	iso := km.Normals[12:15]
	if iso[0] != 0 || iso[1] != 0 || iso[2] != 0 {
		t.Errorf("isolated vertex normal = %v, want zero", iso)
	}
}

func TestToKernelMeshFansPolygons(t *testing.T) {
	m, err := halfedge.New([]v3.Vec{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
	}, [][]int{{0, 1, 2, 3}})
	if err != nil {
		t.Fatal(err)
	}
	km := export.ToKernelMesh(m, "")
	if km.TriangleCount() != 2 {
		t.Errorf("quad face fanned into %d triangles, want 2", km.TriangleCount())
	}
}

func TestWriteOBJ(t *testing.T) {
	var buf bytes.Buffer
	if err := export.WriteOBJ(&buf, makeQuad(t)); err != nil {
		t.Fatalf("WriteOBJ failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var verts, faces int
	for _, l := range lines {
		switch {
		case strings.HasPrefix(l, "v "):
			verts++
		case strings.HasPrefix(l, "f "):
			faces++
		}
	}
	if verts != 5 || faces != 2 {
		t.Errorf("OBJ has %d vertices and %d faces, want 5 and 2", verts, faces)
	}
	if !strings.Contains(buf.String(), "f 1 2 3\n") {
		t.Errorf("expected 1-based face line, got:\n%s", buf.String())
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	km := export.ToKernelMesh(makeQuad(t), "quad")
	var buf bytes.Buffer
	if err := export.WriteJSON(&buf, km); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	var back kernel.Mesh
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Name != "quad" || back.TriangleCount() != 2 {
		t.Errorf("decoded mesh name=%q triangles=%d", back.Name, back.TriangleCount())
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	m := makeQuad(t)
	for _, format := range []string{"stl", "obj", "json"} {
		t.Run(format, func(t *testing.T) {
			path := filepath.Join(dir, "quad."+format)
			if err := export.WriteFile(path, format, m); err != nil {
				t.Fatalf("WriteFile(%s) failed: %v", format, err)
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatal(err)
			}
			if info.Size() == 0 {
				t.Error("file is empty")
			}
		})
	}

	path := filepath.Join(dir, "quad.ply")
	if err := export.WriteFile(path, "ply", m); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("unknown format should not create a file")
	}
}

func TestWriteSTLRejectsEmptyMesh(t *testing.T) {
	m, err := halfedge.New([]v3.Vec{{X: 0}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := export.WriteSTL(filepath.Join(t.TempDir(), "x.stl"), m); err == nil {
		t.Error("expected error writing a mesh with no faces")
	}
}
