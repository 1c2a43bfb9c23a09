package seed

import (
	"fmt"

	"github.com/chazu/sprout/pkg/halfedge"
	"github.com/chazu/sprout/pkg/kernel"
	"github.com/chazu/sprout/pkg/kernel/sdfx"
)

// Seed kinds understood by Spec.Build.
const (
	KindQuad        = "quad"
	KindGrid        = "grid"
	KindDisc        = "disc"
	KindIcosphere   = "icosphere"
	KindSDFSphere   = "sdf-sphere"
	KindSDFBox      = "sdf-box"
	KindSDFCylinder = "sdf-cylinder"
	KindSDFDumbbell = "sdf-dumbbell"
	KindSDFLens     = "sdf-lens"
	KindSDFBowl     = "sdf-bowl"
)

// Kinds lists every seed kind.
var Kinds = []string{
	KindQuad, KindGrid, KindDisc, KindIcosphere,
	KindSDFSphere, KindSDFBox, KindSDFCylinder,
	KindSDFDumbbell, KindSDFLens, KindSDFBowl,
}

// Spec describes a seed surface. Which fields apply depends on Kind.
type Spec struct {
	Kind          string  `yaml:"kind"`
	Size          float64 `yaml:"size"`   // quad side, grid spacing, box side
	Radius        float64 `yaml:"radius"` // disc, sphere and cylinder radius
	Height        float64 `yaml:"height"` // cylinder height
	Subdivisions  int     `yaml:"subdivisions"`
	Segments      int     `yaml:"segments"`
	NX            int     `yaml:"nx"`
	NY            int     `yaml:"ny"`
	Cells         int     `yaml:"cells"` // marching cubes resolution for sdf kinds
	WeldTolerance float64 `yaml:"weld_tolerance"`

	// Tilt rotates sdf seeds by Euler angles in degrees before meshing.
	Tilt [3]float64 `yaml:"tilt"`
}

// DefaultCells is the marching cubes resolution of sdf seeds. It keeps a
// radius 3 sphere near 1,500 vertices, below the default vertex limit, so a
// default sdf seed still has room to grow.
const DefaultCells = 16

// DefaultSpec is a small icosphere that grows well at unit collision
// distance.
func DefaultSpec() Spec {
	return Spec{
		Kind:         KindIcosphere,
		Size:         1,
		Radius:       3,
		Height:       4,
		Subdivisions: 2,
		Segments:     12,
		NX:           4,
		NY:           4,
		Cells:        DefaultCells,
	}
}

// Build constructs the seed mesh.
func (s Spec) Build() (*halfedge.Mesh, error) {
	switch s.Kind {
	case KindQuad:
		return Quad(s.Size)
	case KindGrid:
		return Grid(s.NX, s.NY, s.Size)
	case KindDisc:
		return Disc(s.Radius, s.Segments)
	case KindIcosphere:
		return Icosphere(s.Radius, s.Subdivisions)
	}

	k := sdfx.NewWithCells(s.Cells)
	solid, err := s.solid(k)
	if err != nil {
		return nil, err
	}
	if s.Tilt != ([3]float64{}) {
		solid = k.Rotate(solid, s.Tilt[0], s.Tilt[1], s.Tilt[2])
	}
	return FromSolid(k, solid, s.WeldTolerance)
}

// solid builds the kernel solid for an sdf kind.
func (s Spec) solid(k kernel.Kernel) (kernel.Solid, error) {
	r := s.Radius
	switch s.Kind {
	case KindSDFSphere, KindSDFLens, KindSDFBowl:
		if !(r > 0) {
			return nil, fmt.Errorf("%w: radius %v", ErrBadParameter, r)
		}
	case KindSDFBox:
		if !(s.Size > 0) {
			return nil, fmt.Errorf("%w: size %v", ErrBadParameter, s.Size)
		}
	case KindSDFCylinder, KindSDFDumbbell:
		if !(r > 0) || !(s.Height > 0) {
			return nil, fmt.Errorf("%w: %s %vx%v", ErrBadParameter, s.Kind, r, s.Height)
		}
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrBadParameter, s.Kind)
	}

	switch s.Kind {
	case KindSDFSphere:
		return k.Sphere(r), nil
	case KindSDFBox:
		return k.Box(s.Size, s.Size, s.Size), nil
	case KindSDFCylinder:
		return k.Cylinder(s.Height, r), nil
	case KindSDFDumbbell:
		// Two spheres on the Z axis joined by a bar of half their radius.
		h := s.Height / 2
		ends := k.Union(k.Translate(k.Sphere(r), 0, 0, h), k.Translate(k.Sphere(r), 0, 0, -h))
		return k.Union(ends, k.Cylinder(s.Height, r/2)), nil
	case KindSDFLens:
		return k.Intersection(k.Translate(k.Sphere(r), r/2, 0, 0), k.Translate(k.Sphere(r), -r/2, 0, 0)), nil
	default: // KindSDFBowl
		return k.Difference(k.Sphere(r), k.Translate(k.Sphere(r), 0, 0, r/2)), nil
	}
}
