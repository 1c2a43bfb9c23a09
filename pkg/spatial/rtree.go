package spatial

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/dhconnelly/rtreego"
)

// Default R-tree node fan-out.
const (
	DefaultMinChildren = 25
	DefaultMaxChildren = 50
)

// pointTolerance is the half-width of the box stored for each point.
const pointTolerance = 1e-9

// RTree indexes the points in an R-tree and answers one box query per
// point, keeping hits inside the true ball. The tree is built per call and
// never retained.
type RTree struct {
	MinChildren int
	MaxChildren int
}

// NewRTree returns an RTree finder with the default fan-out.
func NewRTree() RTree {
	return RTree{MinChildren: DefaultMinChildren, MaxChildren: DefaultMaxChildren}
}

func (RTree) Name() string { return RTreeName }

// indexedPoint is the rtreego.Spatial stored for each point.
type indexedPoint struct {
	index int
	rect  rtreego.Rect
}

func (p *indexedPoint) Bounds() rtreego.Rect { return p.rect }

func (r RTree) Pairs(points []v3.Vec, radius float64) []Pair {
	if radius <= 0 || len(points) < 2 {
		return nil
	}
	minC, maxC := r.MinChildren, r.MaxChildren
	if minC <= 0 || maxC < 2*minC {
		minC, maxC = DefaultMinChildren, DefaultMaxChildren
	}

	tree := rtreego.NewTree(3, minC, maxC)
	for i, p := range points {
		tree.Insert(&indexedPoint{
			index: i,
			rect:  rtreego.Point{p.X, p.Y, p.Z}.ToRect(pointTolerance),
		})
	}

	side := 2 * radius
	var out []Pair
	var hits []int
	for i, p := range points {
		box, err := rtreego.NewRect(
			rtreego.Point{p.X - radius, p.Y - radius, p.Z - radius},
			[]float64{side, side, side},
		)
		if err != nil {
			panic(fmt.Sprintf("spatial: query box for point %d: %v", i, err))
		}
		hits = hits[:0]
		for _, s := range tree.SearchIntersect(box) {
			j := s.(*indexedPoint).index
			if j > i && within(p, points[j], radius) {
				hits = append(hits, j)
			}
		}
		for _, j := range hits {
			out = append(out, Pair{I: i, J: j})
		}
	}
	sortPairs(out)
	return out
}
