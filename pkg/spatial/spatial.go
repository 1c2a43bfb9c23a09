// Package spatial finds pairs of points closer than a radius. Two
// strategies are provided: an all-pairs scan and an R-tree index rebuilt
// from scratch on every query.
package spatial

import (
	"fmt"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Pair is an unordered pair of point indices with I < J.
type Pair struct {
	I, J int
}

// Finder returns every pair of distinct points whose separation is at most
// radius, ordered by (I, J). A non-positive radius yields no pairs.
type Finder interface {
	Pairs(points []v3.Vec, radius float64) []Pair
	Name() string
}

// Strategy names accepted by ByName.
const (
	BruteForceName = "brute-force"
	RTreeName      = "rtree"
)

// ByName returns the finder registered under name.
func ByName(name string) (Finder, error) {
	switch name {
	case BruteForceName:
		return BruteForce{}, nil
	case RTreeName:
		return NewRTree(), nil
	}
	return nil, fmt.Errorf("spatial: unknown strategy %q", name)
}

// within reports whether b lies in the closed ball of radius r around a.
// Both strategies share it so they agree on boundary cases.
func within(a, b v3.Vec, r float64) bool {
	return b.Sub(a).Length() <= r
}

func sortPairs(pairs []Pair) {
	sort.Slice(pairs, func(x, y int) bool {
		if pairs[x].I != pairs[y].I {
			return pairs[x].I < pairs[y].I
		}
		return pairs[x].J < pairs[y].J
	})
}
