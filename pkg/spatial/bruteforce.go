package spatial

import v3 "github.com/deadsy/sdfx/vec/v3"

// BruteForce compares every pair of points. O(n²).
type BruteForce struct{}

func (BruteForce) Name() string { return BruteForceName }

func (BruteForce) Pairs(points []v3.Vec, radius float64) []Pair {
	if radius <= 0 {
		return nil
	}
	var out []Pair
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			if within(points[i], points[j], radius) {
				out = append(out, Pair{I: i, J: j})
			}
		}
	}
	return out
}
