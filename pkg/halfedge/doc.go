// Package halfedge implements an index-based half-edge mesh.
// Vertices, half-edges and faces live in growable slices and reference
// each other by index. Half-edges are always allocated in twin pairs at
// consecutive even/odd indices, so the twin of h is h^1.
package halfedge
