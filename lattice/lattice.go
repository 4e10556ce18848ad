// Package lattice expands a regular {p,q} tiling of the hyperbolic
// disk into a discrete lattice: an ordered set of Möbius transforms
// (one per vertex, each mapping the origin to that vertex), the edge
// set discovered by geodesic stepping, and the oriented triangle or
// quad faces of the tiling.
//
// Generation is breadth-first over a fixed set of "link" transforms up
// to a configured depth, followed by tolerance-based deduplication of
// the accumulated origin-images (first-seen transform wins, keeping
// vertex indices stable across runs).
package lattice

import (
	"fmt"
	"math"

	"github.com/hyptile/hyptile/config"
	"github.com/hyptile/hyptile/dedup"
	"github.com/hyptile/hyptile/hyper"
	"github.com/hyptile/hyptile/mobius"
)

// Tolerances for collapsing coincident origin-images and for matching
// a stepped point to an existing vertex. Stepping accumulates more
// rounding than raw generation, hence the looser match tolerance.
const (
	dedupTol = 1e-7
	matchTol = 1e-6
)

// Lattice is the generated tiling. Vertex positions are derived from
// the transforms (Points[i] == Transforms[i] applied to the origin)
// and cached for the edge and face queries.
type Lattice struct {
	// Transforms maps the origin to each vertex, first-seen order.
	Transforms mobius.Batch

	// Points caches the vertex positions inside the unit disk.
	Points []complex128

	// Edges are unordered index pairs, stored (lo, hi), sorted.
	Edges [][2]int

	// RestLens holds the hyperbolic length of each edge, aligned with
	// Edges. For an unsubdivided lattice all entries agree with the
	// tiling edge length up to rounding.
	RestLens []float64

	// Faces are oriented vertex-index tuples, length 3 or 4 matching
	// the configured poly.
	Faces [][]int

	// Poly records the face degree the lattice was generated with.
	Poly int
}

// Generate expands, deduplicates and meshes the tiling described by
// opts. Configuration errors (unsupported poly, bad center, a
// non-hyperbolic {p,q}) are fatal and returned immediately.
//
// Complexity: O(q^depth) transforms generated, O(n) dedup and edge
// discovery over the retained n vertices.
func Generate(opts config.Options) (*Lattice, error) {
	drv, err := config.Derive(opts)
	if err != nil {
		return nil, fmt.Errorf("lattice: %w", err)
	}

	links := linkSet(opts, drv)
	all := append(mobius.Batch{}, seedSet(opts, drv)...)
	frontier := all
	for level := 0; level < opts.Depth; level++ {
		next := make(mobius.Batch, 0, len(frontier)*len(links))
		for _, t := range frontier {
			for _, link := range links {
				next = append(next, mobius.Compose(t, link))
			}
		}
		all = append(all, next...)
		frontier = next
	}

	// Collapse transforms whose origin-images coincide, first seen wins.
	images := make([]complex128, len(all))
	for i, t := range all {
		images[i] = mobius.Apply(t, 0)
	}
	rep := dedup.RemoveDuplicates(images, dedupTol)
	lat := &Lattice{Poly: opts.Poly}
	for i, r := range rep {
		if r == i {
			lat.Transforms = append(lat.Transforms, all[i])
			lat.Points = append(lat.Points, images[i])
		}
	}

	lat.extractEdges(links)
	switch opts.Poly {
	case 3:
		lat.extractTriangles()
	case 4:
		lat.extractQuads()
		lat.pruneToQuads()
	default:
		// Unreachable past Validate; kept as a hard stop for misuse.
		return nil, fmt.Errorf("lattice: %w: got %d", config.ErrBadPoly, opts.Poly)
	}
	return lat, nil
}

// linkSet returns the q neighbor transforms: for each vertex direction
// 2πk/q, the half-turn about the midpoint of the real-axis edge,
// pre-rotated into that direction. Each link is a genuine symmetry of
// the tiling mapping a vertex frame onto a neighbor's frame, so
// repeated composition only ever lands on true lattice vertices.
func linkSet(opts config.Options, drv config.Derived) mobius.Batch {
	half := mobius.Translation(complex(drv.EdgeLength/2, 0))
	back, err := mobius.Inverse(half)
	if err != nil {
		panic("lattice: edge-midpoint translation is singular")
	}
	flip := mobius.Compose(half, mobius.Compose(mobius.FromAngle(math.Pi), back))
	links := make(mobius.Batch, opts.Degree)
	for k := 0; k < opts.Degree; k++ {
		links[k] = mobius.Compose(mobius.FromAngle(2*math.Pi*float64(k)/float64(opts.Degree)), flip)
	}
	return links
}

// seedSet places the level-0 cell according to the centering mode:
// vertex puts a lattice vertex at the origin, polygon puts a face
// barycenter there (p seeds, one per corner of the central face), and
// edge puts an edge midpoint there (2 seeds, one per endpoint). The
// trailing rotations align the standard vertex frame (an edge along
// the positive real axis) with the edges actually incident at the
// seeded vertex; see DESIGN.md for the angle bookkeeping.
func seedSet(opts config.Options, drv config.Derived) mobius.Batch {
	p := float64(opts.Poly)
	q := float64(opts.Degree)
	switch opts.Center {
	case config.CenterPolygon:
		out := make(mobius.Batch, opts.Poly)
		toVertex := mobius.Translation(complex(drv.Circumradius, 0))
		align := mobius.FromAngle(math.Pi + math.Pi/q)
		for k := range out {
			spin := mobius.FromAngle(2 * math.Pi * float64(k) / p)
			out[k] = mobius.Compose(spin, mobius.Compose(toVertex, align))
		}
		return out
	case config.CenterEdge:
		toVertex := mobius.Translation(complex(drv.EdgeLength/2, 0))
		seed := mobius.Compose(toVertex, mobius.FromAngle(math.Pi))
		return mobius.Batch{
			seed,
			mobius.Compose(mobius.FromAngle(math.Pi), seed),
		}
	default: // config.CenterVertex
		return mobius.Batch{mobius.Identity()}
	}
}

// extractEdges walks the elementary geodesic step from every vertex in
// every link direction and records an edge whenever the stepped point
// lands on a different real vertex. Steps that leave the disk (or go
// non-finite) simply fail to match: boundary vertices keep partial
// valence.
func (l *Lattice) extractEdges(links mobius.Batch) {
	ix := dedup.NewIndex(l.Points, matchTol)
	seen := make(map[[2]int]bool)
	for i, t := range l.Transforms {
		for _, link := range links {
			stepped := mobius.Apply(mobius.Compose(t, link), 0)
			j, _, ok := ix.Closest(stepped)
			if !ok || j == i {
				continue
			}
			key := edgeKey(i, j)
			if seen[key] {
				continue
			}
			seen[key] = true
			l.Edges = append(l.Edges, key)
			l.RestLens = append(l.RestLens, hyper.Distance(l.Points[i], l.Points[j]))
		}
	}
}

func edgeKey(i, j int) [2]int {
	if j < i {
		i, j = j, i
	}
	return [2]int{i, j}
}

// adjacency returns the neighbor lists implied by Edges.
func (l *Lattice) adjacency() [][]int {
	adj := make([][]int, len(l.Points))
	for _, e := range l.Edges {
		adj[e[0]] = append(adj[e[0]], e[1])
		adj[e[1]] = append(adj[e[1]], e[0])
	}
	return adj
}

// cross returns the z component of (b−a)×(c−a), the doubled signed
// area used to normalize face orientation.
func (l *Lattice) cross(a, b, c int) float64 {
	ab := l.Points[b] - l.Points[a]
	ac := l.Points[c] - l.Points[a]
	return real(ab)*imag(ac) - imag(ab)*real(ac)
}
