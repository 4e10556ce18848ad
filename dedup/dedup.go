// Package dedup provides tolerance-based clustering of 2-D point
// clouds and fixed-radius nearest-point queries over them.
//
// Both operations run on a uniform grid hash with cell size equal to
// the tolerance, so a query only probes the 3×3 cell neighborhood of
// its own cell. This keeps RemoveDuplicates O(n) expected and Closest
// O(1) expected for the tolerances used by the lattice generator.
//
// Non-finite points never match anything: a mapped point that left the
// valid domain is treated as absent, not as an error.
package dedup

import (
	"math"
)

// cellKey addresses one grid cell.
type cellKey struct{ x, y int }

// Index is an immutable fixed-radius nearest-point index over a point
// cloud. Build once with NewIndex, query with Closest.
type Index struct {
	pts  []complex128
	tol  float64
	grid map[cellKey][]int
}

// NewIndex builds an index over points answering queries within tol.
// The slice is retained, not copied; callers must not mutate it while
// the index is in use. Non-finite points are indexed but unreachable.
func NewIndex(points []complex128, tol float64) *Index {
	ix := &Index{
		pts:  points,
		tol:  tol,
		grid: make(map[cellKey][]int, len(points)),
	}
	for i, p := range points {
		if !isFinite(p) {
			continue
		}
		k := ix.cell(p)
		ix.grid[k] = append(ix.grid[k], i)
	}
	return ix
}

// Closest returns the index and distance of the nearest indexed point
// within the index tolerance of q, or ok=false when no point qualifies
// or q is non-finite.
func (ix *Index) Closest(q complex128) (i int, dist float64, ok bool) {
	if !isFinite(q) {
		return 0, 0, false
	}
	c := ix.cell(q)
	best, bestD := -1, math.Inf(1)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for _, j := range ix.grid[cellKey{c.x + dx, c.y + dy}] {
				d := absDiff(ix.pts[j], q)
				if d < bestD {
					best, bestD = j, d
				}
			}
		}
	}
	if best < 0 || bestD > ix.tol {
		return 0, 0, false
	}
	return best, bestD, true
}

func (ix *Index) cell(p complex128) cellKey {
	return cellKey{
		x: int(math.Floor(real(p) / ix.tol)),
		y: int(math.Floor(imag(p) / ix.tol)),
	}
}

// RemoveDuplicates clusters points lying within tol of an earlier
// point and returns, for each input index, the index of its cluster's
// first-seen representative. Representatives map to themselves, so the
// operation is idempotent: applying it to its own set of
// representatives changes nothing. Non-finite points always represent
// themselves.
func RemoveDuplicates(points []complex128, tol float64) []int {
	rep := make([]int, len(points))
	grid := make(map[cellKey][]int, len(points))
	tmp := Index{tol: tol}
	for i, p := range points {
		rep[i] = i
		if !isFinite(p) {
			continue
		}
		c := tmp.cell(p)
		found := false
		for dx := -1; dx <= 1 && !found; dx++ {
			for dy := -1; dy <= 1 && !found; dy++ {
				for _, j := range grid[cellKey{c.x + dx, c.y + dy}] {
					if absDiff(points[j], p) <= tol {
						rep[i] = j
						found = true
						break
					}
				}
			}
		}
		if !found {
			grid[c] = append(grid[c], i)
		}
	}
	return rep
}

func isFinite(p complex128) bool {
	return !math.IsNaN(real(p)) && !math.IsInf(real(p), 0) &&
		!math.IsNaN(imag(p)) && !math.IsInf(imag(p), 0)
}

func absDiff(a, b complex128) float64 {
	return math.Hypot(real(a)-real(b), imag(a)-imag(b))
}
