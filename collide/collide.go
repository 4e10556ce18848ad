// Package collide answers proximity queries over the moving point
// cloud of an embedding: penetration energy and its gradient, hard
// collision detection, closest-approach reporting, and the
// strain-limiting projection used by the "limit" solver strategy.
//
// Vertices sharing a mesh face are natural neighbors — their
// separation is governed by the spring terms, not by collision — so
// face-sharing pairs are excluded from every query.
//
// The broad phase is a uniform grid rebuilt per query with cell size
// equal to the minimum separation, probing the 3×3×3 neighborhood;
// pair distances beyond that radius are invisible, which is exactly
// the set of pairs with zero collision energy.
package collide

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/hyptile/hyptile/mesh"
)

// hardFraction of the minimum separation below which a pair counts as
// a hard collision: energy evaluation becomes infeasible rather than
// smooth.
const hardFraction = 0.5

// Collider is an immutable query object for one mesh connectivity and
// minimum-separation threshold. Positions are supplied per call.
type Collider struct {
	minSep float64
	n      int
	excl   map[[2]int]bool
}

// New builds a collider for the mesh's vertex cloud with the given
// minimum separation.
func New(m *mesh.Mesh, minSep float64) *Collider {
	c := &Collider{
		minSep: minSep,
		n:      m.NumVertices(),
		excl:   make(map[[2]int]bool),
	}
	for _, f := range m.Faces {
		for i := 0; i < len(f); i++ {
			for j := i + 1; j < len(f); j++ {
				c.excl[pairKey(f[i], f[j])] = true
			}
		}
	}
	return c
}

// MinSep returns the configured minimum separation.
func (c *Collider) MinSep() float64 { return c.minSep }

func pairKey(i, j int) [2]int {
	if j < i {
		i, j = j, i
	}
	return [2]int{i, j}
}

type cellKey struct{ x, y, z int }

// forPairs visits every non-excluded pair within the broad-phase
// radius of each other, once, with its current distance.
func (c *Collider) forPairs(x []r3.Vec, visit func(i, j int, d float64)) {
	grid := make(map[cellKey][]int, len(x))
	cell := func(p r3.Vec) cellKey {
		return cellKey{
			x: int(math.Floor(p.X / c.minSep)),
			y: int(math.Floor(p.Y / c.minSep)),
			z: int(math.Floor(p.Z / c.minSep)),
		}
	}
	for i, p := range x {
		k := cell(p)
		grid[k] = append(grid[k], i)
	}
	for i, p := range x {
		k := cell(p)
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for dz := -1; dz <= 1; dz++ {
					for _, j := range grid[cellKey{k.x + dx, k.y + dy, k.z + dz}] {
						if j <= i || c.excl[[2]int{i, j}] {
							continue
						}
						d := r3.Norm(r3.Sub(p, x[j]))
						if d <= c.minSep {
							visit(i, j, d)
						}
					}
				}
			}
		}
	}
}

// HasCollision reports whether any pair sits inside the hard-collision
// radius (hardFraction of the minimum separation).
func (c *Collider) HasCollision(x []r3.Vec) bool {
	hard := false
	c.forPairs(x, func(_, _ int, d float64) {
		if d < hardFraction*c.minSep {
			hard = true
		}
	})
	return hard
}

// Energy returns the quadratic penetration penalty
// Σ (minSep − d)² over pairs closer than the minimum separation.
func (c *Collider) Energy(x []r3.Vec) float64 {
	e := 0.0
	c.forPairs(x, func(_, _ int, d float64) {
		if d < c.minSep {
			v := c.minSep - d
			e += v * v
		}
	})
	return e
}

// Gradient accumulates ∂Energy/∂x into grad (same length as x), which
// is not zeroed first so spring gradients can share the buffer.
func (c *Collider) Gradient(x []r3.Vec, grad []r3.Vec) {
	c.forPairs(x, func(i, j int, d float64) {
		if d >= c.minSep || d == 0 {
			return
		}
		// dE/dxi = −2(minSep−d)·(xi−xj)/d
		s := -2 * (c.minSep - d) / d
		dir := r3.Scale(s, r3.Sub(x[i], x[j]))
		grad[i] = r3.Add(grad[i], dir)
		grad[j] = r3.Sub(grad[j], dir)
	})
}

// ClosestApproach returns the smallest pairwise distance within the
// broad-phase radius, or +Inf when every pair is comfortably apart.
func (c *Collider) ClosestApproach(x []r3.Vec) float64 {
	best := math.Inf(1)
	c.forPairs(x, func(_, _ int, d float64) {
		if d < best {
			best = d
		}
	})
	return best
}

// Count returns the number of hard-collision pairs (inside the hard
// radius), the collision count reported in solver diagnostics. Softer
// separation violations show up through Energy and ClosestApproach
// instead.
func (c *Collider) Count(x []r3.Vec) int {
	n := 0
	c.forPairs(x, func(_, _ int, d float64) {
		if d < hardFraction*c.minSep {
			n++
		}
	})
	return n
}

// Project returns a copy of x with per-edge strain clamped to ±alpha
// of the rest lengths and separation violations pushed back out, via
// a few Gauss–Seidel sweeps. edges and rest must be aligned.
func (c *Collider) Project(edges [][2]int, rest []float64, x []r3.Vec, alpha float64) []r3.Vec {
	const sweeps = 24
	out := append([]r3.Vec{}, x...)
	for s := 0; s < sweeps; s++ {
		for k, e := range edges {
			i, j := e[0], e[1]
			diff := r3.Sub(out[i], out[j])
			d := r3.Norm(diff)
			if d == 0 {
				continue
			}
			lo, hi := rest[k]*(1-alpha), rest[k]*(1+alpha)
			target := d
			if d < lo {
				target = lo
			} else if d > hi {
				target = hi
			}
			if target == d {
				continue
			}
			// Move both endpoints symmetrically along the edge axis.
			corr := r3.Scale((target-d)/(2*d), diff)
			out[i] = r3.Add(out[i], corr)
			out[j] = r3.Sub(out[j], corr)
		}
		c.forPairs(out, func(i, j int, d float64) {
			if d >= c.minSep || d == 0 {
				return
			}
			push := r3.Scale((c.minSep-d)/(2*d), r3.Sub(out[i], out[j]))
			out[i] = r3.Add(out[i], push)
			out[j] = r3.Sub(out[j], push)
		})
	}
	return out
}
