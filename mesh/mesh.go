// Package mesh holds the face/edge mesh extracted from a lattice, its
// geodesic subdivision, and the JSON persistence used by the flop
// solver's checkpoints.
//
// A Mesh is purely combinatorial: faces are tuples of vertex indices
// (triangles or quads). Vertex positions travel alongside as separate
// slices — complex128 for the 2-D hyperbolic stage, r3.Vec for the
// embedded stage — so one connectivity serves both.
//
// Errors:
//
//	ErrBadLevel - subdivision level other than 1, 2 or 4.
//	ErrMixedFaces - a mesh mixing face degrees.
package mesh

import (
	"errors"
	"sort"

	"github.com/hyptile/hyptile/hyper"
)

var (
	// ErrBadLevel indicates an unsupported subdivision level; only 1
	// (no-op), 2, and 4 (two doubling steps) exist.
	ErrBadLevel = errors.New("mesh: level must be 1, 2 or 4")

	// ErrMixedFaces indicates faces of differing degree in one mesh.
	ErrMixedFaces = errors.New("mesh: mixed face degrees")
)

// Mesh is an ordered sequence of oriented faces over an implicit
// vertex range. All faces share one degree (3 or 4).
type Mesh struct {
	Faces [][]int
}

// New wraps a face list. Face slices are retained, not copied.
func New(faces [][]int) *Mesh {
	return &Mesh{Faces: faces}
}

// Poly returns the face degree, or 0 for an empty mesh.
func (m *Mesh) Poly() int {
	if len(m.Faces) == 0 {
		return 0
	}
	return len(m.Faces[0])
}

// NumVertices returns one past the largest vertex index referenced.
func (m *Mesh) NumVertices() int {
	n := 0
	for _, f := range m.Faces {
		for _, v := range f {
			if v >= n {
				n = v + 1
			}
		}
	}
	return n
}

// Edges lists the undirected face-boundary edges once each, stored
// (lo, hi) and sorted lexicographically for deterministic downstream
// iteration.
func (m *Mesh) Edges() [][2]int {
	seen := make(map[[2]int]bool)
	var out [][2]int
	for _, f := range m.Faces {
		for i := range f {
			a, b := f[i], f[(i+1)%len(f)]
			if b < a {
				a, b = b, a
			}
			k := [2]int{a, b}
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

// SameConnectivity reports whether two meshes have identical face
// lists — the restart compatibility check.
func (m *Mesh) SameConnectivity(o *Mesh) bool {
	if len(m.Faces) != len(o.Faces) {
		return false
	}
	for i, f := range m.Faces {
		if len(f) != len(o.Faces[i]) {
			return false
		}
		for j, v := range f {
			if v != o.Faces[i][j] {
				return false
			}
		}
	}
	return true
}

// Subdivide refines the mesh and its 2-D hyperbolic positions to the
// requested level: 1 returns the inputs untouched, 2 performs one
// doubling step, 4 performs two. Each step inserts the hyperbolic
// midpoint of every edge (and, for quads, a face-center vertex) and
// re-expresses every face in the finer pattern: triangles quadrisect,
// quads split into four quads around their center.
func Subdivide(m *Mesh, pts []complex128, level int) (*Mesh, []complex128, error) {
	switch level {
	case 1:
		return m, pts, nil
	case 2:
		return subdivideOnce(m, pts)
	case 4:
		m2, p2, err := subdivideOnce(m, pts)
		if err != nil {
			return nil, nil, err
		}
		return subdivideOnce(m2, p2)
	default:
		return nil, nil, ErrBadLevel
	}
}

func subdivideOnce(m *Mesh, pts []complex128) (*Mesh, []complex128, error) {
	poly := m.Poly()
	for _, f := range m.Faces {
		if len(f) != poly {
			return nil, nil, ErrMixedFaces
		}
	}
	out := append([]complex128{}, pts...)
	mid := make(map[[2]int]int)
	midpoint := func(a, b int) int {
		k := [2]int{a, b}
		if b < a {
			k = [2]int{b, a}
		}
		if v, ok := mid[k]; ok {
			return v
		}
		v := len(out)
		out = append(out, hyper.Interpolate(pts[a], pts[b], 0.5))
		mid[k] = v
		return v
	}

	fine := &Mesh{Faces: make([][]int, 0, 4*len(m.Faces))}
	for _, f := range m.Faces {
		switch poly {
		case 3:
			a, b, c := f[0], f[1], f[2]
			ab, bc, ca := midpoint(a, b), midpoint(b, c), midpoint(c, a)
			fine.Faces = append(fine.Faces,
				[]int{a, ab, ca},
				[]int{ab, b, bc},
				[]int{ca, bc, c},
				[]int{ab, bc, ca},
			)
		case 4:
			a, b, c, d := f[0], f[1], f[2], f[3]
			ab, bc, cd, da := midpoint(a, b), midpoint(b, c), midpoint(c, d), midpoint(d, a)
			ctr := len(out)
			out = append(out, hyper.Interpolate(
				hyper.Interpolate(pts[a], pts[c], 0.5),
				hyper.Interpolate(pts[b], pts[d], 0.5), 0.5))
			fine.Faces = append(fine.Faces,
				[]int{a, ab, ctr, da},
				[]int{ab, b, bc, ctr},
				[]int{ctr, bc, c, cd},
				[]int{da, ctr, cd, d},
			)
		default:
			return nil, nil, ErrMixedFaces
		}
	}
	return fine, out, nil
}
