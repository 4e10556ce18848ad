// Package mobius implements the group of Möbius transforms preserving
// the open unit disk — the orientation-preserving isometries of the
// hyperbolic plane in the Poincaré model.
//
// A Transform is an immutable value holding the four complex
// coefficients of the fractional-linear map
//
//	f(z) = (A·z + B) / (C·z + D),   A·D − B·C ≠ 0.
//
// Composition, inversion and powers are free functions over the value
// type; there is no operator-bearing hierarchy. Batch provides
// element-wise composition over sequences with single-element
// broadcasting.
//
// Errors:
//
//	ErrSingular      - transform determinant is numerically zero.
//	ErrNegativePower - Pow called with a negative exponent.
package mobius

import (
	"errors"
	"math"
	"math/cmplx"
)

// Sentinel errors for group operations.
var (
	// ErrSingular indicates a degenerate transform (|AD−BC| below the
	// normalization guard), for which inverse and normalized forms do
	// not exist.
	ErrSingular = errors.New("mobius: singular transform")

	// ErrNegativePower indicates a negative exponent passed to Pow;
	// only non-negative integer powers are supported.
	ErrNegativePower = errors.New("mobius: negative power unsupported")
)

// detGuard is the smallest determinant magnitude Normalize and Inverse
// accept before reporting ErrSingular.
const detGuard = 1e-300

// Transform is one Möbius map of the disk. The zero value is the
// (degenerate) zero map; use Identity for the unit of the group.
type Transform struct {
	A, B, C, D complex128
}

// Batch is an ordered sequence of transforms sharing the group
// invariant. ComposeBatch broadcasts a length-1 batch against any
// other length.
type Batch []Transform

// Identity returns the transform z ↦ z.
func Identity() Transform {
	return Transform{A: 1, B: 0, C: 0, D: 1}
}

// FromAngle returns the rotation z ↦ e^{iθ}·z about the origin.
func FromAngle(theta float64) Transform {
	return Transform{A: cmplx.Exp(complex(0, theta)), B: 0, C: 0, D: 1}
}

// FromAngles returns one rotation per angle, in order.
func FromAngles(thetas []float64) Batch {
	b := make(Batch, len(thetas))
	for i, t := range thetas {
		b[i] = FromAngle(t)
	}
	return b
}

// Translation returns the transform moving the origin to the point at
// hyperbolic distance |u| from the origin in direction u/|u|.
//
// The Euclidean radius v of the image follows from the disk metric via
// v²/(1−v²) = (cosh d − 1)/2, which solves to v = tanh(d/2). For a
// real axis direction the map is z ↦ (z+v)/(v·z+1); a general
// direction conjugates that by the direction rotation, collapsing to
// coefficients {1, w, conj(w), 1} with w = v·u/|u|.
func Translation(u complex128) Transform {
	d := cmplx.Abs(u)
	if d == 0 {
		return Identity()
	}
	v := math.Tanh(d / 2)
	w := complex(v, 0) * u / complex(d, 0)
	return Transform{A: 1, B: w, C: cmplx.Conj(w), D: 1}
}

// Det returns the determinant A·D − B·C.
func Det(t Transform) complex128 {
	return t.A*t.D - t.B*t.C
}

// Apply evaluates the transform at z.
func Apply(t Transform, z complex128) complex128 {
	return (t.A*z + t.B) / (t.C*z + t.D)
}

// Compose returns f∘g: the transform applying g first, then f.
// Closure holds up to floating rounding: Det(Compose(f,g)) =
// Det(f)·Det(g).
func Compose(f, g Transform) Transform {
	return Transform{
		A: f.A*g.A + f.B*g.C,
		B: f.A*g.B + f.B*g.D,
		C: f.C*g.A + f.D*g.C,
		D: f.C*g.B + f.D*g.D,
	}
}

// ComposeBatch composes two batches element-wise. A length-1 operand
// broadcasts against the other; otherwise lengths must match, and a
// mismatch panics (an internal invariant, not a runtime condition).
func ComposeBatch(f, g Batch) Batch {
	n := len(f)
	if len(g) > n {
		n = len(g)
	}
	if (len(f) != n && len(f) != 1) || (len(g) != n && len(g) != 1) {
		panic("mobius: batch length mismatch")
	}
	pick := func(b Batch, i int) Transform {
		if len(b) == 1 {
			return b[0]
		}
		return b[i]
	}
	out := make(Batch, n)
	for i := 0; i < n; i++ {
		out[i] = Compose(pick(f, i), pick(g, i))
	}
	return out
}

// Inverse returns the unique transform with Compose(t, Inverse(t)) ≈
// Identity, via the adjugate/determinant formula. Returns ErrSingular
// when the determinant is numerically zero.
func Inverse(t Transform) (Transform, error) {
	det := Det(t)
	if cmplx.Abs(det) < detGuard {
		return Transform{}, ErrSingular
	}
	return Transform{
		A: t.D / det,
		B: -t.B / det,
		C: -t.C / det,
		D: t.A / det,
	}, nil
}

// Pow returns t composed with itself n times; Pow(t, 0) is the
// identity. Negative exponents return ErrNegativePower.
func Pow(t Transform, n int) (Transform, error) {
	if n < 0 {
		return Transform{}, ErrNegativePower
	}
	out := Identity()
	for i := 0; i < n; i++ {
		out = Compose(out, t)
	}
	return out, nil
}

// Normalize scales t so its determinant is 1, dividing all
// coefficients by sqrt(det). Returns ErrSingular when the determinant
// magnitude is below the guard. The result is unique up to sign.
func Normalize(t Transform) (Transform, error) {
	det := Det(t)
	if cmplx.Abs(det) < detGuard {
		return Transform{}, ErrSingular
	}
	s := cmplx.Sqrt(det)
	return Transform{A: t.A / s, B: t.B / s, C: t.C / s, D: t.D / s}, nil
}

// CloseTo reports whether a and b represent the same disk map within
// tol, comparing normalized coefficients. Normalized forms are unique
// only up to a global ± sign, so both signs are tried. Degenerate
// operands are never close to anything.
func CloseTo(a, b Transform, tol float64) bool {
	na, err := Normalize(a)
	if err != nil {
		return false
	}
	nb, err := Normalize(b)
	if err != nil {
		return false
	}
	neg := Transform{A: -nb.A, B: -nb.B, C: -nb.C, D: -nb.D}
	return coefDist(na, nb) <= tol || coefDist(na, neg) <= tol
}

// coefDist returns the max coefficient-wise distance between a and b.
func coefDist(a, b Transform) float64 {
	m := cmplx.Abs(a.A - b.A)
	if d := cmplx.Abs(a.B - b.B); d > m {
		m = d
	}
	if d := cmplx.Abs(a.C - b.C); d > m {
		m = d
	}
	if d := cmplx.Abs(a.D - b.D); d > m {
		m = d
	}
	return m
}
