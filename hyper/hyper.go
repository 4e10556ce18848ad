// Package hyper provides the Poincaré-disk metric and geodesic
// interpolation, built on the mobius transform group.
//
// Points are complex128 values inside the open unit disk. Evaluating
// the metric at or beyond the boundary is not an error: Distance
// returns +Inf, and callers treat the result as "no match" (see the
// dedup and lattice packages).
package hyper

import (
	"math"
	"math/cmplx"

	"github.com/hyptile/hyptile/mobius"
)

// Distance returns the hyperbolic distance between u and v:
//
//	acosh(1 + 2‖u−v‖² / ((1−‖u‖²)(1−‖v‖²)))
//
// It is symmetric and zero iff u == v. If either point has squared
// magnitude ≥ 1 (or is non-finite) the metric is undefined and +Inf is
// returned.
func Distance(u, v complex128) float64 {
	uu := real(u)*real(u) + imag(u)*imag(u)
	vv := real(v)*real(v) + imag(v)*imag(v)
	if !(uu < 1) || !(vv < 1) { // NaN-safe: catches non-finite inputs too
		return math.Inf(1)
	}
	d := u - v
	dd := real(d)*real(d) + imag(d)*imag(d)
	return math.Acosh(1 + 2*dd/((1-uu)*(1-vv)))
}

// Radius returns the Euclidean radius of the point at hyperbolic
// distance d from the origin: tanh(d/2).
func Radius(d float64) float64 {
	return math.Tanh(d / 2)
}

// Interpolate returns the point a fraction t of the geodesic distance
// from x to y: Interpolate(x,y,0) == x and Interpolate(x,y,1) == y.
//
// x is moved to the origin with mobius.Translation, y is expressed in
// that frame where the geodesic is a radial line, the radial offset is
// rescaled to hyperbolic distance t·d, and the result is mapped back.
func Interpolate(x, y complex128, t float64) complex128 {
	// Translation(u) maps 0 to the point at hyperbolic distance |u| in
	// direction u, so the frame move needs u with |u| = Distance(0,x).
	frame := mobius.Translation(originVector(x))
	back, err := mobius.Inverse(frame)
	if err != nil {
		// frame is a disk isometry with unit-scale determinant; a
		// singular inverse here means x was non-finite.
		return cmplx.NaN()
	}
	yy := mobius.Apply(back, y)
	r := cmplx.Abs(yy)
	if r == 0 {
		return x
	}
	d := Distance(0, yy)
	scaled := complex(Radius(t*d)/r, 0) * yy
	return mobius.Apply(frame, scaled)
}

// originVector returns the vector u with mobius.Translation(u) mapping
// the origin to p: direction p, hyperbolic length Distance(0, p).
func originVector(p complex128) complex128 {
	r := cmplx.Abs(p)
	if r == 0 {
		return 0
	}
	return complex(Distance(0, p)/r, 0) * p
}
