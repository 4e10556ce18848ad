// Package config owns the option surface shared by the lattice
// generator, the subdivision step and the flop solver, together with
// the quantities derived from it (tiling edge length, circumradius).
//
// Validation is strict: an unsupported polygon degree, subdivision
// level, mode, center or method is a configuration error, reported
// immediately and never recovered from. Derived quantities are pure
// functions of an Options value, computed once by Derive — there is no
// process-global cache to go stale.
//
// Errors:
//
//	ErrBadMode   - Mode is not disk, flop or test.
//	ErrBadCenter - Center is not vertex, polygon or edge.
//	ErrBadPoly   - Poly is not 3 or 4.
//	ErrBadLevels - Levels is not 1, 2 or 4.
//	ErrBadDegree - Degree is too small for a hyperbolic tiling.
//	ErrBadDepth  - Depth is negative.
//	ErrBadMethod - Method is not jitter, limit or a known minimizer.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// Sentinel errors for option validation.
var (
	ErrBadMode   = errors.New("config: unknown mode")
	ErrBadCenter = errors.New("config: unknown center")
	ErrBadPoly   = errors.New("config: poly must be 3 or 4")
	ErrBadLevels = errors.New("config: levels must be 1, 2 or 4")
	ErrBadDegree = errors.New("config: degree incompatible with poly")
	ErrBadDepth  = errors.New("config: depth must be non-negative")
	ErrBadMethod = errors.New("config: unknown method")
)

// Modes of the hyptile pipeline.
const (
	ModeDisk = "disk" // render the 2-D lattice
	ModeFlop = "flop" // run the embedding solver
	ModeTest = "test" // run numeric self-checks
)

// Centering modes for the lattice seed.
const (
	CenterVertex  = "vertex"
	CenterPolygon = "polygon"
	CenterEdge    = "edge"
)

// Solver methods. Jitter and Limit are the built-in strategies; the
// remaining names select a gonum/optimize minimizer.
const (
	MethodJitter = "jitter"
	MethodLimit  = "limit"
	MethodCG     = "CG"
	MethodBFGS   = "BFGS"
	MethodLBFGS  = "LBFGS"
	MethodNelder = "NelderMead"
)

// Options is the full configuration surface. Zero values are not
// meaningful; start from DefaultOptions.
type Options struct {
	Mode       string  `json:"mode"`       // disk | flop | test
	Depth      int     `json:"depth"`      // lattice expansion depth, ≥ 0
	Center     string  `json:"center"`     // vertex | polygon | edge
	Resolution int     `json:"resolution"` // samples per rendered geodesic
	Tolerance  float64 `json:"tolerance"`  // solver convergence tolerance
	Separation float64 `json:"separation"` // minimum 3-D separation
	Levels     int     `json:"levels"`     // subdivision level: 1 | 2 | 4
	Degree     int     `json:"degree"`     // vertex valence q of the {p,q} tiling
	Poly       int     `json:"poly"`       // polygon degree p: 3 | 4
	Method     string  `json:"method"`     // jitter | limit | CG | BFGS | LBFGS | NelderMead
	Checkpoint int     `json:"checkpoint"` // accepted iterations between checkpoints, 0 disables
	Restart    string  `json:"restart"`    // checkpoint file to resume from, empty for none
	FlopSeed   int64   `json:"flopseed"`   // seed for lift noise and jitter
}

// DefaultOptions returns the documented defaults: a depth-2 {3,7}
// vertex-centered tiling flopped with conjugate gradients.
func DefaultOptions() Options {
	return Options{
		Mode:       ModeFlop,
		Depth:      2,
		Center:     CenterVertex,
		Resolution: 16,
		Tolerance:  1e-4,
		Separation: 0.8,
		Levels:     1,
		Degree:     7,
		Poly:       3,
		Method:     MethodCG,
		Checkpoint: 0,
		Restart:    "",
		FlopSeed:   8231110,
	}
}

// Load reads a JSON options file and overlays it on the defaults.
func Load(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return opts, nil
}

// Validate reports the first configuration error, or nil. All
// violations are fatal per the error-handling policy.
func (o Options) Validate() error {
	switch o.Mode {
	case ModeDisk, ModeFlop, ModeTest:
	default:
		return fmt.Errorf("%w: %q", ErrBadMode, o.Mode)
	}
	switch o.Center {
	case CenterVertex, CenterPolygon, CenterEdge:
	default:
		return fmt.Errorf("%w: %q", ErrBadCenter, o.Center)
	}
	if o.Poly != 3 && o.Poly != 4 {
		return fmt.Errorf("%w: got %d", ErrBadPoly, o.Poly)
	}
	if o.Levels != 1 && o.Levels != 2 && o.Levels != 4 {
		return fmt.Errorf("%w: got %d", ErrBadLevels, o.Levels)
	}
	if o.Depth < 0 {
		return fmt.Errorf("%w: got %d", ErrBadDepth, o.Depth)
	}
	// {p,q} is hyperbolic iff 1/p + 1/q < 1/2.
	if o.Degree < 3 || float64(o.Poly)*float64(o.Degree) <= 2*float64(o.Poly+o.Degree) {
		return fmt.Errorf("%w: {%d,%d} is not hyperbolic", ErrBadDegree, o.Poly, o.Degree)
	}
	switch o.Method {
	case MethodJitter, MethodLimit, MethodCG, MethodBFGS, MethodLBFGS, MethodNelder:
	default:
		return fmt.Errorf("%w: %q", ErrBadMethod, o.Method)
	}
	return nil
}

// Derived holds the tiling quantities that are pure functions of the
// options: computed once by Derive, then read-only.
type Derived struct {
	// EdgeLength is the hyperbolic length ℓ of one tiling edge:
	// ℓ = 2·acosh(cos(π/p)/sin(π/q)), by the right-triangle relation
	// cos α = cosh(a)·sin β on the center–vertex–midpoint triangle.
	EdgeLength float64

	// Circumradius is the hyperbolic distance from a polygon
	// barycenter to its vertices: acosh(cot(π/p)·cot(π/q)).
	Circumradius float64
}

// Derive computes the tiling quantities for validated options.
func Derive(o Options) (Derived, error) {
	if err := o.Validate(); err != nil {
		return Derived{}, err
	}
	p, q := float64(o.Poly), float64(o.Degree)
	return Derived{
		EdgeLength:   2 * math.Acosh(math.Cos(math.Pi/p)/math.Sin(math.Pi/q)),
		Circumradius: math.Acosh(1 / (math.Tan(math.Pi/p) * math.Tan(math.Pi/q))),
	}, nil
}
