// Package flop lifts a 2-D hyperbolic lattice mesh into 3-D and
// relaxes it into a collision-free embedding that approximately
// preserves the hyperbolic edge lengths.
//
// The solver owns the embedding state exclusively while optimizing;
// checkpoint writes and diagnostics reads happen between iterations.
// Three interchangeable strategies are selected by configuration:
// stochastic hill climbing ("jitter"), strain-limiting projection
// ("limit"), and delegation to a gonum/optimize smooth minimizer
// (CG, BFGS, LBFGS, NelderMead).
//
// Errors:
//
//	ErrGradCheck       - analytic gradient disagrees with finite
//	                     differences; all gradient results are invalid.
//	ErrRestartMismatch - restart file connectivity differs from the
//	                     freshly generated mesh.
package flop

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/hyptile/hyptile/collide"
	"github.com/hyptile/hyptile/config"
	"github.com/hyptile/hyptile/hyper"
	"github.com/hyptile/hyptile/mesh"
)

var (
	// ErrGradCheck indicates the startup self-check found the analytic
	// gradient off by more than the tolerance. Fatal: an incorrect
	// gradient invalidates every gradient-based result.
	ErrGradCheck = errors.New("flop: analytic gradient failed finite-difference check")

	// ErrRestartMismatch indicates a restart checkpoint whose mesh
	// connectivity does not match the current mesh.
	ErrRestartMismatch = errors.New("flop: restart mesh connectivity mismatch")
)

const (
	// stiffness scales the collision energy against the spring energy.
	stiffness = 100.0

	// infeasibleEnergy is the sentinel returned for hard collisions.
	infeasibleEnergy = 1e50

	// diagonalRest is the extra rest length assigned to quad face
	// diagonals, an anti-fold constraint kept as given (see DESIGN.md).
	diagonalRest = 2.0

	// gradCheckTol bounds the relative error between the analytic and
	// finite-difference gradients.
	gradCheckTol = 1e-4

	// liftNoise scales the Gaussian perturbation applied after the
	// planar lift; without it the coplanar start is a saddle point.
	liftNoise = 0.02
)

// CheckpointFunc persists the state at an accepted-iteration count.
type CheckpointFunc func(iter int, m *mesh.Mesh, x []r3.Vec) error

// Diagnostics are the observable scalars of a finished run.
type Diagnostics struct {
	Energy          float64 // final energy value
	MinRatio        float64 // smallest edge length / rest ratio
	MaxRatio        float64 // largest edge length / rest ratio
	ClosestApproach float64 // smallest non-neighbor pair distance seen
	Collisions      int     // hard-collision pair count, 0 on success
}

// Solver relaxes one mesh. Construct with New, run with Solve.
type Solver struct {
	m        *mesh.Mesh
	springs  [][2]int  // mesh edges plus quad diagonals
	rest     []float64 // aligned with springs, mean edge rest is 1
	nedges   int       // springs[:nedges] are real mesh edges
	collider *collide.Collider
	opts     config.Options
	rng      *rand.Rand

	// X is the embedding state, exclusively owned during Solve.
	X []r3.Vec

	// Checkpoint, when non-nil and opts.Checkpoint > 0, is invoked
	// every opts.Checkpoint accepted iterations.
	Checkpoint CheckpointFunc

	startIter int
}

// New builds a solver for the mesh and its 2-D hyperbolic positions.
// Rest lengths are the hyperbolic edge lengths normalized to mean 1;
// quad meshes gain their two face diagonals as extra springs with rest
// length 2. The initial state is the planar lift of the 2-D points,
// scaled clear of the minimum separation and perturbed with seeded
// noise. If opts.Restart names a checkpoint it replaces the lifted
// state after a connectivity assertion.
func New(m *mesh.Mesh, pts []complex128, opts config.Options) (*Solver, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("flop: %w", err)
	}
	s := &Solver{
		m:        m,
		collider: collide.New(m, opts.Separation),
		opts:     opts,
		rng:      rand.New(rand.NewSource(opts.FlopSeed)),
	}

	edges := m.Edges()
	s.nedges = len(edges)
	mean := 0.0
	for _, e := range edges {
		d := hyper.Distance(pts[e[0]], pts[e[1]])
		s.springs = append(s.springs, e)
		s.rest = append(s.rest, d)
		mean += d
	}
	if s.nedges == 0 {
		return nil, fmt.Errorf("flop: mesh has no edges")
	}
	mean /= float64(s.nedges)
	for i := range s.rest {
		s.rest[i] /= mean
	}
	if m.Poly() == 4 {
		for _, f := range m.Faces {
			s.springs = append(s.springs, [2]int{f[0], f[2]}, [2]int{f[1], f[3]})
			s.rest = append(s.rest, diagonalRest, diagonalRest)
		}
	}

	s.lift(pts)

	if opts.Restart != "" {
		if err := s.loadRestart(opts.Restart); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// lift maps the disk points to z=0, rescales them so the mean edge
// matches the mean rest length and no non-neighbor pair starts inside
// the minimum separation, then adds seeded Gaussian noise.
func (s *Solver) lift(pts []complex128) {
	meanEuc := 0.0
	for _, e := range s.springs[:s.nedges] {
		d := pts[e[0]] - pts[e[1]]
		meanEuc += math.Hypot(real(d), imag(d))
	}
	meanEuc /= float64(s.nedges)
	scale := 1.0
	if meanEuc > 0 {
		scale = 1 / meanEuc
	}

	// Widen further if any colliding pair would start inside minSep.
	minPair := math.Inf(1)
	excluded := make(map[[2]int]bool)
	for _, f := range s.m.Faces {
		for i := 0; i < len(f); i++ {
			for j := i + 1; j < len(f); j++ {
				a, b := f[i], f[j]
				if b < a {
					a, b = b, a
				}
				excluded[[2]int{a, b}] = true
			}
		}
	}
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			if excluded[[2]int{i, j}] {
				continue
			}
			d := pts[i] - pts[j]
			if v := math.Hypot(real(d), imag(d)); v < minPair {
				minPair = v
			}
		}
	}
	if sep := 1.05 * s.opts.Separation / minPair; minPair > 0 && sep > scale {
		scale = sep
	}

	s.X = make([]r3.Vec, len(pts))
	for i, p := range pts {
		s.X[i] = r3.Vec{
			X: scale*real(p) + liftNoise*s.rng.NormFloat64(),
			Y: scale*imag(p) + liftNoise*s.rng.NormFloat64(),
			Z: liftNoise * s.rng.NormFloat64(),
		}
	}
}

// loadRestart replaces the lifted state with a checkpoint's positions
// after asserting identical connectivity, and re-derives the starting
// iteration count from the checkpoint name.
func (s *Solver) loadRestart(path string) error {
	m, pos, err := mesh.Read(path)
	if err != nil {
		return fmt.Errorf("flop: restart: %w", err)
	}
	if !s.m.SameConnectivity(m) || len(pos) != len(s.X) {
		return fmt.Errorf("%w: %s", ErrRestartMismatch, path)
	}
	s.X = pos
	if iter, ok := mesh.IterFromName(path); ok {
		s.startIter = iter
	}
	return nil
}

// Energy evaluates ½Σ(len−rest)² + stiffness·CollisionEnergy over a
// flat [3n] state. A hard collision short-circuits to the infeasible
// sentinel instead of the smooth formula.
func (s *Solver) Energy(x []float64) float64 {
	pos := unflatten(x)
	if s.collider.HasCollision(pos) {
		return infeasibleEnergy
	}
	e := 0.0
	for k, sp := range s.springs {
		d := r3.Norm(r3.Sub(pos[sp[0]], pos[sp[1]])) - s.rest[k]
		e += 0.5 * d * d
	}
	return e + stiffness*s.collider.Energy(pos)
}

// Gradient writes ∂Energy/∂x into grad: the closed-form spring
// gradient plus the collider's contribution scaled by the stiffness.
func (s *Solver) Gradient(grad, x []float64) {
	pos := unflatten(x)
	gpos := make([]r3.Vec, len(pos))
	for k, sp := range s.springs {
		i, j := sp[0], sp[1]
		diff := r3.Sub(pos[i], pos[j])
		l := r3.Norm(diff)
		if l == 0 {
			continue
		}
		g := r3.Scale((l-s.rest[k])/l, diff)
		gpos[i] = r3.Add(gpos[i], g)
		gpos[j] = r3.Sub(gpos[j], g)
	}
	cgrad := make([]r3.Vec, len(pos))
	s.collider.Gradient(pos, cgrad)
	for i := range gpos {
		gpos[i] = r3.Add(gpos[i], r3.Scale(stiffness, cgrad[i]))
	}
	copy(grad, flatten(gpos))
}

// GradCheck compares the analytic gradient against a symmetric
// finite-difference estimate at the current state and returns
// ErrGradCheck when the relative error exceeds 1e-4.
func (s *Solver) GradCheck() error {
	x := flatten(s.X)
	ga := make([]float64, len(x))
	s.Gradient(ga, x)

	const h = 1e-6
	gfd := make([]float64, len(x))
	for i := range x {
		orig := x[i]
		x[i] = orig + h
		fp := s.Energy(x)
		x[i] = orig - h
		fm := s.Energy(x)
		x[i] = orig
		gfd[i] = (fp - fm) / (2 * h)
	}

	diff := mat.NewVecDense(len(x), nil)
	diff.SubVec(mat.NewVecDense(len(x), gfd), mat.NewVecDense(len(x), ga))
	denom := mat.Norm(mat.NewVecDense(len(x), ga), 2)
	if denom < 1 {
		denom = 1
	}
	if rel := mat.Norm(diff, 2) / denom; rel > gradCheckTol {
		return fmt.Errorf("%w: relative error %.3g", ErrGradCheck, rel)
	}
	return nil
}

// Positions returns the current embedding state. Read-only for
// callers; the slice is owned by the solver during Solve.
func (s *Solver) Positions() []r3.Vec { return s.X }

// Mesh returns the solved mesh connectivity.
func (s *Solver) Mesh() *mesh.Mesh { return s.m }

// Diagnose reports the observable scalars for the current state.
func (s *Solver) Diagnose() Diagnostics {
	d := Diagnostics{
		Energy:          s.Energy(flatten(s.X)),
		MinRatio:        math.Inf(1),
		MaxRatio:        math.Inf(-1),
		ClosestApproach: s.collider.ClosestApproach(s.X),
		Collisions:      s.collider.Count(s.X),
	}
	for k, sp := range s.springs[:s.nedges] {
		r := r3.Norm(r3.Sub(s.X[sp[0]], s.X[sp[1]])) / s.rest[k]
		if r < d.MinRatio {
			d.MinRatio = r
		}
		if r > d.MaxRatio {
			d.MaxRatio = r
		}
	}
	return d
}

// metric is the worst-case scalar driving the jitter and limit
// strategies: max of the worst relative spring deviation and the
// minimum-separation deficit, +Inf on a hard collision. Lower is
// better.
func (s *Solver) metric(x []r3.Vec) float64 {
	if s.collider.HasCollision(x) {
		return math.Inf(1)
	}
	worst := 0.0
	for k, sp := range s.springs {
		dev := math.Abs(r3.Norm(r3.Sub(x[sp[0]], x[sp[1]]))/s.rest[k] - 1)
		if dev > worst {
			worst = dev
		}
	}
	if deficit := s.opts.Separation - s.collider.ClosestApproach(x); deficit > worst {
		worst = deficit
	}
	return worst
}

// checkpoint invokes the callback when due at the given accepted count.
func (s *Solver) checkpoint(accepted int) error {
	if s.Checkpoint == nil || s.opts.Checkpoint <= 0 {
		return nil
	}
	if accepted%s.opts.Checkpoint != 0 {
		return nil
	}
	return s.Checkpoint(s.startIter+accepted, s.m, s.X)
}

func flatten(v []r3.Vec) []float64 {
	out := make([]float64, 3*len(v))
	for i, p := range v {
		out[3*i], out[3*i+1], out[3*i+2] = p.X, p.Y, p.Z
	}
	return out
}

func unflatten(x []float64) []r3.Vec {
	out := make([]r3.Vec, len(x)/3)
	for i := range out {
		out[i] = r3.Vec{X: x[3*i], Y: x[3*i+1], Z: x[3*i+2]}
	}
	return out
}
