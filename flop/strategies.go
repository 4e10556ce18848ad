package flop

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/hyptile/hyptile/config"
)

// Solve runs the configured strategy for at most maxIter iterations
// after verifying the analytic gradient, and reports the final
// diagnostics. The iteration cap is a first-class parameter: the
// jitter and limit loops have no intrinsic termination besides it and
// the convergence tolerance.
func (s *Solver) Solve(maxIter int) (Diagnostics, error) {
	if err := s.GradCheck(); err != nil {
		return Diagnostics{}, err
	}
	var err error
	switch s.opts.Method {
	case config.MethodJitter:
		err = s.jitter(maxIter)
	case config.MethodLimit:
		err = s.limit(maxIter)
	default:
		err = s.minimize(maxIter)
	}
	if err != nil {
		return Diagnostics{}, err
	}
	return s.Diagnose(), nil
}

// jitter is stochastic hill climbing on the worst-case metric:
// Gaussian perturbations with an adaptive step size, grown
// geometrically on acceptance and shrunk on rejection.
func (s *Solver) jitter(maxIter int) error {
	const (
		grow   = 1.5
		shrink = 0.7
		floor  = 1e-12
	)
	sigma := 0.1
	best := s.metric(s.X)
	accepted := 0
	for iter := 0; iter < maxIter && best > s.opts.Tolerance; iter++ {
		trial := s.perturb(sigma)
		m := s.metric(trial)
		if m < best {
			s.X, best = trial, m
			sigma *= grow
			accepted++
			if err := s.checkpoint(accepted); err != nil {
				return fmt.Errorf("flop: checkpoint: %w", err)
			}
			continue
		}
		if sigma *= shrink; sigma < floor {
			sigma = floor
		}
	}
	return nil
}

// perturb returns a Gaussian perturbation of the current state.
func (s *Solver) perturb(sigma float64) []r3.Vec {
	out := make([]r3.Vec, len(s.X))
	for i, p := range s.X {
		out[i] = r3.Vec{
			X: p.X + sigma*s.rng.NormFloat64(),
			Y: p.Y + sigma*s.rng.NormFloat64(),
			Z: p.Z + sigma*s.rng.NormFloat64(),
		}
	}
	return out
}

// limit repeatedly applies the strain-limiting projection with a
// geometrically shrinking tolerance alpha, accepting projections that
// do not worsen the worst-case metric, until alpha underflows its
// floor or the metric converges.
func (s *Solver) limit(maxIter int) error {
	const (
		alphaFloor   = 1e-10
		alphaShrink  = 0.5
		alphaInitial = 0.5
	)
	alpha := alphaInitial
	best := s.metric(s.X)
	accepted := 0
	for iter := 0; iter < maxIter && alpha >= alphaFloor && best > s.opts.Tolerance; iter++ {
		trial := s.collider.Project(s.springs, s.rest, s.X, alpha)
		m := s.metric(trial)
		if m <= best && !math.IsInf(m, 1) {
			s.X, best = trial, m
			accepted++
			if err := s.checkpoint(accepted); err != nil {
				return fmt.Errorf("flop: checkpoint: %w", err)
			}
			continue
		}
		alpha *= alphaShrink
	}
	return nil
}

// minimize delegates to a gonum/optimize method, with checkpoints
// recorded on every major iteration. Hitting the iteration cap is a
// bounded run, not a failure; only a run that produced no result at
// all is reported as an error.
func (s *Solver) minimize(maxIter int) error {
	problem := optimize.Problem{
		Func: s.Energy,
		Grad: s.Gradient,
	}
	settings := &optimize.Settings{
		MajorIterations:   maxIter,
		GradientThreshold: s.opts.Tolerance,
	}
	if s.Checkpoint != nil && s.opts.Checkpoint > 0 {
		settings.Recorder = &checkpointRecorder{s: s}
	}

	var method optimize.Method
	switch s.opts.Method {
	case config.MethodCG:
		method = &optimize.CG{}
	case config.MethodBFGS:
		method = &optimize.BFGS{}
	case config.MethodLBFGS:
		method = &optimize.LBFGS{}
	case config.MethodNelder:
		method = &optimize.NelderMead{}
	default:
		return fmt.Errorf("flop: %w: %q", config.ErrBadMethod, s.opts.Method)
	}

	result, err := optimize.Minimize(problem, flatten(s.X), settings, method)
	if result == nil {
		return fmt.Errorf("flop: minimize: %w", err)
	}
	s.X = unflatten(result.X)
	return nil
}

// checkpointRecorder adapts the solver checkpoint cadence to the
// optimize.Recorder interface.
type checkpointRecorder struct {
	s     *Solver
	major int
}

func (r *checkpointRecorder) Init() error { return nil }

func (r *checkpointRecorder) Record(loc *optimize.Location, op optimize.Operation, _ *optimize.Stats) error {
	if op != optimize.MajorIteration {
		return nil
	}
	r.major++
	r.s.X = unflatten(loc.X)
	return r.s.checkpoint(r.major)
}
