package flop_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/hyptile/hyptile/config"
	"github.com/hyptile/hyptile/flop"
	"github.com/hyptile/hyptile/lattice"
	"github.com/hyptile/hyptile/mesh"
)

// buildSolver generates the {3,7} depth-2 vertex-centered mesh and a
// solver over it.
func buildSolver(t *testing.T, mutate func(*config.Options)) (*flop.Solver, *mesh.Mesh, []complex128) {
	t.Helper()
	opts := config.DefaultOptions()
	opts.Depth = 2
	if mutate != nil {
		mutate(&opts)
	}
	lat, err := lattice.Generate(opts)
	require.NoError(t, err)
	m, pts, err := mesh.Subdivide(mesh.New(lat.Faces), lat.Points, opts.Levels)
	require.NoError(t, err)
	s, err := flop.New(m, pts, opts)
	require.NoError(t, err)
	return s, m, pts
}

// TestGradCheck is the required regression test: the analytic gradient
// must agree with symmetric finite differences to 1e-4 relative error
// on a valid mesh configuration.
func TestGradCheck(t *testing.T) {
	s, _, _ := buildSolver(t, nil)
	assert.NoError(t, s.GradCheck())
}

// TestGradCheck_Quads repeats the check on a quad mesh, which adds the
// diagonal springs.
func TestGradCheck_Quads(t *testing.T) {
	s, _, _ := buildSolver(t, func(o *config.Options) {
		o.Poly = 4
		o.Degree = 5
	})
	assert.NoError(t, s.GradCheck())
}

// TestLift_Deterministic: two solvers with the same seed start from
// identical states; a different seed diverges.
func TestLift_Deterministic(t *testing.T) {
	a, _, _ := buildSolver(t, nil)
	b, _, _ := buildSolver(t, nil)
	c, _, _ := buildSolver(t, func(o *config.Options) { o.FlopSeed = 99 })

	require.Equal(t, len(a.Positions()), len(b.Positions()))
	assert.Equal(t, a.Positions(), b.Positions())
	assert.NotEqual(t, a.Positions(), c.Positions())
}

// TestLift_NotCoplanar: the seeded noise must break the z=0 plane.
func TestLift_NotCoplanar(t *testing.T) {
	s, _, _ := buildSolver(t, nil)
	flatZ := true
	for _, p := range s.Positions() {
		if p.Z != 0 {
			flatZ = false
			break
		}
	}
	assert.False(t, flatZ, "coplanar start is a saddle point")
}

// TestSolve_EndToEndCG is the documented end-to-end scenario:
// {3,7} depth-2 vertex-centered, levels=1, separation=0.8, CG, seed
// 8231110 — must finish with zero hard collisions and a length-ratio
// spread under 0.5.
func TestSolve_EndToEndCG(t *testing.T) {
	s, _, _ := buildSolver(t, nil) // defaults are exactly this scenario

	diag, err := s.Solve(2000)
	require.NoError(t, err)

	assert.Equal(t, 0, diag.Collisions, "embedding must be collision-free")
	assert.Less(t, diag.MaxRatio-diag.MinRatio, 0.5, "length-ratio spread")
	assert.Greater(t, diag.MinRatio, 0.0)
}

// TestSolve_JitterDeterministic: bounded hill climbing never accepts a
// hard collision (the metric is infinite there) and reproduces exactly
// under a fixed seed.
func TestSolve_JitterDeterministic(t *testing.T) {
	run := func() flop.Diagnostics {
		s, _, _ := buildSolver(t, func(o *config.Options) {
			o.Method = config.MethodJitter
		})
		diag, err := s.Solve(300)
		require.NoError(t, err)
		assert.Equal(t, 0, diag.Collisions)
		return diag
	}
	d1 := run()
	d2 := run()
	assert.Equal(t, d1, d2, "jitter must be reproducible under a fixed seed")
}

// TestSolve_LimitTerminates: the strain-limiting strategy stops at its
// alpha floor or iteration cap without error.
func TestSolve_LimitTerminates(t *testing.T) {
	s, _, _ := buildSolver(t, func(o *config.Options) {
		o.Method = config.MethodLimit
	})
	diag, err := s.Solve(200)
	require.NoError(t, err)
	assert.Greater(t, diag.MinRatio, 0.0)
}

// TestCheckpoint_CadenceAndRestart: checkpoints fire on the configured
// cadence, and restarting from one resumes with its positions and
// iteration count; a connectivity mismatch is fatal.
func TestCheckpoint_CadenceAndRestart(t *testing.T) {
	dir := t.TempDir()
	var wrote []string

	s, _, _ := buildSolver(t, func(o *config.Options) {
		o.Method = config.MethodLimit
		o.Checkpoint = 1
	})
	s.Checkpoint = func(iter int, m *mesh.Mesh, x []r3.Vec) error {
		path := filepath.Join(dir, mesh.CheckpointName(iter))
		wrote = append(wrote, path)
		return mesh.Write(path, m, x)
	}
	_, err := s.Solve(50)
	require.NoError(t, err)
	require.NotEmpty(t, wrote, "projection run must accept and checkpoint")

	// Resume from the last checkpoint.
	last := wrote[len(wrote)-1]
	s2, _, _ := buildSolver(t, func(o *config.Options) {
		o.Method = config.MethodLimit
		o.Restart = last
	})
	iter, ok := mesh.IterFromName(last)
	require.True(t, ok)
	assert.Greater(t, iter, 0)

	m2, pos, err := mesh.Read(last)
	require.NoError(t, err)
	assert.True(t, s2.Mesh().SameConnectivity(m2))
	assert.Equal(t, pos, s2.Positions(), "restart replaces the lifted state")

	// Mismatched connectivity must refuse to resume.
	bad := filepath.Join(dir, mesh.CheckpointName(7))
	require.NoError(t, mesh.Write(bad, mesh.New([][]int{{0, 1, 2}}), pos[:3]))
	opts := config.DefaultOptions()
	opts.Depth = 2
	opts.Restart = bad
	lat, err := lattice.Generate(opts)
	require.NoError(t, err)
	_, err = flop.New(mesh.New(lat.Faces), lat.Points, opts)
	assert.ErrorIs(t, err, flop.ErrRestartMismatch)
}

// TestNew_BadConfig: configuration errors surface before any work.
func TestNew_BadConfig(t *testing.T) {
	opts := config.DefaultOptions()
	opts.Depth = 2
	lat, err := lattice.Generate(opts)
	require.NoError(t, err)

	opts.Method = "simplex"
	_, err = flop.New(mesh.New(lat.Faces), lat.Points, opts)
	assert.ErrorIs(t, err, config.ErrBadMethod)
}
