// Command hyptile generates hyperbolic tilings and flops them into 3-D.
//
//	hyptile -mode disk -depth 3            # render the 2-D lattice
//	hyptile -mode flop -method CG          # run the embedding solver
//	hyptile -mode test                     # numeric self-checks
//
// All options default to the documented configuration; -config loads a
// JSON options file first, and explicit flags override it.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/hyptile/hyptile/config"
	"github.com/hyptile/hyptile/flop"
	"github.com/hyptile/hyptile/lattice"
	"github.com/hyptile/hyptile/mesh"
	"github.com/hyptile/hyptile/render"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "hyptile: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		cfgPath = flag.String("config", "", "JSON options file to load before flag overrides")
		outDir  = flag.String("out", ".", "output directory for images and checkpoints")
		maxIter = flag.Int("maxiter", 5000, "iteration cap for the solver strategies")
	)
	opts := config.DefaultOptions()
	flag.StringVar(&opts.Mode, "mode", opts.Mode, "disk | flop | test")
	flag.IntVar(&opts.Depth, "depth", opts.Depth, "lattice expansion depth")
	flag.StringVar(&opts.Center, "center", opts.Center, "vertex | polygon | edge")
	flag.IntVar(&opts.Resolution, "resolution", opts.Resolution, "samples per rendered geodesic")
	flag.Float64Var(&opts.Tolerance, "tolerance", opts.Tolerance, "solver convergence tolerance")
	flag.Float64Var(&opts.Separation, "separation", opts.Separation, "minimum 3-D separation")
	flag.IntVar(&opts.Levels, "levels", opts.Levels, "subdivision level: 1 | 2 | 4")
	flag.IntVar(&opts.Degree, "degree", opts.Degree, "vertex valence of the tiling")
	flag.IntVar(&opts.Poly, "poly", opts.Poly, "polygon degree: 3 | 4")
	flag.StringVar(&opts.Method, "method", opts.Method, "jitter | limit | CG | BFGS | LBFGS | NelderMead")
	flag.IntVar(&opts.Checkpoint, "checkpoint", opts.Checkpoint, "accepted iterations between checkpoints, 0 disables")
	flag.StringVar(&opts.Restart, "restart", opts.Restart, "checkpoint file to resume from")
	flag.Int64Var(&opts.FlopSeed, "flopseed", opts.FlopSeed, "random seed for the solver")
	flag.Parse()

	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			return err
		}
		// File values apply wherever no explicit flag was given.
		mergeUnset(&opts, loaded)
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	switch opts.Mode {
	case config.ModeDisk:
		return runDisk(opts, *outDir)
	case config.ModeFlop:
		return runFlop(opts, *outDir, *maxIter)
	case config.ModeTest:
		return runTest(opts)
	}
	return config.ErrBadMode
}

// mergeUnset copies file-loaded values into opts for flags the user
// did not set on the command line.
func mergeUnset(opts *config.Options, file config.Options) {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if !set["mode"] {
		opts.Mode = file.Mode
	}
	if !set["depth"] {
		opts.Depth = file.Depth
	}
	if !set["center"] {
		opts.Center = file.Center
	}
	if !set["resolution"] {
		opts.Resolution = file.Resolution
	}
	if !set["tolerance"] {
		opts.Tolerance = file.Tolerance
	}
	if !set["separation"] {
		opts.Separation = file.Separation
	}
	if !set["levels"] {
		opts.Levels = file.Levels
	}
	if !set["degree"] {
		opts.Degree = file.Degree
	}
	if !set["poly"] {
		opts.Poly = file.Poly
	}
	if !set["method"] {
		opts.Method = file.Method
	}
	if !set["checkpoint"] {
		opts.Checkpoint = file.Checkpoint
	}
	if !set["restart"] {
		opts.Restart = file.Restart
	}
	if !set["flopseed"] {
		opts.FlopSeed = file.FlopSeed
	}
}

func runDisk(opts config.Options, outDir string) error {
	lat, err := lattice.Generate(opts)
	if err != nil {
		return err
	}
	path := filepath.Join(outDir, "disk.png")
	if err := render.Disk(path, lat.Points, lat.Edges, opts.Resolution); err != nil {
		return err
	}
	fmt.Printf("disk: %d vertices, %d edges, %d faces -> %s\n",
		len(lat.Points), len(lat.Edges), len(lat.Faces), path)
	return nil
}

func runFlop(opts config.Options, outDir string, maxIter int) error {
	lat, err := lattice.Generate(opts)
	if err != nil {
		return err
	}
	m, pts, err := mesh.Subdivide(mesh.New(lat.Faces), lat.Points, opts.Levels)
	if err != nil {
		return err
	}
	solver, err := flop.New(m, pts, opts)
	if err != nil {
		return err
	}
	solver.Checkpoint = func(iter int, m *mesh.Mesh, x []r3.Vec) error {
		return mesh.Write(filepath.Join(outDir, mesh.CheckpointName(iter)), m, x)
	}

	diag, err := solver.Solve(maxIter)
	if err != nil {
		return err
	}
	final := filepath.Join(outDir, "flop-final.json")
	if err := mesh.Write(final, m, solver.Positions()); err != nil {
		return err
	}
	if err := render.Embedding(filepath.Join(outDir, "flop.png"), m.Edges(), solver.Positions()); err != nil {
		return err
	}
	fmt.Printf("flop: energy=%.6g ratio=[%.4f,%.4f] closest=%.4f collisions=%d -> %s\n",
		diag.Energy, diag.MinRatio, diag.MaxRatio, diag.ClosestApproach, diag.Collisions, final)
	return nil
}

func runTest(opts config.Options) error {
	lat, err := lattice.Generate(opts)
	if err != nil {
		return err
	}
	m, pts, err := mesh.Subdivide(mesh.New(lat.Faces), lat.Points, opts.Levels)
	if err != nil {
		return err
	}
	solver, err := flop.New(m, pts, opts)
	if err != nil {
		return err
	}
	if err := solver.GradCheck(); err != nil {
		return err
	}
	fmt.Printf("test: gradient check passed on %d vertices, %d faces\n",
		len(pts), len(m.Faces))
	return nil
}
