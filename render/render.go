// Package render is the plotting sink of the pipeline: it consumes
// lattice points with geodesic edge paths (disk mode) or the embedded
// 3-D mesh (flop mode) and writes PNG images via gonum/plot. Nothing
// here feeds back into the core.
package render

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/hyptile/hyptile/hyper"
)

// Disk draws the unit-circle boundary and every edge as a geodesic
// polyline sampled at resolution points, then saves a PNG at path.
func Disk(path string, points []complex128, edges [][2]int, resolution int) error {
	if resolution < 2 {
		resolution = 2
	}
	p := plot.New()
	p.HideAxes()
	p.X.Min, p.X.Max = -1.05, 1.05
	p.Y.Min, p.Y.Max = -1.05, 1.05

	boundary := make(plotter.XYs, 129)
	for i := range boundary {
		a := 2 * math.Pi * float64(i) / float64(len(boundary)-1)
		boundary[i].X, boundary[i].Y = math.Cos(a), math.Sin(a)
	}
	circle, err := plotter.NewLine(boundary)
	if err != nil {
		return fmt.Errorf("render: boundary: %w", err)
	}
	p.Add(circle)

	for _, e := range edges {
		xy := make(plotter.XYs, resolution)
		for i := range xy {
			t := float64(i) / float64(resolution-1)
			z := hyper.Interpolate(points[e[0]], points[e[1]], t)
			xy[i].X, xy[i].Y = real(z), imag(z)
		}
		line, err := plotter.NewLine(xy)
		if err != nil {
			return fmt.Errorf("render: edge %v: %w", e, err)
		}
		p.Add(line)
	}
	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("render: save %s: %w", path, err)
	}
	return nil
}

// Embedding draws an orthographic wireframe of the embedded mesh,
// slightly rotated so depth is visible, and saves a PNG at path.
func Embedding(path string, edges [][2]int, pos []r3.Vec) error {
	p := plot.New()
	p.HideAxes()

	// Fixed oblique view: rotate about Y then X before dropping Z.
	const ay, ax = 0.5, 0.35
	project := func(v r3.Vec) (float64, float64) {
		x := v.X*math.Cos(ay) + v.Z*math.Sin(ay)
		z := -v.X*math.Sin(ay) + v.Z*math.Cos(ay)
		y := v.Y*math.Cos(ax) - z*math.Sin(ax)
		return x, y
	}

	for _, e := range edges {
		x0, y0 := project(pos[e[0]])
		x1, y1 := project(pos[e[1]])
		line, err := plotter.NewLine(plotter.XYs{{X: x0, Y: y0}, {X: x1, Y: y1}})
		if err != nil {
			return fmt.Errorf("render: edge %v: %w", e, err)
		}
		p.Add(line)
	}
	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("render: save %s: %w", path, err)
	}
	return nil
}
