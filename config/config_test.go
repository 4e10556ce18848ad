package config_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyptile/hyptile/config"
)

// TestDefaultOptions_Valid ensures the shipped defaults validate.
func TestDefaultOptions_Valid(t *testing.T) {
	assert.NoError(t, config.DefaultOptions().Validate())
}

// TestValidate_Rejections walks every fatal configuration class.
func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Options)
		want   error
	}{
		{"mode", func(o *config.Options) { o.Mode = "spin" }, config.ErrBadMode},
		{"center", func(o *config.Options) { o.Center = "corner" }, config.ErrBadCenter},
		{"poly", func(o *config.Options) { o.Poly = 5 }, config.ErrBadPoly},
		{"levels", func(o *config.Options) { o.Levels = 3 }, config.ErrBadLevels},
		{"depth", func(o *config.Options) { o.Depth = -1 }, config.ErrBadDepth},
		{"degree-low", func(o *config.Options) { o.Degree = 2 }, config.ErrBadDegree},
		{"degree-euclidean", func(o *config.Options) { o.Poly = 3; o.Degree = 6 }, config.ErrBadDegree},
		{"method", func(o *config.Options) { o.Method = "anneal" }, config.ErrBadMethod},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := config.DefaultOptions()
			tc.mutate(&opts)
			assert.ErrorIs(t, opts.Validate(), tc.want)
		})
	}
}

// TestDerive_Heptagonal checks ℓ and R for the {3,7} tiling against
// the law-of-cosines closed forms.
func TestDerive_Heptagonal(t *testing.T) {
	opts := config.DefaultOptions()
	d, err := config.Derive(opts)
	require.NoError(t, err)

	wantEdge := 2 * math.Acosh(math.Cos(math.Pi/3)/math.Sin(math.Pi/7))
	wantR := math.Acosh(1 / (math.Tan(math.Pi/3) * math.Tan(math.Pi/7)))
	assert.InDelta(t, wantEdge, d.EdgeLength, 1e-12)
	assert.InDelta(t, wantR, d.Circumradius, 1e-12)

	// Circumradius exceeds half an edge but not a full edge for {3,7}.
	assert.Greater(t, d.Circumradius, d.EdgeLength/2)
	assert.Less(t, d.Circumradius, d.EdgeLength)
}

// TestLoad_Overlay reads a partial JSON file over the defaults.
func TestLoad_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opts.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"depth":3,"poly":4,"degree":5}`), 0o644))

	opts, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, opts.Depth)
	assert.Equal(t, 4, opts.Poly)
	assert.Equal(t, 5, opts.Degree)
	// Untouched fields keep their defaults.
	assert.Equal(t, config.MethodCG, opts.Method)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
