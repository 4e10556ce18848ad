package mobius_test

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyptile/hyptile/mobius"
)

const tol = 1e-9

// TestIdentity_FixesPoints verifies that the identity maps sample
// points to themselves.
func TestIdentity_FixesPoints(t *testing.T) {
	id := mobius.Identity()
	for _, z := range []complex128{0, 0.3 + 0.4i, -0.9i, 0.99} {
		assert.InDelta(t, 0, cmplx.Abs(mobius.Apply(id, z)-z), tol)
	}
}

// TestFromAngle_DoublingLaw checks fromAngle(θ)∘fromAngle(θ) ≈ fromAngle(2θ)
// over a sweep of angles.
func TestFromAngle_DoublingLaw(t *testing.T) {
	for _, theta := range []float64{0, 0.1, math.Pi / 7, 1.0, math.Pi, 5.5} {
		twice := mobius.Compose(mobius.FromAngle(theta), mobius.FromAngle(theta))
		assert.True(t, mobius.CloseTo(twice, mobius.FromAngle(2*theta), 1e-9),
			"doubling law failed for θ=%v", theta)
	}
}

// TestTranslation_OriginImage verifies that Translation(u) moves the
// origin to a point at Euclidean radius tanh(|u|/2) in direction u.
func TestTranslation_OriginImage(t *testing.T) {
	for _, u := range []complex128{0.5, 1.2i, -0.7 + 0.3i, 3} {
		p := mobius.Apply(mobius.Translation(u), 0)
		wantR := math.Tanh(cmplx.Abs(u) / 2)
		assert.InDelta(t, wantR, cmplx.Abs(p), tol)
		// Direction of the image matches the direction of u.
		dir := u / complex(cmplx.Abs(u), 0)
		assert.InDelta(t, 0, cmplx.Abs(p/complex(cmplx.Abs(p), 0)-dir), tol)
	}
}

// TestTranslation_InverseComposition checks translation(u)∘translation(−u) ≈ id.
func TestTranslation_InverseComposition(t *testing.T) {
	for _, u := range []complex128{0.4, 0.9i, -1.1 + 0.2i} {
		round := mobius.Compose(mobius.Translation(u), mobius.Translation(-u))
		assert.True(t, mobius.CloseTo(round, mobius.Identity(), 1e-9))
	}
}

// TestInverse_RoundTrip checks f∘f⁻¹ ≈ id and f⁻¹∘f ≈ id within 1e-6.
func TestInverse_RoundTrip(t *testing.T) {
	samples := []mobius.Transform{
		mobius.FromAngle(0.8),
		mobius.Translation(0.6 - 0.2i),
		mobius.Compose(mobius.FromAngle(2.1), mobius.Translation(1.5i)),
	}
	for _, f := range samples {
		inv, err := mobius.Inverse(f)
		require.NoError(t, err)
		assert.True(t, mobius.CloseTo(mobius.Compose(f, inv), mobius.Identity(), 1e-6))
		assert.True(t, mobius.CloseTo(mobius.Compose(inv, f), mobius.Identity(), 1e-6))
	}
}

// TestInverse_Singular ensures a zero-determinant transform reports
// ErrSingular instead of producing garbage.
func TestInverse_Singular(t *testing.T) {
	_, err := mobius.Inverse(mobius.Transform{A: 1, B: 1, C: 1, D: 1})
	assert.ErrorIs(t, err, mobius.ErrSingular)

	_, err = mobius.Normalize(mobius.Transform{})
	assert.ErrorIs(t, err, mobius.ErrSingular)
}

// TestPow covers the zero, positive and negative exponent branches.
func TestPow(t *testing.T) {
	r := mobius.FromAngle(math.Pi / 5)

	p0, err := mobius.Pow(r, 0)
	require.NoError(t, err)
	assert.True(t, mobius.CloseTo(p0, mobius.Identity(), tol))

	p5, err := mobius.Pow(r, 5)
	require.NoError(t, err)
	assert.True(t, mobius.CloseTo(p5, mobius.FromAngle(math.Pi), 1e-9))

	_, err = mobius.Pow(r, -1)
	assert.ErrorIs(t, err, mobius.ErrNegativePower)
}

// TestComposeBatch_Broadcast checks n×n, 1×n and n×1 shapes.
func TestComposeBatch_Broadcast(t *testing.T) {
	rots := mobius.FromAngles([]float64{0.1, 0.2, 0.3})
	single := mobius.Batch{mobius.FromAngle(1.0)}

	nn := mobius.ComposeBatch(rots, rots)
	require.Len(t, nn, 3)
	assert.True(t, mobius.CloseTo(nn[2], mobius.FromAngle(0.6), 1e-9))

	ln := mobius.ComposeBatch(single, rots)
	require.Len(t, ln, 3)
	assert.True(t, mobius.CloseTo(ln[0], mobius.FromAngle(1.1), 1e-9))

	nl := mobius.ComposeBatch(rots, single)
	require.Len(t, nl, 3)
	assert.True(t, mobius.CloseTo(nl[1], mobius.FromAngle(1.2), 1e-9))

	assert.Panics(t, func() {
		mobius.ComposeBatch(rots, mobius.Batch{rots[0], rots[1]})
	})
}

// TestCompose_DeterminantClosure verifies the group closure invariant
// Det(f∘g) = Det(f)·Det(g) up to rounding.
func TestCompose_DeterminantClosure(t *testing.T) {
	f := mobius.Translation(0.8 + 0.1i)
	g := mobius.FromAngle(2.4)
	got := mobius.Det(mobius.Compose(f, g))
	want := mobius.Det(f) * mobius.Det(g)
	assert.InDelta(t, 0, cmplx.Abs(got-want), 1e-12)
}
