package dedup_test

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyptile/hyptile/dedup"
)

// TestRemoveDuplicates_FirstSeenWins checks that near-coincident
// points collapse onto the earliest representative.
func TestRemoveDuplicates_FirstSeenWins(t *testing.T) {
	pts := []complex128{
		0.5 + 0.5i,          // 0: representative
		0.5 + 0.5i + 1e-9,   // 1: duplicate of 0
		-0.2 + 0.1i,         // 2: representative
		0.5 + 0.5i + 1e-9i,  // 3: duplicate of 0
		-0.2 + 0.1i + 2e-8i, // 4: duplicate of 2
	}
	rep := dedup.RemoveDuplicates(pts, 1e-7)
	assert.Equal(t, []int{0, 0, 2, 0, 2}, rep)
}

// TestRemoveDuplicates_Idempotent re-runs the clustering on its own
// set of representatives and expects the identity mapping.
func TestRemoveDuplicates_Idempotent(t *testing.T) {
	pts := []complex128{0.1, 0.1 + 1e-9i, 0.4i, 0.4i + 1e-9, -0.3 - 0.3i}
	rep := dedup.RemoveDuplicates(pts, 1e-7)

	var reps []complex128
	for i, r := range rep {
		if r == i {
			reps = append(reps, pts[i])
		}
	}
	again := dedup.RemoveDuplicates(reps, 1e-7)
	for i, r := range again {
		assert.Equal(t, i, r, "representative %d moved on second pass", i)
	}
}

// TestRemoveDuplicates_NonFinite keeps non-finite points as their own
// (unreachable) representatives instead of crashing.
func TestRemoveDuplicates_NonFinite(t *testing.T) {
	pts := []complex128{0.2, cmplx.NaN(), complex(math.Inf(1), 0), 0.2}
	rep := dedup.RemoveDuplicates(pts, 1e-7)
	assert.Equal(t, []int{0, 1, 2, 0}, rep)
}

// TestIndex_Closest covers hit, miss and non-finite query behavior.
func TestIndex_Closest(t *testing.T) {
	pts := []complex128{0, 0.5, 0.5i, -0.25 - 0.25i}
	ix := dedup.NewIndex(pts, 1e-3)

	i, d, ok := ix.Closest(0.5 + 1e-4i)
	require.True(t, ok)
	assert.Equal(t, 1, i)
	assert.InDelta(t, 1e-4, d, 1e-12)

	_, _, ok = ix.Closest(0.3 + 0.3i)
	assert.False(t, ok, "query far from every point must miss")

	_, _, ok = ix.Closest(cmplx.Inf())
	assert.False(t, ok, "non-finite query must miss, not crash")
}

// TestIndex_ToleranceBoundary verifies points just outside tol miss.
func TestIndex_ToleranceBoundary(t *testing.T) {
	ix := dedup.NewIndex([]complex128{0}, 1e-6)

	_, _, ok := ix.Closest(complex(2e-6, 0))
	assert.False(t, ok)

	i, _, ok := ix.Closest(complex(0.9e-6, 0))
	require.True(t, ok)
	assert.Equal(t, 0, i)
}
