package stats

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanVariance(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 5.0, Mean(xs), 1e-9)
	assert.InDelta(t, 4.571428571, Variance(xs), 1e-6)
	assert.InDelta(t, 2.138089935, StdDev(xs), 1e-6)
}

func TestQuantile(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 3.0, Median(xs), 1e-9)
	assert.InDelta(t, 2.0, Quantile(xs, 0.25), 1e-9)
	assert.InDelta(t, 4.0, Quantile(xs, 0.75), 1e-9)
	assert.InDelta(t, 1.0, Quantile(xs, 0), 1e-9)
	assert.InDelta(t, 5.0, Quantile(xs, 1), 1e-9)
}

func TestIQRBounds(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	lo, hi := IQRBounds(xs, 1.5)
	assert.InDelta(t, -1.0, lo, 1e-9)
	assert.InDelta(t, 7.0, hi, 1e-9)
}

func TestZScores(t *testing.T) {
	scores := ZScores([]float64{10, 10, 10})
	assert.Equal(t, []float64{0, 0, 0}, scores, "constant sample")

	scores = ZScores([]float64{1, 2, 3})
	assert.InDelta(t, -1.0, scores[0], 1e-9)
	assert.InDelta(t, 0.0, scores[1], 1e-9)
	assert.InDelta(t, 1.0, scores[2], 1e-9)
}

func TestNormalQuantileRoundTrip(t *testing.T) {
	for _, p := range []float64{0.01, 0.1, 0.25, 0.5, 0.75, 0.9, 0.99} {
		z := NormalQuantile(p)
		assert.InDelta(t, p, NormalCDF(z), 1e-6, "p=%v", p)
	}
}

func TestShapiroWilk(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	normal := make([]float64, 200)
	for i := range normal {
		normal[i] = rng.NormFloat64()
	}
	_, p := ShapiroWilk(normal)
	assert.Greater(t, p, 0.05, "normal sample should not be rejected")

	skewed := make([]float64, 200)
	for i := range skewed {
		skewed[i] = math.Exp(rng.NormFloat64() * 2)
	}
	_, p = ShapiroWilk(skewed)
	assert.Less(t, p, 0.01, "lognormal sample should be rejected")
}

func TestKSNormal(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	sample := make([]float64, 500)
	for i := range sample {
		sample[i] = rng.NormFloat64()*2 + 10
	}
	_, p := KSNormal(sample)
	assert.Greater(t, p, 0.05)
}

func TestKSUniform(t *testing.T) {
	uniform := make([]float64, 100)
	for i := range uniform {
		uniform[i] = float64(i)
	}
	_, p := KSUniform(uniform)
	assert.Greater(t, p, 0.05, "evenly spaced values look uniform")
}

func TestPearson(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	ys := []float64{2, 4, 6, 8, 10}
	assert.InDelta(t, 1.0, Pearson(xs, ys), 1e-9)

	neg := []float64{10, 8, 6, 4, 2}
	assert.InDelta(t, -1.0, Pearson(xs, neg), 1e-9)

	constant := []float64{3, 3, 3, 3, 3}
	assert.Equal(t, 0.0, Pearson(xs, constant))
}

func TestSpearman(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	ys := []float64{1, 4, 9, 16, 25} // monotone but nonlinear
	assert.InDelta(t, 1.0, Spearman(xs, ys), 1e-9)
}

func TestKendallTau(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	ys := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 1.0, KendallTau(xs, ys), 1e-9)

	rev := []float64{5, 4, 3, 2, 1}
	assert.InDelta(t, -1.0, KendallTau(xs, rev), 1e-9)
}

func TestRanks(t *testing.T) {
	ranks := Ranks([]float64{10, 20, 20, 30})
	assert.Equal(t, []float64{1, 2.5, 2.5, 4}, ranks)
}

func TestVIF(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := 100
	a := make([]float64, n)
	b := make([]float64, n)
	c := make([]float64, n)
	for i := 0; i < n; i++ {
		a[i] = rng.NormFloat64()
		b[i] = rng.NormFloat64()
		c[i] = a[i] + 0.01*rng.NormFloat64() // c is nearly collinear with a
	}

	high := VIF([][]float64{a, b, c}, 2)
	assert.Greater(t, high, 10.0, "collinear column should have large VIF")

	low := VIF([][]float64{a, b}, 1)
	assert.Less(t, low, 2.0, "independent column should have small VIF")
}

func TestIsolationScores(t *testing.T) {
	xs := make([]float64, 100)
	for i := range xs {
		xs[i] = float64(i % 10)
	}
	xs[50] = 1000 // obvious outlier

	scores := IsolationScores(xs)
	require.Len(t, scores, 100)

	cutoff := ContaminationCutoff(scores, 0.01)
	assert.Greater(t, scores[50], cutoff, "outlier should score above the contamination cutoff")

	// Determinism: same input, same scores.
	again := IsolationScores(xs)
	assert.Equal(t, scores, again)
}
