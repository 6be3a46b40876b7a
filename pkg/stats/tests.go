package stats

import (
	"math"
	"sort"
)

// ShapiroWilk tests the null hypothesis that xs is normally
// distributed. It computes the Shapiro-Francia approximation of the W
// statistic (weights from expected normal order statistics) with
// Royston's p-value transform. Requires at least 8 samples.
func ShapiroWilk(xs []float64) (w, p float64) {
	n := len(xs)
	if n < 8 {
		return 1, 1
	}

	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	// Expected normal order statistics, normalized into weights.
	m := make([]float64, n)
	var norm float64
	for i := 0; i < n; i++ {
		m[i] = NormalQuantile((float64(i+1) - 0.375) / (float64(n) + 0.25))
		norm += m[i] * m[i]
	}
	norm = math.Sqrt(norm)

	mean := Mean(sorted)
	var num, den float64
	for i, x := range sorted {
		num += (m[i] / norm) * x
		den += (x - mean) * (x - mean)
	}
	if den == 0 {
		return 1, 1
	}
	w = num * num / den

	// Royston (1993) normal transform for the Shapiro-Francia statistic.
	u := math.Log(float64(n))
	v := math.Log(u)
	mu := -1.2725 + 1.0521*(v-u)
	sigma := 1.0308 - 0.26758*(v+2/u)
	z := (math.Log(1-w) - mu) / sigma
	p = 1 - NormalCDF(z)
	return w, p
}

// KolmogorovSmirnov tests xs against the distribution described by
// cdf and returns the D statistic with its asymptotic p-value.
func KolmogorovSmirnov(xs []float64, cdf func(float64) float64) (d, p float64) {
	n := len(xs)
	if n == 0 {
		return 0, 1
	}

	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	for i, x := range sorted {
		f := cdf(x)
		upper := float64(i+1)/float64(n) - f
		lower := f - float64(i)/float64(n)
		if upper > d {
			d = upper
		}
		if lower > d {
			d = lower
		}
	}

	return d, ksPValue(d, n)
}

// KSNormal tests xs against a normal distribution with the sample's
// own mean and standard deviation.
func KSNormal(xs []float64) (d, p float64) {
	mean := Mean(xs)
	sd := StdDev(xs)
	if sd == 0 {
		return 0, 1
	}
	return KolmogorovSmirnov(xs, func(x float64) float64 {
		return NormalCDF((x - mean) / sd)
	})
}

// KSUniform tests xs against the uniform distribution over the
// sample's own [min, max] range.
func KSUniform(xs []float64) (d, p float64) {
	if len(xs) == 0 {
		return 0, 1
	}
	lo, hi := xs[0], xs[0]
	for _, x := range xs {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	if hi == lo {
		return 0, 1
	}
	return KolmogorovSmirnov(xs, func(x float64) float64 {
		switch {
		case x <= lo:
			return 0
		case x >= hi:
			return 1
		default:
			return (x - lo) / (hi - lo)
		}
	})
}

// ksPValue is the asymptotic Kolmogorov distribution tail probability.
func ksPValue(d float64, n int) float64 {
	if d <= 0 {
		return 1
	}
	sqrtN := math.Sqrt(float64(n))
	lambda := (sqrtN + 0.12 + 0.11/sqrtN) * d
	sum := 0.0
	for k := 1; k <= 100; k++ {
		term := 2 * math.Pow(-1, float64(k-1)) * math.Exp(-2*lambda*lambda*float64(k)*float64(k))
		sum += term
		if math.Abs(term) < 1e-10 {
			break
		}
	}
	if sum < 0 {
		return 0
	}
	if sum > 1 {
		return 1
	}
	return sum
}
