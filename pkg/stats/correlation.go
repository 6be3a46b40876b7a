package stats

import (
	"math"
	"sort"
)

// Pearson returns the Pearson correlation coefficient of two
// equal-length samples. Returns 0 when either sample is constant.
func Pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n != len(ys) || n < 2 {
		return 0
	}
	mx, my := Mean(xs), Mean(ys)
	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx := xs[i] - mx
		dy := ys[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	return sxy / math.Sqrt(sxx*syy)
}

// Spearman returns the Spearman rank correlation: Pearson over
// fractional ranks, with ties receiving their average rank.
func Spearman(xs, ys []float64) float64 {
	if len(xs) != len(ys) {
		return 0
	}
	return Pearson(Ranks(xs), Ranks(ys))
}

// KendallTau returns Kendall's tau-b, with tie correction.
func KendallTau(xs, ys []float64) float64 {
	n := len(xs)
	if n != len(ys) || n < 2 {
		return 0
	}
	var concordant, discordant, tiesX, tiesY float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx := xs[i] - xs[j]
			dy := ys[i] - ys[j]
			switch {
			case dx == 0 && dy == 0:
				// Tied in both; contributes to neither denominator term.
			case dx == 0:
				tiesX++
			case dy == 0:
				tiesY++
			case dx*dy > 0:
				concordant++
			default:
				discordant++
			}
		}
	}
	den := math.Sqrt((concordant + discordant + tiesX) * (concordant + discordant + tiesY))
	if den == 0 {
		return 0
	}
	return (concordant - discordant) / den
}

// Ranks returns fractional ranks (1-based), averaging ties.
func Ranks(xs []float64) []float64 {
	n := len(xs)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && xs[idx[j+1]] == xs[idx[i]] {
			j++
		}
		avg := (float64(i+1) + float64(j+1)) / 2
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

// VIF returns the variance inflation factor of the target column
// regressed on the remaining columns. columns[target] is the dependent
// variable; every slice must have equal length. Returns +Inf for a
// perfect fit and 1 when no predictors are available.
func VIF(columns [][]float64, target int) float64 {
	if target < 0 || target >= len(columns) || len(columns) < 2 {
		return 1
	}
	y := columns[target]
	var predictors [][]float64
	for i, c := range columns {
		if i != target {
			predictors = append(predictors, c)
		}
	}
	r2 := rSquared(y, predictors)
	if r2 >= 1 {
		return math.Inf(1)
	}
	return 1 / (1 - r2)
}

// rSquared fits y on the predictors by ordinary least squares (with
// intercept) and returns the coefficient of determination.
func rSquared(y []float64, predictors [][]float64) float64 {
	n := len(y)
	p := len(predictors) + 1 // intercept
	if n == 0 || n < p {
		return 0
	}

	// Design matrix row i: [1, x1_i, x2_i, ...].
	design := func(i, j int) float64 {
		if j == 0 {
			return 1
		}
		return predictors[j-1][i]
	}

	// Normal equations: (X'X) b = X'y.
	xtx := make([][]float64, p)
	xty := make([]float64, p)
	for a := 0; a < p; a++ {
		xtx[a] = make([]float64, p)
		for b := 0; b < p; b++ {
			for i := 0; i < n; i++ {
				xtx[a][b] += design(i, a) * design(i, b)
			}
		}
		for i := 0; i < n; i++ {
			xty[a] += design(i, a) * y[i]
		}
	}

	beta, ok := solve(xtx, xty)
	if !ok {
		return 0
	}

	my := Mean(y)
	var ssRes, ssTot float64
	for i := 0; i < n; i++ {
		fit := 0.0
		for j := 0; j < p; j++ {
			fit += beta[j] * design(i, j)
		}
		ssRes += (y[i] - fit) * (y[i] - fit)
		ssTot += (y[i] - my) * (y[i] - my)
	}
	if ssTot == 0 {
		return 0
	}
	r2 := 1 - ssRes/ssTot
	if r2 < 0 {
		return 0
	}
	return r2
}

// solve performs Gaussian elimination with partial pivoting.
func solve(a [][]float64, b []float64) ([]float64, bool) {
	n := len(b)
	// Work on copies; callers keep their matrices.
	m := make([][]float64, n)
	for i := range m {
		m[i] = append(append([]float64(nil), a[i]...), b[i])
	}

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < 1e-12 {
			return nil, false
		}
		m[col], m[pivot] = m[pivot], m[col]
		for r := col + 1; r < n; r++ {
			f := m[r][col] / m[col][col]
			for c := col; c <= n; c++ {
				m[r][c] -= f * m[col][c]
			}
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		x[i] = m[i][n]
		for j := i + 1; j < n; j++ {
			x[i] -= m[i][j] * x[j]
		}
		x[i] /= m[i][i]
	}
	return x, true
}
