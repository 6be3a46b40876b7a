package stats

import (
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
)

const (
	isolationTrees     = 100
	isolationSubsample = 256
)

// IsolationScores returns an anomaly score in (0, 1) for every value,
// using a one-dimensional isolation forest. Higher scores indicate
// easier isolation. The forest is seeded from the sample content so
// repeated runs over the same column are deterministic.
func IsolationScores(xs []float64) []float64 {
	n := len(xs)
	scores := make([]float64, n)
	if n < 2 {
		return scores
	}

	rng := rand.New(rand.NewSource(seedFor(xs)))

	sample := isolationSubsample
	if sample > n {
		sample = n
	}
	maxDepth := int(math.Ceil(math.Log2(float64(sample))))
	norm := avgPathLength(sample)

	pathSums := make([]float64, n)
	for t := 0; t < isolationTrees; t++ {
		sub := make([]float64, sample)
		for i := range sub {
			sub[i] = xs[rng.Intn(n)]
		}
		tree := buildIsolationTree(sub, 0, maxDepth, rng)
		for i, x := range xs {
			pathSums[i] += tree.pathLength(x, 0)
		}
	}

	for i := range scores {
		avg := pathSums[i] / isolationTrees
		scores[i] = math.Pow(2, -avg/norm)
	}
	return scores
}

// ContaminationCutoff returns the score threshold above which the
// given fraction of values is flagged. fraction is clamped to (0, 0.5].
func ContaminationCutoff(scores []float64, fraction float64) float64 {
	if fraction <= 0 {
		fraction = 0.1
	}
	if fraction > 0.5 {
		fraction = 0.5
	}
	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)
	return Quantile(sorted, 1-fraction)
}

type isolationNode struct {
	split       float64
	left, right *isolationNode
	size        int
}

func buildIsolationTree(xs []float64, depth, maxDepth int, rng *rand.Rand) *isolationNode {
	n := len(xs)
	if n <= 1 || depth >= maxDepth {
		return &isolationNode{size: n}
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
	if lo == hi {
		return &isolationNode{size: n}
	}

	split := lo + rng.Float64()*(hi-lo)
	var left, right []float64
	for _, x := range xs {
		if x < split {
			left = append(left, x)
		} else {
			right = append(right, x)
		}
	}
	return &isolationNode{
		split: split,
		left:  buildIsolationTree(left, depth+1, maxDepth, rng),
		right: buildIsolationTree(right, depth+1, maxDepth, rng),
		size:  n,
	}
}

func (t *isolationNode) pathLength(x float64, depth int) float64 {
	if t.left == nil {
		return float64(depth) + avgPathLength(t.size)
	}
	if x < t.split {
		return t.left.pathLength(x, depth+1)
	}
	return t.right.pathLength(x, depth+1)
}

// avgPathLength is c(n), the average unsuccessful BST search length.
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	h := math.Log(float64(n-1)) + 0.5772156649
	return 2*h - 2*float64(n-1)/float64(n)
}

func seedFor(xs []float64) int64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, x := range xs {
		bits := math.Float64bits(x)
		for i := 0; i < 8; i++ {
			buf[i] = byte(bits >> (8 * i))
		}
		_, _ = h.Write(buf[:])
	}
	return int64(h.Sum64())
}
