package forest

import (
	"math"
	"math/rand"
	"sync"

	"github.com/pkg/errors"
)

// Params configure a forest.
type Params struct {
	// NEstimators is the number of trees.
	NEstimators int `json:"n_estimators"`
	// MaxFeatures is the number of features drawn at each split. Values below
	// one use sqrt(features); values above the feature count use all features.
	MaxFeatures int `json:"max_features"`
	// MinSamplesSplit is the smallest node that may be split. Values below two act as two.
	MinSamplesSplit int `json:"min_samples_split"`
	// Seed makes training reproducible.
	Seed int64 `json:"seed"`
	// Jobs is the number of trees built concurrently.
	Jobs int `json:"-"`
}

// Classifier is an ensemble of extremely randomized trees.
type Classifier struct {
	Params    Params `json:"params"`
	NClasses  int    `json:"n_classes"`
	NFeatures int    `json:"n_features"`
	Trees     []Tree `json:"trees"`
}

// New returns an untrained classifier.
func New(p Params) *Classifier {
	return &Classifier{Params: p}
}

// Fit trains the forest. y holds class indices in [0, nClasses).
func (c *Classifier) Fit(X [][]float64, y []int, nClasses int) error {
	if len(X) == 0 {
		return errors.New("forest: no training samples")
	}
	if len(X) != len(y) {
		return errors.Errorf("forest: %d samples but %d labels", len(X), len(y))
	}
	if nClasses < 1 {
		return errors.Errorf("forest: invalid class count %d", nClasses)
	}
	nFeatures := len(X[0])
	for i, x := range X {
		if len(x) != nFeatures {
			return errors.Errorf("forest: sample %d has %d features, want %d", i, len(x), nFeatures)
		}
	}
	for i, label := range y {
		if label < 0 || label >= nClasses {
			return errors.Errorf("forest: sample %d has class %d outside [0,%d)", i, label, nClasses)
		}
	}

	nTrees := c.Params.NEstimators
	if nTrees < 1 {
		nTrees = 1
	}
	b := builder{
		X:               X,
		y:               y,
		nClasses:        nClasses,
		maxFeatures:     resolveMaxFeatures(c.Params.MaxFeatures, nFeatures),
		minSamplesSplit: c.Params.MinSamplesSplit,
	}
	if b.minSamplesSplit < 2 {
		b.minSamplesSplit = 2
	}

	trees := make([]Tree, nTrees)
	jobs := c.Params.Jobs
	if jobs < 1 {
		jobs = 1
	}
	sem := make(chan struct{}, jobs)
	var wg sync.WaitGroup
	for i := range trees {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			// each tree owns its generator so the result does not depend on scheduling
			rng := rand.New(rand.NewSource(c.Params.Seed + int64(i)))
			trees[i] = b.build(rng)
		}(i)
	}
	wg.Wait()

	c.NClasses = nClasses
	c.NFeatures = nFeatures
	c.Trees = trees
	return nil
}

// Trained reports whether Fit has completed.
func (c *Classifier) Trained() bool {
	return len(c.Trees) > 0
}

// Validate checks that a decoded classifier is trained and that every tree
// matches NClasses and NFeatures.
func (c *Classifier) Validate() error {
	if !c.Trained() {
		return errors.New("forest: not trained")
	}
	if c.NClasses < 1 || c.NFeatures < 1 {
		return errors.Errorf("forest: invalid shape %d classes, %d features", c.NClasses, c.NFeatures)
	}
	for i := range c.Trees {
		if err := c.Trees[i].Validate(c.NClasses, c.NFeatures); err != nil {
			return errors.Wrapf(err, "forest: tree %d", i)
		}
	}
	return nil
}

// PredictProba averages the leaf distributions of all trees.
func (c *Classifier) PredictProba(x []float64) ([]float64, error) {
	if !c.Trained() {
		return nil, errors.New("forest: not trained")
	}
	if len(x) != c.NFeatures {
		return nil, errors.Errorf("forest: got %d features, want %d", len(x), c.NFeatures)
	}
	out := make([]float64, c.NClasses)
	for i := range c.Trees {
		for k, p := range c.Trees[i].Proba(x) {
			out[k] += p
		}
	}
	for k := range out {
		out[k] /= float64(len(c.Trees))
	}
	return out, nil
}

func resolveMaxFeatures(requested, nFeatures int) int {
	if requested < 1 {
		requested = int(math.Sqrt(float64(nFeatures)))
	}
	if requested < 1 {
		requested = 1
	}
	if requested > nFeatures {
		requested = nFeatures
	}
	return requested
}

type builder struct {
	X               [][]float64
	y               []int
	nClasses        int
	maxFeatures     int
	minSamplesSplit int
}

type split struct {
	feature   int
	threshold float64
	left      []int
	right     []int
}

// pending is a node whose subtree still has to be built; parent is -1 for
// the root and isLeft tells which child slot of the parent it fills.
type pending struct {
	samples []int
	parent  int
	isLeft  bool
}

func (b *builder) build(rng *rand.Rand) Tree {
	var t Tree
	all := make([]int, len(b.X))
	for i := range all {
		all[i] = i
	}

	stack := []pending{{samples: all, parent: -1}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		counts := b.counts(cur.samples)
		s, ok := split{}, false
		if len(cur.samples) >= b.minSamplesSplit && !pure(counts) {
			s, ok = b.bestSplit(cur.samples, counts, rng)
		}

		var index int
		isLeaf := !ok
		if isLeaf {
			index = len(t.Leaves)
			t.Leaves = append(t.Leaves, distribution(counts, len(cur.samples)))
		} else {
			index = len(t.Nodes)
			t.Nodes = append(t.Nodes, Node{FeatureIndex: s.feature, Threshold: s.threshold})
		}

		if cur.parent >= 0 {
			parent := &t.Nodes[cur.parent]
			if cur.isLeft {
				parent.LeftChild, parent.LeftIsLeaf = index, isLeaf
			} else {
				parent.RightChild, parent.RightIsLeaf = index, isLeaf
			}
		}

		if !isLeaf {
			stack = append(stack,
				pending{samples: s.right, parent: index, isLeft: false},
				pending{samples: s.left, parent: index, isLeft: true},
			)
		}
	}
	return t
}

// bestSplit draws random thresholds on up to maxFeatures non-constant
// features and keeps the one with the lowest weighted Gini impurity.
func (b *builder) bestSplit(samples []int, counts []int, rng *rand.Rand) (split, bool) {
	var (
		best      split
		bestScore = math.Inf(1)
		found     bool
		tried     int
	)
	for _, f := range rng.Perm(len(b.X[0])) {
		if tried >= b.maxFeatures {
			break
		}
		lo, hi := b.X[samples[0]][f], b.X[samples[0]][f]
		for _, i := range samples[1:] {
			v := b.X[i][f]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if hi <= lo {
			continue
		}
		tried++

		threshold := lo + rng.Float64()*(hi-lo)
		if threshold <= lo {
			threshold = (lo + hi) / 2
		}
		left := make([]int, 0, len(samples))
		right := make([]int, 0, len(samples))
		leftCounts := make([]int, b.nClasses)
		for _, i := range samples {
			if b.X[i][f] < threshold {
				left = append(left, i)
				leftCounts[b.y[i]]++
			} else {
				right = append(right, i)
			}
		}
		if len(left) == 0 || len(right) == 0 {
			continue
		}
		rightCounts := make([]int, b.nClasses)
		for k := range counts {
			rightCounts[k] = counts[k] - leftCounts[k]
		}

		score := float64(len(left))*gini(leftCounts, len(left)) + float64(len(right))*gini(rightCounts, len(right))
		if score < bestScore {
			bestScore = score
			best = split{feature: f, threshold: threshold, left: left, right: right}
			found = true
		}
	}
	return best, found
}

func (b *builder) counts(samples []int) []int {
	c := make([]int, b.nClasses)
	for _, i := range samples {
		c[b.y[i]]++
	}
	return c
}

func pure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func gini(counts []int, total int) float64 {
	if total == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		g -= p * p
	}
	return g
}

func distribution(counts []int, total int) []float64 {
	d := make([]float64, len(counts))
	for k, c := range counts {
		d[k] = float64(c) / float64(total)
	}
	return d
}
