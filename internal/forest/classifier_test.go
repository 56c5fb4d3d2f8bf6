package forest

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoBlobs returns linearly separable samples: class 0 near (0,0), class 1 near (10,10).
func twoBlobs(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	var X [][]float64
	var y []int
	for i := 0; i < n; i++ {
		c := i % 2
		base := float64(c) * 10
		X = append(X, []float64{base + rng.Float64(), base + rng.Float64(), rng.Float64()})
		y = append(y, c)
	}
	return X, y
}

func TestFit_SeparatesBlobs(t *testing.T) {
	X, y := twoBlobs(60, 1)
	c := New(Params{NEstimators: 10, MaxFeatures: 2, MinSamplesSplit: 2, Seed: 3})
	require.NoError(t, c.Fit(X, y, 2))
	require.True(t, c.Trained())
	assert.Len(t, c.Trees, 10)

	p0, err := c.PredictProba([]float64{0.5, 0.5, 0.5})
	require.NoError(t, err)
	assert.Greater(t, p0[0], p0[1])
	assert.InDelta(t, 1.0, p0[0]+p0[1], 1e-9)

	p1, err := c.PredictProba([]float64{10.5, 10.5, 0.5})
	require.NoError(t, err)
	assert.Greater(t, p1[1], p1[0])
}

func TestFit_Deterministic(t *testing.T) {
	X, y := twoBlobs(40, 2)
	a := New(Params{NEstimators: 5, Seed: 11, Jobs: 1})
	b := New(Params{NEstimators: 5, Seed: 11, Jobs: 4})
	require.NoError(t, a.Fit(X, y, 2))
	require.NoError(t, b.Fit(X, y, 2))
	assert.Equal(t, a.Trees, b.Trees)
}

func TestFit_PureNodeIsLeaf(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}}
	y := []int{1, 1, 1}
	c := New(Params{NEstimators: 1})
	require.NoError(t, c.Fit(X, y, 2))
	assert.Empty(t, c.Trees[0].Nodes)
	assert.Equal(t, [][]float64{{0, 1}}, c.Trees[0].Leaves)
}

func TestFit_ConstantFeaturesIsLeaf(t *testing.T) {
	X := [][]float64{{1, 1}, {1, 1}}
	y := []int{0, 1}
	c := New(Params{NEstimators: 1})
	require.NoError(t, c.Fit(X, y, 2))
	assert.Empty(t, c.Trees[0].Nodes)
	assert.Equal(t, []float64{0.5, 0.5}, c.Trees[0].Leaves[0])
}

func TestFit_MinSamplesSplit(t *testing.T) {
	X, y := twoBlobs(10, 4)
	c := New(Params{NEstimators: 1, MinSamplesSplit: 100})
	require.NoError(t, c.Fit(X, y, 2))
	assert.Empty(t, c.Trees[0].Nodes)
}

func TestFit_Errors(t *testing.T) {
	c := New(Params{})
	assert.Error(t, c.Fit(nil, nil, 2))
	assert.Error(t, c.Fit([][]float64{{1}}, []int{0, 1}, 2))
	assert.Error(t, c.Fit([][]float64{{1}, {1, 2}}, []int{0, 1}, 2))
	assert.Error(t, c.Fit([][]float64{{1}}, []int{3}, 2))

	_, err := c.PredictProba([]float64{1})
	assert.Error(t, err)
}

func TestPredictProba_WrongWidth(t *testing.T) {
	X, y := twoBlobs(10, 5)
	c := New(Params{NEstimators: 2})
	require.NoError(t, c.Fit(X, y, 2))
	_, err := c.PredictProba([]float64{1})
	assert.Error(t, err)
}

func TestClassifier_JSON(t *testing.T) {
	X, y := twoBlobs(30, 6)
	c := New(Params{NEstimators: 3, Seed: 9})
	require.NoError(t, c.Fit(X, y, 2))

	b, err := json.Marshal(c)
	require.NoError(t, err)
	var back Classifier
	require.NoError(t, json.Unmarshal(b, &back))

	for _, x := range X {
		want, err := c.PredictProba(x)
		require.NoError(t, err)
		got, err := back.PredictProba(x)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestResolveMaxFeatures(t *testing.T) {
	assert.Equal(t, 3, resolveMaxFeatures(0, 9))
	assert.Equal(t, 9, resolveMaxFeatures(16, 9))
	assert.Equal(t, 1, resolveMaxFeatures(0, 1))
	assert.Equal(t, 4, resolveMaxFeatures(4, 9))
}

func TestClassifier_Validate(t *testing.T) {
	c := &Classifier{NClasses: 2, NFeatures: 2, Trees: []Tree{depthTwo(), {Leaves: [][]float64{{1, 0}}}}}
	require.NoError(t, c.Validate())

	assert.Error(t, (&Classifier{NClasses: 2, NFeatures: 2}).Validate())

	c.NFeatures = 1
	assert.Error(t, c.Validate())

	c.NFeatures, c.NClasses = 2, 3
	assert.Error(t, c.Validate())
}
