package search

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ironsheep/region-tuner/internal/cv"
	"github.com/ironsheep/region-tuner/internal/grid"
	"github.com/ironsheep/region-tuner/internal/metrics"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tableEstimator predicts nothing useful; tableScorer reads its score from a
// table keyed by the window range and the first test sample.
type tableEstimator struct {
	window  grid.SizeRange
	trained []string
	fitErr  error
}

func (e *tableEstimator) Fit(X []string, y []string) error {
	if e.fitErr != nil {
		return e.fitErr
	}
	e.trained = append([]string(nil), X...)
	return nil
}

func (e *tableEstimator) Predict(X []string) ([]string, error) {
	return make([]string, len(X)), nil
}

type tableScorer struct {
	table map[grid.SizeRange]map[string]float64
}

func (s tableScorer) Name() string { return "table" }

func (s tableScorer) Score(p metrics.Predictor, X []string, y []string) (float64, error) {
	e := p.(*tableEstimator)
	return s.table[e.window][X[0]], nil
}

type countingTemplate struct {
	configured int32
	fitErr     func(p grid.Point) error
}

func (c *countingTemplate) Configure(p grid.Point) (Estimator, error) {
	atomic.AddInt32(&c.configured, 1)
	v, ok := p.Get("window_sizes")
	if !ok {
		return nil, errors.New("missing window_sizes")
	}
	e := &tableEstimator{window: v.(grid.SizeRange)}
	if c.fitErr != nil {
		e.fitErr = c.fitErr(p)
	}
	return e, nil
}

func exampleData() Dataset {
	return Dataset{
		X:      []string{"p1", "p2", "p3", "p4"},
		Y:      []string{"A", "B", "A", "B"},
		Groups: []string{"g1", "g1", "g2", "g2"},
	}
}

func exampleGrid() *grid.ParameterGrid {
	var g grid.ParameterGrid
	g.AddRanges("window_sizes", []grid.SizeRange{{Min: 0.1, Max: 0.5}, {Min: 0.1, Max: 0.9}}).
		AddInts("max_features", []int{16}).
		AddInts("min_samples_split", []int{1})
	return &g
}

var (
	narrow = grid.SizeRange{Min: 0.1, Max: 0.5}
	wide   = grid.SizeRange{Min: 0.1, Max: 0.9}
)

func TestSearch_PicksHighestMean(t *testing.T) {
	scorer := tableScorer{table: map[grid.SizeRange]map[string]float64{
		narrow: {"p1": 0.9, "p3": 0.3},
		wide:   {"p1": 0.6, "p3": 0.8},
	}}

	report, err := Search(&countingTemplate{}, exampleGrid(), exampleData(), cv.LeavePGroupsOut{P: 1}, scorer, Options{})
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	assert.Equal(t, 2, report.NFolds)
	assert.Equal(t, "table", report.Scorer)
	assert.Equal(t, []float64{0.9, 0.3}, report.Results[0].FoldScores)
	assert.InDelta(t, 0.6, report.Results[0].Score, 1e-12)
	assert.InDelta(t, 0.7, report.Results[1].Score, 1e-12)

	assert.Equal(t, 1, report.Best.Index)
	ws, _ := report.Best.Config.Get("window_sizes")
	assert.Equal(t, wide, ws)
	assert.Nil(t, report.BestEstimator)
}

func TestSearch_TieGoesToFirstPoint(t *testing.T) {
	scorer := tableScorer{table: map[grid.SizeRange]map[string]float64{
		narrow: {"p1": 0.5, "p3": 0.5},
		wide:   {"p1": 0.25, "p3": 0.75},
	}}

	for _, jobs := range []int{1, 4} {
		report, err := Search(&countingTemplate{}, exampleGrid(), exampleData(), cv.LeavePGroupsOut{P: 1}, scorer,
			Options{Jobs: jobs, FoldJobs: jobs})
		require.NoError(t, err)
		assert.Equal(t, 0, report.Best.Index, "jobs=%d", jobs)
	}
}

func TestSearch_Deterministic(t *testing.T) {
	scorer := tableScorer{table: map[grid.SizeRange]map[string]float64{
		narrow: {"p1": 0.4, "p3": 0.6},
		wide:   {"p1": 0.7, "p3": 0.3},
	}}

	var first *Report
	for i := 0; i < 10; i++ {
		report, err := Search(&countingTemplate{}, exampleGrid(), exampleData(), cv.LeavePGroupsOut{P: 1}, scorer,
			Options{Jobs: 2, FoldJobs: 2})
		require.NoError(t, err)
		if first == nil {
			first = report
			continue
		}
		assert.Equal(t, first.Best, report.Best)
		assert.Equal(t, first.Results, report.Results)
	}
}

func TestSearch_EmptyGrid(t *testing.T) {
	var g grid.ParameterGrid
	g.AddRanges("window_sizes", grid.BuildRanges([]float64{0.9}, []float64{0.5}))

	tmpl := &countingTemplate{}
	_, err := Search(tmpl, &g, exampleData(), cv.LeavePGroupsOut{P: 1}, metrics.Accuracy(), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, grid.ErrEmptyGrid))
	assert.Zero(t, tmpl.configured)
}

func TestSearch_InsufficientGroups(t *testing.T) {
	tmpl := &countingTemplate{}
	_, err := Search(tmpl, exampleGrid(), exampleData(), cv.LeavePGroupsOut{P: 3}, metrics.Accuracy(), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, cv.ErrInsufficientGroups))
	assert.Zero(t, tmpl.configured)
}

func TestSearch_Misaligned(t *testing.T) {
	data := exampleData()
	data.Groups = data.Groups[:3]
	_, err := Search(&countingTemplate{}, exampleGrid(), data, cv.LeavePGroupsOut{P: 1}, metrics.Accuracy(), Options{})
	assert.Error(t, err)
}

func TestSearch_FitFailureAborts(t *testing.T) {
	boom := errors.New("forest exploded")
	tmpl := &countingTemplate{fitErr: func(p grid.Point) error {
		if v, _ := p.Get("window_sizes"); v == wide {
			return boom
		}
		return nil
	}}

	for _, jobs := range []int{1, 3} {
		report, err := Search(tmpl, exampleGrid(), exampleData(), cv.LeavePGroupsOut{P: 1}, metrics.Accuracy(),
			Options{Jobs: jobs, FoldJobs: jobs})
		require.Error(t, err)
		assert.Nil(t, report)
		assert.True(t, errors.Is(err, boom))

		var failure *EstimatorFailure
		require.True(t, errors.As(err, &failure))
		assert.Equal(t, PhaseFit, failure.Phase)
		assert.Equal(t, 1, failure.PointIndex)
		assert.Contains(t, err.Error(), "grid point 1")
	}
}

func TestSearch_ConfigureFailure(t *testing.T) {
	boom := errors.New("bad params")
	tmpl := TemplateFunc(func(p grid.Point) (Estimator, error) { return nil, boom })
	_, err := Search(tmpl, exampleGrid(), exampleData(), cv.LeavePGroupsOut{P: 1}, metrics.Accuracy(), Options{})

	var failure *EstimatorFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, PhaseConfigure, failure.Phase)
	assert.Equal(t, 0, failure.PointIndex)
	assert.Equal(t, -1, failure.Fold)
}

func TestSearch_ConfigureFailureBeforeAnyFit(t *testing.T) {
	var fits int32
	tmpl := TemplateFunc(func(p grid.Point) (Estimator, error) {
		v, _ := p.Get("window_sizes")
		if v.(grid.SizeRange).Max == 0.9 {
			return nil, errors.New("unknown axis")
		}
		return &recordingEstimator{record: func([]string) { atomic.AddInt32(&fits, 1) }}, nil
	})
	_, err := Search(tmpl, exampleGrid(), exampleData(), cv.LeavePGroupsOut{P: 1}, metrics.Accuracy(), Options{})

	var failure *EstimatorFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, PhaseConfigure, failure.Phase)
	assert.Equal(t, 1, failure.PointIndex)
	assert.Zero(t, atomic.LoadInt32(&fits))
}

func TestSearch_TrainsOnTrainFoldOnly(t *testing.T) {
	var mu sync.Mutex
	var seen [][]string
	tmpl := TemplateFunc(func(p grid.Point) (Estimator, error) {
		return &recordingEstimator{record: func(X []string) {
			mu.Lock()
			seen = append(seen, X)
			mu.Unlock()
		}}, nil
	})

	var g grid.ParameterGrid
	g.AddInts("n", []int{1})
	_, err := Search(tmpl, &g, exampleData(), cv.LeavePGroupsOut{P: 1}, metrics.Accuracy(), Options{})
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, []string{"p3", "p4"}, seen[0])
	assert.Equal(t, []string{"p1", "p2"}, seen[1])
}

func TestSearch_Refit(t *testing.T) {
	scorer := tableScorer{table: map[grid.SizeRange]map[string]float64{
		narrow: {"p1": 0.1, "p3": 0.1},
		wide:   {"p1": 0.9, "p3": 0.9},
	}}
	report, err := Search(&countingTemplate{}, exampleGrid(), exampleData(), cv.LeavePGroupsOut{P: 1}, scorer,
		Options{Refit: true})
	require.NoError(t, err)

	best, ok := report.BestEstimator.(*tableEstimator)
	require.True(t, ok)
	assert.Equal(t, wide, best.window)
	assert.Equal(t, []string{"p1", "p2", "p3", "p4"}, best.trained)
}

func TestSearch_BudgetBoundsConcurrentFits(t *testing.T) {
	var running, peak int32
	tmpl := TemplateFunc(func(p grid.Point) (Estimator, error) {
		return &recordingEstimator{record: func([]string) {
			n := atomic.AddInt32(&running, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
		}}, nil
	})

	var g grid.ParameterGrid
	g.AddInts("a", []int{1, 2, 3, 4}).AddInts("b", []int{1, 2})
	data := Dataset{
		X:      []string{"a", "b", "c", "d"},
		Y:      []string{"x", "x", "y", "y"},
		Groups: []string{"1", "2", "3", "4"},
	}
	_, err := Search(tmpl, &g, data, cv.LeavePGroupsOut{P: 1}, metrics.Accuracy(),
		Options{Jobs: 4, FoldJobs: 4, Budget: 3})
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

type recordingEstimator struct {
	record func(X []string)
}

func (r *recordingEstimator) Fit(X []string, y []string) error {
	r.record(X)
	return nil
}

func (r *recordingEstimator) Predict(X []string) ([]string, error) {
	return make([]string, len(X)), nil
}

func TestSelectBest_NaN(t *testing.T) {
	nan := []EvaluationResult{{Index: 0, Score: nanValue()}, {Index: 1, Score: 0.2}, {Index: 2, Score: 0.2}}
	assert.Equal(t, 1, selectBest(nan).Index)
}

func nanValue() float64 {
	zero := 0.0
	return zero / zero
}
