package search

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ironsheep/region-tuner/internal/cv"
	"github.com/ironsheep/region-tuner/internal/grid"
	"github.com/ironsheep/region-tuner/internal/metrics"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// ErrNoFolds is returned when the splitter yields no folds.
var ErrNoFolds = errors.New("splitter produced no folds")

// Dataset is the full sample set a search runs on. X holds sample
// identifiers (file paths), Y the labels and Groups the group identifiers,
// all index-aligned.
type Dataset struct {
	X      []string
	Y      []string
	Groups []string
}

func (d Dataset) subset(indices []int) (X, y []string) {
	X = make([]string, len(indices))
	y = make([]string, len(indices))
	for i, idx := range indices {
		X[i] = d.X[idx]
		y[i] = d.Y[idx]
	}
	return X, y
}

// Options tune the execution of a search. The zero value runs everything
// sequentially without refitting.
type Options struct {
	// Jobs is the number of grid points evaluated concurrently.
	Jobs int
	// FoldJobs is the number of folds of a single point evaluated concurrently.
	FoldJobs int
	// Budget caps concurrent fits across the whole search. Zero means Jobs*FoldJobs.
	Budget int
	// Refit trains the best configuration on the full dataset after the search.
	Refit bool
	// Logger receives progress events. Nil disables logging.
	Logger *zerolog.Logger
}

func (o Options) normalized() Options {
	if o.Jobs < 1 {
		o.Jobs = 1
	}
	if o.FoldJobs < 1 {
		o.FoldJobs = 1
	}
	if o.Budget < 1 || o.Budget > o.Jobs*o.FoldJobs {
		o.Budget = o.Jobs * o.FoldJobs
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	return o
}

// EvaluationResult is the cross-validated score of one grid point.
type EvaluationResult struct {
	Index      int        `json:"index"`
	Config     grid.Point `json:"config"`
	Score      float64    `json:"score"`
	FoldScores []float64  `json:"fold_scores"`
}

// Report is the outcome of a search.
type Report struct {
	Best    EvaluationResult   `json:"best"`
	Results []EvaluationResult `json:"results"`
	NFolds  int                `json:"n_folds"`
	Scorer  string             `json:"scorer"`
	// BestEstimator is the best configuration fitted on all samples, set only with Options.Refit.
	BestEstimator Estimator `json:"-"`
}

// Search evaluates every point of g on every fold of data and returns the best one.
//
// Configuration problems (empty grid, splitter errors, misaligned dataset) are
// reported before any estimator is fitted. Every point is configured once up
// front, so a point the template rejects fails the search with PhaseConfigure
// and Fold -1 before any fold runs. The template is only used through
// Configure and is never modified.
func Search(tmpl Template, g *grid.ParameterGrid, data Dataset, splitter cv.Splitter, scorer metrics.Scorer, opts Options) (*Report, error) {
	if len(data.Y) != len(data.X) || len(data.Groups) != len(data.X) {
		return nil, errors.Errorf("dataset misaligned: %d samples, %d labels, %d groups",
			len(data.X), len(data.Y), len(data.Groups))
	}
	points, err := g.Points()
	if err != nil {
		return nil, err
	}
	folds, err := splitter.Split(len(data.X), data.Groups)
	if err != nil {
		return nil, errors.Wrap(err, "split dataset")
	}
	if len(folds) == 0 {
		return nil, ErrNoFolds
	}
	for pi, point := range points {
		if _, err := tmpl.Configure(point); err != nil {
			return nil, &EstimatorFailure{PointIndex: pi, Point: point, Fold: -1, Phase: PhaseConfigure, Err: err}
		}
	}

	opts = opts.normalized()
	log := opts.Logger
	log.Info().
		Int("points", len(points)).
		Int("folds", len(folds)).
		Int("samples", len(data.X)).
		Int("jobs", opts.Jobs).
		Int("fold_jobs", opts.FoldJobs).
		Msg("starting grid search")

	var (
		aborted  atomic.Bool
		failOnce sync.Once
		failure  error
	)
	fail := func(err error) error {
		failOnce.Do(func() { failure = err })
		aborted.Store(true)
		return err
	}
	slots := newBudget(opts.Budget)
	results := make([]EvaluationResult, len(points))

	evalFold := func(pi int, point grid.Point, fi int, fold cv.Fold) (float64, error) {
		slots.acquire()
		defer slots.release()
		if aborted.Load() {
			return 0, errAborted
		}

		start := time.Now()
		est, err := tmpl.Configure(point)
		if err != nil {
			return 0, fail(&EstimatorFailure{PointIndex: pi, Point: point, Fold: fi, Phase: PhaseConfigure, Err: err})
		}
		trainX, trainY := data.subset(fold.Train)
		if err := est.Fit(trainX, trainY); err != nil {
			return 0, fail(&EstimatorFailure{PointIndex: pi, Point: point, Fold: fi, Phase: PhaseFit, Err: err})
		}
		testX, testY := data.subset(fold.Test)
		score, err := scorer.Score(est, testX, testY)
		if err != nil {
			return 0, fail(&EstimatorFailure{PointIndex: pi, Point: point, Fold: fi, Phase: PhaseScore, Err: err})
		}

		log.Debug().
			Int("point", pi).
			Int("fold", fi).
			Strs("test_groups", fold.TestGroups).
			Float64("score", score).
			Dur("elapsed", time.Since(start)).
			Msg("fold scored")
		return score, nil
	}

	evalPoint := func(pi int) error {
		point := points[pi]
		scores := make([]float64, len(folds))
		err := newPool(opts.FoldJobs, &aborted).run(len(folds), func(fi int) error {
			s, err := evalFold(pi, point, fi, folds[fi])
			if err != nil {
				return err
			}
			scores[fi] = s
			return nil
		})
		if err != nil {
			return err
		}

		results[pi] = EvaluationResult{
			Index:      pi,
			Config:     point,
			Score:      stat.Mean(scores, nil),
			FoldScores: scores,
		}
		log.Info().
			Int("point", pi).
			Str("params", point.String()).
			Float64("mean", results[pi].Score).
			Msg("grid point evaluated")
		return nil
	}

	if err := newPool(opts.Jobs, &aborted).run(len(points), evalPoint); err != nil {
		// a fold that saw the abort flag may finish first; report the real failure
		if failure != nil {
			return nil, failure
		}
		return nil, err
	}

	report := &Report{
		Best:    selectBest(results),
		Results: results,
		NFolds:  len(folds),
		Scorer:  scorer.Name(),
	}
	log.Info().
		Str("params", report.Best.Config.String()).
		Float64("score", report.Best.Score).
		Msg("grid search finished")

	if opts.Refit {
		est, err := tmpl.Configure(report.Best.Config)
		if err == nil {
			err = est.Fit(data.X, data.Y)
		}
		if err != nil {
			return nil, &EstimatorFailure{PointIndex: report.Best.Index, Point: report.Best.Config, Fold: -1, Phase: PhaseRefit, Err: err}
		}
		report.BestEstimator = est
	}
	return report, nil
}

var errAborted = errors.New("search aborted")

// selectBest returns the first result with the strictly highest score. NaN
// scores never beat a number.
func selectBest(results []EvaluationResult) EvaluationResult {
	best := results[0]
	for _, r := range results[1:] {
		if math.IsNaN(r.Score) {
			continue
		}
		if math.IsNaN(best.Score) || r.Score > best.Score {
			best = r
		}
	}
	return best
}
