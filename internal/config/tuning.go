package config

import (
	"github.com/pkg/errors"

	"github.com/ironsheep/region-tuner/internal/cv"
	"github.com/ironsheep/region-tuner/internal/dataset"
	"github.com/ironsheep/region-tuner/internal/grid"
	"github.com/ironsheep/region-tuner/internal/imaging"
	"github.com/ironsheep/region-tuner/internal/labels"
	"github.com/ironsheep/region-tuner/internal/metrics"
	"github.com/ironsheep/region-tuner/internal/pyxit"
)

// Defaults applied by Validate.
var (
	DefaultMinSizes        = []float64{0.1}
	DefaultMaxSizes        = []float64{0.9}
	DefaultMaxFeatures     = []int{16}
	DefaultMinSamplesSplit = []int{1}
	DefaultColorspaces     = []int{int(imaging.HSV)}
	DefaultSVMC            = []float64{0.1}
)

// Data locates the learning set.
type Data struct {
	Manifest    string
	Dir         string
	WorkingPath string
	ZoomLevel   int
	Filter      dataset.Filter
}

// Labels configures the optional binary or ternary recoding.
type Labels struct {
	Binary   bool
	Positive []string
	Negative []string
	Other    []string
}

// Mapper returns the configured mapper, or nil when labels are kept as is.
func (l Labels) Mapper() labels.Mapper {
	if !l.Binary {
		return nil
	}
	if len(l.Other) > 0 {
		return labels.NewTernaryMapper(l.Positive, l.Negative, l.Other)
	}
	return labels.NewBinaryMapper(l.Positive, l.Negative)
}

// Grid holds the candidate values of every tuned parameter.
type Grid struct {
	MinSizes        []float64
	MaxSizes        []float64
	WindowSizes     []grid.SizeRange
	MaxFeatures     []int
	MinSamplesSplit []int
	Colorspaces     []int
}

// Build returns the parameter grid in axis order window sizes, max features,
// min samples split, colorspace.
func (g Grid) Build() *grid.ParameterGrid {
	pg := &grid.ParameterGrid{}
	pg.AddRanges(pyxit.AxisWindowSizes, g.WindowSizes)
	pg.AddInts(pyxit.AxisMaxFeatures, g.MaxFeatures)
	pg.AddInts(pyxit.AxisMinSamplesSplit, g.MinSamplesSplit)
	pg.AddInts(pyxit.AxisColorspace, g.Colorspaces)
	return pg
}

// CV configures the group splitter.
type CV struct {
	ImagesOut int
}

// Splitter returns the leave-P-images-out splitter.
func (c CV) Splitter() cv.LeavePGroupsOut {
	return cv.LeavePGroupsOut{P: c.ImagesOut}
}

// Search configures evaluation.
type Search struct {
	Jobs     int
	FoldJobs int
	Scoring  string
	Positive string
	Verbose  bool
}

// Scorer returns the configured scoring strategy.
func (s Search) Scorer() (metrics.Scorer, error) {
	return metrics.ByName(s.Scoring, s.Positive)
}

// SVM holds the SVM options, which are reported but not tuned.
type SVM struct {
	Enabled bool
	C       []float64
}

// Output names the files a run writes.
type Output struct {
	ModelOut   string
	ResultsCSV string
}

// Logging configures the logger.
type Logging struct {
	Level   string
	Console bool
}

// Tuning is a validated configuration. It is a value: copies share nothing
// that the holder of another copy can change.
type Tuning struct {
	Data    Data
	Labels  Labels
	Pyxit   pyxit.Params
	Grid    Grid
	CV      CV
	Search  Search
	SVM     SVM
	Output  Output
	Logging Logging
}

// Validate applies defaults and checks c, returning the resulting Tuning.
func (c *Config) Validate() (Tuning, error) {
	var t Tuning

	if c.Manifest == "" {
		return t, errors.Wrap(ErrInvalid, "--manifest is required")
	}
	t.Data = Data{
		Manifest:    c.Manifest,
		Dir:         orString(c.DirLS, "/tmp/ls"),
		WorkingPath: orString(c.WorkingPath, "/tmp"),
		ZoomLevel:   c.ZoomLevel,
		Filter: dataset.Filter{
			ReviewedOnly:        c.Reviewed,
			ExcludedAnnotations: copyStrings(c.ExcludedAnn),
			ExcludedTerms:       copyStrings(c.ExcludedTerm),
			SelectedUsers:       copyStrings(c.Users),
		},
	}
	if c.ZoomLevel < 0 {
		return t, errors.Wrapf(ErrInvalid, "zoom level %d < 0", c.ZoomLevel)
	}

	t.Labels = Labels{
		Binary:   c.Binary,
		Positive: copyStrings(c.PositiveTerms),
		Negative: copyStrings(c.NegativeTerms),
		Other:    copyStrings(c.OtherTerms),
	}
	if c.Binary && (len(c.PositiveTerms) == 0 || len(c.NegativeTerms) == 0) {
		return t, errors.Wrap(ErrInvalid, "--binary needs --positive-terms and --negative-terms")
	}
	for _, term := range append(append(copyStrings(c.PositiveTerms), c.NegativeTerms...), c.OtherTerms...) {
		if contains(c.ExcludedTerm, term) {
			return t, errors.Wrapf(ErrInvalid, "term %s is both excluded and mapped to a class", term)
		}
	}

	g := Grid{
		MinSizes:        orFloats(c.MinSize, DefaultMinSizes),
		MaxSizes:        orFloats(c.MaxSize, DefaultMaxSizes),
		MaxFeatures:     orInts(c.MaxFeatures, DefaultMaxFeatures),
		MinSamplesSplit: orInts(c.MinSamplesSplit, DefaultMinSamplesSplit),
		Colorspaces:     orInts(c.Colorspace, DefaultColorspaces),
	}
	g.WindowSizes = grid.BuildRanges(g.MinSizes, g.MaxSizes)
	for _, cs := range g.Colorspaces {
		if _, err := imaging.ParseColorspace(cs); err != nil {
			return t, errors.Wrap(ErrInvalid, err.Error())
		}
	}
	t.Grid = g

	p := pyxit.DefaultParams()
	p.TargetWidth = orInt(c.TargetWidth, p.TargetWidth)
	p.TargetHeight = orInt(c.TargetHeight, p.TargetHeight)
	p.NSubwindows = orInt(c.NSubwindows, p.NSubwindows)
	p.Interpolation = orInt(c.Interpolation, p.Interpolation)
	p.Transpose = c.Transpose
	p.FixedSize = c.FixedSize
	p.Seed = c.Seed
	p.Forest.NEstimators = orInt(c.NEstimators, p.Forest.NEstimators)
	p.Colorspace = g.Colorspaces[0]
	p.Forest.MaxFeatures = g.MaxFeatures[0]
	p.Forest.MinSamplesSplit = g.MinSamplesSplit[0]
	if len(g.WindowSizes) > 0 {
		p.MinSize, p.MaxSize = g.WindowSizes[0].Min, g.WindowSizes[0].Max
	}
	if err := p.Validate(); err != nil {
		return t, errors.Wrap(ErrInvalid, err.Error())
	}
	t.Pyxit = p

	t.CV = CV{ImagesOut: orInt(c.CVImagesOut, 1)}
	if c.CVImagesOut < 0 {
		return t, errors.Wrapf(ErrInvalid, "cv images out %d < 1", c.CVImagesOut)
	}

	t.Search = Search{
		Jobs:     orInt(c.Jobs, 1),
		FoldJobs: orInt(c.FoldJobs, 1),
		Scoring:  orString(c.Scoring, "accuracy"),
		Positive: orString(c.Positive, labels.Positive),
		Verbose:  c.Verbose,
	}
	if t.Search.Jobs < 1 || t.Search.FoldJobs < 1 {
		return t, errors.Wrapf(ErrInvalid, "job counts must be positive, got %d and %d", t.Search.Jobs, t.Search.FoldJobs)
	}
	if _, err := t.Search.Scorer(); err != nil {
		return t, errors.Wrap(ErrInvalid, err.Error())
	}

	t.SVM = SVM{Enabled: c.SVM != 0, C: orFloats(c.SVMC, DefaultSVMC)}
	t.Output = Output{ModelOut: c.ModelOut, ResultsCSV: c.ResultsCSV}
	t.Logging = Logging{Level: orString(c.LogLevel, "info"), Console: c.LogConsole}
	if c.Verbose && c.LogLevel == "" {
		t.Logging.Level = "debug"
	}
	return t, nil
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orInts(v, def []int) []int {
	if len(v) == 0 {
		v = def
	}
	return append([]int(nil), v...)
}

func orFloats(v, def []float64) []float64 {
	if len(v) == 0 {
		v = def
	}
	return append([]float64(nil), v...)
}

func copyStrings(v []string) []string {
	if len(v) == 0 {
		return nil
	}
	return append([]string(nil), v...)
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
