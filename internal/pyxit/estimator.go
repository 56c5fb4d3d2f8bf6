package pyxit

import (
	"encoding/json"
	"math/rand"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/region-tuner/internal/artifact"
	"github.com/ironsheep/region-tuner/internal/forest"
	"github.com/ironsheep/region-tuner/internal/imaging"
)

// Estimator classifies image files. X values passed to Fit, Predict and
// PredictProba are image paths.
type Estimator struct {
	Params Params             `json:"params"`
	Labels []string           `json:"classes"`
	Forest *forest.Classifier `json:"forest"`

	cache *imaging.ImageCache
}

// New returns an untrained estimator reading images through cache. A nil
// cache gets a private one.
func New(p Params, cache *imaging.ImageCache) *Estimator {
	if cache == nil {
		cache = imaging.NewImageCache(imaging.DefaultCacheSize)
	}
	return &Estimator{Params: p, cache: cache}
}

// Decode restores an estimator from its JSON form.
func Decode(data []byte, cache *imaging.ImageCache) (*Estimator, error) {
	e := New(Params{}, cache)
	if err := json.Unmarshal(data, e); err != nil {
		return nil, errors.Wrap(err, "decoding pyxit estimator")
	}
	if e.Forest == nil {
		return nil, errors.New("pyxit estimator has no trained forest")
	}
	if err := e.Forest.Validate(); err != nil {
		return nil, errors.Wrap(err, "pyxit estimator")
	}
	if len(e.Labels) != e.Forest.NClasses {
		return nil, errors.Errorf("pyxit estimator has %d classes but forest has %d", len(e.Labels), e.Forest.NClasses)
	}
	if e.Forest.NFeatures != e.Params.NFeatures() {
		return nil, errors.Errorf("pyxit forest expects %d features, params produce %d", e.Forest.NFeatures, e.Params.NFeatures())
	}
	return e, nil
}

// Decoder returns an artifact decoder for pyxit estimators reading images through cache.
func Decoder(cache *imaging.ImageCache) artifact.Decoder {
	return func(data []byte) (artifact.Model, error) {
		e, err := Decode(data, cache)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
}

var _ artifact.Model = (*Estimator)(nil)

// Kind returns the artifact kind of the estimator.
func (e *Estimator) Kind() string { return Kind }

// Classes returns the class labels in probability column order.
func (e *Estimator) Classes() []string { return e.Labels }

// Fit trains the estimator on image paths X labeled y. Classes are the
// sorted distinct labels of y.
func (e *Estimator) Fit(X []string, y []string) error {
	if len(X) == 0 {
		return errors.New("pyxit: no training images")
	}
	if len(X) != len(y) {
		return errors.Errorf("pyxit: %d images but %d labels", len(X), len(y))
	}
	if err := e.Params.Validate(); err != nil {
		return err
	}
	ex, err := newExtractor(e.Params)
	if err != nil {
		return err
	}

	classes := distinct(y)
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}

	perImage, err := e.extractAll(ex, X)
	if err != nil {
		return err
	}
	features := make([][]float64, 0, len(X)*e.Params.NSubwindows)
	targets := make([]int, 0, len(X)*e.Params.NSubwindows)
	for i, windows := range perImage {
		for _, w := range windows {
			features = append(features, w)
			targets = append(targets, index[y[i]])
		}
	}

	fp := e.Params.Forest
	fp.Seed = e.Params.Seed
	fp.Jobs = e.Params.Jobs
	f := forest.New(fp)
	if err := f.Fit(features, targets, len(classes)); err != nil {
		return errors.Wrap(err, "pyxit: training forest")
	}
	e.Labels = classes
	e.Forest = f
	return nil
}

// PredictProba returns one class probability row per image, in Classes() order.
func (e *Estimator) PredictProba(X []string) ([][]float64, error) {
	if e.Forest == nil || !e.Forest.Trained() {
		return nil, errors.New("pyxit: estimator not trained")
	}
	ex, err := newExtractor(e.Params)
	if err != nil {
		return nil, err
	}
	perImage, err := e.extractAll(ex, X)
	if err != nil {
		return nil, err
	}

	out := make([][]float64, len(X))
	for i, windows := range perImage {
		row := make([]float64, len(e.Labels))
		for _, w := range windows {
			p, err := e.Forest.PredictProba(w)
			if err != nil {
				return nil, errors.Wrapf(err, "pyxit: image %s", X[i])
			}
			floats.Add(row, p)
		}
		floats.Scale(1/float64(len(windows)), row)
		out[i] = row
	}
	return out, nil
}

// Predict returns the most probable class of each image. Ties go to the
// class listed first.
func (e *Estimator) Predict(X []string) ([]string, error) {
	proba, err := e.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(proba))
	for i, row := range proba {
		out[i] = e.Labels[floats.MaxIdx(row)]
	}
	return out, nil
}

// extractAll loads every image and draws its subwindows, Params.Jobs images at a time.
func (e *Estimator) extractAll(ex *extractor, paths []string) ([][][]float64, error) {
	jobs := e.Params.Jobs
	if jobs < 1 {
		jobs = 1
	}
	out := make([][][]float64, len(paths))
	errs := make([]error, len(paths))
	sem := make(chan struct{}, jobs)
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()
			img, err := e.cache.Load(path)
			if err != nil {
				errs[i] = errors.Wrapf(err, "pyxit: image %d", i)
				return
			}
			rng := rand.New(rand.NewSource(imageSeed(e.Params.Seed, path)))
			out[i] = ex.windows(img, rng)
		}(i, path)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func distinct(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
