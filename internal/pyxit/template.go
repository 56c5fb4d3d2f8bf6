package pyxit

import (
	"github.com/pkg/errors"

	"github.com/ironsheep/region-tuner/internal/grid"
	"github.com/ironsheep/region-tuner/internal/imaging"
	"github.com/ironsheep/region-tuner/internal/search"
)

// Grid axis names understood by Template.
const (
	AxisWindowSizes     = "window_sizes"
	AxisMaxFeatures     = "max_features"
	AxisMinSamplesSplit = "min_samples_split"
	AxisColorspace      = "colorspace"
	AxisNEstimators     = "n_estimators"
	AxisNSubwindows     = "n_subwindows"
)

// ErrUnknownAxis is returned for grid points naming a parameter Template cannot set.
var ErrUnknownAxis = errors.New("unknown grid axis")

// Template builds estimators from Base overridden by grid point values.
type Template struct {
	Base  Params
	Cache *imaging.ImageCache
}

var _ search.Template = Template{}

// Configure returns a fresh estimator for p.
func (t Template) Configure(p grid.Point) (search.Estimator, error) {
	params, err := t.Apply(p)
	if err != nil {
		return nil, err
	}
	return New(params, t.Cache), nil
}

// Apply returns Base with the values of p applied and validated.
func (t Template) Apply(p grid.Point) (Params, error) {
	params := t.Base
	for _, name := range p.Names() {
		v, _ := p.Get(name)
		if err := set(&params, name, v); err != nil {
			return Params{}, err
		}
	}
	if err := params.Validate(); err != nil {
		return Params{}, err
	}
	return params, nil
}

func set(p *Params, name string, v interface{}) error {
	if name == AxisWindowSizes {
		r, ok := v.(grid.SizeRange)
		if !ok {
			return errors.Errorf("axis %s: value %v is %T, want grid.SizeRange", name, v, v)
		}
		p.MinSize, p.MaxSize = r.Min, r.Max
		return nil
	}

	var target *int
	switch name {
	case AxisMaxFeatures:
		target = &p.Forest.MaxFeatures
	case AxisMinSamplesSplit:
		target = &p.Forest.MinSamplesSplit
	case AxisColorspace:
		target = &p.Colorspace
	case AxisNEstimators:
		target = &p.Forest.NEstimators
	case AxisNSubwindows:
		target = &p.NSubwindows
	default:
		return errors.Wrap(ErrUnknownAxis, name)
	}
	n, err := asInt(v)
	if err != nil {
		return errors.Wrapf(err, "axis %s", name)
	}
	*target = n
	return nil
}

func asInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, errors.Errorf("value %g is not integral", n)
		}
		return int(n), nil
	}
	return 0, errors.Errorf("value %v is %T, want an integer", v, v)
}
