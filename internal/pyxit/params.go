// Package pyxit implements a random subwindow image classifier.
//
// Each training image contributes a number of randomly sized and placed
// subwindows. Every subwindow is resized to a fixed target size, converted to
// a colorspace and flattened into a feature vector labeled with the image's
// class. An extremely randomized trees forest is trained on those vectors. An
// image is classified by averaging the forest's class probabilities over its
// own subwindows.
package pyxit

import (
	"github.com/pkg/errors"

	"github.com/ironsheep/region-tuner/internal/forest"
	"github.com/ironsheep/region-tuner/internal/imaging"
)

// Kind identifies pyxit estimators in model artifacts.
const Kind = "pyxit"

// ErrInvalidParams is returned for parameter sets no estimator can be built from.
var ErrInvalidParams = errors.New("invalid pyxit parameters")

// Params configure subwindow extraction and the underlying forest.
type Params struct {
	// NSubwindows is the number of subwindows drawn per image.
	NSubwindows int `json:"n_subwindows" yaml:"n_subwindows"`
	// MinSize and MaxSize bound the subwindow side as a proportion of the
	// image's smaller side.
	MinSize float64 `json:"min_size" yaml:"min_size"`
	MaxSize float64 `json:"max_size" yaml:"max_size"`
	// TargetWidth and TargetHeight are the dimensions subwindows are resized to.
	TargetWidth  int `json:"target_width" yaml:"target_width"`
	TargetHeight int `json:"target_height" yaml:"target_height"`
	// Interpolation is an imaging interpolation code (1-4).
	Interpolation int `json:"interpolation" yaml:"interpolation"`
	// Transpose applies a random square symmetry to each subwindow.
	Transpose bool `json:"transpose" yaml:"transpose"`
	// Colorspace is an imaging colorspace code (0-3).
	Colorspace int `json:"colorspace" yaml:"colorspace"`
	// FixedSize extracts windows of exactly the target size without resizing.
	FixedSize bool `json:"fixed_size" yaml:"fixed_size"`
	// Seed makes subwindow sampling and forest training reproducible.
	Seed int64 `json:"seed" yaml:"seed"`
	// Jobs bounds the images processed concurrently.
	Jobs int `json:"-" yaml:"-"`

	Forest forest.Params `json:"forest" yaml:"forest"`
}

// DefaultParams returns the parameters used when nothing else is configured.
func DefaultParams() Params {
	return Params{
		NSubwindows:   10,
		MinSize:       0.1,
		MaxSize:       0.9,
		TargetWidth:   16,
		TargetHeight:  16,
		Interpolation: imaging.InterpolationBilinear,
		Colorspace:    int(imaging.HSV),
		Forest: forest.Params{
			NEstimators:     10,
			MaxFeatures:     16,
			MinSamplesSplit: 1,
		},
	}
}

// Validate reports the first inconsistent parameter.
func (p Params) Validate() error {
	switch {
	case p.NSubwindows < 1:
		return errors.Wrapf(ErrInvalidParams, "n_subwindows %d < 1", p.NSubwindows)
	case p.TargetWidth < 1 || p.TargetHeight < 1:
		return errors.Wrapf(ErrInvalidParams, "target size %dx%d", p.TargetWidth, p.TargetHeight)
	case !p.FixedSize && (p.MinSize <= 0 || p.MaxSize > 1 || p.MinSize > p.MaxSize):
		return errors.Wrapf(ErrInvalidParams, "window size range (%g,%g) outside (0,1]", p.MinSize, p.MaxSize)
	case p.Forest.NEstimators < 1:
		return errors.Wrapf(ErrInvalidParams, "n_estimators %d < 1", p.Forest.NEstimators)
	}
	if _, err := imaging.ResampleFilter(p.Interpolation); err != nil {
		return errors.Wrap(ErrInvalidParams, err.Error())
	}
	if _, err := imaging.ParseColorspace(p.Colorspace); err != nil {
		return errors.Wrap(ErrInvalidParams, err.Error())
	}
	return nil
}

// NFeatures returns the length of one subwindow feature vector.
func (p Params) NFeatures() int {
	return p.TargetWidth * p.TargetHeight * imaging.Colorspace(p.Colorspace).Channels()
}
