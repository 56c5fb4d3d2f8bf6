package search

import (
	"fmt"

	"github.com/ironsheep/region-tuner/internal/grid"
)

// Estimator is a trainable classifier over sample identifiers.
type Estimator interface {
	Fit(X []string, y []string) error
	Predict(X []string) ([]string, error)
}

// Template builds independent estimators for grid points. Configure must not
// modify the template itself.
type Template interface {
	Configure(p grid.Point) (Estimator, error)
}

// TemplateFunc adapts a function to Template.
type TemplateFunc func(p grid.Point) (Estimator, error)

// Configure calls f.
func (f TemplateFunc) Configure(p grid.Point) (Estimator, error) { return f(p) }

// Phase names the step of a fold evaluation that failed.
type Phase string

// Phases of a fold evaluation.
const (
	PhaseConfigure Phase = "configure"
	PhaseFit       Phase = "fit"
	PhaseScore     Phase = "score"
	PhaseRefit     Phase = "refit"
)

// EstimatorFailure reports an estimator or scorer error during a search.
// Fold is -1 for failures outside a fold, such as a refit.
type EstimatorFailure struct {
	PointIndex int
	Point      grid.Point
	Fold       int
	Phase      Phase
	Err        error
}

func (e *EstimatorFailure) Error() string {
	if e.Fold < 0 {
		return fmt.Sprintf("grid point %d %s: %s: %v", e.PointIndex, e.Point, e.Phase, e.Err)
	}
	return fmt.Sprintf("grid point %d %s fold %d: %s: %v", e.PointIndex, e.Point, e.Fold, e.Phase, e.Err)
}

// Unwrap returns the underlying error.
func (e *EstimatorFailure) Unwrap() error { return e.Err }
