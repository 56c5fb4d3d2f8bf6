// Package metrics provides scoring strategies for model selection.
package metrics

import (
	"sort"
	"strings"

	"github.com/ironsheep/region-tuner/internal/labels"
	"github.com/pkg/errors"
)

// Predictor is the part of an estimator a Scorer needs.
type Predictor interface {
	Predict(X []string) ([]string, error)
}

// Scorer rates a fitted predictor on held-out samples. Higher is better.
type Scorer interface {
	Name() string
	Score(p Predictor, X []string, y []string) (float64, error)
}

// ScorerFunc adapts a labelled comparison of truth and predictions to Scorer.
type ScorerFunc struct {
	ScorerName string
	Compare    func(truth, predicted []string) float64
}

// Name returns the scorer name.
func (f ScorerFunc) Name() string { return f.ScorerName }

// Score predicts X and compares the predictions with y.
func (f ScorerFunc) Score(p Predictor, X []string, y []string) (float64, error) {
	if len(X) != len(y) {
		return 0, errors.Errorf("%s: %d samples but %d labels", f.ScorerName, len(X), len(y))
	}
	predicted, err := p.Predict(X)
	if err != nil {
		return 0, errors.Wrapf(err, "%s: predict", f.ScorerName)
	}
	if len(predicted) != len(y) {
		return 0, errors.Errorf("%s: %d predictions for %d samples", f.ScorerName, len(predicted), len(y))
	}
	return f.Compare(y, predicted), nil
}

// Accuracy is the fraction of exact matches. An empty sample set scores 0.
func Accuracy() Scorer {
	return ScorerFunc{ScorerName: "accuracy", Compare: accuracy}
}

// Precision is tp / (tp + fp) for the positive label. No positive
// predictions scores 0.
func Precision(positive string) Scorer {
	return ScorerFunc{ScorerName: "precision", Compare: func(truth, predicted []string) float64 {
		tp, fp, _ := confusion(truth, predicted, positive)
		return ratio(tp, tp+fp)
	}}
}

// Recall is tp / (tp + fn) for the positive label. No positive samples scores 0.
func Recall(positive string) Scorer {
	return ScorerFunc{ScorerName: "recall", Compare: func(truth, predicted []string) float64 {
		tp, _, fn := confusion(truth, predicted, positive)
		return ratio(tp, tp+fn)
	}}
}

var registry = map[string]func(positive string) Scorer{
	"accuracy":  func(string) Scorer { return Accuracy() },
	"precision": Precision,
	"recall":    Recall,
}

// Names lists the registered scorer names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ByName returns the named scorer. An empty positive label defaults to labels.Positive.
func ByName(name, positive string) (Scorer, error) {
	mk, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, errors.Errorf("unknown scorer %q (want one of %s)", name, strings.Join(Names(), ", "))
	}
	if positive == "" {
		positive = labels.Positive
	}
	return mk(positive), nil
}

func accuracy(truth, predicted []string) float64 {
	var hit int
	for i := range truth {
		if truth[i] == predicted[i] {
			hit++
		}
	}
	return ratio(hit, len(truth))
}

func confusion(truth, predicted []string, positive string) (tp, fp, fn int) {
	for i := range truth {
		t, p := truth[i] == positive, predicted[i] == positive
		switch {
		case t && p:
			tp++
		case p:
			fp++
		case t:
			fn++
		}
	}
	return tp, fp, fn
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
