package metrics

import (
	"testing"

	"github.com/ironsheep/region-tuner/internal/labels"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedPredictor struct {
	out []string
	err error
}

func (f fixedPredictor) Predict(X []string) ([]string, error) {
	return f.out, f.err
}

func TestAccuracy(t *testing.T) {
	p := fixedPredictor{out: []string{"a", "b", "a", "a"}}
	s, err := Accuracy().Score(p, []string{"1", "2", "3", "4"}, []string{"a", "b", "b", "a"})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, s, 1e-12)
}

func TestPrecisionRecall(t *testing.T) {
	pos, neg := labels.Positive, labels.Negative
	truth := []string{pos, pos, neg, neg, pos}
	pred := fixedPredictor{out: []string{pos, neg, pos, neg, pos}}
	X := make([]string, len(truth))

	prec, err := Precision(pos).Score(pred, X, truth)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, prec, 1e-12)

	rec, err := Recall(pos).Score(pred, X, truth)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, rec, 1e-12)
}

func TestZeroDenominators(t *testing.T) {
	pred := fixedPredictor{out: []string{"n", "n"}}
	prec, err := Precision("p").Score(pred, []string{"", ""}, []string{"n", "n"})
	require.NoError(t, err)
	assert.Zero(t, prec)

	acc, err := Accuracy().Score(fixedPredictor{}, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, acc)
}

func TestScore_PredictError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Accuracy().Score(fixedPredictor{err: boom}, []string{"x"}, []string{"a"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}

func TestScore_LengthMismatch(t *testing.T) {
	_, err := Accuracy().Score(fixedPredictor{out: []string{"a"}}, []string{"x", "y"}, []string{"a", "b"})
	assert.Error(t, err)
}

func TestByName(t *testing.T) {
	for _, n := range []string{"accuracy", "Precision", "RECALL"} {
		s, err := ByName(n, "")
		require.NoError(t, err)
		assert.NotNil(t, s)
	}
	_, err := ByName("f1", "")
	assert.Error(t, err)
	assert.Equal(t, []string{"accuracy", "precision", "recall"}, Names())
}
