// Package artifact reads and writes trained model files.
//
// An artifact is a JSON document compressed with snappy:
//
//	{"format": "region-tuner-model", "version": 1, "kind": "pyxit",
//	 "classes": ["NEGATIVE", "POSITIVE"], "estimator": {...}}
//
// The class sequence comes before the estimator and must match the classes
// the decoded estimator reports.
package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

// Format tags every artifact file.
const Format = "region-tuner-model"

// Version is the artifact layout written by Write.
const Version = 1

// ErrCorruptArtifact is returned when a file does not hold a readable artifact.
var ErrCorruptArtifact = errors.New("corrupt model artifact")

// Model is a trained classifier over file paths.
type Model interface {
	Kind() string
	Classes() []string
	PredictProba(X []string) ([][]float64, error)
}

// Artifact is the decoded envelope of a model file.
type Artifact struct {
	Format    string          `json:"format"`
	Version   int             `json:"version"`
	Kind      string          `json:"kind"`
	Classes   []string        `json:"classes"`
	Estimator json.RawMessage `json:"estimator"`
}

// Write stores m at path, replacing any existing file.
func Write(path string, m Model) error {
	est, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "encoding estimator")
	}
	body, err := json.Marshal(Artifact{
		Format:    Format,
		Version:   Version,
		Kind:      m.Kind(),
		Classes:   m.Classes(),
		Estimator: est,
	})
	if err != nil {
		return errors.Wrap(err, "encoding artifact")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating artifact directory")
	}
	tmp, err := os.CreateTemp(dir, ".model-*")
	if err != nil {
		return errors.Wrap(err, "creating artifact")
	}
	if _, err := tmp.Write(snappy.Encode(nil, body)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "writing artifact")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "writing artifact")
	}
	return errors.Wrap(os.Rename(tmp.Name(), path), "moving artifact into place")
}

// Read loads the envelope at path without decoding the estimator.
func Read(path string) (*Artifact, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading artifact %s", path)
	}
	body, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, errors.Wrapf(ErrCorruptArtifact, "%s: %v", path, err)
	}
	var a Artifact
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, errors.Wrapf(ErrCorruptArtifact, "%s: %v", path, err)
	}
	switch {
	case a.Format != Format:
		return nil, errors.Wrapf(ErrCorruptArtifact, "%s: format %q", path, a.Format)
	case a.Version != Version:
		return nil, errors.Wrapf(ErrCorruptArtifact, "%s: unsupported version %d", path, a.Version)
	case len(a.Classes) == 0:
		return nil, errors.Wrapf(ErrCorruptArtifact, "%s: no classes", path)
	case len(a.Estimator) == 0:
		return nil, errors.Wrapf(ErrCorruptArtifact, "%s: no estimator", path)
	}
	return &a, nil
}

// Decoder rebuilds a model from its estimator JSON.
type Decoder func(data []byte) (Model, error)

// Registry maps artifact kinds to decoders.
type Registry map[string]Decoder

// Decode rebuilds the model of a and checks it against a's class sequence.
func (r Registry) Decode(a *Artifact) (Model, error) {
	decode, ok := r[a.Kind]
	if !ok {
		return nil, errors.Wrapf(ErrCorruptArtifact, "unknown estimator kind %q", a.Kind)
	}
	m, err := decode(a.Estimator)
	if err != nil {
		return nil, errors.Wrapf(ErrCorruptArtifact, "%s estimator: %v", a.Kind, err)
	}
	if !equal(m.Classes(), a.Classes) {
		return nil, errors.Wrapf(ErrCorruptArtifact, "classes %v do not match estimator classes %v", a.Classes, m.Classes())
	}
	return m, nil
}

// Load reads path and decodes its model.
func (r Registry) Load(path string) (Model, error) {
	a, err := Read(path)
	if err != nil {
		return nil, err
	}
	return r.Decode(a)
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
