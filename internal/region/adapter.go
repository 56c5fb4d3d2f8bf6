// Package region classifies polygonal regions of large images.
//
// An Adapter turns a polygon into the bounding-box tile of its image, writes
// the tile to a working directory under a name derived from the image and
// the window, and hands that file to a trained classifier.
package region

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/region-tuner/internal/artifact"
	"github.com/ironsheep/region-tuner/internal/imaging"
)

// ErrEmptyPolygon is returned for polygons without vertices.
var ErrEmptyPolygon = errors.New("polygon has no vertices")

// ErrInvalidImageID is returned for image identifiers that cannot name a
// tile file inside the working directory.
var ErrInvalidImageID = errors.New("invalid image id")

// Classifier predicts class probabilities for image files.
type Classifier interface {
	PredictProba(X []string) ([][]float64, error)
}

// Key identifies a tile: an image and a pixel window.
type Key struct {
	ImageID string `json:"image_id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// KeyFor returns the tile key of polygon p in image imageID. Identifiers
// containing a path separator, and "." or "..", fail with ErrInvalidImageID
// since tiles must stay inside the working directory. The window is
// pixel-inclusive: a box from minX to maxX spans int(maxX-minX)+1 pixels.
func KeyFor(imageID string, p Polygon) (Key, error) {
	if imageID == "." || imageID == ".." || strings.ContainsAny(imageID, `/\`) {
		return Key{}, errors.Wrapf(ErrInvalidImageID, "%q", imageID)
	}
	minX, minY, maxX, maxY, ok := p.Bounds()
	if !ok {
		return Key{}, ErrEmptyPolygon
	}
	return Key{
		ImageID: imageID,
		X:       int(minX),
		Y:       int(minY),
		Width:   int(maxX-minX) + 1,
		Height:  int(maxY-minY) + 1,
	}, nil
}

// Filename returns the tile file name, "{image}_{x}_{y}_{width}_{height}.png".
func (k Key) Filename() string {
	return fmt.Sprintf("%s_%d_%d_%d_%d.png", k.ImageID, k.X, k.Y, k.Width, k.Height)
}

func (k Key) String() string {
	return fmt.Sprintf("image %s window (%d,%d) %dx%d", k.ImageID, k.X, k.Y, k.Width, k.Height)
}

// PredictionError reports which tile a prediction failed for.
type PredictionError struct {
	Key Key
	Err error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("predicting %s: %v", e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *PredictionError) Unwrap() error { return e.Err }

// UnsupportedImageError is returned by tile builders for image types they cannot read.
type UnsupportedImageError struct {
	Image Image
}

func (e *UnsupportedImageError) Error() string {
	return fmt.Sprintf("unsupported image type %T", e.Image)
}

// Prediction is the outcome of classifying one region.
type Prediction struct {
	Label         string    `json:"label"`
	Key           Key       `json:"key"`
	Path          string    `json:"path"`
	Probabilities []float64 `json:"probabilities"`
	// Cached is true when the tile file already existed.
	Cached bool `json:"cached"`
}

// Adapter classifies polygons with a classifier that reads image files.
// It is safe for concurrent use when the classifier is.
type Adapter struct {
	classifier  Classifier
	tiles       TileBuilder
	classes     []string
	workingPath string
}

// NewAdapter returns an adapter mapping probability columns to classes and
// storing tiles under workingPath.
func NewAdapter(classifier Classifier, tiles TileBuilder, classes []string, workingPath string) *Adapter {
	return &Adapter{
		classifier:  classifier,
		tiles:       tiles,
		classes:     append([]string(nil), classes...),
		workingPath: workingPath,
	}
}

// BuildFromArtifact loads the model stored at artifactPath, decoding its
// estimator with models. Unreadable or inconsistent files fail with
// artifact.ErrCorruptArtifact.
func BuildFromArtifact(artifactPath string, tiles TileBuilder, workingPath string, models artifact.Registry) (*Adapter, error) {
	a, err := artifact.Read(artifactPath)
	if err != nil {
		return nil, err
	}
	m, err := models.Decode(a)
	if err != nil {
		return nil, err
	}
	return NewAdapter(m, tiles, a.Classes, workingPath), nil
}

// Classes returns the labels Predict chooses from.
func (a *Adapter) Classes() []string {
	return append([]string(nil), a.classes...)
}

// WorkingPath returns the tile directory.
func (a *Adapter) WorkingPath() string { return a.workingPath }

// Predict returns the most probable label of polygon p in img.
func (a *Adapter) Predict(img Image, p Polygon) (string, error) {
	pred, err := a.PredictDetail(img, p)
	if err != nil {
		return "", err
	}
	return pred.Label, nil
}

// PredictDetail classifies polygon p in img and reports the tile it used.
// The tile is rendered only when its file does not exist yet; ties between
// classes go to the one listed first.
func (a *Adapter) PredictDetail(img Image, p Polygon) (*Prediction, error) {
	key, err := KeyFor(img.ID(), p)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(a.workingPath, key.Filename())

	cached, err := exists(path)
	if err != nil {
		return nil, &PredictionError{Key: key, Err: err}
	}
	if !cached {
		tile, err := a.tiles.Tile(img, image.Pt(key.X, key.Y), key.Width, key.Height)
		if err != nil {
			return nil, &PredictionError{Key: key, Err: errors.Wrap(err, "building tile")}
		}
		if err := imaging.WriteTile(path, tile); err != nil {
			return nil, &PredictionError{Key: key, Err: err}
		}
	}

	proba, err := a.classifier.PredictProba([]string{path})
	if err != nil {
		return nil, &PredictionError{Key: key, Err: err}
	}
	if len(proba) != 1 || len(proba[0]) != len(a.classes) || len(a.classes) == 0 {
		return nil, &PredictionError{Key: key, Err: errors.Errorf("classifier returned %d rows for %d classes, want one row", len(proba), len(a.classes))}
	}
	row := proba[0]
	return &Prediction{
		Label:         a.classes[floats.MaxIdx(row)],
		Key:           key,
		Path:          path,
		Probabilities: row,
		Cached:        cached,
	}, nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
