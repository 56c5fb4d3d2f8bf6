package pyxit

import (
	"image"
	"math/rand"

	"github.com/dgryski/go-spooky"
	"github.com/disintegration/imaging"

	imgutil "github.com/ironsheep/region-tuner/internal/imaging"
)

// imageSeed derives the sampling seed of one image from the estimator seed,
// so the subwindows of an image do not depend on which worker reads it.
func imageSeed(seed int64, path string) int64 {
	return int64(uint64(seed) ^ spooky.Hash64([]byte(path)))
}

// extractor draws feature vectors from images.
type extractor struct {
	p      Params
	filter imaging.ResampleFilter
	cs     imgutil.Colorspace
}

func newExtractor(p Params) (*extractor, error) {
	filter, err := imgutil.ResampleFilter(p.Interpolation)
	if err != nil {
		return nil, err
	}
	cs, err := imgutil.ParseColorspace(p.Colorspace)
	if err != nil {
		return nil, err
	}
	return &extractor{p: p, filter: filter, cs: cs}, nil
}

// windows returns NSubwindows feature vectors of img.
func (e *extractor) windows(img image.Image, rng *rand.Rand) [][]float64 {
	out := make([][]float64, e.p.NSubwindows)
	for i := range out {
		out[i] = e.window(img, rng)
	}
	return out
}

func (e *extractor) window(img image.Image, rng *rand.Rand) []float64 {
	b := img.Bounds()
	w, h := e.size(b.Dx(), b.Dy(), rng)

	x := b.Min.X
	if b.Dx() > w {
		x += rng.Intn(b.Dx() - w + 1)
	}
	y := b.Min.Y
	if b.Dy() > h {
		y += rng.Intn(b.Dy() - h + 1)
	}

	sub := imaging.Crop(img, image.Rect(x, y, x+w, y+h))
	if e.p.Transpose {
		sub = imgutil.Transform(sub, rng.Intn(8))
	}
	if sub.Bounds().Dx() != e.p.TargetWidth || sub.Bounds().Dy() != e.p.TargetHeight {
		sub = imgutil.Resize(sub, e.p.TargetWidth, e.p.TargetHeight, e.filter)
	}
	return imgutil.Features(sub, e.cs)
}

// size picks the subwindow dimensions, keeping the target aspect ratio and
// staying inside a width x height image.
func (e *extractor) size(width, height int, rng *rand.Rand) (int, int) {
	if e.p.FixedSize {
		return clamp(e.p.TargetWidth, width), clamp(e.p.TargetHeight, height)
	}
	side := width
	if height < side {
		side = height
	}
	r := e.p.MinSize + rng.Float64()*(e.p.MaxSize-e.p.MinSize)
	w := int(r * float64(side))
	h := int(float64(w) * float64(e.p.TargetHeight) / float64(e.p.TargetWidth))
	return clamp(w, width), clamp(h, height)
}

func clamp(v, limit int) int {
	if v < 1 {
		return 1
	}
	if v > limit {
		return limit
	}
	return v
}
