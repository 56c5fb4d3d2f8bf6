package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Window returns the rectangle of a tile with the given top-left offset and size.
func Window(offset image.Point, width, height int) image.Rectangle {
	return image.Rect(offset.X, offset.Y, offset.X+width, offset.Y+height)
}

// CropWindow extracts the window at offset with the given size.
//
// The window is clipped to the image bounds, so tiles of regions touching the
// border are smaller than requested. A window that does not overlap the image
// at all, or that has a non-positive size, is an error.
func CropWindow(img image.Image, offset image.Point, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid window size %dx%d", width, height)
	}
	bounds := img.Bounds()
	window := Window(offset, width, height)
	clipped := window.Intersect(bounds)
	if clipped.Empty() {
		return nil, fmt.Errorf("window %v outside image bounds %v", window, bounds)
	}
	return imaging.Crop(img, clipped), nil
}

// WriteTile encodes img as PNG at path.
//
// The image is written to a temporary file in the destination directory and
// renamed into place, so concurrent writers of the same path never expose a
// partially written file; the last rename wins. Missing parent directories
// are created.
func WriteTile(path string, img image.Image) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create tile directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tile-*.png")
	if err != nil {
		return fmt.Errorf("failed to create temporary tile: %w", err)
	}
	tmpName := tmp.Name()

	if err := imaging.Encode(tmp, img, imaging.PNG); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to encode tile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to flush tile: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move tile into place: %w", err)
	}
	return nil
}

// Interpolation codes accepted by ResampleFilter.
const (
	InterpolationNearest   = 1
	InterpolationBilinear  = 2
	InterpolationCubic     = 3
	InterpolationAntialias = 4
)

// ResampleFilter maps an interpolation code to a resampling filter.
func ResampleFilter(code int) (imaging.ResampleFilter, error) {
	switch code {
	case InterpolationNearest:
		return imaging.NearestNeighbor, nil
	case InterpolationBilinear:
		return imaging.Linear, nil
	case InterpolationCubic:
		return imaging.CatmullRom, nil
	case InterpolationAntialias:
		return imaging.Lanczos, nil
	default:
		return imaging.ResampleFilter{}, fmt.Errorf("unknown interpolation code %d", code)
	}
}

// Resize scales img to exactly width x height.
func Resize(img image.Image, width, height int, filter imaging.ResampleFilter) *image.NRGBA {
	return imaging.Resize(img, width, height, filter)
}

// Transform applies one of the eight square symmetries (0 = identity).
// Codes 1-3 rotate by 90, 180 and 270 degrees, 4-5 flip horizontally and
// vertically, 6-7 transpose and transverse.
func Transform(img image.Image, code int) *image.NRGBA {
	switch code % 8 {
	case 1:
		return imaging.Rotate90(img)
	case 2:
		return imaging.Rotate180(img)
	case 3:
		return imaging.Rotate270(img)
	case 4:
		return imaging.FlipH(img)
	case 5:
		return imaging.FlipV(img)
	case 6:
		return imaging.Transpose(img)
	case 7:
		return imaging.Transverse(img)
	default:
		return imaging.Clone(img)
	}
}
