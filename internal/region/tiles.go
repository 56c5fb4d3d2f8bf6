package region

import (
	"image"

	"github.com/ironsheep/region-tuner/internal/imaging"
)

// Image is a source image regions are drawn from.
type Image interface {
	// ID identifies the image in tile file names.
	ID() string
}

// TileBuilder renders the window of img with the given top-left offset and size.
type TileBuilder interface {
	Tile(img Image, offset image.Point, width, height int) (image.Image, error)
}

// FileImage is an image stored on local disk.
type FileImage struct {
	ImageID string
	Path    string
}

// ID returns the image identifier.
func (f FileImage) ID() string { return f.ImageID }

// CropTileBuilder cuts tiles out of FileImages read through Cache.
type CropTileBuilder struct {
	Cache *imaging.ImageCache
}

// Tile crops the window, clipped to the image bounds.
func (b CropTileBuilder) Tile(img Image, offset image.Point, width, height int) (image.Image, error) {
	f, ok := img.(FileImage)
	if !ok {
		return nil, &UnsupportedImageError{Image: img}
	}
	src, err := b.Cache.Load(f.Path)
	if err != nil {
		return nil, err
	}
	tile, err := imaging.CropWindow(src, offset, width, height)
	if err != nil {
		return nil, err
	}
	return tile, nil
}
