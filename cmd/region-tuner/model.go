package main

import (
	"github.com/ironsheep/region-tuner/internal/artifact"
	"github.com/ironsheep/region-tuner/internal/dataset"
	"github.com/ironsheep/region-tuner/internal/imaging"
	"github.com/ironsheep/region-tuner/internal/pyxit"
	"github.com/ironsheep/region-tuner/internal/region"
)

// openModel builds a region adapter from a saved model. Tiles are cut from
// images loaded through cache and stored under workingPath.
func openModel(modelPath, workingPath string, cache *imaging.ImageCache) (*region.Adapter, error) {
	if err := dataset.PrepareDir(workingPath, false); err != nil {
		return nil, err
	}
	models := artifact.Registry{pyxit.Kind: pyxit.Decoder(cache)}
	return region.BuildFromArtifact(modelPath, region.CropTileBuilder{Cache: cache}, workingPath, models)
}
