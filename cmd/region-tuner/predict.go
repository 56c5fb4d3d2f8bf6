package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ironsheep/region-tuner/internal/imaging"
	"github.com/ironsheep/region-tuner/internal/logging"
	"github.com/ironsheep/region-tuner/internal/region"
	"github.com/pkg/errors"
)

type predictArgs struct {
	Model       string `arg:"--model,required" help:"model written by tune --model-out"`
	Image       string `arg:"--image,required" help:"image file the polygon lies in"`
	ImageID     string `arg:"--image-id" help:"image identifier used in tile names [default: file name]"`
	WKT         string `arg:"--wkt,required" help:"polygon in WKT, in image pixel coordinates"`
	WorkingPath string `arg:"--working-path" help:"directory for tiles [default: /tmp]"`
	Detail      bool   `arg:"--detail" help:"also print the probabilities and tile path"`
	LogLevel    string `arg:"--log-level,env:REGION_TUNER_LOG_LEVEL" help:"debug, info, warn or error [default: info]"`
}

func runPredict(program string, args []string) error {
	a := predictArgs{WorkingPath: "/tmp"}
	if handled, err := parseArgs(program, args, &a); handled || err != nil {
		return err
	}
	log := logging.NewStderr(a.LogLevel, false)

	poly, err := region.ParseWKT(a.WKT)
	if err != nil {
		return errors.Wrap(err, "parsing --wkt")
	}
	id := a.ImageID
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(a.Image), filepath.Ext(a.Image))
	}

	adapter, err := openModel(a.Model, a.WorkingPath, imaging.NewImageCache(imaging.DefaultCacheSize))
	if err != nil {
		return err
	}
	pred, err := adapter.PredictDetail(region.FileImage{ImageID: id, Path: a.Image}, poly)
	if err != nil {
		return err
	}
	log.Debug().Str("tile", pred.Path).Bool("cached", pred.Cached).Msg("region classified")

	fmt.Println(pred.Label)
	if a.Detail {
		for i, c := range adapter.Classes() {
			fmt.Printf("  %-12s %.4f\n", c, pred.Probabilities[i])
		}
		fmt.Printf("  tile %s\n", pred.Path)
	}
	return nil
}
