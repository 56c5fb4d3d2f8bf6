package main

import (
	"fmt"

	"github.com/ironsheep/region-tuner/internal/artifact"
	"github.com/ironsheep/region-tuner/internal/config"
	"github.com/ironsheep/region-tuner/internal/dataset"
	"github.com/ironsheep/region-tuner/internal/imaging"
	"github.com/ironsheep/region-tuner/internal/labels"
	"github.com/ironsheep/region-tuner/internal/logging"
	"github.com/ironsheep/region-tuner/internal/pyxit"
	"github.com/ironsheep/region-tuner/internal/search"
	"github.com/pkg/errors"
)

func runTune(program string, args []string) error {
	cfg, p, err := config.Parse(program, args)
	if handled, err := handleParseError(p, err); handled || err != nil {
		return err
	}
	tun, err := cfg.Validate()
	if err != nil {
		return err
	}
	log := logging.NewStderr(tun.Logging.Level, tun.Logging.Console)

	if tun.SVM.Enabled {
		log.Warn().Floats64("svm_c", tun.SVM.C).Msg("SVM variant is not available, tuning the forest only")
	}
	if err := dataset.PrepareDir(tun.Data.WorkingPath, false); err != nil {
		return err
	}

	samples, err := dataset.Load(tun.Data.Manifest, tun.Data.Dir, tun.Data.Filter)
	if err != nil {
		return err
	}
	X, y, groups := dataset.Columns(samples)
	if m := tun.Labels.Mapper(); m != nil {
		if y, err = labels.MapAll(m, y); err != nil {
			return err
		}
	}
	log.Info().
		Str("manifest", tun.Data.Manifest).
		Str("dir", tun.Data.Dir).
		Int("zoom_level", tun.Data.ZoomLevel).
		Int("samples", len(X)).
		Msg("learning set loaded")

	scorer, err := tun.Search.Scorer()
	if err != nil {
		return err
	}
	cache := imaging.NewImageCache(len(X))
	tmpl := pyxit.Template{Base: tun.Pyxit, Cache: cache}

	report, err := search.Search(tmpl, tun.Grid.Build(),
		search.Dataset{X: X, Y: y, Groups: groups},
		tun.CV.Splitter(), scorer,
		search.Options{
			Jobs:     tun.Search.Jobs,
			FoldJobs: tun.Search.FoldJobs,
			Refit:    tun.Output.ModelOut != "",
			Logger:   &log,
		})
	if err != nil {
		return err
	}

	fmt.Printf("Best %s: %.6f over %d folds\n", report.Scorer, report.Best.Score, report.NFolds)
	fmt.Printf("Best parameters: %s\n", report.Best.Config)

	if path := tun.Output.ResultsCSV; path != "" {
		if err := writeResults(path, report); err != nil {
			return err
		}
		log.Info().Str("path", path).Int("rows", len(report.Results)).Msg("results written")
	}

	if path := tun.Output.ModelOut; path != "" {
		model, ok := report.BestEstimator.(artifact.Model)
		if !ok {
			return errors.Errorf("refitted estimator %T cannot be saved", report.BestEstimator)
		}
		if err := artifact.Write(path, model); err != nil {
			return err
		}
		log.Info().Str("path", path).Strs("classes", model.Classes()).Msg("model written")
	}
	return nil
}
