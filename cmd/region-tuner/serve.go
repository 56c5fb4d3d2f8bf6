package main

import (
	"github.com/ironsheep/region-tuner/internal/imaging"
	"github.com/ironsheep/region-tuner/internal/logging"
	"github.com/ironsheep/region-tuner/internal/pyxit"
	"github.com/ironsheep/region-tuner/internal/region"
	"github.com/ironsheep/region-tuner/internal/server"
)

type serveArgs struct {
	Model       string `arg:"--model" help:"model to serve; without it only image_load works"`
	WorkingPath string `arg:"--working-path" help:"directory for tiles [default: /tmp]"`
	CacheSize   int    `arg:"--cache-size" help:"decoded images kept in memory [default: 256]"`
	LogLevel    string `arg:"--log-level,env:REGION_TUNER_LOG_LEVEL" help:"debug, info, warn or error [default: info]"`
}

func runServe(program string, args []string) error {
	a := serveArgs{WorkingPath: "/tmp", CacheSize: imaging.DefaultCacheSize}
	if handled, err := parseArgs(program, args, &a); handled || err != nil {
		return err
	}
	// stdout carries the protocol
	log := logging.NewStderr(a.LogLevel, false)
	cache := imaging.NewImageCache(a.CacheSize)

	var adapter *region.Adapter
	if a.Model != "" {
		var err error
		if adapter, err = openModel(a.Model, a.WorkingPath, cache); err != nil {
			return err
		}
		log.Info().Str("model", a.Model).Strs("classes", adapter.Classes()).Msg("model loaded")
	}
	log.Debug().Str("version", Version).Str("build_time", BuildTime).Str("commit", GitCommit).Msg("starting server")

	srv := server.New(server.Options{
		Cache:     cache,
		Adapter:   adapter,
		ModelKind: pyxit.Kind,
		Version:   Version,
		Logger:    &log,
	})
	return srv.Run()
}
