package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"vision_collage/pkg/clients/picsum"
	"vision_collage/pkg/config"
	"vision_collage/pkg/library"
	"vision_collage/pkg/loader"
	"vision_collage/pkg/logging"
	"vision_collage/pkg/metrics"
	imagerepo "vision_collage/pkg/repository/image"
	"vision_collage/pkg/store"
)

func main() {
	root := &cobra.Command{
		Use:           "vision-collage",
		Short:         "Pick random Picsum photos and compose them into a collage or wallpaper",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMakeCmd())

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// app bundles the components shared by every subcommand.
type app struct {
	cfg   config.Config
	reg   *metrics.Registry
	lib   *library.DirLibrary
	store *store.Store
}

func newApp(page func() int) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	reg := metrics.NewRegistry()
	client, err := picsum.NewFromConfig(cfg, reg)
	if err != nil {
		return nil, err
	}
	cache, err := imagerepo.NewMemoryCache(cfg.Loader.CacheSize, reg)
	if err != nil {
		return nil, err
	}
	lib, err := library.NewFromConfig(cfg, reg)
	if err != nil {
		return nil, err
	}

	st := store.New(loader.New(client, cache, reg), lib, reg, store.Options{
		PageLimit:    cfg.Picsum.PageLimit,
		WarmWorkers:  cfg.Loader.WarmWorkers,
		MaxSelection: cfg.Loader.MaxSelection,
		RandomPage:   page,
	})
	return &app{cfg: cfg, reg: reg, lib: lib, store: st}, nil
}
