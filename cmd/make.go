package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"vision_collage/pkg/collage"
	"vision_collage/pkg/models"
)

type makeFlags struct {
	mode  string
	count int
	page  int
	out   string
	save  bool
}

func newMakeCmd() *cobra.Command {
	var f makeFlags
	cmd := &cobra.Command{
		Use:   "make",
		Short: "Fetch one page of images, compose them and write the result to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMake(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&f.mode, "mode", string(models.ModeGrid), "layout: grid or wallpaper")
	cmd.Flags().IntVar(&f.count, "count", collage.GridMax, "number of images to select")
	cmd.Flags().IntVar(&f.page, "page", 0, "Picsum page to use; 0 picks one at random")
	cmd.Flags().StringVarP(&f.out, "out", "o", "collage.png", "output file (.png, .jpg or .jpeg)")
	cmd.Flags().BoolVar(&f.save, "save", false, "also save the result to the photo library")
	return cmd
}

func runMake(ctx context.Context, f makeFlags) error {
	mode, err := models.ParseCollageMode(f.mode)
	if err != nil {
		return err
	}
	format, err := collage.ParseFormat(strings.TrimPrefix(filepath.Ext(f.out), "."))
	if err != nil {
		return err
	}
	if f.count < 1 {
		return fmt.Errorf("--count must be at least 1, got %d", f.count)
	}

	var page func() int
	if f.page > 0 {
		page = func() int { return f.page }
	}
	a, err := newApp(page)
	if err != nil {
		return err
	}
	ctx = log.Logger.WithContext(ctx)

	// fetch pages until enough images are available
	a.store.LoadNewBatch(ctx)
	for len(a.store.Snapshot().Images) < f.count {
		if len(a.store.LoadMore(ctx)) == 0 {
			break
		}
	}
	if len(a.store.Snapshot().Images) == 0 {
		return fmt.Errorf("no images available from %s", a.cfg.Picsum.URL)
	}

	for _, info := range a.store.Snapshot().Images {
		if len(a.store.Snapshot().Selected) >= f.count {
			break
		}
		if _, err := a.store.ToggleSelection(ctx, info.ID); err != nil {
			log.Warn().Err(err).Str("image_id", info.ID).Msg("image not selected")
			break
		}
	}

	img, err := a.store.GenerateCollage(ctx, mode)
	if err != nil {
		return err
	}

	file, err := os.Create(f.out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := collage.Encode(file, img, format); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	log.Info().Str("path", f.out).Str("mode", string(mode)).Msg("collage written")

	if f.save {
		id, err := a.store.SaveToLibrary(ctx)
		if err != nil {
			return err
		}
		log.Info().Str("asset_id", id).Str("path", a.lib.Path(id)).Msg("collage saved to photo library")
	}
	return nil
}
