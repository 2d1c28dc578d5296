package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"vision_collage/pkg/api"
	"vision_collage/pkg/middleware"
	"vision_collage/pkg/models"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	mode, err := models.ParseCollageMode(a.cfg.Loader.AutoRefreshMode)
	if err != nil {
		return err
	}

	server := echo.New()
	server.HideBanner = true
	server.HidePort = true
	server.Use(echomw.Recover())
	server.Use(middleware.RequestLogger(a.reg))
	api.NewHandlers(a.store).Register(server, a.reg)

	// first batch, like opening the app
	go a.store.LoadNewBatch(log.Logger.WithContext(ctx))
	go a.store.RunAutoRefresh(log.Logger.WithContext(ctx), a.cfg.Loader.AutoRefresh, mode)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", a.cfg.Address).Msg("http server listening")
		errCh <- server.Start(a.cfg.Address)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
