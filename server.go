package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"collegedata-server-go/config"
	"collegedata-server-go/handlers"
)

// serve loads the catalog and runs the HTTP server until SIGINT or SIGTERM.
// Nothing is served before the catalog has loaded.
func serve(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) error {
	catalog, closeStore, err := openCatalog(ctx, cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Unable to initialize catalog")
		return err
	}
	defer closeStore()

	if strings.ToLower(cfg.Server.Mode) == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := handlers.NewRouter(catalog, lgr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		lgr.Info().Str("addr", srv.Addr).Msg("Server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(osSignals)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	case sig := <-osSignals:
		lgr.Info().Str("signal", sig.String()).Msg("Received OS signal, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	lgr.Info().Msg("Server stopped")
	return nil
}
