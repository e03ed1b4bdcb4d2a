package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	httpapi "github.com/tbourn/catecismo-search/internal/http"
	"github.com/tbourn/catecismo-search/internal/watch"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build the index and serve the HTTP API",
	Long: `Starts the HTTP API and builds the index in the background; the status
endpoint reports progress. With WATCH_ASSETS=true local documents are watched
and the index is rebuilt when they change.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := newApp(ctx, cmd.ErrOrStderr(), reg)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	gin.SetMode(a.cfg.GinMode)
	r := gin.New()
	if err := httpapi.RegisterRoutes(r, httpapi.Deps{Service: a.session, Logger: a.log, Registry: reg}, a.cfg); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           r,
		ReadTimeout:       a.cfg.ReadTimeout,
		ReadHeaderTimeout: a.cfg.ReadHeaderTimeout,
		WriteTimeout:      a.cfg.WriteTimeout,
		IdleTimeout:       a.cfg.IdleTimeout,
		MaxHeaderBytes:    a.cfg.MaxHeaderBytes,
	}

	go func() {
		if _, err := a.session.Rebuild(ctx); err != nil {
			a.log.Warn().Err(err).Msg("initial index build")
		}
	}()

	if a.cfg.WatchAssets {
		if err := startWatcher(ctx, a); err != nil {
			a.log.Warn().Err(err).Msg("asset watcher disabled")
		}
	}

	errc := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Str("version", version).Msg("http server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func startWatcher(ctx context.Context, a *app) error {
	w, err := watch.New(a.localDocuments(), a.session,
		watch.WithLogger(a.log.With().Str("component", "watch").Logger()),
	)
	if err != nil {
		return err
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			a.log.Error().Err(err).Msg("asset watcher stopped")
		}
	}()
	return nil
}
