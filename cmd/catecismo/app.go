package main

import (
	"context"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/catecismo-search/internal/config"
	"github.com/tbourn/catecismo-search/internal/dom"
	"github.com/tbourn/catecismo-search/internal/fetcher"
	"github.com/tbourn/catecismo-search/internal/highlight"
	"github.com/tbourn/catecismo-search/internal/locator"
	"github.com/tbourn/catecismo-search/internal/observability"
	"github.com/tbourn/catecismo-search/internal/repo"
	"github.com/tbourn/catecismo-search/internal/search"
	"github.com/tbourn/catecismo-search/internal/services"
	"github.com/tbourn/catecismo-search/internal/sysutil"
)

// app is the wired process: configuration, logger, storage and the Session.
type app struct {
	cfg     config.Config
	log     zerolog.Logger
	db      *gorm.DB
	fetcher *fetcher.Fetcher
	session *services.Session

	shutdownTracing observability.ShutdownFunc
}

// newApp loads configuration and wires every component. Logs go to logOut.
// reg receives the domain metrics; nil leaves them unregistered.
func newApp(ctx context.Context, logOut io.Writer, reg prometheus.Registerer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	sysutil.SetLogLevel(cfg.LogLevel)
	log := sysutil.NewLogger(logOut, cfg.LogPretty, cfg.OTEL.ServiceName)

	shutdown, err := observability.SetupTracing(ctx, cfg.OTEL, sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version))
	if err != nil {
		return nil, err
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}
	if err := repo.AutoMigrate(db); err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	opts := []search.Option{
		search.WithMinEntryRunes(cfg.Search.MinEntryLength),
		search.WithDedupMinText(cfg.Search.DedupMinText),
		search.WithMinTermRunes(cfg.Search.MinTermLength),
		search.WithPreviewWindow(cfg.Search.PreviewWindow),
	}

	f := fetcher.New(cfg.AssetsBase, cfg.FetchTimeout)
	store := repo.NewDocumentStore(db)
	parser := dom.NewHTMLParser()
	loc := locator.New(f, store, parser,
		locator.WithLogger(log.With().Str("component", "locator").Logger()),
		locator.WithHighlighter(highlight.New(cfg.Search.MinTermLength)),
		locator.WithFlashDuration(cfg.FlashDuration),
		locator.WithObserver(metrics),
	)

	s := &services.Session{
		DB:        db,
		Sources:   cfg.Documents,
		Loader:    f,
		Parser:    parser,
		Engine:    search.NewEngine(opts...),
		Locator:   loc,
		Cache:     store,
		Metrics:   metrics,
		Log:       log.With().Str("component", "session").Logger(),
		BuildOpt:  opts,
		StatusTTL: cfg.StatusTTL,
	}

	return &app{
		cfg:             cfg,
		log:             log,
		db:              db,
		fetcher:         f,
		session:         s,
		shutdownTracing: shutdown,
	}, nil
}

// localDocuments returns the filesystem paths of the configured documents
// that are not fetched over HTTP.
func (a *app) localDocuments() []string {
	var paths []string
	for _, src := range a.cfg.Documents {
		if !a.fetcher.IsLocal(src.URL) {
			continue
		}
		if p, err := a.fetcher.Resolve(src.URL); err == nil {
			paths = append(paths, p)
		}
	}
	return paths
}

func (a *app) close(ctx context.Context) {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if err := a.shutdownTracing(ctx); err != nil {
		a.log.Warn().Err(err).Msg("tracer shutdown")
	}
}
