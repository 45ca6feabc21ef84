package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"vcmpbrowser/internal/config"
	"vcmpbrowser/internal/httpapi"
	"vcmpbrowser/internal/logging"
	"vcmpbrowser/internal/present"
	"vcmpbrowser/internal/servers"
)

func main() {
	cfgPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var presenter servers.Presenter = present.NewLogPresenter(logger)
	if cfg.Output == config.OutputTable {
		presenter = present.NewTablePresenter(os.Stdout)
	}

	httpClient := &http.Client{Timeout: cfg.HTTP.RequestTimeout}
	cache := servers.NewDetailCache()

	enricher := servers.NewEnricher(
		servers.EnricherConfig{
			Workers:           cfg.Status.Workers,
			RequestsPerSecond: cfg.Status.RequestsPerSecond,
		},
		servers.NewStatusClient(cfg.Status.BaseURL, httpClient),
		cache,
		presenter,
		logger,
	)

	browser := servers.NewBrowser(servers.BrowserConfig{
		Masterlist: servers.NewMasterlistClient(cfg.Masterlist.URL, httpClient),
		Enricher:   enricher,
		Cache:      cache,
		Presenter:  presenter,
		Interval:   cfg.Masterlist.RefreshInterval,
		Filter: servers.Filter{
			Search:       cfg.Filter.Search,
			OfficialOnly: cfg.Filter.OfficialOnly,
		},
		Logger: logger,
	})

	// background workers
	go browser.Run(ctx)
	browser.StartJanitor(ctx, cfg.Cache.PruneInterval)

	srv, err := httpapi.NewServer(browser, logger)
	if err != nil {
		logger.Fatal("http server init failed", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.HTTP.Listen)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}
