package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/normatext/internal/api"
	"github.com/dgallion1/normatext/internal/compliance"
	"github.com/dgallion1/normatext/internal/config"
	"github.com/dgallion1/normatext/internal/lemma"
	"github.com/dgallion1/normatext/internal/parser"
	"github.com/dgallion1/normatext/internal/pipeline"
	"github.com/dgallion1/normatext/internal/rules"
	"github.com/dgallion1/normatext/internal/stats"
	"github.com/dgallion1/normatext/internal/store"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Rules and lemma service.
	ruleSet := rules.Default()
	if cfg.RulesFile != "" {
		var err error
		if ruleSet, err = rules.LoadFile(cfg.RulesFile); err != nil {
			log.Error("failed to load rules", "path", cfg.RulesFile, "error", err)
			os.Exit(1)
		}
	}
	lemmaOpts := lemma.Options{
		DictPath:   cfg.LemmaDictPath,
		ServiceURL: cfg.LemmaServiceURL,
		APIKey:     cfg.LemmaAPIKey,
		Timeout:    cfg.LemmaTimeout,
		CacheSize:  cfg.LemmaCacheSize,
	}
	lemmas, closeLemmas, err := lemma.Open(lemmaOpts)
	if err != nil {
		log.Error("failed to open lemma service", "error", err)
		os.Exit(1)
	}
	engine := compliance.New(lemmas, ruleSet, log)

	// Report history.
	var reports store.Store = store.NewMemory()
	if cfg.DatabaseURL != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("database unavailable", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pg := store.NewPostgres(db)
		if err := pg.Migrate(ctx); err != nil {
			log.Error("database migration failed", "error", err)
			os.Exit(1)
		}
		reports = pg
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, engine, pipeline.WorkerConfig{
		Reports:      reports,
		Latency:      stats.NewLatency(time.Hour),
		ParseOptions: parser.Options{FallbackPdftotext: cfg.PDFFallbackPdftotext},
		ReportMaxAge: cfg.ReportMaxAge,
		LemmaSource:  lemmaOpts.Source(),
	}, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()

		closeLemmas()
	}()

	log.Info("starting normatext", "port", cfg.Port, "database", cfg.DatabaseURL != "", "remote_lemmas", cfg.LemmaServiceURL != "")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
