package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"SentiFeed/internal/classifier"
	"SentiFeed/internal/config"
	"SentiFeed/internal/infrastructure/broker"
	"SentiFeed/internal/infrastructure/feed"
	"SentiFeed/internal/infrastructure/scheduler"
	"SentiFeed/internal/infrastructure/storage"
	"SentiFeed/internal/logging"
	"SentiFeed/internal/metrics"
	"SentiFeed/internal/ports"
	"SentiFeed/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *sqlx.DB
	queues   *broker.Queues
	registry *prometheus.Registry

	crawler  *usecase.Crawler
	classify *usecase.ClassifyService
	requeuer *usecase.Requeuer
	stats    *usecase.StatsCalculator
}

// New builds a runnable application instance with all adapters connected.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	queues, err := broker.Connect(cfg.Broker.URL, baseLogger.With("component", "broker"))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect broker: %w", err)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	sources := storage.NewSourceStore(db)
	items := storage.NewNewsItemStore(db)
	corpus := storage.NewCorpusStore(db)
	statistics := storage.NewStatisticStore(db)

	crawler := usecase.NewCrawler(usecase.CrawlerDeps{
		Sources:        sources,
		Items:          items,
		Feeds:          feed.NewFetcher(nil, cfg.Crawler.UserAgent),
		Broker:         queues,
		Metrics:        collector,
		Logger:         baseLogger.With("component", "crawler"),
		ClassifyQueue:  cfg.Broker.ClassifyQueue,
		StaleThreshold: cfg.Crawler.StaleThreshold(),
		RequestsPerSec: cfg.Crawler.RequestsPerSec,
	})

	classify := usecase.NewClassifyService(usecase.ClassifyDeps{
		Items:           items,
		Corpus:          corpus,
		Broker:          queues,
		Trainer:         classifier.NewEngine(),
		Metrics:         collector,
		Logger:          baseLogger.With("component", "classify"),
		ClassifyQueue:   cfg.Broker.ClassifyQueue,
		TrainQueue:      cfg.Broker.TrainQueue,
		AutoPublish:     cfg.Classifier.AutoPublish,
		SnapshotPath:    cfg.Classifier.SnapshotPath,
		NotReadyBackoff: cfg.Classifier.NotReadyBackoff,
	})

	requeuer := usecase.NewRequeuer(usecase.RequeueDeps{
		Items:             items,
		Broker:            queues,
		Logger:            baseLogger.With("component", "requeue"),
		ClassifyQueue:     cfg.Broker.ClassifyQueue,
		PolarityThreshold: cfg.Classifier.PolarityThreshold,
	})

	stats := usecase.NewStatsCalculator(usecase.StatsDeps{
		Sources:       sources,
		Items:         items,
		Corpus:        corpus,
		Statistics:    statistics,
		Broker:        queues,
		Logger:        baseLogger.With("component", "stats"),
		ClassifyQueue: cfg.Broker.ClassifyQueue,
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		db:       db,
		queues:   queues,
		registry: registry,
		crawler:  crawler,
		classify: classify,
		requeuer: requeuer,
		stats:    stats,
	}, nil
}

// Close releases the database and broker connections.
func (a *Application) Close() {
	if a.queues != nil {
		a.queues.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// Run dispatches to the selected subcommand.
func (a *Application) Run(ctx context.Context, args []string) error {
	cmd, rest := ParseCommand(args)

	switch cmd {
	case CommandCrawl:
		name := ""
		if len(rest) > 0 {
			name = rest[0]
		}
		return a.crawler.CrawlPass(ctx, name)

	case CommandWatch:
		return a.watch(ctx)

	case CommandRequeue:
		_, err := a.requeuer.RequeueUnscored(ctx)
		return err

	case CommandTrainSelf:
		_, err := a.requeuer.RequeueNegative(ctx)
		return err

	case CommandStats:
		return a.stats.Calculate(ctx)

	default:
		return a.serve(ctx)
	}
}

// serve trains or restores the classifier and blocks on the consumer workers.
func (a *Application) serve(ctx context.Context) error {
	a.startMetrics()

	if err := a.classify.Initialize(ctx); err != nil {
		return err
	}

	return a.classify.Run(ctx)
}

// watch drives crawl passes on the configured interval.
func (a *Application) watch(ctx context.Context) error {
	var driver ports.Scheduler = scheduler.NewTickerScheduler(a.cfg.Crawler.Interval)

	job := func(at time.Time) {
		if err := a.crawler.CrawlPass(ctx, ""); err != nil {
			a.logger.Error("crawl pass failed", "at", at, "error", err)
		}
	}

	if err := driver.Start(ctx, job); err != nil {
		return err
	}
	<-ctx.Done()
	return driver.Stop(context.Background())
}

func (a *Application) startMetrics() {
	if a.cfg.Metrics.Addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(a.registry))
	go func() {
		if err := http.ListenAndServe(a.cfg.Metrics.Addr, mux); err != nil {
			a.logger.Error("metrics listener stopped", "error", err)
		}
	}()
}
