package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"PaperFeed/internal/config"
	"PaperFeed/internal/domain"
	"PaperFeed/internal/enrich"
	"PaperFeed/internal/httpapi"
	"PaperFeed/internal/infrastructure/llm"
	"PaperFeed/internal/infrastructure/parser"
	"PaperFeed/internal/infrastructure/scheduler"
	"PaperFeed/internal/infrastructure/storage"
	"PaperFeed/internal/infrastructure/telegram"
	"PaperFeed/internal/infrastructure/twitterapi"
	"PaperFeed/internal/ingest"
	"PaperFeed/internal/logging"
	"PaperFeed/internal/ports"
	"PaperFeed/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	repo      *storage.Repository
	fetcher   *usecase.Fetcher
	enricher  *usecase.Enricher
	scheduler *usecase.Scheduler
	server    *httpapi.Server
}

// New opens storage and builds every adapter the configuration enables.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	repo, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	var searcher ports.PostSearcher
	if cfg.Search.APIKey != "" {
		searcher = twitterapi.NewClient(cfg.Search.Endpoint, cfg.Search.APIKey, nil, cfg.Search.Timeout,
			baseLogger.With("component", "twitterapi"))
	} else {
		baseLogger.Warn("search api key not set; fetch requests will fail")
	}

	var completer ports.Completer
	if cfg.LLM.APIKey != "" {
		completer = llm.NewAnthropicClient(cfg.LLM)
	}

	var notifier ports.Notifier
	if tg := telegram.NewNotifier(cfg.Notifications.Telegram); tg.Enabled() {
		notifier = tg
	}

	fetcher := usecase.NewFetcher(usecase.PipelineDeps{
		Searcher:       searcher,
		Repository:     repo,
		Vocabulary:     vocabulary(cfg.Ingest),
		ExcludeReplies: cfg.Ingest.ExcludeReplies,
		QueryType:      cfg.Search.QueryType,
		Logger:         baseLogger.With("component", "fetcher"),
	})

	rewriter := usecase.NewRewriter(usecase.RewriterDeps{
		Completer:    completer,
		Papers:       repo,
		Notes:        repo,
		SystemPrompt: cfg.LLM.SystemPrompt,
		Logger:       baseLogger.With("component", "rewriter"),
	})

	publisher := usecase.NewPublisher(usecase.PublisherDeps{
		Notes:    repo,
		Records:  repo,
		Notifier: notifier,
		Delay:    cfg.Publish.SimulatedDelay,
		Logger:   baseLogger.With("component", "publisher"),
	})

	registry := enrich.NewRegistry()
	registry.Register(parser.NewArxivAbstract(&http.Client{Timeout: cfg.Enrich.Timeout}))
	enricher := usecase.NewEnricher(usecase.EnricherDeps{
		Registry:     registry,
		Papers:       repo,
		DefaultLimit: cfg.Enrich.BatchSize,
		Logger:       baseLogger.With("component", "enricher"),
	})
	baseLogger.Debug("abstract enrichment ready", "sources", registry.Len())

	catalog := usecase.NewCatalog(repo, repo, repo, nil)

	var sched *usecase.Scheduler
	if cfg.Scheduler.Enabled {
		driver := scheduler.NewIntervalScheduler(cfg.Scheduler.Interval, cfg.Scheduler.Location(), true)
		sched = usecase.NewScheduler(driver, fetcher, scheduledRequest(cfg.Scheduler), baseLogger.With("component", "scheduler"))
	}

	server := httpapi.New(httpapi.Services{
		Fetcher:   fetcher,
		Rewriter:  rewriter,
		Publisher: publisher,
		Catalog:   catalog,
		Enricher:  enricher,
		Health:    repo.Ping,
	}, baseLogger.With("component", "http"))

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		repo:      repo,
		fetcher:   fetcher,
		enricher:  enricher,
		scheduler: sched,
		server:    server,
	}, nil
}

// Handler exposes the HTTP API, mainly for tests.
func (a *Application) Handler() http.Handler {
	return a.server.Handler()
}

// FetchOnce runs a single admission pass with the scheduler defaults.
func (a *Application) FetchOnce(ctx context.Context) (usecase.FetchResult, error) {
	return a.fetcher.Fetch(ctx, scheduledRequest(a.cfg.Scheduler))
}

// EnrichOnce fills abstracts for one batch of papers.
func (a *Application) EnrichOnce(ctx context.Context) ([]domain.Paper, error) {
	return a.enricher.Enrich(ctx, 0)
}

// Run serves the API and the optional scheduler until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           a.server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	if a.scheduler != nil {
		if err := a.scheduler.Start(gctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		a.logger.Info("scheduler started", "interval", a.cfg.Scheduler.Interval)
	}

	g.Go(func() error {
		a.logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()

		var errs []error
		if a.scheduler != nil {
			if err := a.scheduler.Stop(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("stop scheduler: %w", err))
			}
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

// Close releases the storage connection.
func (a *Application) Close() error {
	return a.repo.Close()
}

// SetReleaseMode switches gin out of debug logging.
func SetReleaseMode() {
	gin.SetMode(gin.ReleaseMode)
}

func vocabulary(cfg config.IngestConfig) ingest.Vocabulary {
	vocab := ingest.DefaultVocabulary()
	if len(cfg.Topics) > 0 {
		vocab.Topics = cfg.Topics
	}
	if len(cfg.NoisePhrases) > 0 {
		vocab.NoisePhrases = cfg.NoisePhrases
	}
	return vocab
}

func scheduledRequest(cfg config.SchedulerConfig) usecase.FetchRequest {
	req := usecase.FetchRequest{
		MinLikes:   cfg.MinLikes,
		Keywords:   cfg.Keywords,
		MaxResults: cfg.MaxResults,
	}
	if cfg.SinceHours > 0 {
		hours := cfg.SinceHours
		req.SinceHours = &hours
	}
	return req
}
