// Package app wires the whole service: storage, clients, pipeline, worker
// pool, and the HTTP surface.
package app

import (
	"context"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/casepulse/casepulse-backend/internal/clients/courts"
	"github.com/casepulse/casepulse-backend/internal/clients/redis"
	"github.com/casepulse/casepulse-backend/internal/data/db"
	"github.com/casepulse/casepulse-backend/internal/data/repos"
	apphttp "github.com/casepulse/casepulse-backend/internal/http"
	"github.com/casepulse/casepulse-backend/internal/ingest"
	"github.com/casepulse/casepulse-backend/internal/ingest/pipeline"
	"github.com/casepulse/casepulse-backend/internal/jobs/runtime"
	"github.com/casepulse/casepulse-backend/internal/jobs/worker"
	"github.com/casepulse/casepulse-backend/internal/observability"
	"github.com/casepulse/casepulse-backend/internal/parser"
	"github.com/casepulse/casepulse-backend/internal/platform/gcp"
	"github.com/casepulse/casepulse-backend/internal/platform/logger"
	"github.com/casepulse/casepulse-backend/internal/services"
)

type App struct {
	Log    *logger.Logger
	DB     *gorm.DB
	Cfg    Config
	Repos  *repos.Repos
	Server *apphttp.Server

	worker       *worker.Worker
	docAI        gcp.Document
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := LoadConfig(log)
	if err := cfg.Validate(); err != nil {
		log.Sync()
		return nil, err
	}

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	reposet := repos.New(theDB, log)

	rdb, err := redis.NewClient()
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init redis: %w", err)
	}
	creds, err := redis.NewCredentialCache(log, rdb)
	if err != nil {
		log.Sync()
		return nil, err
	}
	searchBus, err := redis.NewSearchBus(log, rdb)
	if err != nil {
		log.Sync()
		return nil, err
	}
	alerts, err := services.NewAlertEnqueuer(log, rdb)
	if err != nil {
		log.Sync()
		return nil, err
	}

	bucket, err := gcp.NewBucketService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init bucket service: %w", err)
	}
	docAI, err := gcp.NewDocument(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init document ai: %w", err)
	}
	extractor, err := services.NewTextExtractor(log, reposet.Document, bucket, docAI)
	if err != nil {
		log.Sync()
		return nil, err
	}

	sessions, err := courts.NewHTTPSessionProvider(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init court client: %w", err)
	}
	reportParser, err := parser.NewHTTPParser(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init report parser: %w", err)
	}

	tracker := ingest.NewStatusTracker(reposet.Processing, reposet.Fetch, bucket, log)
	matcher := ingest.NewCaseMatcher(reposet.Case, log)
	merger := ingest.NewMerger(
		reposet.Entry,
		reposet.Document,
		reposet.Party,
		reposet.Claim,
		reposet.Originating,
		log,
	)

	pipe := pipeline.New(
		reposet,
		tracker,
		matcher,
		merger,
		reportParser,
		bucket,
		sessions,
		creds,
		searchBus,
		alerts,
		extractor,
		log,
	)

	pipeline.RegisterPolicies()
	registry := runtime.NewRegistry()
	if err := pipe.RegisterAll(registry); err != nil {
		log.Sync()
		return nil, fmt.Errorf("register task handlers: %w", err)
	}
	taskWorker := worker.NewWorker(theDB, log, reposet.WorkTask, registry)

	server := wireHTTP(log, cfg, bucket, reposet, creds, pipe.Dispatcher())

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Repos:        reposet,
		Server:       server,
		worker:       taskWorker,
		docAI:        docAI,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches the worker pool. Call once before Run.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.worker.Start(ctx)
}

// Run serves HTTP until the listener fails.
func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(a.Cfg.HTTPAddr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.docAI != nil {
		a.docAI.Close()
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
