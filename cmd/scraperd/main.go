package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	collyagent "github.com/pagehound/scraperd/internal/agent/colly"
	headlessagent "github.com/pagehound/scraperd/internal/agent/headless"
	"github.com/pagehound/scraperd/internal/api"
	"github.com/pagehound/scraperd/internal/archive"
	"github.com/pagehound/scraperd/internal/clock/system"
	"github.com/pagehound/scraperd/internal/config"
	"github.com/pagehound/scraperd/internal/hash/sha256"
	"github.com/pagehound/scraperd/internal/history"
	"github.com/pagehound/scraperd/internal/id/uuid"
	"github.com/pagehound/scraperd/internal/logging"
	"github.com/pagehound/scraperd/internal/memory"
	"github.com/pagehound/scraperd/internal/metrics"
	"github.com/pagehound/scraperd/internal/orchestrator"
	"github.com/pagehound/scraperd/internal/policy/ratelimit"
	"github.com/pagehound/scraperd/internal/progress"
	"github.com/pagehound/scraperd/internal/progress/sinks"
	pubsubpublisher "github.com/pagehound/scraperd/internal/publisher/pubsub"
	"github.com/pagehound/scraperd/internal/scraper"
	snapshotgcs "github.com/pagehound/scraperd/internal/snapshot/gcs"
	snapshotlocal "github.com/pagehound/scraperd/internal/snapshot/local"
	snapshotmemory "github.com/pagehound/scraperd/internal/snapshot/memory"
	"github.com/pagehound/scraperd/internal/tools"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := system.New()
	idGen := uuid.New()
	store := memory.NewStore(clock, memory.Config{
		MinSamples: cfg.Memory.MinSamples,
		MaxAge:     cfg.MemoryMaxAge(),
		MaxEntries: cfg.Memory.MaxEntries,
	})
	log := history.NewLog(cfg.History.Capacity)
	registry := tools.NewDefaultRegistry(store, log)
	limiter := ratelimit.New(ratelimit.Config{
		DefaultRPS:   cfg.RateLimit.RPS,
		DefaultBurst: cfg.RateLimit.Burst,
	})

	var agent scraper.Agent
	switch cfg.Agent.Provider {
	case "headless":
		headlessAgent, err := headlessagent.New(headlessagent.Config{
			MaxParallel:       cfg.Headless.MaxParallel,
			UserAgent:         cfg.Agent.UserAgent,
			NavigationTimeout: time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
		}, store, logging.ForComponent(logger, "agent"))
		if err != nil {
			logger.Warn("headless agent init failed", zap.Error(err))
		} else {
			defer headlessAgent.Close()
			agent = headlessAgent
		}
	default:
		agent = collyagent.New(collyagent.Config{
			UserAgent: cfg.Agent.UserAgent,
			Timeout:   time.Duration(cfg.Agent.TimeoutSeconds) * time.Second,
		}, store, logging.ForComponent(logger, "agent"))
	}

	var outcomeArchive scraper.OutcomeWriter
	if cfg.DB.DSN != "" {
		writer, err := archive.NewPostgresWriter(ctx, archive.Config{
			DSN:   cfg.DB.DSN,
			Table: cfg.DB.Table,
		})
		if err != nil {
			logger.Warn("outcome archive init failed", zap.Error(err))
		} else {
			defer writer.Close()
			outcomeArchive = writer
		}
	}

	var publisher scraper.Publisher
	if cfg.PubSub.ProjectID != "" && cfg.PubSub.TopicName != "" {
		pub, err := pubsubpublisher.Connect(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicName)
		if err != nil {
			logger.Warn("pubsub publisher init failed", zap.Error(err))
		} else {
			defer pub.Close()
			publisher = pub
		}
	}

	snapshots := buildSnapshotStore(ctx, cfg, logger)

	hub := progress.NewHub(progress.Config{
		Logger: logging.ForComponent(logger, "progress"),
	}, sinks.NewLogSink(logging.ForComponent(logger, "progress")))

	orch := orchestrator.New(
		agent,
		store,
		log,
		outcomeArchive,
		publisher,
		snapshots,
		limiter,
		clock,
		idGen,
		sha256.New(),
		hub,
		orchestrator.Config{
			Concurrency:    cfg.Orchestrator.Concurrency,
			ScrapeTimeout:  cfg.ScrapeTimeout(),
			Topic:          cfg.PubSub.TopicName,
			SnapshotPrefix: cfg.Snapshot.Prefix,
		},
		logging.ForComponent(logger, "orchestrator"),
	)

	apiServer := api.NewServer(orch, store, log, registry, clock, cfg, logging.ForComponent(logger, "api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	grace := time.Duration(cfg.Orchestrator.ShutdownGraceSecs) * time.Second
	if grace <= 0 {
		grace = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	if err := hub.Close(shutdownCtx); err != nil {
		logger.Error("progress hub close error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func buildSnapshotStore(ctx context.Context, cfg config.Config, logger *zap.Logger) scraper.BlobStore {
	switch cfg.Snapshot.Provider {
	case "memory":
		return snapshotmemory.NewBlobStore()
	case "local":
		store, err := snapshotlocal.New(snapshotlocal.Config{BaseDir: cfg.Snapshot.BaseDir})
		if err != nil {
			logger.Warn("local snapshot store init failed", zap.Error(err))
			return nil
		}
		return store
	case "gcs":
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			logger.Warn("gcs client init failed", zap.Error(err))
			return nil
		}
		store, err := snapshotgcs.New(client, snapshotgcs.Config{Bucket: cfg.Snapshot.GCSBucket})
		if err != nil {
			logger.Warn("gcs snapshot store init failed", zap.Error(err))
			return nil
		}
		return store
	default:
		return nil
	}
}
