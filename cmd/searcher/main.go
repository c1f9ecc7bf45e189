package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/corpus"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/loader"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-server/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/resilience"
	"github.com/prometheus/client_golang/prometheus"
)

const loadTimeout = 2 * time.Minute

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if err := run(cfg); err != nil {
		slog.Error("search server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("search server stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defaultStatus, err := index.ParseStatus(cfg.Search.DefaultStatus)
	if err != nil {
		return err
	}
	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, prometheus.DefaultGatherer)
		defer shutdownMetrics(context.Background())
	}

	engine := indexer.NewEngine(indexer.WithMetrics(m))
	if err := engine.SetStopWords(cfg.Search.StopWords...); err != nil {
		return fmt.Errorf("configuring stop words: %w", err)
	}
	slog.Info("starting search server", "port", cfg.Server.Port, "stop_words", len(cfg.Search.StopWords))

	checker := health.NewChecker()
	checker.Register("index", func(context.Context) health.ComponentHealth {
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents", engine.DocumentCount()),
		}
	})

	if cfg.Search.CorpusFile != "" {
		c, err := corpus.LoadFile(cfg.Search.CorpusFile)
		if err != nil {
			return err
		}
		if _, err := c.Apply(engine, defaultStatus); err != nil {
			return err
		}
	}

	if cfg.Postgres.Enabled {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer db.Close()
		checker.Register("postgres", health.PingCheck(db.Ping, health.StatusDegraded))
		err = resilience.WithTimeout(ctx, loadTimeout, "postgres-load", func(ctx context.Context) error {
			_, err := loader.New(db).Load(ctx, engine, defaultStatus)
			return err
		})
		if err != nil {
			return fmt.Errorf("loading documents from postgres: %w", err)
		}
	}

	var queryCache *cache.QueryCache
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
			checker.Register("redis", func(context.Context) health.ComponentHealth {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: "not connected"}
			})
		} else {
			defer redisClient.Close()
			// Entries left by earlier processes sit in other namespaces and
			// expire with their TTL.
			queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, m)
			checker.Register("redis", health.PingCheck(redisClient.Ping, health.StatusDegraded))
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	var publisher analytics.Publisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents)
		defer producer.Close()
		publisher = producer
	}
	collectorCtx, stopCollector := context.WithCancel(context.Background())
	collector := analytics.NewCollector(analytics.NewAggregator(), publisher, analytics.CollectorConfig{
		BufferSize:    cfg.Analytics.BufferSize,
		BatchSize:     cfg.Analytics.BatchSize,
		FlushInterval: cfg.Analytics.FlushInterval,
	})
	collector.Start(collectorCtx)
	defer func() {
		stopCollector()
		collector.Close()
	}()

	engine.OnIndexed(func(doc index.Document) {
		if queryCache != nil {
			if err := queryCache.Invalidate(context.Background()); err != nil {
				slog.Warn("cache invalidation failed", "doc_id", doc.ID, "error", err)
			}
		}
		collector.TrackIndex(analytics.IndexEvent{
			Type:       analytics.EventIndexDoc,
			DocumentID: doc.ID,
			Status:     doc.Status.String(),
			TermCount:  len(doc.Terms),
			Rating:     doc.Rating,
			Timestamp:  time.Now().UTC(),
		})
	})

	consumerDone := make(chan struct{})
	if cfg.Kafka.Enabled {
		// The index lives in memory, so every start reads the ingest topic
		// from the beginning under a group of its own.
		ic := consumer.New(kafka.NewReplayConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest,
			consumer.HandleMessage(engine, defaultStatus)))
		go func() {
			defer close(consumerDone)
			if err := ic.Start(ctx); err != nil {
				slog.Error("index consumer stopped", "error", err)
			}
			ic.Close()
		}()
		slog.Info("index consumer started", "topic", cfg.Kafka.Topics.DocumentIngest)
		checker.Register("kafka", func(context.Context) health.ComponentHealth {
			select {
			case <-consumerDone:
				return health.ComponentHealth{Status: health.StatusDegraded, Message: "index consumer stopped"}
			default:
				return health.ComponentHealth{Status: health.StatusUp, Message: "index consumer active"}
			}
		})
	} else {
		close(consumerDone)
	}

	mux := http.NewServeMux()
	handler.New(engine, executor.New(engine), queryCache, collector, m, defaultStatus).Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	mws := []func(http.Handler) http.Handler{middleware.RequestID, middleware.Metrics(m)}
	if len(cfg.Server.CORSOrigins) > 0 {
		mws = append(mws, middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.CORSOrigins...)))
	}
	if cfg.Server.RateLimit > 0 {
		limiter := middleware.NewLimiter(cfg.Server.RateLimit, time.Minute)
		go limiter.Cleanup(ctx, 5*time.Minute)
		mws = append(mws, middleware.RateLimit(limiter))
	}
	mws = append(mws, middleware.Timeout(cfg.Server.WriteTimeout))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      middleware.Chain(mux, mws...),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search server listening", "addr", server.Addr, "documents", engine.DocumentCount())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		stop()
		<-consumerDone
		return err
	}
	<-consumerDone
	return nil
}
