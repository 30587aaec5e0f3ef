package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docdash/internal/adapters/driven/filestore"
	"github.com/custodia-labs/docdash/internal/adapters/driven/memory"
	"github.com/custodia-labs/docdash/internal/adapters/driven/postgres"
	postgresqueue "github.com/custodia-labs/docdash/internal/adapters/driven/queue/postgres"
	redisqueue "github.com/custodia-labs/docdash/internal/adapters/driven/queue/redis"
	redisadapter "github.com/custodia-labs/docdash/internal/adapters/driven/redis"
	"github.com/custodia-labs/docdash/internal/adapters/driving/http"
	"github.com/custodia-labs/docdash/internal/config"
	"github.com/custodia-labs/docdash/internal/core/domain"
	"github.com/custodia-labs/docdash/internal/core/ports/driven"
	"github.com/custodia-labs/docdash/internal/core/ports/driving"
	"github.com/custodia-labs/docdash/internal/core/services"
	"github.com/custodia-labs/docdash/internal/worker"
)

// backends holds the infrastructure chosen at startup
type backends struct {
	documents driven.DocumentStore
	chats     driven.ChatStore
	cache     driven.RowCache
	queue     driven.TaskQueue
	lock      driven.DistributedLock
	blobs     driven.BlobStore
	checks    []http.ReadinessCheck
	runtime   *domain.RuntimeConfig
	closers   []func() error
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			log.Printf("Warning: close failed: %v", err)
		}
	}
}

func run(cmd *cobra.Command, mode string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if mode == "" {
		mode = cfg.RunMode
	}

	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	log.Printf("docdash %s starting in %s mode", version, mode)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Received shutdown signal")
		cancel()
	}()

	b, err := connectBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	log.Printf("Runtime config: store=%s, cache=%s, queue=%s, lock=%s",
		b.runtime.StoreBackend, b.runtime.CacheBackend, b.runtime.QueueBackend, b.runtime.LockBackend)
	if n, err := b.documents.Count(ctx); err == nil {
		log.Printf("Document store holds %d documents", n)
	}

	analyzer := services.NewAnalyzer(services.AnalyzerConfig{
		Store:    b.documents,
		Blobs:    b.blobs,
		Cache:    b.cache,
		Lock:     b.lock,
		LockTTL:  cfg.LockTTL(),
		CacheTTL: cfg.CacheTTL(),
		Logger:   logger,
	})

	documentService := services.NewDocumentService(services.DocumentServiceConfig{
		Store:          b.documents,
		Blobs:          b.blobs,
		Cache:          b.cache,
		Chats:          b.chats,
		Queue:          b.queue,
		Lock:           b.lock,
		Analyzer:       analyzer,
		Logger:         logger,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		LockTTL:        cfg.LockTTL(),
	})

	chatService := services.NewChatService(services.ChatServiceConfig{
		Store:    b.documents,
		Blobs:    b.blobs,
		Cache:    b.cache,
		Chats:    b.chats,
		Logger:   logger,
		CacheTTL: cfg.CacheTTL(),
	})

	var sweeper *services.Sweeper
	switch {
	case mode == config.ModeAPI:
		// The sweeper runs on worker nodes only
	case cfg.SweeperEnabled:
		sweeper = services.NewSweeper(services.SweeperConfig{
			Store:        b.documents,
			TaskQueue:    b.queue,
			Analyzer:     analyzer,
			Lock:         b.lock,
			Logger:       logger,
			PollInterval: cfg.SweepInterval(),
		})
		log.Printf("Sweeper enabled (interval=%s)", cfg.SweepInterval())
	default:
		log.Println("Sweeper disabled via SWEEPER_ENABLED=false")
	}

	switch mode {
	case config.ModeAPI:
		return runAPI(cfg, logger, documentService, chatService, b.checks)

	case config.ModeWorker:
		runWorkerMode(ctx, cfg, logger, b.queue, analyzer, sweeper)
		return nil

	case config.ModeAll:
		go runWorkerMode(ctx, cfg, logger, b.queue, analyzer, sweeper)
		return runAPI(cfg, logger, documentService, chatService, b.checks)

	default:
		return fmt.Errorf("unknown mode: %s (use: api, worker, or all)", mode)
	}
}

// connectBackends picks Redis if available, otherwise PostgreSQL, otherwise
// in-process implementations, for each concern.
func connectBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	b := &backends{}
	storeBackend, cacheBackend := domain.BackendMemory, domain.BackendMemory
	queueBackend, lockBackend := domain.BackendNone, domain.BackendMemory

	var db *postgres.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = postgres.Connect(ctx, postgres.DefaultConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, fmt.Errorf("connect to PostgreSQL: %w", err)
		}
		b.closers = append(b.closers, db.Close)
		log.Println("Connected to PostgreSQL")

		if err := db.InitSchema(ctx); err != nil {
			b.Close()
			return nil, err
		}
		log.Println("Database schema initialized")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Printf("Warning: invalid REDIS_URL, using fallback backends: %v", err)
		} else {
			client := redis.NewClient(opts)
			if err := client.Ping(ctx).Err(); err != nil {
				log.Printf("Warning: Redis unavailable, using fallback backends: %v", err)
				_ = client.Close()
			} else {
				redisClient = client
				b.closers = append(b.closers, client.Close)
				log.Println("Connected to Redis")
			}
		}
	}

	// Document and chat history persistence
	if db != nil {
		store := postgres.NewDocumentStore(db)
		b.documents = store
		b.chats = postgres.NewChatStore(db)
		b.checks = append(b.checks, http.ReadinessCheck{Name: "store", Pinger: store})
		storeBackend = domain.BackendPostgres
	} else {
		store := memory.NewDocumentStore()
		b.documents = store
		b.chats = memory.NewChatStore()
		b.checks = append(b.checks, http.ReadinessCheck{Name: "store", Pinger: store})
		log.Println("Warning: DATABASE_URL not set, documents are kept in memory")
	}

	// Parsed row cache
	if redisClient != nil {
		cache := redisadapter.NewRowCache(redisClient)
		b.cache = cache
		b.checks = append(b.checks, http.ReadinessCheck{Name: "cache", Pinger: cache})
		cacheBackend = domain.BackendRedis
	} else {
		b.cache = memory.NewRowCache()
	}

	// Task queue: Redis if available, otherwise PostgreSQL, otherwise inline
	if redisClient != nil {
		q, err := redisqueue.NewQueue(ctx, redisClient, consumerName())
		if err != nil {
			log.Printf("Warning: Redis task queue unavailable: %v", err)
		} else {
			b.queue = q
			b.checks = append(b.checks, http.ReadinessCheck{Name: "queue", Pinger: q})
			queueBackend = domain.BackendRedis
			log.Println("Using Redis task queue")
		}
	}
	if b.queue == nil && db != nil {
		q := postgresqueue.NewQueue(db.DB)
		b.queue = q
		b.checks = append(b.checks, http.ReadinessCheck{Name: "queue", Pinger: q})
		queueBackend = domain.BackendPostgres
		log.Println("Using PostgreSQL task queue")
	}
	if b.queue == nil {
		log.Println("No task queue configured, uploads are analyzed inline")
	}

	// Per-document mutation lock
	switch {
	case redisClient != nil:
		b.lock = redisadapter.NewLock(redisClient)
		lockBackend = domain.BackendRedis
	case db != nil:
		b.lock = postgres.NewAdvisoryLock(db)
		lockBackend = domain.BackendPostgres
	default:
		b.lock = memory.NewLock()
	}

	blobs, err := filestore.NewOSStore(cfg.UploadsDir)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("open uploads dir: %w", err)
	}
	b.blobs = blobs
	log.Printf("Storing uploads in %s", cfg.UploadsDir)

	b.runtime = domain.NewRuntimeConfig(storeBackend, cacheBackend, queueBackend, lockBackend)
	return b, nil
}

func consumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "docdash"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

func runAPI(
	cfg *config.Config,
	logger *slog.Logger,
	documentService driving.DocumentService,
	chatService driving.ChatService,
	checks []http.ReadinessCheck,
) error {
	server := http.NewServer(http.Config{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        version,
		AllowedOrigins: cfg.Origins(),
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Logger:         logger,
	}, documentService, chatService, checks...)

	log.Printf("API server starting on %s:%d", cfg.Host, cfg.Port)
	if err := server.Start(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// runWorkerMode processes analysis tasks and sweeps stuck documents until
// ctx is cancelled. Without a queue only the sweeper runs.
func runWorkerMode(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	taskQueue driven.TaskQueue,
	analyzer *services.Analyzer,
	sweeper *services.Sweeper,
) {
	log.Println("Starting worker mode...")

	if taskQueue == nil {
		if sweeper == nil {
			log.Println("No task queue and sweeper disabled, worker has nothing to do")
			<-ctx.Done()
			return
		}
		if err := sweeper.Start(ctx); err != nil {
			log.Printf("Failed to start sweeper: %v", err)
			return
		}
		log.Println("No task queue configured, running the sweeper only")
		<-ctx.Done()
		sweeper.Stop()
		return
	}

	wcfg := worker.WorkerConfig{
		TaskQueue:      taskQueue,
		Analyzer:       analyzer,
		Logger:         logger,
		Concurrency:    cfg.WorkerConcurrency,
		DequeueTimeout: cfg.WorkerDequeueTimeout,
	}
	if sweeper != nil {
		wcfg.Background = sweeper
	}
	w := worker.NewWorker(wcfg)

	if err := w.Start(ctx); err != nil {
		log.Printf("Failed to start worker: %v", err)
		return
	}

	log.Println("Worker started, processing tasks...")
	log.Println("Worker handles:")
	log.Printf("  - %s: Count rows and pages of an uploaded document", domain.TaskTypeAnalyzeDocument)

	<-ctx.Done()

	healthCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if h := w.Health(healthCtx); h.Queue != nil {
		log.Printf("Queue at shutdown: pending=%d processing=%d failed=%d",
			h.Queue.PendingCount, h.Queue.ProcessingCount, h.Queue.FailedCount)
	}
	cancel()

	log.Println("Stopping worker...")
	w.Stop()
	log.Println("Worker stopped")
}
