package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ens-market-context/internal/activitysync"
	"ens-market-context/internal/analysis"
	"ens-market-context/internal/cache"
	"ens-market-context/internal/config"
	"ens-market-context/internal/currency"
	"ens-market-context/internal/domain"
	"ens-market-context/internal/enrich"
	"ens-market-context/internal/marketplace"
	"ens-market-context/internal/names"
	"ens-market-context/internal/observability"
	"ens-market-context/internal/orchestrator"
	"ens-market-context/internal/resolver"
	"ens-market-context/internal/storage"
	"ens-market-context/internal/storage/clickhouse"
	"ens-market-context/internal/storage/postgres"
)

// syncedTypes is everything the feed walk carries. Bids are synced for the
// offer-alert consumers even though the analyzers exclude them.
var syncedTypes = []domain.ActivityType{
	domain.ActivitySale,
	domain.ActivityMint,
	domain.ActivityTransfer,
	domain.ActivityAsk,
	domain.ActivityBid,
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "run the periodic activity sync loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon(cmd.Context())
	},
}

func runDaemon(parent context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return err
	}
	defer logger.Sync()

	metrics := observability.NewMetrics("ens_market_context")

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	if cfg.Metrics.Addr != "" {
		go serveMetrics(cfg.Metrics.Addr, logger)
	}

	pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return errors.Wrap(err, "postgres")
	}
	defer pool.Close()
	bookmarks := postgres.NewBookmarkStore(pool)

	var archive storage.ActivityArchiveStore
	if cfg.Clickhouse.Enabled {
		conn, err := clickhouse.NewConn(ctx, cfg.Clickhouse.DSN)
		if err != nil {
			return errors.Wrap(err, "clickhouse")
		}
		defer conn.Close()
		archive = clickhouse.NewActivityArchiveStore(conn)
	}

	client := marketplace.NewClient(cfg.API.BaseURL, cfg.API.Key,
		marketplace.WithTimeout(cfg.API.Timeout),
		marketplace.WithLogger(logger.Named("marketplace")),
		marketplace.WithMetrics(metrics))

	syncer := activitysync.NewSyncer(client, activitysync.Options{
		Scope:     marketplace.Scope{Contract: cfg.Sync.Contract},
		Types:     syncedTypes,
		PageSize:  cfg.Sync.PageSize,
		MaxPages:  cfg.Sync.MaxPages,
		BidMargin: cfg.Sync.BidMargin,
		Logger:    logger.Named("sync"),
		Metrics:   metrics,
	})

	res := resolver.NewResolver(client,
		resolver.WithLogger(logger.Named("resolver")),
		resolver.WithMetrics(metrics))

	if cfg.Serve.Addr != "" {
		nameClient := names.NewClient(cfg.Names.BaseURL,
			names.WithTimeout(cfg.Names.Timeout),
			names.WithLogger(logger.Named("names")))
		norm := currency.NewNormalizer(currency.WithLogger(logger.Named("currency")))
		analyzer := analysis.NewAnalyzer(res, norm,
			analysis.WithLogger(logger.Named("analysis")))
		gatherer := enrich.NewGatherer(client, client, client, nameClient, analyzer, norm,
			enrich.GathererOptions{
				NameCache: buildNameCache(cfg),
				Logger:    logger.Named("enrich"),
				Metrics:   metrics,
			})
		go serveEnrich(cfg.Serve.Addr, gatherer, logger.Named("serve"))
	}

	orch := orchestrator.New(orchestrator.Options{
		Syncer:    syncer,
		Resolver:  res,
		Bookmarks: bookmarks,
		Archive:   archive,
		Scope:     "collection:" + cfg.Sync.Contract,
		Interval:  cfg.Sync.Interval,
		Logger:    logger.Named("orchestrator"),
		Metrics:   metrics,
	})

	logger.Info("daemon started",
		zap.String("contract", cfg.Sync.Contract),
		zap.Duration("interval", cfg.Sync.Interval))

	if err := orch.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func buildNameCache(cfg *config.Config) cache.Cache {
	if !cfg.Redis.Enabled {
		return cache.NewMemory()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return cache.NewRedis(client, "ensctx")
}

func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("metrics server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server stopped", zap.Error(err))
	}
}
