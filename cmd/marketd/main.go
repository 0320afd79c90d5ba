package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisAdapter "github.com/gokhancode/PokemonNFT/internal/adapter/cache/redis"
	"github.com/gokhancode/PokemonNFT/internal/adapter/chainhttp"
	mongoAdapter "github.com/gokhancode/PokemonNFT/internal/adapter/mongo"
	natsAdapter "github.com/gokhancode/PokemonNFT/internal/adapter/nats"
	"github.com/gokhancode/PokemonNFT/internal/config"
	"github.com/gokhancode/PokemonNFT/internal/handler"
	"github.com/gokhancode/PokemonNFT/internal/middleware"
	"github.com/gokhancode/PokemonNFT/internal/platform/tracer"
	"github.com/gokhancode/PokemonNFT/internal/router"
	"github.com/gokhancode/PokemonNFT/internal/usecase"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func main() {
	configPath := "config.yaml"
	if cp := os.Getenv("CONFIG_PATH"); cp != "" {
		configPath = cp
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded",
		zap.String("http_port", cfg.HTTP.Port),
		zap.String("chain_gateway", cfg.Chain.GatewayURL),
		zap.Duration("refresh_interval", cfg.Market.RefreshInterval),
	)

	tp := tracer.InitTracer()
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Error("Failed to shut down tracer provider", zap.Error(err))
		}
	}()

	chainClient := chainhttp.NewClient(&cfg.Chain, logger)

	redisClient, err := redisAdapter.NewRedisClient(&cfg.Redis, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	pokemonCache := redisAdapter.NewPokemonCacheRepository(redisClient, logger)

	mongoClient, err := mongoAdapter.NewMongoDBConnection(&cfg.Mongo)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Error("Failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	tradeArchive := mongoAdapter.NewTradeArchive(mongoClient, cfg.Mongo.Database, logger)

	publisher, err := natsAdapter.NewMarketPublisher(&cfg.NATS, logger)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer publisher.Close()

	scanner := usecase.NewEventScanner(chainClient, logger)
	reconciler := usecase.NewReconciler(chainClient, chainClient, pokemonCache, logger, cfg.Market.ReconcileFanOut)
	marketView := usecase.NewMarketView(scanner, reconciler, publisher, logger)
	dispatcher := usecase.NewTradeDispatcher(chainClient, marketView, tradeArchive, publisher, logger)
	inventory := usecase.NewInventory(chainClient, chainClient, logger, cfg.Market.ProbeWindow)
	history := usecase.NewHistory(tradeArchive, logger)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initial projection before serving; a cold failure is tolerated and the
	// next tick retries against an empty snapshot.
	if err := marketView.Refresh(rootCtx); err != nil {
		logger.Warn("Initial market refresh failed, starting with empty snapshot", zap.Error(err))
	}

	go refreshLoop(rootCtx, marketView, cfg.Market.RefreshInterval, logger)

	marketHandler := handler.NewMarketHandler(marketView, dispatcher, inventory, history, logger)
	mux := chi.NewRouter()
	mux.Use(middleware.Logger(logger))
	router.SetupMarketRoutes(mux, marketHandler)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTP.Port,
		Handler: mux,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
}

// refreshLoop keeps the projection converging on ledger state mutated by
// other market participants between this client's own actions.
func refreshLoop(ctx context.Context, view *usecase.MarketView, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := view.Refresh(ctx); err != nil {
				logger.Warn("Periodic market refresh failed", zap.Error(err))
			}
		}
	}
}
