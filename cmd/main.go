package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"product-listing-service/internal/api"
	"product-listing-service/internal/config"
	"product-listing-service/internal/currency"
	"product-listing-service/internal/listing"
	"product-listing-service/internal/logger"
	"product-listing-service/internal/store"
)

const serviceName = "ProductListingService"

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found or failed to load, relying on system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Error loading configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level: logger.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogFormat == "json",
	}).With(slog.String("service", serviceName))
	slog.SetDefault(log)
	log.Info("Starting service...", "app_env", cfg.AppEnv)

	// --- Database Connection ---
	db, err := sql.Open("postgres", cfg.Postgres.DSN())
	if err != nil {
		log.Error("Failed to initialize database connection", "error", err)
		os.Exit(1)
	}
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	err = db.PingContext(pingCtx)
	cancelPing()
	if err != nil {
		log.Error("Failed to ping database", "error", err)
		_ = db.Close()
		os.Exit(1)
	}
	log.Info("Database connection established")
	dbStore := store.NewPostgresStore(db)

	// --- Currency rates: database table, static fallback, optional Redis cache ---
	fallback := currency.DefaultRates()
	if len(cfg.Listing.CurrencyRates) > 0 {
		fallback = currency.StaticRates(cfg.Listing.CurrencyRates)
	}
	var rates currency.RateProvider = currency.NewStoreRates(dbStore, fallback)
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rates = currency.NewCachedRates(redisClient, rates, cfg.Listing.CurrencyRatesTTL)
		log.Info("Currency rate cache enabled", "redis_addr", cfg.Redis.Addr, "ttl", cfg.Listing.CurrencyRatesTTL)
	}
	normalizer := currency.NewNormalizer(rates, cfg.Listing.DefaultCurrency)

	listingService := listing.NewService(dbStore, dbStore, normalizer, listing.Options{
		PropertyCategorySlug: cfg.Listing.PropertyCategorySlug,
		PropertyCacheTTL:     cfg.Listing.PropertyCacheTTL,
	})

	// --- Setup & Start HTTP Server ---
	httpRouter := chi.NewRouter()
	setupBaseMiddleware(httpRouter, log)
	registerHealthCheck(httpRouter, dbStore)
	api.NewHTTPHandler(listingService, dbStore).RegisterRoutes(httpRouter)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      httpRouter,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	go func() {
		log.Info("HTTP server listening", "port", cfg.HttpServer.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server ListenAndServe error", "error", err)
			os.Exit(1)
		}
		log.Info("HTTP server has stopped")
	}()

	// --- Setup & Start gRPC Server ---
	grpcServer := setupGRPCServer(log, api.NewGRPCHandler(listingService))
	grpcListener, err := net.Listen("tcp", ":"+cfg.GrpcServer.Port)
	if err != nil {
		log.Error("Failed to listen for gRPC", "port", cfg.GrpcServer.Port, "error", err)
		os.Exit(1)
	}

	go func() {
		log.Info("gRPC server listening", "port", cfg.GrpcServer.Port)
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Error("gRPC server Serve error", "error", err)
			os.Exit(1)
		}
		log.Info("gRPC server has stopped")
	}()

	// --- Graceful Shutdown ---
	shutdownComplete := make(chan struct{})
	go waitForShutdown(log, httpServer, grpcServer, dbStore, redisClient, shutdownComplete)

	<-shutdownComplete
	log.Info("Service shutdown sequence finished")
}

func setupBaseMiddleware(router *chi.Mux, log *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(api.LoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
}

func registerHealthCheck(router *chi.Mux, dbStore *store.PostgresStore) {
	router.Get("/api/v1/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		dbStatus := "healthy"
		if err := dbStore.Ping(ctx); err != nil {
			dbStatus = "unhealthy"
			logger.FromContext(r.Context()).Warn("Health check DB ping failed", "error", err)
		}

		// Always 200; the payload carries the detailed status.
		api.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"status":      "healthy",
			"serviceName": serviceName,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"database":    dbStatus,
		})
	})
}

func setupGRPCServer(log *slog.Logger, handler *api.GRPCHandler) *grpc.Server {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(api.LoggingUnaryInterceptor(log)))

	api.RegisterListingServiceServer(s, handler)
	grpc_health_v1.RegisterHealthServer(s, health.NewServer())
	reflection.Register(s)
	log.Info("gRPC services registered", "services", []string{api.ListingServiceDesc.ServiceName, grpc_health_v1.Health_ServiceDesc.ServiceName})

	return s
}

func waitForShutdown(
	log *slog.Logger,
	httpServer *http.Server,
	grpcServer *grpc.Server,
	dbStore *store.PostgresStore,
	redisClient *redis.Client,
	shutdownComplete chan struct{},
) {
	defer close(shutdownComplete)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	receivedSignal := <-sigChan
	log.Info("Received signal, starting graceful shutdown", "signal", receivedSignal.String())

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	stoppedGrpc := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stoppedGrpc)
	}()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server graceful shutdown failed", "error", err)
	} else {
		log.Info("HTTP server gracefully shut down")
	}

	select {
	case <-stoppedGrpc:
		log.Info("gRPC server gracefully shut down")
	case <-shutdownCtx.Done():
		log.Warn("gRPC server graceful shutdown timed out, forcing stop", "error", shutdownCtx.Err())
		grpcServer.Stop()
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Warn("Error closing redis client", "error", err)
		}
	}
	if err := dbStore.Close(); err != nil {
		log.Warn("Error closing database connection", "error", err)
	}

	log.Info("Graceful shutdown sequence completed")
}
