package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	httpAPI "catalog-service/internal/api"
	"catalog-service/internal/config"
	grpcServer "catalog-service/internal/grpc"
	"catalog-service/internal/store"
	"catalog-service/pkg/auth"
)

const healthPingInterval = 15 * time.Second

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// stores holds the repositories of the selected backend. pinger and closer
// are nil for the memory backend.
type stores struct {
	titles   store.TitleStore
	accounts store.AccountStore
	pinger   httpAPI.Pinger
	closer   func(context.Context) error
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)

	switch cfg.Store.Type {
	case "memory":
		logger.Warn("Using in-memory store; data is lost on restart")
		return &stores{
			titles:   store.NewMemoryTitleStore(logger),
			accounts: store.NewMemoryAccountStore(hasher, logger),
		}, nil
	case "mongo":
		mongoStore := store.NewMongoStore(cfg.Mongo, logger)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			_ = mongoStore.Close(context.Background())
			return nil, fmt.Errorf("failed to prepare mongo: %w", err)
		}
		titles, err := mongoStore.Collection(ctx, store.CollectionTitles)
		if err != nil {
			return nil, err
		}
		credits, err := mongoStore.Collection(ctx, store.CollectionCredits)
		if err != nil {
			return nil, err
		}
		accounts, err := mongoStore.Collection(ctx, store.CollectionAccounts)
		if err != nil {
			return nil, err
		}
		return &stores{
			titles:   store.NewMongoTitleStore(titles, credits, logger),
			accounts: store.NewMongoAccountStore(accounts, hasher, logger),
			pinger:   mongoStore,
			closer:   mongoStore.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}
}

// close releases the store connection, if the backend holds one.
func (s *stores) close(logger *slog.Logger) {
	if s.closer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.closer(ctx); err != nil {
		logger.Error("Failed to close store", slog.String("error", err.Error()))
	}
}

// serve runs the HTTP and optional gRPC servers until ctx is done or one of
// them fails, then stops both and closes the store.
func serve(ctx context.Context, cfg *config.Config, repos *stores, logger *slog.Logger) error {
	defer repos.close(logger)

	favorites := store.NewFavoritesService(repos.accounts, repos.titles, logger)
	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	serveErr := make(chan error, 2)

	// --- gRPC server ---
	var grpcSrv interface{ GracefulStop() }
	if cfg.GRPC.Enable {
		srv, healthSrv := grpcServer.NewGRPCServer(grpcServer.NewServer(repos.titles, logger), logger)
		lis, err := net.Listen("tcp", ":"+cfg.GRPC.Port)
		if err != nil {
			return fmt.Errorf("failed to listen for gRPC on port %s: %w", cfg.GRPC.Port, err)
		}
		if repos.pinger != nil {
			go grpcServer.WatchHealth(watchCtx, healthSrv, repos.pinger, healthPingInterval, logger)
		}
		go func() {
			logger.Info("CatalogService gRPC server starting", slog.String("port", cfg.GRPC.Port))
			if err := srv.Serve(lis); err != nil {
				serveErr <- fmt.Errorf("gRPC server: %w", err)
			}
		}()
		grpcSrv = srv
	}

	// --- HTTP server ---
	handler := httpAPI.NewHandler(repos.titles, repos.accounts, favorites, repos.pinger, logger)
	httpSrv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      httpAPI.NewRouter(handler),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info("CatalogService HTTP server starting", slog.String("port", cfg.HTTP.Port))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("CatalogService shutting down...")
	case runErr = <-serveErr:
		logger.Error("CatalogService server failed, shutting down...", slog.String("error", runErr.Error()))
	}
	stopWatch()

	ctxHTTP, cancelHTTP := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancelHTTP()
	if err := httpSrv.Shutdown(ctxHTTP); err != nil {
		logger.Error("CatalogService HTTP server shutdown failed", slog.String("error", err.Error()))
	} else {
		logger.Info("CatalogService HTTP server gracefully stopped.")
	}

	if grpcSrv != nil {
		grpcSrv.GracefulStop()
		logger.Info("CatalogService gRPC server gracefully stopped.")
	}
	return runErr
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	startCtx, cancelStart := context.WithTimeout(context.Background(), cfg.Mongo.ConnectTimeout+5*time.Second)
	repos, err := openStores(startCtx, cfg, logger)
	cancelStart()
	if err != nil {
		logger.Error("CatalogService failed to initialize store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Store initialized", slog.String("type", cfg.Store.Type))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = serve(ctx, cfg, repos, logger)
	stop()
	if err != nil {
		logger.Error("CatalogService stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
