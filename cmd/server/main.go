package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/rl1809/stock-tracker/internal/adapter/handler"
	"github.com/rl1809/stock-tracker/internal/adapter/storage"
	"github.com/rl1809/stock-tracker/internal/config"
	"github.com/rl1809/stock-tracker/internal/core/service"
	"github.com/rl1809/stock-tracker/internal/logger"
	"github.com/rl1809/stock-tracker/internal/port"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, closeRepo, err := openRepository(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open snapshot repository", zap.String("backend", cfg.Backend), zap.Error(err))
	}
	defer closeRepo()

	// Initialize service
	inventoryService := service.NewInventoryService(repo, log, os.Stdout)
	if err := inventoryService.LoadData(ctx, cfg.Snapshot); err != nil {
		log.Fatal("failed to load snapshot", zap.String("snapshot", cfg.Snapshot), zap.Error(err))
	}
	inventory := service.NewSynchronized(inventoryService)

	// Initialize gRPC server
	grpcServer := grpc.NewServer()
	grpcServer.RegisterService(&handler.InventoryServiceDesc, handler.NewGRPCHandler(inventory, log))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatal("failed to listen", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
	}

	go func() {
		log.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("gRPC server error", zap.Error(err))
		}
	}()

	// Initialize HTTP server
	mux := http.NewServeMux()
	handler.NewHTTPHandler(inventory, log).Register(mux)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown", zap.Error(err))
	}
	log.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	log.Info("gRPC server stopped")

	// Persist the final state
	err = inventory.Do(func(svc *service.InventoryService) error {
		return svc.SaveData(shutdownCtx, cfg.Snapshot)
	})
	if err != nil {
		log.Error("failed to save snapshot", zap.String("snapshot", cfg.Snapshot), zap.Error(err))
	}
}

// openRepository builds the snapshot repository selected by cfg.Backend.
// The returned close func releases any connection it opened.
func openRepository(ctx context.Context, cfg config.Config, log *zap.Logger) (port.SnapshotRepository, func(), error) {
	switch cfg.Backend {
	case config.BackendMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mysql: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping mysql: %w", err)
		}
		log.Info("connected to mysql")

		adapter := storage.NewMySQLAdapter(db)
		if err := adapter.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return adapter, func() { db.Close() }, nil

	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		log.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
		return storage.NewRedisAdapter(rdb, cfg.RedisKeyPrefix), func() { rdb.Close() }, nil

	default:
		log.Info("using file snapshots", zap.String("dir", cfg.DataDir))
		return storage.NewFileAdapter(cfg.DataDir), func() {}, nil
	}
}
