package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/outreach-analytics/internal/api"
	"github.com/ignite/outreach-analytics/internal/cache"
	"github.com/ignite/outreach-analytics/internal/config"
	"github.com/ignite/outreach-analytics/internal/export"
	"github.com/ignite/outreach-analytics/internal/repository/postgres"
	analyticsvc "github.com/ignite/outreach-analytics/internal/service/analytics"
	"github.com/ignite/outreach-analytics/internal/warmup"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from stale processes occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func main() {
	log.Println("[server] outreach analytics API starting")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		if _, err := os.Stat("config/config.yaml"); err == nil {
			configPath = "config/config.yaml"
		}
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	// Pre-flight check: verify the target port is available
	if err := checkPortAvailable(cfg.Server.Host, cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: port %d is available", cfg.Server.Port)

	if cfg.Database.URL == "" {
		log.Fatal("database url is required (set DATABASE_URL or database.url)")
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Connected to PostgreSQL")

	// Redis backs the warmup progress cache. Losing it degrades the health
	// endpoint to per-request store reads, so failure here is not fatal.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	var warmupCache *cache.TTLCache
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Printf("[redis] unavailable, warmup cache disabled: %v", err)
		rdb = nil
	} else {
		warmupCache = cache.New(rdb, "warmup", cfg.Redis.WarmupCacheTTL())
		log.Printf("Connected to Redis (warmup cache TTL %s)", cfg.Redis.WarmupCacheTTL())
	}
	pingCancel()

	warmupProvider := warmup.NewProvider(warmup.NewStore(db), warmupCache)
	repo := postgres.NewMetricsRepo(db)
	service := analyticsvc.NewService(repo, warmupProvider, cfg.Analytics.HealthWeights)

	var exporter api.Exporter
	if cfg.Export.Enabled && cfg.Export.S3Bucket != "" {
		exp, err := export.NewExporter(context.Background(), cfg.Export.S3Bucket, cfg.Export.S3Region, cfg.Export.AWSProfile)
		if err != nil {
			log.Fatalf("Failed to initialize S3 exporter: %v", err)
		}
		exporter = exp
		log.Printf("Report export enabled (bucket %s)", cfg.Export.S3Bucket)
	} else {
		log.Println("Report export disabled (no bucket configured)")
	}

	handlers := api.NewHandlers(service, exporter, api.NewHealthChecker(db, rdb))
	server := api.NewServer(handlers, cfg.Server.AllowedOrigins)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := cfg.Server.Address()
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
