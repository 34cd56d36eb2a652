package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/Leo190198/promoShare/internal/api"
	"github.com/Leo190198/promoShare/internal/automation"
	"github.com/Leo190198/promoShare/internal/config"
	"github.com/Leo190198/promoShare/internal/pkg/distlock"
	"github.com/Leo190198/promoShare/internal/pkg/logger"
	"github.com/Leo190198/promoShare/internal/repository/postgres"
	"github.com/Leo190198/promoShare/internal/shopee"
	"github.com/Leo190198/promoShare/internal/whatsapp"
	"github.com/Leo190198/promoShare/internal/worker"
)

func main() {
	log.Println("promoShare Automation API starting...")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Server.LogLevel))
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	// Pool limits sized for one API instance plus the tick worker.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(3)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("Database ping failed: %v", err)
	}
	pingCancel()
	log.Println("Database connected")

	// Redis is optional: present, it backs the tick leader lock; absent,
	// the lock falls back to PG advisory locks.
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Printf("Warning: invalid Redis URL %q: %v", cfg.Redis.URL, err)
		} else {
			redisClient = redis.NewClient(opts)
			rCtx, rCancel := context.WithTimeout(context.Background(), 3*time.Second)
			if err := redisClient.Ping(rCtx).Err(); err != nil {
				log.Printf("Warning: Redis connection failed: %v - falling back to PG advisory locks", err)
				redisClient.Close()
				redisClient = nil
			} else {
				log.Println("Redis connected (tick leader lock enabled)")
			}
			rCancel()
		}
	} else {
		log.Println("Redis not configured (REDIS_URL not set) - using PG advisory locks for the tick lock")
	}

	store := postgres.NewStore(db)
	catalog := shopee.NewClient(cfg.Shopee)
	wa := whatsapp.NewClient(cfg.WhatsApp)
	engine := automation.NewEngine(store, catalog, wa, cfg.Automation)

	// Seed the settings, posting window, and default themes. A failure here
	// is not fatal: the rows may already exist, and API calls surface any
	// remaining gap as settings_missing.
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := engine.Bootstrap(bootCtx); err != nil {
		log.Printf("Warning: bootstrap failed: %v", err)
	}
	bootCancel()

	tickInterval := time.Duration(cfg.Automation.TickSeconds) * time.Second
	automationWorker := worker.NewAutomationWorker(engine, tickInterval)
	// Lock TTL must outlive the longest tick so a crashed leader cannot
	// block the next one for long.
	automationWorker.SetLock(distlock.New(redisClient, db, "automation:tick", 10*time.Minute))
	if err := automationWorker.Start(); err != nil {
		log.Fatalf("Failed to start automation worker: %v", err)
	}

	server := api.NewServer(cfg.Server, engine)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Println("All services initialized, server is ready")

	<-done
	log.Println("Shutting down...")

	automationWorker.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	if redisClient != nil {
		redisClient.Close()
	}
	db.Close()
	log.Println("Server stopped")
}
