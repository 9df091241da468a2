package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/safar/go-sql-pos/internal/cache"
	"github.com/safar/go-sql-pos/internal/catalog"
	"github.com/safar/go-sql-pos/internal/config"
	"github.com/safar/go-sql-pos/internal/database"
	"github.com/safar/go-sql-pos/internal/events"
	"github.com/safar/go-sql-pos/internal/httpapi"
	"github.com/safar/go-sql-pos/internal/reports"
	"github.com/safar/go-sql-pos/internal/sales"
)

const (
	publisherBuffer = 1024
	shutdownTimeout = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var reportCache cache.ReportCache = cache.NoopCache{}
	if cfg.Redis.Addr != "" {
		rc := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rc.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Printf("Redis unavailable at %s, report cache disabled: %v", cfg.Redis.Addr, err)
			rc.Close()
		} else {
			defer rc.Close()
			reportCache = rc
			log.Printf("Report cache enabled at %s", cfg.Redis.Addr)
		}
	}

	var publisher events.Publisher = events.NoopPublisher{}
	var kafkaPub *events.KafkaPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPub = events.NewKafkaPublisher(cfg.Kafka.Brokers, publisherBuffer)
		kafkaPub.Start(context.Background())
		publisher = kafkaPub
		log.Printf("Publishing sale events to %v", cfg.Kafka.Brokers)
	}

	loc := cfg.Store.Location()

	catalogManager := catalog.NewManager(db, cfg.Database.LockTimeout, cfg.Store.Locale)
	engine := sales.NewEngine(db,
		sales.WithLockTimeout(cfg.Database.LockTimeout),
		sales.WithLocation(loc),
		sales.WithCache(reportCache),
		sales.WithPublisher(publisher, cfg.Kafka.ServiceName),
	)
	aggregator := reports.NewAggregator(db, reportCache, loc)

	router := httpapi.NewRouter(catalogManager, engine, aggregator, httpapi.Options{
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.RateBurst,
		RequestTimeout: cfg.Server.WriteTimeout,
		Health:         db.PingContext,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Printf("Server error: %v", err)
		}
	case <-ctx.Done():
		log.Printf("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}

	if kafkaPub != nil {
		kafkaPub.Close()
		kafkaPub.WaitClosed()
	}
}
