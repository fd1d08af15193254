// food-findr backend
//
// Restaurant discovery service: local search over a PostgreSQL catalog,
// backfilled on demand from an upstream places directory, with dietary
// heuristics, review sentiment insights, and a periodic location sync.
//
// Run with -sync for a one-shot batch sync of the configured locations
// instead of serving HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodfindr/internal/api"
	"foodfindr/internal/config"
	"foodfindr/internal/db"
	"foodfindr/internal/ingest"
	"foodfindr/internal/insights"
	"foodfindr/internal/logging"
	"foodfindr/internal/monitoring"
	"foodfindr/internal/places"
	"foodfindr/internal/scheduler"
	"foodfindr/internal/search"
	"foodfindr/internal/store"
)

const version = "1.0.0"

func main() {
	syncOnly := flag.Bool("sync", false, "run one batch sync of all configured locations and exit")
	flag.Parse()

	// ── Config + logging ────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[food-findr] Config error: %v", err)
	}
	logging.Init(cfg.LogFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ──────────────────────────────────────────────────────────
	log.Println("[food-findr] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[food-findr] PostgreSQL: %v", err)
	}
	defer pool.Close()

	st := store.NewPostgres(pool)
	if err := st.EnsureSchema(ctx); err != nil {
		log.Fatalf("[food-findr] Schema: %v", err)
	}
	log.Println("[food-findr] PostgreSQL connected ✓")

	// ── Redis ───────────────────────────────────────────────────────────────
	log.Println("[food-findr] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[food-findr] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[food-findr] Redis connected ✓")

	// ── Domain wiring ───────────────────────────────────────────────────────
	gateway := places.NewClient(cfg.FoursquareAPIKey)
	if cfg.FoursquareBaseURL != "" {
		gateway.BaseURL = cfg.FoursquareBaseURL
	}

	worker := ingest.NewWorker(st, gateway, rdb)

	if *syncOnly {
		report := scheduler.New(worker, cfg.SyncIntervalHours).RunAll(ctx)
		log.Printf("[food-findr] Sync finished: %d locations synced, %d failed, %d places fetched",
			report.LocationsSynced, report.LocationsFailed, report.TotalFetched)
		if report.LocationsFailed > 0 {
			os.Exit(1)
		}
		return
	}

	orchestrator := search.NewOrchestrator(st, gateway, rdb)
	engine := insights.NewEngine(st, rdb)

	sched := scheduler.New(worker, cfg.SyncIntervalHours)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("[food-findr] Scheduler: %v", err)
	}
	defer sched.Stop()

	// ── HTTP server ─────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.Handler())

	h := api.NewHandler(orchestrator, engine, st)
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      api.RequestID(api.AccessLog(monitoring.Middleware(mux))),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("[food-findr] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[food-findr] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ───────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[food-findr] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[food-findr] Shutdown error: %v", err)
	}
	log.Println("[food-findr] Stopped.")
}
