// cmd/server/main.go
// This is the entry point for the scorebook server.
// In Go, the "main" package and its "main()" function is where the program starts executing.
// The "cmd/server" directory follows a common Go convention: the cmd/ folder holds executable
// binaries, and internal/ holds packages that are not meant to be imported by other projects.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	// gocron runs the periodic flush that pushes queued writes to the database
	"github.com/go-co-op/gocron/v2"
	// fiber is a fast HTTP web framework inspired by Express.js
	"github.com/gofiber/fiber/v2"
	// cors allows the presentation shell (a webview on another origin) to call the API
	"github.com/gofiber/fiber/v2/middleware/cors"
	// logger prints request details (method, path, status, duration) to stdout
	"github.com/gofiber/fiber/v2/middleware/logger"
	// recover turns a panicking handler into a 500 instead of killing the process
	"github.com/gofiber/fiber/v2/middleware/recover"
	// errgroup runs the hub, the HTTP server and the shutdown watcher together and
	// returns the first error any of them reports
	"golang.org/x/sync/errgroup"

	// Internal packages: our own code, imported by module path
	"github.com/trentd187/scorebook/internal/config"
	"github.com/trentd187/scorebook/internal/database"
	"github.com/trentd187/scorebook/internal/handlers"
	"github.com/trentd187/scorebook/internal/lifecycle"
	"github.com/trentd187/scorebook/internal/live"
	"github.com/trentd187/scorebook/internal/middleware"
	"github.com/trentd187/scorebook/internal/settings"
	"github.com/trentd187/scorebook/internal/store"
)

// shutdownTimeout bounds how long in-flight requests and the final flush may take.
const shutdownTimeout = 5 * time.Second

func main() {
	// Load configuration from environment variables (and optionally a .env file).
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// ctx is cancelled on Ctrl-C or SIGTERM; everything long-running watches it.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the document store. Storage trouble never stops the scorebook: when the
	// database can't be opened or migrated we keep going in memory and say so.
	s := openStore(cfg)

	// Writes are queued in memory and flushed in the background, so no request
	// ever waits on the disk.
	w := store.NewWriter(s)

	// The Hub fans state snapshots out to every open /stream connection.
	hub := live.NewHub()

	// Both services publish a fresh snapshot after each change. The hook closes over
	// lc and svc, which are assigned right below; nothing fires before both exist.
	var (
		lc  *lifecycle.Manager
		svc *settings.Service
	)
	publish := func() {
		if lc != nil && svc != nil {
			handlers.PublishState(hub, lc, svc)
		}
	}
	lc = lifecycle.Load(ctx, s, w, lifecycle.WithChangeHook(publish))
	svc = settings.Load(ctx, s, w, settings.WithChangeHook(publish))

	// Schedule the periodic flush.
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Fatal("Failed to create scheduler:", err)
	}
	if _, err := w.Schedule(sched, cfg.FlushInterval); err != nil {
		log.Fatal("Failed to schedule flush:", err)
	}
	sched.Start()

	// Create a new Fiber app (our HTTP server).
	app := fiber.New(fiber.Config{
		AppName: "Scorebook API",
	})

	// --- Global middleware ---
	// These run on every request before any route handler.
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	// --- Public routes ---
	// GET /health lets the presentation shell know the API is up.
	app.Get("/health", handlers.HealthCheck)

	// --- Local API routes ---
	// There are no accounts; every /api/v1 route only answers requests from this machine.
	api := app.Group("/api/v1", middleware.RequireLocal())
	handlers.SetupRoutes(api, handlers.Deps{
		Matches:  lc,
		Settings: svc,
		Hub:      hub,
	})

	// errgroup.WithContext derives gctx, which is cancelled as soon as any goroutine
	// in the group returns an error (or the signal context is cancelled).
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		log.Printf("Starting server on %s", cfg.Addr())
		return app.Listen(cfg.Addr())
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Printf("Shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil {
		log.Printf("Server stopped with error: %v", err)
	}

	// Stop the scheduler first so the final flush doesn't race a scheduled one.
	if err := sched.Shutdown(); err != nil {
		log.Printf("Scheduler shutdown: %v", err)
	}
	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := w.Flush(flushCtx); err != nil {
		log.Printf("Final flush left %d document(s) unsaved: %v", w.Pending(), err)
	}
}

// openStore connects to cfg.DatabaseURL and migrates it, falling back to an
// in-memory store when either step fails.
func openStore(cfg *config.Config) store.Store {
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Printf("[store] Failed to open database, nothing will persist: %v", err)
		return store.NewMemoryStore()
	}

	// Create the documents table if it doesn't exist yet.
	if err := database.Migrate(db, cfg.DatabaseURL); err != nil {
		log.Printf("[store] Failed to migrate database, nothing will persist: %v", err)
		return store.NewMemoryStore()
	}
	return store.NewGormStore(db)
}
