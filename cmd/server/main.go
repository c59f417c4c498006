package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"apriori-backend/internal/analysis"
	"apriori-backend/internal/api"
	"apriori-backend/internal/config"
	"apriori-backend/internal/mining"
	"apriori-backend/internal/state"
	"apriori-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfgFile := flag.String("config", "", "optional config file (yaml, json or toml)")
	flag.Parse()

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	heuristics, err := analysis.LoadHeuristics(cfg.HeuristicsFile)
	if err != nil {
		log.Fatalf("Failed to load heuristics: %v", err)
	}

	// Initialize storage and state
	store, err := storage.Open(cfg.Store, cfg.DataDir, cfg.SQLitePath)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.Store, err)
	}
	defer store.Close()

	appState := state.New()
	persister := state.NewPersister(store, appState)
	persister.Restore()

	// Initialize Handler
	handler := api.NewHandler(
		analysis.NewService(heuristics),
		appState,
		persister,
		mining.Params{MinSupport: cfg.MinSupport, MinConfidence: cfg.MinConfidence},
		cfg.MaxUploadBytes(),
	)

	// Router Setup
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Root endpoint
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Apriori Recommendation Backend is Running"))
	})

	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[INFO] Starting server on http://localhost:%s", cfg.Port)
		log.Printf("[INFO] CORS enabled for: %v", cfg.AllowedOrigins)
		log.Printf("[INFO] %s store in %s", cfg.Store, cfg.DataDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("[INFO] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[ERROR] Server forced to shutdown: %v", err)
	}
	handler.Close()
}
