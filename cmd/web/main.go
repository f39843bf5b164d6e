// Command web serves the car search UI and JSON API: free-text search with
// a vector fallback, and image-similarity search over uploaded photos.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akashAD98/Car-ai-multimodal-search/engine/catalog"
	"github.com/akashAD98/Car-ai-multimodal-search/engine/search"
	"github.com/akashAD98/Car-ai-multimodal-search/pkg/embed"
	"github.com/akashAD98/Car-ai-multimodal-search/pkg/metrics"
	"github.com/akashAD98/Car-ai-multimodal-search/pkg/mid"
)

var met = metrics.New()

var (
	mTextSearches  = met.Counter("carsearch_web_text_searches_total", "Text searches served")
	mImageSearches = met.Counter("carsearch_web_image_searches_total", "Image searches served")
	mNoMatch       = met.Counter("carsearch_web_no_match_total", "Searches with no match")
	mSearchErrors  = met.Counter("carsearch_web_search_errors_total", "Searches that failed")
	mUploadReject  = met.Counter("carsearch_web_upload_rejected_total", "Uploads rejected by validation")
	mSearchDur     = met.Histogram("carsearch_web_search_seconds", "Search latency", nil)
)

// Config holds all environment-based configuration.
type Config struct {
	Port          string
	QdrantURL     string
	TextEmbedURL  string
	TextModel     string
	ImageEmbedURL string
	CORSOrigin    string
}

func loadConfig() Config {
	return Config{
		Port:          envOr("PORT", "8080"),
		QdrantURL:     envOr("QDRANT_URL", "localhost:6334"),
		TextEmbedURL:  envOr("TEXT_EMBEDDER_URL", "http://localhost:11434"),
		TextModel:     envOr("TEXT_EMBEDDER_MODEL", "bge-small-en-v1.5"),
		ImageEmbedURL: envOr("IMAGE_EMBEDDER_URL", "http://localhost:8500"),
		CORSOrigin:    envOr("CORS_ORIGIN", "*"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Process-scoped handle pair: opened once here, reused by every request,
	// closed only at shutdown.
	tables, err := catalog.Init(ctx, catalog.Config{Addr: cfg.QdrantURL})
	if err != nil {
		return fmt.Errorf("store connect: %w", err)
	}
	defer tables.Close()

	svc := search.New(
		tables.Text,
		tables.Image,
		embed.NewTextClient(cfg.TextEmbedURL, cfg.TextModel),
		embed.NewImageClient(cfg.ImageEmbedURL),
		search.DefaultOptions(),
		logger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newHandler(svc, cfg, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("web server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

func newHandler(svc *search.Service, cfg Config, logger *slog.Logger) http.Handler {
	h := &handlers{svc: svc, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.index)
	mux.HandleFunc("GET /search", h.textSearch)
	mux.HandleFunc("POST /search/image", h.imageSearch)
	mux.HandleFunc("GET /media", h.media)
	mux.HandleFunc("GET /api/health", h.health)
	mux.HandleFunc("POST /api/search/text", h.apiTextSearch)
	mux.HandleFunc("POST /api/search/image", h.apiImageSearch)
	mux.Handle("GET /metrics", met.Handler())

	return mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.OTel("car-search-web"),
		mid.CORS(cfg.CORSOrigin),
	)
}
