// Command index-image loads car images referenced by a CSV file into the
// image collection and rebuilds its full-text index. Each image path in a
// row becomes one record; unreachable or corrupt images are skipped.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/akashAD98/Car-ai-multimodal-search/engine/catalog"
	"github.com/akashAD98/Car-ai-multimodal-search/engine/ingest"
	"github.com/akashAD98/Car-ai-multimodal-search/pkg/embed"
	"github.com/akashAD98/Car-ai-multimodal-search/pkg/metrics"
)

var met = metrics.New()

var (
	mImagesTotal   = met.Counter("carsearch_index_image_paths_total", "Image paths seen")
	mImagesIndexed = met.Counter("carsearch_index_image_indexed_total", "Images indexed")
	mImagesSkipped = met.Counter("carsearch_index_image_skipped_total", "Images skipped")
	mRunDuration   = met.Histogram("carsearch_index_image_run_seconds", "Indexing run time", nil)
)

func main() {
	var (
		csvPath     = flag.String("csv", "data/image_car_data.csv", "path to the CSV file containing image data")
		cloud       = flag.Bool("cloud", false, "use the managed store instead of local")
		dbURI       = flag.String("db_uri", "", "managed store URI (required if --cloud is used)")
		apiKey      = flag.String("api_key", "", "managed store API key (required if --cloud is used)")
		region      = flag.String("region", "us-east-1", "managed store region")
		qdrantAddr  = flag.String("qdrant", "localhost:6334", "local store gRPC address")
		embedURL    = flag.String("embedder", "http://localhost:8500", "image embedding service base URL")
		fetchRate   = flag.Float64("fetch-rate", 5, "max remote image fetches per second")
		metricsPort = flag.Int("metrics-port", 9093, "metrics listen port")
	)
	flag.Parse()

	if *cloud && (*dbURI == "" || *apiKey == "") {
		fmt.Fprintln(os.Stderr, "error: --cloud requires --db_uri and --api_key")
		flag.Usage()
		os.Exit(2)
	}

	log := slog.Default()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	met.ServeAsync(*metricsPort)

	cfg := catalog.Config{Addr: *qdrantAddr}
	if *cloud {
		cfg = catalog.Config{CloudURI: *dbURI, APIKey: *apiKey, Region: *region}
		log.Info("using managed store", "uri", *dbURI, "region", *region)
	} else {
		log.Info("using local store", "addr", *qdrantAddr)
	}

	tables, err := catalog.Open(ctx, cfg)
	if err != nil {
		log.Error("store connect failed", "error", err)
		os.Exit(1)
	}
	defer tables.Close()

	rows, err := ingest.ReadRows(*csvPath)
	if err != nil {
		log.Error("csv load failed", "csv", *csvPath, "error", err)
		os.Exit(1)
	}
	log.Info("loaded csv", "csv", *csvPath, "rows", len(rows))

	fetcher := ingest.NewFetcher(*fetchRate, 5)
	indexer := ingest.NewImageIndexer(tables.Image, embed.NewImageClient(*embedURL), fetcher, log)

	start := time.Now()
	stats, err := indexer.Run(ctx, rows)
	mRunDuration.Since(start)
	mImagesTotal.Add(int64(stats.Rows))
	mImagesIndexed.Add(int64(stats.Indexed))
	mImagesSkipped.Add(int64(stats.Skipped))
	if err != nil {
		log.Error("indexing failed", "error", err)
		os.Exit(1)
	}

	if stats.Indexed == 0 {
		log.Warn("no images were indexed, check the CSV file and image paths")
		return
	}
	log.Info("indexing complete", "indexed", stats.Indexed, "skipped", stats.Skipped)
}
