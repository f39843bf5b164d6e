// Command index-text loads car descriptions from a CSV file into the text
// collection and (re)builds its vector and full-text indexes.
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
	mRowsTotal   = met.Counter("carsearch_index_text_rows_total", "CSV rows read")
	mRowsIndexed = met.Counter("carsearch_index_text_indexed_total", "Rows indexed")
	mRowsSkipped = met.Counter("carsearch_index_text_skipped_total", "Rows skipped")
	mRunDuration = met.Histogram("carsearch_index_text_run_seconds", "Indexing run time", nil)
)

func main() {
	var (
		csvPath     = flag.String("csv", "data/text_car_data.csv", "path to the CSV file containing car data")
		cloud       = flag.Bool("cloud", false, "use the managed store instead of local")
		dbURI       = flag.String("db_uri", "", "managed store URI (required if --cloud is used)")
		apiKey      = flag.String("api_key", "", "managed store API key (required if --cloud is used)")
		region      = flag.String("region", "us-east-1", "managed store region")
		qdrantAddr  = flag.String("qdrant", "localhost:6334", "local store gRPC address")
		embedURL    = flag.String("embedder", "http://localhost:11434", "text embedding service base URL")
		embedModel  = flag.String("model", "bge-small-en-v1.5", "text embedding model name")
		metricsPort = flag.Int("metrics-port", 9092, "metrics listen port")
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
	mRowsTotal.Add(int64(len(rows)))

	indexer := ingest.NewTextIndexer(tables.Text, embed.NewTextClient(*embedURL, *embedModel), log)

	start := time.Now()
	stats, err := indexer.Run(ctx, rows)
	mRunDuration.Since(start)
	mRowsIndexed.Add(int64(stats.Indexed))
	mRowsSkipped.Add(int64(stats.Skipped))
	if err != nil {
		log.Error("indexing failed", "error", err)
		os.Exit(1)
	}

	if stats.Indexed == 0 {
		log.Warn("no car data was indexed, check the CSV file")
		return
	}
	log.Info("indexing complete", "indexed", stats.Indexed, "skipped", stats.Skipped)
}
