package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/akashAD98/Car-ai-multimodal-search/engine/catalog"
	"github.com/akashAD98/Car-ai-multimodal-search/engine/domain"
	"github.com/akashAD98/Car-ai-multimodal-search/engine/semantic"
	"github.com/akashAD98/Car-ai-multimodal-search/pkg/embed"
	"github.com/akashAD98/Car-ai-multimodal-search/pkg/fn"
	"github.com/google/uuid"
)

// Stats summarizes an indexing run.
type Stats struct {
	Rows    int
	Indexed int
	Skipped int
}

// Store is the slice of the vector store the indexers write to.
type Store interface {
	Upsert(ctx context.Context, records []semantic.Record) error
	EnsureVectorIndex(ctx context.Context) error
	EnsureTextIndex(ctx context.Context, fields []string) error
}

// TextIndexer loads car descriptions into the text collection.
type TextIndexer struct {
	store    Store
	embedder embed.TextEmbedder
	log      *slog.Logger
}

// NewTextIndexer creates a TextIndexer.
func NewTextIndexer(store Store, embedder embed.TextEmbedder, log *slog.Logger) *TextIndexer {
	if log == nil {
		log = slog.Default()
	}
	return &TextIndexer{store: store, embedder: embedder, log: log}
}

// Validate checks a CSV row before any further work.
var Validate fn.Stage[domain.CSVRow, domain.CSVRow] = func(_ context.Context, row domain.CSVRow) fn.Result[domain.CSVRow] {
	if err := domain.ValidateRow(row); err != nil {
		return fn.Err[domain.CSVRow](err)
	}
	return fn.Ok(row)
}

// BuildCar converts a validated row into a Car.
var BuildCar fn.Stage[domain.CSVRow, domain.Car] = func(_ context.Context, row domain.CSVRow) fn.Result[domain.Car] {
	return fn.Ok(domain.Car{
		Label:     row.Label,
		CarType:   row.CarType,
		FuelType:  row.FuelType,
		CarInfo:   row.CarInfo,
		ImageURLs: row.ImageURLs,
	})
}

// embedCar embeds car_info and builds the store record. The vector is
// derived here and nowhere else.
func (ix *TextIndexer) embedCar(ctx context.Context, car domain.Car) fn.Result[semantic.Record] {
	vec, err := ix.embedder.EmbedText(ctx, car.CarInfo)
	if err != nil {
		return fn.Err[semantic.Record](fmt.Errorf("ingest: embed %q: %w", car.Label, err))
	}
	return fn.Ok(semantic.Record{
		ID:     textPointID(car.Label),
		Vector: vec,
		Payload: map[string]any{
			"label":      car.Label,
			"car_type":   car.CarType,
			"fuel_type":  car.FuelType,
			"car_info":   car.CarInfo,
			"image_urls": car.ImageURLs,
		},
	})
}

// textPointID derives a stable point ID from the car label, so re-running
// the indexer over the same CSV upserts instead of duplicating.
func textPointID(label string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("car-text:"+label)).String()
}

// Run indexes all rows: each row goes through validate → build → embed, bad
// rows are skipped with a diagnostic, and the survivors are upserted as one
// batch. Afterwards the vector index is tuned best-effort and the full-text
// index over the text fields is rebuilt, replacing any prior index.
func (ix *TextIndexer) Run(ctx context.Context, rows []domain.CSVRow) (Stats, error) {
	pipeline := fn.Then(Validate, fn.Then(BuildCar, fn.Stage[domain.Car, semantic.Record](ix.embedCar)))

	stats := Stats{Rows: len(rows)}
	var records []semantic.Record
	for _, row := range rows {
		r := pipeline(ctx, row)
		if r.IsErr() {
			_, err := r.Unwrap()
			ix.log.Warn("ingest: skipping row", "label", row.Label, "error", err)
			stats.Skipped++
			continue
		}
		rec, _ := r.Unwrap()
		records = append(records, rec)
	}

	if len(records) == 0 {
		return stats, nil
	}
	if err := ix.store.Upsert(ctx, records); err != nil {
		return stats, err
	}
	stats.Indexed = len(records)

	if err := ix.store.EnsureVectorIndex(ctx); err != nil {
		// Search still works as a linear scan without the index.
		ix.log.Warn("ingest: vector index build failed", "error", err)
	}
	if err := ix.store.EnsureTextIndex(ctx, catalog.TextSearchFields); err != nil {
		return stats, err
	}
	return stats, nil
}
