package ingest

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/akashAD98/Car-ai-multimodal-search/engine/catalog"
	"github.com/akashAD98/Car-ai-multimodal-search/engine/domain"
	"github.com/akashAD98/Car-ai-multimodal-search/engine/semantic"
	"github.com/akashAD98/Car-ai-multimodal-search/pkg/embed"
	"github.com/google/uuid"

	_ "image/jpeg"
	_ "image/png"
)

// ImageIndexer loads car images into the image collection. Each image path
// in a row becomes its own record sharing the row's label and info.
type ImageIndexer struct {
	store    Store
	embedder embed.ImageEmbedder
	fetcher  *Fetcher
	log      *slog.Logger
}

// NewImageIndexer creates an ImageIndexer.
func NewImageIndexer(store Store, embedder embed.ImageEmbedder, fetcher *Fetcher, log *slog.Logger) *ImageIndexer {
	if log == nil {
		log = slog.Default()
	}
	if fetcher == nil {
		fetcher = NewFetcher(5, 5)
	}
	return &ImageIndexer{store: store, embedder: embedder, fetcher: fetcher, log: log}
}

// resolve fetches one image path and verifies the content decodes as an
// image. Corrupt or unreachable images fail here and get skipped upstream.
func (ix *ImageIndexer) resolve(ctx context.Context, row domain.CSVRow, ref string) (domain.CarImage, error) {
	data, err := ix.fetcher.Fetch(ctx, ref)
	if err != nil {
		return domain.CarImage{}, err
	}
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return domain.CarImage{}, fmt.Errorf("ingest: %s is not a decodable image: %w", ref, err)
	}
	return domain.CarImage{
		Label:    row.Label,
		CarInfo:  row.CarInfo,
		ImageURI: ref,
		Bytes:    data,
	}, nil
}

func (ix *ImageIndexer) embedImage(ctx context.Context, img domain.CarImage) (semantic.Record, error) {
	vec, err := ix.embedder.EmbedImage(ctx, img.Bytes)
	if err != nil {
		return semantic.Record{}, fmt.Errorf("ingest: embed image %s: %w", img.ImageURI, err)
	}
	return semantic.Record{
		ID:     imagePointID(img.Label, img.ImageURI),
		Vector: vec,
		Payload: map[string]any{
			"label":     img.Label,
			"car_info":  img.CarInfo,
			"image_uri": img.ImageURI,
		},
	}, nil
}

func imagePointID(label, uri string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("car-image:"+label+":"+uri)).String()
}

// Run indexes every image path of every row. A failing path (unreachable,
// corrupt, or embed error) is skipped with a diagnostic and never aborts
// the batch. After the upsert the full-text index over {label, car_info}
// is rebuilt, replacing any prior index.
func (ix *ImageIndexer) Run(ctx context.Context, rows []domain.CSVRow) (Stats, error) {
	var stats Stats
	var records []semantic.Record

	for _, row := range rows {
		for _, ref := range row.ImageURLs {
			stats.Rows++
			img, err := ix.resolve(ctx, row, ref)
			if err != nil {
				ix.log.Warn("ingest: skipping image", "label", row.Label, "path", ref, "error", err)
				stats.Skipped++
				continue
			}
			rec, err := ix.embedImage(ctx, img)
			if err != nil {
				ix.log.Warn("ingest: skipping image", "label", row.Label, "path", ref, "error", err)
				stats.Skipped++
				continue
			}
			records = append(records, rec)
		}
	}

	if len(records) == 0 {
		return stats, nil
	}
	if err := ix.store.Upsert(ctx, records); err != nil {
		return stats, err
	}
	stats.Indexed = len(records)

	if err := ix.store.EnsureTextIndex(ctx, catalog.ImageSearchFields); err != nil {
		return stats, err
	}
	return stats, nil
}
