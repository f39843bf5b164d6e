// Package catalog holds the process-scoped pair of open vector-store
// handles and the schema constants shared by the indexers and the search
// path. The pair is created once by an explicit Init call and lives for the
// process lifetime; there is no teardown beyond the owner closing the
// handles at shutdown.
package catalog

import (
	"context"
	"log/slog"
	"sync"

	"github.com/akashAD98/Car-ai-multimodal-search/engine/semantic"
)

const (
	// TextCollection stores one point per car description.
	TextCollection = "car_ai_text_embeddings"
	// ImageCollection stores one point per indexed car image.
	ImageCollection = "car_ai_image_embeddings"

	// TextDims matches the sentence-embedding model output.
	TextDims = 384
	// ImageDims matches the CLIP image-tower output.
	ImageDims = 512
)

// TextSearchFields are the payload fields covered by the text full-text index.
var TextSearchFields = []string{"label", "car_info", "car_type", "fuel_type"}

// ImageSearchFields are the payload fields covered by the image full-text index.
var ImageSearchFields = []string{"label", "car_info"}

// Config selects a local or managed store deployment.
type Config struct {
	// Addr is the local gRPC address, used when CloudURI is empty.
	Addr string
	// CloudURI, APIKey, and Region select a managed deployment instead.
	CloudURI string
	APIKey   string
	Region   string
}

// Tables is the pair of open store handles.
type Tables struct {
	Text  *semantic.Store
	Image *semantic.Store
}

// Close closes both handles.
func (t *Tables) Close() error {
	err := t.Text.Close()
	if e := t.Image.Close(); err == nil {
		err = e
	}
	return err
}

// Open connects both collections and ensures they exist with the declared
// schemas. A collection-creation failure is not fatal: the handle is still
// returned and callers treat an empty or unindexed collection as a valid
// state. Only a connection failure is an error.
func Open(ctx context.Context, cfg Config) (*Tables, error) {
	text, err := open(cfg, TextCollection)
	if err != nil {
		return nil, err
	}
	image, err := open(cfg, ImageCollection)
	if err != nil {
		text.Close()
		return nil, err
	}

	t := &Tables{Text: text, Image: image}
	// Best-effort schema setup; an empty collection is valid.
	if err := t.Text.EnsureCollection(ctx, TextDims); err != nil {
		slog.Warn("catalog: collection setup failed", "collection", TextCollection, "error", err)
	}
	if err := t.Image.EnsureCollection(ctx, ImageDims); err != nil {
		slog.Warn("catalog: collection setup failed", "collection", ImageCollection, "error", err)
	}
	return t, nil
}

func open(cfg Config, collection string) (*semantic.Store, error) {
	if cfg.CloudURI != "" {
		return semantic.NewCloud(cfg.CloudURI, cfg.APIKey, collection)
	}
	return semantic.New(cfg.Addr, collection)
}

var (
	initOnce sync.Once
	shared   *Tables
	initErr  error
)

// Init opens the shared handle pair exactly once. Subsequent calls return
// the first result regardless of cfg. The handles stay open for the process
// lifetime.
func Init(ctx context.Context, cfg Config) (*Tables, error) {
	initOnce.Do(func() {
		shared, initErr = Open(ctx, cfg)
	})
	return shared, initErr
}
