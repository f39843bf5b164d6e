// Package search orchestrates car lookups against the two collections.
// Text queries run full-text first and fall back to vector similarity only
// when full-text comes back empty (full-text is ranking-preferred); image
// queries go straight to nearest-neighbour. Outcomes distinguish "no match"
// from "search failed" so callers never have to overload an empty slice.
package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/akashAD98/Car-ai-multimodal-search/engine/catalog"
	"github.com/akashAD98/Car-ai-multimodal-search/engine/semantic"
	"github.com/akashAD98/Car-ai-multimodal-search/pkg/embed"
	"github.com/akashAD98/Car-ai-multimodal-search/pkg/fn"
)

// Searcher abstracts the store operations the orchestrator needs.
type Searcher interface {
	FullText(ctx context.Context, query string, fields []string, limit int) ([]semantic.Hit, error)
	Search(ctx context.Context, vector []float32, limit int) ([]semantic.Hit, error)
}

// Options configures result caps and per-search timeouts.
type Options struct {
	Limit   int
	Timeout time.Duration
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Limit:   6,
		Timeout: 15 * time.Second,
	}
}

// Service is the search orchestrator.
type Service struct {
	text       Searcher
	image      Searcher
	embedText  embed.TextEmbedder
	embedImage embed.ImageEmbedder
	opts       Options
	logger     *slog.Logger
}

// New creates a Service over the two collections.
func New(text, image Searcher, te embed.TextEmbedder, ie embed.ImageEmbedder, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultOptions().Limit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	return &Service{
		text:       text,
		image:      image,
		embedText:  te,
		embedImage: ie,
		opts:       opts,
		logger:     logger,
	}
}

// Status classifies a search outcome.
type Status int

const (
	// Found means at least one result survived dedup.
	Found Status = iota
	// NoMatch means both search attempts came back empty.
	NoMatch
	// Failed means the search itself errored; Err carries the reason.
	Failed
)

// Car is one deduplicated text-search result.
type Car struct {
	Label     string   `json:"label"`
	CarType   string   `json:"car_type"`
	FuelType  string   `json:"fuel_type"`
	CarInfo   string   `json:"car_info"`
	ImageURLs []string `json:"image_urls"`
}

// CarMatch is one image-similarity result.
type CarMatch struct {
	Label    string  `json:"label"`
	CarInfo  string  `json:"car_info"`
	ImageURI string  `json:"image_uri"`
	Score    float32 `json:"score"`
}

// TextOutcome is the result of a text search.
type TextOutcome struct {
	Status Status
	Cars   []Car
	Err    error
}

// ImageOutcome is the result of an image search.
type ImageOutcome struct {
	Status  Status
	Matches []CarMatch
	Err     error
}

// Text runs a text query: full-text with the result cap, then a vector
// retry with the same cap when full-text is empty. Hits are deduplicated
// by label in first-seen order.
func (s *Service) Text(ctx context.Context, query string) TextOutcome {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	hits, err := s.text.FullText(ctx, query, catalog.TextSearchFields, s.opts.Limit)
	if err != nil {
		s.logger.Error("search: full-text failed", "error", err)
		return TextOutcome{Status: Failed, Err: err}
	}

	if len(hits) == 0 {
		s.logger.Info("search: full-text empty, retrying as vector search", "query", query)
		vec, err := s.embedText.EmbedText(ctx, query)
		if err != nil {
			return TextOutcome{Status: Failed, Err: err}
		}
		hits, err = s.text.Search(ctx, vec, s.opts.Limit)
		if err != nil {
			s.logger.Error("search: vector fallback failed", "error", err)
			return TextOutcome{Status: Failed, Err: err}
		}
	}

	cars := DedupeByLabel(fn.Map(hits, carFromHit))
	if len(cars) == 0 {
		return TextOutcome{Status: NoMatch}
	}
	return TextOutcome{Status: Found, Cars: cars}
}

// Image runs nearest-neighbour search for a query image that has already
// passed upload validation.
func (s *Service) Image(ctx context.Context, data []byte) ImageOutcome {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	vec, err := s.embedImage.EmbedImage(ctx, data)
	if err != nil {
		return ImageOutcome{Status: Failed, Err: err}
	}
	hits, err := s.image.Search(ctx, vec, s.opts.Limit)
	if err != nil {
		s.logger.Error("search: image search failed", "error", err)
		return ImageOutcome{Status: Failed, Err: err}
	}
	if len(hits) == 0 {
		return ImageOutcome{Status: NoMatch}
	}
	return ImageOutcome{Status: Found, Matches: fn.Map(hits, matchFromHit)}
}

// DedupeByLabel keeps the first occurrence of each label, preserving order.
// It is idempotent: deduping an already-deduped slice is a no-op.
func DedupeByLabel(cars []Car) []Car {
	return fn.UniqueBy(cars, func(c Car) string { return c.Label })
}

func carFromHit(h semantic.Hit) Car {
	return Car{
		Label:     str(h.Payload["label"]),
		CarType:   str(h.Payload["car_type"]),
		FuelType:  str(h.Payload["fuel_type"]),
		CarInfo:   str(h.Payload["car_info"]),
		ImageURLs: NormalizeStringList(h.Payload["image_urls"]),
	}
}

func matchFromHit(h semantic.Hit) CarMatch {
	return CarMatch{
		Label:    str(h.Payload["label"]),
		CarInfo:  str(h.Payload["car_info"]),
		ImageURI: str(h.Payload["image_uri"]),
		Score:    h.Score,
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// NormalizeStringList normalizes the scalar-or-list shapes a stored
// image_urls field can come back as. This is the single ingress-boundary
// normalization point; nothing downstream type-switches on the payload.
func NormalizeStringList(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []string:
		return t
	case []any:
		var out []string
		for _, e := range t {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
