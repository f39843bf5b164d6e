package ingest

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/akashAD98/Car-ai-multimodal-search/engine/domain"
)

type fakeImageEmbedder struct {
	err   error
	calls int
}

func (f *fakeImageEmbedder) EmbedImage(_ context.Context, _ []byte) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.4, 0.5}, nil
}

func writeTestPNG(t *testing.T, dir, name string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
	return path
}

func TestImageIndexer_Run(t *testing.T) {
	dir := t.TempDir()
	good := writeTestPNG(t, dir, "nexon.png")

	// A .jpg extension on a non-image file must not fool the indexer.
	bogus := filepath.Join(dir, "notes.jpg")
	if err := os.WriteFile(bogus, []byte("just some text"), 0o644); err != nil {
		t.Fatalf("write bogus file: %v", err)
	}

	store := &fakeStore{}
	emb := &fakeImageEmbedder{}
	ix := NewImageIndexer(store, emb, NewFetcher(100, 5), quiet())

	rows := []domain.CSVRow{{
		Label:     "Tata Nexon",
		CarInfo:   "compact suv",
		ImageURLs: []string{good, bogus, filepath.Join(dir, "missing.png")},
	}}
	stats, err := ix.Run(context.Background(), rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Rows != 3 || stats.Indexed != 1 || stats.Skipped != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	if emb.calls != 1 {
		t.Fatalf("embedder called %d times, want 1", emb.calls)
	}

	rec := store.records[0]
	if rec.Payload["label"] != "Tata Nexon" || rec.Payload["image_uri"] != good {
		t.Fatalf("payload mismatch: %+v", rec.Payload)
	}
	if _, ok := rec.Payload["image_urls"]; ok {
		t.Fatal("image records carry image_uri, not image_urls")
	}
	if len(store.textIdxWith) == 0 {
		t.Fatal("full-text index was not rebuilt")
	}
}

func TestImageIndexer_AllSkippedMeansNoUpsert(t *testing.T) {
	store := &fakeStore{}
	ix := NewImageIndexer(store, &fakeImageEmbedder{}, NewFetcher(100, 5), quiet())

	rows := []domain.CSVRow{{
		Label:     "Ghost",
		ImageURLs: []string{filepath.Join(t.TempDir(), "nope.png")},
	}}
	stats, err := ix.Run(context.Background(), rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Indexed != 0 || stats.Skipped != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(store.records) != 0 || len(store.textIdxWith) != 0 {
		t.Fatal("empty batch should touch neither points nor indexes")
	}
}

func TestImagePointID_Stable(t *testing.T) {
	a := imagePointID("Tata Nexon", "http://x/a.jpg")
	b := imagePointID("Tata Nexon", "http://x/a.jpg")
	c := imagePointID("Tata Nexon", "http://x/b.jpg")
	if a != b {
		t.Fatal("same label+uri must map to the same ID")
	}
	if a == c {
		t.Fatal("different uris must map to different IDs")
	}
}
