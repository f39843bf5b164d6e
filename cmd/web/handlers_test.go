package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akashAD98/Car-ai-multimodal-search/engine/domain"
	"github.com/akashAD98/Car-ai-multimodal-search/engine/search"
	"github.com/akashAD98/Car-ai-multimodal-search/engine/semantic"
)

type fakeSearcher struct {
	ftHits  []semantic.Hit
	ftErr   error
	knnHits []semantic.Hit
	knnErr  error
}

func (f *fakeSearcher) FullText(context.Context, string, []string, int) ([]semantic.Hit, error) {
	return f.ftHits, f.ftErr
}

func (f *fakeSearcher) Search(context.Context, []float32, int) ([]semantic.Hit, error) {
	return f.knnHits, f.knnErr
}

type fakeEmbedder struct{ err error }

func (f *fakeEmbedder) EmbedText(context.Context, string) ([]float32, error) {
	return []float32{0.1}, f.err
}

func (f *fakeEmbedder) EmbedImage(context.Context, []byte) ([]float32, error) {
	return []float32{0.1}, f.err
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandlers(text, img *fakeSearcher) *handlers {
	fe := &fakeEmbedder{}
	svc := search.New(text, img, fe, fe, search.Options{}, quiet())
	return &handlers{svc: svc, logger: quiet()}
}

func pngUpload(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func multipartRequest(t *testing.T, field string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, "upload.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/search/image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestReadUpload_Valid(t *testing.T) {
	img := pngUpload(t)
	data, msg := readUpload(multipartRequest(t, "image", img))
	if msg != "" {
		t.Fatalf("unexpected rejection: %q", msg)
	}
	if !bytes.Equal(data, img) {
		t.Fatal("upload bytes mangled")
	}
}

func TestReadUpload_MissingFile(t *testing.T) {
	_, msg := readUpload(multipartRequest(t, "wrong_field", pngUpload(t)))
	if msg == "" {
		t.Fatal("expected rejection for missing image field")
	}
}

func TestReadUpload_Oversized(t *testing.T) {
	big := make([]byte, domain.MaxUploadBytes+1)
	_, msg := readUpload(multipartRequest(t, "image", big))
	if msg == "" {
		t.Fatal("expected rejection for oversized upload")
	}
	if !strings.Contains(msg, "too large") {
		t.Fatalf("message should mention size, got: %q", msg)
	}
}

func TestReadUpload_NotAnImage(t *testing.T) {
	_, msg := readUpload(multipartRequest(t, "image", []byte("just text")))
	if msg == "" {
		t.Fatal("expected rejection for undecodable upload")
	}
}

func TestMedia_NotFound(t *testing.T) {
	h := newTestHandlers(&fakeSearcher{}, &fakeSearcher{})
	rec := httptest.NewRecorder()
	h.media(rec, httptest.NewRequest("GET", "/media?ref=/no/such/file.png", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	h := newTestHandlers(&fakeSearcher{}, &fakeSearcher{})
	rec := httptest.NewRecorder()
	h.health(rec, httptest.NewRequest("GET", "/api/health", nil))

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}

func TestAPITextSearch_Found(t *testing.T) {
	text := &fakeSearcher{ftHits: []semantic.Hit{{Payload: map[string]any{
		"label":    "Tata Nexon",
		"car_info": "compact suv",
	}}}}
	h := newTestHandlers(text, &fakeSearcher{})

	body := strings.NewReader(`{"query":"nexon"}`)
	rec := httptest.NewRecorder()
	h.apiTextSearch(rec, httptest.NewRequest("POST", "/api/search/text", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp textSearchResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "found" || len(resp.Cars) != 1 || resp.Cars[0].Label != "Tata Nexon" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestAPITextSearch_EmptyQuery(t *testing.T) {
	h := newTestHandlers(&fakeSearcher{}, &fakeSearcher{})
	rec := httptest.NewRecorder()
	h.apiTextSearch(rec, httptest.NewRequest("POST", "/api/search/text", strings.NewReader(`{}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAPITextSearch_Failed(t *testing.T) {
	text := &fakeSearcher{ftErr: errors.New("store down")}
	h := newTestHandlers(text, &fakeSearcher{})

	rec := httptest.NewRecorder()
	h.apiTextSearch(rec, httptest.NewRequest("POST", "/api/search/text", strings.NewReader(`{"query":"x"}`)))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestAPIImageSearch_RejectsBadUpload(t *testing.T) {
	h := newTestHandlers(&fakeSearcher{}, &fakeSearcher{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/search/image", bytes.NewReader([]byte("not an image")))
	h.apiImageSearch(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAPIImageSearch_Found(t *testing.T) {
	img := &fakeSearcher{knnHits: []semantic.Hit{{
		Score: 0.9,
		Payload: map[string]any{
			"label":     "Kia Seltos",
			"image_uri": "http://x/seltos.jpg",
		},
	}}}
	h := newTestHandlers(&fakeSearcher{}, img)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/search/image", bytes.NewReader(pngUpload(t)))
	h.apiImageSearch(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp imageSearchResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "found" || len(resp.Matches) != 1 || resp.Matches[0].Label != "Kia Seltos" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestTextSearch_NoMatchRendersMessage(t *testing.T) {
	h := newTestHandlers(&fakeSearcher{}, &fakeSearcher{})
	rec := httptest.NewRecorder()
	h.textSearch(rec, httptest.NewRequest("GET", "/search?q=submarine", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No cars found") {
		t.Fatal("expected no-match message in page")
	}
}

func TestTextSearch_EmptyQueryRedirects(t *testing.T) {
	h := newTestHandlers(&fakeSearcher{}, &fakeSearcher{})
	rec := httptest.NewRecorder()
	h.textSearch(rec, httptest.NewRequest("GET", "/search", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
}
