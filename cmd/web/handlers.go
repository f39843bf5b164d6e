package main

import (
	"embed"
	"encoding/json"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/akashAD98/Car-ai-multimodal-search/engine/domain"
	"github.com/akashAD98/Car-ai-multimodal-search/engine/search"
	"github.com/akashAD98/Car-ai-multimodal-search/pkg/imageutil"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// ExampleQueries are the canned searches offered on the landing page.
var ExampleQueries = []string{
	"7 Seater car",
	"Tata Motors car",
	"5 lakh budget car",
	"25.0 kmpl mileage car",
}

// uploadPath is the single fixed location for the last uploaded query image;
// each new upload overwrites it.
var uploadPath = filepath.Join(os.TempDir(), "car-search-upload.jpg")

type handlers struct {
	svc    *search.Service
	logger *slog.Logger
}

// carView is a search.Car plus a resolved primary image for the grid.
type carView struct {
	search.Car
	ImageRef string
}

// matchView is a search.CarMatch plus its resolved image.
type matchView struct {
	search.CarMatch
	ImageRef string
}

type pageData struct {
	Examples []string
	Query    string
	Cars     []carView
	Matches  []matchView
	Message  string
}

func (h *handlers) render(w http.ResponseWriter, name string, data pageData) {
	data.Examples = ExampleQueries
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("template render failed", "template", name, "err", err)
	}
}

func (h *handlers) index(w http.ResponseWriter, _ *http.Request) {
	h.render(w, "index.html", pageData{})
}

func (h *handlers) textSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	start := time.Now()
	outcome := h.svc.Text(r.Context(), query)
	mSearchDur.Since(start)
	mTextSearches.Inc()

	data := pageData{Query: query}
	switch outcome.Status {
	case search.Failed:
		mSearchErrors.Inc()
		data.Message = "Search is unavailable right now. Please try again."
	case search.NoMatch:
		mNoMatch.Inc()
		data.Message = "No cars found matching your search. Try different keywords!"
	case search.Found:
		for _, c := range outcome.Cars {
			data.Cars = append(data.Cars, carView{Car: c, ImageRef: firstValidRef(c.ImageURLs)})
		}
	}
	h.render(w, "results.html", data)
}

func (h *handlers) imageSearch(w http.ResponseWriter, r *http.Request) {
	data, msg := readUpload(r)
	if msg != "" {
		mUploadReject.Inc()
		h.render(w, "results.html", pageData{Message: msg})
		return
	}

	// Overwrite the fixed temp path; there is no concurrent-upload isolation.
	if err := os.WriteFile(uploadPath, data, 0o644); err != nil {
		h.logger.Warn("temp image write failed", "path", uploadPath, "err", err)
	}

	start := time.Now()
	outcome := h.svc.Image(r.Context(), data)
	mSearchDur.Since(start)
	mImageSearches.Inc()

	page := pageData{}
	switch outcome.Status {
	case search.Failed:
		mSearchErrors.Inc()
		page.Message = "Image search is unavailable right now. Please try again."
	case search.NoMatch:
		mNoMatch.Inc()
		page.Message = "No similar cars found. Try uploading a different image!"
	case search.Found:
		for _, m := range outcome.Matches {
			page.Matches = append(page.Matches, matchView{CarMatch: m, ImageRef: m.ImageURI})
		}
	}
	h.render(w, "results.html", page)
}

// readUpload extracts and validates the uploaded image. The size ceiling and
// format allow-list are enforced before any store interaction; the returned
// message is user-facing.
func readUpload(r *http.Request) ([]byte, string) {
	if err := r.ParseMultipartForm(domain.MaxUploadBytes + 1<<20); err != nil {
		return nil, "Could not read the uploaded file."
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, "Please choose an image to upload."
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, domain.MaxUploadBytes+1))
	if err != nil {
		return nil, "Could not read the uploaded file."
	}
	if err := domain.ValidateUpload(data); err != nil {
		return nil, err.Error()
	}
	return data, ""
}

// media resolves a result image reference (remote URL or local path) and
// serves the verified bytes. Anything unresolvable is a plain 404; the grid
// shows a placeholder instead.
func (h *handlers) media(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("ref")
	data := imageutil.Load(ref)
	if data == nil {
		http.NotFound(w, r)
		return
	}
	switch imageutil.Format(data) {
	case "png":
		w.Header().Set("Content-Type", "image/png")
	default:
		w.Header().Set("Content-Type", "image/jpeg")
	}
	w.Write(data)
}

// firstValidRef probes the URL list and returns the first reachable image
// reference, or "" if none resolve.
func firstValidRef(urls []string) string {
	for _, u := range urls {
		if imageutil.IsValidImagePath(u) {
			return u
		}
	}
	return ""
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// textSearchRequest is the JSON body for POST /api/search/text.
type textSearchRequest struct {
	Query string `json:"query"`
}

type textSearchResponse struct {
	Status string       `json:"status"`
	Cars   []search.Car `json:"cars,omitempty"`
}

func (h *handlers) apiTextSearch(w http.ResponseWriter, r *http.Request) {
	var req textSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		http.Error(w, `{"error":"query is required"}`, http.StatusBadRequest)
		return
	}

	outcome := h.svc.Text(r.Context(), req.Query)
	mTextSearches.Inc()
	writeTextOutcome(w, outcome, h.logger)
}

func writeTextOutcome(w http.ResponseWriter, outcome search.TextOutcome, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	switch outcome.Status {
	case search.Failed:
		mSearchErrors.Inc()
		logger.Error("text search failed", "err", outcome.Err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"status": "failed"})
	case search.NoMatch:
		mNoMatch.Inc()
		json.NewEncoder(w).Encode(textSearchResponse{Status: "no_match"})
	case search.Found:
		json.NewEncoder(w).Encode(textSearchResponse{Status: "found", Cars: outcome.Cars})
	}
}

type imageSearchResponse struct {
	Status  string            `json:"status"`
	Matches []search.CarMatch `json:"matches,omitempty"`
}

func (h *handlers) apiImageSearch(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, domain.MaxUploadBytes+1))
	if err != nil {
		http.Error(w, `{"error":"could not read body"}`, http.StatusBadRequest)
		return
	}
	if err := domain.ValidateUpload(data); err != nil {
		mUploadReject.Inc()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	outcome := h.svc.Image(r.Context(), data)
	mImageSearches.Inc()

	w.Header().Set("Content-Type", "application/json")
	switch outcome.Status {
	case search.Failed:
		mSearchErrors.Inc()
		h.logger.Error("image search failed", "err", outcome.Err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"status": "failed"})
	case search.NoMatch:
		mNoMatch.Inc()
		json.NewEncoder(w).Encode(imageSearchResponse{Status: "no_match"})
	case search.Found:
		json.NewEncoder(w).Encode(imageSearchResponse{Status: "found", Matches: outcome.Matches})
	}
}
