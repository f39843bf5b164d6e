package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// maxImageBytes caps how much of a remote image body is read.
const maxImageBytes = 20 << 20

// Fetcher resolves image references to raw bytes. Remote fetches share a
// token-bucket rate limit so bulk indexing doesn't hammer image hosts; local
// paths are read directly.
type Fetcher struct {
	limiter *rate.Limiter
	client  *http.Client
}

// NewFetcher creates a Fetcher with the given sustained rate and burst.
func NewFetcher(perSecond float64, burst int) *Fetcher {
	if burst <= 0 {
		burst = 1
	}
	return &Fetcher{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch returns the bytes behind an HTTP(S) URL or local path. The content
// is not validated here; the caller verifies it decodes as an image.
func (f *Fetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, "GET", ref, nil)
		if err != nil {
			return nil, fmt.Errorf("ingest: fetch %s: %w", ref, err)
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("ingest: fetch %s: %w", ref, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("ingest: fetch %s: status %d", ref, resp.StatusCode)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
		if err != nil {
			return nil, fmt.Errorf("ingest: fetch %s: %w", ref, err)
		}
		return data, nil
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("ingest: read %s: %w", ref, err)
	}
	return data, nil
}
