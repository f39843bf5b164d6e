// Package imageutil resolves image references (HTTP URLs or local paths) to
// renderable image bytes. Search results store image locations in a shape
// that may be a single string or a list of strings, so every entry point
// first normalizes through First. Load never returns an error to its caller:
// any failure mode degrades to nil, which the UI renders as "unavailable".
package imageutil

import (
	"bytes"
	"image"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	// Register decoders for the formats the indexers accept.
	_ "image/jpeg"
	_ "image/png"
)

const (
	// ProbeTimeout bounds the HEAD existence check.
	ProbeTimeout = 5 * time.Second
	// FetchTimeout bounds the full content download.
	FetchTimeout = 10 * time.Second
	// MaxFetchBytes caps how much of a remote body is read.
	MaxFetchBytes = 20 << 20
)

var (
	probeClient = &http.Client{Timeout: ProbeTimeout}
	fetchClient = &http.Client{Timeout: FetchTimeout}
)

// First normalizes a scalar-or-collection value to its first string element.
// Stored payloads may hold image locations as a single string or a list;
// callers treat both shapes the same. Returns false for empty input.
func First(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		if t == "" {
			return "", false
		}
		return t, true
	case []string:
		if len(t) == 0 {
			return "", false
		}
		return t[0], t[0] != ""
	case []any:
		if len(t) == 0 {
			return "", false
		}
		return First(t[0])
	default:
		return "", false
	}
}

// IsValidImagePath reports whether a URL or local path refers to a reachable
// image location. HTTP(S) URLs are probed with a HEAD request; anything but a
// 200 within the probe timeout counts as invalid. Local paths are checked for
// existence only.
func IsValidImagePath(v any) bool {
	ref, ok := First(v)
	if !ok {
		return false
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		resp, err := probeClient.Head(ref)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}

	_, err := os.Stat(ref)
	return err == nil
}

// Load resolves a URL or local path to image bytes, verifying that the
// content decodes as an image. It returns nil for missing input, a non-200
// response, an unreadable file, or undecodable bytes; it never panics and
// never surfaces an error.
func Load(v any) []byte {
	ref, ok := First(v)
	if !ok {
		return nil
	}

	var data []byte
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		resp, err := fetchClient.Get(ref)
		if err != nil {
			return nil
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil
		}
		data, err = io.ReadAll(io.LimitReader(resp.Body, MaxFetchBytes))
		if err != nil {
			return nil
		}
	} else {
		var err error
		data, err = os.ReadFile(ref)
		if err != nil {
			return nil
		}
	}

	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return nil
	}
	return data
}

// Format returns the decoded image format name ("jpeg", "png") of data, or
// "" if data is not a decodable image.
func Format(data []byte) string {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	return format
}
