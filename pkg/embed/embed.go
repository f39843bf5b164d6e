// Package embed provides HTTP clients for the external embedding services:
// a sentence-embedding model for car descriptions and a CLIP-style model for
// car images. Both speak a small JSON API and return raw float32 vectors;
// the rest of the codebase stays model-agnostic.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// TextEmbedder converts free-form text into an embedding vector.
type TextEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// ImageEmbedder converts raw image bytes into an embedding vector.
type ImageEmbedder interface {
	EmbedImage(ctx context.Context, data []byte) ([]float32, error)
}

// TextClient is a TextEmbedder backed by an Ollama-compatible HTTP endpoint.
type TextClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewTextClient creates a text embedding client.
func NewTextClient(baseURL, model string) *TextClient {
	return &TextClient{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{},
	}
}

type textEmbedReq struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type textEmbedResp struct {
	Embedding []float64 `json:"embedding"`
}

// EmbedText implements TextEmbedder.
func (c *TextClient) EmbedText(ctx context.Context, text string) ([]float32, error) {
	body, _ := json.Marshal(textEmbedReq{Model: c.model, Prompt: text})
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("embed text: status %d", resp.StatusCode)
	}

	var result textEmbedResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("embed text decode: %w", err)
	}

	out := make([]float32, len(result.Embedding))
	for i, v := range result.Embedding {
		out[i] = float32(v)
	}
	return out, nil
}

// ImageClient is an ImageEmbedder backed by a CLIP embedding service.
// The service accepts raw image bytes and returns the image-tower vector.
type ImageClient struct {
	baseURL string
	client  *http.Client
}

// NewImageClient creates an image embedding client.
func NewImageClient(baseURL string) *ImageClient {
	return &ImageClient{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

type imageEmbedResp struct {
	Embedding []float64 `json:"embedding"`
}

// EmbedImage implements ImageEmbedder.
func (c *ImageClient) EmbedImage(ctx context.Context, data []byte) ([]float32, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/embed/image", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("embed image: status %d", resp.StatusCode)
	}

	var result imageEmbedResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("embed image decode: %w", err)
	}

	out := make([]float32, len(result.Embedding))
	for i, v := range result.Embedding {
		out[i] = float32(v)
	}
	return out, nil
}
