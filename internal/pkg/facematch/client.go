package facematch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to an external embedding service over HTTP. The service
// accepts raw image bytes on POST /embeddings and answers with one
// embedding per detected face.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tolerance  float64
}

type embeddingsResponse struct {
	Embeddings []Embedding `json:"embeddings"`
}

func NewClient(baseURL string, timeout time.Duration, tolerance float64) *Client {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tolerance:  tolerance,
	}
}

// Enroll returns the embedding of the first face found in image.
func (c *Client) Enroll(ctx context.Context, image []byte) (Embedding, error) {
	embeddings, err := c.embed(ctx, image)
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// Match embeds the first face in image and compares it with candidates.
func (c *Client) Match(ctx context.Context, image []byte, candidates []Embedding) (MatchResult, error) {
	embeddings, err := c.embed(ctx, image)
	if err != nil {
		return MatchResult{}, err
	}
	return Compare(embeddings[0], candidates, c.tolerance)
}

func (c *Client) embed(ctx context.Context, image []byte) ([]Embedding, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("failed to build embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnprocessableEntity {
		return nil, ErrNoFaceDetected
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrServiceUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: invalid response: %v", ErrServiceUnavailable, err)
	}
	if len(out.Embeddings) == 0 {
		return nil, ErrNoFaceDetected
	}
	return out.Embeddings, nil
}
