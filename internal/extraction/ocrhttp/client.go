package ocrhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"healthrisk/internal/profile/ports"
)

const (
	readTextPath   = "/readtext"
	defaultTimeout = 15 * time.Second

	// maxErrorBody caps how much of a failed response is echoed into the error.
	maxErrorBody = 512
)

// Client calls an OCR sidecar that accepts raw image bytes and answers with
// recognized lines:
//
//	POST /readtext  Content-Type: image/png
//	{"results":[{"text":"Age: 45","confidence":0.91}]}
type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client, e.g. to share a transport.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.http.Timeout = d
		}
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("ocr base URL is required")
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type readTextResponse struct {
	Results []struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	} `json:"results"`
}

func (c *Client) Extract(ctx context.Context, image []byte, mediaType string) ([]ports.TextLine, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+readTextPath, bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("build ocr request: %w", err)
	}
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", mediaType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocr request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		blob, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("ocr request failed status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(blob)))
	}

	var out readTextResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode ocr response: %w", err)
	}

	lines := make([]ports.TextLine, 0, len(out.Results))
	for _, r := range out.Results {
		lines = append(lines, ports.TextLine{Text: r.Text, Confidence: r.Confidence})
	}
	return lines, nil
}

func (c *Client) Backend() string { return "ocr-http" }
