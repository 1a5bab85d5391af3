package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// Options configures the fetch behavior
type Options struct {
	Timeout   time.Duration // Request timeout
	MaxSize   int64         // Maximum response size in bytes (0 = no limit)
	UserAgent string        // User agent string
}

// DefaultOptions returns default fetch options
func DefaultOptions() Options {
	return Options{
		Timeout:   30 * time.Second,
		MaxSize:   500 * 1024 * 1024, // 500MB
		UserAgent: "DemodropEngine/1.0",
	}
}

// Stream is an open media byte stream
type Stream struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// Client fetches precomputed peaks documents and media byte streams
type Client struct {
	client   *http.Client
	options  Options
	requests atomic.Int64
}

// NewClient creates a new fetch client with the given options
func NewClient(options Options) *Client {
	if options.Timeout <= 0 {
		options.Timeout = DefaultOptions().Timeout
	}
	if options.UserAgent == "" {
		options.UserAgent = DefaultOptions().UserAgent
	}
	return &Client{
		client: &http.Client{
			Timeout: options.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				DisableCompression:  true, // Don't compress audio
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		options: options,
	}
}

// Requests returns the number of HTTP requests issued by this client.
// Used by tests to assert that validation failures stay off the network.
func (c *Client) Requests() int64 {
	return c.requests.Load()
}

// FetchPeaks downloads a precomputed peaks document and validates it.
// Accepts either a bare JSON number array or an object with a "peaks" field.
func (c *Client) FetchPeaks(ctx context.Context, url string) ([]float64, error) {
	body, _, err := c.get(ctx, url, "application/json,*/*")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	raw, err := io.ReadAll(io.LimitReader(body, 10*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("reading peaks document: %w", err)
	}

	peaks, err := decodePeaks(raw)
	if err != nil {
		return nil, err
	}
	if len(peaks) == 0 {
		return nil, fmt.Errorf("peaks document at %s is empty", url)
	}

	// Clamp out-of-range amplitudes instead of rejecting the document
	for i, v := range peaks {
		if v < 0 {
			peaks[i] = 0
		} else if v > 1 {
			peaks[i] = 1
		}
	}

	return peaks, nil
}

// OpenStream opens a media URL for reading. The caller owns the body.
func (c *Client) OpenStream(ctx context.Context, url string) (*Stream, error) {
	body, resp, err := c.get(ctx, url, "audio/*,*/*")
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if c.options.MaxSize > 0 && resp.ContentLength > c.options.MaxSize {
		body.Close()
		return nil, fmt.Errorf("media too large: %d bytes (max %d)", resp.ContentLength, c.options.MaxSize)
	}

	return &Stream{
		Body:          body,
		ContentType:   contentType,
		ContentLength: resp.ContentLength,
	}, nil
}

func (c *Client) get(ctx context.Context, url, accept string) (io.ReadCloser, *http.Response, error) {
	if url == "" {
		return nil, nil, fmt.Errorf("empty URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.options.UserAgent)
	req.Header.Set("Accept", accept)

	c.requests.Add(1)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return nil, nil, fmt.Errorf("server returned status %d for %s", resp.StatusCode, url)
	}

	return resp.Body, resp, nil
}

// decodePeaks parses a peaks document in either supported shape
func decodePeaks(raw []byte) ([]float64, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var peaks []float64
		if err := json.Unmarshal(raw, &peaks); err != nil {
			return nil, fmt.Errorf("invalid peaks array: %w", err)
		}
		return peaks, nil
	}

	var doc struct {
		Peaks []float64 `json:"peaks"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid peaks document: %w", err)
	}
	return doc.Peaks, nil
}

// IsAudioContentType reports whether a content type looks like audio
func IsAudioContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if strings.HasPrefix(ct, "audio/") {
		return true
	}
	switch ct {
	case "application/ogg", "application/octet-stream":
		return true
	}
	return false
}
