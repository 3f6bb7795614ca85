// Package docconvert is a client for the PDF-to-markdown conversion
// sidecar. The sidecar loads its converter asynchronously at startup and
// answers 503 until it is ready, so callers should treat conversion
// failures shortly after deployment as retryable.
package docconvert

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kbukum/chatkit/errors"
)

const (
	defaultURL     = "http://localhost:8386"
	defaultTimeout = 120 * time.Second

	// Failure bodies are small JSON details; bound reads anyway.
	maxDetailBody = 16 << 10
)

// Config holds configuration for the conversion sidecar client.
type Config struct {
	URL     string        `yaml:"url" mapstructure:"url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults applies default values to unset fields.
func (c *Config) ApplyDefaults() {
	if c.URL == "" {
		c.URL = defaultURL
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

// Client converts PDF documents to markdown via the sidecar.
type Client struct {
	cfg    Config
	client *http.Client
}

// New creates a conversion client.
func New(cfg Config) *Client {
	cfg.ApplyDefaults()
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type convertRequest struct {
	FileData string `json:"file_data"`
	Filename string `json:"filename,omitempty"`
}

// detailBody is the JSON shape of the sidecar's failure responses.
type detailBody struct {
	Detail string `json:"detail"`
}

// IsAvailable reports whether the sidecar is up and its converter loaded.
func (c *Client) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL+"/ping", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// Convert sends a PDF and returns its markdown rendition. A 503 from the
// sidecar (converter still loading) comes back retryable so callers can
// run the call under a retry policy.
func (c *Client) Convert(ctx context.Context, filename string, pdf []byte) (string, error) {
	if len(pdf) == 0 {
		return "", errors.Invalid("pdf content is empty")
	}

	body, err := json.Marshal(convertRequest{
		FileData: base64.StdEncoding.EncodeToString(pdf),
		Filename: filename,
	})
	if err != nil {
		return "", errors.Invalid(fmt.Sprintf("encode convert request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL+"/convert", bytes.NewReader(body))
	if err != nil {
		return "", errors.Connection(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", errors.Cancelled()
		}
		return "", errors.Connection(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.FromHTTPStatus(resp.StatusCode, readDetail(resp.Body))
	}

	markdown, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Connection(err)
	}
	return string(markdown), nil
}

// readDetail extracts the {detail} message from a failure body. An
// unparseable body yields "" and the error constructor substitutes a
// generic message.
func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxDetailBody))
	if err != nil {
		return ""
	}
	var db detailBody
	if err := json.Unmarshal(data, &db); err != nil {
		return ""
	}
	return db.Detail
}
