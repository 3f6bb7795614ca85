// Package transcribe is a client for the speech-to-text sidecar. The
// sidecar loads its model asynchronously at startup and answers 503 until
// it is ready.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/kbukum/chatkit/errors"
)

const (
	defaultURL     = "http://localhost:8387"
	defaultTimeout = 120 * time.Second

	maxDetailBody = 16 << 10
)

// Config holds configuration for the speech-to-text sidecar client.
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

// Client transcribes audio via the sidecar.
type Client struct {
	cfg    Config
	client *http.Client
}

// New creates a transcription client.
func New(cfg Config) *Client {
	cfg.ApplyDefaults()
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type detailBody struct {
	Detail string `json:"detail"`
}

// IsAvailable reports whether the sidecar is up and its model loaded.
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

// Transcribe sends audio content and returns the plain transcription text.
// The sidecar only accepts audio/* content types; mimeType must carry the
// real type of the recording. A 503 (model still loading) comes back
// retryable.
func (c *Client) Transcribe(ctx context.Context, fileName, mimeType string, audio io.Reader) (string, error) {
	if !strings.HasPrefix(mimeType, "audio/") {
		return "", errors.Invalid("content type must be audio/*")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreatePart(audioPartHeader(fileName, mimeType))
	if err != nil {
		return "", errors.Connection(err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", errors.Connection(err)
	}
	if err := w.Close(); err != nil {
		return "", errors.Connection(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL+"/transcribe", &buf)
	if err != nil {
		return "", errors.Connection(err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

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

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Connection(err)
	}
	return strings.TrimSpace(string(text)), nil
}

// audioPartHeader builds the form part header for the audio upload.
// CreateFormFile hardcodes application/octet-stream, which the sidecar
// rejects, so the content type is set explicitly.
func audioPartHeader(fileName, mimeType string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="audio_file"; filename="`+escapeQuotes(fileName)+`"`)
	h.Set("Content-Type", mimeType)
	return h
}

func escapeQuotes(s string) string {
	r := strings.NewReplacer("\\", "\\\\", `"`, "\\\"")
	return r.Replace(s)
}

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
