package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/kbukum/chatkit/errors"
	"github.com/kbukum/chatkit/logger"
	"github.com/kbukum/chatkit/resilience"
	"github.com/kbukum/chatkit/validation"
)

// maxErrorBody bounds how much of a failure response is read for its
// error message.
const maxErrorBody = 64 << 10

// Client talks to the chat backend.
type Client struct {
	cfg     Config
	http    *http.Client // collaborator calls, bounded by cfg.Timeout
	stream  *http.Client // streaming call, no client timeout; context governs
	breaker *resilience.Breaker
	log     *logger.Logger
}

// New creates a backend client.
func New(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		stream:  &http.Client{},
		breaker: resilience.NewBreaker(cfg.BreakerMaxFailures, cfg.BreakerCooldown),
		log:     logger.Component("backend"),
	}, nil
}

// StreamTurn issues one streaming chat turn. On a 2xx response it returns
// the open frame stream; the caller owns closing it. On any other status
// the body's {error} message is extracted and the status classifies the
// returned error as terminal (4xx) or retryable (5xx).
func (c *Client) StreamTurn(ctx context.Context, req TurnRequest) (*TurnStream, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Invalid(fmt.Sprintf("encode turn request: %v", err))
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, defaultChatPath, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Connection(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.stream.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Cancelled()
		}
		return nil, errors.Connection(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := readErrorMessage(resp.Body)
		_ = resp.Body.Close()
		return nil, errors.FromHTTPStatus(resp.StatusCode, msg)
	}

	return newTurnStream(resp.Body, c.cfg.IdleReadTimeout), nil
}

// --- Collaborators ---

// PersistTurn saves a completed user+model turn and returns canonical ids.
func (c *Client) PersistTurn(ctx context.Context, req PersistTurnRequest) (*PersistTurnResponse, error) {
	var out PersistTurnResponse
	if err := c.doJSON(ctx, http.MethodPost, defaultPersistTurnPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PersistUserMessage saves only the user turn when the model call failed
// after exhausting retries.
func (c *Client) PersistUserMessage(ctx context.Context, req PersistUserMessageRequest) (*PersistUserMessageResponse, error) {
	var out PersistUserMessageResponse
	if err := c.doJSON(ctx, http.MethodPost, defaultPersistUserPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMessage rewrites a stored message's parts (edit flow).
func (c *Client) UpdateMessage(ctx context.Context, req UpdateMessageRequest) error {
	return c.doJSON(ctx, http.MethodPatch, defaultMessagesPath, req, nil)
}

// TruncateMessages deletes every message of a chat from the given position
// onward, used by edit/regenerate before replaying history.
func (c *Client) TruncateMessages(ctx context.Context, chatSessionID int64, fromPosition int) error {
	path := defaultMessagesPath +
		"?chatSessionId=" + strconv.FormatInt(chatSessionID, 10) +
		"&fromPosition=" + strconv.Itoa(fromPosition)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// GenerateTitle asks the backend for a chat title.
func (c *Client) GenerateTitle(ctx context.Context, req TitleRequest) (*TitleResponse, error) {
	var out TitleResponse
	if err := c.doJSON(ctx, http.MethodPost, defaultTitlePath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CountTokens returns the token footprint of a prospective request.
func (c *Client) CountTokens(ctx context.Context, req TokenCountRequest) (*TokenCountResponse, error) {
	var out TokenCountResponse
	if err := c.doJSON(ctx, http.MethodPost, defaultTokenCountPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Synthesize converts text to speech and returns the raw audio bytes.
func (c *Client) Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	var audio []byte
	err := c.breaker.Do(func() error {
		body, err := json.Marshal(req)
		if err != nil {
			return errors.Invalid(fmt.Sprintf("encode speech request: %v", err))
		}
		httpReq, err := c.newRequest(ctx, http.MethodPost, defaultSpeechPath, bytes.NewReader(body))
		if err != nil {
			return errors.Connection(err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(httpReq)
		if err != nil {
			return errors.Connection(err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return errors.FromHTTPStatus(resp.StatusCode, readErrorMessage(resp.Body))
		}
		audio, err = io.ReadAll(resp.Body)
		if err != nil {
			return errors.Connection(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return audio, nil
}

// UploadFile uploads file content as multipart/form-data and returns the
// stored object reference for use in file parts.
func (c *Client) UploadFile(ctx context.Context, fileName, mimeType string, content io.Reader) (*UploadResponse, error) {
	var out UploadResponse
	err := c.breaker.Do(func() error {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		part, err := w.CreateFormFile("file", fileName)
		if err != nil {
			return errors.Connection(err)
		}
		if _, err := io.Copy(part, content); err != nil {
			return errors.Connection(err)
		}
		if mimeType != "" {
			if err := w.WriteField("mimeType", mimeType); err != nil {
				return errors.Connection(err)
			}
		}
		if err := w.Close(); err != nil {
			return errors.Connection(err)
		}

		httpReq, err := c.newRequest(ctx, http.MethodPost, defaultUploadPath, &buf)
		if err != nil {
			return errors.Connection(err)
		}
		httpReq.Header.Set("Content-Type", w.FormDataContentType())

		resp, err := c.http.Do(httpReq)
		if err != nil {
			return errors.Connection(err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return errors.FromHTTPStatus(resp.StatusCode, readErrorMessage(resp.Body))
		}
		return json.NewDecoder(resp.Body).Decode(&out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// --- internal ---

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	if c.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AuthToken)
	}
	return req, nil
}

// doJSON runs one collaborator call under the breaker.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	return c.breaker.Do(func() error {
		var body io.Reader
		if in != nil {
			encoded, err := json.Marshal(in)
			if err != nil {
				return errors.Invalid(fmt.Sprintf("encode %s request: %v", path, err))
			}
			body = bytes.NewReader(encoded)
		}

		req, err := c.newRequest(ctx, method, path, body)
		if err != nil {
			return errors.Connection(err)
		}
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return errors.Cancelled()
			}
			return errors.Connection(err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			msg := readErrorMessage(resp.Body)
			c.log.Warn("collaborator call failed", map[string]interface{}{
				logger.FieldOperation: method + " " + path,
				logger.FieldStatus:    resp.StatusCode,
			})
			return errors.FromHTTPStatus(resp.StatusCode, msg)
		}
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Connection(fmt.Errorf("decode %s response: %w", path, err))
		}
		return nil
	})
}

// readErrorMessage extracts the backend's {error} message from a failure
// body. An unparseable or absent body yields "" and the caller substitutes
// a generic message.
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err != nil {
		return ""
	}
	return eb.Error
}
