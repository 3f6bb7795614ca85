package gateway

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/chatkit/backend"
	"github.com/kbukum/chatkit/errors"
	"github.com/kbukum/chatkit/logger"
	"github.com/kbukum/chatkit/observability"
	"github.com/kbukum/chatkit/reasoning"
	"github.com/kbukum/chatkit/session"
)

// maxUploadSize bounds multipart uploads on the convert and transcribe
// routes.
const maxUploadSize = 32 << 20

// streamRequest is the inbound body of POST /v1/chat/stream.
type streamRequest struct {
	History       []backend.HistoryMessage `json:"history"`
	MessageParts  []backend.Part           `json:"messageParts" binding:"required,min=1"`
	ChatSessionID *int64                   `json:"chatSessionId"`
	Model         string                   `json:"model" binding:"required"`
	KeySelection  string                   `json:"keySelection" binding:"omitempty,oneof=free paid"`
	// Thinking is a reasoning option name; empty means dynamic.
	Thinking       string `json:"thinking"`
	IsSearchActive bool   `json:"isSearchActive"`
	IsRegeneration bool   `json:"isRegeneration"`
	SystemPrompt   string `json:"systemPrompt"`
}

// errorPayload is the SSE error event body and the JSON error body of the
// non-streaming routes.
type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleChatStream runs one streaming turn and relays its updates as
// server-sent events: zero or more "update" events, then exactly one
// "done" or "error" event. A client disconnect cancels the turn.
func (g *Gateway) handleChatStream(c *gin.Context) {
	var req streamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	thinking, err := reasoning.ParseOption(req.Thinking)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	keySelection := backend.KeySelection(req.KeySelection)
	if keySelection == "" {
		keySelection = backend.KeyFree
	}

	// The stream outlives the server's write timeout.
	rc := http.NewResponseController(c.Writer)
	_ = rc.SetWriteDeadline(time.Time{})

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	type sseEvent struct {
		name string
		data any
	}
	events := make(chan sseEvent, 32)

	handle := g.session.Start(c.Request.Context(), session.Request{
		History:       req.History,
		MessageParts:  req.MessageParts,
		ChatSessionID: req.ChatSessionID,
		Model:         req.Model,
		KeySelection:  keySelection,
		Thinking:      thinking,
		SearchActive:  req.IsSearchActive,
		Regeneration:  req.IsRegeneration,
		SystemPrompt:  req.SystemPrompt,
	}, session.Callbacks{
		OnUpdate: func(u session.Update) { events <- sseEvent{"update", u} },
		OnResult: func(r session.Result) { events <- sseEvent{"done", r} },
		OnFailure: func(err error) {
			events <- sseEvent{"error", errorPayload{
				Code:    codeOf(err),
				Message: errors.UserMessage(err),
			}}
		},
	})
	go func() {
		<-handle.Done()
		close(events)
	}()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			g.log.Debug("stream client disconnected", map[string]interface{}{
				logger.FieldTurn: handle.TurnID(),
			})
			handle.Cancel()
			// Let the turn deliver its terminal callback before returning.
			for range events {
			}
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			writeSSE(c, ev.name, ev.data)
		}
	}
}

func writeSSE(c *gin.Context, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, payload)
	c.Writer.Flush()
}

// modelInfo describes one supported model's reasoning surface for UI
// pickers.
type modelInfo struct {
	Model             string   `json:"model"`
	Options           []string `json:"options"`
	Default           string   `json:"default"`
	OffAllowed        bool     `json:"offAllowed"`
	SupportsVerbosity bool     `json:"supportsVerbosity"`
}

func (g *Gateway) handleModels(c *gin.Context) {
	prefixes := reasoning.ModelPrefixes()
	models := make([]modelInfo, 0, len(prefixes))
	for _, m := range prefixes {
		opts := reasoning.Options(m)
		names := make([]string, len(opts))
		for i, o := range opts {
			names[i] = string(o)
		}
		models = append(models, modelInfo{
			Model:             m,
			Options:           names,
			Default:           string(reasoning.DefaultOption(m)),
			OffAllowed:        reasoning.IsOffAllowed(m),
			SupportsVerbosity: reasoning.SupportsVerbosity(m),
		})
	}
	c.JSON(http.StatusOK, gin.H{"models": models})
}

func (g *Gateway) handleConvert(c *gin.Context) {
	if g.converter == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "document conversion is not configured"})
		return
	}
	name, data, ok := g.readUpload(c, "file")
	if !ok {
		return
	}
	markdown, err := g.converter.Convert(c.Request.Context(), name, data)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.String(http.StatusOK, markdown)
}

func (g *Gateway) handleTranscribe(c *gin.Context) {
	if g.stt == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "transcription is not configured"})
		return
	}
	file, err := c.FormFile("audio_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio_file form field is required"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer func() { _ = f.Close() }()

	text, err := g.stt.Transcribe(c.Request.Context(), file.Filename, file.Header.Get("Content-Type"), f)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.String(http.StatusOK, text)
}

func (g *Gateway) handleSpeech(c *gin.Context) {
	var req backend.SpeechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	audio, err := g.backend.Synthesize(c.Request.Context(), req)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}

type titleBody struct {
	FirstMessage string `json:"firstMessage" binding:"required"`
}

func (g *Gateway) handleTitle(c *gin.Context) {
	var id int64
	if _, err := fmt.Sscan(c.Param("id"), &id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chat id must be numeric"})
		return
	}
	var body titleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := g.backend.GenerateTitle(c.Request.Context(), backend.TitleRequest{
		ChatSessionID: id,
		FirstMessage:  body.FirstMessage,
	})
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (g *Gateway) handleCountTokens(c *gin.Context) {
	var req backend.TokenCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := g.backend.CountTokens(c.Request.Context(), req)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (g *Gateway) handleHealth(c *gin.Context) {
	health := observability.NewServiceHealth("chatkit", g.version)
	ctx := c.Request.Context()

	if g.converter != nil {
		health.AddComponent(availability(ctx, "docconvert", g.converter))
	}
	if g.stt != nil {
		health.AddComponent(availability(ctx, "transcribe", g.stt))
	}

	status := http.StatusOK
	if health.Status == observability.HealthDown {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}

// availabilityChecker is the surface the sidecar clients share.
type availabilityChecker interface {
	IsAvailable(ctx context.Context) bool
}

func availability(ctx context.Context, name string, c availabilityChecker) observability.Health {
	if c.IsAvailable(ctx) {
		return observability.Health{Name: name, Status: observability.HealthUp}
	}
	return observability.Health{Name: name, Status: observability.HealthDown, Message: "unreachable or still loading"}
}

// readUpload reads one multipart file field into memory.
func (g *Gateway) readUpload(c *gin.Context, field string) (string, []byte, bool) {
	file, err := c.FormFile(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": field + " form field is required"})
		return "", nil, false
	}
	if file.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return "", nil, false
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", nil, false
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", nil, false
	}
	return file.Filename, data, true
}

// writeError maps a chat error to an HTTP response. Backend statuses pass
// through; transport-level failures surface as 502.
func (g *Gateway) writeError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	var ce *errors.ChatError
	if stderrors.As(err, &ce) && ce.HTTPStatus != 0 {
		status = ce.HTTPStatus
	}
	c.JSON(status, errorPayload{Code: codeOf(err), Message: errors.UserMessage(err)})
}

func codeOf(err error) string {
	var ce *errors.ChatError
	if stderrors.As(err, &ce) {
		return string(ce.Code)
	}
	return "INTERNAL"
}
