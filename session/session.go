// Package session orchestrates one logical "send a turn" operation: it
// issues the streaming request, drives the frame decoder, folds partial
// output into incremental updates, and reruns failed attempts under the
// retry coordinator. It is the only component the surrounding application
// talks to for chat turns.
package session

import (
	"context"
	stderrors "errors"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/chatkit/backend"
	"github.com/kbukum/chatkit/errors"
	"github.com/kbukum/chatkit/logger"
	"github.com/kbukum/chatkit/observability"
	"github.com/kbukum/chatkit/reasoning"
	"github.com/kbukum/chatkit/resilience"
	"github.com/kbukum/chatkit/stream"
)

// readBufSize is the transport read buffer. Frames are small; the buffer
// only bounds how much of a burst is decoded per read.
const readBufSize = 32 << 10

// Request describes one logical turn. The reasoning option is resolved to
// the model's outbound wire value at send time.
type Request struct {
	History       []backend.HistoryMessage
	MessageParts  []backend.Part
	ChatSessionID *int64
	Model         string
	KeySelection  backend.KeySelection
	Thinking      reasoning.Option
	SearchActive  bool
	Regeneration  bool
	SystemPrompt  string
}

// Update is one incremental snapshot of the turn's accumulated state.
// Within a single attempt, each update's Text and Sources are supersets of
// the previous update's. A Reset update signals that a failed attempt's
// partial render must be cleared before the next attempt streams.
type Update struct {
	TurnID         string
	Text           string
	ThoughtSummary string
	Sources        []stream.Source
	// Thinking is true until the first visible text arrives, so callers
	// can show a reasoning indicator.
	Thinking bool
	Reset    bool
}

// Result is the final state of a successful turn.
type Result struct {
	TurnID         string
	Text           string
	ThoughtSummary string
	Sources        []stream.Source
}

// Callbacks receive the turn's visible side effects. For one turn there
// are zero or more OnUpdate calls, then exactly one of OnResult or
// OnFailure. Cancellation is delivered through OnFailure with an error
// satisfying errors.IsCancelled. Nil callbacks are skipped.
type Callbacks struct {
	OnUpdate  func(Update)
	OnResult  func(Result)
	OnFailure func(error)
}

// Config configures the retry policy applied to turn attempts. Zero
// values take the resilience package defaults.
type Config struct {
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" mapstructure:"base_delay"`
	MaxJitter   time.Duration `yaml:"max_jitter" mapstructure:"max_jitter"`
}

// Session starts streaming turns against a backend. It holds no per-turn
// state; every Start call owns a fresh decoder and accumulator, so
// independent chats can stream concurrently through one Session.
type Session struct {
	backend *backend.Client
	cfg     Config
	metrics *observability.TurnMetrics
	log     *logger.Logger
}

// New creates a session service. metrics may be nil.
func New(b *backend.Client, cfg Config, metrics *observability.TurnMetrics) *Session {
	return &Session{
		backend: b,
		cfg:     cfg,
		metrics: metrics,
		log:     logger.Component("session"),
	}
}

// Handle controls one in-flight turn.
type Handle struct {
	turnID string
	cancel context.CancelFunc
	done   chan struct{}
}

// TurnID returns the turn's identifier, present on every update.
func (h *Handle) TurnID() string { return h.turnID }

// Cancel aborts the turn. Any in-flight read is aborted and no further
// attempts run regardless of remaining retry budget. Safe to call more
// than once.
func (h *Handle) Cancel() { h.cancel() }

// Done is closed once the turn has delivered its terminal callback.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Start begins one streaming turn and returns immediately. The turn runs
// until a terminal outcome and then closes the handle's Done channel.
func (s *Session) Start(ctx context.Context, req Request, cb Callbacks) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		turnID: uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.run(ctx, h, req, cb)
	return h
}

func (s *Session) run(ctx context.Context, h *Handle, req Request, cb Callbacks) {
	defer close(h.done)
	defer h.cancel()

	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "chat.turn")
	defer span.End()
	span.SetAttributes(
		attribute.String("chat.turn_id", h.turnID),
		attribute.String("chat.model", req.Model),
	)

	s.metrics.RecordTurnStart(ctx)

	turnReq := backend.TurnRequest{
		History:        req.History,
		MessageParts:   req.MessageParts,
		ChatSessionID:  req.ChatSessionID,
		Model:          req.Model,
		KeySelection:   req.KeySelection,
		IsSearchActive: req.SearchActive,
		ThinkingBudget: reasoning.ToBudget(req.Model, req.Thinking),
		IsRegeneration: req.Regeneration,
		SystemPrompt:   req.SystemPrompt,
	}

	log := s.log.WithFields(map[string]interface{}{
		logger.FieldTurn:  h.turnID,
		logger.FieldModel: req.Model,
	})
	log.Info("turn started", map[string]interface{}{
		"thinking":       string(req.Thinking),
		"thinkingBudget": turnReq.ThinkingBudget,
	})

	retryCfg := resilience.Config{
		MaxAttempts: s.cfg.MaxAttempts,
		BaseDelay:   s.cfg.BaseDelay,
		MaxJitter:   s.cfg.MaxJitter,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			log.Warn("attempt failed, scheduling retry", map[string]interface{}{
				logger.FieldAttempt: attempt,
				logger.FieldBackoff: backoff.String(),
				logger.FieldError:   err.Error(),
			})
			s.metrics.RecordRetry(ctx, req.Model, codeOf(err))
			observability.RecordSpanError(ctx, err)
			// The failed attempt's partial render must be cleared before
			// the next attempt streams.
			emitUpdate(cb, Update{TurnID: h.turnID, Thinking: true, Reset: true})
		},
	}

	result, err := resilience.Run(ctx, retryCfg, func(ctx context.Context) (*Result, error) {
		return s.attempt(ctx, h.turnID, turnReq, cb)
	})

	duration := time.Since(start)
	switch {
	case err == nil:
		s.metrics.RecordTurnEnd(ctx, req.Model, "ok", duration)
		log.Info("turn succeeded", map[string]interface{}{
			logger.FieldDuration: duration.String(),
			"textLen":            len(result.Text),
			"sources":            len(result.Sources),
		})
		if cb.OnResult != nil {
			cb.OnResult(*result)
		}
	case errors.IsCancelled(err):
		s.metrics.RecordTurnEnd(ctx, req.Model, "cancelled", duration)
		log.Info("turn cancelled", map[string]interface{}{
			logger.FieldDuration: duration.String(),
		})
		if cb.OnFailure != nil {
			cb.OnFailure(err)
		}
	default:
		s.metrics.RecordTurnEnd(ctx, req.Model, "failed", duration)
		observability.RecordSpanError(ctx, err)
		log.Error("turn failed", map[string]interface{}{
			logger.FieldDuration: duration.String(),
			logger.FieldError:    err.Error(),
		})
		if cb.OnFailure != nil {
			cb.OnFailure(err)
		}
	}
}

// attempt runs one streaming attempt start to finish. The decoder and
// accumulator are created here so a retry never carries partial state
// across attempts.
func (s *Session) attempt(ctx context.Context, turnID string, req backend.TurnRequest, cb Callbacks) (*Result, error) {
	ts, err := s.backend.StreamTurn(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = ts.Close() }()

	dec := stream.NewDecoder()
	acc := stream.NewAccumulator()
	thinking := true
	buf := make([]byte, readBufSize)

	for {
		n, rerr := ts.Read(buf)
		if n > 0 {
			frames := dec.Feed(string(buf[:n]))
			if len(frames) > 0 {
				acc.ApplyAll(frames)
				if acc.Text() != "" {
					thinking = false
				}
				emitUpdate(cb, Update{
					TurnID:         turnID,
					Text:           acc.Text(),
					ThoughtSummary: acc.ThoughtSummary(),
					Sources:        acc.Sources(),
					Thinking:       thinking,
				})
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			if ctx.Err() != nil {
				return nil, errors.Cancelled()
			}
			var ce *errors.ChatError
			if stderrors.As(rerr, &ce) {
				return nil, rerr
			}
			return nil, errors.Connection(rerr)
		}
	}

	s.metrics.RecordDroppedFrames(ctx, req.Model, dec.Flush())

	if acc.Failed() {
		return nil, errors.Model(acc.ErrorMessage())
	}
	if !acc.HasContent() {
		return nil, errors.EmptyCompletion()
	}
	return &Result{
		TurnID:         turnID,
		Text:           acc.Text(),
		ThoughtSummary: acc.ThoughtSummary(),
		Sources:        acc.Sources(),
	}, nil
}

func emitUpdate(cb Callbacks, u Update) {
	if cb.OnUpdate != nil {
		cb.OnUpdate(u)
	}
}

func codeOf(err error) string {
	var ce *errors.ChatError
	if stderrors.As(err, &ce) {
		return string(ce.Code)
	}
	return "unknown"
}
