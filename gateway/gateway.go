// Package gateway exposes the streaming chat core over HTTP: a
// server-sent-events route per turn, model capability listing for UI
// pickers, the sidecar routes (document conversion, transcription,
// speech), and health.
package gateway

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kbukum/chatkit/backend"
	"github.com/kbukum/chatkit/docconvert"
	"github.com/kbukum/chatkit/logger"
	"github.com/kbukum/chatkit/session"
	"github.com/kbukum/chatkit/transcribe"
)

// Gateway is the HTTP surface over the chat core.
type Gateway struct {
	cfg        Config
	engine     *gin.Engine
	httpServer *http.Server
	session    *session.Session
	backend    *backend.Client
	converter  *docconvert.Client
	stt        *transcribe.Client
	version    string
	log        *logger.Logger
}

// New creates a gateway over the given collaborators. converter and stt
// may be nil; their routes then answer 503.
func New(cfg Config, s *session.Session, b *backend.Client, conv *docconvert.Client, stt *transcribe.Client, version string) (*Gateway, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	g := &Gateway{
		cfg:       cfg,
		engine:    gin.New(),
		session:   s,
		backend:   b,
		converter: conv,
		stt:       stt,
		version:   version,
		log:       logger.Component("gateway"),
	}
	g.engine.Use(gin.Recovery())
	g.registerRoutes()

	g.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      g.engine,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}
	return g, nil
}

func (g *Gateway) registerRoutes() {
	v1 := g.engine.Group("/v1")
	v1.POST("/chat/stream", g.handleChatStream)
	v1.GET("/models", g.handleModels)
	v1.POST("/convert", g.handleConvert)
	v1.POST("/transcribe", g.handleTranscribe)
	v1.POST("/speech", g.handleSpeech)
	v1.POST("/chats/:id/title", g.handleTitle)
	v1.POST("/tokens/count", g.handleCountTokens)

	g.engine.GET("/healthz", g.handleHealth)
}

// Engine returns the underlying gin engine, mainly for tests.
func (g *Gateway) Engine() *gin.Engine { return g.engine }

// Start binds the port and begins serving. It returns once the listener
// is bound; serving continues in a goroutine.
func (g *Gateway) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", g.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("gateway failed to bind %s: %w", g.httpServer.Addr, err)
	}

	go func() {
		if err := g.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			g.log.Error("gateway serve error", map[string]interface{}{
				logger.FieldError: err.Error(),
			})
		}
	}()

	g.log.Info("gateway started", map[string]interface{}{
		"addr": g.httpServer.Addr,
	})
	return nil
}

// Stop gracefully shuts down the gateway with a 5-second deadline.
func (g *Gateway) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := g.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("gateway shutdown: %w", err)
	}
	g.log.Info("gateway shut down")
	return nil
}

// Addr returns the configured listen address.
func (g *Gateway) Addr() string { return g.httpServer.Addr }
