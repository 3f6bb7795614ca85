package backend

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/chatkit/errors"
	"github.com/kbukum/chatkit/resilience"
)

func testConfig(baseURL string) Config {
	return Config{BaseURL: baseURL, AuthToken: "test-token"}
}

func validTurnRequest() TurnRequest {
	return TurnRequest{
		MessageParts:   []Part{TextPart("hello")},
		Model:          "gemini-2.5-flash",
		KeySelection:   KeyFree,
		ThinkingBudget: -1,
	}
}

func TestStreamTurn_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"type":"text","value":"hi"}`+"\n")
	}))
	defer srv.Close()

	c, err := New(testConfig(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	ts, err := c.StreamTurn(context.Background(), validTurnRequest())
	if err != nil {
		t.Fatalf("StreamTurn: %v", err)
	}
	defer func() { _ = ts.Close() }()

	data, err := io.ReadAll(ts)
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	if !strings.Contains(string(data), `"value":"hi"`) {
		t.Errorf("stream data = %q", data)
	}
}

func TestStreamTurn_ClientErrorIsTerminalWithBackendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":"free tier quota exceeded"}`)
	}))
	defer srv.Close()

	c, _ := New(testConfig(srv.URL))
	_, err := c.StreamTurn(context.Background(), validTurnRequest())

	var ce *errors.ChatError
	if !stderrors.As(err, &ce) {
		t.Fatalf("err = %v, want ChatError", err)
	}
	if ce.Code != errors.CodeClient || ce.Retryable {
		t.Errorf("4xx must be terminal, got %+v", ce)
	}
	if ce.Message != "free tier quota exceeded" {
		t.Errorf("Message = %q, want backend message verbatim", ce.Message)
	}
}

func TestStreamTurn_ServerErrorIsRetryableWithGenericMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>upstream exploded</html>")
	}))
	defer srv.Close()

	c, _ := New(testConfig(srv.URL))
	_, err := c.StreamTurn(context.Background(), validTurnRequest())

	var ce *errors.ChatError
	if !stderrors.As(err, &ce) {
		t.Fatalf("err = %v, want ChatError", err)
	}
	if ce.Code != errors.CodeUpstream || !ce.Retryable {
		t.Errorf("5xx must be retryable, got %+v", ce)
	}
	if ce.Message == "" || strings.Contains(ce.Message, "<html>") {
		t.Errorf("unparseable body must yield a generic message, got %q", ce.Message)
	}
}

func TestStreamTurn_ValidationRejectsBeforeSending(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c, _ := New(testConfig(srv.URL))
	_, err := c.StreamTurn(context.Background(), TurnRequest{Model: "gemini-2.5-flash"})
	if err == nil {
		t.Fatal("expected validation error for empty messageParts")
	}
	if errors.IsRetryable(err) {
		t.Error("validation errors are terminal")
	}
	if called {
		t.Error("invalid request must not reach the backend")
	}
}

func TestStreamTurn_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server watches the connection and observes
		// the client's disconnect; otherwise the request context is never
		// cancelled and srv.Close deadlocks.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c, _ := New(testConfig(srv.URL))

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := c.StreamTurn(ctx, validTurnRequest())
	if !errors.IsCancelled(err) {
		t.Errorf("err = %v, want cancellation, never retryable", err)
	}
}

func TestStreamTurn_IdleTimeoutConvertsToRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"type":"text","value":"a"}`+"\n")
		w.(http.Flusher).Flush()
		// Stall without closing.
		<-r.Context().Done()
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.IdleReadTimeout = 30 * time.Millisecond
	c, _ := New(cfg)

	ts, err := c.StreamTurn(context.Background(), validTurnRequest())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = ts.Close() }()

	_, err = io.ReadAll(ts)
	var ce *errors.ChatError
	if !stderrors.As(err, &ce) || ce.Code != errors.CodeIdleTimeout {
		t.Fatalf("err = %v, want idle timeout", err)
	}
	if !ce.Retryable {
		t.Error("idle timeout must be retryable")
	}
}

func TestPersistTurn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/persist-turn" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"chatSessionId":7,"userMessageId":41,"modelMessageId":42}`)
	}))
	defer srv.Close()

	c, _ := New(testConfig(srv.URL))
	resp, err := c.PersistTurn(context.Background(), PersistTurnRequest{
		UserParts: []Part{TextPart("hi")},
		ModelText: "hello",
		Model:     "gemini-2.5-flash",
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.ChatSessionID != 7 || resp.ModelMessageID != 42 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestTruncateMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/messages" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("chatSessionId") != "7" || q.Get("fromPosition") != "4" {
			t.Errorf("query = %v", q)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, _ := New(testConfig(srv.URL))
	if err := c.TruncateMessages(context.Background(), 7, 4); err != nil {
		t.Fatal(err)
	}
}

func TestUploadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		f, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer func() { _ = f.Close() }()
		if header.Filename != "notes.pdf" {
			t.Errorf("filename = %s", header.Filename)
		}
		data, _ := io.ReadAll(f)
		if string(data) != "pdf-bytes" {
			t.Errorf("content = %q", data)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"objectName":"uploads/abc","size":9}`)
	}))
	defer srv.Close()

	c, _ := New(testConfig(srv.URL))
	resp, err := c.UploadFile(context.Background(), "notes.pdf", "application/pdf", strings.NewReader("pdf-bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.ObjectName != "uploads/abc" || resp.Size != 9 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestDoJSON_BreakerOpensOnRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.BreakerMaxFailures = 2
	cfg.BreakerCooldown = time.Hour
	c, _ := New(cfg)

	req := TitleRequest{ChatSessionID: 1, FirstMessage: "hi"}
	for i := 0; i < 2; i++ {
		if _, err := c.GenerateTitle(context.Background(), req); err == nil {
			t.Fatal("expected failure")
		}
	}
	_, err := c.GenerateTitle(context.Background(), req)
	if !stderrors.Is(err, resilience.ErrBreakerOpen) {
		t.Errorf("err = %v, want breaker open", err)
	}
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for missing base_url")
	}
}
