package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestFromHTTPStatus(t *testing.T) {
	tests := []struct {
		status        int
		wantCode      Code
		wantRetryable bool
	}{
		{400, CodeClient, false},
		{401, CodeClient, false},
		{404, CodeClient, false},
		{429, CodeClient, false},
		{499, CodeClient, false},
		{500, CodeUpstream, true},
		{502, CodeUpstream, true},
		{503, CodeUpstream, true},
	}
	for _, tt := range tests {
		err := FromHTTPStatus(tt.status, "")
		if err.Code != tt.wantCode {
			t.Errorf("FromHTTPStatus(%d).Code = %s, want %s", tt.status, err.Code, tt.wantCode)
		}
		if err.Retryable != tt.wantRetryable {
			t.Errorf("FromHTTPStatus(%d).Retryable = %v, want %v", tt.status, err.Retryable, tt.wantRetryable)
		}
		if err.HTTPStatus != tt.status {
			t.Errorf("FromHTTPStatus(%d).HTTPStatus = %d", tt.status, err.HTTPStatus)
		}
	}
}

func TestClient_VerbatimBackendMessage(t *testing.T) {
	err := Client(403, "quota exceeded for free tier")
	if err.Message != "quota exceeded for free tier" {
		t.Errorf("Client message = %q, want backend message verbatim", err.Message)
	}
	if got := Client(400, "").Message; got == "" {
		t.Error("Client with empty message should substitute a generic one")
	}
}

func TestClassificationHelpers(t *testing.T) {
	if !IsRetryable(EmptyCompletion()) {
		t.Error("EmptyCompletion should be retryable")
	}
	if !IsRetryable(Model("boom")) {
		t.Error("Model should be retryable")
	}
	if !IsRetryable(IdleTimeout(nil)) {
		t.Error("IdleTimeout should be retryable")
	}
	if IsRetryable(Client(400, "")) {
		t.Error("Client should not be retryable")
	}
	if IsRetryable(stderrors.New("plain")) {
		t.Error("plain errors should not be retryable")
	}

	if !IsCancelled(Cancelled()) {
		t.Error("IsCancelled(Cancelled()) should be true")
	}
	if IsCancelled(Client(400, "")) {
		t.Error("IsCancelled should be false for client errors")
	}

	if !IsTerminal(Cancelled()) || !IsTerminal(Exhausted(5, nil)) {
		t.Error("cancellation and exhaustion are terminal")
	}
	if IsTerminal(Upstream(503, "")) {
		t.Error("upstream errors are not terminal")
	}
}

func TestClassificationThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("attempt 3: %w", Upstream(502, ""))
	if !IsRetryable(wrapped) {
		t.Error("IsRetryable should see through fmt.Errorf wrapping")
	}

	var ce *ChatError
	if !stderrors.As(wrapped, &ce) || ce.HTTPStatus != 502 {
		t.Error("errors.As should recover the ChatError")
	}
}

func TestCancelledMessage(t *testing.T) {
	if got := Cancelled().Message; got != "Response cancelled" {
		t.Errorf("Cancelled().Message = %q", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(Client(400, "bad part")); got != "bad part" {
		t.Errorf("UserMessage = %q, want backend message", got)
	}
	if got := UserMessage(stderrors.New("internal details")); got == "internal details" {
		t.Error("UserMessage must not leak non-chat error details")
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Connection(cause)
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
}
