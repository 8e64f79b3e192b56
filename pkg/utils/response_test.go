package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRespondError(t *testing.T) {
	resp := httptest.NewRecorder()
	RespondError(resp, http.StatusBadRequest, "User exists")

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if got := strings.TrimSpace(resp.Body.String()); got != `{"error":"User exists"}` {
		t.Fatalf("unexpected body %s", got)
	}
}

func TestRespondMessage(t *testing.T) {
	resp := httptest.NewRecorder()
	RespondMessage(resp, http.StatusOK, "Account created")

	if got := strings.TrimSpace(resp.Body.String()); got != `{"message":"Account created"}` {
		t.Fatalf("unexpected body %s", got)
	}
}
