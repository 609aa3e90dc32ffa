package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// dummyHandler is a simple handler that returns 200 OK for testing the auth middleware.
var dummyHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
})

func TestRequireToken_ValidToken(t *testing.T) {
	secret := "test-secret-12345"
	handler := requireToken(secret, dummyHandler)

	req := httptest.NewRequest(http.MethodPost, "/jsonrpc", nil)
	req.Header.Set("Authorization", "Bearer "+secret)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Fatalf("expected 'ok' body, got %q", rr.Body.String())
	}
}

func TestRequireToken_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		header string
	}{
		{"missing header", "s3cret", ""},
		{"wrong token", "s3cret", "Bearer nope"},
		{"no bearer prefix", "s3cret", "s3cret"},
		{"basic scheme", "s3cret", "Basic s3cret"},
		{"empty secret", "", "Bearer "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := requireToken(tt.secret, dummyHandler)
			req := httptest.NewRequest(http.MethodPost, "/jsonrpc", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}
			var resp map[string]any
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to parse response: %v", err)
			}
			if resp["jsonrpc"] != "2.0" {
				t.Fatalf("expected jsonrpc 2.0, got %v", resp["jsonrpc"])
			}
			errObj, ok := resp["error"].(map[string]any)
			if !ok {
				t.Fatalf("expected error object, got %v", resp["error"])
			}
			if errObj["code"].(float64) != -32600 {
				t.Fatalf("expected error code -32600, got %v", errObj["code"])
			}
			if errObj["message"] != "Unauthorized" {
				t.Fatalf("expected 'Unauthorized', got %v", errObj["message"])
			}
		})
	}
}

func TestValidToken(t *testing.T) {
	if !validToken("abc", "Bearer abc") {
		t.Error("expected matching token to be valid")
	}
	if validToken("abc", "Bearer abcd") {
		t.Error("expected longer token to be rejected")
	}
	if validToken("", "Bearer ") {
		t.Error("expected empty secret to reject everything")
	}
}
