package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pulsehq/pulse/internal/auth"
)

func testAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	hash, err := auth.HashPassword("letmein")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	cfg := auth.Config{
		JWTSecret:         "test-secret",
		AdminPasswordHash: hash,
		TokenDuration:     time.Hour,
	}
	return NewAuthHandler(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestLogin(t *testing.T) {
	h := testAuthHandler(t)

	t.Run("correct password issues a valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"password": "letmein"}`))
		rec := httptest.NewRecorder()
		h.Login(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var resp LoginResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		userID, err := auth.ValidateToken(resp.Token, "test-secret")
		if err != nil {
			t.Fatalf("issued token does not validate: %v", err)
		}
		if userID != "admin" {
			t.Errorf("token user id = %q, want admin", userID)
		}
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"password": "wrong"}`))
		rec := httptest.NewRecorder()
		h.Login(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader("not json"))
		rec := httptest.NewRecorder()
		h.Login(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/login", nil)
		rec := httptest.NewRecorder()
		h.Login(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", rec.Code)
		}
	})
}
