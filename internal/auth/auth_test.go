package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("admin", "secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	userID, err := ValidateToken(token, "secret")
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if userID != "admin" {
		t.Errorf("user id = %q, want admin", userID)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("admin", "secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := ValidateToken(token, "other-secret"); err == nil {
		t.Error("token validated with the wrong secret")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	token, err := GenerateToken("admin", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := ValidateToken(token, "secret"); err == nil {
		t.Error("expired token validated")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if !CheckPassword("hunter2", hash) {
		t.Error("correct password rejected")
	}
	if CheckPassword("wrong", hash) {
		t.Error("wrong password accepted")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Run("plaintext password is hashed at load", func(t *testing.T) {
		t.Setenv("ADMIN_PASSWORD", "hunter2")
		t.Setenv("ADMIN_PASSWORD_HASH", "")

		cfg, err := LoadConfigFromEnv()
		if err != nil {
			t.Fatalf("LoadConfigFromEnv failed: %v", err)
		}
		if cfg.AdminPasswordHash == "hunter2" {
			t.Fatal("config holds the plaintext password instead of a hash")
		}
		if !CheckPassword("hunter2", cfg.AdminPasswordHash) {
			t.Error("hash does not verify the configured password")
		}
	})

	t.Run("precomputed hash wins over plaintext", func(t *testing.T) {
		hash, err := HashPassword("s3cret")
		if err != nil {
			t.Fatalf("HashPassword failed: %v", err)
		}
		t.Setenv("ADMIN_PASSWORD_HASH", hash)
		t.Setenv("ADMIN_PASSWORD", "ignored")

		cfg, err := LoadConfigFromEnv()
		if err != nil {
			t.Fatalf("LoadConfigFromEnv failed: %v", err)
		}
		if !CheckPassword("s3cret", cfg.AdminPasswordHash) {
			t.Error("hash from ADMIN_PASSWORD_HASH not used")
		}
		if CheckPassword("ignored", cfg.AdminPasswordHash) {
			t.Error("plaintext ADMIN_PASSWORD should be ignored when a hash is set")
		}
	})
}

func TestMiddleware(t *testing.T) {
	cfg := Config{JWTSecret: "secret", TokenDuration: time.Hour}
	protected := Middleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserIDFromContext(r.Context())
		if !ok || userID != "admin" {
			t.Errorf("user id in context = %q, ok = %v", userID, ok)
		}
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic abc")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := GenerateToken("admin", cfg.JWTSecret, cfg.TokenDuration)
		if err != nil {
			t.Fatalf("GenerateToken failed: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}
