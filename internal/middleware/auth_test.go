package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/minisns/internal/auth"
	"github.com/hitoshi/minisns/internal/model"
)

// mockTokenVerifier はTokenVerifierのモック実装。
type mockTokenVerifier struct {
	verifyFn func(token string) (*auth.TokenClaims, error)
}

func (m *mockTokenVerifier) Verify(token string) (*auth.TokenClaims, error) {
	if m.verifyFn != nil {
		return m.verifyFn(token)
	}
	return nil, auth.ErrInvalidToken
}

func TestAuthMiddleware_ValidToken_InjectsUserID(t *testing.T) {
	verifier := &mockTokenVerifier{
		verifyFn: func(token string) (*auth.TokenClaims, error) {
			if token != "valid-token" {
				t.Errorf("token = %q, want valid-token", token)
			}
			return &auth.TokenClaims{SubjectID: "user-123", ExpiresAt: time.Now().Add(time.Minute)}, nil
		},
	}

	var gotUserID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("UserIDFromContext() error = %v", err)
		}
		gotUserID = userID
		w.WriteHeader(http.StatusOK)
	})

	mw := NewAuthMiddleware(verifier)
	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()

	mw(next).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotUserID != "user-123" {
		t.Errorf("userID = %q, want user-123", gotUserID)
	}
}

func TestAuthMiddleware_MissingToken_Returns401(t *testing.T) {
	verifyCalled := false
	verifier := &mockTokenVerifier{
		verifyFn: func(token string) (*auth.TokenClaims, error) {
			verifyCalled = true
			return nil, auth.ErrInvalidToken
		},
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	})

	mw := NewAuthMiddleware(verifier)
	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	w := httptest.NewRecorder()

	mw(next).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if verifyCalled {
		t.Error("Verify should not be called without a bearer token")
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if body.Code != model.ErrCodeUnauthorized {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUnauthorized)
	}
}

func TestAuthMiddleware_InvalidToken_Returns401(t *testing.T) {
	verifier := &mockTokenVerifier{
		verifyFn: func(token string) (*auth.TokenClaims, error) {
			return nil, auth.ErrInvalidToken
		},
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	})

	mw := NewAuthMiddleware(verifier)
	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	w := httptest.NewRecorder()

	mw(next).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// 別スキームのAuthorizationヘッダーはトークンなしとして扱う
func TestAuthMiddleware_NonBearerScheme_Returns401(t *testing.T) {
	verifier := &mockTokenVerifier{
		verifyFn: func(token string) (*auth.TokenClaims, error) {
			t.Error("Verify should not be called for a non-bearer scheme")
			return nil, errors.New("unreachable")
		},
	}

	mw := NewAuthMiddleware(verifier)
	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestUserIDFromContext_NotSet(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if _, err := UserIDFromContext(req.Context()); err == nil {
		t.Error("expected an error for a context without a user ID")
	}
}

func TestContextWithUserID_RoundTrip(t *testing.T) {
	ctx := ContextWithUserID(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "user-123")

	userID, err := UserIDFromContext(ctx)
	if err != nil {
		t.Fatalf("UserIDFromContext() error = %v", err)
	}
	if userID != "user-123" {
		t.Errorf("userID = %q, want user-123", userID)
	}
}
