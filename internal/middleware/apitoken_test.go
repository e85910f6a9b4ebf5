package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/cashewtrade/internal/model"
)

type mockTokenVerifier struct {
	verifyFn func(ctx context.Context, token string) (string, error)
}

func (m *mockTokenVerifier) Verify(ctx context.Context, token string) (string, error) {
	if m.verifyFn != nil {
		return m.verifyFn(ctx, token)
	}
	return "", model.NewInvalidTokenError()
}

func TestAPITokenMiddleware_ValidToken_InjectsUserID(t *testing.T) {
	verifier := &mockTokenVerifier{
		verifyFn: func(_ context.Context, token string) (string, error) {
			if token == "valid-token" {
				return "user-api-1", nil
			}
			return "", model.NewInvalidTokenError()
		},
	}

	mw := NewAPITokenMiddleware(verifier)

	var capturedUserID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedUserID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if capturedUserID != "user-api-1" {
		t.Errorf("userID = %q, want %q", capturedUserID, "user-api-1")
	}
}

func TestAPITokenMiddleware_MissingHeader_Returns401(t *testing.T) {
	mw := NewAPITokenMiddleware(&mockTokenVerifier{})

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestAPITokenMiddleware_InvalidToken_Returns401(t *testing.T) {
	mw := NewAPITokenMiddleware(&mockTokenVerifier{})

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestAPITokenMiddleware_NonBearerScheme_Returns401(t *testing.T) {
	mw := NewAPITokenMiddleware(&mockTokenVerifier{})

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}
