package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/cashewtrade/internal/model"
)

type mockTokenService struct {
	issueFn  func(ctx context.Context, userID, name string) (string, *model.APIToken, error)
	listFn   func(ctx context.Context, userID string) ([]*model.APIToken, error)
	revokeFn func(ctx context.Context, tokenID, userID string) error
}

func (m *mockTokenService) Issue(ctx context.Context, userID, name string) (string, *model.APIToken, error) {
	return m.issueFn(ctx, userID, name)
}

func (m *mockTokenService) List(ctx context.Context, userID string) ([]*model.APIToken, error) {
	return m.listFn(ctx, userID)
}

func (m *mockTokenService) Revoke(ctx context.Context, tokenID, userID string) error {
	return m.revokeFn(ctx, tokenID, userID)
}

var _ TokenServiceInterface = (*mockTokenService)(nil)

// TestIssueToken_Success は発行時のみトークン本体が返ることを検証する。
func TestIssueToken_Success(t *testing.T) {
	service := &mockTokenService{
		issueFn: func(_ context.Context, userID, name string) (string, *model.APIToken, error) {
			if userID != "user-1" || name != "ci-pipeline" {
				t.Errorf("userID = %s, name = %s", userID, name)
			}
			return "jwt-token-body", &model.APIToken{
				ID:        "tok-1",
				UserID:    userID,
				Name:      name,
				ExpiresAt: time.Now().Add(90 * 24 * time.Hour),
			}, nil
		},
	}
	h := NewTokenHandler(service)

	req := authedRequest(http.MethodPost, "/api/tokens", `{"name":"ci-pipeline"}`)
	rec := httptest.NewRecorder()
	h.Issue(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
		Meta  struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Token != "jwt-token-body" || resp.Meta.ID != "tok-1" {
		t.Errorf("resp = %+v", resp)
	}
}

// TestIssueToken_MissingName はトークン名なしが400で返ることを検証する。
func TestIssueToken_MissingName(t *testing.T) {
	h := NewTokenHandler(&mockTokenService{})

	req := authedRequest(http.MethodPost, "/api/tokens", `{}`)
	rec := httptest.NewRecorder()
	h.Issue(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

// TestListTokens_OmitsTokenBody は一覧にトークン本体が含まれないことを検証する。
func TestListTokens_OmitsTokenBody(t *testing.T) {
	service := &mockTokenService{
		listFn: func(_ context.Context, userID string) ([]*model.APIToken, error) {
			return []*model.APIToken{
				{ID: "tok-1", UserID: userID, Name: "ci-pipeline"},
			}, nil
		},
	}
	h := NewTokenHandler(service)

	req := authedRequest(http.MethodGet, "/api/tokens", "")
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var results []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %v", results)
	}
	if _, exists := results[0]["token"]; exists {
		t.Error("一覧レスポンスにトークン本体を含めるべきでない")
	}
}

// TestRevokeToken_NotFound は存在しないトークンの失効が404で返ることを検証する。
func TestRevokeToken_NotFound(t *testing.T) {
	service := &mockTokenService{
		revokeFn: func(_ context.Context, tokenID, _ string) error {
			return model.NewTokenNotFoundError(tokenID)
		},
	}
	h := NewTokenHandler(service)

	r := chi.NewRouter()
	r.Delete("/api/tokens/{id}", h.Revoke)

	req := authedRequest(http.MethodDelete, "/api/tokens/tok-missing", "")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

// TestRevokeToken_Success は失効成功が204で返ることを検証する。
func TestRevokeToken_Success(t *testing.T) {
	var revokedID string
	service := &mockTokenService{
		revokeFn: func(_ context.Context, tokenID, userID string) error {
			revokedID = tokenID
			if userID != "user-1" {
				t.Errorf("userID = %s", userID)
			}
			return nil
		},
	}
	h := NewTokenHandler(service)

	r := chi.NewRouter()
	r.Delete("/api/tokens/{id}", h.Revoke)

	req := authedRequest(http.MethodDelete, "/api/tokens/tok-1", "")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if revokedID != "tok-1" {
		t.Errorf("revokedID = %s", revokedID)
	}
}
