package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/cashewtrade/internal/model"
)

// TokenServiceInterface は開発者APIトークンハンドラーが必要とするサービスインターフェース。
type TokenServiceInterface interface {
	Issue(ctx context.Context, userID, name string) (string, *model.APIToken, error)
	List(ctx context.Context, userID string) ([]*model.APIToken, error)
	Revoke(ctx context.Context, tokenID, userID string) error
}

// TokenHandler は開発者APIトークンのHTTPハンドラー。
type TokenHandler struct {
	service TokenServiceInterface
}

// NewTokenHandler はTokenHandlerを生成する。
func NewTokenHandler(service TokenServiceInterface) *TokenHandler {
	return &TokenHandler{service: service}
}

// issueTokenRequest はトークン発行リクエストのボディ。
type issueTokenRequest struct {
	Name string `json:"name"`
}

// tokenResponse はトークンメタデータのAPIレスポンス。
type tokenResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// issueTokenResponse はトークン発行のAPIレスポンス。
// トークン本体は発行時のみ返され、以後取得できない。
type issueTokenResponse struct {
	Token string        `json:"token"`
	Meta  tokenResponse `json:"meta"`
}

// Issue は名前付きのパーソナルアクセストークンを発行する。
// POST /api/tokens
func (h *TokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req issueTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeInvalidRequest(w, "トークン名は必須です。")
		return
	}

	token, meta, err := h.service.Issue(r.Context(), userID, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, issueTokenResponse{
		Token: token,
		Meta:  toTokenResponse(meta),
	})
}

// List はユーザーのトークン一覧を返す。
// GET /api/tokens
func (h *TokenHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	tokens, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]tokenResponse, len(tokens))
	for i, t := range tokens {
		results[i] = toTokenResponse(t)
	}
	writeJSON(w, http.StatusOK, results)
}

// Revoke はトークンを失効させる。
// DELETE /api/tokens/{id}
func (h *TokenHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Revoke(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toTokenResponse(t *model.APIToken) tokenResponse {
	return tokenResponse{
		ID:        t.ID,
		Name:      t.Name,
		ExpiresAt: t.ExpiresAt,
		RevokedAt: t.RevokedAt,
		CreatedAt: t.CreatedAt,
	}
}
