package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/cashewtrade/internal/model"
	"github.com/hitoshi/cashewtrade/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	GetProfile(ctx context.Context, userID string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID string, input user.UpdateProfileInput) (*model.User, error)
	Withdraw(ctx context.Context, userID string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// updateProfileRequest はプロフィール更新リクエストのボディ。
type updateProfileRequest struct {
	FullName    string `json:"full_name"`
	Phone       string `json:"phone"`
	CompanyName string `json:"company_name"`
	UserRole    string `json:"user_role"`
	AccountType string `json:"account_type"`
}

// GetProfile はログインユーザーのプロフィールを返す。
// GET /api/users/me
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	u, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// UpdateProfile はプロフィール属性を更新する。
// PATCH /api/users/me
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserRole != "" && !model.ValidUserRole(model.UserRole(req.UserRole)) {
		writeInvalidRequest(w, "役割の値が不正です。")
		return
	}
	if req.AccountType != "" && !model.ValidAccountType(model.AccountType(req.AccountType)) {
		writeInvalidRequest(w, "アカウント種別の値が不正です。")
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), userID, user.UpdateProfileInput{
		FullName:    req.FullName,
		Phone:       req.Phone,
		CompanyName: req.CompanyName,
		UserRole:    model.UserRole(req.UserRole),
		AccountType: model.AccountType(req.AccountType),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// Withdraw は退会処理を実行する。セッション・トークンは連鎖削除され、
// 出品は非公開化される。
// DELETE /api/users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Withdraw(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	// 退会後はセッションCookieも無効になるためクリアする
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
