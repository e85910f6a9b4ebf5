package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/cashewtrade/internal/auth"
	"github.com/hitoshi/cashewtrade/internal/model"
)

const sessionCookieName = "session_id"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	SignUp(ctx context.Context, input auth.SignUpInput) (*auth.SignUpResult, error)
	SignIn(ctx context.Context, email, password string) (*model.User, *model.Session, error)
	SignOut(ctx context.Context, sessionID string) error
	ConfirmEmail(ctx context.Context, token string) (*model.User, error)
	GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はパスワード認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// signUpRequest はサインアップリクエストのボディ。
type signUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	Phone       string `json:"phone"`
	CompanyName string `json:"company_name"`
	UserRole    string `json:"user_role"`
	AccountType string `json:"account_type"`
}

// signInRequest はログインリクエストのボディ。
type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	FullName       string `json:"full_name"`
	Phone          string `json:"phone"`
	CompanyName    string `json:"company_name"`
	UserRole       string `json:"user_role"`
	AccountType    string `json:"account_type"`
	EmailConfirmed bool   `json:"email_confirmed"`
}

// signUpResponse はサインアップのAPIレスポンス。
type signUpResponse struct {
	User                userResponse `json:"user"`
	PendingConfirmation bool         `json:"pending_confirmation"`
}

// SignUp は新規ユーザー登録を処理する。
// POST /auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeInvalidRequest(w, "メールアドレスとパスワードは必須です。")
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

	result, err := h.service.SignUp(r.Context(), auth.SignUpInput{
		Email:       req.Email,
		Password:    req.Password,
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

	// メール確認が不要な設定ではこの時点でセッションが発行される
	if result.Session != nil {
		h.setSessionCookie(w, result.Session.ID)
	}

	writeJSON(w, http.StatusCreated, signUpResponse{
		User:                toUserResponse(result.User),
		PendingConfirmation: result.PendingConfirmation,
	})
}

// SignIn はログインを処理する。
// POST /auth/login
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, session, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, session.ID)
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// SignOut はセッションを破棄する。
// POST /auth/logout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		// セッション削除に失敗してもCookieはクリアする
		if signOutErr := h.service.SignOut(r.Context(), cookie.Value); signOutErr != nil {
			slog.Error("failed to sign out", slog.String("error", signOutErr.Error()))
		}
	}

	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Confirm はメール確認トークンを検証しアカウントを有効化する。
// GET /auth/confirm?token=...
func (h *AuthHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeInvalidRequest(w, "確認トークンが指定されていません。")
		return
	}

	user, err := h.service.ConfirmEmail(r.Context(), token)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		writeUnauthorized(w)
		return
	}

	user, err := h.service.GetCurrentUser(r.Context(), cookie.Value)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// setSessionCookie はセッションCookieをHTTP Onlyで設定する。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie はセッションCookieをクリアする。
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:             user.ID,
		Email:          user.Email,
		FullName:       user.FullName,
		Phone:          user.Phone,
		CompanyName:    user.CompanyName,
		UserRole:       string(user.UserRole),
		AccountType:    string(user.AccountType),
		EmailConfirmed: user.EmailConfirmed,
	}
}
