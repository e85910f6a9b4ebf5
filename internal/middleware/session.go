// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/cashewtrade/internal/model"
)

const sessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// sessionUnauthorizedError は未認証リクエストへの統一レスポンス。
var sessionUnauthorizedError = &model.APIError{
	Code:     "UNAUTHORIZED",
	Message:  "ログインが必要です。",
	Category: "auth",
	Action:   "ログインしてから再度お試しください。",
}

// SessionFinder はセッションの検索に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// NewSessionMiddleware はHTTP Only Cookieからセッションを読み取り、
// 有効性を検証するミドルウェアを返す。
// 認証済みユーザーIDをリクエストコンテキストに注入し、
// 未認証リクエストには401 Unauthorizedを返す。
func NewSessionMiddleware(sessionFinder SessionFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := resolveSession(r, sessionFinder)
			if session == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, sessionUnauthorizedError)
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, session.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolveSession はCookieから有効なセッションを引き当てる。
// Cookieなし、検索失敗、期限切れのいずれの場合もnilを返す。
func resolveSession(r *http.Request, finder SessionFinder) *model.Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	session, err := finder.FindByID(r.Context(), cookie.Value)
	if err != nil {
		slog.Error("failed to find session", slog.String("error", err.Error()))
		return nil
	}
	if session == nil {
		return nil
	}

	// リポジトリ側でも期限切れは除外されるが、境界で再検証する
	if !session.ExpiresAt.IsZero() && session.ExpiresAt.Before(time.Now()) {
		return nil
	}

	return session
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}
