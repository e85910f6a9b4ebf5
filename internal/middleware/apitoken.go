package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// TokenVerifier はBearerトークンの検証に必要なインターフェース。
// auth.TokenServiceの部分集合として定義する。
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// NewAPITokenMiddleware はAuthorizationヘッダーのBearerトークンを検証する
// ミドルウェアを返す。開発者API（/api/v1）用で、Cookieセッションは参照しない。
// 検証済みユーザーIDをリクエストコンテキストに注入する。
func NewAPITokenMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			userID, err := verifier.Verify(r.Context(), token)
			if err != nil {
				slog.Warn("api token verification failed",
					slog.String("error", err.Error()),
				)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
