package middleware

import "net/http"

// corsAllowedMethods はAPIが受け付ける全メソッド。
const corsAllowedMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"

// corsAllowedHeaders はフロントエンドが付与するリクエストヘッダー。
// CSRFトークンヘッダーと開発者APIのBearerトークンを含む。
const corsAllowedHeaders = "Content-Type, X-CSRF-Token, Authorization"

// NewCORSMiddleware は指定されたオリジンに対するCORSミドルウェアを返す。
// Cookie送信（credentials）と共存するため、ワイルドカード(*)は使用しない。
// OPTIONSプリフライトリクエストには204で応答する。
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowedOrigin)
			h.Set("Access-Control-Allow-Methods", corsAllowedMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
