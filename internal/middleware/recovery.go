package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// NewRecoveryMiddleware はpanic発生時にプロセスクラッシュを防ぎ、
// スタックトレースを記録したうえでJSONの500レスポンスを返す
// ミドルウェアを生成する。
func NewRecoveryMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				slog.Error("panic recovered",
					slog.Any("panic", rec),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("stack", string(debug.Stack())),
				)
				// 既にレスポンスが書き込み済みの場合、このWriteHeaderは
				// no-opになるが、それ以上の対処はできない
				WriteInternalServerError(w)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
