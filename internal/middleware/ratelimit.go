package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/cashewtrade/internal/model"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // API全般のレート（req/sec）
	GeneralBurst    int           // API全般のバーストサイズ
	OrderRate       rate.Limit    // 注文作成のレート（req/sec）
	OrderBurst      int           // 注文作成のバーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// API全般 120 req/min/user、注文作成 10 req/min/user。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(120.0 / 60.0),
		GeneralBurst:    120,
		OrderRate:       rate.Limit(10.0 / 60.0),
		OrderBurst:      10,
		CleanupInterval: 5 * time.Minute,
	}
}

// limiterPool はユーザーIDごとのrate.Limiterを管理する。
type limiterPool struct {
	mu    sync.Mutex
	rate  rate.Limit
	burst int

	entries map[string]*limiterEntry
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func newLimiterPool(r rate.Limit, burst int) *limiterPool {
	return &limiterPool{
		rate:    r,
		burst:   burst,
		entries: make(map[string]*limiterEntry),
	}
}

// get はユーザーのリミッターを取得または作成し、最終アクセス時刻を更新する。
func (p *limiterPool) get(userID string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[userID]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(p.rate, p.burst)}
		p.entries[userID] = entry
	}
	entry.lastAccess = time.Now()
	return entry.limiter
}

func (p *limiterPool) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// evictOlderThan は最終アクセスがttlを超えたエントリを削除する。
func (p *limiterPool) evictOlderThan(ttl time.Duration) {
	now := time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	for userID, entry := range p.entries {
		if now.Sub(entry.lastAccess) > ttl {
			delete(p.entries, userID)
		}
	}
}

// RateLimiter はユーザーごとのレート制限を管理する。
// API全般と注文作成の2系統を独立に制御する。
type RateLimiter struct {
	config  RateLimiterConfig
	general *limiterPool
	order   *limiterPool
	stopCh  chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成し、
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		general: newLimiterPool(config.GeneralRate, config.GeneralBurst),
		order:   newLimiterPool(config.OrderRate, config.OrderBurst),
		stopCh:  make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// GeneralMiddleware はAPI全般のレート制限ミドルウェアを返す。
// リクエストコンテキストにユーザーIDが含まれている必要がある
// （SessionMiddlewareの後に配置する）。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware(rl.general, rl.config.GeneralRate, "general")
}

// OrderPlacementMiddleware は注文作成専用のレート制限ミドルウェアを返す。
// API全般のレート制限とは独立に動作する。
func (rl *RateLimiter) OrderPlacementMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware(rl.order, rl.config.OrderRate, "order_placement")
}

func (rl *RateLimiter) middleware(pool *limiterPool, limit rate.Limit, limitType string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := UserIDFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, sessionUnauthorizedError)
				return
			}

			if !pool.get(userID).Allow() {
				slog.Warn("rate limit exceeded",
					slog.String("user_id", userID),
					slog.String("limit_type", limitType),
				)
				writeRateLimitResponse(w, limit)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GeneralLimiterCount は現在管理されているAPI全般リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) GeneralLimiterCount() int {
	return rl.general.count()
}

// OrderLimiterCount は現在管理されている注文作成リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) OrderLimiterCount() int {
	return rl.order.count()
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	// エントリのTTLはクリーンアップ間隔の2倍
	ttl := rl.config.CleanupInterval * 2

	for {
		select {
		case <-ticker.C:
			rl.general.evictOlderThan(ttl)
			rl.order.evictOlderThan(ttl)
		case <-rl.stopCh:
			return
		}
	}
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーには1トークンが補充されるまでの推定秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, limit rate.Limit) {
	retryAfterSec := int(math.Ceil(1.0 / float64(limit)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))

	WriteErrorResponse(w, http.StatusTooManyRequests, &model.APIError{
		Code:     "RATE_LIMIT_EXCEEDED",
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}
