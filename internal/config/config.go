package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Session
	SessionMaxAge       int  // セッション有効期間（秒）
	RequireEmailConfirm bool // サインアップ時にメール確認を必須とするか

	// API Token
	TokenSecret string
	TokenTTL    time.Duration

	// News Fetch
	NewsFetchTimeout       time.Duration
	NewsFetchMaxSize       int64
	NewsFetchMaxConcurrent int
	NewsFetchInterval      time.Duration
	NewsRetentionDays      int

	// Price Poll
	PriceAPIURL     string
	PriceInterval   time.Duration
	PriceAPITimeout time.Duration
	PriceTTL        time.Duration

	// Rate Limit
	RateLimitGeneral int // API全般（req/min/user）
	RateLimitOrder   int // 発注（req/min/user）

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.TokenSecret = os.Getenv("TOKEN_SECRET")
	if cfg.TokenSecret == "" {
		missing = append(missing, "TOKEN_SECRET")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.RequireEmailConfirm = getEnvBool("REQUIRE_EMAIL_CONFIRM", false)
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", 90*24*time.Hour)
	cfg.NewsFetchTimeout = getEnvDuration("NEWS_FETCH_TIMEOUT", 10*time.Second)
	cfg.NewsFetchMaxSize = getEnvInt64("NEWS_FETCH_MAX_SIZE", 5242880)
	cfg.NewsFetchMaxConcurrent = getEnvInt("NEWS_FETCH_MAX_CONCURRENT", 10)
	cfg.NewsFetchInterval = getEnvDuration("NEWS_FETCH_INTERVAL", 15*time.Minute)
	cfg.NewsRetentionDays = getEnvInt("NEWS_RETENTION_DAYS", 90)
	cfg.PriceAPIURL = getEnvString("PRICE_API_URL", "")
	cfg.PriceInterval = getEnvDuration("PRICE_INTERVAL", 30*time.Minute)
	cfg.PriceAPITimeout = getEnvDuration("PRICE_API_TIMEOUT", 10*time.Second)
	cfg.PriceTTL = getEnvDuration("PRICE_TTL", 1*time.Hour)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitOrder = getEnvInt("RATE_LIMIT_ORDER", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
