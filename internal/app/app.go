// Package app はアプリケーションの起動とワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/cashewtrade/internal/auth"
	"github.com/hitoshi/cashewtrade/internal/config"
	"github.com/hitoshi/cashewtrade/internal/database"
	"github.com/hitoshi/cashewtrade/internal/farm"
	"github.com/hitoshi/cashewtrade/internal/finance"
	"github.com/hitoshi/cashewtrade/internal/handler"
	"github.com/hitoshi/cashewtrade/internal/logger"
	"github.com/hitoshi/cashewtrade/internal/logistics"
	"github.com/hitoshi/cashewtrade/internal/marketplace"
	"github.com/hitoshi/cashewtrade/internal/metrics"
	"github.com/hitoshi/cashewtrade/internal/middleware"
	"github.com/hitoshi/cashewtrade/internal/news"
	"github.com/hitoshi/cashewtrade/internal/order"
	"github.com/hitoshi/cashewtrade/internal/prices"
	"github.com/hitoshi/cashewtrade/internal/processing"
	"github.com/hitoshi/cashewtrade/internal/repository"
	"github.com/hitoshi/cashewtrade/internal/security"
	"github.com/hitoshi/cashewtrade/internal/user"
	"github.com/hitoshi/cashewtrade/internal/worker/cleanup"
	fetchpkg "github.com/hitoshi/cashewtrade/internal/worker/fetch"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	tokenRepo := repository.NewPostgresAPITokenRepo(db)
	listingRepo := repository.NewPostgresListingRepo(db)
	orderRepo := repository.NewPostgresOrderRepo(db)
	farmRepo := repository.NewPostgresFarmRepo(db)
	processingRepo := repository.NewPostgresProcessingRepo(db)
	logisticsRepo := repository.NewPostgresLogisticsRepo(db)
	financeRepo := repository.NewPostgresFinanceRepo(db)
	newsSourceRepo := repository.NewPostgresNewsSourceRepo(db)
	newsItemRepo := repository.NewPostgresNewsItemRepo(db)
	priceRepo := repository.NewPostgresMarketPriceRepo(db)

	// 3. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	// 4. ドメインサービスの初期化
	authService := auth.NewService(userRepo, sessionRepo, auth.ServiceConfig{
		SessionMaxAge:       cfg.SessionMaxAge,
		RequireEmailConfirm: cfg.RequireEmailConfirm,
	})
	tokenService := auth.NewTokenService(tokenRepo, cfg.TokenSecret, cfg.TokenTTL)

	listingService := marketplace.NewService(listingRepo, userRepo, sanitizer)
	orderService := order.NewService(orderRepo, listingRepo, userRepo)
	farmService := farm.NewService(farmRepo)
	processingService := processing.NewService(processingRepo)
	logisticsService := logistics.NewService(logisticsRepo, orderRepo)
	financeService := finance.NewService(financeRepo, orderRepo)

	newsDetector := news.NewDetector(ssrfGuard)
	newsService := news.NewService(newsSourceRepo, newsItemRepo, newsDetector)

	userService := user.NewService(userRepo, sessionRepo, listingRepo)

	// 5. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 6. レート制限の初期化（configはreq/min単位、rate.Limitはreq/sec単位）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.OrderRate = rate.Limit(float64(cfg.RateLimitOrder) / 60.0)
	rateLimiterCfg.OrderBurst = cfg.RateLimitOrder
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 7. ルーターの構築
	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		SessionFinder:     sessionRepo,
		TokenVerifier:     tokenService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		RateLimiter: rateLimiter,

		Metrics:        collector,
		MetricsHandler: metrics.Handler(registry),

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		TokenService: tokenService,

		ListingService:    listingService,
		OrderService:      orderService,
		FarmService:       farmService,
		ProcessingService: processingService,
		LogisticsService:  logisticsService,
		FinanceService:    financeService,
		NewsService:       newsService,
		UserService:       userService,

		PriceLister: priceRepo,
		UserFinder:  userRepo,
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// ニュースフェッチスケジューラ・市場価格ポーリング・クリーンアップジョブを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリの初期化
	newsSourceRepo := repository.NewPostgresNewsSourceRepo(db)
	newsItemRepo := repository.NewPostgresNewsItemRepo(db)
	priceRepo := repository.NewPostgresMarketPriceRepo(db)

	// 3. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	// 4. ニュースフェッチャーの初期化
	upsertSvc := news.NewItemUpsertService(newsItemRepo, sanitizer)
	fetcher := fetchpkg.NewFetcher(
		newsSourceRepo, upsertSvc, ssrfGuard,
		slog.Default(), cfg.NewsFetchTimeout, cfg.NewsFetchMaxSize,
		int(cfg.NewsFetchInterval.Minutes()),
	)

	// 5. スケジューラの初期化
	scheduler := fetchpkg.NewScheduler(
		newsSourceRepo, fetcher, slog.Default(), cfg.NewsFetchMaxConcurrent,
	)

	// 6. クリーンアップジョブの初期化
	cleanupJob := cleanup.NewCleanupJob(db, slog.Default())
	cleanupJob.NewsRetentionDays = cfg.NewsRetentionDays

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("news_fetch_interval", cfg.NewsFetchInterval),
		slog.Int("max_concurrent", cfg.NewsFetchMaxConcurrent),
	)

	// 7. 市場価格ポーリングジョブをバックグラウンドで起動
	// PRICE_API_URL未設定の場合はポーリングを行わない
	if cfg.PriceAPIURL != "" {
		priceClient := prices.NewClient(
			&http.Client{Timeout: cfg.PriceAPITimeout},
			slog.Default(), cfg.PriceAPIURL,
		)
		pollJob := prices.NewPollJob(priceRepo, priceClient, slog.Default(), prices.PollConfig{
			PollInterval: cfg.PriceInterval,
			PriceTTL:     cfg.PriceTTL,
		})
		go pollJob.Start(ctx)
	} else {
		slog.Info("PRICE_API_URL is not set, price polling disabled")
	}

	// クリーンアップジョブを日次でバックグラウンド実行
	go func() {
		// 起動直後に1回実行
		if err := cleanupJob.Run(ctx); err != nil {
			slog.Error("cleanup job failed", slog.String("error", err.Error()))
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := cleanupJob.Run(ctx); err != nil {
					slog.Error("cleanup job failed", slog.String("error", err.Error()))
				}
			}
		}
	}()

	// ニュースフェッチスケジューラをメインgoroutineで実行（ブロッキング）
	scheduler.Start(ctx, cfg.NewsFetchInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
