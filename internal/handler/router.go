package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/cashewtrade/internal/middleware"
)

// MetricsRecorder はルーターと注文ハンドラーが使用するメトリクス記録インターフェース。
// metrics.Collectorの部分集合として定義する。
type MetricsRecorder interface {
	RecordHTTPStatus(statusCode int)
	RecordOrderPlaced()
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	SessionFinder     middleware.SessionFinder
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter

	// メトリクス（nilの場合は記録しない）
	Metrics MetricsRecorder
	// Prometheusスクレイプ用ハンドラー（nilの場合/metricsは公開しない）
	MetricsHandler http.Handler

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 開発者APIトークン
	TokenService TokenServiceInterface

	// ドメインサービス
	ListingService    ListingServiceInterface
	OrderService      OrderServiceInterface
	FarmService       FarmServiceInterface
	ProcessingService ProcessingServiceInterface
	LogisticsService  LogisticsServiceInterface
	FinanceService    FinanceServiceInterface
	NewsService       NewsServiceInterface
	UserService       UserServiceInterface

	// リポジトリ直結の参照系
	PriceLister MarketPriceLister
	UserFinder  UserFinder
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → Metrics → CORS
//	→ (認証グループのみ) Session → CSRF → RateLimit(General)
//
// 認証ルート（/auth/*）、/health、/metrics、/api/csrf-token は
// セッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	tokenHandler := NewTokenHandler(deps.TokenService)
	listingHandler := NewListingHandler(deps.ListingService)
	orderHandler := NewOrderHandler(deps.OrderService, deps.Metrics)
	farmHandler := NewFarmHandler(deps.FarmService)
	processingHandler := NewProcessingHandler(deps.ProcessingService)
	logisticsHandler := NewLogisticsHandler(deps.LogisticsService)
	financeHandler := NewFinanceHandler(deps.FinanceService)
	newsHandler := NewNewsHandler(deps.NewsService, deps.UserFinder)
	priceHandler := NewPriceHandler(deps.PriceLister)
	calculatorHandler := NewCalculatorHandler()
	userHandler := NewUserHandler(deps.UserService)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.SignUp)
		r.Post("/login", authHandler.SignIn)
		r.Post("/logout", authHandler.SignOut)
		r.Get("/confirm", authHandler.Confirm)
		r.Get("/me", authHandler.Me)
	})

	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// --- セッション認証が必要なルート ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// マーケットプレイス
		r.Route("/api/listings", func(r chi.Router) {
			r.Get("/", listingHandler.Browse)
			r.Post("/", listingHandler.Create)
			r.Get("/mine", listingHandler.MyListings)
			r.Get("/compare", listingHandler.Compare)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", listingHandler.Get)
				r.Patch("/", listingHandler.Update)
				r.Delete("/", listingHandler.Deactivate)
			})
		})

		// 注文
		r.Route("/api/orders", func(r chi.Router) {
			// POST /api/orders - 発注（発注専用レート制限を追加）
			r.With(deps.RateLimiter.OrderPlacementMiddleware()).Post("/", orderHandler.Place)
			r.Get("/", orderHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", orderHandler.Get)
				r.Patch("/status", orderHandler.UpdateStatus)
				r.Get("/events", orderHandler.ListEvents)
			})
		})

		// 農場管理
		r.Get("/api/farm/overview", farmHandler.Overview)
		r.Route("/api/farms", func(r chi.Router) {
			r.Get("/", farmHandler.ListFarms)
			r.Post("/", farmHandler.CreateFarm)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", farmHandler.GetFarm)
				r.Get("/crop-plans", farmHandler.ListCropPlans)
				r.Post("/crop-plans", farmHandler.CreateCropPlan)
			})
		})

		// 加工管理
		r.Route("/api/processing", func(r chi.Router) {
			r.Get("/facilities", processingHandler.ListFacilities)
			r.Post("/facilities", processingHandler.CreateFacility)
			r.Get("/batches", processingHandler.ListBatches)
			r.Post("/batches", processingHandler.CreateBatch)
			r.Patch("/batches/{id}/status", processingHandler.AdvanceBatch)
			r.Post("/batches/{id}/complete", processingHandler.CompleteBatch)
		})

		// 物流管理
		r.Get("/api/logistics/overview", logisticsHandler.Overview)
		r.Get("/api/warehouses", logisticsHandler.ListWarehouses)
		r.Post("/api/warehouses", logisticsHandler.CreateWarehouse)
		r.Get("/api/inventory-movements", logisticsHandler.ListMovements)
		r.Post("/api/inventory-movements", logisticsHandler.RecordMovement)
		r.Route("/api/shipments", func(r chi.Router) {
			r.Get("/", logisticsHandler.ListShipments)
			r.Post("/", logisticsHandler.CreateShipment)
			r.Patch("/{id}/status", logisticsHandler.UpdateShipmentStatus)
		})

		// ファイナンス
		r.Route("/api/finance", func(r chi.Router) {
			r.Get("/overview", financeHandler.Overview)
			r.Get("/transactions", financeHandler.ListTransactions)
			r.Post("/transactions", financeHandler.RecordPayment)
			r.Get("/financing", financeHandler.ListFinancing)
			r.Post("/financing", financeHandler.ApplyFinancing)
		})

		// 市況ニュース
		r.Route("/api/news", func(r chi.Router) {
			r.Get("/", newsHandler.ListItems)
			r.Get("/sources", newsHandler.ListSources)
			r.Post("/sources", newsHandler.RegisterSource)
		})

		// 市場価格
		r.Get("/api/prices", priceHandler.ListLatest)

		// 価格計算機
		r.Route("/api/calculator", func(r chi.Router) {
			r.Get("/kernel-price", calculatorHandler.KernelPrice)
			r.Get("/grade-equivalent", calculatorHandler.GradeEquivalent)
			r.Get("/cnsl-value", calculatorHandler.CNSLValue)
		})

		// 開発者APIトークン
		r.Route("/api/tokens", func(r chi.Router) {
			r.Post("/", tokenHandler.Issue)
			r.Get("/", tokenHandler.List)
			r.Delete("/{id}", tokenHandler.Revoke)
		})

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Get("/me", userHandler.GetProfile)
			r.Patch("/me", userHandler.UpdateProfile)
			r.Delete("/me", userHandler.Withdraw)
		})
	})

	// --- Bearerトークン認証の開発者API（読み取り専用） ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAPITokenMiddleware(deps.TokenVerifier))

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/listings", listingHandler.Browse)
			r.Get("/orders", orderHandler.List)
			r.Get("/prices", priceHandler.ListLatest)
			r.Get("/news", newsHandler.ListItems)
		})
	})

	return r
}
