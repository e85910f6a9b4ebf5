// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/cashewtrade/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// UpdateProfile はプロフィール属性（氏名・電話・会社名・役割・アカウント種別）を更新する。
	UpdateProfile(ctx context.Context, user *model.User) error

	// ConfirmByToken は確認トークンに一致する未確認ユーザーを確認済みにする。
	// 一致するユーザーが存在しない場合はnilを返す。
	ConfirmByToken(ctx context.Context, token string) (*model.User, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するsessions、api_tokens等はCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// APITokenRepository は開発者APIトークンの永続化インターフェース。
type APITokenRepository interface {
	// Create はトークンのメタデータを保存する。
	Create(ctx context.Context, token *model.APIToken) error
	// ListByUserID はユーザーのトークン一覧を返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.APIToken, error)
	// FindByJTI はJTIでトークンを検索する。失効済み・期限切れの場合はnilを返す。
	FindByJTI(ctx context.Context, jti string) (*model.APIToken, error)
	// Revoke は指定ユーザーのトークンを失効させる。対象がない場合はfalseを返す。
	Revoke(ctx context.Context, id, userID string) (bool, error)
}

// ListingRepository は出品データの永続化インターフェース。
type ListingRepository interface {
	// FindByID は指定IDの出品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Listing, error)

	// ListActive は公開中の出品一覧を作成日時降順で返す。
	ListActive(ctx context.Context, limit int) ([]*model.Listing, error)

	// ListByIDs は指定IDの出品をまとめて取得する。存在しないIDは無視される。
	ListByIDs(ctx context.Context, ids []string) ([]*model.Listing, error)

	// ListBySellerID は売り手の出品一覧を返す。
	ListBySellerID(ctx context.Context, sellerID string) ([]*model.Listing, error)

	// Create は出品を作成する。
	Create(ctx context.Context, listing *model.Listing) error

	// Update は出品の価格・数量・説明を更新する。
	Update(ctx context.Context, listing *model.Listing) error

	// Deactivate は出品を非公開にする。対象がない場合はfalseを返す。
	Deactivate(ctx context.Context, id, sellerID string) (bool, error)
}

// OrderRepository は注文データの永続化インターフェース。
type OrderRepository interface {
	// FindByID は指定IDの注文を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Order, error)

	// ListByBuyerID は買い手としての注文一覧を作成日時降順で返す。
	ListByBuyerID(ctx context.Context, buyerID string) ([]*model.Order, error)

	// ListBySellerID は売り手としての注文一覧を作成日時降順で返す。
	ListBySellerID(ctx context.Context, sellerID string) ([]*model.Order, error)

	// CreateWithEvent は注文と初期追跡イベントを同一トランザクションで作成する。
	CreateWithEvent(ctx context.Context, order *model.Order, event *model.OrderEvent) error

	// UpdateStatusWithEvent は注文状態の更新と追跡イベントの追加を同一トランザクションで行う。
	UpdateStatusWithEvent(ctx context.Context, order *model.Order, event *model.OrderEvent) error

	// ListEventsByOrderID は注文の追跡イベントを作成日時昇順で返す。
	ListEventsByOrderID(ctx context.Context, orderID string) ([]*model.OrderEvent, error)
}

// FarmRepository は農場・作付計画データの永続化インターフェース。
type FarmRepository interface {
	// FindByID は指定IDの農場を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Farm, error)

	// ListByOwnerID は所有者の農場一覧を返す。
	ListByOwnerID(ctx context.Context, ownerID string) ([]*model.Farm, error)

	// Create は農場を作成する。
	Create(ctx context.Context, farm *model.Farm) error

	// ListCropPlansByFarmID は農場の作付計画一覧を返す。
	ListCropPlansByFarmID(ctx context.Context, farmID string) ([]*model.CropPlan, error)

	// ListCropPlansByOwnerID は所有者の全作付計画を返す。
	ListCropPlansByOwnerID(ctx context.Context, ownerID string) ([]*model.CropPlan, error)

	// CreateCropPlan は作付計画を作成する。
	CreateCropPlan(ctx context.Context, plan *model.CropPlan) error
}

// LogisticsRepository は倉庫・在庫移動・輸送データの永続化インターフェース。
type LogisticsRepository interface {
	// FindWarehouseByID は指定IDの倉庫を取得する。見つからない場合はnilを返す。
	FindWarehouseByID(ctx context.Context, id string) (*model.Warehouse, error)

	// ListWarehousesByOwnerID は所有者の倉庫一覧を返す。
	ListWarehousesByOwnerID(ctx context.Context, ownerID string) ([]*model.Warehouse, error)

	// CreateWarehouse は倉庫を作成する。
	CreateWarehouse(ctx context.Context, warehouse *model.Warehouse) error

	// ListMovementsByOwnerID は所有者の在庫移動一覧を作成日時降順で返す。
	ListMovementsByOwnerID(ctx context.Context, ownerID string) ([]*model.InventoryMovement, error)

	// CreateMovement は在庫移動を記録する。
	CreateMovement(ctx context.Context, movement *model.InventoryMovement) error

	// FindShipmentByID は指定IDの輸送を取得する。見つからない場合はnilを返す。
	FindShipmentByID(ctx context.Context, id string) (*model.Shipment, error)

	// ListShipmentsByOwnerID は所有者の輸送一覧を作成日時降順で返す。
	ListShipmentsByOwnerID(ctx context.Context, ownerID string) ([]*model.Shipment, error)

	// CreateShipment は輸送を作成する。
	CreateShipment(ctx context.Context, shipment *model.Shipment) error

	// UpdateShipmentStatus は輸送の状態を更新する。
	UpdateShipmentStatus(ctx context.Context, id string, status model.ShipmentStatus) error
}

// ProcessingRepository は加工施設・加工バッチデータの永続化インターフェース。
type ProcessingRepository interface {
	// FindFacilityByID は指定IDの加工施設を取得する。見つからない場合はnilを返す。
	FindFacilityByID(ctx context.Context, id string) (*model.ProcessingFacility, error)

	// ListFacilitiesByOwnerID は所有者の加工施設一覧を返す。
	ListFacilitiesByOwnerID(ctx context.Context, ownerID string) ([]*model.ProcessingFacility, error)

	// CreateFacility は加工施設を作成する。
	CreateFacility(ctx context.Context, facility *model.ProcessingFacility) error

	// FindBatchByID は指定IDの加工バッチを取得する。見つからない場合はnilを返す。
	FindBatchByID(ctx context.Context, id string) (*model.ProcessingBatch, error)

	// ListBatchesByOwnerID は所有者の加工バッチ一覧を作成日時降順で返す。
	ListBatchesByOwnerID(ctx context.Context, ownerID string) ([]*model.ProcessingBatch, error)

	// CreateBatch は加工バッチを作成する。
	CreateBatch(ctx context.Context, batch *model.ProcessingBatch) error

	// UpdateBatch はバッチの状態・産出量を更新する。
	UpdateBatch(ctx context.Context, batch *model.ProcessingBatch) error
}

// FinanceRepository は決済・貿易金融データの永続化インターフェース。
type FinanceRepository interface {
	// ListTransactionsByOwnerID は所有者の決済記録一覧を作成日時降順で返す。
	ListTransactionsByOwnerID(ctx context.Context, ownerID string) ([]*model.PaymentTransaction, error)

	// CreateTransaction は決済記録を作成する。
	CreateTransaction(ctx context.Context, tx *model.PaymentTransaction) error

	// ListFinancingByApplicantID は申請者の貿易金融申請一覧を返す。
	ListFinancingByApplicantID(ctx context.Context, applicantID string) ([]*model.TradeFinancing, error)

	// CreateFinancing は貿易金融申請を作成する。
	CreateFinancing(ctx context.Context, financing *model.TradeFinancing) error
}

// NewsSourceRepository はニュースソースの永続化インターフェース。
type NewsSourceRepository interface {
	// FindByFeedURL はフィードURLでソースを検索する。見つからない場合はnilを返す。
	FindByFeedURL(ctx context.Context, feedURL string) (*model.NewsSource, error)

	// Create はニュースソースを作成する。
	Create(ctx context.Context, source *model.NewsSource) error

	// List は全ニュースソースを返す。
	List(ctx context.Context) ([]*model.NewsSource, error)

	// ListDueForFetch はフェッチ対象のソースを取得する。
	// next_fetch_at <= now() かつ fetch_status = 'active' のソースを
	// FOR UPDATE SKIP LOCKEDで排他的に取得する。
	ListDueForFetch(ctx context.Context) ([]*model.NewsSource, error)

	// UpdateFetchState はソースのフェッチ状態を更新する。
	// fetch_status、consecutive_errors、error_message、next_fetch_at、etag、last_modifiedを更新する。
	UpdateFetchState(ctx context.Context, source *model.NewsSource) error
}

// NewsItemRepository はニュース記事の永続化インターフェース。
type NewsItemRepository interface {
	// FindBySourceAndGUID はsource_idとguid_or_idで記事を検索する。見つからない場合はnilを返す。
	FindBySourceAndGUID(ctx context.Context, sourceID, guid string) (*model.NewsItem, error)

	// Create は新規記事を作成する。
	Create(ctx context.Context, item *model.NewsItem) error

	// Update は既存記事を上書き更新する。履歴は保持しない。
	Update(ctx context.Context, item *model.NewsItem) error

	// ListRecent は公開日時降順で最新の記事一覧を返す。
	ListRecent(ctx context.Context, limit int) ([]*model.NewsItem, error)
}

// MarketPriceRepository は市場価格の永続化インターフェース。
type MarketPriceRepository interface {
	// Upsert は商品・グレード・市場の組で価格を冪等にUPSERTする。
	Upsert(ctx context.Context, price *model.MarketPrice) error

	// ListLatest は全グレードの最新価格を返す。
	ListLatest(ctx context.Context) ([]*model.MarketPrice, error)

	// OldestFetchedAt は保持している価格の中で最も古い取得日時を返す。
	// 価格が1件もない場合はゼロ値を返す。
	OldestFetchedAt(ctx context.Context) (time.Time, error)
}
