package repository

import "testing"

// 各PostgresリポジトリがインターフェースIを満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
	var _ APITokenRepository = (*PostgresAPITokenRepo)(nil)
	var _ ListingRepository = (*PostgresListingRepo)(nil)
	var _ OrderRepository = (*PostgresOrderRepo)(nil)
	var _ FarmRepository = (*PostgresFarmRepo)(nil)
	var _ LogisticsRepository = (*PostgresLogisticsRepo)(nil)
	var _ ProcessingRepository = (*PostgresProcessingRepo)(nil)
	var _ FinanceRepository = (*PostgresFinanceRepo)(nil)
	var _ NewsSourceRepository = (*PostgresNewsSourceRepo)(nil)
	var _ NewsItemRepository = (*PostgresNewsItemRepo)(nil)
	var _ MarketPriceRepository = (*PostgresMarketPriceRepo)(nil)
}

// コンストラクタがnil DBでも初期化できることを検証（接続はPing時まで遅延される）
func TestNewPostgresRepos_Initialize(t *testing.T) {
	if NewPostgresUserRepo(nil) == nil {
		t.Error("expected non-nil user repo")
	}
	if NewPostgresSessionRepo(nil) == nil {
		t.Error("expected non-nil session repo")
	}
	if NewPostgresListingRepo(nil) == nil {
		t.Error("expected non-nil listing repo")
	}
	if NewPostgresOrderRepo(nil) == nil {
		t.Error("expected non-nil order repo")
	}
}
