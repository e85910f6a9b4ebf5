package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/cashewtrade/internal/model"
)

// PostgresMarketPriceRepo はPostgreSQLを使用した市場価格リポジトリ。
type PostgresMarketPriceRepo struct {
	db *sql.DB
}

// NewPostgresMarketPriceRepo はPostgresMarketPriceRepoを生成する。
func NewPostgresMarketPriceRepo(db *sql.DB) *PostgresMarketPriceRepo {
	return &PostgresMarketPriceRepo{db: db}
}

// Upsert は商品・グレード・市場の組で価格を冪等にUPSERTする。
func (r *PostgresMarketPriceRepo) Upsert(ctx context.Context, p *model.MarketPrice) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO market_prices (id, commodity, grade, price_usd, change_pct,
		 market, fetched_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		 ON CONFLICT (commodity, grade, market)
		 DO UPDATE SET price_usd = EXCLUDED.price_usd,
		               change_pct = EXCLUDED.change_pct,
		               fetched_at = EXCLUDED.fetched_at,
		               updated_at = now()`,
		p.ID, p.Commodity, p.Grade, p.PriceUSD, p.ChangePct, p.Market, p.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert market price: %w", err)
	}
	return nil
}

// ListLatest は全グレードの最新価格を返す。
func (r *PostgresMarketPriceRepo) ListLatest(ctx context.Context) ([]*model.MarketPrice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, commodity, grade, price_usd, change_pct, market, fetched_at, updated_at
		 FROM market_prices ORDER BY commodity, grade`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list market prices: %w", err)
	}
	defer rows.Close()

	var prices []*model.MarketPrice
	for rows.Next() {
		p := &model.MarketPrice{}
		if err := rows.Scan(&p.ID, &p.Commodity, &p.Grade, &p.PriceUSD, &p.ChangePct,
			&p.Market, &p.FetchedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan market price: %w", err)
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// OldestFetchedAt は保持している価格の中で最も古い取得日時を返す。
// 価格が1件もない場合はゼロ値を返す。
func (r *PostgresMarketPriceRepo) OldestFetchedAt(ctx context.Context) (time.Time, error) {
	var fetchedAt sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT min(fetched_at) FROM market_prices`,
	).Scan(&fetchedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get oldest fetched_at: %w", err)
	}
	if !fetchedAt.Valid {
		return time.Time{}, nil
	}
	return fetchedAt.Time, nil
}

// compile-time interface check
var _ MarketPriceRepository = (*PostgresMarketPriceRepo)(nil)
