package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/cashewtrade/internal/model"
)

// PostgresListingRepo はPostgreSQLを使用した出品リポジトリ。
type PostgresListingRepo struct {
	db *sql.DB
}

// NewPostgresListingRepo はPostgresListingRepoを生成する。
func NewPostgresListingRepo(db *sql.DB) *PostgresListingRepo {
	return &PostgresListingRepo{db: db}
}

const listingColumns = `id, seller_id, name, category, grade, origin, location,
	price_per_kg, quantity_kg, product_tags, description_html, rating,
	response_minutes, active, created_at, updated_at`

func scanListing(scanner interface{ Scan(...any) error }) (*model.Listing, error) {
	l := &model.Listing{}
	err := scanner.Scan(
		&l.ID, &l.SellerID, &l.Name, &l.Category, &l.Grade, &l.Origin, &l.Location,
		&l.PricePerKg, &l.QuantityKg, pq.Array(&l.ProductTags), &l.DescriptionHTML,
		&l.Rating, &l.ResponseMinutes, &l.Active, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// FindByID は指定IDの出品を取得する。見つからない場合はnilを返す。
func (r *PostgresListingRepo) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	l, err := scanListing(r.db.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find listing by ID: %w", err)
	}
	return l, nil
}

// ListActive は公開中の出品一覧を作成日時降順で返す。
func (r *PostgresListingRepo) ListActive(ctx context.Context, limit int) ([]*model.Listing, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings
		 WHERE active = TRUE ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active listings: %w", err)
	}
	defer rows.Close()
	return collectListings(rows)
}

// ListByIDs は指定IDの出品をまとめて取得する。存在しないIDは無視される。
func (r *PostgresListingRepo) ListByIDs(ctx context.Context, ids []string) ([]*model.Listing, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings by IDs: %w", err)
	}
	defer rows.Close()
	return collectListings(rows)
}

// ListBySellerID は売り手の出品一覧を返す。
func (r *PostgresListingRepo) ListBySellerID(ctx context.Context, sellerID string) ([]*model.Listing, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings
		 WHERE seller_id = $1 ORDER BY created_at DESC`,
		sellerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings by seller: %w", err)
	}
	defer rows.Close()
	return collectListings(rows)
}

func collectListings(rows *sql.Rows) ([]*model.Listing, error) {
	var listings []*model.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// Create は出品を作成する。
func (r *PostgresListingRepo) Create(ctx context.Context, l *model.Listing) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO listings (id, seller_id, name, category, grade, origin, location,
		 price_per_kg, quantity_kg, product_tags, description_html, rating,
		 response_minutes, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		l.ID, l.SellerID, l.Name, l.Category, l.Grade, l.Origin, l.Location,
		l.PricePerKg, l.QuantityKg, pq.Array(l.ProductTags), l.DescriptionHTML,
		l.Rating, l.ResponseMinutes, l.Active, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert listing: %w", err)
	}
	return nil
}

// Update は出品の価格・数量・説明を更新する。
func (r *PostgresListingRepo) Update(ctx context.Context, l *model.Listing) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE listings SET price_per_kg = $1, quantity_kg = $2,
		 description_html = $3, response_minutes = $4, updated_at = now()
		 WHERE id = $5`,
		l.PricePerKg, l.QuantityKg, l.DescriptionHTML, l.ResponseMinutes, l.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("listing not found: %s", l.ID)
	}
	return nil
}

// Deactivate は出品を非公開にする。対象がない場合はfalseを返す。
func (r *PostgresListingRepo) Deactivate(ctx context.Context, id, sellerID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE listings SET active = FALSE, updated_at = now()
		 WHERE id = $1 AND seller_id = $2 AND active = TRUE`,
		id, sellerID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate listing: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ ListingRepository = (*PostgresListingRepo)(nil)
