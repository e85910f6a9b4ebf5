package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/cashewtrade/internal/model"
)

// PostgresOrderRepo はPostgreSQLを使用した注文リポジトリ。
type PostgresOrderRepo struct {
	db *sql.DB
}

// NewPostgresOrderRepo はPostgresOrderRepoを生成する。
func NewPostgresOrderRepo(db *sql.DB) *PostgresOrderRepo {
	return &PostgresOrderRepo{db: db}
}

const orderColumns = `id, listing_id, buyer_id, seller_id, quantity_kg,
	unit_price, total_price, status, created_at, updated_at`

// FindByID は指定IDの注文を取得する。見つからない場合はnilを返す。
func (r *PostgresOrderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	o := &model.Order{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.ListingID, &o.BuyerID, &o.SellerID, &o.QuantityKg,
		&o.UnitPrice, &o.TotalPrice, &o.Status, &o.CreatedAt, &o.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}
	return o, nil
}

// ListByBuyerID は買い手としての注文一覧を作成日時降順で返す。
func (r *PostgresOrderRepo) ListByBuyerID(ctx context.Context, buyerID string) ([]*model.Order, error) {
	return r.listByColumn(ctx, "buyer_id", buyerID)
}

// ListBySellerID は売り手としての注文一覧を作成日時降順で返す。
func (r *PostgresOrderRepo) ListBySellerID(ctx context.Context, sellerID string) ([]*model.Order, error) {
	return r.listByColumn(ctx, "seller_id", sellerID)
}

func (r *PostgresOrderRepo) listByColumn(ctx context.Context, column, value string) ([]*model.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE `+column+` = $1 ORDER BY created_at DESC`,
		value,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*model.Order
	for rows.Next() {
		o := &model.Order{}
		if err := rows.Scan(&o.ID, &o.ListingID, &o.BuyerID, &o.SellerID, &o.QuantityKg,
			&o.UnitPrice, &o.TotalPrice, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// CreateWithEvent は注文と初期追跡イベントを同一トランザクションで作成する。
func (r *PostgresOrderRepo) CreateWithEvent(ctx context.Context, order *model.Order, event *model.OrderEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, listing_id, buyer_id, seller_id, quantity_kg,
		 unit_price, total_price, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		order.ID, order.ListingID, order.BuyerID, order.SellerID, order.QuantityKg,
		order.UnitPrice, order.TotalPrice, order.Status, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	if err := insertOrderEvent(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateStatusWithEvent は注文状態の更新と追跡イベントの追加を同一トランザクションで行う。
func (r *PostgresOrderRepo) UpdateStatusWithEvent(ctx context.Context, order *model.Order, event *model.OrderEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = now() WHERE id = $2`,
		order.Status, order.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("order not found: %s", order.ID)
	}

	if err := insertOrderEvent(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertOrderEvent(ctx context.Context, tx *sql.Tx, event *model.OrderEvent) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO order_events (id, order_id, status, note, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		event.ID, event.OrderID, event.Status, event.Note, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order event: %w", err)
	}
	return nil
}

// ListEventsByOrderID は注文の追跡イベントを作成日時昇順で返す。
func (r *PostgresOrderRepo) ListEventsByOrderID(ctx context.Context, orderID string) ([]*model.OrderEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, status, note, created_at
		 FROM order_events WHERE order_id = $1 ORDER BY created_at ASC`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list order events: %w", err)
	}
	defer rows.Close()

	var events []*model.OrderEvent
	for rows.Next() {
		e := &model.OrderEvent{}
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Status, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// compile-time interface check
var _ OrderRepository = (*PostgresOrderRepo)(nil)
