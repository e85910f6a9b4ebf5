package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/cashewtrade/internal/model"
)

// PostgresLogisticsRepo はPostgreSQLを使用した物流リポジトリ。
// 倉庫・在庫移動・輸送を扱う。
type PostgresLogisticsRepo struct {
	db *sql.DB
}

// NewPostgresLogisticsRepo はPostgresLogisticsRepoを生成する。
func NewPostgresLogisticsRepo(db *sql.DB) *PostgresLogisticsRepo {
	return &PostgresLogisticsRepo{db: db}
}

// FindWarehouseByID は指定IDの倉庫を取得する。見つからない場合はnilを返す。
func (r *PostgresLogisticsRepo) FindWarehouseByID(ctx context.Context, id string) (*model.Warehouse, error) {
	w := &model.Warehouse{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, location, capacity_kg, created_at, updated_at
		 FROM warehouses WHERE id = $1`, id,
	).Scan(&w.ID, &w.OwnerID, &w.Name, &w.Location, &w.CapacityKg, &w.CreatedAt, &w.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find warehouse by ID: %w", err)
	}
	return w, nil
}

// ListWarehousesByOwnerID は所有者の倉庫一覧を返す。
func (r *PostgresLogisticsRepo) ListWarehousesByOwnerID(ctx context.Context, ownerID string) ([]*model.Warehouse, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, name, location, capacity_kg, created_at, updated_at
		 FROM warehouses WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list warehouses: %w", err)
	}
	defer rows.Close()

	var warehouses []*model.Warehouse
	for rows.Next() {
		w := &model.Warehouse{}
		if err := rows.Scan(&w.ID, &w.OwnerID, &w.Name, &w.Location, &w.CapacityKg,
			&w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan warehouse: %w", err)
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, rows.Err()
}

// CreateWarehouse は倉庫を作成する。
func (r *PostgresLogisticsRepo) CreateWarehouse(ctx context.Context, w *model.Warehouse) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO warehouses (id, owner_id, name, location, capacity_kg, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		w.ID, w.OwnerID, w.Name, w.Location, w.CapacityKg, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert warehouse: %w", err)
	}
	return nil
}

// ListMovementsByOwnerID は所有者の在庫移動一覧を作成日時降順で返す。
func (r *PostgresLogisticsRepo) ListMovementsByOwnerID(ctx context.Context, ownerID string) ([]*model.InventoryMovement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, warehouse_id, owner_id, movement_type, commodity, quantity_kg,
		 COALESCE(to_warehouse_id::text, ''), reference, created_at
		 FROM inventory_movements WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory movements: %w", err)
	}
	defer rows.Close()

	var movements []*model.InventoryMovement
	for rows.Next() {
		m := &model.InventoryMovement{}
		if err := rows.Scan(&m.ID, &m.WarehouseID, &m.OwnerID, &m.Type, &m.Commodity,
			&m.QuantityKg, &m.ToWarehouseID, &m.Reference, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan inventory movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// CreateMovement は在庫移動を記録する。
func (r *PostgresLogisticsRepo) CreateMovement(ctx context.Context, m *model.InventoryMovement) error {
	// transfer以外はto_warehouse_idをNULLで保存する
	var toWarehouse any
	if m.ToWarehouseID != "" {
		toWarehouse = m.ToWarehouseID
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO inventory_movements (id, warehouse_id, owner_id, movement_type,
		 commodity, quantity_kg, to_warehouse_id, reference, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.WarehouseID, m.OwnerID, m.Type, m.Commodity, m.QuantityKg,
		toWarehouse, m.Reference, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert inventory movement: %w", err)
	}
	return nil
}

const shipmentColumns = `id, owner_id, order_id, carrier, tracking_number, origin,
	destination, status, estimated_at, created_at, updated_at`

// FindShipmentByID は指定IDの輸送を取得する。見つからない場合はnilを返す。
func (r *PostgresLogisticsRepo) FindShipmentByID(ctx context.Context, id string) (*model.Shipment, error) {
	s := &model.Shipment{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE id = $1`, id,
	).Scan(&s.ID, &s.OwnerID, &s.OrderID, &s.Carrier, &s.TrackingNumber, &s.Origin,
		&s.Destination, &s.Status, &s.EstimatedAt, &s.CreatedAt, &s.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find shipment by ID: %w", err)
	}
	return s, nil
}

// ListShipmentsByOwnerID は所有者の輸送一覧を作成日時降順で返す。
func (r *PostgresLogisticsRepo) ListShipmentsByOwnerID(ctx context.Context, ownerID string) ([]*model.Shipment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list shipments: %w", err)
	}
	defer rows.Close()

	var shipments []*model.Shipment
	for rows.Next() {
		s := &model.Shipment{}
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.OrderID, &s.Carrier, &s.TrackingNumber,
			&s.Origin, &s.Destination, &s.Status, &s.EstimatedAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shipment: %w", err)
		}
		shipments = append(shipments, s)
	}
	return shipments, rows.Err()
}

// CreateShipment は輸送を作成する。
func (r *PostgresLogisticsRepo) CreateShipment(ctx context.Context, s *model.Shipment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shipments (id, owner_id, order_id, carrier, tracking_number,
		 origin, destination, status, estimated_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		s.ID, s.OwnerID, s.OrderID, s.Carrier, s.TrackingNumber,
		s.Origin, s.Destination, s.Status, s.EstimatedAt, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert shipment: %w", err)
	}
	return nil
}

// UpdateShipmentStatus は輸送の状態を更新する。
func (r *PostgresLogisticsRepo) UpdateShipmentStatus(ctx context.Context, id string, status model.ShipmentStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE shipments SET status = $1, updated_at = now() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update shipment status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("shipment not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ LogisticsRepository = (*PostgresLogisticsRepo)(nil)
