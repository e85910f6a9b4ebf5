// Package logistics は倉庫・在庫移動・輸送の管理を提供する。
package logistics

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/cashewtrade/internal/model"
	"github.com/hitoshi/cashewtrade/internal/repository"
)

// CreateWarehouseInput は倉庫作成の入力。
type CreateWarehouseInput struct {
	Name       string
	Location   string
	CapacityKg float64
}

// RecordMovementInput は在庫移動記録の入力。
type RecordMovementInput struct {
	WarehouseID   string
	Type          model.MovementType
	Commodity     string
	QuantityKg    float64
	ToWarehouseID string
	Reference     string
}

// CreateShipmentInput は輸送作成の入力。
type CreateShipmentInput struct {
	OrderID        string
	Carrier        string
	TrackingNumber string
	Origin         string
	Destination    string
	EstimatedAt    *time.Time
}

// OverviewSection はダッシュボードの1セクションの取得結果。
type OverviewSection[T any] struct {
	Records []T
	Err     error
}

// Overview は物流ダッシュボードの表示データ。
// 倉庫・在庫移動・輸送は独立に取得され、1つの失敗が他を妨げない。
type Overview struct {
	Warehouses OverviewSection[*model.Warehouse]
	Movements  OverviewSection[*model.InventoryMovement]
	Shipments  OverviewSection[*model.Shipment]
}

// Service は物流管理のビジネスロジックを提供する。
type Service struct {
	logisticsRepo repository.LogisticsRepository
	orderRepo     repository.OrderRepository
}

// NewService はServiceを生成する。
func NewService(logisticsRepo repository.LogisticsRepository, orderRepo repository.OrderRepository) *Service {
	return &Service{
		logisticsRepo: logisticsRepo,
		orderRepo:     orderRepo,
	}
}

// GetOverview は倉庫・在庫移動・輸送を並行して取得する。
// セクション単位で成否を返し、1つの失敗で全体を失敗させない。
func (s *Service) GetOverview(ctx context.Context, ownerID string) *Overview {
	overview := &Overview{}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		warehouses, err := s.logisticsRepo.ListWarehousesByOwnerID(ctx, ownerID)
		if err != nil {
			slog.Error("failed to load warehouses section", slog.String("error", err.Error()))
			overview.Warehouses.Err = err
			return
		}
		overview.Warehouses.Records = warehouses
	}()

	go func() {
		defer wg.Done()
		movements, err := s.logisticsRepo.ListMovementsByOwnerID(ctx, ownerID)
		if err != nil {
			slog.Error("failed to load movements section", slog.String("error", err.Error()))
			overview.Movements.Err = err
			return
		}
		overview.Movements.Records = movements
	}()

	go func() {
		defer wg.Done()
		shipments, err := s.logisticsRepo.ListShipmentsByOwnerID(ctx, ownerID)
		if err != nil {
			slog.Error("failed to load shipments section", slog.String("error", err.Error()))
			overview.Shipments.Err = err
			return
		}
		overview.Shipments.Records = shipments
	}()

	wg.Wait()
	return overview
}

// ListWarehouses は所有者の倉庫一覧を返す。
func (s *Service) ListWarehouses(ctx context.Context, ownerID string) ([]*model.Warehouse, error) {
	warehouses, err := s.logisticsRepo.ListWarehousesByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list warehouses: %w", err)
	}
	return warehouses, nil
}

// ListMovements は所有者の在庫移動一覧を返す。
func (s *Service) ListMovements(ctx context.Context, ownerID string) ([]*model.InventoryMovement, error) {
	movements, err := s.logisticsRepo.ListMovementsByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory movements: %w", err)
	}
	return movements, nil
}

// ListShipments は所有者の輸送一覧を返す。
func (s *Service) ListShipments(ctx context.Context, ownerID string) ([]*model.Shipment, error) {
	shipments, err := s.logisticsRepo.ListShipmentsByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shipments: %w", err)
	}
	return shipments, nil
}

// CreateWarehouse は倉庫を作成する。
func (s *Service) CreateWarehouse(ctx context.Context, ownerID string, input CreateWarehouseInput) (*model.Warehouse, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("warehouse name is required")
	}
	if input.CapacityKg < 0 {
		return nil, fmt.Errorf("capacity must not be negative")
	}

	now := time.Now()
	warehouse := &model.Warehouse{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		Name:       input.Name,
		Location:   input.Location,
		CapacityKg: input.CapacityKg,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.logisticsRepo.CreateWarehouse(ctx, warehouse); err != nil {
		return nil, fmt.Errorf("failed to create warehouse: %w", err)
	}
	return warehouse, nil
}

// RecordMovement は在庫移動を記録する。対象倉庫の所有者のみ実行できる。
// transferの場合は移動先倉庫も自身の所有である必要がある。
func (s *Service) RecordMovement(ctx context.Context, ownerID string, input RecordMovementInput) (*model.InventoryMovement, error) {
	if !model.ValidMovementType(input.Type) {
		return nil, fmt.Errorf("invalid movement type: %s", input.Type)
	}
	if input.QuantityKg <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}

	warehouse, err := s.ownedWarehouse(ctx, input.WarehouseID, ownerID)
	if err != nil {
		return nil, err
	}

	if input.Type == model.MovementTransfer {
		if input.ToWarehouseID == "" {
			return nil, fmt.Errorf("transfer requires destination warehouse")
		}
		if input.ToWarehouseID == warehouse.ID {
			return nil, fmt.Errorf("transfer destination must differ from source")
		}
		if _, err := s.ownedWarehouse(ctx, input.ToWarehouseID, ownerID); err != nil {
			return nil, err
		}
	}

	movement := &model.InventoryMovement{
		ID:            uuid.New().String(),
		WarehouseID:   warehouse.ID,
		OwnerID:       ownerID,
		Type:          input.Type,
		Commodity:     input.Commodity,
		QuantityKg:    input.QuantityKg,
		ToWarehouseID: input.ToWarehouseID,
		Reference:     input.Reference,
		CreatedAt:     time.Now(),
	}

	if err := s.logisticsRepo.CreateMovement(ctx, movement); err != nil {
		return nil, fmt.Errorf("failed to record movement: %w", err)
	}

	slog.Info("inventory movement recorded",
		slog.String("movement_id", movement.ID),
		slog.String("warehouse_id", warehouse.ID),
		slog.String("type", string(movement.Type)),
	)
	return movement, nil
}

// CreateShipment は注文に紐づく輸送を作成する。注文の当事者のみ実行できる。
func (s *Service) CreateShipment(ctx context.Context, ownerID string, input CreateShipmentInput) (*model.Shipment, error) {
	order, err := s.orderRepo.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	if order == nil {
		return nil, model.NewOrderNotFoundError(input.OrderID)
	}
	if order.BuyerID != ownerID && order.SellerID != ownerID {
		return nil, model.NewNotParticipantError()
	}

	now := time.Now()
	shipment := &model.Shipment{
		ID:             uuid.New().String(),
		OwnerID:        ownerID,
		OrderID:        order.ID,
		Carrier:        input.Carrier,
		TrackingNumber: input.TrackingNumber,
		Origin:         input.Origin,
		Destination:    input.Destination,
		Status:         model.ShipmentStatusPreparing,
		EstimatedAt:    input.EstimatedAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.logisticsRepo.CreateShipment(ctx, shipment); err != nil {
		return nil, fmt.Errorf("failed to create shipment: %w", err)
	}

	slog.Info("shipment created",
		slog.String("shipment_id", shipment.ID),
		slog.String("order_id", order.ID),
	)
	return shipment, nil
}

// UpdateShipmentStatus は輸送の状態を遷移させる。所有者のみ実行できる。
func (s *Service) UpdateShipmentStatus(ctx context.Context, shipmentID, ownerID string, to model.ShipmentStatus) (*model.Shipment, error) {
	shipment, err := s.logisticsRepo.FindShipmentByID(ctx, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find shipment: %w", err)
	}
	if shipment == nil {
		return nil, model.NewShipmentNotFoundError(shipmentID)
	}
	if shipment.OwnerID != ownerID {
		return nil, model.NewNotOwnerError()
	}

	if !shipment.Status.CanTransitionTo(to) {
		return nil, model.NewInvalidStatusTransitionError(string(shipment.Status), string(to))
	}

	if err := s.logisticsRepo.UpdateShipmentStatus(ctx, shipmentID, to); err != nil {
		return nil, fmt.Errorf("failed to update shipment status: %w", err)
	}

	shipment.Status = to
	shipment.UpdatedAt = time.Now()
	return shipment, nil
}

func (s *Service) ownedWarehouse(ctx context.Context, warehouseID, ownerID string) (*model.Warehouse, error) {
	warehouse, err := s.logisticsRepo.FindWarehouseByID(ctx, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to find warehouse: %w", err)
	}
	if warehouse == nil {
		return nil, fmt.Errorf("warehouse not found: %s", warehouseID)
	}
	if warehouse.OwnerID != ownerID {
		return nil, model.NewNotOwnerError()
	}
	return warehouse, nil
}
