package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/cashewtrade/internal/logistics"
	"github.com/hitoshi/cashewtrade/internal/model"
)

// LogisticsServiceInterface は物流ハンドラーが必要とするサービスインターフェース。
type LogisticsServiceInterface interface {
	GetOverview(ctx context.Context, ownerID string) *logistics.Overview
	ListWarehouses(ctx context.Context, ownerID string) ([]*model.Warehouse, error)
	CreateWarehouse(ctx context.Context, ownerID string, input logistics.CreateWarehouseInput) (*model.Warehouse, error)
	ListMovements(ctx context.Context, ownerID string) ([]*model.InventoryMovement, error)
	RecordMovement(ctx context.Context, ownerID string, input logistics.RecordMovementInput) (*model.InventoryMovement, error)
	ListShipments(ctx context.Context, ownerID string) ([]*model.Shipment, error)
	CreateShipment(ctx context.Context, ownerID string, input logistics.CreateShipmentInput) (*model.Shipment, error)
	UpdateShipmentStatus(ctx context.Context, shipmentID, ownerID string, to model.ShipmentStatus) (*model.Shipment, error)
}

// LogisticsHandler は物流管理のHTTPハンドラー。
type LogisticsHandler struct {
	service LogisticsServiceInterface
}

// NewLogisticsHandler はLogisticsHandlerを生成する。
func NewLogisticsHandler(service LogisticsServiceInterface) *LogisticsHandler {
	return &LogisticsHandler{service: service}
}

// createWarehouseRequest は倉庫作成リクエストのボディ。
type createWarehouseRequest struct {
	Name       string  `json:"name"`
	Location   string  `json:"location"`
	CapacityKg float64 `json:"capacity_kg"`
}

// recordMovementRequest は在庫移動記録リクエストのボディ。
type recordMovementRequest struct {
	WarehouseID   string  `json:"warehouse_id"`
	Type          string  `json:"type"`
	Commodity     string  `json:"commodity"`
	QuantityKg    float64 `json:"quantity_kg"`
	ToWarehouseID string  `json:"to_warehouse_id"`
	Reference     string  `json:"reference"`
}

// createShipmentRequest は輸送作成リクエストのボディ。
type createShipmentRequest struct {
	OrderID        string     `json:"order_id"`
	Carrier        string     `json:"carrier"`
	TrackingNumber string     `json:"tracking_number"`
	Origin         string     `json:"origin"`
	Destination    string     `json:"destination"`
	EstimatedAt    *time.Time `json:"estimated_at"`
}

// updateShipmentStatusRequest は輸送状態更新リクエストのボディ。
type updateShipmentStatusRequest struct {
	Status string `json:"status"`
}

// warehouseResponse は倉庫のAPIレスポンス。
type warehouseResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Location   string  `json:"location"`
	CapacityKg float64 `json:"capacity_kg"`
}

// movementResponse は在庫移動のAPIレスポンス。
type movementResponse struct {
	ID            string    `json:"id"`
	WarehouseID   string    `json:"warehouse_id"`
	Type          string    `json:"type"`
	Commodity     string    `json:"commodity"`
	QuantityKg    float64   `json:"quantity_kg"`
	ToWarehouseID string    `json:"to_warehouse_id,omitempty"`
	Reference     string    `json:"reference,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// shipmentResponse は輸送のAPIレスポンス。
type shipmentResponse struct {
	ID             string     `json:"id"`
	OrderID        string     `json:"order_id"`
	Carrier        string     `json:"carrier"`
	TrackingNumber string     `json:"tracking_number"`
	Origin         string     `json:"origin"`
	Destination    string     `json:"destination"`
	Status         string     `json:"status"`
	EstimatedAt    *time.Time `json:"estimated_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// logisticsOverviewResponse は物流ダッシュボードのAPIレスポンス。
type logisticsOverviewResponse struct {
	Warehouses overviewSectionResponse[warehouseResponse] `json:"warehouses"`
	Movements  overviewSectionResponse[movementResponse]  `json:"movements"`
	Shipments  overviewSectionResponse[shipmentResponse]  `json:"shipments"`
}

// Overview は物流ダッシュボードの表示データを返す。
// GET /api/logistics/overview
func (h *LogisticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	overview := h.service.GetOverview(r.Context(), userID)

	resp := logisticsOverviewResponse{
		Warehouses: overviewSectionResponse[warehouseResponse]{Records: toWarehouseResponses(overview.Warehouses.Records)},
		Movements:  overviewSectionResponse[movementResponse]{Records: toMovementResponses(overview.Movements.Records)},
		Shipments:  overviewSectionResponse[shipmentResponse]{Records: toShipmentResponses(overview.Shipments.Records)},
	}
	if overview.Warehouses.Err != nil {
		resp.Warehouses.Error = "倉庫一覧の取得に失敗しました。"
	}
	if overview.Movements.Err != nil {
		resp.Movements.Error = "在庫移動の取得に失敗しました。"
	}
	if overview.Shipments.Err != nil {
		resp.Shipments.Error = "輸送一覧の取得に失敗しました。"
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListWarehouses は倉庫一覧を返す。
// GET /api/warehouses
func (h *LogisticsHandler) ListWarehouses(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	warehouses, err := h.service.ListWarehouses(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toWarehouseResponses(warehouses))
}

// CreateWarehouse は倉庫を作成する。
// POST /api/warehouses
func (h *LogisticsHandler) CreateWarehouse(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createWarehouseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeInvalidRequest(w, "倉庫名は必須です。")
		return
	}
	if req.CapacityKg < 0 {
		writeInvalidRequest(w, "容量は0以上である必要があります。")
		return
	}

	warehouse, err := h.service.CreateWarehouse(r.Context(), userID, logistics.CreateWarehouseInput{
		Name:       req.Name,
		Location:   req.Location,
		CapacityKg: req.CapacityKg,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toWarehouseResponse(warehouse))
}

// ListMovements は在庫移動一覧を返す。
// GET /api/inventory-movements
func (h *LogisticsHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	movements, err := h.service.ListMovements(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMovementResponses(movements))
}

// RecordMovement は在庫移動を記録する。
// POST /api/inventory-movements
func (h *LogisticsHandler) RecordMovement(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req recordMovementRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.WarehouseID == "" {
		writeInvalidRequest(w, "倉庫IDは必須です。")
		return
	}
	if !model.ValidMovementType(model.MovementType(req.Type)) {
		writeInvalidRequest(w, "移動種別の値が不正です。")
		return
	}
	if req.QuantityKg <= 0 {
		writeInvalidRequest(w, "数量は正の値である必要があります。")
		return
	}

	movement, err := h.service.RecordMovement(r.Context(), userID, logistics.RecordMovementInput{
		WarehouseID:   req.WarehouseID,
		Type:          model.MovementType(req.Type),
		Commodity:     req.Commodity,
		QuantityKg:    req.QuantityKg,
		ToWarehouseID: req.ToWarehouseID,
		Reference:     req.Reference,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMovementResponse(movement))
}

// ListShipments は輸送一覧を返す。
// GET /api/shipments
func (h *LogisticsHandler) ListShipments(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	shipments, err := h.service.ListShipments(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toShipmentResponses(shipments))
}

// CreateShipment は輸送を作成する。
// POST /api/shipments
func (h *LogisticsHandler) CreateShipment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createShipmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.OrderID == "" {
		writeInvalidRequest(w, "注文IDは必須です。")
		return
	}

	shipment, err := h.service.CreateShipment(r.Context(), userID, logistics.CreateShipmentInput{
		OrderID:        req.OrderID,
		Carrier:        req.Carrier,
		TrackingNumber: req.TrackingNumber,
		Origin:         req.Origin,
		Destination:    req.Destination,
		EstimatedAt:    req.EstimatedAt,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toShipmentResponse(shipment))
}

// UpdateShipmentStatus は輸送の状態を遷移させる。
// PATCH /api/shipments/{id}/status
func (h *LogisticsHandler) UpdateShipmentStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req updateShipmentStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status == "" {
		writeInvalidRequest(w, "遷移先の状態は必須です。")
		return
	}

	shipment, err := h.service.UpdateShipmentStatus(r.Context(), chi.URLParam(r, "id"), userID, model.ShipmentStatus(req.Status))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toShipmentResponse(shipment))
}

func toWarehouseResponse(wh *model.Warehouse) warehouseResponse {
	return warehouseResponse{
		ID:         wh.ID,
		Name:       wh.Name,
		Location:   wh.Location,
		CapacityKg: wh.CapacityKg,
	}
}

func toWarehouseResponses(warehouses []*model.Warehouse) []warehouseResponse {
	results := make([]warehouseResponse, len(warehouses))
	for i, wh := range warehouses {
		results[i] = toWarehouseResponse(wh)
	}
	return results
}

func toMovementResponse(m *model.InventoryMovement) movementResponse {
	return movementResponse{
		ID:            m.ID,
		WarehouseID:   m.WarehouseID,
		Type:          string(m.Type),
		Commodity:     m.Commodity,
		QuantityKg:    m.QuantityKg,
		ToWarehouseID: m.ToWarehouseID,
		Reference:     m.Reference,
		CreatedAt:     m.CreatedAt,
	}
}

func toMovementResponses(movements []*model.InventoryMovement) []movementResponse {
	results := make([]movementResponse, len(movements))
	for i, m := range movements {
		results[i] = toMovementResponse(m)
	}
	return results
}

func toShipmentResponse(s *model.Shipment) shipmentResponse {
	return shipmentResponse{
		ID:             s.ID,
		OrderID:        s.OrderID,
		Carrier:        s.Carrier,
		TrackingNumber: s.TrackingNumber,
		Origin:         s.Origin,
		Destination:    s.Destination,
		Status:         string(s.Status),
		EstimatedAt:    s.EstimatedAt,
		CreatedAt:      s.CreatedAt,
	}
}

func toShipmentResponses(shipments []*model.Shipment) []shipmentResponse {
	results := make([]shipmentResponse, len(shipments))
	for i, s := range shipments {
		results[i] = toShipmentResponse(s)
	}
	return results
}
