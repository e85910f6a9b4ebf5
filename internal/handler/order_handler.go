package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/cashewtrade/internal/model"
	"github.com/hitoshi/cashewtrade/internal/order"
)

// OrderServiceInterface は注文ハンドラーが必要とするサービスインターフェース。
type OrderServiceInterface interface {
	Place(ctx context.Context, buyerID string, input order.PlaceOrderInput) (*model.Order, error)
	Get(ctx context.Context, orderID, userID string) (*order.OrderWithEvents, error)
	ListPurchases(ctx context.Context, buyerID string) ([]*model.Order, error)
	ListSales(ctx context.Context, sellerID string) ([]*model.Order, error)
	UpdateStatus(ctx context.Context, orderID, userID string, to model.OrderStatus, note string) (*model.Order, error)
}

// OrderMetricsRecorder は注文作成のメトリクス記録インターフェース。
// metrics.Collectorの部分集合として定義する。
type OrderMetricsRecorder interface {
	RecordOrderPlaced()
}

// OrderHandler は注文のHTTPハンドラー。
type OrderHandler struct {
	service OrderServiceInterface
	metrics OrderMetricsRecorder
}

// NewOrderHandler はOrderHandlerを生成する。metricsはnilでもよい。
func NewOrderHandler(service OrderServiceInterface, metrics OrderMetricsRecorder) *OrderHandler {
	return &OrderHandler{
		service: service,
		metrics: metrics,
	}
}

// placeOrderRequest は発注リクエストのボディ。
type placeOrderRequest struct {
	ListingID  string  `json:"listing_id"`
	QuantityKg float64 `json:"quantity_kg"`
	Note       string  `json:"note"`
}

// updateOrderStatusRequest は注文状態更新リクエストのボディ。
type updateOrderStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// orderResponse は注文のAPIレスポンス。
type orderResponse struct {
	ID         string    `json:"id"`
	ListingID  string    `json:"listing_id"`
	BuyerID    string    `json:"buyer_id"`
	SellerID   string    `json:"seller_id"`
	QuantityKg float64   `json:"quantity_kg"`
	UnitPrice  float64   `json:"unit_price"`
	TotalPrice float64   `json:"total_price"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// orderEventResponse は注文追跡イベントのAPIレスポンス。
type orderEventResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// orderDetailResponse は注文と追跡履歴のAPIレスポンス。
type orderDetailResponse struct {
	orderResponse
	Events []orderEventResponse `json:"events"`
}

// Place は出品に対して発注する。
// POST /api/orders
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req placeOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ListingID == "" {
		writeInvalidRequest(w, "出品IDは必須です。")
		return
	}
	if req.QuantityKg < 1 {
		writeInvalidRequest(w, "数量は1kg以上である必要があります。")
		return
	}

	placed, err := h.service.Place(r.Context(), userID, order.PlaceOrderInput{
		ListingID:  req.ListingID,
		QuantityKg: req.QuantityKg,
		Note:       req.Note,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordOrderPlaced()
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(placed))
}

// Get は注文と追跡履歴を返す。当事者のみ参照できる。
// GET /api/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	detail, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, orderDetailResponse{
		orderResponse: toOrderResponse(detail.Order),
		Events:        toOrderEventResponses(detail.Events),
	})
}

// List は注文一覧を返す。sideパラメータで買い手側・売り手側を切り替える。
// GET /api/orders?side=buyer|seller
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var (
		orders []*model.Order
		err    error
	)
	switch side := r.URL.Query().Get("side"); side {
	case "", "buyer":
		orders, err = h.service.ListPurchases(r.Context(), userID)
	case "seller":
		orders, err = h.service.ListSales(r.Context(), userID)
	default:
		writeInvalidRequest(w, "sideはbuyerまたはsellerを指定してください。")
		return
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]orderResponse, len(orders))
	for i, o := range orders {
		results[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, results)
}

// UpdateStatus は注文の状態を遷移させる。
// PATCH /api/orders/{id}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req updateOrderStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status == "" {
		writeInvalidRequest(w, "遷移先の状態は必須です。")
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), userID, model.OrderStatus(req.Status), req.Note)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(updated))
}

// ListEvents は注文の追跡イベント一覧を返す。
// GET /api/orders/{id}/events
func (h *OrderHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	detail, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderEventResponses(detail.Events))
}

// toOrderResponse はmodel.OrderからAPIレスポンスに変換する。
func toOrderResponse(o *model.Order) orderResponse {
	return orderResponse{
		ID:         o.ID,
		ListingID:  o.ListingID,
		BuyerID:    o.BuyerID,
		SellerID:   o.SellerID,
		QuantityKg: o.QuantityKg,
		UnitPrice:  o.UnitPrice,
		TotalPrice: o.TotalPrice,
		Status:     string(o.Status),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

func toOrderEventResponses(events []*model.OrderEvent) []orderEventResponse {
	results := make([]orderEventResponse, len(events))
	for i, e := range events {
		results[i] = orderEventResponse{
			ID:        e.ID,
			Status:    string(e.Status),
			Note:      e.Note,
			CreatedAt: e.CreatedAt,
		}
	}
	return results
}
