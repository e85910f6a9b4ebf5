package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/cashewtrade/internal/finance"
	"github.com/hitoshi/cashewtrade/internal/model"
)

// FinanceServiceInterface は金融ハンドラーが必要とするサービスインターフェース。
type FinanceServiceInterface interface {
	GetOverview(ctx context.Context, ownerID string) *finance.Overview
	ListTransactions(ctx context.Context, ownerID string) ([]*model.PaymentTransaction, error)
	RecordPayment(ctx context.Context, ownerID string, input finance.RecordPaymentInput) (*model.PaymentTransaction, error)
	ListFinancing(ctx context.Context, applicantID string) ([]*model.TradeFinancing, error)
	ApplyFinancing(ctx context.Context, applicantID string, input finance.ApplyFinancingInput) (*model.TradeFinancing, error)
}

// FinanceHandler は決済・貿易金融のHTTPハンドラー。
type FinanceHandler struct {
	service FinanceServiceInterface
}

// NewFinanceHandler はFinanceHandlerを生成する。
func NewFinanceHandler(service FinanceServiceInterface) *FinanceHandler {
	return &FinanceHandler{service: service}
}

// recordPaymentRequest は決済記録リクエストのボディ。
type recordPaymentRequest struct {
	OrderID   string  `json:"order_id"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Method    string  `json:"method"`
	Reference string  `json:"reference"`
}

// applyFinancingRequest は貿易金融申請リクエストのボディ。
type applyFinancingRequest struct {
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	TenorMonths int     `json:"tenor_months"`
	Purpose     string  `json:"purpose"`
}

// transactionResponse は決済記録のAPIレスポンス。
type transactionResponse struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Method    string    `json:"method"`
	Status    string    `json:"status"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// financingResponse は貿易金融申請のAPIレスポンス。
type financingResponse struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	TenorMonths int       `json:"tenor_months"`
	Purpose     string    `json:"purpose"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// financeOverviewResponse は金融ダッシュボードのAPIレスポンス。
type financeOverviewResponse struct {
	Transactions overviewSectionResponse[transactionResponse] `json:"transactions"`
	Financing    overviewSectionResponse[financingResponse]   `json:"financing"`
}

// Overview は金融ダッシュボードの表示データを返す。
// GET /api/finance/overview
func (h *FinanceHandler) Overview(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	overview := h.service.GetOverview(r.Context(), userID)

	resp := financeOverviewResponse{
		Transactions: overviewSectionResponse[transactionResponse]{Records: toTransactionResponses(overview.Transactions.Records)},
		Financing:    overviewSectionResponse[financingResponse]{Records: toFinancingResponses(overview.Financing.Records)},
	}
	if overview.Transactions.Err != nil {
		resp.Transactions.Error = "決済記録の取得に失敗しました。"
	}
	if overview.Financing.Err != nil {
		resp.Financing.Error = "貿易金融申請の取得に失敗しました。"
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListTransactions は決済記録一覧を返す。
// GET /api/finance/transactions
func (h *FinanceHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	txs, err := h.service.ListTransactions(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponses(txs))
}

// RecordPayment は注文に対する決済を記録する。
// POST /api/finance/transactions
func (h *FinanceHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req recordPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.OrderID == "" {
		writeInvalidRequest(w, "注文IDは必須です。")
		return
	}
	if req.Amount <= 0 {
		writeInvalidRequest(w, "決済額は正の値である必要があります。")
		return
	}

	tx, err := h.service.RecordPayment(r.Context(), userID, finance.RecordPaymentInput{
		OrderID:   req.OrderID,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Method:    req.Method,
		Reference: req.Reference,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

// ListFinancing は貿易金融申請一覧を返す。
// GET /api/finance/financing
func (h *FinanceHandler) ListFinancing(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	financings, err := h.service.ListFinancing(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toFinancingResponses(financings))
}

// ApplyFinancing は貿易金融を申請する。
// POST /api/finance/financing
func (h *FinanceHandler) ApplyFinancing(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req applyFinancingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Amount <= 0 {
		writeInvalidRequest(w, "申請額は正の値である必要があります。")
		return
	}
	if req.TenorMonths <= 0 {
		writeInvalidRequest(w, "期間（月数）は正の値である必要があります。")
		return
	}

	financing, err := h.service.ApplyFinancing(r.Context(), userID, finance.ApplyFinancingInput{
		Amount:      req.Amount,
		Currency:    req.Currency,
		TenorMonths: req.TenorMonths,
		Purpose:     req.Purpose,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFinancingResponse(financing))
}

func toTransactionResponse(tx *model.PaymentTransaction) transactionResponse {
	return transactionResponse{
		ID:        tx.ID,
		OrderID:   tx.OrderID,
		Amount:    tx.Amount,
		Currency:  tx.Currency,
		Method:    tx.Method,
		Status:    string(tx.Status),
		Reference: tx.Reference,
		CreatedAt: tx.CreatedAt,
	}
}

func toTransactionResponses(txs []*model.PaymentTransaction) []transactionResponse {
	results := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		results[i] = toTransactionResponse(tx)
	}
	return results
}

func toFinancingResponse(f *model.TradeFinancing) financingResponse {
	return financingResponse{
		ID:          f.ID,
		Amount:      f.Amount,
		Currency:    f.Currency,
		TenorMonths: f.TenorMonths,
		Purpose:     f.Purpose,
		Status:      string(f.Status),
		CreatedAt:   f.CreatedAt,
	}
}

func toFinancingResponses(financings []*model.TradeFinancing) []financingResponse {
	results := make([]financingResponse, len(financings))
	for i, f := range financings {
		results[i] = toFinancingResponse(f)
	}
	return results
}
