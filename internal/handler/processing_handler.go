package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/cashewtrade/internal/model"
	"github.com/hitoshi/cashewtrade/internal/processing"
)

// ProcessingServiceInterface は加工ハンドラーが必要とするサービスインターフェース。
type ProcessingServiceInterface interface {
	ListFacilities(ctx context.Context, ownerID string) ([]*model.ProcessingFacility, error)
	CreateFacility(ctx context.Context, ownerID string, input processing.CreateFacilityInput) (*model.ProcessingFacility, error)
	ListBatches(ctx context.Context, ownerID string) ([]*model.ProcessingBatch, error)
	CreateBatch(ctx context.Context, ownerID string, input processing.CreateBatchInput) (*model.ProcessingBatch, error)
	AdvanceBatch(ctx context.Context, batchID, ownerID string, to model.BatchStatus) (*model.ProcessingBatch, error)
	CompleteBatch(ctx context.Context, batchID, ownerID string, input processing.CompleteBatchInput) (*model.ProcessingBatch, error)
}

// ProcessingHandler は加工管理のHTTPハンドラー。
type ProcessingHandler struct {
	service ProcessingServiceInterface
}

// NewProcessingHandler はProcessingHandlerを生成する。
func NewProcessingHandler(service ProcessingServiceInterface) *ProcessingHandler {
	return &ProcessingHandler{service: service}
}

// createFacilityRequest は加工施設作成リクエストのボディ。
type createFacilityRequest struct {
	Name             string  `json:"name"`
	Location         string  `json:"location"`
	DailyCapacityKg  float64 `json:"daily_capacity_kg"`
	CertificationISO bool    `json:"certification_iso"`
}

// createBatchRequest は加工バッチ作成リクエストのボディ。
type createBatchRequest struct {
	FacilityID string  `json:"facility_id"`
	InputKg    float64 `json:"input_kg"`
	Grade      string  `json:"grade"`
}

// advanceBatchRequest はバッチ状態遷移リクエストのボディ。
type advanceBatchRequest struct {
	Status string `json:"status"`
}

// completeBatchRequest はバッチ完了リクエストのボディ。
type completeBatchRequest struct {
	KernelOutputKg float64 `json:"kernel_output_kg"`
	CNSLOutputKg   float64 `json:"cnsl_output_kg"`
}

// facilityResponse は加工施設のAPIレスポンス。
type facilityResponse struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Location         string  `json:"location"`
	DailyCapacityKg  float64 `json:"daily_capacity_kg"`
	CertificationISO bool    `json:"certification_iso"`
}

// batchResponse は加工バッチのAPIレスポンス。
type batchResponse struct {
	ID             string     `json:"id"`
	FacilityID     string     `json:"facility_id"`
	InputKg        float64    `json:"input_kg"`
	KernelOutputKg float64    `json:"kernel_output_kg"`
	CNSLOutputKg   float64    `json:"cnsl_output_kg"`
	Grade          string     `json:"grade"`
	Status         string     `json:"status"`
	StartedAt      *time.Time `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ListFacilities は加工施設一覧を返す。
// GET /api/processing/facilities
func (h *ProcessingHandler) ListFacilities(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	facilities, err := h.service.ListFacilities(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]facilityResponse, len(facilities))
	for i, f := range facilities {
		results[i] = toFacilityResponse(f)
	}
	writeJSON(w, http.StatusOK, results)
}

// CreateFacility は加工施設を作成する。
// POST /api/processing/facilities
func (h *ProcessingHandler) CreateFacility(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createFacilityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeInvalidRequest(w, "施設名は必須です。")
		return
	}
	if req.DailyCapacityKg < 0 {
		writeInvalidRequest(w, "日次処理能力は0以上である必要があります。")
		return
	}

	facility, err := h.service.CreateFacility(r.Context(), userID, processing.CreateFacilityInput{
		Name:             req.Name,
		Location:         req.Location,
		DailyCapacityKg:  req.DailyCapacityKg,
		CertificationISO: req.CertificationISO,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFacilityResponse(facility))
}

// ListBatches は加工バッチ一覧を返す。
// GET /api/processing/batches
func (h *ProcessingHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	batches, err := h.service.ListBatches(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]batchResponse, len(batches))
	for i, b := range batches {
		results[i] = toBatchResponse(b)
	}
	writeJSON(w, http.StatusOK, results)
}

// CreateBatch は加工バッチを作成する。
// POST /api/processing/batches
func (h *ProcessingHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createBatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.FacilityID == "" {
		writeInvalidRequest(w, "加工施設IDは必須です。")
		return
	}
	if req.InputKg <= 0 {
		writeInvalidRequest(w, "投入量は正の値である必要があります。")
		return
	}

	batch, err := h.service.CreateBatch(r.Context(), userID, processing.CreateBatchInput{
		FacilityID: req.FacilityID,
		InputKg:    req.InputKg,
		Grade:      req.Grade,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBatchResponse(batch))
}

// AdvanceBatch はバッチを次の工程に進める。
// PATCH /api/processing/batches/{id}/status
func (h *ProcessingHandler) AdvanceBatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req advanceBatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status == "" {
		writeInvalidRequest(w, "遷移先の状態は必須です。")
		return
	}

	batch, err := h.service.AdvanceBatch(r.Context(), chi.URLParam(r, "id"), userID, model.BatchStatus(req.Status))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBatchResponse(batch))
}

// CompleteBatch はバッチを完了させ産出量を記録する。
// POST /api/processing/batches/{id}/complete
func (h *ProcessingHandler) CompleteBatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req completeBatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.KernelOutputKg < 0 || req.CNSLOutputKg < 0 {
		writeInvalidRequest(w, "産出量は0以上である必要があります。")
		return
	}

	batch, err := h.service.CompleteBatch(r.Context(), chi.URLParam(r, "id"), userID, processing.CompleteBatchInput{
		KernelOutputKg: req.KernelOutputKg,
		CNSLOutputKg:   req.CNSLOutputKg,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBatchResponse(batch))
}

func toFacilityResponse(f *model.ProcessingFacility) facilityResponse {
	return facilityResponse{
		ID:               f.ID,
		Name:             f.Name,
		Location:         f.Location,
		DailyCapacityKg:  f.DailyCapacityKg,
		CertificationISO: f.CertificationISO,
	}
}

func toBatchResponse(b *model.ProcessingBatch) batchResponse {
	return batchResponse{
		ID:             b.ID,
		FacilityID:     b.FacilityID,
		InputKg:        b.InputKg,
		KernelOutputKg: b.KernelOutputKg,
		CNSLOutputKg:   b.CNSLOutputKg,
		Grade:          b.Grade,
		Status:         string(b.Status),
		StartedAt:      b.StartedAt,
		CompletedAt:    b.CompletedAt,
		CreatedAt:      b.CreatedAt,
	}
}
