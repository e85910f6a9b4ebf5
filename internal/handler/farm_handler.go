package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/cashewtrade/internal/farm"
	"github.com/hitoshi/cashewtrade/internal/model"
)

// FarmServiceInterface は農場ハンドラーが必要とするサービスインターフェース。
type FarmServiceInterface interface {
	GetOverview(ctx context.Context, ownerID string) *farm.Overview
	ListFarms(ctx context.Context, ownerID string) ([]*model.Farm, error)
	GetFarm(ctx context.Context, farmID, ownerID string) (*model.Farm, error)
	CreateFarm(ctx context.Context, ownerID string, input farm.CreateFarmInput) (*model.Farm, error)
	ListCropPlans(ctx context.Context, farmID, ownerID string) ([]*model.CropPlan, error)
	CreateCropPlan(ctx context.Context, ownerID string, input farm.CreateCropPlanInput) (*model.CropPlan, error)
}

// FarmHandler は農場管理のHTTPハンドラー。
type FarmHandler struct {
	service FarmServiceInterface
}

// NewFarmHandler はFarmHandlerを生成する。
func NewFarmHandler(service FarmServiceInterface) *FarmHandler {
	return &FarmHandler{service: service}
}

// createFarmRequest は農場作成リクエストのボディ。
type createFarmRequest struct {
	Name         string  `json:"name"`
	Location     string  `json:"location"`
	AreaHectares float64 `json:"area_hectares"`
	TreeCount    int     `json:"tree_count"`
	SoilType     string  `json:"soil_type"`
}

// createCropPlanRequest は作付計画作成リクエストのボディ。
type createCropPlanRequest struct {
	Season          string     `json:"season"`
	PlantingDate    *time.Time `json:"planting_date"`
	HarvestDate     *time.Time `json:"harvest_date"`
	ExpectedYieldKg float64    `json:"expected_yield_kg"`
	Notes           string     `json:"notes"`
}

// farmResponse は農場のAPIレスポンス。
type farmResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Location     string    `json:"location"`
	AreaHectares float64   `json:"area_hectares"`
	TreeCount    int       `json:"tree_count"`
	SoilType     string    `json:"soil_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// cropPlanResponse は作付計画のAPIレスポンス。
type cropPlanResponse struct {
	ID              string     `json:"id"`
	FarmID          string     `json:"farm_id"`
	Season          string     `json:"season"`
	PlantingDate    *time.Time `json:"planting_date"`
	HarvestDate     *time.Time `json:"harvest_date"`
	ExpectedYieldKg float64    `json:"expected_yield_kg"`
	ActualYieldKg   float64    `json:"actual_yield_kg"`
	Notes           string     `json:"notes"`
}

// overviewSectionResponse はダッシュボード1セクションのAPIレスポンス。
// セクション単位の取得失敗はerrorフィールドで通知し、他セクションには影響しない。
type overviewSectionResponse[T any] struct {
	Records []T    `json:"records"`
	Error   string `json:"error,omitempty"`
}

// farmOverviewResponse は農場ダッシュボードのAPIレスポンス。
type farmOverviewResponse struct {
	Farms     overviewSectionResponse[farmResponse]     `json:"farms"`
	CropPlans overviewSectionResponse[cropPlanResponse] `json:"crop_plans"`
}

// Overview は農場ダッシュボードの表示データを返す。
// GET /api/farm/overview
func (h *FarmHandler) Overview(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	overview := h.service.GetOverview(r.Context(), userID)

	resp := farmOverviewResponse{
		Farms:     overviewSectionResponse[farmResponse]{Records: toFarmResponses(overview.Farms.Records)},
		CropPlans: overviewSectionResponse[cropPlanResponse]{Records: toCropPlanResponses(overview.CropPlans.Records)},
	}
	if overview.Farms.Err != nil {
		resp.Farms.Error = "農場一覧の取得に失敗しました。"
	}
	if overview.CropPlans.Err != nil {
		resp.CropPlans.Error = "作付計画の取得に失敗しました。"
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListFarms は所有する農場の一覧を返す。
// GET /api/farms
func (h *FarmHandler) ListFarms(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	farms, err := h.service.ListFarms(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toFarmResponses(farms))
}

// GetFarm は農場詳細を返す。
// GET /api/farms/{id}
func (h *FarmHandler) GetFarm(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	f, err := h.service.GetFarm(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toFarmResponse(f))
}

// CreateFarm は農場を作成する。
// POST /api/farms
func (h *FarmHandler) CreateFarm(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createFarmRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeInvalidRequest(w, "農場名は必須です。")
		return
	}
	if req.AreaHectares < 0 || req.TreeCount < 0 {
		writeInvalidRequest(w, "面積と樹木数は0以上である必要があります。")
		return
	}

	f, err := h.service.CreateFarm(r.Context(), userID, farm.CreateFarmInput{
		Name:         req.Name,
		Location:     req.Location,
		AreaHectares: req.AreaHectares,
		TreeCount:    req.TreeCount,
		SoilType:     req.SoilType,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFarmResponse(f))
}

// ListCropPlans は農場の作付計画一覧を返す。
// GET /api/farms/{id}/crop-plans
func (h *FarmHandler) ListCropPlans(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	plans, err := h.service.ListCropPlans(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCropPlanResponses(plans))
}

// CreateCropPlan は農場に作付計画を作成する。
// POST /api/farms/{id}/crop-plans
func (h *FarmHandler) CreateCropPlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createCropPlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Season == "" {
		writeInvalidRequest(w, "シーズンは必須です。")
		return
	}

	plan, err := h.service.CreateCropPlan(r.Context(), userID, farm.CreateCropPlanInput{
		FarmID:          chi.URLParam(r, "id"),
		Season:          req.Season,
		PlantingDate:    req.PlantingDate,
		HarvestDate:     req.HarvestDate,
		ExpectedYieldKg: req.ExpectedYieldKg,
		Notes:           req.Notes,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCropPlanResponse(plan))
}

func toFarmResponse(f *model.Farm) farmResponse {
	return farmResponse{
		ID:           f.ID,
		Name:         f.Name,
		Location:     f.Location,
		AreaHectares: f.AreaHectares,
		TreeCount:    f.TreeCount,
		SoilType:     f.SoilType,
		CreatedAt:    f.CreatedAt,
	}
}

func toFarmResponses(farms []*model.Farm) []farmResponse {
	results := make([]farmResponse, len(farms))
	for i, f := range farms {
		results[i] = toFarmResponse(f)
	}
	return results
}

func toCropPlanResponse(p *model.CropPlan) cropPlanResponse {
	return cropPlanResponse{
		ID:              p.ID,
		FarmID:          p.FarmID,
		Season:          p.Season,
		PlantingDate:    p.PlantingDate,
		HarvestDate:     p.HarvestDate,
		ExpectedYieldKg: p.ExpectedYieldKg,
		ActualYieldKg:   p.ActualYieldKg,
		Notes:           p.Notes,
	}
}

func toCropPlanResponses(plans []*model.CropPlan) []cropPlanResponse {
	results := make([]cropPlanResponse, len(plans))
	for i, p := range plans {
		results[i] = toCropPlanResponse(p)
	}
	return results
}
