package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/cashewtrade/internal/marketplace"
	"github.com/hitoshi/cashewtrade/internal/model"
)

// ListingServiceInterface は出品ハンドラーが必要とするサービスインターフェース。
type ListingServiceInterface interface {
	Browse(ctx context.Context, criteria marketplace.FilterCriteria) ([]*model.Listing, error)
	Get(ctx context.Context, listingID string) (*model.Listing, error)
	Compare(ctx context.Context, listingIDs []string) ([]*model.Listing, error)
	MyListings(ctx context.Context, sellerID string) ([]*model.Listing, error)
	Create(ctx context.Context, sellerID string, input marketplace.CreateListingInput) (*model.Listing, error)
	Update(ctx context.Context, listingID, sellerID string, input marketplace.UpdateListingInput) (*model.Listing, error)
	Deactivate(ctx context.Context, listingID, sellerID string) error
}

// ListingHandler はマーケットプレイス出品のHTTPハンドラー。
type ListingHandler struct {
	service ListingServiceInterface
}

// NewListingHandler はListingHandlerを生成する。
func NewListingHandler(service ListingServiceInterface) *ListingHandler {
	return &ListingHandler{service: service}
}

// createListingRequest は出品作成リクエストのボディ。
type createListingRequest struct {
	Name            string   `json:"name"`
	Category        string   `json:"category"`
	Grade           string   `json:"grade"`
	Origin          string   `json:"origin"`
	Location        string   `json:"location"`
	PricePerKg      float64  `json:"price_per_kg"`
	QuantityKg      float64  `json:"quantity_kg"`
	ProductTags     []string `json:"product_tags"`
	Description     string   `json:"description"`
	ResponseMinutes int      `json:"response_minutes"`
}

// updateListingRequest は出品更新リクエストのボディ。
type updateListingRequest struct {
	PricePerKg  float64 `json:"price_per_kg"`
	QuantityKg  float64 `json:"quantity_kg"`
	Description string  `json:"description"`
}

// listingResponse は出品のAPIレスポンス。
type listingResponse struct {
	ID              string    `json:"id"`
	SellerID        string    `json:"seller_id"`
	Name            string    `json:"name"`
	Category        string    `json:"category"`
	Grade           string    `json:"grade"`
	Origin          string    `json:"origin"`
	Location        string    `json:"location"`
	PricePerKg      float64   `json:"price_per_kg"`
	QuantityKg      float64   `json:"quantity_kg"`
	ProductTags     []string  `json:"product_tags"`
	Description     string    `json:"description"`
	Rating          float64   `json:"rating"`
	ResponseMinutes int       `json:"response_minutes"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
}

// Browse は公開中の出品を絞り込み・並び替えして返す。
// GET /api/listings?q=&category=&location=&tag=&min_rating=&sort=
func (h *ListingHandler) Browse(w http.ResponseWriter, r *http.Request) {
	criteria, ok := parseFilterCriteria(w, r)
	if !ok {
		return
	}

	listings, err := h.service.Browse(r.Context(), criteria)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toListingResponses(listings))
}

// Get は出品詳細を返す。
// GET /api/listings/{id}
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toListingResponse(listing))
}

// Compare は指定された出品をまとめて返す。
// GET /api/listings/compare?ids=a,b,c&sort=
func (h *ListingHandler) Compare(w http.ResponseWriter, r *http.Request) {
	idsParam := r.URL.Query().Get("ids")
	if idsParam == "" {
		writeInvalidRequest(w, "比較対象の出品IDが指定されていません。")
		return
	}

	var ids []string
	for _, id := range strings.Split(idsParam, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	listings, err := h.service.Compare(r.Context(), ids)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toListingResponses(listings))
}

// MyListings はログインユーザー自身の出品一覧を返す。
// GET /api/listings/mine
func (h *ListingHandler) MyListings(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	listings, err := h.service.MyListings(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toListingResponses(listings))
}

// Create は新しい出品を作成する。
// POST /api/listings
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createListingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeInvalidRequest(w, "商品名は必須です。")
		return
	}
	if !model.ValidListingCategory(model.ListingCategory(req.Category)) {
		writeInvalidRequest(w, "商品区分の値が不正です。")
		return
	}
	if req.PricePerKg < 0 || req.QuantityKg < 0 {
		writeInvalidRequest(w, "価格と数量は0以上である必要があります。")
		return
	}

	listing, err := h.service.Create(r.Context(), userID, marketplace.CreateListingInput{
		Name:            req.Name,
		Category:        model.ListingCategory(req.Category),
		Grade:           req.Grade,
		Origin:          req.Origin,
		Location:        req.Location,
		PricePerKg:      req.PricePerKg,
		QuantityKg:      req.QuantityKg,
		ProductTags:     req.ProductTags,
		DescriptionHTML: req.Description,
		ResponseMinutes: req.ResponseMinutes,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toListingResponse(listing))
}

// Update は出品の価格・数量・説明を更新する。
// PATCH /api/listings/{id}
func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req updateListingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PricePerKg < 0 || req.QuantityKg < 0 {
		writeInvalidRequest(w, "価格と数量は0以上である必要があります。")
		return
	}

	listing, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), userID, marketplace.UpdateListingInput{
		PricePerKg:      req.PricePerKg,
		QuantityKg:      req.QuantityKg,
		DescriptionHTML: req.Description,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toListingResponse(listing))
}

// Deactivate は出品を非公開にする。
// DELETE /api/listings/{id}
func (h *ListingHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Deactivate(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseFilterCriteria はクエリパラメータから絞り込み条件を組み立てる。
func parseFilterCriteria(w http.ResponseWriter, r *http.Request) (marketplace.FilterCriteria, bool) {
	q := r.URL.Query()
	criteria := marketplace.FilterCriteria{
		Search:   q.Get("q"),
		Category: model.ListingCategory(q.Get("category")),
		Location: q.Get("location"),
		Tag:      q.Get("tag"),
		SortBy:   marketplace.SortKey(q.Get("sort")),
	}

	if criteria.Category != "" && !model.ValidListingCategory(criteria.Category) {
		writeInvalidRequest(w, "商品区分の値が不正です。")
		return marketplace.FilterCriteria{}, false
	}

	if raw := q.Get("min_rating"); raw != "" {
		minRating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeInvalidRequest(w, "min_ratingは数値で指定してください。")
			return marketplace.FilterCriteria{}, false
		}
		criteria.MinRating = minRating
	}

	switch criteria.SortBy {
	case "", marketplace.SortByRating, marketplace.SortByName, marketplace.SortByPrice, marketplace.SortByResponse:
	default:
		writeInvalidRequest(w, "sortの値が不正です。")
		return marketplace.FilterCriteria{}, false
	}

	return criteria, true
}

// toListingResponse はmodel.ListingからAPIレスポンスに変換する。
func toListingResponse(l *model.Listing) listingResponse {
	return listingResponse{
		ID:              l.ID,
		SellerID:        l.SellerID,
		Name:            l.Name,
		Category:        string(l.Category),
		Grade:           l.Grade,
		Origin:          l.Origin,
		Location:        l.Location,
		PricePerKg:      l.PricePerKg,
		QuantityKg:      l.QuantityKg,
		ProductTags:     l.ProductTags,
		Description:     l.DescriptionHTML,
		Rating:          l.Rating,
		ResponseMinutes: l.ResponseMinutes,
		Active:          l.Active,
		CreatedAt:       l.CreatedAt,
	}
}

func toListingResponses(listings []*model.Listing) []listingResponse {
	results := make([]listingResponse, len(listings))
	for i, l := range listings {
		results[i] = toListingResponse(l)
	}
	return results
}
