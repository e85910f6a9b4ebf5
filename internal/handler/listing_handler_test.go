package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/cashewtrade/internal/marketplace"
	"github.com/hitoshi/cashewtrade/internal/middleware"
	"github.com/hitoshi/cashewtrade/internal/model"
)

type mockListingService struct {
	browseFn     func(ctx context.Context, criteria marketplace.FilterCriteria) ([]*model.Listing, error)
	getFn        func(ctx context.Context, listingID string) (*model.Listing, error)
	compareFn    func(ctx context.Context, listingIDs []string) ([]*model.Listing, error)
	myListingsFn func(ctx context.Context, sellerID string) ([]*model.Listing, error)
	createFn     func(ctx context.Context, sellerID string, input marketplace.CreateListingInput) (*model.Listing, error)
	updateFn     func(ctx context.Context, listingID, sellerID string, input marketplace.UpdateListingInput) (*model.Listing, error)
	deactivateFn func(ctx context.Context, listingID, sellerID string) error
}

func (m *mockListingService) Browse(ctx context.Context, criteria marketplace.FilterCriteria) ([]*model.Listing, error) {
	return m.browseFn(ctx, criteria)
}

func (m *mockListingService) Get(ctx context.Context, listingID string) (*model.Listing, error) {
	return m.getFn(ctx, listingID)
}

func (m *mockListingService) Compare(ctx context.Context, listingIDs []string) ([]*model.Listing, error) {
	return m.compareFn(ctx, listingIDs)
}

func (m *mockListingService) MyListings(ctx context.Context, sellerID string) ([]*model.Listing, error) {
	return m.myListingsFn(ctx, sellerID)
}

func (m *mockListingService) Create(ctx context.Context, sellerID string, input marketplace.CreateListingInput) (*model.Listing, error) {
	return m.createFn(ctx, sellerID, input)
}

func (m *mockListingService) Update(ctx context.Context, listingID, sellerID string, input marketplace.UpdateListingInput) (*model.Listing, error) {
	return m.updateFn(ctx, listingID, sellerID, input)
}

func (m *mockListingService) Deactivate(ctx context.Context, listingID, sellerID string) error {
	return m.deactivateFn(ctx, listingID, sellerID)
}

var _ ListingServiceInterface = (*mockListingService)(nil)

func testListing() *model.Listing {
	return &model.Listing{
		ID:         "listing-1",
		SellerID:   "user-1",
		Name:       "Premium W320 Kernels",
		Category:   model.CategoryKernels,
		Grade:      "W320",
		Location:   "Cotonou",
		PricePerKg: 6.25,
		QuantityKg: 1000,
		Active:     true,
	}
}

// authedRequest はセッションミドルウェア通過後のリクエストを模したリクエストを作る。
func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.ContextWithUserID(req.Context(), "user-1"))
}

// TestBrowse_PassesCriteria はクエリパラメータが絞り込み条件に変換されることを検証する。
func TestBrowse_PassesCriteria(t *testing.T) {
	var captured marketplace.FilterCriteria
	service := &mockListingService{
		browseFn: func(_ context.Context, criteria marketplace.FilterCriteria) ([]*model.Listing, error) {
			captured = criteria
			return []*model.Listing{testListing()}, nil
		},
	}
	h := NewListingHandler(service)

	req := authedRequest(http.MethodGet, "/api/listings?q=cashew&category=kernels&location=Cotonou&tag=organic&min_rating=4.5&sort=price", "")
	rec := httptest.NewRecorder()
	h.Browse(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if captured.Search != "cashew" || captured.Category != model.CategoryKernels {
		t.Errorf("criteria = %+v", captured)
	}
	if captured.MinRating != 4.5 || captured.SortBy != marketplace.SortByPrice {
		t.Errorf("criteria = %+v", captured)
	}
}

// TestBrowse_InvalidSort は未定義の並び替えキーが400で返ることを検証する。
func TestBrowse_InvalidSort(t *testing.T) {
	h := NewListingHandler(&mockListingService{})

	req := authedRequest(http.MethodGet, "/api/listings?sort=alphabet", "")
	rec := httptest.NewRecorder()
	h.Browse(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

// TestBrowse_InvalidCategory は未定義の商品区分が400で返ることを検証する。
func TestBrowse_InvalidCategory(t *testing.T) {
	h := NewListingHandler(&mockListingService{})

	req := authedRequest(http.MethodGet, "/api/listings?category=diamonds", "")
	rec := httptest.NewRecorder()
	h.Browse(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

// TestCreateListing_Success は出品作成が201で返ることを検証する。
func TestCreateListing_Success(t *testing.T) {
	service := &mockListingService{
		createFn: func(_ context.Context, sellerID string, input marketplace.CreateListingInput) (*model.Listing, error) {
			if sellerID != "user-1" {
				t.Errorf("sellerID = %s", sellerID)
			}
			if input.Category != model.CategoryKernels {
				t.Errorf("category = %s", input.Category)
			}
			return testListing(), nil
		},
	}
	h := NewListingHandler(service)

	body := `{"name":"Premium W320 Kernels","category":"kernels","grade":"W320","price_per_kg":6.25,"quantity_kg":1000}`
	req := authedRequest(http.MethodPost, "/api/listings", body)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
}

// TestCreateListing_MissingName は商品名なしが400で返ることを検証する。
func TestCreateListing_MissingName(t *testing.T) {
	h := NewListingHandler(&mockListingService{})

	body := `{"category":"kernels","price_per_kg":6.25}`
	req := authedRequest(http.MethodPost, "/api/listings", body)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

// TestCreateListing_SellerRoleRequired は買い手アカウントによる出品が403で返ることを検証する。
func TestCreateListing_SellerRoleRequired(t *testing.T) {
	service := &mockListingService{
		createFn: func(_ context.Context, _ string, _ marketplace.CreateListingInput) (*model.Listing, error) {
			return nil, model.NewSellerRoleRequiredError()
		},
	}
	h := NewListingHandler(service)

	body := `{"name":"Kernels","category":"kernels"}`
	req := authedRequest(http.MethodPost, "/api/listings", body)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), model.ErrCodeSellerRoleRequired) {
		t.Errorf("body should contain error code: %s", rec.Body.String())
	}
}

// TestCompare_ParsesIDs はカンマ区切りIDが分解されて渡されることを検証する。
func TestCompare_ParsesIDs(t *testing.T) {
	var captured []string
	service := &mockListingService{
		compareFn: func(_ context.Context, ids []string) ([]*model.Listing, error) {
			captured = ids
			return []*model.Listing{testListing()}, nil
		},
	}
	h := NewListingHandler(service)

	req := authedRequest(http.MethodGet, "/api/listings/compare?ids=a,%20b,,c", "")
	rec := httptest.NewRecorder()
	h.Compare(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(captured) != 3 || captured[0] != "a" || captured[1] != "b" || captured[2] != "c" {
		t.Errorf("ids = %v, want [a b c]", captured)
	}
}

// TestCompare_MissingIDs はids未指定が400で返ることを検証する。
func TestCompare_MissingIDs(t *testing.T) {
	h := NewListingHandler(&mockListingService{})

	req := authedRequest(http.MethodGet, "/api/listings/compare", "")
	rec := httptest.NewRecorder()
	h.Compare(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

// TestMyListings_ReturnsOwnListings は自身の出品のみ返ることを検証する。
func TestMyListings_ReturnsOwnListings(t *testing.T) {
	service := &mockListingService{
		myListingsFn: func(_ context.Context, sellerID string) ([]*model.Listing, error) {
			if sellerID != "user-1" {
				t.Errorf("sellerID = %s", sellerID)
			}
			return []*model.Listing{testListing()}, nil
		},
	}
	h := NewListingHandler(service)

	req := authedRequest(http.MethodGet, "/api/listings/mine", "")
	rec := httptest.NewRecorder()
	h.MyListings(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var results []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(results) != 1 || results[0]["id"] != "listing-1" {
		t.Errorf("results = %v", results)
	}
}
