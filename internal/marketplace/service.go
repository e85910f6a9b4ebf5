package marketplace

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/cashewtrade/internal/model"
	"github.com/hitoshi/cashewtrade/internal/repository"
	"github.com/hitoshi/cashewtrade/internal/security"
)

// defaultListLimit は一覧取得の既定上限件数。
const defaultListLimit = 200

// compareMaxListings は比較ビューで同時に扱える出品数の上限。
const compareMaxListings = 5

// CreateListingInput は出品作成の入力。
type CreateListingInput struct {
	Name            string
	Category        model.ListingCategory
	Grade           string
	Origin          string
	Location        string
	PricePerKg      float64
	QuantityKg      float64
	ProductTags     []string
	DescriptionHTML string
	ResponseMinutes int
}

// UpdateListingInput は出品更新の入力。価格・数量・説明のみ変更できる。
type UpdateListingInput struct {
	PricePerKg      float64
	QuantityKg      float64
	DescriptionHTML string
}

// Service はマーケットプレイスのビジネスロジックを提供する。
type Service struct {
	listingRepo repository.ListingRepository
	userRepo    repository.UserRepository
	sanitizer   security.ContentSanitizerService
}

// NewService はServiceを生成する。
func NewService(
	listingRepo repository.ListingRepository,
	userRepo repository.UserRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		listingRepo: listingRepo,
		userRepo:    userRepo,
		sanitizer:   sanitizer,
	}
}

// Browse は公開中の出品に絞り込みと並び替えを適用して返す。
// 絞り込みはメモリ上でFilterAndSortにより行う。
func (s *Service) Browse(ctx context.Context, criteria FilterCriteria) ([]*model.Listing, error) {
	listings, err := s.listingRepo.ListActive(ctx, defaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list active listings: %w", err)
	}
	return FilterAndSort(listings, criteria), nil
}

// Get は出品を1件取得する。
func (s *Service) Get(ctx context.Context, listingID string) (*model.Listing, error) {
	listing, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	if listing == nil {
		return nil, model.NewListingNotFoundError(listingID)
	}
	return listing, nil
}

// Compare は複数の出品をまとめて取得する。売り手比較ビュー用。
// 存在しないIDは結果から除かれる。
func (s *Service) Compare(ctx context.Context, listingIDs []string) ([]*model.Listing, error) {
	if len(listingIDs) == 0 {
		return nil, nil
	}
	if len(listingIDs) > compareMaxListings {
		listingIDs = listingIDs[:compareMaxListings]
	}

	listings, err := s.listingRepo.ListByIDs(ctx, listingIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings for comparison: %w", err)
	}
	return listings, nil
}

// MyListings は売り手自身の出品一覧を返す。非公開の出品も含む。
func (s *Service) MyListings(ctx context.Context, sellerID string) ([]*model.Listing, error) {
	listings, err := s.listingRepo.ListBySellerID(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seller listings: %w", err)
	}
	return listings, nil
}

// Create は新しい出品を作成する。売り手アカウントのみ実行できる。
// 説明文HTMLは保存前にサニタイズされる。
func (s *Service) Create(ctx context.Context, sellerID string, input CreateListingInput) (*model.Listing, error) {
	seller, err := s.userRepo.FindByID(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find seller: %w", err)
	}
	if seller == nil {
		return nil, model.NewUserNotFoundError()
	}
	if !seller.AccountType.CanSell() {
		return nil, model.NewSellerRoleRequiredError()
	}

	if input.Name == "" {
		return nil, fmt.Errorf("listing name is required")
	}
	if !model.ValidListingCategory(input.Category) {
		return nil, fmt.Errorf("invalid listing category: %s", input.Category)
	}
	if input.PricePerKg < 0 || input.QuantityKg < 0 {
		return nil, fmt.Errorf("price and quantity must not be negative")
	}

	now := time.Now()
	listing := &model.Listing{
		ID:              uuid.New().String(),
		SellerID:        sellerID,
		Name:            input.Name,
		Category:        input.Category,
		Grade:           input.Grade,
		Origin:          input.Origin,
		Location:        input.Location,
		PricePerKg:      input.PricePerKg,
		QuantityKg:      input.QuantityKg,
		ProductTags:     input.ProductTags,
		DescriptionHTML: s.sanitizer.Sanitize(input.DescriptionHTML),
		ResponseMinutes: input.ResponseMinutes,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.listingRepo.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	slog.Info("listing created",
		slog.String("listing_id", listing.ID),
		slog.String("seller_id", sellerID),
		slog.String("category", string(listing.Category)),
	)
	return listing, nil
}

// Update は出品の価格・数量・説明を更新する。所有者のみ実行できる。
func (s *Service) Update(ctx context.Context, listingID, sellerID string, input UpdateListingInput) (*model.Listing, error) {
	listing, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	if listing == nil {
		return nil, model.NewListingNotFoundError(listingID)
	}
	if listing.SellerID != sellerID {
		return nil, model.NewNotOwnerError()
	}

	if input.PricePerKg < 0 || input.QuantityKg < 0 {
		return nil, fmt.Errorf("price and quantity must not be negative")
	}

	listing.PricePerKg = input.PricePerKg
	listing.QuantityKg = input.QuantityKg
	listing.DescriptionHTML = s.sanitizer.Sanitize(input.DescriptionHTML)
	listing.UpdatedAt = time.Now()

	if err := s.listingRepo.Update(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}
	return listing, nil
}

// Deactivate は出品を非公開にする。所有者のみ実行できる。
func (s *Service) Deactivate(ctx context.Context, listingID, sellerID string) error {
	ok, err := s.listingRepo.Deactivate(ctx, listingID, sellerID)
	if err != nil {
		return fmt.Errorf("failed to deactivate listing: %w", err)
	}
	if !ok {
		return model.NewListingNotFoundError(listingID)
	}

	slog.Info("listing deactivated",
		slog.String("listing_id", listingID),
		slog.String("seller_id", sellerID),
	)
	return nil
}
