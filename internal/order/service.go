// Package order は注文の作成・状態遷移・追跡履歴を管理する。
package order

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/cashewtrade/internal/model"
	"github.com/hitoshi/cashewtrade/internal/repository"
)

// PlaceOrderInput は発注の入力。
type PlaceOrderInput struct {
	ListingID  string
	QuantityKg float64
	Note       string
}

// OrderWithEvents は注文と追跡履歴をまとめた参照用の値。
type OrderWithEvents struct {
	Order  *model.Order
	Events []*model.OrderEvent
}

// Service は注文のビジネスロジックを提供する。
type Service struct {
	orderRepo   repository.OrderRepository
	listingRepo repository.ListingRepository
	userRepo    repository.UserRepository
}

// NewService はServiceを生成する。
func NewService(
	orderRepo repository.OrderRepository,
	listingRepo repository.ListingRepository,
	userRepo repository.UserRepository,
) *Service {
	return &Service{
		orderRepo:   orderRepo,
		listingRepo: listingRepo,
		userRepo:    userRepo,
	}
}

// Place は出品に対して発注する。買い手アカウントのみ実行できる。
// 単価は発注時点の出品価格をスナップショットとして保存し、
// 以後の出品価格変更の影響を受けない。
func (s *Service) Place(ctx context.Context, buyerID string, input PlaceOrderInput) (*model.Order, error) {
	buyer, err := s.userRepo.FindByID(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find buyer: %w", err)
	}
	if buyer == nil {
		return nil, model.NewUserNotFoundError()
	}
	if !buyer.AccountType.CanBuy() {
		return nil, model.NewBuyerRoleRequiredError()
	}

	listing, err := s.listingRepo.FindByID(ctx, input.ListingID)
	if err != nil {
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	if listing == nil || !listing.Active {
		return nil, model.NewListingNotFoundError(input.ListingID)
	}
	if listing.SellerID == buyerID {
		return nil, fmt.Errorf("cannot order own listing")
	}

	if input.QuantityKg <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}
	if input.QuantityKg > listing.QuantityKg {
		return nil, fmt.Errorf("quantity %.1fkg exceeds available %.1fkg",
			input.QuantityKg, listing.QuantityKg)
	}

	now := time.Now()
	order := &model.Order{
		ID:         uuid.New().String(),
		ListingID:  listing.ID,
		BuyerID:    buyerID,
		SellerID:   listing.SellerID,
		QuantityKg: input.QuantityKg,
		UnitPrice:  listing.PricePerKg,
		TotalPrice: listing.PricePerKg * input.QuantityKg,
		Status:     model.OrderStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	event := &model.OrderEvent{
		ID:        uuid.New().String(),
		OrderID:   order.ID,
		Status:    model.OrderStatusPending,
		Note:      input.Note,
		CreatedAt: now,
	}

	if err := s.orderRepo.CreateWithEvent(ctx, order, event); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	slog.Info("order placed",
		slog.String("order_id", order.ID),
		slog.String("buyer_id", buyerID),
		slog.String("listing_id", listing.ID),
		slog.Float64("total_price", order.TotalPrice),
	)
	return order, nil
}

// Get は注文と追跡履歴を取得する。注文の当事者（買い手または売り手）のみ参照できる。
func (s *Service) Get(ctx context.Context, orderID, userID string) (*OrderWithEvents, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	if order == nil {
		return nil, model.NewOrderNotFoundError(orderID)
	}
	if order.BuyerID != userID && order.SellerID != userID {
		return nil, model.NewNotParticipantError()
	}

	events, err := s.orderRepo.ListEventsByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order events: %w", err)
	}

	return &OrderWithEvents{Order: order, Events: events}, nil
}

// ListPurchases は買い手としての注文一覧を返す。
func (s *Service) ListPurchases(ctx context.Context, buyerID string) ([]*model.Order, error) {
	orders, err := s.orderRepo.ListByBuyerID(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return orders, nil
}

// ListSales は売り手としての注文一覧を返す。
func (s *Service) ListSales(ctx context.Context, sellerID string) ([]*model.Order, error) {
	orders, err := s.orderRepo.ListBySellerID(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	return orders, nil
}

// UpdateStatus は注文の状態を遷移させ、追跡イベントを追加する。
// 遷移表にない遷移は拒否される。キャンセルは買い手も実行できるが、
// それ以外の状態変更は売り手のみ実行できる。
func (s *Service) UpdateStatus(ctx context.Context, orderID, userID string, to model.OrderStatus, note string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	if order == nil {
		return nil, model.NewOrderNotFoundError(orderID)
	}
	if order.BuyerID != userID && order.SellerID != userID {
		return nil, model.NewNotParticipantError()
	}

	if to == model.OrderStatusCancelled {
		// キャンセルは当事者どちらからでも可能
	} else if order.SellerID != userID {
		return nil, model.NewNotOwnerError()
	}

	if !order.Status.CanTransitionTo(to) {
		return nil, model.NewInvalidStatusTransitionError(string(order.Status), string(to))
	}

	from := order.Status
	order.Status = to
	order.UpdatedAt = time.Now()
	event := &model.OrderEvent{
		ID:        uuid.New().String(),
		OrderID:   order.ID,
		Status:    to,
		Note:      note,
		CreatedAt: order.UpdatedAt,
	}

	if err := s.orderRepo.UpdateStatusWithEvent(ctx, order, event); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	slog.Info("order status updated",
		slog.String("order_id", order.ID),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
	return order, nil
}
