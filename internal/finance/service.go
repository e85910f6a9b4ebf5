// Package finance は決済記録と貿易金融申請の管理を提供する。
package finance

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

// financingMaxTenorMonths は貿易金融申請の最長返済期間。
const financingMaxTenorMonths = 36

// RecordPaymentInput は決済記録の入力。
type RecordPaymentInput struct {
	OrderID   string
	Amount    float64
	Currency  string
	Method    string
	Reference string
}

// ApplyFinancingInput は貿易金融申請の入力。
type ApplyFinancingInput struct {
	Amount      float64
	Currency    string
	TenorMonths int
	Purpose     string
}

// OverviewSection はダッシュボードの1セクションの取得結果。
type OverviewSection[T any] struct {
	Records []T
	Err     error
}

// Overview はファイナンスダッシュボードの表示データ。
// 決済記録と金融申請は独立に取得される。
type Overview struct {
	Transactions OverviewSection[*model.PaymentTransaction]
	Financing    OverviewSection[*model.TradeFinancing]
}

// Service はファイナンスのビジネスロジックを提供する。
type Service struct {
	financeRepo repository.FinanceRepository
	orderRepo   repository.OrderRepository
}

// NewService はServiceを生成する。
func NewService(financeRepo repository.FinanceRepository, orderRepo repository.OrderRepository) *Service {
	return &Service{
		financeRepo: financeRepo,
		orderRepo:   orderRepo,
	}
}

// GetOverview は決済記録と金融申請を並行して取得する。
// セクション単位で成否を返し、片方の失敗で全体を失敗させない。
func (s *Service) GetOverview(ctx context.Context, ownerID string) *Overview {
	overview := &Overview{}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		txs, err := s.financeRepo.ListTransactionsByOwnerID(ctx, ownerID)
		if err != nil {
			slog.Error("failed to load transactions section", slog.String("error", err.Error()))
			overview.Transactions.Err = err
			return
		}
		overview.Transactions.Records = txs
	}()

	go func() {
		defer wg.Done()
		financing, err := s.financeRepo.ListFinancingByApplicantID(ctx, ownerID)
		if err != nil {
			slog.Error("failed to load financing section", slog.String("error", err.Error()))
			overview.Financing.Err = err
			return
		}
		overview.Financing.Records = financing
	}()

	wg.Wait()
	return overview
}

// ListTransactions は所有者の決済記録一覧を返す。
func (s *Service) ListTransactions(ctx context.Context, ownerID string) ([]*model.PaymentTransaction, error) {
	txs, err := s.financeRepo.ListTransactionsByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment transactions: %w", err)
	}
	return txs, nil
}

// ListFinancing は申請者の貿易金融申請一覧を返す。
func (s *Service) ListFinancing(ctx context.Context, applicantID string) ([]*model.TradeFinancing, error) {
	financings, err := s.financeRepo.ListFinancingByApplicantID(ctx, applicantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list financing applications: %w", err)
	}
	return financings, nil
}

// RecordPayment は注文に対する決済を記録する。注文の当事者のみ実行できる。
func (s *Service) RecordPayment(ctx context.Context, ownerID string, input RecordPaymentInput) (*model.PaymentTransaction, error) {
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

	if input.Amount <= 0 {
		return nil, fmt.Errorf("payment amount must be positive")
	}
	if input.Currency == "" {
		input.Currency = "USD"
	}

	now := time.Now()
	tx := &model.PaymentTransaction{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		OrderID:   order.ID,
		Amount:    input.Amount,
		Currency:  input.Currency,
		Method:    input.Method,
		Status:    model.PaymentStatusPending,
		Reference: input.Reference,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.financeRepo.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	slog.Info("payment recorded",
		slog.String("transaction_id", tx.ID),
		slog.String("order_id", order.ID),
		slog.Float64("amount", tx.Amount),
	)
	return tx, nil
}

// ApplyFinancing は貿易金融を申請する。初期状態はpending（審査中）。
func (s *Service) ApplyFinancing(ctx context.Context, applicantID string, input ApplyFinancingInput) (*model.TradeFinancing, error) {
	if input.Amount <= 0 {
		return nil, fmt.Errorf("financing amount must be positive")
	}
	if input.TenorMonths <= 0 || input.TenorMonths > financingMaxTenorMonths {
		return nil, fmt.Errorf("tenor must be between 1 and %d months", financingMaxTenorMonths)
	}
	if input.Currency == "" {
		input.Currency = "USD"
	}

	now := time.Now()
	financing := &model.TradeFinancing{
		ID:          uuid.New().String(),
		ApplicantID: applicantID,
		Amount:      input.Amount,
		Currency:    input.Currency,
		TenorMonths: input.TenorMonths,
		Purpose:     input.Purpose,
		Status:      model.FinancingStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.financeRepo.CreateFinancing(ctx, financing); err != nil {
		return nil, fmt.Errorf("failed to apply for financing: %w", err)
	}

	slog.Info("trade financing applied",
		slog.String("financing_id", financing.ID),
		slog.String("applicant_id", applicantID),
		slog.Float64("amount", financing.Amount),
	)
	return financing, nil
}
