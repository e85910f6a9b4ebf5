package finance

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/cashewtrade/internal/model"
)

type mockFinanceRepo struct {
	listTransactionsFn func(ctx context.Context, ownerID string) ([]*model.PaymentTransaction, error)
	createTxFn         func(ctx context.Context, tx *model.PaymentTransaction) error
	listFinancingFn    func(ctx context.Context, applicantID string) ([]*model.TradeFinancing, error)
	createFinancingFn  func(ctx context.Context, f *model.TradeFinancing) error
}

func (m *mockFinanceRepo) ListTransactionsByOwnerID(ctx context.Context, ownerID string) ([]*model.PaymentTransaction, error) {
	if m.listTransactionsFn != nil {
		return m.listTransactionsFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockFinanceRepo) CreateTransaction(ctx context.Context, tx *model.PaymentTransaction) error {
	if m.createTxFn != nil {
		return m.createTxFn(ctx, tx)
	}
	return nil
}

func (m *mockFinanceRepo) ListFinancingByApplicantID(ctx context.Context, applicantID string) ([]*model.TradeFinancing, error) {
	if m.listFinancingFn != nil {
		return m.listFinancingFn(ctx, applicantID)
	}
	return nil, nil
}

func (m *mockFinanceRepo) CreateFinancing(ctx context.Context, f *model.TradeFinancing) error {
	if m.createFinancingFn != nil {
		return m.createFinancingFn(ctx, f)
	}
	return nil
}

type mockOrderRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Order, error)
}

func (m *mockOrderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockOrderRepo) ListByBuyerID(_ context.Context, _ string) ([]*model.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) ListBySellerID(_ context.Context, _ string) ([]*model.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) CreateWithEvent(_ context.Context, _ *model.Order, _ *model.OrderEvent) error {
	return nil
}

func (m *mockOrderRepo) UpdateStatusWithEvent(_ context.Context, _ *model.Order, _ *model.OrderEvent) error {
	return nil
}

func (m *mockOrderRepo) ListEventsByOrderID(_ context.Context, _ string) ([]*model.OrderEvent, error) {
	return nil, nil
}

func participantOrder() *mockOrderRepo {
	return &mockOrderRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Order, error) {
			return &model.Order{ID: id, BuyerID: "buyer-1", SellerID: "seller-1"}, nil
		},
	}
}

// セクション間の失敗分離
func TestGetOverview_SectionFailureIsolation(t *testing.T) {
	repo := &mockFinanceRepo{
		listTransactionsFn: func(_ context.Context, _ string) ([]*model.PaymentTransaction, error) {
			return nil, errors.New("transactions query failed")
		},
		listFinancingFn: func(_ context.Context, applicantID string) ([]*model.TradeFinancing, error) {
			return []*model.TradeFinancing{{ID: "f1", ApplicantID: applicantID}}, nil
		},
	}

	svc := NewService(repo, &mockOrderRepo{})
	overview := svc.GetOverview(context.Background(), "owner-1")

	if overview.Transactions.Err == nil {
		t.Error("expected transactions section error")
	}
	if overview.Financing.Err != nil {
		t.Errorf("financing section should succeed: %v", overview.Financing.Err)
	}
	if len(overview.Financing.Records) != 1 {
		t.Errorf("financing records should still be returned: %d", len(overview.Financing.Records))
	}
}

func TestRecordPayment_StartsPending(t *testing.T) {
	var recorded *model.PaymentTransaction
	repo := &mockFinanceRepo{
		createTxFn: func(_ context.Context, tx *model.PaymentTransaction) error {
			recorded = tx
			return nil
		},
	}

	svc := NewService(repo, participantOrder())
	_, err := svc.RecordPayment(context.Background(), "buyer-1", RecordPaymentInput{
		OrderID: "o1", Amount: 1500, Method: "letter_of_credit",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recorded.Status != model.PaymentStatusPending {
		t.Errorf("initial status = %s, want pending", recorded.Status)
	}
	if recorded.Currency != "USD" {
		t.Errorf("default currency = %s, want USD", recorded.Currency)
	}
}

func TestRecordPayment_NonParticipant_Rejected(t *testing.T) {
	svc := NewService(&mockFinanceRepo{}, participantOrder())

	_, err := svc.RecordPayment(context.Background(), "stranger", RecordPaymentInput{
		OrderID: "o1", Amount: 100,
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeNotParticipant {
		t.Fatalf("expected NOT_PARTICIPANT, got %v", err)
	}
}

func TestRecordPayment_InvalidAmount_Rejected(t *testing.T) {
	svc := NewService(&mockFinanceRepo{}, participantOrder())

	if _, err := svc.RecordPayment(context.Background(), "buyer-1", RecordPaymentInput{
		OrderID: "o1", Amount: 0,
	}); err == nil {
		t.Fatal("expected error for zero amount")
	}
}

func TestApplyFinancing_Validation(t *testing.T) {
	svc := NewService(&mockFinanceRepo{}, &mockOrderRepo{})

	if _, err := svc.ApplyFinancing(context.Background(), "user-1", ApplyFinancingInput{
		Amount: -100, TenorMonths: 12,
	}); err == nil {
		t.Error("expected error for negative amount")
	}
	if _, err := svc.ApplyFinancing(context.Background(), "user-1", ApplyFinancingInput{
		Amount: 1000, TenorMonths: 48,
	}); err == nil {
		t.Error("expected error for excessive tenor")
	}
}

func TestApplyFinancing_StartsPending(t *testing.T) {
	var created *model.TradeFinancing
	repo := &mockFinanceRepo{
		createFinancingFn: func(_ context.Context, f *model.TradeFinancing) error {
			created = f
			return nil
		},
	}

	svc := NewService(repo, &mockOrderRepo{})
	_, err := svc.ApplyFinancing(context.Background(), "user-1", ApplyFinancingInput{
		Amount: 50000, TenorMonths: 12, Purpose: "working capital",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Status != model.FinancingStatusPending {
		t.Errorf("initial status = %s, want pending", created.Status)
	}
	if created.ApplicantID != "user-1" {
		t.Errorf("applicant = %s, want user-1", created.ApplicantID)
	}
}
