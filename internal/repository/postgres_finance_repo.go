package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/cashewtrade/internal/model"
)

// PostgresFinanceRepo はPostgreSQLを使用した金融リポジトリ。
// 決済記録と貿易金融申請を扱う。
type PostgresFinanceRepo struct {
	db *sql.DB
}

// NewPostgresFinanceRepo はPostgresFinanceRepoを生成する。
func NewPostgresFinanceRepo(db *sql.DB) *PostgresFinanceRepo {
	return &PostgresFinanceRepo{db: db}
}

// ListTransactionsByOwnerID は所有者の決済記録一覧を作成日時降順で返す。
func (r *PostgresFinanceRepo) ListTransactionsByOwnerID(ctx context.Context, ownerID string) ([]*model.PaymentTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, order_id, amount, currency, method, status, reference,
		 created_at, updated_at
		 FROM payment_transactions WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*model.PaymentTransaction
	for rows.Next() {
		t := &model.PaymentTransaction{}
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.OrderID, &t.Amount, &t.Currency,
			&t.Method, &t.Status, &t.Reference, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// CreateTransaction は決済記録を作成する。
func (r *PostgresFinanceRepo) CreateTransaction(ctx context.Context, t *model.PaymentTransaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payment_transactions (id, owner_id, order_id, amount, currency,
		 method, status, reference, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.OwnerID, t.OrderID, t.Amount, t.Currency,
		t.Method, t.Status, t.Reference, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment transaction: %w", err)
	}
	return nil
}

// ListFinancingByApplicantID は申請者の貿易金融申請一覧を返す。
func (r *PostgresFinanceRepo) ListFinancingByApplicantID(ctx context.Context, applicantID string) ([]*model.TradeFinancing, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, applicant_id, amount, currency, tenor_months, purpose, status,
		 created_at, updated_at
		 FROM trade_financing WHERE applicant_id = $1 ORDER BY created_at DESC`,
		applicantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list trade financing: %w", err)
	}
	defer rows.Close()

	var applications []*model.TradeFinancing
	for rows.Next() {
		f := &model.TradeFinancing{}
		if err := rows.Scan(&f.ID, &f.ApplicantID, &f.Amount, &f.Currency, &f.TenorMonths,
			&f.Purpose, &f.Status, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trade financing: %w", err)
		}
		applications = append(applications, f)
	}
	return applications, rows.Err()
}

// CreateFinancing は貿易金融申請を作成する。
func (r *PostgresFinanceRepo) CreateFinancing(ctx context.Context, f *model.TradeFinancing) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO trade_financing (id, applicant_id, amount, currency, tenor_months,
		 purpose, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		f.ID, f.ApplicantID, f.Amount, f.Currency, f.TenorMonths,
		f.Purpose, f.Status, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trade financing: %w", err)
	}
	return nil
}

// compile-time interface check
var _ FinanceRepository = (*PostgresFinanceRepo)(nil)
