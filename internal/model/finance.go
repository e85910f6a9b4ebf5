// Package model はドメインモデルを定義する。
package model

import "time"

// PaymentStatus は決済の状態を表す。
type PaymentStatus string

const (
	// PaymentStatusPending は決済処理中。
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusCompleted は決済完了。
	PaymentStatusCompleted PaymentStatus = "completed"
	// PaymentStatusFailed は決済失敗。
	PaymentStatusFailed PaymentStatus = "failed"
)

// PaymentTransaction は注文に対する決済記録を表す。
type PaymentTransaction struct {
	ID        string
	OwnerID   string
	OrderID   string
	Amount    float64
	Currency  string
	Method    string // bank_transfer, letter_of_credit, escrow 等
	Status    PaymentStatus
	Reference string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FinancingStatus は貿易金融申請の状態を表す。
type FinancingStatus string

const (
	// FinancingStatusPending は審査中。
	FinancingStatusPending FinancingStatus = "pending"
	// FinancingStatusApproved は承認済み。
	FinancingStatusApproved FinancingStatus = "approved"
	// FinancingStatusRejected は否認。
	FinancingStatusRejected FinancingStatus = "rejected"
)

// TradeFinancing は貿易金融（運転資金・信用状等）の申請を表す。
type TradeFinancing struct {
	ID          string
	ApplicantID string
	Amount      float64
	Currency    string
	TenorMonths int
	Purpose     string
	Status      FinancingStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
