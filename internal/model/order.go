// Package model はドメインモデルを定義する。
package model

import "time"

// OrderStatus は注文のライフサイクル状態を表す。
type OrderStatus string

const (
	// OrderStatusPending は発注直後の未確定状態。
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusConfirmed は売り手が受注を確定した状態。
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusProcessing は加工・出荷準備中の状態。
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped は出荷済みの状態。
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered は配達完了の状態。
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled はキャンセルされた状態。
	OrderStatusCancelled OrderStatus = "cancelled"
)

// orderTransitions は注文状態の遷移可能先を定義する。
// cancelledへはpendingまたはconfirmedからのみ遷移できる。
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// CanTransitionTo は現在の状態からtoへの遷移が許可されているかを返す。
func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Order はマーケットプレイス上の注文を表す。
// 単価は発注時点の出品価格のスナップショットを保持する。
type Order struct {
	ID         string
	ListingID  string
	BuyerID    string
	SellerID   string
	QuantityKg float64
	UnitPrice  float64
	TotalPrice float64
	Status     OrderStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OrderEvent は注文の状態履歴（追跡イベント）を表す。
type OrderEvent struct {
	ID        string
	OrderID   string
	Status    OrderStatus
	Note      string
	CreatedAt time.Time
}
