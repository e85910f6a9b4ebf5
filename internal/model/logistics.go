// Package model はドメインモデルを定義する。
package model

import "time"

// Warehouse はユーザーが管理する倉庫を表す。
type Warehouse struct {
	ID         string
	OwnerID    string
	Name       string
	Location   string
	CapacityKg float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MovementType は在庫移動の種別を表す。
type MovementType string

const (
	// MovementInbound は入庫。
	MovementInbound MovementType = "inbound"
	// MovementOutbound は出庫。
	MovementOutbound MovementType = "outbound"
	// MovementTransfer は倉庫間移動。
	MovementTransfer MovementType = "transfer"
)

// ValidMovementType は在庫移動種別が定義済みのものであるかを返す。
func ValidMovementType(m MovementType) bool {
	switch m {
	case MovementInbound, MovementOutbound, MovementTransfer:
		return true
	}
	return false
}

// InventoryMovement は倉庫の在庫移動を表す。
// QuantityKgは常に正の値で、方向はTypeで表現する。
type InventoryMovement struct {
	ID            string
	WarehouseID   string
	OwnerID       string
	Type          MovementType
	Commodity     string
	QuantityKg    float64
	ToWarehouseID string // transferの場合のみ設定される
	Reference     string // 関連する注文・バッチ等の参照
	CreatedAt     time.Time
}

// ShipmentStatus は輸送の状態を表す。
type ShipmentStatus string

const (
	// ShipmentStatusPreparing は出荷準備中。
	ShipmentStatusPreparing ShipmentStatus = "preparing"
	// ShipmentStatusInTransit は輸送中。
	ShipmentStatusInTransit ShipmentStatus = "in_transit"
	// ShipmentStatusDelivered は配達完了。
	ShipmentStatusDelivered ShipmentStatus = "delivered"
)

// shipmentTransitions は輸送状態の遷移可能先を定義する。
var shipmentTransitions = map[ShipmentStatus][]ShipmentStatus{
	ShipmentStatusPreparing: {ShipmentStatusInTransit},
	ShipmentStatusInTransit: {ShipmentStatusDelivered},
}

// CanTransitionTo は現在の状態からtoへの遷移が許可されているかを返す。
func (s ShipmentStatus) CanTransitionTo(to ShipmentStatus) bool {
	for _, next := range shipmentTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Shipment は注文に紐づく輸送を表す。
type Shipment struct {
	ID             string
	OwnerID        string
	OrderID        string
	Carrier        string
	TrackingNumber string
	Origin         string
	Destination    string
	Status         ShipmentStatus
	EstimatedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
