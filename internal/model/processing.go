// Package model はドメインモデルを定義する。
package model

import "time"

// ProcessingFacility はユーザーが管理する加工施設を表す。
type ProcessingFacility struct {
	ID               string
	OwnerID          string
	Name             string
	Location         string
	DailyCapacityKg  float64
	CertificationISO bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// BatchStatus は加工バッチの状態を表す。
type BatchStatus string

const (
	// BatchStatusQueued は加工待ち。
	BatchStatusQueued BatchStatus = "queued"
	// BatchStatusRoasting は焙煎中。
	BatchStatusRoasting BatchStatus = "roasting"
	// BatchStatusShelling は殻剥き中。
	BatchStatusShelling BatchStatus = "shelling"
	// BatchStatusGrading は等級選別中。
	BatchStatusGrading BatchStatus = "grading"
	// BatchStatusCompleted は加工完了。
	BatchStatusCompleted BatchStatus = "completed"
)

// batchTransitions は加工バッチ状態の遷移可能先を定義する。
// 工程順に一方向で進み、逆戻りは許可しない。
var batchTransitions = map[BatchStatus][]BatchStatus{
	BatchStatusQueued:   {BatchStatusRoasting},
	BatchStatusRoasting: {BatchStatusShelling},
	BatchStatusShelling: {BatchStatusGrading},
	BatchStatusGrading:  {BatchStatusCompleted},
}

// CanTransitionTo は現在の状態からtoへの遷移が許可されているかを返す。
func (s BatchStatus) CanTransitionTo(to BatchStatus) bool {
	for _, next := range batchTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// ProcessingBatch は加工バッチを表す。
// 完了時にカーネルとCNSLの産出量が記録される。
type ProcessingBatch struct {
	ID             string
	FacilityID     string
	OwnerID        string
	InputKg        float64
	KernelOutputKg float64
	CNSLOutputKg   float64
	Grade          string
	Status         BatchStatus
	StartedAt      *time.Time
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
