// Package model はドメインモデルを定義する。
package model

import "time"

// Farm はユーザーが所有する農場を表す。
type Farm struct {
	ID           string
	OwnerID      string
	Name         string
	Location     string
	AreaHectares float64
	TreeCount    int
	SoilType     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CropPlan は農場ごとの作付・収穫計画を表す。
type CropPlan struct {
	ID              string
	FarmID          string
	OwnerID         string
	Season          string
	PlantingDate    *time.Time
	HarvestDate     *time.Time
	ExpectedYieldKg float64
	ActualYieldKg   float64
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
