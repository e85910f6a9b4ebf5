// Package farm は農場と作付計画の管理を提供する。
package farm

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

// CreateFarmInput は農場作成の入力。
type CreateFarmInput struct {
	Name         string
	Location     string
	AreaHectares float64
	TreeCount    int
	SoilType     string
}

// CreateCropPlanInput は作付計画作成の入力。
type CreateCropPlanInput struct {
	FarmID          string
	Season          string
	PlantingDate    *time.Time
	HarvestDate     *time.Time
	ExpectedYieldKg float64
	Notes           string
}

// OverviewSection はダッシュボードの1セクションの取得結果。
// 他セクションの失敗に影響されず、セクションごとに成否を保持する。
type OverviewSection[T any] struct {
	Records []T
	Err     error
}

// Overview は農場ダッシュボードの表示データ。
// 農場一覧と作付計画は独立に取得され、片方の失敗がもう片方を妨げない。
type Overview struct {
	Farms     OverviewSection[*model.Farm]
	CropPlans OverviewSection[*model.CropPlan]
}

// Service は農場管理のビジネスロジックを提供する。
type Service struct {
	farmRepo repository.FarmRepository
}

// NewService はServiceを生成する。
func NewService(farmRepo repository.FarmRepository) *Service {
	return &Service{farmRepo: farmRepo}
}

// GetOverview は農場一覧と作付計画を並行して取得する。
// いずれかの取得が失敗しても全体は失敗とせず、セクション単位でエラーを返す。
func (s *Service) GetOverview(ctx context.Context, ownerID string) *Overview {
	overview := &Overview{}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		farms, err := s.farmRepo.ListByOwnerID(ctx, ownerID)
		if err != nil {
			slog.Error("failed to load farms section",
				slog.String("owner_id", ownerID),
				slog.String("error", err.Error()),
			)
			overview.Farms.Err = err
			return
		}
		overview.Farms.Records = farms
	}()

	go func() {
		defer wg.Done()
		plans, err := s.farmRepo.ListCropPlansByOwnerID(ctx, ownerID)
		if err != nil {
			slog.Error("failed to load crop plans section",
				slog.String("owner_id", ownerID),
				slog.String("error", err.Error()),
			)
			overview.CropPlans.Err = err
			return
		}
		overview.CropPlans.Records = plans
	}()

	wg.Wait()
	return overview
}

// ListFarms は所有者の農場一覧を返す。
func (s *Service) ListFarms(ctx context.Context, ownerID string) ([]*model.Farm, error) {
	farms, err := s.farmRepo.ListByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list farms: %w", err)
	}
	return farms, nil
}

// GetFarm は農場を取得する。所有者のみ参照できる。
func (s *Service) GetFarm(ctx context.Context, farmID, ownerID string) (*model.Farm, error) {
	farm, err := s.farmRepo.FindByID(ctx, farmID)
	if err != nil {
		return nil, fmt.Errorf("failed to find farm: %w", err)
	}
	if farm == nil {
		return nil, model.NewFarmNotFoundError(farmID)
	}
	if farm.OwnerID != ownerID {
		return nil, model.NewNotOwnerError()
	}
	return farm, nil
}

// CreateFarm は農場を作成する。
func (s *Service) CreateFarm(ctx context.Context, ownerID string, input CreateFarmInput) (*model.Farm, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("farm name is required")
	}
	if input.AreaHectares < 0 || input.TreeCount < 0 {
		return nil, fmt.Errorf("area and tree count must not be negative")
	}

	now := time.Now()
	farm := &model.Farm{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		Name:         input.Name,
		Location:     input.Location,
		AreaHectares: input.AreaHectares,
		TreeCount:    input.TreeCount,
		SoilType:     input.SoilType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.farmRepo.Create(ctx, farm); err != nil {
		return nil, fmt.Errorf("failed to create farm: %w", err)
	}

	slog.Info("farm created",
		slog.String("farm_id", farm.ID),
		slog.String("owner_id", ownerID),
	)
	return farm, nil
}

// CreateCropPlan は作付計画を作成する。対象農場の所有者のみ実行できる。
func (s *Service) CreateCropPlan(ctx context.Context, ownerID string, input CreateCropPlanInput) (*model.CropPlan, error) {
	farm, err := s.farmRepo.FindByID(ctx, input.FarmID)
	if err != nil {
		return nil, fmt.Errorf("failed to find farm: %w", err)
	}
	if farm == nil {
		return nil, model.NewFarmNotFoundError(input.FarmID)
	}
	if farm.OwnerID != ownerID {
		return nil, model.NewNotOwnerError()
	}

	if input.Season == "" {
		return nil, fmt.Errorf("season is required")
	}

	now := time.Now()
	plan := &model.CropPlan{
		ID:              uuid.New().String(),
		FarmID:          farm.ID,
		OwnerID:         ownerID,
		Season:          input.Season,
		PlantingDate:    input.PlantingDate,
		HarvestDate:     input.HarvestDate,
		ExpectedYieldKg: input.ExpectedYieldKg,
		Notes:           input.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.farmRepo.CreateCropPlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to create crop plan: %w", err)
	}
	return plan, nil
}

// ListCropPlans は農場の作付計画一覧を返す。対象農場の所有者のみ参照できる。
func (s *Service) ListCropPlans(ctx context.Context, farmID, ownerID string) ([]*model.CropPlan, error) {
	farm, err := s.farmRepo.FindByID(ctx, farmID)
	if err != nil {
		return nil, fmt.Errorf("failed to find farm: %w", err)
	}
	if farm == nil {
		return nil, model.NewFarmNotFoundError(farmID)
	}
	if farm.OwnerID != ownerID {
		return nil, model.NewNotOwnerError()
	}

	plans, err := s.farmRepo.ListCropPlansByFarmID(ctx, farmID)
	if err != nil {
		return nil, fmt.Errorf("failed to list crop plans: %w", err)
	}
	return plans, nil
}
