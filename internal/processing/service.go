// Package processing は加工施設と加工バッチのパイプライン管理を提供する。
package processing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/cashewtrade/internal/model"
	"github.com/hitoshi/cashewtrade/internal/repository"
)

// CreateFacilityInput は加工施設作成の入力。
type CreateFacilityInput struct {
	Name             string
	Location         string
	DailyCapacityKg  float64
	CertificationISO bool
}

// CreateBatchInput は加工バッチ作成の入力。
type CreateBatchInput struct {
	FacilityID string
	InputKg    float64
	Grade      string
}

// CompleteBatchInput はバッチ完了時の産出量記録。
type CompleteBatchInput struct {
	KernelOutputKg float64
	CNSLOutputKg   float64
}

// Service は加工管理のビジネスロジックを提供する。
type Service struct {
	processingRepo repository.ProcessingRepository
}

// NewService はServiceを生成する。
func NewService(processingRepo repository.ProcessingRepository) *Service {
	return &Service{processingRepo: processingRepo}
}

// ListFacilities は所有者の加工施設一覧を返す。
func (s *Service) ListFacilities(ctx context.Context, ownerID string) ([]*model.ProcessingFacility, error) {
	facilities, err := s.processingRepo.ListFacilitiesByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list facilities: %w", err)
	}
	return facilities, nil
}

// CreateFacility は加工施設を作成する。
func (s *Service) CreateFacility(ctx context.Context, ownerID string, input CreateFacilityInput) (*model.ProcessingFacility, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("facility name is required")
	}
	if input.DailyCapacityKg < 0 {
		return nil, fmt.Errorf("daily capacity must not be negative")
	}

	now := time.Now()
	facility := &model.ProcessingFacility{
		ID:               uuid.New().String(),
		OwnerID:          ownerID,
		Name:             input.Name,
		Location:         input.Location,
		DailyCapacityKg:  input.DailyCapacityKg,
		CertificationISO: input.CertificationISO,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.processingRepo.CreateFacility(ctx, facility); err != nil {
		return nil, fmt.Errorf("failed to create facility: %w", err)
	}
	return facility, nil
}

// ListBatches は所有者の加工バッチ一覧を返す。
func (s *Service) ListBatches(ctx context.Context, ownerID string) ([]*model.ProcessingBatch, error) {
	batches, err := s.processingRepo.ListBatchesByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	return batches, nil
}

// CreateBatch は加工バッチを作成する。施設の所有者のみ実行できる。
// 初期状態はqueuedで、工程順にのみ進められる。
func (s *Service) CreateBatch(ctx context.Context, ownerID string, input CreateBatchInput) (*model.ProcessingBatch, error) {
	facility, err := s.processingRepo.FindFacilityByID(ctx, input.FacilityID)
	if err != nil {
		return nil, fmt.Errorf("failed to find facility: %w", err)
	}
	if facility == nil {
		return nil, fmt.Errorf("facility not found: %s", input.FacilityID)
	}
	if facility.OwnerID != ownerID {
		return nil, model.NewNotOwnerError()
	}

	if input.InputKg <= 0 {
		return nil, fmt.Errorf("input quantity must be positive")
	}

	now := time.Now()
	batch := &model.ProcessingBatch{
		ID:         uuid.New().String(),
		FacilityID: facility.ID,
		OwnerID:    ownerID,
		InputKg:    input.InputKg,
		Grade:      input.Grade,
		Status:     model.BatchStatusQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.processingRepo.CreateBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to create batch: %w", err)
	}

	slog.Info("processing batch created",
		slog.String("batch_id", batch.ID),
		slog.String("facility_id", facility.ID),
		slog.Float64("input_kg", batch.InputKg),
	)
	return batch, nil
}

// AdvanceBatch はバッチを次工程に進める。工程順にのみ遷移でき、逆戻りはできない。
// roastingへの遷移で開始時刻を記録する。completedへはCompleteBatchを使用する。
func (s *Service) AdvanceBatch(ctx context.Context, batchID, ownerID string, to model.BatchStatus) (*model.ProcessingBatch, error) {
	batch, err := s.ownedBatch(ctx, batchID, ownerID)
	if err != nil {
		return nil, err
	}

	if to == model.BatchStatusCompleted {
		return nil, fmt.Errorf("completion requires output quantities")
	}
	if !batch.Status.CanTransitionTo(to) {
		return nil, model.NewInvalidStatusTransitionError(string(batch.Status), string(to))
	}

	now := time.Now()
	if batch.Status == model.BatchStatusQueued {
		batch.StartedAt = &now
	}
	batch.Status = to
	batch.UpdatedAt = now

	if err := s.processingRepo.UpdateBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to advance batch: %w", err)
	}
	return batch, nil
}

// CompleteBatch はgrading中のバッチを完了させ、カーネルとCNSLの産出量を記録する。
func (s *Service) CompleteBatch(ctx context.Context, batchID, ownerID string, input CompleteBatchInput) (*model.ProcessingBatch, error) {
	batch, err := s.ownedBatch(ctx, batchID, ownerID)
	if err != nil {
		return nil, err
	}

	if !batch.Status.CanTransitionTo(model.BatchStatusCompleted) {
		return nil, model.NewInvalidStatusTransitionError(string(batch.Status), string(model.BatchStatusCompleted))
	}
	if input.KernelOutputKg < 0 || input.CNSLOutputKg < 0 {
		return nil, fmt.Errorf("output quantities must not be negative")
	}
	if input.KernelOutputKg+input.CNSLOutputKg > batch.InputKg {
		return nil, fmt.Errorf("total output %.1fkg exceeds input %.1fkg",
			input.KernelOutputKg+input.CNSLOutputKg, batch.InputKg)
	}

	now := time.Now()
	batch.Status = model.BatchStatusCompleted
	batch.KernelOutputKg = input.KernelOutputKg
	batch.CNSLOutputKg = input.CNSLOutputKg
	batch.CompletedAt = &now
	batch.UpdatedAt = now

	if err := s.processingRepo.UpdateBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to complete batch: %w", err)
	}

	slog.Info("processing batch completed",
		slog.String("batch_id", batch.ID),
		slog.Float64("kernel_output_kg", batch.KernelOutputKg),
		slog.Float64("cnsl_output_kg", batch.CNSLOutputKg),
	)
	return batch, nil
}

func (s *Service) ownedBatch(ctx context.Context, batchID, ownerID string) (*model.ProcessingBatch, error) {
	batch, err := s.processingRepo.FindBatchByID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to find batch: %w", err)
	}
	if batch == nil {
		return nil, fmt.Errorf("batch not found: %s", batchID)
	}
	if batch.OwnerID != ownerID {
		return nil, model.NewNotOwnerError()
	}
	return batch, nil
}
