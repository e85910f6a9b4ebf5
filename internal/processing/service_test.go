package processing

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/cashewtrade/internal/model"
)

type mockProcessingRepo struct {
	findFacilityFn   func(ctx context.Context, id string) (*model.ProcessingFacility, error)
	createFacilityFn func(ctx context.Context, f *model.ProcessingFacility) error
	findBatchFn      func(ctx context.Context, id string) (*model.ProcessingBatch, error)
	createBatchFn    func(ctx context.Context, b *model.ProcessingBatch) error
	updateBatchFn    func(ctx context.Context, b *model.ProcessingBatch) error
}

func (m *mockProcessingRepo) FindFacilityByID(ctx context.Context, id string) (*model.ProcessingFacility, error) {
	if m.findFacilityFn != nil {
		return m.findFacilityFn(ctx, id)
	}
	return nil, nil
}

func (m *mockProcessingRepo) ListFacilitiesByOwnerID(_ context.Context, _ string) ([]*model.ProcessingFacility, error) {
	return nil, nil
}

func (m *mockProcessingRepo) CreateFacility(ctx context.Context, f *model.ProcessingFacility) error {
	if m.createFacilityFn != nil {
		return m.createFacilityFn(ctx, f)
	}
	return nil
}

func (m *mockProcessingRepo) FindBatchByID(ctx context.Context, id string) (*model.ProcessingBatch, error) {
	if m.findBatchFn != nil {
		return m.findBatchFn(ctx, id)
	}
	return nil, nil
}

func (m *mockProcessingRepo) ListBatchesByOwnerID(_ context.Context, _ string) ([]*model.ProcessingBatch, error) {
	return nil, nil
}

func (m *mockProcessingRepo) CreateBatch(ctx context.Context, b *model.ProcessingBatch) error {
	if m.createBatchFn != nil {
		return m.createBatchFn(ctx, b)
	}
	return nil
}

func (m *mockProcessingRepo) UpdateBatch(ctx context.Context, b *model.ProcessingBatch) error {
	if m.updateBatchFn != nil {
		return m.updateBatchFn(ctx, b)
	}
	return nil
}

func ownedFacility() func(ctx context.Context, id string) (*model.ProcessingFacility, error) {
	return func(_ context.Context, id string) (*model.ProcessingFacility, error) {
		return &model.ProcessingFacility{ID: id, OwnerID: "owner-1"}, nil
	}
}

func batchInStatus(status model.BatchStatus) func(ctx context.Context, id string) (*model.ProcessingBatch, error) {
	return func(_ context.Context, id string) (*model.ProcessingBatch, error) {
		return &model.ProcessingBatch{
			ID: id, OwnerID: "owner-1", InputKg: 1000, Status: status,
		}, nil
	}
}

func TestCreateBatch_StartsQueued(t *testing.T) {
	var created *model.ProcessingBatch
	repo := &mockProcessingRepo{
		findFacilityFn: ownedFacility(),
		createBatchFn: func(_ context.Context, b *model.ProcessingBatch) error {
			created = b
			return nil
		},
	}

	svc := NewService(repo)
	_, err := svc.CreateBatch(context.Background(), "owner-1", CreateBatchInput{
		FacilityID: "fac-1", InputKg: 500, Grade: "W320",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Status != model.BatchStatusQueued {
		t.Errorf("initial status = %s, want queued", created.Status)
	}
}

func TestCreateBatch_NotOwner_Rejected(t *testing.T) {
	repo := &mockProcessingRepo{findFacilityFn: ownedFacility()}

	svc := NewService(repo)
	_, err := svc.CreateBatch(context.Background(), "intruder", CreateBatchInput{
		FacilityID: "fac-1", InputKg: 500,
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeNotOwner {
		t.Fatalf("expected NOT_OWNER, got %v", err)
	}
}

func TestAdvanceBatch_FollowsPipeline(t *testing.T) {
	repo := &mockProcessingRepo{findBatchFn: batchInStatus(model.BatchStatusQueued)}

	svc := NewService(repo)
	batch, err := svc.AdvanceBatch(context.Background(), "b1", "owner-1", model.BatchStatusRoasting)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.Status != model.BatchStatusRoasting {
		t.Errorf("status = %s, want roasting", batch.Status)
	}
	if batch.StartedAt == nil {
		t.Error("started_at should be set when leaving queued")
	}
}

func TestAdvanceBatch_SkippingStage_Rejected(t *testing.T) {
	tests := []struct {
		name string
		from model.BatchStatus
		to   model.BatchStatus
	}{
		{"queuedからshelling", model.BatchStatusQueued, model.BatchStatusShelling},
		{"roastingからgrading", model.BatchStatusRoasting, model.BatchStatusGrading},
		{"gradingからroasting", model.BatchStatusGrading, model.BatchStatusRoasting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockProcessingRepo{findBatchFn: batchInStatus(tt.from)}
			svc := NewService(repo)

			_, err := svc.AdvanceBatch(context.Background(), "b1", "owner-1", tt.to)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidStatusTransition {
				t.Fatalf("expected INVALID_STATUS_TRANSITION, got %v", err)
			}
		})
	}
}

func TestAdvanceBatch_ToCompleted_RequiresCompleteBatch(t *testing.T) {
	repo := &mockProcessingRepo{findBatchFn: batchInStatus(model.BatchStatusGrading)}
	svc := NewService(repo)

	if _, err := svc.AdvanceBatch(context.Background(), "b1", "owner-1", model.BatchStatusCompleted); err == nil {
		t.Fatal("advancing to completed without outputs should fail")
	}
}

func TestCompleteBatch_RecordsOutputs(t *testing.T) {
	repo := &mockProcessingRepo{findBatchFn: batchInStatus(model.BatchStatusGrading)}
	svc := NewService(repo)

	batch, err := svc.CompleteBatch(context.Background(), "b1", "owner-1", CompleteBatchInput{
		KernelOutputKg: 220, CNSLOutputKg: 180,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.Status != model.BatchStatusCompleted {
		t.Errorf("status = %s, want completed", batch.Status)
	}
	if batch.CompletedAt == nil {
		t.Error("completed_at should be set")
	}
	if batch.KernelOutputKg != 220 || batch.CNSLOutputKg != 180 {
		t.Errorf("outputs not recorded: %f, %f", batch.KernelOutputKg, batch.CNSLOutputKg)
	}
}

func TestCompleteBatch_OutputExceedsInput_Rejected(t *testing.T) {
	repo := &mockProcessingRepo{findBatchFn: batchInStatus(model.BatchStatusGrading)}
	svc := NewService(repo)

	if _, err := svc.CompleteBatch(context.Background(), "b1", "owner-1", CompleteBatchInput{
		KernelOutputKg: 900, CNSLOutputKg: 200,
	}); err == nil {
		t.Fatal("output exceeding input should fail")
	}
}

func TestCompleteBatch_NotInGrading_Rejected(t *testing.T) {
	repo := &mockProcessingRepo{findBatchFn: batchInStatus(model.BatchStatusRoasting)}
	svc := NewService(repo)

	_, err := svc.CompleteBatch(context.Background(), "b1", "owner-1", CompleteBatchInput{
		KernelOutputKg: 100,
	})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidStatusTransition {
		t.Fatalf("expected INVALID_STATUS_TRANSITION, got %v", err)
	}
}
