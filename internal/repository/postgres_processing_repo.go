package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/cashewtrade/internal/model"
)

// PostgresProcessingRepo はPostgreSQLを使用した加工リポジトリ。
type PostgresProcessingRepo struct {
	db *sql.DB
}

// NewPostgresProcessingRepo はPostgresProcessingRepoを生成する。
func NewPostgresProcessingRepo(db *sql.DB) *PostgresProcessingRepo {
	return &PostgresProcessingRepo{db: db}
}

// FindFacilityByID は指定IDの加工施設を取得する。見つからない場合はnilを返す。
func (r *PostgresProcessingRepo) FindFacilityByID(ctx context.Context, id string) (*model.ProcessingFacility, error) {
	f := &model.ProcessingFacility{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, location, daily_capacity_kg, certification_iso,
		 created_at, updated_at FROM processing_facilities WHERE id = $1`, id,
	).Scan(&f.ID, &f.OwnerID, &f.Name, &f.Location, &f.DailyCapacityKg,
		&f.CertificationISO, &f.CreatedAt, &f.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find processing facility by ID: %w", err)
	}
	return f, nil
}

// ListFacilitiesByOwnerID は所有者の加工施設一覧を返す。
func (r *PostgresProcessingRepo) ListFacilitiesByOwnerID(ctx context.Context, ownerID string) ([]*model.ProcessingFacility, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, name, location, daily_capacity_kg, certification_iso,
		 created_at, updated_at FROM processing_facilities
		 WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list processing facilities: %w", err)
	}
	defer rows.Close()

	var facilities []*model.ProcessingFacility
	for rows.Next() {
		f := &model.ProcessingFacility{}
		if err := rows.Scan(&f.ID, &f.OwnerID, &f.Name, &f.Location, &f.DailyCapacityKg,
			&f.CertificationISO, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan processing facility: %w", err)
		}
		facilities = append(facilities, f)
	}
	return facilities, rows.Err()
}

// CreateFacility は加工施設を作成する。
func (r *PostgresProcessingRepo) CreateFacility(ctx context.Context, f *model.ProcessingFacility) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO processing_facilities (id, owner_id, name, location,
		 daily_capacity_kg, certification_iso, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		f.ID, f.OwnerID, f.Name, f.Location, f.DailyCapacityKg,
		f.CertificationISO, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert processing facility: %w", err)
	}
	return nil
}

const batchColumns = `id, facility_id, owner_id, input_kg, kernel_output_kg,
	cnsl_output_kg, grade, status, started_at, completed_at, created_at, updated_at`

// FindBatchByID は指定IDの加工バッチを取得する。見つからない場合はnilを返す。
func (r *PostgresProcessingRepo) FindBatchByID(ctx context.Context, id string) (*model.ProcessingBatch, error) {
	b := &model.ProcessingBatch{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+batchColumns+` FROM processing_batches WHERE id = $1`, id,
	).Scan(&b.ID, &b.FacilityID, &b.OwnerID, &b.InputKg, &b.KernelOutputKg,
		&b.CNSLOutputKg, &b.Grade, &b.Status, &b.StartedAt, &b.CompletedAt,
		&b.CreatedAt, &b.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find processing batch by ID: %w", err)
	}
	return b, nil
}

// ListBatchesByOwnerID は所有者の加工バッチ一覧を作成日時降順で返す。
func (r *PostgresProcessingRepo) ListBatchesByOwnerID(ctx context.Context, ownerID string) ([]*model.ProcessingBatch, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+batchColumns+` FROM processing_batches
		 WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list processing batches: %w", err)
	}
	defer rows.Close()

	var batches []*model.ProcessingBatch
	for rows.Next() {
		b := &model.ProcessingBatch{}
		if err := rows.Scan(&b.ID, &b.FacilityID, &b.OwnerID, &b.InputKg, &b.KernelOutputKg,
			&b.CNSLOutputKg, &b.Grade, &b.Status, &b.StartedAt, &b.CompletedAt,
			&b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan processing batch: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// CreateBatch は加工バッチを作成する。
func (r *PostgresProcessingRepo) CreateBatch(ctx context.Context, b *model.ProcessingBatch) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO processing_batches (id, facility_id, owner_id, input_kg,
		 kernel_output_kg, cnsl_output_kg, grade, status, started_at, completed_at,
		 created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		b.ID, b.FacilityID, b.OwnerID, b.InputKg,
		b.KernelOutputKg, b.CNSLOutputKg, b.Grade, b.Status, b.StartedAt, b.CompletedAt,
		b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert processing batch: %w", err)
	}
	return nil
}

// UpdateBatch はバッチの状態・産出量を更新する。
func (r *PostgresProcessingRepo) UpdateBatch(ctx context.Context, b *model.ProcessingBatch) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE processing_batches SET status = $1, kernel_output_kg = $2,
		 cnsl_output_kg = $3, grade = $4, started_at = $5, completed_at = $6,
		 updated_at = now()
		 WHERE id = $7`,
		b.Status, b.KernelOutputKg, b.CNSLOutputKg, b.Grade,
		b.StartedAt, b.CompletedAt, b.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update processing batch: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("processing batch not found: %s", b.ID)
	}
	return nil
}

// compile-time interface check
var _ ProcessingRepository = (*PostgresProcessingRepo)(nil)
