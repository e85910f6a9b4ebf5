package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/cashewtrade/internal/model"
)

// PostgresFarmRepo はPostgreSQLを使用した農場リポジトリ。
type PostgresFarmRepo struct {
	db *sql.DB
}

// NewPostgresFarmRepo はPostgresFarmRepoを生成する。
func NewPostgresFarmRepo(db *sql.DB) *PostgresFarmRepo {
	return &PostgresFarmRepo{db: db}
}

// FindByID は指定IDの農場を取得する。見つからない場合はnilを返す。
func (r *PostgresFarmRepo) FindByID(ctx context.Context, id string) (*model.Farm, error) {
	f := &model.Farm{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, location, area_hectares, tree_count, soil_type,
		 created_at, updated_at FROM farms WHERE id = $1`, id,
	).Scan(&f.ID, &f.OwnerID, &f.Name, &f.Location, &f.AreaHectares,
		&f.TreeCount, &f.SoilType, &f.CreatedAt, &f.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find farm by ID: %w", err)
	}
	return f, nil
}

// ListByOwnerID は所有者の農場一覧を返す。
func (r *PostgresFarmRepo) ListByOwnerID(ctx context.Context, ownerID string) ([]*model.Farm, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, name, location, area_hectares, tree_count, soil_type,
		 created_at, updated_at FROM farms WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list farms: %w", err)
	}
	defer rows.Close()

	var farms []*model.Farm
	for rows.Next() {
		f := &model.Farm{}
		if err := rows.Scan(&f.ID, &f.OwnerID, &f.Name, &f.Location, &f.AreaHectares,
			&f.TreeCount, &f.SoilType, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan farm: %w", err)
		}
		farms = append(farms, f)
	}
	return farms, rows.Err()
}

// Create は農場を作成する。
func (r *PostgresFarmRepo) Create(ctx context.Context, f *model.Farm) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO farms (id, owner_id, name, location, area_hectares, tree_count,
		 soil_type, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		f.ID, f.OwnerID, f.Name, f.Location, f.AreaHectares, f.TreeCount,
		f.SoilType, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert farm: %w", err)
	}
	return nil
}

const cropPlanColumns = `id, farm_id, owner_id, season, planting_date, harvest_date,
	expected_yield_kg, actual_yield_kg, notes, created_at, updated_at`

// ListCropPlansByFarmID は農場の作付計画一覧を返す。
func (r *PostgresFarmRepo) ListCropPlansByFarmID(ctx context.Context, farmID string) ([]*model.CropPlan, error) {
	return r.listCropPlans(ctx, "farm_id", farmID)
}

// ListCropPlansByOwnerID は所有者の全作付計画を返す。
func (r *PostgresFarmRepo) ListCropPlansByOwnerID(ctx context.Context, ownerID string) ([]*model.CropPlan, error) {
	return r.listCropPlans(ctx, "owner_id", ownerID)
}

func (r *PostgresFarmRepo) listCropPlans(ctx context.Context, column, value string) ([]*model.CropPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cropPlanColumns+` FROM crop_plans WHERE `+column+` = $1 ORDER BY created_at DESC`,
		value,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list crop plans: %w", err)
	}
	defer rows.Close()

	var plans []*model.CropPlan
	for rows.Next() {
		p := &model.CropPlan{}
		if err := rows.Scan(&p.ID, &p.FarmID, &p.OwnerID, &p.Season, &p.PlantingDate,
			&p.HarvestDate, &p.ExpectedYieldKg, &p.ActualYieldKg, &p.Notes,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan crop plan: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// CreateCropPlan は作付計画を作成する。
func (r *PostgresFarmRepo) CreateCropPlan(ctx context.Context, p *model.CropPlan) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO crop_plans (id, farm_id, owner_id, season, planting_date,
		 harvest_date, expected_yield_kg, actual_yield_kg, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.FarmID, p.OwnerID, p.Season, p.PlantingDate,
		p.HarvestDate, p.ExpectedYieldKg, p.ActualYieldKg, p.Notes,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert crop plan: %w", err)
	}
	return nil
}

// compile-time interface check
var _ FarmRepository = (*PostgresFarmRepo)(nil)
