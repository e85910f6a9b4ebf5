package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/cashewtrade/internal/model"
)

// PostgresAPITokenRepo はPostgreSQLを使用した開発者APIトークンリポジトリ。
type PostgresAPITokenRepo struct {
	db *sql.DB
}

// NewPostgresAPITokenRepo はPostgresAPITokenRepoを生成する。
func NewPostgresAPITokenRepo(db *sql.DB) *PostgresAPITokenRepo {
	return &PostgresAPITokenRepo{db: db}
}

// Create はトークンのメタデータを保存する。
func (r *PostgresAPITokenRepo) Create(ctx context.Context, token *model.APIToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_tokens (id, user_id, name, jti, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		token.ID, token.UserID, token.Name, token.JTI, token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert api token: %w", err)
	}
	return nil
}

// ListByUserID はユーザーのトークン一覧を返す。
func (r *PostgresAPITokenRepo) ListByUserID(ctx context.Context, userID string) ([]*model.APIToken, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, jti, expires_at, revoked_at, created_at
		 FROM api_tokens WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list api tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*model.APIToken
	for rows.Next() {
		t := &model.APIToken{}
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.JTI, &t.ExpiresAt, &t.RevokedAt, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan api token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// FindByJTI はJTIでトークンを検索する。失効済み・期限切れの場合はnilを返す。
func (r *PostgresAPITokenRepo) FindByJTI(ctx context.Context, jti string) (*model.APIToken, error) {
	t := &model.APIToken{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, jti, expires_at, revoked_at, created_at
		 FROM api_tokens
		 WHERE jti = $1 AND revoked_at IS NULL AND expires_at > now()`,
		jti,
	).Scan(&t.ID, &t.UserID, &t.Name, &t.JTI, &t.ExpiresAt, &t.RevokedAt, &t.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find api token by JTI: %w", err)
	}
	return t, nil
}

// Revoke は指定ユーザーのトークンを失効させる。対象がない場合はfalseを返す。
func (r *PostgresAPITokenRepo) Revoke(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE api_tokens SET revoked_at = now()
		 WHERE id = $1 AND user_id = $2 AND revoked_at IS NULL`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to revoke api token: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ APITokenRepository = (*PostgresAPITokenRepo)(nil)
