// Package cleanup は期限切れデータの自動削除ジョブを提供する。
// 期限切れセッション、確認期限を過ぎた未確認ユーザー、
// 保持期間（デフォルト180日）を超過したニュース記事を日次バッチで削除する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CleanupJob は期限切れデータの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	db     Executor
	logger *slog.Logger

	NewsRetentionDays   int // ニュース記事の保持日数（デフォルト: 180）
	UnconfirmedUserDays int // 未確認ユーザーの保持日数（デフォルト: 7）
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(db Executor, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		db:                  db,
		logger:              logger,
		NewsRetentionDays:   180,
		UnconfirmedUserDays: 7,
	}
}

// Run は期限切れデータを順に削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	sessions, err := j.deleteExpiredSessions(ctx)
	if err != nil {
		return err
	}

	users, err := j.deleteStaleUnconfirmedUsers(ctx)
	if err != nil {
		return err
	}

	newsItems, err := j.deleteOldNewsItems(ctx)
	if err != nil {
		return err
	}

	duration := time.Since(start)
	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("deleted_sessions", sessions),
		slog.Int64("deleted_unconfirmed_users", users),
		slog.Int64("deleted_news_items", newsItems),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// deleteExpiredSessions は有効期限を過ぎたセッションを削除する。
func (j *CleanupJob) deleteExpiredSessions(ctx context.Context) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at < now()`
	result, err := j.db.ExecContext(ctx, query)
	if err != nil {
		j.logger.Error("セッションクリーンアップの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}
	return result.RowsAffected()
}

// deleteStaleUnconfirmedUsers は確認期限を過ぎたメール未確認ユーザーを削除する。
// 関連レコードはCASCADE削除により自動的に処理される。
func (j *CleanupJob) deleteStaleUnconfirmedUsers(ctx context.Context) (int64, error) {
	interval := fmt.Sprintf("%d days", j.UnconfirmedUserDays)

	query := `DELETE FROM users WHERE email_confirmed = FALSE AND created_at < now() - $1::interval`
	result, err := j.db.ExecContext(ctx, query, interval)
	if err != nil {
		j.logger.Error("未確認ユーザークリーンアップの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("unconfirmed_user_days", j.UnconfirmedUserDays),
		)
		return 0, fmt.Errorf("未確認ユーザークリーンアップの実行に失敗: %w", err)
	}
	return result.RowsAffected()
}

// deleteOldNewsItems は保持期間を超過したニュース記事を削除する。
func (j *CleanupJob) deleteOldNewsItems(ctx context.Context) (int64, error) {
	interval := fmt.Sprintf("%d days", j.NewsRetentionDays)

	query := `DELETE FROM news_items WHERE created_at < now() - $1::interval`
	result, err := j.db.ExecContext(ctx, query, interval)
	if err != nil {
		j.logger.Error("ニュース記事クリーンアップの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.NewsRetentionDays),
		)
		return 0, fmt.Errorf("ニュース記事クリーンアップの実行に失敗: %w", err)
	}
	return result.RowsAffected()
}
