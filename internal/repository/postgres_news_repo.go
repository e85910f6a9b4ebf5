package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/cashewtrade/internal/model"
)

// PostgresNewsSourceRepo はPostgreSQLを使用したニュースソースリポジトリ。
type PostgresNewsSourceRepo struct {
	db *sql.DB
}

// NewPostgresNewsSourceRepo はPostgresNewsSourceRepoを生成する。
func NewPostgresNewsSourceRepo(db *sql.DB) *PostgresNewsSourceRepo {
	return &PostgresNewsSourceRepo{db: db}
}

const newsSourceColumns = `id, feed_url, site_url, title, etag, last_modified,
	fetch_status, consecutive_errors, error_message, next_fetch_at, created_at, updated_at`

// FindByFeedURL はフィードURLでソースを検索する。見つからない場合はnilを返す。
func (r *PostgresNewsSourceRepo) FindByFeedURL(ctx context.Context, feedURL string) (*model.NewsSource, error) {
	s := &model.NewsSource{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+newsSourceColumns+` FROM news_sources WHERE feed_url = $1`, feedURL,
	).Scan(&s.ID, &s.FeedURL, &s.SiteURL, &s.Title, &s.ETag, &s.LastModified,
		&s.FetchStatus, &s.ConsecutiveErrors, &s.ErrorMessage, &s.NextFetchAt,
		&s.CreatedAt, &s.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find news source by feed URL: %w", err)
	}
	return s, nil
}

// Create はニュースソースを作成する。
func (r *PostgresNewsSourceRepo) Create(ctx context.Context, s *model.NewsSource) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO news_sources (id, feed_url, site_url, title, etag, last_modified,
		 fetch_status, consecutive_errors, error_message, next_fetch_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		s.ID, s.FeedURL, s.SiteURL, s.Title, s.ETag, s.LastModified,
		s.FetchStatus, s.ConsecutiveErrors, s.ErrorMessage, s.NextFetchAt,
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert news source: %w", err)
	}
	return nil
}

// List は全ニュースソースを返す。
func (r *PostgresNewsSourceRepo) List(ctx context.Context) ([]*model.NewsSource, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+newsSourceColumns+` FROM news_sources ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list news sources: %w", err)
	}
	defer rows.Close()
	return collectNewsSources(rows)
}

// ListDueForFetch はフェッチ対象のソースを取得する。
// ワーカーの多重起動時に同一ソースを重複フェッチしないよう
// FOR UPDATE SKIP LOCKEDで排他的に取得する。
func (r *PostgresNewsSourceRepo) ListDueForFetch(ctx context.Context) ([]*model.NewsSource, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+newsSourceColumns+` FROM news_sources
		 WHERE next_fetch_at <= now() AND fetch_status = 'active'
		 FOR UPDATE SKIP LOCKED`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list news sources due for fetch: %w", err)
	}
	defer rows.Close()
	return collectNewsSources(rows)
}

func collectNewsSources(rows *sql.Rows) ([]*model.NewsSource, error) {
	var sources []*model.NewsSource
	for rows.Next() {
		s := &model.NewsSource{}
		if err := rows.Scan(&s.ID, &s.FeedURL, &s.SiteURL, &s.Title, &s.ETag, &s.LastModified,
			&s.FetchStatus, &s.ConsecutiveErrors, &s.ErrorMessage, &s.NextFetchAt,
			&s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan news source: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// UpdateFetchState はソースのフェッチ状態を更新する。
func (r *PostgresNewsSourceRepo) UpdateFetchState(ctx context.Context, s *model.NewsSource) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE news_sources SET title = $1, etag = $2, last_modified = $3,
		 fetch_status = $4, consecutive_errors = $5, error_message = $6,
		 next_fetch_at = $7, updated_at = now()
		 WHERE id = $8`,
		s.Title, s.ETag, s.LastModified, s.FetchStatus, s.ConsecutiveErrors,
		s.ErrorMessage, s.NextFetchAt, s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update news source fetch state: %w", err)
	}
	return nil
}

// compile-time interface check
var _ NewsSourceRepository = (*PostgresNewsSourceRepo)(nil)

// PostgresNewsItemRepo はPostgreSQLを使用したニュース記事リポジトリ。
type PostgresNewsItemRepo struct {
	db *sql.DB
}

// NewPostgresNewsItemRepo はPostgresNewsItemRepoを生成する。
func NewPostgresNewsItemRepo(db *sql.DB) *PostgresNewsItemRepo {
	return &PostgresNewsItemRepo{db: db}
}

const newsItemColumns = `id, source_id, guid_or_id, title, link, summary_html,
	author, published_at, fetched_at, created_at`

// FindBySourceAndGUID はsource_idとguid_or_idで記事を検索する。見つからない場合はnilを返す。
func (r *PostgresNewsItemRepo) FindBySourceAndGUID(ctx context.Context, sourceID, guid string) (*model.NewsItem, error) {
	item := &model.NewsItem{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+newsItemColumns+` FROM news_items
		 WHERE source_id = $1 AND guid_or_id = $2`,
		sourceID, guid,
	).Scan(&item.ID, &item.SourceID, &item.GuidOrID, &item.Title, &item.Link,
		&item.SummaryHTML, &item.Author, &item.PublishedAt, &item.FetchedAt, &item.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find news item: %w", err)
	}
	return item, nil
}

// Create は新規記事を作成する。
func (r *PostgresNewsItemRepo) Create(ctx context.Context, item *model.NewsItem) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO news_items (id, source_id, guid_or_id, title, link, summary_html,
		 author, published_at, fetched_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		item.ID, item.SourceID, item.GuidOrID, item.Title, item.Link, item.SummaryHTML,
		item.Author, item.PublishedAt, item.FetchedAt, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert news item: %w", err)
	}
	return nil
}

// Update は既存記事を上書き更新する。履歴は保持しない。
func (r *PostgresNewsItemRepo) Update(ctx context.Context, item *model.NewsItem) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE news_items SET title = $1, link = $2, summary_html = $3, author = $4,
		 published_at = $5, fetched_at = $6
		 WHERE id = $7`,
		item.Title, item.Link, item.SummaryHTML, item.Author,
		item.PublishedAt, item.FetchedAt, item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update news item: %w", err)
	}
	return nil
}

// ListRecent は公開日時降順で最新の記事一覧を返す。
// published_atがNULLの記事はfetched_atで代用して並べる。
func (r *PostgresNewsItemRepo) ListRecent(ctx context.Context, limit int) ([]*model.NewsItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+newsItemColumns+` FROM news_items
		 ORDER BY COALESCE(published_at, fetched_at) DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent news items: %w", err)
	}
	defer rows.Close()

	var items []*model.NewsItem
	for rows.Next() {
		item := &model.NewsItem{}
		if err := rows.Scan(&item.ID, &item.SourceID, &item.GuidOrID, &item.Title, &item.Link,
			&item.SummaryHTML, &item.Author, &item.PublishedAt, &item.FetchedAt, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan news item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// compile-time interface check
var _ NewsItemRepository = (*PostgresNewsItemRepo)(nil)
