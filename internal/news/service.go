package news

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/cashewtrade/internal/model"
	"github.com/hitoshi/cashewtrade/internal/repository"
)

// defaultRecentLimit はニュース一覧のデフォルト件数。
const defaultRecentLimit = 50

// maxRecentLimit はニュース一覧の最大件数。
const maxRecentLimit = 200

// FeedURLDetector はフィードURL自動検出のインターフェース。
type FeedURLDetector interface {
	DetectFeedURL(ctx context.Context, inputURL string) (string, error)
}

// Service はニュースソース登録とニュース記事閲覧のドメインロジックを提供する。
// ソースは全ユーザー共有で、記事はバックグラウンドワーカーが取り込む。
type Service struct {
	sourceRepo repository.NewsSourceRepository
	itemRepo   repository.NewsItemRepository
	detector   FeedURLDetector
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	sourceRepo repository.NewsSourceRepository,
	itemRepo repository.NewsItemRepository,
	detector FeedURLDetector,
) *Service {
	return &Service{
		sourceRepo: sourceRepo,
		itemRepo:   itemRepo,
		detector:   detector,
	}
}

// RegisterSource はニュースソースを登録する。
// 1. フィードURL自動検出（サイトURLからRSS/Atomを解決）
// 2. フィードURLで重複チェック（既存の場合はそのソースを返す）
// 3. ソース作成（fetch_status=active、next_fetch_at=即時）
func (s *Service) RegisterSource(ctx context.Context, inputURL string) (*model.NewsSource, error) {
	feedURL, err := s.detector.DetectFeedURL(ctx, inputURL)
	if err != nil {
		return nil, err
	}

	// 同一フィードURLの登録は冪等に扱う
	existing, err := s.sourceRepo.FindByFeedURL(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to find news source: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now()
	source := &model.NewsSource{
		ID:          uuid.New().String(),
		FeedURL:     feedURL,
		SiteURL:     inputURL,
		FetchStatus: model.FetchStatusActive,
		NextFetchAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.sourceRepo.Create(ctx, source); err != nil {
		return nil, fmt.Errorf("failed to create news source: %w", err)
	}

	slog.Info("news source registered",
		slog.String("source_id", source.ID),
		slog.String("feed_url", feedURL),
	)
	return source, nil
}

// ListSources は登録済みの全ニュースソースを返す。
func (s *Service) ListSources(ctx context.Context) ([]*model.NewsSource, error) {
	sources, err := s.sourceRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list news sources: %w", err)
	}
	return sources, nil
}

// ListRecentItems は最新のニュース記事を公開日時降順で返す。
// limitが0以下の場合はデフォルト値、上限超過の場合は上限に丸める。
func (s *Service) ListRecentItems(ctx context.Context, limit int) ([]*model.NewsItem, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	items, err := s.itemRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list news items: %w", err)
	}
	return items, nil
}
