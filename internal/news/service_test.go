package news

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/cashewtrade/internal/model"
	"github.com/hitoshi/cashewtrade/internal/repository"
)

type mockSourceRepo struct {
	findByFeedURLFn func(ctx context.Context, feedURL string) (*model.NewsSource, error)
	createFn        func(ctx context.Context, source *model.NewsSource) error
	listFn          func(ctx context.Context) ([]*model.NewsSource, error)
}

var _ repository.NewsSourceRepository = (*mockSourceRepo)(nil)

func (m *mockSourceRepo) FindByFeedURL(ctx context.Context, feedURL string) (*model.NewsSource, error) {
	if m.findByFeedURLFn != nil {
		return m.findByFeedURLFn(ctx, feedURL)
	}
	return nil, nil
}

func (m *mockSourceRepo) Create(ctx context.Context, source *model.NewsSource) error {
	if m.createFn != nil {
		return m.createFn(ctx, source)
	}
	return nil
}

func (m *mockSourceRepo) List(ctx context.Context) ([]*model.NewsSource, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockSourceRepo) ListDueForFetch(_ context.Context) ([]*model.NewsSource, error) {
	return nil, nil
}

func (m *mockSourceRepo) UpdateFetchState(_ context.Context, _ *model.NewsSource) error {
	return nil
}

type mockItemRepo struct {
	findBySourceAndGUIDFn func(ctx context.Context, sourceID, guid string) (*model.NewsItem, error)
	createFn              func(ctx context.Context, item *model.NewsItem) error
	updateFn              func(ctx context.Context, item *model.NewsItem) error
	listRecentFn          func(ctx context.Context, limit int) ([]*model.NewsItem, error)
}

var _ repository.NewsItemRepository = (*mockItemRepo)(nil)

func (m *mockItemRepo) FindBySourceAndGUID(ctx context.Context, sourceID, guid string) (*model.NewsItem, error) {
	if m.findBySourceAndGUIDFn != nil {
		return m.findBySourceAndGUIDFn(ctx, sourceID, guid)
	}
	return nil, nil
}

func (m *mockItemRepo) Create(ctx context.Context, item *model.NewsItem) error {
	if m.createFn != nil {
		return m.createFn(ctx, item)
	}
	return nil
}

func (m *mockItemRepo) Update(ctx context.Context, item *model.NewsItem) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, item)
	}
	return nil
}

func (m *mockItemRepo) ListRecent(ctx context.Context, limit int) ([]*model.NewsItem, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, limit)
	}
	return nil, nil
}

type mockDetector struct {
	detectFn func(ctx context.Context, inputURL string) (string, error)
}

func (m *mockDetector) DetectFeedURL(ctx context.Context, inputURL string) (string, error) {
	if m.detectFn != nil {
		return m.detectFn(ctx, inputURL)
	}
	return inputURL, nil
}

func TestRegisterSource_CreatesActiveSource(t *testing.T) {
	var created *model.NewsSource
	sourceRepo := &mockSourceRepo{
		createFn: func(_ context.Context, source *model.NewsSource) error {
			created = source
			return nil
		},
	}
	detector := &mockDetector{
		detectFn: func(_ context.Context, _ string) (string, error) {
			return "https://news.example.com/feed.xml", nil
		},
	}

	svc := NewService(sourceRepo, &mockItemRepo{}, detector)
	source, err := svc.RegisterSource(context.Background(), "https://news.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("source should be created")
	}
	if source.FeedURL != "https://news.example.com/feed.xml" {
		t.Errorf("feed URL = %s, want detected URL", source.FeedURL)
	}
	if source.FetchStatus != model.FetchStatusActive {
		t.Errorf("fetch status = %s, want active", source.FetchStatus)
	}
	if source.NextFetchAt.IsZero() {
		t.Error("next_fetch_at should be set for immediate fetch")
	}
}

// 同一フィードURLの再登録は既存ソースを返し、新規作成しない
func TestRegisterSource_DuplicateFeedURL_Idempotent(t *testing.T) {
	existing := &model.NewsSource{ID: "src-1", FeedURL: "https://news.example.com/feed.xml"}
	createCalled := false
	sourceRepo := &mockSourceRepo{
		findByFeedURLFn: func(_ context.Context, _ string) (*model.NewsSource, error) {
			return existing, nil
		},
		createFn: func(_ context.Context, _ *model.NewsSource) error {
			createCalled = true
			return nil
		},
	}

	svc := NewService(sourceRepo, &mockItemRepo{}, &mockDetector{})
	source, err := svc.RegisterSource(context.Background(), "https://news.example.com/feed.xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.ID != "src-1" {
		t.Errorf("source ID = %s, want existing src-1", source.ID)
	}
	if createCalled {
		t.Error("duplicate registration must not create a new source")
	}
}

// 検出エラーはそのまま呼び出し元に返す
func TestRegisterSource_DetectionError(t *testing.T) {
	detector := &mockDetector{
		detectFn: func(_ context.Context, inputURL string) (string, error) {
			return "", model.NewFeedNotDetectedError(inputURL)
		},
	}

	svc := NewService(&mockSourceRepo{}, &mockItemRepo{}, detector)
	_, err := svc.RegisterSource(context.Background(), "https://no-feed.example.com")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeFeedNotDetected {
		t.Fatalf("expected FEED_NOT_DETECTED, got %v", err)
	}
}

func TestListRecentItems_LimitNormalization(t *testing.T) {
	var gotLimit int
	itemRepo := &mockItemRepo{
		listRecentFn: func(_ context.Context, limit int) ([]*model.NewsItem, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	svc := NewService(&mockSourceRepo{}, itemRepo, &mockDetector{})

	if _, err := svc.ListRecentItems(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != defaultRecentLimit {
		t.Errorf("limit = %d, want default %d", gotLimit, defaultRecentLimit)
	}

	if _, err := svc.ListRecentItems(context.Background(), 10000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != maxRecentLimit {
		t.Errorf("limit = %d, want max %d", gotLimit, maxRecentLimit)
	}
}
