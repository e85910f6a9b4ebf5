package fetch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hitoshi/cashewtrade/internal/model"
)

type mockFetcher struct {
	mu      sync.Mutex
	fetched []string
	fetchFn func(ctx context.Context, source *model.NewsSource) error
}

func (m *mockFetcher) Fetch(ctx context.Context, source *model.NewsSource) error {
	m.mu.Lock()
	m.fetched = append(m.fetched, source.ID)
	m.mu.Unlock()
	if m.fetchFn != nil {
		return m.fetchFn(ctx, source)
	}
	return nil
}

func TestRunOnce_FetchesAllDueSources(t *testing.T) {
	repo := &mockSourceRepo{
		listDueFn: func(_ context.Context) ([]*model.NewsSource, error) {
			return []*model.NewsSource{
				{ID: "src-1", FeedURL: "https://a.example.com/feed"},
				{ID: "src-2", FeedURL: "https://b.example.com/feed"},
				{ID: "src-3", FeedURL: "https://c.example.com/feed"},
			}, nil
		},
	}
	fetcher := &mockFetcher{}

	s := NewScheduler(repo, fetcher, testLogger(), 2)
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}

	if len(fetcher.fetched) != 3 {
		t.Errorf("fetched %d sources, want 3", len(fetcher.fetched))
	}
}

func TestRunOnce_NoDueSources(t *testing.T) {
	repo := &mockSourceRepo{}
	fetcher := &mockFetcher{}

	s := NewScheduler(repo, fetcher, testLogger(), 5)
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if len(fetcher.fetched) != 0 {
		t.Errorf("fetched %d sources, want 0", len(fetcher.fetched))
	}
}

func TestRunOnce_RepoError(t *testing.T) {
	repo := &mockSourceRepo{
		listDueFn: func(_ context.Context) ([]*model.NewsSource, error) {
			return nil, errors.New("db down")
		},
	}

	s := NewScheduler(repo, &mockFetcher{}, testLogger(), 5)
	if err := s.RunOnce(context.Background()); err == nil {
		t.Fatal("リポジトリエラーは呼び出し元に返すべき")
	}
}

// 個別ソースのフェッチ失敗がサイクル全体を失敗させないこと
func TestRunOnce_FetchErrorDoesNotAbortCycle(t *testing.T) {
	repo := &mockSourceRepo{
		listDueFn: func(_ context.Context) ([]*model.NewsSource, error) {
			return []*model.NewsSource{
				{ID: "src-1"},
				{ID: "src-2"},
			}, nil
		},
	}
	fetcher := &mockFetcher{
		fetchFn: func(_ context.Context, source *model.NewsSource) error {
			if source.ID == "src-1" {
				return errors.New("fetch failed")
			}
			return nil
		},
	}

	s := NewScheduler(repo, fetcher, testLogger(), 2)
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("個別フェッチ失敗はRunOnceの失敗とすべきでない: %v", err)
	}
	if len(fetcher.fetched) != 2 {
		t.Errorf("fetched %d sources, want 2", len(fetcher.fetched))
	}
}

// semaphoreにより同時実行数が上限を超えないこと
func TestRunOnce_ConcurrencyLimit(t *testing.T) {
	const maxConcurrency = 2

	repo := &mockSourceRepo{
		listDueFn: func(_ context.Context) ([]*model.NewsSource, error) {
			sources := make([]*model.NewsSource, 10)
			for i := range sources {
				sources[i] = &model.NewsSource{ID: "src"}
			}
			return sources, nil
		},
	}

	var current, peak int32
	fetcher := &mockFetcher{
		fetchFn: func(_ context.Context, _ *model.NewsSource) error {
			n := atomic.AddInt32(&current, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&current, -1)
			return nil
		},
	}

	s := NewScheduler(repo, fetcher, testLogger(), maxConcurrency)
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if atomic.LoadInt32(&peak) > maxConcurrency {
		t.Errorf("並列数のピーク = %d, 上限 %d を超えてはならない", peak, maxConcurrency)
	}
}
