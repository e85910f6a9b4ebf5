package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/cashewtrade/internal/model"
)

type mockSourceRepo struct {
	listDueFn     func(ctx context.Context) ([]*model.NewsSource, error)
	updateStateFn func(ctx context.Context, source *model.NewsSource) error
}

func (m *mockSourceRepo) FindByFeedURL(_ context.Context, _ string) (*model.NewsSource, error) {
	return nil, nil
}

func (m *mockSourceRepo) Create(_ context.Context, _ *model.NewsSource) error { return nil }

func (m *mockSourceRepo) List(_ context.Context) ([]*model.NewsSource, error) { return nil, nil }

func (m *mockSourceRepo) ListDueForFetch(ctx context.Context) ([]*model.NewsSource, error) {
	if m.listDueFn != nil {
		return m.listDueFn(ctx)
	}
	return nil, nil
}

func (m *mockSourceRepo) UpdateFetchState(ctx context.Context, source *model.NewsSource) error {
	if m.updateStateFn != nil {
		return m.updateStateFn(ctx, source)
	}
	return nil
}

type mockUpserter struct {
	upsertFn func(ctx context.Context, sourceID string, items []model.ParsedNewsItem) (int, int, error)
}

func (m *mockUpserter) UpsertItems(ctx context.Context, sourceID string, items []model.ParsedNewsItem) (int, int, error) {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, sourceID, items)
	}
	return len(items), 0, nil
}

type mockSSRFGuard struct {
	blockAll bool
}

func (m *mockSSRFGuard) ValidateURL(_ string) error {
	if m.blockAll {
		return fmt.Errorf("blocked by SSRF guard")
	}
	return nil
}

func (m *mockSSRFGuard) NewSafeClient(timeout time.Duration, _ int64) *http.Client {
	return &http.Client{Timeout: timeout}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestFetcher(repo *mockSourceRepo, upserter *mockUpserter) *Fetcher {
	return NewFetcher(repo, upserter, &mockSSRFGuard{}, testLogger(), 5*time.Second, 5*1024*1024, 60)
}

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Cashew Market News</title>
    <link>https://news.example.com</link>
    <item>
      <title>RCN export volumes up</title>
      <link>https://news.example.com/rcn-exports</link>
      <guid>guid-1</guid>
      <description>Export volumes rose in Q3.</description>
    </item>
  </channel>
</rss>`

func TestFetch_SuccessUpsertsItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Header().Set("ETag", `"etag-abc"`)
		fmt.Fprint(w, testRSS)
	}))
	defer server.Close()

	var upsertedSourceID string
	var upsertedCount int
	upserter := &mockUpserter{
		upsertFn: func(_ context.Context, sourceID string, items []model.ParsedNewsItem) (int, int, error) {
			upsertedSourceID = sourceID
			upsertedCount = len(items)
			return len(items), 0, nil
		},
	}

	var savedState *model.NewsSource
	repo := &mockSourceRepo{
		updateStateFn: func(_ context.Context, source *model.NewsSource) error {
			savedState = source
			return nil
		},
	}

	f := newTestFetcher(repo, upserter)
	source := &model.NewsSource{ID: "src-1", FeedURL: server.URL, FetchStatus: model.FetchStatusActive}

	if err := f.Fetch(context.Background(), source); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if upsertedSourceID != "src-1" || upsertedCount != 1 {
		t.Errorf("upsert called with source=%s count=%d, want src-1/1", upsertedSourceID, upsertedCount)
	}
	if savedState == nil {
		t.Fatal("fetch state should be persisted")
	}
	if savedState.ETag != `"etag-abc"` {
		t.Errorf("ETag = %s, want saved from response", savedState.ETag)
	}
	if savedState.Title != "Cashew Market News" {
		t.Errorf("Title = %s, want feed title", savedState.Title)
	}
	if savedState.ConsecutiveErrors != 0 {
		t.Errorf("ConsecutiveErrors = %d, want 0", savedState.ConsecutiveErrors)
	}
}

func TestFetch_NotModified_SkipsUpsert(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") != `"etag-abc"` {
			t.Errorf("conditional GET header missing: %s", r.Header.Get("If-None-Match"))
		}
		w.WriteHeader(http.StatusNotModified)
	}))
	defer server.Close()

	upsertCalled := false
	upserter := &mockUpserter{
		upsertFn: func(_ context.Context, _ string, items []model.ParsedNewsItem) (int, int, error) {
			upsertCalled = true
			return 0, 0, nil
		},
	}

	f := newTestFetcher(&mockSourceRepo{}, upserter)
	source := &model.NewsSource{
		ID: "src-1", FeedURL: server.URL,
		FetchStatus: model.FetchStatusActive, ETag: `"etag-abc"`,
	}

	if err := f.Fetch(context.Background(), source); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if upsertCalled {
		t.Error("304 ではUPSERTを実行すべきでない")
	}
	if !source.NextFetchAt.After(time.Now()) {
		t.Error("304 でもnext_fetch_atは先送りされるべき")
	}
}

func TestFetch_404_StopsSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := newTestFetcher(&mockSourceRepo{}, &mockUpserter{})
	source := &model.NewsSource{ID: "src-1", FeedURL: server.URL, FetchStatus: model.FetchStatusActive}

	if err := f.Fetch(context.Background(), source); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if source.FetchStatus != model.FetchStatusError {
		t.Errorf("FetchStatus = %q, want error after 404", source.FetchStatus)
	}
}

func TestFetch_ServerError_AppliesBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := newTestFetcher(&mockSourceRepo{}, &mockUpserter{})
	source := &model.NewsSource{ID: "src-1", FeedURL: server.URL, FetchStatus: model.FetchStatusActive}

	if err := f.Fetch(context.Background(), source); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if source.ConsecutiveErrors != 1 {
		t.Errorf("ConsecutiveErrors = %d, want 1", source.ConsecutiveErrors)
	}
	if source.FetchStatus != model.FetchStatusActive {
		t.Error("5xx ではバックオフのみでアクティブ状態を維持すべき")
	}
}

func TestFetch_ParseFailure_CountsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, "this is not xml at all")
	}))
	defer server.Close()

	f := newTestFetcher(&mockSourceRepo{}, &mockUpserter{})
	source := &model.NewsSource{ID: "src-1", FeedURL: server.URL, FetchStatus: model.FetchStatusActive}

	if err := f.Fetch(context.Background(), source); err != nil {
		t.Fatalf("パース失敗はフェッチエラーとして返すべきでない: %v", err)
	}
	if source.ConsecutiveErrors != 1 {
		t.Errorf("ConsecutiveErrors = %d, want 1", source.ConsecutiveErrors)
	}
}

func TestFetch_SSRFBlocked(t *testing.T) {
	f := NewFetcher(&mockSourceRepo{}, &mockUpserter{}, &mockSSRFGuard{blockAll: true}, testLogger(), 5*time.Second, 1024, 60)
	source := &model.NewsSource{ID: "src-1", FeedURL: "http://169.254.169.254/feed", FetchStatus: model.FetchStatusActive}

	if err := f.Fetch(context.Background(), source); err == nil {
		t.Fatal("SSRF検証失敗はエラーを返すべき")
	}
	if source.FetchStatus != model.FetchStatusError {
		t.Errorf("FetchStatus = %q, want error after SSRF block", source.FetchStatus)
	}
}
