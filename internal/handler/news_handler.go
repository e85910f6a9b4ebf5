package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/cashewtrade/internal/middleware"
	"github.com/hitoshi/cashewtrade/internal/model"
)

// NewsServiceInterface はニュースハンドラーが必要とするサービスインターフェース。
type NewsServiceInterface interface {
	RegisterSource(ctx context.Context, inputURL string) (*model.NewsSource, error)
	ListSources(ctx context.Context) ([]*model.NewsSource, error)
	ListRecentItems(ctx context.Context, limit int) ([]*model.NewsItem, error)
}

// UserFinder はユーザー検索のインターフェース。役割の確認に使用する。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// NewsHandler は市況ニュースのHTTPハンドラー。
type NewsHandler struct {
	service NewsServiceInterface
	users   UserFinder
}

// NewNewsHandler はNewsHandlerを生成する。
func NewNewsHandler(service NewsServiceInterface, users UserFinder) *NewsHandler {
	return &NewsHandler{
		service: service,
		users:   users,
	}
}

// registerSourceRequest はニュースソース登録リクエストのボディ。
type registerSourceRequest struct {
	URL string `json:"url"`
}

// newsSourceResponse はニュースソースのAPIレスポンス。
type newsSourceResponse struct {
	ID          string `json:"id"`
	FeedURL     string `json:"feed_url"`
	SiteURL     string `json:"site_url"`
	Title       string `json:"title"`
	FetchStatus string `json:"fetch_status"`
}

// newsItemResponse はニュース記事のAPIレスポンス。
type newsItemResponse struct {
	ID          string     `json:"id"`
	SourceID    string     `json:"source_id"`
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Summary     string     `json:"summary"`
	Author      string     `json:"author,omitempty"`
	PublishedAt *time.Time `json:"published_at"`
}

// ListItems は最新の市況ニュース記事を返す。ユーザー単位ではなく全体共有。
// GET /api/news?limit=
func (h *NewsHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeInvalidRequest(w, "limitは数値で指定してください。")
			return
		}
		limit = parsed
	}

	items, err := h.service.ListRecentItems(r.Context(), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]newsItemResponse, len(items))
	for i, item := range items {
		results[i] = newsItemResponse{
			ID:          item.ID,
			SourceID:    item.SourceID,
			Title:       item.Title,
			Link:        item.Link,
			Summary:     item.SummaryHTML,
			Author:      item.Author,
			PublishedAt: item.PublishedAt,
		}
	}
	writeJSON(w, http.StatusOK, results)
}

// ListSources はニュースソース一覧を返す。
// GET /api/news/sources
func (h *NewsHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.service.ListSources(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]newsSourceResponse, len(sources))
	for i, source := range sources {
		results[i] = toNewsSourceResponse(source)
	}
	writeJSON(w, http.StatusOK, results)
}

// RegisterSource はニュースソースを登録する。法人バイヤーのみ実行できる。
// POST /api/news/sources
func (h *NewsHandler) RegisterSource(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	user, err := h.users.FindByID(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if user == nil {
		handleServiceError(w, model.NewUserNotFoundError())
		return
	}
	if user.UserRole != model.RoleCorporate {
		handleServiceError(w, model.NewCorporateRoleRequiredError())
		return
	}

	var req registerSourceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.URL == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidURLError("URLが空です"))
		return
	}

	source, err := h.service.RegisterSource(r.Context(), req.URL)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toNewsSourceResponse(source))
}

func toNewsSourceResponse(source *model.NewsSource) newsSourceResponse {
	return newsSourceResponse{
		ID:          source.ID,
		FeedURL:     source.FeedURL,
		SiteURL:     source.SiteURL,
		Title:       source.Title,
		FetchStatus: string(source.FetchStatus),
	}
}
