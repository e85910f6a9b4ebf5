package news

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/cashewtrade/internal/model"
	"github.com/hitoshi/cashewtrade/internal/repository"
	"github.com/hitoshi/cashewtrade/internal/security"
)

// ItemUpsertService はニュース記事の同一性判定とUPSERT処理を提供する。
// (source_id, guid_or_id)の組で同一性を判定し、重複登録を防ぎつつ
// 既存記事の上書き更新を行う。
type ItemUpsertService struct {
	itemRepo  repository.NewsItemRepository
	sanitizer security.ContentSanitizerService
}

// NewItemUpsertService はItemUpsertServiceの新しいインスタンスを生成する。
func NewItemUpsertService(
	itemRepo repository.NewsItemRepository,
	sanitizer security.ContentSanitizerService,
) *ItemUpsertService {
	return &ItemUpsertService{
		itemRepo:  itemRepo,
		sanitizer: sanitizer,
	}
}

// UpsertItems はフィードから取得した記事をUPSERTする。
// GUIDが空の記事はリンクをGUIDとして代用する。どちらも空の記事はスキップする。
// 戻り値は挿入数、更新数、エラー。
func (s *ItemUpsertService) UpsertItems(
	ctx context.Context,
	sourceID string,
	items []model.ParsedNewsItem,
) (inserted int, updated int, err error) {
	if len(items) == 0 {
		return 0, 0, nil
	}

	now := time.Now()

	for _, parsed := range items {
		guid := parsed.GuidOrID
		if guid == "" {
			guid = parsed.Link
		}
		if guid == "" {
			// 同一性を判定できない記事は取り込まない
			slog.Warn("news item skipped: no guid or link",
				slog.String("source_id", sourceID),
				slog.String("title", parsed.Title),
			)
			continue
		}

		// サマリーにサニタイズ処理を適用
		sanitizedSummary := s.sanitizer.Sanitize(parsed.Summary)

		existing, findErr := s.itemRepo.FindBySourceAndGUID(ctx, sourceID, guid)
		if findErr != nil {
			return inserted, updated, fmt.Errorf("failed to find news item: %w", findErr)
		}

		if existing != nil {
			// 既存記事を上書き更新。履歴は保持しない
			existing.Title = parsed.Title
			existing.Link = parsed.Link
			existing.SummaryHTML = sanitizedSummary
			existing.Author = parsed.Author
			if parsed.PublishedAt != nil {
				existing.PublishedAt = parsed.PublishedAt
			}
			existing.FetchedAt = now

			if updateErr := s.itemRepo.Update(ctx, existing); updateErr != nil {
				return inserted, updated, fmt.Errorf("failed to update news item: %w", updateErr)
			}
			updated++
			continue
		}

		item := &model.NewsItem{
			ID:          uuid.New().String(),
			SourceID:    sourceID,
			GuidOrID:    guid,
			Title:       parsed.Title,
			Link:        parsed.Link,
			SummaryHTML: sanitizedSummary,
			Author:      parsed.Author,
			PublishedAt: parsed.PublishedAt,
			FetchedAt:   now,
			CreatedAt:   now,
		}

		// 公開日時が取れない場合は取得日時を代用する
		if item.PublishedAt == nil {
			item.PublishedAt = &now
		}

		if createErr := s.itemRepo.Create(ctx, item); createErr != nil {
			return inserted, updated, fmt.Errorf("failed to create news item: %w", createErr)
		}
		inserted++
	}

	slog.Info("news items upserted",
		slog.String("source_id", sourceID),
		slog.Int("inserted", inserted),
		slog.Int("updated", updated),
	)

	return inserted, updated, nil
}
