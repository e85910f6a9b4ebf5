package prices

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/cashewtrade/internal/model"
	"github.com/hitoshi/cashewtrade/internal/repository"
)

// QuoteFetcher は市場価格取得のインターフェース。
// テスト時にモックに差し替え可能。
type QuoteFetcher interface {
	GetQuotes(ctx context.Context) ([]Quote, error)
}

// PollConfig はポーリングジョブの設定パラメータ。
// 環境変数から設定可能。
type PollConfig struct {
	// PollInterval はポーリングジョブの実行間隔（デフォルト: 30分）。
	PollInterval time.Duration
	// PriceTTL は価格の再取得間隔（デフォルト: 1時間）。
	// 保持中の価格がこの期間内に取得済みであればAPI呼び出しをスキップする。
	PriceTTL time.Duration
}

// DefaultPollConfig はデフォルトのポーリングジョブ設定を返す。
func DefaultPollConfig() PollConfig {
	return PollConfig{
		PollInterval: 30 * time.Minute,
		PriceTTL:     1 * time.Hour,
	}
}

// PollJob は市場価格の定期取得ジョブ。
// 外部価格APIを定期的に呼び出し、グレードごとの最新価格をUPSERTする。
// API障害時は前回値を維持し、連続エラー回数に応じてバックオフする。
type PollJob struct {
	priceRepo         repository.MarketPriceRepository
	client            QuoteFetcher
	logger            *slog.Logger
	config            PollConfig
	consecutiveErrors int
	backoffUntil      time.Time
}

// NewPollJob はPollJobの新しいインスタンスを生成する。
func NewPollJob(
	priceRepo repository.MarketPriceRepository,
	client QuoteFetcher,
	logger *slog.Logger,
	config PollConfig,
) *PollJob {
	return &PollJob{
		priceRepo: priceRepo,
		client:    client,
		logger:    logger,
		config:    config,
	}
}

// Start はポーリングジョブをティッカーで定期実行する。
// コンテキストがキャンセルされるまで実行を継続する。
func (p *PollJob) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("市場価格ポーリングジョブを開始しました",
		slog.Duration("poll_interval", p.config.PollInterval),
		slog.Duration("price_ttl", p.config.PriceTTL),
	)

	// 起動直後に1回実行
	if err := p.RunOnce(ctx); err != nil {
		p.logger.Error("市場価格ポーリングサイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("市場価格ポーリングジョブを停止しました")
			return
		case <-ticker.C:
			if err := p.RunOnce(ctx); err != nil {
				p.logger.Error("市場価格ポーリングサイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は1回のポーリングサイクルを実行する。
// 保持中の価格がTTL内であればスキップし、そうでなければAPIを呼び出して
// グレードごとの価格をUPSERTする。
func (p *PollJob) RunOnce(ctx context.Context) error {
	start := time.Now()

	// バックオフ中の場合はスキップ
	if !p.backoffUntil.IsZero() && time.Now().Before(p.backoffUntil) {
		p.logger.Info("市場価格ポーリングジョブはバックオフ中のためスキップします",
			slog.Time("backoff_until", p.backoffUntil),
		)
		return nil
	}

	// TTLチェック: 最も古い価格がTTL内であれば全価格が新鮮
	oldest, err := p.priceRepo.OldestFetchedAt(ctx)
	if err != nil {
		return fmt.Errorf("価格の取得日時の確認に失敗しました: %w", err)
	}
	if !oldest.IsZero() && time.Since(oldest) < p.config.PriceTTL {
		p.logger.Info("保持中の市場価格はTTL内のためスキップします",
			slog.Time("oldest_fetched_at", oldest),
		)
		return nil
	}

	quotes, err := p.client.GetQuotes(ctx)
	if err != nil {
		// 取得失敗: 前回値を維持し、連続エラーに応じてバックオフする
		p.consecutiveErrors++
		backoff := p.calculateErrorBackoff(p.consecutiveErrors)
		if backoff > 0 {
			p.backoffUntil = time.Now().Add(backoff)
			p.logger.Warn("連続エラーによりバックオフを適用します",
				slog.Int("consecutive_errors", p.consecutiveErrors),
				slog.Duration("backoff_duration", backoff),
			)
		}
		return fmt.Errorf("市場価格の取得に失敗しました: %w", err)
	}

	now := time.Now()
	var upsertedCount int
	for _, q := range quotes {
		price := &model.MarketPrice{
			ID:        uuid.New().String(),
			Commodity: model.ListingCategory(q.Commodity),
			Grade:     q.Grade,
			PriceUSD:  q.PriceUSD,
			ChangePct: q.ChangePct,
			Market:    q.Market,
			FetchedAt: now,
			UpdatedAt: now,
		}
		if err := p.priceRepo.Upsert(ctx, price); err != nil {
			p.logger.Error("市場価格のUPSERTに失敗しました",
				slog.String("grade", q.Grade),
				slog.String("market", q.Market),
				slog.String("error", err.Error()),
			)
			continue // 1グレードの失敗で残りを止めない
		}
		upsertedCount++
	}

	// 成功したら連続エラーカウントをリセット
	p.consecutiveErrors = 0
	p.backoffUntil = time.Time{}

	duration := time.Since(start)
	p.logger.Info("市場価格ポーリングサイクルが完了しました",
		slog.Int("quote_count", len(quotes)),
		slog.Int("upserted_count", upsertedCount),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// calculateErrorBackoff は連続エラー回数に基づくバックオフ時間を計算する。
// 3回連続: 30分、5回連続: 1時間、10回連続: 6時間。
func (p *PollJob) calculateErrorBackoff(consecutiveErrors int) time.Duration {
	switch {
	case consecutiveErrors >= 10:
		return 6 * time.Hour
	case consecutiveErrors >= 5:
		return 1 * time.Hour
	case consecutiveErrors >= 3:
		return 30 * time.Minute
	default:
		return 0
	}
}
