// Package prices は外部価格APIとの連携機能を提供する。
// 市場価格の取得クライアントと定期ポーリングジョブを含む。
package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/cashewtrade/internal/model"
)

// maxResponseSize は価格APIレスポンスの最大サイズ（1MB）。
const maxResponseSize = 1 * 1024 * 1024

// Quote は外部価格APIが返す1グレード分の価格情報。
type Quote struct {
	Commodity string  `json:"commodity"`
	Grade     string  `json:"grade"`
	PriceUSD  float64 `json:"price_usd"`
	ChangePct float64 `json:"change_pct"`
	Market    string  `json:"market"`
}

// Client は外部価格APIのクライアント。
// 1リクエストで全グレードの最新価格を取得する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, endpoint string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		endpoint:   endpoint,
	}
}

// GetQuotes は全グレードの市場価格を一括取得する。
// 取得失敗時はエラーを返す（呼び出し元が前回値維持を判断する）。
func (c *Client) GetQuotes(ctx context.Context) ([]Quote, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("価格APIのエンドポイントが設定されていません")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", "CashewTrade/1.0 Price Poller")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("価格APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("価格APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("価格APIがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.logger.Error("レスポンスボディの読み取りに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var quotes []Quote
	if err := json.Unmarshal(body, &quotes); err != nil {
		c.logger.Error("価格APIのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	// 不正なエントリは除外する
	valid := make([]Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.Grade == "" || q.PriceUSD <= 0 {
			c.logger.Warn("不正な価格エントリをスキップします",
				slog.String("grade", q.Grade),
				slog.Float64("price_usd", q.PriceUSD),
			)
			continue
		}
		if !model.ValidListingCategory(model.ListingCategory(q.Commodity)) {
			c.logger.Warn("未知の商品カテゴリをスキップします",
				slog.String("commodity", q.Commodity),
			)
			continue
		}
		valid = append(valid, q)
	}

	return valid, nil
}
