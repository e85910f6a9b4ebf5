package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/cashewtrade/internal/model"
)

// MarketPriceLister は最新市場価格の取得インターフェース。
// repository.MarketPriceRepositoryの部分集合として定義する。
type MarketPriceLister interface {
	ListLatest(ctx context.Context) ([]*model.MarketPrice, error)
}

// PriceHandler は市場価格のHTTPハンドラー。
type PriceHandler struct {
	prices MarketPriceLister
}

// NewPriceHandler はPriceHandlerを生成する。
func NewPriceHandler(prices MarketPriceLister) *PriceHandler {
	return &PriceHandler{prices: prices}
}

// marketPriceResponse は市場価格のAPIレスポンス。
type marketPriceResponse struct {
	Commodity string    `json:"commodity"`
	Grade     string    `json:"grade"`
	PriceUSD  float64   `json:"price_usd"`
	ChangePct float64   `json:"change_pct"`
	Market    string    `json:"market"`
	FetchedAt time.Time `json:"fetched_at"`
}

// ListLatest は全グレードの最新市場価格を返す。
// GET /api/prices
func (h *PriceHandler) ListLatest(w http.ResponseWriter, r *http.Request) {
	prices, err := h.prices.ListLatest(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]marketPriceResponse, len(prices))
	for i, p := range prices {
		results[i] = marketPriceResponse{
			Commodity: string(p.Commodity),
			Grade:     p.Grade,
			PriceUSD:  p.PriceUSD,
			ChangePct: p.ChangePct,
			Market:    p.Market,
			FetchedAt: p.FetchedAt,
		}
	}
	writeJSON(w, http.StatusOK, results)
}
