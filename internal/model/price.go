// Package model はドメインモデルを定義する。
package model

import "time"

// MarketPrice は商品グレードごとの市場価格を表す。
// 外部価格APIから定期取得され、グレードごとに最新値のみ保持する。
type MarketPrice struct {
	ID        string
	Commodity ListingCategory
	Grade     string
	PriceUSD  float64
	ChangePct float64
	Market    string // FOB Cotonou, CIF Rotterdam 等
	FetchedAt time.Time
	UpdatedAt time.Time
}
