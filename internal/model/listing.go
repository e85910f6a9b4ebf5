// Package model はドメインモデルを定義する。
package model

import "time"

// Listing はマーケットプレイスの出品を表す。
// DescriptionHTMLはサニタイズ済みのHTMLを保持する。
type Listing struct {
	ID              string
	SellerID        string
	Name            string
	Category        ListingCategory
	Grade           string
	Origin          string
	Location        string
	PricePerKg      float64
	QuantityKg      float64
	ProductTags     []string
	DescriptionHTML string
	Rating          float64
	ResponseMinutes int // 売り手の平均応答時間（分）。自由文字列ではなく構造化した数値で保持する
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ListingCategory は出品の商品区分を表す。
type ListingCategory string

const (
	// CategoryRawCashew は原料（生カシューナッツ）。
	CategoryRawCashew ListingCategory = "raw_cashew"
	// CategoryKernels はカーネル（加工済みナッツ）。
	CategoryKernels ListingCategory = "kernels"
	// CategoryCNSL はカシューナッツ殻液。
	CategoryCNSL ListingCategory = "cnsl"
	// CategoryByproducts は副産物（殻・皮等）。
	CategoryByproducts ListingCategory = "byproducts"
)

// ValidListingCategory は商品区分が定義済みのものであるかを返す。
func ValidListingCategory(c ListingCategory) bool {
	switch c {
	case CategoryRawCashew, CategoryKernels, CategoryCNSL, CategoryByproducts:
		return true
	}
	return false
}

// HasTag は出品が指定タグを持つかを返す。
func (l *Listing) HasTag(tag string) bool {
	for _, t := range l.ProductTags {
		if t == tag {
			return true
		}
	}
	return false
}
