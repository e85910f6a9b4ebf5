// Package marketplace はマーケットプレイスの出品検索・絞り込み・注文前の
// 出品管理ロジックを提供する。
package marketplace

import (
	"sort"
	"strings"

	"github.com/hitoshi/cashewtrade/internal/model"
)

// SortKey は一覧の並び替えキーを表す。
type SortKey string

const (
	// SortByRating は評価の降順で並べる。
	SortByRating SortKey = "rating"
	// SortByName は名前の昇順（辞書順）で並べる。
	SortByName SortKey = "name"
	// SortByPrice はキロ単価の昇順で並べる。
	SortByPrice SortKey = "price"
	// SortByResponse は応答時間（分）の昇順で並べる。
	SortByResponse SortKey = "response"
)

// FilterCriteria は一覧の絞り込み条件。リクエストごとに生成される一時的な値で、
// 永続化されない。ゼロ値はすべての出品にマッチする。
type FilterCriteria struct {
	Search    string                // 名前・所在地・商品タグに対する部分一致検索（大文字小文字を区別しない）
	Category  model.ListingCategory // 商品区分。空は全区分
	Location  string                // 所在地の完全一致。空は全所在地
	Tag       string                // 商品タグの完全一致。空は全タグ
	MinRating float64               // 最低評価。record.Rating >= MinRating で通過
	SortBy    SortKey               // 並び替えキー。空は入力順を保持
}

// FilterAndSort は出品一覧に絞り込みと並び替えを適用した新しいスライスを返す。
// 純粋関数であり入力スライスを変更しない。同一の入力に対して常に同一の出力を返す。
//
// 絞り込みは各条件のAND合成で、条件を増やすと結果は縮小するか変わらないかの
// いずれかになる。並び替えは安定ソートで、同値のレコードは入力順を保持する。
func FilterAndSort(listings []*model.Listing, criteria FilterCriteria) []*model.Listing {
	result := make([]*model.Listing, 0, len(listings))
	for _, l := range listings {
		if matches(l, criteria) {
			result = append(result, l)
		}
	}

	if cmp := comparatorFor(criteria.SortBy); cmp != nil {
		sort.SliceStable(result, func(i, j int) bool {
			return cmp(result[i], result[j])
		})
	}

	return result
}

// matches は出品がすべての有効な条件を満たすかを返す。
func matches(l *model.Listing, c FilterCriteria) bool {
	if c.Search != "" && !matchesSearch(l, c.Search) {
		return false
	}
	if c.Category != "" && l.Category != c.Category {
		return false
	}
	if c.Location != "" && l.Location != c.Location {
		return false
	}
	if c.Tag != "" && !l.HasTag(c.Tag) {
		return false
	}
	if c.MinRating > 0 && l.Rating < c.MinRating {
		return false
	}
	return true
}

// matchesSearch は名前・所在地・商品タグのいずれかにクエリが部分一致するかを返す。
// 大文字小文字を区別しない。
func matchesSearch(l *model.Listing, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(l.Name), q) {
		return true
	}
	if strings.Contains(strings.ToLower(l.Location), q) {
		return true
	}
	for _, tag := range l.ProductTags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// comparatorFor はキーごとの比較関数を返す。
// rating: 降順、name: 昇順、price: 昇順、response: 昇順。
// 未知のキーはnilを返し、並び替えは行われない。
func comparatorFor(key SortKey) func(a, b *model.Listing) bool {
	switch key {
	case SortByRating:
		return func(a, b *model.Listing) bool { return a.Rating > b.Rating }
	case SortByName:
		return func(a, b *model.Listing) bool { return a.Name < b.Name }
	case SortByPrice:
		return func(a, b *model.Listing) bool { return a.PricePerKg < b.PricePerKg }
	case SortByResponse:
		return func(a, b *model.Listing) bool { return a.ResponseMinutes < b.ResponseMinutes }
	}
	return nil
}
