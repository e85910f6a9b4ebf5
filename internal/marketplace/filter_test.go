package marketplace

import (
	"reflect"
	"testing"

	"github.com/hitoshi/cashewtrade/internal/model"
)

func fixtureListings() []*model.Listing {
	return []*model.Listing{
		{
			ID: "l1", Name: "Premium Raw Cashew", Category: model.CategoryRawCashew,
			Location: "Binh Phuoc", PricePerKg: 1.50, Rating: 4.2, ResponseMinutes: 120,
			ProductTags: []string{"organic", "rcn"},
		},
		{
			ID: "l2", Name: "W320 Kernels", Category: model.CategoryKernels,
			Location: "Mombasa", PricePerKg: 6.80, Rating: 4.8, ResponseMinutes: 45,
			ProductTags: []string{"w320"},
		},
		{
			ID: "l3", Name: "CASHEW shell liquid", Category: model.CategoryCNSL,
			Location: "Abidjan", PricePerKg: 0.40, Rating: 3.9, ResponseMinutes: 300,
			ProductTags: []string{"cnsl", "industrial"},
		},
		{
			ID: "l4", Name: "W240 Kernels", Category: model.CategoryKernels,
			Location: "Binh Phuoc", PricePerKg: 8.10, Rating: 4.8, ResponseMinutes: 60,
			ProductTags: []string{"w240", "organic"},
		},
	}
}

func ids(listings []*model.Listing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.ID
	}
	return out
}

// 空の条件は全件を入力順で返す
func TestFilterAndSort_EmptyCriteria_ReturnsAll(t *testing.T) {
	listings := fixtureListings()
	got := FilterAndSort(listings, FilterCriteria{})
	if !reflect.DeepEqual(ids(got), []string{"l1", "l2", "l3", "l4"}) {
		t.Errorf("unexpected result: %v", ids(got))
	}
}

// 検索は大文字小文字を区別しない
func TestFilterAndSort_SearchCaseInsensitive(t *testing.T) {
	listings := fixtureListings()

	upper := FilterAndSort(listings, FilterCriteria{Search: "CASHEW"})
	lower := FilterAndSort(listings, FilterCriteria{Search: "cashew"})

	if !reflect.DeepEqual(ids(upper), ids(lower)) {
		t.Errorf("case sensitivity detected: %v vs %v", ids(upper), ids(lower))
	}
	if !reflect.DeepEqual(ids(upper), []string{"l1", "l3"}) {
		t.Errorf("unexpected matches: %v", ids(upper))
	}
}

// 検索は名前・所在地・商品タグのいずれかに部分一致すればよい
func TestFilterAndSort_SearchMatchesAnyField(t *testing.T) {
	listings := fixtureListings()

	byLocation := FilterAndSort(listings, FilterCriteria{Search: "mombasa"})
	if !reflect.DeepEqual(ids(byLocation), []string{"l2"}) {
		t.Errorf("location search failed: %v", ids(byLocation))
	}

	byTag := FilterAndSort(listings, FilterCriteria{Search: "organic"})
	if !reflect.DeepEqual(ids(byTag), []string{"l1", "l4"}) {
		t.Errorf("tag search failed: %v", ids(byTag))
	}
}

// 複数条件はAND合成される。条件を増やすと結果は縮小するか変わらない
func TestFilterAndSort_ANDComposition(t *testing.T) {
	listings := fixtureListings()

	oneFilter := FilterAndSort(listings, FilterCriteria{Category: model.CategoryKernels})
	if len(oneFilter) != 2 {
		t.Fatalf("expected 2 kernels listings, got %d", len(oneFilter))
	}

	twoFilters := FilterAndSort(listings, FilterCriteria{
		Category: model.CategoryKernels,
		Location: "Binh Phuoc",
	})
	if !reflect.DeepEqual(ids(twoFilters), []string{"l4"}) {
		t.Errorf("AND composition failed: %v", ids(twoFilters))
	}
	if len(twoFilters) > len(oneFilter) {
		t.Error("adding a filter must never grow the result set")
	}

	threeFilters := FilterAndSort(listings, FilterCriteria{
		Category:  model.CategoryKernels,
		Location:  "Binh Phuoc",
		MinRating: 5.0,
	})
	if len(threeFilters) != 0 {
		t.Errorf("expected empty result, got %v", ids(threeFilters))
	}
}

// 最低評価はしきい値以上で通過する
func TestFilterAndSort_MinRating(t *testing.T) {
	listings := fixtureListings()

	got := FilterAndSort(listings, FilterCriteria{MinRating: 4.8})
	if !reflect.DeepEqual(ids(got), []string{"l2", "l4"}) {
		t.Errorf("threshold should be inclusive: %v", ids(got))
	}
}

// 並び替えは安定で、同値のレコードは入力順を保持する
func TestFilterAndSort_StableSort(t *testing.T) {
	listings := fixtureListings()

	// l2とl4はrating 4.8で同値。入力順（l2が先）が保持されること
	got := FilterAndSort(listings, FilterCriteria{SortBy: SortByRating})
	if !reflect.DeepEqual(ids(got), []string{"l2", "l4", "l1", "l3"}) {
		t.Errorf("rating sort not stable descending: %v", ids(got))
	}
}

func TestFilterAndSort_SortComparators(t *testing.T) {
	listings := fixtureListings()

	tests := []struct {
		key  SortKey
		want []string
	}{
		{SortByName, []string{"l3", "l1", "l4", "l2"}},
		{SortByPrice, []string{"l3", "l1", "l2", "l4"}},
		{SortByResponse, []string{"l2", "l4", "l1", "l3"}},
	}
	for _, tt := range tests {
		got := FilterAndSort(listings, FilterCriteria{SortBy: tt.key})
		if !reflect.DeepEqual(ids(got), tt.want) {
			t.Errorf("sort by %s = %v, want %v", tt.key, ids(got), tt.want)
		}
	}
}

// 入力スライスを変更しない純粋関数であること
func TestFilterAndSort_DoesNotMutateInput(t *testing.T) {
	listings := fixtureListings()
	before := ids(listings)

	FilterAndSort(listings, FilterCriteria{SortBy: SortByPrice, Search: "kernels"})

	if !reflect.DeepEqual(ids(listings), before) {
		t.Errorf("input was mutated: %v", ids(listings))
	}
}

// 同一の入力に対して常に同一の出力を返す決定性
func TestFilterAndSort_Deterministic(t *testing.T) {
	listings := fixtureListings()
	criteria := FilterCriteria{Category: model.CategoryKernels, SortBy: SortByRating}

	first := FilterAndSort(listings, criteria)
	second := FilterAndSort(listings, criteria)

	if !reflect.DeepEqual(ids(first), ids(second)) {
		t.Errorf("non-deterministic output: %v vs %v", ids(first), ids(second))
	}
}
