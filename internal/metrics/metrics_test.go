package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	metricFamilies, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metricFamilies {
		if mf.GetName() == name {
			var total float64
			for _, m := range mf.GetMetric() {
				total += m.GetCounter().GetValue()
			}
			return total
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordNewsFetchSuccess_IncrementsCounter はフェッチ成功カウンタが増加することを検証する。
func TestRecordNewsFetchSuccess_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordNewsFetchSuccess("src-1")
	c.RecordNewsFetchSuccess("src-1")

	if v := counterValue(t, reg, "cashewtrade_news_fetch_success_total"); v != 2 {
		t.Errorf("news_fetch_success_total = %v, want 2", v)
	}
}

// TestRecordNewsFetchFailure_IncrementsCounter はフェッチ失敗カウンタが増加することを検証する。
func TestRecordNewsFetchFailure_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordNewsFetchFailure("src-1", "timeout")

	if v := counterValue(t, reg, "cashewtrade_news_fetch_fail_total"); v != 1 {
		t.Errorf("news_fetch_fail_total = %v, want 1", v)
	}
}

// TestRecordHTTPStatus_CountsByStatusCode はステータスコード別にカウントされることを検証する。
func TestRecordHTTPStatus_CountsByStatusCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	if v := counterValue(t, reg, "cashewtrade_http_status_total"); v != 3 {
		t.Errorf("http_status_total = %v, want 3", v)
	}
}

// TestRecordNewsItemsUpserted_AddsCount はアップサート件数が加算されることを検証する。
func TestRecordNewsItemsUpserted_AddsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordNewsItemsUpserted(5)
	c.RecordNewsItemsUpserted(3)

	if v := counterValue(t, reg, "cashewtrade_news_items_upserted_total"); v != 8 {
		t.Errorf("news_items_upserted_total = %v, want 8", v)
	}
}

// TestRecordOrderPlaced_IncrementsCounter は注文作成カウンタが増加することを検証する。
func TestRecordOrderPlaced_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordOrderPlaced()

	if v := counterValue(t, reg, "cashewtrade_orders_placed_total"); v != 1 {
		t.Errorf("orders_placed_total = %v, want 1", v)
	}
}

// TestRecordPricePoll_CountsByResult はポーリング結果別にカウントされることを検証する。
func TestRecordPricePoll_CountsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPricePoll(true)
	c.RecordPricePoll(true)
	c.RecordPricePoll(false)

	if v := counterValue(t, reg, "cashewtrade_price_polls_total"); v != 3 {
		t.Errorf("price_polls_total = %v, want 3", v)
	}
}

// TestRecordNewsFetchLatency_Observes はレイテンシが記録されることを検証する。
func TestRecordNewsFetchLatency_Observes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordNewsFetchLatency(250 * time.Millisecond)

	metricFamilies, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metricFamilies {
		if mf.GetName() == "cashewtrade_news_fetch_latency_seconds" {
			if mf.GetMetric()[0].GetHistogram().GetSampleCount() != 1 {
				t.Error("latency histogram should record one sample")
			}
			return
		}
	}
	t.Fatal("latency histogram not found")
}
