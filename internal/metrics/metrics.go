// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ワーカーやサービス層から利用する。
type MetricsCollector interface {
	RecordNewsFetchSuccess(sourceID string)
	RecordNewsFetchFailure(sourceID string, reason string)
	RecordNewsParseFailure(sourceID string)
	RecordHTTPStatus(statusCode int)
	RecordNewsFetchLatency(duration time.Duration)
	RecordNewsItemsUpserted(count int)
	RecordOrderPlaced()
	RecordPricePoll(success bool)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	newsFetchSuccess prometheus.Counter
	newsFetchFail    prometheus.Counter
	newsParseFail    prometheus.Counter
	httpStatus       *prometheus.CounterVec
	newsFetchLatency prometheus.Histogram
	newsUpserted     prometheus.Counter
	ordersPlaced     prometheus.Counter
	pricePolls       *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		newsFetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cashewtrade_news_fetch_success_total",
			Help: "ニュースフェッチ成功の合計数",
		}),
		newsFetchFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cashewtrade_news_fetch_fail_total",
			Help: "ニュースフェッチ失敗の合計数",
		}),
		newsParseFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cashewtrade_news_parse_fail_total",
			Help: "ニュースフィードパース失敗の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cashewtrade_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		newsFetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cashewtrade_news_fetch_latency_seconds",
			Help:    "ニュースフェッチのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		newsUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cashewtrade_news_items_upserted_total",
			Help: "アップサートされたニュース記事の合計数",
		}),
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cashewtrade_orders_placed_total",
			Help: "作成された注文の合計数",
		}),
		pricePolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cashewtrade_price_polls_total",
			Help: "市場価格ポーリングの実行数（結果別）",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.newsFetchSuccess,
		c.newsFetchFail,
		c.newsParseFail,
		c.httpStatus,
		c.newsFetchLatency,
		c.newsUpserted,
		c.ordersPlaced,
		c.pricePolls,
	)

	return c
}

// RecordNewsFetchSuccess はニュースフェッチ成功を記録する。
func (c *Collector) RecordNewsFetchSuccess(sourceID string) {
	c.newsFetchSuccess.Inc()
}

// RecordNewsFetchFailure はニュースフェッチ失敗を記録する。
func (c *Collector) RecordNewsFetchFailure(sourceID string, reason string) {
	c.newsFetchFail.Inc()
}

// RecordNewsParseFailure はフィードパース失敗を記録する。
func (c *Collector) RecordNewsParseFailure(sourceID string) {
	c.newsParseFail.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordNewsFetchLatency はニュースフェッチのレイテンシを記録する。
func (c *Collector) RecordNewsFetchLatency(duration time.Duration) {
	c.newsFetchLatency.Observe(duration.Seconds())
}

// RecordNewsItemsUpserted はアップサートされたニュース記事数を記録する。
func (c *Collector) RecordNewsItemsUpserted(count int) {
	c.newsUpserted.Add(float64(count))
}

// RecordOrderPlaced は注文作成を記録する。
func (c *Collector) RecordOrderPlaced() {
	c.ordersPlaced.Inc()
}

// RecordPricePoll は市場価格ポーリングの実行を結果別に記録する。
func (c *Collector) RecordPricePoll(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	c.pricePolls.WithLabelValues(result).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
