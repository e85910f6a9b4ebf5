package handler

import (
	"net/http"

	"github.com/hitoshi/cashewtrade/internal/pricing"
)

// CalculatorHandler は価格計算機のHTTPハンドラー。
// 計算は純粋関数で、不正な入力は0として扱いエラーにしない。
type CalculatorHandler struct{}

// NewCalculatorHandler はCalculatorHandlerを生成する。
func NewCalculatorHandler() *CalculatorHandler {
	return &CalculatorHandler{}
}

// calculatorResponse は計算結果のAPIレスポンス。
type calculatorResponse struct {
	Result string `json:"result"`
}

// KernelPrice は原料価格・加工コスト・歩留まりからカーネル単価を算出する。
// GET /api/calculator/kernel-price?raw_price=&processing_cost=&yield_rate=
func (h *CalculatorHandler) KernelPrice(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result := pricing.KernelPrice(
		pricing.ParseAmount(q.Get("raw_price")),
		pricing.ParseAmount(q.Get("processing_cost")),
		pricing.ParseAmount(q.Get("yield_rate")),
	)
	writeJSON(w, http.StatusOK, calculatorResponse{Result: result})
}

// GradeEquivalent はグレード間の等価価格を算出する。
// GET /api/calculator/grade-equivalent?source_grade=&target_grade=&price=
func (h *CalculatorHandler) GradeEquivalent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result := pricing.GradeEquivalent(
		q.Get("source_grade"),
		q.Get("target_grade"),
		pricing.ParseAmount(q.Get("price")),
	)
	writeJSON(w, http.StatusOK, calculatorResponse{Result: result})
}

// CNSLValue は原料数量・CNSL歩留まり・市場価格からCNSL価値を算出する。
// GET /api/calculator/cnsl-value?raw_quantity=&cnsl_yield=&market_price=
func (h *CalculatorHandler) CNSLValue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result := pricing.CNSLValue(
		pricing.ParseAmount(q.Get("raw_quantity")),
		pricing.ParseAmount(q.Get("cnsl_yield")),
		pricing.ParseAmount(q.Get("market_price")),
	)
	writeJSON(w, http.StatusOK, calculatorResponse{Result: result})
}
