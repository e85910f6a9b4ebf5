package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func calculatorResult(t *testing.T, h *CalculatorHandler, handlerFn http.HandlerFunc, target string) string {
	t.Helper()

	req := authedRequest(http.MethodGet, target, "")
	rec := httptest.NewRecorder()
	handlerFn(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp calculatorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp.Result
}

// TestKernelPrice は原料価格からのカーネル単価算出を検証する。
func TestKernelPrice(t *testing.T) {
	h := NewCalculatorHandler()

	got := calculatorResult(t, h, h.KernelPrice,
		"/api/calculator/kernel-price?raw_price=2.15&processing_cost=1.50&yield_rate=22")
	if got != "11.27" {
		t.Errorf("result = %s, want 11.27", got)
	}
}

// TestKernelPrice_ZeroYield は歩留まり0が"0.00"を返すことを検証する。
func TestKernelPrice_ZeroYield(t *testing.T) {
	h := NewCalculatorHandler()

	got := calculatorResult(t, h, h.KernelPrice,
		"/api/calculator/kernel-price?raw_price=2.15&processing_cost=1.50&yield_rate=0")
	if got != "0.00" {
		t.Errorf("result = %s, want 0.00", got)
	}
}

// TestKernelPrice_MalformedInput は不正な入力が0として扱われることを検証する。
func TestKernelPrice_MalformedInput(t *testing.T) {
	h := NewCalculatorHandler()

	got := calculatorResult(t, h, h.KernelPrice,
		"/api/calculator/kernel-price?raw_price=abc&processing_cost=&yield_rate=xyz")
	if got != "0.00" {
		t.Errorf("result = %s, want 0.00", got)
	}
}

// TestGradeEquivalent はグレード間の価格換算を検証する。
func TestGradeEquivalent(t *testing.T) {
	h := NewCalculatorHandler()

	got := calculatorResult(t, h, h.GradeEquivalent,
		"/api/calculator/grade-equivalent?source_grade=W240&target_grade=W320&price=9.80")
	if got != "9.02" {
		t.Errorf("result = %s, want 9.02", got)
	}
}

// TestGradeEquivalent_UnknownPair は換算表にないペアが同額で返ることを検証する。
func TestGradeEquivalent_UnknownPair(t *testing.T) {
	h := NewCalculatorHandler()

	got := calculatorResult(t, h, h.GradeEquivalent,
		"/api/calculator/grade-equivalent?source_grade=W320&target_grade=LP&price=5.00")
	if got != "5.00" {
		t.Errorf("result = %s, want 5.00", got)
	}
}

// TestCNSLValue はCNSL価値の算出を検証する。
func TestCNSLValue(t *testing.T) {
	h := NewCalculatorHandler()

	got := calculatorResult(t, h, h.CNSLValue,
		"/api/calculator/cnsl-value?raw_quantity=100&cnsl_yield=22&market_price=0.85")
	if got != "18.70" {
		t.Errorf("result = %s, want 18.70", got)
	}
}
