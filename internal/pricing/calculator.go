// Package pricing はカシュー取引の価格計算ユーティリティを提供する。
//
// 各計算は純粋関数で、結果は小数第2位まで丸めた文字列で返す。
// 不正な入力やゼロ除算となる入力に対しては "0.00" を返し、決してエラーを
// 送出しない。UIの計算機ページとAPIの両方から使用される。
package pricing

import (
	"fmt"
	"strconv"
	"strings"
)

// gradeRatios はグレード間の価格換算比率。キーは "source-target" 形式。
// 表に存在しないペアの比率は1.0として扱う。
var gradeRatios = map[string]float64{
	"W180-W240": 0.94,
	"W180-W320": 0.87,
	"W240-W180": 1.06,
	"W240-W320": 0.92,
	"W240-W450": 0.85,
	"W320-W180": 1.15,
	"W320-W240": 1.09,
	"W320-W450": 0.93,
	"W450-W240": 1.18,
	"W450-W320": 1.08,
}

// KernelPrice は原料価格・加工コスト・歩留まりからカーネル単価を算出する。
// 式: rawPrice / (yieldRate/100) + processingCost
// yieldRateが0以下の場合は "0.00" を返す。
func KernelPrice(rawPrice, processingCost, yieldRate float64) string {
	if yieldRate <= 0 {
		return "0.00"
	}
	return format(rawPrice/(yieldRate/100) + processingCost)
}

// GradeEquivalent はソースグレードの価格をターゲットグレード相当に換算する。
// 換算表にないペアは比率1.0（同額）として扱う。
func GradeEquivalent(sourceGrade, targetGrade string, sourcePrice float64) string {
	ratio, ok := gradeRatios[sourceGrade+"-"+targetGrade]
	if !ok {
		ratio = 1.0
	}
	return format(sourcePrice * ratio)
}

// CNSLValue は原料数量・CNSL歩留まり・市場価格からCNSL価値を算出する。
// 式: rawQuantity * (cnslYield/100) * marketPrice
func CNSLValue(rawQuantity, cnslYield, marketPrice float64) string {
	return format(rawQuantity * (cnslYield / 100) * marketPrice)
}

// ParseAmount は数値入力文字列をfloat64に変換する。
// 空文字列や不正な入力は0として扱い、エラーを返さない。
func ParseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// format は金額を小数第2位までの文字列に整形する。
// 負のゼロは "0.00" に正規化する。
func format(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	if s == "-0.00" {
		return "0.00"
	}
	return s
}
