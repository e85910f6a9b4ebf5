package pricing

import "testing"

func TestKernelPrice(t *testing.T) {
	tests := []struct {
		name           string
		rawPrice       float64
		processingCost float64
		yieldRate      float64
		want           string
	}{
		// 2.15/0.22 + 1.50 = 9.77 + 1.50 = 11.27
		{"標準的なシナリオ", 2.15, 1.50, 22, "11.27"},
		// ゼロ除算ガード。例外やNaNではなく "0.00" を返す
		{"全入力ゼロ", 0, 0, 0, "0.00"},
		{"歩留まりゼロ", 2.15, 1.50, 0, "0.00"},
		{"歩留まり負数", 2.15, 1.50, -5, "0.00"},
		{"原料価格ゼロ", 0, 1.50, 22, "1.50"},
		{"加工コストゼロ", 2.20, 0, 22, "10.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KernelPrice(tt.rawPrice, tt.processingCost, tt.yieldRate)
			if got != tt.want {
				t.Errorf("KernelPrice(%v, %v, %v) = %q, want %q",
					tt.rawPrice, tt.processingCost, tt.yieldRate, got, tt.want)
			}
		})
	}
}

func TestGradeEquivalent(t *testing.T) {
	tests := []struct {
		name        string
		sourceGrade string
		targetGrade string
		sourcePrice float64
		want        string
	}{
		// 9.80 * 0.92 = 9.016 → 9.02
		{"W240からW320", "W240", "W320", 9.80, "9.02"},
		{"W320からW240", "W320", "W240", 9.00, "9.81"},
		// 換算表にないペアは比率1.0
		{"未知のペア", "W210", "W999", 5.00, "5.00"},
		{"同一グレード", "W320", "W320", 7.50, "7.50"},
		{"価格ゼロ", "W240", "W320", 0, "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GradeEquivalent(tt.sourceGrade, tt.targetGrade, tt.sourcePrice)
			if got != tt.want {
				t.Errorf("GradeEquivalent(%q, %q, %v) = %q, want %q",
					tt.sourceGrade, tt.targetGrade, tt.sourcePrice, got, tt.want)
			}
		})
	}
}

func TestCNSLValue(t *testing.T) {
	tests := []struct {
		name        string
		rawQuantity float64
		cnslYield   float64
		marketPrice float64
		want        string
	}{
		// 100 * 0.22 * 0.85 = 18.70
		{"標準的なシナリオ", 100, 22, 0.85, "18.70"},
		{"全入力ゼロ", 0, 0, 0, "0.00"},
		{"数量ゼロ", 0, 22, 0.85, "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CNSLValue(tt.rawQuantity, tt.cnslYield, tt.marketPrice)
			if got != tt.want {
				t.Errorf("CNSLValue(%v, %v, %v) = %q, want %q",
					tt.rawQuantity, tt.cnslYield, tt.marketPrice, got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"2.15", 2.15},
		{" 10.5 ", 10.5},
		{"", 0},
		{"abc", 0},
		{"1,000", 0},
	}

	for _, tt := range tests {
		if got := ParseAmount(tt.input); got != tt.want {
			t.Errorf("ParseAmount(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
