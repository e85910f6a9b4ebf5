package fetch

import (
	"testing"
	"time"

	"github.com/hitoshi/cashewtrade/internal/model"
)

func TestClassifyHTTPStatus_StopCodes(t *testing.T) {
	for _, code := range []int{404, 410, 401, 403} {
		if ClassifyHTTPStatus(code) != FetchResultStop {
			t.Errorf("%d は FetchResultStop を返すべき", code)
		}
	}
}

func TestClassifyHTTPStatus_BackoffCodes(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503} {
		if ClassifyHTTPStatus(code) != FetchResultBackoff {
			t.Errorf("%d は FetchResultBackoff を返すべき", code)
		}
	}
}

func TestClassifyHTTPStatus_Success(t *testing.T) {
	if ClassifyHTTPStatus(200) != FetchResultOK {
		t.Error("200 は FetchResultOK を返すべき")
	}
	if ClassifyHTTPStatus(304) != FetchResultNotModified {
		t.Error("304 は FetchResultNotModified を返すべき")
	}
}

func TestCalculateBackoff_ExponentialGrowth(t *testing.T) {
	// 初回30分、2倍ずつ増加
	cases := []struct {
		errors int
		want   time.Duration
	}{
		{0, 30 * time.Minute},
		{1, 60 * time.Minute},
		{2, 120 * time.Minute},
	}
	for _, tc := range cases {
		if got := CalculateBackoff(tc.errors); got != tc.want {
			t.Errorf("CalculateBackoff(%d) = %v, want %v", tc.errors, got, tc.want)
		}
	}
}

func TestCalculateBackoff_MaxDelay(t *testing.T) {
	// 最大12時間を超えない
	delay := CalculateBackoff(100)
	if delay != 12*time.Hour {
		t.Errorf("高い連続エラー数では最大値12hを返すべき, got %v", delay)
	}
}

func TestApplyStopSource(t *testing.T) {
	source := &model.NewsSource{
		ID:          "src-1",
		FetchStatus: model.FetchStatusActive,
	}

	ApplyStopSource(source, "404 Not Found")

	if source.FetchStatus != model.FetchStatusError {
		t.Errorf("FetchStatus = %q, want %q", source.FetchStatus, model.FetchStatusError)
	}
	if source.ErrorMessage == "" {
		t.Error("ErrorMessage は設定されるべき")
	}
}

func TestApplyBackoff(t *testing.T) {
	now := time.Now()
	source := &model.NewsSource{
		ID:                "src-1",
		FetchStatus:       model.FetchStatusActive,
		ConsecutiveErrors: 3,
	}

	ApplyBackoff(source, "429 Too Many Requests")

	if source.ConsecutiveErrors != 4 {
		t.Errorf("ConsecutiveErrors = %d, want 4", source.ConsecutiveErrors)
	}
	if source.ErrorMessage == "" {
		t.Error("ErrorMessage は設定されるべき")
	}
	// NextFetchAtが現在時刻より後であること
	if !source.NextFetchAt.After(now) {
		t.Errorf("NextFetchAt は現在時刻より後であるべき: %v", source.NextFetchAt)
	}
}

func TestApplySuccess(t *testing.T) {
	source := &model.NewsSource{
		ID:                "src-1",
		FetchStatus:       model.FetchStatusActive,
		ConsecutiveErrors: 5,
		ErrorMessage:      "previous error",
	}

	interval := 60 // 60分
	ApplySuccess(source, interval)

	if source.ConsecutiveErrors != 0 {
		t.Errorf("ConsecutiveErrors = %d, want 0", source.ConsecutiveErrors)
	}
	if source.ErrorMessage != "" {
		t.Errorf("ErrorMessage = %q, want empty", source.ErrorMessage)
	}
	// NextFetchAtが約60分後であること
	expectedTime := time.Now().Add(time.Duration(interval) * time.Minute)
	diff := source.NextFetchAt.Sub(expectedTime)
	if diff > time.Second || diff < -time.Second {
		t.Errorf("NextFetchAt が期待値から大幅にずれている: %v (期待: %v)", source.NextFetchAt, expectedTime)
	}
}

func TestApplyParseFailure_UnderThreshold(t *testing.T) {
	source := &model.NewsSource{
		ID:          "src-1",
		FetchStatus: model.FetchStatusActive,
	}

	ApplyParseFailure(source, "invalid XML")

	if source.ConsecutiveErrors != 1 {
		t.Errorf("ConsecutiveErrors = %d, want 1", source.ConsecutiveErrors)
	}
	if source.FetchStatus != model.FetchStatusActive {
		t.Error("1回目のパース失敗ではまだアクティブであるべき")
	}
}

func TestApplyParseFailure_StopsAt10(t *testing.T) {
	source := &model.NewsSource{
		ID:                "src-1",
		FetchStatus:       model.FetchStatusActive,
		ConsecutiveErrors: 9,
	}

	ApplyParseFailure(source, "invalid XML")

	if source.ConsecutiveErrors != 10 {
		t.Errorf("ConsecutiveErrors = %d, want 10", source.ConsecutiveErrors)
	}
	if source.FetchStatus != model.FetchStatusError {
		t.Errorf("10回連続パース失敗で停止されるべき: FetchStatus = %q", source.FetchStatus)
	}
	if source.ErrorMessage == "" {
		t.Error("ErrorMessage は設定されるべき")
	}
}
