package submitters

import "testing"

func TestRatePerMinute(t *testing.T) {
	if got := ratePerMinute(0); got != ratePerMinute(1) {
		t.Errorf("ratePerMinute(0) should fall back to 1/min, got %v want %v", got, ratePerMinute(1))
	}
	fast := ratePerMinute(60)
	slow := ratePerMinute(3)
	if fast <= slow {
		t.Errorf("ratePerMinute(60) = %v should exceed ratePerMinute(3) = %v", fast, slow)
	}
}
