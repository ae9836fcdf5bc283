package money

import "testing"

func TestApplyBps(t *testing.T) {
	cases := []struct {
		amount, bps, want int64
	}{
		{7100, 1500, 1065},
		{1065, 1800, 192},
		{8500, 5000, 4250},
		{10, 1500, 2}, // 1.5 rounds up
		{3, 5000, 2},  // 1.5 rounds up
		{1, 4999, 0},
		{0, 1500, 0},
		{999, 0, 0},
	}
	for _, tc := range cases {
		if got := ApplyBps(tc.amount, tc.bps); got != tc.want {
			t.Fatalf("ApplyBps(%d, %d) = %d, want %d", tc.amount, tc.bps, got, tc.want)
		}
	}
}

func TestRoundHalfUp(t *testing.T) {
	if got := RoundHalfUp(2.5); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := RoundHalfUp(2.49); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}

func TestValidBps(t *testing.T) {
	if ValidBps(-1) || ValidBps(10001) {
		t.Fatalf("expected out of range bps to be invalid")
	}
	if !ValidBps(0) || !ValidBps(10000) {
		t.Fatalf("expected boundary bps to be valid")
	}
}
