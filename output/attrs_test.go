package output

import "testing"

func TestComputePercentFilled(t *testing.T) {
	if got := ComputePercentFilled(0, 0); got != 0 {
		t.Errorf("empty grid: got %v, want 0", got)
	}
	if got := ComputePercentFilled(50, 200); got != 25 {
		t.Errorf("got %v, want 25", got)
	}
	if got := ComputePercentFilled(200, 200); got != 100 {
		t.Errorf("got %v, want 100", got)
	}
}
