package pipeline

import "testing"

func TestApplyQualityFloorRetainsOnlyBestQuality(t *testing.T) {
	acc := NewRowAccumulator(4)
	acc.Add(7, Observation{Quality: 0})
	acc.Add(7, Observation{Quality: 1})
	acc.Add(7, Observation{Quality: 2})
	acc.Add(7, Observation{Quality: 3})

	ApplyQualityFloor(acc, 2)

	b := acc.Bin(7)
	if b.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (only the minimum-quality observation)", b.Len())
	}
	if b.obs[0].Quality != 0 {
		t.Errorf("surviving obs quality = %d, want 0", b.obs[0].Quality)
	}
}

func TestApplyQualityFloorDropsBinWhenBestExceedsMax(t *testing.T) {
	acc := NewRowAccumulator(4)
	acc.Add(3, Observation{Quality: 3})
	acc.Add(3, Observation{Quality: 4})

	ApplyQualityFloor(acc, 2)

	if acc.Bin(3).Len() != 0 {
		t.Errorf("Len() = %d, want 0 (best quality %d exceeds qualMax)", acc.Bin(3).Len(), 3)
	}
}

func TestApplyQualityFloorIsIdempotent(t *testing.T) {
	acc := NewRowAccumulator(4)
	acc.Add(9, Observation{Quality: 0})
	acc.Add(9, Observation{Quality: 1})
	acc.Add(9, Observation{Quality: 2})

	ApplyQualityFloor(acc, 2)
	firstLen := acc.Bin(9).Len()

	ApplyQualityFloor(acc, 2) // re-running on an already-floored bin
	if acc.Bin(9).Len() != firstLen {
		t.Errorf("ApplyQualityFloor is not idempotent: Len() = %d after a second pass, want %d", acc.Bin(9).Len(), firstLen)
	}
}

func TestFilledBinsExcludesQualityFloorCasualties(t *testing.T) {
	acc := NewRowAccumulator(4)
	acc.Add(1, Observation{Quality: 0})
	acc.Add(2, Observation{Quality: 5})

	ApplyQualityFloor(acc, 2)

	got := FilledBins(acc)
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("FilledBins() = %v, want [1]", got)
	}
}
