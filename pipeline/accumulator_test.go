package pipeline

import "testing"

func TestBinGrowsByAllocBlocks(t *testing.T) {
	b := NewBin(1)
	for i := 0; i < nAllocPerBin*2+1; i++ {
		b.Add(Observation{FileIndex: i, Values: []float32{float32(i)}})
	}
	if b.Len() != nAllocPerBin*2+1 {
		t.Errorf("Len() = %d, want %d", b.Len(), nAllocPerBin*2+1)
	}
}

func TestBinTracksFlagsTiltAndScenes(t *testing.T) {
	b := NewBin(4)
	b.Add(Observation{FileIndex: 1, Flags: 0x01, Tilt: 0})
	b.Add(Observation{FileIndex: 1, Flags: 0x02, Tilt: 0})
	b.Add(Observation{FileIndex: 2, Flags: 0x04, Tilt: 1})

	if b.Flags != 0x07 {
		t.Errorf("Flags = %#x, want %#x", b.Flags, 0x07)
	}
	if b.Tilt != 1 {
		t.Errorf("Tilt = %d, want 1 (last tilt seen)", b.Tilt)
	}
	if b.NScenes != 2 {
		t.Errorf("NScenes = %d, want 2 (distinct FileIndex count)", b.NScenes)
	}
}

func TestBinFlagsAndScenesSurviveRetainBestQuality(t *testing.T) {
	b := NewBin(4)
	b.Add(Observation{FileIndex: 1, Flags: 0x01, Tilt: 0, Quality: 0})
	b.Add(Observation{FileIndex: 2, Flags: 0x02, Tilt: 1, Quality: 3})
	b.RetainBestQuality(2)

	if b.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", b.Len())
	}
	if b.Flags != 0x03 {
		t.Errorf("Flags = %#x after compaction, want %#x (unaffected by compaction)", b.Flags, 0x03)
	}
	if b.NScenes != 2 {
		t.Errorf("NScenes = %d after compaction, want 2 (unaffected by compaction)", b.NScenes)
	}
}

func TestBinMeetsMinObs(t *testing.T) {
	b := NewBin(2)
	b.Add(Observation{})
	if b.MeetsMinObs(2) {
		t.Error("MeetsMinObs(2) = true with 1 observation, want false")
	}
	b.Add(Observation{})
	if !b.MeetsMinObs(2) {
		t.Error("MeetsMinObs(2) = false with 2 observations, want true")
	}
}

func TestRowAccumulatorSortedBins(t *testing.T) {
	acc := NewRowAccumulator(2)
	acc.Add(30, Observation{})
	acc.Add(10, Observation{})
	acc.Add(20, Observation{})

	got := acc.SortedBins()
	want := []int64{10, 20, 30}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("SortedBins()[%d] = %d, want %d", i, got[i], w)
		}
	}
}

func TestRowAccumulatorReset(t *testing.T) {
	acc := NewRowAccumulator(2)
	acc.Add(5, Observation{})
	acc.Reset()
	if len(acc.SortedBins()) != 0 {
		t.Error("Reset did not clear accumulated bins")
	}
}

func TestInitialCapacityClamped(t *testing.T) {
	if got := InitialCapacity(0, 0, 100); got != 2 {
		t.Errorf("InitialCapacity with no scans = %d, want 2 (floor)", got)
	}
	if got := InitialCapacity(1_000_000_000, 1000, 100); got != 20 {
		t.Errorf("InitialCapacity for a huge run = %d, want 20 (ceiling)", got)
	}
}
