package granule

import "testing"

func TestComputeEnvelopeAscendingScan(t *testing.T) {
	nrows := 2160 // quarter-degree
	slat := []float64{-10}
	elat := []float64{-5}

	spans := ComputeEnvelope(nrows, slat, elat)
	if len(spans) != 1 {
		t.Fatalf("len(spans) = %d, want 1", len(spans))
	}
	if spans[0].BeginRow >= spans[0].EndRow {
		t.Errorf("span = %+v, want BeginRow < EndRow for a non-degenerate scan", spans[0])
	}
}

func TestComputeEnvelopeDescendingScan(t *testing.T) {
	nrows := 2160
	// elat < slat: a descending scan; the span still comes out with
	// BeginRow < EndRow, without any swap taking place.
	slat := []float64{-5}
	elat := []float64{-10}

	spans := ComputeEnvelope(nrows, slat, elat)
	if spans[0].BeginRow >= spans[0].EndRow {
		t.Errorf("descending scan span = %+v, want BeginRow < EndRow", spans[0])
	}
}

func TestRowGroupRangeUnion(t *testing.T) {
	spans := []ScanRowSpan{
		{BeginRow: 10, EndRow: 20},
		{BeginRow: 5, EndRow: 15},
		{BeginRow: 30, EndRow: 5}, // degenerate, excluded
	}
	first, last, ok := RowGroupRange(spans)
	if !ok {
		t.Fatal("RowGroupRange: ok = false, want true")
	}
	if first != 5 || last != 20 {
		t.Errorf("RowGroupRange = (%d, %d), want (5, 20)", first, last)
	}
}

func TestRowGroupRangeAllDegenerate(t *testing.T) {
	spans := []ScanRowSpan{{BeginRow: 5, EndRow: 1}}
	if _, _, ok := RowGroupRange(spans); ok {
		t.Error("RowGroupRange: ok = true for all-degenerate spans, want false")
	}
}
