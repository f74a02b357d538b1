package grid

import "testing"

func TestNRows(t *testing.T) {
	cases := map[Resolution]int{
		ResQuarter: 2160 * 32,
		ResHalf:    2160 * 16,
		Res1Deg:    2160 * 8,
		Res2Deg:    2160 * 4,
		Res4Deg:    2160 * 2,
		Res9Deg:    2160,
		Res36Deg:   2160 / 4,
	}

	for res, want := range cases {
		got, err := NRows(res)
		if err != nil {
			t.Fatalf("NRows(%q): %v", res, err)
		}
		if got != want {
			t.Errorf("NRows(%q) = %d, want %d", res, got, want)
		}
	}

	if _, err := NRows("bogus"); err == nil {
		t.Error("NRows(\"bogus\") expected an error")
	}
}

func TestGridTableIdentity(t *testing.T) {
	g := New(2160)

	var sum int64
	for i := 0; i < g.NRows; i++ {
		sum += g.numbin[i]
	}

	if sum != g.TotalBins() {
		t.Errorf("sum(numbin) = %d, want TotalBins() = %d", sum, g.TotalBins())
	}

	for i := 1; i <= g.NRows; i++ {
		if g.basebin[i] <= g.basebin[i-1] {
			t.Fatalf("basebin not strictly increasing at row %d: %d <= %d", i, g.basebin[i], g.basebin[i-1])
		}
	}
}

func TestRowOfRoundTrip(t *testing.T) {
	g := New(2160)

	for bin := int64(1); bin <= g.TotalBins(); bin += 997 {
		row, ok := g.RowOf(bin)
		if !ok {
			t.Fatalf("RowOf(%d): not ok", bin)
		}
		if bin < g.basebin[row] || bin >= g.basebin[row+1] {
			t.Errorf("RowOf(%d) = %d, out of [%d,%d)", bin, row, g.basebin[row], g.basebin[row+1])
		}
	}

	if _, ok := g.RowOf(0); ok {
		t.Error("RowOf(0) should be out of range")
	}
	if _, ok := g.RowOf(g.TotalBins() + 1); ok {
		t.Error("RowOf(TotalBins()+1) should be out of range")
	}
}

func TestBinOfRange(t *testing.T) {
	g := New(2160)

	for _, lat := range []float64{-90, -45.5, -0.1, 0, 12.3, 45, 89.9} {
		for _, lon := range []float64{-180, -90.1, 0, 45.6, 179.9} {
			bin, ok := g.BinOf(lat, lon)
			if !ok {
				t.Fatalf("BinOf(%v,%v): not ok", lat, lon)
			}
			if bin < 1 || bin > g.TotalBins() {
				t.Errorf("BinOf(%v,%v) = %d out of [1,%d]", lat, lon, bin, g.TotalBins())
			}

			row, ok := g.RowOf(bin)
			if !ok {
				t.Fatalf("RowOf(%d): not ok", bin)
			}

			center := g.RowLatCenter(row)
			if diff := center - lat; diff > 180.0/float64(g.NRows) || diff < -180.0/float64(g.NRows) {
				t.Errorf("BinOf(%v,%v) row center %v too far from lat", lat, lon, center)
			}
		}
	}
}

func TestBinOfRejectsPoleAndOutOfRange(t *testing.T) {
	g := New(2160)

	if _, ok := g.BinOf(90, 0); ok {
		t.Error("BinOf(90, 0) should be rejected (row == nrows)")
	}
	if _, ok := g.BinOf(91, 0); ok {
		t.Error("BinOf(91, 0) should be rejected")
	}
	if _, ok := g.BinOf(-91, 0); ok {
		t.Error("BinOf(-91, 0) should be rejected")
	}
}

func TestNormalizeRowGroup(t *testing.T) {
	nrows := 2160
	if got := NormalizeRowGroup(nrows, 100); got != 90 {
		t.Errorf("NormalizeRowGroup(2160, 100) = %d, want 90 (largest divisor <= 100)", got)
	}
	if got := NormalizeRowGroup(nrows, 2160); got != 2160 {
		t.Errorf("NormalizeRowGroup(2160, 2160) = %d, want 2160", got)
	}
	if got := NormalizeRowGroup(nrows, 0); got != 2160 {
		t.Errorf("NormalizeRowGroup(2160, 0) = %d, want 2160 (default to full grid)", got)
	}
}
