package pipeline

import (
	"testing"

	"github.com/oceancolor/l2bin/config"
	"github.com/oceancolor/l2bin/dataday"
	"github.com/oceancolor/l2bin/flagmask"
	"github.com/oceancolor/l2bin/granule"
	"github.com/oceancolor/l2bin/grid"
)

type fakeReader struct {
	scans []*granule.Scan
}

func (f *fakeReader) Open() (*granule.Descriptor, error) { return &granule.Descriptor{}, nil }
func (f *fakeReader) NumProducts() int                   { return 1 }
func (f *fakeReader) ProductNames() []string              { return []string{"chlor_a"} }
func (f *fakeReader) FlagNames() []string                 { return []string{"LAND"} }
func (f *fakeReader) ReadScan(scan int) (*granule.Scan, error) {
	return f.scans[scan], nil
}
func (f *fakeReader) Close() error { return nil }

func oneScanReader(lat, lon float64, value float32, flags uint32) *fakeReader {
	return &fakeReader{scans: []*granule.Scan{{
		Index: 0, Samples: 1,
		Latitude: []float64{lat}, Longitude: []float64{lon},
		L2Flags: []uint32{flags}, L2Data: []float32{value},
	}}}
}

func TestProcessRowGroupAccumulatesPixel(t *testing.T) {
	g := grid.New(180) // 1-degree rows
	r := oneScanReader(0.4, 0.4, 1.5, 0)
	spans := granule.ComputeEnvelope(180, []float64{0.4}, []float64{0.4})

	gc := GranuleContext{
		Index: 0, Descriptor: &granule.Descriptor{Filename: "g1"},
		Reader: r, Result: dataday.Result{BrkScan: dataday.BrkAll},
		Spans: spans,
	}

	products := []ProductRequest{{Name: "chlor_a", Column: 0, DenomColumn: denomNone}}
	mask := flagmask.Mask{}

	result, err := ProcessRowGroup(g, 0, g.NRows-1, []GranuleContext{gc}, mask, products, -1, -1, config.ModeMean, 1, false, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("ProcessRowGroup: %v", err)
	}
	if result == nil {
		t.Fatal("expected a non-nil result for a touched row group")
	}
	bins := BinsMeetingMinObs(result.Accumulator, 1)
	if len(bins) != 1 {
		t.Fatalf("expected 1 filled bin, got %d", len(bins))
	}
}

func TestProcessRowGroupDropsMaskedPixel(t *testing.T) {
	g := grid.New(180)
	r := oneScanReader(0.4, 0.4, 1.5, 1) // flag bit 0 set
	spans := granule.ComputeEnvelope(180, []float64{0.4}, []float64{0.4})

	mask, err := flagmask.Compile([]string{"LAND"}, "LAND")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	gc := GranuleContext{
		Descriptor: &granule.Descriptor{Filename: "g1"}, Reader: r,
		Result: dataday.Result{BrkScan: dataday.BrkAll}, Spans: spans,
	}
	products := []ProductRequest{{Name: "chlor_a", Column: 0, DenomColumn: denomNone}}

	result, err := ProcessRowGroup(g, 0, g.NRows-1, []GranuleContext{gc}, mask, products, -1, -1, config.ModeMean, 1, false, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("ProcessRowGroup: %v", err)
	}
	if result != nil {
		bins := BinsMeetingMinObs(result.Accumulator, 1)
		if len(bins) != 0 {
			t.Fatalf("expected the masked pixel to be dropped, got %d bins", len(bins))
		}
	}
}

func TestProcessRowGroupOutsideLatClipSkipsEntirely(t *testing.T) {
	g := grid.New(180)
	r := oneScanReader(0.4, 0.4, 1.5, 0)
	spans := granule.ComputeEnvelope(180, []float64{0.4}, []float64{0.4})
	gc := GranuleContext{
		Descriptor: &granule.Descriptor{Filename: "g1"}, Reader: r,
		Result: dataday.Result{BrkScan: dataday.BrkAll}, Spans: spans,
	}
	north := -50.0
	// rows 90..179 have centers from 0.5 to 89.5, all north of -50.
	result, err := ProcessRowGroup(g, 90, g.NRows-1, []GranuleContext{gc}, flagmask.Mask{}, nil, -1, -1, config.ModeMean, 1, false, nil, nil, nil, &north)
	if err != nil {
		t.Fatalf("ProcessRowGroup: %v", err)
	}
	if result != nil {
		t.Fatal("expected nil result when the row group falls entirely outside the lat clip")
	}
}

func TestDatelineSkipDayEastOnly(t *testing.T) {
	res := dataday.Result{BrkScan: dataday.BrkEastOnly, DiffBeg: -1}
	if !datelineSkip(res, false, -10) {
		t.Fatal("expected a negative-longitude pixel to be skipped under BrkEastOnly by day")
	}
	if datelineSkip(res, false, 10) {
		t.Fatal("did not expect a positive-longitude pixel to be skipped under BrkEastOnly")
	}
}

func TestExtractProductsSentinelPromotesQualityWithoutUndoingIt(t *testing.T) {
	// product 0 is -32767 (missing); qual_prod (column 1) reports a
	// good quality value of 0 for the same pixel.
	scan := &granule.Scan{
		Samples: 1,
		L2Data:  []float32{-32767, 0},
	}
	products := []ProductRequest{{Name: "chlor_a", Column: 0, DenomColumn: denomNone}}

	_, quality, _, ok := extractProducts(scan, 0, products, 1, -1)
	if !ok {
		t.Fatal("expected extractProducts to accept a -32767 sentinel value")
	}
	if quality != 4 {
		t.Errorf("quality = %d, want 4 (sentinel promotion must survive, not be overwritten by qual_prod=0)", quality)
	}
}

func TestExtractProductsReadsQualProdWhenNoSentinel(t *testing.T) {
	scan := &granule.Scan{
		Samples: 1,
		L2Data:  []float32{1.5, 2},
	}
	products := []ProductRequest{{Name: "chlor_a", Column: 0, DenomColumn: denomNone}}

	_, quality, _, ok := extractProducts(scan, 0, products, 1, -1)
	if !ok {
		t.Fatal("extractProducts: unexpected rejection")
	}
	if quality != 2 {
		t.Errorf("quality = %d, want 2 (from qual_prod column)", quality)
	}
}

func TestLonInRangeAcrossDateline(t *testing.T) {
	if !lonInRange(179, 170, -170) {
		t.Fatal("expected 179 to be in a window that wraps the dateline")
	}
	if lonInRange(0, 170, -170) {
		t.Fatal("did not expect 0 to be in a window that wraps the dateline")
	}
}
