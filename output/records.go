// Package output implements the L3 bin container: the SEAGrid, BinList,
// per-product, qual_l3 and BinIndex TileDB arrays, their struct-tag
// driven schemas, and the global attributes the whole run accumulates.
package output

// BinListRecord is one bin's entry in the BinList sequence (§4.7): the
// bookkeeping fields the emitter writes per bin, independent of which
// products were requested.
type BinListRecord struct {
	Bin     int64   `tiledb:"dtype=int64,ftype=dim"`
	NObs    int32   `tiledb:"dtype=int32,ftype=attr" filters:"zstd(level=16)"`
	NScenes int32   `tiledb:"dtype=int32,ftype=attr" filters:"zstd(level=16)"`
	TimeRec int32   `tiledb:"dtype=int32,ftype=attr" filters:"zstd(level=16)"`
	Weight  float64 `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	Flags   uint32  `tiledb:"dtype=uint32,ftype=attr" filters:"zstd(level=16)"`
	// SelCat packs the bin's last-seen tilt state and retained quality
	// value as (tilt<<2)|qual (spec.md:137).
	SelCat int8 `tiledb:"dtype=int8,ftype=attr" filters:"zstd(level=16)"`
}

// ProductRecord is one requested product's per-bin aggregate, stored in
// its own TileDB array named after the product so `ofile` groups one
// array per l3bprod entry, matching the original's product-major
// SDS layout.
type ProductRecord struct {
	Bin   int64   `tiledb:"dtype=int64,ftype=dim"`
	Sum   float64 `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	SumSq float64 `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	Value float32 `tiledb:"dtype=float32,ftype=attr" filters:"zstd(level=16)"`
}

// QualL3Record is the optional qual_l3 sequence: the best-quality flag
// retained for each bin after the quality-floor pass (§4.6).
type QualL3Record struct {
	Bin     int64 `tiledb:"dtype=int64,ftype=dim"`
	Quality int8  `tiledb:"dtype=int8,ftype=attr" filters:"zstd(level=16)"`
}

// BinIndexRecord is one output row's entry in the BinIndex sequence
// (§4.7): the first global bin number and bin count for the row, plus
// how many of those bins were actually written (`ext`) and where the
// row's written bins begin within BinList (`beg`).
type BinIndexRecord struct {
	Row     int32 `tiledb:"dtype=int32,ftype=dim"`
	Beg     int64 `tiledb:"dtype=int64,ftype=attr" filters:"zstd(level=16)"`
	Ext     int64 `tiledb:"dtype=int64,ftype=attr" filters:"zstd(level=16)"`
	NumBin  int64 `tiledb:"dtype=int64,ftype=attr" filters:"zstd(level=16)"`
	BaseBin int64 `tiledb:"dtype=int64,ftype=attr" filters:"zstd(level=16)"`
}

// SEAGridRecord is one record of the SEAGrid metadata sequence (one per
// emitted row) describing the grid the bins were computed against.
type SEAGridRecord struct {
	Row       int32   `tiledb:"dtype=int32,ftype=dim"`
	NumRows   int32   `tiledb:"dtype=int32,ftype=attr" filters:"zstd(level=16)"`
	LatCenter float64 `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	SeamLon   float64 `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
}
