package l2bin

import (
	"github.com/oceancolor/l2bin/config"
	"github.com/oceancolor/l2bin/grid"
	"github.com/oceancolor/l2bin/output"
	"github.com/oceancolor/l2bin/pipeline"
)

// seamLon is the westmost edge of column 0 for every row, matching the
// original's fixed seam_lon = -180 (no rotated-grid support, §9).
const seamLon = -180.0

// emitRowGroup reduces a row group's accumulated bins into BinList,
// per-product, qual_l3, BinIndex and SEAGrid records and writes them to
// the container. baseOffset is the count of bins already written by prior
// row groups (the running position of this group's bins within the whole
// BinList sequence, §4.7's "beg[]" bookkeeping). It returns how many bins
// were actually filled (survived minobs and the quality-floor pass,
// §4.6/§4.7 — both already applied to result.Accumulator by the caller).
func emitRowGroup(container output.Container, g *grid.Grid, result *pipeline.RowGroupResult, products []pipeline.ProductRequest, cfg *config.Config, baseOffset int64) (int64, error) {
	bins := pipeline.FilledBins(result.Accumulator)
	if len(bins) == 0 {
		return 0, nil
	}

	binList := make([]output.BinListRecord, 0, len(bins))
	qualRows := make([]output.QualL3Record, 0, len(bins))
	productRows := make(map[string][]output.ProductRecord, len(products))
	for _, p := range products {
		productRows[p.Name] = make([]output.ProductRecord, 0, len(bins))
	}

	var binIndexRows []output.BinIndexRecord
	var seaGridRows []output.SEAGridRecord
	curRow := -1
	var rowBeg int64
	var rowExt int64

	flushRow := func() {
		if curRow < 0 {
			return
		}
		binIndexRows = append(binIndexRows, output.BinIndexRecord{
			Row: int32(curRow), Beg: rowBeg, Ext: rowExt,
			NumBin: g.NumBin(curRow), BaseBin: g.BaseBin(curRow),
		})
		seaGridRows = append(seaGridRows, output.SEAGridRecord{
			Row: int32(curRow), NumRows: int32(g.NRows),
			LatCenter: g.RowLatCenter(curRow), SeamLon: seamLon,
		})
	}

	for i, bin := range bins {
		b := result.Accumulator.Bin(bin)
		obs := b.Observations()

		quality := int8(3)
		if best, ok := pipeline.BestQuality(obs); ok {
			quality = best.Quality
		}

		binList = append(binList, output.BinListRecord{
			Bin:     bin,
			NObs:    int32(len(obs)),
			NScenes: int32(b.NScenes),
			Weight:  pipeline.BinWeight(obs),
			Flags:   b.Flags,
			SelCat:  int8((b.Tilt << 2) | int32(b.Qual)),
		})
		qualRows = append(qualRows, output.QualL3Record{Bin: bin, Quality: quality})

		for i, p := range products {
			agg := pipeline.Aggregate(obs, i)
			productRows[p.Name] = append(productRows[p.Name], output.ProductRecord{
				Bin: bin, Sum: agg.Sum, SumSq: agg.SumSq, Value: float32(agg.Value),
			})
		}

		row, ok := g.RowOf(bin)
		if !ok {
			continue
		}
		if row != curRow {
			flushRow()
			curRow = row
			rowBeg = baseOffset + int64(i)
			rowExt = 0
		}
		rowExt++
	}
	flushRow()

	if err := container.WriteBinList(binList); err != nil {
		return 0, err
	}
	if cfg.QualityProduct != "" {
		if err := container.WriteQualL3(qualRows); err != nil {
			return 0, err
		}
	}
	for _, p := range products {
		if err := container.WriteProduct(p.Name, productRows[p.Name]); err != nil {
			return 0, err
		}
	}
	if err := container.WriteBinIndex(binIndexRows); err != nil {
		return 0, err
	}
	if err := container.WriteSEAGrid(seaGridRows); err != nil {
		return 0, err
	}

	return int64(len(bins)), nil
}
