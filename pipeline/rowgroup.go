package pipeline

import (
	"log"
	"math"

	"github.com/oceancolor/l2bin/config"
	"github.com/oceancolor/l2bin/dataday"
	"github.com/oceancolor/l2bin/flagmask"
	"github.com/oceancolor/l2bin/granule"
	"github.com/oceancolor/l2bin/grid"
)

// GranuleContext bundles everything the row-group loop needs about one
// kept (brk_scan != drop) granule: its reader, its classification
// result, and its per-scan row envelope, computed once before the
// row-group loop starts (§4.4 supplement).
type GranuleContext struct {
	Index      int // file_index
	Descriptor *granule.Descriptor
	Reader     granule.Reader
	Result     dataday.Result
	Spans      []granule.ScanRowSpan
}

// ProductRequest pairs a resolved product with its column index into
// granule.Scan.L2Data, the requested minimum value, and an optional
// ratio denominator column (-1 for a plain product, -2 for a FLAG_x
// pseudo-product reading a flag bit instead of a data column, §4.4 step
// 3's "extract each L3 product" rules).
type ProductRequest struct {
	Name        string
	Column      int
	MinValue    float64
	DenomColumn int
	FlagBit     int // valid only when DenomColumn == flagDenom
}

const (
	denomNone = -1
	flagDenom = -2
)

// RowGroupResult is one row-group pass's output: the accumulator plus
// the geographic extrema observed (§4.7). Engine.Run emits the
// accumulator's bins; it does not write the extrema to the output
// container.
type RowGroupResult struct {
	RowBegin, RowEnd int
	Accumulator      *RowAccumulator
	MinLat, MaxLat   float64
	MinLon, MaxLon   float64
}

// ProcessRowGroup runs the full per-pixel pass (§4.4 steps 1-7) over
// output rows [rowBegin, rowEnd] against every kept granule, returning
// the accumulated bins after any median/midaverage pre-filter and the
// minobs floor; quality-floor filtering (§4.6's emission-time pass) runs
// afterward, in the caller, matching the original's later execution point.
func ProcessRowGroup(
	g *grid.Grid,
	rowBegin, rowEnd int,
	granules []GranuleContext,
	mask flagmask.Mask,
	products []ProductRequest,
	qualityColumn int, // -1 if no quality product configured
	avgColumn int, // -1 if no median/midaverage product configured
	averagingMode config.AveragingMode,
	minObs int,
	night bool,
	lonWest, lonEast, latSouth, latNorth *float64,
) (*RowGroupResult, error) {
	if latSouth != nil && g.RowLatCenter(rowEnd) < *latSouth {
		return nil, nil
	}
	if latNorth != nil && g.RowLatCenter(rowBegin) > *latNorth {
		return nil, nil
	}

	capacity := InitialCapacity(totalScans(granules), 1, g.TotalBins())
	acc := NewRowAccumulator(capacity)

	result := &RowGroupResult{
		RowBegin: rowBegin, RowEnd: rowEnd, Accumulator: acc,
		MinLat: math.Inf(1), MaxLat: math.Inf(-1),
		MinLon: math.Inf(1), MaxLon: math.Inf(-1),
	}

	touched := false

	for _, gc := range granules {
		for scanIdx, span := range gc.Spans {
			if span.EndRow < rowBegin || span.BeginRow > rowEnd {
				continue
			}
			scan, err := gc.Reader.ReadScan(scanIdx)
			if err != nil {
				log.Printf("pipeline: skipping scan %d of %s: %v", scanIdx, gc.Descriptor.Filename, err)
				continue
			}
			touched = true
			processScan(g, scanIdx, rowBegin, rowEnd, gc, scan, mask, products, qualityColumn, avgColumn, night, lonWest, lonEast, acc, result)
		}
	}

	if !touched {
		return nil, nil
	}

	SelectForAveraging(acc, averagingMode)
	applyMinObs(acc, minObs)

	return result, nil
}

// totalScans sums each granule's scan-row count, already known from its
// descriptor, into the expected total sample count InitialCapacity uses
// to estimate a bin's starting allocation (§4.4 supplement).
func totalScans(granules []GranuleContext) int {
	total := 0
	for _, gc := range granules {
		total += gc.Descriptor.Scans * gc.Descriptor.SamplesPerScan
	}
	return total
}

func processScan(
	g *grid.Grid,
	scanIdx int,
	rowBegin, rowEnd int,
	gc GranuleContext,
	scan *granule.Scan,
	mask flagmask.Mask,
	products []ProductRequest,
	qualityColumn int,
	avgColumn int,
	night bool,
	lonWest, lonEast *float64,
	acc *RowAccumulator,
	result *RowGroupResult,
) {
	baseRow := g.BaseBin(rowBegin)
	limitRow := g.BaseBin(rowEnd) + g.NumBin(rowEnd)
	tilt := gc.Descriptor.TiltStateAt(scanIdx)

	for ipixl := 0; ipixl < scan.Samples; ipixl++ {
		lat := scan.Latitude[ipixl]
		lon := scan.Longitude[ipixl]

		if math.IsNaN(lat) || math.IsNaN(lon) {
			continue
		}

		flagcheck := scan.L2Flags[ipixl]
		if !mask.Passes(flagcheck) {
			continue
		}

		if datelineSkip(gc.Result, night, lon) {
			continue
		}

		if lonWest != nil && lonEast != nil && !lonInRange(lon, *lonWest, *lonEast) {
			continue
		}

		values, quality, avgValue, ok := extractProducts(scan, ipixl, products, qualityColumn, avgColumn)
		if !ok {
			continue
		}

		bin, ok := g.BinOf(lat, lon)
		if !ok {
			continue
		}
		if bin < baseRow || bin >= limitRow {
			continue
		}

		acc.Add(bin, Observation{
			FileIndex: gc.Index,
			Quality:   quality,
			Flags:     flagcheck,
			Tilt:      int32(tilt),
			AvgValue:  avgValue,
			Values:    values,
		})

		if lat < result.MinLat {
			result.MinLat = lat
		}
		if lat > result.MaxLat {
			result.MaxLat = lat
		}
		if lon < result.MinLon {
			result.MinLon = lon
		}
		if lon > result.MaxLon {
			result.MaxLon = lon
		}
	}
}

// datelineSkip implements the per-pixel dateline discipline (§4.4 step
// 3): a granule's brk_scan directive can still admit pixels on the
// excluded side near the day boundary, so the diffday sign/value is
// re-checked against the pixel's longitude sign directly.
func datelineSkip(res dataday.Result, night bool, lon float64) bool {
	if night {
		if res.BrkScan == dataday.BrkEastOnly && res.DiffBeg == -1 && lon < 0 {
			return true
		}
		if res.BrkScan == dataday.BrkWestOnly && res.DiffEnd == 0 && lon > 0 {
			return true
		}
		return false
	}
	if res.BrkScan == dataday.BrkEastOnly && res.DiffBeg <= 0 && lon < 0 {
		return true
	}
	if res.BrkScan == dataday.BrkWestOnly && res.DiffEnd >= 0 && lon > 0 {
		return true
	}
	return false
}

func lonInRange(lon, west, east float64) bool {
	if west <= east {
		return lon >= west && lon <= east
	}
	// the clip window crosses the dateline.
	return lon >= west || lon <= east
}

// extractProducts reads each requested product's value for one sample,
// applying the simple/FLAG_x/ratio rules of §4.4 step 3, dropping the
// pixel if any product value is NaN or a ratio's clamped denominator is
// zero; a −32767 sentinel value does not drop the pixel. avgColumn, if
// >= 0, also reads
// the designated median/midaverage product's raw value (§4.6). quality
// starts from qual_prod (when configured) and is only ever promoted to
// 4 by a −32767 sentinel, never overwritten afterward, matching
// l2bin.c's per-pixel commit block (~1957-1974): a product's sentinel
// value downgrades quality, it never gets silently un-downgraded by a
// later qual_prod read.
func extractProducts(scan *granule.Scan, ipixl int, products []ProductRequest, qualityColumn, avgColumn int) (values []float32, quality int8, avgValue float32, ok bool) {
	values = make([]float32, len(products))
	quality = 3
	if qualityColumn >= 0 {
		quality = int8(scan.At(qualityColumn, ipixl))
	}

	for i, p := range products {
		var v float32
		switch p.DenomColumn {
		case flagDenom:
			bit := (scan.L2Flags[ipixl] >> uint(p.FlagBit)) & 1
			v = float32(bit)
		case denomNone:
			v = scan.At(p.Column, ipixl)
			if float64(v) == -32767 && qualityColumn >= 0 {
				quality = 4
			}
			if float64(v) < p.MinValue {
				v = float32(p.MinValue)
			}
		default:
			num := scan.At(p.Column, ipixl)
			denom := scan.At(p.DenomColumn, ipixl)
			if float64(denom) < p.MinValue {
				denom = float32(p.MinValue)
			}
			if denom == 0 {
				return nil, 0, 0, false
			}
			v = num / denom
		}
		if math.IsNaN(float64(v)) {
			return nil, 0, 0, false
		}
		values[i] = v
	}

	if avgColumn >= 0 {
		avgValue = scan.At(avgColumn, ipixl)
	}

	return values, quality, avgValue, true
}

func applyMinObs(acc *RowAccumulator, minObs int) {
	for _, bin := range acc.bins {
		if bin.Len() > 0 && bin.Len() < minObs {
			bin.obs = bin.obs[:0]
		}
	}
}
