package pipeline

import (
	"math"
	"sort"

	"github.com/oceancolor/l2bin/config"
)

// Aggregated is one product's reduced value for a bin, plus the
// weighted-sum bookkeeping the output container's BinList record needs
// (§4.7): sum and sum-of-squares are carried regardless of averaging
// mode, computed over whatever observations remain after
// SelectForAveraging has run.
type Aggregated struct {
	Value   float64
	Sum     float64
	SumSq   float64
	NScenes int // distinct file indices contributing, for the sqrt(n) weight
}

// SelectForAveraging applies the bin-level, once-per-bin pre-filter that
// median/midaverage averaging requires (§4.6), driven by the designated
// product's AvgValue already populated on every Observation. Mean
// averaging needs no pre-filter and is a no-op here. This must run after
// accumulation and before the minobs floor check (§4.6/§4.7 ordering).
func SelectForAveraging(acc *RowAccumulator, mode config.AveragingMode) {
	switch mode {
	case config.ModeMedian:
		for _, bin := range acc.bins {
			selectMedian(bin)
		}
	case config.ModeMidaverage:
		for _, bin := range acc.bins {
			selectMidaverage(bin)
		}
	}
}

// selectMedian replaces a bin's observation set with the single
// observation whose designated-product value is closest to the set's
// median, matching l2bin.c's median() (~3079-3170): the median is
// computed over a sorted copy, but the "closest" search runs against the
// original (unsorted) order, and every product's value is carried from
// that one surviving observation.
func selectMedian(b *Bin) {
	obs := b.obs
	if len(obs) == 0 {
		return
	}
	sorted := make([]float64, len(obs))
	for i, o := range obs {
		sorted[i] = float64(o.AvgValue)
	}
	sort.Float64s(sorted)
	median := medianOfSorted(sorted)

	bestIdx := 0
	bestDiff := math.Abs(float64(obs[0].AvgValue) - median)
	for i := 1; i < len(obs); i++ {
		diff := math.Abs(float64(obs[i].AvgValue) - median)
		if diff < bestDiff {
			bestDiff = diff
			bestIdx = i
		}
	}
	b.obs = []Observation{obs[bestIdx]}
}

// selectMidaverage compacts a bin's full observation set down to those
// whose designated-product value falls within the set's interquartile
// range, matching l2bin.c's midaverage() (~2977-3075): nobs>=3 uses the
// 0.25/0.75 quantiles of the sorted sample; nobs==2 and nobs==1 use the
// original's symmetric +/-1 special cases.
func selectMidaverage(b *Bin) {
	obs := b.obs
	n := len(obs)
	if n == 0 {
		return
	}

	values := make([]float64, n)
	for i, o := range obs {
		values[i] = float64(o.AvgValue)
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var lowerQ, upperQ float64
	switch {
	case n >= 3:
		lowerQ = quantileSorted(sorted, 0.25)
		upperQ = quantileSorted(sorted, 0.75)
	case n == 2:
		lowerQ, upperQ = sorted[0]-1, sorted[1]+1
	default: // n == 1
		lowerQ, upperQ = sorted[0]-1, sorted[0]+1
	}

	kept := obs[:0]
	for i, o := range obs {
		if values[i] >= lowerQ && values[i] <= upperQ {
			kept = append(kept, o)
		}
	}
	b.obs = kept
}

// medianOfSorted mirrors gsl_stats_median_from_sorted_data: the middle
// element for odd n, the average of the two middle elements for even n.
func medianOfSorted(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// quantileSorted mirrors gsl_stats_quantile_from_sorted_data's linear
// interpolation between order statistics.
func quantileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := (float64(n) - 1) * q
	lo := int(math.Floor(h))
	frac := h - float64(lo)
	if lo+1 >= n {
		return sorted[n-1]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Aggregate reduces one bin's observations for a single product index to
// a weighted mean plus sum/sum-of-squares (§4.7). Any median/midaverage
// selection has already narrowed obs by the time this runs; Aggregate
// itself performs the same weighted-mean arithmetic regardless of
// averaging mode, exactly as l2bin.c's BinList-fill loop does after its
// own median()/midaverage() calls return.
func Aggregate(obs []Observation, prodIndex int) Aggregated {
	files := make(map[int]struct{}, len(obs))
	for _, o := range obs {
		files[o.FileIndex] = struct{}{}
	}

	sum, sumSq := weightedSumSq(obs, prodIndex)
	return Aggregated{
		Value:   weightedMean(obs, prodIndex),
		Sum:     sum,
		SumSq:   sumSq,
		NScenes: len(files),
	}
}

// weightedSumSq computes the file-count-weighted sum and sum-of-squares
// the original uses for the BinList record (each observation is weighted
// by 1/sqrt(number of observations its file contributes to the bin), so
// a file that happens to
// contribute many pixels to one bin doesn't dominate over a file that
// contributes few).
func weightedSumSq(obs []Observation, prodIndex int) (sum, sumSq float64) {
	perFile := perFileCounts(obs)
	for _, o := range obs {
		w := 1.0 / math.Sqrt(float64(perFile[o.FileIndex]))
		v := float64(o.Values[prodIndex])
		sum += w * v
		sumSq += w * v * v
	}
	return sum, sumSq
}

func weightedMean(obs []Observation, prodIndex int) float64 {
	if len(obs) == 0 {
		return math.NaN()
	}
	sum, _ := weightedSumSq(obs, prodIndex)
	totalWeight := BinWeight(obs)
	if totalWeight == 0 {
		return math.NaN()
	}
	return sum / totalWeight
}

// BinWeight computes the BinList record's weight field (spec.md:137,173):
// the sum, over distinct contributing granules f, of sqrt(count_f) where
// count_f is that granule's observation count in the bin. This is
// algebraically identical to summing 1/sqrt(count_f) once per
// observation (each of a file's count_f observations contributes
// 1/sqrt(count_f), so a file's count_f observations sum to sqrt(count_f)),
// so the same per-observation loop weightedMean already uses serves both
// purposes.
func BinWeight(obs []Observation) float64 {
	perFile := perFileCounts(obs)
	var w float64
	for _, o := range obs {
		w += 1.0 / math.Sqrt(float64(perFile[o.FileIndex]))
	}
	return w
}

func perFileCounts(obs []Observation) map[int]int {
	perFile := make(map[int]int, len(obs))
	for _, o := range obs {
		perFile[o.FileIndex]++
	}
	return perFile
}
