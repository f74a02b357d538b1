package pipeline

import "github.com/samber/lo"

// ApplyQualityFloor retains, in every bin touched by a row-group pass,
// only the observations at that bin's minimum quality value, dropping
// the bin entirely when even its best observation exceeds qualMax
// (§4.6; see Bin.RetainBestQuality). Run once per row group, after
// minobs filtering, matching the original's emission-time quality
// adjustment (l2bin.c's BinList-fill loop, ~2137-2150).
func ApplyQualityFloor(acc *RowAccumulator, qualMax int8) {
	for _, bin := range acc.bins {
		bin.RetainBestQuality(qualMax)
	}
}

// FilledBins returns the bin numbers, in ascending order, that still
// hold at least one observation — the set the BinList/BinIndex emitter
// writes after minobs and quality-floor filtering have both run (§4.7).
func FilledBins(acc *RowAccumulator) []int64 {
	return lo.Filter(acc.SortedBins(), func(bin int64, _ int) bool {
		return acc.Bin(bin).Len() > 0
	})
}

// BinsMeetingMinObs returns the bin numbers, in ascending order, whose
// observation count reaches minObs. ProcessRowGroup does not call it;
// its own minobs floor is applyMinObs, which runs right after
// accumulation and any median/midaverage selection (§4.6).
func BinsMeetingMinObs(acc *RowAccumulator, minObs int) []int64 {
	return lo.Filter(acc.SortedBins(), func(bin int64, _ int) bool {
		return acc.Bin(bin).MeetsMinObs(minObs)
	})
}

// BestQuality returns the lowest (best) quality value observed in a
// bin, used by emitRowGroup for the qual_l3 value; lo.MinBy mirrors the
// teacher's qa.go use of lo for small reduction helpers instead of a
// hand-rolled loop.
func BestQuality(obs []Observation) (Observation, bool) {
	if len(obs) == 0 {
		return Observation{}, false
	}
	best := lo.MinBy(obs, func(a, b Observation) bool { return a.Quality < b.Quality })
	return best, true
}
