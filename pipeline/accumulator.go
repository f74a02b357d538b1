package pipeline

import "sort"

// nAllocPerBin is the growth block size for a bin's observation arrays;
// growing by one whole block at a time keeps an unexpectedly dense bin
// from reallocating on every observation without over-allocating the
// common case.
const nAllocPerBin = 4

// Observation is one pixel's contribution to a bin: which granule it
// came from (for the √n file-weighting), its quality flag, its raw
// l2_flags value and tilt state (for the bin's persistent flags_set/tilt
// bookkeeping, §4.7), the designated averaging product's raw value (used
// only by median/midaverage selection, §4.6), and its per-product values.
type Observation struct {
	FileIndex int
	Quality   int8
	Flags     uint32
	Tilt      int32
	AvgValue  float32
	Values    []float32 // len == number of requested products
}

// Bin accumulates observations for one ISIN bin across however many
// row-group passes touch it. Storage grows in nAllocPerBin blocks so a
// bin that turns out denser than estimated doesn't need a full
// reallocation on every new observation.
//
// Flags, Tilt, NScenes and Qual are commit-time scalars, not derived
// from obs: they must survive median/midaverage's later compaction of
// obs down to a subset, exactly as the original's bin_flag/tilt/nscenes
// arrays are untouched by its median()/midaverage() passes (§4.7).
type Bin struct {
	obs []Observation

	Flags   uint32
	Tilt    int32 // last tilt state committed to this bin; -1 if none yet
	NScenes int
	Qual    int8 // allocated at 3 and never reassigned, matching the original

	lastFile int
}

// InitialCapacity estimates a starting per-bin allocation from the
// expected total observation count and bin count, clamped to [2, 20]
// per the original's heuristic (avoids both pathological under- and
// over-allocation for very sparse or very dense runs).
func InitialCapacity(totalScans, samplesPerScan int, totalBins int64) int {
	if totalBins <= 0 {
		return 2
	}
	est := int(float64(totalScans*samplesPerScan) / 5e7)
	if est < 2 {
		est = 2
	}
	if est > 20 {
		est = 20
	}
	return est
}

// NewBin allocates a Bin with room for `capacity` observations.
func NewBin(capacity int) *Bin {
	return &Bin{obs: make([]Observation, 0, capacity), Tilt: -1, Qual: 3, lastFile: -1}
}

// Add appends an observation, growing storage by whole nAllocPerBin
// blocks when the current capacity is exhausted, and folds the
// observation into the bin's persistent flags/tilt/nscenes bookkeeping
// (§4.7's commit step: `bin_flag[ibin] |= l2_flags`, `tilt[ibin] =
// tiltstate`, `nscenes[ibin]++` on a file-index change).
func (b *Bin) Add(o Observation) {
	if len(b.obs) == cap(b.obs) {
		grown := make([]Observation, len(b.obs), cap(b.obs)+nAllocPerBin)
		copy(grown, b.obs)
		b.obs = grown
	}
	b.obs = append(b.obs, o)

	b.Flags |= o.Flags
	b.Tilt = o.Tilt
	if o.FileIndex != b.lastFile {
		b.NScenes++
		b.lastFile = o.FileIndex
	}
}

// Len reports the number of accumulated observations.
func (b *Bin) Len() int { return len(b.obs) }

// Observations returns the accumulated observations in insertion order.
func (b *Bin) Observations() []Observation { return b.obs }

// RetainBestQuality keeps only the observations at the bin's minimum
// (best) quality value, emptying the bin entirely if that minimum
// exceeds qualMax — the original's "adjust for bins with bad quality
// values" pass (l2bin.c ~2137-2150), not a plain `<= qualMax` filter:
// a bin with qualities {0,1,2,3} and qual_max=2 retains only the
// quality=0 observations, never quality=1 or 2.
func (b *Bin) RetainBestQuality(qualMax int8) {
	if len(b.obs) == 0 {
		return
	}
	best := b.obs[0].Quality
	for _, o := range b.obs[1:] {
		if o.Quality < best {
			best = o.Quality
		}
	}
	if best > qualMax {
		b.obs = b.obs[:0]
		return
	}
	kept := b.obs[:0]
	for _, o := range b.obs {
		if o.Quality == best {
			kept = append(kept, o)
		}
	}
	b.obs = kept
}

// MeetsMinObs reports whether the bin has at least minObs observations;
// BinsMeetingMinObs uses it to select bins (§4.6).
func (b *Bin) MeetsMinObs(minObs int) bool {
	return len(b.obs) >= minObs
}

// RowAccumulator holds every Bin touched within one row-group pass,
// keyed by global bin number, bounding memory to the current row group
// rather than the whole output grid (§4.4).
type RowAccumulator struct {
	bins     map[int64]*Bin
	capacity int
}

// NewRowAccumulator creates an accumulator that allocates new bins with
// the given starting capacity.
func NewRowAccumulator(capacity int) *RowAccumulator {
	if capacity <= 0 {
		capacity = 2
	}
	return &RowAccumulator{bins: make(map[int64]*Bin), capacity: capacity}
}

// Add records one observation against a global bin number, allocating
// the bin's storage on first touch.
func (r *RowAccumulator) Add(bin int64, o Observation) {
	b, ok := r.bins[bin]
	if !ok {
		b = NewBin(r.capacity)
		r.bins[bin] = b
	}
	b.Add(o)
}

// Bin returns the accumulator for a global bin number, or nil if it was
// never touched in this pass.
func (r *RowAccumulator) Bin(bin int64) *Bin {
	return r.bins[bin]
}

// SortedBins returns the touched bin numbers in ascending order, the
// order the BinList/BinIndex emitter requires (§4.7).
func (r *RowAccumulator) SortedBins() []int64 {
	keys := make([]int64, 0, len(r.bins))
	for k := range r.bins {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Reset clears all accumulated bins, reused between row-group passes to
// avoid reallocating the map on every group.
func (r *RowAccumulator) Reset() {
	for k := range r.bins {
		delete(r.bins, k)
	}
}
