// Package granule models one input L2 swath file: its descriptor (the
// immutable-after-classification metadata the engine keeps for the whole
// run) and the Reader contract a granule source must satisfy (§6).
package granule

import (
	"time"

	"github.com/oceancolor/l2bin/dataday"
)

// TiltState is the tilt-schedule state of a scan, resolved against a
// granule's tilt flag/range table.
type TiltState int32

const (
	TiltUnknown TiltState = -1
)

// TiltRange is one inclusive scan range over which a tilt flag applies.
type TiltRange struct {
	Flag      int32
	FirstScan int
	LastScan  int
}

// Descriptor holds everything the engine keeps about one granule once it
// has been opened and classified: immutable metadata plus the results of
// the dataday classifier (§4.2) and the scan-row envelope (§4.3).
type Descriptor struct {
	Index int // position in the run's granule list; used for file_index

	Filename string
	Sensor   dataday.Sensor

	SNodeStart int8
	SNodeEnd   int8

	StartYear int
	StartDay  int
	StartMsec int64

	Scans        int
	SamplesPerScan int
	NumProducts  int

	// Per-scan geolocation, oldest-scan-first, len == Scans.
	SLon, ELon, CLon []float64
	SLat, ELat, CLat []float64

	TiltRanges []TiltRange

	// Not filled in by FileReader.Open or by the engine: the
	// classification result is carried in pipeline.ClassifiedGranule.Result
	// and the row envelope in pipeline.GranuleContext.Spans (§4.2/§4.3).
	BrkScan    dataday.BrkScan
	ScanCross  bool
	ClassCode  int
	ScanRows   []ScanRowSpan // len == Scans
}

// Date returns the granule's dataday value (syear*1000+sday).
func (d *Descriptor) Date() dataday.Day {
	return dataday.Day(d.StartYear*1000 + d.StartDay)
}

// TiltStateAt resolves the tilt flag in effect for a given scan index by
// searching the granule's tilt range table, returning TiltUnknown if no
// range covers it (§4.4 step 2's tilt-schedule lookup).
func (d *Descriptor) TiltStateAt(scan int) TiltState {
	for _, r := range d.TiltRanges {
		if scan >= r.FirstScan && scan <= r.LastScan {
			return TiltState(r.Flag)
		}
	}
	return TiltUnknown
}

// Ssec returns seconds-of-day for the granule's start time.
func (d *Descriptor) Ssec() float64 {
	return float64(d.StartMsec) / 1000.0
}

// StartTime converts (StartYear, StartDay, StartMsec) to a time.Time, used
// only for diagnostics/logging (the binning arithmetic works in YYYYDDD +
// seconds-of-day terms, matching the original).
func (d *Descriptor) StartTime() time.Time {
	base := time.Date(d.StartYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, d.StartDay-1).Add(time.Duration(d.StartMsec) * time.Millisecond)
}

// ClassifierInput builds the dataday.GranuleInput the classifier needs
// from this descriptor, given the run's processing window and the prior
// granule's brk_scan (input-order dependency, §5/§9).
func (d *Descriptor) ClassifierInput(procDayBeg, procDayEnd dataday.Day, night bool, nfiles int, prior dataday.BrkScan) dataday.GranuleInput {
	return dataday.GranuleInput{
		Sensor:       d.Sensor,
		SNode:        d.SNodeStart,
		Date:         d.Date(),
		Ssec:         d.Ssec(),
		ProcDayBeg:   procDayBeg,
		ProcDayEnd:   procDayEnd,
		Night:        night,
		Slon:         d.SLon,
		Elon:         d.ELon,
		Slat:         d.SLat,
		Elat:         d.ELat,
		Clat:         d.CLat,
		NFiles:       nfiles,
		PriorBrkScan: prior,
	}
}
