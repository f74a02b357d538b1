package dataday

import (
	"errors"
	"math"
)

// BrkScan is the per-granule directive selecting which side of the
// dateline contributes pixels to the target dataday.
type BrkScan int32

const (
	BrkDrop      BrkScan = -9999 // drop the whole granule
	BrkEastOnly  BrkScan = -1    // keep pixels east of the dateline only (lon >= 0)
	BrkAll       BrkScan = 0     // keep all pixels
	BrkWestOnly  BrkScan = 1     // keep pixels west of the dateline only (lon < 0)
)

// ErrNoOutput signals the single-granule edge case (§4.2): a lone,
// non-crossing SeaWiFS/CZCS/OCM2/MERIS/OCTS granule whose date doesn't
// match a single-day processing window. The caller (the Engine) must
// treat this as a whole-run "no output produced" condition, exit code 110.
var ErrNoOutput = errors.New("dataday: single granule date does not match processing day, no output")

const secondsPerHour = 3600.0

// GranuleInput carries the per-granule fields the classifier needs,
// already extracted from the granule's metadata and per-scan geolocation
// arrays (§6 granule-reader contract).
type GranuleInput struct {
	Sensor Sensor

	// SNode is the node (+1 ascending, -1 descending) at scan start,
	// used by the MODIS polar filter and scancross test.
	SNode int8

	Date       Day // granule's syear*1000+sday
	Ssec       float64
	ProcDayBeg Day
	ProcDayEnd Day
	Night      bool

	// Per-scan geolocation, oldest-scan-first.
	Slon, Elon, Slat, Elat, Clat []float64

	// NFiles is the total granule count for this run; used only for the
	// single-granule edge case.
	NFiles int

	// PriorBrkScan is the previous granule's (in input order) classified
	// brk_scan value. Only the MODIS-A table reads it, preserving the
	// input-order dependency documented in SPEC_FULL.md §5/§9.
	PriorBrkScan BrkScan
}

// Result is the outcome of classifying one granule.
type Result struct {
	BrkScan   BrkScan
	Code      int // diagnostic "cde" reason code, 0 when none applies
	ScanCross bool

	// DiffBeg and DiffEnd are diffday(date, proc_day_beg/end), needed
	// again by the row-group pipeline's per-pixel dateline discipline
	// (§4.4), so the classifier hands them back instead of making the
	// caller recompute them.
	DiffBeg int
	DiffEnd int
}

// Classify applies the per-sensor temporal-selection table (§4.2) to a
// single granule and returns its brk_scan directive. Regional product
// type is handled by the caller (it never invokes Classify — brk_scan is
// always BrkAll for every granule in that mode, §4.2).
func Classify(in GranuleInput) (Result, error) {
	scancross := ScanCross(in.Sensor, in.SNode, in.Slon, in.Elon, in.Slat, in.Elat)
	diffBeg := Diffday(in.Date, in.ProcDayBeg)
	diffEnd := Diffday(in.Date, in.ProcDayEnd)

	res, err := classifyBrkScan(in, scancross, diffBeg, diffEnd)
	if err != nil {
		return Result{}, err
	}
	res.DiffBeg = diffBeg
	res.DiffEnd = diffEnd
	return res, nil
}

func classifyBrkScan(in GranuleInput, scancross bool, diffBeg, diffEnd int) (Result, error) {
	if polarFilterDrops(in) {
		return Result{BrkScan: BrkDrop, Code: polarFilterCode(in), ScanCross: scancross}, nil
	}

	switch {
	case isModisA(in.Sensor) || isModisT(in.Sensor):
		return classifyModis(in, scancross, diffBeg, diffEnd), nil
	case isSeaWiFSFamily(in.Sensor):
		if err := singleGranuleEdgeCase(in, scancross); err != nil {
			return Result{}, err
		}
		return classifySeaWiFS(in, scancross), nil
	case in.Sensor == SensorMERIS:
		if err := singleGranuleEdgeCase(in, scancross); err != nil {
			return Result{}, err
		}
		return classifyMeris(in, scancross, diffBeg, diffEnd), nil
	case in.Sensor == SensorOCTS:
		if err := singleGranuleEdgeCase(in, scancross); err != nil {
			return Result{}, err
		}
		return classifyOcts(in, scancross), nil
	default:
		return Result{}, errors.New("dataday: unsupported sensor " + string(in.Sensor))
	}
}

// singleGranuleEdgeCase implements the lone-swath/no-output rule shared by
// SeaWiFS/CZCS/OCM2, MERIS, and OCTS (§4.2).
func singleGranuleEdgeCase(in GranuleInput, scancross bool) error {
	if in.NFiles == 1 && !scancross && in.ProcDayBeg == in.ProcDayEnd && in.Date != in.ProcDayBeg {
		return ErrNoOutput
	}
	return nil
}

// ScanCross determines whether a granule's swath crosses the +/-180
// longitude seam, per the sensor-specific rule in §4.2.
func ScanCross(sensor Sensor, snode int8, slon, elon, slat, elat []float64) bool {
	switch {
	case isModisA(sensor) || isModisT(sensor):
		for j := len(slon) - 1; j >= 0; j-- {
			cross := elon[j]*float64(snode) > 0 &&
				slon[j]*float64(snode) < 0 &&
				0.5*(math.Abs(elat[j])+math.Abs(slat[j])) < 70
			if cross {
				return true
			}
		}
		return false
	case sensor == SensorMERIS:
		for j := len(slon) - 1; j >= 1; j-- {
			if slon[j] >= 0 && slon[j-1] < 0 {
				return true
			}
			if slon[j] >= 0 && elon[j] < 0 {
				return true
			}
		}
		return false
	default: // SeaWiFS/CZCS/OCM2/OCTS
		for j := len(slon) - 1; j >= 1; j-- {
			if slon[j] >= 0 && slon[j-1] < 0 {
				return true
			}
		}
		return false
	}
}

// polarFilterDrops applies the MODIS-only polar filter (§4.2): for a
// non-polar granule (both endpoint center-latitudes under 75 degrees),
// ascending granules are dropped in night mode (MODIS-A) / descending in
// day mode (MODIS-A), with the inverse rule for MODIS-T.
func polarFilterDrops(in GranuleInput) bool {
	if !isModisA(in.Sensor) && !isModisT(in.Sensor) {
		return false
	}
	if len(in.Clat) == 0 {
		return false
	}

	first, last := math.Abs(in.Clat[0]), math.Abs(in.Clat[len(in.Clat)-1])
	if first >= 75 || last >= 75 {
		return false // polar granule: filter does not apply
	}

	if isModisA(in.Sensor) {
		if in.Night && in.SNode == +1 {
			return true
		}
		if !in.Night && in.SNode == -1 {
			return true
		}
		return false
	}

	// MODIS-T: inverse.
	if in.Night && in.SNode == -1 {
		return true
	}
	if !in.Night && in.SNode == +1 {
		return true
	}
	return false
}

func polarFilterCode(in GranuleInput) int {
	if isModisA(in.Sensor) {
		if in.Night {
			return 1
		}
		return 2
	}
	if in.Night {
		return 1
	}
	return 2
}

// classifyModis dispatches to the MODIS-A or MODIS-T, day or night table.
func classifyModis(in GranuleInput, scancross bool, diffBeg, diffEnd int) Result {
	if isModisA(in.Sensor) {
		if in.Night {
			return modisANight(in, scancross, diffBeg, diffEnd)
		}
		return modisADay(in, scancross, diffBeg, diffEnd)
	}
	if in.Night {
		return modisTNight(in, scancross, diffBeg, diffEnd)
	}
	return modisTDay(in, scancross, diffBeg, diffEnd)
}

// modisADay implements the MODIS-A/VIIRSN day table (§4.2).
func modisADay(in GranuleInput, scancross bool, diffBeg, diffEnd int) Result {
	brk := BrkAll
	code := 0
	sticky := false

	if diffBeg <= -1 {
		code = 3
		brk = BrkDrop
	}
	if diffEnd >= 2 {
		code = 4
		brk = BrkDrop
	}
	if diffBeg == 0 && !scancross && in.Ssec < 0.92*secondsPerHour {
		code = 5
		brk = BrkDrop
	}
	if diffBeg == 0 && scancross && in.Ssec <= 12*secondsPerHour {
		brk = BrkEastOnly
	}
	if diffBeg == 0 && scancross && in.Ssec > 12*secondsPerHour {
		brk = BrkWestOnly
	}
	if diffEnd == 1 && !scancross && in.PriorBrkScan == BrkWestOnly {
		code = 6
		brk = BrkDrop
	}
	if diffEnd == 1 && scancross {
		brk = BrkWestOnly
	}
	if diffEnd == 1 && in.Ssec > 2.42*secondsPerHour {
		code = 7
		brk = BrkDrop
	}
	if diffEnd == 1 && !scancross && in.Ssec > 2.2*secondsPerHour {
		sticky = true
	}
	if sticky {
		code = 8
		brk = BrkDrop
	}

	return Result{BrkScan: brk, Code: code, ScanCross: scancross}
}

// modisANight implements the MODIS-A/VIIRSN night table (§4.2): thresholds
// 12h/12.76h/14.42h/14.2h, day-boundary offsets {-2,+2}.
func modisANight(in GranuleInput, scancross bool, diffBeg, diffEnd int) Result {
	brk := BrkAll
	code := 0
	sticky := false

	if diffBeg <= -2 {
		code = 3
		brk = BrkDrop
	}
	if diffEnd >= 2 {
		code = 4
		brk = BrkDrop
	}
	if diffBeg == -1 && in.Ssec < 12*secondsPerHour {
		code = 5
		brk = BrkDrop
	}
	if diffEnd == 1 && in.Ssec >= 12*secondsPerHour {
		code = 6
		brk = BrkDrop
	}
	if diffBeg == -1 && in.Ssec < 12.76*secondsPerHour && !scancross {
		code = 7
		brk = BrkDrop
	}
	if diffBeg == -1 && scancross {
		brk = BrkEastOnly
	}
	if diffBeg == 0 && scancross && in.Ssec <= 12*secondsPerHour {
		brk = BrkWestOnly
	}
	if diffEnd == 0 && in.Ssec >= 12*secondsPerHour && !scancross && in.PriorBrkScan == BrkWestOnly {
		code = 8
		brk = BrkDrop
	}
	if diffEnd == 0 && in.Ssec >= 12*secondsPerHour && scancross {
		brk = BrkWestOnly
	}
	if diffEnd == 0 && in.Ssec >= 14.42*secondsPerHour {
		code = 9
		brk = BrkDrop
	}
	if diffEnd == 0 && !scancross && in.Ssec > 14.2*secondsPerHour {
		sticky = true
	}
	if sticky {
		code = 10
		brk = BrkDrop
	}

	return Result{BrkScan: brk, Code: code, ScanCross: scancross}
}

// modisTDay implements the MODIS-T day table: thresholds 22h/23h/21h.
func modisTDay(in GranuleInput, scancross bool, diffBeg, diffEnd int) Result {
	brk := BrkAll
	code := 0

	if diffBeg <= -2 {
		code = 3
		brk = BrkDrop
	}
	if diffEnd >= 1 {
		code = 4
		brk = BrkDrop
	}
	if diffBeg == 0 && scancross && in.Ssec <= 12*secondsPerHour {
		brk = BrkEastOnly
	}
	if diffBeg == 0 && scancross && in.Ssec > 12*secondsPerHour {
		brk = BrkWestOnly
	}
	if diffEnd == -1 && !scancross && in.Ssec < 22.0*secondsPerHour {
		code = 5
		brk = BrkDrop
	}
	if diffEnd == -1 && scancross {
		brk = BrkEastOnly
	}
	if diffBeg == 0 && !scancross && in.Ssec > 23.0*secondsPerHour {
		code = 6
		brk = BrkDrop
	}
	if diffEnd == -1 && scancross && in.Ssec < 21.0*secondsPerHour {
		code = 7
		brk = BrkDrop
	}

	return Result{BrkScan: brk, Code: code, ScanCross: scancross}
}

// modisTNight implements the MODIS-T night table: thresholds 10.1h/11h/9.25h.
func modisTNight(in GranuleInput, scancross bool, diffBeg, diffEnd int) Result {
	brk := BrkAll
	code := 0

	if diffBeg <= -2 {
		code = 3
		brk = BrkDrop
	}
	if diffEnd >= 1 {
		code = 4
		brk = BrkDrop
	}
	if diffBeg == -1 && scancross && in.Ssec <= 24*secondsPerHour {
		brk = BrkEastOnly
	}
	if diffBeg == 0 && scancross && in.Ssec > 0 {
		brk = BrkWestOnly
	}
	if diffEnd == -1 && !scancross && in.Ssec < 10.1*secondsPerHour {
		code = 5
		brk = BrkDrop
	}
	if diffEnd == -1 && scancross && in.Ssec < 11*secondsPerHour {
		brk = BrkEastOnly
	}
	if diffBeg == 0 && !scancross && in.Ssec > 11.0*secondsPerHour {
		code = 6
		brk = BrkDrop
	}
	if diffEnd == -1 && in.Ssec < 9.25*secondsPerHour {
		code = 7
		brk = BrkDrop
	}

	return Result{BrkScan: brk, Code: code, ScanCross: scancross}
}

// classifySeaWiFS implements the shared SeaWiFS/CZCS/OCM2 table.
// p1hr=18, m1hr=6 (§4.2).
func classifySeaWiFS(in GranuleInput, scancross bool) Result {
	return seaWiFSFamily(in, scancross, 18, 6)
}

// classifyOcts implements the OCTS table: p1hr=18-1.333, m1hr=6-1.333.
func classifyOcts(in GranuleInput, scancross bool) Result {
	return seaWiFSFamily(in, scancross, 18-1.333, 6-1.333)
}

// seaWiFSFamily is the shared body for SeaWiFS/CZCS/OCM2/OCTS: all four
// use the same scancross rule (computed by the caller via ScanCross);
// only OCTS passes different p1hr/m1hr thresholds (see classifyOcts).
func seaWiFSFamily(in GranuleInput, scancross bool, p1hr, m1hr float64) Result {
	diffBeg := Diffday(in.Date, in.ProcDayBeg)
	diffEnd := Diffday(in.Date, in.ProcDayEnd)

	switch {
	case diffBeg <= -2:
		return Result{BrkScan: BrkDrop, ScanCross: scancross}
	case diffEnd >= 2:
		return Result{BrkScan: BrkDrop, ScanCross: scancross}
	case diffBeg == -1:
		if in.Ssec > p1hr*secondsPerHour && scancross {
			return Result{BrkScan: BrkEastOnly, ScanCross: scancross}
		}
		return Result{BrkScan: BrkDrop, ScanCross: scancross}
	case diffEnd == 1:
		if in.Ssec < m1hr*secondsPerHour && scancross {
			return Result{BrkScan: BrkWestOnly, ScanCross: scancross}
		}
		return Result{BrkScan: BrkDrop, ScanCross: scancross}
	case in.Date == in.ProcDayBeg && in.Date == in.ProcDayEnd:
		brk := BrkAll
		if in.Ssec > p1hr*secondsPerHour && scancross {
			brk = BrkWestOnly
		}
		if in.Ssec < m1hr*secondsPerHour && scancross {
			brk = BrkEastOnly
		}
		return Result{BrkScan: brk, ScanCross: scancross}
	default:
		return Result{BrkScan: BrkAll, ScanCross: scancross}
	}
}

// classifyMeris implements the MERIS table: p1hr=19, with a keep-all branch
// for non-crossing late granules and an unconditional drop when the
// granule extends into the following day (§4.2).
func classifyMeris(in GranuleInput, scancross bool, diffBeg, diffEnd int) Result {
	p1hr := 19.0

	brk := BrkAll
	if diffBeg <= -2 {
		brk = BrkDrop
	} else if diffEnd >= 2 {
		brk = BrkDrop
	}

	switch {
	case diffBeg == -1:
		switch {
		case in.Ssec > p1hr*secondsPerHour && scancross:
			brk = BrkEastOnly
		case in.Ssec > p1hr*secondsPerHour && !scancross:
			brk = BrkAll
		default:
			brk = BrkDrop
		}
	case diffEnd == 1:
		brk = BrkDrop
	case in.Date == in.ProcDayBeg && in.Date == in.ProcDayEnd:
		if in.Ssec > p1hr*secondsPerHour {
			if scancross {
				brk = BrkWestOnly
			} else {
				brk = BrkDrop
			}
		}
	}

	return Result{BrkScan: brk, ScanCross: scancross}
}
