package dataday

import "testing"

func TestSeaWiFSDatelinePairing(t *testing.T) {
	// Granule A: date 2007049, ssec=19h, scancross=1 -> BrkEastOnly.
	inA := GranuleInput{
		Sensor:     SensorSeaWiFS,
		Date:       2007049,
		Ssec:       19 * secondsPerHour,
		ProcDayBeg: 2007050,
		ProcDayEnd: 2007050,
		NFiles:     2,
		Slon:       []float64{-10, 10},
	}
	resA, err := Classify(inA)
	if err != nil {
		t.Fatalf("granule A: %v", err)
	}
	if resA.BrkScan != BrkEastOnly {
		t.Errorf("granule A brk_scan = %d, want BrkEastOnly", resA.BrkScan)
	}

	// Granule B: date 2007050, ssec=0, scancross=0 -> BrkAll.
	inB := GranuleInput{
		Sensor:     SensorSeaWiFS,
		Date:       2007050,
		Ssec:       0,
		ProcDayBeg: 2007050,
		ProcDayEnd: 2007050,
		NFiles:     2,
		Slon:       []float64{10, 20},
	}
	resB, err := Classify(inB)
	if err != nil {
		t.Fatalf("granule B: %v", err)
	}
	if resB.BrkScan != BrkAll {
		t.Errorf("granule B brk_scan = %d, want BrkAll", resB.BrkScan)
	}
}

func TestSingleGranuleEdgeCaseExitsNoOutput(t *testing.T) {
	in := GranuleInput{
		Sensor:     SensorSeaWiFS,
		Date:       2007051,
		Ssec:       0,
		ProcDayBeg: 2007050,
		ProcDayEnd: 2007050,
		NFiles:     1,
		Slon:       []float64{10, 20},
	}
	_, err := Classify(in)
	if err != ErrNoOutput {
		t.Fatalf("Classify() err = %v, want ErrNoOutput", err)
	}
}

func TestModisANightPolarFilterDoesNotApplyOverPoles(t *testing.T) {
	// clat endpoints at 80/82 degrees: polar granule, filter must not drop it.
	in := GranuleInput{
		Sensor:     SensorMODISA,
		Night:      true,
		SNode:      +1,
		Date:       2007050,
		Ssec:       1 * secondsPerHour,
		ProcDayBeg: 2007050,
		ProcDayEnd: 2007050,
		Clat:       []float64{80, 82},
		Slon:       []float64{10, 20},
		Elon:       []float64{11, 21},
		Slat:       []float64{10, 20},
		Elat:       []float64{11, 21},
		NFiles:     1,
	}
	res, err := Classify(in)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Code == 1 || res.Code == 2 {
		t.Errorf("polar granule should not be dropped by the polar filter, got code %d", res.Code)
	}
}

func TestModisANonPolarNightDropsAscending(t *testing.T) {
	in := GranuleInput{
		Sensor:     SensorMODISA,
		Night:      true,
		SNode:      +1,
		Date:       2007050,
		Ssec:       1 * secondsPerHour,
		ProcDayBeg: 2007050,
		ProcDayEnd: 2007050,
		Clat:       []float64{10, 12},
		Slon:       []float64{10, 20},
		Elon:       []float64{11, 21},
		Slat:       []float64{10, 20},
		Elat:       []float64{11, 21},
		NFiles:     1,
	}
	res, err := Classify(in)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.BrkScan != BrkDrop || res.Code != 1 {
		t.Errorf("got brk_scan=%d code=%d, want BrkDrop/code 1", res.BrkScan, res.Code)
	}
}

func TestRegionalSkipsClassification(t *testing.T) {
	// Regional handling lives in the caller (Engine); Classify is never
	// invoked for prodtype=regional. This test documents that contract.
	t.Skip("regional brk_scan=0 for every granule is decided by the caller before invoking Classify")
}
