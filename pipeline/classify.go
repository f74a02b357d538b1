// Package pipeline drives the row-group binning loop: classifying
// granules, assigning pixels to bins in bounded-memory passes, and
// aggregating per-bin observations into output products.
package pipeline

import (
	"context"
	"fmt"

	"github.com/alitto/pond"

	"github.com/oceancolor/l2bin/dataday"
	"github.com/oceancolor/l2bin/granule"
)

// ClassifiedGranule pairs a granule descriptor with its dataday
// classification result.
type ClassifiedGranule struct {
	Descriptor *granule.Descriptor
	Result     dataday.Result
	Err        error
}

// ClassifyAll classifies every granule against the run's processing
// window. Granules are independent of one another *except* under the
// MODIS-A/VIIRSN day and night tables, which read the previous granule's
// brk_scan (§5/§9) — so runs with those sensors are classified serially
// in input order, while every other sensor classifies concurrently across
// a bounded worker pool sized to the host, mirroring the teacher's
// convert_gsf_list fan-out.
func ClassifyAll(ctx context.Context, descs []*granule.Descriptor, procDayBeg, procDayEnd dataday.Day, night bool, poolSize int) []ClassifiedGranule {
	out := make([]ClassifiedGranule, len(descs))

	if requiresSerialClassification(descs) {
		classifySerial(descs, procDayBeg, procDayEnd, night, out)
		return out
	}

	if poolSize <= 0 {
		poolSize = 1
	}
	pool := pond.New(poolSize, 0, pond.MinWorkers(poolSize), pond.Context(ctx))
	defer pool.StopAndWait()

	for i, d := range descs {
		i, d := i, d
		pool.Submit(func() {
			in := d.ClassifierInput(procDayBeg, procDayEnd, night, len(descs), 0)
			res, err := dataday.Classify(in)
			out[i] = ClassifiedGranule{Descriptor: d, Result: res, Err: err}
		})
	}

	return out
}

// requiresSerialClassification reports whether the run's sensor uses the
// MODIS-A/VIIRSN tables, which carry the brk_scan[ifile-1] order
// dependency in both day and night mode.
func requiresSerialClassification(descs []*granule.Descriptor) bool {
	for _, d := range descs {
		switch d.Sensor {
		case dataday.SensorMODISA, dataday.SensorVIIRSN, dataday.SensorHMODISA:
			return true
		}
	}
	return false
}

func classifySerial(descs []*granule.Descriptor, procDayBeg, procDayEnd dataday.Day, night bool, out []ClassifiedGranule) {
	var prior dataday.BrkScan
	for i, d := range descs {
		in := d.ClassifierInput(procDayBeg, procDayEnd, night, len(descs), prior)
		res, err := dataday.Classify(in)
		out[i] = ClassifiedGranule{Descriptor: d, Result: res, Err: err}
		if err == nil {
			prior = res.BrkScan
		}
	}
}

// FilterOutputs partitions classified granules into those contributing
// to the run and those dropped. A granule whose classification returned
// dataday.ErrNoOutput is counted as dropped like a BrkDrop granule; any
// other classification error is returned (§7).
func FilterOutputs(classified []ClassifiedGranule) (kept []ClassifiedGranule, dropped int, err error) {
	for _, c := range classified {
		if c.Err == dataday.ErrNoOutput {
			dropped++
			continue
		}
		if c.Err != nil {
			return nil, dropped, fmt.Errorf("pipeline: classifying %s: %w", c.Descriptor.Filename, c.Err)
		}
		if c.Result.BrkScan == dataday.BrkDrop {
			dropped++
			continue
		}
		kept = append(kept, c)
	}
	return kept, dropped, nil
}
