// Package l2bin implements the ISIN equal-area L2-to-L3 binning engine:
// given a processing day range, a resolution, a set of L2 granules and a
// requested product list, it bins geophysical pixels into an L3
// container following the dataday/dateline discipline of the original
// SeaDAS l2bin.
package l2bin

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"strings"

	"github.com/oceancolor/l2bin/config"
	"github.com/oceancolor/l2bin/dataday"
	"github.com/oceancolor/l2bin/flagmask"
	"github.com/oceancolor/l2bin/granule"
	"github.com/oceancolor/l2bin/grid"
	"github.com/oceancolor/l2bin/output"
	"github.com/oceancolor/l2bin/pipeline"
)

// GranuleOpener constructs a granule.Reader for one input path. The
// engine is agnostic to how a granule is actually opened (local file,
// object store, in-memory) — that policy, and the sensor tag each path
// carries, belongs to the caller (cmd/l2bin wires granule.NewFileReader
// here).
type GranuleOpener func(path string) (granule.Reader, error)

// ContainerOpener constructs the output.Container the engine writes
// into, given the grid's row count and total bin count.
type ContainerOpener func(nrows int, totalBins int64, qualityConfigured bool) (output.Container, error)

// Engine owns one run's immutable configuration, grid, and
// collaborators, and drives it end to end via Run.
type Engine struct {
	Config        *config.Config
	OpenGranule   GranuleOpener
	OpenContainer ContainerOpener
	Logger        *log.Logger
}

// Run executes the full binning pass described by e.Config: open and
// classify every granule, stream row groups through the accumulator,
// aggregate, and emit the output container. Configuration, semantic and
// no-output failures wrap ErrConfiguration, ErrSemantic or ErrNoOutput
// (§7); errors opening or writing the container are returned without a
// sentinel. cmd/l2bin maps these to process exit codes.
func (e *Engine) Run(ctx context.Context) error {
	if e.Logger == nil {
		e.Logger = log.Default()
	}

	nrows, err := grid.NRows(grid.Resolution(e.Config.Resolution))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	g := grid.New(nrows)

	descs, readers, err := e.openGranules()
	if err != nil {
		return err
	}
	defer closeAll(readers)

	if e.Config.ExpandedAll {
		e.Config.Products = config.ExpandAll(readers[0].ProductNames())
		e.Logger.Printf("l3bprod=ALL expanded to %d products from %s", len(e.Config.Products), descs[0].Filename)
	}

	mask, err := flagmask.Compile(readers[0].FlagNames(), e.Config.FlagUse)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	products, qualityColumn, avgColumn, err := resolveProducts(readers[0], e.Config)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	procDayBeg := dataday.Day(e.Config.StartDay)
	procDayEnd := dataday.Day(e.Config.EndDay)

	var classified []pipeline.ClassifiedGranule
	if e.Config.ProductType == config.ProductRegional {
		classified = regionalClassification(descs)
	} else {
		poolSize := runtime.NumCPU()
		classified = pipeline.ClassifyAll(ctx, descs, procDayBeg, procDayEnd, e.Config.Night, poolSize)
	}

	kept, dropped, err := pipeline.FilterOutputs(classified)
	if err != nil {
		if err == dataday.ErrNoOutput {
			return ErrNoOutput
		}
		return fmt.Errorf("%w: %v", ErrSemantic, err)
	}
	if dropped > 0 {
		e.Logger.Printf("dropped %d granule(s) by dataday classification", dropped)
	}
	if len(kept) == 0 {
		return ErrNoOutput
	}

	granules := make([]pipeline.GranuleContext, len(kept))
	for i, c := range kept {
		spans := granule.ComputeEnvelope(nrows, c.Descriptor.SLat, c.Descriptor.ELat)
		granules[i] = pipeline.GranuleContext{
			Index: i, Descriptor: c.Descriptor, Reader: readers[c.Descriptor.Index],
			Result: c.Result, Spans: spans,
		}
	}

	rowGroup := grid.NormalizeRowGroup(nrows, e.Config.RowGroup)
	if rowGroup != e.Config.RowGroup {
		e.Logger.Printf("row_group %d does not divide nrows %d, using %d instead", e.Config.RowGroup, nrows, rowGroup)
	}

	container, err := e.OpenContainer(nrows, g.TotalBins(), e.Config.QualityProduct != "")
	if err != nil {
		return fmt.Errorf("l2bin: opening output container: %w", err)
	}
	defer container.Close()

	var filledBins int64
	for krow := 0; krow < nrows; krow += rowGroup {
		rowEnd := krow + rowGroup - 1
		result, err := pipeline.ProcessRowGroup(
			g, krow, rowEnd, granules, mask, products, qualityColumn,
			avgColumn, e.Config.Averaging, e.Config.MinObs, e.Config.Night,
			e.Config.LonWest, e.Config.LonEast, e.Config.LatSouth, e.Config.LatNorth,
		)
		if err != nil {
			return fmt.Errorf("%w: row group at %d: %v", ErrSemantic, krow, err)
		}
		if result == nil {
			continue
		}

		// Quality-floor filtering runs here, after minobs, matching the
		// original's emission-time "adjust for bins with bad quality
		// values" pass (§4.6).
		if qualityColumn >= 0 {
			pipeline.ApplyQualityFloor(result.Accumulator, int8(e.Config.QualityMax))
		}

		n, err := emitRowGroup(container, g, result, products, e.Config, filledBins)
		if err != nil {
			return fmt.Errorf("l2bin: emitting row group at %d: %w", krow, err)
		}
		filledBins += n
	}

	if filledBins == 0 {
		return ErrNoOutput
	}

	attrs := output.GlobalAttrs{
		ProductionVersion: e.Config.ProductionVersion,
		StartDay:          e.Config.StartDay,
		EndDay:            e.Config.EndDay,
		Resolution:        string(e.Config.Resolution),
		RowGroup:          rowGroup,
		TotalBins:         g.TotalBins(),
		FilledBins:        filledBins,
		PercentFilled:     output.ComputePercentFilled(filledBins, g.TotalBins()),
		ProductNames:      productNames(e.Config.Products),
	}
	if err := container.SetGlobalAttrs(attrs); err != nil {
		return fmt.Errorf("l2bin: writing global attributes: %w", err)
	}

	return nil
}

func (e *Engine) openGranules() ([]*granule.Descriptor, []granule.Reader, error) {
	descs := make([]*granule.Descriptor, len(e.Config.InFiles))
	readers := make([]granule.Reader, len(e.Config.InFiles))

	var refProducts, refFlags []string
	for i, path := range e.Config.InFiles {
		r, err := e.OpenGranule(path)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: opening %s: %v", ErrSemantic, path, err)
		}
		desc, err := r.Open()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: reading metadata for %s: %v", ErrSemantic, path, err)
		}
		desc.Index = i
		descs[i] = desc
		readers[i] = r

		if i == 0 {
			refProducts = r.ProductNames()
			refFlags = r.FlagNames()
			continue
		}
		report := granule.CheckSchema(refProducts, refFlags, r.ProductNames(), r.FlagNames())
		if err := report.Error(); err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %v", ErrSemantic, path, err)
		}
	}

	return descs, readers, nil
}

func closeAll(readers []granule.Reader) {
	for _, r := range readers {
		_ = r.Close()
	}
}

// regionalClassification assigns brk_scan=0 to every granule without
// invoking the dataday classifier at all, per §4.2's regional prodtype.
func regionalClassification(descs []*granule.Descriptor) []pipeline.ClassifiedGranule {
	out := make([]pipeline.ClassifiedGranule, len(descs))
	for i, d := range descs {
		out[i] = pipeline.ClassifiedGranule{Descriptor: d, Result: dataday.Result{BrkScan: dataday.BrkAll}}
	}
	return out
}

// resolveProducts maps each configured ProductSpec to a column index
// (and optional ratio/FLAG_x column) against a reference reader's
// product list, and resolves the quality and median/midaverage
// designated-product columns against that same full granule product
// list (not the requested l3bprod list, §4.6).
func resolveProducts(ref granule.Reader, cfg *config.Config) ([]pipeline.ProductRequest, int, int, error) {
	index := make(map[string]int, ref.NumProducts())
	for i, name := range ref.ProductNames() {
		index[name] = i
	}

	qualityColumn := -1
	if cfg.QualityProduct != "" {
		col, ok := index[cfg.QualityProduct]
		if !ok {
			return nil, -1, -1, fmt.Errorf("qual_prod %q not found in granule product list", cfg.QualityProduct)
		}
		qualityColumn = col
	}

	avgColumn := -1
	if cfg.AveragingProduct != "" {
		col, ok := index[cfg.AveragingProduct]
		if !ok {
			return nil, -1, -1, fmt.Errorf("average product %q not found in granule product list", cfg.AveragingProduct)
		}
		avgColumn = col
	}

	reqs := make([]pipeline.ProductRequest, len(cfg.Products))
	for i, spec := range cfg.Products {
		req := pipeline.ProductRequest{Name: spec.Name, DenomColumn: -1}
		if spec.HasMin {
			req.MinValue = *spec.Min
		}

		if strings.HasPrefix(spec.Name, "FLAG_") {
			bit, err := flagBitOf(ref.FlagNames(), strings.TrimPrefix(spec.Name, "FLAG_"))
			if err != nil {
				return nil, -1, -1, err
			}
			req.Column = 0
			req.DenomColumn = -2
			req.FlagBit = bit
			reqs[i] = req
			continue
		}

		col, ok := index[spec.Name]
		if !ok {
			return nil, -1, -1, fmt.Errorf("product %q not found in granule product list", spec.Name)
		}
		req.Column = col

		if spec.Denom != "" {
			dcol, ok := index[spec.Denom]
			if !ok {
				return nil, -1, -1, fmt.Errorf("ratio denominator %q not found in granule product list", spec.Denom)
			}
			req.DenomColumn = dcol
		}

		reqs[i] = req
	}

	return reqs, qualityColumn, avgColumn, nil
}

func flagBitOf(flagNames []string, name string) (int, error) {
	for i, n := range flagNames {
		if strings.EqualFold(n, name) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("flag %q not found for FLAG_ pseudo-product", name)
}

func productNames(specs []config.ProductSpec) []string {
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	return names
}
