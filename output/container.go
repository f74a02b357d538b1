package output

import (
	"fmt"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

// Container is the consumed contract from §6: a binary output store
// that can accept BinList/Product/qual_l3/BinIndex records for a row
// group and a set of global attributes, and finalize itself once the
// run completes.
type Container interface {
	WriteBinList(rows []BinListRecord) error
	WriteProduct(name string, rows []ProductRecord) error
	WriteQualL3(rows []QualL3Record) error
	WriteBinIndex(rows []BinIndexRecord) error
	WriteSEAGrid(rows []SEAGridRecord) error
	SetGlobalAttrs(attrs GlobalAttrs) error
	Close() error
}

// GlobalAttrs is the set of run-level metadata attached to the output
// group, written once at finalization (§10 supplement: percent-filled).
type GlobalAttrs struct {
	ProductionVersion string
	StartDay          int
	EndDay            int
	Resolution        string
	RowGroup          int
	TotalBins         int64
	FilledBins        int64
	PercentFilled     float64
	ProductNames      []string
}

// TileDBContainer is the concrete Container backed by a TileDB group of
// arrays, one per named sequence (BinList, one per requested product,
// qual_l3, BinIndex, SEAGrid), following the teacher's
// grp.Create/grp.Open/grp.AddMember group-of-arrays pattern in
// cmd/main.go.
type TileDBContainer struct {
	uri string
	ctx *tiledb.Context
	grp *tiledb.Group

	nrows     int
	totalBins int64

	products map[string]*tiledb.Array
	binlist  *tiledb.Array
	quall3   *tiledb.Array
	binidx   *tiledb.Array
	seagrid  *tiledb.Array
}

// NewTileDBContainer creates (or truncates) a TileDB group at uri and
// opens it for writing, building the BinList/BinIndex/SEAGrid arrays
// immediately; per-product arrays are created lazily on first write
// since the product list is only fully known once the first granule has
// been opened (ALL expansion, §10).
func NewTileDBContainer(ctx *tiledb.Context, uri string, nrows int, totalBins int64, qualityConfigured bool) (*TileDBContainer, error) {
	grp, err := tiledb.NewGroup(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("output: new group: %w", err)
	}
	if err := grp.Create(); err != nil {
		return nil, fmt.Errorf("output: create group: %w", err)
	}
	if err := grp.Open(tiledb.TILEDB_WRITE); err != nil {
		return nil, fmt.Errorf("output: open group for write: %w", err)
	}

	c := &TileDBContainer{
		uri: uri, ctx: ctx, grp: grp,
		nrows: nrows, totalBins: totalBins,
		products: make(map[string]*tiledb.Array),
	}

	if c.binlist, err = c.createArray("BinList", &BinListRecord{}, totalBins); err != nil {
		return nil, err
	}
	if c.binidx, err = c.createArray("BinIndex", &BinIndexRecord{}, int64(nrows-1)); err != nil {
		return nil, err
	}
	if c.seagrid, err = c.createArray("SEAGrid", &SEAGridRecord{}, int64(nrows-1)); err != nil {
		return nil, err
	}
	if qualityConfigured {
		if c.quall3, err = c.createArray("qual_l3", &QualL3Record{}, totalBins); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *TileDBContainer) createArray(name string, record any, domainMax int64) (*tiledb.Array, error) {
	arrURI := c.uri + "/" + name
	schema, err := BuildSchema(c.ctx, record, domainMax, tileExtentFor(domainMax))
	if err != nil {
		return nil, fmt.Errorf("output: schema for %s: %w", name, err)
	}
	if err := tiledb.CreateArray(c.ctx, arrURI, schema); err != nil {
		return nil, fmt.Errorf("output: create array %s: %w", name, err)
	}
	arr, err := tiledb.NewArray(c.ctx, arrURI)
	if err != nil {
		return nil, fmt.Errorf("output: open array %s: %w", name, err)
	}
	if err := arr.Open(tiledb.TILEDB_WRITE); err != nil {
		return nil, fmt.Errorf("output: open array %s for write: %w", name, err)
	}
	if err := c.grp.AddMember(arrURI, name, true); err != nil {
		return nil, fmt.Errorf("output: add %s to group: %w", name, err)
	}
	return arr, nil
}

func tileExtentFor(domainMax int64) int64 {
	if domainMax < 1 {
		return 1
	}
	if domainMax > 100_000 {
		return 100_000
	}
	return domainMax
}

func (c *TileDBContainer) productArray(name string) (*tiledb.Array, error) {
	if arr, ok := c.products[name]; ok {
		return arr, nil
	}
	arr, err := c.createArray(name, &ProductRecord{}, c.totalBins)
	if err != nil {
		return nil, err
	}
	c.products[name] = arr
	return arr, nil
}

func (c *TileDBContainer) WriteBinList(rows []BinListRecord) error {
	bins := make([]int64, len(rows))
	nobs := make([]int32, len(rows))
	nscenes := make([]int32, len(rows))
	timerec := make([]int32, len(rows))
	weight := make([]float64, len(rows))
	flags := make([]uint32, len(rows))
	selcat := make([]int8, len(rows))
	for i, r := range rows {
		bins[i], nobs[i], nscenes[i] = r.Bin, r.NObs, r.NScenes
		timerec[i], weight[i], flags[i], selcat[i] = r.TimeRec, r.Weight, r.Flags, r.SelCat
	}
	return writeSparse(c.ctx, c.binlist, map[string]any{
		"Bin": bins, "NObs": nobs, "NScenes": nscenes, "TimeRec": timerec,
		"Weight": weight, "Flags": flags, "SelCat": selcat,
	})
}

func (c *TileDBContainer) WriteProduct(name string, rows []ProductRecord) error {
	arr, err := c.productArray(name)
	if err != nil {
		return err
	}
	bins := make([]int64, len(rows))
	sums := make([]float64, len(rows))
	sumsq := make([]float64, len(rows))
	values := make([]float32, len(rows))
	for i, r := range rows {
		bins[i], sums[i], sumsq[i], values[i] = r.Bin, r.Sum, r.SumSq, r.Value
	}
	return writeSparse(c.ctx, arr, map[string]any{
		"Bin": bins, "Sum": sums, "SumSq": sumsq, "Value": values,
	})
}

func (c *TileDBContainer) WriteQualL3(rows []QualL3Record) error {
	if c.quall3 == nil {
		return fmt.Errorf("output: qual_l3 array not configured for this run")
	}
	bins := make([]int64, len(rows))
	quality := make([]int8, len(rows))
	for i, r := range rows {
		bins[i], quality[i] = r.Bin, r.Quality
	}
	return writeSparse(c.ctx, c.quall3, map[string]any{"Bin": bins, "Quality": quality})
}

func (c *TileDBContainer) WriteBinIndex(rows []BinIndexRecord) error {
	row := make([]int32, len(rows))
	beg := make([]int64, len(rows))
	ext := make([]int64, len(rows))
	numbin := make([]int64, len(rows))
	basebin := make([]int64, len(rows))
	for i, r := range rows {
		row[i], beg[i], ext[i], numbin[i], basebin[i] = r.Row, r.Beg, r.Ext, r.NumBin, r.BaseBin
	}
	return writeSparse(c.ctx, c.binidx, map[string]any{
		"Row": row, "Beg": beg, "Ext": ext, "NumBin": numbin, "BaseBin": basebin,
	})
}

func (c *TileDBContainer) WriteSEAGrid(rows []SEAGridRecord) error {
	row := make([]int32, len(rows))
	numrows := make([]int32, len(rows))
	latcenter := make([]float64, len(rows))
	seamlon := make([]float64, len(rows))
	for i, r := range rows {
		row[i], numrows[i], latcenter[i], seamlon[i] = r.Row, r.NumRows, r.LatCenter, r.SeamLon
	}
	return writeSparse(c.ctx, c.seagrid, map[string]any{
		"Row": row, "NumRows": numrows, "LatCenter": latcenter, "SeamLon": seamlon,
	})
}

func (c *TileDBContainer) SetGlobalAttrs(attrs GlobalAttrs) error {
	dump, err := JsonIndentDumps(attrs)
	if err != nil {
		return fmt.Errorf("output: marshal global attrs: %w", err)
	}
	return c.grp.PutMetadata("l2bin-global-attributes", dump)
}

func (c *TileDBContainer) Close() error {
	for _, arr := range c.products {
		arr.Close()
	}
	c.binlist.Close()
	if c.quall3 != nil {
		c.quall3.Close()
	}
	c.binidx.Close()
	c.seagrid.Close()
	c.grp.Close()
	c.grp.Free()
	c.ctx.Free()
	return nil
}

func writeSparse(ctx *tiledb.Context, arr *tiledb.Array, dims map[string]any) error {
	query, err := tiledb.NewQuery(ctx, arr)
	if err != nil {
		return fmt.Errorf("output: new query: %w", err)
	}
	defer query.Free()

	if err := query.SetLayout(tiledb.TILEDB_UNORDERED); err != nil {
		return err
	}
	for name, buf := range dims {
		if _, err := query.SetDataBuffer(name, buf); err != nil {
			return fmt.Errorf("output: set buffer %s: %w", name, err)
		}
	}
	return query.Submit()
}
