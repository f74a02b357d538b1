package granule

import (
	"encoding/binary"
	"fmt"
	"math"

	tiledb "github.com/TileDB-Inc/TileDB-Go"

	"github.com/oceancolor/l2bin/dataday"
)

// productScale holds the scale/offset pair applied to one stored product,
// matching the original's scaled-integer storage for L2 products.
type productScale struct {
	Scale  float64
	Offset float64
}

func unscale(stored float64, s productScale) float64 {
	if s.Scale == 0 {
		return stored
	}
	return stored/s.Scale - s.Offset
}

// FileReader reads one L2 granule stored as a TileDB dense array (one
// dimension per scan, one per sample, attributes for geolocation, flags
// and each product), accessed through TileDB's VFS so the same code path
// serves local paths and object-store URIs alike.
type FileReader struct {
	URI    string
	Sensor dataday.Sensor

	ctx *tiledb.Context
	vfs *tiledb.VFS
	arr *tiledb.Array

	desc *Descriptor

	products []string
	scales   []productScale
	flags    []string
}

// NewFileReader constructs a FileReader bound to a TileDB array URI. The
// sensor must be supplied by the caller (derived from the config or the
// array's metadata) since it drives which dataday table applies.
func NewFileReader(uri string, sensor dataday.Sensor, config *tiledb.Config) (*FileReader, error) {
	ctx, err := tiledb.NewContext(config)
	if err != nil {
		return nil, fmt.Errorf("granule: new context: %w", err)
	}

	vfs, err := tiledb.NewVFS(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("granule: new vfs: %w", err)
	}

	return &FileReader{URI: uri, Sensor: sensor, ctx: ctx, vfs: vfs}, nil
}

// Open opens the backing array, reads its metadata (scan/sample counts,
// product list, scale factors, flag names, geolocation envelope), and
// returns the granule's Descriptor.
func (f *FileReader) Open() (*Descriptor, error) {
	arr, err := tiledb.NewArray(f.ctx, f.URI)
	if err != nil {
		return nil, fmt.Errorf("granule: open array %s: %w", f.URI, err)
	}
	if err := arr.Open(tiledb.TILEDB_READ); err != nil {
		return nil, fmt.Errorf("granule: open array %s for read: %w", f.URI, err)
	}
	f.arr = arr

	desc := &Descriptor{Filename: f.URI, Sensor: f.Sensor}

	if v, err := readIntMeta(arr, "start_year"); err == nil {
		desc.StartYear = v
	}
	if v, err := readIntMeta(arr, "start_day"); err == nil {
		desc.StartDay = v
	}
	if v, err := readIntMeta(arr, "start_msec"); err == nil {
		desc.StartMsec = int64(v)
	}
	if v, err := readIntMeta(arr, "num_scans"); err == nil {
		desc.Scans = v
	}
	if v, err := readIntMeta(arr, "samples_per_scan"); err == nil {
		desc.SamplesPerScan = v
	}
	if v, err := readIntMeta(arr, "num_products"); err == nil {
		desc.NumProducts = v
	}
	if v, err := readIntMeta(arr, "snode_start"); err == nil {
		desc.SNodeStart = int8(v)
	}
	if v, err := readIntMeta(arr, "snode_end"); err == nil {
		desc.SNodeEnd = int8(v)
	}

	f.products, _ = readStringListMeta(arr, "product_names")
	f.flags, _ = readStringListMeta(arr, "flag_names")
	f.scales = make([]productScale, len(f.products))
	for i, p := range f.products {
		scale, _ := readFloatMeta(arr, fmt.Sprintf("scale_%s", p))
		offset, _ := readFloatMeta(arr, fmt.Sprintf("offset_%s", p))
		if scale == 0 {
			scale = 1
		}
		f.scales[i] = productScale{Scale: scale, Offset: offset}
	}

	desc.SLon = mustReadFloatArrayMeta(arr, "slon", desc.Scans)
	desc.ELon = mustReadFloatArrayMeta(arr, "elon", desc.Scans)
	desc.CLon = mustReadFloatArrayMeta(arr, "clon", desc.Scans)
	desc.SLat = mustReadFloatArrayMeta(arr, "slat", desc.Scans)
	desc.ELat = mustReadFloatArrayMeta(arr, "elat", desc.Scans)
	desc.CLat = mustReadFloatArrayMeta(arr, "clat", desc.Scans)

	f.desc = desc
	return desc, nil
}

func (f *FileReader) NumProducts() int       { return len(f.products) }
func (f *FileReader) ProductNames() []string { return f.products }
func (f *FileReader) FlagNames() []string    { return f.flags }

// ReadScan reads one scan's worth of lat/lon, flags, and product data out
// of the array via a single-row TileDB subarray query.
func (f *FileReader) ReadScan(scan int) (*Scan, error) {
	if f.arr == nil {
		return nil, fmt.Errorf("granule: ReadScan called before Open")
	}
	samples := f.desc.SamplesPerScan

	query, err := tiledb.NewQuery(f.ctx, f.arr)
	if err != nil {
		return nil, fmt.Errorf("granule: new query: %w", err)
	}
	defer query.Free()

	subarray, err := f.arr.NewSubarray()
	if err != nil {
		return nil, fmt.Errorf("granule: new subarray: %w", err)
	}
	if err := subarray.AddRangeByName("scan", int32(scan), int32(scan)); err != nil {
		return nil, fmt.Errorf("granule: subarray range scan: %w", err)
	}
	if err := subarray.AddRangeByName("sample", int32(0), int32(samples-1)); err != nil {
		return nil, fmt.Errorf("granule: subarray range sample: %w", err)
	}
	if err := query.SetSubarray(subarray); err != nil {
		return nil, fmt.Errorf("granule: set subarray: %w", err)
	}

	lat := make([]float64, samples)
	lon := make([]float64, samples)
	flagsRaw := make([]uint32, samples)
	data := make([]float32, len(f.products)*samples)

	if _, err := query.SetDataBuffer("latitude", lat); err != nil {
		return nil, err
	}
	if _, err := query.SetDataBuffer("longitude", lon); err != nil {
		return nil, err
	}
	if _, err := query.SetDataBuffer("l2_flags", flagsRaw); err != nil {
		return nil, err
	}
	if _, err := query.SetDataBuffer("l2_data", data); err != nil {
		return nil, err
	}
	if err := query.Submit(); err != nil {
		return nil, fmt.Errorf("granule: submit query scan %d: %w", scan, err)
	}

	for pi, sc := range f.scales {
		if sc.Scale == 1 && sc.Offset == 0 {
			continue
		}
		for s := 0; s < samples; s++ {
			idx := pi*samples + s
			data[idx] = float32(unscale(float64(data[idx]), sc))
		}
	}

	return &Scan{
		Index:     scan,
		Latitude:  lat,
		Longitude: lon,
		L2Flags:   flagsRaw,
		L2Data:    data,
		Samples:   samples,
	}, nil
}

// Close releases the open array, VFS, and context handles.
func (f *FileReader) Close() error {
	if f.arr != nil {
		if err := f.arr.Close(); err != nil {
			return err
		}
	}
	f.vfs.Free()
	f.ctx.Free()
	return nil
}

func readIntMeta(arr *tiledb.Array, key string) (int, error) {
	_, _, v, err := arr.GetMetadata(key)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case int32:
		return int(x), nil
	case int64:
		return int(x), nil
	case uint32:
		return int(x), nil
	default:
		return 0, fmt.Errorf("granule: metadata %s has unexpected type %T", key, v)
	}
}

func readFloatMeta(arr *tiledb.Array, key string) (float64, error) {
	_, _, v, err := arr.GetMetadata(key)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	default:
		return 0, fmt.Errorf("granule: metadata %s has unexpected type %T", key, v)
	}
}

func readStringListMeta(arr *tiledb.Array, key string) ([]string, error) {
	_, _, v, err := arr.GetMetadata(key)
	if err != nil {
		return nil, err
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("granule: metadata %s has unexpected type %T", key, v)
	}
	return splitCommaList(s), nil
}

func mustReadFloatArrayMeta(arr *tiledb.Array, key string, n int) []float64 {
	_, _, v, err := arr.GetMetadata(key)
	if err != nil {
		return make([]float64, n)
	}
	raw, ok := v.([]byte)
	if !ok || len(raw) != n*8 {
		return make([]float64, n)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint64(raw[i*8 : i*8+8])
		out[i] = math.Float64frombits(bits)
	}
	return out
}

func splitCommaList(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
