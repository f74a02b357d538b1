package granule

// Reader is the contract a granule source must satisfy: everything the
// row-group pipeline needs to pull from one L2 file, scan by scan, in
// bounded memory (§6). A Reader is opened once per granule and scanned
// top to bottom; it does not support random access to scans out of
// order.
type Reader interface {
	// Open prepares the granule for reading and returns its descriptor
	// (metadata only — no pixel data is read yet).
	Open() (*Descriptor, error)

	// NumProducts and ProductNames describe the product dimension of
	// L2Data: len(ProductNames()) == NumProducts().
	NumProducts() int
	ProductNames() []string

	// FlagNames lists the geophysical flag bits in l2_flags bit order.
	FlagNames() []string

	// ReadScan loads one scan's pixel data. Scans must be read in
	// increasing index order (0-based, oldest first).
	ReadScan(scan int) (*Scan, error)

	// Close releases any open file handles.
	Close() error
}

// Scan is one scan line's worth of pixel data: per-sample geolocation,
// flags, and the product cube laid out product-major
// (L2Data[prod*Samples+sample]) to match the original's FORTRAN-order
// buffers.
type Scan struct {
	Index     int
	Latitude  []float64
	Longitude []float64
	L2Flags   []uint32
	L2Data    []float32 // len == NumProducts * Samples
	Samples   int
}

// At returns the product value for one sample on this scan.
func (s *Scan) At(prod, sample int) float32 {
	return s.L2Data[prod*s.Samples+sample]
}
