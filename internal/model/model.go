// Package model holds the typed schemas shared across the pipeline: the
// fixed Product enumeration, per-product file matches, the parallel band
// arrays for one moment, and the raster/lat-lon grids derived from them.
//
// Everything here is a plain value type produced and consumed inside a
// single moment's processing (see DATA MODEL / Lifecycle in SPEC_FULL.md);
// nothing is held onto across moments.
package model

// Product is one of the fixed ABI L2 product tags this pipeline consumes.
type Product string

const (
	ProductACTP Product = "ACTP"
	ProductC04  Product = "C04"
	ProductC07  Product = "C07"
	ProductC11  Product = "C11"
	ProductC13  Product = "C13"
	ProductC14  Product = "C14"
	ProductC15  Product = "C15"
)

// Products lists every product tag the resolver must locate for a moment.
var Products = []Product{ProductACTP, ProductC04, ProductC07, ProductC11, ProductC13, ProductC14, ProductC15}

// IsBand reports whether p is an imager CMI band product, as opposed to
// the ACTP cloud-phase product.
func (p Product) IsBand() bool {
	return p != ProductACTP
}

// FileMatch records one resolved product file and which provider produced
// it, so the resolver's CG_-over-OR_ preference rule has something to
// compare.
type FileMatch struct {
	Product  Product
	Path     string
	Provider string // e.g. "OR", "CG"
}

// GeostationaryParams carries the CRS parameters embedded in a CMI/ACTP
// file's goes_imager_projection attribute.
type GeostationaryParams struct {
	PerspectiveHeight     float64 // meters, h
	LongitudeOfProjOrigin float64 // degrees
	SweepAngleAxis        string  // "x" or "y"
	SemiMajorAxis         float64 // meters, a
	SemiMinorAxis         float64 // meters, b
}

// Affine is a 6-parameter pixel->world transform, GDAL convention:
// world_x = a0 + col*a1 + row*a2
// world_y = a3 + col*a4 + row*a5
type Affine struct {
	A0, A1, A2 float64
	A3, A4, A5 float64
}

// PixelToWorld applies the affine to a (col, row) pixel coordinate; integer
// values give a pixel's upper-left corner, +0.5 on each axis its center.
func (a Affine) PixelToWorld(col, row float64) (x, y float64) {
	return a.A0 + col*a.A1 + row*a.A2, a.A3 + col*a.A4 + row*a.A5
}

// BandStack holds the seven parallel arrays read for one moment's window,
// all sharing one (Rows, Cols) shape, plus the coordinate grids and
// derived valid-pixel mask described in DATA MODEL.
type BandStack struct {
	Rows, Cols int

	C04, C07, C11, C13, C14, C15 []float64 // row-major, len == Rows*Cols
	Phase                        []int8

	X, Y []float64 // native scan-angle coordinates of the window, len Cols / Rows
	Lat  []float64 // row-major, len == Rows*Cols
	Lon  []float64

	Affine Affine
	CRS    GeostationaryParams

	// ValidMask[i] is true iff every band, lat and lon is finite at
	// pixel i. Invariant (iii) in DATA MODEL ties this to AshRaster==255.
	ValidMask []bool
}

// Index returns the row-major offset for (row, col).
func (b *BandStack) Index(row, col int) int { return row*b.Cols + col }

// NodataCode is the AshRaster sentinel for "no valid input at this pixel".
const NodataCode = 255

// AshRaster is the (Rows, Cols) array of classification codes: 0 clear,
// 1..5 ash categories, 255 nodata. Pixel (0,0) is the raster's upper-left
// corner, at (Affine.A0, Affine.A3).
type AshRaster struct {
	Rows, Cols int
	Codes      []uint8 // row-major, len == Rows*Cols
	Affine     Affine
	// CRSWellKnownText is empty for the native geostationary CRS, or an
	// EPSG:4326 WKT string when the raster has been reprojected.
	CRSWellKnownText string
	Geographic       bool
}

func NewAshRaster(rows, cols int, affine Affine) *AshRaster {
	codes := make([]uint8, rows*cols)
	for i := range codes {
		codes[i] = NodataCode
	}
	return &AshRaster{Rows: rows, Cols: cols, Codes: codes, Affine: affine}
}

func (r *AshRaster) Index(row, col int) int { return row*r.Cols + col }

// BBox is a geographic bounding box in WGS84 degrees, ordered the way
// spec.md's CLI surface and Reprojector describe it:
// (lonMin, latMax, lonMax, latMin).
type BBox struct {
	LonMin, LatMax, LonMax, LatMin float64
}
