// Package ncreader opens an ABI product file and exposes its 2-D data
// array, projection attributes, pixel coordinate arrays, and acquisition
// timestamp, supporting windowed reads that never materialize the full
// array in memory.
package ncreader

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/ctessum/cdf"

	"github.com/lanot-mx/ceniza/internal/errs"
	"github.com/lanot-mx/ceniza/internal/model"
)

// missingSentinel is substituted with NaN when no file-specific
// _FillValue attribute is present.
const missingSentinel = float32(-999.0)

// Reader wraps an open NetCDF3-classic product file.
type Reader struct {
	path string
	osf  *os.File
	f    *cdf.File
}

// Open opens path for reading. Callers must call Close when done. cdf.Open
// reads from an io.ReaderAt, so the *os.File handle is opened first and kept
// alongside the *cdf.File for later Close.
func Open(path string) (*Reader, error) {
	osf, err := os.Open(path)
	if err != nil {
		return nil, errs.New(errs.OpenFailed, "ncreader.Open", fmt.Errorf("%s: %w", path, err))
	}
	f, err := cdf.Open(osf)
	if err != nil {
		osf.Close()
		return nil, errs.New(errs.OpenFailed, "ncreader.Open", fmt.Errorf("%s: %w", path, err))
	}
	return &Reader{path: path, osf: osf, f: f}, nil
}

func (r *Reader) Close() error {
	return r.osf.Close()
}

// Shape returns the (rows, cols) of varName's 2-D grid.
func (r *Reader) Shape(varName string) (rows, cols int, err error) {
	dims := r.f.Header.Lengths(varName)
	if len(dims) != 2 {
		return 0, 0, errs.New(errs.OpenFailed, "ncreader.Shape", fmt.Errorf("%s: variable %q has %d dims, want 2", r.path, varName, len(dims)))
	}
	return dims[0], dims[1], nil
}

// ReadWindow reads the [row0:row1, col0:col1) sub-rectangle of varName
// (row-major), substituting fill as NaN, without reading the full array.
func (r *Reader) ReadWindow(varName string, row0, row1, col0, col1 int) ([]float64, error) {
	dims := r.f.Header.Lengths(varName)
	if len(dims) != 2 {
		return nil, errs.New(errs.OpenFailed, "ncreader.ReadWindow", fmt.Errorf("%s: variable %q has %d dims, want 2", r.path, varName, len(dims)))
	}

	fill := r.fillValue(varName)
	rows := row1 - row0
	cols := col1 - col0
	out := make([]float64, rows*cols)

	for row := row0; row < row1; row++ {
		begin := []int{row, col0}
		end := []int{row + 1, col1}
		rdr := r.f.Reader(varName, begin, end)
		buf := make([]float32, cols)
		if _, err := rdr.Read(buf); err != nil {
			return nil, errs.New(errs.OpenFailed, "ncreader.ReadWindow", fmt.Errorf("%s: reading %s row %d: %w", r.path, varName, row, err))
		}
		for c, v := range buf {
			if v == fill || math.IsNaN(float64(v)) {
				out[(row-row0)*cols+c] = math.NaN()
				continue
			}
			out[(row-row0)*cols+c] = float64(v)
		}
	}
	return out, nil
}

// ReadPhaseWindow reads an int8 categorical window (the ACTP Phase
// variable), which carries no floating fill semantics.
func (r *Reader) ReadPhaseWindow(varName string, row0, row1, col0, col1 int) ([]int8, error) {
	rows := row1 - row0
	cols := col1 - col0
	out := make([]int8, rows*cols)
	for row := row0; row < row1; row++ {
		begin := []int{row, col0}
		end := []int{row + 1, col1}
		rdr := r.f.Reader(varName, begin, end)
		buf := make([]int8, cols)
		if _, err := rdr.Read(buf); err != nil {
			return nil, errs.New(errs.OpenFailed, "ncreader.ReadPhaseWindow", fmt.Errorf("%s: reading %s row %d: %w", r.path, varName, row, err))
		}
		copy(out[(row-row0)*cols:], buf)
	}
	return out, nil
}

// Coords reads the full dimensionless x or y coordinate array.
func (r *Reader) Coords(varName string) ([]float64, error) {
	dims := r.f.Header.Lengths(varName)
	if len(dims) != 1 {
		return nil, errs.New(errs.OpenFailed, "ncreader.Coords", fmt.Errorf("%s: variable %q has %d dims, want 1", r.path, varName, len(dims)))
	}
	n := dims[0]
	rdr := r.f.Reader(varName, []int{0}, []int{n})
	buf := make([]float64, n)
	if _, err := rdr.Read(buf); err != nil {
		return nil, errs.New(errs.OpenFailed, "ncreader.Coords", fmt.Errorf("%s: reading %s: %w", r.path, varName, err))
	}
	return buf, nil
}

// Projection reads the goes_imager_projection attribute group.
func (r *Reader) Projection() (model.GeostationaryParams, error) {
	const v = "goes_imager_projection"
	h, err := r.floatAttr(v, "perspective_point_height")
	if err != nil {
		return model.GeostationaryParams{}, errs.New(errs.BadProjection, "ncreader.Projection", err)
	}
	lon0, err := r.floatAttr(v, "longitude_of_projection_origin")
	if err != nil {
		return model.GeostationaryParams{}, errs.New(errs.BadProjection, "ncreader.Projection", err)
	}
	a, err := r.floatAttr(v, "semi_major_axis")
	if err != nil {
		return model.GeostationaryParams{}, errs.New(errs.BadProjection, "ncreader.Projection", err)
	}
	b, err := r.floatAttr(v, "semi_minor_axis")
	if err != nil {
		return model.GeostationaryParams{}, errs.New(errs.BadProjection, "ncreader.Projection", err)
	}
	sweep, _ := r.stringAttr(v, "sweep_angle_axis")
	if sweep == "" {
		sweep = "x"
	}
	return model.GeostationaryParams{
		PerspectiveHeight:     h,
		LongitudeOfProjOrigin: lon0,
		SweepAngleAxis:        sweep,
		SemiMajorAxis:         a,
		SemiMinorAxis:         b,
	}, nil
}

// TimeCoverageStart parses the global time_coverage_start attribute.
func (r *Reader) TimeCoverageStart() (time.Time, error) {
	s, err := r.globalStringAttr("time_coverage_start")
	if err != nil {
		return time.Time{}, errs.New(errs.OpenFailed, "ncreader.TimeCoverageStart", err)
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02T15:04:05.9Z", s)
		if err != nil {
			return time.Time{}, errs.New(errs.OpenFailed, "ncreader.TimeCoverageStart", fmt.Errorf("parsing %q: %w", s, err))
		}
	}
	return t.UTC(), nil
}

func (r *Reader) fillValue(varName string) float32 {
	v, err := r.floatAttr(varName, "_FillValue")
	if err != nil {
		return missingSentinel
	}
	return float32(v)
}

func (r *Reader) floatAttr(varName, attr string) (float64, error) {
	raw := r.f.Header.GetAttribute(varName, attr)
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case []float64:
		if len(v) > 0 {
			return v[0], nil
		}
	case []float32:
		if len(v) > 0 {
			return float64(v[0]), nil
		}
	}
	return 0, fmt.Errorf("%s: attribute %s.%s not a float", r.path, varName, attr)
}

func (r *Reader) stringAttr(varName, attr string) (string, error) {
	raw := r.f.Header.GetAttribute(varName, attr)
	if s, ok := raw.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("%s: attribute %s.%s not a string", r.path, varName, attr)
}

func (r *Reader) globalStringAttr(attr string) (string, error) {
	raw := r.f.Header.GetAttribute("", attr)
	if s, ok := raw.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("%s: global attribute %s not a string", r.path, attr)
}
