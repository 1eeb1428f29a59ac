// Package projection builds the geostationary CRS from a product file's
// projection attributes, computes the pixel<->world affine, slices a
// bounding box down to a pixel window in native coordinates, and inverts
// the fixed-grid projection to recover per-pixel latitude/longitude.
package projection

import (
	"fmt"
	"math"
	"sort"

	"github.com/lanot-mx/ceniza/internal/errs"
	"github.com/lanot-mx/ceniza/internal/model"
)

// CRS is the geostationary coordinate reference system parameterized by
// one product file's goes_imager_projection attributes.
type CRS struct {
	H      float64 // satellite height above the ellipsoid surface, meters
	Req    float64 // semi-major axis, meters
	Rpol   float64 // semi-minor axis, meters
	Lambda0 float64 // longitude of projection origin, radians
	totalH float64 // H + Req, distance from Earth center to satellite
}

// BuildCRS constructs the CRS from a file's projection parameters.
func BuildCRS(p model.GeostationaryParams) CRS {
	return CRS{
		H:       p.PerspectiveHeight,
		Req:     p.SemiMajorAxis,
		Rpol:    p.SemiMinorAxis,
		Lambda0: p.LongitudeOfProjOrigin * math.Pi / 180.0,
		totalH:  p.PerspectiveHeight + p.SemiMajorAxis,
	}
}

// Affine computes the pixel->world affine from the native dimensionless
// coordinate arrays of the grid it describes (the window's arrays for a
// clipped read), per §4.4: world meters are scan-angle * H, xres > 0,
// yres < 0, and the outer corner is the first pixel center offset by half
// a pixel outward.
func (c CRS) Affine(xCoords, yCoords []float64) (model.Affine, error) {
	if len(xCoords) < 2 || len(yCoords) < 2 {
		return model.Affine{}, errs.New(errs.BadProjection, "projection.Affine", fmt.Errorf("need >= 2 coordinates per axis, got x=%d y=%d", len(xCoords), len(yCoords)))
	}
	dx := (xCoords[1] - xCoords[0]) * c.H
	dy := (yCoords[1] - yCoords[0]) * c.H
	xres := math.Abs(dx)
	yres := -math.Abs(dy)

	xUL := xCoords[0]*c.H - xres/2
	yUL := yCoords[0]*c.H - yres/2 // yres is negative, so this moves outward upward

	return model.Affine{
		A0: xUL, A1: xres, A2: 0,
		A3: yUL, A4: 0, A5: yres,
	}, nil
}

// WindowFromBBox finds the smallest inclusive pixel slice (row0,row1,col0,col1)
// of the full native coordinate arrays whose world bbox contains bbox, per
// §4.4. pad is a fraction of the window's extent added symmetrically on
// each side (used ahead of reprojection to avoid starving the resample).
func (c CRS) WindowFromBBox(xCoords, yCoords []float64, bbox model.BBox, pad float64) (row0, row1, col0, col1 int, err error) {
	// Project the bbox's four corners into native scan-angle coordinates.
	corners := [][2]float64{
		{bbox.LonMin, bbox.LatMax},
		{bbox.LonMax, bbox.LatMax},
		{bbox.LonMin, bbox.LatMin},
		{bbox.LonMax, bbox.LatMin},
	}
	var xs, ys []float64
	for _, corner := range corners {
		x, y, ok := c.Forward(corner[1], corner[0])
		if !ok {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if len(xs) == 0 {
		return 0, 0, 0, 0, errs.New(errs.EmptyWindow, "projection.WindowFromBBox", fmt.Errorf("bbox %+v does not project onto the Earth disk", bbox))
	}

	xMin, xMax := minMax(xs)
	yMin, yMax := minMax(ys)

	if pad > 0 {
		padX := (xMax - xMin) * pad
		padY := (yMax - yMin) * pad
		xMin -= padX
		xMax += padX
		yMin -= padY
		yMax += padY
	}

	col0 = nearestIndex(xCoords, xMin)
	col1 = nearestIndex(xCoords, xMax)
	if col0 > col1 {
		col0, col1 = col1, col0
	}
	// yCoords is typically descending (row 0 = northernmost); find indices
	// for the max/min world-y and normalize into ascending row order.
	r0 := nearestIndex(yCoords, yMax)
	r1 := nearestIndex(yCoords, yMin)
	if r0 > r1 {
		r0, r1 = r1, r0
	}
	row0, row1, col1 = r0, r1+1, col1+1

	if row0 < 0 {
		row0 = 0
	}
	if col0 < 0 {
		col0 = 0
	}
	if row1 > len(yCoords) {
		row1 = len(yCoords)
	}
	if col1 > len(xCoords) {
		col1 = len(xCoords)
	}
	if row1 <= row0 || col1 <= col0 {
		return 0, 0, 0, 0, errs.New(errs.EmptyWindow, "projection.WindowFromBBox", fmt.Errorf("bbox %+v yields an empty window", bbox))
	}
	return row0, row1, col0, col1, nil
}

// Forward projects a (lat, lon) in degrees to native scan-angle (x, y).
// It brackets bbox windows here and is also used for nearest-neighbor
// reprojection and overlay vector projection. ok is false when the point
// falls outside the visible disk.
func (c CRS) Forward(latDeg, lonDeg float64) (x, y float64, ok bool) {
	lat := latDeg * math.Pi / 180.0
	lon := lonDeg*math.Pi/180.0 - c.Lambda0

	phiC := math.Atan((c.Rpol * c.Rpol / (c.Req * c.Req)) * math.Tan(lat))
	rc := c.Rpol / math.Sqrt(1-((c.Req*c.Req-c.Rpol*c.Rpol)/(c.Req*c.Req))*math.Cos(phiC)*math.Cos(phiC))

	sx := c.totalH - rc*math.Cos(phiC)*math.Cos(lon)
	sy := -rc * math.Cos(phiC) * math.Sin(lon)
	sz := rc * math.Sin(phiC)

	// Visibility test: the point is hidden behind the Earth's limb when
	// H(H - sx) < sy^2 + (Req^2/Rpol^2) sz^2.
	if c.totalH*(c.totalH-sx) < sy*sy+(c.Req*c.Req/(c.Rpol*c.Rpol))*sz*sz {
		return 0, 0, false
	}

	yv := math.Atan(sz / sx)
	xv := math.Asin(-sy / math.Sqrt(sx*sx+sy*sy+sz*sz))
	return xv, yv, true
}

// PixelGridToLatLon inverts the fixed-grid projection for every (row, col)
// of the native coordinate arrays, per §4.4. Pixels outside the Earth disk
// (a negative discriminant) yield NaN.
func (c CRS) PixelGridToLatLon(xCoords, yCoords []float64) (lat, lon []float64) {
	rows, cols := len(yCoords), len(xCoords)
	lat = make([]float64, rows*cols)
	lon = make([]float64, rows*cols)
	ratio2 := (c.Req / c.Rpol) * (c.Req / c.Rpol)

	for ry, y := range yCoords {
		sinY, cosY := math.Sin(y), math.Cos(y)
		for cx, x := range xCoords {
			sinX, cosX := math.Sin(x), math.Cos(x)

			a := sinX*sinX + cosX*cosX*(cosY*cosY+ratio2*sinY*sinY)
			b := -2 * c.totalH * cosX * cosY
			cc := c.totalH*c.totalH - c.Req*c.Req

			disc := b*b - 4*a*cc
			idx := ry*cols + cx
			if disc < 0 {
				lat[idx] = math.NaN()
				lon[idx] = math.NaN()
				continue
			}
			rs := (-b - math.Sqrt(disc)) / (2 * a)

			sxp := rs * cosX * cosY
			syp := -rs * sinX
			szp := rs * cosX * sinY

			latRad := math.Atan(ratio2 * szp / math.Sqrt((c.totalH-sxp)*(c.totalH-sxp)+syp*syp))
			lonRad := c.Lambda0 - math.Atan(syp/(c.totalH-sxp))

			lat[idx] = latRad * 180.0 / math.Pi
			lon[idx] = lonRad * 180.0 / math.Pi
		}
	}
	return lat, lon
}

func minMax(vs []float64) (min, max float64) {
	min, max = vs[0], vs[0]
	for _, v := range vs[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// nearestIndex returns the index into a monotonic (ascending or
// descending) coordinate array closest to target.
func nearestIndex(coords []float64, target float64) int {
	ascending := coords[len(coords)-1] >= coords[0]
	idx := sort.Search(len(coords), func(i int) bool {
		if ascending {
			return coords[i] >= target
		}
		return coords[i] <= target
	})
	if idx <= 0 {
		return 0
	}
	if idx >= len(coords) {
		return len(coords) - 1
	}
	if math.Abs(coords[idx]-target) < math.Abs(coords[idx-1]-target) {
		return idx
	}
	return idx - 1
}
