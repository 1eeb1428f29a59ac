// Package reproject warps a native geostationary AshRaster onto an exact
// EPSG:4326 target grid by nearest-neighbor resampling, per §4.8.
package reproject

import (
	"errors"
	"math"

	"github.com/lanot-mx/ceniza/internal/errs"
	"github.com/lanot-mx/ceniza/internal/model"
	"github.com/lanot-mx/ceniza/internal/projection"
)

// DefaultResolutionDeg is the approximate target resolution §4.8 names;
// the actual per-axis resolution is back-solved from range/size so the
// requested bbox is reproduced bit-exact.
const DefaultResolutionDeg = 0.02

// Reproject resamples src (native CRS, categorical codes) onto a WGS84
// grid covering bbox exactly, at approximately resDeg resolution. crs is
// the source's geostationary projection, used to invert each target
// pixel center back into native scan-angle coordinates for nearest-
// neighbor sampling. xCoords/yCoords are the native dimensionless
// coordinate arrays of src's own grid (len src.Cols / src.Rows, the
// window's arrays for a clipped read), needed to locate the nearest
// native pixel once the scan angle is known.
func Reproject(src *model.AshRaster, crs projection.CRS, xCoords, yCoords []float64, bbox model.BBox, resDeg float64) (*model.AshRaster, error) {
	if resDeg <= 0 {
		resDeg = DefaultResolutionDeg
	}

	lonRange := bbox.LonMax - bbox.LonMin
	latRange := bbox.LatMax - bbox.LatMin
	if lonRange <= 0 || latRange <= 0 {
		return nil, errs.New(errs.EmptyWindow, "reproject.Reproject", errors.New("bbox has non-positive lon/lat range"))
	}

	width := int(math.Round(lonRange / resDeg))
	height := int(math.Round(latRange / resDeg))
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	// Back-solve the exact per-axis resolution from range/size so the
	// target bbox round-trips through the affine exactly, per §4.8.
	resLon := lonRange / float64(width)
	resLat := latRange / float64(height)

	affine := model.Affine{
		A0: bbox.LonMin, A1: resLon, A2: 0,
		A3: bbox.LatMax, A4: 0, A5: -resLat,
	}

	out := model.NewAshRaster(height, width, affine)
	out.Geographic = true
	out.CRSWellKnownText = wgs84WKT

	for row := 0; row < height; row++ {
		lat := bbox.LatMax - (float64(row)+0.5)*resLat
		for col := 0; col < width; col++ {
			lon := bbox.LonMin + (float64(col)+0.5)*resLon

			x, y, ok := crs.Forward(lat, lon)
			if !ok {
				continue // leave as NodataCode
			}

			srcCol := nearestIndex(xCoords, x)
			srcRow := nearestIndex(yCoords, y)
			if srcRow < 0 || srcRow >= src.Rows || srcCol < 0 || srcCol >= src.Cols {
				continue
			}

			out.Codes[row*width+col] = src.Codes[src.Index(srcRow, srcCol)]
		}
	}

	return out, nil
}

// nearestIndex returns the index into a monotonic coordinate array
// closest to target, or -1 if coords is empty.
func nearestIndex(coords []float64, target float64) int {
	if len(coords) == 0 {
		return -1
	}
	ascending := coords[len(coords)-1] >= coords[0]
	lo, hi := 0, len(coords)
	for lo < hi {
		mid := (lo + hi) / 2
		v := coords[mid]
		less := v < target
		if ascending == less {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo <= 0 {
		return 0
	}
	if lo >= len(coords) {
		return len(coords) - 1
	}
	if math.Abs(coords[lo]-target) < math.Abs(coords[lo-1]-target) {
		return lo
	}
	return lo - 1
}

const wgs84WKT = `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]]`
