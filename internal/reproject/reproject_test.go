package reproject

import (
	"math"
	"testing"

	"github.com/lanot-mx/ceniza/internal/model"
	"github.com/lanot-mx/ceniza/internal/projection"
)

func abiCRS() projection.CRS {
	return projection.BuildCRS(model.GeostationaryParams{
		PerspectiveHeight:     35786023.0,
		LongitudeOfProjOrigin: -75.0,
		SweepAngleAxis:        "x",
		SemiMajorAxis:         6378137.0,
		SemiMinorAxis:         6356752.31414,
	})
}

func TestReprojectBBoxExactness(t *testing.T) {
	crs := abiCRS()
	xCoords := make([]float64, 300)
	yCoords := make([]float64, 300)
	for i := range xCoords {
		xCoords[i] = -0.06 + float64(i)*0.0004
		yCoords[i] = 0.06 - float64(i)*0.0004
	}
	src := model.NewAshRaster(300, 300, model.Affine{})
	for i := range src.Codes {
		src.Codes[i] = 1
	}

	bbox := model.BBox{LonMin: -76, LatMax: 1, LonMax: -74, LatMin: -1}
	out, err := Reproject(src, crs, xCoords, yCoords, bbox, 0.02)
	if err != nil {
		t.Fatal(err)
	}

	if out.Affine.A0 != bbox.LonMin {
		t.Errorf("A0 = %v, want %v", out.Affine.A0, bbox.LonMin)
	}
	if out.Affine.A3 != bbox.LatMax {
		t.Errorf("A3 = %v, want %v", out.Affine.A3, bbox.LatMax)
	}
	gotLonMax := out.Affine.A0 + float64(out.Cols)*out.Affine.A1
	if math.Abs(gotLonMax-bbox.LonMax) > 1e-9 {
		t.Errorf("round-tripped lonMax = %v, want %v", gotLonMax, bbox.LonMax)
	}
	gotLatMin := out.Affine.A3 + float64(out.Rows)*out.Affine.A5
	if math.Abs(gotLatMin-bbox.LatMin) > 1e-9 {
		t.Errorf("round-tripped latMin = %v, want %v", gotLatMin, bbox.LatMin)
	}
}

func TestReprojectRejectsEmptyBBox(t *testing.T) {
	crs := abiCRS()
	src := model.NewAshRaster(2, 2, model.Affine{})
	bbox := model.BBox{LonMin: -75, LatMax: -75, LonMax: -75, LatMin: -75}
	if _, err := Reproject(src, crs, []float64{0, 0.01}, []float64{0, 0.01}, bbox, 0.02); err == nil {
		t.Fatal("expected error for zero-area bbox")
	}
}

func TestNearestIndexDescending(t *testing.T) {
	coords := []float64{10, 8, 6, 4, 2}
	if got := nearestIndex(coords, 7); got != 1 && got != 2 {
		t.Errorf("nearestIndex = %d, want 1 or 2", got)
	}
	if got := nearestIndex(coords, 100); got != 0 {
		t.Errorf("nearestIndex clamp high = %d, want 0", got)
	}
	if got := nearestIndex(coords, -100); got != 4 {
		t.Errorf("nearestIndex clamp low = %d, want 4", got)
	}
}
