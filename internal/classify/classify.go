// Package classify implements the staged ash decision tree of §4.7: band
// differences, a texture-anomaly score, per-illumination-regime raw
// codes, two threshold refinements, and a final cloud-phase refinement,
// with the invalid-pixel mask overwriting everything to the nodata
// sentinel last.
package classify

import (
	"context"

	"github.com/lanot-mx/ceniza/internal/model"
	"github.com/lanot-mx/ceniza/internal/solar"
	"github.com/lanot-mx/ceniza/internal/texture"
)

// kernelSize is the TextureFilter window size §4.7 specifies for δ1.
const kernelSize = 5

// Phase codes as carried by the ACTP product's Phase variable.
const (
	phaseClear = 0
	phaseWater = 1
	phaseFog   = 2 // "≥2" in §4.7's phase refinement covers Fog/Mixed/Ice
)

// Classify runs the full decision tree over one moment's band stack and
// per-pixel solar zenith angle, returning the AshRaster codes (pre-nodata
// overwrite is folded in here via stack.ValidMask).
func Classify(ctx context.Context, stack *model.BandStack, sza []float64) (*model.AshRaster, error) {
	n := stack.Rows * stack.Cols

	delta1 := make([]float64, n)
	delta2 := make([]float64, n)
	delta3 := make([]float64, n)
	for i := 0; i < n; i++ {
		delta1[i] = stack.C13[i] - stack.C15[i]
		delta2[i] = stack.C11[i] - stack.C13[i]
		delta3[i] = stack.C07[i] - stack.C13[i]
	}

	tex, err := texture.Filter(ctx, delta1, stack.Rows, stack.Cols, kernelSize)
	if err != nil {
		return nil, err
	}

	raster := model.NewAshRaster(stack.Rows, stack.Cols, stack.Affine)

	for i := 0; i < n; i++ {
		d1, d2, d3 := delta1[i], delta2[i], delta3[i]
		texAnomaly := d1 - tex.Mean[i]*tex.Std[i]

		regime := solar.Classify(sza[i])
		nScore := textureScore(d1, texAnomaly)
		r := rawCode(regime, d1, d2, d3, stack.C04[i], stack.C13[i], nScore)
		u1 := refineU1(r, d2)
		u2 := refineU2(u1, d3)
		final := refinePhase(u2, stack.Phase[i])

		if !stack.ValidMask[i] {
			final = model.NodataCode
		}
		raster.Codes[i] = final
	}

	return raster, nil
}

// textureScore implements §4.7's N score.
func textureScore(delta1, texAnomaly float64) int {
	switch {
	case delta1 < 0 && texAnomaly < -1:
		return 1
	case delta1 < 1 && texAnomaly < -1:
		return 2
	default:
		return 0
	}
}

// rawCode implements §4.7's per-regime R table, folding in the N score
// per the "∨ N=k" clauses.
func rawCode(regime solar.Regime, delta1, delta2, delta3, c04, c13 float64, n int) int {
	coreR1 := delta1 < 0 && delta2 > 0 && delta3 > 2

	var r2 bool
	switch regime {
	case solar.RegimeNight:
		r2 = delta1 < 1 && delta2 > -0.5 && delta3 > 2
	case solar.RegimeTwilight:
		r2 = delta1 < 1 && delta2 > -0.5 && delta3 > 2 && c04 > 0.002 && c13 < 273.15
	default: // Day
		r2 = delta1 < 1 && delta2 > -0.5 && delta3 > 2 && c04 > 0.002
	}

	switch {
	case coreR1 || n == 1:
		return 1
	case r2 || n == 2:
		return 2
	default:
		return 0
	}
}

// refineU1 implements §4.7's threshold refinement U1.
func refineU1(r int, delta2 float64) int {
	switch {
	case r == 1:
		return 1
	case r == 2 && delta2 >= -1:
		return 2
	case r == 2 && delta2 >= -1.5:
		return 3
	default:
		return r
	}
}

// refineU2 implements §4.7's threshold refinement U2.
func refineU2(u1 int, delta3 float64) int {
	switch {
	case u1 <= 2 && delta3 <= 0:
		return 0
	case u1 >= 3 && delta3 <= 1.5:
		return 0
	default:
		return u1
	}
}

// refinePhase implements §4.7's final cloud-phase refinement.
func refinePhase(u2 int, phase int8) uint8 {
	switch {
	case u2 == 2 && phase == phaseWater:
		return 3
	case u2 == 2 && phase == 4:
		return 0
	case u2 == 3 && phase == phaseWater:
		return 0
	case u2 == 3 && phase >= phaseFog:
		return 0
	default:
		return uint8(u2)
	}
}
