package solar

import (
	"math"
	"testing"
	"time"
)

func TestComputeEphemerisMarchEquinox(t *testing.T) {
	// Near the March equinox the Sun's declination is close to zero.
	eph := ComputeEphemeris(time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC))
	if math.Abs(eph.DecRad*rad2deg) > 1.0 {
		t.Errorf("declination at equinox = %v deg, want ~0", eph.DecRad*rad2deg)
	}
}

func TestZenithAngleSubsolarPoint(t *testing.T) {
	eph := ComputeEphemeris(time.Date(2025, 6, 21, 12, 0, 0, 0, time.UTC))
	// The subsolar longitude at this instant: LHA=0 => lon = RA - GAST.
	subLon := eph.RARad*rad2deg - eph.GASTDeg
	subLon = math.Mod(subLon+540, 360) - 180
	subLat := eph.DecRad * rad2deg

	sza := ZenithAngles(eph, []float64{subLat}, []float64{subLon})
	if sza[0] > 1.0 {
		t.Errorf("SZA at subsolar point = %v, want ~0", sza[0])
	}
}

func TestZenithAngleNaNPropagates(t *testing.T) {
	eph := ComputeEphemeris(time.Date(2025, 6, 21, 12, 0, 0, 0, time.UTC))
	sza := ZenithAngles(eph, []float64{math.NaN()}, []float64{0})
	if !math.IsNaN(sza[0]) {
		t.Errorf("expected NaN to propagate, got %v", sza[0])
	}
}

func TestClassifyRegimes(t *testing.T) {
	cases := []struct {
		sza  float64
		want Regime
	}{
		{0, RegimeDay},
		{69.9, RegimeDay},
		{70, RegimeTwilight},
		{85, RegimeTwilight},
		{85.1, RegimeNight},
		{math.NaN(), RegimeNight},
	}
	for _, c := range cases {
		if got := Classify(c.sza); got != c.want {
			t.Errorf("Classify(%v) = %v, want %v", c.sza, got, c.want)
		}
	}
}
