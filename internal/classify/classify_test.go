package classify

import (
	"testing"

	"github.com/lanot-mx/ceniza/internal/solar"
)

func TestTextureScore(t *testing.T) {
	cases := []struct {
		delta1, texAnomaly float64
		want               int
	}{
		{-0.5, -2, 1},
		{0.5, -2, 2},
		{2, -2, 0},
		{-0.5, 0, 0},
	}
	for _, c := range cases {
		if got := textureScore(c.delta1, c.texAnomaly); got != c.want {
			t.Errorf("textureScore(%v, %v) = %d, want %d", c.delta1, c.texAnomaly, got, c.want)
		}
	}
}

func TestRawCodeNightCoreAsh(t *testing.T) {
	got := rawCode(solar.RegimeNight, -1, 1, 3, 0, 250, 0)
	if got != 1 {
		t.Errorf("got %d, want 1", got)
	}
}

func TestRawCodeDayRequiresReflectance(t *testing.T) {
	// δ1<1, δ2>-0.5, δ3>2 but c04 too low: day regime should not fire R=2.
	got := rawCode(solar.RegimeDay, 0.5, 0, 3, 0.0001, 250, 0)
	if got != 0 {
		t.Errorf("got %d, want 0 (c04 below day threshold)", got)
	}
}

func TestRawCodeTwilightRequiresColdBTAndReflectance(t *testing.T) {
	got := rawCode(solar.RegimeTwilight, 0.5, 0, 3, 0.01, 280, 0)
	if got != 0 {
		t.Errorf("got %d, want 0 (c13 above twilight threshold)", got)
	}
	got = rawCode(solar.RegimeTwilight, 0.5, 0, 3, 0.01, 270, 0)
	if got != 2 {
		t.Errorf("got %d, want 2", got)
	}
}

func TestRefineU1(t *testing.T) {
	if got := refineU1(1, -5); got != 1 {
		t.Errorf("U1(1,...) = %d, want 1", got)
	}
	if got := refineU1(2, -0.5); got != 2 {
		t.Errorf("U1(2,-0.5) = %d, want 2", got)
	}
	if got := refineU1(2, -1.2); got != 3 {
		t.Errorf("U1(2,-1.2) = %d, want 3", got)
	}
	if got := refineU1(2, -2); got != 2 {
		t.Errorf("U1(2,-2) = %d, want 2 (pass-through)", got)
	}
	if got := refineU1(0, 0); got != 0 {
		t.Errorf("U1(0,...) = %d, want 0", got)
	}
}

func TestRefineU2(t *testing.T) {
	if got := refineU2(2, -1); got != 0 {
		t.Errorf("U2(2,-1) = %d, want 0", got)
	}
	if got := refineU2(3, 1); got != 0 {
		t.Errorf("U2(3,1) = %d, want 0", got)
	}
	if got := refineU2(3, 2); got != 3 {
		t.Errorf("U2(3,2) = %d, want 3", got)
	}
	if got := refineU2(1, -5); got != 0 {
		t.Errorf("U2(1,-5) = %d, want 0 (U1<=2 and delta3<=0)", got)
	}
}

func TestRefinePhase(t *testing.T) {
	if got := refinePhase(2, phaseWater); got != 3 {
		t.Errorf("phase(2,water) = %d, want 3", got)
	}
	if got := refinePhase(2, 4); got != 0 {
		t.Errorf("phase(2,4) = %d, want 0", got)
	}
	if got := refinePhase(3, phaseWater); got != 0 {
		t.Errorf("phase(3,water) = %d, want 0", got)
	}
	if got := refinePhase(3, phaseFog); got != 0 {
		t.Errorf("phase(3,fog) = %d, want 0", got)
	}
	if got := refinePhase(1, phaseClear); got != 1 {
		t.Errorf("phase(1,clear) = %d, want 1 (pass-through)", got)
	}
}
