package orchestrator

import (
	"testing"

	"github.com/lanot-mx/ceniza/internal/timemodel"
)

func testMoment(t *testing.T) timemodel.Moment {
	t.Helper()
	moments, err := timemodel.Parse("202307312340")
	if err != nil {
		t.Fatal(err)
	}
	return moments[0]
}

func TestOutputPathNative(t *testing.T) {
	m := testMoment(t)
	got := outputPath("/out", m, "", "tif")
	want := "/out/ceniza_" + m.Format() + ".tif"
	if got != want {
		t.Errorf("outputPath = %q, want %q", got, want)
	}
}

func TestOutputPathGeoSuffix(t *testing.T) {
	m := testMoment(t)
	got := outputPath("/out", m, "_geo", "png")
	want := "/out/ceniza_" + m.Format() + "_geo.png"
	if got != want {
		t.Errorf("outputPath = %q, want %q", got, want)
	}
}

func TestFailedJuliansCollectsOnlyErrors(t *testing.T) {
	m := testMoment(t)
	results := []Result{
		{Moment: m, OutputPath: "a.tif", Err: nil},
		{Moment: m, Err: errTest{}},
	}
	got := FailedJulians(results)
	if len(got) != 1 || got[0] != m.Format() {
		t.Errorf("FailedJulians = %+v", got)
	}
}

type errTest struct{}

func (errTest) Error() string { return "boom" }
