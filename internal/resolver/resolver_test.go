package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lanot-mx/ceniza/internal/model"
	"github.com/lanot-mx/ceniza/internal/timemodel"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestResolvePrefersCGOverProvider(t *testing.T) {
	dir := t.TempDir()
	// OR_ written first; CG_ must still win.
	touch(t, dir, "OR_ABI-L2-CMIPF-M6C07_G16_s20253161600000_e000_c000.nc")
	touch(t, dir, "CG_ABI-L2-CMIPF-M6C07_G16_s20253161600000_e000_c000.nc")

	m := timemodel.Moment{Julian: "20253161600", Year: 2025, Month: 11, Day: 12}
	result, err := Resolve(dir, m, []model.Product{model.ProductC07}, false)
	if err != nil {
		t.Fatal(err)
	}
	match, ok := result[model.ProductC07]
	if !ok {
		t.Fatal("expected C07 match")
	}
	if got := filepath.Base(match.Path); got[:3] != "CG_" {
		t.Errorf("got %q, want CG_ prefix", got)
	}
}

func TestResolveActpAndBandBoundaries(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "OR_ABI-L2-ACTPC-M6_G16_s20253161600000_e000_c000.nc")
	touch(t, dir, "OR_ABI-L2-CMIPF-M3C07_G16_s20253161600000_e000_c000.nc")

	m := timemodel.Moment{Julian: "20253161600", Year: 2025, Month: 11, Day: 12}
	result, err := Resolve(dir, m, []model.Product{model.ProductACTP, model.ProductC07}, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := result[model.ProductACTP]; !ok {
		t.Error("expected ACTP match")
	}
	if _, ok := result[model.ProductC07]; !ok {
		t.Error("expected C07 match")
	}
}

func TestResolveIncomplete(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "OR_ABI-L2-CMIPF-M3C07_G16_s20253161600000_e000_c000.nc")

	m := timemodel.Moment{Julian: "20253161600", Year: 2025, Month: 11, Day: 12}
	result, err := Resolve(dir, m, []model.Product{model.ProductC07, model.ProductC13}, false)
	if err != nil {
		t.Fatal(err)
	}
	if !Incomplete(result, []model.Product{model.ProductC07, model.ProductC13}) {
		t.Error("expected Incomplete to be true")
	}
}

func TestResolveDirMissing(t *testing.T) {
	m := timemodel.Moment{Julian: "20253161600", Year: 2025, Month: 11, Day: 12}
	result, err := Resolve(filepath.Join(t.TempDir(), "nope"), m, []model.Product{model.ProductC07}, false)
	if err != nil {
		t.Fatalf("expected nil error for missing dir, got %v", err)
	}
	if len(result) != 0 {
		t.Errorf("expected empty result, got %v", result)
	}
}

func TestResolveTiered(t *testing.T) {
	root := t.TempDir()
	tiered := filepath.Join(root, "2025", "11", "12")
	if err := os.MkdirAll(tiered, 0755); err != nil {
		t.Fatal(err)
	}
	touch(t, tiered, "OR_ABI-L2-CMIPF-M6C13_G16_s20253161600000_e000_c000.nc")

	m := timemodel.Moment{Julian: "20253161600", Year: 2025, Month: 11, Day: 12}
	result, err := Resolve(root, m, []model.Product{model.ProductC13}, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := result[model.ProductC13]; !ok {
		t.Error("expected C13 match under tiered path")
	}
}
