package rasterio

import (
	"bytes"
	"testing"

	"github.com/lanot-mx/ceniza/internal/model"
)

func TestColorizeAppliesPalette(t *testing.T) {
	r := model.NewAshRaster(1, 3, model.Affine{})
	r.Codes[0] = 0
	r.Codes[1] = 1
	r.Codes[2] = model.NodataCode

	img := Colorize(r)
	if c := img.RGBAAt(1, 0); c.R != 255 || c.A != 255 {
		t.Errorf("code 1 color = %+v, want opaque red", c)
	}
	if c := img.RGBAAt(2, 0); c.A != 0 {
		t.Errorf("nodata color = %+v, want transparent", c)
	}
}

func TestWriteGeoTIFFProducesNonEmptyOutput(t *testing.T) {
	r := model.NewAshRaster(4, 4, model.Affine{A0: -75, A1: 0.02, A3: 20, A5: -0.02})
	r.Geographic = true
	var buf bytes.Buffer
	if err := WriteGeoTIFF(&buf, r); err != nil {
		t.Fatal(err)
	}
	if buf.Len() < 8 {
		t.Fatalf("output too small: %d bytes", buf.Len())
	}
	header := buf.Bytes()[:4]
	if header[0] != 'I' || header[1] != 'I' || header[2] != 0x2A {
		t.Errorf("unexpected TIFF header: %v", header)
	}
}
