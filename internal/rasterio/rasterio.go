// Package rasterio applies the fixed ash-category palette to a
// classified raster and writes it as a 4-band LZW-compressed GeoTIFF,
// per §4.9, via the pkg/geotiff encoder.
package rasterio

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/lanot-mx/ceniza/internal/errs"
	"github.com/lanot-mx/ceniza/internal/model"
	"github.com/lanot-mx/ceniza/pkg/geotiff"
)

// Palette maps an ash category code to its RGBA color, per §4.9. Codes 0
// and 255 are both fully transparent.
var Palette = map[uint8]color.RGBA{
	0:                {R: 0, G: 0, B: 0, A: 0},
	1:                {R: 255, G: 0, B: 0, A: 255},
	2:                {R: 255, G: 165, B: 0, A: 255},
	3:                {R: 255, G: 255, B: 0, A: 255},
	4:                {R: 0, G: 255, B: 0, A: 255},
	5:                {R: 0, G: 0, B: 255, A: 255},
	model.NodataCode: {R: 0, G: 0, B: 0, A: 0},
}

// Colorize renders an AshRaster's category codes into an RGBA image via
// Palette; an unrecognized code renders fully transparent.
func Colorize(r *model.AshRaster) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.Cols, r.Rows))
	for row := 0; row < r.Rows; row++ {
		for col := 0; col < r.Cols; col++ {
			code := r.Codes[r.Index(row, col)]
			c, ok := Palette[code]
			if !ok {
				c = color.RGBA{}
			}
			img.SetRGBA(col, row, c)
		}
	}
	return img
}

// WriteGeoTIFF colorizes r and writes it to w as an LZW-compressed RGBA
// GeoTIFF, tagging ModelPixelScale/ModelTiepoint from r.Affine and, when
// r.Geographic is set, an EPSG:4326 GeoKeyDirectory.
func WriteGeoTIFF(w io.Writer, r *model.AshRaster) error {
	img := Colorize(r)

	extraTags := map[uint16]interface{}{
		geotiff.TagType_ModelPixelScaleTag: geotiff.ModelPixelScale(r.Affine.A1, r.Affine.A5),
		geotiff.TagType_ModelTiepointTag:   geotiff.ModelTiepoint(r.Affine.A0, r.Affine.A3),
	}
	if r.Geographic {
		extraTags[geotiff.TagType_GeoKeyDirectoryTag] = geotiff.GeographicKeyDirectory()
	}
	extraTags[geotiff.TagType_GeoAsciiParamsTag] = "Ash Detection Classification|category|"

	if err := geotiff.Encode(w, img, extraTags); err != nil {
		return errs.New(errs.WriteFailed, "rasterio.WriteGeoTIFF", fmt.Errorf("encoding GeoTIFF: %w", err))
	}
	return nil
}
