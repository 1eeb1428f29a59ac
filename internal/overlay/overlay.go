// Package overlay renders the PNG map annotation of §4.10: named vector
// layers (coastline, countries, states) stroked onto the RGBA raster,
// a logo anchored by position code, and a timestamp/legend block in the
// same typography style the video exporter uses for its date overlay.
// Any single layer, the logo, or the font failing to load is logged and
// skipped; the PNG must still be produced.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"os"
	"time"

	"github.com/jonas-p/go-shp"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/lanot-mx/ceniza/internal/cachelayer"
	"github.com/lanot-mx/ceniza/internal/model"
	"github.com/lanot-mx/ceniza/internal/projection"
)

// LayerName is one of the registry's well-known vector layers, or a
// user-extended one.
type LayerName string

const (
	LayerCoastline LayerName = "COASTLINE"
	LayerCountries LayerName = "COUNTRIES"
	LayerMexStates LayerName = "MEXSTATES"
)

// vectorLayer is a parsed shapefile's polylines/polygon rings, flattened
// to parts of (x, y) vertices in the file's native units, with a bounding
// box for the per-feature reject test.
type vectorLayer struct {
	features []feature
}

type feature struct {
	box   shp.Box
	parts [][]shp.Point
}

// Registry maps layer names to shapefile paths and caches parsed layers.
type Registry struct {
	paths map[LayerName]string
	cache *cachelayer.VectorLayerCache[*vectorLayer]
}

// NewRegistry builds a registry over paths, backed by an LRU of the given
// size (§5: "read-once-per-path, read-only after insertion").
func NewRegistry(paths map[LayerName]string, cacheSize int) (*Registry, error) {
	c, err := cachelayer.NewVectorLayerCache[*vectorLayer](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Registry{paths: paths, cache: c}, nil
}

// RegisterLayer adds or overrides a layer's shapefile path, supporting
// user-extensible layers beyond the three well-known ones.
func (r *Registry) RegisterLayer(name LayerName, path string) {
	if r.paths == nil {
		r.paths = make(map[LayerName]string)
	}
	r.paths[name] = path
}

func (r *Registry) load(name LayerName) (*vectorLayer, error) {
	path, ok := r.paths[name]
	if !ok {
		return nil, fmt.Errorf("no path registered for layer %s", name)
	}
	return r.cache.GetOrLoad(path, parseShapefile)
}

func parseShapefile(path string) (*vectorLayer, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	reader, err := shp.Open(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	layer := &vectorLayer{}
	for reader.Next() {
		_, shape := reader.Shape()
		box := shape.BBox()

		var parts [][]shp.Point
		switch s := shape.(type) {
		case *shp.PolyLine:
			parts = splitParts(s.Points, s.Parts)
		case *shp.Polygon:
			parts = splitParts(s.Points, s.Parts)
		default:
			continue
		}
		layer.features = append(layer.features, feature{box: box, parts: parts})
	}
	return layer, nil
}

func splitParts(points []shp.Point, partIdx []int32) [][]shp.Point {
	var parts [][]shp.Point
	for i := range partIdx {
		start := int(partIdx[i])
		end := len(points)
		if i+1 < len(partIdx) {
			end = int(partIdx[i+1])
		}
		if start < end {
			parts = append(parts, points[start:end])
		}
	}
	return parts
}

// Options configures one overlay render pass.
type Options struct {
	Bounds        model.BBox // lon_min, lat_max, lon_max, lat_min
	CRS           *projection.CRS
	Timestamp     time.Time
	TimestampFmt  string
	Logo          image.Image
	LogoPosition  PositionCode
	LegendRows    []LegendRow
	LegendPos     PositionCode
	FontPath      string
	FontSize      float64
	TextColor     color.RGBA
}

// LegendRow is one swatch+label entry in the legend box.
type LegendRow struct {
	Color color.RGBA
	Label string
}

// DefaultLegend returns the legend rows for the classifier's fixed
// palette (§4.9), skipping the two reserved-but-unused categories and
// nodata.
func DefaultLegend() []LegendRow {
	return []LegendRow{
		{Color: color.RGBA{R: 255, A: 255}, Label: "Ash"},
		{Color: color.RGBA{R: 255, G: 165, A: 255}, Label: "Probable ash"},
		{Color: color.RGBA{R: 255, G: 255, A: 255}, Label: "Less probable ash"},
	}
}

// PositionCode anchors an overlay element: bit0 = right edge, bit1 =
// bottom edge (§4.10).
type PositionCode int

const (
	PosTopLeft PositionCode = iota
	PosTopRight
	PosBottomLeft
	PosBottomRight
)

const margin = 10

// Render draws layers, logo, timestamp, and legend onto img in place,
// choosing which vector layers to draw based on the geographic span
// heuristic in §4.10: under 20 degrees on both axes draws only
// MEXSTATES, else coastline + countries + states.
func Render(img *image.RGBA, registry *Registry, opts Options) {
	lonSpan := opts.Bounds.LonMax - opts.Bounds.LonMin
	latSpan := opts.Bounds.LatMax - opts.Bounds.LatMin

	var layers []LayerName
	if lonSpan < 20 && latSpan < 20 {
		layers = []LayerName{LayerMexStates}
	} else {
		layers = []LayerName{LayerCoastline, LayerCountries, LayerMexStates}
	}

	for _, name := range layers {
		layer, err := registry.load(name)
		if err != nil {
			log.Printf("[MapOverlay] layer %s unavailable: %v", name, err)
			continue
		}
		drawLayer(img, layer, opts)
	}

	face := loadFace(opts.FontPath, opts.FontSize)
	if face == nil {
		log.Printf("[MapOverlay] font unavailable, skipping timestamp/legend text")
	} else {
		drawTimestamp(img, face, opts)
		drawLegend(img, face, opts)
	}

	if opts.Logo != nil {
		drawLogo(img, opts.Logo, opts.LogoPosition)
	}
}

// worldToPixel converts a world (lon, lat) to an image pixel, per §4.10:
// if a target CRS is set, project then linearly interpolate within the
// projected bounds; else interpolate directly in lon/lat (Plate Carrée).
func worldToPixel(lon, lat float64, bounds model.BBox, width, height int, crs *projection.CRS) (x, y float64, ok bool) {
	if crs != nil {
		px, py, projOK := crs.Forward(lat, lon)
		if !projOK {
			return 0, 0, false
		}
		minX, minY, ok2 := projectCorner(crs, bounds.LatMin, bounds.LonMin)
		maxX, maxY, ok3 := projectCorner(crs, bounds.LatMax, bounds.LonMax)
		if !ok2 || !ok3 {
			return 0, 0, false
		}
		x = (px - minX) / (maxX - minX) * float64(width)
		y = float64(height) - (py-minY)/(maxY-minY)*float64(height)
		return x, y, true
	}

	x = (lon - bounds.LonMin) / (bounds.LonMax - bounds.LonMin) * float64(width)
	y = (bounds.LatMax - lat) / (bounds.LatMax - bounds.LatMin) * float64(height)
	return x, y, true
}

func projectCorner(crs *projection.CRS, lat, lon float64) (float64, float64, bool) {
	x, y, ok := crs.Forward(lat, lon)
	return x, y, ok
}

func drawLayer(img *image.RGBA, layer *vectorLayer, opts Options) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	strokeColor := color.RGBA{R: 80, G: 80, B: 80, A: 255}

	imgBox := shp.Box{
		MinX: opts.Bounds.LonMin, MaxX: opts.Bounds.LonMax,
		MinY: opts.Bounds.LatMin, MaxY: opts.Bounds.LatMax,
	}

	for _, f := range layer.features {
		if !boxesOverlap(f.box, imgBox) {
			continue
		}
		for _, part := range f.parts {
			strokePart(img, part, opts.Bounds, width, height, opts.CRS, strokeColor)
		}
	}
}

func boxesOverlap(a, b shp.Box) bool {
	return a.MinX <= b.MaxX && a.MaxX >= b.MinX && a.MinY <= b.MaxY && a.MaxY >= b.MinY
}

// strokePart draws one polyline/ring part, breaking the stroke (soft
// clipping) whenever a vertex falls outside the image bounds, per §4.10.
func strokePart(img *image.RGBA, pts []shp.Point, bounds model.BBox, width, height int, crs *projection.CRS, c color.RGBA) {
	var prevX, prevY float64
	havePrev := false

	for _, p := range pts {
		x, y, ok := worldToPixel(p.X, p.Y, bounds, width, height, crs)
		inBounds := ok && x >= 0 && x < float64(width) && y >= 0 && y < float64(height)
		if !inBounds {
			havePrev = false
			continue
		}
		if havePrev {
			drawLine(img, prevX, prevY, x, y, c)
		}
		prevX, prevY = x, y
		havePrev = true
	}
}

// drawLine draws a naive Bresenham-style line between two float pixel
// coordinates.
func drawLine(img *image.RGBA, x0, y0, x1, y1 float64, c color.RGBA) {
	steps := int(maxAbs(x1-x0, y1-y0))
	if steps < 1 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int(x0 + (x1-x0)*t)
		y := int(y0 + (y1-y0)*t)
		if (image.Point{X: x, Y: y}).In(img.Bounds()) {
			img.SetRGBA(x, y, c)
		}
	}
}

func maxAbs(a, b float64) float64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	if a > b {
		return a
	}
	return b
}

func loadFace(path string, size float64) font.Face {
	if path == "" {
		return nil
	}
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[MapOverlay] reading font %s: %v", path, err)
		return nil
	}
	f, err := opentype.Parse(fontBytes)
	if err != nil {
		log.Printf("[MapOverlay] parsing font %s: %v", path, err)
		return nil
	}
	if size <= 0 {
		size = 14
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Printf("[MapOverlay] creating font face for %s: %v", path, err)
		return nil
	}
	return face
}

func drawTimestamp(img *image.RGBA, face font.Face, opts Options) {
	format := opts.TimestampFmt
	if format == "" {
		format = "2006-01-02 15:04 UTC"
	}
	text := opts.Timestamp.UTC().Format(format)
	textColor := opts.TextColor
	if textColor.A == 0 {
		textColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}

	drawer := &font.Drawer{Dst: img, Src: image.NewUniform(textColor), Face: face}
	b, _ := drawer.BoundString(text)
	tw := (b.Max.X - b.Min.X).Ceil()
	th := (b.Max.Y - b.Min.Y).Ceil()

	x, y := anchor(img.Bounds().Dx(), img.Bounds().Dy(), tw, th, PosBottomRight)
	drawer.Dot = fixed.P(x, y)
	drawer.DrawString(text)
}

func drawLegend(img *image.RGBA, face font.Face, opts Options) {
	if len(opts.LegendRows) == 0 {
		return
	}
	const rowHeight = 18
	const swatch = 12

	maxLabelW := 0
	drawer := &font.Drawer{Dst: img, Face: face}
	for _, row := range opts.LegendRows {
		b, _ := drawer.BoundString(row.Label)
		if w := (b.Max.X - b.Min.X).Ceil(); w > maxLabelW {
			maxLabelW = w
		}
	}

	boxW := swatch + 6 + maxLabelW + 10
	boxH := rowHeight*len(opts.LegendRows) + 10
	x0, y0 := anchor(img.Bounds().Dx(), img.Bounds().Dy(), boxW, boxH, opts.LegendPos)
	y0 -= boxH

	draw.Draw(img, image.Rect(x0, y0, x0+boxW, y0+boxH), image.NewUniform(color.RGBA{0, 0, 0, 160}), image.Point{}, draw.Over)

	for i, row := range opts.LegendRows {
		sy := y0 + 5 + i*rowHeight
		draw.Draw(img, image.Rect(x0+5, sy, x0+5+swatch, sy+swatch), image.NewUniform(row.Color), image.Point{}, draw.Over)

		textColor := opts.TextColor
		if textColor.A == 0 {
			textColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
		}
		labelDrawer := &font.Drawer{Dst: img, Src: image.NewUniform(textColor), Face: face}
		labelDrawer.Dot = fixed.P(x0+5+swatch+6, sy+swatch)
		labelDrawer.DrawString(row.Label)
	}
}

func drawLogo(dst *image.RGBA, logo image.Image, pos PositionCode) {
	b := logo.Bounds()
	x, y := anchor(dst.Bounds().Dx(), dst.Bounds().Dy(), b.Dx(), b.Dy(), pos)
	draw.Draw(dst, image.Rect(x, y, x+b.Dx(), y+b.Dy()), logo, b.Min, draw.Over)
}

// anchor returns the top-left pixel for an element of size (w, h) placed
// per pos's 2-bit code (bit0 = right, bit1 = bottom), with a fixed margin.
func anchor(imgW, imgH, w, h int, pos PositionCode) (x, y int) {
	right := int(pos)&1 != 0
	bottom := int(pos)&2 != 0

	if right {
		x = imgW - w - margin
	} else {
		x = margin
	}
	if bottom {
		y = imgH - h - margin
	} else {
		y = margin + h
	}
	return x, y
}
