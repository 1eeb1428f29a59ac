// Package orchestrator drives one moment end to end — resolve, read,
// project/window, solar geometry, classify, reproject, write — and a
// range of moments in ascending time order with per-moment error
// isolation, per §5's ordering and concurrency contract.
package orchestrator

import (
	"context"
	"fmt"
	"image/png"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/lanot-mx/ceniza/internal/cachelayer"
	"github.com/lanot-mx/ceniza/internal/classify"
	"github.com/lanot-mx/ceniza/internal/config"
	"github.com/lanot-mx/ceniza/internal/errs"
	"github.com/lanot-mx/ceniza/internal/model"
	"github.com/lanot-mx/ceniza/internal/ncreader"
	"github.com/lanot-mx/ceniza/internal/overlay"
	"github.com/lanot-mx/ceniza/internal/projection"
	"github.com/lanot-mx/ceniza/internal/rasterio"
	"github.com/lanot-mx/ceniza/internal/reproject"
	"github.com/lanot-mx/ceniza/internal/resolver"
	"github.com/lanot-mx/ceniza/internal/solar"
	"github.com/lanot-mx/ceniza/internal/timemodel"
)

// referenceProduct is the band whose projection attributes, coordinate
// arrays, and acquisition time stand in for the whole moment: every band
// in a product set shares one geostationary grid and one scene time.
const referenceProduct = model.ProductC13

// bboxPad is the relative padding WindowFromBBox applies ahead of a
// reprojection, so the resample never starves for native-grid neighbors
// near the target bbox's edge.
const bboxPad = 0.1

// Result records the outcome of processing a single moment.
type Result struct {
	Moment     timemodel.Moment
	OutputPath string
	Err        error
}

// ProcessMoment runs one moment through the full pipeline and writes its
// GeoTIFF (and, if cfg.EmitPNG, its annotated PNG) under cfg.OutputDir.
func ProcessMoment(ctx context.Context, cfg *config.RunConfig, m timemodel.Moment, region config.ClipRegion, eph *cachelayer.EphemerisCache, registry *overlay.Registry) (string, error) {
	matches, err := resolver.Resolve(cfg.ArchiveRoot, m, model.Products, cfg.Tiered)
	if err != nil {
		return "", err
	}
	if resolver.Incomplete(matches, model.Products) {
		return "", errs.New(errs.Incomplete, "orchestrator.ProcessMoment", fmt.Errorf("moment %s: missing products", m.Format()))
	}

	refMatch, ok := matches[referenceProduct]
	if !ok {
		return "", errs.New(errs.Incomplete, "orchestrator.ProcessMoment", fmt.Errorf("moment %s: reference product %s unresolved", m.Format(), referenceProduct))
	}
	refReader, err := ncreader.Open(refMatch.Path)
	if err != nil {
		return "", err
	}
	defer refReader.Close()

	params, err := refReader.Projection()
	if err != nil {
		return "", err
	}
	crs := projection.BuildCRS(params)

	fullX, err := refReader.Coords("x")
	if err != nil {
		return "", errs.New(errs.OpenFailed, "orchestrator.ProcessMoment", err)
	}
	fullY, err := refReader.Coords("y")
	if err != nil {
		return "", errs.New(errs.OpenFailed, "orchestrator.ProcessMoment", err)
	}

	pad := 0.0
	if region.Geographic {
		pad = bboxPad
	}
	row0, row1, col0, col1, err := crs.WindowFromBBox(fullX, fullY, region.BBox(), pad)
	if err != nil {
		return "", err
	}
	winX := fullX[col0:col1]
	winY := fullY[row0:row1]

	acqTime, err := refReader.TimeCoverageStart()
	if err != nil {
		return "", err
	}

	stack, err := readBandStack(matches, row0, row1, col0, col1, crs, params, winX, winY)
	if err != nil {
		return "", err
	}

	ephemeris := eph.Get(acqTime)
	sza := solar.ZenithAngles(ephemeris, stack.Lat, stack.Lon)

	raster, err := classify.Classify(ctx, stack, sza)
	if err != nil {
		return "", err
	}

	suffix := ""
	if region.Geographic {
		suffix = "_geo"
		raster, err = reproject.Reproject(raster, crs, winX, winY, region.BBox(), cfg.ReprojResolutionDeg)
		if err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return "", errs.New(errs.WriteFailed, "orchestrator.ProcessMoment", err)
	}
	tifPath := outputPath(cfg.OutputDir, m, suffix, "tif")
	if err := writeGeoTIFF(tifPath, raster); err != nil {
		return "", err
	}

	if cfg.EmitPNG {
		pngPath := outputPath(cfg.OutputDir, m, suffix, "png")
		var crsForOverlay *projection.CRS
		if !region.Geographic {
			crsForOverlay = &crs
		}
		if err := writePNG(pngPath, raster, region, crsForOverlay, acqTime, cfg, registry); err != nil {
			log.Printf("[Orchestrator] moment %s: PNG write failed: %v", m.Format(), err)
		}
	}

	return tifPath, nil
}

// outputPath builds the "ceniza_{julian}[_geo].{ext}" filename §6 names,
// under dir.
func outputPath(dir string, m timemodel.Moment, suffix, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("ceniza_%s%s.%s", m.Format(), suffix, ext))
}

func readBandStack(matches map[model.Product]model.FileMatch, row0, row1, col0, col1 int, crs projection.CRS, params model.GeostationaryParams, winX, winY []float64) (*model.BandStack, error) {
	rows, cols := row1-row0, col1-col0
	stack := &model.BandStack{Rows: rows, Cols: cols, X: winX, Y: winY}

	assign := func(p model.Product) ([]float64, error) {
		fm := matches[p]
		r, err := ncreader.Open(fm.Path)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return r.ReadWindow("CMI", row0, row1, col0, col1)
	}

	var err error
	if stack.C04, err = assign(model.ProductC04); err != nil {
		return nil, err
	}
	if stack.C07, err = assign(model.ProductC07); err != nil {
		return nil, err
	}
	if stack.C11, err = assign(model.ProductC11); err != nil {
		return nil, err
	}
	if stack.C13, err = assign(model.ProductC13); err != nil {
		return nil, err
	}
	if stack.C14, err = assign(model.ProductC14); err != nil {
		return nil, err
	}
	if stack.C15, err = assign(model.ProductC15); err != nil {
		return nil, err
	}

	actpMatch := matches[model.ProductACTP]
	actpReader, err := ncreader.Open(actpMatch.Path)
	if err != nil {
		return nil, err
	}
	defer actpReader.Close()
	if stack.Phase, err = actpReader.ReadPhaseWindow("Phase", row0, row1, col0, col1); err != nil {
		return nil, err
	}

	affine, err := crs.Affine(winX, winY)
	if err != nil {
		return nil, err
	}
	stack.Affine = affine
	stack.CRS = params

	lat, lon := crs.PixelGridToLatLon(winX, winY)
	stack.Lat, stack.Lon = lat, lon

	stack.ValidMask = make([]bool, rows*cols)
	for i := range stack.ValidMask {
		stack.ValidMask[i] = isFinite(stack.C04[i]) && isFinite(stack.C07[i]) && isFinite(stack.C11[i]) &&
			isFinite(stack.C13[i]) && isFinite(stack.C14[i]) && isFinite(stack.C15[i]) &&
			isFinite(stack.Lat[i]) && isFinite(stack.Lon[i])
	}

	return stack, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func writeGeoTIFF(path string, raster *model.AshRaster) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.New(errs.WriteFailed, "orchestrator.writeGeoTIFF", err)
	}
	defer f.Close()
	return rasterio.WriteGeoTIFF(f, raster)
}

func writePNG(path string, raster *model.AshRaster, region config.ClipRegion, crsForOverlay *projection.CRS, acqTime time.Time, cfg *config.RunConfig, registry *overlay.Registry) error {
	img := rasterio.Colorize(raster)

	opts := overlay.Options{
		Bounds:       region.BBox(),
		CRS:          crsForOverlay,
		Timestamp:    acqTime,
		TimestampFmt: "2006-01-02 15:04 UTC",
		FontPath:     cfg.FontPath,
		FontSize:     cfg.FontSize,
		LegendPos:    overlay.PosBottomLeft,
		LogoPosition: overlay.PosTopRight,
		LegendRows:   overlay.DefaultLegend(),
	}
	overlay.Render(img, registry, opts)

	f, err := os.Create(path)
	if err != nil {
		return errs.New(errs.WriteFailed, "orchestrator.writePNG", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return errs.New(errs.WriteFailed, "orchestrator.writePNG", err)
	}
	return nil
}

// ProcessRange runs every moment in m, in the ascending order it is
// given, isolating each moment's failure from the rest, and returns one
// Result per moment. A correlation id ties the whole range's log lines
// together.
func ProcessRange(ctx context.Context, cfg *config.RunConfig, moments []timemodel.Moment, region config.ClipRegion, registry *overlay.Registry) []Result {
	runID := uuid.New()
	eph := &cachelayer.EphemerisCache{}
	results := make([]Result, 0, len(moments))

	for _, m := range moments {
		path, err := ProcessMoment(ctx, cfg, m, region, eph, registry)
		if err != nil {
			log.Printf("[Orchestrator] run=%s moment=%s failed: %v", runID, m.Format(), err)
		} else {
			log.Printf("[Orchestrator] run=%s moment=%s wrote %s", runID, m.Format(), path)
		}
		results = append(results, Result{Moment: m, OutputPath: path, Err: err})
	}
	return results
}

// FailedJulians extracts the Julian strings of failed results, the input
// shape timemodel.GroupFailures expects.
func FailedJulians(results []Result) []string {
	var out []string
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r.Moment.Format())
		}
	}
	return out
}
