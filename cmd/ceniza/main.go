// Command ceniza classifies volcanic ash in a moment (or range of
// moments) of GOES ABI imagery and writes a classified GeoTIFF, and
// optionally an annotated PNG, per moment.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lanot-mx/ceniza/internal/config"
	"github.com/lanot-mx/ceniza/internal/orchestrator"
	"github.com/lanot-mx/ceniza/internal/overlay"
	"github.com/lanot-mx/ceniza/internal/timemodel"
)

func main() {
	var (
		path       string
		moment     string
		output     string
		clip       string
		emitPNG    bool
		dateTree   bool
		dryRun     bool
		configPath string
	)

	flag.StringVar(&path, "path", ".", "Archive root directory")
	flag.StringVar(&moment, "moment", "", "Moment (YYYYDDDHHmm) or range (YYYYDDDHHmm-HHmm)")
	flag.StringVar(&output, "output", "", "Output directory (default: config's outputDir)")
	flag.StringVar(&clip, "clip", "fulldisk", "Clip region name, or <region>geo to reproject to EPSG:4326")
	flag.BoolVar(&emitPNG, "png", false, "Also write an annotated PNG")
	flag.BoolVar(&dateTree, "date-tree", false, "Archive is tiered root/YYYY/MM/DD")
	flag.BoolVar(&dryRun, "dry-run", false, "Report what would run without processing")
	flag.StringVar(&configPath, "config", "", "Path to a RunConfig JSON file (default: ~/.ceniza/config/config.json)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ceniza [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Classify volcanic ash from GOES ABI imagery.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if moment == "" {
		fmt.Fprintln(os.Stderr, "ceniza: -moment is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ceniza: loading config: %v\n", err)
		os.Exit(2)
	}
	cfg.ArchiveRoot = path
	cfg.Tiered = dateTree
	cfg.EmitPNG = emitPNG
	if output != "" {
		cfg.OutputDir = output
	}

	regionName := clip
	geo := false
	if strings.HasSuffix(clip, "geo") {
		regionName = strings.TrimSuffix(clip, "geo")
		geo = true
	}
	region, ok := config.FindRegion(cfg, regionName)
	if !ok {
		fmt.Fprintf(os.Stderr, "ceniza: unknown clip region %q\n", regionName)
		os.Exit(2)
	}
	region.Geographic = geo

	moments, err := timemodel.Parse(moment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ceniza: %v\n", err)
		os.Exit(2)
	}

	if dryRun {
		fmt.Printf("ceniza: dry run, %d moment(s) in range %s against archive %s (tiered=%v)\n", len(moments), moment, cfg.ArchiveRoot, cfg.Tiered)
		os.Exit(0)
	}

	registry, err := newRegistry(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ceniza: building overlay registry: %v\n", err)
		os.Exit(2)
	}

	results := orchestrator.ProcessRange(context.Background(), cfg, moments, region, registry)

	failed := orchestrator.FailedJulians(results)
	if len(failed) > 0 {
		for _, iv := range timemodel.GroupFailures(failed, 5*time.Minute) {
			fmt.Printf("ceniza: failed interval %s..%s\n", iv.Start, iv.End)
		}
	}

	os.Exit(0)
}

func newRegistry(cfg *config.RunConfig) (*overlay.Registry, error) {
	paths := map[overlay.LayerName]string{}
	if cfg.CoastlinePath != "" {
		paths[overlay.LayerCoastline] = cfg.CoastlinePath
	}
	if cfg.CountriesPath != "" {
		paths[overlay.LayerCountries] = cfg.CountriesPath
	}
	if cfg.MexStatesPath != "" {
		paths[overlay.LayerMexStates] = cfg.MexStatesPath
	}
	return overlay.NewRegistry(paths, 8)
}
