// Package config loads and saves the run-wide settings this pipeline
// needs once at startup: archive location, output layout, the clip
// region table, and the PNG overlay's typography. It mirrors the
// teacher's settings package: a JSON-tagged struct, a DefaultX
// constructor, a LoadX that falls back to defaults when the file is
// absent, and a SaveX that marshals back to disk.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/lanot-mx/ceniza/internal/model"
)

// ClipRegion names one of the predefined output windows §6 exposes on
// the CLI surface, the Go-native analogue of the teacher's CustomSource
// list.
type ClipRegion struct {
	Name       string  `json:"name"`
	LonMin     float64 `json:"lonMin"`
	LatMax     float64 `json:"latMax"`
	LonMax     float64 `json:"lonMax"`
	LatMin     float64 `json:"latMin"`
	Geographic bool    `json:"geographic"`
}

// BBox converts the region to the model.BBox the reprojector expects.
func (c ClipRegion) BBox() model.BBox {
	return model.BBox{LonMin: c.LonMin, LatMax: c.LatMax, LonMax: c.LonMax, LatMin: c.LatMin}
}

// RunConfig is the persistent, load-once-per-run configuration every
// orchestrator invocation reads before it touches a single moment.
type RunConfig struct {
	// Archive layout
	ArchiveRoot string `json:"archiveRoot"`
	Tiered      bool   `json:"tiered"`

	// Output
	OutputDir   string `json:"outputDir"`
	EmitPNG     bool   `json:"emitPNG"`
	ClipRegions []ClipRegion `json:"clipRegions"`

	// Processing
	KernelSize         int     `json:"kernelSize"`
	ReprojResolutionDeg float64 `json:"reprojResolutionDeg"`
	Workers            int     `json:"workers"`

	// Overlay resources
	CoastlinePath string  `json:"coastlinePath,omitempty"`
	CountriesPath string  `json:"countriesPath,omitempty"`
	MexStatesPath string  `json:"mexStatesPath,omitempty"`
	LogoPath      string  `json:"logoPath,omitempty"`
	FontPath      string  `json:"fontPath,omitempty"`
	FontSize      float64 `json:"fontSize"`
	LegendSwatch  int     `json:"legendSwatchPx"`
}

// DefaultRunConfig returns the built-in defaults applied whenever a
// field is absent from a loaded config file, or no file exists at all.
func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		ArchiveRoot:         ".",
		Tiered:              false,
		OutputDir:           "./out",
		EmitPNG:             false,
		KernelSize:          5,
		ReprojResolutionDeg: 0.02,
		Workers:             0, // not read by the pipeline; the texture filter sizes its pool by runtime.GOMAXPROCS(0)
		// The CLI's "<region>geo" suffix (cmd/ceniza/main.go) strips "geo"
		// and looks up the base name, so a region need only be listed once;
		// the CLI then sets Geographic from the suffix, overriding the value
		// stored here.
		ClipRegions: []ClipRegion{
			{Name: "mexico", LonMin: -118, LatMax: 33, LonMax: -86, LatMin: 14, Geographic: false},
			{Name: "conus", LonMin: -125, LatMax: 50, LonMax: -66, LatMin: 24, Geographic: true},
			{Name: "fulldisk", LonMin: -156.2, LatMax: 81.3, LonMax: 6.2, LatMin: -81.3, Geographic: true},
		},
		FontSize:     14,
		LegendSwatch: 12,
	}
}

// GetConfigPath returns the OS-specific config file path, creating its
// parent directory if needed.
func GetConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	baseDir := filepath.Join(homeDir, ".ceniza", "config")
	os.MkdirAll(baseDir, 0755)
	return filepath.Join(baseDir, "config.json")
}

// Load reads the config at path, or GetConfigPath() if path is empty.
// A missing file is not an error: it yields DefaultRunConfig(), logged
// rather than surfaced, mirroring the teacher's LoadSettings.
func Load(path string) (*RunConfig, error) {
	if path == "" {
		path = GetConfigPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("[Config] no config file at %s, using defaults", path)
		return DefaultRunConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	defaults := DefaultRunConfig()
	if cfg.ArchiveRoot == "" {
		cfg.ArchiveRoot = defaults.ArchiveRoot
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = defaults.OutputDir
	}
	if cfg.KernelSize == 0 {
		cfg.KernelSize = defaults.KernelSize
	}
	if cfg.ReprojResolutionDeg == 0 {
		cfg.ReprojResolutionDeg = defaults.ReprojResolutionDeg
	}
	if len(cfg.ClipRegions) == 0 {
		cfg.ClipRegions = defaults.ClipRegions
	}
	if cfg.FontSize == 0 {
		cfg.FontSize = defaults.FontSize
	}
	if cfg.LegendSwatch == 0 {
		cfg.LegendSwatch = defaults.LegendSwatch
	}

	return &cfg, nil
}

// Save writes cfg to path as indented JSON, creating its parent
// directory if needed.
func Save(cfg *RunConfig, path string) error {
	if path == "" {
		path = GetConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("config: create dir %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// FindRegion looks up a clip region by name, the Go-native analogue of
// the teacher's ValidateCustomSource lookup-by-name use.
func FindRegion(cfg *RunConfig, name string) (ClipRegion, bool) {
	for _, r := range cfg.ClipRegions {
		if r.Name == name {
			return r, true
		}
	}
	return ClipRegion{}, false
}
