// Package resolver locates, for one moment, the complete set of ABI
// product files under a possibly date-tiered archive, picking a single
// file per product by provider preference and reporting coverage gaps
// rather than raising on them.
package resolver

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lanot-mx/ceniza/internal/errs"
	"github.com/lanot-mx/ceniza/internal/model"
	"github.com/lanot-mx/ceniza/internal/timemodel"
)

// bandPattern matches a band code (Cnn) bounded on the trailing side by a
// non-alphanumeric char or end of string, e.g. "M3C07", "M6C07", "-C07_",
// "_C07". The mode token (M3/M6/...) immediately preceding "Cnn" in the
// canonical ABI L2 filename is alphanumeric, so only the trailing boundary
// (distinguishing "C07" from "C074") is required.
var bandPattern = regexp.MustCompile(`C(\d{2})(?:[^0-9A-Za-z]|$)`)

// actpPattern matches ACTP allowing the prefix/suffix separators the
// filenames use, including a trailing "C" (e.g. "ACTPC-M6").
var actpPattern = regexp.MustCompile(`(?:^|[-_])ACTP(?:[-_C]|$)`)

// Resolve finds {product -> path} for moment under root. tiered selects
// whether files live under root/YYYY/MM/DD or directly under root.
// A missing directory is logged and yields an empty (not erroring) map;
// an incomplete result (fewer than len(products) matches) is reported
// via the returned map's size, not an error — callers consult
// Incomplete() to decide whether to skip the moment, per §4.2.
func Resolve(root string, m timemodel.Moment, products []model.Product, tiered bool) (map[model.Product]model.FileMatch, error) {
	dir := root
	if tiered {
		dir = filepath.Join(root, fmt.Sprintf("%04d", m.Year), fmt.Sprintf("%02d", int(m.Month)), fmt.Sprintf("%02d", m.Day))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("[FileResolver] directory missing: %s", dir)
			return map[model.Product]model.FileMatch{}, nil
		}
		return nil, errs.New(errs.DirMissing, "resolver.Resolve", err)
	}

	namePattern := fmt.Sprintf("s%s", m.Julian)

	candidates := make(map[model.Product][]model.FileMatch)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".nc") || !strings.Contains(name, namePattern) {
			continue
		}
		for _, p := range products {
			if matchesProduct(name, p) {
				candidates[p] = append(candidates[p], model.FileMatch{
					Product:  p,
					Path:     filepath.Join(dir, name),
					Provider: providerPrefix(name),
				})
			}
		}
	}

	result := make(map[model.Product]model.FileMatch, len(candidates))
	for p, matches := range candidates {
		result[p] = pickPreferred(matches)
	}
	return result, nil
}

// Incomplete reports whether result is missing any of products.
func Incomplete(result map[model.Product]model.FileMatch, products []model.Product) bool {
	return len(result) < len(products)
}

func matchesProduct(name string, p model.Product) bool {
	if p == model.ProductACTP {
		return actpPattern.MatchString(name)
	}
	band := strings.TrimPrefix(string(p), "C")
	for _, m := range bandPattern.FindAllStringSubmatch(name, -1) {
		if m[1] == band {
			return true
		}
	}
	return false
}

// providerPrefix extracts the leading token before the first underscore, e.g. "OR" from "OR_ABI-L2-CMIPF-M6C07_G16_s...". Filenames
// without an underscore have no usable prefix.
func providerPrefix(name string) string {
	if idx := strings.IndexByte(name, '_'); idx > 0 {
		return name[:idx]
	}
	return ""
}

// pickPreferred dedups candidates for one product, preferring a filename
// starting with "CG_" over any other provider prefix, else the first
// match encountered.
func pickPreferred(matches []model.FileMatch) model.FileMatch {
	for _, m := range matches {
		if strings.HasPrefix(filepath.Base(m.Path), "CG_") {
			return m
		}
	}
	return matches[0]
}
