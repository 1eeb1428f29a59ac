package geotiff

// Minimal GeoTIFF key IDs needed to tag a geographic (EPSG:4326) raster.
const (
	keyGTModelType      = 1024
	keyGTRasterType     = 1025
	keyGeographicType   = 2048
	valueGeographic     = 2
	valuePixelIsArea    = 1
	epsg4326            = 4326
	geoKeyDirVersion    = 1
	geoKeyRevision      = 1
	geoKeyMinorRevision = 0
)

// GeographicKeyDirectory builds the GeoKeyDirectoryTag SHORT array tagging
// a raster as EPSG:4326 geographic, PixelIsArea.
func GeographicKeyDirectory() []uint16 {
	return []uint16{
		geoKeyDirVersion, geoKeyRevision, geoKeyMinorRevision, 3, // header: version, revision, minor, key count
		keyGTModelType, 0, 1, valueGeographic,
		keyGTRasterType, 0, 1, valuePixelIsArea,
		keyGeographicType, 0, 1, epsg4326,
	}
}

// ModelPixelScale returns the ModelPixelScaleTag value (xres, yres, 0) for
// an affine whose xres is a.A1 and whose yres is the absolute value of
// a.A5 (GeoTIFF stores scale as a positive magnitude; direction is
// implied by ModelTiepointTag + raster convention).
func ModelPixelScale(xres, yres float64) []float64 {
	if yres < 0 {
		yres = -yres
	}
	return []float64{xres, yres, 0}
}

// ModelTiepoint returns the ModelTiepointTag value anchoring raster pixel
// (0,0) to world coordinate (originX, originY, 0).
func ModelTiepoint(originX, originY float64) []float64 {
	return []float64{0, 0, 0, originX, originY, 0}
}
