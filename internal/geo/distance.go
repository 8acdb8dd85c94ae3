// Package geo provides the small amount of spatial math the valuation core
// needs: straight-line distance between parcel coordinates.
package geo

import (
	"math"

	"github.com/twpayne/go-geom"
)

const earthRadiusMiles = 3958.8

// MilesBetween returns the great-circle distance in miles between two
// parcels' coordinates. ok is false when either side is missing a
// coordinate.
func MilesBetween(lat1, lon1, lat2, lon2 *float64) (miles float64, ok bool) {
	if lat1 == nil || lon1 == nil || lat2 == nil || lon2 == nil {
		return 0, false
	}
	a := geom.NewPointFlat(geom.XY, []float64{*lon1, *lat1})
	b := geom.NewPointFlat(geom.XY, []float64{*lon2, *lat2})
	return haversine(a, b), true
}

// haversine computes great-circle distance between two lon/lat points.
func haversine(a, b *geom.Point) float64 {
	lat1 := a.Y() * math.Pi / 180
	lat2 := b.Y() * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.X() - a.X()) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(h))
}
