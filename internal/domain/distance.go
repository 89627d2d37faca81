package domain

import "math"

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometres between a and b.
func Haversine(a, b Geo) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// FindClosest returns the region whose center is nearest to (lat, lon) and
// its distance in km. Ties go to the region that comes first in the slice.
func FindClosest(lat, lon float64, regions []Region) (Region, float64, error) {
	if len(regions) == 0 {
		return Region{}, 0, ErrEmptyCatalog
	}
	q := Geo{Lat: lat, Lon: lon}
	best, bestDist := 0, math.Inf(1)
	for i, r := range regions {
		if d := Haversine(q, r.Center); d < bestDist {
			best, bestDist = i, d
		}
	}
	return regions[best], bestDist, nil
}

// ClampCoordinate limits lat to [-90,90] and lon to [-180,180]. Longitude is
// clamped, not wrapped.
func ClampCoordinate(lat, lon float64) (float64, float64) {
	return math.Max(-90, math.Min(90, lat)), math.Max(-180, math.Min(180, lon))
}
