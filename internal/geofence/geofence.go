// Package geofence decides whether coordinates fall inside one of the
// configured school locations.
package geofence

import "math"

const earthRadiusMeters = 6371000

type Location struct {
	Name         string  `json:"name"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	RadiusMeters float64 `json:"radius"`
}

// Distance is the haversine great-circle distance in meters.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	φ1 := lat1 * math.Pi / 180
	φ2 := lat2 * math.Pi / 180
	Δφ := (lat2 - lat1) * math.Pi / 180
	Δλ := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) + math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// Check returns nil when validity is unknown (no locations configured or
// coordinates missing), otherwise whether any location contains the point.
func Check(lat, lng *float64, locations []Location) *bool {
	if len(locations) == 0 || lat == nil || lng == nil {
		return nil
	}
	if math.IsNaN(*lat) || math.IsNaN(*lng) {
		return nil
	}
	valid := false
	for _, loc := range locations {
		if Distance(*lat, *lng, loc.Lat, loc.Lng) <= loc.RadiusMeters {
			valid = true
			break
		}
	}
	return &valid
}

// Nearest returns the closest location and its distance; ok is false when
// there are no locations.
func Nearest(lat, lng float64, locations []Location) (Location, float64, bool) {
	if len(locations) == 0 {
		return Location{}, 0, false
	}
	best := locations[0]
	bestDist := Distance(lat, lng, best.Lat, best.Lng)
	for _, loc := range locations[1:] {
		if d := Distance(lat, lng, loc.Lat, loc.Lng); d < bestDist {
			best, bestDist = loc, d
		}
	}
	return best, bestDist, true
}
