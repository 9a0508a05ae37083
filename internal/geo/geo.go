package geo

import (
	"math"

	"github.com/bellavista-care-home/bellavista-carehome-sub000/pkg/models"
)

// EarthRadiusMiles is the mean Earth radius used by DistanceMiles.
const EarthRadiusMiles = 3959.0

func toRad(d float64) float64 { return d * math.Pi / 180 }

// DistanceMiles is the great-circle distance between two points given in
// decimal degrees.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	// rounding can push a a hair past 1 for antipodal points
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMiles * c
}

// Nearest is the closest facility and its distance in miles, rounded to one
// decimal place.
type Nearest struct {
	Facility      models.FacilityLocation `json:"facility"`
	DistanceMiles float64                 `json:"distanceMiles"`
}

// FindNearest returns the facility closest to (lat, lon). Ties go to the
// facility listed first. ok is false when facilities is empty.
func FindNearest(lat, lon float64, facilities []models.FacilityLocation) (Nearest, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, f := range facilities {
		d := DistanceMiles(lat, lon, f.Latitude, f.Longitude)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Nearest{}, false
	}
	return Nearest{
		Facility:      facilities[best],
		DistanceMiles: math.Round(bestDist*10) / 10,
	}, true
}
