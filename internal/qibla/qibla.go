// Package qibla computes the direction of the Kaaba from an observer and
// tracks the device heading needed to point a compass at it.
package qibla

import (
	"math"

	"github.com/smokyabdulrahman/namaz/internal/model"
)

// Kaaba is the fixed target coordinate.
var Kaaba = model.Coordinate{Latitude: 21.422487, Longitude: 39.826206}

const earthRadiusKm = 6371.0088

// degenerateEpsilon is how close (in degrees) an observer must be to the
// Kaaba for the bearing to be considered undefined.
const degenerateEpsilon = 1e-9

func radians(d float64) float64 { return d * math.Pi / 180 }
func degrees(r float64) float64 { return r * 180 / math.Pi }

// Bearing returns the initial great-circle bearing from the observer to the
// Kaaba in degrees [0, 360), clockwise from true north. An observer standing
// on the Kaaba gets 0.
func Bearing(from model.Coordinate) float64 {
	if math.Abs(from.Latitude-Kaaba.Latitude) < degenerateEpsilon &&
		math.Abs(from.Longitude-Kaaba.Longitude) < degenerateEpsilon {
		return 0
	}

	phiK := radians(Kaaba.Latitude)
	phi := radians(from.Latitude)
	dLambda := radians(Kaaba.Longitude) - radians(from.Longitude)

	y := math.Sin(dLambda) * math.Cos(phiK)
	x := math.Cos(phi)*math.Sin(phiK) - math.Sin(phi)*math.Cos(phiK)*math.Cos(dLambda)

	return normalize(degrees(math.Atan2(y, x)))
}

// DistanceKm is the haversine distance from the observer to the Kaaba.
func DistanceKm(from model.Coordinate) float64 {
	phi1 := radians(from.Latitude)
	phi2 := radians(Kaaba.Latitude)
	dPhi := phi2 - phi1
	dLambda := radians(Kaaba.Longitude - from.Longitude)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// RelativeTurn returns how far the device must rotate, in degrees within
// (-180, 180], to face the qibla. Positive is clockwise.
func RelativeTurn(qibla, heading float64) float64 {
	d := normalize(qibla - heading)
	if d > 180 {
		d -= 360
	}
	return d
}

var compassPoints = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// Direction names a bearing on a 16-point compass rose.
func Direction(deg float64) string {
	idx := int(math.Floor(normalize(deg)/22.5+0.5)) % len(compassPoints)
	return compassPoints[idx]
}

func normalize(deg float64) float64 {
	d := math.Mod(deg+360, 360)
	if d < 0 {
		d += 360
	}
	return d
}
