package service

import (
	"math"
	"strconv"
	"strings"

	"github.com/aryan0dhankhar/natours/internal/domain"
)

const (
	earthRadiusMi = 3963.2
	earthRadiusKm = 6378.1

	metersToMiles = 0.000621371
	metersToKm    = 0.001
)

const latLngMessage = "Please provide latitude and longitude in the format lat,lng."

// ParseLatLng parses "lat,lng".
func ParseLatLng(raw string) (lat, lng float64, err error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, domain.Validation(latLngMessage)
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, errLng := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLat != nil || errLng != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, domain.Validation(latLngMessage)
	}
	return lat, lng, nil
}

func degToRad(d float64) float64 {
	return d * (math.Pi / 180)
}

// centralAngle is the great-circle angle in radians between two points.
func centralAngle(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := degToRad(lat2 - lat1)
	dLon := degToRad(lon2 - lon1)

	lat1Rad := degToRad(lat1)
	lat2Rad := degToRad(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// earthRadius is in miles for "mi" and kilometers otherwise.
func earthRadius(unit string) float64 {
	if unit == "mi" {
		return earthRadiusMi
	}
	return earthRadiusKm
}

func distanceMultiplier(unit string) float64 {
	if unit == "mi" {
		return metersToMiles
	}
	return metersToKm
}
