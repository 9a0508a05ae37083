package geo

import (
	"errors"
	"fmt"
	"math"
)

// Failures reported by the visitor's browser when asked for its position.
var (
	ErrUnsupported         = errors.New("geo: geolocation unsupported")
	ErrPermissionDenied    = errors.New("geo: permission denied")
	ErrPositionUnavailable = errors.New("geo: position unavailable")
	ErrPositionTimeout     = errors.New("geo: position timeout")
	ErrInvalidCoordinates  = errors.New("geo: invalid coordinates")
)

var userText = map[error]string{
	ErrUnsupported:         "Your browser does not support location services. Please search by postcode instead.",
	ErrPermissionDenied:    "Location access was denied. Please allow location access or search by postcode instead.",
	ErrPositionUnavailable: "We could not determine your location. Please search by postcode instead.",
	ErrPositionTimeout:     "Finding your location took too long. Please try again or search by postcode.",
	ErrInvalidCoordinates:  "Please provide a valid latitude and longitude.",
}

// UserMessage returns the text shown to the visitor for a geolocation failure.
func UserMessage(err error) (string, bool) {
	for target, msg := range userText {
		if errors.Is(err, target) {
			return msg, true
		}
	}
	return "", false
}

// PositionError maps a browser GeolocationPositionError code to an error.
// Code 0 means geolocation is unsupported.
func PositionError(code int) error {
	switch code {
	case 0:
		return ErrUnsupported
	case 1:
		return ErrPermissionDenied
	case 2:
		return ErrPositionUnavailable
	case 3:
		return ErrPositionTimeout
	default:
		return fmt.Errorf("geolocation error code %d: %w", code, ErrPositionUnavailable)
	}
}

// ValidCoordinates checks decimal degrees are in range.
func ValidCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.Abs(lat) > 90 || math.Abs(lon) > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}
