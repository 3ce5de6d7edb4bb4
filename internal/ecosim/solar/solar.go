// Package solar computes the sun's position in the sky for a given
// month and local hour via the standard equation-of-time, declination,
// and hour-angle derivation, as pure functions returning a value
// struct.
package solar

import "math"

// daysSinceStartOfYear gives the day-of-year (0-indexed) for the first
// of the given month (0 = January).
var daysSinceStartOfYear = [12]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

// Position describes the sun's position in the sky at a point in time.
type Position struct {
	// AzimuthRad is measured clockwise from north, in radians.
	AzimuthRad float64
	// ElevationRad is the angle above the horizon, in radians. Negative
	// means the sun is below the horizon.
	ElevationRad float64
}

// EquationOfTime returns the correction (in minutes) between apparent
// and mean solar time for the first day of the given month.
func EquationOfTime(month int) float64 {
	b := (360.0 / 365.0) * float64(daysSinceStartOfYear[month]-81) * math.Pi / 180.0
	return 9.87*math.Sin(2*b) - 7.53*math.Cos(b) - 1.5*math.Sin(b)
}

// Declination returns the solar declination in degrees for the first
// day of the given month.
func Declination(month int) float64 {
	days := daysSinceStartOfYear[month]
	return 23.45 * math.Sin((360.0/365.0)*float64(days-81)*math.Pi/180.0)
}

func localStandardTimeMeridian(timezone int) float64 {
	return 15.0 * float64(timezone)
}

func timeCorrectionFactor(month int, longitude float64, timezone int) float64 {
	return 4.0*(longitude-localStandardTimeMeridian(timezone)) + EquationOfTime(month)
}

func localSolarTime(month int, localTime, longitude float64, timezone int) float64 {
	return localTime + timeCorrectionFactor(month, longitude, timezone)/60.0
}

// HourAngle returns the number of degrees the sun has moved across the
// sky relative to solar noon (0 degrees at noon).
func HourAngle(month int, localTime, longitude float64, timezone int) float64 {
	return 15.0 * (localSolarTime(month, localTime, longitude, timezone) - 12.0)
}

// Elevation returns the sun's elevation above the horizon, in radians,
// for the given month/hour/site.
func Elevation(month int, localTime, latitude, longitude float64, timezone int) float64 {
	decl := Declination(month) * math.Pi / 180.0
	hra := HourAngle(month, localTime, longitude, timezone) * math.Pi / 180.0
	lat := latitude * math.Pi / 180.0
	return math.Asin(math.Sin(decl)*math.Sin(lat) + math.Cos(decl)*math.Cos(lat)*math.Cos(hra))
}

// AzimuthElevation returns the full sun position for the given month,
// local hour (0-24), and site coordinates.
func AzimuthElevation(month int, localTime, latitude, longitude float64, timezone int) Position {
	elevation := Elevation(month, localTime, latitude, longitude, timezone)
	decl := Declination(month) * math.Pi / 180.0
	hra := HourAngle(month, localTime, longitude, timezone) * math.Pi / 180.0
	lat := latitude * math.Pi / 180.0

	cosAzimuth := (math.Sin(decl)*math.Cos(lat) - math.Cos(decl)*math.Sin(lat)*math.Cos(hra)) / math.Cos(elevation)
	// clamp for numerical safety near the poles of acos's domain
	cosAzimuth = math.Max(-1, math.Min(1, cosAzimuth))
	angle := math.Acos(cosAzimuth)

	var azimuth float64
	if localTime >= 12.0 {
		azimuth = (2*math.Pi - angle)
	} else {
		azimuth = angle
	}
	return Position{AzimuthRad: azimuth, ElevationRad: elevation}
}
