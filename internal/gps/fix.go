package gps

import (
	"math"

	"github.com/relabs-tech/compass_camera/internal/orientation"
)

// Fix is a GPS fix reduced to what the compass overlay shows next to the
// magnetic heading.
type Fix struct {
	Time       string  `json:"time"`        // e.g. "12:34:56"
	Date       string  `json:"date"`        // as printed by the NMEA library
	Latitude   float64 `json:"lat"`         // decimal degrees
	Longitude  float64 `json:"lon"`         // decimal degrees
	SpeedKnots float64 `json:"speed_knots"` // speed over ground
	CourseDeg  float64 `json:"course_deg"`  // true course over ground
	Validity   string  `json:"validity"`    // "A" (valid) / "V" (void)
}

// Valid reports whether the receiver flagged the fix as usable.
func (f Fix) Valid() bool {
	return f.Validity == "A"
}

// CourseAzimuth returns the course over ground in radians in (-π, π],
// the same convention as orientation.Vector.Azimuth.
func (f Fix) CourseAzimuth() float64 {
	deg := math.Mod(f.CourseDeg, 360)
	if deg > 180 {
		deg -= 360
	} else if deg <= -180 {
		deg += 360
	}
	return deg * math.Pi / 180
}

// CourseCardinal classifies the course over ground with the same bins as
// the magnetic heading. Course is true, not magnetic, so the two can differ
// by the local declination.
func (f Fix) CourseCardinal() orientation.Cardinal {
	return orientation.ToCardinal(f.CourseAzimuth())
}
