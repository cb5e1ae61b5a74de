// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// Cardinal is a coarse compass direction label.
type Cardinal string

const (
	North Cardinal = "north"
	East  Cardinal = "east"
	South Cardinal = "south"
	West  Cardinal = "west"
)

// Upper bounds (exclusive) of the cardinal bins, checked in order.
// Anything at or above 3π/4 wraps back to south.
var cardinalBins = []struct {
	below float64
	label Cardinal
}{
	{-math.Pi * 3 / 4, South},
	{-math.Pi * 1 / 4, West},
	{+math.Pi * 1 / 4, North},
	{+math.Pi * 3 / 4, East},
}

// ToCardinal classifies an azimuth in radians into one of four labels.
// Bin edges belong to the more positive bin. A non-finite azimuth is
// treated as 0.
func ToCardinal(azimuth float64) Cardinal {
	if !finite(azimuth) {
		return North
	}
	for _, b := range cardinalBins {
		if azimuth < b.below {
			return b.label
		}
	}
	return South
}

// ToDegrees converts an azimuth in radians to whole compass degrees in
// [0, 360). A non-finite azimuth yields 0.
func ToDegrees(azimuth float64) int {
	if !finite(azimuth) {
		return 0
	}
	deg := azimuth * 180.0 / math.Pi
	if azimuth < 0 {
		deg += 360
	}
	d := int(math.Floor(deg))
	// A negative azimuth smaller than one ulp of 360 rounds up to 360.
	if d >= 360 {
		d -= 360
	}
	return d
}

// Heading is the compass reading derived from one magnetic/acceleration pair.
type Heading struct {
	Degrees  int      `json:"degrees"`
	Cardinal Cardinal `json:"cardinal"`

	Orientation Vector `json:"orientation"`
	// Inclination is the geomagnetic dip angle in radians, negative when
	// the field points below the horizon.
	Inclination float64 `json:"inclination"`
	// Valid is false when the rotation basis was degenerate (free fall or
	// field parallel to gravity); the other fields are then finite but
	// meaningless.
	Valid bool `json:"valid"`
}

func (h Heading) String() string {
	return fmt.Sprintf("orientDegrees = %d , orientString = %s", h.Degrees, h.Cardinal)
}

// Calculator computes headings for a fixed device pose. X and Y name the
// world axes the device X and Y axes are remapped onto before the
// orientation is extracted.
type Calculator struct {
	X Axis
	Y Axis
}

// DefaultCalculator is for a device held upright with the back camera
// facing forward: device Y is swapped with Z so the heading follows the
// camera's line of sight.
var DefaultCalculator = Calculator{X: AxisX, Y: AxisZ}

// FlatCalculator is for a device lying face up; no remap is applied.
var FlatCalculator = Calculator{X: AxisX, Y: AxisY}

// Compute derives the heading from the latest magnetic and acceleration
// vectors. It never fails; see Heading.Valid for degenerate input.
func (c Calculator) Compute(magnetic, acceleration r3.Vector) Heading {
	R, I, ok := GetRotationMatrix(acceleration, magnetic)

	// Without a basis the remap would turn the zero matrix into -0 entries,
	// and atan2(-0, -0) = -π. Report the zero orientation instead.
	var o Vector
	if ok {
		remapped, remapOK := RemapCoordinateSystem(R, c.X, c.Y)
		if !remapOK {
			remapped = R
		}
		o = GetOrientation(remapped)
	}
	return Heading{
		Degrees:     ToDegrees(o.Azimuth),
		Cardinal:    ToCardinal(o.Azimuth),
		Orientation: o,
		Inclination: GetInclination(I),
		Valid:       ok,
	}
}

// ComputeHeading uses DefaultCalculator.
func ComputeHeading(magnetic, acceleration r3.Vector) Heading {
	return DefaultCalculator.Compute(magnetic, acceleration)
}
