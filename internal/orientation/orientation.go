// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package orientation turns raw accelerometer and magnetometer vectors into
// a compass heading for the camera overlay.
//
// The pipeline per sample pair is:
//
//	GetRotationMatrix -> RemapCoordinateSystem -> GetOrientation -> Heading
//
// Everything here is a pure function of its inputs except Tracker, which
// holds the last accepted vector of each sensor for one session.
package orientation

import (
	"math"
)

// Vector is the orientation vector in radians.
//
// Azimuth is the rotation about the world Z axis, in (-π, π], 0 when the
// remapped Y axis points to magnetic north and positive towards east.
type Vector struct {
	Azimuth float64 `json:"azimuth"`
	Pitch   float64 `json:"pitch"`
	Roll    float64 `json:"roll"`
}

// GetOrientation extracts azimuth, pitch and roll from a rotation matrix.
func GetOrientation(R Matrix) Vector {
	return Vector{
		Azimuth: math.Atan2(R[1], R[5]),
		Pitch:   math.Asin(clampUnit(-R[9])),
		Roll:    math.Atan2(-R[8], R[10]),
	}
}

// Degrees returns the vector converted to degrees, unnormalised.
func (v Vector) Degrees() (azimuth, pitch, roll float64) {
	return v.Azimuth * 180.0 / math.Pi, v.Pitch * 180.0 / math.Pi, v.Roll * 180.0 / math.Pi
}

// Rounding can push a unit component just past ±1, where Asin is NaN.
func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
