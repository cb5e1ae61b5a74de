// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"

	"github.com/golang/geo/r3"
)

// StandardGravity in m/s².
const StandardGravity = 9.81

// Below 10% of g the accelerometer is in free fall and gravity has no direction.
const freeFallGravitySquared = 0.01 * StandardGravity * StandardGravity

// Horizontal field magnitudes below this mean the magnetic vector is
// (almost) colinear with gravity and east is undefined.
const minHorizontalField = 0.1

// Matrix is a row-major 4x4 homogeneous matrix. Only the upper-left 3x3
// block carries rotation; the rest is the identity padding.
type Matrix [16]float64

// Identity returns the 4x4 identity matrix.
func Identity() Matrix {
	return Matrix{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Row returns row i (0..2) of the rotation block.
func (m Matrix) Row(i int) r3.Vector {
	o := i * 4
	return r3.Vector{X: m[o], Y: m[o+1], Z: m[o+2]}
}

func (m *Matrix) setRow(i int, v r3.Vector) {
	o := i * 4
	m[o], m[o+1], m[o+2], m[o+3] = v.X, v.Y, v.Z, 0
}

func (m *Matrix) setHomogeneous() {
	m[12], m[13], m[14], m[15] = 0, 0, 0, 1
}

// GetRotationMatrix builds the device-to-world rotation matrix R and the
// inclination matrix I from a gravity (accelerometer) vector and a
// geomagnetic vector, both in the device frame.
//
// The rows of R are the world axes expressed in device coordinates:
//
//	row 0: east  (H = E × A, normalised)
//	row 1: north (M = A × H)
//	row 2: sky   (A, normalised)
//
// I rotates the geomagnetic vector into the world frame so that its dip
// angle can be read with GetInclination.
//
// When the device is in free fall, the magnetic field is colinear with
// gravity, or a magnitude is not finite (NaN input, or components so large
// that the norm overflows) the basis is undefined: ok is false and both
// matrices are zero.
// A zero matrix still flows through GetOrientation to a finite azimuth of 0.
func GetRotationMatrix(gravity, geomagnetic r3.Vector) (R, I Matrix, ok bool) {
	if g2 := gravity.Norm2(); !finite(g2) || g2 < freeFallGravitySquared {
		return Matrix{}, Matrix{}, false
	}

	h := geomagnetic.Cross(gravity)
	normH := h.Norm()
	if !finite(normH) || normH < minHorizontalField {
		return Matrix{}, Matrix{}, false
	}
	normE := geomagnetic.Norm()
	if !finite(normE) {
		return Matrix{}, Matrix{}, false
	}
	h = h.Mul(1 / normH)
	a := gravity.Normalize()
	m := a.Cross(h)

	R.setRow(0, h)
	R.setRow(1, m)
	R.setRow(2, a)
	R.setHomogeneous()

	invE := 1 / normE
	c := geomagnetic.Dot(m) * invE
	s := geomagnetic.Dot(a) * invE

	I.setRow(0, r3.Vector{X: 1})
	I.setRow(1, r3.Vector{Y: c, Z: s})
	I.setRow(2, r3.Vector{Y: -s, Z: c})
	I.setHomogeneous()

	return R, I, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// GetInclination returns the geomagnetic dip angle in radians from an
// inclination matrix produced by GetRotationMatrix.
func GetInclination(I Matrix) float64 {
	return math.Atan2(I[6], I[5])
}
