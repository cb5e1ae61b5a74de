// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"fmt"
	"strings"
)

// Axis names a device axis for RemapCoordinateSystem. The low two bits hold
// the axis (1=X, 2=Y, 3=Z) and 0x80 marks the negative direction.
type Axis int

const (
	AxisX      Axis = 1
	AxisY      Axis = 2
	AxisZ      Axis = 3
	AxisMinusX Axis = AxisX | 0x80
	AxisMinusY Axis = AxisY | 0x80
	AxisMinusZ Axis = AxisZ | 0x80
)

var axisNames = map[Axis]string{
	AxisX:      "x",
	AxisY:      "y",
	AxisZ:      "z",
	AxisMinusX: "-x",
	AxisMinusY: "-y",
	AxisMinusZ: "-z",
}

func (a Axis) String() string {
	if n, ok := axisNames[a]; ok {
		return n
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// ParseAxis accepts "x", "-y", "minus_z" and similar.
func ParseAxis(s string) (Axis, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "axis_")
	s = strings.Replace(s, "minus_", "-", 1)
	for a, n := range axisNames {
		if n == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

func (a Axis) valid() bool {
	return a&0x7C == 0 && a&0x3 != 0
}

// RemapCoordinateSystem rotates the rotation matrix in so that the device
// X axis maps to world axis x and the device Y axis maps to world axis y.
// The third axis is implied and keeps the frame right-handed.
//
// Invalid or duplicate axes leave the matrix untouched and return false.
func RemapCoordinateSystem(in Matrix, x, y Axis) (Matrix, bool) {
	if !x.valid() || !y.valid() || x&0x3 == y&0x3 {
		return in, false
	}

	z := x ^ y
	xi := int(x&0x3) - 1
	yi := int(y&0x3) - 1
	zi := int(z&0x3) - 1

	// The implied axis flips sign unless (x, y, z) is a cyclic permutation.
	if xi != (zi+1)%3 || yi != (zi+2)%3 {
		z ^= 0x80
	}
	sx := x >= 0x80
	sy := y >= 0x80
	sz := z >= 0x80

	var out Matrix
	for j := 0; j < 3; j++ {
		o := j * 4
		for i := 0; i < 3; i++ {
			if xi == i {
				out[o+i] = signed(in[o], sx)
			}
			if yi == i {
				out[o+i] = signed(in[o+1], sy)
			}
			if zi == i {
				out[o+i] = signed(in[o+2], sz)
			}
		}
	}
	out.setHomogeneous()
	return out, true
}

func signed(v float64, negate bool) float64 {
	if negate {
		return -v
	}
	return v
}
