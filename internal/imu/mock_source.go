// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"math"
	"time"

	"github.com/golang/geo/r3"

	"github.com/relabs-tech/compass_camera/internal/orientation"
)

const (
	mockFieldMicroTesla = 48.0
	mockDipDeg          = 60.0
	mockTurnDegPerSec   = 30.0
)

// MockSource simulates a phone held upright, camera forward, slowly turning
// on the spot. Every unreliableEvery-th magnetic sample is flagged
// unreliable so consumers exercise their drop path.
type MockSource struct {
	start time.Time
	now   func() time.Time

	unreliableEvery int
	ticks           int
}

// NewMockSource creates a mock source that starts facing north.
func NewMockSource(unreliableEvery int) *MockSource {
	return newMockSource(time.Now, unreliableEvery)
}

func newMockSource(now func() time.Time, unreliableEvery int) *MockSource {
	return &MockSource{start: now(), now: now, unreliableEvery: unreliableEvery}
}

// HeadingAt is the simulated camera heading in degrees after elapsed.
func HeadingAt(elapsed time.Duration) float64 {
	return math.Mod(elapsed.Seconds()*mockTurnDegPerSec, 360)
}

// UprightReadings returns the accelerometer and magnetometer vectors, in
// device coordinates, of a device held upright with the back camera facing
// headingDeg.
func UprightReadings(headingDeg, dipDeg, strength float64) (magnetic, acceleration r3.Vector) {
	th := headingDeg * math.Pi / 180
	dip := dipDeg * math.Pi / 180

	// World frame: east, north, up. Device Y is up, the camera looks along -Z.
	field := r3.Vector{Y: math.Cos(dip), Z: -math.Sin(dip)}.Mul(strength)
	up := r3.Vector{Z: 1}
	z := r3.Vector{X: -math.Sin(th), Y: -math.Cos(th)}
	x := up.Cross(z)

	magnetic = r3.Vector{X: field.Dot(x), Y: field.Dot(up), Z: field.Dot(z)}
	acceleration = r3.Vector{Y: orientation.StandardGravity}
	return magnetic, acceleration
}

// NextSamples returns one magnetic and one acceleration sample.
func (m *MockSource) NextSamples() ([]Sample, error) {
	t := m.now()
	m.ticks++

	mag, acc := UprightReadings(HeadingAt(t.Sub(m.start)), mockDipDeg, mockFieldMicroTesla)

	magAccuracy := orientation.AccuracyHigh
	if m.unreliableEvery > 0 && m.ticks%m.unreliableEvery == 0 {
		magAccuracy = orientation.AccuracyUnreliable
	}

	return []Sample{
		NewSample("mock", orientation.Magnetic, mag, magAccuracy, t),
		NewSample("mock", orientation.Acceleration, acc, orientation.AccuracyHigh, t),
	}, nil
}
