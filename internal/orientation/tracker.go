// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// SensorType tags a raw sample.
type SensorType string

const (
	Magnetic     SensorType = "magnetic"
	Acceleration SensorType = "acceleration"
)

// ParseSensorType accepts the wire names used on MQTT and the websocket.
func ParseSensorType(s string) (SensorType, error) {
	switch SensorType(s) {
	case Magnetic, Acceleration:
		return SensorType(s), nil
	case "magnetic_field", "mag":
		return Magnetic, nil
	case "accelerometer", "accel":
		return Acceleration, nil
	}
	return "", fmt.Errorf("unknown sensor type %q", s)
}

// Accuracy is the calibration status reported with a sample.
type Accuracy int

const (
	AccuracyNoContact  Accuracy = -1
	AccuracyUnreliable Accuracy = 0
	AccuracyLow        Accuracy = 1
	AccuracyMedium     Accuracy = 2
	AccuracyHigh       Accuracy = 3
)

func (a Accuracy) String() string {
	switch a {
	case AccuracyNoContact:
		return "no_contact"
	case AccuracyUnreliable:
		return "unreliable"
	case AccuracyLow:
		return "low"
	case AccuracyMedium:
		return "medium"
	case AccuracyHigh:
		return "high"
	}
	return fmt.Sprintf("Accuracy(%d)", int(a))
}

// Tracker keeps the last accepted vector per sensor for one session and
// recomputes the heading whenever a sample arrives. It is not safe for
// concurrent use; callers deliver samples from a single goroutine.
type Tracker struct {
	calc Calculator

	magnetic     *r3.Vector
	acceleration *r3.Vector
}

// NewTracker returns an empty tracker using calc.
func NewTracker(calc Calculator) *Tracker {
	return &Tracker{calc: calc}
}

// Observe records a sample and returns the new heading once both sensors
// have reported at least once. Unreliable samples are dropped without
// touching the stored vector.
func (t *Tracker) Observe(kind SensorType, v r3.Vector, accuracy Accuracy) (Heading, bool) {
	if accuracy == AccuracyUnreliable {
		return Heading{}, false
	}

	switch kind {
	case Magnetic:
		t.magnetic = &v
	case Acceleration:
		t.acceleration = &v
	default:
		return Heading{}, false
	}

	if t.magnetic == nil || t.acceleration == nil {
		return Heading{}, false
	}
	return t.calc.Compute(*t.magnetic, *t.acceleration), true
}

// Latest returns the stored vectors; ok is false until both are present.
func (t *Tracker) Latest() (magnetic, acceleration r3.Vector, ok bool) {
	if t.magnetic == nil || t.acceleration == nil {
		return r3.Vector{}, r3.Vector{}, false
	}
	return *t.magnetic, *t.acceleration, true
}

// Reset forgets both vectors, as when the sensors are unregistered.
func (t *Tracker) Reset() {
	t.magnetic = nil
	t.acceleration = nil
}
