package imu

import (
	"fmt"
	"time"

	"github.com/golang/geo/r3"

	"github.com/relabs-tech/compass_camera/internal/orientation"
)

// Sample is a single tagged sensor reading as carried over MQTT and the
// websocket.
type Sample struct {
	Source string `json:"source"` // "mock", "browser", ...
	Type   string `json:"type"`   // "magnetic" or "acceleration"

	X float64 `json:"x"` // µT for magnetic, m/s² for acceleration
	Y float64 `json:"y"`
	Z float64 `json:"z"`

	// Accuracy is -1 no contact, 0 unreliable, 1..3 low..high. Senders that
	// have no calibration status omit it, which counts as high; an explicit
	// 0 is dropped downstream.
	Accuracy *int   `json:"accuracy,omitempty"`
	Time     string `json:"time"` // RFC3339Nano
}

// NewSample builds a sample stamped with t.
func NewSample(source string, kind orientation.SensorType, v r3.Vector, acc orientation.Accuracy, t time.Time) Sample {
	level := int(acc)
	return Sample{
		Source:   source,
		Type:     string(kind),
		X:        v.X,
		Y:        v.Y,
		Z:        v.Z,
		Accuracy: &level,
		Time:     t.UTC().Format(time.RFC3339Nano),
	}
}

// Level returns the reported accuracy, AccuracyHigh when none was sent.
func (s Sample) Level() orientation.Accuracy {
	if s.Accuracy == nil {
		return orientation.AccuracyHigh
	}
	return orientation.Accuracy(*s.Accuracy)
}

// Vector returns the reading as a vector.
func (s Sample) Vector() r3.Vector {
	return r3.Vector{X: s.X, Y: s.Y, Z: s.Z}
}

// FeedTo passes the sample to tr and returns whatever heading it yields.
func (s Sample) FeedTo(tr *orientation.Tracker) (orientation.Heading, bool, error) {
	kind, err := orientation.ParseSensorType(s.Type)
	if err != nil {
		return orientation.Heading{}, false, fmt.Errorf("sample from %q: %w", s.Source, err)
	}
	h, ok := tr.Observe(kind, s.Vector(), s.Level())
	return h, ok, nil
}

// SampleSource produces batches of samples, one batch per sensor tick.
type SampleSource interface {
	NextSamples() ([]Sample, error)
}

// HeadingReport is the heading as published for display layers.
type HeadingReport struct {
	Degrees  int    `json:"degrees"`
	Cardinal string `json:"cardinal"`
	Text     string `json:"text"`

	Azimuth     float64 `json:"azimuth_rad"`
	Pitch       float64 `json:"pitch_rad"`
	Roll        float64 `json:"roll_rad"`
	Inclination float64 `json:"inclination_rad"`
	Valid       bool    `json:"valid"`

	Time string `json:"time"`
}

// NewHeadingReport flattens h into its published form.
func NewHeadingReport(h orientation.Heading, t time.Time) HeadingReport {
	return HeadingReport{
		Degrees:     h.Degrees,
		Cardinal:    string(h.Cardinal),
		Text:        h.String(),
		Azimuth:     h.Orientation.Azimuth,
		Pitch:       h.Orientation.Pitch,
		Roll:        h.Orientation.Roll,
		Inclination: h.Inclination,
		Valid:       h.Valid,
		Time:        t.UTC().Format(time.RFC3339Nano),
	}
}
