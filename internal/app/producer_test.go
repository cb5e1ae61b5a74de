package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"github.com/relabs-tech/compass_camera/internal/config"
	"github.com/relabs-tech/compass_camera/internal/imu"
	"github.com/relabs-tech/compass_camera/internal/orientation"
)

var testTopics = config.TopicsConfig{
	Magnetic:     "t/mag",
	Acceleration: "t/acc",
	Heading:      "t/heading",
	GPS:          "t/gps",
}

type failingSource struct{ calls int }

func (s *failingSource) NextSamples() ([]imu.Sample, error) {
	s.calls++
	if s.calls%2 == 1 {
		return nil, errors.New("sensor busy")
	}
	return []imu.Sample{
		{Source: "test", Type: "gyroscope"},
		{Source: "test", Type: "accel", Y: 9.81},
	}, nil
}

func runProducerUntil(t *testing.T, src imu.SampleSource, pub *fakePublisher, want int) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- produce(ctx, src, pub, testTopics, time.Millisecond, zaptest.NewLogger(t).Sugar())
	}()

	deadline := time.Now().Add(5 * time.Second)
	for len(pub.snapshot()) < want && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	test.That(t, <-done, test.ShouldBeNil)
}

func TestProduce(t *testing.T) {
	pub := &fakePublisher{}
	runProducerUntil(t, imu.NewMockSource(2), pub, 8)

	msgs := pub.snapshot()
	test.That(t, len(msgs), test.ShouldBeGreaterThanOrEqualTo, 8)

	var unreliable int
	for i, m := range msgs {
		// Samples are never retained.
		test.That(t, m.retained, test.ShouldBeFalse)
		s := decode[imu.Sample](m.payload)
		test.That(t, s.Source, test.ShouldEqual, "mock")
		if i%2 == 0 {
			test.That(t, m.topic, test.ShouldEqual, "t/mag")
			test.That(t, s.Type, test.ShouldEqual, "magnetic")
			if s.Level() == orientation.AccuracyUnreliable {
				unreliable++
			}
		} else {
			test.That(t, m.topic, test.ShouldEqual, "t/acc")
			test.That(t, s.Y, test.ShouldAlmostEqual, 9.81, 1e-9)
		}
	}
	test.That(t, unreliable, test.ShouldBeGreaterThan, 0)
}

func TestProduceSkipsBadSamples(t *testing.T) {
	pub := &fakePublisher{}
	runProducerUntil(t, &failingSource{}, pub, 2)

	for _, m := range pub.snapshot() {
		test.That(t, m.topic, test.ShouldEqual, "t/acc")
	}
}

func TestSampleTopic(t *testing.T) {
	topic, err := sampleTopic(testTopics, "magnetic_field")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, topic, test.ShouldEqual, "t/mag")

	_, err = sampleTopic(testTopics, "light")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPublishJSONError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("not connected")}
	err := publishJSON(pub, "t/heading", imu.HeadingReport{}, true)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "t/heading")
	test.That(t, err.Error(), test.ShouldContainSubstring, "not connected")
}
