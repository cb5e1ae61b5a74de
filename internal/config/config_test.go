package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/relabs-tech/compass_camera/internal/orientation"
	"github.com/relabs-tech/compass_camera/internal/preview"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "compass_config.yaml")
	test.That(t, os.WriteFile(path, []byte(contents), 0o644), test.ShouldBeNil)
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, "{}\n"))
	test.That(t, err, test.ShouldBeNil)

	test.That(t, cfg.MQTT.Broker, test.ShouldEqual, "tcp://localhost:1883")
	test.That(t, cfg.Topics.Heading, test.ShouldEqual, "compass/heading")
	test.That(t, cfg.Sensors.SampleInterval, test.ShouldEqual, 60*time.Millisecond)
	test.That(t, cfg.Camera.Screen, test.ShouldResemble, preview.Size{Width: 800, Height: 480})
	test.That(t, cfg.Display.UpdateInterval, test.ShouldEqual, 250*time.Millisecond)
	test.That(t, cfg.GPS.BaudRate, test.ShouldEqual, uint(9600))
	test.That(t, cfg.Log.Level, test.ShouldEqual, "info")

	calc, err := cfg.Sensors.Calculator()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, calc, test.ShouldResemble, orientation.DefaultCalculator)
}

func TestLoadValues(t *testing.T) {
	path := writeTempConfig(t, `
mqtt:
  broker: tcp://broker.local:1883
sensors:
  sample_interval: 20ms
  unreliable_every: 5
  remap_x: x
  remap_y: y
camera:
  screen: {width: 480, height: 800}
  portrait: true
  default_size: {width: 176, height: 144}
  supported_sizes:
    - {width: 640, height: 480}
    - {width: 400, height: 240}
log:
  level: debug
  file: /tmp/compass.log
`)
	cfg, err := Load(path)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, cfg.MQTT.Broker, test.ShouldEqual, "tcp://broker.local:1883")
	test.That(t, cfg.Sensors.SampleInterval, test.ShouldEqual, 20*time.Millisecond)
	test.That(t, cfg.Sensors.UnreliableEvery, test.ShouldEqual, 5)
	test.That(t, cfg.Camera.SupportedSizes, test.ShouldHaveLength, 2)
	test.That(t, cfg.Log.File, test.ShouldEqual, "/tmp/compass.log")

	calc, err := cfg.Sensors.Calculator()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, calc, test.ShouldResemble, orientation.FlatCalculator)

	// Screen is normalised to 800x480. Read swapped, 240x400 differs by
	// 204800 and 480x640 by 281600.
	test.That(t, cfg.Camera.PreviewSize(preview.Size{}), test.ShouldResemble, preview.Size{Width: 240, Height: 400})
}

func TestCameraPreviewSizeFallsBack(t *testing.T) {
	c := CameraConfig{
		Screen:         preview.Size{Width: 800, Height: 480},
		DefaultSize:    preview.Size{Width: 176, Height: 144},
		SupportedSizes: []preview.Size{{Width: 1920, Height: 1080}},
	}
	test.That(t, c.PreviewSize(preview.Size{Width: 1280, Height: 720}), test.ShouldResemble, c.DefaultSize)
}

func TestLoadCollectsAllErrors(t *testing.T) {
	path := writeTempConfig(t, `
sensors:
  unreliable_every: -2
  remap_x: x
  remap_y: minus_x
camera:
  supported_sizes:
    - {width: 0, height: 480}
log:
  level: chatty
`)
	_, err := Load(path)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "sensors.unreliable_every")
	test.That(t, err.Error(), test.ShouldContainSubstring, "sensors.remap_x/remap_y")
	test.That(t, err.Error(), test.ShouldContainSubstring, "camera.supported_sizes[0]")
	test.That(t, err.Error(), test.ShouldContainSubstring, "log.level")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to open config file")

	_, err = Load(writeTempConfig(t, "sensors: [\n"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to parse config file")

	_, err = Load(writeTempConfig(t, "sensors:\n  remap_x: w\n"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown axis")
}

func TestInitGlobal(t *testing.T) {
	path := writeTempConfig(t, "web:\n  addr: ':9090'\n")
	test.That(t, InitGlobal(path), test.ShouldBeNil)
	test.That(t, Get(), test.ShouldNotBeNil)
	test.That(t, Get().Web.Addr, test.ShouldEqual, ":9090")

	// Later calls keep the first configuration.
	test.That(t, InitGlobal(filepath.Join(t.TempDir(), "missing.yaml")), test.ShouldBeNil)
	test.That(t, Get().Web.Addr, test.ShouldEqual, ":9090")
}
