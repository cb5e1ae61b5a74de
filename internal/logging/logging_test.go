package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"github.com/relabs-tech/compass_camera/internal/config"
)

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger("heading", config.LogConfig{Level: "info"}, &buf)
	test.That(t, err, test.ShouldBeNil)

	logger.Debugw("dropped", "n", 1)
	logger.Infow("heading", "text", "orientDegrees = 12 , orientString = north")
	test.That(t, logger.Sync(), test.ShouldBeNil)

	out := buf.String()
	test.That(t, out, test.ShouldNotContainSubstring, "dropped")
	test.That(t, out, test.ShouldContainSubstring, "heading")
	test.That(t, out, test.ShouldContainSubstring, "orientDegrees = 12 , orientString = north")
}

func TestNewLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compass.log")
	var buf bytes.Buffer
	logger, err := newLogger("web", config.LogConfig{Level: "debug", File: path, MaxSizeMB: 1, MaxBackups: 1}, &buf)
	test.That(t, err, test.ShouldBeNil)

	logger.Debugf("listening on %s", ":8080")
	test.That(t, logger.Sync(), test.ShouldBeNil)

	b, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(b), test.ShouldContainSubstring, "DEBUG")
	test.That(t, string(b), test.ShouldContainSubstring, "listening on :8080")
}

func TestNewLoggerBadLevel(t *testing.T) {
	_, err := New("x", config.LogConfig{Level: "loud"})
	test.That(t, err, test.ShouldNotBeNil)
}
