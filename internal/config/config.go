// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/compass_camera/internal/orientation"
	"github.com/relabs-tech/compass_camera/internal/preview"
)

// DefaultPath is the config file the binaries read when --config is not given.
const DefaultPath = "compass_config.yaml"

// Config holds all application configuration values.
type Config struct {
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Topics  TopicsConfig  `yaml:"topics"`
	Sensors SensorsConfig `yaml:"sensors"`
	Camera  CameraConfig  `yaml:"camera"`
	Web     WebConfig     `yaml:"web"`
	Display DisplayConfig `yaml:"display"`
	GPS     GPSConfig     `yaml:"gps"`
	Log     LogConfig     `yaml:"log"`
}

type MQTTConfig struct {
	Broker           string `yaml:"broker"`
	ClientIDProducer string `yaml:"client_id_producer"`
	ClientIDHeading  string `yaml:"client_id_heading"`
	ClientIDConsole  string `yaml:"client_id_console"`
	ClientIDWeb      string `yaml:"client_id_web"`
	ClientIDDisplay  string `yaml:"client_id_display"`
	ClientIDGPS      string `yaml:"client_id_gps"`
}

type TopicsConfig struct {
	Magnetic     string `yaml:"magnetic"`
	Acceleration string `yaml:"acceleration"`
	Heading      string `yaml:"heading"`
	GPS          string `yaml:"gps"`
}

type SensorsConfig struct {
	// SampleInterval is the delay between sensor ticks. 60ms matches the
	// phone's UI sensor rate.
	SampleInterval time.Duration `yaml:"sample_interval"`

	// UnreliableEvery flags every n-th mock magnetic sample as unreliable;
	// 0 disables it.
	UnreliableEvery int `yaml:"unreliable_every"`

	// RemapX and RemapY name the world axes the device X and Y axes are
	// mapped onto, e.g. "x" and "z" for a device held upright.
	RemapX string `yaml:"remap_x"`
	RemapY string `yaml:"remap_y"`
}

type CameraConfig struct {
	Screen         preview.Size   `yaml:"screen"`
	Portrait       bool           `yaml:"portrait"`
	DefaultSize    preview.Size   `yaml:"default_size"`
	SupportedSizes []preview.Size `yaml:"supported_sizes"`
}

type WebConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

type DisplayConfig struct {
	Enable         bool          `yaml:"enable"`
	I2CBus         string        `yaml:"i2c_bus"`
	UpdateInterval time.Duration `yaml:"update_interval"`
}

type GPSConfig struct {
	SerialPort string `yaml:"serial_port"`
	BaudRate   uint   `yaml:"baud_rate"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	Compress   bool   `yaml:"compress"`
}

// Calculator returns the heading calculator for the configured axis remap.
func (s SensorsConfig) Calculator() (orientation.Calculator, error) {
	x, err := orientation.ParseAxis(s.RemapX)
	if err != nil {
		return orientation.Calculator{}, fmt.Errorf("sensors.remap_x: %w", err)
	}
	y, err := orientation.ParseAxis(s.RemapY)
	if err != nil {
		return orientation.Calculator{}, fmt.Errorf("sensors.remap_y: %w", err)
	}
	if _, ok := orientation.RemapCoordinateSystem(orientation.Identity(), x, y); !ok {
		return orientation.Calculator{}, fmt.Errorf("sensors.remap_x/remap_y: %s and %s do not form a valid mapping", x, y)
	}
	return orientation.Calculator{X: x, Y: y}, nil
}

// PreviewSize returns the preview size chosen for screen, or for the
// configured screen when screen is zero.
func (c CameraConfig) PreviewSize(screen preview.Size) preview.Size {
	if screen.Width <= 0 || screen.Height <= 0 {
		screen = c.Screen
	}
	return preview.Select(c.SupportedSizes, c.DefaultSize, preview.Landscape(screen), c.Portrait)
}

// Package-level singleton: InitGlobal sets it once, Get reads it under a
// read lock.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the YAML file at path, fills in defaults and validates the
// result. Every validation problem is reported, not just the first.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	setDefault(&c.MQTT.Broker, "tcp://localhost:1883")
	setDefault(&c.MQTT.ClientIDProducer, "compass-producer")
	setDefault(&c.MQTT.ClientIDHeading, "compass-heading")
	setDefault(&c.MQTT.ClientIDConsole, "compass-console")
	setDefault(&c.MQTT.ClientIDWeb, "compass-web")
	setDefault(&c.MQTT.ClientIDDisplay, "compass-display")
	setDefault(&c.MQTT.ClientIDGPS, "compass-gps")

	setDefault(&c.Topics.Magnetic, "compass/sensor/magnetic")
	setDefault(&c.Topics.Acceleration, "compass/sensor/acceleration")
	setDefault(&c.Topics.Heading, "compass/heading")
	setDefault(&c.Topics.GPS, "compass/gps")

	if c.Sensors.SampleInterval <= 0 {
		c.Sensors.SampleInterval = 60 * time.Millisecond
	}
	setDefault(&c.Sensors.RemapX, "x")
	setDefault(&c.Sensors.RemapY, "z")

	if c.Camera.Screen == (preview.Size{}) {
		c.Camera.Screen = preview.Size{Width: 800, Height: 480}
	}
	if c.Camera.DefaultSize == (preview.Size{}) {
		c.Camera.DefaultSize = preview.Size{Width: 640, Height: 480}
	}

	setDefault(&c.Web.Addr, ":8080")
	setDefault(&c.Web.StaticDir, "web")

	setDefault(&c.Display.I2CBus, "1")
	if c.Display.UpdateInterval <= 0 {
		c.Display.UpdateInterval = 250 * time.Millisecond
	}

	setDefault(&c.GPS.SerialPort, "/dev/serial0")
	if c.GPS.BaudRate == 0 {
		c.GPS.BaudRate = 9600
	}

	setDefault(&c.Log.Level, "info")
	if c.Log.MaxSizeMB <= 0 {
		c.Log.MaxSizeMB = 10
	}
	if c.Log.MaxBackups <= 0 {
		c.Log.MaxBackups = 3
	}
}

func setDefault(field *string, v string) {
	if *field == "" {
		*field = v
	}
}

func (c *Config) validate() error {
	var err error
	if c.Sensors.UnreliableEvery < 0 {
		err = multierr.Append(err, fmt.Errorf("sensors.unreliable_every must be >= 0, got %d", c.Sensors.UnreliableEvery))
	}
	if _, calcErr := c.Sensors.Calculator(); calcErr != nil {
		err = multierr.Append(err, calcErr)
	}
	if c.Camera.Screen.Width <= 0 || c.Camera.Screen.Height <= 0 {
		err = multierr.Append(err, fmt.Errorf("camera.screen must be positive, got %s", c.Camera.Screen))
	}
	if c.Camera.DefaultSize.Width <= 0 || c.Camera.DefaultSize.Height <= 0 {
		err = multierr.Append(err, fmt.Errorf("camera.default_size must be positive, got %s", c.Camera.DefaultSize))
	}
	for i, s := range c.Camera.SupportedSizes {
		if s.Width <= 0 || s.Height <= 0 {
			err = multierr.Append(err, fmt.Errorf("camera.supported_sizes[%d] must be positive, got %s", i, s))
		}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		err = multierr.Append(err, fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level))
	}
	return err
}

// InitGlobal loads the configuration once; later calls return the first
// result's error and do not reload.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration, or nil before InitGlobal.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
