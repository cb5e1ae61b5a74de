// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/compass_camera/internal/gps"
	"github.com/relabs-tech/compass_camera/internal/imu"
)

const (
	displayWidth  = 128
	displayHeight = 64
)

// displayState holds the latest data for the OLED.
type displayState struct {
	mu sync.RWMutex

	heading     imu.HeadingReport
	haveHeading bool
	fix         gps.Fix
	haveFix     bool
}

func (d *displayState) setHeading(r imu.HeadingReport) {
	d.mu.Lock()
	d.heading, d.haveHeading = r, true
	d.mu.Unlock()
}

func (d *displayState) setFix(f gps.Fix) {
	d.mu.Lock()
	d.fix, d.haveFix = f, true
	d.mu.Unlock()
}

func (d *displayState) render() *image1bit.VerticalLSB {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return renderHeading(d.heading, d.haveHeading, d.fix, d.haveFix)
}

func newFrame() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

func drawLine(d *font.Drawer, x, y int, s string) {
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

// renderHeading draws the heading screen: degrees and cardinal, magnetic
// dip, and the GPS course when one is known.
func renderHeading(r imu.HeadingReport, haveHeading bool, f gps.Fix, haveFix bool) *image1bit.VerticalLSB {
	img, drawer := newFrame()

	if !haveHeading {
		drawLine(drawer, 0, 26, "Compass")
		drawLine(drawer, 0, 39, "Waiting...")
		return img
	}

	drawLine(drawer, 0, 13, "Heading")
	drawLine(drawer, 0, 30, fmt.Sprintf("%3d deg %s", r.Degrees, r.Cardinal))
	if r.Valid {
		drawLine(drawer, 0, 43, fmt.Sprintf("dip %5.1f", r.Inclination*180/math.Pi))
	} else {
		drawLine(drawer, 0, 43, "no fix: tilt")
	}

	if haveFix && f.Valid() {
		drawLine(drawer, 0, 56, fmt.Sprintf("COG %3.0f %s", f.CourseDeg, f.CourseCardinal()))
	} else {
		drawLine(drawer, 0, 56, "COG --")
	}
	return img
}

func renderSplash() *image1bit.VerticalLSB {
	img, drawer := newFrame()
	drawLine(drawer, 10, 26, "Compass Cam")
	drawLine(drawer, 5, 43, "Point camera")
	drawLine(drawer, 25, 56, "forward")
	return img
}

// RunDisplay shows the current heading on an SSD1306 OLED over I2C.
func RunDisplay() error {
	cfg, logger, err := setup("display")
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if !cfg.Display.Enable {
		logger.Info("display disabled in config, nothing to do")
		return nil
	}

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(cfg.Display.I2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus %q: %w", cfg.Display.I2CBus, err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt() //nolint:errcheck
	logger.Infof("display initialized on I2C bus %s", cfg.Display.I2CBus)

	if err := dev.Draw(dev.Bounds(), renderSplash(), image.Point{}); err != nil {
		logger.Warnw("error showing splash", "error", err)
	}

	state := &displayState{}

	client, err := connectMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientIDDisplay, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribeJSON(client, cfg.Topics.Heading, logger, state.setHeading); err != nil {
		return err
	}
	if err := subscribeJSON(client, cfg.Topics.GPS, logger, state.setFix); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	ticker := time.NewTicker(cfg.Display.UpdateInterval)
	defer ticker.Stop()

	logger.Info("starting display update loop")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := dev.Draw(dev.Bounds(), state.render(), image.Point{}); err != nil {
				logger.Warnw("error updating display", "error", err)
			}
		}
	}
}
