// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/relabs-tech/compass_camera/internal/imu"
	"github.com/relabs-tech/compass_camera/internal/orientation"
)

// RunConsole prints headings computed from the local mock source. It needs
// no broker.
func RunConsole() error {
	cfg, logger, err := setup("console")
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	calc, err := cfg.Sensors.Calculator()
	if err != nil {
		return err
	}
	src := imu.NewMockSource(cfg.Sensors.UnreliableEvery)
	tr := orientation.NewTracker(calc)

	ctx, stop := signalContext()
	defer stop()

	ticker := time.NewTicker(cfg.Sensors.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := consoleTick(src, tr, os.Stdout); err != nil {
				return err
			}
		}
	}
}

// consoleTick reads one batch from src and prints the resulting heading, if any.
func consoleTick(src imu.SampleSource, tr *orientation.Tracker, w io.Writer) error {
	batch, err := src.NextSamples()
	if err != nil {
		return err
	}
	for _, s := range batch {
		h, ok, err := s.FeedTo(tr)
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintln(w, formatHeading(h))
		}
	}
	return nil
}

func formatHeading(h orientation.Heading) string {
	_, pitch, roll := h.Orientation.Degrees()
	return fmt.Sprintf("[HEAD] %s  pitch=%6.1f roll=%6.1f dip=%6.1f",
		h.String(), pitch, roll, h.Inclination*180/math.Pi)
}
