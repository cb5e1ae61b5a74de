// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package preview picks the camera preview resolution whose aspect ratio
// best matches the screen.
package preview

import (
	"fmt"
	"strconv"
	"strings"
)

// Preview sizes outside this pixel range are either too coarse to be
// useful or too slow to stream; both bounds are inclusive.
const (
	MinPreviewPixels = 320 * 240
	MaxPreviewPixels = 800 * 480
)

// Size is a width x height resolution in pixels.
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Pixels returns Width*Height.
func (s Size) Pixels() int {
	return s.Width * s.Height
}

// Swapped returns the size with width and height exchanged.
func (s Size) Swapped() Size {
	return Size{Width: s.Height, Height: s.Width}
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// ParseSize parses "640x480".
func ParseSize(v string) (Size, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(v)), "x")
	if !ok {
		return Size{}, fmt.Errorf("invalid size %q: want WIDTHxHEIGHT", v)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return Size{}, fmt.Errorf("invalid width in %q: %w", v, err)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return Size{}, fmt.Errorf("invalid height in %q: %w", v, err)
	}
	if width <= 0 || height <= 0 {
		return Size{}, fmt.Errorf("invalid size %q: dimensions must be positive", v)
	}
	return Size{Width: width, Height: height}, nil
}

// Landscape orders the dimensions so that Width >= Height.
func Landscape(screen Size) Size {
	if screen.Width < screen.Height {
		return screen.Swapped()
	}
	return screen
}

// Select returns the supported size whose aspect ratio is closest to the
// screen's. Candidates are scanned in the order given; an exact ratio match
// ends the scan and on equal mismatch the earlier candidate wins.
//
// screen is expected in landscape order (see Landscape). With portrait set,
// each candidate is read with its dimensions swapped and the winner is
// returned in that swapped form.
//
// When no candidate is within [MinPreviewPixels, MaxPreviewPixels], fallback
// is returned unchanged.
func Select(supported []Size, fallback Size, screen Size, portrait bool) Size {
	var (
		best  Size
		found bool
		diff  int
	)

	for _, s := range supported {
		pixels := s.Pixels()
		if pixels < MinPreviewPixels || pixels > MaxPreviewPixels {
			continue
		}

		c := s
		if portrait {
			c = s.Swapped()
		}

		// Cross-multiplied ratio difference; zero means identical aspect.
		d := abs(screen.Width*c.Height - c.Width*screen.Height)
		if d == 0 {
			return c
		}
		if !found || d < diff {
			best, diff, found = c, d, true
		}
	}

	if !found {
		return fallback
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
