// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"github.com/spf13/pflag"

	"github.com/relabs-tech/compass_camera/internal/app"
	"github.com/relabs-tech/compass_camera/internal/config"
	"github.com/relabs-tech/compass_camera/internal/logging"
)

func main() {
	configPath := pflag.StringP("config", "c", config.DefaultPath, "path to the YAML config file")
	pflag.Parse()

	logger := logging.NewDevelopment("heading")
	logger.Info("starting compass-camera heading service")

	if err := config.InitGlobal(*configPath); err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunHeadingService(); err != nil {
		logger.Fatalf("fatal: %v", err)
	}
}
