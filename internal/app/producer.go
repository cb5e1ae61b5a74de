// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/relabs-tech/compass_camera/internal/config"
	"github.com/relabs-tech/compass_camera/internal/imu"
	"github.com/relabs-tech/compass_camera/internal/orientation"
)

// RunProducer publishes mock magnetometer and accelerometer samples to
// MQTT until interrupted.
func RunProducer() error {
	cfg, logger, err := setup("producer")
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	client, err := connectMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientIDProducer, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	ctx, stop := signalContext()
	defer stop()

	src := imu.NewMockSource(cfg.Sensors.UnreliableEvery)
	logger.Infow("publishing mock samples",
		"interval", cfg.Sensors.SampleInterval,
		"unreliable_every", cfg.Sensors.UnreliableEvery)
	return produce(ctx, src, client, cfg.Topics, cfg.Sensors.SampleInterval, logger)
}

func produce(
	ctx context.Context,
	src imu.SampleSource,
	client publisher,
	topics config.TopicsConfig,
	interval time.Duration,
	logger *zap.SugaredLogger,
) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("producer stopped")
			return nil
		case <-ticker.C:
		}

		batch, err := src.NextSamples()
		if err != nil {
			logger.Warnw("sample source error", "error", err)
			continue
		}
		for _, s := range batch {
			topic, err := sampleTopic(topics, s.Type)
			if err != nil {
				logger.Warnw("dropping sample", "error", err)
				continue
			}
			if err := publishJSON(client, topic, s, false); err != nil {
				logger.Warnw("publish failed", "error", err)
				continue
			}
			logger.Debugw("published sample", "topic", topic, "accuracy", s.Level())
		}
	}
}

// sampleTopic maps a sample type onto its MQTT topic.
func sampleTopic(topics config.TopicsConfig, kind string) (string, error) {
	t, err := orientation.ParseSensorType(kind)
	if err != nil {
		return "", err
	}
	switch t {
	case orientation.Magnetic:
		return topics.Magnetic, nil
	case orientation.Acceleration:
		return topics.Acceleration, nil
	}
	return "", fmt.Errorf("no topic for sensor type %q", kind)
}
