// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/relabs-tech/compass_camera/internal/imu"
	"github.com/relabs-tech/compass_camera/internal/orientation"
)

// headingSession feeds samples from one device into a Tracker. Sample
// delivery may come from several goroutines, so the tracker is guarded.
type headingSession struct {
	mu      sync.Mutex
	tracker *orientation.Tracker

	logger *zap.SugaredLogger
	now    func() time.Time
}

func newHeadingSession(calc orientation.Calculator, logger *zap.SugaredLogger) *headingSession {
	return &headingSession{
		tracker: orientation.NewTracker(calc),
		logger:  logger,
		now:     time.Now,
	}
}

// handle records s and returns a report when the heading was recomputed.
func (h *headingSession) handle(s imu.Sample) (imu.HeadingReport, bool) {
	h.mu.Lock()
	heading, ok, err := s.FeedTo(h.tracker)
	h.mu.Unlock()

	if err != nil {
		h.logger.Warnw("ignoring sample", "error", err)
		return imu.HeadingReport{}, false
	}
	if !ok {
		if s.Level() == orientation.AccuracyUnreliable {
			h.logger.Debugw("dropped unreliable sample", "type", s.Type, "source", s.Source)
		}
		return imu.HeadingReport{}, false
	}

	h.logger.Debug(heading.String())
	if !heading.Valid {
		h.logger.Debugw("degenerate sensor geometry", "type", s.Type)
	}
	return imu.NewHeadingReport(heading, h.now()), true
}

// forward handles s and publishes the resulting report, retained, on topic.
func (h *headingSession) forward(s imu.Sample, client publisher, topic string) {
	report, ok := h.handle(s)
	if !ok {
		return
	}
	if err := publishJSON(client, topic, report, true); err != nil {
		h.logger.Warnw("publish failed", "error", err)
	}
}

func (h *headingSession) reset() {
	h.mu.Lock()
	h.tracker.Reset()
	h.mu.Unlock()
}

// RunHeadingService subscribes to the sample topics, computes the heading
// for every accepted sample and publishes it as a HeadingReport.
func RunHeadingService() error {
	cfg, logger, err := setup("heading")
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	calc, err := cfg.Sensors.Calculator()
	if err != nil {
		return err
	}
	session := newHeadingSession(calc, logger)

	client, err := connectMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientIDHeading, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	onSample := func(s imu.Sample) {
		session.forward(s, client, cfg.Topics.Heading)
	}
	for _, topic := range []string{cfg.Topics.Magnetic, cfg.Topics.Acceleration} {
		if err := subscribeJSON(client, topic, logger, onSample); err != nil {
			return err
		}
	}

	ctx, stop := signalContext()
	defer stop()
	<-ctx.Done()

	logger.Info("heading service shutting down")
	return nil
}
