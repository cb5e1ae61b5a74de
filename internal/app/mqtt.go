// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/relabs-tech/compass_camera/internal/config"
	"github.com/relabs-tech/compass_camera/internal/logging"
)

// publisher is the part of mqtt.Client the publishing services need.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// setup returns the global configuration and a logger named after the
// service.
func setup(name string) (*config.Config, *zap.SugaredLogger, error) {
	cfg := config.Get()
	if cfg == nil {
		return nil, nil, fmt.Errorf("%s: configuration not initialized", name)
	}
	logger, err := logging.New(name, cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// signalContext is cancelled on Ctrl+C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func connectMQTT(broker, clientID string, logger *zap.SugaredLogger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetOrderMatters(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warnw("MQTT connection lost", "error", err)
		})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect to %s: %w", broker, token.Error())
	}
	logger.Infof("connected to MQTT broker at %s", broker)
	return client, nil
}

// publishJSON marshals v and publishes it at QoS 0. Only state that a late
// subscriber should see at once (heading, GPS fix) is retained; raw samples
// are not, so a restarted consumer never computes from stale vectors.
func publishJSON(client publisher, topic string, v interface{}, retained bool) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal for %s: %w", topic, err)
	}
	if token := client.Publish(topic, 0, retained, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT publish to %s: %w", topic, token.Error())
	}
	return nil
}

// subscribeJSON decodes every message on topic into a T and hands it to
// handle. Messages that fail to decode are logged and skipped.
func subscribeJSON[T any](client mqtt.Client, topic string, logger *zap.SugaredLogger, handle func(T)) error {
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var v T
		if err := json.Unmarshal(msg.Payload(), &v); err != nil {
			logger.Warnw("payload unmarshal error", "topic", msg.Topic(), "error", err)
			return
		}
		handle(v)
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("MQTT subscribe to %s: %w", topic, token.Error())
	}
	logger.Infof("subscribed to %s", topic)
	return nil
}
