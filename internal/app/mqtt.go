// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relabs-tech/channelling_portal/internal/spirit"
)

// mqttDisconnectQuiesce is how long Disconnect waits for in-flight work (ms).
const mqttDisconnectQuiesce = 250

// publishTimeout bounds how long a status publish may hold up the drive loop.
const publishTimeout = 250 * time.Millisecond

// publisher is the part of mqtt.Client the status publisher needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// subscriber is the part of mqtt.Client the web and console tools need.
type subscriber interface {
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// connectMQTT dials the broker and waits for the CONNACK.
var connectMQTT = func(broker, clientID string, logger *zap.SugaredLogger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.Wrapf(token.Error(), "connect to MQTT broker %s", broker)
	}
	logger.Infof("connected to MQTT broker at %s", broker)
	return client, nil
}

// subscribe registers handler on topic and waits for the SUBACK.
func subscribe(client subscriber, topic string, handler mqtt.MessageHandler, logger *zap.SugaredLogger) error {
	token := client.Subscribe(topic, 0, handler)
	token.Wait()
	if token.Error() != nil {
		return errors.Wrapf(token.Error(), "subscribe to %s", topic)
	}
	logger.Infof("subscribed to MQTT topic %s", topic)
	return nil
}

// decodeStatus unmarshals a status payload received from the broker.
func decodeStatus(payload []byte) (spirit.Status, error) {
	var s spirit.Status
	if err := json.Unmarshal(payload, &s); err != nil {
		return spirit.Status{}, errors.Wrap(err, "status payload")
	}
	if s.Name == "" {
		return spirit.Status{}, errors.New("status payload: missing name")
	}
	return s, nil
}

// StatusPublisher reports every controller status to MQTT as retained JSON.
type StatusPublisher struct {
	client  publisher
	topic   func(name string) string
	logger  *zap.SugaredLogger
	timeout time.Duration
}

// NewStatusPublisher publishes to topic(status.Name).
func NewStatusPublisher(client publisher, topic func(name string) string, logger *zap.SugaredLogger) *StatusPublisher {
	return &StatusPublisher{client: client, topic: topic, logger: logger, timeout: publishTimeout}
}

// Report implements spirit.Reporter. Failures are logged and dropped.
func (p *StatusPublisher) Report(s spirit.Status) {
	payload, err := json.Marshal(s)
	if err != nil {
		p.logger.Warnf("status marshal error: %v", err)
		return
	}

	topic := p.topic(s.Name)
	token := p.client.Publish(topic, 0, true, payload)
	if !token.WaitTimeout(p.timeout) {
		p.logger.Debugf("publish to %s still pending after %v", topic, p.timeout)
		return
	}
	if err := token.Error(); err != nil {
		p.logger.Warnf("publish to %s failed: %v", topic, err)
	}
}

// statusLogger logs transitions at info and every cycle at debug.
type statusLogger struct {
	logger *zap.SugaredLogger
}

func (l statusLogger) Report(s spirit.Status) {
	if s.Changed {
		l.logger.Infof("%s is now %s (gauge=%d distance=%.4f)", s.Name, s.State, s.Gauge, s.Distance)
		return
	}
	l.logger.Debugf("%s %s gauge=%d distance=%.4f window=%d/%d", s.Name, s.State, s.Gauge, s.Distance, s.WindowLen, s.Capacity)
}

// reporters fans one status out to several reporters in order.
type reporters []spirit.Reporter

func (rs reporters) Report(s spirit.Status) {
	for _, r := range rs {
		r.Report(s)
	}
}
