// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relabs-tech/channelling_portal/internal/config"
	"github.com/relabs-tech/channelling_portal/internal/spirit"
)

// FormatStatus renders one status as a console line. Transitions are
// marked with a trailing '*'.
func FormatStatus(s spirit.Status) string {
	line := fmt.Sprintf(
		"[SPIRIT] %-12s state=%-14s gauge=%4d  dist=%8.4f  window=%d/%d  t=%d",
		s.Name, s.State, s.Gauge, s.Distance, s.WindowLen, s.Capacity, s.Timestamp,
	)
	if s.Changed {
		line += " *"
	}
	return line
}

// statusPrinter writes each received status to out.
type statusPrinter struct {
	mu     sync.Mutex
	out    io.Writer
	logger *zap.SugaredLogger
}

func (p *statusPrinter) HandleMessage(_ mqtt.Client, msg mqtt.Message) {
	s, err := decodeStatus(msg.Payload())
	if err != nil {
		p.logger.Warnf("console: %s: %v", msg.Topic(), err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, FormatStatus(s))
}

// RunConsoleMQTT prints every spirit status seen on MQTT to out until ctx
// is cancelled.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config, out io.Writer, logger *zap.SugaredLogger) error {
	if cfg.MQTTBroker == "" {
		return errors.New("console: MQTT_BROKER is required")
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole, logger)
	if err != nil {
		return errors.Wrap(err, "console")
	}
	defer client.Disconnect(mqttDisconnectQuiesce)

	printer := &statusPrinter{out: out, logger: logger}
	if err := subscribe(client, cfg.StatusWildcard(), printer.HandleMessage, logger); err != nil {
		return errors.Wrap(err, "console")
	}

	<-ctx.Done()
	logger.Info("console: shutting down")
	return ctx.Err()
}
