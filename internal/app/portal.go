// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relabs-tech/channelling_portal/internal/config"
	"github.com/relabs-tech/channelling_portal/internal/spirit"
	"github.com/relabs-tech/channelling_portal/internal/transport"
)

// newTransport is overridden in tests.
var newTransport = transport.New

// RunPortal drives one spirit device until ctx is cancelled or the link
// fails. When MQTT_BROKER is set every status is also published there.
func RunPortal(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) error {
	tr, err := newTransport(cfg.TransportConfig(), logger.Named("transport"))
	if err != nil {
		return errors.Wrap(err, "portal: transport")
	}

	ctrl, err := spirit.New(tr, cfg.SpiritConfig(), logger.Named("spirit"))
	if err != nil {
		return errors.Wrap(err, "portal: controller")
	}

	rs := reporters{statusLogger{logger: logger}}
	if cfg.MQTTBroker != "" {
		client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDPortal, logger)
		if err != nil {
			return errors.Wrap(err, "portal")
		}
		defer client.Disconnect(mqttDisconnectQuiesce)
		rs = append(rs, NewStatusPublisher(client, cfg.StatusTopic, logger))
	} else {
		logger.Info("MQTT_BROKER not set, status publishing disabled")
	}
	ctrl.SetReporter(rs)

	logger.Infof("portal: driving spirit %q over %s", cfg.SpiritName, cfg.Transport)
	return ctrl.Run(ctx)
}
