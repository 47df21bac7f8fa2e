// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relabs-tech/channelling_portal/internal/config"
	"github.com/relabs-tech/channelling_portal/internal/spirit"
	"github.com/relabs-tech/channelling_portal/internal/transport"
)

// RunMockConsole drives a spirit from the simulated transport and prints
// every status to out. The configured transport and broker are ignored.
func RunMockConsole(ctx context.Context, cfg *config.Config, out io.Writer, logger *zap.SugaredLogger) error {
	tc := cfg.TransportConfig()
	tc.Kind = transport.KindMock

	tr, err := newTransport(tc, logger.Named("transport"))
	if err != nil {
		return errors.Wrap(err, "mock console: transport")
	}
	ctrl, err := spirit.New(tr, cfg.SpiritConfig(), logger.Named("spirit"))
	if err != nil {
		return errors.Wrap(err, "mock console: controller")
	}

	ctrl.SetReporter(spirit.ReporterFunc(func(s spirit.Status) {
		fmt.Fprintln(out, FormatStatus(s))
	}))
	return ctrl.Run(ctx)
}
