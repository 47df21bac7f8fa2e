// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/relabs-tech/channelling_portal/internal/app"
	"github.com/relabs-tech/channelling_portal/internal/config"
)

func main() {
	run := func(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) error {
		return app.RunMockConsole(ctx, cfg, os.Stdout, logger)
	}
	if err := app.NewCLI("console", "run a simulated spirit and print its status", run).Run(os.Args); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
