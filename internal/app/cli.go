// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/relabs-tech/channelling_portal/internal/config"
	"github.com/relabs-tech/channelling_portal/internal/logging"
)

// DefaultConfigPath is read when --config is not given.
const DefaultConfigPath = "portal_config.txt"

// RunFunc is the body of one binary.
type RunFunc func(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) error

// NewCLI wraps run with the flags shared by every binary: config file and
// log level. SIGINT/SIGTERM cancel the context and count as a clean exit.
func NewCLI(name, usage string, run RunFunc) *cli.App {
	return &cli.App{
		Name:  name,
		Usage: usage,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "KEY=VALUE configuration file",
				Value:   DefaultConfigPath,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override LOG_LEVEL (debug, info, warn, error)",
			},
		},
		Action: func(c *cli.Context) error {
			if err := config.InitGlobal(c.String("config")); err != nil {
				return errors.Wrap(err, "failed to load config")
			}
			cfg := config.Get()

			level := cfg.LogLevel
			if c.IsSet("log-level") {
				level = c.String("log-level")
			}
			logger, err := logging.New(name, level)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Infof("starting %s", name)
			err = run(ctx, cfg, logger)
			if errors.Is(err, context.Canceled) {
				logger.Info("shutting down")
				return nil
			}
			return err
		},
	}
}
