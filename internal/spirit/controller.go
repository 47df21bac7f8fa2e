// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package spirit drives one gesture-sensing device: it scores incoming
// orientation against the reference gesture, keeps a hysteresis gauge of
// consecutive good matches and reports state changes back to the device.
package spirit

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/relabs-tech/channelling_portal/internal/gesture"
	"github.com/relabs-tech/channelling_portal/internal/orientation"
	"github.com/relabs-tech/channelling_portal/internal/protocol"
	"github.com/relabs-tech/channelling_portal/internal/transport"
	"github.com/relabs-tech/channelling_portal/internal/window"
)

// Config tunes a Controller. Zero thresholds take the package defaults.
type Config struct {
	Name  string
	Color string

	// Capacity is the rolling window size; the state stays inert until it fills.
	Capacity int
	Waveform gesture.Waveform

	FitnessThreshold float64
	InterestedGauge  int
	AwakenedGauge    int

	// SkipMalformed logs and drops malformed frames instead of stopping the loop.
	SkipMalformed bool
}

// Controller owns the transport, the rolling window and the gauge. It is
// driven from a single goroutine and is not safe for concurrent use.
type Controller struct {
	cfg       Config
	transport transport.Transport
	scorer    gesture.Scorer
	window    *window.Rolling[orientation.Measurement]
	logger    *zap.SugaredLogger
	reporter  Reporter

	state        protocol.State
	gauge        int
	timeZero     int64
	lastDistance float64
}

// New builds a controller around tr. No I/O happens until Connect or Run.
func New(tr transport.Transport, cfg Config, logger *zap.SugaredLogger) (*Controller, error) {
	if tr == nil {
		return nil, errors.New("spirit: transport is required")
	}
	if cfg.Capacity <= 0 {
		return nil, errors.Errorf("spirit: capacity must be positive, got %d", cfg.Capacity)
	}
	if cfg.FitnessThreshold <= 0 {
		cfg.FitnessThreshold = DefaultFitnessThreshold
	}
	if cfg.InterestedGauge <= 0 {
		cfg.InterestedGauge = DefaultInterestedGauge
	}
	if cfg.AwakenedGauge <= 0 {
		cfg.AwakenedGauge = DefaultAwakenedGauge
	}
	if cfg.AwakenedGauge < cfg.InterestedGauge {
		return nil, errors.Errorf("spirit: awakened gauge %d below interested gauge %d", cfg.AwakenedGauge, cfg.InterestedGauge)
	}
	if cfg.Name == "" {
		cfg.Name = "spirit"
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Controller{
		cfg:       cfg,
		transport: tr,
		scorer:    gesture.Scorer{Waveform: cfg.Waveform},
		window:    window.New[orientation.Measurement](cfg.Capacity),
		logger:    logger,
		state:     protocol.Inert,
	}, nil
}

// SetReporter installs r to receive a Status after every drive-loop cycle.
func (c *Controller) SetReporter(r Reporter) { c.reporter = r }

func (c *Controller) Connect(ctx context.Context) error { return c.transport.Connect(ctx) }

func (c *Controller) Disconnect() error { return c.transport.Disconnect() }

// MeasureOnce pulls one measurement, appends it to the window and rescores
// the window. A distance under the fitness threshold raises the gauge; any
// other distance zeroes it and re-anchors time zero on the oldest retained
// measurement.
func (c *Controller) MeasureOnce(ctx context.Context) (float64, error) {
	m, err := c.transport.Measure(ctx)
	if err != nil {
		return 0, err
	}
	c.window.Push(m)

	distance := c.scorer.Distance(c.window.Items(), c.timeZero)
	c.lastDistance = distance

	if distance < c.cfg.FitnessThreshold {
		c.gauge++
		return distance, nil
	}
	c.gauge = 0
	oldest, _ := c.window.Oldest()
	c.timeZero = oldest.Timestamp
	return distance, nil
}

// DetermineState computes the state the current gauge calls for. It does
// not change the recorded state.
func (c *Controller) DetermineState() protocol.State {
	if !c.window.Full() {
		return protocol.Inert
	}
	return stateForGauge(c.gauge, c.cfg.InterestedGauge, c.cfg.AwakenedGauge)
}

// NotifyState sends the recorded state to the device.
func (c *Controller) NotifyState() error {
	return c.transport.NotifyState(c.state)
}

// State is the recorded state, the last one notified to the device.
func (c *Controller) State() protocol.State { return c.state }

func (c *Controller) Gauge() int { return c.gauge }

func (c *Controller) TimeZero() int64 { return c.timeZero }

// Window returns the retained measurements, oldest first.
func (c *Controller) Window() []orientation.Measurement { return c.window.Items() }

// Status snapshots the controller.
func (c *Controller) Status() Status {
	s := Status{
		Name:      c.cfg.Name,
		Color:     c.cfg.Color,
		State:     c.state,
		Gauge:     c.gauge,
		Distance:  c.lastDistance,
		TimeZero:  c.timeZero,
		WindowLen: c.window.Len(),
		Capacity:  c.window.Cap(),
		At:        time.Now(),
	}
	if newest, ok := c.window.Newest(); ok {
		s.Timestamp = newest.Timestamp
	}
	return s
}

func (c *Controller) reset() {
	c.window.Reset()
	c.state = protocol.Inert
	c.gauge = 0
	c.timeZero = 0
	c.lastDistance = 0
}

// Run connects and loops until ctx is done or a measurement fails. The
// transport is disconnected on every exit path, panics included, and the
// disconnect error (if any) is combined with the loop's error.
func (c *Controller) Run(ctx context.Context) (err error) {
	defer func() {
		if derr := c.Disconnect(); derr != nil {
			c.logger.Warnf("spirit %s: disconnect: %v", c.cfg.Name, derr)
			err = multierr.Append(err, derr)
		}
	}()

	c.reset()
	if err := c.Connect(ctx); err != nil {
		return err
	}
	c.logger.Infof("spirit %s: connected, window=%d threshold=%.3f", c.cfg.Name, c.cfg.Capacity, c.cfg.FitnessThreshold)

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		distance, measureErr := c.MeasureOnce(ctx)
		if measureErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			var perr *protocol.ParseError
			if c.cfg.SkipMalformed && errors.As(measureErr, &perr) {
				c.logger.Warnf("spirit %s: skipping frame: %v", c.cfg.Name, perr)
				continue
			}
			return measureErr
		}

		changed := false
		if candidate := c.DetermineState(); candidate != c.state {
			c.logger.Infof("spirit %s: %s -> %s (gauge=%d distance=%.4f)", c.cfg.Name, c.state, candidate, c.gauge, distance)
			c.state = candidate
			changed = true
			if notifyErr := c.NotifyState(); notifyErr != nil {
				return notifyErr
			}
		}

		if c.reporter != nil {
			s := c.Status()
			s.Changed = changed
			c.reporter.Report(s)
		}
	}
}
