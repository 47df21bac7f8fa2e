// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/relabs-tech/channelling_portal/internal/config"
	"github.com/relabs-tech/channelling_portal/internal/protocol"
	"github.com/relabs-tech/channelling_portal/internal/transport"
)

func mockPortalConfig() *config.Config {
	return &config.Config{
		Transport:            transport.KindMock,
		ReadTimeoutMS:        1000,
		MockSampleIntervalMS: 1,
		SpiritName:           "ember",
		MeasurementCount:     3,
		FitnessThreshold:     0.1,
		RotationDurationMS:   1000,
		PauseDurationMS:      100,
		MQTTClientIDPortal:   "portal-controller",
		TopicSpirit:          "portal/spirit",
	}
}

func TestRunPortalPublishesStatus(t *testing.T) {
	client := newFakeClient()
	dialed := withFakeMQTT(t, client, nil)

	cfg := mockPortalConfig()
	cfg.MQTTBroker = "tcp://broker:1883"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- RunPortal(ctx, cfg, zaptest.NewLogger(t).Sugar()) }()

	// Once the window fills the spirit leaves Inert and the change is published.
	require.Eventually(t, func() bool {
		for _, p := range client.publishes() {
			s, err := decodeStatus(p.payload)
			if err == nil && s.Changed && s.State != protocol.Inert {
				return true
			}
		}
		return false
	}, 5*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("RunPortal did not return after cancel")
	}

	require.Equal(t, []string{"tcp://broker:1883#portal-controller"}, *dialed)
	require.True(t, client.isDisconnected())
	for _, p := range client.publishes() {
		require.Equal(t, "portal/spirit/ember/status", p.topic)
		require.True(t, p.retained)
	}
}

func TestRunPortalWithoutBroker(t *testing.T) {
	dialed := withFakeMQTT(t, newFakeClient(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := RunPortal(ctx, mockPortalConfig(), zaptest.NewLogger(t).Sugar())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Empty(t, *dialed)
}

func TestRunPortalBrokerUnreachable(t *testing.T) {
	withFakeMQTT(t, nil, errors.New("connection refused"))

	cfg := mockPortalConfig()
	cfg.MQTTBroker = "tcp://broker:1883"

	err := RunPortal(context.Background(), cfg, zaptest.NewLogger(t).Sugar())
	require.ErrorContains(t, err, "connection refused")
}

func TestRunPortalBadTransport(t *testing.T) {
	cfg := mockPortalConfig()
	cfg.Transport = "semaphore"

	err := RunPortal(context.Background(), cfg, zaptest.NewLogger(t).Sugar())
	require.ErrorContains(t, err, "portal: transport")
}

func TestRunPortalSurfacesConnectError(t *testing.T) {
	orig := newTransport
	newTransport = func(transport.Config, *zap.SugaredLogger) (transport.Transport, error) {
		return transport.NewSerial("/dev/does-not-exist", 9600, time.Second, zap.NewNop().Sugar()), nil
	}
	t.Cleanup(func() { newTransport = orig })

	err := RunPortal(context.Background(), mockPortalConfig(), zaptest.NewLogger(t).Sugar())
	var connErr *transport.ConnectionError
	require.ErrorAs(t, err, &connErr)
}
