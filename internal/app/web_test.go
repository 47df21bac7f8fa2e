// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/relabs-tech/channelling_portal/internal/config"
	"github.com/relabs-tech/channelling_portal/internal/protocol"
	"github.com/relabs-tech/channelling_portal/internal/spirit"
)

func statusPayload(t *testing.T, s spirit.Status) []byte {
	t.Helper()
	b, err := json.Marshal(s)
	require.NoError(t, err)
	return b
}

func TestStatusBoardSnapshotSortedAndLatest(t *testing.T) {
	t.Parallel()

	b := NewStatusBoard(zaptest.NewLogger(t).Sugar())
	require.Empty(t, b.Snapshot())

	b.Update(spirit.Status{Name: "willow", State: protocol.Dormant})
	b.Update(spirit.Status{Name: "ember", State: protocol.Inert})
	b.Update(spirit.Status{Name: "ember", State: protocol.Awakened, Gauge: 41})

	snap := b.Snapshot()
	require.Len(t, snap, 2)
	require.Equal(t, "ember", snap[0].Name)
	require.Equal(t, protocol.Awakened, snap[0].State)
	require.Equal(t, "willow", snap[1].Name)
}

func TestStatusBoardHandleMessage(t *testing.T) {
	t.Parallel()

	b := NewStatusBoard(zaptest.NewLogger(t).Sugar())
	b.HandleMessage(nil, fakeMessage{topic: "portal/spirit/ember/status", payload: []byte("not json")})
	require.Empty(t, b.Snapshot())

	b.HandleMessage(nil, fakeMessage{
		topic:   "portal/spirit/ember/status",
		payload: statusPayload(t, spirit.Status{Name: "ember", State: protocol.Interested}),
	})
	require.Len(t, b.Snapshot(), 1)
}

func TestStatusBoardWatchersDropWhenLagging(t *testing.T) {
	t.Parallel()

	b := NewStatusBoard(zaptest.NewLogger(t).Sugar())
	updates, stop := b.Watch()

	for i := 0; i < statusBuffer+5; i++ {
		b.Update(spirit.Status{Name: "ember", Gauge: i})
	}
	require.Len(t, updates, statusBuffer)

	stop()
	b.Update(spirit.Status{Name: "ember", Gauge: 99})
	require.Len(t, updates, statusBuffer)
}

func TestAPISpirits(t *testing.T) {
	t.Parallel()

	b := NewStatusBoard(zaptest.NewLogger(t).Sugar())
	srv := httptest.NewServer(b.Handler(t.TempDir()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/spirits")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	b.Update(spirit.Status{Name: "ember", State: protocol.Interested, Gauge: 15})

	resp, err = http.Get(srv.URL + "/api/spirits")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got []spirit.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 1)
	require.Equal(t, protocol.Interested, got[0].State)
	require.Equal(t, 15, got[0].Gauge)
}

func TestStaticFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>portal</h1>"), 0o600))

	b := NewStatusBoard(zaptest.NewLogger(t).Sugar())
	srv := httptest.NewServer(b.Handler(dir))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebSocketStreamsSnapshotThenUpdates(t *testing.T) {
	t.Parallel()

	b := NewStatusBoard(zaptest.NewLogger(t).Sugar())
	b.Update(spirit.Status{Name: "ember", State: protocol.Dormant})

	srv := httptest.NewServer(b.Handler(t.TempDir()))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first spirit.Status
	require.NoError(t, conn.ReadJSON(&first))
	require.Equal(t, "ember", first.Name)
	require.Equal(t, protocol.Dormant, first.State)

	// The watcher registers before the snapshot is sent, so this cannot be missed.
	b.Update(spirit.Status{Name: "ember", State: protocol.Interested, Changed: true})

	var next spirit.Status
	require.NoError(t, conn.ReadJSON(&next))
	require.Equal(t, protocol.Interested, next.State)
	require.True(t, next.Changed)
}

func TestRunWebRequiresBroker(t *testing.T) {
	t.Parallel()

	err := RunWeb(context.Background(), &config.Config{}, zaptest.NewLogger(t).Sugar())
	require.ErrorContains(t, err, "MQTT_BROKER")
}

func TestRunWebSubscribeFailure(t *testing.T) {
	client := newFakeClient()
	client.subscribeErr = errors.New("not authorized")
	withFakeMQTT(t, client, nil)

	cfg := &config.Config{MQTTBroker: "tcp://broker:1883", MQTTClientIDWeb: "portal-web", TopicSpirit: "portal/spirit", WebServerPort: 8090}
	err := RunWeb(context.Background(), cfg, zaptest.NewLogger(t).Sugar())
	require.ErrorContains(t, err, "not authorized")
	require.True(t, client.isDisconnected())
}

func TestServeUntilDoneShutsDown(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- serveUntilDone(ctx, srv, zaptest.NewLogger(t).Sugar()) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
