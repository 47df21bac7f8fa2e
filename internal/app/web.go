// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/relabs-tech/channelling_portal/internal/config"
	"github.com/relabs-tech/channelling_portal/internal/spirit"
)

const (
	// statusBuffer is how many updates a slow websocket client may lag.
	statusBuffer   = 16
	wsWriteTimeout = 5 * time.Second
	shutdownGrace  = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// StatusBoard keeps the latest status of every spirit seen on MQTT and
// fans updates out to websocket clients.
type StatusBoard struct {
	mu       sync.RWMutex
	statuses map[string]spirit.Status
	watchers map[chan spirit.Status]struct{}
	logger   *zap.SugaredLogger
}

func NewStatusBoard(logger *zap.SugaredLogger) *StatusBoard {
	return &StatusBoard{
		statuses: make(map[string]spirit.Status),
		watchers: make(map[chan spirit.Status]struct{}),
		logger:   logger,
	}
}

// Update records s and forwards it to every watcher. Watchers that are too
// far behind miss the update.
func (b *StatusBoard) Update(s spirit.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.statuses[s.Name] = s
	for ch := range b.watchers {
		select {
		case ch <- s:
		default:
			b.logger.Debugf("websocket client lagging, dropped update for %s", s.Name)
		}
	}
}

// Snapshot returns the latest statuses sorted by spirit name.
func (b *StatusBoard) Snapshot() []spirit.Status {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]spirit.Status, 0, len(b.statuses))
	for _, s := range b.statuses {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Watch registers a watcher; the returned func unregisters it.
func (b *StatusBoard) Watch() (<-chan spirit.Status, func()) {
	ch := make(chan spirit.Status, statusBuffer)

	b.mu.Lock()
	b.watchers[ch] = struct{}{}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		delete(b.watchers, ch)
		b.mu.Unlock()
	}
}

// HandleMessage is the MQTT callback for status topics.
func (b *StatusBoard) HandleMessage(_ mqtt.Client, msg mqtt.Message) {
	s, err := decodeStatus(msg.Payload())
	if err != nil {
		b.logger.Warnf("%s: %v", msg.Topic(), err)
		return
	}
	b.Update(s)
}

// Handler serves the JSON API, the websocket stream and static files.
func (b *StatusBoard) Handler(staticDir string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/spirits", b.serveSpirits)
	mux.HandleFunc("/ws", b.serveWS)
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	return mux
}

func (b *StatusBoard) serveSpirits(w http.ResponseWriter, _ *http.Request) {
	snapshot := b.Snapshot()
	if len(snapshot) == 0 {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		b.logger.Warnf("json encode error: %v", err)
	}
}

// serveWS sends the current snapshot, then one message per update.
func (b *StatusBoard) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warnf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	updates, stop := b.Watch()
	defer stop()

	// The read side only exists to notice the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					b.logger.Debugf("websocket error: %v", err)
				}
				return
			}
		}
	}()

	send := func(s spirit.Status) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(s); err != nil {
			b.logger.Debugf("websocket write error: %v", err)
			return false
		}
		return true
	}

	for _, s := range b.Snapshot() {
		if !send(s) {
			return
		}
	}
	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case s := <-updates:
			if !send(s) {
				return
			}
		}
	}
}

// RunWeb subscribes to every spirit's status and serves the status board
// until ctx is cancelled.
func RunWeb(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) error {
	if cfg.MQTTBroker == "" {
		return errors.New("web: MQTT_BROKER is required")
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb, logger)
	if err != nil {
		return errors.Wrap(err, "web")
	}
	defer client.Disconnect(mqttDisconnectQuiesce)

	board := NewStatusBoard(logger)
	if err := subscribe(client, cfg.StatusWildcard(), board.HandleMessage, logger); err != nil {
		return errors.Wrap(err, "web")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler:           board.Handler("web"),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serveUntilDone(ctx, srv, logger)
}

// serveUntilDone runs srv and shuts it down gracefully when ctx ends.
func serveUntilDone(ctx context.Context, srv *http.Server, logger *zap.SugaredLogger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("web server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "web: serve")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "web: shutdown")
	}
	return ctx.Err()
}
