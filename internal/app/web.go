// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/relabs-tech/compass_camera/internal/config"
	"github.com/relabs-tech/compass_camera/internal/gps"
	"github.com/relabs-tech/compass_camera/internal/imu"
	"github.com/relabs-tech/compass_camera/internal/orientation"
	"github.com/relabs-tech/compass_camera/internal/preview"
)

// wsReadLimit caps a single browser message; a sample is a few hundred bytes.
const wsReadLimit = 4096

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // overlay clients connect from anywhere on the local network
	},
}

// WSMessage is sent by the browser. A "sample" carries one reading from the
// phone's own sensors; "reset" starts a new heading session.
type WSMessage struct {
	Action string      `json:"action"` // sample, reset
	Sample *imu.Sample `json:"sample,omitempty"`
}

// WSResponse is pushed to the browser.
type WSResponse struct {
	Type    string             `json:"type"` // heading, gps, error
	Source  string             `json:"source,omitempty"`
	Heading *imu.HeadingReport `json:"heading,omitempty"`
	Fix     *gps.Fix           `json:"fix,omitempty"`
	Message string             `json:"message,omitempty"`
}

// PreviewResponse answers /api/preview.
type PreviewResponse struct {
	Screen   preview.Size `json:"screen"`
	Portrait bool         `json:"portrait"`
	Preview  preview.Size `json:"preview"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan WSResponse
}

// trySend queues msg unless the client is too far behind.
func (c *wsClient) trySend(msg WSResponse) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

type webServer struct {
	camera    config.CameraConfig
	calc      orientation.Calculator
	staticDir string
	logger    *zap.SugaredLogger

	mu          sync.RWMutex
	lastHeading imu.HeadingReport
	haveHeading bool
	lastFix     gps.Fix
	haveFix     bool

	clientsMu sync.Mutex
	clients   map[*wsClient]struct{}
}

func newWebServer(cfg *config.Config, calc orientation.Calculator, logger *zap.SugaredLogger) *webServer {
	return &webServer{
		camera:    cfg.Camera,
		calc:      calc,
		staticDir: cfg.Web.StaticDir,
		logger:    logger,
		clients:   make(map[*wsClient]struct{}),
	}
}

func (s *webServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/heading", s.handleHeading)
	mux.HandleFunc("/api/gps", s.handleGPS)
	mux.HandleFunc("/api/preview", s.handlePreview)
	mux.HandleFunc("/ws", s.handleWS)
	mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))
	return mux
}

func (s *webServer) setHeading(r imu.HeadingReport) {
	s.mu.Lock()
	s.lastHeading, s.haveHeading = r, true
	s.mu.Unlock()
	s.broadcast(WSResponse{Type: "heading", Source: "mqtt", Heading: &r})
}

func (s *webServer) setFix(f gps.Fix) {
	s.mu.Lock()
	s.lastFix, s.haveFix = f, true
	s.mu.Unlock()
	s.broadcast(WSResponse{Type: "gps", Fix: &f})
}

func (s *webServer) broadcast(msg WSResponse) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for c := range s.clients {
		// A slow reader skips this report and catches up with the next.
		c.trySend(msg)
	}
}

func (s *webServer) handleHeading(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	report, ok := s.lastHeading, s.haveHeading
	s.mu.RUnlock()

	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, report)
}

func (s *webServer) handleGPS(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	fix, ok := s.lastFix, s.haveFix
	s.mu.RUnlock()

	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, fix)
}

// handlePreview selects the preview size for the caller's screen. Missing
// dimensions fall back to the configured screen.
func (s *webServer) handlePreview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var screen preview.Size
	if q.Get("width") != "" || q.Get("height") != "" {
		width, werr := strconv.Atoi(q.Get("width"))
		height, herr := strconv.Atoi(q.Get("height"))
		if werr != nil || herr != nil || width <= 0 || height <= 0 {
			http.Error(w, "width and height must be positive integers", http.StatusBadRequest)
			return
		}
		screen = preview.Size{Width: width, Height: height}
	}

	camera := s.camera
	if p := q.Get("portrait"); p != "" {
		portrait, err := strconv.ParseBool(p)
		if err != nil {
			http.Error(w, "portrait must be a boolean", http.StatusBadRequest)
			return
		}
		camera.Portrait = portrait
	}

	if screen == (preview.Size{}) {
		screen = camera.Screen
	}
	s.writeJSON(w, PreviewResponse{
		Screen:   preview.Landscape(screen),
		Portrait: camera.Portrait,
		Preview:  camera.PreviewSize(screen),
	})
}

func (s *webServer) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warnw("json encode error", "error", err)
	}
}

// handleWS streams heading and GPS updates to the browser and computes a
// heading from the browser's own sensor samples, one session per connection.
func (s *webServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("websocket upgrade error", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsReadLimit)

	c := &wsClient{conn: conn, send: make(chan WSResponse, 16)}
	s.clientsMu.Lock()
	s.clients[c] = struct{}{}
	s.clientsMu.Unlock()
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, c)
		s.clientsMu.Unlock()
	}()

	done := make(chan struct{})
	defer close(done)
	go s.writeLoop(c, done)

	session := newHeadingSession(s.calc, s.logger.With("remote", r.RemoteAddr))
	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debugw("websocket read error", "error", err)
			}
			return
		}

		switch msg.Action {
		case "sample":
			if msg.Sample == nil {
				c.trySend(WSResponse{Type: "error", Message: "sample action without sample"})
				continue
			}
			if report, ok := session.handle(*msg.Sample); ok {
				c.trySend(WSResponse{Type: "heading", Source: "local", Heading: &report})
			}
		case "reset":
			session.reset()
		default:
			c.trySend(WSResponse{Type: "error", Message: "unknown action " + strconv.Quote(msg.Action)})
		}
	}
}

func (s *webServer) writeLoop(c *wsClient, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case msg := <-c.send:
			if err := c.conn.WriteJSON(msg); err != nil {
				s.logger.Debugw("websocket write error", "error", err)
				c.conn.Close() // unblocks the read loop
				return
			}
		}
	}
}

// RunWeb serves the overlay page, the JSON API and the websocket, fed by the
// heading and GPS topics.
func RunWeb() error {
	cfg, logger, err := setup("web")
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	calc, err := cfg.Sensors.Calculator()
	if err != nil {
		return err
	}
	srv := newWebServer(cfg, calc, logger)

	client, err := connectMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientIDWeb, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribeJSON(client, cfg.Topics.Heading, logger, srv.setHeading); err != nil {
		return err
	}
	if err := subscribeJSON(client, cfg.Topics.GPS, logger, srv.setFix); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Web.Addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signalContext()
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warnw("web server shutdown", "error", err)
		}
	}()

	logger.Infof("web server listening on %s", cfg.Web.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
