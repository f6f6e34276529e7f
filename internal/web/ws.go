package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/dumb-door/internal/status"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 10
	defaultInterval  = 1 * time.Second
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000
)

// wsEnvelope is the message shape pushed to websocket clients.
type wsEnvelope struct {
	Type string             `json:"type"`
	Data status.StatusInner `json:"data"`
}

// The page is served from the device itself, same origin only.
var upgrader = websocket.Upgrader{}

// handleWS pushes a status snapshot immediately and then every interval.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	interval := parseInterval(r, s.interval)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if s.log != nil {
			s.log.Warnf("web: ws upgrade failed: %v", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go s.readPump(conn, done)

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	if err := s.sendState(conn); err != nil {
		return
	}

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.sendState(conn); err != nil {
				if s.log != nil {
					s.log.Debugf("web: ws write failed: %v", err)
				}
				return
			}
		}
	}
}

// readPump drains incoming messages to handle control frames and detect closure.
func (s *Server) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) sendState(conn *websocket.Conn) error {
	snap := s.tracker.Snapshot()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(wsEnvelope{Type: "status", Data: status.BuildInner(snap)})
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 within bounds.
func parseInterval(r *http.Request, def time.Duration) time.Duration {
	q := r.URL.Query()
	if v := q.Get("interval"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}
	if v := q.Get("interval_ms"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 && ms <= maxIntervalMilli {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return def
}
