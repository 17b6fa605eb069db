// Package wsstream bridges broker subscriptions onto websocket connections.
// Each connection gets the current document immediately, then one JSON
// message per published snapshot until the client disconnects or the
// subscription is cancelled.
package wsstream

import (
	"context"
	"net/http"
	"time"

	"github.com/cinecircle/cinecircle/internal/app/system/realtime"
	"github.com/cinecircle/cinecircle/internal/app/system/timeouts"
	"github.com/cinecircle/cinecircle/internal/app/system/wsticket"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Tickets carry the auth decision, so cross-origin upgrades are fine.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SeedFunc loads the topic's current document from the store. It supplies
// the first frame when the broker holds no retained snapshot, which is the
// normal case for the first subscriber after a restart. Returning (nil, nil)
// means the document does not exist yet and the stream starts empty.
type SeedFunc func(ctx context.Context) (any, error)

// Streamer serves broker topics over websockets. Connections authenticate
// with a short-lived ticket in the query string rather than a session
// cookie, since websocket requests cannot set custom headers from browsers.
type Streamer struct {
	Broker  *realtime.Broker
	Tickets *wsticket.Issuer
	Log     *zap.Logger
}

// NewStreamer constructs a Streamer.
func NewStreamer(broker *realtime.Broker, tickets *wsticket.Issuer, logger *zap.Logger) *Streamer {
	return &Streamer{Broker: broker, Tickets: tickets, Log: logger}
}

// Serve validates the ticket, upgrades the connection, and streams the
// topic's snapshots until the client goes away. The first frame is the
// document's current state: the broker's retained snapshot when one
// exists, otherwise whatever seed loads from the store.
func (s *Streamer) Serve(w http.ResponseWriter, r *http.Request, topic string, seed SeedFunc) {
	claims, err := s.Tickets.Validate(r.URL.Query().Get("ticket"))
	if err != nil {
		http.Error(w, `{"error":"invalid ticket"}`, http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Warn("websocket upgrade failed", zap.String("topic", topic), zap.Error(err))
		return
	}

	sub := s.Broker.Subscribe(topic)

	var first any
	if !sub.Primed && seed != nil {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
		first, err = seed(ctx)
		cancel()
		if err != nil {
			s.Log.Warn("stream seed failed", zap.String("topic", topic), zap.Error(err))
			first = nil
		}
	}

	s.Log.Debug("websocket subscribed",
		zap.String("topic", topic),
		zap.String("subject", claims.Subject))

	go s.readPump(conn, sub, topic)
	s.writePump(conn, sub, topic, first)
}

// readPump discards inbound frames and tears the subscription down when the
// client closes or the connection errors. It also keeps the read deadline
// fresh off pong replies.
func (s *Streamer) readPump(conn *websocket.Conn, sub *realtime.Subscription, topic string) {
	defer func() {
		sub.Cancel()
		_ = conn.Close()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	conn.SetReadLimit(512)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.Log.Debug("websocket read error", zap.String("topic", topic), zap.Error(err))
			}
			return
		}
	}
}

// writePump writes the seeded first frame if there is one, then forwards
// snapshots from the subscription, pinging on an interval so dead peers
// are detected.
func (s *Streamer) writePump(conn *websocket.Conn, sub *realtime.Subscription, topic string, first any) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.Cancel()
		_ = conn.Close()
	}()

	if first != nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(first); err != nil {
			s.Log.Debug("websocket seed write failed", zap.String("topic", topic), zap.Error(err))
			return
		}
	}

	for {
		select {
		case snapshot, ok := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Subscription cancelled or dropped.
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(snapshot); err != nil {
				s.Log.Debug("websocket write failed", zap.String("topic", topic), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
