package push

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/medisync/medisync/internal/auth"
	"github.com/medisync/medisync/internal/notification"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Gateway upgrades authenticated clients to WebSocket sessions and pumps
// broadcast-bus messages into the hub. The bearer token is checked once at
// handshake; an expiring token does not force a disconnect mid-session.
type Gateway struct {
	hub      *Hub
	verifier *auth.Verifier
	upgrader websocket.Upgrader
}

func NewGateway(hub *Hub, verifier *auth.Verifier) *Gateway {
	return &Gateway{
		hub:      hub,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from the app origin; auth is the
			// bearer token, not the Origin header.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS is the connect handshake: authenticate, upgrade, join the caller's
// channel and start the read/write pumps.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := auth.BearerToken(r)
	if token == "" {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	id, err := g.verifier.Verify(token)
	if err != nil {
		http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("push: upgrade for user %s: %v", id.UserID, err)
		return
	}

	sess := NewSession(id.UserID)
	g.hub.Register(sess)
	log.Printf("push: user %s connected sessions=%d", id.UserID, g.hub.Connections(id.UserID))

	hello, _ := json.Marshal(map[string]any{
		"type":    "connected",
		"message": "Connected to notification service",
		"userId":  id.UserID,
	})
	// Best effort; the pumps take over from here.
	select {
	case sess.send <- hello:
	default:
	}

	go g.writePump(conn, sess)
	go g.readPump(conn, sess)
}

// Run subscribes to the broadcast bus and routes each message to the target
// user's sessions until ctx is cancelled. One subscription per process.
func (g *Gateway) Run(ctx context.Context, client *redis.Client) error {
	sub := client.Subscribe(ctx, notification.Channel)
	defer sub.Close()

	// Fail fast if the subscription never establishes.
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	log.Printf("push: subscribed to %s channel", notification.Channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			g.route([]byte(msg.Payload))
		}
	}
}

func (g *Gateway) route(payload []byte) {
	var target struct {
		UserID uuid.UUID `json:"userId"`
	}
	if err := json.Unmarshal(payload, &target); err != nil || target.UserID == uuid.Nil {
		log.Printf("push: dropping broadcast without target recipient: %v", err)
		return
	}

	frame, err := json.Marshal(struct {
		Type         string          `json:"type"`
		Notification json.RawMessage `json:"notification"`
	}{
		Type:         "notification",
		Notification: payload,
	})
	if err != nil {
		log.Printf("push: frame broadcast: %v", err)
		return
	}

	if n := g.hub.Deliver(target.UserID, frame); n > 0 {
		log.Printf("push: delivered notification to user %s sessions=%d", target.UserID, n)
	}
}

func (g *Gateway) writePump(conn *websocket.Conn, sess *Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case payload, ok := <-sess.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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

// readPump drains inbound frames to run the pong handler; clients have no
// commands to send today.
func (g *Gateway) readPump(conn *websocket.Conn, sess *Session) {
	defer func() {
		g.hub.Unregister(sess)
		conn.Close()
		log.Printf("push: user %s disconnected sessions=%d", sess.UserID, g.hub.Connections(sess.UserID))
	}()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
