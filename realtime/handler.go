package realtime

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/menprac-cloud/menPrac-backend/auth"
	"github.com/menprac-cloud/menPrac-backend/config"
	"github.com/menprac-cloud/menPrac-backend/metrics"
)

// Handler upgrades websocket connections and runs their read loop.
//
// The connection is bound to the identity already established by the HTTP
// auth handshake: the JWT is taken from the auth cookie (or a query parameter
// for clients that cannot send cookies on the upgrade request) and validated
// before the upgrade. The connection joins its user room immediately; an
// inbound register_user naming anyone else is refused.
type Handler struct {
	registry   *Registry
	dispatcher *Dispatcher
	tokens     *auth.TokenManager
	authCfg    *config.AuthConfig
	wsCfg      *config.WebSocketConfig
	upgrader   websocket.Upgrader
}

// NewHandler creates a websocket handler.
func NewHandler(registry *Registry, dispatcher *Dispatcher, tokens *auth.TokenManager, cfg *config.AppConfig) *Handler {
	allowed := cfg.Server.AllowedOrigins
	return &Handler{
		registry:   registry,
		dispatcher: dispatcher,
		tokens:     tokens,
		authCfg:    &cfg.Auth,
		wsCfg:      &cfg.WebSocket,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true // non-browser client
				}
				for _, o := range allowed {
					if strings.EqualFold(o, origin) {
						return true
					}
				}
				return false
			},
		},
	}
}

// inboundFrame is the envelope clients send: an event name and a JSON body.
type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// HandleWebSocket handles incoming websocket connections.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	tokenString := h.tokenFromRequest(r)
	if tokenString == "" {
		metrics.AuthFailures.WithLabelValues("missing_token").Inc()
		http.Error(w, "Missing authentication token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokens.Validate(r.Context(), tokenString)
	if err != nil {
		metrics.AuthFailures.WithLabelValues("invalid_token").Inc()
		log.Printf("WebSocket auth failed from %s: %v", r.RemoteAddr, err)
		http.Error(w, "Invalid authentication token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(uuid.New().String(), claims.UserID, conn, h.wsCfg)
	conn.SetReadLimit(int64(h.wsCfg.MessageSizeLimit))
	client.StartTimers()

	if err := h.registry.Add(r.Context(), client); err != nil {
		conn.Close()
		return
	}
	defer func() {
		client.Close(websocket.CloseNormalClosure, "Client disconnected")
		h.registry.Remove(client)
	}()
	conn.SetPongHandler(client.PongHandler())

	// The room binding comes from the verified token, not from anything the
	// client sends later.
	h.registry.Join(client, RoomForUser(client.UserID))
	log.Printf("Connection %s registered for user %d", client.ID, client.UserID)

	if err := client.WriteEvent(Event{
		Name:    EventConnected,
		Payload: map[string]string{"connection_id": client.ID},
	}); err != nil {
		log.Printf("Failed to send handshake ack to %s: %v", client.ID, err)
		return // defer handles cleanup
	}

	// Read loop
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) &&
				!errors.Is(err, net.ErrClosed) {
				log.Printf("Read error from connection %s: %v", client.ID, err)
			}
			break
		}
		client.UpdateActivity()
		h.registry.RefreshPresence(r.Context(), client)

		var frame inboundFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			log.Printf("Malformed frame from connection %s: %v", client.ID, err)
			continue
		}

		switch frame.Event {
		case EventRegisterUser:
			h.handleRegister(client, frame.Data)
		default:
			// Unknown inbound events are ignored; the push channel is
			// one-directional apart from registration.
		}
	}
}

// handleRegister processes an explicit register_user frame. Re-registering
// the authenticated identity is an idempotent re-join; anything else is an
// impersonation attempt and refused.
func (h *Handler) handleRegister(client *Client, data json.RawMessage) {
	requested, err := parseUserID(data)
	if err != nil {
		client.WriteEvent(Event{Name: EventError, Payload: map[string]string{
			"details": "register_user requires a user id",
		}})
		return
	}

	if requested != client.UserID {
		log.Printf("Refused register_user for user %d on connection %s (bound to user %d)",
			requested, client.ID, client.UserID)
		client.WriteEvent(Event{Name: EventError, Payload: map[string]string{
			"details": "cannot register for another user",
		}})
		return
	}

	h.registry.Join(client, RoomForUser(client.UserID))
}

// parseUserID accepts both a JSON number and a numeric string, which is what
// browser clients historically sent.
func parseUserID(data json.RawMessage) (int64, error) {
	var asNumber int64
	if err := json.Unmarshal(data, &asNumber); err == nil {
		return asNumber, nil
	}
	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		return 0, err
	}
	return strconv.ParseInt(asString, 10, 64)
}

func (h *Handler) tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(h.authCfg.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.URL.Query().Get(h.authCfg.TokenQueryParam)
}
