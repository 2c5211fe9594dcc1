package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/vidora/monetization/internal/auth"
	"github.com/vidora/monetization/internal/config"
	"github.com/vidora/monetization/internal/events"
	"github.com/vidora/monetization/internal/rbac"
	"go.uber.org/zap"
)

type wsClient struct {
	conn  *websocket.Conn
	admin bool
	mu    sync.Mutex
}

func (cl *wsClient) send(data []byte) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	_ = cl.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub pushes ledger events to connected creators. Events addressed to a
// creator go only to that creator's sockets; system events go to admins.
type WSHub struct {
	cfg        *config.Config
	subscriber events.Subscriber
	log        *zap.Logger
	mu         sync.RWMutex
	clients    map[uuid.UUID][]*wsClient
}

func NewWSHub(cfg *config.Config, subscriber events.Subscriber, log *zap.Logger) *WSHub {
	return &WSHub{
		cfg:        cfg,
		subscriber: subscriber,
		log:        log,
		clients:    make(map[uuid.UUID][]*wsClient),
	}
}

func (h *WSHub) Start(ctx context.Context) error {
	return h.subscriber.Subscribe(ctx, events.StreamLedger, h.dispatch)
}

func (h *WSHub) dispatch(event events.Event) {
	if event.UserID != nil {
		h.SendToUser(*event.UserID, event)
		return
	}
	h.sendToAdmins(event)
}

func (h *WSHub) SendToUser(userID uuid.UUID, event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, cl := range h.clients[userID] {
		cl.send(data)
	}
}

func (h *WSHub) sendToAdmins(event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.clients {
		for _, cl := range clients {
			if cl.admin {
				cl.send(data)
			}
		}
	}
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	tokenStr := conn.Query("token")
	if tokenStr == "" {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"success":false,"message":"missing token"}`))
		conn.Close()
		return
	}

	claims, err := auth.ParseJWT(h.cfg.JWTSecret, tokenStr)
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"success":false,"message":"invalid token"}`))
		conn.Close()
		return
	}

	userID := claims.UserID
	cl := &wsClient{conn: conn, admin: claims.Role == rbac.RoleAdmin || h.cfg.IsAdmin(userID)}

	h.mu.Lock()
	h.clients[userID] = append(h.clients[userID], cl)
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		clients := h.clients[userID]
		for i, other := range clients {
			if other == cl {
				h.clients[userID] = append(clients[:i], clients[i+1:]...)
				break
			}
		}
		if len(h.clients[userID]) == 0 {
			delete(h.clients, userID)
		}
		h.mu.Unlock()
		conn.Close()
	}()

	// Read loop (keep alive / pings)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
