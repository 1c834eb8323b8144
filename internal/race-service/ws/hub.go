package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/turtle-race-platform/pkg/contracts/events"
)

// Presence conta espectadores por corrida
type Presence interface {
	Join(ctx context.Context, raceID string) (int, error)
	Leave(ctx context.Context, raceID string) (int, error)
}

// Notifier distribui updates entre instâncias (Redis Pub/Sub).
// Sem Notifier, o hub entrega só para as conexões locais.
type Notifier interface {
	PublishUpdate(ctx context.Context, u events.RaceUpdate) error
}

// conn serializa escritas: gorilla/websocket aceita um único writer por vez
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) write(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

// Hub gerencia conexões WebSocket e assinaturas por corrida
// subs: mapeia raceID para o conjunto de conexões inscritas
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	subs     map[string]map[*conn]struct{}

	Log      *zap.Logger
	Presence Presence
	Notifier Notifier

	OnConnect    func()
	OnDisconnect func()
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(allowOrigin func(r *http.Request) bool, log *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*conn]struct{}),
		Log:      log,
		Presence: NewLocalPresence(),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket
// Cada cliente pode assistir várias corridas ao mesmo tempo
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &conn{ws: ws}
	defer ws.Close()

	if h.OnConnect != nil {
		h.OnConnect()
	}
	joined := map[string]struct{}{}

	for {
		var msg ClientMsg
		if err := ws.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			if msg.RaceID == "" {
				continue
			}
			if _, ok := joined[msg.RaceID]; ok {
				continue
			}
			joined[msg.RaceID] = struct{}{}
			h.subscribe(r.Context(), msg.RaceID, c)
		case "unsubscribe":
			if _, ok := joined[msg.RaceID]; !ok {
				continue
			}
			delete(joined, msg.RaceID)
			h.unsubscribe(context.Background(), msg.RaceID, c)
		case "ping":
			_ = c.write([]byte(`{"type":"pong"}`))
		}
	}

	// Remove a conexão de todas as assinaturas ao desconectar
	for raceID := range joined {
		h.unsubscribe(context.Background(), raceID, c)
	}
	if h.OnDisconnect != nil {
		h.OnDisconnect()
	}
}

func (h *Hub) subscribe(ctx context.Context, raceID string, c *conn) {
	h.mu.Lock()
	if _, ok := h.subs[raceID]; !ok {
		h.subs[raceID] = make(map[*conn]struct{})
	}
	h.subs[raceID][c] = struct{}{}
	h.mu.Unlock()

	n, err := h.Presence.Join(ctx, raceID)
	if err != nil {
		h.Log.Warn("presence join failed", zap.String("raceId", raceID), zap.Error(err))
		return
	}
	h.announcePresence(ctx, raceID, n)
}

func (h *Hub) unsubscribe(ctx context.Context, raceID string, c *conn) {
	h.mu.Lock()
	if m, ok := h.subs[raceID]; ok {
		delete(m, c)
		if len(m) == 0 {
			delete(h.subs, raceID)
		}
	}
	h.mu.Unlock()

	n, err := h.Presence.Leave(ctx, raceID)
	if err != nil {
		h.Log.Warn("presence leave failed", zap.String("raceId", raceID), zap.Error(err))
		return
	}
	h.announcePresence(ctx, raceID, n)
}

func (h *Hub) announcePresence(ctx context.Context, raceID string, viewers int) {
	u := events.RaceUpdate{
		Type:    events.RaceUpdatePresence,
		RaceID:  raceID,
		Viewers: viewers,
		Ts:      time.Now().UTC(),
	}
	if h.Notifier == nil {
		h.Broadcast(u)
		return
	}
	pctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if err := h.Notifier.PublishUpdate(pctx, u); err != nil {
		h.Log.Warn("presence publish failed", zap.String("raceId", raceID), zap.Error(err))
		h.Broadcast(u)
	}
}

// Broadcast envia o update para todos os clientes inscritos na corrida
func (h *Hub) Broadcast(update events.RaceUpdate) {
	h.mu.RLock()
	set := h.subs[update.RaceID]
	conns := make([]*conn, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	if len(conns) == 0 {
		return
	}

	b, _ := json.Marshal(update)
	for _, c := range conns {
		_ = c.write(b)
	}
}
