package realtime

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"pairline/events"
	"pairline/metrics"
	"pairline/models"
	"pairline/service"
)

const clientSendBuffer = 8

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Snapshot is the frame pushed to connected clients. It always carries the
// full room listing; clients never need to patch state incrementally.
type Snapshot struct {
	Type  string                `json:"type"`
	Rooms []*models.RoomSummary `json:"rooms"`
}

type client struct {
	conn *websocket.Conn
	send chan Snapshot
}

// Hub mirrors committed presence changes to websocket clients. It is
// display-only: the snapshots it pushes are read after commit and a client
// that falls behind is dropped rather than waited on.
type Hub struct {
	presence service.PresenceService

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub creates a hub and subscribes it to the events that change what
// the room listing shows.
func NewHub(bus *events.Bus, presence service.PresenceService) *Hub {
	h := &Hub{
		presence: presence,
		clients:  make(map[*client]struct{}),
	}

	refresh := func(ctx context.Context, _ events.Event) {
		h.broadcast(ctx)
	}
	bus.Subscribe(events.EventTypeRoomPresenceChanged, refresh)
	bus.Subscribe(events.EventTypeMatchCreated, refresh)
	bus.Subscribe(events.EventTypeMatchEnded, refresh)

	return h
}

// HandleWS upgrades the request and streams room snapshots until the client
// disconnects.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("Failed to upgrade websocket connection")
		return
	}

	c := &client{
		conn: conn,
		send: make(chan Snapshot, clientSendBuffer),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	metrics.WSClientConnected()

	// Seed the new client with the current state
	if snap, err := h.snapshot(r.Context()); err == nil {
		select {
		case c.send <- snap:
		default:
		}
	}

	go h.writeLoop(c)
	h.readLoop(c)
}

// snapshot builds the current room listing frame
func (h *Hub) snapshot(ctx context.Context) (Snapshot, error) {
	rooms, err := h.presence.ListRooms(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Type: "rooms_snapshot", Rooms: rooms}, nil
}

// broadcast pushes a fresh snapshot to every connected client. A client
// whose buffer is full is dropped on the spot.
func (h *Hub) broadcast(ctx context.Context) {
	h.mu.Lock()
	if len(h.clients) == 0 {
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	snap, err := h.snapshot(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to build room snapshot for broadcast")
		return
	}

	h.mu.Lock()
	for c := range h.clients {
		select {
		case c.send <- snap:
		default:
			delete(h.clients, c)
			close(c.send)
			log.Warn("Dropping slow websocket client")
		}
	}
	h.mu.Unlock()
}

func (h *Hub) writeLoop(c *client) {
	for snap := range c.send {
		if err := c.conn.WriteJSON(snap); err != nil {
			break
		}
	}
	c.conn.Close()
}

// readLoop drains the connection. Clients have nothing meaningful to say
// on this socket; reading keeps close frames and pings serviced.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	c.conn.Close()
	metrics.WSClientDisconnected()
}

// ClientCount reports the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
