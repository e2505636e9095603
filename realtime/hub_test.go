package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairline/auth"
	"pairline/events"
	"pairline/models"
)

// stubPresence serves a fixed room listing
type stubPresence struct {
	summaries []*models.RoomSummary
}

func (s *stubPresence) CreateRoom(ctx context.Context, caller auth.Caller, name string, private bool, maxMembers int) (*models.Room, error) {
	return nil, nil
}

func (s *stubPresence) JoinRoom(ctx context.Context, caller auth.Caller, roomID int64) error {
	return nil
}

func (s *stubPresence) TouchPresence(ctx context.Context, caller auth.Caller, roomID int64) error {
	return nil
}

func (s *stubPresence) LeaveRoom(ctx context.Context, caller auth.Caller, roomID int64) error {
	return nil
}

func (s *stubPresence) ListRooms(ctx context.Context) ([]*models.RoomSummary, error) {
	return s.summaries, nil
}

func dialTestHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestHub_SendsInitialSnapshot(t *testing.T) {
	presence := &stubPresence{summaries: []*models.RoomSummary{
		{Room: models.Room{ID: 1, Name: "lounge"}, ActiveCount: 2, MemberCount: 3},
	}}
	hub := NewHub(events.NewBus(), presence)

	conn := dialTestHub(t, hub)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var snap Snapshot
	require.NoError(t, conn.ReadJSON(&snap))

	assert.Equal(t, "rooms_snapshot", snap.Type)
	require.Len(t, snap.Rooms, 1)
	assert.Equal(t, "lounge", snap.Rooms[0].Room.Name)
	assert.Equal(t, 2, snap.Rooms[0].ActiveCount)
}

func TestHub_BroadcastsOnPresenceEvent(t *testing.T) {
	presence := &stubPresence{summaries: []*models.RoomSummary{
		{Room: models.Room{ID: 1, Name: "lounge"}, ActiveCount: 1},
	}}
	bus := events.NewBus()
	hub := NewHub(bus, presence)

	conn := dialTestHub(t, hub)
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var initial Snapshot
	require.NoError(t, conn.ReadJSON(&initial))

	// A committed join changes what the listing shows
	presence.summaries[0].ActiveCount = 2
	bus.Emit(context.Background(), events.RoomPresenceChangedEvent{RoomID: 1, UserID: 7, Joined: true})

	var updated Snapshot
	require.NoError(t, conn.ReadJSON(&updated))
	assert.Equal(t, 2, updated.Rooms[0].ActiveCount)
}

func TestHub_RemovesClientOnDisconnect(t *testing.T) {
	hub := NewHub(events.NewBus(), &stubPresence{})

	conn := dialTestHub(t, hub)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		2*time.Second, 10*time.Millisecond)
}
