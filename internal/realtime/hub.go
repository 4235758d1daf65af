package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/venturelink/messaging/internal/metrics"
)

// Hub owns every live connection plus the room registry and presence
// tracker. One instance per process, created at startup and stopped at
// shutdown. All state here is ephemeral; a restart loses nothing durable.
type Hub struct {
	log     *zap.Logger
	metrics *metrics.Metrics

	mu          sync.RWMutex
	clients     map[uuid.UUID]*Client
	userClients map[uuid.UUID]map[uuid.UUID]*Client

	registry *Registry
	presence *Tracker

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(log *zap.Logger, m *metrics.Metrics) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		log:         log,
		metrics:     m,
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[uuid.UUID]map[uuid.UUID]*Client),
		registry:    NewRegistry(),
		presence:    NewTracker(),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (h *Hub) Registry() *Registry { return h.registry }
func (h *Hub) Presence() *Tracker  { return h.presence }

// Run drives the keepalive ticker until Stop is called.
func (h *Hub) Run() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.pingAll()
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.Send)
		client.Conn.Close()
	}
	h.clients = make(map[uuid.UUID]*Client)
	h.userClients = make(map[uuid.UUID]map[uuid.UUID]*Client)
}

// Register adds a connection. Returns true when the user transitioned from
// offline to online; the caller broadcasts presence after joining rooms.
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()
	h.clients[client.ID] = client
	if _, ok := h.userClients[client.UserID]; !ok {
		h.userClients[client.UserID] = make(map[uuid.UUID]*Client)
	}
	h.userClients[client.UserID][client.ID] = client
	h.mu.Unlock()

	h.metrics.ConnectionsActive.Inc()
	wentOnline := h.presence.Connect(client.UserID, client.ID)

	h.log.Info("client registered",
		zap.String("conn_id", client.ID.String()),
		zap.String("user_id", client.UserID.String()),
		zap.Bool("went_online", wentOnline))

	return wentOnline
}

// Unregister removes a connection, leaves all its rooms and, when this was
// the user's last connection, broadcasts a single offline presence event to
// the thread rooms the user was joined to.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.ID)
	if conns, ok := h.userClients[client.UserID]; ok {
		delete(conns, client.ID)
		if len(conns) == 0 {
			delete(h.userClients, client.UserID)
		}
	}
	close(client.Send)
	h.mu.Unlock()

	// The connection's own rooms, captured as it leaves: after the maps
	// above are pruned, threadRoomsOfUser would no longer see it.
	var threadRooms []Room
	for _, room := range h.registry.LeaveAll(client.ID) {
		if room.Kind == RoomThread {
			threadRooms = append(threadRooms, room)
		}
	}

	h.metrics.ConnectionsActive.Dec()

	if h.presence.Disconnect(client.UserID, client.ID) {
		h.broadcastPresenceTo(threadRooms, client.UserID, "offline", "")
	}

	h.log.Info("client unregistered",
		zap.String("conn_id", client.ID.String()),
		zap.String("user_id", client.UserID.String()))
}

// JoinRoom adds the connection to a room and sends it the current online
// members. Authorization happens in the caller, before this.
func (h *Hub) JoinRoom(client *Client, room Room) {
	h.registry.Join(client.ID, room)
	client.SendEvent(EventRoomMembers, room.Key(), map[string]interface{}{
		"users": uuidStrings(h.OnlineUsersInRoom(room)),
	})
}

func (h *Hub) LeaveRoom(client *Client, room Room) {
	h.registry.Leave(client.ID, room)
}

// Broadcast pushes one event to every live connection in the room, at most
// once per connection. A full queue on one connection never affects the
// others; those sends are dropped and counted.
func (h *Hub) Broadcast(room Room, event string, payload interface{}, exclude uuid.UUID) {
	data, err := EncodeFrame(event, room.Key(), payload)
	if err != nil {
		h.log.Error("broadcast encode failed", zap.String("event", event), zap.Error(err))
		return
	}

	h.metrics.BroadcastsTotal.Inc()

	members := h.registry.MembersOf(room)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, connID := range members {
		if connID == exclude {
			continue
		}
		client, ok := h.clients[connID]
		if !ok {
			continue
		}
		select {
		case client.Send <- data:
		default:
			h.metrics.BroadcastDropped.Inc()
			h.log.Warn("dropping broadcast for slow client",
				zap.String("conn_id", connID.String()),
				zap.String("event", event))
		}
	}
}

// SendToUser pushes an event to every connection of one user.
func (h *Hub) SendToUser(userID uuid.UUID, event string, payload interface{}) {
	data, err := EncodeFrame(event, "", payload)
	if err != nil {
		h.log.Error("send encode failed", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.userClients[userID] {
		select {
		case client.Send <- data:
		default:
			h.metrics.BroadcastDropped.Inc()
		}
	}
}

// BroadcastPresence announces the user's current status to every thread room
// any of their connections is joined to.
func (h *Hub) BroadcastPresence(userID uuid.UUID) {
	status, custom, ok := h.presence.StatusOf(userID)
	if !ok {
		return
	}
	h.broadcastPresenceTo(h.threadRoomsOfUser(userID), userID, string(status), custom)
}

func (h *Hub) broadcastPresenceTo(rooms []Room, userID uuid.UUID, status, custom string) {
	payload := map[string]interface{}{
		"user_id": userID.String(),
		"status":  status,
	}
	if custom != "" {
		payload["status_message"] = custom
	}
	for _, room := range rooms {
		h.Broadcast(room, EventPresenceChanged, payload, uuid.Nil)
	}
}

// UserInRoom reports whether any of the user's connections is joined to the
// room. The notification dispatcher uses this for its dispatch-time check.
func (h *Hub) UserInRoom(userID uuid.UUID, room Room) bool {
	h.mu.RLock()
	conns := make([]uuid.UUID, 0, len(h.userClients[userID]))
	for id := range h.userClients[userID] {
		conns = append(conns, id)
	}
	h.mu.RUnlock()

	for _, connID := range conns {
		if h.registry.InRoom(connID, room) {
			return true
		}
	}
	return false
}

func (h *Hub) UserOnline(userID uuid.UUID) bool {
	return h.presence.IsOnline(userID)
}

// OnlineUsersInRoom resolves room connections to distinct user ids.
func (h *Hub) OnlineUsersInRoom(room Room) []uuid.UUID {
	members := h.registry.MembersOf(room)

	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[uuid.UUID]struct{})
	out := make([]uuid.UUID, 0, len(members))
	for _, connID := range members {
		client, ok := h.clients[connID]
		if !ok {
			continue
		}
		if _, dup := seen[client.UserID]; dup {
			continue
		}
		seen[client.UserID] = struct{}{}
		out = append(out, client.UserID)
	}
	return out
}

// threadRoomsOfUser unions the thread rooms across all the user's
// connections.
func (h *Hub) threadRoomsOfUser(userID uuid.UUID) []Room {
	h.mu.RLock()
	conns := make([]uuid.UUID, 0, len(h.userClients[userID]))
	for id := range h.userClients[userID] {
		conns = append(conns, id)
	}
	h.mu.RUnlock()

	seen := make(map[string]struct{})
	var rooms []Room
	for _, connID := range conns {
		for _, room := range h.registry.RoomsOf(connID) {
			if room.Kind != RoomThread {
				continue
			}
			key := room.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			rooms = append(rooms, room)
		}
	}
	return rooms
}

func (h *Hub) pingAll() {
	data, err := EncodeFrame(EventPing, "", nil)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
		}
	}
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
