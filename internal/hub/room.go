package hub

import (
	"sync"
	"time"
)

// TeamRoomID builds the room key a team shares for one contest. The same
// format is used by clients when they filter incoming lock events.
func TeamRoomID(teamID, contestID string) string {
	return teamID + ":" + contestID
}

// LogRoomID builds the room key for one member's submission-log stream on
// one problem.
func LogRoomID(memberID, problemID string) string {
	return memberID + ":" + problemID
}

// Room is a logical broadcast channel. It has no explicit teardown: it is
// removed when its last client leaves and stops mattering before that.
type Room struct {
	ID        string
	CreatedAt time.Time

	clients map[*Client]bool
	mu      sync.RWMutex
}

func NewRoom(id string) *Room {
	return &Room{
		ID:        id,
		CreatedAt: time.Now(),
		clients:   make(map[*Client]bool),
	}
}

func (r *Room) AddClient(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client] = true
}

func (r *Room) RemoveClient(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, client)
}

func (r *Room) GetClients() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]*Client, 0, len(r.clients))
	for client := range r.clients {
		clients = append(clients, client)
	}
	return clients
}

func (r *Room) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *Room) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients) == 0
}

// RoomManager is the explicit room registry: every subscriber list lives
// here, keyed by room id, created on first join and dropped on last leave.
type RoomManager struct {
	rooms map[string]*Room
	mu    sync.RWMutex
}

func NewRoomManager() *RoomManager {
	return &RoomManager{
		rooms: make(map[string]*Room),
	}
}

func (rm *RoomManager) GetOrCreateRoom(roomID string) *Room {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if room, exists := rm.rooms[roomID]; exists {
		return room
	}

	room := NewRoom(roomID)
	rm.rooms[roomID] = room
	return room
}

func (rm *RoomManager) GetRoom(roomID string) *Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.rooms[roomID]
}

func (rm *RoomManager) RemoveRoom(roomID string) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	room, exists := rm.rooms[roomID]
	if !exists {
		return false
	}

	if room.IsEmpty() {
		delete(rm.rooms, roomID)
		return true
	}
	return false
}

func (rm *RoomManager) JoinRoom(roomID string, client *Client) *Room {
	room := rm.GetOrCreateRoom(roomID)
	room.AddClient(client)
	client.JoinRoom(roomID)
	return room
}

func (rm *RoomManager) LeaveRoom(roomID string, client *Client) {
	rm.mu.RLock()
	room := rm.rooms[roomID]
	rm.mu.RUnlock()

	if room != nil {
		room.RemoveClient(client)
		client.LeaveRoom(roomID)

		if room.IsEmpty() {
			rm.RemoveRoom(roomID)
		}
	}
}

func (rm *RoomManager) LeaveAllRooms(client *Client) {
	rooms := client.GetRooms()
	for _, roomID := range rooms {
		rm.LeaveRoom(roomID, client)
	}
}

func (rm *RoomManager) GetStats() map[string]interface{} {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	totalClients := 0
	for _, room := range rm.rooms {
		totalClients += room.ClientCount()
	}

	return map[string]interface{}{
		"totalRooms":   len(rm.rooms),
		"totalClients": totalClients,
	}
}
