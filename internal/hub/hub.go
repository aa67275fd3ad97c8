// Package hub is the realtime broadcast layer. Teammates in the same
// contest-team room see each other's lock and unlock events with low
// latency. The relay is best-effort: the lock store stays authoritative and
// clients reconcile against it on a slow poll, so a dropped frame costs
// freshness, never correctness.
package hub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/inacomp/contest-live-service/pkg/protocol"
)

// Relay fans a room message out to sibling service instances. Implemented by
// the Redis pub/sub layer; nil when running a single instance.
type Relay interface {
	PublishToRoom(ctx context.Context, roomID string, msg *protocol.Message) error
	SubscribeToRoom(roomID string) error
}

type Hub struct {
	clients       map[*Client]bool
	memberClients map[string]map[*Client]bool
	Register      chan *Client
	Unregister    chan *Client
	mu            sync.RWMutex
	logger        zerolog.Logger
	rooms         *RoomManager
	relay         Relay
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		memberClients: make(map[string]map[*Client]bool),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		rooms:         NewRoomManager(),
		logger:        logger.With().Str("component", "hub").Logger(),
	}
}

// SetRelay attaches the cross-instance fan-out. Must be called before Run.
func (h *Hub) SetRelay(relay Relay) {
	h.relay = relay
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	if h.memberClients[client.MemberID] == nil {
		h.memberClients[client.MemberID] = make(map[*Client]bool)
	}
	h.memberClients[client.MemberID][client] = true

	h.logger.Info().
		Str("clientId", client.ID).
		Str("memberId", client.MemberID).
		Int("totalClients", len(h.clients)).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		h.rooms.LeaveAllRooms(client)

		delete(h.clients, client)
		close(client.Send)

		if clients, ok := h.memberClients[client.MemberID]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.memberClients, client.MemberID)
			}
		}

		h.logger.Info().
			Str("clientId", client.ID).
			Str("memberId", client.MemberID).
			Int("totalClients", len(h.clients)).
			Msg("Client unregistered")
	}
}

func (h *Hub) ProcessMessage(client *Client, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		h.logger.Error().Err(err).Str("clientId", client.ID).Msg("Failed to parse message")
		h.sendError(client, "PARSE_ERROR", "Invalid message format", "")
		return
	}

	h.logger.Debug().
		Str("clientId", client.ID).
		Str("type", string(msg.Type)).
		Msg("Processing message")

	switch msg.Type {
	case protocol.MsgJoinTeamRoom:
		h.handleJoinTeamRoom(client, msg)
	case protocol.MsgLeaveRoom:
		h.handleLeaveRoom(client, msg)
	case protocol.MsgLockedCheck, protocol.MsgUnlockedCheck:
		h.handleLockEvent(client, msg)
	case protocol.MsgPing:
		h.handlePing(client, msg)
	default:
		h.sendError(client, "UNKNOWN_TYPE", "Unknown message type", msg.RequestID)
	}
}

func (h *Hub) handleJoinTeamRoom(client *Client, msg *protocol.Message) {
	var payload protocol.JoinTeamRoomPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(client, "INVALID_PAYLOAD", "Invalid join room payload", msg.RequestID)
		return
	}

	if payload.TeamID == "" || payload.ContestID == "" {
		h.sendError(client, "INVALID_ROOM", "Team and contest IDs are required", msg.RequestID)
		return
	}

	roomID := TeamRoomID(payload.TeamID, payload.ContestID)
	room := h.rooms.JoinRoom(roomID, client)

	if h.relay != nil {
		if err := h.relay.SubscribeToRoom(roomID); err != nil {
			h.logger.Error().Err(err).Str("roomId", roomID).Msg("Failed to subscribe relay to room")
		}
	}

	h.logger.Info().
		Str("clientId", client.ID).
		Str("roomId", roomID).
		Int("memberCount", room.ClientCount()).
		Msg("Client joined team room")

	response, _ := protocol.NewMessageWithRequestID(protocol.MsgRoomJoined, protocol.RoomJoinedPayload{
		RoomID:      roomID,
		MemberCount: room.ClientCount(),
	}, msg.RequestID)

	h.SendToClient(client, response)
}

func (h *Hub) handleLeaveRoom(client *Client, msg *protocol.Message) {
	var payload protocol.LeaveRoomPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(client, "INVALID_PAYLOAD", "Invalid leave room payload", msg.RequestID)
		return
	}

	h.rooms.LeaveRoom(payload.RoomID, client)

	h.logger.Info().
		Str("clientId", client.ID).
		Str("roomId", payload.RoomID).
		Msg("Client left room")

	response, _ := protocol.NewMessageWithRequestID(protocol.MsgRoomLeft, protocol.RoomLeftPayload{
		RoomID: payload.RoomID,
	}, msg.RequestID)

	h.SendToClient(client, response)
}

// handleLockEvent relays a locked-check or unlocked-check to the whole room,
// sender included, and forwards it to sibling instances. The lock store write
// happens over REST before the client emits the event, so a teammate who
// reacts to it can trust the store already reflects it.
func (h *Hub) handleLockEvent(client *Client, msg *protocol.Message) {
	var payload protocol.LockEventPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(client, "INVALID_PAYLOAD", "Invalid lock event payload", msg.RequestID)
		return
	}

	if payload.RoomID == "" || payload.Message.ProblemID == "" {
		h.sendError(client, "INVALID_PAYLOAD", "Room and problem IDs are required", msg.RequestID)
		return
	}

	h.BroadcastToRoom(context.Background(), payload.RoomID, msg)
}

// BroadcastToRoom delivers to local room members and forwards to sibling
// instances through the relay.
func (h *Hub) BroadcastToRoom(ctx context.Context, roomID string, msg *protocol.Message) {
	h.SendToRoom(roomID, msg)

	if h.relay != nil {
		if err := h.relay.PublishToRoom(ctx, roomID, msg); err != nil {
			h.logger.Error().Err(err).Str("roomId", roomID).Msg("Failed to relay room message")
		}
	}
}

func (h *Hub) handlePing(client *Client, msg *protocol.Message) {
	response, _ := protocol.NewMessageWithRequestID(protocol.MsgPong, nil, msg.RequestID)
	h.SendToClient(client, response)
}

func (h *Hub) SendToClient(client *Client, msg *protocol.Message) {
	data, err := msg.ToBytes()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to serialize message")
		return
	}

	select {
	case client.Send <- data:
	default:
		h.logger.Warn().Str("clientId", client.ID).Msg("Client send buffer full, disconnecting")
		h.Unregister <- client
	}
}

func (h *Hub) SendToMember(memberID string, msg *protocol.Message) {
	h.mu.RLock()
	clients := h.memberClients[memberID]
	h.mu.RUnlock()

	for client := range clients {
		h.SendToClient(client, msg)
	}
}

func (h *Hub) SendToRoom(roomID string, msg *protocol.Message) {
	room := h.rooms.GetRoom(roomID)
	if room == nil {
		return
	}

	data, err := msg.ToBytes()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to serialize message")
		return
	}

	for _, client := range room.GetClients() {
		select {
		case client.Send <- data:
		default:
		}
	}
}

func (h *Hub) Broadcast(msg *protocol.Message) {
	data, err := msg.ToBytes()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to serialize message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.Send <- data:
		default:
		}
	}
}

func (h *Hub) sendError(client *Client, code, message, requestID string) {
	errMsg, _ := protocol.NewErrorMessage(code, message, requestID)
	h.SendToClient(client, errMsg)
}

func (h *Hub) GetStats() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]interface{}{
		"totalClients": len(h.clients),
		"totalMembers": len(h.memberClients),
		"rooms":        h.rooms.GetStats(),
	}
}
