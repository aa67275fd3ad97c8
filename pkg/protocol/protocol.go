// Package protocol defines the websocket wire format shared by the service
// and contestant clients. Every frame is a Message envelope with a typed
// JSON payload.
package protocol

import (
	"encoding/json"
	"errors"
	"time"
)

type MessageType string

const (
	// Client -> server
	MsgJoinTeamRoom MessageType = "join-contest-team-room"
	MsgLeaveRoom    MessageType = "leave-room"
	MsgPing         MessageType = "ping"

	// Relayed between teammates
	MsgLockedCheck   MessageType = "locked-check"
	MsgUnlockedCheck MessageType = "unlocked-check"

	// Server -> client
	MsgConnected        MessageType = "connected"
	MsgRoomJoined       MessageType = "room-joined"
	MsgRoomLeft         MessageType = "room-left"
	MsgPong             MessageType = "pong"
	MsgError            MessageType = "error"
	MsgSubmissionJudged MessageType = "submission-judged"
	MsgFinishUpdate     MessageType = "finish-update"
	MsgContestEvent     MessageType = "contest-event"
)

var ErrEmptyMessage = errors.New("empty message")

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

type JoinTeamRoomPayload struct {
	MemberID  string `json:"memberId"`
	TeamID    string `json:"teamId"`
	ContestID string `json:"contestId"`
}

type RoomJoinedPayload struct {
	RoomID      string `json:"roomId"`
	MemberCount int    `json:"memberCount"`
}

type LeaveRoomPayload struct {
	RoomID string `json:"roomId"`
}

type RoomLeftPayload struct {
	RoomID string `json:"roomId"`
}

type ConnectedPayload struct {
	MemberID string `json:"memberId"`
	ClientID string `json:"clientId"`
}

// LockInfo mirrors one entry of the locked set. MemberID may be empty on
// unlocked-check, which receivers treat as "remove every lock on ProblemID".
type LockInfo struct {
	MemberID  string `json:"memberId,omitempty"`
	ProblemID string `json:"problemId"`
}

type LockEventPayload struct {
	RoomID  string   `json:"roomId"`
	Message LockInfo `json:"message"`
}

type FinishUpdatePayload struct {
	RoomID   string   `json:"roomId"`
	Finished []string `json:"finished"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	msg := &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Payload = data
	}

	return msg, nil
}

func NewMessageWithRequestID(msgType MessageType, payload interface{}, requestID string) (*Message, error) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		return nil, err
	}
	msg.RequestID = requestID
	return msg, nil
}

func NewErrorMessage(code, message, requestID string) (*Message, error) {
	return NewMessageWithRequestID(MsgError, ErrorPayload{
		Code:    code,
		Message: message,
	}, requestID)
}

func ParseMessage(data []byte) (*Message, error) {
	if len(data) == 0 {
		return nil, ErrEmptyMessage
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (m *Message) ToBytes() ([]byte, error) {
	return json.Marshal(m)
}
