package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestMessageRoundTrip(t *testing.T) {
	msg, err := NewMessageWithRequestID(MsgLockedCheck, LockEventPayload{
		RoomID: "team-1:contest-1",
		Message: LockInfo{
			MemberID:  "member-1",
			ProblemID: "problem-1",
		},
	}, "req-42")
	if err != nil {
		t.Fatalf("NewMessageWithRequestID: %v", err)
	}

	data, err := msg.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}

	parsed, err := ParseMessage(data)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if parsed.Type != MsgLockedCheck {
		t.Errorf("type = %q, want %q", parsed.Type, MsgLockedCheck)
	}
	if parsed.RequestID != "req-42" {
		t.Errorf("requestId = %q, want req-42", parsed.RequestID)
	}

	var payload LockEventPayload
	if err := json.Unmarshal(parsed.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.RoomID != "team-1:contest-1" || payload.Message.ProblemID != "problem-1" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestParseMessageEmpty(t *testing.T) {
	if _, err := ParseMessage(nil); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("err = %v, want ErrEmptyMessage", err)
	}
}

func TestParseMessageInvalidJSON(t *testing.T) {
	if _, err := ParseMessage([]byte("{not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestNewErrorMessage(t *testing.T) {
	msg, err := NewErrorMessage("INVALID_PAYLOAD", "bad payload", "req-1")
	if err != nil {
		t.Fatalf("NewErrorMessage: %v", err)
	}
	if msg.Type != MsgError {
		t.Errorf("type = %q, want %q", msg.Type, MsgError)
	}

	var payload ErrorPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Code != "INVALID_PAYLOAD" {
		t.Errorf("code = %q", payload.Code)
	}
}

func TestUnlockedCheckOmitsMemberID(t *testing.T) {
	data, err := json.Marshal(LockInfo{ProblemID: "problem-1"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"problemId":"problem-1"}` {
		t.Errorf("wildcard unlock should omit memberId, got %s", data)
	}
}
