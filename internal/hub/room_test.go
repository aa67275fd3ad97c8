package hub

import (
	"testing"

	"github.com/rs/zerolog"
)

func newBareClient(id, memberID string) *Client {
	return &Client{
		ID:       id,
		MemberID: memberID,
		Send:     make(chan []byte, 8),
		Rooms:    make(map[string]bool),
		logger:   zerolog.Nop(),
	}
}

func TestTeamRoomID(t *testing.T) {
	if got := TeamRoomID("team1", "contest1"); got != "team1:contest1" {
		t.Fatalf("TeamRoomID = %q", got)
	}
	if got := LogRoomID("m1", "p1"); got != "m1:p1" {
		t.Fatalf("LogRoomID = %q", got)
	}
}

func TestJoinRoomCreatesAndTracks(t *testing.T) {
	rm := NewRoomManager()
	c1 := newBareClient("c1", "m1")
	c2 := newBareClient("c2", "m2")

	room := rm.JoinRoom("t1:c1", c1)
	rm.JoinRoom("t1:c1", c2)

	if room.ClientCount() != 2 {
		t.Fatalf("room has %d clients, want 2", room.ClientCount())
	}
	if !c1.Rooms["t1:c1"] {
		t.Fatal("client does not track its room")
	}
}

func TestLeaveLastClientRemovesRoom(t *testing.T) {
	rm := NewRoomManager()
	c1 := newBareClient("c1", "m1")

	rm.JoinRoom("t1:c1", c1)
	rm.LeaveRoom("t1:c1", c1)

	if rm.GetRoom("t1:c1") != nil {
		t.Fatal("empty room was not removed")
	}
	if c1.Rooms["t1:c1"] {
		t.Fatal("client still tracks the left room")
	}
}

func TestLeaveAllRooms(t *testing.T) {
	rm := NewRoomManager()
	c1 := newBareClient("c1", "m1")
	c2 := newBareClient("c2", "m2")

	rm.JoinRoom("t1:c1", c1)
	rm.JoinRoom("m1:p1", c1)
	rm.JoinRoom("t1:c1", c2)

	rm.LeaveAllRooms(c1)

	if len(c1.GetRooms()) != 0 {
		t.Fatalf("client still in rooms: %v", c1.GetRooms())
	}
	room := rm.GetRoom("t1:c1")
	if room == nil || room.ClientCount() != 1 {
		t.Fatal("teammate's room membership was disturbed")
	}
	if rm.GetRoom("m1:p1") != nil {
		t.Fatal("emptied log room was not removed")
	}
}
