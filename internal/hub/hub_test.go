package hub

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/DoyleJ11/hexhive/internal/room"
)

func recvRoom(t *testing.T, ch <-chan *room.Room) *room.Room {
	t.Helper()
	select {
	case rm := <-ch:
		return rm
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for hub reply")
		return nil
	}
}

func TestHub_Create_Get_SamePointer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx, nil, nil)
	reply := make(chan *room.Room, 1)

	h.Inbox() <- CreateRoom{Code: "ZED123", Reply: reply}
	rm1 := recvRoom(t, reply)

	h.Inbox() <- GetRoom{Code: "ZED123", Reply: reply}
	rm2 := recvRoom(t, reply)

	if rm1 == nil || rm2 == nil || rm1 != rm2 {
		t.Fatalf("expected same room pointer")
	}
	if rm1.Code() != "ZED123" {
		t.Fatalf("room code: want ZED123, got %q", rm1.Code())
	}
}

func TestHub_GetUnknownIsNil(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx, nil, nil)

	reply := make(chan *room.Room, 1)
	h.Inbox() <- GetRoom{Code: "NOPE", Reply: reply}
	if rm := recvRoom(t, reply); rm != nil {
		t.Fatalf("expected nil for unknown room")
	}
}

func TestHub_RemoveStopsRoom(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx, nil, nil)

	reply := make(chan *room.Room, 1)
	h.Inbox() <- EnsureRoom{Code: "A", Reply: reply}
	rm := recvRoom(t, reply)
	h.Inbox() <- EnsureRoom{Code: "B", Reply: reply}
	recvRoom(t, reply)

	h.Inbox() <- RemoveRoom{Code: "A"}
	select {
	case <-rm.Done():
	case <-time.After(time.Second):
		t.Fatalf("removed room still running")
	}

	codes := make(chan []string, 1)
	h.Inbox() <- ListRooms{Reply: codes}
	got := <-codes
	sort.Strings(got)
	if len(got) != 1 || got[0] != "B" {
		t.Fatalf("expected only room B, got %v", got)
	}
}

func TestHub_ShutdownStopsRooms(t *testing.T) {
	h := NewHub(context.Background(), nil, nil)
	reply := make(chan *room.Room, 1)
	h.Inbox() <- EnsureRoom{Code: "A", Reply: reply}
	rm := recvRoom(t, reply)

	h.Inbox() <- ShutdownHub{}
	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatalf("hub did not stop")
	}
	select {
	case <-rm.Done():
	case <-time.After(time.Second):
		t.Fatalf("room did not stop with hub")
	}
}
