package handlers

import (
	"errors"
	"sync"
	"testing"
)

// fakeConn records every payload written to it.
type fakeConn struct {
	mu       sync.Mutex
	payloads []interface{}
	writeErr error
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.payloads = append(c.payloads, v)
	return nil
}

func (c *fakeConn) sent() []interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]interface{}, len(c.payloads))
	copy(out, c.payloads)
	return out
}

func TestBroadcastReachesRoomMembersOnly(t *testing.T) {
	t.Parallel()

	m := NewRoomManager()
	a, b, outside := &fakeConn{}, &fakeConn{}, &fakeConn{}
	m.Join("room1", "conn-a", a, "100", "alice")
	m.Join("room1", "conn-b", b, "200", "bob")
	m.Join("room2", "conn-c", outside, "300", "carol")

	m.Broadcast("room1", "hello", "")

	if got := len(a.sent()); got != 1 {
		t.Errorf("member a received %d payloads, want 1", got)
	}
	if got := len(b.sent()); got != 1 {
		t.Errorf("member b received %d payloads, want 1", got)
	}
	if got := len(outside.sent()); got != 0 {
		t.Errorf("non-member received %d payloads, want 0", got)
	}
}

func TestBroadcastExcludesConnection(t *testing.T) {
	t.Parallel()

	m := NewRoomManager()
	a, b := &fakeConn{}, &fakeConn{}
	m.Join("room", "conn-a", a, "100", "alice")
	m.Join("room", "conn-b", b, "200", "bob")

	m.Broadcast("room", "ping", "conn-a")

	if got := len(a.sent()); got != 0 {
		t.Errorf("excluded conn received %d payloads, want 0", got)
	}
	if got := len(b.sent()); got != 1 {
		t.Errorf("other conn received %d payloads, want 1", got)
	}
}

func TestLeaveStopsDelivery(t *testing.T) {
	t.Parallel()

	m := NewRoomManager()
	a := &fakeConn{}
	m.Join("room", "conn-a", a, "100", "alice")
	m.Leave("room", "conn-a")

	m.Broadcast("room", "after leave", "")

	if got := len(a.sent()); got != 0 {
		t.Errorf("left conn received %d payloads, want 0", got)
	}
}

func TestUnregisterRemovesEverywhere(t *testing.T) {
	t.Parallel()

	m := NewRoomManager()
	a := &fakeConn{}
	m.Join("room", "conn-a", a, "100", "alice")

	if !m.IsUserOnline("100") {
		t.Fatal("user should be online after join")
	}

	m.Unregister("conn-a")

	if m.IsUserOnline("100") {
		t.Error("user still online after Unregister")
	}
	m.Broadcast("room", "x", "")
	m.SendToUser("100", "y")
	if got := len(a.sent()); got != 0 {
		t.Errorf("unregistered conn received %d payloads, want 0", got)
	}
}

func TestSendToUserHitsAllConnections(t *testing.T) {
	t.Parallel()

	m := NewRoomManager()
	first, second, other := &fakeConn{}, &fakeConn{}, &fakeConn{}
	m.Join("room1", "conn-1", first, "100", "alice")
	m.Join("room2", "conn-2", second, "100", "alice")
	m.Join("room1", "conn-3", other, "200", "bob")

	m.SendToUser("100", "typing")

	if got := len(first.sent()); got != 1 {
		t.Errorf("first conn received %d, want 1", got)
	}
	if got := len(second.sent()); got != 1 {
		t.Errorf("second conn received %d, want 1", got)
	}
	if got := len(other.sent()); got != 0 {
		t.Errorf("other user received %d, want 0", got)
	}
}

func TestPublishBroadcastsStoredPayload(t *testing.T) {
	t.Parallel()

	m := NewRoomManager()
	a, b := &fakeConn{}, &fakeConn{}
	m.Join("room", "conn-a", a, "100", "alice")
	m.Join("room", "conn-b", b, "200", "bob")

	err := m.Publish("room", func() (interface{}, error) {
		return "stored", nil
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	for _, conn := range []*fakeConn{a, b} {
		sent := conn.sent()
		if len(sent) != 1 || sent[0] != "stored" {
			t.Errorf("conn received %v, want [stored]", sent)
		}
	}
}

func TestPublishStoreFailureBroadcastsNothing(t *testing.T) {
	t.Parallel()

	m := NewRoomManager()
	a := &fakeConn{}
	m.Join("room", "conn-a", a, "100", "alice")

	wantErr := errors.New("insert failed")
	err := m.Publish("room", func() (interface{}, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Publish() error = %v, want %v", err, wantErr)
	}
	if got := len(a.sent()); got != 0 {
		t.Errorf("conn received %d payloads after failed store, want 0", got)
	}
}

func TestPublishSerializesPerRoom(t *testing.T) {
	t.Parallel()

	m := NewRoomManager()
	a := &fakeConn{}
	m.Join("room", "conn-a", a, "100", "alice")

	// Many goroutines race Publish; the store closure assigns sequence
	// numbers under the room lock, so delivery must observe them in order.
	var seq int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Publish("room", func() (interface{}, error) {
				seq++
				return seq, nil
			})
		}()
	}
	wg.Wait()

	sent := a.sent()
	if len(sent) != 50 {
		t.Fatalf("received %d payloads, want 50", len(sent))
	}
	for i, v := range sent {
		if v.(int) != i+1 {
			t.Fatalf("payload %d = %v, want %d (persistence order)", i, v, i+1)
		}
	}
}
