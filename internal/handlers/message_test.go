package handlers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"steam-chat/internal/models"
)

// fakeStore is an in-memory MessageStore with insertion-order ids and
// server-assigned timestamps.
type fakeStore struct {
	mu      sync.Mutex
	nextID  int64
	now     time.Time
	byRoom  map[string][]models.Message
	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID: 1,
		now:    time.Unix(1_700_000_000, 0),
		byRoom: make(map[string][]models.Message),
	}
}

func (s *fakeStore) SaveMessage(ctx context.Context, room string, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	msg.ID = s.nextID
	s.nextID++
	msg.RoomID = room
	msg.CreatedAt = s.now
	s.byRoom[room] = append(s.byRoom[room], *msg)
	return nil
}

func (s *fakeStore) ListMessages(ctx context.Context, room string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.byRoom[room]))
	copy(out, s.byRoom[room])
	return out, nil
}

func newTestRelay(t *testing.T) (*Relay, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	return NewRelay(NewRoomManager(), store), store
}

func newTestSession(connID, steamID, name string) (*Session, *fakeConn) {
	conn := &fakeConn{}
	return &Session{
		Conn:        conn,
		ID:          connID,
		SteamID:     steamID,
		Personaname: name,
		Avatar:      "http://a/" + steamID + ".jpg",
	}, conn
}

func handle(t *testing.T, r *Relay, sess *Session, raw string) {
	t.Helper()
	r.HandleEvent(context.Background(), sess, []byte(raw))
}

// historyEvents filters the chatHistory payloads a fake connection received.
func historyEvents(conn *fakeConn) []models.ChatHistoryEvent {
	var out []models.ChatHistoryEvent
	for _, p := range conn.sent() {
		if e, ok := p.(models.ChatHistoryEvent); ok {
			out = append(out, e)
		}
	}
	return out
}

func messageEvents(conn *fakeConn) []models.MessageEvent {
	var out []models.MessageEvent
	for _, p := range conn.sent() {
		if e, ok := p.(models.MessageEvent); ok {
			out = append(out, e)
		}
	}
	return out
}

func errorEvents(conn *fakeConn) []models.ErrorEvent {
	var out []models.ErrorEvent
	for _, p := range conn.sent() {
		if e, ok := p.(models.ErrorEvent); ok {
			out = append(out, e)
		}
	}
	return out
}

func TestPrivateChatScenario(t *testing.T) {
	t.Parallel()

	relay, _ := newTestRelay(t)
	sess1, conn1 := newTestSession("c1", "76561100", "alice")
	sess2, conn2 := newTestSession("c2", "76561200", "bob")

	// Both sides derive the same room regardless of argument order.
	handle(t, relay, sess1, `{"event":"joinPrivateChat","userId":"76561100","friendId":"76561200"}`)
	handle(t, relay, sess2, `{"event":"joinPrivateChat","userId":"76561200","friendId":"76561100"}`)

	const wantRoom = "76561100_76561200"
	for _, conn := range []*fakeConn{conn1, conn2} {
		hist := historyEvents(conn)
		if len(hist) != 1 {
			t.Fatalf("got %d chatHistory events, want 1", len(hist))
		}
		if hist[0].RoomID != wantRoom {
			t.Errorf("chatHistory room = %q, want %q", hist[0].RoomID, wantRoom)
		}
		if len(hist[0].Messages) != 0 {
			t.Errorf("fresh room hydrated with %d messages, want 0", len(hist[0].Messages))
		}
	}

	handle(t, relay, sess1, `{"event":"sendPrivateMessage","friendId":"76561200","message":"hello"}`)

	got1, got2 := messageEvents(conn1), messageEvents(conn2)
	if len(got1) != 1 || len(got2) != 1 {
		t.Fatalf("message events: sender %d, peer %d, want 1 and 1", len(got1), len(got2))
	}
	if got1[0].Text != "hello" || got2[0].Text != "hello" {
		t.Errorf("texts = %q, %q, want hello", got1[0].Text, got2[0].Text)
	}
	if !got1[0].CreatedAt.Equal(got2[0].CreatedAt) {
		t.Error("sender and peer saw different server-assigned timestamps")
	}
	if got1[0].SteamName != "alice" {
		t.Errorf("sender name = %q, want alice", got1[0].SteamName)
	}

	// A late joiner is hydrated with exactly the one persisted message.
	sess3, conn3 := newTestSession("c3", "76561200", "bob-tablet")
	handle(t, relay, sess3, `{"event":"joinPrivateChat","friendId":"76561100"}`)

	hist := historyEvents(conn3)
	if len(hist) != 1 {
		t.Fatalf("late joiner got %d chatHistory events, want 1", len(hist))
	}
	if len(hist[0].Messages) != 1 || hist[0].Messages[0].Text != "hello" {
		t.Fatalf("late joiner history = %+v, want the single hello message", hist[0].Messages)
	}
}

func TestGlobalChat(t *testing.T) {
	t.Parallel()

	relay, store := newTestRelay(t)
	sess1, conn1 := newTestSession("c1", "100", "alice")
	sess2, conn2 := newTestSession("c2", "200", "bob")

	handle(t, relay, sess1, `{"event":"joinChat","steamid":"100"}`)
	handle(t, relay, sess2, `{"event":"joinChat","steamid":"200"}`)
	handle(t, relay, sess1, `{"event":"sendMessage","text":"hi all"}`)

	for _, conn := range []*fakeConn{conn1, conn2} {
		msgs := messageEvents(conn)
		if len(msgs) != 1 || msgs[0].Text != "hi all" {
			t.Fatalf("global message events = %+v", msgs)
		}
	}

	stored, _ := store.ListMessages(context.Background(), models.GlobalRoom)
	if len(stored) != 1 {
		t.Fatalf("stored %d global messages, want 1", len(stored))
	}
}

func TestStorageFailureDropsMessage(t *testing.T) {
	t.Parallel()

	relay, store := newTestRelay(t)
	sess1, conn1 := newTestSession("c1", "100", "alice")
	sess2, conn2 := newTestSession("c2", "200", "bob")

	handle(t, relay, sess1, `{"event":"joinChat"}`)
	handle(t, relay, sess2, `{"event":"joinChat"}`)

	store.saveErr = errors.New("disk full")
	handle(t, relay, sess1, `{"event":"sendMessage","text":"doomed"}`)

	if got := len(messageEvents(conn1)) + len(messageEvents(conn2)); got != 0 {
		t.Errorf("%d message events broadcast after storage failure, want 0", got)
	}
	if got := len(errorEvents(conn1)); got != 1 {
		t.Errorf("sender got %d error events, want 1", got)
	}
	if got := len(errorEvents(conn2)); got != 0 {
		t.Errorf("peer got %d error events, want 0", got)
	}

	// Recovery: the next send goes through.
	store.saveErr = nil
	handle(t, relay, sess1, `{"event":"sendMessage","text":"back"}`)
	if got := len(messageEvents(conn2)); got != 1 {
		t.Errorf("peer got %d messages after recovery, want 1", got)
	}
}

func TestRoomSwitchLeavesPreviousRoom(t *testing.T) {
	t.Parallel()

	relay, _ := newTestRelay(t)
	sess1, conn1 := newTestSession("c1", "100", "alice")
	sess2, _ := newTestSession("c2", "200", "bob")

	handle(t, relay, sess1, `{"event":"joinChat"}`)
	handle(t, relay, sess1, `{"event":"joinPrivateChat","friendId":"300"}`)
	handle(t, relay, sess2, `{"event":"joinChat"}`)
	handle(t, relay, sess2, `{"event":"sendMessage","text":"global noise"}`)

	if got := len(messageEvents(conn1)); got != 0 {
		t.Errorf("conn in private room received %d global messages, want 0", got)
	}
	if !sess1.Joined || sess1.Room != "100_300" {
		t.Errorf("session room = %q joined=%v, want 100_300", sess1.Room, sess1.Joined)
	}
}

func TestTypingPointToPoint(t *testing.T) {
	t.Parallel()

	relay, _ := newTestRelay(t)
	sess1, conn1 := newTestSession("c1", "100", "alice")
	sess2, conn2 := newTestSession("c2", "200", "bob")
	sess3, conn3 := newTestSession("c3", "300", "carol")

	handle(t, relay, sess1, `{"event":"joinPrivateChat","friendId":"200"}`)
	handle(t, relay, sess2, `{"event":"joinPrivateChat","friendId":"100"}`)
	handle(t, relay, sess3, `{"event":"joinChat"}`)

	handle(t, relay, sess1, `{"event":"typing","to":"200"}`)

	want := models.TypingEvent{Event: "typing", From: "100", Username: "alice"}
	found := false
	for _, p := range conn2.sent() {
		if e, ok := p.(models.TypingEvent); ok {
			if e != want {
				t.Errorf("typing event = %+v, want %+v", e, want)
			}
			found = true
		}
	}
	if !found {
		t.Error("target never received the typing signal")
	}

	for _, conn := range []*fakeConn{conn1, conn3} {
		for _, p := range conn.sent() {
			if _, ok := p.(models.TypingEvent); ok {
				t.Error("typing signal leaked beyond the target")
			}
		}
	}
}

func TestTypingGlobalExcludesSender(t *testing.T) {
	t.Parallel()

	relay, _ := newTestRelay(t)
	sess1, conn1 := newTestSession("c1", "100", "alice")
	sess2, conn2 := newTestSession("c2", "200", "bob")

	handle(t, relay, sess1, `{"event":"joinChat"}`)
	handle(t, relay, sess2, `{"event":"joinChat"}`)
	handle(t, relay, sess1, `{"event":"typing"}`)

	var senderGot, peerGot int
	for _, p := range conn1.sent() {
		if _, ok := p.(models.TypingEvent); ok {
			senderGot++
		}
	}
	for _, p := range conn2.sent() {
		if _, ok := p.(models.TypingEvent); ok {
			peerGot++
		}
	}
	if senderGot != 0 {
		t.Errorf("sender received %d typing events, want 0", senderGot)
	}
	if peerGot != 1 {
		t.Errorf("peer received %d typing events, want 1", peerGot)
	}
}

func TestDisconnectSilently(t *testing.T) {
	t.Parallel()

	relay, _ := newTestRelay(t)
	sess1, conn1 := newTestSession("c1", "100", "alice")
	sess2, conn2 := newTestSession("c2", "200", "bob")

	handle(t, relay, sess1, `{"event":"joinChat"}`)
	handle(t, relay, sess2, `{"event":"joinChat"}`)

	before := len(conn2.sent())
	relay.Disconnect(sess1)

	if got := len(conn2.sent()); got != before {
		t.Errorf("disconnect broadcast %d events, want none", got-before)
	}

	handle(t, relay, sess2, `{"event":"sendMessage","text":"anyone?"}`)
	if got := len(messageEvents(conn1)); got != 0 {
		t.Errorf("disconnected conn received %d messages, want 0", got)
	}
}

func TestEmptyMessageRejected(t *testing.T) {
	t.Parallel()

	relay, store := newTestRelay(t)
	sess1, conn1 := newTestSession("c1", "100", "alice")
	handle(t, relay, sess1, `{"event":"joinChat"}`)
	handle(t, relay, sess1, `{"event":"sendMessage","text":""}`)

	if got := len(errorEvents(conn1)); got != 1 {
		t.Errorf("got %d error events for empty text, want 1", got)
	}
	stored, _ := store.ListMessages(context.Background(), models.GlobalRoom)
	if len(stored) != 0 {
		t.Errorf("empty message was persisted")
	}
}

func TestSessionIdentityOverridesPayload(t *testing.T) {
	t.Parallel()

	relay, _ := newTestRelay(t)
	sess1, conn1 := newTestSession("c1", "76561100", "alice")

	// The client lies about its userId; the derived room still uses the
	// authenticated identity.
	handle(t, relay, sess1, `{"event":"joinPrivateChat","userId":"999","friendId":"76561200"}`)

	hist := historyEvents(conn1)
	if len(hist) != 1 || hist[0].RoomID != "76561100_76561200" {
		t.Fatalf("room = %+v, want 76561100_76561200", hist)
	}
}
