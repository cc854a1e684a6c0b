package handlers

import (
	"sync"

	"steam-chat/internal/utils"
)

// ConnMeta describes one live websocket connection.
type ConnMeta struct {
	SteamID     string
	Personaname string
	Conn        utils.JSONWriter
}

// RoomManager tracks room membership for live connections and fans messages
// out to them. It owns the only shared mutable relay state; everything is
// guarded by mu. Constructed per process, injected into the handlers.
type RoomManager struct {
	mu sync.RWMutex
	// room key -> connID -> connection. The global room key is the empty
	// string.
	rooms    map[string]map[string]utils.JSONWriter
	connMeta map[string]ConnMeta
	// per-room send locks; see Publish.
	sendMu map[string]*sync.Mutex
}

func NewRoomManager() *RoomManager {
	return &RoomManager{
		rooms:    make(map[string]map[string]utils.JSONWriter),
		connMeta: make(map[string]ConnMeta),
		sendMu:   make(map[string]*sync.Mutex),
	}
}

// Join places a connection into a room and records its identity.
func (m *RoomManager) Join(room, connID string, c utils.JSONWriter, steamID, personaname string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rooms[room]; !ok {
		m.rooms[room] = make(map[string]utils.JSONWriter)
	}
	m.rooms[room][connID] = c
	m.connMeta[connID] = ConnMeta{SteamID: steamID, Personaname: personaname, Conn: c}
}

// Leave removes the connection from the room, dropping the room's membership
// set when it empties.
func (m *RoomManager) Leave(room, connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conns, ok := m.rooms[room]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(m.rooms, room)
		}
	}
}

// Unregister removes the connection from every room and forgets its
// identity. Called on disconnect; nothing is broadcast about it.
func (m *RoomManager) Unregister(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for room, conns := range m.rooms {
		if _, ok := conns[connID]; ok {
			delete(conns, connID)
			if len(conns) == 0 {
				delete(m.rooms, room)
			}
		}
	}
	delete(m.connMeta, connID)
}

// Broadcast sends payload to every current member of the room except
// excludeConnID (pass "" to include everyone). Write failures are logged;
// the failing connection's own read loop handles teardown.
func (m *RoomManager) Broadcast(room string, payload interface{}, excludeConnID string) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for id, conn := range m.rooms[room] {
		if id == excludeConnID {
			continue
		}
		if err := utils.SendJSON(conn, payload); err != nil {
			utils.LogError(err, "Broadcast")
		}
	}
}

// SendToUser delivers payload to every connection of the given steam ID,
// regardless of room. Used for point-to-point typing signals.
func (m *RoomManager) SendToUser(steamID string, payload interface{}) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, meta := range m.connMeta {
		if meta.SteamID == steamID && meta.Conn != nil {
			if err := utils.SendJSON(meta.Conn, payload); err != nil {
				utils.LogError(err, "SendToUser")
			}
		}
	}
}

// IsUserOnline reports whether any live connection belongs to the steam ID.
func (m *RoomManager) IsUserOnline(steamID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, meta := range m.connMeta {
		if meta.SteamID == steamID {
			return true
		}
	}
	return false
}

// Publish runs store and, on success, broadcasts its payload to the whole
// room. Calls for the same room are serialized across persist+broadcast, so
// members observe messages in exactly the order they were persisted. A store
// failure broadcasts nothing.
func (m *RoomManager) Publish(room string, store func() (interface{}, error)) error {
	lock := m.roomLock(room)
	lock.Lock()
	defer lock.Unlock()

	payload, err := store()
	if err != nil {
		return err
	}
	m.Broadcast(room, payload, "")
	return nil
}

func (m *RoomManager) roomLock(room string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.sendMu[room]
	if !ok {
		lock = &sync.Mutex{}
		m.sendMu[room] = lock
	}
	return lock
}
