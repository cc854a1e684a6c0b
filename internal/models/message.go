package models

import "time"

// Message is the persisted chat record. Immutable once stored; RoomID is
// empty for the global room.
type Message struct {
	ID          int64     `json:"id,omitempty"`
	Text        string    `json:"text"`
	SteamName   string    `json:"steamName"`
	SteamAvatar string    `json:"steamAvatar"`
	RoomID      string    `json:"roomId,omitempty"`
	CreatedAt   time.Time `json:"timestamp"`
}

// WSMessage is the inbound websocket event envelope. Fields are populated
// per event; the rest stays omitted. UserID is accepted for wire
// compatibility but the relay always trusts the authenticated identity.
type WSMessage struct {
	Event string `json:"event"`

	// joinPrivateChat / sendPrivateMessage
	UserID   string `json:"userId,omitempty"`
	FriendID string `json:"friendId,omitempty"`
	Message  string `json:"message,omitempty"`
	RoomID   string `json:"roomId,omitempty"`

	// sendMessage (global)
	Text string `json:"text,omitempty"`

	// typing
	To string `json:"to,omitempty"`
}

// Outbound event payloads that don't fit the flat envelope.

// ChatHistoryEvent hydrates a freshly joined connection with the room's
// persisted messages in one shot.
type ChatHistoryEvent struct {
	Event    string    `json:"event"`
	RoomID   string    `json:"roomId,omitempty"`
	Messages []Message `json:"messages"`
}

// MessageEvent is the broadcast of one stored message.
type MessageEvent struct {
	Event string `json:"event"`
	Message
}

// TypingEvent is the relayed ephemeral typing signal.
type TypingEvent struct {
	Event    string `json:"event"`
	From     string `json:"from"`
	Username string `json:"username"`
}

// ErrorEvent is a relay-level failure notice to a single connection.
type ErrorEvent struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}
