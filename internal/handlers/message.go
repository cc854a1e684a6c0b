package handlers

import (
	"context"
	"log"

	"steam-chat/internal/models"
	"steam-chat/internal/utils"
)

// MessageStore is the persistence contract the relay depends on.
// *services.ChatService implements it; tests use an in-memory fake.
type MessageStore interface {
	SaveMessage(ctx context.Context, room string, msg *models.Message) error
	ListMessages(ctx context.Context, room string) ([]models.Message, error)
}

// Session is the per-connection relay state. A connection is in at most one
// room; joining another leaves the previous one implicitly.
type Session struct {
	Conn        utils.JSONWriter
	ID          string
	SteamID     string
	Personaname string
	Avatar      string

	Room   string
	Joined bool
}

// Relay dispatches websocket events: room joins with history hydration,
// message sends with persist-then-broadcast, and typing fan-out.
type Relay struct {
	rooms *RoomManager
	store MessageStore
}

func NewRelay(rooms *RoomManager, store MessageStore) *Relay {
	return &Relay{rooms: rooms, store: store}
}

// HandleEvent processes one inbound envelope from the session's connection.
func (r *Relay) HandleEvent(ctx context.Context, sess *Session, raw []byte) {
	var msg models.WSMessage
	if err := utils.SafeJSONParse(raw, &msg); err != nil {
		utils.LogError(err, "JSON Parse")
		return
	}

	switch msg.Event {
	case "joinChat":
		r.joinRoom(ctx, sess, models.GlobalRoom)
	case "joinPrivateChat":
		if msg.FriendID == "" {
			return
		}
		// The client-sent userId is ignored; identity comes from the token.
		r.joinRoom(ctx, sess, models.DeriveRoomKey(sess.SteamID, msg.FriendID))
	case "sendMessage":
		r.send(ctx, sess, models.GlobalRoom, msg.Text)
	case "sendPrivateMessage":
		room := msg.RoomID
		if room == "" {
			if msg.FriendID == "" {
				return
			}
			room = models.DeriveRoomKey(sess.SteamID, msg.FriendID)
		}
		r.send(ctx, sess, room, msg.Message)
	case "typing":
		r.typing(sess, msg.To)
	default:
		log.Printf("Unknown event: %s", msg.Event)
	}
}

// Disconnect tears down all membership for the session. No leave event is
// broadcast.
func (r *Relay) Disconnect(sess *Session) {
	r.rooms.Unregister(sess.ID)
	sess.Joined = false
	sess.Room = ""
}

// joinRoom moves the session into room and hydrates it with the room's full
// persisted history as a single event.
func (r *Relay) joinRoom(ctx context.Context, sess *Session, room string) {
	if sess.Joined && sess.Room != room {
		r.rooms.Leave(sess.Room, sess.ID)
	}
	r.rooms.Join(room, sess.ID, sess.Conn, sess.SteamID, sess.Personaname)
	sess.Room = room
	sess.Joined = true

	history, err := r.store.ListMessages(ctx, room)
	if err != nil {
		utils.LogError(err, "ListMessages")
		r.sendError(sess, "failed to load chat history")
		return
	}

	if err := utils.SendJSON(sess.Conn, models.ChatHistoryEvent{
		Event:    "chatHistory",
		RoomID:   room,
		Messages: history,
	}); err != nil {
		utils.LogError(err, "ChatHistory")
	}
}

// send persists the message and broadcasts the stored copy to the room. The
// sender sees the message through the broadcast, with the server-assigned
// timestamp. Persistence failure drops the message: nothing is broadcast and
// only the sender is told.
func (r *Relay) send(ctx context.Context, sess *Session, room, text string) {
	if text == "" {
		r.sendError(sess, "message text is required")
		return
	}

	err := r.rooms.Publish(room, func() (interface{}, error) {
		msg := models.Message{
			Text:        text,
			SteamName:   sess.Personaname,
			SteamAvatar: sess.Avatar,
		}
		if err := r.store.SaveMessage(ctx, room, &msg); err != nil {
			return nil, err
		}
		return models.MessageEvent{Event: "message", Message: msg}, nil
	})
	if err != nil {
		utils.LogError(err, "SaveMessage")
		r.sendError(sess, "failed to send message")
	}
}

// typing relays the ephemeral signal: point-to-point when a target is named,
// room-wide minus the sender for the global room. Nothing is persisted.
func (r *Relay) typing(sess *Session, to string) {
	evt := models.TypingEvent{
		Event:    "typing",
		From:     sess.SteamID,
		Username: sess.Personaname,
	}
	if to == "" {
		r.rooms.Broadcast(models.GlobalRoom, evt, sess.ID)
		return
	}
	r.rooms.SendToUser(to, evt)
}

func (r *Relay) sendError(sess *Session, message string) {
	if err := utils.SendJSON(sess.Conn, models.ErrorEvent{Event: "error", Message: message}); err != nil {
		utils.LogError(err, "SendError")
	}
}
