package services

import (
	"context"

	"steam-chat/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatService persists and reads chat messages. Room models.GlobalRoom maps
// to a NULL room_id so global history and private rooms share one table.
type ChatService struct {
	pool *pgxpool.Pool
}

func NewChatService(pool *pgxpool.Pool) *ChatService {
	return &ChatService{pool: pool}
}

// SaveMessage persists msg into room. The database assigns the id and the
// creation timestamp; both are written back into msg so the caller
// broadcasts the canonical stored copy.
func (s *ChatService) SaveMessage(ctx context.Context, room string, msg *models.Message) error {
	query := `
		INSERT INTO messages (room_id, text, steam_name, steam_avatar)
		VALUES (NULLIF($1, ''), $2, $3, $4)
		RETURNING id, created_at
	`
	msg.RoomID = room
	return s.pool.QueryRow(ctx, query, room, msg.Text, msg.SteamName, msg.SteamAvatar).
		Scan(&msg.ID, &msg.CreatedAt)
}

// ListMessages returns every message of the room in creation order, ties
// broken by insertion order. No messages yields an empty slice, not an error.
func (s *ChatService) ListMessages(ctx context.Context, room string) ([]models.Message, error) {
	query := `
		SELECT id, COALESCE(room_id, ''), text, steam_name, steam_avatar, created_at
		FROM messages
		WHERE room_id IS NOT DISTINCT FROM NULLIF($1, '')
		ORDER BY created_at, id
	`
	rows, err := s.pool.Query(ctx, query, room)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.RoomID, &m.Text, &m.SteamName, &m.SteamAvatar, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
