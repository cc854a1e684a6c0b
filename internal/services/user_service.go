package services

import (
	"context"
	"errors"

	"steam-chat/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUserNotFound means no stored row exists for the steam ID.
var ErrUserNotFound = errors.New("user not found")

type UserService struct {
	pool *pgxpool.Pool
}

func NewUserService(pool *pgxpool.Pool) *UserService {
	return &UserService{pool: pool}
}

// Upsert stores or refreshes the Steam account row and touches last_seen.
// Called on every completed login.
func (s *UserService) Upsert(ctx context.Context, u *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (steam_id, personaname, avatar, profileurl, last_seen)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (steam_id) DO UPDATE
		SET personaname = EXCLUDED.personaname,
		    avatar      = EXCLUDED.avatar,
		    profileurl  = EXCLUDED.profileurl,
		    last_seen   = now()
		RETURNING steam_id, personaname, avatar, profileurl, last_seen
	`
	var stored models.User
	err := s.pool.QueryRow(ctx, query, u.SteamID, u.Personaname, u.Avatar, u.ProfileURL).
		Scan(&stored.SteamID, &stored.Personaname, &stored.Avatar, &stored.ProfileURL, &stored.LastSeen)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// Get returns the stored account for steamID, or ErrUserNotFound.
func (s *UserService) Get(ctx context.Context, steamID string) (*models.User, error) {
	query := `SELECT steam_id, personaname, avatar, profileurl, last_seen FROM users WHERE steam_id = $1`

	var u models.User
	err := s.pool.QueryRow(ctx, query, steamID).
		Scan(&u.SteamID, &u.Personaname, &u.Avatar, &u.ProfileURL, &u.LastSeen)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
