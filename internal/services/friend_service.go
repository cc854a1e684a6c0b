package services

import (
	"context"
	"sort"
	"time"

	"steam-chat/internal/cache"
	"steam-chat/internal/models"
)

const (
	profileTTL = 60 * time.Second
	friendsTTL = 300 * time.Second
)

// SteamAPI is the upstream surface the friend service consumes.
type SteamAPI interface {
	GetPlayerSummary(ctx context.Context, steamID string) (*models.PlayerSummary, error)
	GetFriendIDs(ctx context.Context, steamID string) ([]string, error)
	GetPlayerSummaries(ctx context.Context, ids []string) ([]models.PlayerSummary, error)
}

// FriendService answers profile and friend-roster lookups through short-lived
// caches so page loads don't hammer the Steam API.
type FriendService struct {
	api      SteamAPI
	profiles *cache.TTL[*models.PlayerSummary]
	friends  *cache.TTL[[]models.Friend]
}

func NewFriendService(api SteamAPI) *FriendService {
	return &FriendService{
		api:      api,
		profiles: cache.NewTTL[*models.PlayerSummary](profileTTL),
		friends:  cache.NewTTL[[]models.Friend](friendsTTL),
	}
}

// GetProfile returns one profile summary, cached for 60s. Not-found and
// upstream failures pass through uncached, so the next lookup retries.
func (s *FriendService) GetProfile(ctx context.Context, steamID string) (*models.PlayerSummary, error) {
	return s.profiles.GetOrFetch(ctx, steamID, func(ctx context.Context) (*models.PlayerSummary, error) {
		return s.api.GetPlayerSummary(ctx, steamID)
	})
}

// GetFriends returns the user's friend roster sorted by presence, cached for
// 5 minutes. The refresh is all-or-nothing: any upstream failure caches
// nothing and surfaces the error.
func (s *FriendService) GetFriends(ctx context.Context, steamID string) ([]models.Friend, error) {
	return s.friends.GetOrFetch(ctx, steamID, func(ctx context.Context) ([]models.Friend, error) {
		return s.buildRoster(ctx, steamID)
	})
}

func (s *FriendService) buildRoster(ctx context.Context, steamID string) ([]models.Friend, error) {
	ids, err := s.api.GetFriendIDs(ctx, steamID)
	if err != nil {
		return nil, err
	}

	summaries, err := s.api.GetPlayerSummaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	friends := make([]models.Friend, 0, len(summaries))
	for _, p := range summaries {
		// Partial upstream records happen; drop anything unusable.
		if p.SteamID == "" || p.Personaname == "" {
			continue
		}
		status := p.Presence()
		friends = append(friends, models.Friend{
			SteamID:     p.SteamID,
			Personaname: p.Personaname,
			Avatar:      p.AvatarFull,
			ProfileURL:  p.ProfileURL,
			Online:      status != models.PresenceOffline,
			Status:      status,
		})
	}

	// In-game first, then online, then offline; upstream order within each
	// class (stable).
	sort.SliceStable(friends, func(i, j int) bool {
		return presenceRank(friends[i].Status) > presenceRank(friends[j].Status)
	})
	return friends, nil
}

func presenceRank(status string) int {
	switch status {
	case models.PresenceInGame:
		return 2
	case models.PresenceOnline:
		return 1
	default:
		return 0
	}
}
