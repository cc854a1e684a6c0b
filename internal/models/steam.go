package models

// PlayerSummary mirrors one entry of the Steam GetPlayerSummaries response.
// Only the fields this service reads are mapped.
type PlayerSummary struct {
	SteamID       string `json:"steamid"`
	Personaname   string `json:"personaname"`
	AvatarFull    string `json:"avatarfull"`
	ProfileURL    string `json:"profileurl"`
	PersonaState  int    `json:"personastate"`
	GameExtraInfo string `json:"gameextrainfo"`
	LastLogoff    int64  `json:"lastlogoff"`
}

// Presence buckets for friend ordering.
const (
	PresenceOffline = "offline"
	PresenceOnline  = "online"
	PresenceInGame  = "in-game"
)

// Presence classifies the summary into exactly one bucket: in-game when the
// persona is non-offline and a game is running, online for any other
// non-zero persona state, offline otherwise.
func (p PlayerSummary) Presence() string {
	switch {
	case p.PersonaState > 0 && p.GameExtraInfo != "":
		return PresenceInGame
	case p.PersonaState > 0:
		return PresenceOnline
	default:
		return PresenceOffline
	}
}

// Friend is the client-facing projection of a friend's profile.
type Friend struct {
	SteamID     string `json:"steamid"`
	Personaname string `json:"personaname"`
	Avatar      string `json:"avatar"`
	ProfileURL  string `json:"profileurl"`
	Online      bool   `json:"online"`
	Status      string `json:"status"`
}
