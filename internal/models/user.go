package models

import "time"

// User is the locally persisted Steam account, refreshed on every login.
type User struct {
	SteamID     string    `json:"steamid"`
	Personaname string    `json:"personaname"`
	Avatar      string    `json:"avatar"`
	ProfileURL  string    `json:"profileurl"`
	LastSeen    time.Time `json:"lastSeen"`
}

// AuthResponse is returned after a completed Steam login.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
