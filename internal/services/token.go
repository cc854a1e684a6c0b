package services

import (
	"errors"
	"time"

	"steam-chat/internal/utils"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateToken issues the session JWT handed out after a completed Steam
// login. The claims carry everything the relay needs about the sender.
func GenerateToken(steamID, personaname, avatar string) (string, error) {
	claims := jwt.MapClaims{
		"steamid":     steamID,
		"personaname": personaname,
		"avatar":      avatar,
		"exp":         time.Now().Add(time.Hour * 72).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(utils.GetEnv("JWT_SECRET", "secret")))
}

// ValidateToken parses and verifies a session token.
func ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(utils.GetEnv("JWT_SECRET", "secret")), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
