package handlers

import (
	"context"
	"log"

	"steam-chat/internal/services"
	"steam-chat/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// WebSocketHandler runs the per-connection relay loop.
func WebSocketHandler(relay *Relay) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		// Identity comes from the auth middleware.
		sess := &Session{
			Conn:        c,
			ID:          uuid.New().String(),
			SteamID:     c.Locals("steamid").(string),
			Personaname: c.Locals("personaname").(string),
		}
		if avatar, ok := c.Locals("avatar").(string); ok {
			sess.Avatar = avatar
		}

		defer func() {
			relay.Disconnect(sess)
			c.Close()
		}()

		utils.SendJSON(c, map[string]string{
			"event":   "connected",
			"message": "Welcome to the chat server",
		})

		ctx := context.Background()
		for {
			msgType, raw, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("error: %v", err)
				}
				break
			}
			if msgType != websocket.TextMessage {
				continue
			}
			relay.HandleEvent(ctx, sess, raw)
		}
	})
}

// WSUpgradeMiddleware rejects plain HTTP requests on the websocket route.
func WSUpgradeMiddleware(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("allowed", true)
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// AuthMiddleware verifies the session JWT before the route runs. The token
// comes from the `access_token` query param or the Authorization header.
func AuthMiddleware(c *fiber.Ctx) error {
	token := c.Query("access_token")
	if token == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			token = authHeader[7:]
		}
	}

	if token == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing token")
	}

	claims, err := services.ValidateToken(token)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	steamID, ok := claims["steamid"].(string)
	if !ok || steamID == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}
	c.Locals("steamid", steamID)

	if name, ok := claims["personaname"].(string); ok {
		c.Locals("personaname", name)
	} else {
		c.Locals("personaname", "")
	}
	if avatar, ok := claims["avatar"].(string); ok {
		c.Locals("avatar", avatar)
	}

	return c.Next()
}
