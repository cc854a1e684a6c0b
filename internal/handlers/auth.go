package handlers

import (
	"errors"

	"steam-chat/internal/auth"
	"steam-chat/internal/models"
	"steam-chat/internal/services"
	"steam-chat/internal/steam"
	"steam-chat/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// SteamLoginHandler sends the browser to the Steam OpenID consent page.
func SteamLoginHandler(openID *auth.OpenID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Redirect(openID.AuthURL(), fiber.StatusFound)
	}
}

// SteamCallbackHandler completes the login: verifies the OpenID assertion,
// pulls the profile, upserts the local user row and issues the session
// token. The browser is bounced to the frontend with the token in the URL
// fragment so it never hits server logs.
func SteamCallbackHandler(openID *auth.OpenID, userService *services.UserService, friendService *services.FriendService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query, err := utils.QueryValues(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid callback"})
		}

		steamID, err := openID.Verify(c.Context(), query)
		if err != nil {
			utils.LogError(err, "SteamVerify")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "steam login failed"})
		}

		user := &models.User{SteamID: steamID}
		profile, err := friendService.GetProfile(c.Context(), steamID)
		switch {
		case err == nil:
			user.Personaname = profile.Personaname
			user.Avatar = profile.AvatarFull
			user.ProfileURL = profile.ProfileURL
		case errors.Is(err, steam.ErrProfileNotFound):
			// Private profile; keep whatever we already stored.
			if stored, getErr := userService.Get(c.Context(), steamID); getErr == nil {
				user = stored
			}
		default:
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "steam unavailable"})
		}

		stored, err := userService.Upsert(c.Context(), user)
		if err != nil {
			utils.LogError(err, "UserUpsert")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store user"})
		}

		token, err := services.GenerateToken(stored.SteamID, stored.Personaname, stored.Avatar)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to issue token"})
		}

		redirect := utils.GetEnv("LOGIN_REDIRECT_URL", "")
		if redirect == "" {
			return c.JSON(models.AuthResponse{Token: token, User: stored})
		}
		return c.Redirect(redirect+"#token="+token, fiber.StatusFound)
	}
}

// LogoutHandler exists for symmetry with the login flow; sessions are
// stateless JWTs, so the client just discards its token.
func LogoutHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "logged out"})
	}
}
