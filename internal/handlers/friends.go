package handlers

import (
	"errors"
	"net/http"

	"steam-chat/internal/services"
	"steam-chat/internal/steam"
	"steam-chat/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// GetFriendsHandler returns the authenticated user's full friend roster,
// presence-sorted, via the friends cache.
func GetFriendsHandler(friendService *services.FriendService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		steamID := c.Locals("steamid").(string)

		friends, err := friendService.GetFriends(c.Context(), steamID)
		if err != nil {
			utils.LogError(err, "GetFriends")
			return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "failed to load friends"})
		}
		return c.JSON(friends)
	}
}

// GetFriendHandler returns one profile by steam ID through the profile
// cache. A missing profile is a regular outcome, not an upstream failure.
func GetFriendHandler(friendService *services.FriendService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		steamID := c.Params("steamid")
		if steamID == "" {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "steamid required"})
		}

		profile, err := friendService.GetProfile(c.Context(), steamID)
		if errors.Is(err, steam.ErrProfileNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"success": false, "error": "profile not found"})
		}
		if err != nil {
			utils.LogError(err, "GetFriend")
			return c.Status(http.StatusBadGateway).JSON(fiber.Map{"success": false, "error": "steam unavailable"})
		}
		return c.JSON(fiber.Map{"success": true, "friend": profile})
	}
}

// MeHandler returns the authenticated user's stored account row.
func MeHandler(userService *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		steamID := c.Locals("steamid").(string)

		user, err := userService.Get(c.Context(), steamID)
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
		}
		if err != nil {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(user)
	}
}

// SteamUserHandler returns any Steam user's live profile summary through the
// profile cache.
func SteamUserHandler(friendService *services.FriendService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		steamID := c.Params("steamid")
		if steamID == "" {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "steamid required"})
		}

		profile, err := friendService.GetProfile(c.Context(), steamID)
		if errors.Is(err, steam.ErrProfileNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "profile not found"})
		}
		if err != nil {
			utils.LogError(err, "SteamUser")
			return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "steam unavailable"})
		}
		return c.JSON(profile)
	}
}
