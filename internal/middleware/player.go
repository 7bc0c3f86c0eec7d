package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/utils"
)

// EnsurePlayerID stores the caller's player ID in c.Locals("playerID"). The
// ID comes from the X-Player-ID header, or the playerId query parameter for
// browsers that cannot set headers on a WebSocket handshake.
func EnsurePlayerID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Locals("playerID") != nil {
			return c.Next()
		}

		// fiber reuses request buffers, and the ID outlives the request once a
		// game seats it.
		playerID := utils.CopyString(c.Get("X-Player-ID"))
		if playerID == "" {
			playerID = utils.CopyString(c.Query("playerId"))
		}

		if playerID == "" {
			log.Debugf("rejecting %s %s: no player ID", c.Method(), c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Player ID is required. Please ensure client is properly initialized.",
			})
		}

		c.Locals("playerID", playerID)
		return c.Next()
	}
}
