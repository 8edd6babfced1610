// middleware/player.go
package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"lytic-game-system/utils"
)

// PlayerContextMiddleware resolves the player from a Supabase access token
// (HS256, signed with the project's JWT secret) and stores the subject as
// c.Locals("user_id"). Requests without a usable token continue as guests so a
// game result is never refused because a session expired mid-game.
func PlayerContextMiddleware(jwtSecret string) fiber.Handler {
	secret := []byte(jwtSecret)
	return func(c *fiber.Ctx) error {
		raw := bearerToken(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			c.Locals("user_id", "")
			return c.Next()
		}

		userID, err := PlayerFromToken(raw, secret)
		if err != nil {
			utils.Log.Warnw("⚠️ [PLAYER_CTX] Ignoring unusable access token, continuing as guest",
				"path", c.Path(), "error", err)
			c.Locals("user_id", "")
			return c.Next()
		}

		c.Locals("user_id", userID)
		utils.Log.Debugw("👤 [PLAYER_CTX] Player resolved", "user_id", userID, "path", c.Path())
		return c.Next()
	}
}

// PlayerFromToken verifies a token and returns its subject.
func PlayerFromToken(raw string, secret []byte) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
