package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SessionContextKey is the request-locals key holding the validated session.
const SessionContextKey = "auth_session"

// RequireSession guards a route with bearer access-token authentication.
// On success the validated SessionObject is stored in the request locals
// under SessionContextKey.
func RequireSession(tokens TokenService, logger Logger) fiber.Handler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx) error {
		raw := bearerToken(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			return unauthorized(c, "Missing access token", TextCodeTokenMalformed)
		}

		claims, err := tokens.ValidateAccess(raw)
		if err != nil {
			logger.Debug("access token rejected: %v", err)
			if IsTokenExpiredError(err) {
				return unauthorized(c, "Access token expired", TextCodeTokenExpired)
			}
			return unauthorized(c, "Invalid access token", TextCodeTokenMalformed)
		}

		session, err := sessionFromAuthClaims(claims)
		if err != nil {
			return unauthorized(c, "Invalid access token", TextCodeTokenMalformed)
		}

		c.Locals(SessionContextKey, session)

		return c.Next()
	}
}

// GetSession retrieves the session placed by RequireSession.
func GetSession(c *fiber.Ctx) (*SessionObject, error) {
	raw := c.Locals(SessionContextKey)
	if raw == nil {
		return nil, ErrUnableToFindSession
	}

	session, ok := raw.(*SessionObject)
	if !ok || session == nil {
		return nil, ErrUnableToFindSession
	}

	return session, nil
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func unauthorized(c *fiber.Ctx, message, textCode string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": fiber.Map{
			"message":   message,
			"text_code": textCode,
		},
	})
}
