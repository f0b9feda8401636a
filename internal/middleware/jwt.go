package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/portion-tracker-api/internal/models"
	"github.com/noah-isme/portion-tracker-api/internal/utils"
)

const (
	localUserID   = "user_id"
	localUserRole = "user_role"
)

// JWTProtected validates HS256 bearer tokens and stores the subject id and
// role on the request. Tokens whose role is outside the known set are
// rejected.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get(fiber.HeaderAuthorization)
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "bearer "
		if !strings.HasPrefix(strings.ToLower(authorization), bearer) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		userID, err := userIDFromClaims(claims)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token subject")
		}
		role, err := roleFromClaims(claims)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token role")
		}

		c.Locals(localUserID, userID)
		c.Locals(localUserRole, role)
		return c.Next()
	}
}

// Identity returns the authenticated user id and role; ok is false when
// JWTProtected has not run.
func Identity(c *fiber.Ctx) (uint, models.Role, bool) {
	id, idOK := c.Locals(localUserID).(uint)
	role, roleOK := c.Locals(localUserRole).(models.Role)
	if !idOK || !roleOK || id == 0 {
		return 0, "", false
	}
	return id, role, true
}

func userIDFromClaims(claims jwt.MapClaims) (uint, error) {
	for _, key := range []string{"sub", "user_id"} {
		value, ok := claims[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case float64:
			if v > 0 {
				return uint(v), nil
			}
		case string:
			parsed, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
			if err == nil && parsed > 0 {
				return uint(parsed), nil
			}
		}
	}
	return 0, fmt.Errorf("subject missing")
}

func roleFromClaims(claims jwt.MapClaims) (models.Role, error) {
	value, ok := claims["role"].(string)
	if !ok {
		return "", fmt.Errorf("role missing")
	}
	return models.ParseRole(value)
}
