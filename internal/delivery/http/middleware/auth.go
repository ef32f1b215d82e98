package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/route-draft-service/internal/pkg/errors"
	"github.com/route-draft-service/internal/pkg/utils"
)

// LocalUserID - ключ Locals с id пользователя из токена
const LocalUserID = "user_id"

// Claims - полезная нагрузка access токена. Если user_id пуст, используется sub
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTAuth проверяет bearer токен (HS256) и кладёт user_id в Locals
func JWTAuth(secret string) fiber.Handler {
	secretBytes := []byte(secret)
	return func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return utils.SendError(c, errors.ErrUnauthorized.WithDetails(map[string]interface{}{
				"reason": "missing bearer token",
			}))
		}

		parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
			return secretBytes, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return utils.SendError(c, errors.ErrUnauthorized.Wrap(err))
		}

		claims, ok := parsed.Claims.(*Claims)
		if !ok || !parsed.Valid {
			return utils.SendError(c, errors.ErrUnauthorized)
		}

		userID := claims.UserID
		if userID == "" {
			userID = claims.Subject
		}
		if userID == "" {
			return utils.SendError(c, errors.ErrUnauthorized.WithDetails(map[string]interface{}{
				"reason": "token has no subject",
			}))
		}

		c.Locals(LocalUserID, userID)
		return c.Next()
	}
}

// UserID возвращает id пользователя, установленный JWTAuth
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
