package middleware

import (
	"errors"
	"strings"

	"funnel_server/pkg/apperr"
	"funnel_server/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// LocalSubject is the Locals key holding the token subject.
const LocalSubject = "subject"

// DashboardAuth validates HS256 bearer tokens signed with secret.
// An empty secret disables the check.
func DashboardAuth(secret string) fiber.Handler {
	if secret == "" {
		logger.Warn("Dashboard auth disabled: DASHBOARD_JWT_SECRET not set")
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
	)
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		tokenString := bearerToken(c.Get(fiber.HeaderAuthorization))
		if tokenString == "" {
			return apperr.Unauthorized("missing authorization")
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return &apperr.AppError{
					Code:    apperr.CodeTokenExpired,
					Message: "token expired",
					Status:  fiber.StatusUnauthorized,
				}
			}
			logger.WithError(err).Warn("JWT validation failed")
			return apperr.InvalidToken("invalid token")
		}
		if !token.Valid {
			return apperr.InvalidToken("invalid token")
		}

		sub, _ := claims.GetSubject()
		c.Locals(LocalSubject, sub)
		return c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
