package middleware

import (
	"context"
	"strings"

	"github.com/alimikegami/quicart/internal/domain"
	"github.com/alimikegami/quicart/pkg/response"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const claimsKey = "claims"

type TokenVerifier interface {
	CurrentUser(ctx context.Context, token string) (domain.Claims, error)
}

// IsLoggedIn rejects requests without a live session token. The token is
// read from the Authorization header, or from the token query parameter for
// websocket upgrades.
func IsLoggedIn(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := verifier.CurrentUser(c.Request().Context(), sessionToken(c))
			if err != nil {
				return response.WriteErrorResponse(c, err, nil)
			}

			c.Set(claimsKey, claims)

			logger := log.Ctx(c.Request().Context()).With().Str("user_id", claims.UserID).Logger()
			c.SetRequest(c.Request().WithContext(logger.WithContext(c.Request().Context())))

			return next(c)
		}
	}
}

// ExtractClaims returns the session set by IsLoggedIn.
func ExtractClaims(c echo.Context) domain.Claims {
	claims, _ := c.Get(claimsKey).(domain.Claims)
	return claims
}

func sessionToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return c.QueryParam("token")
}
