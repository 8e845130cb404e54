package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/asesorame/asesorame/pkg/logging"
	"github.com/asesorame/asesorame/pkg/tokens"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserID    = "user_id"
	CtxRole      = "role"
	CtxClaims    = "claims"
	bearerPrefix = "Bearer "
)

// RevocationChecker reports whether a token id was revoked by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type BearerAuth struct {
	JWTSecret   []byte
	Revocations RevocationChecker
}

func NewBearerAuth(secret []byte, revocations RevocationChecker) *BearerAuth {
	return &BearerAuth{
		JWTSecret:   secret,
		Revocations: revocations,
	}
}

func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := BearerToken(c.Request())
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
		if err != nil || claims == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		if m.Revocations != nil && claims.ID != "" {
			ctx := c.Request().Context()
			revoked, err := m.Revocations.IsRevoked(ctx, claims.ID)
			if err != nil {
				logging.FromContext(ctx).Error("token_revocation_check_failed", "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
			}
			if revoked {
				return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
			}
		}

		setUserContext(c, claims)
		return next(c)
	}
}

func BearerToken(r *http.Request) string {
	h := r.Header.Get(echo.HeaderAuthorization)
	if len(h) <= len(bearerPrefix) || !strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(h[len(bearerPrefix):])
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(CtxUserID, claims.Subject)
	c.Set(CtxRole, claims.Role)
	c.Set(CtxClaims, claims)

	ctx := logging.With(c.Request().Context(), "user_id", claims.Subject, "role", claims.Role)
	c.SetRequest(c.Request().WithContext(ctx))
}
