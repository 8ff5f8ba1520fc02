// Package identity is the boundary to the external identity provider. It
// verifies bearer tokens the provider issued and exposes the authenticated
// principal to handlers. Token issuance lives elsewhere; the core stays
// role-agnostic and only ever sees already-authorized calls.
package identity

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const principalContextKey = "principal"

// Principal is the authenticated caller as asserted by the identity provider.
type Principal struct {
	UserID      string
	DisplayName string
	Admin       bool
}

// Claims is the token payload the identity provider signs. The subject is
// the opaque user identifier.
type Claims struct {
	DisplayName string `json:"name"`
	Admin       bool   `json:"admin"`
	jwt.RegisteredClaims
}

// Middleware returns an echo middleware that authenticates the request from
// its Authorization bearer token and stores the Principal in the context.
func Middleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenStr == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid bearer token")
			}
			if claims.Subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
			}

			c.Set(principalContextKey, Principal{
				UserID:      claims.Subject,
				DisplayName: claims.DisplayName,
				Admin:       claims.Admin,
			})
			return next(c)
		}
	}
}

// RequireAdmin rejects requests whose principal lacks the elevated role.
// Must run after Middleware.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, ok := FromContext(c)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}
		if !p.Admin {
			return echo.NewHTTPError(http.StatusForbidden, "admin role required")
		}
		return next(c)
	}
}

// FromContext extracts the authenticated principal set by Middleware.
func FromContext(c echo.Context) (Principal, bool) {
	p, ok := c.Get(principalContextKey).(Principal)
	return p, ok
}
