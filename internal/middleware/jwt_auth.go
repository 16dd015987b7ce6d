package middleware

import (
	"fmt"
	"strings"

	"github.com/anonto42/inkwell/backend/internal/apperrors"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const userContextKey = "user"

// JWTAuthMiddleware checks for a valid access token and stores its claims in
// the context. Browsers cannot set headers on WebSocket upgrades, so a
// "token" query parameter is accepted when the header is absent.
func JWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := bearerToken(c)
			if err != nil {
				return err
			}

			claims, err := ParseToken(secret, tokenString, models.TokenTypeAccess)
			if err != nil {
				return apperrors.Unauthorized("invalid or expired token")
			}

			c.Set(userContextKey, claims)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		if token := c.QueryParam("token"); token != "" {
			return token, nil
		}
		return "", apperrors.Unauthorized("missing Authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", apperrors.Unauthorized("Authorization header must be in Bearer format")
	}
	return parts[1], nil
}

// ParseToken verifies an HS256 token and requires its type claim to equal
// wantType.
func ParseToken(secret, tokenString, wantType string) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	if claims.Type != wantType {
		return nil, fmt.Errorf("expected %s token, got %q", wantType, claims.Type)
	}
	return claims, nil
}

// ClaimsFromContext returns the claims stored by JWTAuthMiddleware.
func ClaimsFromContext(c echo.Context) (*models.JwtCustomClaims, bool) {
	claims, ok := c.Get(userContextKey).(*models.JwtCustomClaims)
	return claims, ok && claims != nil
}

// UserIDFromContext returns the authenticated user id, or 0.
func UserIDFromContext(c echo.Context) uint {
	if claims, ok := ClaimsFromContext(c); ok {
		return claims.UserID
	}
	return 0
}
