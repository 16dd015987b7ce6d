package middleware

import (
	"context"
	"time"

	"github.com/anonto42/inkwell/backend/internal/apperrors"
	"github.com/anonto42/inkwell/backend/internal/logger"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type RoleLookup interface {
	GetRole(ctx context.Context, userID uint) (string, error)
}

// IsAdmin resolves the user's role within timeout. Any failure, including
// the timeout, reports false.
func IsAdmin(ctx context.Context, roles RoleLookup, userID uint, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		role string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		role, err := roles.GetRole(ctx, userID)
		ch <- result{role, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			logger.Log.Debug("role lookup failed", zap.Uint("user_id", userID), zap.Error(r.err))
			return false
		}
		return r.role == models.RoleAdmin
	case <-ctx.Done():
		logger.Log.Warn("role lookup timed out", zap.Uint("user_id", userID), zap.Duration("timeout", timeout))
		return false
	}
}

// AdminOnly must run after JWTAuthMiddleware. Non-admins get 403.
func AdminOnly(roles RoleLookup, timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := UserIDFromContext(c)
			if userID == 0 {
				return apperrors.Unauthorized("authentication is required")
			}
			if !IsAdmin(c.Request().Context(), roles, userID, timeout) {
				return apperrors.Forbidden("admin access required")
			}
			return next(c)
		}
	}
}
