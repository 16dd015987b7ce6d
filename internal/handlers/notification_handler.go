package handlers

import (
	"net/http"

	"github.com/anonto42/inkwell/backend/internal/logger"
	"github.com/anonto42/inkwell/backend/internal/realtime"
	"github.com/anonto42/inkwell/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	service        *services.NotificationService
	hub            *realtime.Hub
	originPatterns []string
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(service *services.NotificationService, hub *realtime.Hub, originPatterns []string) *NotificationHandler {
	return &NotificationHandler{service: service, hub: hub, originPatterns: originPatterns}
}

// RegisterNotificationRoutes registers notification routes. Every route
// requires authentication, so the group is expected to carry it.
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("", h.GetNotifications)
	g.GET("/unread-count", h.GetUnreadCount)
	g.GET("/stream", h.Stream)
	g.PUT("/read-all", h.MarkAllAsRead)
	g.GET("/:id", h.GetNotification)
	g.PUT("/:id/read", h.MarkAsRead)
	g.DELETE("/:id", h.DeleteNotification)
}

// GetNotifications returns the caller's newest notifications. Without page
// parameters limit bounds the list. With page or page_size the newest
// MaxNotificationLimit rows are sliced into that page, and limit is accepted
// as the page size.
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	paged := c.QueryParam("page") != "" || c.QueryParam("page_size") != ""
	limit := queryInt(c, "limit", 0)
	fetch := limit
	if paged {
		fetch = services.MaxNotificationLimit
	}

	rows, err := h.service.GetUserNotifications(c.Request().Context(), userID, fetch)
	if err != nil {
		return err
	}
	if !paged {
		return respond(c, http.StatusOK, rows)
	}

	pageSize := queryInt(c, "page_size", 0)
	if pageSize <= 0 {
		pageSize = limit
	}
	if pageSize <= 0 {
		pageSize = services.DefaultPageSize
	}
	page := services.Paginate(rows, queryInt(c, "page", 1), pageSize)
	return respondWithMeta(c, http.StatusOK, page.Items, PageMeta{
		Page:        page.Page,
		PageSize:    page.PageSize,
		TotalItems:  int64(page.TotalItems),
		TotalPages:  page.TotalPages,
		HasNext:     page.HasNext,
		HasPrevious: page.HasPrevious,
	})
}

func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	count, err := h.service.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]int64{"count": count})
}

func (h *NotificationHandler) GetNotification(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := parseUintParam(c, "id", "notification")
	if err != nil {
		return err
	}
	row, err := h.service.GetNotification(c.Request().Context(), id, userID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, row)
}

func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := parseUintParam(c, "id", "notification")
	if err != nil {
		return err
	}
	if err := h.service.MarkAsRead(c.Request().Context(), id, userID); err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]bool{"read": true})
}

func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	if err := h.service.MarkAllAsRead(c.Request().Context(), userID); err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]bool{"read": true})
}

func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := parseUintParam(c, "id", "notification")
	if err != nil {
		return err
	}
	if err := h.service.DeleteNotification(c.Request().Context(), id, userID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Stream upgrades to a WebSocket that receives the caller's new
// notifications as they are inserted.
func (h *NotificationHandler) Stream(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	if err := h.hub.ServeStream(c.Response(), c.Request(), userID, h.originPatterns); err != nil {
		// Accept has already written the failure response.
		logger.Log.Debug("stream upgrade failed", zap.Uint("user_id", userID), zap.Error(err))
	}
	return nil
}
