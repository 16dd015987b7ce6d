package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/inkwell/backend/internal/apperrors"
	"github.com/anonto42/inkwell/backend/internal/logger"
	"github.com/anonto42/inkwell/backend/internal/middleware"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Envelope is the standard API response wrapper.
type Envelope struct {
	Success bool                `json:"success"`
	Data    any                 `json:"data,omitempty"`
	Error   *apperrors.APIError `json:"error,omitempty"`
	Meta    any                 `json:"meta,omitempty"`
}

// PageMeta describes a page of a listing.
type PageMeta struct {
	Page        int   `json:"page"`
	PageSize    int   `json:"page_size"`
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

func newPageMeta(page, pageSize int, total int64) PageMeta {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return PageMeta{
		Page:        page,
		PageSize:    pageSize,
		TotalItems:  total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}

func respond(c echo.Context, status int, data any) error {
	return c.JSON(status, Envelope{Success: true, Data: data})
}

func respondWithMeta(c echo.Context, status int, data, meta any) error {
	return c.JSON(status, Envelope{Success: true, Data: data, Meta: meta})
}

// HTTPErrorHandler renders every error returned by a handler as an envelope.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	apiErr := toAPIError(err, c)
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(apiErr.Status)
	} else {
		err = c.JSON(apiErr.Status, Envelope{Success: false, Error: apiErr})
	}
	if err != nil {
		logger.ErrorWithFields("failed to send error response", err)
	}
}

func toAPIError(err error, c echo.Context) *apperrors.APIError {
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		msg, _ := echoErr.Message.(string)
		if msg == "" {
			msg = http.StatusText(echoErr.Code)
		}
		switch echoErr.Code {
		case http.StatusNotFound:
			return apperrors.NotFound("route")
		case http.StatusUnauthorized:
			return apperrors.Unauthorized(msg)
		case http.StatusForbidden:
			return apperrors.Forbidden(msg)
		case http.StatusInternalServerError:
			return apperrors.Internal("internal server error")
		}
		if echoErr.Code < http.StatusInternalServerError {
			apiErr := apperrors.BadRequest(msg)
			apiErr.Status = echoErr.Code
			return apiErr
		}
		apiErr := apperrors.Internal(msg)
		apiErr.Status = echoErr.Code
		return apiErr
	}

	apiErr, known := apperrors.From(err)
	if !known {
		logger.Log.Error("unhandled error",
			zap.Error(err),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		)
	}
	return apiErr
}

func currentUserID(c echo.Context) (uint, error) {
	id := middleware.UserIDFromContext(c)
	if id == 0 {
		return 0, apperrors.Unauthorized("user not authenticated")
	}
	return id, nil
}

// bindAndValidate binds the request body into req and runs the validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apperrors.BadRequest("invalid request payload")
	}
	return c.Validate(req)
}

func parseUintParam(c echo.Context, name, resource string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, apperrors.BadRequest("invalid " + resource + " id")
	}
	return uint(v), nil
}

// queryInt returns def when the parameter is absent or malformed.
func queryInt(c echo.Context, name string, def int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return def
	}
	return v
}
