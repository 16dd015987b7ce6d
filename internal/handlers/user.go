package handlers

import (
	"net/http"

	"github.com/anonto42/inkwell/backend/internal/apperrors"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository repositories.UserRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo}
}

func (h *UserHandler) RegisterUserRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.GET("/:id", h.GetUser)
	g.PUT("/:id", h.UpdateUser, auth)
}

type publicProfile struct {
	models.UserCompact
	Bio string `json:"bio"`
}

func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseUintParam(c, "id", "user")
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetUserByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, publicProfile{UserCompact: user.ToCompact(), Bio: user.Bio})
}

// UpdateUser edits the caller's own profile.
func (h *UserHandler) UpdateUser(c echo.Context) error {
	callerID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := parseUintParam(c, "id", "user")
	if err != nil {
		return err
	}
	if id != callerID {
		return apperrors.Forbidden("you can only update your own profile")
	}

	var req models.UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.AvatarURL != "" {
		user.AvatarURL = req.AvatarURL
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}
	if err := h.userRepository.UpdateUser(ctx, user); err != nil {
		return err
	}
	return respond(c, http.StatusOK, user)
}
