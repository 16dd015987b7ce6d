package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/anonto42/inkwell/backend/internal/apperrors"
	"github.com/anonto42/inkwell/backend/internal/middleware"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/anonto42/inkwell/backend/pkg/firebase"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

// IdentityVerifier exchanges an external ID token for a verified identity.
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebase.Identity, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository    repositories.UserRepository
	profileRepository repositories.ProfileRepository
	verifier          IdentityVerifier
	jwtSecret         string
	adminTimeout      time.Duration
}

// NewAuthHandler creates a new AuthHandler. verifier may be nil, in which
// case Firebase login is not offered.
func NewAuthHandler(userRepo repositories.UserRepository, profileRepo repositories.ProfileRepository, verifier IdentityVerifier, jwtSecret string, adminTimeout time.Duration) *AuthHandler {
	return &AuthHandler{
		userRepository:    userRepo,
		profileRepository: profileRepo,
		verifier:          verifier,
		jwtSecret:         jwtSecret,
		adminTimeout:      adminTimeout,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
	g.POST("/refresh", h.Refresh)
	g.GET("/me", h.Me, auth)
	if h.verifier != nil {
		g.POST("/firebase-login", h.FirebaseLogin)
	}
}

type authResponse struct {
	User   *models.User     `json:"user"`
	Tokens models.TokenPair `json:"tokens"`
}

// Signup handles local user registration with email and password
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.CreateLocalUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	if _, err := h.userRepository.GetUserByEmail(ctx, req.Email); err == nil {
		return apperrors.Conflict("user with this email")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.User{Name: req.Name, Email: req.Email, Password: string(hashedPassword)}
	if err := h.createWithProfile(ctx, user); err != nil {
		return err
	}
	return h.issue(c, http.StatusCreated, user)
}

// SignIn handles local user authentication with email and password
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SignInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByEmail(c.Request().Context(), req.Email)
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.Unauthorized("invalid email or password")
	}
	if err != nil {
		return err
	}
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return apperrors.Unauthorized("invalid email or password")
	}
	return h.issue(c, http.StatusOK, user)
}

type firebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// FirebaseLogin verifies a Firebase ID token and issues local tokens. The
// account is matched by Firebase UID, then by email (linking the UID), and
// created when neither matches.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req firebaseLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	identity, err := h.verifier.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return apperrors.Unauthorized("invalid Firebase ID token")
	}

	user, err := h.userRepository.GetUserByFirebaseUID(ctx, identity.UID)
	switch {
	case err == nil:
		if identity.Name != "" {
			user.Name = identity.Name
		}
		if err := h.userRepository.UpdateUser(ctx, user); err != nil {
			return err
		}
	case errors.Is(err, apperrors.ErrNotFound):
		user, err = h.linkOrCreate(ctx, identity)
		if err != nil {
			return err
		}
	default:
		return err
	}
	return h.issue(c, http.StatusOK, user)
}

func (h *AuthHandler) linkOrCreate(ctx context.Context, identity *firebase.Identity) (*models.User, error) {
	uid := identity.UID
	user, err := h.userRepository.GetUserByEmail(ctx, identity.Email)
	if err == nil {
		user.FirebaseUID = &uid
		if user.AvatarURL == "" {
			user.AvatarURL = identity.Picture
		}
		return user, h.userRepository.UpdateUser(ctx, user)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	name := identity.Name
	if name == "" {
		name = identity.Email
	}
	user = &models.User{Name: name, Email: identity.Email, FirebaseUID: &uid, AvatarURL: identity.Picture}
	return user, h.createWithProfile(ctx, user)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh trades a valid refresh token for a new token pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	claims, err := middleware.ParseToken(h.jwtSecret, req.RefreshToken, models.TokenTypeRefresh)
	if err != nil {
		return apperrors.Unauthorized("invalid or expired refresh token")
	}

	user, err := h.userRepository.GetUserByID(c.Request().Context(), claims.UserID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.Unauthorized("account no longer exists")
	}
	if err != nil {
		return err
	}
	return h.issue(c, http.StatusOK, user)
}

type meResponse struct {
	User    *models.User `json:"user"`
	IsAdmin bool         `json:"is_admin"`
}

// Me returns the signed-in user and whether they are an admin.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	user, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	isAdmin := middleware.IsAdmin(ctx, h.profileRepository, userID, h.adminTimeout)
	return respond(c, http.StatusOK, meResponse{User: user, IsAdmin: isAdmin})
}

func (h *AuthHandler) createWithProfile(ctx context.Context, user *models.User) error {
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		return err
	}
	return h.profileRepository.SetRole(ctx, user.ID, models.RoleUser)
}

func (h *AuthHandler) issue(c echo.Context, status int, user *models.User) error {
	tokens, err := h.generateTokenPair(user)
	if err != nil {
		return err
	}
	return respond(c, status, authResponse{User: user, Tokens: tokens})
}

func (h *AuthHandler) generateTokenPair(user *models.User) (models.TokenPair, error) {
	now := time.Now()
	access, err := h.signToken(user, models.TokenTypeAccess, now, accessTokenTTL)
	if err != nil {
		return models.TokenPair{}, err
	}
	refresh, err := h.signToken(user, models.TokenTypeRefresh, now, refreshTokenTTL)
	if err != nil {
		return models.TokenPair{}, err
	}
	return models.TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: now.Add(accessTokenTTL).UTC()}, nil
}

func (h *AuthHandler) signToken(user *models.User, typ string, now time.Time, ttl time.Duration) (string, error) {
	claims := &models.JwtCustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
}
