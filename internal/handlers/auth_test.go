package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/anonto42/inkwell/backend/internal/testutil"
	"github.com/anonto42/inkwell/backend/internal/validators"
	"github.com/anonto42/inkwell/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubVerifier map[string]*firebase.Identity

func (s stubVerifier) VerifyIDToken(_ context.Context, idToken string) (*firebase.Identity, error) {
	if id, ok := s[idToken]; ok {
		return id, nil
	}
	return nil, errors.New("token rejected")
}

func newAuthServer(t *testing.T, verifier IdentityVerifier) (*echo.Echo, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler
	e.Validator = validators.NewValidator()

	h := NewAuthHandler(
		repositories.NewPostgresUserRepository(db),
		repositories.NewPostgresProfileRepository(db),
		verifier,
		"secret",
		time.Second,
	)
	h.RegisterAuthRoutes(e.Group("/api/auth"), func(next echo.HandlerFunc) echo.HandlerFunc { return next })
	return e, db
}

func firebaseLogin(t *testing.T, e *echo.Echo, token string) (int, models.User) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/firebase-login", strings.NewReader(`{"idToken":"`+token+`"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body struct {
		Data struct {
			User   models.User      `json:"user"`
			Tokens models.TokenPair `json:"tokens"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	if rec.Code == http.StatusOK {
		assert.NotEmpty(t, body.Data.Tokens.AccessToken)
		assert.NotEmpty(t, body.Data.Tokens.RefreshToken)
	}
	return rec.Code, body.Data.User
}

func TestFirebaseLoginCreatesThenReusesAccount(t *testing.T) {
	e, db := newAuthServer(t, stubVerifier{
		"good": {UID: "fb-1", Email: "grace@example.com", Name: "Grace"},
	})

	status, first := firebaseLogin(t, e, "good")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Grace", first.Name)

	status, second := firebaseLogin(t, e, "good")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	role, err := repositories.NewPostgresProfileRepository(db).GetRole(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, role)
}

func TestFirebaseLoginLinksExistingEmail(t *testing.T) {
	e, db := newAuthServer(t, stubVerifier{
		"good": {UID: "fb-2", Email: "ada@example.com", Name: "Ada L"},
	})
	local := testutil.CreateUser(t, db, "ada")

	status, user := firebaseLogin(t, e, "good")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, local.ID, user.ID)
	require.NotNil(t, user.FirebaseUID)
	assert.Equal(t, "fb-2", *user.FirebaseUID)
}

func TestFirebaseLoginRejectsBadToken(t *testing.T) {
	e, _ := newAuthServer(t, stubVerifier{})
	status, _ := firebaseLogin(t, e, "forged")
	assert.Equal(t, http.StatusUnauthorized, status)
}
