package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/realtime"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": status < 400, "data": data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   map[string]string{"code": code, "message": message},
	})
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/notifications", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing token")
			return
		}
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		writeEnvelope(w, http.StatusOK, []models.Notification{{ID: 2, UserID: 7}, {ID: 1, UserID: 7}})
	})
	mux.HandleFunc("GET /api/notifications/unread-count", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]int64{"count": 3})
	})
	mux.HandleFunc("GET /api/notifications/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "notification not found")
	})
	mux.HandleFunc("PUT /api/notifications/read-all", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]bool{"read": true})
	})
	mux.HandleFunc("DELETE /api/notifications/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["refresh_token"] != "r1" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired refresh token")
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]any{
			"user":   models.User{ID: 7, Email: "ada@example.com"},
			"tokens": models.TokenPair{AccessToken: "a2", RefreshToken: "r2", ExpiresAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		})
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{"is_admin": r.Header.Get("Authorization") == "Bearer admin-token"})
	})
	mux.HandleFunc("GET /api/notifications/stream", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "good" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing token")
			return
		}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()

		payload, _ := json.Marshal(models.Notification{ID: 9, UserID: 7, Type: models.NotificationNewArticle})
		ignored, _ := json.Marshal(realtime.Message{Type: "presence", Payload: json.RawMessage(`{}`)})
		insert, _ := json.Marshal(realtime.Message{Type: realtime.TypeNotificationInsert, Payload: payload})
		ctx := r.Context()
		_ = conn.Write(ctx, websocket.MessageText, ignored)
		_ = conn.Write(ctx, websocket.MessageText, insert)
		conn.Close(websocket.StatusNormalClosure, "")
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestListNotificationsSendsToken(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, WithTokenSource(StaticToken("good")))

	rows, err := c.ListNotifications(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, uint(2), rows[0].ID)
}

func TestErrorsCarryEnvelope(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL)

	_, err := c.ListNotifications(context.Background(), 5)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)

	_, err = New(srv.URL, WithTokenSource(StaticToken("good"))).GetNotification(context.Background(), 4)
	assert.True(t, IsNotFound(err))
}

func TestReadStateCalls(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, WithTokenSource(StaticToken("good")))
	ctx := context.Background()

	count, err := c.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	assert.NoError(t, c.MarkAllAsRead(ctx))
	assert.NoError(t, c.DeleteNotification(ctx, 4))
}

func TestRefreshBuildsSession(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL)

	s, err := c.Refresh(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, uint(7), s.UserID)
	assert.Equal(t, "a2", s.AccessToken)
	assert.Equal(t, "r2", s.RefreshToken)

	_, err = c.Refresh(context.Background(), "stale")
	assert.True(t, IsUnauthorized(err))
}

func TestIsAdminUsesGivenToken(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, WithTokenSource(StaticToken("good")))

	admin, err := c.IsAdmin(context.Background(), "admin-token")
	require.NoError(t, err)
	assert.True(t, admin)

	admin, err = c.IsAdmin(context.Background(), "other")
	require.NoError(t, err)
	assert.False(t, admin)
}

func TestSubscribeDeliversInsertsAndCloses(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, WithTokenSource(StaticToken("good")))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := c.Subscribe(ctx)
	require.NoError(t, err)

	var got []models.Notification
	for row := range ch {
		got = append(got, row)
	}
	require.Len(t, got, 1)
	assert.Equal(t, uint(9), got[0].ID)
}

func TestSubscribeNeedsToken(t *testing.T) {
	_, err := New("http://localhost:1").Subscribe(context.Background())
	assert.Error(t, err)
}

func TestStreamURL(t *testing.T) {
	c := New("https://api.example.com/")
	u, err := c.streamURL("abc")
	require.NoError(t, err)
	assert.Equal(t, "wss://api.example.com/api/notifications/stream?token=abc", u)
}
