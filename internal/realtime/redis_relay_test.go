package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type relayFixture struct {
	hub   *Hub
	relay *RedisRelay
	redis *miniredis.Miniredis
	done  chan error
}

func startRelay(t *testing.T) *relayFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hub := startHub(t)
	relay := NewRedisRelay(rdb, hub, "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(DefaultChannel)[DefaultChannel] == 1
	}, time.Second, 5*time.Millisecond)
	return &relayFixture{hub: hub, relay: relay, redis: mr, done: done}
}

func TestRedisRelayDeliversOnlyToRecipient(t *testing.T) {
	f := startRelay(t)
	alice := connect(t, f.hub, 1)
	bob := connect(t, f.hub, 2)

	row := models.Notification{ID: 11, UserID: 1, Type: models.NotificationLikeOnYourArticle, Message: "Bob liked your article"}
	require.NoError(t, f.relay.Publish(context.Background(), row))

	msg := receive(t, alice)
	assert.Equal(t, TypeNotificationInsert, msg.Type)
	got, err := msg.NotificationPayload()
	require.NoError(t, err)
	assert.Equal(t, uint(11), got.ID)
	assert.Equal(t, "Bob liked your article", got.Message)

	select {
	case <-bob.Messages():
		t.Fatal("bob must not receive alice's notification")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRedisRelaySkipsMalformedPayload(t *testing.T) {
	f := startRelay(t)
	alice := connect(t, f.hub, 1)

	f.redis.Publish(DefaultChannel, "{not json")
	require.NoError(t, f.relay.Publish(context.Background(), models.Notification{ID: 12, UserID: 1}))

	got, err := receive(t, alice).NotificationPayload()
	require.NoError(t, err)
	assert.Equal(t, uint(12), got.ID)

	select {
	case err := <-f.done:
		t.Fatalf("relay stopped after malformed payload: %v", err)
	default:
	}
}
