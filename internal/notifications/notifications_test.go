package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "notifications:user:1", UserChannel(1))

	id, ok := parseUserChannel("notifications:user:100")
	assert.True(t, ok)
	assert.Equal(t, uint(100), id)

	_, ok = parseUserChannel("chat:conv:1")
	assert.False(t, ok)
	_, ok = parseUserChannel("notifications:user:abc")
	assert.False(t, ok)
}

func TestHub_RegisterBroadcastUnregister(t *testing.T) {
	h := NewHub()
	a, err := h.Register(1, nil)
	require.NoError(t, err)
	b, err := h.Register(1, nil)
	require.NoError(t, err)
	other, err := h.Register(2, nil)
	require.NoError(t, err)

	h.Broadcast(1, "hello")
	assert.Equal(t, "hello", string(<-a.Send))
	assert.Equal(t, "hello", string(<-b.Send))
	assert.Empty(t, other.Send)

	h.UnregisterClient(a)
	h.UnregisterClient(a)
	assert.Equal(t, 1, h.Connections(1))
}

func TestHub_PerUserLimit(t *testing.T) {
	h := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := h.Register(7, nil)
		require.NoError(t, err)
	}
	_, err := h.Register(7, nil)
	assert.ErrorIs(t, err, ErrUserFull)
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	c := NewClient(NewHub(), nil, 1)
	for i := 0; i < cap(c.Send)+5; i++ {
		c.TrySend([]byte("x"))
	}
	assert.Len(t, c.Send, cap(c.Send))

	close(c.Send)
	assert.NotPanics(t, func() { c.TrySend([]byte("late")) })
}

func TestNotifier_LocalDeliveryWithoutRedis(t *testing.T) {
	h := NewHub()
	client, err := h.Register(3, nil)
	require.NoError(t, err)

	n := NewNotifier(nil, h)
	require.NoError(t, n.PublishUser(context.Background(), 3, EventFollow, FollowPayload{FollowerID: 9, FollowerUsername: "zed"}))

	var ev struct {
		Type    string        `json:"type"`
		Payload FollowPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(<-client.Send, &ev))
	assert.Equal(t, EventFollow, ev.Type)
	assert.Equal(t, "zed", ev.Payload.FollowerUsername)

	var nothing *Notifier
	assert.NoError(t, nothing.PublishUser(context.Background(), 3, EventFollow, nil))
}

func TestHub_WiringThroughRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	h := NewHub()
	client, err := h.Register(5, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	n := NewNotifier(rdb, h)
	require.NoError(t, h.StartWiring(ctx, n))

	require.NoError(t, n.PublishUser(context.Background(), 5, EventComment, CommentPayload{PostID: 1, CommentID: 2}))

	select {
	case msg := <-client.Send:
		assert.Contains(t, string(msg), `"type":"comment"`)
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not delivered")
	}
}

func TestHub_ShutdownClearsConnections(t *testing.T) {
	h := NewHub()
	_, err := h.Register(1, nil)
	require.NoError(t, err)
	require.NoError(t, h.Shutdown(context.Background()))
	assert.Zero(t, h.Connections(1))
}
