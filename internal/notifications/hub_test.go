package notifications

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()

	client, err := hub.Register(10, nil)
	require.NoError(t, err)
	assert.True(t, hub.IsOnline(10))

	hub.UnregisterClient(client)
	assert.False(t, hub.IsOnline(10))

	_ = hub.Shutdown(context.Background())
}

func TestHub_PerUserConnectionLimit(t *testing.T) {
	hub := NewHub()

	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(7, nil)
		require.NoError(t, err)
	}

	_, err := hub.Register(7, nil)
	assert.Error(t, err)
	// Other users are unaffected by one user's limit.
	_, err = hub.Register(8, nil)
	assert.NoError(t, err)

	_ = hub.Shutdown(context.Background())
}

func TestHub_BroadcastReachesAllUserClients(t *testing.T) {
	hub := NewHub()

	a, err := hub.Register(3, nil)
	require.NoError(t, err)
	b, err := hub.Register(3, nil)
	require.NoError(t, err)
	other, err := hub.Register(4, nil)
	require.NoError(t, err)

	hub.Broadcast(3, "nova notificação")

	assert.Equal(t, "nova notificação", string(<-a.Send))
	assert.Equal(t, "nova notificação", string(<-b.Send))
	select {
	case <-other.Send:
		t.Fatal("message leaked to another user")
	default:
	}

	_ = hub.Shutdown(context.Background())
}

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), 1, "payload"))
	assert.NoError(t, n.PublishBroadcast(context.Background(), "payload"))
	assert.NoError(t, n.StartPatternSubscriber(context.Background(), nil))
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		userID   uint
		expected string
	}{
		{1, "notifications:user:1"},
		{100, "notifications:user:100"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, UserChannel(tt.userID))
	}
}

func TestHub_StartWiring_RoutesRedisMessages(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	hub := NewHub()
	client, err := hub.Register(44, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := NewNotifier(rdb)
	require.NoError(t, hub.StartWiring(ctx, n))

	// PSubscribe setup races with the first publish.
	var delivered atomic.Bool
	go func() {
		for {
			if err := n.PublishUser(context.Background(), 44, "aprovado"); err != nil || delivered.Load() {
				return
			}
			time.Sleep(testPollInterval)
		}
	}()

	assert.Eventually(t, func() bool {
		select {
		case msg := <-client.Send:
			delivered.Store(true)
			return string(msg) == "aprovado"
		default:
			return false
		}
	}, testEventuallyTimeout, testPollInterval)

	_ = hub.Shutdown(ctx)
}
