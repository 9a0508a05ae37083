package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/cache"
)

func TestPurgeIdleSessions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions := cache.NewMemorySessions(time.Millisecond)
	cc, err := sessions.Open(ctx, "visitor")
	require.NoError(t, err)
	require.NoError(t, cc.Set(ctx, cache.HomesListKey, []byte("[]")))
	require.Equal(t, 1, sessions.Len())

	done := make(chan struct{})
	go func() {
		purgeIdleSessions(ctx, sessions, 5*time.Millisecond, zap.NewNop())
		close(done)
	}()

	assert.Eventually(t, func() bool { return sessions.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("purge loop did not stop on cancel")
	}
}
