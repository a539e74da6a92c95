package pubsub

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPubsub(t *testing.T) {
	t.Parallel()

	ps := NewMemory()
	defer ps.Close()

	var (
		mu       sync.Mutex
		received [][]byte
	)
	cancel, err := ps.Subscribe("topic", func(_ context.Context, message []byte) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, message)
	})
	require.NoError(t, err)

	require.NoError(t, ps.Publish(context.Background(), "topic", []byte("one")))
	require.NoError(t, ps.Publish(context.Background(), "other", []byte("ignored")))

	cancel()
	require.NoError(t, ps.Publish(context.Background(), "topic", []byte("after cancel")))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, "one", string(received[0]))
}

func TestMemoryPubsub_MultipleListeners(t *testing.T) {
	t.Parallel()

	ps := NewMemory()
	defer ps.Close()

	var (
		mu    sync.Mutex
		count int
	)
	for i := 0; i < 3; i++ {
		_, err := ps.Subscribe("topic", func(context.Context, []byte) {
			mu.Lock()
			count++
			mu.Unlock()
		})
		require.NoError(t, err)
	}

	require.NoError(t, ps.Publish(context.Background(), "topic", []byte("x")))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, count)
}

func TestListenerSet_ReportsFirstAndLast(t *testing.T) {
	t.Parallel()

	set := newListenerSet()
	noop := func(context.Context, []byte) {}

	a, first := set.add("t", noop)
	assert.True(t, first)
	b, first := set.add("t", noop)
	assert.False(t, first)

	assert.False(t, set.remove("t", a))
	assert.True(t, set.remove("t", b))
	assert.False(t, set.remove("t", b))
}

func TestUserTopic(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("8f0c3c1e-3f43-4b8e-9d54-2f1e8d3c6a10")
	assert.Equal(t, "meeting-stats:user:8f0c3c1e-3f43-4b8e-9d54-2f1e8d3c6a10", UserTopic(id))
}

func TestNew(t *testing.T) {
	t.Parallel()

	ps, err := New("memory", nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryPubsub{}, ps)

	_, err = New("redis", nil)
	assert.Error(t, err)

	_, err = New("kafka", nil)
	assert.Error(t, err)
}
