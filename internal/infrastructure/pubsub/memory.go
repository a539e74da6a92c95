package pubsub

import (
	"context"
)

// MemoryPubsub is a single process Pubsub
type MemoryPubsub struct {
	set *listenerSet
}

var _ Pubsub = (*MemoryPubsub)(nil)

// NewMemory creates an in-memory Pubsub
func NewMemory() *MemoryPubsub {
	return &MemoryPubsub{set: newListenerSet()}
}

func (m *MemoryPubsub) Subscribe(topic string, listener Listener) (func(), error) {
	id, _ := m.set.add(topic, listener)
	return func() {
		m.set.remove(topic, id)
	}, nil
}

// Publish blocks until every listener has returned
func (m *MemoryPubsub) Publish(ctx context.Context, topic string, message []byte) error {
	m.set.dispatch(ctx, topic, message)
	return nil
}

func (m *MemoryPubsub) Close() error {
	m.set.clear()
	return nil
}
