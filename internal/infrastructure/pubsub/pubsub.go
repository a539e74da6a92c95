// Package pubsub fans real-time messages out to every subscriber of a topic,
// in process or across instances through Redis.
package pubsub

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Listener receives messages published to a topic
type Listener func(ctx context.Context, message []byte)

// Pubsub is a topic based broadcast bus
type Pubsub interface {
	Publish(ctx context.Context, topic string, message []byte) error
	// Subscribe registers listener for topic. Calling cancel unregisters it.
	Subscribe(topic string, listener Listener) (cancel func(), err error)
	Close() error
}

// UserTopic is the topic carrying updates for one user's sessions
func UserTopic(userID uuid.UUID) string {
	return fmt.Sprintf("meeting-stats:user:%s", userID)
}

// New returns the implementation selected by driver
func New(driver string, client *redis.Client) (Pubsub, error) {
	switch driver {
	case "memory":
		return NewMemory(), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis pubsub requires a redis client")
		}
		return NewRedis(client), nil
	default:
		return nil, fmt.Errorf("unknown pubsub driver %q", driver)
	}
}

// listenerSet tracks listeners per topic
type listenerSet struct {
	mut       sync.RWMutex
	listeners map[string]map[uuid.UUID]Listener
}

func newListenerSet() *listenerSet {
	return &listenerSet{listeners: make(map[string]map[uuid.UUID]Listener)}
}

// add registers listener and reports whether it is the first one on topic
func (s *listenerSet) add(topic string, listener Listener) (uuid.UUID, bool) {
	s.mut.Lock()
	defer s.mut.Unlock()

	listeners, ok := s.listeners[topic]
	if !ok {
		listeners = make(map[uuid.UUID]Listener)
		s.listeners[topic] = listeners
	}
	id := uuid.New()
	listeners[id] = listener
	return id, !ok
}

// remove unregisters a listener and reports whether topic has none left
func (s *listenerSet) remove(topic string, id uuid.UUID) bool {
	s.mut.Lock()
	defer s.mut.Unlock()

	listeners, ok := s.listeners[topic]
	if !ok {
		return false
	}
	delete(listeners, id)
	if len(listeners) == 0 {
		delete(s.listeners, topic)
		return true
	}
	return false
}

// dispatch delivers message to every listener of topic and waits for them
func (s *listenerSet) dispatch(ctx context.Context, topic string, message []byte) {
	s.mut.RLock()
	targets := make([]Listener, 0, len(s.listeners[topic]))
	for _, l := range s.listeners[topic] {
		targets = append(targets, l)
	}
	s.mut.RUnlock()

	var wg sync.WaitGroup
	for _, l := range targets {
		wg.Add(1)
		go func(l Listener) {
			defer wg.Done()
			l(ctx, message)
		}(l)
	}
	wg.Wait()
}

func (s *listenerSet) clear() {
	s.mut.Lock()
	defer s.mut.Unlock()
	s.listeners = make(map[string]map[uuid.UUID]Listener)
}
