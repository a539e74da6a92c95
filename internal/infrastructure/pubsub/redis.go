package pubsub

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisPubsub relays topics through Redis PUBLISH/SUBSCRIBE so that sessions
// held by different instances see the same updates. One Redis subscription
// connection is shared by all local listeners.
type RedisPubsub struct {
	client *redis.Client
	set    *listenerSet

	once sync.Once
	sub  *redis.PubSub
	done chan struct{}
}

var _ Pubsub = (*RedisPubsub)(nil)

// NewRedis creates a Redis backed Pubsub
func NewRedis(client *redis.Client) *RedisPubsub {
	return &RedisPubsub{
		client: client,
		set:    newListenerSet(),
		done:   make(chan struct{}),
	}
}

func (r *RedisPubsub) start() {
	r.once.Do(func() {
		r.sub = r.client.Subscribe(context.Background())
		go r.receive(r.sub.Channel())
	})
}

func (r *RedisPubsub) receive(ch <-chan *redis.Message) {
	defer close(r.done)
	for msg := range ch {
		r.set.dispatch(context.Background(), msg.Channel, []byte(msg.Payload))
	}
}

func (r *RedisPubsub) Subscribe(topic string, listener Listener) (func(), error) {
	r.start()

	id, first := r.set.add(topic, listener)
	if first {
		if err := r.sub.Subscribe(context.Background(), topic); err != nil {
			r.set.remove(topic, id)
			return nil, err
		}
	}

	return func() {
		if r.set.remove(topic, id) {
			_ = r.sub.Unsubscribe(context.Background(), topic)
		}
	}, nil
}

func (r *RedisPubsub) Publish(ctx context.Context, topic string, message []byte) error {
	return r.client.Publish(ctx, topic, message).Err()
}

// Close tears down the shared subscription. The client itself is owned by the caller.
func (r *RedisPubsub) Close() error {
	r.set.clear()
	if r.sub == nil {
		return nil
	}
	err := r.sub.Close()
	<-r.done
	return err
}
