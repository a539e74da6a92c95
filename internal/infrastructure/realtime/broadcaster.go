package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-stats/internal/infrastructure/pubsub"
	"github.com/johnquangdev/meeting-stats/internal/usecase/stats"
)

type originKey struct{}

// WithOrigin marks ctx as handled on behalf of the session with the given id
func WithOrigin(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, originKey{}, sessionID)
}

// OriginFrom returns the originating session id, empty for REST and webhook calls
func OriginFrom(ctx context.Context) string {
	origin, _ := ctx.Value(originKey{}).(string)
	return origin
}

// Update is the message carried on a user topic
type Update struct {
	Origin string                `json:"origin,omitempty"`
	UserID uuid.UUID             `json:"userId"`
	Stats  *stats.FormattedStats `json:"stats"`
}

// Broadcaster publishes fresh views to every session of a user
type Broadcaster struct {
	ps pubsub.Pubsub
}

var _ stats.Publisher = (*Broadcaster)(nil)

// NewBroadcaster creates a Broadcaster over ps
func NewBroadcaster(ps pubsub.Pubsub) *Broadcaster {
	return &Broadcaster{ps: ps}
}

// PublishStats implements stats.Publisher
func (b *Broadcaster) PublishStats(ctx context.Context, userID uuid.UUID, view *stats.FormattedStats) error {
	payload, err := json.Marshal(Update{
		Origin: OriginFrom(ctx),
		UserID: userID,
		Stats:  view,
	})
	if err != nil {
		return fmt.Errorf("failed to encode update: %w", err)
	}
	return b.ps.Publish(ctx, pubsub.UserTopic(userID), payload)
}
