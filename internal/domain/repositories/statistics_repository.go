package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-stats/internal/domain/entities"
)

// StatisticsRepository defines the interface for per-user statistics data access
type StatisticsRepository interface {
	// FindByUserID returns gorm.ErrRecordNotFound when the user has no row yet
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entities.UserStatistics, error)

	// CreateIfNotExists inserts stats unless a row for the same user already exists
	CreateIfNotExists(ctx context.Context, stats *entities.UserStatistics) error

	// IncrementCounters adds delta to the live counters in a single statement and stamps last_updated
	IncrementCounters(ctx context.Context, userID uuid.UUID, delta entities.StatsDelta, at time.Time) error

	// RollOverBaseline copies every row's live counters into its last-month baseline
	RollOverBaseline(ctx context.Context) (int64, error)

	ListAll(ctx context.Context) ([]*entities.UserStatistics, error)
}
