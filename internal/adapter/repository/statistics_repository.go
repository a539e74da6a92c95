package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/meeting-stats/internal/domain/entities"
	"github.com/johnquangdev/meeting-stats/internal/domain/repositories"
)

// statisticsRepository implements the StatisticsRepository interface
type statisticsRepository struct {
	db *gorm.DB
}

// NewStatisticsRepository creates a new statistics repository
func NewStatisticsRepository(db *gorm.DB) repositories.StatisticsRepository {
	return &statisticsRepository{db: db}
}

// FindByUserID retrieves the statistics row of a user
func (r *statisticsRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entities.UserStatistics, error) {
	var stats entities.UserStatistics
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&stats).Error

	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// CreateIfNotExists inserts the row, leaving an existing one for the same user untouched
func (r *statisticsRepository) CreateIfNotExists(ctx context.Context, stats *entities.UserStatistics) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(stats).Error
}

// IncrementCounters applies delta with column arithmetic so concurrent updates never lose increments
func (r *statisticsRepository) IncrementCounters(ctx context.Context, userID uuid.UUID, delta entities.StatsDelta, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&entities.UserStatistics{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"total_calls":        gorm.Expr("total_calls + ?", delta.Calls),
			"total_duration":     gorm.Expr("total_duration + ?", delta.Duration),
			"total_participants": gorm.Expr("total_participants + ?", delta.Participants),
			"meetings_scheduled": gorm.Expr("meetings_scheduled + ?", delta.Scheduled),
			"last_updated":       at,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RollOverBaseline shifts the baseline of every row in one statement
func (r *statisticsRepository) RollOverBaseline(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Model(&entities.UserStatistics{}).
		Updates(map[string]interface{}{
			"last_month_total_calls":        gorm.Expr("total_calls"),
			"last_month_total_duration":     gorm.Expr("total_duration"),
			"last_month_total_participants": gorm.Expr("total_participants"),
			"last_month_meetings_scheduled": gorm.Expr("meetings_scheduled"),
		})

	return result.RowsAffected, result.Error
}

// ListAll retrieves every statistics row ordered by user
func (r *statisticsRepository) ListAll(ctx context.Context) ([]*entities.UserStatistics, error) {
	var rows []*entities.UserStatistics
	err := r.db.WithContext(ctx).
		Order("user_id ASC").
		Find(&rows).Error

	if err != nil {
		return nil, err
	}
	return rows, nil
}
