package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-stats/internal/domain/entities"
	"github.com/johnquangdev/meeting-stats/internal/domain/repositories"
)

// meetingRepository implements the MeetingRepository interface
type meetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new meeting record repository
func NewMeetingRepository(db *gorm.DB) repositories.MeetingRepository {
	return &meetingRepository{db: db}
}

// Create creates a new meeting record
func (r *meetingRepository) Create(ctx context.Context, meeting *entities.MeetingRecord) error {
	return r.db.WithContext(ctx).Create(meeting).Error
}

// FindActive retrieves the most recently started active record for a user and meeting
func (r *meetingRepository) FindActive(ctx context.Context, userID uuid.UUID, meetingID string) (*entities.MeetingRecord, error) {
	var meeting entities.MeetingRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND meeting_id = ? AND status = ?", userID, meetingID, entities.MeetingStatusActive).
		Order("start_time DESC").
		First(&meeting).Error

	if err != nil {
		return nil, err
	}
	return &meeting, nil
}

// Complete persists the completed fields only if the record is still active
func (r *meetingRepository) Complete(ctx context.Context, meeting *entities.MeetingRecord) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.MeetingRecord{}).
		Where("id = ? AND status = ?", meeting.ID, entities.MeetingStatusActive).
		Updates(map[string]interface{}{
			"end_time":          meeting.EndTime,
			"duration":          meeting.Duration,
			"participant_count": meeting.ParticipantCount,
			"status":            entities.MeetingStatusCompleted,
		})

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Cancel marks the record cancelled only if it is still active
func (r *meetingRepository) Cancel(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.MeetingRecord{}).
		Where("id = ? AND status = ?", id, entities.MeetingStatusActive).
		Updates(map[string]interface{}{
			"end_time": at,
			"status":   entities.MeetingStatusCancelled,
		})

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// FindRecentByUserID retrieves the user's meetings, newest first
func (r *meetingRepository) FindRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.MeetingRecord, error) {
	var meetings []*entities.MeetingRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_time DESC").
		Limit(limit).
		Find(&meetings).Error

	if err != nil {
		return nil, err
	}
	return meetings, nil
}

// RaisePeakParticipants raises participant_count on the meeting's active records
func (r *meetingRepository) RaisePeakParticipants(ctx context.Context, meetingID string, count int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.MeetingRecord{}).
		Where("meeting_id = ? AND status = ? AND participant_count < ?", meetingID, entities.MeetingStatusActive, count).
		Update("participant_count", count)

	return result.RowsAffected, result.Error
}
