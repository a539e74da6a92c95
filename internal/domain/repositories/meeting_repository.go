package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-stats/internal/domain/entities"
)

// MeetingRepository defines the interface for meeting record data access
type MeetingRepository interface {
	Create(ctx context.Context, meeting *entities.MeetingRecord) error

	// FindActive returns the newest active record for the pair, or gorm.ErrRecordNotFound
	FindActive(ctx context.Context, userID uuid.UUID, meetingID string) (*entities.MeetingRecord, error)

	// Complete transitions an active record to completed. It reports false
	// when the record was no longer active.
	Complete(ctx context.Context, meeting *entities.MeetingRecord) (bool, error)

	// Cancel transitions an active record to cancelled. It reports false
	// when the record was no longer active.
	Cancel(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)

	// FindRecentByUserID lists the user's meetings, newest start first
	FindRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.MeetingRecord, error)

	// RaisePeakParticipants lifts the participant count of every active record
	// of the meeting to count when it is lower
	RaisePeakParticipants(ctx context.Context, meetingID string, count int) (int64, error)
}
