package stats

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-stats/internal/domain/entities"
)

// Service defines the interface for the meeting statistics use case
type Service interface {
	// GetOrCreateStatistics returns the user's statistics row, creating a zero row on first access
	GetOrCreateStatistics(ctx context.Context, userID uuid.UUID) (*entities.UserStatistics, error)

	// RecordMeetingStart opens an active meeting record and counts the call
	RecordMeetingStart(ctx context.Context, input StartMeetingInput) (*entities.MeetingRecord, error)

	// RecordMeetingEnd completes the active meeting record. It returns nil, nil
	// when no active record matches.
	RecordMeetingEnd(ctx context.Context, input EndMeetingInput) (*entities.MeetingRecord, error)

	// CancelMeeting abandons the active meeting record without touching counters
	CancelMeeting(ctx context.Context, userID uuid.UUID, meetingID string) (*entities.MeetingRecord, error)

	// ApplyUpdate dispatches a lifecycle action and returns the result with a fresh view
	ApplyUpdate(ctx context.Context, input UpdateInput) (*UpdateOutput, error)

	// GetFormattedView returns the display projection of the user's statistics
	GetFormattedView(ctx context.Context, userID uuid.UUID) (*FormattedStats, error)

	// GetRecentMeetings lists the user's meetings, newest first
	GetRecentMeetings(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.MeetingRecord, error)

	// RollOverMonth copies every user's live counters into the last-month baseline
	RollOverMonth(ctx context.Context) (int64, error)

	// ObserveParticipants raises the active records of a meeting to the room
	// size seen, so a completed record keeps the peak
	ObserveParticipants(ctx context.Context, meetingID string, count int) (int64, error)
}

// Action is a lifecycle transition requested by a client
type Action string

const (
	ActionStart  Action = "start"
	ActionEnd    Action = "end"
	ActionCancel Action = "cancel"
)

// StartMeetingInput represents input for recording a meeting start
type StartMeetingInput struct {
	UserID      uuid.UUID
	MeetingID   string
	Title       string
	IsScheduled bool
}

// EndMeetingInput represents input for recording a meeting end
type EndMeetingInput struct {
	UserID           uuid.UUID
	MeetingID        string
	ParticipantCount int
}

// UpdateInput represents a lifecycle action from any ingress
type UpdateInput struct {
	UserID           uuid.UUID
	Action           Action
	MeetingID        string
	Title            string
	ParticipantCount int
	IsScheduled      bool
}

// UpdateOutput carries the touched record, nil for a no-op, and the recomputed view
type UpdateOutput struct {
	Result *entities.MeetingRecord
	Stats  *FormattedStats
}

// Publisher pushes a fresh view to the user's real-time sessions
type Publisher interface {
	PublishStats(ctx context.Context, userID uuid.UUID, view *FormattedStats) error
}

// Archiver keeps a copy of the baselines a rollover is about to overwrite
type Archiver interface {
	ArchiveBaselines(ctx context.Context, at time.Time, rows []*entities.UserStatistics) error
}

// Recorder receives lifecycle counts for metrics
type Recorder interface {
	MeetingStarted(scheduled bool)
	MeetingEnded(durationMinutes int)
	MeetingCancelled()
	RolledOver(rows int64)
}
