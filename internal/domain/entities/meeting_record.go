package entities

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MeetingStatus represents the lifecycle state of a meeting record
type MeetingStatus string

const (
	MeetingStatusActive    MeetingStatus = "active"
	MeetingStatusCompleted MeetingStatus = "completed"
	// MeetingStatusCancelled is only reached through an explicit cancel request
	MeetingStatusCancelled MeetingStatus = "cancelled"
)

// DefaultMeetingTitle is stored when a start event carries no title
const DefaultMeetingTitle = "Untitled Meeting"

// MeetingRecord is one call attended by one user
type MeetingRecord struct {
	ID               uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID     `gorm:"type:uuid;not null;index:idx_meeting_records_user_meeting,priority:1" json:"userId"`
	MeetingID        string        `gorm:"type:varchar(255);not null;index:idx_meeting_records_user_meeting,priority:2" json:"meetingId"`
	MeetingTitle     string        `gorm:"type:varchar(255);not null" json:"meetingTitle"`
	StartTime        time.Time     `gorm:"not null;index" json:"startTime"`
	EndTime          *time.Time    `json:"endTime,omitempty"`
	Duration         int           `gorm:"not null;default:0" json:"duration"` // minutes
	ParticipantCount int           `gorm:"not null;default:0" json:"participantCount"`
	IsScheduled      bool          `gorm:"not null;default:false" json:"isScheduled"`
	Status           MeetingStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	CreatedAt        time.Time     `json:"createdAt"`
}

// TableName specifies the table name for MeetingRecord
func (MeetingRecord) TableName() string {
	return "meeting_records"
}

// BeforeCreate assigns an ID when the caller did not
func (m *MeetingRecord) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// NewActiveMeeting builds an in-progress record started at now
func NewActiveMeeting(userID uuid.UUID, meetingID, title string, isScheduled bool, now time.Time) *MeetingRecord {
	if title == "" {
		title = DefaultMeetingTitle
	}
	return &MeetingRecord{
		ID:           uuid.New(),
		UserID:       userID,
		MeetingID:    meetingID,
		MeetingTitle: title,
		StartTime:    now,
		IsScheduled:  isScheduled,
		Status:       MeetingStatusActive,
		CreatedAt:    now,
	}
}

// IsActive checks if the meeting is still in progress
func (m *MeetingRecord) IsActive() bool {
	return m.Status == MeetingStatusActive
}

// Complete marks the meeting as completed at now and computes its duration.
// A start time in the future (clock skew) yields a negative duration, kept as-is.
// The participant count keeps the larger of the reported and the observed peak.
func (m *MeetingRecord) Complete(now time.Time, participantCount int) {
	m.EndTime = &now
	m.Duration = MinutesBetween(m.StartTime, now)
	m.ParticipantCount = max(m.ParticipantCount, participantCount)
	m.Status = MeetingStatusCompleted
}

// Cancel marks the meeting as cancelled at now
func (m *MeetingRecord) Cancel(now time.Time) {
	m.EndTime = &now
	m.Status = MeetingStatusCancelled
}

// MinutesBetween returns the whole minutes from start to end, rounding half up
func MinutesBetween(start, end time.Time) int {
	minutes := float64(end.Sub(start).Milliseconds()) / 60000
	return int(math.Floor(minutes + 0.5))
}
