package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatsSnapshot holds the four per-user counters
type StatsSnapshot struct {
	TotalCalls        int `gorm:"not null;default:0" json:"totalCalls"`
	TotalDuration     int `gorm:"not null;default:0" json:"totalDuration"` // minutes
	TotalParticipants int `gorm:"not null;default:0" json:"totalParticipants"`
	MeetingsScheduled int `gorm:"not null;default:0" json:"meetingsScheduled"`
}

// UserStatistics is the aggregate meeting statistics of one user.
// Exactly one row exists per user; it is created lazily and never deleted.
type UserStatistics struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"userId"`

	TotalCalls        int `gorm:"not null;default:0" json:"totalCalls"`
	TotalDuration     int `gorm:"not null;default:0" json:"totalDuration"` // minutes
	TotalParticipants int `gorm:"not null;default:0" json:"totalParticipants"`
	MeetingsScheduled int `gorm:"not null;default:0" json:"meetingsScheduled"`

	// LastMonthStats is the baseline used for percentage-change display
	LastMonthStats StatsSnapshot `gorm:"embedded;embeddedPrefix:last_month_" json:"lastMonthStats"`

	LastUpdated time.Time `gorm:"not null" json:"lastUpdated"`
	CreatedAt   time.Time `gorm:"not null" json:"createdAt"`
}

// TableName specifies the table name for UserStatistics
func (UserStatistics) TableName() string {
	return "user_statistics"
}

// BeforeCreate assigns an ID when the caller did not
func (s *UserStatistics) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// NewUserStatistics returns a zero-valued statistics row for userID
func NewUserStatistics(userID uuid.UUID, now time.Time) *UserStatistics {
	return &UserStatistics{
		ID:          uuid.New(),
		UserID:      userID,
		LastUpdated: now,
		CreatedAt:   now,
	}
}

// Live returns the current counters as a snapshot
func (s *UserStatistics) Live() StatsSnapshot {
	return StatsSnapshot{
		TotalCalls:        s.TotalCalls,
		TotalDuration:     s.TotalDuration,
		TotalParticipants: s.TotalParticipants,
		MeetingsScheduled: s.MeetingsScheduled,
	}
}

// StatsDelta is an increment applied atomically to the live counters
type StatsDelta struct {
	Calls        int
	Duration     int
	Participants int
	Scheduled    int
}
