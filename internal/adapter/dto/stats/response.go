package stats

import (
	"time"

	statsUsecase "github.com/johnquangdev/meeting-stats/internal/usecase/stats"
)

// StatsResponse represents GET /api/meeting-stats
type StatsResponse struct {
	Success bool                         `json:"success"`
	Stats   *statsUsecase.FormattedStats `json:"stats"`
}

// MeetingResponse represents one meeting record projection
type MeetingResponse struct {
	ID                string     `json:"id"`
	MeetingID         string     `json:"meetingId"`
	MeetingTitle      string     `json:"meetingTitle"`
	StartTime         time.Time  `json:"startTime"`
	EndTime           *time.Time `json:"endTime,omitempty"`
	Duration          int        `json:"duration"`
	FormattedDuration string     `json:"formattedDuration"`
	ParticipantCount  int        `json:"participantCount"`
	IsScheduled       bool       `json:"isScheduled"`
	Status            string     `json:"status"`
}

// RecentMeetingsResponse represents GET /api/recent-meetings
type RecentMeetingsResponse struct {
	Success  bool               `json:"success"`
	Meetings []*MeetingResponse `json:"meetings"`
}

// UpdateStatsResponse represents POST /api/meeting-stats/update.
// Result is null when an end or cancel matched no active meeting.
type UpdateStatsResponse struct {
	Success bool                         `json:"success"`
	Result  *MeetingResponse             `json:"result"`
	Stats   *statsUsecase.FormattedStats `json:"stats"`
}

// TicketResponse represents POST /api/realtime/ticket
type TicketResponse struct {
	Success   bool   `json:"success"`
	Ticket    string `json:"ticket"`
	ExpiresIn int    `json:"expiresIn"` // seconds
}
