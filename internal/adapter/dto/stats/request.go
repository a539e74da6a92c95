package stats

// UpdateStatsRequest represents the manual start/end/cancel trigger
type UpdateStatsRequest struct {
	Action           string `json:"action" validate:"required,oneof=start end cancel"`
	MeetingID        string `json:"meetingId" validate:"required,max=255"`
	MeetingTitle     string `json:"meetingTitle" validate:"max=255"`
	ParticipantCount int    `json:"participantCount" validate:"min=0"`
	IsScheduled      bool   `json:"isScheduled"`
}

// RecentMeetingsRequest represents query parameters for recent meetings
type RecentMeetingsRequest struct {
	Limit int `query:"limit"`
}

const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 100
)

// NormalizedLimit applies the default for missing or non-positive limits and the upper cap
func (r RecentMeetingsRequest) NormalizedLimit() int {
	switch {
	case r.Limit <= 0:
		return DefaultRecentLimit
	case r.Limit > MaxRecentLimit:
		return MaxRecentLimit
	default:
		return r.Limit
	}
}
