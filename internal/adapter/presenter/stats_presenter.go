package presenter

import (
	statsDTO "github.com/johnquangdev/meeting-stats/internal/adapter/dto/stats"
	"github.com/johnquangdev/meeting-stats/internal/domain/entities"
	statsUsecase "github.com/johnquangdev/meeting-stats/internal/usecase/stats"
)

// ToMeetingResponse converts a MeetingRecord entity to MeetingResponse DTO
func ToMeetingResponse(m *entities.MeetingRecord) *statsDTO.MeetingResponse {
	if m == nil {
		return nil
	}

	return &statsDTO.MeetingResponse{
		ID:                m.ID.String(),
		MeetingID:         m.MeetingID,
		MeetingTitle:      m.MeetingTitle,
		StartTime:         m.StartTime,
		EndTime:           m.EndTime,
		Duration:          m.Duration,
		FormattedDuration: statsUsecase.FormatDuration(m.Duration),
		ParticipantCount:  m.ParticipantCount,
		IsScheduled:       m.IsScheduled,
		Status:            string(m.Status),
	}
}

// ToMeetingResponses converts a slice of MeetingRecord entities, never returning nil
func ToMeetingResponses(meetings []*entities.MeetingRecord) []*statsDTO.MeetingResponse {
	responses := make([]*statsDTO.MeetingResponse, len(meetings))
	for i, m := range meetings {
		responses[i] = ToMeetingResponse(m)
	}
	return responses
}
