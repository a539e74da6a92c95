package handler

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-stats/internal/adapter/dto/common"
	statsDTO "github.com/johnquangdev/meeting-stats/internal/adapter/dto/stats"
	statsUsecase "github.com/johnquangdev/meeting-stats/internal/usecase/stats"
)

func TestStats_RequiresAuthentication(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	for _, tt := range []struct {
		method, target string
	}{
		{http.MethodGet, "/api/meeting-stats"},
		{http.MethodGet, "/api/recent-meetings"},
		{http.MethodPost, "/api/meeting-stats/update"},
		{http.MethodPost, "/api/realtime/ticket"},
	} {
		t.Run(tt.target, func(t *testing.T) {
			rec := srv.do(t, tt.method, tt.target, "", nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			rec = srv.do(t, tt.method, tt.target, "not-a-jwt", nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestStats_GetStatsForNewUser(t *testing.T) {
	srv := newTestServer(t, serverOptions{})
	token := srv.token(t, uuid.New())

	rec := srv.do(t, http.MethodGet, "/api/meeting-stats", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statsDTO.StatsResponse
	decode(t, rec, &resp)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Stats)
	assert.Equal(t, 0, resp.Stats.TotalCalls.Value)
	assert.Equal(t, statsUsecase.ChangeNeutral, resp.Stats.TotalCalls.ChangeType)
	assert.Equal(t, "0h 0m", resp.Stats.TotalDuration.Formatted)
}

func TestStats_StartEndFlow(t *testing.T) {
	srv := newTestServer(t, serverOptions{})
	token := srv.token(t, uuid.New())

	rec := srv.do(t, http.MethodPost, "/api/meeting-stats/update", token, map[string]interface{}{
		"action":       "start",
		"meetingId":    "room-1",
		"meetingTitle": "Planning",
		"isScheduled":  true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var started statsDTO.UpdateStatsResponse
	decode(t, rec, &started)
	require.NotNil(t, started.Result)
	assert.Equal(t, "active", started.Result.Status)
	assert.Equal(t, "Planning", started.Result.MeetingTitle)
	assert.Equal(t, 1, started.Stats.TotalCalls.Value)
	assert.Equal(t, 1, started.Stats.MeetingsScheduled.Value)

	srv.clock.Advance(65 * time.Minute)

	rec = srv.do(t, http.MethodPost, "/api/meeting-stats/update", token, map[string]interface{}{
		"action":           "end",
		"meetingId":        "room-1",
		"participantCount": 4,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var ended statsDTO.UpdateStatsResponse
	decode(t, rec, &ended)
	require.NotNil(t, ended.Result)
	assert.Equal(t, "completed", ended.Result.Status)
	assert.Equal(t, 65, ended.Result.Duration)
	assert.Equal(t, "1h 5m", ended.Result.FormattedDuration)
	assert.Equal(t, "1h 5m", ended.Stats.TotalDuration.Formatted)
	assert.Equal(t, 4, ended.Stats.TotalParticipants.Value)
	assert.Equal(t, 100, ended.Stats.TotalParticipants.Change)

	rec = srv.do(t, http.MethodGet, "/api/recent-meetings", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var recent statsDTO.RecentMeetingsResponse
	decode(t, rec, &recent)
	require.Len(t, recent.Meetings, 1)
	assert.Equal(t, "room-1", recent.Meetings[0].MeetingID)
	assert.Equal(t, 65, recent.Meetings[0].Duration)
}

func TestStats_EndWithoutActiveMeetingReturnsNullResult(t *testing.T) {
	srv := newTestServer(t, serverOptions{})
	token := srv.token(t, uuid.New())

	rec := srv.do(t, http.MethodPost, "/api/meeting-stats/update", token, map[string]interface{}{
		"action":    "end",
		"meetingId": "never-started",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"result":null`)

	var resp statsDTO.UpdateStatsResponse
	decode(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, 0, resp.Stats.TotalCalls.Value)
}

func TestStats_UpdateValidation(t *testing.T) {
	srv := newTestServer(t, serverOptions{})
	token := srv.token(t, uuid.New())

	tests := []struct {
		name     string
		body     interface{}
		wantCode string
	}{
		{
			name:     "unknown action",
			body:     map[string]interface{}{"action": "pause", "meetingId": "room-1"},
			wantCode: "STATS_INVALID_ACTION",
		},
		{
			name:     "missing action",
			body:     map[string]interface{}{"meetingId": "room-1"},
			wantCode: "INVALID_ARGUMENT",
		},
		{
			name:     "missing meeting id",
			body:     map[string]interface{}{"action": "start"},
			wantCode: "INVALID_ARGUMENT",
		},
		{
			name:     "negative participant count",
			body:     map[string]interface{}{"action": "end", "meetingId": "room-1", "participantCount": -1},
			wantCode: "INVALID_ARGUMENT",
		},
		{
			name:     "meeting id too long",
			body:     map[string]interface{}{"action": "start", "meetingId": strings.Repeat("x", 256)},
			wantCode: "INVALID_ARGUMENT",
		},
		{
			name:     "meeting title too long",
			body:     map[string]interface{}{"action": "start", "meetingId": "room-1", "meetingTitle": strings.Repeat("t", 300)},
			wantCode: "INVALID_ARGUMENT",
		},
		{
			name:     "malformed json",
			body:     `{"action":`,
			wantCode: "INVALID_PAYLOAD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/api/meeting-stats/update", token, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var resp common.ErrorResponse
			decode(t, rec, &resp)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestStats_RecentMeetingsLimit(t *testing.T) {
	srv := newTestServer(t, serverOptions{})
	token := srv.token(t, uuid.New())

	for i := 0; i < 12; i++ {
		rec := srv.do(t, http.MethodPost, "/api/meeting-stats/update", token, map[string]interface{}{
			"action":    "start",
			"meetingId": fmt.Sprintf("room-%d", i),
		})
		require.Equal(t, http.StatusOK, rec.Code)
		srv.clock.Advance(time.Minute)
	}

	tests := []struct {
		query string
		want  int
	}{
		{"", statsDTO.DefaultRecentLimit},
		{"?limit=3", 3},
		{"?limit=0", statsDTO.DefaultRecentLimit},
		{"?limit=-5", statsDTO.DefaultRecentLimit},
		{"?limit=abc", statsDTO.DefaultRecentLimit},
		{"?limit=2.5", statsDTO.DefaultRecentLimit},
		{"?limit=1000", 12},
	}
	for _, tt := range tests {
		t.Run("limit"+tt.query, func(t *testing.T) {
			rec := srv.do(t, http.MethodGet, "/api/recent-meetings"+tt.query, token, nil)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp statsDTO.RecentMeetingsResponse
			decode(t, rec, &resp)
			assert.Len(t, resp.Meetings, tt.want)
		})
	}

	rec := srv.do(t, http.MethodGet, "/api/recent-meetings?limit=2", token, nil)
	var resp statsDTO.RecentMeetingsResponse
	decode(t, rec, &resp)
	require.Len(t, resp.Meetings, 2)
	assert.Equal(t, "room-11", resp.Meetings[0].MeetingID, "newest first")
	assert.Equal(t, "room-10", resp.Meetings[1].MeetingID)
}

func TestStats_RecentMeetingsEmptyIsArray(t *testing.T) {
	srv := newTestServer(t, serverOptions{})
	token := srv.token(t, uuid.New())

	rec := srv.do(t, http.MethodGet, "/api/recent-meetings", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"meetings":[]`)
}

func TestStats_ServiceFailuresAreGeneric(t *testing.T) {
	srv := newTestServer(t, serverOptions{service: brokenService{}})
	token := srv.token(t, uuid.New())

	tests := []struct {
		method, target string
		body           interface{}
		wantError      string
	}{
		{http.MethodGet, "/api/meeting-stats", nil, "Failed to fetch meeting statistics"},
		{http.MethodGet, "/api/recent-meetings", nil, "Failed to fetch recent meetings"},
		{http.MethodPost, "/api/meeting-stats/update", map[string]interface{}{"action": "start", "meetingId": "r"}, "Failed to update meeting statistics"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := srv.do(t, tt.method, tt.target, token, tt.body)
			require.Equal(t, http.StatusInternalServerError, rec.Code)

			var resp common.ErrorResponse
			decode(t, rec, &resp)
			assert.Equal(t, tt.wantError, resp.Error)
			assert.NotContains(t, rec.Body.String(), errBroken.Error())
		})
	}
}

func TestStats_IssueTicket(t *testing.T) {
	srv := newTestServer(t, serverOptions{})
	userID := uuid.New()

	rec := srv.do(t, http.MethodPost, "/api/realtime/ticket", srv.token(t, userID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statsDTO.TicketResponse
	decode(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, 60, resp.ExpiresIn)

	got, err := srv.tickets.Redeem(t.Context(), resp.Ticket)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	rec := srv.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp common.HealthResponse
	decode(t, rec, &resp)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test", resp.Environment)
}
