package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/johnquangdev/meeting-stats/internal/domain/entities"
)

func TestPercentageChange(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		baseline int
		want     int
	}{
		{"both zero", 0, 0, 0},
		{"zero baseline positive current", 7, 0, 100},
		{"growth", 110, 100, 10},
		{"decline", 90, 100, -10},
		{"half rounds up", 3, 2, 50},
		{"negative half rounds toward zero", 199, 200, 0},
		{"fraction rounds", 4, 3, 33},
		{"drop to zero", 0, 5, -100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PercentageChange(tt.current, tt.baseline))
		})
	}
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 3, RoundHalfUp(2.5))
	assert.Equal(t, -2, RoundHalfUp(-2.5))
	assert.Equal(t, -3, RoundHalfUp(-2.6))
	assert.Equal(t, 0, RoundHalfUp(0.49))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "2h 5m", FormatDuration(125))
	assert.Equal(t, "0h 0m", FormatDuration(0))
	assert.Equal(t, "1h 5m", FormatDuration(65))
	assert.Equal(t, "0h 59m", FormatDuration(59))
	assert.Equal(t, "-1h -5m", FormatDuration(-5))
	assert.Equal(t, "-1h -3m", FormatDuration(-3))
}

func TestChangeTypeOf(t *testing.T) {
	assert.Equal(t, ChangePositive, ChangeTypeOf(1))
	assert.Equal(t, ChangeNegative, ChangeTypeOf(-1))
	assert.Equal(t, ChangeNeutral, ChangeTypeOf(0))
}

func TestNewFormattedStats(t *testing.T) {
	s := &entities.UserStatistics{
		TotalCalls:        11,
		TotalDuration:     125,
		TotalParticipants: 9,
		MeetingsScheduled: 0,
		LastMonthStats: entities.StatsSnapshot{
			TotalCalls:        10,
			TotalDuration:     0,
			TotalParticipants: 10,
			MeetingsScheduled: 0,
		},
	}

	view := NewFormattedStats(s)

	assert.Equal(t, Metric{Value: 11, Change: 10, ChangeType: ChangePositive}, view.TotalCalls)
	assert.Equal(t, DurationMetric{Value: 125, Formatted: "2h 5m", Change: 100, ChangeType: ChangePositive}, view.TotalDuration)
	assert.Equal(t, Metric{Value: 9, Change: -10, ChangeType: ChangeNegative}, view.TotalParticipants)
	assert.Equal(t, Metric{Value: 0, Change: 0, ChangeType: ChangeNeutral}, view.MeetingsScheduled)
}
