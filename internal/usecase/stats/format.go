package stats

import (
	"fmt"
	"math"

	"github.com/johnquangdev/meeting-stats/internal/domain/entities"
)

// ChangeType classifies the sign of a percentage change
type ChangeType string

const (
	ChangePositive ChangeType = "positive"
	ChangeNegative ChangeType = "negative"
	ChangeNeutral  ChangeType = "neutral"
)

// Metric is one counter of the formatted view
type Metric struct {
	Value      int        `json:"value"`
	Change     int        `json:"change"`
	ChangeType ChangeType `json:"changeType"`
}

// DurationMetric is the duration counter with its human readable form
type DurationMetric struct {
	Value      int        `json:"value"`
	Formatted  string     `json:"formatted"`
	Change     int        `json:"change"`
	ChangeType ChangeType `json:"changeType"`
}

// FormattedStats is the display projection of a UserStatistics row
type FormattedStats struct {
	TotalCalls        Metric         `json:"totalCalls"`
	TotalDuration     DurationMetric `json:"totalDuration"`
	TotalParticipants Metric         `json:"totalParticipants"`
	MeetingsScheduled Metric         `json:"meetingsScheduled"`
}

// RoundHalfUp rounds to the nearest integer, halves toward positive infinity
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// PercentageChange returns the whole-percent change of current over baseline.
// A zero baseline yields 100 when current is positive, 0 otherwise.
func PercentageChange(current, baseline int) int {
	if baseline == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return RoundHalfUp(float64(current-baseline) / float64(baseline) * 100)
}

// ChangeTypeOf classifies a percentage change by sign
func ChangeTypeOf(change int) ChangeType {
	switch {
	case change > 0:
		return ChangePositive
	case change < 0:
		return ChangeNegative
	default:
		return ChangeNeutral
	}
}

// FormatDuration renders minutes as "{h}h {m}m"
func FormatDuration(minutes int) string {
	return fmt.Sprintf("%dh %dm", floorDiv(minutes, 60), minutes%60)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func newMetric(current, baseline int) Metric {
	change := PercentageChange(current, baseline)
	return Metric{Value: current, Change: change, ChangeType: ChangeTypeOf(change)}
}

// NewFormattedStats derives the display projection from raw counters
func NewFormattedStats(s *entities.UserStatistics) *FormattedStats {
	base := s.LastMonthStats
	duration := newMetric(s.TotalDuration, base.TotalDuration)

	return &FormattedStats{
		TotalCalls: newMetric(s.TotalCalls, base.TotalCalls),
		TotalDuration: DurationMetric{
			Value:      duration.Value,
			Formatted:  FormatDuration(s.TotalDuration),
			Change:     duration.Change,
			ChangeType: duration.ChangeType,
		},
		TotalParticipants: newMetric(s.TotalParticipants, base.TotalParticipants),
		MeetingsScheduled: newMetric(s.MeetingsScheduled, base.MeetingsScheduled),
	}
}
