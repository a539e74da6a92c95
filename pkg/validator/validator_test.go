package validator

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Action    string `json:"action" validate:"required,oneof=start end cancel"`
	MeetingID string `json:"meetingId" validate:"required"`
	Count     int    `json:"participantCount" validate:"min=0"`
}

func TestValidate_ReportsJSONNames(t *testing.T) {
	err := New().Validate(&sample{Action: "pause", Count: -1})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	assert.ElementsMatch(t, []string{"action", "meetingId", "participantCount"}, fields)
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, New().Validate(&sample{Action: "end", MeetingID: "m", Count: 3}))
}
