package jobcontext

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobBegin_Metadata(t *testing.T) {
	ctx, cancel := JobBegin(context.Background(), "rollover", time.Minute)
	defer cancel()

	meta := GetJobMetadata(ctx)
	assert.NotEqual(t, uuid.Nil, meta.JobID)
	assert.Equal(t, "rollover", meta.JobType)
	assert.False(t, meta.StartTime.IsZero())

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

func TestJobEnd_RecoversPanic(t *testing.T) {
	ctx, cancel := JobBegin(context.Background(), "rollover", 0)
	defer cancel()

	err := JobEnd(ctx, func(context.Context) error {
		panic("boom")
	})
	assert.ErrorContains(t, err, "panic recovered: boom")
}

func TestJobEnd_RunsOnce(t *testing.T) {
	ctx, cancel := JobBegin(context.Background(), "rollover", time.Minute)
	defer cancel()

	calls := 0
	wantErr := errors.New("connection refused")
	err := JobEnd(ctx, func(context.Context) error {
		calls++
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, calls)
}

func TestJobEnd_CancelledContext(t *testing.T) {
	ctx, cancel := JobBegin(context.Background(), "rollover", time.Minute)
	cancel()

	called := false
	err := JobEnd(ctx, func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
