package stats

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-stats/internal/domain/entities"
	"github.com/johnquangdev/meeting-stats/internal/domain/repositories"
	usecaseErrors "github.com/johnquangdev/meeting-stats/internal/usecase/errors"
)

var _ Service = (*StatsService)(nil)

// StatsService handles meeting statistics business logic
type StatsService struct {
	statsRepo   repositories.StatisticsRepository
	meetingRepo repositories.MeetingRepository
	clock       quartz.Clock
	logger      *zap.Logger

	publisher Publisher
	archiver  Archiver
	recorder  Recorder
}

// Option configures optional collaborators of StatsService
type Option func(*StatsService)

// WithPublisher pushes every applied update to the user's sessions
func WithPublisher(p Publisher) Option {
	return func(s *StatsService) { s.publisher = p }
}

// WithArchiver archives outgoing baselines before each rollover
func WithArchiver(a Archiver) Option {
	return func(s *StatsService) { s.archiver = a }
}

// WithRecorder reports lifecycle counts
func WithRecorder(r Recorder) Option {
	return func(s *StatsService) { s.recorder = r }
}

// NewStatsService creates a new statistics service
func NewStatsService(
	statsRepo repositories.StatisticsRepository,
	meetingRepo repositories.MeetingRepository,
	clock quartz.Clock,
	logger *zap.Logger,
	opts ...Option,
) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &StatsService{
		statsRepo:   statsRepo,
		meetingRepo: meetingRepo,
		clock:       clock,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, usecaseErrors.ErrStore, err)
}

// maxFieldLength matches the varchar(255) meeting columns
const maxFieldLength = 255

func checkMeetingFields(meetingID, title string) error {
	if meetingID == "" {
		return usecaseErrors.ErrMissingMeetingID
	}
	if utf8.RuneCountInString(meetingID) > maxFieldLength || utf8.RuneCountInString(title) > maxFieldLength {
		return fmt.Errorf("%w: meeting field longer than %d characters", usecaseErrors.ErrInvalidInput, maxFieldLength)
	}
	return nil
}

// GetOrCreateStatistics returns the user's row, inserting a zero row if absent.
// A concurrent creator winning the insert is resolved by re-reading.
func (s *StatsService) GetOrCreateStatistics(ctx context.Context, userID uuid.UUID) (*entities.UserStatistics, error) {
	stats, err := s.statsRepo.FindByUserID(ctx, userID)
	if err == nil {
		return stats, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeError("find statistics", err)
	}

	err = s.statsRepo.CreateIfNotExists(ctx, entities.NewUserStatistics(userID, s.clock.Now().UTC()))
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, storeError("create statistics", err)
	}

	stats, err = s.statsRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, storeError("reload statistics", err)
	}
	return stats, nil
}

// RecordMeetingStart opens an active record and counts the call.
// An already active record for the same meeting is returned as-is.
func (s *StatsService) RecordMeetingStart(ctx context.Context, input StartMeetingInput) (*entities.MeetingRecord, error) {
	if err := checkMeetingFields(input.MeetingID, input.Title); err != nil {
		return nil, err
	}

	existing, err := s.meetingRepo.FindActive(ctx, input.UserID, input.MeetingID)
	if err == nil {
		s.logger.Debug("Meeting already active, start ignored",
			zap.String("user_id", input.UserID.String()),
			zap.String("meeting_id", input.MeetingID),
		)
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeError("find active meeting", err)
	}

	now := s.clock.Now().UTC()
	meeting := entities.NewActiveMeeting(input.UserID, input.MeetingID, input.Title, input.IsScheduled, now)
	if err := s.meetingRepo.Create(ctx, meeting); err != nil {
		return nil, storeError("create meeting record", err)
	}

	// The record is already persisted; a failure below leaves it uncounted.
	if _, err := s.GetOrCreateStatistics(ctx, input.UserID); err != nil {
		return nil, err
	}
	delta := entities.StatsDelta{Calls: 1}
	if input.IsScheduled {
		delta.Scheduled = 1
	}
	if err := s.statsRepo.IncrementCounters(ctx, input.UserID, delta, now); err != nil {
		return nil, storeError("count meeting start", err)
	}

	if s.recorder != nil {
		s.recorder.MeetingStarted(input.IsScheduled)
	}
	s.logger.Info("📞 Meeting started",
		zap.String("user_id", input.UserID.String()),
		zap.String("meeting_id", input.MeetingID),
		zap.Bool("scheduled", input.IsScheduled),
	)
	return meeting, nil
}

// RecordMeetingEnd completes the active record and adds its duration and participants
func (s *StatsService) RecordMeetingEnd(ctx context.Context, input EndMeetingInput) (*entities.MeetingRecord, error) {
	if err := checkMeetingFields(input.MeetingID, ""); err != nil {
		return nil, err
	}

	meeting, err := s.meetingRepo.FindActive(ctx, input.UserID, input.MeetingID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("find active meeting", err)
	}

	now := s.clock.Now().UTC()
	meeting.Complete(now, input.ParticipantCount)

	completed, err := s.meetingRepo.Complete(ctx, meeting)
	if err != nil {
		return nil, storeError("complete meeting record", err)
	}
	if !completed {
		// another end won the transition
		return nil, nil
	}

	if _, err := s.GetOrCreateStatistics(ctx, input.UserID); err != nil {
		return nil, err
	}
	delta := entities.StatsDelta{Duration: meeting.Duration, Participants: meeting.ParticipantCount}
	if err := s.statsRepo.IncrementCounters(ctx, input.UserID, delta, now); err != nil {
		return nil, storeError("count meeting end", err)
	}

	if s.recorder != nil {
		s.recorder.MeetingEnded(meeting.Duration)
	}
	s.logger.Info("📴 Meeting ended",
		zap.String("user_id", input.UserID.String()),
		zap.String("meeting_id", input.MeetingID),
		zap.Int("duration_minutes", meeting.Duration),
		zap.Int("participants", meeting.ParticipantCount),
	)
	return meeting, nil
}

// CancelMeeting moves the active record to cancelled. Counters are not touched.
func (s *StatsService) CancelMeeting(ctx context.Context, userID uuid.UUID, meetingID string) (*entities.MeetingRecord, error) {
	if err := checkMeetingFields(meetingID, ""); err != nil {
		return nil, err
	}

	meeting, err := s.meetingRepo.FindActive(ctx, userID, meetingID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("find active meeting", err)
	}

	now := s.clock.Now().UTC()
	cancelled, err := s.meetingRepo.Cancel(ctx, meeting.ID, now)
	if err != nil {
		return nil, storeError("cancel meeting record", err)
	}
	if !cancelled {
		return nil, nil
	}
	meeting.Cancel(now)

	if s.recorder != nil {
		s.recorder.MeetingCancelled()
	}
	s.logger.Info("🚫 Meeting cancelled",
		zap.String("user_id", userID.String()),
		zap.String("meeting_id", meetingID),
	)
	return meeting, nil
}

// ApplyUpdate runs one lifecycle action, recomputes the view and publishes it
func (s *StatsService) ApplyUpdate(ctx context.Context, input UpdateInput) (*UpdateOutput, error) {
	var (
		result *entities.MeetingRecord
		err    error
	)

	switch input.Action {
	case ActionStart:
		result, err = s.RecordMeetingStart(ctx, StartMeetingInput{
			UserID:      input.UserID,
			MeetingID:   input.MeetingID,
			Title:       input.Title,
			IsScheduled: input.IsScheduled,
		})
	case ActionEnd:
		result, err = s.RecordMeetingEnd(ctx, EndMeetingInput{
			UserID:           input.UserID,
			MeetingID:        input.MeetingID,
			ParticipantCount: input.ParticipantCount,
		})
	case ActionCancel:
		result, err = s.CancelMeeting(ctx, input.UserID, input.MeetingID)
	default:
		return nil, fmt.Errorf("%w: %q", usecaseErrors.ErrInvalidAction, input.Action)
	}
	if err != nil {
		return nil, err
	}

	view, err := s.GetFormattedView(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	// published even when the action was a no-op
	if s.publisher != nil {
		if err := s.publisher.PublishStats(ctx, input.UserID, view); err != nil {
			s.logger.Warn("Failed to publish stats update",
				zap.String("user_id", input.UserID.String()),
				zap.String("action", string(input.Action)),
				zap.Error(err),
			)
		}
	}

	return &UpdateOutput{Result: result, Stats: view}, nil
}

// ObserveParticipants raises the participant count of the meeting's active records
func (s *StatsService) ObserveParticipants(ctx context.Context, meetingID string, count int) (int64, error) {
	if err := checkMeetingFields(meetingID, ""); err != nil {
		return 0, err
	}
	if count <= 0 {
		return 0, nil
	}

	raised, err := s.meetingRepo.RaisePeakParticipants(ctx, meetingID, count)
	if err != nil {
		return 0, storeError("raise peak participants", err)
	}
	return raised, nil
}

// GetFormattedView returns the display projection of the user's statistics
func (s *StatsService) GetFormattedView(ctx context.Context, userID uuid.UUID) (*FormattedStats, error) {
	stats, err := s.GetOrCreateStatistics(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewFormattedStats(stats), nil
}

// GetRecentMeetings lists the user's meetings, newest first
func (s *StatsService) GetRecentMeetings(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.MeetingRecord, error) {
	meetings, err := s.meetingRepo.FindRecentByUserID(ctx, userID, limit)
	if err != nil {
		return nil, storeError("list recent meetings", err)
	}
	return meetings, nil
}

// RollOverMonth shifts every baseline to the current live counters.
// Running it twice in one period loses the prior baseline unless archived.
func (s *StatsService) RollOverMonth(ctx context.Context) (int64, error) {
	now := s.clock.Now().UTC()

	if s.archiver != nil {
		rows, err := s.statsRepo.ListAll(ctx)
		if err != nil {
			s.logger.Error("❌ Failed to list statistics for archive", zap.Error(err))
		} else if err := s.archiver.ArchiveBaselines(ctx, now, rows); err != nil {
			s.logger.Error("❌ Failed to archive baselines", zap.Int("rows", len(rows)), zap.Error(err))
		}
	}

	n, err := s.statsRepo.RollOverBaseline(ctx)
	if err != nil {
		return 0, storeError("roll over baseline", err)
	}

	if s.recorder != nil {
		s.recorder.RolledOver(n)
	}
	s.logger.Info("🗓️ Monthly baseline rolled over", zap.Int64("rows", n))
	return n, nil
}
