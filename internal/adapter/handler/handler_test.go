package handler

import (
	"bytes"
	"context"
	"encoding/json"
	stdErrors "errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/johnquangdev/meeting-stats/internal/adapter/repository"
	"github.com/johnquangdev/meeting-stats/internal/domain/entities"
	"github.com/johnquangdev/meeting-stats/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-stats/internal/infrastructure/database"
	httpmw "github.com/johnquangdev/meeting-stats/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/meeting-stats/internal/infrastructure/pubsub"
	"github.com/johnquangdev/meeting-stats/internal/infrastructure/realtime"
	statsUsecase "github.com/johnquangdev/meeting-stats/internal/usecase/stats"
	"github.com/johnquangdev/meeting-stats/pkg/config"
	"github.com/johnquangdev/meeting-stats/pkg/jwt"
	"github.com/johnquangdev/meeting-stats/pkg/validator"
)

const (
	testLiveKitKey    = "devkey"
	testLiveKitSecret = "devsecret-devsecret-devsecret-0123"
)

var testNow = time.Date(2025, 5, 20, 14, 0, 0, 0, time.UTC)

type testServer struct {
	echo    *echo.Echo
	clock   *quartz.Mock
	jwt     *jwt.Manager
	tickets *realtime.TicketManager
	relay   *Relay
	svc     statsUsecase.Service
}

type serverOptions struct {
	service       statsUsecase.Service
	allowUnsigned bool
}

func newTestServer(t *testing.T, opts serverOptions) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)

	clock := quartz.NewMock(t)
	clock.Set(testNow)

	ps := pubsub.NewMemory()
	t.Cleanup(func() { _ = ps.Close() })

	svc := opts.service
	if svc == nil {
		db, err := database.NewInMemoryDB()
		require.NoError(t, err)
		t.Cleanup(func() { _ = database.CloseDB(db) })

		svc = statsUsecase.NewStatsService(
			repository.NewStatisticsRepository(db),
			repository.NewMeetingRepository(db),
			clock,
			logger,
			statsUsecase.WithPublisher(realtime.NewBroadcaster(ps)),
		)
	}

	store := cache.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	tickets := realtime.NewTicketManager(store, time.Minute)

	jwtManager := jwt.NewManager("test-secret", time.Hour)

	cfg := &config.Config{}
	cfg.Server.Environment = "test"

	relay := NewRelay(svc, jwtManager, tickets, ps, nil, RelayConfig{
		AllowedOrigins: []string{"http://localhost:3000"},
		PingInterval:   time.Minute,
		SendBuffer:     16,
	}, logger)
	t.Cleanup(relay.Close)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()

	NewRouter(
		cfg,
		httpmw.EchoAuth(jwtManager),
		NewStatsHandler(svc, tickets, logger),
		relay,
		NewWebhookHandler(svc, testLiveKitKey, testLiveKitSecret, opts.allowUnsigned, logger),
		nil,
	).Setup(e)

	return &testServer{
		echo:    e,
		clock:   clock,
		jwt:     jwtManager,
		tickets: tickets,
		relay:   relay,
		svc:     svc,
	}
}

func (s *testServer) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := s.jwt.GenerateAccessToken(userID, "user@example.com")
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, target, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

// brokenService fails every call
type brokenService struct{}

var errBroken = stdErrors.New("store unavailable")

func (brokenService) GetOrCreateStatistics(context.Context, uuid.UUID) (*entities.UserStatistics, error) {
	return nil, errBroken
}
func (brokenService) RecordMeetingStart(context.Context, statsUsecase.StartMeetingInput) (*entities.MeetingRecord, error) {
	return nil, errBroken
}
func (brokenService) RecordMeetingEnd(context.Context, statsUsecase.EndMeetingInput) (*entities.MeetingRecord, error) {
	return nil, errBroken
}
func (brokenService) CancelMeeting(context.Context, uuid.UUID, string) (*entities.MeetingRecord, error) {
	return nil, errBroken
}
func (brokenService) ApplyUpdate(context.Context, statsUsecase.UpdateInput) (*statsUsecase.UpdateOutput, error) {
	return nil, errBroken
}
func (brokenService) GetFormattedView(context.Context, uuid.UUID) (*statsUsecase.FormattedStats, error) {
	return nil, errBroken
}
func (brokenService) GetRecentMeetings(context.Context, uuid.UUID, int) ([]*entities.MeetingRecord, error) {
	return nil, errBroken
}
func (brokenService) RollOverMonth(context.Context) (int64, error) {
	return 0, errBroken
}
func (brokenService) ObserveParticipants(context.Context, string, int) (int64, error) {
	return 0, errBroken
}
