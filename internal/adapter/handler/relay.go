package handler

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-stats/errors"
	httpmw "github.com/johnquangdev/meeting-stats/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/meeting-stats/internal/infrastructure/pubsub"
	"github.com/johnquangdev/meeting-stats/internal/infrastructure/realtime"
	usecaseErrors "github.com/johnquangdev/meeting-stats/internal/usecase/errors"
	statsUsecase "github.com/johnquangdev/meeting-stats/internal/usecase/stats"
)

// Real-time event names
const (
	EventMeetingStarted   = "meeting-started"
	EventMeetingEnded     = "meeting-ended"
	EventMeetingCancelled = "meeting-cancelled"
	EventStatsUpdated     = "stats-updated"
	EventStatsError       = "stats-error"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

// Envelope is the frame exchanged on /ws/stats
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// MeetingEventPayload is the data of the inbound lifecycle events.
// UserID is accepted for compatibility but never trusted.
type MeetingEventPayload struct {
	UserID           string `json:"userId,omitempty"`
	MeetingID        string `json:"meetingId" validate:"required,max=255"`
	MeetingTitle     string `json:"meetingTitle,omitempty" validate:"max=255"`
	ParticipantCount int    `json:"participantCount,omitempty"`
	IsScheduled      bool   `json:"isScheduled,omitempty"`
}

// BroadcastPayload is the stats-updated data sent to a user's other sessions
type BroadcastPayload struct {
	UserID uuid.UUID                    `json:"userId"`
	Stats  *statsUsecase.FormattedStats `json:"stats"`
}

// ErrorPayload is the stats-error data
type ErrorPayload struct {
	Error string `json:"error"`
}

// RelayMetrics observes relay traffic
type RelayMetrics interface {
	SessionOpened()
	SessionClosed()
	MessageReceived(event string)
	MessageSent(event string)
}

// RelayConfig tunes connection keepalive and buffering
type RelayConfig struct {
	AllowedOrigins []string
	PingInterval   time.Duration
	SendBuffer     int
}

// Relay bridges WebSocket sessions to the statistics service. It keeps no
// registry of connections: each session subscribes to its user's topic.
type Relay struct {
	statsService statsUsecase.Service
	verifier     httpmw.TokenVerifier
	tickets      *realtime.TicketManager
	ps           pubsub.Pubsub
	metrics      RelayMetrics
	logger       *zap.Logger

	upgrader     websocket.Upgrader
	pingInterval time.Duration
	sendBuffer   int

	shutdown     chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
}

// NewRelay creates a new event relay handler
func NewRelay(
	statsService statsUsecase.Service,
	verifier httpmw.TokenVerifier,
	tickets *realtime.TicketManager,
	ps pubsub.Pubsub,
	metrics RelayMetrics,
	cfg RelayConfig,
	logger *zap.Logger,
) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 16
	}

	return &Relay{
		statsService: statsService,
		verifier:     verifier,
		tickets:      tickets,
		ps:           ps,
		metrics:      metrics,
		logger:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
		pingInterval: cfg.PingInterval,
		sendBuffer:   cfg.SendBuffer,
		shutdown:     make(chan struct{}),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// Close disconnects every open session and waits for them to finish
func (h *Relay) Close() {
	h.shutdownOnce.Do(func() { close(h.shutdown) })
	h.wg.Wait()
}

// Serve handles GET /ws/stats
// @Summary      Real-time statistics channel
// @Description  Upgrades to a WebSocket carrying meeting lifecycle events and stats updates
// @Tags         Realtime
// @Param        token   query  string  false  "Access token when headers cannot be set"
// @Param        ticket  query  string  false  "One-time ticket from /api/realtime/ticket"
// @Success      101
// @Failure      401  {object}  common.ErrorResponse
// @Router       /ws/stats [get]
func (h *Relay) Serve(c echo.Context) error {
	select {
	case <-h.shutdown:
		return c.NoContent(http.StatusServiceUnavailable)
	default:
	}

	userID, err := h.resolveIdentity(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already written the failure response
		h.logger.Warn("websocket upgrade failed", zap.String("user_id", userID.String()), zap.Error(err))
		return nil
	}

	s := &session{
		id:        uuid.NewString(),
		userID:    userID,
		conn:      conn,
		send:      make(chan []byte, h.sendBuffer),
		done:      make(chan struct{}),
		relay:     h,
		validator: c.Echo().Validator,
		logger:    h.logger.With(zap.String("user_id", userID.String())),
	}

	h.wg.Add(1)
	defer h.wg.Done()
	s.run()
	return nil
}

// resolveIdentity authenticates the upgrade request from a ticket or a token
func (h *Relay) resolveIdentity(c echo.Context) (uuid.UUID, error) {
	ctx := c.Request().Context()

	if ticket := c.QueryParam("ticket"); ticket != "" && h.tickets != nil {
		userID, err := h.tickets.Redeem(ctx, ticket)
		if err != nil {
			if stdErrors.Is(err, usecaseErrors.ErrTicketInvalid) {
				return uuid.Nil, errors.ErrInvalidTicket()
			}
			return uuid.Nil, errors.ErrInternal(err)
		}
		return userID, nil
	}

	token := httpmw.ExtractToken(c.Request(), true)
	if token == "" {
		return uuid.Nil, errors.ErrUnauthenticated()
	}
	claims, err := h.verifier.ValidateAccessToken(token)
	if err != nil {
		return uuid.Nil, errors.ErrInvalidToken()
	}
	return claims.UserID, nil
}

// session is one WebSocket connection of one user
type session struct {
	id     string
	userID uuid.UUID
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	relay  *Relay
	logger *zap.Logger
	// same rules as the REST update request
	validator echo.Validator

	closeOnce sync.Once
}

func (s *session) run() {
	h := s.relay

	unsubscribe, err := h.ps.Subscribe(pubsub.UserTopic(s.userID), s.onUpdate)
	if err != nil {
		s.logger.Error("failed to subscribe session", zap.Error(err))
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscription failed"),
			time.Now().Add(writeWait))
		s.conn.Close()
		return
	}
	defer unsubscribe()

	if h.metrics != nil {
		h.metrics.SessionOpened()
		defer h.metrics.SessionClosed()
	}
	s.logger.Info("🔌 Realtime session opened", zap.String("session_id", s.id))

	ctx, cancel := context.WithCancel(realtime.WithOrigin(context.Background(), s.id))
	defer cancel()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writePump()
	}()

	go func() {
		select {
		case <-h.shutdown:
			s.close()
		case <-s.done:
		}
	}()

	s.readPump(ctx)
	s.close()
	<-writerDone

	s.logger.Info("🔌 Realtime session closed", zap.String("session_id", s.id))
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// onUpdate forwards updates made by the user's other sessions, REST calls or webhooks
func (s *session) onUpdate(_ context.Context, message []byte) {
	var update realtime.Update
	if err := json.Unmarshal(message, &update); err != nil {
		s.logger.Warn("dropping malformed update", zap.Error(err))
		return
	}
	if update.Origin == s.id || update.UserID != s.userID {
		return
	}
	s.emit(EventStatsUpdated, BroadcastPayload{UserID: update.UserID, Stats: update.Stats})
}

func (s *session) readPump(ctx context.Context) {
	pongWait := s.relay.pingInterval * 2

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("realtime read failed", zap.Error(err))
			}
			return
		}
		s.handleMessage(ctx, raw)

		select {
		case <-s.done:
			return
		default:
		}
	}
}

func (s *session) writePump() {
	ticker := time.NewTicker(s.relay.pingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.close()
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}
		case <-s.done:
			s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// emit queues a frame for the writer. A full queue drops the frame.
func (s *session) emit(event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("failed to encode realtime payload", zap.String("event", event), zap.Error(err))
		return
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		s.logger.Error("failed to encode realtime frame", zap.String("event", event), zap.Error(err))
		return
	}

	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.send <- frame:
		if s.relay.metrics != nil {
			s.relay.metrics.MessageSent(event)
		}
	default:
		s.logger.Warn("realtime send queue full, dropping frame", zap.String("event", event))
	}
}

func (s *session) received(event string) {
	if s.relay.metrics != nil {
		s.relay.metrics.MessageReceived(event)
	}
}

func (s *session) emitError(message string) {
	s.emit(EventStatsError, ErrorPayload{Error: message})
}

func (s *session) handleMessage(ctx context.Context, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.emitError("Invalid message")
		return
	}

	var action statsUsecase.Action
	switch env.Event {
	case EventMeetingStarted:
		action = statsUsecase.ActionStart
	case EventMeetingEnded:
		action = statsUsecase.ActionEnd
	case EventMeetingCancelled:
		action = statsUsecase.ActionCancel
	default:
		s.received("unknown")
		s.emitError("Unknown event")
		return
	}
	s.received(env.Event)

	var payload MeetingEventPayload
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			s.emitError("Invalid message")
			return
		}
	}
	if payload.UserID != "" && payload.UserID != s.userID.String() {
		s.logger.Warn("ignoring userId in realtime payload",
			zap.String("event", env.Event),
			zap.String("payload_user_id", payload.UserID),
		)
	}
	if payload.ParticipantCount < 0 {
		payload.ParticipantCount = 0
	}
	if s.validator != nil {
		if err := s.validator.Validate(&payload); err != nil {
			s.emitError(validationError(err).Message)
			return
		}
	}

	out, err := s.relay.statsService.ApplyUpdate(ctx, statsUsecase.UpdateInput{
		UserID:           s.userID,
		Action:           action,
		MeetingID:        payload.MeetingID,
		Title:            payload.MeetingTitle,
		ParticipantCount: payload.ParticipantCount,
		IsScheduled:      payload.IsScheduled,
	})
	if err != nil {
		appErr := toUpdateError(string(action), err)
		s.logger.Error("realtime update failed",
			zap.String("event", env.Event),
			zap.String("meeting_id", payload.MeetingID),
			zap.Error(err),
		)
		s.emitError(appErr.Message)
		return
	}

	s.emit(EventStatsUpdated, out.Stats)
}
