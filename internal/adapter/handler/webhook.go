package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	"github.com/livekit/protocol/webhook"
	"go.uber.org/zap"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/johnquangdev/meeting-stats/errors"
	statsUsecase "github.com/johnquangdev/meeting-stats/internal/usecase/stats"
)

// LiveKit webhook event names handled here
const (
	livekitParticipantJoined = "participant_joined"
	livekitParticipantLeft   = "participant_left"
	egressIdentityPrefix     = "EG_"
)

// roomMetadata is the JSON the meeting frontend stores on a LiveKit room
type roomMetadata struct {
	Title       string `json:"title"`
	IsScheduled bool   `json:"isScheduled"`
}

// WebhookHandler turns LiveKit participant events into meeting lifecycle updates
type WebhookHandler struct {
	statsService  statsUsecase.Service
	keyProvider   auth.KeyProvider
	allowUnsigned bool
	logger        *zap.Logger
}

// NewWebhookHandler creates a new webhook handler. allowUnsigned lets
// requests without an Authorization header through, for local development.
func NewWebhookHandler(statsService statsUsecase.Service, apiKey, apiSecret string, allowUnsigned bool, logger *zap.Logger) *WebhookHandler {
	var provider auth.KeyProvider
	if apiKey != "" && apiSecret != "" {
		provider = auth.NewSimpleKeyProvider(apiKey, apiSecret)
	}
	return &WebhookHandler{
		statsService:  statsService,
		keyProvider:   provider,
		allowUnsigned: allowUnsigned,
		logger:        logger,
	}
}

// HandleLiveKitWebhook handles POST /webhooks/livekit
// @Summary      LiveKit Webhook
// @Description  Receives participant events from LiveKit and records meeting starts and ends
// @Tags         Webhooks
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  common.ErrorResponse
// @Failure      401  {object}  common.ErrorResponse
// @Router       /webhooks/livekit [post]
func (h *WebhookHandler) HandleLiveKitWebhook(c echo.Context) error {
	event, err := h.receive(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	h.logger.Info("🌐 LiveKit webhook received", zap.String("event", event.GetEvent()), zap.String("id", event.GetId()))

	switch event.GetEvent() {
	case livekitParticipantJoined:
		h.handleParticipant(c, event, statsUsecase.ActionStart)
	case livekitParticipantLeft:
		h.handleParticipant(c, event, statsUsecase.ActionEnd)
	default:
		h.logger.Debug("ignoring webhook event", zap.String("event", event.GetEvent()))
	}

	return HandleSuccess(h.logger, c, map[string]string{"status": "ok"})
}

// receive authenticates and decodes the webhook body
func (h *WebhookHandler) receive(c echo.Context) (*livekit.WebhookEvent, error) {
	req := c.Request()

	if req.Header.Get("Authorization") != "" {
		if h.keyProvider == nil {
			return nil, errors.ErrWebhookRejected(nil)
		}
		event, err := webhook.ReceiveWebhookEvent(req, h.keyProvider)
		if err != nil {
			return nil, errors.ErrWebhookRejected(err)
		}
		return event, nil
	}

	if !h.allowUnsigned {
		return nil, errors.ErrWebhookRejected(nil)
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, errors.ErrInvalidPayload()
	}
	req.Body = io.NopCloser(bytes.NewReader(body))

	h.logger.Warn("⚠️ Processing unsigned LiveKit webhook")
	event := &livekit.WebhookEvent{}
	if err := (protojson.UnmarshalOptions{DiscardUnknown: true}).Unmarshal(body, event); err != nil {
		return nil, errors.ErrInvalidPayload()
	}
	return event, nil
}

// handleParticipant applies the action for a joining or leaving participant.
// Failures are logged only so LiveKit does not retry the delivery.
func (h *WebhookHandler) handleParticipant(c echo.Context, event *livekit.WebhookEvent, action statsUsecase.Action) {
	participant := event.GetParticipant()
	room := event.GetRoom()
	if participant == nil || room == nil {
		h.logger.Warn("participant or room missing in webhook", zap.String("event", event.GetEvent()))
		return
	}

	identity := participant.GetIdentity()
	if strings.HasPrefix(identity, egressIdentityPrefix) {
		h.logger.Debug("⏭️ Skipping egress participant", zap.String("identity", identity))
		return
	}
	// NumParticipants on participant_left is the count still in the room,
	// so the peak is taken from joins, guests included
	if action == statsUsecase.ActionStart {
		defer h.observePeak(c, room)
	}

	userID, err := uuid.Parse(identity)
	if err != nil {
		h.logger.Debug("⏭️ Skipping participant without user identity", zap.String("identity", identity))
		return
	}

	input := statsUsecase.UpdateInput{
		UserID:    userID,
		Action:    action,
		MeetingID: room.GetName(),
	}
	switch action {
	case statsUsecase.ActionStart:
		meta := parseRoomMetadata(room.GetMetadata())
		input.Title = meta.Title
		input.IsScheduled = meta.IsScheduled
	case statsUsecase.ActionEnd:
		input.ParticipantCount = int(room.GetNumParticipants())
	}

	out, err := h.statsService.ApplyUpdate(c.Request().Context(), input)
	if err != nil {
		h.logger.Error("failed to apply webhook update",
			zap.String("event", event.GetEvent()),
			zap.String("user_id", userID.String()),
			zap.String("room", room.GetName()),
			zap.Error(err),
		)
		return
	}
	if out.Result == nil {
		h.logger.Debug("webhook update was a no-op",
			zap.String("event", event.GetEvent()),
			zap.String("user_id", userID.String()),
			zap.String("room", room.GetName()),
		)
	}
}

func (h *WebhookHandler) observePeak(c echo.Context, room *livekit.Room) {
	raised, err := h.statsService.ObserveParticipants(c.Request().Context(), room.GetName(), int(room.GetNumParticipants()))
	if err != nil {
		h.logger.Error("failed to record room size",
			zap.String("room", room.GetName()),
			zap.Error(err),
		)
		return
	}
	if raised > 0 {
		h.logger.Debug("room peak raised",
			zap.String("room", room.GetName()),
			zap.Uint32("participants", room.GetNumParticipants()),
			zap.Int64("records", raised),
		)
	}
}

func parseRoomMetadata(raw string) roomMetadata {
	var meta roomMetadata
	if raw == "" {
		return meta
	}
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return roomMetadata{}
	}
	return meta
}
