package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-stats/errors"
	statsDTO "github.com/johnquangdev/meeting-stats/internal/adapter/dto/stats"
	"github.com/johnquangdev/meeting-stats/internal/adapter/presenter"
	"github.com/johnquangdev/meeting-stats/internal/infrastructure/realtime"
	statsUsecase "github.com/johnquangdev/meeting-stats/internal/usecase/stats"
	pkgmw "github.com/johnquangdev/meeting-stats/pkg/middleware"
)

// Stats handles meeting statistics HTTP requests
type Stats struct {
	statsService statsUsecase.Service
	tickets      *realtime.TicketManager
	logger       *zap.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService statsUsecase.Service, tickets *realtime.TicketManager, logger *zap.Logger) *Stats {
	return &Stats{
		statsService: statsService,
		tickets:      tickets,
		logger:       logger,
	}
}

// GetStats handles GET /api/meeting-stats
// @Summary      Get meeting statistics
// @Description  Returns the caller's formatted statistics with month-over-month changes
// @Tags         Stats
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  statsDTO.StatsResponse
// @Failure      401  {object}  common.ErrorResponse
// @Failure      500  {object}  common.ErrorResponse
// @Router       /api/meeting-stats [get]
func (h *Stats) GetStats(c echo.Context) error {
	userID, ok := pkgmw.UserID(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	view, err := h.statsService.GetFormattedView(c.Request().Context(), userID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrStatsFetchFailed(err))
	}

	return HandleSuccess(h.logger, c, statsDTO.StatsResponse{
		Success: true,
		Stats:   view,
	})
}

// GetRecentMeetings handles GET /api/recent-meetings
// @Summary      List recent meetings
// @Description  Returns the caller's meetings, newest first
// @Tags         Stats
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum number of meetings (default 10, max 100)"
// @Success      200    {object}  statsDTO.RecentMeetingsResponse
// @Failure      401    {object}  common.ErrorResponse
// @Failure      500    {object}  common.ErrorResponse
// @Router       /api/recent-meetings [get]
func (h *Stats) GetRecentMeetings(c echo.Context) error {
	userID, ok := pkgmw.UserID(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	var req statsDTO.RecentMeetingsRequest
	if err := echo.QueryParamsBinder(c).Int("limit", &req.Limit).BindError(); err != nil {
		// unparsable limits fall back to the default like missing ones
		h.logger.Debug("ignoring invalid limit", zap.String("limit", c.QueryParam("limit")))
		req.Limit = 0
	}

	meetings, err := h.statsService.GetRecentMeetings(c.Request().Context(), userID, req.NormalizedLimit())
	if err != nil {
		return HandleError(h.logger, c, errors.ErrRecentMeetingsFailed(err))
	}

	return HandleSuccess(h.logger, c, statsDTO.RecentMeetingsResponse{
		Success:  true,
		Meetings: presenter.ToMeetingResponses(meetings),
	})
}

// UpdateStats handles POST /api/meeting-stats/update
// @Summary      Record a meeting lifecycle action
// @Description  Starts, ends or cancels a meeting and returns the recomputed statistics
// @Tags         Stats
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      statsDTO.UpdateStatsRequest  true  "Lifecycle action"
// @Success      200      {object}  statsDTO.UpdateStatsResponse
// @Failure      400      {object}  common.ErrorResponse
// @Failure      401      {object}  common.ErrorResponse
// @Failure      500      {object}  common.ErrorResponse
// @Router       /api/meeting-stats/update [post]
func (h *Stats) UpdateStats(c echo.Context) error {
	userID, ok := pkgmw.UserID(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	var req statsDTO.UpdateStatsRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, validationError(err))
	}

	out, err := h.statsService.ApplyUpdate(c.Request().Context(), statsUsecase.UpdateInput{
		UserID:           userID,
		Action:           statsUsecase.Action(req.Action),
		MeetingID:        req.MeetingID,
		Title:            req.MeetingTitle,
		ParticipantCount: req.ParticipantCount,
		IsScheduled:      req.IsScheduled,
	})
	if err != nil {
		return HandleError(h.logger, c, toUpdateError(req.Action, err))
	}

	return HandleSuccess(h.logger, c, statsDTO.UpdateStatsResponse{
		Success: true,
		Result:  presenter.ToMeetingResponse(out.Result),
		Stats:   out.Stats,
	})
}

// IssueTicket handles POST /api/realtime/ticket
// @Summary      Issue a real-time ticket
// @Description  Returns a one-time ticket accepted by /ws/stats in place of a token
// @Tags         Realtime
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  statsDTO.TicketResponse
// @Failure      401  {object}  common.ErrorResponse
// @Router       /api/realtime/ticket [post]
func (h *Stats) IssueTicket(c echo.Context) error {
	userID, ok := pkgmw.UserID(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	ticket, err := h.tickets.Issue(c.Request().Context(), userID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInternal(err))
	}

	return HandleSuccess(h.logger, c, statsDTO.TicketResponse{
		Success:   true,
		Ticket:    ticket,
		ExpiresIn: int(h.tickets.TTL().Seconds()),
	})
}
