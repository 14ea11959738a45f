package tickets

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"campusq/internal/shared/middleware"
	"campusq/internal/shared/utils/response"
	"campusq/internal/stations"
	"campusq/internal/tokens"
)

type Controller struct {
	queue     QueueService
	serving   ServingService
	validator *validator.Validate
}

func NewController(queue QueueService, serving ServingService) *Controller {
	return &Controller{
		queue:     queue,
		serving:   serving,
		validator: validator.New(),
	}
}

// Join handles POST /queue/join. The Authorization header carries the
// queue-form token; a success consumes it and returns the ticket plus
// the queue-status token for later polling.
func (ctl *Controller) Join(c *gin.Context) {
	raw := tokens.RawFromContext(c)
	if raw == "" {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "queue form token required", nil, nil)
		return
	}

	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	if err := ctl.validator.Struct(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	result, err := ctl.queue.Join(c.Request.Context(), raw, req.Email)
	if err != nil {
		status, msg := joinFailure(err)
		response.RespondJSON(c, "error", status, msg, nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "ticket issued", JoinResponse{
		TicketID:    result.Ticket.ID,
		StatusToken: result.StatusToken,
	}, nil)
}

// Position handles GET /queue/position using the queue-status token
func (ctl *Controller) Position(c *gin.Context) {
	raw := tokens.RawFromContext(c)
	if raw == "" {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "queue status token required", nil, nil)
		return
	}

	result, err := ctl.queue.Position(c.Request.Context(), raw)
	if err != nil {
		status, msg := queueFailure(err)
		response.RespondJSON(c, "error", status, msg, nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "position retrieved", PositionResponse{
		TicketID: result.TicketID,
		Status:   string(result.Status),
		Position: result.Position,
	}, nil)
}

// Leave handles POST /queue/leave. Withdraws the ticket and
// invalidates the status token.
func (ctl *Controller) Leave(c *gin.Context) {
	raw := tokens.RawFromContext(c)
	if raw == "" {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "queue status token required", nil, nil)
		return
	}

	if err := ctl.queue.Leave(c.Request.Context(), raw); err != nil {
		status, msg := queueFailure(err)
		response.RespondJSON(c, "error", status, msg, nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "left the queue", nil, nil)
}

// Claim handles POST /serving/claim (cashier)
func (ctl *Controller) Claim(c *gin.Context) {
	cashierUID, ok := middleware.StaffUID(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "staff identity missing", nil, nil)
		return
	}

	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	stationID, counterID, err := parseIDs(req.StationID, req.CounterID)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid station or counter id", nil, nil)
		return
	}

	result, err := ctl.serving.Claim(c.Request.Context(), stationID, counterID, cashierUID)
	if err != nil {
		status, msg := servingFailure(err)
		response.RespondJSON(c, "error", status, msg, nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "ticket claimed", ClaimResponse{
		TicketID:      result.Ticket.ID,
		CounterNumber: result.CounterNumber,
	}, nil)
}

// Complete handles POST /serving/complete (cashier)
func (ctl *Controller) Complete(c *gin.Context) {
	ctl.finish(c, StatusComplete)
}

// Skip handles POST /serving/skip (cashier)
func (ctl *Controller) Skip(c *gin.Context) {
	ctl.finish(c, StatusUnsuccessful)
}

func (ctl *Controller) finish(c *gin.Context, final Status) {
	var req FinishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	stationID, counterID, err := parseIDs(req.StationID, req.CounterID)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid station or counter id", nil, nil)
		return
	}

	if final == StatusComplete {
		err = ctl.serving.Complete(c.Request.Context(), req.TicketID, stationID, counterID)
	} else {
		err = ctl.serving.Skip(c.Request.Context(), req.TicketID, stationID, counterID)
	}
	if err != nil {
		status, msg := servingFailure(err)
		response.RespondJSON(c, "error", status, msg, nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "ticket closed", nil, nil)
}

func parseIDs(station, counter string) (uuid.UUID, uuid.UUID, error) {
	stationID, err := uuid.Parse(station)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	counterID, err := uuid.Parse(counter)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return stationID, counterID, nil
}

// joinFailure maps join errors onto the HTTP surface. Blacklist and
// inactive-station rejections are forbidden; a duplicate live ticket
// is a bad request the customer can understand.
func joinFailure(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBlacklisted), errors.Is(err, ErrStationInactive):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, ErrDuplicateTicket):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, stations.ErrStationNotFound):
		return http.StatusNotFound, err.Error()
	case isTokenError(err):
		return http.StatusUnauthorized, err.Error()
	default:
		return http.StatusInternalServerError, "failed to join queue"
	}
}

func queueFailure(err error) (int, string) {
	switch {
	case errors.Is(err, ErrTicketNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, ErrTicketNotLeavable):
		return http.StatusConflict, err.Error()
	case isTokenError(err):
		return http.StatusUnauthorized, err.Error()
	default:
		return http.StatusInternalServerError, "queue operation failed"
	}
}

func servingFailure(err error) (int, string) {
	switch {
	case errors.Is(err, ErrCounterBusy), errors.Is(err, ErrNoPendingTickets):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrTicketNotServing), errors.Is(err, ErrTicketNotFound),
		errors.Is(err, stations.ErrCounterNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, ErrCounterUnbound):
		return http.StatusForbidden, err.Error()
	default:
		return http.StatusInternalServerError, "serving operation failed"
	}
}

func isTokenError(err error) bool {
	return errors.Is(err, tokens.ErrTokenExpired) ||
		errors.Is(err, tokens.ErrTokenInvalid) ||
		errors.Is(err, tokens.ErrWrongTokenType) ||
		errors.Is(err, tokens.ErrTokenAlreadyUsed)
}
