package stations

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"campusq/internal/shared/utils/response"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// ListAvailable handles GET /stations?purpose= (public).
// Customers browse this before asking staff for a permission token.
func (ctl *Controller) ListAvailable(c *gin.Context) {
	purpose := Purpose(c.Query("purpose"))
	if !purpose.IsValid() {
		response.RespondJSON(c, "error", http.StatusBadRequest, "purpose must be one of payment, clinic, registrar, guidance", nil, nil)
		return
	}

	stations, err := ctl.service.AvailableStations(c.Request.Context(), purpose)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "failed to list stations", nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "stations retrieved", gin.H{
		"stations": toStationResponses(stations),
	}, nil)
}

// Display handles GET /stations/:id/display (public). Display boards
// poll this endpoint and re-render when the version changes.
func (ctl *Controller) Display(c *gin.Context) {
	stationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid station id", nil, nil)
		return
	}

	serving, version, err := ctl.service.DisplayServing(c.Request.Context(), stationID)
	if err != nil {
		if errors.Is(err, ErrStationNotFound) {
			response.RespondJSON(c, "error", http.StatusNotFound, "station not found", nil, nil)
			return
		}
		response.RespondJSON(c, "error", http.StatusInternalServerError, "failed to load display board", nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "display board retrieved", DisplayResponse{
		StationID: stationID,
		Version:   version,
		Serving:   serving,
	}, nil)
}

// Create handles POST /stations (admin)
func (ctl *Controller) Create(c *gin.Context) {
	var req CreateStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	station, err := ctl.service.CreateStation(c.Request.Context(), req.Name, Purpose(req.Purpose))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "failed to create station", nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "station created", toStationResponse(*station), nil)
}

// Activate handles POST /stations/:id/activate (admin)
func (ctl *Controller) Activate(c *gin.Context) {
	stationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid station id", nil, nil)
		return
	}

	if err := ctl.service.Activate(c.Request.Context(), stationID); err != nil {
		status, msg := directoryFailure(err, "failed to activate station")
		response.RespondJSON(c, "error", status, msg, nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "station activated", nil, nil)
}

// Deactivate handles POST /stations/:id/deactivate (admin)
func (ctl *Controller) Deactivate(c *gin.Context) {
	stationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid station id", nil, nil)
		return
	}

	if err := ctl.service.Deactivate(c.Request.Context(), stationID); err != nil {
		status, msg := directoryFailure(err, "failed to deactivate station")
		response.RespondJSON(c, "error", status, msg, nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "station deactivated", nil, nil)
}

// CreateCounter handles POST /stations/:id/counters (admin)
func (ctl *Controller) CreateCounter(c *gin.Context) {
	stationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid station id", nil, nil)
		return
	}

	var req CreateCounterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	counter, err := ctl.service.CreateCounter(c.Request.Context(), stationID, req.Number)
	if err != nil {
		status, msg := directoryFailure(err, "failed to create counter")
		response.RespondJSON(c, "error", status, msg, nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "counter created", toCounterResponse(*counter), nil)
}

// BindCashier handles POST /counters/:id/bind (admin)
func (ctl *Controller) BindCashier(c *gin.Context) {
	counterID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid counter id", nil, nil)
		return
	}

	var req BindCashierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	if err := ctl.service.BindCashier(c.Request.Context(), counterID, req.CashierUID); err != nil {
		status, msg := directoryFailure(err, "failed to bind cashier")
		response.RespondJSON(c, "error", status, msg, nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "cashier bound to counter", nil, nil)
}

// UnbindCashier handles POST /counters/:id/unbind (admin)
func (ctl *Controller) UnbindCashier(c *gin.Context) {
	counterID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid counter id", nil, nil)
		return
	}

	if err := ctl.service.UnbindCashier(c.Request.Context(), counterID); err != nil {
		status, msg := directoryFailure(err, "failed to unbind cashier")
		response.RespondJSON(c, "error", status, msg, nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "cashier unbound from counter", nil, nil)
}

// directoryFailure maps directory errors to HTTP status codes
func directoryFailure(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, ErrStationNotFound), errors.Is(err, ErrCounterNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, ErrStationNotActivatable),
		errors.Is(err, ErrStationServing),
		errors.Is(err, ErrCounterNumberTaken),
		errors.Is(err, ErrCashierAlreadyBound):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, fallback
	}
}
