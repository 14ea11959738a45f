package tokens

import (
	"net/http"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"campusq/internal/shared/utils/response"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// IssuePermissionRequest carries the station a permission token is scoped to
type IssuePermissionRequest struct {
	StationID string `json:"station_id" binding:"required,uuid"`
}

// IssuePermission handles POST /tokens/permission (staff only).
// The token proves physical presence: staff hand it to the customer at
// the counter, typically as a QR code.
func (ctl *Controller) IssuePermission(c *gin.Context) {
	var req IssuePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	token, err := ctl.service.IssuePermission(req.StationID)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "failed to issue permission token", nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "permission token issued", gin.H{
		"permission_token": token,
	}, nil)
}

// PermissionQR handles GET /tokens/permission/qr?station_id= (staff only).
// Responds with a PNG QR code encoding a freshly minted permission token.
func (ctl *Controller) PermissionQR(c *gin.Context) {
	stationID := c.Query("station_id")
	if stationID == "" {
		response.RespondJSON(c, "error", http.StatusBadRequest, "station_id is required", nil, nil)
		return
	}

	token, err := ctl.service.IssuePermission(stationID)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "failed to issue permission token", nil, nil)
		return
	}

	png, err := qrcode.Encode(token, qrcode.Medium, 256)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "failed to encode QR code", nil, nil)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// ExchangeQueueForm handles POST /tokens/queue-form. The permission
// token in the Authorization header is consumed; the response carries
// the queue-form token authorizing one join submission.
func (ctl *Controller) ExchangeQueueForm(c *gin.Context) {
	raw, ok := bearerToken(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "authorization header format must be Bearer {token}", nil, nil)
		return
	}

	formToken, err := ctl.service.ExchangeForQueueForm(c.Request.Context(), raw)
	if err != nil {
		status, msg := authFailure(err)
		response.RespondJSON(c, "error", status, msg, nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "queue form token issued", gin.H{
		"queue_form_token": formToken,
	}, nil)
}
