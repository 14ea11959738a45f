package tokens

import (
	"github.com/gin-gonic/gin"
)

// SetupTokenRoutes registers the token chain endpoints.
// staffAuth guards the staff-issued permission endpoints; the exchange
// endpoint is anonymous and authenticated by the permission token itself.
func SetupTokenRoutes(rg *gin.RouterGroup, controller *Controller, staffAuth ...gin.HandlerFunc) {
	group := rg.Group("/tokens")
	{
		staff := group.Group("/permission")
		staff.Use(staffAuth...)
		{
			staff.POST("", controller.IssuePermission)
			staff.GET("/qr", controller.PermissionQR)
		}

		group.POST("/queue-form", controller.ExchangeQueueForm)
	}
}
