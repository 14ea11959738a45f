package stations

import (
	"github.com/gin-gonic/gin"

	"campusq/internal/shared/middleware"
)

func SetupStationRoutes(rg *gin.RouterGroup, controller *Controller) {
	// Public directory and display-board routes
	public := rg.Group("/stations")
	{
		public.GET("", controller.ListAvailable)         // GET /api/v1/stations?purpose=
		public.GET("/:id/display", controller.Display)   // GET /api/v1/stations/:id/display
	}

	// Directory maintenance, admin only
	admin := rg.Group("/stations")
	admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		admin.POST("", controller.Create)                     // POST /api/v1/stations
		admin.POST("/:id/activate", controller.Activate)      // POST /api/v1/stations/:id/activate
		admin.POST("/:id/deactivate", controller.Deactivate)  // POST /api/v1/stations/:id/deactivate
		admin.POST("/:id/counters", controller.CreateCounter) // POST /api/v1/stations/:id/counters
	}

	counters := rg.Group("/counters")
	counters.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		counters.POST("/:id/bind", controller.BindCashier)     // POST /api/v1/counters/:id/bind
		counters.POST("/:id/unbind", controller.UnbindCashier) // POST /api/v1/counters/:id/unbind
	}
}
