package tickets

import (
	"github.com/gin-gonic/gin"

	"campusq/internal/shared/middleware"
	"campusq/internal/tokens"
)

func SetupQueueRoutes(rg *gin.RouterGroup, controller *Controller, tokenService tokens.Service) {
	// Customer queue flow, authorized by the token chain
	queue := rg.Group("/queue")
	{
		queue.POST("/join", tokens.Auth(tokenService, tokens.TypeQueueForm), controller.Join)
		queue.GET("/position", tokens.Auth(tokenService, tokens.TypeQueueStatus), controller.Position)
		queue.POST("/leave", tokens.Auth(tokenService, tokens.TypeQueueStatus), controller.Leave)
	}

	// Cashier serving flow, authorized by staff JWT
	serving := rg.Group("/serving")
	serving.Use(middleware.JWTAuth(), middleware.RequireRoles(middleware.RoleCashier, middleware.RoleAdmin))
	{
		serving.POST("/claim", controller.Claim)       // POST /api/v1/serving/claim
		serving.POST("/complete", controller.Complete) // POST /api/v1/serving/complete
		serving.POST("/skip", controller.Skip)         // POST /api/v1/serving/skip
	}
}
