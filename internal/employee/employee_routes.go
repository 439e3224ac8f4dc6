package employee

import (
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, logger *zap.Logger) {
	employees := r.Group("/employees")
	employees.Use(middleware.ContextLogger(logger))
	{
		employees.GET("", middleware.RateLimitByIP(3, 10), handler.GetAll)

		// Registered before /:id so gin matches the static segment first.
		employees.GET("/options", middleware.RateLimitByIP(5, 20), handler.GetOptions)

		employees.GET("/:id", middleware.RateLimitByIP(3, 10), handler.GetById)
		employees.GET("/:id/balance", middleware.RateLimitByIP(3, 10), handler.GetLeaveBalance)

		employees.POST("", middleware.RateLimitByIP(1, 5), handler.Create)
		employees.PUT("/:id", middleware.RateLimitByIP(1, 5), handler.Update)
	}
}
