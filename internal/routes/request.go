package routes

import (
	"hardware-request-system/internal/controllers"
	"hardware-request-system/pkg/middleware"

	"github.com/labstack/echo/v4"
)

func runRequestRouter(
	secureGroup *echo.Group,
	requestCtrl *controllers.RequestController,
	hardwareCtrl *controllers.HardwareController,
	authMW *middleware.AuthMiddleware,
) {
	requests := secureGroup.Group("/requests")
	{
		requests.GET("/hardware", hardwareCtrl.GetAvailable)
		requests.POST("", requestCtrl.Create)
		requests.GET("/user", requestCtrl.GetOwn)
		requests.GET("/:id/history", requestCtrl.GetHistory)

		requests.GET("", requestCtrl.GetAll, authMW.RequireAdmin)
		requests.PUT("/:id", requestCtrl.UpdateStatus, authMW.RequireAdmin)
		requests.DELETE("/:id", requestCtrl.Delete, authMW.RequireAdmin)
		requests.POST("/assign", requestCtrl.Assign, authMW.RequireAdmin)
		requests.POST("/detach", requestCtrl.Detach, authMW.RequireAdmin)
	}
}
