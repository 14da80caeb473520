package routes

import (
	"hardware-request-system/internal/controllers"
	"hardware-request-system/pkg/middleware"

	"github.com/labstack/echo/v4"
)

func runHardwareRouter(secureGroup *echo.Group, hardwareCtrl *controllers.HardwareController, authMW *middleware.AuthMiddleware) {
	hardware := secureGroup.Group("/hardware", authMW.RequireAdmin)
	{
		hardware.GET("", hardwareCtrl.GetAll)
		hardware.POST("", hardwareCtrl.Create)
		hardware.POST("/import", hardwareCtrl.Import)
	}
}
