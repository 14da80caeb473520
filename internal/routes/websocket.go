package routes

import (
	"hardware-request-system/internal/controllers"
	"hardware-request-system/pkg/middleware"

	"github.com/labstack/echo/v4"
)

func runWebSocketRouter(api *echo.Group, wsCtrl *controllers.WebSocketController, authMW *middleware.AuthMiddleware) {
	api.GET("/ws", wsCtrl.ServeWs, authMW.QueryTokenAuth)
}
