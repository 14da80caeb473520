package routes

import (
	"hardware-request-system/internal/controllers"

	"github.com/labstack/echo/v4"
)

func runAuthRouter(api *echo.Group, secureGroup *echo.Group, authCtrl *controllers.AuthController) {
	users := api.Group("/users")
	{
		users.POST("/signup", authCtrl.Signup)
		users.POST("/login", authCtrl.Login)
	}
	secureGroup.GET("/users/me", authCtrl.Me)
}
