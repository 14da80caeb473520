package routes

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"hardware-request-system/internal/controllers"
	"hardware-request-system/internal/listeners"
	"hardware-request-system/internal/repositories"
	"hardware-request-system/internal/services"
	"hardware-request-system/pkg/config"
	"hardware-request-system/pkg/eventbus"
	"hardware-request-system/pkg/metrics"
	"hardware-request-system/pkg/middleware"
	"hardware-request-system/pkg/service"
	"hardware-request-system/pkg/websocket"
)

type Loggers struct {
	Main     *zap.Logger
	Auth     *zap.Logger
	Request  *zap.Logger
	Hardware *zap.Logger
}

// Repositories - набор хранилищ. Postgres и in-memory реализации взаимозаменяемы.
type Repositories struct {
	TxManager repositories.TxManagerInterface
	Users     repositories.UserRepositoryInterface
	Hardware  repositories.HardwareRepositoryInterface
	Requests  repositories.RequestRepositoryInterface
	History   repositories.RequestHistoryRepositoryInterface
	Cache     repositories.CacheRepositoryInterface
}

type Dependencies struct {
	Repos     Repositories
	JWT       service.JWTService
	Bus       *eventbus.Bus
	Hub       *websocket.Hub
	Metrics   *metrics.Metrics
	Validator *validator.Validate
	Loggers   *Loggers
	Cfg       *config.Config
}

func InitRouter(e *echo.Echo, deps Dependencies) {
	loggers := deps.Loggers
	loggers.Main.Info("InitRouter: Начало создания маршрутов")

	// --- 1. ОБЩИЕ КОМПОНЕНТЫ ---
	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(deps.JWT, loggers.Auth)

	// --- 2. СЕРВИСЫ ---
	authService := services.NewAuthService(deps.Repos.Users, deps.Repos.Cache, deps.JWT, loggers.Auth, &deps.Cfg.Auth)
	hardwareService := services.NewHardwareService(deps.Repos.Hardware, deps.Validator, loggers.Hardware)
	requestService := services.NewRequestService(
		deps.Repos.TxManager,
		deps.Repos.Requests,
		deps.Repos.Hardware,
		deps.Repos.History,
		deps.Bus,
		deps.Metrics,
		loggers.Request,
	)

	// --- 3. СЛУШАТЕЛИ ---
	listeners.NewNotificationListener(deps.Hub, loggers.Main).Register(deps.Bus)

	// --- 4. КОНТРОЛЛЕРЫ ---
	authController := controllers.NewAuthController(authService, loggers.Auth)
	hardwareController := controllers.NewHardwareController(hardwareService, loggers.Hardware)
	requestController := controllers.NewRequestController(requestService, loggers.Request)
	wsController := controllers.NewWebSocketController(deps.Hub, deps.Cfg.Server.AllowedOrigins, loggers.Main)

	// --- 5. РОУТЕРЫ ---
	secureGroup := api.Group("", authMW.Auth)

	runAuthRouter(api, secureGroup, authController)
	runRequestRouter(secureGroup, requestController, hardwareController, authMW)
	runHardwareRouter(secureGroup, hardwareController, authMW)
	runWebSocketRouter(api, wsController, authMW)

	loggers.Main.Info("InitRouter: Создание маршрутов завершено")
}
