// Файл: main.go

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"hardware-request-system/internal/routes"
	"hardware-request-system/pkg/config"
	"hardware-request-system/pkg/customvalidator"
	"hardware-request-system/pkg/eventbus"
	applogger "hardware-request-system/pkg/logger"
	"hardware-request-system/pkg/metrics"
	appmiddleware "hardware-request-system/pkg/middleware"
	"hardware-request-system/pkg/service"
	"hardware-request-system/pkg/utils"
	"hardware-request-system/pkg/websocket"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Конфиг и логгер
	cfg := config.New()
	logger := applogger.NewLogger(cfg.Log.Level, cfg.Log.File)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Хранилища
	repos, closeStorage, err := openStorage(ctx, cfg, logger)
	defer closeStorage()
	if err != nil {
		logger.Fatal("Ошибка инициализации хранилища", zap.Error(err))
	}

	// 3. Echo и middleware
	e := echo.New()
	e.HideBanner = true

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(reg)

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("!!! ОБНАРУЖЕНА ПАНИКА (PANIC) !!!",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				_ = utils.ErrorResponse(c, err, logger)
			}
			return err
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		ExposeHeaders:    []string{echo.HeaderContentDisposition},
	}))
	e.Use(appmiddleware.RequestLogger(logger))
	e.Use(appmiddleware.Metrics(appMetrics))

	v := validator.New()
	if err := customvalidator.RegisterCustomValidations(v); err != nil {
		logger.Fatal("Ошибка регистрации кастомных правил валидации", zap.Error(err))
	}
	e.Validator = utils.NewValidator(v)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	// 4. Шина событий, websocket и роуты
	bus := eventbus.New(logger.Named("eventbus"))
	hub := websocket.NewHub(logger.Named("websocket"))
	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, logger.Named("jwt"))

	routes.InitRouter(e, routes.Dependencies{
		Repos:     repos,
		JWT:       jwtSvc,
		Bus:       bus,
		Hub:       hub,
		Metrics:   appMetrics,
		Validator: v,
		Loggers: &routes.Loggers{
			Main:     logger,
			Auth:     logger.Named("auth"),
			Request:  logger.Named("request"),
			Hardware: logger.Named("hardware"),
		},
		Cfg: cfg,
	})

	// 5. Запуск
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("🚀 Сервер запущен", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Storage.Driver))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Остановка сервера...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Сервер остановлен с ошибкой", zap.Error(err))
	}
	bus.Wait()
	logger.Info("Сервер остановлен")
}
