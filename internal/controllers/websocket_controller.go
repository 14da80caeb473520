package controllers

import (
	"net/http"

	"hardware-request-system/pkg/utils"
	appwebsocket "hardware-request-system/pkg/websocket"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type WebSocketController struct {
	hub      *appwebsocket.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// allowedOrigins пустой - принимаем любой Origin.
func NewWebSocketController(hub *appwebsocket.Hub, allowedOrigins []string, logger *zap.Logger) *WebSocketController {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return &WebSocketController{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
		logger: logger,
	}
}

// ServeWs ожидает, что claims уже положены в контекст (QueryTokenAuth).
func (c *WebSocketController) ServeWs(ctx echo.Context) error {
	claims, err := utils.GetClaimsFromContext(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	conn, err := c.upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		c.logger.Warn("WebSocket: не удалось установить соединение", zap.Error(err))
		return nil
	}

	client := appwebsocket.NewClient(c.hub, conn, claims.UserID, claims.Role)
	c.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	c.logger.Info("WebSocket: клиент подключен", zap.Uint64("userID", claims.UserID))
	return nil
}
