package router

import (
	"context"

	"joa_realtime/internal/relay/app"
	"joa_realtime/pkg/config"
	"joa_realtime/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes 注册 relay 的路由
// @title JoA Relay API
// @version 1.0
// @description Chat relay for JoA rooms, REST history and room endpoints
// @host localhost:8080
// @BasePath /
func RegisterRoutes(
	ctx context.Context,
	r *fiber.App,
	cfg config.Relay,
	gatherer prometheus.Gatherer,
	chatWebsocket *app.ChatWebsocketHandler,
	rest *app.RESTHandler,
) {
	r.Get("/", app.ConnectCheck)
	r.Post("/debug", app.DebugLogFlag)
	r.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	r.Get("/swagger/*", swagger.HandlerDefault)

	if !config.IsProduction() {
		r.Post("/dev/tokens", rest.IssueToken)
	}

	wsHandlers := []fiber.Handler{upgradeOnly}
	joa := r.Group("/joa")
	if cfg.RequireToken {
		wsHandlers = append(wsHandlers, middlewares.JWTMiddleware())
		joa.Use(middlewares.JWTMiddleware())
	}
	wsHandlers = append(wsHandlers, websocket.New(func(c *websocket.Conn) {
		chatWebsocket.HandleConnection(ctx, c)
	}))
	r.Get("/ws", wsHandlers...)

	joa.Get("/room-in-members", rest.ListRooms)
	joa.Get("/room-in-members/chatting-page", rest.ChattingPage)
	joa.Patch("/room-in-members/out", rest.LeaveRoom)
	joa.Post("/room-in-members/result", rest.Vote)
	joa.Get("/messages", rest.Messages)
	joa.Get("/rooms/:roomId", rest.CheckRoom)
	joa.Patch("/rooms/:roomId", rest.ExtendRoom)
}

func upgradeOnly(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}
