package server

import (
	"github.com/Baaaki/message-board/internal/handler"
	"github.com/Baaaki/message-board/internal/middleware"
	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the router wires. RateLimiter and WebSocket are optional.
type Deps struct {
	IsProduction bool
	CORSOrigins  []string
	Messages     *handler.MessageHandler
	General      *handler.GeneralHandler
	WebSocket    *handler.WebSocketHandler
	RateLimiter  *middleware.RateLimiter
}

// NewRouter builds the gin engine with the full middleware chain
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()

	// The request logger sits outside recovery so panicking requests still get their 500 entry
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.Recovery(deps.IsProduction),
		middleware.SecurityHeadersMiddleware(),
		middleware.HSTSMiddleware(deps.IsProduction),
		middleware.CORS(deps.CORSOrigins),
	)
	if deps.RateLimiter != nil {
		router.Use(deps.RateLimiter.Middleware())
	}
	router.Use(middleware.ErrorHandler(deps.IsProduction))

	router.GET("/", deps.General.Root)

	api := router.Group("/api")
	{
		api.GET("/hello", deps.General.Hello)
		api.GET("/time", deps.General.Time)
		api.GET("/info", deps.General.Info)

		messages := api.Group("/messages")
		messages.GET("", deps.Messages.List)
		messages.GET("/:id", deps.Messages.Get)
		messages.POST("", deps.Messages.Create)
		messages.PUT("/:id", deps.Messages.Update)
		messages.DELETE("/:id", deps.Messages.Delete)

		if deps.WebSocket != nil {
			api.GET("/ws", deps.WebSocket.HandleWebSocket)
		}
	}

	router.NoRoute(middleware.NotFound())

	return router
}
