package http

import (
	stdhttp "net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/classes-lms/roomchat/internal/auth"
	"github.com/classes-lms/roomchat/internal/config"
	"github.com/classes-lms/roomchat/internal/core"
)

// NewServer builds the HTTP server: health, room sockets and the REST API.
// Room sockets bypass gin, whose response writer cannot be hijacked once headers are out.
func NewServer(chat *core.Chat, authService *auth.Service, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	engine := newEngine(chat, authService, logger)

	prefix := "/" + strings.Trim(cfg.WSPrefix, "/")
	mux := stdhttp.NewServeMux()
	mux.Handle(prefix+"/", NewWSHandler(chat, prefix, cfg, logger))
	mux.Handle("/", engine)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func newEngine(chat *core.Chat, authService *auth.Service, logger *zerolog.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), LoggerMiddleware(logger))

	engine.GET("/health", healthHandler)

	rooms := NewRoomHandlers(chat, logger)
	apiHandlers := NewAPIHandlers(authService, logger)
	users := NewUserHandlers(authService, logger)

	api := engine.Group("/api")
	api.POST("/register", apiHandlers.Register)
	api.POST("/login", apiHandlers.Login)
	api.GET("/rooms", rooms.ListRooms)
	api.POST("/rooms", rooms.CreateRoom)
	api.GET("/rooms/:room/messages", rooms.History)
	api.GET("/users/:username", users.GetUser)

	authed := api.Group("", AuthMiddleware(authService, logger))
	authed.GET("/me", apiHandlers.Me)

	return engine
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
