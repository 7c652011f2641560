package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	ginlog "github.com/gin-contrib/logger"
)

func SetupRouter() *gin.Engine {
	r := gin.New()

	// Recovery and request logging run before any handler
	r.Use(gin.Recovery())
	r.Use(ginlog.SetLogger(
		ginlog.WithLogger(func(_ *gin.Context, l zerolog.Logger) zerolog.Logger {
			return l.With().Str("service", "routie-roo").Logger()
		}),
	))

	AuthRoutes(r)
	RouteRoutes(r)
	WaypointRoutes(r)
	PublicRoutes(r)

	return r
}
