package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/futureself/internal/api/middleware"
)

// NewEngine builds the gin engine with recovery, request logging and CORS.
// An empty origin list allows any origin.
func NewEngine(l *logrus.Logger, origins []string) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(l, "/ping", "/metrics"))

	corsConfig := cors.DefaultConfig()
	if len(origins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-Id"}
	corsConfig.ExposeHeaders = []string{"X-Request-Id"}
	corsConfig.AllowWebSockets = true
	engine.Use(cors.New(corsConfig))

	return engine
}
