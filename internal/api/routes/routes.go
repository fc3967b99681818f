package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/futureself/internal/api/handlers"
	"github.com/yoockh/futureself/internal/api/middleware"
	"github.com/yoockh/futureself/internal/models"
	"github.com/yoockh/futureself/internal/session"
)

type Deps struct {
	Tokens   *session.Issuer
	Statuses *session.Store

	Session       *handlers.SessionHandler
	Questionnaire *handlers.QuestionnaireHandler
	Profile       *handlers.ProfileHandler
	Chat          *handlers.ChatHandler
	Report        *handlers.ReportHandler
	WS            *handlers.WSHandler

	// Metrics serves /metrics when set.
	Metrics http.Handler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	r.POST("/session/init", d.Session.Init)

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth(d.Tokens))

	auth.GET("/session/me", d.Session.Me)

	// questionnaire screens answer with a closed screen outside onboarding
	q := auth.Group("/questionnaire")
	q.GET("", d.Questionnaire.Get)
	q.PUT("/demographics", d.Questionnaire.PutDemographics)
	q.POST("/interests/toggle", d.Questionnaire.ToggleInterest)
	q.PUT("/values", d.Questionnaire.PutValues)
	q.PUT("/personality", d.Questionnaire.PutPersonality)
	q.POST("/next", d.Questionnaire.Next)
	q.POST("/back", d.Questionnaire.Back)
	q.POST("/submit", d.Questionnaire.Submit)

	future := auth.Group("/profile")
	future.Use(middleware.RequireStatus(d.Statuses, models.StatusFutureProfile))
	future.POST("/future", d.Profile.CreateFuture)

	active := auth.Group("/")
	active.Use(middleware.RequireStatus(d.Statuses, models.StatusActive))

	active.GET("/chat/:thread_id", d.Chat.Get)
	active.POST("/chat/:thread_id/messages", d.Chat.Send)
	active.POST("/chat/:thread_id/report", d.Chat.GenerateReport)

	active.GET("/report/status", d.Report.Status)
	active.GET("/report/latest", d.Report.Latest)

	// WebSocket
	active.GET("/ws/chat/:thread_id", d.WS.ChatWS)
	active.GET("/ws/report", d.WS.ReportWS)
}
