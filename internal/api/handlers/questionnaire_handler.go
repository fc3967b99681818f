package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/futureself/internal/models"
	"github.com/yoockh/futureself/internal/questionnaire"
	"github.com/yoockh/futureself/internal/services"
	"github.com/yoockh/futureself/internal/session"
)

// QuestionnaireHandler serves the onboarding wizard. Every action answers
// with the full screen model.
type QuestionnaireHandler struct {
	svc   services.QuestionnaireService
	store *session.Store
}

func NewQuestionnaireHandler(svc services.QuestionnaireService, store *session.Store) *QuestionnaireHandler {
	return &QuestionnaireHandler{svc: svc, store: store}
}

func (h *QuestionnaireHandler) Get(c *gin.Context) {
	sess, ok := requireSession(c, h.store)
	if !ok {
		return
	}
	h.respond(c)(h.svc.Screen(c.Request.Context(), sess))
}

func (h *QuestionnaireHandler) PutDemographics(c *gin.Context) {
	sess, ok := requireSession(c, h.store)
	if !ok {
		return
	}
	var req models.DemographicProfile
	if !bindJSON(c, "QuestionnaireHandler.PutDemographics", &req) {
		return
	}
	h.respond(c)(h.svc.SetDemographics(c.Request.Context(), sess, req))
}

type ToggleInterestRequest struct {
	Tag string `json:"tag" binding:"required"`
}

func (h *QuestionnaireHandler) ToggleInterest(c *gin.Context) {
	sess, ok := requireSession(c, h.store)
	if !ok {
		return
	}
	var req ToggleInterestRequest
	if !bindJSON(c, "QuestionnaireHandler.ToggleInterest", &req) {
		return
	}
	h.respond(c)(h.svc.ToggleInterest(c.Request.Context(), sess, req.Tag))
}

func (h *QuestionnaireHandler) PutValues(c *gin.Context) {
	sess, ok := requireSession(c, h.store)
	if !ok {
		return
	}
	var req models.ValuesProfile
	if !bindJSON(c, "QuestionnaireHandler.PutValues", &req) {
		return
	}
	h.respond(c)(h.svc.SetValues(c.Request.Context(), sess, req))
}

func (h *QuestionnaireHandler) PutPersonality(c *gin.Context) {
	sess, ok := requireSession(c, h.store)
	if !ok {
		return
	}
	var req models.PersonalityProfile
	if !bindJSON(c, "QuestionnaireHandler.PutPersonality", &req) {
		return
	}
	h.respond(c)(h.svc.SetPersonality(c.Request.Context(), sess, req))
}

func (h *QuestionnaireHandler) Next(c *gin.Context) {
	sess, ok := requireSession(c, h.store)
	if !ok {
		return
	}
	h.respond(c)(h.svc.Next(c.Request.Context(), sess))
}

func (h *QuestionnaireHandler) Back(c *gin.Context) {
	sess, ok := requireSession(c, h.store)
	if !ok {
		return
	}
	h.respond(c)(h.svc.Back(c.Request.Context(), sess))
}

func (h *QuestionnaireHandler) Submit(c *gin.Context) {
	sess, ok := requireSession(c, h.store)
	if !ok {
		return
	}
	h.respond(c)(h.svc.Submit(c.Request.Context(), sess))
}

func (h *QuestionnaireHandler) respond(c *gin.Context) func(*questionnaire.Screen, error) {
	return func(s *questionnaire.Screen, err error) {
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}
