package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/yoockh/futureself/internal/questionnaire"
	"github.com/yoockh/futureself/internal/services"
	"github.com/yoockh/futureself/internal/session"
	"github.com/yoockh/futureself/internal/utils"
)

type ProfileHandler struct {
	svc   services.ProfileService
	store *session.Store
}

func NewProfileHandler(svc services.ProfileService, store *session.Store) *ProfileHandler {
	return &ProfileHandler{svc: svc, store: store}
}

func (h *ProfileHandler) CreateFuture(c *gin.Context) {
	sess, ok := requireSession(c, h.store)
	if !ok {
		return
	}

	var req questionnaire.FutureProfilesForm
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			c.JSON(http.StatusOK, services.FutureProfileScreen{Errors: questionnaire.FutureProfileMessages(verrs)})
			return
		}
		writeError(c, utils.E(utils.CodeInvalidArgument, "ProfileHandler.CreateFuture", "invalid request body", err))
		return
	}

	out, err := h.svc.CreateFuture(c.Request.Context(), sess, req.Profiles)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
