package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/futureself/internal/models"
	"github.com/yoockh/futureself/internal/session"
	"github.com/yoockh/futureself/internal/utils"
)

// Context keys set by the auth middleware.
const (
	CtxUserID = "user_id"
	CtxStatus = "status"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:    ae.Code,
			Message: ae.Message,
		})
		return
	}

	_ = c.Error(err)
	c.JSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	})
}

func requireUserID(c *gin.Context) (string, bool) {
	if v, ok := c.Get(CtxUserID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}

	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "unauthorized", nil))
	return "", false
}

// claimStatus is the onboarding status carried by the bearer token.
func claimStatus(c *gin.Context) models.OnboardingStatus {
	v, _ := c.Get(CtxStatus)
	s, _ := v.(models.OnboardingStatus)
	return s
}

// requireSession binds the status store to the authenticated user.
func requireSession(c *gin.Context, store *session.Store) (session.Session, bool) {
	userID, ok := requireUserID(c)
	if !ok {
		return nil, false
	}
	return store.For(userID, claimStatus(c)), true
}

func bindJSON(c *gin.Context, op string, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return false
	}
	return true
}
