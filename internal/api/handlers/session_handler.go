package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/futureself/internal/services"
	"github.com/yoockh/futureself/internal/session"
)

type SessionHandler struct {
	svc   services.UserService
	store *session.Store
}

func NewSessionHandler(svc services.UserService, store *session.Store) *SessionHandler {
	return &SessionHandler{svc: svc, store: store}
}

type InitSessionRequest struct {
	AnonymousUserID string `json:"anonymous_user_id"`
}

// Init is public: it registers (or resumes) an anonymous user and hands
// back a bearer token.
func (h *SessionHandler) Init(c *gin.Context) {
	var req InitSessionRequest
	if c.Request.ContentLength != 0 {
		if !bindJSON(c, "SessionHandler.Init", &req) {
			return
		}
	}

	info, err := h.svc.Init(c.Request.Context(), req.AnonymousUserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *SessionHandler) Me(c *gin.Context) {
	sess, ok := requireSession(c, h.store)
	if !ok {
		return
	}

	info, err := h.svc.Me(c.Request.Context(), sess)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}
