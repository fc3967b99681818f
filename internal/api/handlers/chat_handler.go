package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/futureself/internal/services"
	"github.com/yoockh/futureself/internal/utils"
)

type ChatHandler struct {
	svc services.ChatService
}

func NewChatHandler(svc services.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

func (h *ChatHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	v, err := h.svc.Load(c.Request.Context(), userID, c.Param("thread_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

func (h *ChatHandler) Send(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChatHandler.Send", "invalid request body", err))
		return
	}

	v, err := h.svc.Send(c.Request.Context(), userID, c.Param("thread_id"), req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *ChatHandler) GenerateReport(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	v, err := h.svc.GenerateReport(c.Request.Context(), userID, c.Param("thread_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}
