package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	apierrors "github.com/taskify-dev/taskify-api/internal/errors"
	"github.com/taskify-dev/taskify-api/internal/services"
)

const sessionKeyLastIntent = "chat_last_intent"

// ChatbotHandler serves the in-app assistant.
type ChatbotHandler struct {
	responder services.Responder
}

// NewChatbotHandler creates a new ChatbotHandler.
func NewChatbotHandler(responder services.Responder) *ChatbotHandler {
	return &ChatbotHandler{
		responder: responder,
	}
}

// Message answers one chat message. The detected intent is kept in the
// session so follow-up questions stay in context.
func (h *ChatbotHandler) Message(c *gin.Context) {
	type MessageRequest struct {
		Message string `json:"message" binding:"required"`
	}

	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	session := sessions.Default(c)
	lastIntent, _ := session.Get(sessionKeyLastIntent).(string)

	reply, err := h.responder.Respond(c.Request.Context(), services.ChatInput{
		Message:    req.Message,
		LastIntent: lastIntent,
	})
	if err != nil {
		apierrors.Upstream(c, "Assistant is unavailable")
		return
	}

	session.Set(sessionKeyLastIntent, reply.Intent)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.JSON(http.StatusOK, reply)
}
