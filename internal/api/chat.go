package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	UserID    uint   `json:"user_id" binding:"required,gt=0"`
	Text      string `json:"text" binding:"required,min=1,max=500"`
	SessionID string `json:"session_id" binding:"max=100"`
}

// Chat processes one user message
func (a *API) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message text cannot be empty"})
		return
	}
	if !a.allow(req.UserID) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many messages, slow down"})
		return
	}

	resp := a.ChatService.HandleMessage(c.Request.Context(), req.UserID, text)
	if id := c.GetString("request_id"); id != "" {
		resp.Metadata["request_id"] = id
	}
	c.JSON(http.StatusOK, resp)
}
