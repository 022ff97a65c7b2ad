package handlers

import (
	"errors"
	"net/http"

	"go-erp-agent/internal/ai"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AIHandler struct {
	agent *ai.Agent
	log   *zap.Logger
}

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *AIHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Message is required")
		return
	}

	if h.agent == nil || !h.agent.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ai.ErrDisabled.Error()})
		return
	}

	response, err := h.agent.Ask(c.Request.Context(), actor(c), req.Message)
	if errors.Is(err, ai.ErrDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.log.Error("assistant failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "The assistant could not answer right now"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": response})
}
