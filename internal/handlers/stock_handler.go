package handlers

import (
	"context"
	"net/http"

	"go-erp-agent/internal/models"
	"go-erp-agent/internal/services"

	"github.com/gin-gonic/gin"
)

type StockHandler struct {
	stock *services.StockService
}

type stockOp func(ctx context.Context, actor services.Actor, req services.StockRequest) (*models.StockMovement, error)

func (h *StockHandler) In(c *gin.Context) {
	h.move(c, h.stock.StockIn)
}

// Out answers 409 with the available quantity when stock is short.
func (h *StockHandler) Out(c *gin.Context) {
	h.move(c, h.stock.StockOut)
}

func (h *StockHandler) move(c *gin.Context, op stockOp) {
	var req services.StockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	m, err := op(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *StockHandler) Movements(c *gin.Context) {
	c.JSON(http.StatusOK, h.stock.ListMovements(c.Request.Context(), services.MovementFilter{
		ProductID: c.Query("product_id"),
		Type:      c.Query("type"),
	}))
}

func (h *StockHandler) LowStock(c *gin.Context) {
	c.JSON(http.StatusOK, h.stock.LowStock(c.Request.Context()))
}
