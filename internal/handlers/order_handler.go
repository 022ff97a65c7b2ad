package handlers

import (
	"net/http"

	"go-erp-agent/internal/services"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orders *services.OrderService
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// --- Sales orders ---

func (h *OrderHandler) ListSales(c *gin.Context) {
	c.JSON(http.StatusOK, h.orders.ListSalesOrders(c.Request.Context(), services.SalesOrderFilter{
		Search:    c.Query("search"),
		Status:    c.Query("status"),
		CreatedBy: c.Query("created_by"),
	}))
}

func (h *OrderHandler) GetSales(c *gin.Context) {
	o, err := h.orders.GetSalesOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) CreateSales(c *gin.Context) {
	var req services.SalesOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	o, err := h.orders.CreateSalesOrder(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *OrderHandler) SetSalesStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}
	o, err := h.orders.SetSalesOrderStatus(c.Request.Context(), actor(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) AdvanceSales(c *gin.Context) {
	o, err := h.orders.AdvanceSalesOrder(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// --- Purchase orders ---

func (h *OrderHandler) ListPurchases(c *gin.Context) {
	c.JSON(http.StatusOK, h.orders.ListPurchaseOrders(c.Request.Context(), services.PurchaseOrderFilter{
		Search: c.Query("search"),
		Status: c.Query("status"),
	}))
}

func (h *OrderHandler) GetPurchase(c *gin.Context) {
	o, err := h.orders.GetPurchaseOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) CreatePurchase(c *gin.Context) {
	var req services.PurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	o, err := h.orders.CreatePurchaseOrder(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *OrderHandler) SetPurchaseStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}
	o, err := h.orders.SetPurchaseOrderStatus(c.Request.Context(), actor(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) AdvancePurchase(c *gin.Context) {
	o, err := h.orders.AdvancePurchaseOrder(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
